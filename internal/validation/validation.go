// Package validation wraps go-playground/validator with the domain enums
// registered as tags.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"tipa/internal/membership"
	"tipa/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	mustRegister(v, "member_level", func(fl validator.FieldLevel) bool {
		return membership.Level(fl.Field().String()).Valid()
	})
	mustRegister(v, "category", func(fl validator.FieldLevel) bool {
		return models.Category(fl.Field().String()).Valid()
	})
	mustRegister(v, "rsvp", func(fl validator.FieldLevel) bool {
		return models.RSVPResponse(fl.Field().String()).Valid()
	})
	mustRegister(v, "provider", func(fl validator.FieldLevel) bool {
		return models.PaymentProvider(fl.Field().String()).Valid()
	})
	mustRegister(v, "resource_kind", func(fl validator.FieldLevel) bool {
		return models.ResourceKind(fl.Field().String()).Valid()
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// Struct validates s and returns a VALIDATION_ERROR AppError describing the
// first failing fields.
func Struct(s interface{}) error {
	if s == nil {
		return nil
	}
	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("validator: expected a struct, got %T", s)
	}

	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, describe(fe))
		}
		return models.NewValidationError(strings.Join(msgs, "; "))
	}
	return fmt.Errorf("validation failed: %w", err)
}

// Email reports whether s is a syntactically valid address.
func Email(s string) bool {
	return validate.Var(s, "required,email") == nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "member_level":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), joinLevels())
	case "category", "rsvp", "provider", "resource_kind", "oneof":
		return fmt.Sprintf("%s has an unsupported value %q", fe.Field(), fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

func joinLevels() string {
	names := make([]string, len(membership.Levels))
	for i, l := range membership.Levels {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}
