// Package bootstrap wires the database, Redis and startup data shared by the
// server and tipactl.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"tipa/internal/cache"
	"tipa/internal/config"
	"tipa/internal/database"
	"tipa/internal/membership"
	"tipa/internal/middleware"
	"tipa/internal/models"
	"tipa/internal/repository"
	"tipa/internal/seed"
)

// Options control runtime initialization.
type Options struct {
	// ApplySchema runs migrations per DB_SCHEMA_MODE before returning.
	ApplySchema bool
	// Seed, when non-nil, fills the database with demo data.
	Seed *seed.Preset
}

// InitRuntime connects to the database and Redis, ensures the configured
// bootstrap admin and optionally seeds demo data. Redis is optional; the
// returned client is nil when it is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if opts.ApplySchema {
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return nil, nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()

	if cfg.BootstrapAdminSubject != "" {
		admin, err := EnsureAdmin(ctx, repository.NewMemberRepository(db), cfg.BootstrapAdminSubject, cfg.BootstrapAdminEmail)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap admin: %w", err)
		}
		middleware.Logger.InfoContext(ctx, "Bootstrap admin ensured", "member_id", admin.ID, "email", admin.Email)
	}

	if opts.Seed != nil {
		if _, err := seed.NewSeeder(db, *opts.Seed, time.Now()).Run(ctx); err != nil {
			return nil, nil, fmt.Errorf("seed demo data: %w", err)
		}
	}

	return db, rdb, nil
}

// EnsureAdmin makes the member linked to subject an approved Honorary admin,
// creating the profile if none exists yet.
func EnsureAdmin(ctx context.Context, members repository.MemberRepository, subject, email string) (*models.Member, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, errors.New("admin subject is required")
	}

	m, err := members.GetBySubject(ctx, subject)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		now := time.Now().UTC()
		m = &models.Member{
			AuthSubject:     subject,
			Email:           email,
			FullName:        "TIPA Administrator",
			Status:          membership.StatusApproved,
			MembershipLevel: membership.LevelHonorary,
			IsAdmin:         true,
			ApprovedAt:      &now,
		}
		if err := members.Create(ctx, m); err != nil {
			return nil, fmt.Errorf("create admin: %w", err)
		}
		return m, nil
	case err != nil:
		return nil, err
	}

	if m.IsAdmin && m.Status == membership.StatusApproved {
		return m, nil
	}
	fields := map[string]interface{}{"is_admin": true, "status": membership.StatusApproved}
	if m.ApprovedAt == nil {
		fields["approved_at"] = time.Now().UTC()
	}
	m, err = members.UpdateFields(ctx, m.ID, fields)
	if err != nil {
		return nil, fmt.Errorf("promote admin: %w", err)
	}
	return m, nil
}
