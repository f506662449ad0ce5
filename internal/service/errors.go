// Package service holds the business rules that sit between HTTP handlers
// and the repositories.
package service

import (
	"context"
	"time"

	"tipa/internal/models"
	"tipa/internal/repository"
)

// notFoundOr turns a repository not-found into a NOT_FOUND AppError.
func notFoundOr(err error, resource string, id interface{}) error {
	if repository.IsNotFound(err) {
		return models.NewNotFoundError(resource, id)
	}
	return err
}

// ownerOrAdmin allows the action when memberID owns the record or is an admin.
func ownerOrAdmin(ctx context.Context, ownerID *uint, memberID uint,
	isAdmin func(ctx context.Context, memberID uint) (bool, error), msg string,
) error {
	if ownerID != nil && *ownerID == memberID {
		return nil
	}
	if isAdmin == nil {
		return models.NewForbiddenError(msg)
	}
	admin, err := isAdmin(ctx, memberID)
	if err != nil {
		return err
	}
	if !admin {
		return models.NewForbiddenError(msg)
	}
	return nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
