// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tipa/internal/database"
	"tipa/internal/membership"
	"tipa/internal/models"
)

// NewSQLiteDB returns an in-memory database with every persistent model migrated.
// The pool is pinned to one connection so the in-memory database survives for the test.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         database.NewGormLogger(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// MemberOption customizes a member built by CreateMember.
type MemberOption func(*models.Member)

func WithStatus(s membership.Status) MemberOption {
	return func(m *models.Member) { m.Status = s }
}

func WithLevel(l membership.Level) MemberOption {
	return func(m *models.Member) { m.MembershipLevel = l }
}

func WithAdmin() MemberOption {
	return func(m *models.Member) { m.IsAdmin = true }
}

func WithCreatedAt(t time.Time) MemberOption {
	return func(m *models.Member) { m.CreatedAt = t }
}

func WithExpiresAt(t time.Time) MemberOption {
	return func(m *models.Member) { m.MembershipExpiresAt = &t }
}

// CreateMember inserts an approved Full member identified by name.
func CreateMember(t *testing.T, db *gorm.DB, name string, opts ...MemberOption) *models.Member {
	t.Helper()
	m := &models.Member{
		AuthSubject:     "sub|" + name,
		Email:           name + "@example.com",
		FullName:        name,
		Status:          membership.StatusApproved,
		MembershipLevel: membership.LevelFull,
	}
	for _, opt := range opts {
		opt(m)
	}
	require.NoError(t, db.Create(m).Error)
	return m
}
