package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tipa/internal/membership"
	"tipa/internal/models"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestThreadRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewThreadRepository(db)
	ctx := context.Background()

	thread := &models.Thread{Title: "Welding codes", Content: "Which edition?", Category: models.CategoryTechnical, AuthorEmail: "a@example.com"}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "threads"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(ctx, thread)
	assert.NoError(t, err)
	assert.Equal(t, uint(1), thread.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepository_TransitionStatusLostRace(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewMemberRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "members" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.TransitionStatus(ctx, 7, membership.StatusPending, membership.StatusApproved, nil)
	assert.ErrorIs(t, err, ErrStateChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepository_CreateUniqueViolation(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewMemberRepository(db)
	ctx := context.Background()

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_members_email"}
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "members"`)).WillReturnError(pgErr)
	mock.ExpectRollback()

	err := repo.Create(ctx, &models.Member{AuthSubject: "sub|x", Email: " X@Example.com ", FullName: "X", MembershipLevel: membership.LevelFull})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.Equal(t, "idx_members_email", UniqueConstraint(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestErrorHelpers(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.Equal(t, "", UniqueConstraint(gorm.ErrDuplicatedKey))
	assert.True(t, IsNotFound(gorm.ErrRecordNotFound))
	assert.False(t, IsNotFound(ErrStateChanged))
}
