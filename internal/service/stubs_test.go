package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"tipa/internal/membership"
	"tipa/internal/models"
	"tipa/internal/repository"
)

// memberRepoStub is a stub for repository.MemberRepository.
type memberRepoStub struct {
	createFn           func(context.Context, *models.Member) error
	getByIDFn          func(context.Context, uint) (*models.Member, error)
	getBySubjectFn     func(context.Context, string) (*models.Member, error)
	listFn             func(context.Context, repository.MemberFilter, int, int) ([]*models.Member, error)
	existingEmailsFn   func(context.Context, []string) (map[string]bool, error)
	listByStatusFn     func(context.Context, membership.Status, uint, int) ([]*models.Member, error)
	updateFieldsFn     func(context.Context, uint, map[string]interface{}) (*models.Member, error)
	transitionStatusFn func(context.Context, uint, membership.Status, membership.Status, map[string]interface{}) error
	expireIfFn         func(context.Context, uint, func(*models.Member) bool) error
	deleteFn           func(context.Context, uint) error
}

func (s *memberRepoStub) Create(ctx context.Context, m *models.Member) error {
	return s.createFn(ctx, m)
}
func (s *memberRepoStub) GetByID(ctx context.Context, id uint) (*models.Member, error) {
	return s.getByIDFn(ctx, id)
}
func (s *memberRepoStub) GetBySubject(ctx context.Context, subject string) (*models.Member, error) {
	return s.getBySubjectFn(ctx, subject)
}
func (s *memberRepoStub) List(ctx context.Context, f repository.MemberFilter, limit, offset int) ([]*models.Member, error) {
	return s.listFn(ctx, f, limit, offset)
}
func (s *memberRepoStub) ExistingEmails(ctx context.Context, emails []string) (map[string]bool, error) {
	return s.existingEmailsFn(ctx, emails)
}
func (s *memberRepoStub) ListByStatusAfter(ctx context.Context, st membership.Status, after uint, limit int) ([]*models.Member, error) {
	return s.listByStatusFn(ctx, st, after, limit)
}
func (s *memberRepoStub) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) (*models.Member, error) {
	return s.updateFieldsFn(ctx, id, fields)
}
func (s *memberRepoStub) TransitionStatus(ctx context.Context, id uint, from, to membership.Status, extra map[string]interface{}) error {
	return s.transitionStatusFn(ctx, id, from, to, extra)
}
func (s *memberRepoStub) ExpireIf(ctx context.Context, id uint, stillExpired func(*models.Member) bool) error {
	return s.expireIfFn(ctx, id, stillExpired)
}
func (s *memberRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopMemberRepo() *memberRepoStub {
	return &memberRepoStub{
		createFn:  func(_ context.Context, _ *models.Member) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Member, error) { return &models.Member{ID: id}, nil },
		getBySubjectFn: func(_ context.Context, _ string) (*models.Member, error) {
			return nil, gorm.ErrRecordNotFound
		},
		listFn: func(_ context.Context, _ repository.MemberFilter, _, _ int) ([]*models.Member, error) {
			return nil, nil
		},
		existingEmailsFn: func(_ context.Context, _ []string) (map[string]bool, error) { return map[string]bool{}, nil },
		listByStatusFn: func(_ context.Context, _ membership.Status, _ uint, _ int) ([]*models.Member, error) {
			return nil, nil
		},
		updateFieldsFn: func(_ context.Context, id uint, _ map[string]interface{}) (*models.Member, error) {
			return &models.Member{ID: id}, nil
		},
		transitionStatusFn: func(_ context.Context, _ uint, _, _ membership.Status, _ map[string]interface{}) error {
			return nil
		},
		expireIfFn: func(_ context.Context, _ uint, _ func(*models.Member) bool) error { return nil },
		deleteFn:   func(_ context.Context, _ uint) error { return nil },
	}
}

// threadRepoStub is a stub for repository.ThreadRepository.
type threadRepoStub struct {
	createFn         func(context.Context, *models.Thread) error
	getByIDFn        func(context.Context, uint) (*models.Thread, error)
	listByCategoryFn func(context.Context, models.Category, string, int, int) ([]*models.Thread, error)
	listAllFn        func(context.Context, models.Category) ([]*models.Thread, error)
	searchFn         func(context.Context, string, models.Category, int, int) ([]*models.Thread, error)
	deleteFn         func(context.Context, uint) error
}

func (s *threadRepoStub) Create(ctx context.Context, t *models.Thread) error {
	return s.createFn(ctx, t)
}
func (s *threadRepoStub) GetByID(ctx context.Context, id uint) (*models.Thread, error) {
	return s.getByIDFn(ctx, id)
}
func (s *threadRepoStub) ListByCategory(ctx context.Context, c models.Category, sort string, limit, offset int) ([]*models.Thread, error) {
	return s.listByCategoryFn(ctx, c, sort, limit, offset)
}
func (s *threadRepoStub) ListAllInCategory(ctx context.Context, c models.Category) ([]*models.Thread, error) {
	return s.listAllFn(ctx, c)
}
func (s *threadRepoStub) Search(ctx context.Context, q string, c models.Category, limit, offset int) ([]*models.Thread, error) {
	return s.searchFn(ctx, q, c, limit, offset)
}
func (s *threadRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopThreadRepo() *threadRepoStub {
	return &threadRepoStub{
		createFn:  func(_ context.Context, _ *models.Thread) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Thread, error) { return &models.Thread{ID: id}, nil },
		listByCategoryFn: func(_ context.Context, _ models.Category, _ string, _, _ int) ([]*models.Thread, error) {
			return nil, nil
		},
		listAllFn: func(_ context.Context, _ models.Category) ([]*models.Thread, error) { return nil, nil },
		searchFn: func(_ context.Context, _ string, _ models.Category, _, _ int) ([]*models.Thread, error) {
			return nil, nil
		},
		deleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn       func(context.Context, *models.Comment) error
	getByIDFn      func(context.Context, uint) (*models.Comment, error)
	listByThreadFn func(context.Context, uint) ([]*models.Comment, error)
	deleteFn       func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByThread(ctx context.Context, threadID uint) ([]*models.Comment, error) {
	return s.listByThreadFn(ctx, threadID)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:       func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:      func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listByThreadFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		deleteFn:       func(_ context.Context, _ uint) error { return nil },
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func uintPtr(v uint) *uint { return &v }

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func adminIf(ids ...uint) func(context.Context, uint) (bool, error) {
	return func(_ context.Context, id uint) (bool, error) {
		for _, a := range ids {
			if a == id {
				return true, nil
			}
		}
		return false, nil
	}
}

var (
	gormNotFound  = gorm.ErrRecordNotFound
	gormDuplicate = gorm.ErrDuplicatedKey
)
