package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"tipa/internal/models"
	"tipa/internal/observability"
	"tipa/internal/ranking"
	"tipa/internal/repository"
)

const (
	maxTitleLen   = 300
	maxContentLen = 20000
)

type ThreadService struct {
	threadRepo repository.ThreadRepository
	isAdmin    func(ctx context.Context, memberID uint) (bool, error)
	now        func() time.Time
}

type CreateThreadInput struct {
	Author   *models.Member
	Title    string
	Content  string
	Category models.Category
}

type ListThreadsInput struct {
	Category models.Category
	Sort     string
	Query    string
	Limit    int
	Offset   int
}

type DeleteThreadInput struct {
	MemberID uint
	ThreadID uint
}

func NewThreadService(
	threadRepo repository.ThreadRepository,
	isAdmin func(ctx context.Context, memberID uint) (bool, error),
) *ThreadService {
	return &ThreadService{
		threadRepo: threadRepo,
		isAdmin:    isAdmin,
		now:        nowUTC,
	}
}

func (s *ThreadService) CreateThread(ctx context.Context, in CreateThreadInput) (*models.Thread, error) {
	if in.Author == nil {
		return nil, models.NewUnauthorizedError("A member profile is required")
	}
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	switch {
	case title == "":
		return nil, models.NewValidationError("Title is required")
	case len(title) > maxTitleLen:
		return nil, models.NewValidationError("Title too long (max 300 characters)")
	case content == "":
		return nil, models.NewValidationError("Content is required")
	case len(content) > maxContentLen:
		return nil, models.NewValidationError("Content too long (max 20000 characters)")
	case !in.Category.Valid():
		return nil, models.NewValidationError("Unknown category")
	}

	authorID := in.Author.ID
	thread := &models.Thread{
		Title:       title,
		Content:     content,
		Category:    in.Category,
		CreatedBy:   &authorID,
		AuthorEmail: in.Author.Email,
	}
	if err := s.threadRepo.Create(ctx, thread); err != nil {
		return nil, err
	}
	return s.GetThread(ctx, thread.ID)
}

func (s *ThreadService) GetThread(ctx context.Context, id uint) (*models.Thread, error) {
	thread, err := s.threadRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Thread", id)
	}
	return thread, nil
}

// ListThreads lists one category. A non-empty Query searches instead of sorting.
func (s *ThreadService) ListThreads(ctx context.Context, in ListThreadsInput) ([]*models.Thread, error) {
	if in.Category != "" && !in.Category.Valid() {
		return nil, models.NewValidationError("Unknown category")
	}
	if q := strings.TrimSpace(in.Query); q != "" {
		return s.threadRepo.Search(ctx, q, in.Category, in.Limit, in.Offset)
	}
	if in.Category == "" {
		return nil, models.NewValidationError("Category is required")
	}

	switch in.Sort {
	case "", repository.SortHot:
		return s.listHot(ctx, in)
	case repository.SortNew, repository.SortActive:
		return s.threadRepo.ListByCategory(ctx, in.Category, in.Sort, in.Limit, in.Offset)
	default:
		return nil, models.NewValidationError("Sort must be one of hot, new, active")
	}
}

// listHot scores every thread in the category, then pages through the ranked list.
func (s *ThreadService) listHot(ctx context.Context, in ListThreadsInput) ([]*models.Thread, error) {
	ctx, span := observability.StartSpan(ctx, "threads.ListHot", attribute.String("forum.category", string(in.Category)))
	threads, err := s.threadRepo.ListAllInCategory(ctx, in.Category)
	if err != nil {
		observability.EndSpan(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("forum.threads", len(threads)))
	defer observability.EndSpan(span, nil)

	done := observability.ObserveHotRanking(string(in.Category))
	ranking.SortHot(threads, func(t *models.Thread) ranking.Activity { return t.Activity() }, s.now())
	done()

	return paginate(threads, in.Limit, in.Offset), nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func (s *ThreadService) DeleteThread(ctx context.Context, in DeleteThreadInput) (*models.Thread, error) {
	thread, err := s.GetThread(ctx, in.ThreadID)
	if err != nil {
		return nil, err
	}
	if err := ownerOrAdmin(ctx, thread.CreatedBy, in.MemberID, s.isAdmin, "You can only delete your own threads"); err != nil {
		return nil, err
	}
	if err := s.threadRepo.Delete(ctx, in.ThreadID); err != nil {
		return nil, notFoundOr(err, "Thread", in.ThreadID)
	}
	return thread, nil
}
