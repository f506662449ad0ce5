package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tipa/internal/models"
	"tipa/internal/repository"
)

func newThreadService(repo repository.ThreadRepository, isAdmin func(context.Context, uint) (bool, error)) *ThreadService {
	svc := NewThreadService(repo, isAdmin)
	svc.now = fixedClock(testNow)
	return svc
}

func TestThreadService_CreateThread_Validation(t *testing.T) {
	t.Parallel()

	svc := newThreadService(noopThreadRepo(), nil)
	author := &models.Member{ID: 1, Email: "a@example.com"}

	tests := []struct {
		name string
		in   CreateThreadInput
	}{
		{"empty title", CreateThreadInput{Author: author, Content: "c", Category: models.CategoryGeneral}},
		{"title too long", CreateThreadInput{Author: author, Title: strings.Repeat("x", 301), Content: "c", Category: models.CategoryGeneral}},
		{"empty content", CreateThreadInput{Author: author, Title: "t", Category: models.CategoryGeneral}},
		{"unknown category", CreateThreadInput{Author: author, Title: "t", Content: "c", Category: "memes"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.CreateThread(context.Background(), tt.in)
			assertAppError(t, err, models.CodeValidation)
		})
	}
}

func TestThreadService_CreateThread_StampsAuthor(t *testing.T) {
	t.Parallel()

	repo := noopThreadRepo()
	var created *models.Thread
	repo.createFn = func(_ context.Context, th *models.Thread) error {
		th.ID = 11
		created = th
		return nil
	}
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Thread, error) {
		return created, nil
	}

	th, err := newThreadService(repo, nil).CreateThread(context.Background(), CreateThreadInput{
		Author: &models.Member{ID: 3, Email: "c@example.com"}, Title: " Hello ", Content: "World", Category: models.CategoryCareers,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(11), th.ID)
	assert.Equal(t, "Hello", th.Title)
	require.NotNil(t, th.CreatedBy)
	assert.Equal(t, uint(3), *th.CreatedBy)
	assert.Equal(t, "c@example.com", th.AuthorEmail)
}

func TestThreadService_ListHotRanksWholeCategoryThenPaginates(t *testing.T) {
	t.Parallel()

	latest := testNow.Add(-time.Hour)
	stale := testNow.Add(-200 * time.Hour)
	threads := []*models.Thread{
		{ID: 1, CommentCount: 10, CreatedAt: testNow.Add(-300 * time.Hour), LatestCommentAt: &stale},
		{ID: 2, CommentCount: 0, CreatedAt: testNow},
		{ID: 3, CommentCount: 10, CreatedAt: testNow.Add(-300 * time.Hour), LatestCommentAt: &latest},
		{ID: 4, CommentCount: 2, CreatedAt: testNow.Add(-2 * time.Hour)},
	}
	repo := noopThreadRepo()
	repo.listAllFn = func(_ context.Context, c models.Category) ([]*models.Thread, error) {
		assert.Equal(t, models.CategoryGeneral, c)
		out := make([]*models.Thread, len(threads))
		copy(out, threads)
		return out, nil
	}
	repo.listByCategoryFn = func(_ context.Context, _ models.Category, _ string, _, _ int) ([]*models.Thread, error) {
		t.Fatal("hot listing must not use SQL ordering")
		return nil, nil
	}
	svc := newThreadService(repo, nil)

	ids := func(list []*models.Thread) []uint {
		out := make([]uint, len(list))
		for i, th := range list {
			out[i] = th.ID
		}
		return out
	}

	page, err := svc.ListThreads(context.Background(), ListThreadsInput{Category: models.CategoryGeneral, Sort: "hot", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 1}, ids(page))

	page, err = svc.ListThreads(context.Background(), ListThreadsInput{Category: models.CategoryGeneral, Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, []uint{4, 2}, ids(page))

	page, err = svc.ListThreads(context.Background(), ListThreadsInput{Category: models.CategoryGeneral, Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, page)

	page, err = svc.ListThreads(context.Background(), ListThreadsInput{Category: models.CategoryGeneral, Limit: 2, Offset: -3})
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 1}, ids(page))
}

func TestThreadService_ListThreads_Dispatch(t *testing.T) {
	t.Parallel()

	repo := noopThreadRepo()
	var gotSort, gotQuery string
	repo.listByCategoryFn = func(_ context.Context, _ models.Category, sort string, _, _ int) ([]*models.Thread, error) {
		gotSort = sort
		return nil, nil
	}
	repo.searchFn = func(_ context.Context, q string, _ models.Category, _, _ int) ([]*models.Thread, error) {
		gotQuery = q
		return nil, nil
	}
	svc := newThreadService(repo, nil)
	ctx := context.Background()

	_, err := svc.ListThreads(ctx, ListThreadsInput{Category: models.CategoryTechnical, Sort: "active"})
	require.NoError(t, err)
	assert.Equal(t, "active", gotSort)

	_, err = svc.ListThreads(ctx, ListThreadsInput{Query: "  rates "})
	require.NoError(t, err)
	assert.Equal(t, "rates", gotQuery)

	_, err = svc.ListThreads(ctx, ListThreadsInput{Category: models.CategoryTechnical, Sort: "top"})
	assertAppError(t, err, models.CodeValidation)

	_, err = svc.ListThreads(ctx, ListThreadsInput{Category: "nope"})
	assertAppError(t, err, models.CodeValidation)

	_, err = svc.ListThreads(ctx, ListThreadsInput{})
	assertAppError(t, err, models.CodeValidation)
}

func TestThreadService_DeleteThread_Ownership(t *testing.T) {
	t.Parallel()

	repo := noopThreadRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Thread, error) {
		return &models.Thread{ID: id, CreatedBy: uintPtr(10)}, nil
	}
	deleted := 0
	repo.deleteFn = func(_ context.Context, _ uint) error { deleted++; return nil }
	svc := newThreadService(repo, adminIf(99))
	ctx := context.Background()

	_, err := svc.DeleteThread(ctx, DeleteThreadInput{MemberID: 5, ThreadID: 1})
	assertAppError(t, err, models.CodeForbidden)

	_, err = svc.DeleteThread(ctx, DeleteThreadInput{MemberID: 10, ThreadID: 1})
	require.NoError(t, err)
	_, err = svc.DeleteThread(ctx, DeleteThreadInput{MemberID: 99, ThreadID: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	// Threads whose author left can only be removed by an admin.
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Thread, error) { return &models.Thread{ID: id}, nil }
	_, err = newThreadService(repo, nil).DeleteThread(ctx, DeleteThreadInput{MemberID: 10, ThreadID: 1})
	assertAppError(t, err, models.CodeForbidden)

	repo.getByIDFn = func(_ context.Context, _ uint) (*models.Thread, error) { return nil, gormNotFound }
	_, err = svc.DeleteThread(ctx, DeleteThreadInput{MemberID: 10, ThreadID: 1})
	assertAppError(t, err, models.CodeNotFound)
}
