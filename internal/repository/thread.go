package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"tipa/internal/models"
)

// Thread list orderings handled in SQL. "hot" is ranked in the service.
const (
	SortNew    = "new"
	SortActive = "active"
	SortHot    = "hot"
)

// ThreadRepository defines the interface for forum thread data operations
type ThreadRepository interface {
	Create(ctx context.Context, thread *models.Thread) error
	GetByID(ctx context.Context, id uint) (*models.Thread, error)
	ListByCategory(ctx context.Context, category models.Category, sort string, limit, offset int) ([]*models.Thread, error)
	// ListAllInCategory returns every thread in the category, newest first, for in-memory ranking.
	ListAllInCategory(ctx context.Context, category models.Category) ([]*models.Thread, error)
	Search(ctx context.Context, query string, category models.Category, limit, offset int) ([]*models.Thread, error)
	Delete(ctx context.Context, id uint) error
}

type threadRepository struct {
	db *gorm.DB
}

// NewThreadRepository creates a new thread repository
func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &threadRepository{db: db}
}

func (r *threadRepository) Create(ctx context.Context, thread *models.Thread) error {
	return r.db.WithContext(ctx).Create(thread).Error
}

// applyThreadDetails adds the comment count subquery.
func applyThreadDetails(db *gorm.DB) *gorm.DB {
	return db.Select("threads.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.thread_id = threads.id) AS comment_count")
}

func applyThreadSort(db *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case SortActive:
		return db.Order("COALESCE(threads.latest_comment_at, threads.created_at) DESC").Order("threads.id DESC")
	default:
		return db.Order("threads.created_at DESC").Order("threads.id DESC")
	}
}

func (r *threadRepository) GetByID(ctx context.Context, id uint) (*models.Thread, error) {
	var thread models.Thread
	err := applyThreadDetails(r.db.WithContext(ctx).Model(&models.Thread{})).
		Preload("Author").
		Where("threads.id = ?", id).
		First(&thread).Error
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *threadRepository) ListByCategory(ctx context.Context, category models.Category, sort string, limit, offset int) ([]*models.Thread, error) {
	var threads []*models.Thread
	base := applyThreadDetails(r.db.WithContext(ctx).Model(&models.Thread{})).
		Preload("Author").
		Where("threads.category = ?", category)
	err := applyThreadSort(base, sort).
		Limit(limit).
		Offset(offset).
		Find(&threads).Error
	return threads, err
}

func (r *threadRepository) ListAllInCategory(ctx context.Context, category models.Category) ([]*models.Thread, error) {
	var threads []*models.Thread
	err := applyThreadDetails(r.db.WithContext(ctx).Model(&models.Thread{})).
		Preload("Author").
		Where("threads.category = ?", category).
		Order("threads.created_at DESC").
		Order("threads.id DESC").
		Find(&threads).Error
	return threads, err
}

func (r *threadRepository) Search(ctx context.Context, query string, category models.Category, limit, offset int) ([]*models.Thread, error) {
	like := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	q := applyThreadDetails(r.db.WithContext(ctx).Model(&models.Thread{})).
		Preload("Author").
		Where("LOWER(threads.title) LIKE ? OR LOWER(threads.content) LIKE ?", like, like)
	if category != "" {
		q = q.Where("threads.category = ?", category)
	}

	var threads []*models.Thread
	err := q.Order("threads.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&threads).Error
	return threads, err
}

// Delete removes the thread and its comments.
func (r *threadRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("thread_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Thread{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
