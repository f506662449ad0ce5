package repository

import (
	"context"

	"gorm.io/gorm"

	"tipa/internal/models"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByThread(ctx context.Context, threadID uint) ([]*models.Comment, error)
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// refreshLatestComment recomputes threads.latest_comment_at from the thread's comments.
func refreshLatestComment(tx *gorm.DB, threadID uint) error {
	return tx.Model(&models.Thread{}).
		Where("id = ?", threadID).
		UpdateColumn("latest_comment_at",
			tx.Model(&models.Comment{}).Select("MAX(created_at)").Where("thread_id = ?", threadID),
		).Error
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return refreshLatestComment(tx, comment.ThreadID)
	})
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("Author").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByThread(ctx context.Context, threadID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("thread_id = ?", threadID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Select("id", "thread_id").First(&comment, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Comment{}, id).Error; err != nil {
			return err
		}
		return refreshLatestComment(tx, comment.ThreadID)
	})
}
