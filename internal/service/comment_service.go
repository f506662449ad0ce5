package service

import (
	"context"
	"strings"

	"tipa/internal/models"
	"tipa/internal/repository"
)

const maxCommentLen = 10000

type CommentService struct {
	commentRepo repository.CommentRepository
	threadRepo  repository.ThreadRepository
	isAdmin     func(ctx context.Context, memberID uint) (bool, error)
}

type CreateCommentInput struct {
	MemberID uint
	ThreadID uint
	Content  string
}

type DeleteCommentInput struct {
	MemberID  uint
	CommentID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	threadRepo repository.ThreadRepository,
	isAdmin func(ctx context.Context, memberID uint) (bool, error),
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		threadRepo:  threadRepo,
		isAdmin:     isAdmin,
	}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if _, err := s.threadRepo.GetByID(ctx, in.ThreadID); err != nil {
		return nil, notFoundOr(err, "Thread", in.ThreadID)
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	memberID := in.MemberID
	comment := &models.Comment{
		ThreadID:  in.ThreadID,
		Content:   content,
		CreatedBy: &memberID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) ListComments(ctx context.Context, threadID uint) ([]*models.Comment, error) {
	if _, err := s.threadRepo.GetByID(ctx, threadID); err != nil {
		return nil, notFoundOr(err, "Thread", threadID)
	}
	return s.commentRepo.ListByThread(ctx, threadID)
}

func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, notFoundOr(err, "Comment", in.CommentID)
	}
	if err := ownerOrAdmin(ctx, comment.CreatedBy, in.MemberID, s.isAdmin, "You can only delete your own comments"); err != nil {
		return nil, err
	}
	if err := s.commentRepo.Delete(ctx, in.CommentID); err != nil {
		return nil, notFoundOr(err, "Comment", in.CommentID)
	}
	return comment, nil
}
