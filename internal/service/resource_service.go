package service

import (
	"context"
	"strings"

	"tipa/internal/models"
	"tipa/internal/repository"
	"tipa/internal/validation"
)

type ResourceService struct {
	resourceRepo repository.ResourceRepository
}

type PublishResourceInput struct {
	Kind   models.ResourceKind `json:"kind" validate:"required,resource_kind"`
	Title  string              `json:"title" validate:"required,max=300"`
	Body   string              `json:"body" validate:"max=50000"`
	URL    string              `json:"url" validate:"omitempty,url,max=1000"`
	Pinned bool                `json:"pinned"`
}

func NewResourceService(resourceRepo repository.ResourceRepository) *ResourceService {
	return &ResourceService{resourceRepo: resourceRepo}
}

func (s *ResourceService) Publish(ctx context.Context, adminID uint, in PublishResourceInput) (*models.Resource, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.URL = strings.TrimSpace(in.URL)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	if in.Kind == models.ResourceLink && in.URL == "" {
		return nil, models.NewValidationError("url is required for links")
	}
	res := &models.Resource{
		Kind:        in.Kind,
		Title:       in.Title,
		Body:        in.Body,
		URL:         in.URL,
		Pinned:      in.Pinned,
		PublishedBy: adminID,
	}
	if err := s.resourceRepo.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ResourceService) List(ctx context.Context, kind models.ResourceKind, limit, offset int) ([]*models.Resource, error) {
	if kind != "" && !kind.Valid() {
		return nil, models.NewValidationError("kind must be one of announcement, document, link")
	}
	return s.resourceRepo.List(ctx, kind, limit, offset)
}

func (s *ResourceService) Delete(ctx context.Context, id uint) error {
	if err := s.resourceRepo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Resource", id)
	}
	return nil
}
