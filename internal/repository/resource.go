package repository

import (
	"context"

	"gorm.io/gorm"

	"tipa/internal/cache"
	"tipa/internal/models"
)

// ResourceRepository defines announcement and shared-resource persistence.
type ResourceRepository interface {
	Create(ctx context.Context, res *models.Resource) error
	GetByID(ctx context.Context, id uint) (*models.Resource, error)
	// List returns pinned resources first, then newest. An empty kind lists all.
	List(ctx context.Context, kind models.ResourceKind, limit, offset int) ([]*models.Resource, error)
	Delete(ctx context.Context, id uint) error
}

type resourceRepository struct {
	db *gorm.DB
}

func NewResourceRepository(db *gorm.DB) ResourceRepository {
	return &resourceRepository{db: db}
}

func (r *resourceRepository) Create(ctx context.Context, res *models.Resource) error {
	if err := r.db.WithContext(ctx).Create(res).Error; err != nil {
		return err
	}
	cache.InvalidateResources(ctx, string(res.Kind))
	return nil
}

func (r *resourceRepository) GetByID(ctx context.Context, id uint) (*models.Resource, error) {
	var res models.Resource
	if err := r.db.WithContext(ctx).First(&res, id).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *resourceRepository) List(ctx context.Context, kind models.ResourceKind, limit, offset int) ([]*models.Resource, error) {
	query := func() ([]*models.Resource, error) {
		var out []*models.Resource
		q := r.db.WithContext(ctx).Model(&models.Resource{})
		if kind != "" {
			q = q.Where("kind = ?", kind)
		}
		err := q.Order("pinned DESC").
			Order("created_at DESC").
			Order("id DESC").
			Limit(limit).
			Offset(offset).
			Find(&out).Error
		return out, err
	}

	// Only the first page is cached.
	if offset != 0 {
		return query()
	}

	var page struct {
		Limit int                `json:"limit"`
		Items []*models.Resource `json:"items"`
	}
	err := cache.Aside(ctx, cache.ResourcesKey(string(kind)), &page, cache.ResourcesTTL, func() error {
		items, err := query()
		page.Limit, page.Items = limit, items
		return err
	})
	if err != nil {
		return nil, err
	}
	if page.Limit != limit {
		return query()
	}
	return page.Items, nil
}

func (r *resourceRepository) Delete(ctx context.Context, id uint) error {
	var res models.Resource
	if err := r.db.WithContext(ctx).Select("id", "kind").First(&res, id).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(&models.Resource{}, id).Error; err != nil {
		return err
	}
	cache.InvalidateResources(ctx, string(res.Kind))
	return nil
}
