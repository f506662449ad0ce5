package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"tipa/internal/cache"
	"tipa/internal/membership"
	"tipa/internal/models"
)

// MemberFilter narrows List. Zero values match everything.
type MemberFilter struct {
	Status membership.Status
	Level  membership.Level
	Query  string
}

// MemberRepository defines member profile persistence.
type MemberRepository interface {
	Create(ctx context.Context, m *models.Member) error
	GetByID(ctx context.Context, id uint) (*models.Member, error)
	GetBySubject(ctx context.Context, subject string) (*models.Member, error)
	List(ctx context.Context, filter MemberFilter, limit, offset int) ([]*models.Member, error)
	ExistingEmails(ctx context.Context, emails []string) (map[string]bool, error)
	ListByStatusAfter(ctx context.Context, status membership.Status, afterID uint, limit int) ([]*models.Member, error)
	// UpdateFields writes only the given columns and returns the stored row.
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) (*models.Member, error)
	// TransitionStatus moves a member from one status to another and applies
	// extra column updates. It returns ErrStateChanged when the member is not in from.
	TransitionStatus(ctx context.Context, id uint, from, to membership.Status, extra map[string]interface{}) error
	// ExpireIf locks the member, re-checks it with stillExpired and moves it
	// from approved to expired. It returns ErrStateChanged when the locked
	// row is no longer approved or no longer expired.
	ExpireIf(ctx context.Context, id uint, stillExpired func(*models.Member) bool) error
	Delete(ctx context.Context, id uint) error
}

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new MemberRepository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(ctx context.Context, m *models.Member) error {
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	return r.db.WithContext(ctx).Create(m).Error
}

// memberCacheEntry carries AuthSubject, which the API JSON hides.
type memberCacheEntry struct {
	Member  models.Member `json:"member"`
	Subject string        `json:"subject"`
}

func (r *memberRepository) cached(ctx context.Context, key string, query func(*models.Member) error) (*models.Member, error) {
	var entry memberCacheEntry
	err := cache.Aside(ctx, key, &entry, cache.MemberTTL, func() error {
		if err := query(&entry.Member); err != nil {
			return err
		}
		entry.Subject = entry.Member.AuthSubject
		return nil
	})
	if err != nil {
		return nil, err
	}
	entry.Member.AuthSubject = entry.Subject
	return &entry.Member, nil
}

func (r *memberRepository) GetByID(ctx context.Context, id uint) (*models.Member, error) {
	return r.cached(ctx, cache.MemberKey(id), func(m *models.Member) error {
		return r.db.WithContext(ctx).First(m, id).Error
	})
}

func (r *memberRepository) GetBySubject(ctx context.Context, subject string) (*models.Member, error) {
	return r.cached(ctx, cache.MemberSubjectKey(subject), func(m *models.Member) error {
		return r.db.WithContext(ctx).Where("auth_subject = ?", subject).First(m).Error
	})
}

func (r *memberRepository) List(ctx context.Context, filter MemberFilter, limit, offset int) ([]*models.Member, error) {
	q := r.db.WithContext(ctx).Model(&models.Member{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Level != "" {
		q = q.Where("membership_level = ?", filter.Level)
	}
	if s := strings.TrimSpace(filter.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(company) LIKE ?", like, like, like)
	}

	var members []*models.Member
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&members).Error
	return members, err
}

func (r *memberRepository) ExistingEmails(ctx context.Context, emails []string) (map[string]bool, error) {
	found := make(map[string]bool)
	if len(emails) == 0 {
		return found, nil
	}
	var rows []string
	if err := r.db.WithContext(ctx).Model(&models.Member{}).
		Where("email IN ?", emails).
		Pluck("email", &rows).Error; err != nil {
		return nil, err
	}
	for _, e := range rows {
		found[e] = true
	}
	return found, nil
}

func (r *memberRepository) ListByStatusAfter(ctx context.Context, status membership.Status, afterID uint, limit int) ([]*models.Member, error) {
	var members []*models.Member
	err := r.db.WithContext(ctx).
		Where("status = ? AND id > ?", status, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&members).Error
	return members, err
}

func (r *memberRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) (*models.Member, error) {
	updates := map[string]interface{}{"updated_at": time.Now().UTC()}
	for k, v := range fields {
		updates[k] = v
	}

	var m models.Member
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Member{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&m, id).Error
	})
	if err != nil {
		return nil, err
	}
	cache.InvalidateMember(ctx, id, m.AuthSubject)
	return &m, nil
}

func (r *memberRepository) TransitionStatus(ctx context.Context, id uint, from, to membership.Status, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": to, "updated_at": time.Now().UTC()}
	for k, v := range extra {
		updates[k] = v
	}

	res := r.db.WithContext(ctx).Model(&models.Member{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStateChanged
	}

	var m models.Member
	if err := r.db.WithContext(ctx).Select("id", "auth_subject").First(&m, id).Error; err != nil {
		cache.Invalidate(ctx, cache.MemberKey(id))
		return nil
	}
	cache.InvalidateMember(ctx, id, m.AuthSubject)
	return nil
}

func (r *memberRepository) ExpireIf(ctx context.Context, id uint, stillExpired func(*models.Member) bool) error {
	var subject string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Member
		if err := lockForUpdate(tx).First(&m, id).Error; err != nil {
			return err
		}
		if m.Status != membership.StatusApproved || !stillExpired(&m) {
			return ErrStateChanged
		}
		subject = m.AuthSubject
		return tx.Model(&models.Member{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":     membership.StatusExpired,
			"updated_at": time.Now().UTC(),
		}).Error
	})
	if err != nil {
		return err
	}
	cache.InvalidateMember(ctx, id, subject)
	return nil
}

// Delete removes the member. Threads and comments they wrote stay, with
// created_by cleared; threads keep author_email.
func (r *memberRepository) Delete(ctx context.Context, id uint) error {
	var subject string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Member
		if err := tx.Select("id", "auth_subject").First(&m, id).Error; err != nil {
			return err
		}
		subject = m.AuthSubject
		if err := tx.Model(&models.Thread{}).Where("created_by = ?", id).Update("created_by", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).Where("created_by = ?", id).Update("created_by", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("member_id = ?", id).Delete(&models.EventRSVP{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Member{}, id).Error
	})
	if err != nil {
		return err
	}
	cache.InvalidateMember(ctx, id, subject)
	return nil
}
