package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"tipa/internal/models"
)

// InviteRepository defines bulk-invite persistence.
type InviteRepository interface {
	CreateBatch(ctx context.Context, invites []*models.Invite) error
	GetByID(ctx context.Context, id uint) (*models.Invite, error)
	ListOpen(ctx context.Context, now time.Time, limit, offset int) ([]*models.Invite, error)
	// OpenEmails returns the subset of emails that already hold an open invite.
	OpenEmails(ctx context.Context, emails []string, now time.Time) (map[string]bool, error)
	// Accept creates member and marks the invite claimed in one transaction.
	// It returns ErrStateChanged when the invite was claimed, revoked or
	// expired in the meantime.
	Accept(ctx context.Context, inviteID uint, member *models.Member, now time.Time) error
	Revoke(ctx context.Context, id uint, now time.Time) error
}

type inviteRepository struct {
	db *gorm.DB
}

func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &inviteRepository{db: db}
}

func (r *inviteRepository) CreateBatch(ctx context.Context, invites []*models.Invite) error {
	if len(invites) == 0 {
		return nil
	}
	for _, inv := range invites {
		inv.Email = strings.ToLower(strings.TrimSpace(inv.Email))
	}
	return r.db.WithContext(ctx).CreateInBatches(invites, 100).Error
}

func (r *inviteRepository) GetByID(ctx context.Context, id uint) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.WithContext(ctx).First(&invite, id).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

func openInvites(db *gorm.DB, now time.Time) *gorm.DB {
	return db.Where("accepted_at IS NULL AND revoked_at IS NULL AND expires_at > ?", now)
}

func (r *inviteRepository) ListOpen(ctx context.Context, now time.Time, limit, offset int) ([]*models.Invite, error) {
	var invites []*models.Invite
	err := openInvites(r.db.WithContext(ctx), now).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&invites).Error
	return invites, err
}

func (r *inviteRepository) OpenEmails(ctx context.Context, emails []string, now time.Time) (map[string]bool, error) {
	found := make(map[string]bool)
	if len(emails) == 0 {
		return found, nil
	}
	var rows []string
	err := openInvites(r.db.WithContext(ctx).Model(&models.Invite{}), now).
		Where("email IN ?", emails).
		Pluck("email", &rows).Error
	if err != nil {
		return nil, err
	}
	for _, e := range rows {
		found[e] = true
	}
	return found, nil
}

func (r *inviteRepository) Accept(ctx context.Context, inviteID uint, member *models.Member, now time.Time) error {
	member.Email = strings.ToLower(strings.TrimSpace(member.Email))
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(member).Error; err != nil {
			return err
		}
		res := openInvites(tx.Model(&models.Invite{}), now).
			Where("id = ?", inviteID).
			Updates(map[string]interface{}{
				"accepted_at":        now,
				"accepted_member_id": member.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStateChanged
		}
		return nil
	})
}

func (r *inviteRepository) Revoke(ctx context.Context, id uint, now time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Invite{}).
		Where("id = ? AND accepted_at IS NULL AND revoked_at IS NULL", id).
		Update("revoked_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStateChanged
	}
	return nil
}
