package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tipa/internal/cache"
	"tipa/internal/membership"
	"tipa/internal/models"
)

// lockForUpdate adds SELECT ... FOR UPDATE. Drivers without row locks ignore it.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// PaymentRepository records payments and extends the paying member.
type PaymentRepository interface {
	// RecordAndExtend stores p and pushes the member's expiry to at least
	// p.PeriodEnd. An expired member is reinstated to approved.
	RecordAndExtend(ctx context.Context, p *models.Payment) (*models.Member, error)
	ListByMember(ctx context.Context, memberID uint) ([]*models.Payment, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) RecordAndExtend(ctx context.Context, p *models.Payment) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&member, p.MemberID).Error; err != nil {
			return err
		}
		if err := tx.Create(p).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if member.MembershipExpiresAt == nil || member.MembershipExpiresAt.Before(p.PeriodEnd) {
			end := p.PeriodEnd
			updates["membership_expires_at"] = end
			member.MembershipExpiresAt = &end
		}
		if sub := strings.TrimSpace(p.ProviderSubscriptionID); sub != "" {
			switch p.Provider {
			case models.ProviderStripe:
				updates["stripe_subscription_id"] = sub
				member.StripeSubscriptionID = &sub
			case models.ProviderPaypal:
				updates["paypal_subscription_id"] = sub
				member.PaypalSubscriptionID = &sub
			}
		}
		if member.Status == membership.StatusExpired {
			updates["status"] = membership.StatusApproved
			member.Status = membership.StatusApproved
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.Member{}).Where("id = ?", member.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	cache.InvalidateMember(ctx, member.ID, member.AuthSubject)
	return &member, nil
}

func (r *paymentRepository) ListByMember(ctx context.Context, memberID uint) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("paid_at DESC").
		Order("id DESC").
		Find(&payments).Error
	return payments, err
}
