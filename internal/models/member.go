// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"tipa/internal/membership"
)

// Member is a TIPA member profile. AuthSubject links it to the identity provider account.
type Member struct {
	ID                   uint              `gorm:"primaryKey" json:"id"`
	AuthSubject          string            `gorm:"size:255;not null;uniqueIndex" json:"-"`
	Email                string            `gorm:"size:255;not null;uniqueIndex" json:"email"`
	FullName             string            `gorm:"size:200;not null" json:"full_name"`
	Company              string            `gorm:"size:200" json:"company"`
	Bio                  string            `gorm:"type:text" json:"bio"`
	Status               membership.Status `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	MembershipLevel      membership.Level  `gorm:"type:varchar(20);not null;index" json:"membership_level"`
	IsAdmin              bool              `gorm:"not null;default:false" json:"is_admin"`
	MembershipExpiresAt  *time.Time        `json:"membership_expires_at"`
	StripeSubscriptionID *string           `gorm:"size:255" json:"stripe_subscription_id,omitempty"`
	PaypalSubscriptionID *string           `gorm:"size:255" json:"paypal_subscription_id,omitempty"`
	ApprovedAt           *time.Time        `json:"approved_at,omitempty"`
	ApprovedBy           *uint             `json:"approved_by,omitempty"`
	RejectionReason      string            `gorm:"type:text" json:"rejection_reason,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// HasStripeSubscription reports whether a non-empty Stripe subscription is on file.
func (m *Member) HasStripeSubscription() bool {
	return m.StripeSubscriptionID != nil && *m.StripeSubscriptionID != ""
}

// Snapshot returns the fields the membership resolver reads.
func (m *Member) Snapshot() membership.Member {
	return membership.Member{
		Level:                 m.MembershipLevel,
		Status:                m.Status,
		CreatedAt:             m.CreatedAt,
		ExpiresAt:             m.MembershipExpiresAt,
		HasStripeSubscription: m.HasStripeSubscription(),
	}
}
