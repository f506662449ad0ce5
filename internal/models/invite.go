package models

import (
	"time"

	"tipa/internal/membership"
)

// Invite is a pre-approved offer of membership created by a bulk import.
// Only a bcrypt hash of the claim code is stored.
type Invite struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	Token            string           `gorm:"size:64;not null;uniqueIndex" json:"token"`
	Email            string           `gorm:"size:255;not null;index" json:"email"`
	FullName         string           `gorm:"size:200;not null" json:"full_name"`
	MembershipLevel  membership.Level `gorm:"type:varchar(20);not null" json:"membership_level"`
	CodeHash         string           `gorm:"size:100;not null" json:"-"`
	ExpiresAt        time.Time        `gorm:"not null" json:"expires_at"`
	AcceptedAt       *time.Time       `json:"accepted_at,omitempty"`
	AcceptedMemberID *uint            `json:"accepted_member_id,omitempty"`
	RevokedAt        *time.Time       `json:"revoked_at,omitempty"`
	CreatedBy        uint             `gorm:"not null" json:"created_by"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Open reports whether the invite can still be claimed at now.
func (i *Invite) Open(now time.Time) bool {
	return i.AcceptedAt == nil && i.RevokedAt == nil && now.Before(i.ExpiresAt)
}
