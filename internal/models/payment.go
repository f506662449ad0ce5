package models

import "time"

// PaymentProvider names where a payment was taken.
type PaymentProvider string

const (
	ProviderStripe PaymentProvider = "stripe"
	ProviderPaypal PaymentProvider = "paypal"
	ProviderManual PaymentProvider = "manual"
)

func (p PaymentProvider) Valid() bool {
	switch p {
	case ProviderStripe, ProviderPaypal, ProviderManual:
		return true
	}
	return false
}

// Payment is a recorded membership payment covering up to PeriodEnd.
type Payment struct {
	ID                     uint            `gorm:"primaryKey" json:"id"`
	MemberID               uint            `gorm:"not null;index" json:"member_id"`
	Provider               PaymentProvider `gorm:"type:varchar(20);not null" json:"provider"`
	ProviderSubscriptionID string          `gorm:"size:255" json:"provider_subscription_id,omitempty"`
	AmountCents            int64           `gorm:"not null" json:"amount_cents"`
	Currency               string          `gorm:"size:3;not null" json:"currency"`
	PaidAt                 time.Time       `gorm:"not null" json:"paid_at"`
	PeriodEnd              time.Time       `gorm:"not null" json:"period_end"`
	RecordedBy             uint            `gorm:"not null" json:"recorded_by"`
	CreatedAt              time.Time       `json:"created_at"`
}
