package service

import (
	"context"
	"strings"
	"time"

	"tipa/internal/models"
	"tipa/internal/repository"
	"tipa/internal/validation"
)

type PaymentService struct {
	paymentRepo repository.PaymentRepository
	memberRepo  repository.MemberRepository
	now         func() time.Time
}

// RecordPaymentInput is an admin-entered payment. Provider APIs are not called.
type RecordPaymentInput struct {
	MemberID               uint                   `json:"member_id" validate:"required"`
	Provider               models.PaymentProvider `json:"provider" validate:"required,provider"`
	ProviderSubscriptionID string                 `json:"provider_subscription_id" validate:"max=255"`
	AmountCents            int64                  `json:"amount_cents" validate:"min=0"`
	Currency               string                 `json:"currency" validate:"required,len=3,alpha"`
	PaidAt                 time.Time              `json:"paid_at"`
	PeriodEnd              time.Time              `json:"period_end" validate:"required"`
}

func NewPaymentService(paymentRepo repository.PaymentRepository, memberRepo repository.MemberRepository) *PaymentService {
	return &PaymentService{paymentRepo: paymentRepo, memberRepo: memberRepo, now: nowUTC}
}

// Record stores the payment and extends the member to at least PeriodEnd.
func (s *PaymentService) Record(ctx context.Context, adminID uint, in RecordPaymentInput) (*models.Payment, *models.Member, error) {
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if err := validation.Struct(&in); err != nil {
		return nil, nil, err
	}
	if in.PaidAt.IsZero() {
		in.PaidAt = s.now()
	}
	if !in.PeriodEnd.After(in.PaidAt) {
		return nil, nil, models.NewValidationError("period_end must be after paid_at")
	}

	p := &models.Payment{
		MemberID:               in.MemberID,
		Provider:               in.Provider,
		ProviderSubscriptionID: strings.TrimSpace(in.ProviderSubscriptionID),
		AmountCents:            in.AmountCents,
		Currency:               in.Currency,
		PaidAt:                 in.PaidAt.UTC(),
		PeriodEnd:              in.PeriodEnd.UTC(),
		RecordedBy:             adminID,
	}
	m, err := s.paymentRepo.RecordAndExtend(ctx, p)
	if err != nil {
		return nil, nil, notFoundOr(err, "Member", in.MemberID)
	}
	return p, m, nil
}

func (s *PaymentService) ListByMember(ctx context.Context, memberID uint) ([]*models.Payment, error) {
	if _, err := s.memberRepo.GetByID(ctx, memberID); err != nil {
		return nil, notFoundOr(err, "Member", memberID)
	}
	return s.paymentRepo.ListByMember(ctx, memberID)
}
