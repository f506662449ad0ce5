package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tipa/internal/membership"
	"tipa/internal/models"
	"tipa/internal/repository"
	"tipa/internal/testutil"
)

func TestPaymentService_RecordReinstatesExpiredMember(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	admin := testutil.CreateMember(t, db, "admin", testutil.WithAdmin())
	m := testutil.CreateMember(t, db, "lapsed",
		testutil.WithStatus(membership.StatusExpired),
		testutil.WithExpiresAt(testNow.AddDate(0, -1, 0)))

	members := repository.NewMemberRepository(db)
	svc := NewPaymentService(repository.NewPaymentRepository(db), members)
	svc.now = fixedClock(testNow)

	periodEnd := testNow.AddDate(1, 0, 0)
	p, updated, err := svc.Record(ctx, admin.ID, RecordPaymentInput{
		MemberID:    m.ID,
		Provider:    models.ProviderPaypal,
		AmountCents: 9900,
		Currency:    "nzd",
		PeriodEnd:   periodEnd,
	})
	require.NoError(t, err)
	assert.Equal(t, "NZD", p.Currency)
	assert.True(t, p.PaidAt.Equal(testNow))
	assert.Equal(t, admin.ID, p.RecordedBy)
	assert.Equal(t, membership.StatusApproved, updated.Status)

	status := NewMemberService(members, nil)
	status.now = fixedClock(testNow)
	st, err := status.Status(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, st.HasAccess)
	assert.Equal(t, "active", st.Label)

	list, err := svc.ListByMember(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPaymentService_Validation(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	svc := NewPaymentService(repository.NewPaymentRepository(db), repository.NewMemberRepository(db))
	svc.now = fixedClock(testNow)

	tests := []struct {
		name string
		in   RecordPaymentInput
		code string
	}{
		{"unknown provider", RecordPaymentInput{MemberID: 1, Provider: "cash", Currency: "NZD", PeriodEnd: testNow.Add(time.Hour)}, models.CodeValidation},
		{"bad currency", RecordPaymentInput{MemberID: 1, Provider: models.ProviderManual, Currency: "NZ", PeriodEnd: testNow.Add(time.Hour)}, models.CodeValidation},
		{"negative amount", RecordPaymentInput{MemberID: 1, Provider: models.ProviderManual, Currency: "NZD", AmountCents: -1, PeriodEnd: testNow.Add(time.Hour)}, models.CodeValidation},
		{"period before paid", RecordPaymentInput{MemberID: 1, Provider: models.ProviderManual, Currency: "NZD", PeriodEnd: testNow.Add(-time.Hour)}, models.CodeValidation},
		{"unknown member", RecordPaymentInput{MemberID: 404, Provider: models.ProviderManual, Currency: "NZD", PeriodEnd: testNow.Add(time.Hour)}, models.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Record(ctx, 1, tt.in)
			assertAppError(t, err, tt.code)
		})
	}

	_, err := svc.ListByMember(ctx, 404)
	assertAppError(t, err, models.CodeNotFound)
}
