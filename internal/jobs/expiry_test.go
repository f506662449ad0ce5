package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tipa/internal/membership"
	"tipa/internal/models"
	"tipa/internal/repository"
	"tipa/internal/testutil"
)

var now = time.Date(2026, time.October, 18, 3, 0, 0, 0, time.UTC)

func TestExpirySweeper_Run(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	// Trial ended Sep 1 2026.
	lapsedTrial := testutil.CreateMember(t, db, "lapsed", testutil.WithCreatedAt(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)))
	// Trial runs to Sep 1 2027.
	onTrial := testutil.CreateMember(t, db, "trial", testutil.WithCreatedAt(time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC)))
	paidUp := testutil.CreateMember(t, db, "paid",
		testutil.WithCreatedAt(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)),
		testutil.WithExpiresAt(now.AddDate(0, 2, 0)))
	explicitPast := testutil.CreateMember(t, db, "overdue",
		testutil.WithLevel(membership.LevelCorporate),
		testutil.WithExpiresAt(now.Add(-time.Hour)))
	honorary := testutil.CreateMember(t, db, "honorary",
		testutil.WithLevel(membership.LevelHonorary),
		testutil.WithCreatedAt(time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)))
	pending := testutil.CreateMember(t, db, "pending",
		testutil.WithStatus(membership.StatusPending),
		testutil.WithCreatedAt(time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)))

	sweeper := NewExpirySweeper(repository.NewMemberRepository(db), nil)
	res, err := sweeper.Run(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Checked)
	assert.Equal(t, 2, res.Expired)

	statusOf := func(m *models.Member) membership.Status {
		var got models.Member
		require.NoError(t, db.First(&got, m.ID).Error)
		return got.Status
	}
	assert.Equal(t, membership.StatusExpired, statusOf(lapsedTrial))
	assert.Equal(t, membership.StatusExpired, statusOf(explicitPast))
	assert.Equal(t, membership.StatusApproved, statusOf(onTrial))
	assert.Equal(t, membership.StatusApproved, statusOf(paidUp))
	assert.Equal(t, membership.StatusApproved, statusOf(honorary))
	assert.Equal(t, membership.StatusPending, statusOf(pending))

	// A second pass finds nothing left to do.
	res, err = sweeper.Run(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Checked)
	assert.Zero(t, res.Expired)
}

func TestExpirySweeper_PagesThroughLargeSets(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	created := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < sweepBatchSize+5; i++ {
		testutil.CreateMember(t, db, fmt.Sprintf("bulk%03d", i), testutil.WithCreatedAt(created))
	}

	res, err := NewExpirySweeper(repository.NewMemberRepository(db), nil).Run(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, sweepBatchSize+5, res.Checked)
	assert.Equal(t, sweepBatchSize+5, res.Expired)
}

// renewingRepo records a payment for renewID right after each approved page
// is read, so the sweep sees a stale expiry.
type renewingRepo struct {
	repository.MemberRepository
	payments repository.PaymentRepository
	renewID  uint
	t        *testing.T
}

func (r *renewingRepo) ListByStatusAfter(ctx context.Context, status membership.Status, afterID uint, limit int) ([]*models.Member, error) {
	batch, err := r.MemberRepository.ListByStatusAfter(ctx, status, afterID, limit)
	if err != nil || len(batch) == 0 {
		return batch, err
	}
	_, perr := r.payments.RecordAndExtend(ctx, &models.Payment{
		MemberID: r.renewID, Provider: models.ProviderManual, AmountCents: 100, Currency: "NZD",
		PaidAt: now, PeriodEnd: now.AddDate(1, 0, 0), RecordedBy: 1,
	})
	require.NoError(r.t, perr)
	return batch, nil
}

func TestExpirySweeper_SkipsMemberRenewedDuringSweep(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	lapsed := now.AddDate(0, -1, 0)
	renewed := testutil.CreateMember(t, db, "renewed", testutil.WithExpiresAt(lapsed))
	overdue := testutil.CreateMember(t, db, "overdue", testutil.WithExpiresAt(lapsed))

	repo := &renewingRepo{
		MemberRepository: repository.NewMemberRepository(db),
		payments:         repository.NewPaymentRepository(db),
		renewID:          renewed.ID,
		t:                t,
	}
	res, err := NewExpirySweeper(repo, nil).Run(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Checked)
	assert.Equal(t, 1, res.Expired)
	assert.Equal(t, 1, res.Skipped)

	var kept, lapsedMember models.Member
	require.NoError(t, db.First(&kept, renewed.ID).Error)
	assert.Equal(t, membership.StatusApproved, kept.Status)
	require.NoError(t, db.First(&lapsedMember, overdue.ID).Error)
	assert.Equal(t, membership.StatusExpired, lapsedMember.Status)
}

func TestExpirySweeper_ScheduleRejectsBadCron(t *testing.T) {
	sweeper := NewExpirySweeper(nil, nil)
	assert.Error(t, sweeper.Schedule(context.Background(), "every day"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, sweeper.Schedule(ctx, "0 3 * * *"))
}
