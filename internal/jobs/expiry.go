// Package jobs runs scheduled maintenance against the membership data.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"go.opentelemetry.io/otel/attribute"

	"tipa/internal/membership"
	"tipa/internal/middleware"
	"tipa/internal/models"
	"tipa/internal/observability"
	"tipa/internal/repository"
)

const sweepBatchSize = 200

// SweepResult summarizes one pass.
type SweepResult struct {
	Checked int `json:"checked"`
	Expired int `json:"expired"`
	// Skipped counts members changed or removed between read and update.
	Skipped int `json:"skipped"`
}

// ExpirySweeper moves approved members whose effective expiry has passed to
// the stored "expired" status.
type ExpirySweeper struct {
	members  repository.MemberRepository
	resolver *membership.Resolver
}

func NewExpirySweeper(members repository.MemberRepository, resolver *membership.Resolver) *ExpirySweeper {
	if resolver == nil {
		resolver = membership.NewResolver(membership.DefaultPolicy())
	}
	return &ExpirySweeper{members: members, resolver: resolver}
}

// Run resolves every approved member at now and expires those past their
// effective expiry. It pages by id so rows it expires do not shift the cursor.
func (s *ExpirySweeper) Run(ctx context.Context, now time.Time) (res SweepResult, err error) {
	ctx, span := observability.StartSpan(ctx, "jobs.ExpirySweep")
	defer func() {
		span.SetAttributes(
			attribute.Int("sweep.checked", res.Checked),
			attribute.Int("sweep.expired", res.Expired),
		)
		observability.EndSpan(span, err)
	}()

	var afterID uint
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		batch, err := s.members.ListByStatusAfter(ctx, membership.StatusApproved, afterID, sweepBatchSize)
		if err != nil {
			return res, fmt.Errorf("list approved members: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		for _, m := range batch {
			afterID = m.ID
			res.Checked++
			observability.ExpirySweepMembers.WithLabelValues("checked").Inc()

			if !s.resolver.Resolve(m.Snapshot(), now).IsExpired {
				continue
			}
			err := s.members.ExpireIf(ctx, m.ID, func(cur *models.Member) bool {
				return s.resolver.Resolve(cur.Snapshot(), now).IsExpired
			})
			switch {
			case errors.Is(err, repository.ErrStateChanged), repository.IsNotFound(err):
				res.Skipped++
				observability.ExpirySweepMembers.WithLabelValues("skipped").Inc()
			case err != nil:
				return res, fmt.Errorf("expire member %d: %w", m.ID, err)
			default:
				res.Expired++
				observability.ExpirySweepMembers.WithLabelValues("expired").Inc()
				middleware.Logger.Info("Membership expired", "member_id", m.ID, "level", m.MembershipLevel)
			}
		}

		if len(batch) < sweepBatchSize {
			break
		}
	}
	return res, nil
}

// Schedule runs the sweep on every tick of the cron expression until ctx is
// cancelled. Runs never overlap.
func (s *ExpirySweeper) Schedule(ctx context.Context, cronExpr string) error {
	if !gronx.IsValid(cronExpr) {
		return fmt.Errorf("invalid expiry sweep cron expression: %q", cronExpr)
	}
	go s.loop(ctx, cronExpr)
	middleware.Logger.Info("Expiry sweep scheduled", "cron", cronExpr)
	return nil
}

func (s *ExpirySweeper) loop(ctx context.Context, cronExpr string) {
	for {
		next, err := gronx.NextTickAfter(cronExpr, time.Now().UTC(), false)
		if err != nil {
			middleware.Logger.Error("Expiry sweep next tick failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(time.Minute):
				continue
			case <-ctx.Done():
				return
			}
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			middleware.Logger.Info("Expiry sweep scheduler stopping")
			return
		case <-timer.C:
		}

		res, err := s.Run(ctx, time.Now().UTC())
		if err != nil {
			middleware.Logger.Error("Expiry sweep failed", "error", err, "checked", res.Checked, "expired", res.Expired)
			continue
		}
		middleware.Logger.Info("Expiry sweep finished", "checked", res.Checked, "expired", res.Expired, "skipped", res.Skipped)
	}
}
