// Package membership derives a member's effective standing (trial, active,
// expired) from the stored profile fields.
package membership

import "time"

// Level is the membership tier.
type Level string

const (
	LevelFull      Level = "Full"
	LevelStudent   Level = "Student"
	LevelAssociate Level = "Associate"
	LevelCorporate Level = "Corporate"
	LevelHonorary  Level = "Honorary"
)

// Levels lists every tier in display order.
var Levels = []Level{LevelFull, LevelStudent, LevelAssociate, LevelCorporate, LevelHonorary}

func (l Level) Valid() bool {
	for _, v := range Levels {
		if v == l {
			return true
		}
	}
	return false
}

// Status is the stored, admin-controlled field.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// Member is the snapshot the resolver reads.
type Member struct {
	Level                 Level
	Status                Status
	CreatedAt             time.Time
	ExpiresAt             *time.Time
	HasStripeSubscription bool
}

// Resolution is the derived view of a member.
type Resolution struct {
	Status    Status `json:"status"`
	IsOnTrial bool   `json:"is_on_trial"`
	IsExpired bool   `json:"is_expired"`
	// HasAccess gates member-only actions.
	HasAccess           bool       `json:"has_access"`
	EffectiveExpiryDate *time.Time `json:"effective_expiry_date"`
	TrialEndsOn         *Date      `json:"trial_ends_on,omitempty"`
}

// Label collapses the resolution into one word for display and metrics.
func (r Resolution) Label() string {
	switch {
	case r.Status == StatusRejected:
		return "rejected"
	case r.Status != StatusApproved && r.Status != StatusExpired:
		return "pending"
	case r.IsExpired:
		return "expired"
	case r.IsOnTrial:
		return "trial"
	default:
		return "active"
	}
}

// Resolver is safe for concurrent use; it holds only an immutable Policy.
type Resolver struct {
	policy Policy
}

func NewResolver(p Policy) *Resolver {
	if p.Location == nil {
		p.Location = time.UTC
	}
	return &Resolver{policy: p}
}

func (r *Resolver) Policy() Policy { return r.policy }

// TrialEnd returns the calendar day on which the level's trial ends for a
// member who signed up at createdAt. The trial covers [signup, end).
// Levels without a trial return false.
func (r *Resolver) TrialEnd(level Level, createdAt time.Time) (Date, bool) {
	signup := DateOf(createdAt, r.policy.location())
	switch level {
	case LevelFull, LevelAssociate:
		cutoff := Date{Year: signup.Year, Month: r.policy.CutoffMonth, Day: r.policy.CutoffDay}
		if !signup.Before(cutoff) {
			cutoff.Year++
		}
		return cutoff, true
	case LevelStudent:
		return signup.AddMonths(r.policy.StudentTrialMonths), true
	default:
		return Date{}, false
	}
}

// Resolve projects m onto its effective standing at now. It never mutates m
// and never fails; unknown statuses are treated like pending.
func (r *Resolver) Resolve(m Member, now time.Time) Resolution {
	loc := r.policy.location()
	today := DateOf(now, loc)

	res := Resolution{Status: m.Status}
	if !m.Status.Valid() {
		res.Status = StatusPending
	}

	trialEnd, hasTrial := r.TrialEnd(m.Level, m.CreatedAt)
	if hasTrial {
		end := trialEnd
		res.TrialEndsOn = &end
	}
	trialApplies := hasTrial && !m.HasStripeSubscription

	switch {
	case m.ExpiresAt != nil:
		exp := *m.ExpiresAt
		res.EffectiveExpiryDate = &exp
		res.IsExpired = now.After(exp)
	case trialApplies:
		exp := trialEnd.Midnight(loc)
		res.EffectiveExpiryDate = &exp
		res.IsExpired = !trialEnd.After(today)
	}

	res.IsOnTrial = trialApplies && m.ExpiresAt == nil && trialEnd.After(today)

	switch res.Status {
	case StatusRejected:
		res.IsOnTrial = false
	case StatusExpired:
		res.IsOnTrial = false
		res.IsExpired = true
	}
	res.HasAccess = res.Status == StatusApproved && !res.IsExpired
	return res
}

var defaultResolver = NewResolver(DefaultPolicy())

// Resolve uses DefaultPolicy.
func Resolve(m Member, now time.Time) Resolution {
	return defaultResolver.Resolve(m, now)
}

// TrialEnd uses DefaultPolicy.
func TrialEnd(level Level, createdAt time.Time) (Date, bool) {
	return defaultResolver.TrialEnd(level, createdAt)
}
