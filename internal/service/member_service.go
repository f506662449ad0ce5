package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"tipa/internal/membership"
	"tipa/internal/models"
	"tipa/internal/observability"
	"tipa/internal/repository"
	"tipa/internal/validation"
)

type MemberService struct {
	memberRepo repository.MemberRepository
	resolver   *membership.Resolver
	now        func() time.Time
}

// ApplyInput is a membership application from an authenticated identity.
type ApplyInput struct {
	Subject  string           `json:"subject" validate:"required"`
	Email    string           `json:"email" validate:"required,email,max=255"`
	FullName string           `json:"full_name" validate:"required,max=200"`
	Company  string           `json:"company" validate:"max=200"`
	Level    membership.Level `json:"membership_level" validate:"required,member_level"`
}

// UpdateProfileInput changes the member's own profile. Nil fields are left as they are.
type UpdateProfileInput struct {
	MemberID uint    `json:"-"`
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=200"`
	Company  *string `json:"company" validate:"omitempty,max=200"`
	Bio      *string `json:"bio" validate:"omitempty,max=2000"`
}

// MemberStatus is the resolved standing shown to a member.
type MemberStatus struct {
	MemberID        uint             `json:"member_id"`
	MembershipLevel membership.Level `json:"membership_level"`
	membership.Resolution
	Label string `json:"label"`
	// ExpiresIn is a human-readable distance to the effective expiry, e.g. "3 months from now".
	ExpiresIn string `json:"expires_in,omitempty"`
}

func NewMemberService(memberRepo repository.MemberRepository, resolver *membership.Resolver) *MemberService {
	if resolver == nil {
		resolver = membership.NewResolver(membership.DefaultPolicy())
	}
	return &MemberService{memberRepo: memberRepo, resolver: resolver, now: nowUTC}
}

// Resolve projects m onto its effective standing now.
func (s *MemberService) Resolve(m *models.Member) membership.Resolution {
	return s.resolver.Resolve(m.Snapshot(), s.now())
}

func (s *MemberService) Apply(ctx context.Context, in ApplyInput) (*models.Member, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	if _, err := s.memberRepo.GetBySubject(ctx, in.Subject); err == nil {
		return nil, models.NewConflictError("A membership profile already exists for this account", nil)
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	m := &models.Member{
		AuthSubject:     in.Subject,
		Email:           in.Email,
		FullName:        in.FullName,
		Company:         strings.TrimSpace(in.Company),
		Status:          membership.StatusPending,
		MembershipLevel: in.Level,
	}
	if err := s.memberRepo.Create(ctx, m); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, models.NewConflictError("Email or account is already registered", err)
		}
		return nil, err
	}
	return m, nil
}

func (s *MemberService) GetBySubject(ctx context.Context, subject string) (*models.Member, error) {
	m, err := s.memberRepo.GetBySubject(ctx, subject)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("Member profile", "for this account")
		}
		return nil, err
	}
	return m, nil
}

func (s *MemberService) GetByID(ctx context.Context, id uint) (*models.Member, error) {
	m, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Member", id)
	}
	return m, nil
}

func (s *MemberService) List(ctx context.Context, filter repository.MemberFilter, limit, offset int) ([]*models.Member, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, models.NewValidationError("Unknown status filter")
	}
	if filter.Level != "" && !filter.Level.Valid() {
		return nil, models.NewValidationError("Unknown membership level filter")
	}
	return s.memberRepo.List(ctx, filter, limit, offset)
}

// Approve moves a pending application to approved.
func (s *MemberService) Approve(ctx context.Context, adminID, memberID uint) (*models.Member, error) {
	now := s.now()
	return s.decide(ctx, memberID, membership.StatusApproved, map[string]interface{}{
		"approved_at": now,
		"approved_by": adminID,
	})
}

// Reject moves a pending application to rejected with an optional reason.
func (s *MemberService) Reject(ctx context.Context, adminID, memberID uint, reason string) (*models.Member, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) > 2000 {
		return nil, models.NewValidationError("Rejection reason too long (max 2000 characters)")
	}
	return s.decide(ctx, memberID, membership.StatusRejected, map[string]interface{}{
		"rejection_reason": reason,
	})
}

func (s *MemberService) decide(ctx context.Context, memberID uint, to membership.Status, extra map[string]interface{}) (*models.Member, error) {
	m, err := s.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if m.Status != membership.StatusPending {
		return nil, models.NewValidationError("Only pending applications can be " + string(to))
	}

	err = s.memberRepo.TransitionStatus(ctx, memberID, membership.StatusPending, to, extra)
	if errors.Is(err, repository.ErrStateChanged) {
		return nil, models.NewValidationError("Only pending applications can be " + string(to))
	}
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, memberID)
}

// UpdateProfile writes only the profile columns the member supplied, so a
// concurrent approval or payment is never overwritten.
func (s *MemberService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.Member, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return nil, models.NewValidationError("full_name must not be blank")
		}
		fields["full_name"] = name
	}
	if in.Company != nil {
		fields["company"] = strings.TrimSpace(*in.Company)
	}
	if in.Bio != nil {
		fields["bio"] = strings.TrimSpace(*in.Bio)
	}
	if len(fields) == 0 {
		return s.GetByID(ctx, in.MemberID)
	}
	return s.updateFields(ctx, in.MemberID, fields)
}

func (s *MemberService) updateFields(ctx context.Context, memberID uint, fields map[string]interface{}) (*models.Member, error) {
	m, err := s.memberRepo.UpdateFields(ctx, memberID, fields)
	if err != nil {
		return nil, notFoundOr(err, "Member", memberID)
	}
	return m, nil
}

// Status resolves the member's effective standing at the current time.
func (s *MemberService) Status(ctx context.Context, memberID uint) (*MemberStatus, error) {
	m, err := s.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return s.StatusOf(m), nil
}

// StatusOf resolves an already loaded member.
func (s *MemberService) StatusOf(m *models.Member) *MemberStatus {
	now := s.now()
	res := s.resolver.Resolve(m.Snapshot(), now)
	label := res.Label()
	observability.MembershipResolutions.WithLabelValues(label).Inc()

	out := &MemberStatus{
		MemberID:        m.ID,
		MembershipLevel: m.MembershipLevel,
		Resolution:      res,
		Label:           label,
	}
	if res.EffectiveExpiryDate != nil {
		out.ExpiresIn = humanize.RelTime(*res.EffectiveExpiryDate, now, "ago", "from now")
	}
	return out
}

func (s *MemberService) SetLevel(ctx context.Context, memberID uint, level membership.Level) (*models.Member, error) {
	if !level.Valid() {
		return nil, models.NewValidationError("Unknown membership level")
	}
	return s.updateFields(ctx, memberID, map[string]interface{}{"membership_level": level})
}

func (s *MemberService) SetAdmin(ctx context.Context, memberID uint, admin bool) (*models.Member, error) {
	return s.updateFields(ctx, memberID, map[string]interface{}{"is_admin": admin})
}

// IsAdmin reports whether memberID holds admin rights. Unknown members are not admins.
func (s *MemberService) IsAdmin(ctx context.Context, memberID uint) (bool, error) {
	m, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		if repository.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return m.IsAdmin, nil
}

// Delete removes a member profile. Threads and comments they wrote stay
// with the author cleared. An admin cannot remove their own profile.
func (s *MemberService) Delete(ctx context.Context, adminID, memberID uint) error {
	if adminID != 0 && adminID == memberID {
		return models.NewValidationError("Admins cannot delete their own profile")
	}
	if err := s.memberRepo.Delete(ctx, memberID); err != nil {
		return notFoundOr(err, "Member", memberID)
	}
	return nil
}
