package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"

	"tipa/internal/membership"
	"tipa/internal/models"
	"tipa/internal/observability"
	"tipa/internal/repository"
	"tipa/internal/validation"
)

// Row outcomes reported by ImportCSV.
const (
	InviteCreated = "created"
	InviteSkipped = "skipped"
	InviteInvalid = "invalid"
)

const (
	defaultInviteTTL     = 14 * 24 * time.Hour
	defaultInviteMaxRows = 1000
	claimCodeBytes       = 10
	// Claim codes are 80 random bits, so a higher bcrypt cost only slows
	// bulk imports.
	claimCodeHashCost = bcrypt.MinCost
)

var inviteColumns = []string{"email", "full_name", "membership_level"}

type InviteService struct {
	inviteRepo repository.InviteRepository
	memberRepo repository.MemberRepository
	ttl        time.Duration
	maxRows    int
	hashCost   int
	now        func() time.Time
}

// ImportRow is the outcome for one data row. Code is only set on creation
// and is never retrievable again.
type ImportRow struct {
	// Row is the line number in the uploaded file; the header is line 1.
	Row      int    `json:"row"`
	Email    string `json:"email"`
	Outcome  string `json:"outcome"`
	Reason   string `json:"reason,omitempty"`
	InviteID uint   `json:"invite_id,omitempty"`
	Code     string `json:"code,omitempty"`
}

type ImportReport struct {
	Created int         `json:"created"`
	Skipped int         `json:"skipped"`
	Invalid int         `json:"invalid"`
	Rows    []ImportRow `json:"rows"`
}

type AcceptInviteInput struct {
	InviteID uint
	Code     string
	Subject  string
}

type inviteRow struct {
	Email    string           `json:"email" validate:"required,email,max=255"`
	FullName string           `json:"full_name" validate:"required,max=200"`
	Level    membership.Level `json:"membership_level" validate:"required,member_level"`
}

func NewInviteService(
	inviteRepo repository.InviteRepository,
	memberRepo repository.MemberRepository,
	ttl time.Duration,
	maxRows int,
) *InviteService {
	if ttl <= 0 {
		ttl = defaultInviteTTL
	}
	if maxRows <= 0 {
		maxRows = defaultInviteMaxRows
	}
	return &InviteService{
		inviteRepo: inviteRepo,
		memberRepo: memberRepo,
		ttl:        ttl,
		maxRows:    maxRows,
		hashCost:   claimCodeHashCost,
		now:        nowUTC,
	}
}

// ImportCSV reads "email,full_name,membership_level" rows and creates one
// invite per new address. Rows for existing members, open invites or
// repeated addresses are skipped, not failed.
func (s *InviteService) ImportCSV(ctx context.Context, adminID uint, r io.Reader) (report *ImportReport, err error) {
	ctx, span := observability.StartSpan(ctx, "invites.ImportCSV", attribute.Int("invites.admin_id", int(adminID)))
	defer func() {
		if report != nil {
			span.SetAttributes(attribute.Int("invites.created", report.Created))
		}
		observability.EndSpan(span, err)
	}()

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, models.NewValidationError("CSV file is empty")
	}
	if err != nil {
		return nil, models.NewValidationError(fmt.Sprintf("Invalid CSV header: %v", err))
	}
	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	report = &ImportReport{Rows: []ImportRow{}}
	var pending []*inviteRow
	var pendingRows []int
	seen := make(map[string]bool)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			report.add(ImportRow{Row: parseErr.Line, Outcome: InviteInvalid, Reason: parseErr.Err.Error()})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read invite csv: %w", err)
		}
		if blank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		if len(pending)+report.Invalid+report.Skipped >= s.maxRows {
			return nil, models.NewValidationError(fmt.Sprintf("CSV has more than %d rows", s.maxRows))
		}

		row := &inviteRow{
			Email:    strings.ToLower(field(record, index["email"])),
			FullName: field(record, index["full_name"]),
			Level:    normalizeLevel(field(record, index["membership_level"])),
		}
		if err := validation.Struct(row); err != nil {
			report.add(ImportRow{Row: line, Email: row.Email, Outcome: InviteInvalid, Reason: err.Error()})
			continue
		}
		if seen[row.Email] {
			report.add(ImportRow{Row: line, Email: row.Email, Outcome: InviteSkipped, Reason: "duplicate email in file"})
			continue
		}
		seen[row.Email] = true
		pending = append(pending, row)
		pendingRows = append(pendingRows, line)
	}

	emails := make([]string, len(pending))
	for i, row := range pending {
		emails[i] = row.Email
	}
	members, err := s.memberRepo.ExistingEmails(ctx, emails)
	if err != nil {
		return nil, err
	}
	now := s.now()
	invited, err := s.inviteRepo.OpenEmails(ctx, emails, now)
	if err != nil {
		return nil, err
	}

	var invites []*models.Invite
	var created []ImportRow
	for i, row := range pending {
		line := pendingRows[i]
		switch {
		case members[row.Email]:
			report.add(ImportRow{Row: line, Email: row.Email, Outcome: InviteSkipped, Reason: "already a member"})
			continue
		case invited[row.Email]:
			report.add(ImportRow{Row: line, Email: row.Email, Outcome: InviteSkipped, Reason: "open invite exists"})
			continue
		}

		code, err := newClaimCode()
		if err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(code), s.hashCost)
		if err != nil {
			return nil, fmt.Errorf("hash claim code: %w", err)
		}
		invites = append(invites, &models.Invite{
			Token:           uuid.NewString(),
			Email:           row.Email,
			FullName:        row.FullName,
			MembershipLevel: row.Level,
			CodeHash:        string(hash),
			ExpiresAt:       now.Add(s.ttl),
			CreatedBy:       adminID,
		})
		created = append(created, ImportRow{Row: line, Email: row.Email, Outcome: InviteCreated, Code: code})
	}

	if err := s.inviteRepo.CreateBatch(ctx, invites); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, models.NewConflictError("Invite import collided with a concurrent import", err)
		}
		return nil, err
	}
	for i := range created {
		created[i].InviteID = invites[i].ID
		report.add(created[i])
	}
	return report, nil
}

func (r *ImportReport) add(row ImportRow) {
	switch row.Outcome {
	case InviteCreated:
		r.Created++
	case InviteSkipped:
		r.Skipped++
	default:
		r.Invalid++
	}
	observability.InvitesProcessed.WithLabelValues(row.Outcome).Inc()
	r.Rows = append(r.Rows, row)
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		index[name] = i
	}
	for _, col := range inviteColumns {
		if _, ok := index[col]; !ok {
			return nil, models.NewValidationError("CSV header must contain " + strings.Join(inviteColumns, ","))
		}
	}
	return index, nil
}

func field(record []string, i int) string {
	if i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// normalizeLevel matches level names case-insensitively.
func normalizeLevel(s string) membership.Level {
	for _, l := range membership.Levels {
		if strings.EqualFold(string(l), s) {
			return l
		}
	}
	return membership.Level(s)
}

func newClaimCode() (string, error) {
	b := make([]byte, claimCodeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate claim code: %w", err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b), nil
}

// Accept claims the invite for the calling identity and creates an approved
// member at the invited level.
func (s *InviteService) Accept(ctx context.Context, in AcceptInviteInput) (*models.Member, error) {
	invite, err := s.inviteRepo.GetByID(ctx, in.InviteID)
	if err != nil {
		return nil, notFoundOr(err, "Invite", in.InviteID)
	}

	now := s.now()
	switch {
	case invite.AcceptedAt != nil:
		return nil, models.NewConflictError("Invite has already been used", nil)
	case invite.RevokedAt != nil:
		return nil, models.NewConflictError("Invite has been revoked", nil)
	case !invite.Open(now):
		return nil, models.NewValidationError("Invite has expired")
	}

	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" || bcrypt.CompareHashAndPassword([]byte(invite.CodeHash), []byte(code)) != nil {
		return nil, models.NewForbiddenError("Invalid invite code")
	}

	if _, err := s.memberRepo.GetBySubject(ctx, in.Subject); err == nil {
		return nil, models.NewConflictError("A membership profile already exists for this account", nil)
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	approvedBy := invite.CreatedBy
	member := &models.Member{
		AuthSubject:     in.Subject,
		Email:           invite.Email,
		FullName:        invite.FullName,
		Status:          membership.StatusApproved,
		MembershipLevel: invite.MembershipLevel,
		ApprovedAt:      &now,
		ApprovedBy:      &approvedBy,
	}
	err = s.inviteRepo.Accept(ctx, invite.ID, member, now)
	switch {
	case errors.Is(err, repository.ErrStateChanged):
		return nil, models.NewConflictError("Invite is no longer available", nil)
	case repository.IsUniqueViolation(err):
		return nil, models.NewConflictError("Email or account is already registered", err)
	case err != nil:
		return nil, err
	}
	return member, nil
}

func (s *InviteService) ListOpen(ctx context.Context, limit, offset int) ([]*models.Invite, error) {
	return s.inviteRepo.ListOpen(ctx, s.now(), limit, offset)
}

func (s *InviteService) Revoke(ctx context.Context, id uint) error {
	if _, err := s.inviteRepo.GetByID(ctx, id); err != nil {
		return notFoundOr(err, "Invite", id)
	}
	if err := s.inviteRepo.Revoke(ctx, id, s.now()); err != nil {
		if errors.Is(err, repository.ErrStateChanged) {
			return models.NewConflictError("Invite was already used or revoked", nil)
		}
		return err
	}
	return nil
}
