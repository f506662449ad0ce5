package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tipa/internal/membership"
	"tipa/internal/models"
	"tipa/internal/repository"
	"tipa/internal/testutil"
)

func newInviteService(t *testing.T) (*InviteService, *gorm.DB) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	svc := NewInviteService(repository.NewInviteRepository(db), repository.NewMemberRepository(db), 48*time.Hour, 10)
	svc.now = fixedClock(testNow)
	return svc, db
}

func TestInviteService_ImportCSV(t *testing.T) {
	svc, db := newInviteService(t)
	ctx := context.Background()
	testutil.CreateMember(t, db, "existing")

	csvData := strings.Join([]string{
		"Email,Full_Name,Membership_Level",
		"new@example.com,New Person,student",
		"NEW@example.com,Repeat Person,Full",
		"existing@example.com,Already Here,Full",
		"not-an-email,Broken,Full",
		"x@example.com,Bad Level,Gold",
		"",
		"second@example.com,\"Second, Person\",Associate",
	}, "\n")

	report, err := svc.ImportCSV(ctx, 1, strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 2, report.Invalid)
	require.Len(t, report.Rows, 6)

	byRow := make(map[int]ImportRow)
	for _, r := range report.Rows {
		byRow[r.Row] = r
	}
	assert.Equal(t, InviteCreated, byRow[2].Outcome)
	assert.NotEmpty(t, byRow[2].Code)
	assert.NotZero(t, byRow[2].InviteID)
	assert.Equal(t, "duplicate email in file", byRow[3].Reason)
	assert.Equal(t, "already a member", byRow[4].Reason)
	assert.Equal(t, InviteInvalid, byRow[5].Outcome)
	assert.Contains(t, byRow[6].Reason, "membership_level")
	assert.Equal(t, InviteCreated, byRow[8].Outcome)

	var stored models.Invite
	require.NoError(t, db.First(&stored, byRow[8].InviteID).Error)
	assert.Equal(t, "Second, Person", stored.FullName)
	assert.Equal(t, membership.LevelAssociate, stored.MembershipLevel)
	assert.True(t, stored.ExpiresAt.Equal(testNow.Add(48*time.Hour)))
	assert.NotEqual(t, byRow[8].Code, stored.CodeHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.CodeHash), []byte(byRow[8].Code)))
	cost, err := bcrypt.Cost([]byte(stored.CodeHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	// Re-importing the same file skips the addresses that now hold open invites.
	again, err := svc.ImportCSV(ctx, 1, strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Zero(t, again.Created)
	assert.Equal(t, 4, again.Skipped)
}

func TestInviteService_ImportCSV_Rejections(t *testing.T) {
	svc, _ := newInviteService(t)
	ctx := context.Background()

	_, err := svc.ImportCSV(ctx, 1, strings.NewReader(""))
	assertAppError(t, err, models.CodeValidation)

	_, err = svc.ImportCSV(ctx, 1, strings.NewReader("email,name\na@example.com,A\n"))
	assertAppError(t, err, models.CodeValidation)

	var b strings.Builder
	b.WriteString("email,full_name,membership_level\n")
	for i := 0; i < 11; i++ {
		b.WriteString("p" + strings.Repeat("x", i) + "@example.com,P,Full\n")
	}
	_, err = svc.ImportCSV(ctx, 1, strings.NewReader(b.String()))
	assertAppError(t, err, models.CodeValidation)
}

func importOne(t *testing.T, svc *InviteService, email string) ImportRow {
	t.Helper()
	report, err := svc.ImportCSV(context.Background(), 1, strings.NewReader("email,full_name,membership_level\n"+email+",Invitee,Student\n"))
	require.NoError(t, err)
	require.Equal(t, 1, report.Created)
	return report.Rows[0]
}

func TestInviteService_Accept(t *testing.T) {
	svc, _ := newInviteService(t)
	ctx := context.Background()
	row := importOne(t, svc, "inv@example.com")

	_, err := svc.Accept(ctx, AcceptInviteInput{InviteID: row.InviteID, Code: "WRONG", Subject: "sub|inv"})
	assertAppError(t, err, models.CodeForbidden)

	m, err := svc.Accept(ctx, AcceptInviteInput{InviteID: row.InviteID, Code: strings.ToLower(row.Code), Subject: "sub|inv"})
	require.NoError(t, err)
	assert.Equal(t, membership.StatusApproved, m.Status)
	assert.Equal(t, membership.LevelStudent, m.MembershipLevel)
	assert.Equal(t, "inv@example.com", m.Email)
	require.NotNil(t, m.ApprovedBy)
	assert.Equal(t, uint(1), *m.ApprovedBy)

	_, err = svc.Accept(ctx, AcceptInviteInput{InviteID: row.InviteID, Code: row.Code, Subject: "sub|other"})
	assertAppError(t, err, models.CodeConflict)

	_, err = svc.Accept(ctx, AcceptInviteInput{InviteID: 999, Code: row.Code, Subject: "sub|x"})
	assertAppError(t, err, models.CodeNotFound)
}

func TestInviteService_AcceptExpiredAndRevoked(t *testing.T) {
	svc, _ := newInviteService(t)
	ctx := context.Background()
	expired := importOne(t, svc, "late@example.com")
	revoked := importOne(t, svc, "gone@example.com")

	require.NoError(t, svc.Revoke(ctx, revoked.InviteID))
	assertAppError(t, svc.Revoke(ctx, revoked.InviteID), models.CodeConflict)
	assertAppError(t, svc.Revoke(ctx, 999), models.CodeNotFound)

	_, err := svc.Accept(ctx, AcceptInviteInput{InviteID: revoked.InviteID, Code: revoked.Code, Subject: "sub|gone"})
	assertAppError(t, err, models.CodeConflict)

	open, err := svc.ListOpen(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, expired.InviteID, open[0].ID)

	svc.now = fixedClock(testNow.Add(49 * time.Hour))
	_, err = svc.Accept(ctx, AcceptInviteInput{InviteID: expired.InviteID, Code: expired.Code, Subject: "sub|late"})
	assertAppError(t, err, models.CodeValidation)
}

func TestInviteService_AcceptRequiresFreshIdentity(t *testing.T) {
	svc, db := newInviteService(t)
	ctx := context.Background()
	testutil.CreateMember(t, db, "taken")
	row := importOne(t, svc, "fresh@example.com")

	_, err := svc.Accept(ctx, AcceptInviteInput{InviteID: row.InviteID, Code: row.Code, Subject: "sub|taken"})
	assertAppError(t, err, models.CodeConflict)
}
