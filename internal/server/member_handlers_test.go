package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tipa/internal/membership"
	"tipa/internal/models"
	"tipa/internal/testutil"
)

func TestApplyAndApproveFlow(t *testing.T) {
	e := newTestEnv(t)
	admin := testutil.CreateMember(t, e.db, "admin", testutil.WithAdmin())

	application := map[string]interface{}{
		"email":            "Mei@Example.com",
		"full_name":        "Mei Lin",
		"company":          "Acme",
		"membership_level": "Full",
	}

	resp := e.do(t, http.MethodPost, "/api/members/apply", "", application)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/members/apply", "sub|mei", application)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	applied := decode[models.Member](t, resp)
	assert.Equal(t, membership.StatusPending, applied.Status)
	assert.Equal(t, "mei@example.com", applied.Email)

	resp = e.do(t, http.MethodPost, "/api/members/apply", "sub|mei", application)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/api/members/me/status", "sub|mei", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decode[map[string]interface{}](t, resp)
	assert.Equal(t, "pending", status["label"])
	assert.Equal(t, false, status["has_access"])

	thread := map[string]string{"title": "Hello", "content": "First post", "category": "general"}
	resp = e.do(t, http.MethodPost, "/api/threads", "sub|mei", thread)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	denied := decode[map[string]interface{}](t, resp)
	assert.Equal(t, "pending", denied["status"])

	resp = e.do(t, http.MethodPost, fmt.Sprintf("/api/admin/members/%d/approve", applied.ID), "sub|mei", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = e.do(t, http.MethodPost, fmt.Sprintf("/api/admin/members/%d/approve", applied.ID), admin.AuthSubject, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	approved := decode[models.Member](t, resp)
	assert.Equal(t, membership.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, admin.ID, *approved.ApprovedBy)

	resp = e.do(t, http.MethodPost, fmt.Sprintf("/api/admin/members/%d/approve", applied.ID), admin.AuthSubject, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/threads", "sub|mei", thread)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestRejectMember(t *testing.T) {
	e := newTestEnv(t)
	admin := testutil.CreateMember(t, e.db, "admin", testutil.WithAdmin())
	pending := testutil.CreateMember(t, e.db, "pat", testutil.WithStatus(membership.StatusPending))

	resp := e.do(t, http.MethodPost, fmt.Sprintf("/api/admin/members/%d/reject", pending.ID), admin.AuthSubject,
		map[string]string{"reason": "  Not a professional  "})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	m := decode[models.Member](t, resp)
	assert.Equal(t, membership.StatusRejected, m.Status)
	assert.Equal(t, "Not a professional", m.RejectionReason)

	resp = e.do(t, http.MethodGet, "/api/members/me", pending.AuthSubject, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[map[string]map[string]interface{}](t, resp)
	assert.Equal(t, "rejected", me["status"]["label"])
}

func TestMemberRequired_NoProfile(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(t, http.MethodGet, "/api/members/me", "sub|stranger", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	body := decode[models.ErrorResponse](t, resp)
	assert.Equal(t, models.CodeForbidden, body.Code)
}

func TestAccessRequired_ExpiredMember(t *testing.T) {
	e := newTestEnv(t)
	m := testutil.CreateMember(t, e.db, "lapsed", testutil.WithExpiresAt(time.Now().Add(-48*time.Hour)))

	resp := e.do(t, http.MethodPost, "/api/threads", m.AuthSubject,
		map[string]string{"title": "t", "content": "c", "category": "general"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	body := decode[map[string]interface{}](t, resp)
	assert.Equal(t, "expired", body["status"])
}

func TestUpdateMyProfile(t *testing.T) {
	e := newTestEnv(t)
	m := testutil.CreateMember(t, e.db, "alex")

	resp := e.do(t, http.MethodPut, "/api/members/me", m.AuthSubject, map[string]string{"bio": "Backend engineer"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[models.Member](t, resp)
	assert.Equal(t, "Backend engineer", updated.Bio)
	assert.Equal(t, "alex", updated.FullName)
}

func TestAdminListAndSetLevel(t *testing.T) {
	e := newTestEnv(t)
	admin := testutil.CreateMember(t, e.db, "admin", testutil.WithAdmin())
	testutil.CreateMember(t, e.db, "pending1", testutil.WithStatus(membership.StatusPending))
	student := testutil.CreateMember(t, e.db, "student", testutil.WithLevel(membership.LevelStudent))

	resp := e.do(t, http.MethodGet, "/api/admin/members?status=pending", admin.AuthSubject, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]models.Member](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "pending1", list[0].FullName)

	resp = e.do(t, http.MethodGet, "/api/admin/members?status=bogus", admin.AuthSubject, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodPut, fmt.Sprintf("/api/admin/members/%d/level", student.ID), admin.AuthSubject,
		map[string]string{"membership_level": "Corporate"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, membership.LevelCorporate, decode[models.Member](t, resp).MembershipLevel)

	resp = e.do(t, http.MethodPut, fmt.Sprintf("/api/admin/members/%d/level", student.ID), admin.AuthSubject,
		map[string]string{"membership_level": "Platinum"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminDeleteMemberKeepsAuthoredThreads(t *testing.T) {
	e := newTestEnv(t)
	admin := testutil.CreateMember(t, e.db, "admin", testutil.WithAdmin())
	author := testutil.CreateMember(t, e.db, "leaver")

	resp := e.do(t, http.MethodPost, "/api/threads", author.AuthSubject,
		map[string]string{"title": "Farewell", "content": "Moving abroad", "category": "general"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	thread := decode[models.Thread](t, resp)

	path := fmt.Sprintf("/api/admin/members/%d", author.ID)
	resp = e.do(t, http.MethodDelete, path, author.AuthSubject, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = e.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/members/%d", admin.ID), admin.AuthSubject, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodDelete, path, admin.AuthSubject, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = e.do(t, http.MethodGet, fmt.Sprintf("/api/threads/%d", thread.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	kept := decode[models.Thread](t, resp)
	assert.Nil(t, kept.CreatedBy)
	assert.Equal(t, "leaver@example.com", kept.AuthorEmail)

	resp = e.do(t, http.MethodDelete, path, admin.AuthSubject, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
