package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tipa/internal/models"
	"tipa/internal/testutil"
)

func TestForumFlow(t *testing.T) {
	e := newTestEnv(t)
	author := testutil.CreateMember(t, e.db, "author")
	other := testutil.CreateMember(t, e.db, "other")
	admin := testutil.CreateMember(t, e.db, "admin", testutil.WithAdmin())

	resp := e.do(t, http.MethodPost, "/api/threads", author.AuthSubject,
		map[string]string{"title": "Hiring Go engineers", "content": "Remote friendly", "category": "Careers"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	thread := decode[models.Thread](t, resp)
	assert.Equal(t, models.CategoryCareers, thread.Category)
	assert.Equal(t, author.Email, thread.AuthorEmail)

	resp = e.do(t, http.MethodGet, "/api/threads?category=careers", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Thread](t, resp), 1)

	resp = e.do(t, http.MethodGet, "/api/threads?category=careers&sort=sideways", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/api/threads?q=engineers", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Thread](t, resp), 1)

	commentPath := fmt.Sprintf("/api/threads/%d/comments", thread.ID)
	resp = e.do(t, http.MethodPost, commentPath, other.AuthSubject, map[string]string{"content": "Interested!"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	comment := decode[models.Comment](t, resp)

	resp = e.do(t, http.MethodPost, commentPath, other.AuthSubject, map[string]string{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodGet, commentPath, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Comment](t, resp), 1)

	resp = e.do(t, http.MethodGet, fmt.Sprintf("/api/threads/%d", thread.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[models.Thread](t, resp)
	assert.Equal(t, 1, got.CommentCount)
	assert.NotNil(t, got.LatestCommentAt)

	resp = e.do(t, http.MethodDelete, fmt.Sprintf("/api/comments/%d", comment.ID), author.AuthSubject, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = e.do(t, http.MethodDelete, fmt.Sprintf("/api/comments/%d", comment.ID), other.AuthSubject, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = e.do(t, http.MethodDelete, fmt.Sprintf("/api/threads/%d", thread.ID), other.AuthSubject, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = e.do(t, http.MethodDelete, fmt.Sprintf("/api/threads/%d", thread.ID), admin.AuthSubject, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = e.do(t, http.MethodGet, fmt.Sprintf("/api/threads/%d", thread.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateThread_Validation(t *testing.T) {
	e := newTestEnv(t)
	m := testutil.CreateMember(t, e.db, "m")

	resp := e.do(t, http.MethodPost, "/api/threads", m.AuthSubject,
		map[string]string{"title": "x", "content": "y", "category": "gossip"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/api/threads", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
