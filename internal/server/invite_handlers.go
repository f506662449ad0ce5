package server

import (
	"bytes"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"tipa/internal/middleware"
	"tipa/internal/models"
	"tipa/internal/service"
)

// ImportInvites handles POST /api/admin/invites/import
// @Summary Bulk import invites from CSV
// @Description Upload a CSV with header email,full_name,membership_level either as the multipart field "file" or as a text/csv body. Claim codes appear only in this response.
// @Tags admin
// @Accept multipart/form-data
// @Accept text/csv
// @Produce json
// @Param file formData file false "CSV file"
// @Success 200 {object} service.ImportReport
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/invites/import [post]
func (s *Server) ImportInvites(c *fiber.Ctx) error {
	var r io.Reader
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("CSV file is required"))
		}
		f, err := fh.Open()
		if err != nil {
			return respondError(c, err)
		}
		defer f.Close()
		r = f
	} else {
		if len(c.Body()) == 0 {
			return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("CSV file is required"))
		}
		r = bytes.NewReader(c.Body())
	}

	report, err := s.inviteService.ImportCSV(c.UserContext(), memberIDOf(c), r)
	if err != nil {
		return respondError(c, err)
	}
	middleware.Logger.InfoContext(c.UserContext(), "Invites imported",
		"created", report.Created, "skipped", report.Skipped, "invalid", report.Invalid)
	return c.JSON(report)
}

// ListInvites handles GET /api/admin/invites
// @Summary List open invites
// @Tags admin
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Invite
// @Security BearerAuth
// @Router /admin/invites [get]
func (s *Server) ListInvites(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	invites, err := s.inviteService.ListOpen(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(invites)
}

// RevokeInvite handles DELETE /api/admin/invites/:id
// @Summary Revoke an open invite
// @Tags admin
// @Param id path int true "Invite ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/invites/{id} [delete]
func (s *Server) RevokeInvite(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.inviteService.Revoke(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AcceptInvite handles POST /api/invites/:id/accept
// @Summary Accept an invite
// @Description Claim an invite with its code; creates an approved profile for the authenticated identity.
// @Tags members
// @Accept json
// @Produce json
// @Param id path int true "Invite ID"
// @Param request body object{code=string} true "Claim code"
// @Success 201 {object} models.Member
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /invites/{id}/accept [post]
func (s *Server) AcceptInvite(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	m, err := s.inviteService.Accept(c.UserContext(), service.AcceptInviteInput{
		InviteID: id,
		Code:     req.Code,
		Subject:  subjectOf(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}
