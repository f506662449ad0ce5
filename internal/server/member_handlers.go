package server

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"tipa/internal/membership"
	"tipa/internal/middleware"
	"tipa/internal/models"
	"tipa/internal/notifications"
	"tipa/internal/repository"
	"tipa/internal/service"
)

// MeResponse is the caller's profile together with its resolved standing.
type MeResponse struct {
	Member *models.Member        `json:"member"`
	Status *service.MemberStatus `json:"status"`
}

// Apply handles POST /api/members/apply
// @Summary Apply for membership
// @Description Create a pending membership profile for the authenticated identity.
// @Tags members
// @Accept json
// @Produce json
// @Param request body object{email=string,full_name=string,company=string,membership_level=string} true "Application"
// @Success 201 {object} models.Member
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /members/apply [post]
func (s *Server) Apply(c *fiber.Ctx) error {
	var req service.ApplyInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	req.Subject = subjectOf(c)

	m, err := s.memberService.Apply(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

// GetMyProfile handles GET /api/members/me
// @Summary Get my profile
// @Tags members
// @Produce json
// @Success 200 {object} MeResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /members/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	m := memberOf(c)
	return c.JSON(MeResponse{Member: m, Status: s.memberService.StatusOf(m)})
}

// UpdateMyProfile handles PUT /api/members/me
// @Summary Update my profile
// @Tags members
// @Accept json
// @Produce json
// @Param request body object{full_name=string,company=string,bio=string} true "Profile fields"
// @Success 200 {object} models.Member
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /members/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	req.MemberID = memberIDOf(c)

	m, err := s.memberService.UpdateProfile(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(m)
}

// GetMyStatus handles GET /api/members/me/status
// @Summary Get my membership status
// @Description Resolve trial, expiry and access for the caller at the current time.
// @Tags members
// @Produce json
// @Success 200 {object} service.MemberStatus
// @Security BearerAuth
// @Router /members/me/status [get]
func (s *Server) GetMyStatus(c *fiber.Ctx) error {
	return c.JSON(s.memberService.StatusOf(memberOf(c)))
}

// AdminListMembers handles GET /api/admin/members
// @Summary List members
// @Tags admin
// @Produce json
// @Param status query string false "pending, approved, rejected or expired"
// @Param level query string false "Membership level"
// @Param q query string false "Name, email or company search"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Member
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/members [get]
func (s *Server) AdminListMembers(c *fiber.Ctx) error {
	filter := repository.MemberFilter{
		Status: membership.Status(strings.ToLower(c.Query("status"))),
		Level:  membership.Level(c.Query("level")),
		Query:  strings.TrimSpace(c.Query("q")),
	}
	page := parsePagination(c, 50)

	members, err := s.memberService.List(c.UserContext(), filter, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(members)
}

// ApproveMember handles POST /api/admin/members/:id/approve
// @Summary Approve a pending application
// @Tags admin
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {object} models.Member
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/members/{id}/approve [post]
func (s *Server) ApproveMember(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	m, err := s.memberService.Approve(c.UserContext(), memberIDOf(c), id)
	if err != nil {
		return respondError(c, err)
	}

	s.publishMemberEvent(m.ID, notifications.MemberApproved, map[string]interface{}{
		"member_id":        m.ID,
		"membership_level": m.MembershipLevel,
		"approved_at":      nowUTC().Format(time.RFC3339Nano),
	})
	return c.JSON(m)
}

// RejectMember handles POST /api/admin/members/:id/reject
// @Summary Reject a pending application
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Member ID"
// @Param request body object{reason=string} false "Reason shown to the applicant"
// @Success 200 {object} models.Member
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/members/{id}/reject [post]
func (s *Server) RejectMember(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
	}

	m, err := s.memberService.Reject(c.UserContext(), memberIDOf(c), id, strings.TrimSpace(req.Reason))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(m)
}

// SetMemberLevel handles PUT /api/admin/members/:id/level
// @Summary Change a member's level
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Member ID"
// @Param request body object{membership_level=string} true "New level"
// @Success 200 {object} models.Member
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/members/{id}/level [put]
func (s *Server) SetMemberLevel(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Level membership.Level `json:"membership_level"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	m, err := s.memberService.SetLevel(c.UserContext(), id, req.Level)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(m)
}

// DeleteMember handles DELETE /api/admin/members/:id
// @Summary Remove a member profile
// @Description Threads and comments written by the member remain, keeping the author email.
// @Tags admin
// @Param id path int true "Member ID"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/members/{id} [delete]
func (s *Server) DeleteMember(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.memberService.Delete(c.UserContext(), memberIDOf(c), id); err != nil {
		return respondError(c, err)
	}
	middleware.Logger.InfoContext(c.UserContext(), "Member deleted", "member_id", id, "admin_id", memberIDOf(c))
	return c.SendStatus(fiber.StatusNoContent)
}
