package server

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"tipa/internal/middleware"
	"tipa/internal/models"
)

const (
	localSubject  = "subject"
	localMemberID = "memberID"
	localMember   = "member"
)

// subjectOf returns the identity subject stored by the verifier.
func subjectOf(c *fiber.Ctx) string {
	sub, _ := c.Locals(localSubject).(string)
	return sub
}

// memberOf returns the profile loaded by MemberRequired or AccessRequired.
func memberOf(c *fiber.Ctx) *models.Member {
	m, _ := c.Locals(localMember).(*models.Member)
	return m
}

func memberIDOf(c *fiber.Ctx) uint {
	id, _ := c.Locals(localMemberID).(uint)
	return id
}

// MemberRequired loads the profile linked to the verified identity. Identities
// without a profile get 403 and are expected to apply first.
func (s *Server) MemberRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := s.memberService.GetBySubject(c.UserContext(), subjectOf(c))
		if err != nil {
			if models.ErrorCode(err) == models.CodeNotFound {
				return models.RespondWithError(c, fiber.StatusForbidden,
					models.NewForbiddenError("No membership profile for this identity"))
			}
			return respondError(c, err)
		}
		c.Locals(localMember, m)
		c.Locals(localMemberID, m.ID)
		c.SetUserContext(middleware.WithMemberID(c.UserContext(), m.ID))
		return c.Next()
	}
}

// AccessRequired rejects members whose resolved standing does not grant
// access: pending, rejected and expired members. Must follow MemberRequired.
func (s *Server) AccessRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		m := memberOf(c)
		if m == nil {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Membership required"))
		}
		res := s.memberService.Resolve(m)
		if !res.HasAccess {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":  "Active membership required",
				"code":   models.CodeForbidden,
				"status": res.Label(),
			})
		}
		return c.Next()
	}
}

// AdminRequired rejects non-admin members. Must follow MemberRequired.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		m := memberOf(c)
		if m == nil || !m.IsAdmin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

func (s *Server) isAdminByMemberID(ctx context.Context, memberID uint) (bool, error) {
	return s.memberService.IsAdmin(ctx, memberID)
}
