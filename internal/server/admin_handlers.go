package server

import (
	"github.com/gofiber/fiber/v2"

	"tipa/internal/models"
	"tipa/internal/service"
)

// PaymentResponse is a recorded payment and the member it extended.
type PaymentResponse struct {
	Payment *models.Payment `json:"payment"`
	Member  *models.Member  `json:"member"`
}

// RecordPayment handles POST /api/admin/payments
// @Summary Record a membership payment
// @Description Store a payment and extend the member's expiry to at least period_end. An expired member becomes approved.
// @Tags admin
// @Accept json
// @Produce json
// @Param request body service.RecordPaymentInput true "Payment"
// @Success 201 {object} PaymentResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/payments [post]
func (s *Server) RecordPayment(c *fiber.Ctx) error {
	var req service.RecordPaymentInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	p, m, err := s.paymentService.Record(c.UserContext(), memberIDOf(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(PaymentResponse{Payment: p, Member: m})
}

// ListMemberPayments handles GET /api/admin/members/:id/payments
// @Summary List a member's payments
// @Tags admin
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {array} models.Payment
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/members/{id}/payments [get]
func (s *Server) ListMemberPayments(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	payments, err := s.paymentService.ListByMember(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(payments)
}

// RunSweep handles POST /api/admin/sweep
// @Summary Run the membership expiry sweep now
// @Tags admin
// @Produce json
// @Success 200 {object} jobs.SweepResult
// @Security BearerAuth
// @Router /admin/sweep [post]
func (s *Server) RunSweep(c *fiber.Ctx) error {
	result, err := s.sweeper.Run(c.UserContext(), nowUTC())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetFeatureFlags handles GET /api/admin/feature-flags
// @Summary Feature flag state for the caller
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"raw":   s.featureFlags.Raw(),
		"flags": s.featureFlags.Snapshot(memberIDOf(c)),
	})
}
