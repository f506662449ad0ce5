package server

import (
	"github.com/gofiber/fiber/v2"

	"tipa/internal/models"
	"tipa/internal/notifications"
	"tipa/internal/service"
)

func eventSummary(e *models.Event, change string) map[string]interface{} {
	return map[string]interface{}{
		"event_id":    e.ID,
		"change":      change,
		"title":       e.Title,
		"starts_at":   e.StartsAt,
		"capacity":    e.Capacity,
		"going_count": e.GoingCount,
		"maybe_count": e.MaybeCount,
	}
}

// ListEvents handles GET /api/events?when=upcoming|past
// @Summary List events
// @Tags events
// @Produce json
// @Param when query string false "upcoming (default) or past"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Event
// @Failure 400 {object} models.ErrorResponse
// @Router /events [get]
func (s *Server) ListEvents(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	events, err := s.eventService.ListEvents(c.UserContext(), service.EventWindow(c.Query("when")), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(events)
}

// GetEvent handles GET /api/events/:id
// @Summary Get an event with RSVP counts
// @Tags events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} models.Event
// @Failure 404 {object} models.ErrorResponse
// @Router /events/{id} [get]
func (s *Server) GetEvent(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	event, err := s.eventService.GetEvent(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(event)
}

// RSVP handles PUT /api/events/:id/rsvp
// @Summary RSVP to an event
// @Tags events
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param request body object{response=string} true "going, maybe or not_going"
// @Success 200 {object} models.Event
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /events/{id}/rsvp [put]
func (s *Server) RSVP(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Response models.RSVPResponse `json:"response"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	event, err := s.eventService.RSVP(c.UserContext(), id, memberIDOf(c), req.Response)
	if err != nil {
		return respondError(c, err)
	}
	s.publishBroadcastEvent(notifications.EventUpdated, eventSummary(event, "rsvp"))
	return c.JSON(event)
}

// CancelRSVP handles DELETE /api/events/:id/rsvp
// @Summary Withdraw an RSVP
// @Tags events
// @Param id path int true "Event ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /events/{id}/rsvp [delete]
func (s *Server) CancelRSVP(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	ctx := c.UserContext()
	if err := s.eventService.CancelRSVP(ctx, id, memberIDOf(c)); err != nil {
		return respondError(c, err)
	}
	if event, err := s.eventService.GetEvent(ctx, id); err == nil {
		s.publishBroadcastEvent(notifications.EventUpdated, eventSummary(event, "rsvp"))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateEvent handles POST /api/admin/events
// @Summary Create an event
// @Tags admin
// @Accept json
// @Produce json
// @Param request body service.EventInput true "Event"
// @Success 201 {object} models.Event
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/events [post]
func (s *Server) CreateEvent(c *fiber.Ctx) error {
	var req service.EventInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	event, err := s.eventService.CreateEvent(c.UserContext(), memberIDOf(c), req)
	if err != nil {
		return respondError(c, err)
	}
	s.publishBroadcastEvent(notifications.EventUpdated, eventSummary(event, "created"))
	return c.Status(fiber.StatusCreated).JSON(event)
}

// UpdateEvent handles PUT /api/admin/events/:id
// @Summary Replace an event's details
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param request body service.EventInput true "Event"
// @Success 200 {object} models.Event
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/events/{id} [put]
func (s *Server) UpdateEvent(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.EventInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	event, err := s.eventService.UpdateEvent(c.UserContext(), id, req)
	if err != nil {
		return respondError(c, err)
	}
	s.publishBroadcastEvent(notifications.EventUpdated, eventSummary(event, "updated"))
	return c.JSON(event)
}

// DeleteEvent handles DELETE /api/admin/events/:id
// @Summary Delete an event
// @Tags admin
// @Param id path int true "Event ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/events/{id} [delete]
func (s *Server) DeleteEvent(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.eventService.DeleteEvent(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	s.publishBroadcastEvent(notifications.EventUpdated, map[string]interface{}{
		"event_id": id,
		"change":   "deleted",
	})
	return c.SendStatus(fiber.StatusNoContent)
}

// ListAttendees handles GET /api/admin/events/:id/attendees
// @Summary List an event's RSVPs
// @Tags admin
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {array} models.EventRSVP
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/events/{id}/attendees [get]
func (s *Server) ListAttendees(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	rsvps, err := s.eventService.Attendees(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rsvps)
}
