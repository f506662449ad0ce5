package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"tipa/internal/models"
	"tipa/internal/service"
)

// ListResources handles GET /api/resources?kind=...
// @Summary List announcements and resources
// @Description Pinned first, then newest.
// @Tags resources
// @Produce json
// @Param kind query string false "announcement, document or link"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Resource
// @Failure 400 {object} models.ErrorResponse
// @Router /resources [get]
func (s *Server) ListResources(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	kind := models.ResourceKind(strings.ToLower(c.Query("kind")))
	resources, err := s.resourceService.List(c.UserContext(), kind, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resources)
}

// PublishResource handles POST /api/admin/resources
// @Summary Publish an announcement or resource
// @Tags admin
// @Accept json
// @Produce json
// @Param request body service.PublishResourceInput true "Resource"
// @Success 201 {object} models.Resource
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/resources [post]
func (s *Server) PublishResource(c *fiber.Ctx) error {
	var req service.PublishResourceInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	res, err := s.resourceService.Publish(c.UserContext(), memberIDOf(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// DeleteResource handles DELETE /api/admin/resources/:id
// @Summary Delete a resource
// @Tags admin
// @Param id path int true "Resource ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/resources/{id} [delete]
func (s *Server) DeleteResource(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.resourceService.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
