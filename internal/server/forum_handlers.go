package server

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"tipa/internal/models"
	"tipa/internal/notifications"
	"tipa/internal/service"
)

// ListThreads handles GET /api/threads?category=...&sort=hot|new|active
// @Summary List forum threads
// @Description List threads in a category, or search all categories with q.
// @Tags forum
// @Produce json
// @Param category query string false "general, technical, careers, events or classifieds"
// @Param sort query string false "hot (default), new or active"
// @Param q query string false "Search title and content"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Thread
// @Failure 400 {object} models.ErrorResponse
// @Router /threads [get]
func (s *Server) ListThreads(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	threads, err := s.threadService.ListThreads(c.UserContext(), service.ListThreadsInput{
		Category: models.Category(strings.ToLower(c.Query("category"))),
		Sort:     strings.ToLower(c.Query("sort")),
		Query:    c.Query("q"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(threads)
}

// GetThread handles GET /api/threads/:id
// @Summary Get a thread
// @Tags forum
// @Produce json
// @Param id path int true "Thread ID"
// @Success 200 {object} models.Thread
// @Failure 404 {object} models.ErrorResponse
// @Router /threads/{id} [get]
func (s *Server) GetThread(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	thread, err := s.threadService.GetThread(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(thread)
}

// CreateThread handles POST /api/threads
// @Summary Create a thread
// @Tags forum
// @Accept json
// @Produce json
// @Param request body object{title=string,content=string,category=string} true "Thread"
// @Success 201 {object} models.Thread
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /threads [post]
func (s *Server) CreateThread(c *fiber.Ctx) error {
	var req struct {
		Title    string          `json:"title"`
		Content  string          `json:"content"`
		Category models.Category `json:"category"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	thread, err := s.threadService.CreateThread(c.UserContext(), service.CreateThreadInput{
		Author:   memberOf(c),
		Title:    req.Title,
		Content:  req.Content,
		Category: models.Category(strings.ToLower(string(req.Category))),
	})
	if err != nil {
		return respondError(c, err)
	}

	s.publishBroadcastEvent(notifications.ThreadCreated, threadSummary(thread))
	return c.Status(fiber.StatusCreated).JSON(thread)
}

// DeleteThread handles DELETE /api/threads/:id
// @Summary Delete a thread
// @Description Owners may delete their own threads; admins may delete any.
// @Tags forum
// @Param id path int true "Thread ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /threads/{id} [delete]
func (s *Server) DeleteThread(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.threadService.DeleteThread(c.UserContext(), service.DeleteThreadInput{
		MemberID: memberIDOf(c),
		ThreadID: id,
	}); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListComments handles GET /api/threads/:id/comments
// @Summary List a thread's comments
// @Tags forum
// @Produce json
// @Param id path int true "Thread ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /threads/{id}/comments [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	comments, err := s.commentService.ListComments(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/threads/:id/comments
// @Summary Comment on a thread
// @Tags forum
// @Accept json
// @Produce json
// @Param id path int true "Thread ID"
// @Param request body object{content=string} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /threads/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	threadID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		MemberID: memberIDOf(c),
		ThreadID: threadID,
		Content:  req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.publishBroadcastEvent(notifications.CommentCreated, map[string]interface{}{
		"comment_id": comment.ID,
		"thread_id":  comment.ThreadID,
		"author_id":  comment.CreatedBy,
		"created_at": comment.CreatedAt.Format(time.RFC3339Nano),
	})
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteComment handles DELETE /api/comments/:id
// @Summary Delete a comment
// @Tags forum
// @Param id path int true "Comment ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		MemberID:  memberIDOf(c),
		CommentID: id,
	}); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
