package server

import (
	"twitterclone/internal/middleware"
	"twitterclone/internal/models"
	"twitterclone/internal/service"
	"twitterclone/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// CreateComment handles POST /api/posts/:id/comments
// @Summary Comment on a post
// @Tags comments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param request body validation.CommentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var req validation.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.AddComment(c.UserContext(), service.AddCommentInput{
		ViewerID: middleware.UserID(c),
		PostID:   postID,
		Text:     req.Text,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// LikeComment handles POST /api/posts/:id/comments/:commentId/like
// @Summary Toggle comment like
// @Tags comments
// @Security BearerAuth
// @Produce json
// @Param id path string true "Post ID"
// @Param commentId path string true "Comment ID"
// @Success 200 {object} models.LikeResult
// @Router /posts/{id}/comments/{commentId}/like [post]
func (s *Server) LikeComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}
	res, err := s.commentService.ToggleCommentLike(c.UserContext(), postID, commentID, middleware.UserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(res)
}

// DeleteComment handles DELETE /api/posts/:id/comments/:commentId
// @Summary Delete a comment
// @Tags comments
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param commentId path string true "Comment ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{id}/comments/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}
	if err := s.commentService.DeleteComment(c.UserContext(), postID, commentID, middleware.UserID(c)); err != nil {
		return respondErr(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
