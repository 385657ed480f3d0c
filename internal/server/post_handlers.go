package server

import (
	"twitterclone/internal/feed"
	"twitterclone/internal/media"
	"twitterclone/internal/middleware"
	"twitterclone/internal/models"
	"twitterclone/internal/service"
	"twitterclone/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/feed
// @Summary Global feed
// @Description All posts, newest first
// @Tags feed
// @Produce json
// @Param limit query int false "Max posts (default 50, max 100)"
// @Success 200 {object} feed.Result
// @Router /feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageLimit)
	res, err := s.assembler.Fetch(c.UserContext(), feed.Global(middleware.UserID(c), page.Limit))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(res)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Description JSON body with text and optional imageUrl, or multipart with text and an image file
// @Tags posts
// @Security BearerAuth
// @Accept json,mpfd
// @Produce json
// @Param request body validation.CreatePostRequest false "Post"
// @Param image formData file false "Image"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	in := service.CreatePostInput{ViewerID: middleware.UserID(c)}

	if isMultipart(c) {
		in.Text = c.FormValue("text")
		img, err := formUpload(c, "image", media.PresetPost)
		if err != nil {
			return respondErr(c, err)
		}
		in.Image = img
	} else {
		var req validation.CreatePostRequest
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		if err := validation.Struct(req); err != nil {
			return respondErr(c, err)
		}
		in.Text = req.Text
		in.ImageURL = req.ImageURL
	}

	post, err := s.postService.CreatePost(c.UserContext(), in)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), id, middleware.UserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Tags posts
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), id, middleware.UserID(c)); err != nil {
		return respondErr(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikePost handles POST /api/posts/:id/like
// Toggles: liking twice restores the original state.
// @Summary Toggle like
// @Tags posts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.LikeResult
// @Router /posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	res, err := s.postService.ToggleLike(c.UserContext(), id, middleware.UserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(res)
}

// RetweetPost handles POST /api/posts/:id/retweet
// @Summary Retweet
// @Description Creates a retweet, optionally with a quote comment
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param request body validation.RetweetRequest false "Quote"
// @Success 201 {object} models.Post
// @Router /posts/{id}/retweet [post]
func (s *Server) RetweetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req validation.RetweetRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
	}
	post, err := s.postService.CreateRetweet(c.UserContext(), service.CreateRetweetInput{
		ViewerID: middleware.UserID(c),
		PostID:   id,
		Quote:    req.Comment,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}
