package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"twitterclone/internal/feed"
	"twitterclone/internal/media"
	"twitterclone/internal/middleware"
	"twitterclone/internal/models"
	"twitterclone/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetAllUsers handles GET /api/users
// @Summary List users
// @Tags users
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.User
// @Router /users [get]
func (s *Server) GetAllUsers(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	page := parsePagination(c, defaultPageLimit)
	users, err := s.userService.ListUsers(ctx, page.Limit, page.Offset)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
				"error": "Request timeout",
			})
		}
		return respondErr(c, err)
	}
	return c.JSON(users)
}

// GetMyProfile handles GET /api/users/me
// @Summary Current user's profile
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.UserProfile
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	profile, err := s.userService.GetProfile(c.UserContext(), userID, userID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update profile
// @Description Multipart form with optional profileName, bio, photo and banner
// @Tags users
// @Security BearerAuth
// @Accept mpfd,json
// @Produce json
// @Param profileName formData string false "Display name"
// @Param bio formData string false "Bio"
// @Param photo formData file false "Profile photo"
// @Param banner formData file false "Banner image"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	in := service.UpdateProfileInput{ViewerID: middleware.UserID(c)}

	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid form data"))
		}
		if v, ok := form.Value["profileName"]; ok && len(v) > 0 {
			in.ProfileName = &v[0]
		}
		if v, ok := form.Value["bio"]; ok && len(v) > 0 {
			in.Bio = &v[0]
		}
		if in.Photo, err = formUpload(c, "photo", media.PresetProfile); err != nil {
			return respondErr(c, err)
		}
		if in.Banner, err = formUpload(c, "banner", media.PresetProfile); err != nil {
			return respondErr(c, err)
		}
	} else {
		var req struct {
			ProfileName *string `json:"profileName"`
			Bio         *string `json:"bio"`
		}
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		in.ProfileName, in.Bio = req.ProfileName, req.Bio
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), in)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:id
// @Summary User profile
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.UserProfile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	profile, err := s.userService.GetProfile(c.UserContext(), id, middleware.UserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(profile)
}

// GetUserByUsername handles GET /api/users/by-username/:username
// @Summary Look up a user by username
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.UserProfile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/by-username/{username} [get]
func (s *Server) GetUserByUsername(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.Params("username"))
	if username == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid username"))
	}
	user, err := s.userService.GetByUsername(c.UserContext(), username)
	if err != nil {
		return respondErr(c, err)
	}
	profile, err := s.userService.GetProfile(c.UserContext(), user.ID, middleware.UserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(profile)
}

// GetUserPosts handles GET /api/users/:id/posts
// @Summary Posts authored by a user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Param limit query int false "Max posts"
// @Success 200 {object} feed.Result
// @Router /users/{id}/posts [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultPageLimit)
	res, err := s.assembler.Fetch(c.UserContext(), feed.Authored(id, middleware.UserID(c), page.Limit))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(res)
}

// GetUserReplies handles GET /api/users/:id/replies
// @Summary Comments written by a user with their parent posts
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Param limit query int false "Max replies"
// @Success 200 {object} feed.Result
// @Router /users/{id}/replies [get]
func (s *Server) GetUserReplies(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultPageLimit)
	res, err := s.assembler.Fetch(c.UserContext(), feed.Replies(id, middleware.UserID(c), page.Limit))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(res)
}

// ToggleFollow handles POST /api/users/:id/follow
// @Summary Toggle follow
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.FollowResult
// @Failure 400 {object} models.ErrorResponse
// @Router /users/{id}/follow [post]
func (s *Server) ToggleFollow(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	res, err := s.socialGraph.ToggleFollow(c.UserContext(), middleware.UserID(c), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(res)
}

// GetFollowers handles GET /api/users/:id/followers
// @Summary Followers of a user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {array} models.Profile
// @Router /users/{id}/followers [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	list, err := s.socialGraph.ListFollowers(c.UserContext(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(list)
}

// GetFollowing handles GET /api/users/:id/following
// @Summary Users a user follows
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {array} models.Profile
// @Router /users/{id}/following [get]
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	list, err := s.socialGraph.ListFollowing(c.UserContext(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(list)
}
