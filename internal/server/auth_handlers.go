package server

import (
	"errors"
	"strings"
	"time"

	"twitterclone/internal/cache"
	"twitterclone/internal/identity"
	"twitterclone/internal/middleware"
	"twitterclone/internal/models"
	"twitterclone/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Signup handles POST /api/auth/signup
// @Summary User signup
// @Description Register a new account. The username doubles as the login handle.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validation.SignUpRequest true "Signup request"
// @Success 201 {object} identity.Session
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req validation.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	sess, err := s.identity.SignUp(c.UserContext(), identity.SignUpInput{
		Username:        req.Username,
		ProfileName:     req.ProfileName,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sess)
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticate with a handle or email and return a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validation.LoginRequest true "Login credentials"
// @Success 200 {object} identity.Session
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req validation.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	sess, err := s.identity.SignIn(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(sess)
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Description Revoke the current token. Live sockets of the user are closed.
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	token, _ := c.Locals("token").(string)
	if token == "" {
		return respondErr(c, models.NewUnauthenticatedError("Logout requires a bearer token"))
	}
	if err := s.identity.SignOut(c.UserContext(), token); err != nil {
		return respondErr(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// IssueWSTicket handles POST /api/ws/ticket
// @Summary Issue a WebSocket ticket
// @Description Returns a single-use ticket valid for 30 seconds
// @Tags realtime
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{ticket=string,expiresIn=int}
// @Failure 503 {object} models.ErrorResponse
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "WebSocket tickets are unavailable",
		})
	}
	ticket := uuid.NewString()
	if err := s.redis.Set(c.UserContext(), cache.WSTicketKey(ticket), middleware.UserID(c), cache.WSTicketTTL).Err(); err != nil {
		return respondErr(c, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{
		"ticket":    ticket,
		"expiresIn": int(cache.WSTicketTTL / time.Second),
	})
}

// AuthRequired accepts a single-use WebSocket ticket or a Bearer token.
// WebSocket paths do not accept the token as a query parameter.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isWSPath := strings.HasPrefix(c.Path(), "/api/ws") && !strings.HasPrefix(c.Path(), "/api/ws/ticket")

		if ticket := c.Query("ticket"); ticket != "" && s.redis != nil {
			userID, err := s.redis.GetDel(c.UserContext(), cache.WSTicketKey(ticket)).Result()
			if err == nil && userID != "" {
				setUser(c, userID)
				return c.Next()
			}
			if err != nil && !errors.Is(err, redis.Nil) {
				middleware.Logger.WarnContext(c.UserContext(), "ws ticket lookup failed", "error", err.Error())
			}
			if isWSPath {
				return middleware.Unauthorized(c, "Invalid or expired WebSocket ticket")
			}
		}

		token, err := middleware.BearerToken(c)
		if err != nil && !isWSPath {
			token = c.Query("token")
		}
		if token == "" {
			return middleware.Unauthorized(c, "Authorization required")
		}

		claims, err := s.identity.Verify(c.UserContext(), token)
		if err != nil {
			return respondErr(c, err)
		}
		c.Locals("token", token)
		setUser(c, claims.UserID())
		return c.Next()
	}
}

// OptionalAuth sets the viewer when a valid Bearer token is present and
// otherwise continues anonymously.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := middleware.BearerToken(c)
		if err != nil {
			return c.Next()
		}
		if claims, err := s.identity.Verify(c.UserContext(), token); err == nil {
			setUser(c, claims.UserID())
		}
		return c.Next()
	}
}

func setUser(c *fiber.Ctx, userID string) {
	c.Locals("userID", userID)
	c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))
}
