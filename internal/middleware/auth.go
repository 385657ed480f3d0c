// Package middleware provides authentication, logging, metrics and rate limiting middleware.
package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrMissingToken       = errors.New("Authorization header required")
	ErrInvalidAuthzHeader = errors.New("Invalid authorization header format")
)

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidAuthzHeader
	}
	return parts[1], nil
}

// UserID returns the authenticated user id stored by the auth middleware, or "".
func UserID(c *fiber.Ctx) string {
	uid, _ := c.Locals("userID").(string)
	return uid
}

// Unauthorized writes the standard 401 body.
func Unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": msg,
		"code":  "UNAUTHENTICATED",
	})
}
