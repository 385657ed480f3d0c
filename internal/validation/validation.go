// Package validation holds request DTOs and their validation rules.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"twitterclone/internal/models"

	"github.com/go-playground/validator/v10"
)

var handleRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+(@[a-zA-Z0-9.-]+)?$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
		return handleRegex.MatchString(fl.Field().String())
	})
	return v
}

// SignUpRequest is the body of POST /api/auth/signup.
type SignUpRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=50,handle"`
	ProfileName     string `json:"profileName" validate:"required,min=3,max=100"`
	Password        string `json:"password" validate:"required,min=6,max=128"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// LoginRequest is the body of POST /api/auth/login. Username may be a handle or an email.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
}

// CreatePostRequest is the JSON body of POST /api/posts.
type CreatePostRequest struct {
	Text     string `json:"text" validate:"max=1200"`
	ImageURL string `json:"imageUrl" validate:"omitempty,url,max=512"`
}

// CommentRequest is the body of POST /api/posts/:id/comments.
type CommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// RetweetRequest is the optional body of POST /api/posts/:id/retweet.
type RetweetRequest struct {
	Comment string `json:"comment"`
}

// Struct validates v and converts the first failure into a VALIDATION_ERROR.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return models.NewValidationError("Invalid request")
	}
	return models.NewValidationError(message(verrs[0]))
}

func message(fe validator.FieldError) string {
	field := fieldLabel(fe.StructField())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "eqfield":
		return "Passwords do not match"
	case "handle":
		return fmt.Sprintf("%s may only contain letters, numbers, dots, dashes and underscores", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func fieldLabel(name string) string {
	switch name {
	case "ProfileName":
		return "Profile name"
	case "ConfirmPassword":
		return "Password confirmation"
	case "ImageURL":
		return "Image URL"
	}
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
