package server

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"twitterclone/internal/media"
	"twitterclone/internal/middleware"
	"twitterclone/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// errResponseWritten tells a handler that a helper already sent the
// response. Handlers return nil on it so the error handler leaves it alone.
var errResponseWritten = errors.New("response already written")

const (
	defaultPageLimit   = 50
	maxPaginationLimit = 100
)

type Pagination struct {
	Limit  int
	Offset int
}

// parsePagination reads ?limit and ?offset. A missing or non-positive limit
// becomes def, and limits are capped at maxPaginationLimit.
func parsePagination(c *fiber.Ctx, def int) Pagination {
	limit := c.QueryInt("limit", def)
	if limit <= 0 {
		limit = def
	}
	return Pagination{
		Limit:  min(limit, maxPaginationLimit),
		Offset: max(c.QueryInt("offset", 0), 0),
	}
}

// parseID returns the UUID in route param, or answers 400 "Invalid <label>"
// and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (string, error) {
	raw := strings.TrimSpace(c.Params(param))
	if err := uuid.Validate(raw); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return "", errResponseWritten
	}
	return raw, nil
}

// humanizeParam labels a route param for error messages: "id" is "ID",
// "commentId" is "comment ID", anything else is returned as is.
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	stem, ok := strings.CutSuffix(param, "Id")
	if !ok || stem == "" {
		return param
	}
	var b strings.Builder
	for i, r := range stem {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String() + " ID"
}

// respondErr writes err with the status its code maps to.
func respondErr(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()))
	}
	return models.RespondWithError(c, status, err)
}

// formUpload reads an optional multipart file field into an upload input.
func formUpload(c *fiber.Ctx, field, preset string) (*media.UploadInput, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		// absent field
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewValidationError("Invalid file upload")
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, models.NewValidationError("Invalid file upload")
	}
	return &media.UploadInput{
		Content:     content,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Preset:      preset,
	}, nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}
