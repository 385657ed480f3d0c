package server

import (
	"strings"

	"twitterclone/internal/media"
	"twitterclone/internal/models"

	"github.com/gofiber/fiber/v2"
)

// UploadMedia handles POST /api/media
// @Summary Upload an image
// @Description Stores an image under a preset and returns its public URL
// @Tags media
// @Security BearerAuth
// @Accept mpfd
// @Produce json
// @Param file formData file true "Image"
// @Param preset formData string false "Upload preset"
// @Success 201 {object} object{url=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /media [post]
func (s *Server) UploadMedia(c *fiber.Ctx) error {
	preset := strings.TrimSpace(c.FormValue("preset"))
	if preset == "" {
		preset = media.PresetPost
	}
	in, err := formUpload(c, "file", preset)
	if err != nil {
		return respondErr(c, err)
	}
	if in == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("A file is required"))
	}
	url, err := s.uploader.Upload(c.UserContext(), *in)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
}
