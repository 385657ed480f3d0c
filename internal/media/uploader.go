package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"twitterclone/internal/middleware"
	"twitterclone/internal/models"
	"twitterclone/internal/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Upload presets.
const (
	PresetPost    = "twitter2"
	PresetProfile = "twitter2 profile"
)

const DefaultMaxUploadMB = 10

var (
	errInvalidImage      = models.NewValidationError("Invalid image file")
	errUnsupportedFormat = models.NewValidationError("Unsupported image format")
)

// UploadInput is one file to upload.
type UploadInput struct {
	Content     []byte
	Filename    string
	ContentType string
	Preset      string
}

// Uploader validates, normalizes and stores images.
type Uploader struct {
	storage        Storage
	maxUploadBytes int64
	prefixes       map[string]string
	withWebP       bool
}

// Options tune an Uploader. Zero values use the defaults.
type Options struct {
	MaxUploadMB   int
	PostPreset    string
	ProfilePreset string
	// SkipWebP stops the .webp sibling from being produced.
	SkipWebP bool
}

func NewUploader(storage Storage, opts Options) *Uploader {
	maxMB := opts.MaxUploadMB
	if maxMB <= 0 {
		maxMB = DefaultMaxUploadMB
	}
	prefixes := map[string]string{
		PresetPost:    "posts/",
		PresetProfile: "profiles/",
	}
	// configured names are accepted as aliases
	if opts.PostPreset != "" {
		prefixes[opts.PostPreset] = "posts/"
	}
	if opts.ProfilePreset != "" {
		prefixes[opts.ProfilePreset] = "profiles/"
	}
	return &Uploader{
		storage:        storage,
		maxUploadBytes: int64(maxMB) * 1024 * 1024,
		prefixes:       prefixes,
		withWebP:       !opts.SkipWebP,
	}
}

// Upload stores the normalized image and returns its public URL.
// Storage failures are returned as UPLOAD_FAILED with the storage message.
func (u *Uploader) Upload(ctx context.Context, in UploadInput) (url string, err error) {
	ctx, span := observability.StartSpan(ctx, "media", "upload", attribute.String("media.preset", in.Preset))
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		observability.MediaUploads.WithLabelValues(in.Preset, outcome).Inc()
		observability.EndSpan(span, err)
	}()

	prefix, ok := u.prefixes[in.Preset]
	if !ok {
		return "", models.NewValidationError(fmt.Sprintf("Unknown upload preset %q", in.Preset))
	}
	if len(in.Content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > u.maxUploadBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", u.maxUploadBytes/(1024*1024)))
	}
	if !sniffedImage(http.DetectContentType(in.Content)) {
		return "", models.NewValidationError("Invalid image type")
	}

	img, err := render(in.Content, u.withWebP)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return "", err
		}
		return "", models.NewInternalError(err)
	}

	base := prefix + uuid.NewString()
	jpgKey := base + ".jpg"
	if err := u.storage.Put(ctx, jpgKey, img.JPEG, "image/jpeg"); err != nil {
		return "", models.NewUploadFailedError(err)
	}
	if img.WebP != nil {
		// the jpeg is canonical, the webp sibling is optional
		if err := u.storage.Put(ctx, base+".webp", img.WebP, "image/webp"); err != nil {
			middleware.Logger.WarnContext(ctx, "webp sibling upload failed",
				"key", base+".webp", "error", err)
		}
	}

	middleware.Logger.InfoContext(ctx, "media uploaded",
		"preset", in.Preset,
		"key", jpgKey,
		"filename", path.Base(strings.TrimSpace(in.Filename)),
		"width", img.Width,
		"height", img.Height)
	return u.storage.URL(jpgKey), nil
}
