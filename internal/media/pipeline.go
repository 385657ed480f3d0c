package media

import (
	"bytes"
	"image"
	"image/jpeg"
	"strings"

	_ "image/gif"
	_ "image/png"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	MaxDimension = 2048
	JPEGQuality  = 82
	WebPQuality  = 70
)

var decodable = map[string]bool{"jpeg": true, "png": true, "gif": true, "webp": true}

// rendition is an uploaded image after decoding and downscaling. WebP is
// nil when that variant was skipped or could not be encoded.
type rendition struct {
	JPEG   []byte
	WebP   []byte
	Width  int
	Height int
}

// render decodes content, bounds it to MaxDimension on both axes and
// re-encodes it. JPEG is always produced; withWebP adds the WebP sibling.
func render(content []byte, withWebP bool) (*rendition, error) {
	src, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, errInvalidImage
	}
	if !decodable[format] {
		return nil, errUnsupportedFormat
	}

	img := fit(src, MaxDimension)
	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, err
	}
	r := &rendition{JPEG: jpg.Bytes(), Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}

	if withWebP {
		var wp bytes.Buffer
		if err := webp.Encode(&wp, img, &webp.Options{Quality: WebPQuality}); err == nil {
			r.WebP = wp.Bytes()
		}
	}
	return r, nil
}

// fit scales src down so neither side exceeds limit, keeping the aspect ratio.
func fit(src image.Image, limit int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := max(w, h)
	if w <= 0 || h <= 0 || longest <= limit {
		return src
	}
	nw := max(w*limit/longest, 1)
	nh := max(h*limit/longest, 1)
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

// sniffedImage reports whether the detected content type is an image kind
// the pipeline accepts.
func sniffedImage(contentType string) bool {
	mt, _, _ := strings.Cut(strings.ToLower(contentType), ";")
	switch strings.TrimSpace(mt) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}
