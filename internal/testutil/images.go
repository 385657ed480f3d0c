// Package testutil holds fixtures shared by package tests: an in-memory
// SQLite schema, row builders and encoded images.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

// TB is the part of testing.TB the image helpers need.
type TB interface {
	Helper()
	Fatalf(string, ...any)
}

// TinyPNG encodes a w by h gradient as PNG.
func TinyPNG(t TB, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 0xf2, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png: %v", err)
	}
	return buf.Bytes()
}
