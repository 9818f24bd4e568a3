// Package imaging validates and downsizes uploaded recipe images.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/nfnt/resize"
)

var (
	// ErrUnsupported is returned for payloads that are not JPEG, PNG or GIF.
	ErrUnsupported = errors.New("upload a valid image: the file is either not an image or a corrupted image")
	// ErrTooLarge is returned when the declared dimensions exceed Limits.MaxPixels.
	ErrTooLarge = errors.New("image dimensions are too large")
)

// Limits bounds the images Process accepts and produces. Zero disables a limit.
type Limits struct {
	MaxHeight int
	MaxPixels int64
}

// Result is a processed image ready for storage.
type Result struct {
	Data        []byte
	ContentType string
	Format      string
	Width       int
	Height      int
	Resized     bool
}

var contentTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
}

var extensions = map[string][]string{
	"jpeg": {".jpg", ".jpeg"},
	"png":  {".png"},
	"gif":  {".gif"},
}

// Extension returns the canonical file extension for a decoded format.
func Extension(format string) string {
	if exts, ok := extensions[format]; ok {
		return exts[0]
	}
	return ""
}

// MatchesExtension reports whether ext (any case) is a valid extension for format.
func MatchesExtension(format, ext string) bool {
	ext = strings.ToLower(ext)
	for _, candidate := range extensions[format] {
		if candidate == ext {
			return true
		}
	}
	return false
}

// ContentTypeForExtension maps a stored image extension to its MIME type.
// Unknown extensions yield "".
func ContentTypeForExtension(ext string) string {
	ext = strings.ToLower(ext)
	for format, exts := range extensions {
		for _, candidate := range exts {
			if candidate == ext {
				return contentTypes[format]
			}
		}
	}
	return ""
}

// Process decodes r and scales it down to limits.MaxHeight, keeping the
// aspect ratio. Images already within bounds are stored byte for byte.
// Dimensions are checked against limits.MaxPixels before any pixel data
// is decoded.
func Process(r io.Reader, limits Limits) (Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("read image: %w", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return Result{}, ErrUnsupported
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Result{}, ErrUnsupported
	}
	if limits.MaxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > limits.MaxPixels {
		return Result{}, ErrTooLarge
	}
	maxHeight := limits.MaxHeight

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Result{}, ErrUnsupported
	}
	contentType, ok := contentTypes[format]
	if !ok {
		return Result{}, ErrUnsupported
	}
	bounds := img.Bounds()
	result := Result{
		Data:        raw,
		ContentType: contentType,
		Format:      format,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}
	if maxHeight <= 0 || bounds.Dy() <= maxHeight {
		return result, nil
	}

	aspectRatio := float64(bounds.Dx()) / float64(bounds.Dy())
	newWidth := uint(float64(maxHeight) * aspectRatio)
	if newWidth == 0 {
		newWidth = 1
	}
	resized := resize.Resize(newWidth, uint(maxHeight), img, resize.Lanczos3)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 90})
	case "png":
		err = png.Encode(&buf, resized)
	case "gif":
		err = gif.Encode(&buf, resized, nil)
	}
	if err != nil {
		return Result{}, fmt.Errorf("encode %s: %w", format, err)
	}
	rb := resized.Bounds()
	result.Data = buf.Bytes()
	result.Width = rb.Dx()
	result.Height = rb.Dy()
	result.Resized = true
	return result, nil
}
