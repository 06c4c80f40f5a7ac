// Package avatar turns uploaded profile pictures into uniform square PNGs.
package avatar

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // registers the JPEG decoder
	"image/png"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
)

// DefaultSize is the edge length, in pixels, of a normalized avatar.
const DefaultSize = 250

var (
	// ErrEmpty is returned for an empty upload.
	ErrEmpty = errors.New("no image provided")
	// ErrUnsupportedFormat is returned when the content is neither JPEG nor PNG.
	ErrUnsupportedFormat = errors.New("please upload a JPG, JPEG or PNG image")
)

// Normalize decodes a JPEG or PNG image, center-crops it to a square, scales
// it to size×size and re-encodes it as PNG.
func Normalize(data []byte, size int) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if size <= 0 {
		size = DefaultSize
	}
	mtype := mimetype.Detect(data)
	if !mtype.Is("image/png") && !mtype.Is("image/jpeg") {
		return nil, fmt.Errorf("%w: got %s", ErrUnsupportedFormat, mtype.String())
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, squareCrop(src.Bounds()), draw.Over, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, fmt.Errorf("failed to encode avatar: %w", err)
	}
	return out.Bytes(), nil
}

// squareCrop returns the largest centered square inside b.
func squareCrop(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w == h {
		return b
	}
	if w > h {
		x0 := b.Min.X + (w-h)/2
		return image.Rect(x0, b.Min.Y, x0+h, b.Max.Y)
	}
	y0 := b.Min.Y + (h-w)/2
	return image.Rect(b.Min.X, y0, b.Max.X, y0+w)
}
