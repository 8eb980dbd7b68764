// Package imageutil decodes clipboard images and bounds their size before
// they enter the history.
package imageutil

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// MaxPixels caps the decoded size of a clipboard image. A 40 MP RGBA bitmap
// is 160 MiB; anything larger is refused before decoding.
const MaxPixels = 40_000_000

// ErrTooLarge marks images whose header exceeds MaxPixels.
var ErrTooLarge = errors.New("image exceeds pixel budget")

// Dimensions reads the size from the image header without decoding pixels.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("read image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// Normalize decodes data (PNG, JPEG or GIF), down-samples it so that neither
// side exceeds maxSide, and re-encodes it as PNG. maxSide <= 0 disables
// down-sampling. The returned width and height describe the encoded image.
// Images above MaxPixels fail with ErrTooLarge without being decoded.
func Normalize(data []byte, maxSide int) ([]byte, int, int, error) {
	w, h, err := Dimensions(data)
	if err != nil {
		return nil, 0, 0, err
	}
	if int64(w)*int64(h) > MaxPixels {
		return nil, 0, 0, fmt.Errorf("%dx%d: %w", w, h, ErrTooLarge)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}
	img = Fit(img, maxSide)
	out, err := encode(img)
	if err != nil {
		return nil, 0, 0, err
	}
	b := img.Bounds()
	return out, b.Dx(), b.Dy(), nil
}

// Thumbnail returns a PNG no larger than side×side preserving aspect ratio.
func Thumbnail(pngData []byte, side int) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("decode thumbnail source: %w", err)
	}
	return encode(Fit(img, side))
}

// Fit scales img down so its longest side is at most maxSide. Images that
// already fit, and maxSide <= 0, return img unchanged.
func Fit(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return img
	}
	nw, nh := FitSize(w, h, maxSide)
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// FitSize computes the dimensions of a w×h image scaled so its longest side
// equals maxSide. Neither result is smaller than 1.
func FitSize(w, h, maxSide int) (int, int) {
	if w >= h {
		nh := h * maxSide / w
		return maxSide, max(nh, 1)
	}
	nw := w * maxSide / h
	return max(nw, 1), maxSide
}

func encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
