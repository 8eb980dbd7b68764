package imageutil

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestFitSize(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{4000, 2000, 1000, 1000, 500},
		{2000, 4000, 1000, 500, 1000},
		{3000, 1, 300, 300, 1},
		{1000, 1000, 100, 100, 100},
	}
	for _, tt := range tests {
		gw, gh := FitSize(tt.w, tt.h, tt.max)
		if gw != tt.wantW || gh != tt.wantH {
			t.Errorf("FitSize(%d,%d,%d) = %dx%d, want %dx%d", tt.w, tt.h, tt.max, gw, gh, tt.wantW, tt.wantH)
		}
	}
}

func TestNormalizeDownsamples(t *testing.T) {
	out, w, h, err := Normalize(testPNG(t, 400, 200), 100)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if w != 100 || h != 50 {
		t.Errorf("size = %dx%d, want 100x50", w, h)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not PNG: %v", err)
	}
	if cfg.Width != 100 || cfg.Height != 50 {
		t.Errorf("encoded size = %dx%d, want 100x50", cfg.Width, cfg.Height)
	}
}

func TestNormalizeKeepsSmallImages(t *testing.T) {
	_, w, h, err := Normalize(testPNG(t, 30, 20), 100)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if w != 30 || h != 20 {
		t.Errorf("size = %dx%d, want 30x20", w, h)
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	if _, _, _, err := Normalize([]byte("not an image"), 100); err == nil {
		t.Error("expected decode error")
	}
}

func TestThumbnail(t *testing.T) {
	out, err := Thumbnail(testPNG(t, 64, 256), 32)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 8 || cfg.Height != 32 {
		t.Errorf("thumbnail = %dx%d, want 8x32", cfg.Width, cfg.Height)
	}
}

// pngHeader is a PNG that stops after IHDR: enough for DecodeConfig,
// nothing for Decode.
func pngHeader(w, h uint32) []byte {
	var ihdr [13]byte
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // RGBA
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr[:]...)
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestNormalizeRefusesHugeImages(t *testing.T) {
	_, _, _, err := Normalize(pngHeader(12000, 12000), 1920)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
	// Under the budget the header passes and the missing pixel data fails.
	_, _, _, err = Normalize(pngHeader(100, 100), 1920)
	if err == nil || errors.Is(err, ErrTooLarge) {
		t.Errorf("small header err = %v", err)
	}
}

func TestDimensions(t *testing.T) {
	w, h, err := Dimensions(testPNG(t, 30, 20))
	if err != nil || w != 30 || h != 20 {
		t.Errorf("Dimensions = %d, %d, %v", w, h, err)
	}
	if _, _, err := Dimensions([]byte("nope")); err == nil {
		t.Error("garbage accepted")
	}
}
