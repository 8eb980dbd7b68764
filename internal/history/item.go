// Package history owns the ordered clipboard history: its item model and the
// single store through which every mutation goes.
package history

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"go.klb.dev/clipd/internal/imageutil"
)

// Kind tags the variant held by a Content.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

const previewRunes = 100

// Content is the clipboard payload of an item. Exactly one of Text or Image
// is meaningful, selected by Kind. Image holds PNG bytes.
type Content struct {
	Kind   Kind   `json:"kind"`
	Text   string `json:"text,omitempty"`
	Image  []byte `json:"image,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// TextContent returns a text Content.
func TextContent(s string) Content {
	return Content{Kind: KindText, Text: s}
}

// ImageContent returns an image Content from PNG bytes and pixel dimensions.
func ImageContent(png []byte, width, height int) Content {
	return Content{Kind: KindImage, Image: png, Width: width, Height: height}
}

// Bytes returns the raw payload: UTF-8 text or PNG data.
func (c Content) Bytes() []byte {
	if c.Kind == KindImage {
		return c.Image
	}
	return []byte(c.Text)
}

// Fingerprint identifies the payload for duplicate detection.
func (c Content) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(c.Kind))
	h.Write([]byte{0})
	h.Write(c.Bytes())
	return hex.EncodeToString(h.Sum(nil))
}

// Item is one history entry.
type Item struct {
	ID        string    `json:"id"`
	Content   Content   `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Pinned    bool      `json:"pinned"`
	Preview   string    `json:"preview"`
}

// NewItem builds an unpinned item captured at ts. Image previews are
// thumbnails whose longest side is at most thumbSide pixels.
func NewItem(c Content, ts time.Time, thumbSide int) Item {
	return Item{
		ID:        uuid.NewString(),
		Content:   c,
		Timestamp: ts,
		Preview:   Preview(c, thumbSide),
	}
}

// Preview derives the short UI representation of c.
func Preview(c Content, thumbSide int) string {
	if c.Kind == KindImage {
		thumb, err := imageutil.Thumbnail(c.Image, thumbSide)
		if err != nil {
			return ""
		}
		return "data:image/png;base64," + base64.StdEncoding.EncodeToString(thumb)
	}
	s := strings.Join(strings.Fields(c.Text), " ")
	if utf8.RuneCountInString(s) <= previewRunes {
		return s
	}
	r := []rune(s)
	return string(r[:previewRunes]) + "…"
}
