// Package message defines the request and response bodies exchanged over
// the daemon socket. Bodies are JSON; the same types serve the gRPC
// surface and the HTTP/1 surface.
package message

import (
	"time"

	"go.klb.dev/clipd/internal/history"
	"go.klb.dev/clipd/internal/hotkey"
	"go.klb.dev/clipd/internal/permission"
	"go.klb.dev/clipd/internal/settings"
	"go.klb.dev/clipd/internal/storage"
)

// Item is the wire view of a history entry. Image bytes stay in the daemon;
// the preview carries a thumbnail data URL instead.
type Item struct {
	ID        string       `json:"id"`
	Kind      history.Kind `json:"kind"`
	Text      string       `json:"text,omitempty"`
	Preview   string       `json:"preview"`
	Width     int          `json:"width,omitempty"`
	Height    int          `json:"height,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
	Pinned    bool         `json:"pinned"`
}

// FromHistory converts a stored item to its wire view.
func FromHistory(it history.Item) Item {
	out := Item{
		ID:        it.ID,
		Kind:      it.Content.Kind,
		Preview:   it.Preview,
		Timestamp: it.Timestamp,
		Pinned:    it.Pinned,
	}
	switch it.Content.Kind {
	case history.KindImage:
		out.Width, out.Height = it.Content.Width, it.Content.Height
	default:
		out.Text = it.Content.Text
	}
	return out
}

// Items converts a snapshot.
func Items(items []history.Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = FromHistory(it)
	}
	return out
}

// Empty is used by methods that take or return nothing.
type Empty struct{}

// History is the GetHistory response.
type History struct {
	Items    []Item `json:"items"`
	Capacity int    `json:"capacity"`
}

// ItemRef names one history entry.
type ItemRef struct {
	ID string `json:"id"`
}

// ItemReply carries one item.
type ItemReply struct {
	Item Item `json:"item"`
}

// Removed reports how many entries a mutation removed.
type Removed struct {
	Removed int `json:"removed"`
}

// PasteText is the PasteText request. Kind is text, emoji, kaomoji or
// symbol; empty means text.
type PasteText struct {
	Text string `json:"text"`
	Kind string `json:"kind,omitempty"`
}

// Permissions is the CheckPermissions response.
type Permissions = permission.Status

// FixResult is the FixPermissionsNow response.
type FixResult = permission.FixResult

// ShortcutTools is the CheckShortcutTools response.
type ShortcutTools = hotkey.ToolsStatus

// ShortcutRegistered is the RegisterDEShortcut response.
type ShortcutRegistered struct {
	Backend string `json:"backend"`
	Command string `json:"command"`
}

// Flag carries a single boolean.
type Flag struct {
	Value bool `json:"value"`
}

// Settings is the body of GetUserSettings and SetUserSettings.
type Settings = settings.UserSettings

// MouseState is the SetMouseState request.
type MouseState struct {
	Inside bool `json:"inside"`
}

// PanelPosition is the SetPanelPosition request: the panel's top-left
// corner after the user moved it.
type PanelPosition struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Visibility reports whether the panel is shown.
type Visibility struct {
	Visible bool `json:"visible"`
}

// RecentRequest asks for recently pasted picker values.
type RecentRequest struct {
	Kind  string `json:"kind,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// Recent is the GetRecentEmojis response.
type Recent struct {
	Items []storage.Usage `json:"items"`
}

// Subscribe opens the Events stream. Names filters the delivered events;
// empty means all.
type Subscribe struct {
	Names []string `json:"names,omitempty"`
}

// Status is the daemon summary.
type Status struct {
	Version          string        `json:"version"`
	Session          string        `json:"session"`
	ClipboardBackend string        `json:"clipboard_backend"`
	HotkeyBackend    string        `json:"hotkey_backend"`
	Items            int           `json:"items"`
	Pinned           int           `json:"pinned"`
	Capacity         int           `json:"capacity"`
	Captured         uint64        `json:"captured"`
	Subscribers      int           `json:"subscribers"`
	PanelVisible     bool          `json:"panel_visible"`
	MouseInside      bool          `json:"mouse_inside"`
	UinputAccessible bool          `json:"uinput_accessible"`
	StartedAt        time.Time     `json:"started_at"`
	Uptime           time.Duration `json:"uptime"`
}

// ErrorBody is the HTTP/1 error response.
type ErrorBody struct {
	Error       string `json:"error"`
	Reason      string `json:"reason,omitempty"`
	Remediation string `json:"remediation,omitempty"`
}
