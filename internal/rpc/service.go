// Package rpc is the daemon's command/event boundary: a gRPC service with a
// JSON codec on the local socket, a client for it, and a small HTTP/1 JSON
// surface multiplexed onto the same listener.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.klb.dev/clipd/internal/apperr"
	"go.klb.dev/clipd/internal/events"
	"go.klb.dev/clipd/internal/history"
	"go.klb.dev/clipd/internal/hotkey"
	"go.klb.dev/clipd/internal/inject"
	"go.klb.dev/clipd/internal/message"
	"go.klb.dev/clipd/internal/permission"
	"go.klb.dev/clipd/internal/position"
	"go.klb.dev/clipd/internal/settings"
	"go.klb.dev/clipd/internal/storage"
)

// Paster injects history entries and picker text.
type Paster interface {
	PasteItem(ctx context.Context, id string) error
	PasteText(ctx context.Context, text string, kind inject.Kind) error
}

// Permissions checks and repairs access to the input device.
type Permissions interface {
	Check(ctx context.Context) permission.Status
	Fix(ctx context.Context) (permission.FixResult, error)
}

// Shortcuts registers the desktop hotkey.
type Shortcuts interface {
	Tools() hotkey.ToolsStatus
	Register(ctx context.Context) error
}

// SettingsStore persists user settings and the first-run marker.
type SettingsStore interface {
	Get() settings.UserSettings
	Set(s settings.UserSettings) (settings.UserSettings, error)
	IsFirstRun() bool
	MarkFirstRunComplete() error
}

// Panel controls the history panel.
type Panel interface {
	Toggle(ctx context.Context) (bool, error)
	Hide(ctx context.Context) error
	SetMouseInside(inside bool)
	MouseInside() bool
	Remember(ctx context.Context, p position.Point) error
	Visible() bool
}

// UsageStore lists recently pasted picker values.
type UsageStore interface {
	RecentUsage(ctx context.Context, kind string, limit int) ([]storage.Usage, error)
}

// Info is static daemon metadata reported by Status.
type Info struct {
	Version          string
	Session          string
	ClipboardBackend string
	HotkeyCommand    string
	StartedAt        time.Time
	// Captured reports how many clipboard changes were recorded.
	Captured func() uint64
}

// Service implements every boundary method on top of the daemon's
// components. Usage may be nil.
type Service struct {
	Store       *history.Store
	Bus         *events.Bus
	Paster      Paster
	Permissions Permissions
	Shortcuts   Shortcuts
	Settings    SettingsStore
	Panel       Panel
	Usage       UsageStore
	Info        Info
}

func (s *Service) GetHistory(_ context.Context, _ *message.Empty) (*message.History, error) {
	return &message.History{Items: message.Items(s.Store.Snapshot()), Capacity: s.Store.Capacity()}, nil
}

func (s *Service) ClearHistory(_ context.Context, _ *message.Empty) (*message.Removed, error) {
	removed := s.Store.Clear()
	slog.Info("history cleared", "removed", len(removed))
	s.Bus.Emit(events.HistoryCleared, nil)
	return &message.Removed{Removed: len(removed)}, nil
}

// DeleteItem removes one entry. An unknown id is ErrItemNotFound.
func (s *Service) DeleteItem(_ context.Context, in *message.ItemRef) (*message.Removed, error) {
	if !s.Store.Delete(in.ID) {
		return nil, fmt.Errorf("delete %s: %w", in.ID, apperr.ErrItemNotFound)
	}
	return &message.Removed{Removed: 1}, nil
}

func (s *Service) TogglePin(_ context.Context, in *message.ItemRef) (*message.ItemReply, error) {
	it, err := s.Store.TogglePin(in.ID)
	if err != nil {
		return nil, err
	}
	return &message.ItemReply{Item: message.FromHistory(it)}, nil
}

func (s *Service) PasteItem(ctx context.Context, in *message.ItemRef) (*message.Empty, error) {
	if err := s.Paster.PasteItem(ctx, in.ID); err != nil {
		return nil, err
	}
	return &message.Empty{}, nil
}

func (s *Service) PasteText(ctx context.Context, in *message.PasteText) (*message.Empty, error) {
	kind, err := inject.ParseKind(in.Kind)
	if err != nil {
		return nil, invalidArgument(err)
	}
	if err := s.Paster.PasteText(ctx, in.Text, kind); err != nil {
		return nil, err
	}
	return &message.Empty{}, nil
}

func (s *Service) CheckPermissions(ctx context.Context, _ *message.Empty) (*message.Permissions, error) {
	st := s.Permissions.Check(ctx)
	return &st, nil
}

func (s *Service) FixPermissionsNow(ctx context.Context, _ *message.Empty) (*message.FixResult, error) {
	res, err := s.Permissions.Fix(ctx)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *Service) CheckShortcutTools(_ context.Context, _ *message.Empty) (*message.ShortcutTools, error) {
	t := s.Shortcuts.Tools()
	return &t, nil
}

func (s *Service) RegisterDEShortcut(ctx context.Context, _ *message.Empty) (*message.ShortcutRegistered, error) {
	if err := s.Shortcuts.Register(ctx); err != nil {
		return nil, err
	}
	return &message.ShortcutRegistered{Backend: s.Shortcuts.Tools().Backend, Command: s.Info.HotkeyCommand}, nil
}

func (s *Service) IsFirstRun(_ context.Context, _ *message.Empty) (*message.Flag, error) {
	return &message.Flag{Value: s.Settings.IsFirstRun()}, nil
}

func (s *Service) MarkFirstRunComplete(_ context.Context, _ *message.Empty) (*message.Empty, error) {
	if err := s.Settings.MarkFirstRunComplete(); err != nil {
		return nil, err
	}
	s.Bus.Forget(events.ShowSetupWizard)
	return &message.Empty{}, nil
}

func (s *Service) GetUserSettings(_ context.Context, _ *message.Empty) (*message.Settings, error) {
	st := s.Settings.Get()
	return &st, nil
}

func (s *Service) SetUserSettings(_ context.Context, in *message.Settings) (*message.Settings, error) {
	st, err := s.Settings.Set(*in)
	if err != nil {
		return nil, err
	}
	s.ApplySettings(st)
	return &st, nil
}

// ApplySettings makes st effective: the history capacity follows
// max_history_items and subscribers are told about the change.
func (s *Service) ApplySettings(st settings.UserSettings) {
	if evicted := s.Store.SetCapacity(st.MaxHistoryItems); len(evicted) > 0 {
		slog.Info("history capacity reduced", "capacity", st.MaxHistoryItems, "evicted", len(evicted))
	}
	s.Bus.Emit(events.AppSettingsChanged, st)
}

func (s *Service) SetMouseState(_ context.Context, in *message.MouseState) (*message.Empty, error) {
	s.Panel.SetMouseInside(in.Inside)
	return &message.Empty{}, nil
}

// SetPanelPosition records where the user moved the panel so the next show
// reuses it on the same monitor.
func (s *Service) SetPanelPosition(ctx context.Context, in *message.PanelPosition) (*message.Empty, error) {
	if err := s.Panel.Remember(ctx, position.Point{X: in.X, Y: in.Y}); err != nil {
		return nil, err
	}
	return &message.Empty{}, nil
}

func (s *Service) Toggle(ctx context.Context, _ *message.Empty) (*message.Visibility, error) {
	v, err := s.Panel.Toggle(ctx)
	if err != nil {
		return nil, err
	}
	return &message.Visibility{Visible: v}, nil
}

func (s *Service) HideWindow(ctx context.Context, _ *message.Empty) (*message.Empty, error) {
	if err := s.Panel.Hide(ctx); err != nil {
		return nil, err
	}
	return &message.Empty{}, nil
}

func (s *Service) GetRecentEmojis(ctx context.Context, in *message.RecentRequest) (*message.Recent, error) {
	if s.Usage == nil {
		return &message.Recent{}, nil
	}
	items, err := s.Usage.RecentUsage(ctx, in.Kind, in.Limit)
	if err != nil {
		return nil, err
	}
	return &message.Recent{Items: items}, nil
}

func (s *Service) Status(ctx context.Context, _ *message.Empty) (*message.Status, error) {
	snap := s.Store.Snapshot()
	pinned := 0
	for _, it := range snap {
		if it.Pinned {
			pinned++
		}
	}
	st := &message.Status{
		Version:          s.Info.Version,
		Session:          s.Info.Session,
		ClipboardBackend: s.Info.ClipboardBackend,
		HotkeyBackend:    s.Shortcuts.Tools().Backend,
		Items:            len(snap),
		Pinned:           pinned,
		Capacity:         s.Store.Capacity(),
		Subscribers:      s.Bus.Subscribers(),
		PanelVisible:     s.Panel.Visible(),
		MouseInside:      s.Panel.MouseInside(),
		UinputAccessible: s.Permissions.Check(ctx).UinputAccessible,
		StartedAt:        s.Info.StartedAt,
	}
	if !s.Info.StartedAt.IsZero() {
		st.Uptime = time.Since(s.Info.StartedAt).Round(time.Second)
	}
	if s.Info.Captured != nil {
		st.Captured = s.Info.Captured()
	}
	return st, nil
}

// Events streams bus events to send until ctx ends or send fails.
func (s *Service) Events(ctx context.Context, in *message.Subscribe, send func(*events.Event) error) error {
	want := make(map[events.Name]bool, len(in.Names))
	for _, n := range in.Names {
		want[events.Name(n)] = true
	}
	sub := s.Bus.Subscribe("stream", 64)
	defer s.Bus.Unregister(sub)

	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-sub.C:
			if len(want) > 0 && !want[e.Name] {
				continue
			}
			if err := send(&e); err != nil {
				return err
			}
		}
	}
}

var errInvalidArgument = errors.New("invalid argument")

func invalidArgument(err error) error {
	return fmt.Errorf("%w: %w", errInvalidArgument, err)
}
