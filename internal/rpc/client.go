package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"go.klb.dev/clipd/internal/events"
	"go.klb.dev/clipd/internal/message"
)

// Client talks to a running daemon.
type Client struct {
	conn *grpc.ClientConn
}

// Dial returns a client for the daemon socket at path. No connection is made
// until the first call. No auth is needed; the socket is owner-only.
func Dial(path string, opts ...grpc.DialOption) (*Client, error) {
	return dial("unix://"+path, opts...)
}

func dial(target string, opts ...grpc.DialOption) (*Client, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}
	conn, err := grpc.NewClient(target, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

// Close releases the connection.
func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) call(ctx context.Context, method string, in, out any) error {
	return fromStatus(c.conn.Invoke(ctx, fullMethod(method), in, out))
}

func (c *Client) GetHistory(ctx context.Context) (*message.History, error) {
	out := new(message.History)
	return out, c.call(ctx, MethodGetHistory, &message.Empty{}, out)
}

func (c *Client) ClearHistory(ctx context.Context) (int, error) {
	var out message.Removed
	err := c.call(ctx, MethodClearHistory, &message.Empty{}, &out)
	return out.Removed, err
}

func (c *Client) DeleteItem(ctx context.Context, id string) (bool, error) {
	var out message.Removed
	err := c.call(ctx, MethodDeleteItem, &message.ItemRef{ID: id}, &out)
	return out.Removed > 0, err
}

func (c *Client) TogglePin(ctx context.Context, id string) (message.Item, error) {
	var out message.ItemReply
	err := c.call(ctx, MethodTogglePin, &message.ItemRef{ID: id}, &out)
	return out.Item, err
}

func (c *Client) PasteItem(ctx context.Context, id string) error {
	return c.call(ctx, MethodPasteItem, &message.ItemRef{ID: id}, &message.Empty{})
}

func (c *Client) PasteText(ctx context.Context, text, kind string) error {
	return c.call(ctx, MethodPasteText, &message.PasteText{Text: text, Kind: kind}, &message.Empty{})
}

func (c *Client) CheckPermissions(ctx context.Context) (message.Permissions, error) {
	var out message.Permissions
	err := c.call(ctx, MethodCheckPermissions, &message.Empty{}, &out)
	return out, err
}

func (c *Client) FixPermissionsNow(ctx context.Context) (message.FixResult, error) {
	var out message.FixResult
	err := c.call(ctx, MethodFixPermissionsNow, &message.Empty{}, &out)
	return out, err
}

func (c *Client) CheckShortcutTools(ctx context.Context) (message.ShortcutTools, error) {
	var out message.ShortcutTools
	err := c.call(ctx, MethodCheckShortcutTools, &message.Empty{}, &out)
	return out, err
}

func (c *Client) RegisterDEShortcut(ctx context.Context) (message.ShortcutRegistered, error) {
	var out message.ShortcutRegistered
	err := c.call(ctx, MethodRegisterDEShortcut, &message.Empty{}, &out)
	return out, err
}

func (c *Client) IsFirstRun(ctx context.Context) (bool, error) {
	var out message.Flag
	err := c.call(ctx, MethodIsFirstRun, &message.Empty{}, &out)
	return out.Value, err
}

func (c *Client) MarkFirstRunComplete(ctx context.Context) error {
	return c.call(ctx, MethodMarkFirstRunComplete, &message.Empty{}, &message.Empty{})
}

func (c *Client) GetUserSettings(ctx context.Context) (message.Settings, error) {
	var out message.Settings
	err := c.call(ctx, MethodGetUserSettings, &message.Empty{}, &out)
	return out, err
}

func (c *Client) SetUserSettings(ctx context.Context, s message.Settings) (message.Settings, error) {
	var out message.Settings
	err := c.call(ctx, MethodSetUserSettings, &s, &out)
	return out, err
}

func (c *Client) SetMouseState(ctx context.Context, inside bool) error {
	return c.call(ctx, MethodSetMouseState, &message.MouseState{Inside: inside}, &message.Empty{})
}

func (c *Client) SetPanelPosition(ctx context.Context, x, y int) error {
	return c.call(ctx, MethodSetPanelPosition, &message.PanelPosition{X: x, Y: y}, &message.Empty{})
}

func (c *Client) Toggle(ctx context.Context) (bool, error) {
	var out message.Visibility
	err := c.call(ctx, MethodToggle, &message.Empty{}, &out)
	return out.Visible, err
}

func (c *Client) HideWindow(ctx context.Context) error {
	return c.call(ctx, MethodHideWindow, &message.Empty{}, &message.Empty{})
}

func (c *Client) GetRecentEmojis(ctx context.Context, kind string, limit int) (*message.Recent, error) {
	out := new(message.Recent)
	return out, c.call(ctx, MethodGetRecentEmojis, &message.RecentRequest{Kind: kind, Limit: limit}, out)
}

func (c *Client) Status(ctx context.Context) (*message.Status, error) {
	out := new(message.Status)
	return out, c.call(ctx, MethodStatus, &message.Empty{}, out)
}

// Events subscribes to daemon events and calls fn for each until ctx ends,
// the stream breaks, or fn returns an error.
func (c *Client) Events(ctx context.Context, names []string, fn func(events.Event) error) error {
	stream, err := c.conn.NewStream(ctx, &serviceDesc.Streams[0], fullMethod(MethodEvents))
	if err != nil {
		return fromStatus(err)
	}
	if err := stream.SendMsg(&message.Subscribe{Names: names}); err != nil {
		return fromStatus(err)
	}
	if err := stream.CloseSend(); err != nil {
		return fromStatus(err)
	}
	for {
		var e events.Event
		if err := stream.RecvMsg(&e); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fromStatus(err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
}
