package rpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"

	"go.klb.dev/clipd/internal/events"
	"go.klb.dev/clipd/internal/message"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "clipd.v1.Clipd"

// Method names.
const (
	MethodGetHistory           = "GetHistory"
	MethodClearHistory         = "ClearHistory"
	MethodDeleteItem           = "DeleteItem"
	MethodTogglePin            = "TogglePin"
	MethodPasteItem            = "PasteItem"
	MethodPasteText            = "PasteText"
	MethodCheckPermissions     = "CheckPermissions"
	MethodFixPermissionsNow    = "FixPermissionsNow"
	MethodCheckShortcutTools   = "CheckShortcutTools"
	MethodRegisterDEShortcut   = "RegisterDEShortcut"
	MethodIsFirstRun           = "IsFirstRun"
	MethodMarkFirstRunComplete = "MarkFirstRunComplete"
	MethodGetUserSettings      = "GetUserSettings"
	MethodSetUserSettings      = "SetUserSettings"
	MethodSetMouseState        = "SetMouseState"
	MethodSetPanelPosition     = "SetPanelPosition"
	MethodToggle               = "Toggle"
	MethodHideWindow           = "HideWindow"
	MethodGetRecentEmojis      = "GetRecentEmojis"
	MethodStatus               = "Status"
	MethodEvents               = "Events"
)

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

// unary adapts a typed Service method to a grpc.MethodDesc.
func unary[Req, Resp any](name string, call func(*Service, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, ic grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			h := func(ctx context.Context, req any) (any, error) {
				out, err := call(srv.(*Service), ctx, req.(*Req))
				if err != nil {
					return nil, toStatus(err)
				}
				return out, nil
			}
			if ic == nil {
				return h(ctx, in)
			}
			return ic(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}, h)
		},
	}
}

// serviceDesc describes the service to grpc without generated code. The
// message types are plain Go structs carried by the JSON codec.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodGetHistory, (*Service).GetHistory),
		unary(MethodClearHistory, (*Service).ClearHistory),
		unary(MethodDeleteItem, (*Service).DeleteItem),
		unary(MethodTogglePin, (*Service).TogglePin),
		unary(MethodPasteItem, (*Service).PasteItem),
		unary(MethodPasteText, (*Service).PasteText),
		unary(MethodCheckPermissions, (*Service).CheckPermissions),
		unary(MethodFixPermissionsNow, (*Service).FixPermissionsNow),
		unary(MethodCheckShortcutTools, (*Service).CheckShortcutTools),
		unary(MethodRegisterDEShortcut, (*Service).RegisterDEShortcut),
		unary(MethodIsFirstRun, (*Service).IsFirstRun),
		unary(MethodMarkFirstRunComplete, (*Service).MarkFirstRunComplete),
		unary(MethodGetUserSettings, (*Service).GetUserSettings),
		unary(MethodSetUserSettings, (*Service).SetUserSettings),
		unary(MethodSetMouseState, (*Service).SetMouseState),
		unary(MethodSetPanelPosition, (*Service).SetPanelPosition),
		unary(MethodToggle, (*Service).Toggle),
		unary(MethodHideWindow, (*Service).HideWindow),
		unary(MethodGetRecentEmojis, (*Service).GetRecentEmojis),
		unary(MethodStatus, (*Service).Status),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    MethodEvents,
			ServerStreams: true,
			Handler: func(srv any, stream grpc.ServerStream) error {
				in := new(message.Subscribe)
				if err := stream.RecvMsg(in); err != nil {
					return err
				}
				return srv.(*Service).Events(stream.Context(), in, func(e *events.Event) error {
					return stream.SendMsg(e)
				})
			},
		},
	},
}

// Register attaches svc to s.
func Register(s *grpc.Server, svc *Service) {
	s.RegisterService(&serviceDesc, svc)
}

// logUnary logs every call at DEBUG and failures at WARN.
func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, h grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := h(ctx, req)
	if err != nil {
		slog.Warn("rpc failed", "method", info.FullMethod, "err", err, "took", time.Since(start))
	} else {
		slog.Debug("rpc", "method", info.FullMethod, "took", time.Since(start))
	}
	return resp, err
}
