package rpc

import (
	"context"
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.klb.dev/clipd/internal/apperr"
)

const (
	errorDomain    = "clipd"
	remediationKey = "remediation"
)

var reasonCodes = map[string]codes.Code{
	"ELEVATION_DECLINED":           codes.PermissionDenied,
	"PERMISSION":                   codes.PermissionDenied,
	"CLIPBOARD_ACCESS":             codes.Unavailable,
	"ITEM_NOT_FOUND":               codes.NotFound,
	"SHORTCUT_TOOL_UNAVAILABLE":    codes.FailedPrecondition,
	"SHORTCUT_REGISTRATION_FAILED": codes.Aborted,
	"SERIALIZATION":                codes.DataLoss,
}

// toStatus converts a component error into a gRPC status error carrying an
// ErrorInfo detail. Errors outside the taxonomy become Internal.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, errInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	}

	reason := apperr.Reason(err)
	code, ok := reasonCodes[reason]
	if !ok {
		return status.Error(codes.Internal, err.Error())
	}
	info := &errdetails.ErrorInfo{Reason: reason, Domain: errorDomain}
	if hint := apperr.HintOf(err); hint != "" {
		info.Metadata = map[string]string{remediationKey: hint}
	}
	st, derr := status.New(code, err.Error()).WithDetails(info)
	if derr != nil {
		return status.Error(code, err.Error())
	}
	return st.Err()
}

// remoteError is a daemon failure re-created on the client side. It matches
// the sentinel named by the status's ErrorInfo reason.
type remoteError struct {
	code     codes.Code
	msg      string
	sentinel error
}

func (e *remoteError) Error() string { return e.msg }

func (e *remoteError) Unwrap() error { return e.sentinel }

// Is makes a declined elevation also count as a permission failure, as it
// does inside the daemon.
func (e *remoteError) Is(target error) bool {
	return e.sentinel == apperr.ErrElevationDeclined && target == apperr.ErrPermission
}

// Code returns the gRPC status code.
func (e *remoteError) Code() codes.Code { return e.code }

// fromStatus turns a gRPC error back into an error that satisfies errors.Is
// against the apperr sentinels, with any remediation attached.
func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	}
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != errorDomain {
			continue
		}
		sentinel := apperr.FromReason(info.GetReason())
		if sentinel == nil {
			break
		}
		re := &remoteError{code: st.Code(), msg: st.Message(), sentinel: sentinel}
		if hint := info.GetMetadata()[remediationKey]; hint != "" {
			return apperr.Remediation(re, hint)
		}
		return re
	}
	return err
}
