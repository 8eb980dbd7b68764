// Package apperr defines the error taxonomy shared by every clipd component
// and the command boundary.
//
// Components wrap one of the sentinels with context (fmt.Errorf "...: %w") so
// callers can branch with errors.Is. Failures that need the user to act
// outside the application are additionally wrapped in a Remediation.
package apperr

import "errors"

var (
	// ErrPermission means the virtual input device node is not accessible.
	ErrPermission = errors.New("virtual input device not accessible")

	// ErrClipboardAccess means the system clipboard could not be read or written.
	ErrClipboardAccess = errors.New("clipboard access failed")

	// ErrItemNotFound means a history id no longer exists.
	ErrItemNotFound = errors.New("item not found")

	// ErrShortcutToolUnavailable means no shortcut registration backend exists
	// for the running desktop environment.
	ErrShortcutToolUnavailable = errors.New("no shortcut registration tool available")

	// ErrShortcutRegistrationFailed means a backend exists but rejected the
	// registration.
	ErrShortcutRegistrationFailed = errors.New("shortcut registration failed")

	// ErrSerialization means persisted state could not be decoded.
	ErrSerialization = errors.New("malformed persisted state")

	// ErrElevationDeclined means the user dismissed the privilege prompt.
	ErrElevationDeclined = errors.New("privilege elevation declined")
)

// Reason returns the stable, upper-case name of the taxonomy entry err
// belongs to, or "" when it belongs to none. It is used on the wire.
func Reason(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.reason
		}
	}
	return ""
}

// FromReason is the inverse of Reason.
func FromReason(reason string) error {
	for _, k := range kinds {
		if k.reason == reason {
			return k.err
		}
	}
	return nil
}

// ElevationDeclined is listed before Permission because a declined prompt
// also wraps ErrPermission.
var kinds = []struct {
	reason string
	err    error
}{
	{"ELEVATION_DECLINED", ErrElevationDeclined},
	{"PERMISSION", ErrPermission},
	{"CLIPBOARD_ACCESS", ErrClipboardAccess},
	{"ITEM_NOT_FOUND", ErrItemNotFound},
	{"SHORTCUT_TOOL_UNAVAILABLE", ErrShortcutToolUnavailable},
	{"SHORTCUT_REGISTRATION_FAILED", ErrShortcutRegistrationFailed},
	{"SERIALIZATION", ErrSerialization},
}

// RemediationError carries text telling the user how to fix the failure by
// hand.
type RemediationError struct {
	Err  error
	Hint string
}

func (e *RemediationError) Error() string { return e.Err.Error() }
func (e *RemediationError) Unwrap() error { return e.Err }

// Remediation wraps err with a user-facing hint. A nil err stays nil.
func Remediation(err error, hint string) error {
	if err == nil {
		return nil
	}
	return &RemediationError{Err: err, Hint: hint}
}

// HintOf returns the remediation text attached anywhere in err's chain.
func HintOf(err error) string {
	var re *RemediationError
	if errors.As(err, &re) {
		return re.Hint
	}
	return ""
}
