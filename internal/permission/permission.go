// Package permission diagnoses and repairs access to the virtual input
// device used to synthesize the paste keystroke.
package permission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"go.klb.dev/clipd/internal/apperr"
	"go.klb.dev/clipd/internal/sysexec"
)

const (
	// DefaultPath is the uinput device node.
	DefaultPath = "/dev/uinput"
	// DefaultFixTimeout covers an interactive polkit password prompt.
	DefaultFixTimeout = 2 * time.Minute

	inputGroup = "input"
	udevRule   = `KERNEL=="uinput", GROUP="input", MODE="0660", OPTIONS+="static_node=uinput"`
)

// Status is the result of a permission check. It is recomputed on every call.
type Status struct {
	UinputAccessible bool   `json:"uinput_accessible"`
	UinputPath       string `json:"uinput_path"`
	UserInInputGroup bool   `json:"user_in_input_group"`
	Suggestion       string `json:"suggestion"`
	UinputExists     bool   `json:"uinput_exists"`
	ACLGranted       bool   `json:"acl_granted"`
}

// FixResult describes what Fix did.
type FixResult struct {
	AlreadyAccessible bool   `json:"already_accessible"`
	Command           string `json:"command,omitempty"`
	Status            Status `json:"status"`
}

// Manager checks and fixes device access for the current user.
type Manager struct {
	Path       string
	FixTimeout time.Duration

	run         sysexec.Runner
	access      func(path string, mode uint32) error
	exists      func(path string) bool
	currentUser func() (*user.User, error)
	inGroup     func(name string) bool
}

// New returns a Manager for DefaultPath.
func New(r sysexec.Runner) *Manager {
	return &Manager{
		Path:        DefaultPath,
		FixTimeout:  DefaultFixTimeout,
		run:         r,
		access:      unix.Access,
		exists:      fileExists,
		currentUser: user.Current,
		inGroup:     processInGroup,
	}
}

// Check inspects the device node.
func (m *Manager) Check(ctx context.Context) Status {
	st := Status{
		UinputPath:       m.Path,
		UinputExists:     m.exists(m.Path),
		UserInInputGroup: m.inGroup(inputGroup),
	}
	if st.UinputExists {
		st.UinputAccessible = m.access(m.Path, unix.R_OK|unix.W_OK) == nil
		st.ACLGranted = m.aclGranted(ctx)
	}
	st.Suggestion = m.suggestion(st)
	return st
}

// Require returns apperr.ErrPermission, carrying the suggestion as
// remediation, unless the device is writable.
func (m *Manager) Require(ctx context.Context) error {
	st := m.Check(ctx)
	if st.UinputAccessible {
		return nil
	}
	return apperr.Remediation(fmt.Errorf("%s is not writable: %w", m.Path, apperr.ErrPermission), st.Suggestion)
}

// Fix grants the current user read/write on the device through an ACL
// entry, elevated with pkexec. It is a no-op when access already works.
func (m *Manager) Fix(ctx context.Context) (FixResult, error) {
	if st := m.Check(ctx); st.UinputAccessible {
		return FixResult{AlreadyAccessible: true, Status: st}, nil
	}
	if !m.exists(m.Path) {
		err := fmt.Errorf("%s does not exist: %w", m.Path, apperr.ErrPermission)
		return FixResult{}, apperr.Remediation(err, "sudo modprobe uinput")
	}
	u, err := m.currentUser()
	if err != nil {
		return FixResult{}, fmt.Errorf("current user: %w", err)
	}
	manual := m.manualCommand(u.Username)

	if _, err := m.run.LookPath("pkexec"); err != nil {
		err = fmt.Errorf("pkexec not installed: %w", apperr.ErrPermission)
		return FixResult{}, apperr.Remediation(err, manual)
	}

	// pkexec reports a missing target with the same status as a refused
	// authorization, so the program is resolved up front.
	setfacl, err := m.run.LookPath("setfacl")
	if err != nil {
		err = fmt.Errorf("setfacl not installed: %w", apperr.ErrPermission)
		return FixResult{}, apperr.Remediation(err, "install the acl package, then run: "+manual)
	}

	ctx, cancel := context.WithTimeout(ctx, m.FixTimeout)
	defer cancel()
	args := []string{setfacl, "-m", "u:" + u.Username + ":rw", m.Path}
	cmd := "pkexec " + strings.Join(args, " ")
	slog.Info("requesting elevated permission fix", "cmd", cmd)

	if _, err := m.run.Run(ctx, nil, "pkexec", args...); err != nil {
		switch code := sysexec.ExitCode(err); {
		case (code == 126 || code == 127) && !cannotExec(err):
			err = fmt.Errorf("authorization dismissed: %w: %w", apperr.ErrPermission, apperr.ErrElevationDeclined)
		case errors.Is(err, context.DeadlineExceeded):
			err = fmt.Errorf("permission fix timed out after %s: %w", m.FixTimeout, apperr.ErrPermission)
		default:
			err = fmt.Errorf("%s: %w: %w", cmd, apperr.ErrPermission, err)
		}
		return FixResult{Command: cmd}, apperr.Remediation(err, manual)
	}

	st := m.Check(ctx)
	if !st.UinputAccessible {
		err := fmt.Errorf("%s still not writable after fix: %w", m.Path, apperr.ErrPermission)
		return FixResult{Command: cmd, Status: st}, apperr.Remediation(err, st.Suggestion)
	}
	slog.Info("uinput access granted", "path", m.Path, "user", u.Username)
	return FixResult{Command: cmd, Status: st}, nil
}

// cannotExec reports pkexec failing to start its target after a successful
// authorization ("Cannot run program setfacl: ...").
func cannotExec(err error) bool {
	var ee *sysexec.ExitError
	return errors.As(err, &ee) && strings.HasPrefix(strings.TrimSpace(ee.Stderr), "Cannot run program")
}

func (m *Manager) manualCommand(username string) string {
	return fmt.Sprintf("sudo setfacl -m u:%s:rw %s", username, m.Path)
}

func (m *Manager) aclGranted(ctx context.Context) bool {
	if _, err := m.run.LookPath("getfacl"); err != nil {
		return false
	}
	u, err := m.currentUser()
	if err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	res, err := m.run.Run(ctx, nil, "getfacl", "-p", m.Path)
	if err != nil {
		return false
	}
	prefix := "user:" + u.Username + ":"
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		if perms, ok := strings.CutPrefix(strings.TrimSpace(line), prefix); ok {
			return strings.HasPrefix(perms, "rw")
		}
	}
	return false
}

func (m *Manager) suggestion(st Status) string {
	if st.UinputAccessible {
		return ""
	}
	if !st.UinputExists {
		return "The uinput kernel module is not loaded. Run: sudo modprobe uinput"
	}
	name := "$USER"
	if u, err := m.currentUser(); err == nil {
		name = u.Username
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Grant access for this session: %s\n", m.manualCommand(name))
	fmt.Fprintf(&b, "For a permanent fix, add a udev rule (/etc/udev/rules.d/99-uinput.rules):\n  %s\n", udevRule)
	if !st.UserInInputGroup {
		fmt.Fprintf(&b, "and join the input group: sudo usermod -aG %s %s (log out and back in)", inputGroup, name)
	} else {
		b.WriteString("then run: sudo udevadm control --reload-rules && sudo udevadm trigger")
	}
	return b.String()
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// processInGroup reports whether the process carries the named group as a
// supplementary or primary group.
func processInGroup(name string) bool {
	g, err := user.LookupGroup(name)
	if err != nil {
		return false
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return false
	}
	if os.Getgid() == gid {
		return true
	}
	groups, err := os.Getgroups()
	if err != nil {
		return false
	}
	for _, id := range groups {
		if id == gid {
			return true
		}
	}
	return false
}
