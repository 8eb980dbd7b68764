package permission

import (
	"context"
	"errors"
	"os/user"
	"strings"
	"testing"

	"golang.org/x/sys/unix"

	"go.klb.dev/clipd/internal/apperr"
	"go.klb.dev/clipd/internal/sysexec"
)

type env struct {
	exists   bool
	writable bool
	inGroup  bool
}

func newTestManager(e *env, f *sysexec.Fake) *Manager {
	m := New(f)
	m.Path = "/dev/uinput"
	m.exists = func(string) bool { return e.exists }
	m.access = func(string, uint32) error {
		if e.writable {
			return nil
		}
		return unix.EACCES
	}
	m.currentUser = func() (*user.User, error) { return &user.User{Username: "alice"}, nil }
	m.inGroup = func(string) bool { return e.inGroup }
	return m
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name       string
		env        env
		accessible bool
		suggests   string
	}{
		{"missing node", env{}, false, "modprobe uinput"},
		{"no access, not in group", env{exists: true}, false, "usermod -aG input alice"},
		{"no access, in group", env{exists: true, inGroup: true}, false, "udevadm"},
		{"accessible", env{exists: true, writable: true}, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(&tt.env, &sysexec.Fake{})
			st := m.Check(context.Background())
			if st.UinputAccessible != tt.accessible {
				t.Errorf("accessible = %v", st.UinputAccessible)
			}
			if tt.suggests == "" && st.Suggestion != "" {
				t.Errorf("unexpected suggestion %q", st.Suggestion)
			}
			if !strings.Contains(st.Suggestion, tt.suggests) {
				t.Errorf("suggestion %q lacks %q", st.Suggestion, tt.suggests)
			}
			if st.UinputPath != "/dev/uinput" {
				t.Errorf("path = %q", st.UinputPath)
			}
		})
	}
}

func TestCheckReadsACL(t *testing.T) {
	e := &env{exists: true, writable: true}
	f := &sysexec.Fake{
		Paths: map[string]string{"getfacl": "/usr/bin/getfacl"},
		Handler: func(c sysexec.Call) (sysexec.Result, error) {
			return sysexec.Result{Stdout: []byte("# file: /dev/uinput\nuser::rw-\nuser:alice:rw-\ngroup::---\n")}, nil
		},
	}
	if st := newTestManager(e, f).Check(context.Background()); !st.ACLGranted {
		t.Error("ACL entry not detected")
	}
}

func TestRequire(t *testing.T) {
	m := newTestManager(&env{exists: true}, &sysexec.Fake{})
	err := m.Require(context.Background())
	if !errors.Is(err, apperr.ErrPermission) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(apperr.HintOf(err), "setfacl") {
		t.Errorf("hint = %q", apperr.HintOf(err))
	}
	ok := newTestManager(&env{exists: true, writable: true}, &sysexec.Fake{})
	if err := ok.Require(context.Background()); err != nil {
		t.Errorf("Require = %v", err)
	}
}

func TestFixAlreadyAccessible(t *testing.T) {
	f := &sysexec.Fake{}
	res, err := newTestManager(&env{exists: true, writable: true}, f).Fix(context.Background())
	if err != nil || !res.AlreadyAccessible {
		t.Fatalf("Fix = %+v, %v", res, err)
	}
	if len(f.Calls()) != 0 {
		t.Errorf("ran %v", f.Calls())
	}
}

func TestFixRunsPkexec(t *testing.T) {
	e := &env{exists: true}
	f := &sysexec.Fake{
		Paths: map[string]string{"pkexec": "/usr/bin/pkexec", "setfacl": "/usr/bin/setfacl"},
		Handler: func(c sysexec.Call) (sysexec.Result, error) {
			e.writable = true
			return sysexec.Result{}, nil
		},
	}
	res, err := newTestManager(e, f).Fix(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Command != "pkexec /usr/bin/setfacl -m u:alice:rw /dev/uinput" {
		t.Errorf("command = %q", res.Command)
	}
	if calls := f.Calls(); len(calls) != 1 || calls[0].Line() != res.Command {
		t.Errorf("calls = %+v", calls)
	}
	if !res.Status.UinputAccessible {
		t.Error("status not refreshed")
	}
}

func TestFixFailures(t *testing.T) {
	tools := map[string]string{"pkexec": "/usr/bin/pkexec", "setfacl": "/usr/bin/setfacl"}
	tests := []struct {
		name     string
		paths    map[string]string
		code     int
		stderr   string
		declined bool
		hint     string
	}{
		{"no pkexec", nil, 0, "", false, "setfacl"},
		{"no setfacl", map[string]string{"pkexec": "/usr/bin/pkexec"}, 0, "", false, "acl package"},
		{"dismissed", tools, 126, "Error executing command as another user: Request dismissed", true, "setfacl"},
		{"not authorized", tools, 127, "Error executing command as another user: Not authorized", true, "setfacl"},
		{"target not runnable", tools, 127, "Cannot run program /usr/bin/setfacl: No such file or directory", false, "setfacl"},
		{"setfacl failed", tools, 1, "setfacl: Operation not supported", false, "setfacl"},
		{"no effect", tools, 0, "", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &sysexec.Fake{
				Paths: tt.paths,
				Handler: func(c sysexec.Call) (sysexec.Result, error) {
					if tt.code != 0 {
						return sysexec.Fail(c.Name, tt.code, tt.stderr)
					}
					return sysexec.Result{}, nil
				},
			}
			_, err := newTestManager(&env{exists: true}, f).Fix(context.Background())
			if !errors.Is(err, apperr.ErrPermission) {
				t.Fatalf("err = %v, want ErrPermission", err)
			}
			if got := errors.Is(err, apperr.ErrElevationDeclined); got != tt.declined {
				t.Errorf("declined = %v, want %v (err %v)", got, tt.declined, err)
			}
			hint := apperr.HintOf(err)
			if hint == "" || !strings.Contains(hint, tt.hint) {
				t.Errorf("remediation %q lacks %q", hint, tt.hint)
			}
		})
	}
}

func TestFixMissingNode(t *testing.T) {
	_, err := newTestManager(&env{}, &sysexec.Fake{}).Fix(context.Background())
	if !errors.Is(err, apperr.ErrPermission) || !strings.Contains(apperr.HintOf(err), "modprobe") {
		t.Errorf("err = %v hint %q", err, apperr.HintOf(err))
	}
}
