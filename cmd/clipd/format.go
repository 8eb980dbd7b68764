package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"go.klb.dev/clipd/internal/history"
	"go.klb.dev/clipd/internal/message"
)

const previewWidth = 60

func printHistory(out io.Writer, h *message.History) {
	if len(h.Items) == 0 {
		fmt.Fprintln(out, "History is empty.")
		return
	}
	tw := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "\tID\tAGE\tCONTENT\n")
	_, _ = fmt.Fprintf(tw, "\t--\t---\t-------\n")
	for _, it := range h.Items {
		marker := ""
		if it.Pinned {
			marker = "*"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", marker, it.ID, fmtAge(it.Timestamp), describe(it))
	}
	_ = tw.Flush()
	fmt.Fprintf(out, "\n%d entries, capacity %d unpinned (* pinned)\n", len(h.Items), h.Capacity)
}

// describe is the one-line content column: text is flattened and cut,
// images show their size.
func describe(it message.Item) string {
	if it.Kind == history.KindImage {
		return fmt.Sprintf("[image %dx%d]", it.Width, it.Height)
	}
	s := strings.Join(strings.Fields(it.Text), " ")
	if r := []rune(s); len(r) > previewWidth {
		s = string(r[:previewWidth-1]) + "…"
	}
	return s
}

func printStatus(out io.Writer, st *message.Status, socket string) {
	w := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Version:\t%s\n", st.Version)
	fmt.Fprintf(w, "Socket:\t%s\n", socket)
	fmt.Fprintf(w, "Session:\t%s\n", st.Session)
	fmt.Fprintf(w, "Clipboard:\t%s\n", st.ClipboardBackend)
	fmt.Fprintf(w, "Shortcut backend:\t%s\n", st.HotkeyBackend)
	fmt.Fprintf(w, "History:\t%d entries (%d pinned), capacity %d\n", st.Items, st.Pinned, st.Capacity)
	fmt.Fprintf(w, "Captured:\t%d since start\n", st.Captured)
	fmt.Fprintf(w, "Subscribers:\t%d\n", st.Subscribers)
	fmt.Fprintf(w, "Panel:\t%s\n", yesNo(st.PanelVisible, "visible", "hidden"))
	if st.PanelVisible {
		fmt.Fprintf(w, "Pointer over panel:\t%s\n", yesNo(st.MouseInside, "yes", "no"))
	}
	fmt.Fprintf(w, "Paste injection:\t%s\n", yesNo(st.UinputAccessible, "ready", "uinput not accessible, run \"clipd permissions\""))
	if !st.StartedAt.IsZero() {
		fmt.Fprintf(w, "Started:\t%s (up %s)\n", st.StartedAt.Format(time.RFC3339), st.Uptime)
	}
	_ = w.Flush()
}

func printPermissions(out io.Writer, st message.Permissions) {
	w := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Device:\t%s\n", st.UinputPath)
	fmt.Fprintf(w, "Exists:\t%s\n", yesNo(st.UinputExists, "yes", "no"))
	fmt.Fprintf(w, "Accessible:\t%s\n", yesNo(st.UinputAccessible, "yes", "no"))
	fmt.Fprintf(w, "In input group:\t%s\n", yesNo(st.UserInInputGroup, "yes", "no"))
	fmt.Fprintf(w, "ACL granted:\t%s\n", yesNo(st.ACLGranted, "yes", "no"))
	_ = w.Flush()
	if !st.UinputAccessible && st.Suggestion != "" {
		fmt.Fprintf(out, "\n%s\n", st.Suggestion)
	}
}

func printShortcutTools(out io.Writer, t message.ShortcutTools) {
	w := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Desktop:\t%s\n", t.DesktopEnvironment)
	fmt.Fprintf(w, "Backend:\t%s\n", t.Backend)
	fmt.Fprintf(w, "gsettings:\t%s\n", yesNo(t.GsettingsAvailable, "yes", "no"))
	fmt.Fprintf(w, "dconf:\t%s\n", yesNo(t.DconfAvailable, "yes", "no"))
	fmt.Fprintf(w, "KDE tools:\t%s\n", yesNo(t.KDEToolsAvailable, "yes", "no"))
	fmt.Fprintf(w, "xfconf-query:\t%s\n", yesNo(t.XFCEToolsAvailable, "yes", "no"))
	fmt.Fprintf(w, "Automatic:\t%s\n", yesNo(t.CanRegisterAutomatically, "yes", "no"))
	_ = w.Flush()
	if !t.CanRegisterAutomatically && t.ManualInstructions != "" {
		fmt.Fprintf(out, "\n%s\n", t.ManualInstructions)
	}
}

func yesNo(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}

func fmtAge(t time.Time) string {
	age := time.Since(t).Round(time.Second)
	if age < time.Minute {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	}
	if age < 24*time.Hour {
		return t.Format("15:04:05")
	}
	return t.Format("2006-01-02")
}
