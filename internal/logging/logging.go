// Package logging installs the process-wide slog logger. A terminal gets
// coloured tinter output; journald and pipes get one JSON object per line.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pwntr/tinter"
)

// Format selects the log output format.
type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat maps a flag value to a Format. Unknown values mean auto.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "tint", "human", "pretty":
		return FormatText
	case "json":
		return FormatJSON
	}
	return FormatAuto
}

// ParseLevel maps a flag value to a level, falling back to Info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Options are the resolved logging flags.
type Options struct {
	Format Format
	Level  slog.Level
}

// Resolve turns raw flag values into Options. An empty level means debug
// for an interactive run and info otherwise.
func Resolve(format, level string, interactive bool) Options {
	o := Options{Format: ParseFormat(format), Level: ParseLevel(level)}
	if strings.TrimSpace(level) == "" && interactive {
		o.Level = slog.LevelDebug
	}
	return o
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewHandler builds the handler for w. Debug level adds source locations.
func NewHandler(w io.Writer, o Options) slog.Handler {
	debug := o.Level <= slog.LevelDebug
	tty := IsTTY(w)
	if o.Format == FormatText || (o.Format == FormatAuto && tty) {
		return tinter.NewHandler(w, &tinter.Options{
			Level:      o.Level,
			AddSource:  debug,
			TimeFormat: "15:04:05.000",
			NoColor:    !tty,
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: o.Level, AddSource: debug})
}

// Setup installs the stderr logger as slog's default.
func Setup(o Options) {
	slog.SetDefault(slog.New(NewHandler(os.Stderr, o)).With("app", "clipd"))
}
