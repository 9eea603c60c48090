// Package logging builds the process logger: a console handler, an optional
// log file and the systemd journal, fanned out with slog-multi.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
	"golang.org/x/term"
)

type Options struct {
	Level string // debug, info, warn, error
	File  string // appended to as JSON lines when set

	// Console defaults to os.Stderr. Output is text on a terminal, JSON otherwise.
	Console io.Writer
	// Journal forces the systemd journal handler on or off; nil detects a
	// systemd service from the process cgroup.
	Journal *bool
}

// ParseLevel maps a level name to a slog.Level. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(s)))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// New returns the logger and a function closing any opened log file.
func New(opts Options) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	hopts := &slog.HandlerOptions{Level: level}
	closer := func() error { return nil }

	useJournal := isSystemdService()
	if opts.Journal != nil {
		useJournal = *opts.Journal
	}

	var handlers []slog.Handler
	var console slog.Handler
	if !useJournal {
		w := opts.Console
		if w == nil {
			w = os.Stderr
		}
		if isTerminal(w) {
			console = slog.NewTextHandler(w, hopts)
		} else {
			console = slog.NewJSONHandler(w, hopts)
		}
		handlers = append(handlers, console)
	}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, hopts))
		closer = f.Close
	}

	if useJournal {
		jh, err := slogjournal.NewHandler(&slogjournal.Options{
			Level: level,
			ReplaceGroup: func(key string) string {
				return journalKey(key)
			},
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = journalKey(a.Key)
				return a
			},
		})
		if err != nil {
			// Without the journal, fall back to stderr so nothing is lost.
			console = slog.NewJSONHandler(os.Stderr, hopts)
			handlers = append(handlers, console)
			r := slog.NewRecord(time.Now(), slog.LevelWarn, "systemd journal unavailable", 0)
			r.Add("error", err)
			_ = console.Handle(context.Background(), r)
		} else {
			handlers = append(handlers, jh)
		}
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// journalKey maps an attribute key to a valid journal field name.
func journalKey(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, strings.ToUpper(s))
}

func isSystemdService() bool {
	content, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return false
	}
	parts := strings.SplitN(strings.TrimSpace(string(content)), ":", 3)
	if len(parts) < 3 {
		return false
	}
	return strings.HasSuffix(path.Dir(parts[2]), ".service")
}
