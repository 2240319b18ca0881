package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"vfs-go/internal/vfs"
)

// LogFilename is the log file created inside log_dir.
const LogFilename = "vfs.log"

// lineHandler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<opID>\t<caller>\t<message>\t<key=value ...>
//
// caller is "user_<id>/<role>". Values containing whitespace are quoted so
// display names never break the tab-separated layout.
type lineHandler struct {
	w      io.Writer
	opID   string
	caller string
	attrs  []slog.Attr
}

func callerLabel(c vfs.Caller) string {
	return fmt.Sprintf("user_%d/%s", c.UserID, c.Role)
}

func (h *lineHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")
	caller := h.caller
	if caller == "" {
		caller = "-"
	}

	_, err := fmt.Fprintf(h.w, "%s\t%s\t%s\t%s\t%s", ts, r.Level, h.opID, caller, r.Message)
	if err != nil {
		return err
	}

	for _, a := range h.attrs {
		writeAttr(h.w, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(h.w, a)
		return true
	})

	_, err = fmt.Fprintln(h.w)
	return err
}

func writeAttr(w io.Writer, a slog.Attr) {
	v := a.Value.Resolve().String()
	if strings.ContainsFunc(v, unicode.IsSpace) {
		v = strconv.Quote(v)
	}
	fmt.Fprintf(w, "\t%s=%s", a.Key, v)
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &lineHandler{
		w:      h.w,
		opID:   h.opID,
		caller: h.caller,
		attrs:  append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *lineHandler) WithGroup(string) slog.Handler { return h }

// newLogger creates a structured logger that writes to logDir/vfs.log and
// to extra, usually stderr, tagging every line with opID and caller. It
// returns the slog.Logger and the open log file (for cleanup).
func newLogger(logDir string, opID string, caller vfs.Caller, extra io.Writer) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, LogFilename)
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	var w io.Writer = f
	if extra != nil {
		w = io.MultiWriter(f, extra)
	}
	return slog.New(&lineHandler{w: w, opID: opID, caller: callerLabel(caller)}), f, nil
}

// slogAdapter wraps *slog.Logger to satisfy the vfs.Logger interface.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
