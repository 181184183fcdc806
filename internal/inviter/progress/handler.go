package progress

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// timeLayout matches the "asctime" layout operators are used to reading.
const timeLayout = "2006-01-02 15:04:05,000"

// LoggerName is the second column of every progress line.
const LoggerName = "inviter"

// terminalKey marks the record that ends a job. It is never rendered.
const terminalKey = "progress.terminal"

// escapedSentinel replaces Sentinel wherever it shows up in any other
// record, such as a recipient name or an uploaded file name.
const escapedSentinel = "finished-processing"

// TerminalAttr tags the one record allowed to carry Sentinel.
func TerminalAttr() slog.Attr {
	return slog.Bool(terminalKey, true)
}

// Handler returns a slog.Handler writing one line per record into s:
//
//	2024-05-04 10:11:12,345 - inviter - INFO - processing invitation for Bob Johnson: bob@example.com
//
// Record attributes follow the message as key=value pairs. Attributes bound
// with Logger.With are not written; they belong to the application log.
// Only a record tagged with TerminalAttr can produce a terminal line.
func (s *Sink) Handler(level slog.Leveler) slog.Handler {
	return NewHandler(s, level)
}

// NewHandler is Handler for any writer. Each record is a single Write call.
func NewHandler(w io.Writer, level slog.Leveler) slog.Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &lineHandler{w: w, level: level}
}

type lineHandler struct {
	w     io.Writer
	level slog.Leveler
}

func (h *lineHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	var body strings.Builder
	body.WriteString(oneLine(r.Message))

	terminal := false
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == terminalKey {
			terminal = a.Value.Resolve().Kind() == slog.KindBool && a.Value.Bool()
			return true
		}
		writeAttr(&body, "", a)
		return true
	})

	text := body.String()
	if !terminal {
		text = strings.ReplaceAll(text, Sentinel, escapedSentinel)
	}

	var b strings.Builder
	b.WriteString(r.Time.Format(timeLayout))
	b.WriteString(" - ")
	b.WriteString(LoggerName)
	b.WriteString(" - ")
	b.WriteString(levelName(r.Level))
	b.WriteString(" - ")
	b.WriteString(text)
	b.WriteByte('\n')

	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *lineHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *lineHandler) WithGroup(string) slog.Handler      { return h }

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(b, key, ga)
		}
		return
	}

	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(quoteIfNeeded(oneLine(a.Value.String())))
}

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARNING"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// oneLine keeps a record on a single progress line.
func oneLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"=") {
		return strconv.Quote(s)
	}
	return s
}

