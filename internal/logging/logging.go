package logging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

const timestampLayout = "2006-01-02 15:04:05,000"

// Logger is the process wide event log: JSON records on the console and
// "timestamp - LEVEL - message" lines appended to a flat file.
type Logger struct {
	*slog.Logger

	path string
	file *os.File
}

// New opens (or creates) the log file at path for appending.
func New(path string, level slog.Level, console io.Writer) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	out := logrus.New()
	out.SetOutput(f)
	out.SetFormatter(&LineFormatter{})
	out.SetLevel(toLogrusLevel(level))

	handler := fanout{
		slog.NewJSONHandler(console, &slog.HandlerOptions{
			AddSource: true,
			Level:     level,
		}),
		&fileHandler{out: out},
	}

	return &Logger{
		Logger: slog.New(handler),
		path:   path,
		file:   f,
	}, nil
}

// Path returns the file the logger appends to
func (l *Logger) Path() string {
	return l.path
}

func (l *Logger) Close() error {
	return l.file.Close()
}

// LineFormatter renders logrus entries as single text lines.
type LineFormatter struct{}

func (f *LineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(e.Time.Format(timestampLayout))
	b.WriteString(" - ")
	b.WriteString(strings.ToUpper(e.Level.String()))
	b.WriteString(" - ")
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
	}
	b.WriteByte('\n')

	return b.Bytes(), nil
}

// fileHandler forwards slog records to a logrus logger.
type fileHandler struct {
	out    *logrus.Logger
	attrs  []slog.Attr
	groups []string
}

func (h *fileHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.out.IsLevelEnabled(toLogrusLevel(level))
}

func (h *fileHandler) Handle(_ context.Context, r slog.Record) error {
	fields := logrus.Fields{}
	for _, a := range h.attrs {
		addField(fields, "", a)
	}

	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	r.Attrs(func(a slog.Attr) bool {
		addField(fields, prefix, a)
		return true
	})

	h.out.WithTime(r.Time).WithFields(fields).Log(toLogrusLevel(r.Level), r.Message)
	return nil
}

func (h *fileHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}

	next := &fileHandler{out: h.out, groups: h.groups}
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, slog.Attr{Key: prefix + a.Key, Value: a.Value})
	}
	return next
}

func (h *fileHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &fileHandler{
		out:    h.out,
		attrs:  h.attrs,
		groups: append(append([]string{}, h.groups...), name),
	}
}

func addField(fields logrus.Fields, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, ga := range v.Group() {
			addField(fields, prefix+a.Key+".", ga)
		}
		return
	}
	if a.Key == "" {
		return
	}
	fields[prefix+a.Key] = v.Any()
}

func toLogrusLevel(level slog.Level) logrus.Level {
	switch {
	case level >= slog.LevelError:
		return logrus.ErrorLevel
	case level >= slog.LevelWarn:
		return logrus.WarnLevel
	case level >= slog.LevelInfo:
		return logrus.InfoLevel
	default:
		return logrus.DebugLevel
	}
}

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithAttrs(attrs)
	}
	return next
}

func (f fanout) WithGroup(name string) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithGroup(name)
	}
	return next
}
