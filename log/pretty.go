package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ANSI color codes for pretty printing.
const (
	colorReset   = "\033[0m"
	colorGray    = "\033[90m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

// prettyState is shared by both pretty handlers: output, options, and the
// attributes and groups accumulated through WithAttrs/WithGroup.
type prettyState struct {
	opts       slog.HandlerOptions
	formatTime FormatTime
	mu         *sync.Mutex
	w          io.Writer
	attrs      []slog.Attr
	groups     []string
}

func (s prettyState) enabled(level slog.Level) bool {
	floor := slog.LevelInfo
	if s.opts.Level != nil {
		floor = s.opts.Level.Level()
	}

	return level >= floor
}

// qualify prefixes key with the active group path.
func (s prettyState) qualify(key string) string {
	if len(s.groups) == 0 {
		return key
	}

	return strings.Join(s.groups, ".") + "." + key
}

func (s prettyState) withAttrs(attrs []slog.Attr) prettyState {
	qualified := make([]slog.Attr, 0, len(s.attrs)+len(attrs))
	qualified = append(qualified, s.attrs...)

	for _, a := range attrs {
		qualified = append(qualified, slog.Attr{Key: s.qualify(a.Key), Value: a.Value})
	}

	s.attrs = qualified

	return s
}

func (s prettyState) withGroup(name string) prettyState {
	if name == "" {
		return s
	}

	s.groups = append(s.groups[:len(s.groups):len(s.groups)], name)

	return s
}

// source returns "file:line" for the record, or "" when disabled.
func (s prettyState) source(r slog.Record) string {
	if !s.opts.AddSource {
		return ""
	}

	if src := r.Source(); src != nil && src.File != "" {
		return fmt.Sprintf("%s:%d", src.File, src.Line)
	}

	return ""
}

func (s prettyState) timestamp(t time.Time) string {
	if t.IsZero() || s.formatTime == nil {
		return ""
	}

	return s.formatTime(t)
}

func (s prettyState) write(buf *bytes.Buffer) error {
	buf.WriteByte('\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.w.Write(buf.Bytes())

	return err
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case level >= slog.LevelInfo:
		return colorGreen
	case level >= slog.LevelDebug:
		return colorBlue
	default:
		return colorMagenta
	}
}

func levelName(level slog.Level) string {
	return strings.ToUpper(Level(level).String())
}

// flatten expands group-valued attributes into dotted keys.
func flatten(prefix string, a slog.Attr, yield func(string, slog.Value)) {
	a.Value = a.Value.Resolve()

	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if prefix != "" {
		key = prefix
	}

	if a.Value.Kind() != slog.KindGroup {
		if a.Key == "" && a.Value.Any() == nil {
			return
		}

		yield(key, a.Value)

		return
	}

	for _, ga := range a.Value.Group() {
		flatten(key, ga, yield)
	}
}

// prettyTextHandler implements a colorized key=value handler.
type prettyTextHandler struct{ prettyState }

func newPrettyTextHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	formatTime FormatTime,
) *prettyTextHandler {
	return &prettyTextHandler{prettyState{
		opts:       *opts,
		formatTime: formatTime,
		mu:         &sync.Mutex{},
		w:          w,
	}}
}

func (h *prettyTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.enabled(level)
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	if ts := h.timestamp(r.Time); ts != "" {
		h.writeField(buf, slog.TimeKey, colorBlue, ts)
	}

	h.writeField(buf, slog.LevelKey, levelColor(r.Level), levelName(r.Level))

	if src := h.source(r); src != "" {
		h.writeField(buf, slog.SourceKey, colorGray, src)
	}

	h.writeField(buf, slog.MessageKey, colorReset, r.Message)

	emit := func(key string, v slog.Value) { h.writeValue(buf, key, v) }

	for _, a := range h.attrs {
		flatten("", a, emit)
	}

	r.Attrs(func(a slog.Attr) bool {
		flatten(strings.Join(h.groups, "."), a, emit)

		return true
	})

	return h.write(buf)
}

func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyTextHandler{h.withAttrs(attrs)}
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	return &prettyTextHandler{h.withGroup(name)}
}

func (h *prettyTextHandler) writeField(
	buf *bytes.Buffer,
	key, color, value string,
) {
	if buf.Len() > 0 {
		buf.WriteByte(' ')
	}

	buf.WriteString(colorGray)
	buf.WriteString(key)
	buf.WriteString(colorReset)
	buf.WriteByte('=')
	buf.WriteString(color)
	buf.WriteString(value)
	buf.WriteString(colorReset)
}

func (h *prettyTextHandler) writeValue(
	buf *bytes.Buffer,
	key string,
	v slog.Value,
) {
	switch v.Kind() {
	case slog.KindString:
		h.writeField(buf, key, colorCyan, v.String())

	case slog.KindInt64:
		h.writeField(buf, key, colorYellow, strconv.FormatInt(v.Int64(), 10))

	case slog.KindUint64:
		h.writeField(buf, key, colorYellow, strconv.FormatUint(v.Uint64(), 10))

	case slog.KindFloat64:
		h.writeField(buf, key, colorYellow,
			strconv.FormatFloat(v.Float64(), 'g', -1, 64))

	case slog.KindBool:
		if v.Bool() {
			h.writeField(buf, key, colorGreen, "true")
		} else {
			h.writeField(buf, key, colorRed, "false")
		}

	case slog.KindDuration:
		h.writeField(buf, key, colorMagenta, v.Duration().String())

	case slog.KindTime:
		h.writeField(buf, key, colorBlue, v.Time().String())

	default:
		if err, ok := v.Any().(error); ok {
			h.writeField(buf, key, colorRed, err.Error())

			return
		}

		h.writeField(buf, key, colorCyan, v.String())
	}
}

// prettyJSONHandler implements an indented, colorized JSON-like handler.
type prettyJSONHandler struct{ prettyState }

func newPrettyJSONHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	formatTime FormatTime,
) *prettyJSONHandler {
	return &prettyJSONHandler{prettyState{
		opts:       *opts,
		formatTime: formatTime,
		mu:         &sync.Mutex{},
		w:          w,
	}}
}

func (h *prettyJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.enabled(level)
}

func (h *prettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)
	first := true

	buf.WriteString("{\n")

	if ts := h.timestamp(r.Time); ts != "" {
		h.writeField(buf, &first, slog.TimeKey, slog.StringValue(ts))
	}

	h.writeField(buf, &first, slog.LevelKey,
		slog.AnyValue(r.Level))

	if src := h.source(r); src != "" {
		h.writeField(buf, &first, slog.SourceKey, slog.StringValue(src))
	}

	h.writeField(buf, &first, slog.MessageKey, slog.StringValue(r.Message))

	emit := func(key string, v slog.Value) { h.writeField(buf, &first, key, v) }

	for _, a := range h.attrs {
		flatten("", a, emit)
	}

	r.Attrs(func(a slog.Attr) bool {
		flatten(strings.Join(h.groups, "."), a, emit)

		return true
	})

	buf.WriteString("\n}")

	return h.write(buf)
}

func (h *prettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyJSONHandler{h.withAttrs(attrs)}
}

func (h *prettyJSONHandler) WithGroup(name string) slog.Handler {
	return &prettyJSONHandler{h.withGroup(name)}
}

func (h *prettyJSONHandler) writeField(
	buf *bytes.Buffer,
	first *bool,
	key string,
	v slog.Value,
) {
	if !*first {
		buf.WriteString(",\n")
	}

	*first = false

	buf.WriteString("  ")
	buf.WriteString(colorGray)
	buf.WriteString(strconv.Quote(key))
	buf.WriteString(colorReset)
	buf.WriteString(": ")

	switch v.Kind() {
	case slog.KindString:
		buf.WriteString(colorCyan)
		buf.WriteString(strconv.Quote(v.String()))

	case slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		buf.WriteString(colorYellow)
		buf.WriteString(v.String())

	case slog.KindBool:
		if v.Bool() {
			buf.WriteString(colorGreen)
		} else {
			buf.WriteString(colorRed)
		}

		buf.WriteString(strconv.FormatBool(v.Bool()))

	case slog.KindDuration:
		buf.WriteString(colorMagenta)
		buf.WriteString(strconv.Quote(v.Duration().String()))

	default:
		switch val := v.Any().(type) {
		case slog.Level:
			buf.WriteString(levelColor(val))
			buf.WriteString(strconv.Quote(levelName(val)))

		case error:
			buf.WriteString(colorRed)
			buf.WriteString(strconv.Quote(val.Error()))

		case nil:
			buf.WriteString(colorGray)
			buf.WriteString("null")

		default:
			buf.WriteString(colorCyan)
			buf.WriteString(strconv.Quote(fmt.Sprint(val)))
		}
	}

	buf.WriteString(colorReset)
}
