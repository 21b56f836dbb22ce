package logging

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// CompactHandler writes one line per record for console output:
//
//	[LEVEL] HH:MM:SS component: message | key=value key=value
//
// Multi-line string values, such as build output, follow the line indented.
type CompactHandler struct {
	opts      slog.HandlerOptions
	mu        *sync.Mutex
	out       io.Writer
	component string
	attrs     []slog.Attr
	group     string
}

// NewCompactHandler creates a new compact console handler
func NewCompactHandler(w io.Writer, opts *slog.HandlerOptions) *CompactHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &CompactHandler{opts: *opts, mu: &sync.Mutex{}, out: w}
}

func (h *CompactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

var levelTags = map[slog.Level]string{
	LevelTrace:      "[TRACE] ",
	slog.LevelDebug: "[DEBUG] ",
	slog.LevelInfo:  "[INFO]  ",
	slog.LevelWarn:  "[WARN]  ",
	slog.LevelError: "[ERROR] ",
}

func (h *CompactHandler) Handle(ctx context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)

	if tag, ok := levelTags[r.Level]; ok {
		buf = append(buf, tag...)
	} else {
		buf = append(buf, '[')
		buf = append(buf, r.Level.String()...)
		buf = append(buf, "] "...)
	}
	buf = r.Time.AppendFormat(buf, "15:04:05")
	buf = append(buf, ' ')
	if h.component != "" {
		buf = append(buf, h.component...)
		buf = append(buf, ": "...)
	}
	buf = append(buf, r.Message...)

	var blocks []slog.Attr
	sep := " |"
	emit := func(a slog.Attr) bool {
		if a.Equal(slog.Attr{}) {
			return true
		}
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		if a.Value.Kind() == slog.KindString && strings.Contains(strings.TrimSpace(a.Value.String()), "\n") {
			blocks = append(blocks, a)
			return true
		}
		buf = append(buf, sep...)
		sep = ""
		buf = append(buf, ' ')
		buf = appendAttr(buf, a)
		return true
	}
	if id := GetRunID(ctx); id != "" && !h.hasRunID(r) {
		buf = append(buf, " | "...)
		sep = ""
		buf = appendAttr(buf, slog.String(runIDAttr, id))
	}
	for _, a := range h.attrs {
		emit(a)
	}
	r.Attrs(emit)
	buf = append(buf, '\n')

	for _, a := range blocks {
		buf = append(buf, "    "...)
		buf = append(buf, a.Key...)
		buf = append(buf, ":\n"...)
		for _, line := range strings.Split(strings.TrimRight(a.Value.String(), "\n"), "\n") {
			buf = append(buf, "      "...)
			buf = append(buf, line...)
			buf = append(buf, '\n')
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf)
	return err
}

// hasRunID reports whether the record or the handler already carries an
// explicit run id, which takes precedence over the context.
func (h *CompactHandler) hasRunID(r slog.Record) bool {
	if h.group != "" {
		return false
	}
	found := slices.ContainsFunc(h.attrs, func(a slog.Attr) bool { return a.Key == runIDAttr })
	if !found {
		r.Attrs(func(a slog.Attr) bool {
			found = a.Key == runIDAttr
			return !found
		})
	}
	return found
}

func appendAttr(buf []byte, a slog.Attr) []byte {
	v := a.Value.Resolve()

	switch a.Key {
	case runIDAttr:
		if s := v.String(); len(s) > 8 {
			return append(append(buf, "run="...), s[:8]...)
		}
	case "error":
		buf = append(buf, "error="...)
		return strconv.AppendQuote(buf, v.String())
	}

	buf = append(buf, a.Key...)
	buf = append(buf, '=')

	switch v.Kind() {
	case slog.KindString:
		if s := v.String(); needsQuoting(s) {
			buf = strconv.AppendQuote(buf, s)
		} else {
			buf = append(buf, s...)
		}
	case slog.KindInt64:
		buf = strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindUint64:
		buf = strconv.AppendUint(buf, v.Uint64(), 10)
	case slog.KindFloat64:
		buf = strconv.AppendFloat(buf, v.Float64(), 'g', -1, 64)
	case slog.KindBool:
		buf = strconv.AppendBool(buf, v.Bool())
	case slog.KindDuration:
		buf = append(buf, v.Duration().String()...)
	case slog.KindTime:
		buf = v.Time().AppendFormat(buf, time.RFC3339)
	default:
		buf = append(buf, v.String()...)
	}
	return buf
}

// needsQuoting reports whether s must be quoted to stay one token. Build
// targets ("//ios/app:app") are printed bare.
func needsQuoting(s string) bool {
	return s == "" || strings.ContainsAny(s, " \t\n\"=")
}

func (h *CompactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		if a.Key == "component" && h.group == "" {
			clone.component = a.Value.String()
			continue
		}
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

func (h *CompactHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.group = name
	return &clone
}
