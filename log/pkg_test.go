package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestPackage_LogFunctions_UseDefaultLogger(t *testing.T) {
	original := Default()
	t.Cleanup(func() {
		defaultMu.Lock()
		defaultLog = original
		defaultMu.Unlock()
	})

	var buf bytes.Buffer

	defaultMu.Lock()
	defaultLog = Make(&buf, WithLevel(LevelTrace), WithFormat(FormatJSON), WithPretty(false))
	defaultMu.Unlock()

	tests := []struct {
		name  string
		fn    func(context.Context, string, ...slog.Attr)
		level string
	}{
		{"Trace", TraceContext, "TRACE"},
		{"Debug", DebugContext, "DEBUG"},
		{"Info", InfoContext, "INFO"},
		{"Warn", WarnContext, "WARN"},
		{"Error", ErrorContext, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn(t.Context(), tt.name+" message", slog.String("key", "value"))

			output := buf.String()
			if !strings.Contains(output, tt.name+" message") ||
				!strings.Contains(output, tt.level) ||
				!strings.Contains(output, `"key":"value"`) {
				t.Errorf("unexpected output: %s", output)
			}
		})
	}
}

func TestPackage_Config_WrapsDefault(t *testing.T) {
	original := Default()
	t.Cleanup(func() {
		defaultMu.Lock()
		defaultLog = original
		defaultMu.Unlock()
	})

	var buf bytes.Buffer

	Config(WithOutput(&buf), WithLevel(LevelWarn), WithPretty(false))
	InfoContext(t.Context(), "hidden")
	WarnContext(t.Context(), "shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestPackage_Error_WithoutContext(t *testing.T) {
	original := Default()
	t.Cleanup(func() {
		defaultMu.Lock()
		defaultLog = original
		defaultMu.Unlock()
	})

	var buf bytes.Buffer

	Config(WithOutput(&buf), WithLevel(LevelError), WithPretty(false))
	Error("fatal", slog.Int("code", 2))

	if !strings.Contains(buf.String(), "fatal") || !strings.Contains(buf.String(), "code=2") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}
