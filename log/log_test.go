package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestLogger_Make_DefaultConfiguration(t *testing.T) {
	logger := Make(&bytes.Buffer{})

	if logger.Level() != DefaultLevel {
		t.Errorf("expected default level %v, got %v", DefaultLevel, logger.Level())
	}

	if logger.Format() != DefaultFormat {
		t.Errorf("expected default format %v, got %v", DefaultFormat, logger.Format())
	}

	if logger.caller {
		t.Error("expected caller disabled by default")
	}
}

func TestLogger_WithLevel_FiltersMessages(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithLevel(LevelError), WithPretty(false))
	logger.Info("info message")

	if buf.Len() > 0 {
		t.Errorf("info message logged at Error level: %s", buf.String())
	}

	logger.Error("error message")

	if !strings.Contains(buf.String(), "error message") {
		t.Error("error message not logged at Error level")
	}
}

func TestLogger_Trace_RendersLevelName(t *testing.T) {
	for _, pretty := range []bool{false, true} {
		var buf bytes.Buffer

		logger := Make(&buf, WithLevel(LevelTrace), WithPretty(pretty))
		logger.Trace("deep")

		if !strings.Contains(buf.String(), "TRACE") {
			t.Errorf("pretty=%v: expected TRACE level, got %s", pretty, buf.String())
		}
	}
}

func TestLogger_JSON_Output(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithFormat(FormatJSON), WithPretty(false))
	logger.Info("test message", slog.String("key", "value"))

	var result map[string]any
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON output: %v", err)
	}

	if result["msg"] != "test message" || result["key"] != "value" {
		t.Errorf("unexpected record: %v", result)
	}
}

func TestLogger_Caller_IncludesSource(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithCaller(true), WithPretty(false)).Info("here")

	if !strings.Contains(buf.String(), "log_test.go") {
		t.Errorf("expected source to point at the caller, got %s", buf.String())
	}

	buf.Reset()
	Make(&buf, WithCaller(false), WithPretty(false)).Info("here")

	if strings.Contains(buf.String(), "source") {
		t.Error("source included when disabled")
	}
}

func TestLogger_With_PersistsAttributes(t *testing.T) {
	for _, pretty := range []bool{false, true} {
		var buf bytes.Buffer

		logger := Make(&buf, WithPretty(pretty)).With(slog.String("component", "parser"))
		logger.Info("started")

		if !strings.Contains(buf.String(), "component") ||
			!strings.Contains(buf.String(), "parser") {
			t.Errorf("pretty=%v: attribute missing from %s", pretty, buf.String())
		}
	}
}

func TestLogger_WithGroup_QualifiesKeys(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithPretty(true)).WithGroup("eval")
	logger.Info("step", slog.Int("count", 3))

	if !strings.Contains(buf.String(), "eval.count") {
		t.Errorf("expected grouped key, got %s", buf.String())
	}
}

func TestLogger_Pretty_FlattensLogValuer(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithPretty(true), WithTimeLayout("none"))
	logger.Error("failed", slog.Any("error", errors.New("boom")))

	out := buf.String()
	if !strings.Contains(out, "boom") || strings.Contains(out, "time=") {
		t.Errorf("unexpected pretty output: %q", out)
	}
}

func TestLogger_Wrap_DoesNotModifyReceiver(t *testing.T) {
	base := Make(&bytes.Buffer{}, WithLevel(LevelInfo))
	wrapped := base.Wrap(WithLevel(LevelDebug))

	if base.Level() != LevelInfo || wrapped.Level() != LevelDebug {
		t.Errorf("expected base=info wrapped=debug, got %v/%v",
			base.Level(), wrapped.Level())
	}
}

func TestLogger_ZeroValue_Safety(t *testing.T) {
	var logger Logger

	logger.Trace("ignored")
	logger.Info("ignored", slog.Int("n", 1))
	logger.With(slog.String("a", "b")).Error("ignored")

	if logger.LevelEnabled(t.Context(), LevelError) {
		t.Error("zero logger must report every level disabled")
	}

	if logger.Level() != DefaultLevel {
		t.Errorf("expected default level, got %v", logger.Level())
	}
}

func TestLogger_ConcurrentCalls_ThreadSafe(t *testing.T) {
	var (
		buf bytes.Buffer
		mu  sync.Mutex
		wg  sync.WaitGroup
	)

	logger := Make(writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()

		return buf.Write(p)
	}), WithPretty(true))

	for i := range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			logger.With(slog.Int("worker", i)).Info("tick")
		}()
	}

	wg.Wait()

	if got := strings.Count(buf.String(), "tick"); got != 16 {
		t.Errorf("expected 16 records, got %d", got)
	}
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

func BenchmarkLogger_Info(b *testing.B) {
	logger := Make(&bytes.Buffer{}, WithPretty(false))

	for b.Loop() {
		logger.Info("benchmark", slog.Int("n", 1))
	}
}

func BenchmarkLogger_Trace_Disabled(b *testing.B) {
	logger := Make(&bytes.Buffer{})

	for b.Loop() {
		logger.Trace("skipped", slog.Int("n", 1))
	}
}
