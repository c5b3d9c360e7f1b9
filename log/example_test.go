package log_test

import (
	"log/slog"
	"os"

	"github.com/frenebo/layer-lang/log"
)

func Example_levels() {
	logger := log.Make(os.Stdout,
		log.WithLevel(log.LevelWarn),
		log.WithPretty(false),
		log.WithTimeLayout("none"))

	logger.Info("parse complete")
	logger.Warn("step limit near", slog.Int("steps", 9000))
	// Output:
	// level=WARN msg="step limit near" steps=9000
}

func Example_withAttributes() {
	logger := log.Make(os.Stdout,
		log.WithPretty(false),
		log.WithTimeLayout("none")).
		With(slog.String("engine", "stack"))

	logger.Info("parse complete", slog.Int("consumed", 12))
	// Output:
	// level=INFO msg="parse complete" engine=stack consumed=12
}
