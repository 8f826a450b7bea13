package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Backends the names Open accepts
var Backends = []string{"default", "zap", "zerolog", "logrus", "slog"}

// Open returns a logger of backend at level, an empty backend is the default writer logger
func Open(backend string, level LogLevel) (Interface, error) {
	config := Config{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      level,
		Colorful:      isatty.IsTerminal(os.Stdout.Fd()),
	}

	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "default":
		return Default.LogMode(level), nil
	case "zap":
		return NewZapLoggerWithConfig(config)
	case "zerolog":
		return NewZerologConsoleLogger(config), nil
	case "logrus":
		base := logrus.New()
		base.SetLevel(LogrusLevel(level))
		return NewLogrusLogger(base, config), nil
	case "slog":
		return NewSlogLogger(slog.Default(), config), nil
	}
	return nil, fmt.Errorf("unsupported logger %q (supported: %s)", backend, strings.Join(Backends, ", "))
}
