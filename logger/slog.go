package logger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/relate-orm/relate/utils"
)

type slogLogger struct {
	Logger *slog.Logger
	Config
}

// NewSlogLogger creates a new logger using log/slog
func NewSlogLogger(logger *slog.Logger, config Config) Interface {
	return &slogLogger{Logger: logger, Config: config}
}

func (l *slogLogger) LogMode(level LogLevel) Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

func (l *slogLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Info {
		l.log(ctx, slog.LevelInfo, fmt.Sprintf(msg, data...))
	}
}

func (l *slogLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Warn {
		l.log(ctx, slog.LevelWarn, fmt.Sprintf(msg, data...))
	}
}

func (l *slogLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Error {
		l.log(ctx, slog.LevelError, fmt.Sprintf(msg, data...))
	}
}

func (l *slogLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	elapsed := time.Since(begin)
	kind := traceKindOf(l.Config, elapsed, err)
	if kind == traceNone {
		return
	}

	sql, rows := fc()
	fields := []slog.Attr{
		slog.Float64("duration_ms", milliseconds(elapsed)),
		slog.String("sql", sql),
	}
	if rows != -1 {
		fields = append(fields, slog.Int64("rows", rows))
	}

	trace := slog.Attr{Key: "trace", Value: slog.GroupValue(fields...)}
	switch kind {
	case traceError:
		l.log(ctx, slog.LevelError, "SQL executed", trace, slog.String("error", err.Error()))
	case traceSlow:
		l.log(ctx, slog.LevelWarn, "SLOW SQL executed", trace)
	default:
		l.log(ctx, slog.LevelInfo, "SQL executed", trace)
	}
}

func (l *slogLogger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}

	if !l.Logger.Enabled(ctx, level) {
		return
	}

	r := slog.NewRecord(time.Now(), level, msg, 0)
	r.AddAttrs(slog.String("file", utils.FileWithLineNum()))
	r.Add(args...)
	_ = l.Logger.Handler().Handle(ctx, r)
}
