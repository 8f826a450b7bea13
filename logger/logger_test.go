package logger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func sqlFunc(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, Silent, ParseLevel("silent"))
	assert.Equal(t, Error, ParseLevel("ERROR"))
	assert.Equal(t, Info, ParseLevel(" info "))
	assert.Equal(t, Warn, ParseLevel(""))
	assert.Equal(t, Warn, ParseLevel("verbose"))
}

func TestTraceKindOf(t *testing.T) {
	slow := Config{LogLevel: Warn, SlowThreshold: time.Millisecond}
	cases := []struct {
		name    string
		config  Config
		elapsed time.Duration
		err     error
		kind    traceKind
	}{
		{"silent", Config{LogLevel: Silent}, 0, errors.New("boom"), traceNone},
		{"error", Config{LogLevel: Error}, 0, errors.New("boom"), traceError},
		{"not found", Config{LogLevel: Error}, 0, ErrRecordNotFound, traceError},
		{"ignored not found", Config{LogLevel: Info, IgnoreRecordNotFoundError: true}, 0, fmt.Errorf("pets: %w", ErrRecordNotFound), traceInfo},
		{"slow", slow, time.Second, nil, traceSlow},
		{"fast warn", slow, 0, nil, traceNone},
		{"info", Config{LogLevel: Info}, 0, nil, traceInfo},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.kind, traceKindOf(c.config, c.elapsed, c.err))
		})
	}
}

func TestDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(log.New(&buf, "", 0), Config{LogLevel: Info})

	l.Info(context.Background(), "attached %v", []int{4})
	l.Trace(context.Background(), time.Now(), sqlFunc("UPDATE `pets` SET `user_id`=1", 1), nil)
	output := buf.String()
	assert.Contains(t, output, "[info] attached [4]")
	assert.Contains(t, output, "[rows:1] UPDATE `pets` SET `user_id`=1")

	buf.Reset()
	l.LogMode(Silent).Error(context.Background(), "hidden")
	l.LogMode(Error).Trace(context.Background(), time.Now(), sqlFunc("SELECT 1", -1), errors.New("no such table"))
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "no such table")
	assert.Contains(t, buf.String(), "[rows:-]")
}

func TestZapLogger(t *testing.T) {
	var buf bytes.Buffer
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(&buf), zapcore.DebugLevel)
	l := NewZapLogger(zap.New(core), Config{LogLevel: Info, SlowThreshold: time.Nanosecond})

	l.Trace(context.Background(), time.Now().Add(-time.Second), sqlFunc("SELECT * FROM `users`", 2), nil)
	require.NoError(t, zap.New(core).Sync())
	assert.Contains(t, buf.String(), "SLOW SQL executed")
	assert.Contains(t, buf.String(), `"rows":2`)

	buf.Reset()
	l.Warn(context.Background(), "count cache of %s failed", "users")
	assert.Contains(t, buf.String(), "count cache of users failed")
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLogger(zerolog.New(&buf), Config{LogLevel: Info})

	l.Trace(context.Background(), time.Now(), sqlFunc("DELETE FROM `pets`", 3), errors.New("locked"))
	assert.Contains(t, buf.String(), `"error":"locked"`)
	assert.Contains(t, buf.String(), `"sql":"DELETE FROM `+"`pets`"+`"`)

	buf.Reset()
	l.LogMode(Error).Info(context.Background(), "skipped")
	assert.Empty(t, buf.String())
}

func TestLogrusLogger(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.JSONFormatter{})

	l := NewLogrusLogger(base, Config{LogLevel: Info})
	l.Trace(context.Background(), time.Now(), sqlFunc("SELECT COUNT(*) FROM `pets`", -1), nil)
	assert.Contains(t, buf.String(), "SQL executed")
	assert.NotContains(t, buf.String(), `"rows"`)
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)), Config{LogLevel: Info})

	l.Info(context.Background(), "detached %d rows", 2)
	l.Trace(context.Background(), time.Now(), sqlFunc("SELECT 1", 1), nil)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "detached 2 rows")
	assert.Contains(t, lines[1], "trace.sql=")
}

func TestOpen(t *testing.T) {
	for _, backend := range Backends {
		l, err := Open(backend, Error)
		require.NoError(t, err, backend)
		require.NotNil(t, l, backend)
	}

	l, err := Open("ZAP", Info)
	require.NoError(t, err)
	assert.IsType(t, &ZapLogger{}, l)
	assert.Equal(t, Info, l.(*ZapLogger).LogLevel)

	l, err = Open("logrus", Warn)
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, l.(*LogrusLogger).Logger.GetLevel())

	l, err = Open("", Silent)
	require.NoError(t, err)
	assert.IsType(t, &logger{}, l)

	_, err = Open("log4j", Info)
	assert.ErrorContains(t, err, "supported: default, zap, zerolog, logrus, slog")
}
