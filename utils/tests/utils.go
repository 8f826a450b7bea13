package tests

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/relate-orm/relate"
	"github.com/relate-orm/relate/dialect"
	"github.com/relate-orm/relate/logger"
	"github.com/relate-orm/relate/migrator"
	"github.com/relate-orm/relate/result"
)

// Recorder a logger keeping every traced statement
type Recorder struct {
	logger.Interface
	mu         sync.Mutex
	statements []string
}

// NewRecorder returns a recorder forwarding to l
func NewRecorder(l logger.Interface) *Recorder {
	return &Recorder{Interface: l}
}

func (r *Recorder) LogMode(level logger.LogLevel) logger.Interface {
	return r
}

func (r *Recorder) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	sql, _ := fc()
	r.mu.Lock()
	r.statements = append(r.statements, sql)
	r.mu.Unlock()
	r.Interface.Trace(ctx, begin, fc, err)
}

// Reset forgets the recorded statements
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.statements = nil
	r.mu.Unlock()
}

// Statements returns the recorded statements starting with prefix
func (r *Recorder) Statements(prefix string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var statements []string
	for _, sql := range r.statements {
		if strings.HasPrefix(sql, prefix) {
			statements = append(statements, sql)
		}
	}
	return statements
}

// OpenDB opens a new in memory sqlite database with the tables of models, Models() by default
func OpenDB(t testing.TB, models []relate.ModelConfig, opts ...relate.ConfigOption) (*relate.DB, *Recorder) {
	t.Helper()

	if models == nil {
		models = Models()
	}

	recorder := NewRecorder(logger.Discard)
	db, err := relate.Open(dialect.SQLite(":memory:"), append([]relate.ConfigOption{relate.WithLogger(recorder)}, opts...)...)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Register(models...); err != nil {
		t.Fatalf("failed to register models: %v", err)
	}

	if err := migrator.New(db).CreateTable(); err != nil {
		t.Fatalf("failed to create tables: %v", err)
	}

	recorder.Reset()
	return db, recorder
}

// Create creates a model or fails the test
func Create(t testing.TB, db *relate.DB, model string, attrs map[string]interface{}) *relate.Model {
	t.Helper()

	m, err := db.Create(model, attrs)
	if err != nil {
		t.Fatalf("failed to create %v: %v", model, err)
	}
	return m
}

// Reload finds a model again by id or fails the test
func Reload(t testing.TB, db *relate.DB, m *relate.Model) *relate.Model {
	t.Helper()

	reloaded, err := db.Find(m.Meta().Name, m.ID())
	if err != nil || reloaded == nil {
		t.Fatalf("failed to reload %v: %v", m, err)
	}
	return reloaded
}

// AssertRows fails the test unless got holds the expected rows, in order
func AssertRows(t testing.TB, expected, got []result.Row) {
	t.Helper()

	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("rows mismatch (-expected +got):\n%s", diff)
	}
}
