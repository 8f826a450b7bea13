// Package relate maps rows to model instances registered at runtime and manages the
// has-many associations between them: lazy result collections, foreign key
// reconciliation on save, dependent policies on delete and denormalized count caches.
package relate

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/relate-orm/relate/cache"
	"github.com/relate-orm/relate/dialect"
	"github.com/relate-orm/relate/logger"
	"github.com/relate-orm/relate/schema"
)

// ConnPool db conns pool interface, a *sql.DB or a *sql.Tx
type ConnPool interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TxBeginner starts transactions
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// TxCommitter a started transaction
type TxCommitter interface {
	Commit() error
	Rollback() error
}

// DB relate DB definition, a DB is safe to share, every derived session is a copy
type DB struct {
	*Config
	Dialector dialect.Dialector
	ConnPool  ConnPool

	sqlDB    *sql.DB
	registry *Registry
	ctx      context.Context
	model    *Model
	tx       *txState
}

type txState struct {
	touched map[string]struct{}
}

// Open initialize db session based on dialector
func Open(dialector dialect.Dialector, opts ...ConfigOption) (*DB, error) {
	config := &Config{}
	for _, opt := range opts {
		opt(config)
	}

	if config.NamingStrategy == nil {
		config.NamingStrategy = schema.NamingStrategy{}
	}

	if config.FieldTypes == nil {
		config.FieldTypes = schema.NewTypes()
	}

	if config.Logger == nil {
		config.Logger = logger.Default
	}

	if config.NowFunc == nil {
		config.NowFunc = func() time.Time { return time.Now().Local() }
	}

	sqlDB, err := dialector.Open()
	if err != nil {
		return nil, fmt.Errorf("open %v: %w", dialector.Name(), err)
	}

	return &DB{
		Config:    config,
		Dialector: dialector,
		ConnPool:  sqlDB,
		sqlDB:     sqlDB,
		registry:  newRegistry(config.NamingStrategy, config.FieldTypes),
		ctx:       context.Background(),
	}, nil
}

// OpenEnv opens the database named by RELATE_DRIVER and RELATE_DSN, an in memory sqlite by default
func OpenEnv(opts ...ConfigOption) (*DB, error) {
	driver, dsn := os.Getenv("RELATE_DRIVER"), os.Getenv("RELATE_DSN")
	if driver == "" {
		driver = "sqlite"
	}
	if dsn == "" && driver == "sqlite" {
		dsn = ":memory:"
	}

	dialector, err := dialect.New(driver, dsn)
	if err != nil {
		return nil, err
	}
	return Open(dialector, opts...)
}

// DB returns the underlying *sql.DB
func (db *DB) DB() *sql.DB {
	return db.sqlDB
}

// Close closes the underlying connection pool
func (db *DB) Close() error {
	return db.sqlDB.Close()
}

func (db *DB) session() *DB {
	tx := *db
	return &tx
}

// WithContext change current instance db's context to ctx
func (db *DB) WithContext(ctx context.Context) *DB {
	tx := db.session()
	tx.ctx = ctx
	return tx
}

// Context returns the context statements of db run with
func (db *DB) Context() context.Context {
	return db.ctx
}

// Debug start debug mode
func (db *DB) Debug() *DB {
	tx := db.session()
	config := *db.Config
	config.Logger = db.Logger.LogMode(logger.Info)
	tx.Config = &config
	return tx
}

// Model targets owner for association operations, see Association
func (db *DB) Model(owner *Model) *DB {
	tx := db.session()
	tx.model = owner
	return tx
}

// InTransaction reports whether db runs on a transaction
func (db *DB) InTransaction() bool {
	return db.tx != nil
}

// Transaction start a transaction as a block, return error will rollback, otherwise to commit.
// Nested calls run in a savepoint of the outer transaction.
func (db *DB) Transaction(fc func(tx *DB) error, opts ...*sql.TxOptions) (err error) {
	panicked := true

	if db.tx != nil {
		name := "sp" + strings.ReplaceAll(uuid.NewString(), "-", "")
		if _, err = db.Exec("SAVEPOINT " + name); err != nil {
			return err
		}

		defer func() {
			if panicked || err != nil {
				db.Exec("ROLLBACK TO SAVEPOINT " + name)
			}
		}()

		if err = fc(db.session()); err == nil {
			_, err = db.Exec("RELEASE SAVEPOINT " + name)
		}

		panicked = false
		return
	}

	tx, err := db.Begin(opts...)
	if err != nil {
		return err
	}

	defer func() {
		// Make sure to rollback when panic, Block error or Commit error
		if panicked || err != nil {
			tx.Rollback()
		}
	}()

	if err = fc(tx); err == nil {
		err = tx.Commit()
	}

	panicked = false
	return
}

// Begin begins a transaction
func (db *DB) Begin(opts ...*sql.TxOptions) (*DB, error) {
	beginner, ok := db.ConnPool.(TxBeginner)
	if !ok {
		return nil, ErrInvalidTransaction
	}

	var opt *sql.TxOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	conn, err := beginner.BeginTx(db.ctx, opt)
	if err != nil {
		return nil, err
	}

	tx := db.session()
	tx.ConnPool = conn
	tx.tx = &txState{touched: map[string]struct{}{}}
	return tx, nil
}

// Commit commit a transaction
func (db *DB) Commit() error {
	committer, ok := db.ConnPool.(TxCommitter)
	if !ok || db.tx == nil {
		return ErrInvalidTransaction
	}

	if err := committer.Commit(); err != nil {
		return err
	}

	// readers outside the transaction may have cached rows between the write and the commit
	for table := range db.tx.touched {
		db.invalidate(table)
	}
	return nil
}

// Rollback rollback a transaction
func (db *DB) Rollback() error {
	if committer, ok := db.ConnPool.(TxCommitter); ok && db.tx != nil {
		return committer.Rollback()
	}
	return ErrInvalidTransaction
}

// Raw returns a statement of raw sql, run it with Exec, Query or Scan
func (db *DB) Raw(sql string, vars ...interface{}) *Statement {
	stmt := db.newStatement(nil)
	stmt.SQL.WriteString(sql)
	stmt.Vars = vars
	return stmt
}

// Exec execute raw sql
func (db *DB) Exec(sql string, vars ...interface{}) (int64, error) {
	return db.Raw(sql, vars...).Exec()
}

// invalidate bumps the cache version of table
func (db *DB) invalidate(table string) {
	if db.Cache == nil {
		return
	}

	if db.tx != nil {
		db.tx.touched[table] = struct{}{}
	}

	if err := cache.Bump(db.ctx, db.Cache, table); err != nil {
		db.Logger.Warn(db.ctx, "failed to invalidate cached results of %v: %v", table, err)
	}
}
