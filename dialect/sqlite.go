package dialect

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/relate-orm/relate/errtranslator"
	"github.com/relate-orm/relate/logger"
)

type sqlite struct {
	DSN string
}

// SQLite returns a dialector backed by the pure go modernc.org/sqlite driver
func SQLite(dsn string) Dialector {
	return &sqlite{DSN: dsn}
}

func (s *sqlite) Name() string {
	return "sqlite"
}

func (s *sqlite) Open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.DSN)
	if err != nil {
		return nil, err
	}

	// every connection to an in memory database gets its own database
	if s.DSN == "" || strings.Contains(s.DSN, ":memory:") || strings.Contains(s.DSN, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

func (s *sqlite) BindVar(int) string {
	return "?"
}

func (s *sqlite) Quote(key string) string {
	return fmt.Sprintf("`%s`", key)
}

func (s *sqlite) SupportLastInsertId() bool {
	return true
}

func (s *sqlite) DataTypeOf(fieldType string) string {
	switch fieldType {
	case "boolean":
		return "numeric"
	case "integer":
		return "integer"
	case "float":
		return "real"
	case "timestamp":
		return "datetime"
	default:
		return "text"
	}
}

func (s *sqlite) PrimaryKeyTag() string {
	return "integer PRIMARY KEY AUTOINCREMENT"
}

func (s *sqlite) Explain(sql string, vars ...interface{}) string {
	return logger.ExplainSQL(sql, nil, `'`, vars...)
}

func (s *sqlite) Translate(err error) error {
	return errtranslator.SqliteErrTranslator{}.Translate(err)
}
