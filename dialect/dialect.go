package dialect

import (
	"database/sql"
	"fmt"
)

// Dialector is the driver specific part of a connection: how to open it, how placeholders
// and identifiers are written, and which column types back the schema field types
type Dialector interface {
	Name() string
	Open() (*sql.DB, error)
	BindVar(position int) string
	Quote(key string) string
	SupportLastInsertId() bool
	DataTypeOf(fieldType string) string
	PrimaryKeyTag() string
	Explain(sql string, vars ...interface{}) string
	// Translate turns driver errors into errtranslator errors
	Translate(err error) error
}

// New returns the dialector registered for driver
func New(driver, dsn string) (Dialector, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return SQLite(dsn), nil
	case "postgres", "pgx":
		return Postgres(dsn), nil
	}
	return nil, fmt.Errorf("unsupported driver %q", driver)
}
