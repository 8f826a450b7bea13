package dialect

import (
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/relate-orm/relate/errtranslator"
	"github.com/relate-orm/relate/logger"
)

type postgres struct {
	DSN string
}

// Postgres returns a dialector backed by the pgx database/sql driver
func Postgres(dsn string) Dialector {
	return &postgres{DSN: dsn}
}

func (p *postgres) Name() string {
	return "postgres"
}

func (p *postgres) Open() (*sql.DB, error) {
	return sql.Open("pgx", p.DSN)
}

func (p *postgres) BindVar(i int) string {
	return fmt.Sprintf("$%v", i)
}

func (p *postgres) Quote(key string) string {
	return fmt.Sprintf("\"%s\"", key)
}

func (p *postgres) SupportLastInsertId() bool {
	return false
}

func (p *postgres) DataTypeOf(fieldType string) string {
	switch fieldType {
	case "boolean":
		return "boolean"
	case "integer":
		return "bigint"
	case "float":
		return "numeric"
	case "timestamp":
		return "timestamp with time zone"
	default:
		return "text"
	}
}

func (p *postgres) PrimaryKeyTag() string {
	return "bigserial PRIMARY KEY"
}

var numericPlaceholder = regexp.MustCompile(`\$(\d+)`)

func (p *postgres) Explain(sql string, vars ...interface{}) string {
	return logger.ExplainSQL(sql, numericPlaceholder, `'`, vars...)
}

func (p *postgres) Translate(err error) error {
	return errtranslator.PostgresErrTranslator{}.Translate(err)
}
