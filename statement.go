package relate

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/relate-orm/relate/clause"
	"github.com/relate-orm/relate/logger"
	"github.com/relate-orm/relate/result"
	"github.com/relate-orm/relate/schema"
)

// Statement a single SQL statement under construction
type Statement struct {
	DB      *DB
	Table   string
	Meta    *schema.Meta
	Clauses map[string]clause.Clause
	Context context.Context

	// SQL Builder
	SQL  strings.Builder
	Vars []interface{}
}

var _ clause.Builder = (*Statement)(nil)

func (db *DB) newStatement(meta *schema.Meta) *Statement {
	stmt := &Statement{
		DB:      db,
		Meta:    meta,
		Clauses: map[string]clause.Clause{},
		Context: db.ctx,
	}
	if meta != nil {
		stmt.Table = meta.Table
	}
	return stmt
}

// WriteString write string
func (stmt *Statement) WriteString(str string) (int, error) {
	return stmt.SQL.WriteString(str)
}

// WriteByte write byte
func (stmt *Statement) WriteByte(c byte) error {
	return stmt.SQL.WriteByte(c)
}

// WriteQuoted write quoted value
func (stmt *Statement) WriteQuoted(value interface{}) {
	stmt.QuoteTo(&stmt.SQL, value)
}

// QuoteTo write quoted value to writer
func (stmt *Statement) QuoteTo(writer clause.Writer, field interface{}) {
	switch v := field.(type) {
	case clause.Table:
		if v.Raw {
			writer.WriteString(v.Name)
		} else {
			writer.WriteString(stmt.quote(stmt.tableName(v.Name)))
		}

		if v.Alias != "" {
			writer.WriteString(" AS ")
			writer.WriteString(stmt.quote(v.Alias))
		}
	case clause.Column:
		if v.Table != "" {
			writer.WriteString(stmt.quote(stmt.tableName(v.Table)))
			writer.WriteByte('.')
		}

		name := v.Name
		if name == clause.PrimaryKey && stmt.Meta != nil {
			name = stmt.Meta.PrimaryKey
		}

		if v.Raw {
			writer.WriteString(name)
		} else {
			writer.WriteString(stmt.quote(name))
		}

		if v.Alias != "" {
			writer.WriteString(" AS ")
			writer.WriteString(stmt.quote(v.Alias))
		}
	case string:
		for idx, part := range strings.Split(v, ".") {
			if idx > 0 {
				writer.WriteByte('.')
			}
			writer.WriteString(stmt.quote(part))
		}
	default:
		writer.WriteString(stmt.quote(fmt.Sprint(v)))
	}
}

func (stmt *Statement) quote(name string) string {
	return stmt.DB.Dialector.Quote(name)
}

func (stmt *Statement) tableName(name string) string {
	if name == clause.CurrentTable {
		return stmt.Table
	}
	return name
}

// AddVar add var
func (stmt *Statement) AddVar(writer clause.Writer, vars ...interface{}) {
	for idx, v := range vars {
		if idx > 0 {
			writer.WriteByte(',')
		}

		switch v := v.(type) {
		case clause.Column, clause.Table:
			stmt.QuoteTo(writer, v)
		case clause.Expression:
			v.Build(stmt)
		case []interface{}:
			if len(v) > 0 {
				writer.WriteByte('(')
				stmt.AddVar(writer, v...)
				writer.WriteByte(')')
			} else {
				writer.WriteString("(NULL)")
			}
		default:
			stmt.Vars = append(stmt.Vars, v)
			writer.WriteString(stmt.DB.Dialector.BindVar(len(stmt.Vars)))
		}
	}
}

// AddClause add clause
func (stmt *Statement) AddClause(v clause.Interface) {
	c, ok := stmt.Clauses[v.Name()]
	if !ok {
		c.Name = v.Name()
	}
	v.MergeClause(&c)
	stmt.Clauses[v.Name()] = c
}

// Build build sql with clauses names
func (stmt *Statement) Build(clauses ...string) *Statement {
	var firstClauseWritten bool

	for _, name := range clauses {
		if c, ok := stmt.Clauses[name]; ok {
			if firstClauseWritten {
				stmt.WriteByte(' ')
			}

			firstClauseWritten = true
			c.Build(stmt)
		}
	}
	return stmt
}

// String the rendered sql with vars, for logging
func (stmt *Statement) String() string {
	return stmt.DB.Dialector.Explain(stmt.SQL.String(), stmt.Vars...)
}

func (stmt *Statement) trace(begin time.Time, rows int64, err error) {
	stmt.DB.Logger.Trace(stmt.Context, begin, func() (string, int64) {
		if filter, ok := stmt.DB.Logger.(logger.ParamsFilter); ok {
			sql, vars := filter.ParamsFilter(stmt.Context, stmt.SQL.String(), stmt.Vars...)
			return stmt.DB.Dialector.Explain(sql, vars...), rows
		}
		return stmt.String(), rows
	}, err)
}

func (stmt *Statement) execResult() (sql.Result, error) {
	begin := time.Now()
	rowsAffected := int64(-1)

	res, err := stmt.DB.ConnPool.ExecContext(stmt.Context, stmt.SQL.String(), stmt.Vars...)
	if err != nil {
		err = stmt.DB.Dialector.Translate(err)
	} else {
		rowsAffected, _ = res.RowsAffected()
		if stmt.Table != "" {
			stmt.DB.invalidate(stmt.Table)
		}
	}

	stmt.trace(begin, rowsAffected, err)
	return res, err
}

// Exec executes the statement, returning the affected rows
func (stmt *Statement) Exec() (int64, error) {
	res, err := stmt.execResult()
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Query runs the statement and reads every row
func (stmt *Statement) Query() (*result.Cached, error) {
	begin := time.Now()

	rows, err := stmt.DB.ConnPool.QueryContext(stmt.Context, stmt.SQL.String(), stmt.Vars...)
	if err != nil {
		stmt.trace(begin, -1, err)
		return nil, err
	}

	cursor, err := result.FromRows(rows)
	if err != nil {
		stmt.trace(begin, -1, err)
		return nil, err
	}

	stmt.trace(begin, int64(cursor.Count()), nil)
	return cursor, nil
}

// Scan runs the statement and scans its single row into dest
func (stmt *Statement) Scan(dest ...interface{}) error {
	begin := time.Now()

	err := stmt.DB.ConnPool.QueryRowContext(stmt.Context, stmt.SQL.String(), stmt.Vars...).Scan(dest...)
	if err != nil {
		err = stmt.DB.Dialector.Translate(err)
	} else if stmt.Table != "" && strings.HasPrefix(stmt.SQL.String(), "INSERT") {
		stmt.DB.invalidate(stmt.Table)
	}

	stmt.trace(begin, 1, err)
	return err
}
