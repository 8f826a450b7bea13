// Package migrator creates and drops the tables of registered model types.
package migrator

import (
	"fmt"
	"strings"

	"github.com/relate-orm/relate"
	"github.com/relate-orm/relate/schema"
)

// Migrator migrator struct
type Migrator struct {
	*Config
}

// Config schema config
type Config struct {
	CheckExistsBeforeDropping bool
	DB                        *relate.DB
}

// New returns a migrator of db
func New(db *relate.DB) Migrator {
	return Migrator{Config: &Config{DB: db, CheckExistsBeforeDropping: true}}
}

func (m Migrator) metas(models []string) ([]*schema.Meta, error) {
	if len(models) == 0 {
		models = m.DB.Models()
	}

	metas := make([]*schema.Meta, 0, len(models))
	for _, model := range models {
		meta, err := m.DB.Meta(model)
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

func (m Migrator) quote(name string) string {
	return m.DB.Dialector.Quote(name)
}

// CreateTableSQL renders the create statement of meta
func (m Migrator) CreateTableSQL(meta *schema.Meta) string {
	dialector := m.DB.Dialector
	columns := make([]string, 0, len(meta.Fields))

	for _, field := range meta.Fields {
		if field.PrimaryKey {
			columns = append(columns, m.quote(field.Name)+" "+dialector.PrimaryKeyTag())
			continue
		}

		column := m.quote(field.Name) + " " + dialector.DataTypeOf(string(field.DataType))
		if !field.AllowNull && field.Default != nil {
			column += " NOT NULL"
		}
		if field.Default != nil {
			column += " " + dialector.Explain("DEFAULT "+dialector.BindVar(1), field.Default)
		}
		columns = append(columns, column)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %v (%v)", m.quote(meta.Table), strings.Join(columns, ","))
}

// CreateTable creates the tables of models, every registered model without models
func (m Migrator) CreateTable(models ...string) error {
	metas, err := m.metas(models)
	if err != nil {
		return err
	}

	for _, meta := range metas {
		if _, err := m.DB.Exec(m.CreateTableSQL(meta)); err != nil {
			return fmt.Errorf("create table %v: %w", meta.Table, err)
		}
	}
	return nil
}

// HasTable reports whether the table of model exists
func (m Migrator) HasTable(model string) (bool, error) {
	meta, err := m.DB.Meta(model)
	if err != nil {
		return false, err
	}

	var query string
	switch m.DB.Dialector.Name() {
	case "sqlite":
		query = "SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	default:
		query = "SELECT count(*) FROM information_schema.tables WHERE table_schema = CURRENT_SCHEMA() AND table_name = " + m.DB.Dialector.BindVar(1)
	}

	var count int64
	if err := m.DB.Raw(query, meta.Table).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// DropTable drops the tables of models, every registered model without models
func (m Migrator) DropTable(models ...string) error {
	metas, err := m.metas(models)
	if err != nil {
		return err
	}

	for _, meta := range metas {
		sql := "DROP TABLE " + m.quote(meta.Table)
		if m.CheckExistsBeforeDropping {
			sql = "DROP TABLE IF EXISTS " + m.quote(meta.Table)
		}

		if _, err := m.DB.Exec(sql); err != nil {
			return fmt.Errorf("drop table %v: %w", meta.Table, err)
		}
	}
	return nil
}
