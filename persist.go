package relate

import (
	"github.com/relate-orm/relate/clause"
	"github.com/relate-orm/relate/schema"
)

// Save inserts a new model or updates the changed fields of a loaded one, and persists the
// collections assigned to its associations. The whole save runs in a transaction, or in a
// savepoint of the current one, unless SkipDefaultTransaction is set. When it rolls back,
// m and the models assigned to it get back the state they had before Save.
func (db *DB) Save(m *Model) error {
	if db.SkipDefaultTransaction {
		return db.save(m)
	}

	states := m.snapshot()
	err := db.Transaction(func(tx *DB) error {
		return tx.save(m)
	})
	if err != nil {
		restore(states)
	}
	return err
}

// Delete applies the dependent policy of every association, then deletes the row of m
func (db *DB) Delete(m *Model) error {
	if err := m.LoadedInsist(); err != nil {
		return err
	}

	if db.SkipDefaultTransaction {
		return db.delete(m)
	}

	states := m.snapshot()
	err := db.Transaction(func(tx *DB) error {
		return tx.delete(m)
	})
	if err != nil {
		restore(states)
	}
	return err
}

func (db *DB) save(m *Model) error {
	associations := m.Type().Associations()

	for _, association := range associations {
		if err := association.BeforeSave(db, m); err != nil {
			return err
		}
	}

	if m.Loaded() {
		if err := db.updateRow(m); err != nil {
			return err
		}
	} else if err := db.insertRow(m); err != nil {
		return err
	}

	for _, association := range associations {
		if err := association.AfterSave(db, m); err != nil {
			return err
		}
	}

	m.commit()
	return nil
}

func (db *DB) delete(m *Model) error {
	for _, association := range m.Type().Associations() {
		if err := association.Delete(db, m); err != nil {
			return err
		}
	}

	if _, err := db.query(m.Type()).WhereKey(m.ID()).Delete(); err != nil {
		return err
	}

	m.loaded = false
	m.related = nil
	return nil
}

// stampTime sets the timestamp field name of m to NowFunc, it reports false when m has none
func (db *DB) stampTime(m *Model, name string) bool {
	field := m.Meta().LookUpField(name)
	if field == nil || field.DataType != schema.Timestamp {
		return false
	}
	m.values[name] = db.NowFunc()
	return true
}

func (db *DB) insertRow(m *Model) error {
	for _, name := range []string{"created_at", "updated_at"} {
		if m.values[name] == nil {
			db.stampTime(m, name)
		}
	}

	var (
		meta    = m.Meta()
		stmt    = db.newStatement(meta)
		columns []clause.Column
		values  []interface{}
	)

	for _, field := range meta.Fields {
		value := m.values[field.Name]
		if field.PrimaryKey && value == nil {
			continue
		}
		columns = append(columns, clause.Column{Name: field.Name})
		values = append(values, value)
	}

	stmt.AddClause(clause.Insert{})
	stmt.AddClause(clause.Values{Columns: columns, Values: [][]interface{}{values}})

	if m.ID() != nil {
		stmt.Build("INSERT", "VALUES")
		if _, err := stmt.Exec(); err != nil {
			return err
		}
	} else if db.Dialector.SupportLastInsertId() {
		stmt.Build("INSERT", "VALUES")
		res, err := stmt.execResult()
		if err != nil {
			return err
		}

		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		m.values[meta.PrimaryKey] = id
	} else {
		stmt.AddClause(clause.Returning{Columns: []clause.Column{{Name: meta.PrimaryKey}}})
		stmt.Build("INSERT", "VALUES", "RETURNING")

		var id int64
		if err := stmt.Scan(&id); err != nil {
			return err
		}
		m.values[meta.PrimaryKey] = id
	}

	m.loaded = true
	return nil
}

func (db *DB) updateRow(m *Model) error {
	columns := m.ChangedFields()
	if len(columns) == 0 {
		return nil
	}
	if !m.Changed("updated_at") && db.stampTime(m, "updated_at") {
		columns = append(columns, "updated_at")
	}

	q := db.query(m.Type()).WhereKey(m.OriginalValueOf(clause.PrimaryKey))
	for _, column := range columns {
		q = q.Value(column, m.values[column])
	}
	_, err := q.Update()
	return err
}
