// Package result holds the row cursors collections read from: a row set materialized
// from a query, positioned sequentially or addressed by offset.
package result

import (
	"database/sql"
)

// Row is one result row, column name to value
type Row = map[string]interface{}

// Entry is an element of AsArray, Key is the row offset unless a key column was requested
type Entry struct {
	Key   interface{}
	Value interface{}
}

// Cursor is a sequential and random access view over result rows
type Cursor interface {
	Count() int
	Rewind()
	Current() Row
	Next()
	Valid() bool
	Key() int
	OffsetGet(offset int) Row
	OffsetExists(offset int) bool
	Rows() []Row
	AsArray(key, value string) []Entry
}

// Cached is a Cursor over rows already held in memory
type Cached struct {
	rows     []Row
	position int
}

var _ Cursor = (*Cached)(nil)

// New returns a cursor over rows, positioned on the first row
func New(rows []Row) *Cached {
	return &Cached{rows: rows}
}

// FromRows reads every row of rows into a Cached cursor and closes rows
func FromRows(rows *sql.Rows) (*Cached, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []Row
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for idx := range values {
			pointers[idx] = &values[idx]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(Row, len(columns))
		for idx, column := range columns {
			if b, ok := values[idx].([]byte); ok {
				row[column] = string(b)
			} else {
				row[column] = values[idx]
			}
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return New(results), nil
}

func (c *Cached) Count() int {
	return len(c.rows)
}

func (c *Cached) Rewind() {
	c.position = 0
}

// Current returns the row at the current position, nil past the end
func (c *Cached) Current() Row {
	return c.OffsetGet(c.position)
}

func (c *Cached) Next() {
	c.position++
}

func (c *Cached) Valid() bool {
	return c.OffsetExists(c.position)
}

func (c *Cached) Key() int {
	return c.position
}

// OffsetGet returns the row at offset, nil when there is none
func (c *Cached) OffsetGet(offset int) Row {
	if !c.OffsetExists(offset) {
		return nil
	}
	return c.rows[offset]
}

func (c *Cached) OffsetExists(offset int) bool {
	return offset >= 0 && offset < len(c.rows)
}

// Rows returns every row in order
func (c *Cached) Rows() []Row {
	return c.rows
}

// AsArray projects the rows. With no key the entries are keyed by offset, otherwise by the
// row's key column value, a later row replacing the value of an earlier one with the same
// key. With no value column the entry value is the whole row.
func (c *Cached) AsArray(key, value string) []Entry {
	var (
		entries = make([]Entry, 0, len(c.rows))
		indexes = map[interface{}]int{}
	)

	for offset, row := range c.rows {
		entry := Entry{Key: offset, Value: row}
		if value != "" {
			entry.Value = row[value]
		}

		if key == "" {
			entries = append(entries, entry)
			continue
		}

		entry.Key = row[key]
		if idx, ok := indexes[entry.Key]; ok {
			entries[idx] = entry
		} else {
			indexes[entry.Key] = len(entries)
			entries = append(entries, entry)
		}
	}

	return entries
}
