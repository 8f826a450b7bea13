package relate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/relate-orm/relate/clause"
	"github.com/relate-orm/relate/result"
)

// Counter counts the models of a result
type Counter interface {
	Count() int
}

// Indexer random access to the models of a result, writes are refused
type Indexer interface {
	Get(offset int) *Model
	Has(offset int) bool
	Set(offset int, model *Model) error
	Unset(offset int) error
}

// Iterator sequential access to the models of a result
type Iterator interface {
	Rewind()
	Current() *Model
	Next()
	Valid() bool
	Key() int
}

// Serializer encodes a result together with its model type
type Serializer interface {
	MarshalJSON() ([]byte, error)
}

// Loader produces the rows of a collection
type Loader func() ([]result.Row, error)

var (
	_ Counter    = (*Collection)(nil)
	_ Indexer    = (*Collection)(nil)
	_ Iterator   = (*Collection)(nil)
	_ Serializer = (*Collection)(nil)
)

// Collection is a lazy, read only result of model instances. Its rows are loaded once, on
// first access, and converted to models only when a model is asked for.
//
// Methods without an error return record materialization and conversion failures, which
// are reported by Err, the way sql.Rows does.
type Collection struct {
	modelType *ModelType
	query     *Query
	loader    Loader
	cursor    result.Cursor
	executed  bool
	err       error
}

// NewCollection returns a collection of mt whose rows are produced by loader on first access
func NewCollection(mt *ModelType, loader Loader) *Collection {
	return &Collection{modelType: mt, loader: loader}
}

func newQueryCollection(q *Query) *Collection {
	c := &Collection{modelType: q.modelType, query: q, loader: q.rows}
	if q.Error != nil {
		c.executed, c.err = true, q.Error
	}
	return c
}

// ModelType returns the model type of the collection
func (c *Collection) ModelType() *ModelType {
	return c.modelType
}

// Result returns the cursor, loading the rows on first call only
func (c *Collection) Result() (result.Cursor, error) {
	if c.cursor != nil {
		return c.cursor, nil
	}

	if c.executed {
		return nil, c.err
	}
	c.executed = true

	if c.loader == nil {
		c.cursor = result.New(nil)
		return c.cursor, nil
	}

	rows, err := c.loader()
	if err != nil {
		c.err = err
		return nil, err
	}

	c.LoadFields(rows)
	return c.cursor, nil
}

// LoadFields seeds the collection with rows, no query runs afterwards
func (c *Collection) LoadFields(rows []result.Row) *Collection {
	c.cursor = result.New(rows)
	c.executed = true
	c.err = nil
	return c
}

// Err returns the error met while loading or converting rows
func (c *Collection) Err() error {
	return c.err
}

// convert turns a row into a model, an empty row is no model
func (c *Collection) convert(row result.Row) (*Model, error) {
	if len(row) == 0 {
		return nil, nil
	}

	model := c.modelType.New()
	if err := model.LoadFields(row); err != nil {
		return nil, err
	}
	return model, nil
}

func (c *Collection) load(row result.Row) *Model {
	model, err := c.convert(row)
	if err != nil && c.err == nil {
		c.err = err
	}
	return model
}

func (c *Collection) materialized() result.Cursor {
	cursor, _ := c.Result()
	return cursor
}

// Count returns the number of rows, no model is built
func (c *Collection) Count() int {
	if cursor := c.materialized(); cursor != nil {
		return cursor.Count()
	}
	return 0
}

// Get returns the model at offset, nil if there is none
func (c *Collection) Get(offset int) *Model {
	if cursor := c.materialized(); cursor != nil {
		return c.load(cursor.OffsetGet(offset))
	}
	return nil
}

// Has reports whether there is a row at offset
func (c *Collection) Has(offset int) bool {
	if cursor := c.materialized(); cursor != nil {
		return cursor.OffsetExists(offset)
	}
	return false
}

// Set always fails, results are read-only
func (c *Collection) Set(offset int, model *Model) error {
	return ErrReadOnly
}

// Unset always fails, results are read-only
func (c *Collection) Unset(offset int) error {
	return ErrReadOnly
}

func (c *Collection) Rewind() {
	if cursor := c.materialized(); cursor != nil {
		cursor.Rewind()
	}
}

func (c *Collection) Current() *Model {
	if cursor := c.materialized(); cursor != nil {
		return c.load(cursor.Current())
	}
	return nil
}

func (c *Collection) Next() {
	if cursor := c.materialized(); cursor != nil {
		cursor.Next()
	}
}

func (c *Collection) Valid() bool {
	if cursor := c.materialized(); cursor != nil {
		return cursor.Valid() && c.err == nil
	}
	return false
}

func (c *Collection) Key() int {
	if cursor := c.materialized(); cursor != nil {
		return cursor.Key()
	}
	return 0
}

// All iterates the models by offset, it stops at the first conversion failure
func (c *Collection) All() iter.Seq2[int, *Model] {
	return func(yield func(int, *Model) bool) {
		cursor := c.materialized()
		if cursor == nil {
			return
		}

		for offset := 0; offset < cursor.Count(); offset++ {
			model := c.load(cursor.OffsetGet(offset))
			if model == nil || !yield(offset, model) {
				return
			}
		}
	}
}

// AsArray returns every model in order
func (c *Collection) AsArray() ([]*Model, error) {
	cursor, err := c.Result()
	if err != nil {
		return nil, err
	}

	models := make([]*Model, 0, cursor.Count())
	for _, row := range cursor.Rows() {
		model, err := c.convert(row)
		if err != nil {
			return nil, err
		}
		if model != nil {
			models = append(models, model)
		}
	}
	return models, nil
}

// AsMap returns the models by the value of their key field, a later row replaces an earlier one
func (c *Collection) AsMap(key string) (map[interface{}]*Model, error) {
	models, err := c.AsArray()
	if err != nil {
		return nil, err
	}

	key = c.modelType.Meta.ResolveAttribute(key)
	results := make(map[interface{}]*Model, len(models))
	for _, model := range models {
		results[model.Get(key)] = model
	}
	return results, nil
}

// Pluck returns raw key to value pairs of two columns, no model is built
func (c *Collection) Pluck(key, value string) (map[interface{}]interface{}, error) {
	cursor, err := c.Result()
	if err != nil {
		return nil, err
	}

	meta := c.modelType.Meta
	entries := cursor.AsArray(meta.ResolveAttribute(key), meta.ResolveAttribute(value))
	results := make(map[interface{}]interface{}, len(entries))
	for _, entry := range entries {
		results[entry.Key] = entry.Value
	}
	return results, nil
}

// Column returns the raw values of a column in row order, no model is built
func (c *Collection) Column(value string) ([]interface{}, error) {
	cursor, err := c.Result()
	if err != nil {
		return nil, err
	}

	entries := cursor.AsArray("", c.modelType.Meta.ResolveAttribute(value))
	values := make([]interface{}, len(entries))
	for idx, entry := range entries {
		values[idx] = entry.Value
	}
	return values, nil
}

// Ids returns the primary keys in row order
func (c *Collection) Ids() ([]interface{}, error) {
	return c.Column(clause.PrimaryKey)
}

// First returns the first model, nil if there is none. A collection not loaded yet runs its
// query limited to one row and stays unloaded.
func (c *Collection) First() (*Model, error) {
	if c.cursor == nil && !c.executed && c.query != nil {
		rows, err := c.query.Limit(1).rows()
		if err != nil || len(rows) == 0 {
			return nil, err
		}
		return c.convert(rows[0])
	}

	cursor, err := c.Result()
	if err != nil {
		return nil, err
	}
	return c.convert(cursor.OffsetGet(0))
}

// FirstInsist returns the first model, a *NotFoundError if there is none
func (c *Collection) FirstInsist() (*Model, error) {
	model, err := c.First()
	if err == nil && model == nil {
		err = &NotFoundError{Model: c.modelType.Meta.Name}
	}
	return model, err
}

type serializedCollection struct {
	Model  string       `json:"model"`
	Fields []result.Row `json:"fields"`
}

// MarshalJSON encodes the model name and every row, loading them if needed
func (c *Collection) MarshalJSON() ([]byte, error) {
	cursor, err := c.Result()
	if err != nil {
		return nil, err
	}

	rows := cursor.Rows()
	if rows == nil {
		rows = []result.Row{}
	}
	return json.Marshal(serializedCollection{Model: c.modelType.Meta.Name, Fields: rows})
}

// DecodeCollection rebuilds a collection encoded by Collection.MarshalJSON
func (db *DB) DecodeCollection(data []byte) (*Collection, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var serialized serializedCollection
	if err := decoder.Decode(&serialized); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	mt, err := db.ModelType(serialized.Model)
	if err != nil {
		return nil, err
	}

	rows := make([]result.Row, len(serialized.Fields))
	for idx, row := range serialized.Fields {
		if rows[idx], err = mt.Meta.Cast(row); err != nil {
			return nil, err
		}
	}
	return NewCollection(mt, nil).LoadFields(rows), nil
}
