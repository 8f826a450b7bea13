package schema

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/relate-orm/relate/clause"
	"github.com/relate-orm/relate/utils"
)

// ErrUnsupportedDataType unsupported data type
var ErrUnsupportedDataType = errors.New("unsupported data type")

const (
	// PrimaryKeyRef and ForeignKeyRef are symbolic attribute names resolved against a Meta
	PrimaryKeyRef = ":primary_key"
	ForeignKeyRef = ":foreign_key"
)

// Meta describes a registered model type: its name, table, primary key and fields.
// A Meta is built once at registration and is read only after Freeze.
type Meta struct {
	Name         string
	Table        string
	PrimaryKey   string
	Fields       []*Field
	FieldsByName map[string]*Field
	namer        Namer
	types        *Types
	mu           sync.Mutex
	frozen       bool
}

// New returns the descriptor of model name, with an integer primary key field
func New(name string, primaryKey string, namer Namer, types *Types) (*Meta, error) {
	if namer == nil {
		namer = NamingStrategy{}
	}
	if types == nil {
		types = NewTypes()
	}

	modelName := namer.ModelName(name)
	if modelName == "" {
		return nil, fmt.Errorf("invalid model name %q", name)
	}

	if primaryKey == "" {
		primaryKey = "id"
	}

	meta := &Meta{
		Name:         modelName,
		Table:        namer.TableName(modelName),
		PrimaryKey:   primaryKey,
		FieldsByName: map[string]*Field{},
		namer:        namer,
		types:        types,
	}

	if err := meta.AddField(&Field{Name: primaryKey, DataType: Integer, PrimaryKey: true, AllowNull: true}); err != nil {
		return nil, err
	}
	return meta, nil
}

// Namer returns the naming strategy the descriptor was built with
func (meta *Meta) Namer() Namer {
	return meta.namer
}

// ForeignKey the column other models use to reference this one, `user` gives `user_id`
func (meta *Meta) ForeignKey() string {
	return meta.namer.ForeignKey(meta.Name)
}

// AddField registers field, its type must be known to the type registry
func (meta *Meta) AddField(field *Field) error {
	meta.mu.Lock()
	defer meta.mu.Unlock()

	if meta.frozen {
		return fmt.Errorf("model %v is frozen, can not add field %v", meta.Name, field.Name)
	}

	if field.Name == "" {
		return fmt.Errorf("model %v: field name is required", meta.Name)
	}

	if strings.IndexFunc(field.Name, utils.IsValidDBNameChar) >= 0 {
		return fmt.Errorf("model %v: invalid field name %q", meta.Name, field.Name)
	}

	if _, ok := meta.FieldsByName[field.Name]; ok {
		return fmt.Errorf("model %v: duplicated field %v", meta.Name, field.Name)
	}

	caster, ok := meta.types.Lookup(field.DataType)
	if !ok {
		return fmt.Errorf("%w %q for field %v.%v", ErrUnsupportedDataType, field.DataType, meta.Name, field.Name)
	}

	field.Meta = meta
	field.cast = caster
	if field.Default != nil {
		v, err := caster(field.Default)
		if err != nil {
			return fmt.Errorf("model %v: invalid default of %v: %w", meta.Name, field.Name, err)
		}
		field.Default = v
	}

	meta.Fields = append(meta.Fields, field)
	meta.FieldsByName[field.Name] = field
	return nil
}

// Freeze forbids further changes
func (meta *Meta) Freeze() {
	meta.mu.Lock()
	meta.frozen = true
	meta.mu.Unlock()
}

// LookUpField returns the field named name after resolving symbolic references
func (meta *Meta) LookUpField(name string) *Field {
	return meta.FieldsByName[meta.ResolveAttribute(name)]
}

// ResolveAttribute maps symbolic attribute references to column names
func (meta *Meta) ResolveAttribute(name string) string {
	switch name {
	case clause.PrimaryKey, PrimaryKeyRef:
		return meta.PrimaryKey
	case ForeignKeyRef:
		return meta.ForeignKey()
	}
	return name
}

// Columns returns the field names in registration order
func (meta *Meta) Columns() []string {
	columns := make([]string, len(meta.Fields))
	for idx, field := range meta.Fields {
		columns[idx] = field.Name
	}
	return columns
}

// Defaults returns the initial values of a blank instance
func (meta *Meta) Defaults() map[string]interface{} {
	values := make(map[string]interface{}, len(meta.Fields))
	for _, field := range meta.Fields {
		values[field.Name] = field.Default
	}
	return values
}

// Cast converts every known column of row through its field type, unknown columns are kept
func (meta *Meta) Cast(row map[string]interface{}) (map[string]interface{}, error) {
	casted := make(map[string]interface{}, len(row))
	for key, value := range row {
		field, ok := meta.FieldsByName[key]
		if !ok {
			casted[key] = value
			continue
		}

		v, err := field.Cast(value)
		if err != nil {
			return nil, err
		}
		casted[key] = v
	}
	return casted, nil
}
