package relate

import (
	"encoding/json"
	"fmt"

	"github.com/relate-orm/relate/result"
	"github.com/relate-orm/relate/schema"
	"github.com/relate-orm/relate/utils"
)

// Model an instance of a registered model type
type Model struct {
	modelType *ModelType
	values    map[string]interface{}
	original  map[string]interface{}
	changed   map[string]struct{}
	loaded    bool
	related   map[string]*relatedItems
}

// relatedItems the in memory collection assigned to an association
type relatedItems struct {
	items   []*Model
	changed bool
}

// Type returns the model type of the instance
func (m *Model) Type() *ModelType {
	return m.modelType
}

// Meta returns the descriptor of the model type
func (m *Model) Meta() *schema.Meta {
	return m.modelType.Meta
}

// ID returns the primary key value, nil for a new instance
func (m *Model) ID() interface{} {
	return m.values[m.modelType.Meta.PrimaryKey]
}

// Get returns the value of field, symbolic references are resolved
func (m *Model) Get(field string) interface{} {
	return m.values[m.modelType.Meta.ResolveAttribute(field)]
}

// Set casts value through the field type and assigns it
func (m *Model) Set(field string, value interface{}) error {
	f := m.modelType.Meta.LookUpField(field)
	if f == nil {
		return fmt.Errorf("%w %v.%v", ErrInvalidField, m.modelType.Meta.Name, field)
	}

	v, err := f.Cast(value)
	if err != nil {
		return err
	}

	m.values[f.Name] = v
	if original, ok := m.original[f.Name]; ok && m.loaded && utils.AssertEqual(original, v) {
		delete(m.changed, f.Name)
	} else {
		m.changed[f.Name] = struct{}{}
	}
	return nil
}

// SetFields sets every field of values
func (m *Model) SetFields(values map[string]interface{}) error {
	for field, value := range values {
		if err := m.Set(field, value); err != nil {
			return err
		}
	}
	return nil
}

// Fields returns a copy of the field values
func (m *Model) Fields() map[string]interface{} {
	values := make(map[string]interface{}, len(m.values))
	for key, value := range m.values {
		values[key] = value
	}
	return values
}

// Loaded reports whether the instance was loaded from or saved to the database
func (m *Model) Loaded() bool {
	return m.loaded
}

// LoadedInsist fails unless the instance is loaded
func (m *Model) LoadedInsist() error {
	if !m.loaded {
		return fmt.Errorf("%w: %v", ErrNotLoaded, m.modelType.Meta.Name)
	}
	return nil
}

// OriginalValueOf returns the value field had when the instance was loaded
func (m *Model) OriginalValueOf(field string) interface{} {
	field = m.modelType.Meta.ResolveAttribute(field)
	if value, ok := m.original[field]; ok {
		return value
	}
	return m.values[field]
}

// Changed reports whether any of fields changed since load, or anything at all without fields
func (m *Model) Changed(fields ...string) bool {
	if len(fields) == 0 {
		if len(m.changed) > 0 {
			return true
		}
		for _, related := range m.related {
			if related.changed {
				return true
			}
		}
		return false
	}

	for _, field := range fields {
		if _, ok := m.changed[m.modelType.Meta.ResolveAttribute(field)]; ok {
			return true
		}
	}
	return false
}

// ChangedFields returns the changed field names in registration order
func (m *Model) ChangedFields() []string {
	var fields []string
	for _, field := range m.modelType.Meta.Fields {
		if _, ok := m.changed[field.Name]; ok {
			fields = append(fields, field.Name)
		}
	}
	return fields
}

// LoadFields hydrates the instance from a storage row and marks it loaded
func (m *Model) LoadFields(row result.Row) error {
	values, err := m.modelType.Meta.Cast(row)
	if err != nil {
		return err
	}

	m.values = m.modelType.Meta.Defaults()
	for key, value := range values {
		m.values[key] = value
	}

	m.loaded = true
	m.related = nil
	m.commit()
	return nil
}

// commit makes the current values the original ones
func (m *Model) commit(fields ...string) {
	if len(fields) == 0 {
		m.original = make(map[string]interface{}, len(m.values))
		for key, value := range m.values {
			m.original[key] = value
		}
		m.changed = map[string]struct{}{}
		for _, related := range m.related {
			related.changed = false
		}
		return
	}

	for _, field := range fields {
		m.original[field] = m.values[field]
		delete(m.changed, field)
	}
}

// assigned returns the collection assigned to association name, nil if none was
func (m *Model) assigned(name string) *relatedItems {
	if m.related == nil {
		return nil
	}
	return m.related[name]
}

func (m *Model) assign(name string, items []*Model) {
	if m.related == nil {
		m.related = map[string]*relatedItems{}
	}
	m.related[name] = &relatedItems{items: items, changed: true}
}

// modelState a copy of the in memory state of a model
type modelState struct {
	model    *Model
	values   map[string]interface{}
	original map[string]interface{}
	changed  map[string]struct{}
	loaded   bool
	related  map[string]*relatedItems
}

// snapshot copies the state of m and of every model assigned to its associations, restore
// puts it back after a rolled back save
func (m *Model) snapshot() []modelState {
	var (
		states []modelState
		seen   = map[*Model]bool{}
		walk   func(*Model)
	)

	walk = func(m *Model) {
		if seen[m] {
			return
		}
		seen[m] = true

		state := modelState{
			model:    m,
			values:   make(map[string]interface{}, len(m.values)),
			original: make(map[string]interface{}, len(m.original)),
			changed:  make(map[string]struct{}, len(m.changed)),
			loaded:   m.loaded,
		}
		for key, value := range m.values {
			state.values[key] = value
		}
		for key, value := range m.original {
			state.original[key] = value
		}
		for key := range m.changed {
			state.changed[key] = struct{}{}
		}
		if m.related != nil {
			state.related = make(map[string]*relatedItems, len(m.related))
			for name, related := range m.related {
				state.related[name] = &relatedItems{items: append([]*Model(nil), related.items...), changed: related.changed}
			}
		}
		states = append(states, state)

		for _, related := range m.related {
			for _, item := range related.items {
				walk(item)
			}
		}
	}

	walk(m)
	return states
}

func restore(states []modelState) {
	for _, state := range states {
		state.model.values = state.values
		state.model.original = state.original
		state.model.changed = state.changed
		state.model.loaded = state.loaded
		state.model.related = state.related
	}
}

func (m *Model) String() string {
	if id := m.ID(); id != nil {
		return fmt.Sprintf("%v#%v", m.modelType.Meta.Name, utils.ToStringKey(id))
	}
	return m.modelType.Meta.Name + "#new"
}

// MarshalJSON encodes the field values
func (m *Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.values)
}
