package relate

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/relate-orm/relate/schema"
)

// ModelConfig static configuration of a model type
type ModelConfig struct {
	Name         string
	Table        string
	PrimaryKey   string
	NameKey      string
	Fields       []FieldConfig
	Associations []AssociationConfig
}

// FieldConfig a field of a model type, Type is a tag of the field type registry
type FieldConfig struct {
	Name      string
	Type      schema.DataType
	Default   interface{}
	AllowNull bool
}

// ModelType a registered model type, shared read only by all of its instances
type ModelType struct {
	Meta *schema.Meta
	// NameKey string column Key and Find match non numeric keys against
	NameKey string

	associations     map[string]Association
	associationNames []string
}

// New returns a blank, not loaded instance
func (mt *ModelType) New() *Model {
	return &Model{
		modelType: mt,
		values:    mt.Meta.Defaults(),
		original:  map[string]interface{}{},
		changed:   map[string]struct{}{},
	}
}

// Association returns the association registered as name
func (mt *ModelType) Association(name string) (Association, error) {
	if association, ok := mt.associations[name]; ok {
		return association, nil
	}
	return nil, fmt.Errorf("%w %v on %v", ErrUnknownAssociation, name, mt.Meta.Name)
}

// Associations returns the associations in registration order
func (mt *ModelType) Associations() []Association {
	associations := make([]Association, len(mt.associationNames))
	for idx, name := range mt.associationNames {
		associations[idx] = mt.associations[name]
	}
	return associations
}

// ModelLookup finds a model type by name
type ModelLookup func(name string) (*ModelType, error)

// AssociationConstructor builds an association of owner from its configuration
type AssociationConstructor func(owner *ModelType, config AssociationConfig, lookup ModelLookup) (Association, error)

// Registry model types and association kinds by name
type Registry struct {
	mu     sync.RWMutex
	namer  schema.Namer
	types  *schema.Types
	models map[string]*ModelType
	kinds  map[string]AssociationConstructor
}

func newRegistry(namer schema.Namer, types *schema.Types) *Registry {
	return &Registry{
		namer:  namer,
		types:  types,
		models: map[string]*ModelType{},
		kinds: map[string]AssociationConstructor{
			HasManyKind: NewHasMany,
		},
	}
}

func kindTag(kind string) string {
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(kind))
}

// RegisterKind adds or replaces the constructor of an association kind
func (r *Registry) RegisterKind(kind string, constructor AssociationConstructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[kindTag(kind)] = constructor
}

// Lookup returns the model type registered as name
func (r *Registry) Lookup(name string) (*ModelType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if mt, ok := r.models[r.namer.ModelName(name)]; ok {
		return mt, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrModelNotRegistered, name)
}

// Names returns the registered model names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register registers model types together, so their associations may reference each other.
// Nothing is registered if any configuration is invalid.
func (r *Registry) Register(configs ...ModelConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		pending = make(map[string]*ModelType, len(configs))
		order   = make([]*ModelType, 0, len(configs))
	)

	lookup := func(name string) (*ModelType, error) {
		modelName := r.namer.ModelName(name)
		if mt, ok := pending[modelName]; ok {
			return mt, nil
		}
		if mt, ok := r.models[modelName]; ok {
			return mt, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrModelNotRegistered, name)
	}

	for _, config := range configs {
		mt, err := r.newModelType(config)
		if err != nil {
			return err
		}

		if _, ok := r.models[mt.Meta.Name]; ok {
			return fmt.Errorf("model %v %w", mt.Meta.Name, ErrRegistered)
		} else if _, ok := pending[mt.Meta.Name]; ok {
			return fmt.Errorf("model %v %w", mt.Meta.Name, ErrRegistered)
		}

		pending[mt.Meta.Name] = mt
		order = append(order, mt)
	}

	for idx, config := range configs {
		owner := order[idx]
		for _, associationConfig := range config.Associations {
			kind := associationConfig.Kind
			if kind == "" {
				kind = HasManyKind
			}

			constructor, ok := r.kinds[kindTag(kind)]
			if !ok {
				return fmt.Errorf("%w %q on %v.%v", ErrUnsupportedAssociation, kind, owner.Meta.Name, associationConfig.Name)
			}

			if _, ok := owner.associations[associationConfig.Name]; ok || associationConfig.Name == "" {
				return fmt.Errorf("model %v: invalid or duplicated association %q", owner.Meta.Name, associationConfig.Name)
			}

			association, err := constructor(owner, associationConfig, lookup)
			if err != nil {
				return fmt.Errorf("association %v.%v: %w", owner.Meta.Name, associationConfig.Name, err)
			}

			owner.associations[associationConfig.Name] = association
			owner.associationNames = append(owner.associationNames, associationConfig.Name)
		}
	}

	for _, mt := range order {
		mt.Meta.Freeze()
		r.models[mt.Meta.Name] = mt
	}
	return nil
}

func (r *Registry) newModelType(config ModelConfig) (*ModelType, error) {
	meta, err := schema.New(config.Name, config.PrimaryKey, r.namer, r.types)
	if err != nil {
		return nil, err
	}

	if config.Table != "" {
		meta.Table = config.Table
	}

	for _, fieldConfig := range config.Fields {
		if fieldConfig.Name == meta.PrimaryKey {
			continue
		}

		dataType := fieldConfig.Type
		if dataType == "" {
			dataType = schema.String
		}

		if err := meta.AddField(&schema.Field{
			Name:      fieldConfig.Name,
			DataType:  dataType,
			Default:   fieldConfig.Default,
			AllowNull: fieldConfig.AllowNull,
		}); err != nil {
			return nil, err
		}
	}

	if config.NameKey != "" && meta.FieldsByName[config.NameKey] == nil {
		return nil, fmt.Errorf("model %v: name key %v %w", meta.Name, config.NameKey, ErrInvalidField)
	}

	return &ModelType{Meta: meta, NameKey: config.NameKey, associations: map[string]Association{}}, nil
}

// Register registers model types, see Registry.Register
func (db *DB) Register(configs ...ModelConfig) error {
	return db.registry.Register(configs...)
}

// RegisterAssociationKind adds an association kind usable in AssociationConfig.Kind
func (db *DB) RegisterAssociationKind(kind string, constructor AssociationConstructor) {
	db.registry.RegisterKind(kind, constructor)
}

// ModelType returns the registered model type name
func (db *DB) ModelType(name string) (*ModelType, error) {
	return db.registry.Lookup(name)
}

// Meta returns the descriptor of the registered model type name
func (db *DB) Meta(name string) (*schema.Meta, error) {
	mt, err := db.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	return mt.Meta, nil
}

// Models returns the registered model names
func (db *DB) Models() []string {
	return db.registry.Names()
}
