package relate

import (
	"fmt"
	"strings"

	"github.com/relate-orm/relate/clause"
	"github.com/relate-orm/relate/utils"
)

// Dependent what happens to related rows when their owner is deleted
type Dependent string

const (
	// DependentNone leaves related rows untouched
	DependentNone Dependent = ""
	// DependentDelete deletes every related model through its own delete lifecycle
	DependentDelete Dependent = "delete"
	// DependentErase deletes related rows with one statement, without their lifecycle
	DependentErase Dependent = "erase"
	// DependentNullify detaches related rows with one statement
	DependentNullify Dependent = "nullify"
)

// ParseDependent parses a dependent policy name
func ParseDependent(name string) (Dependent, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return DependentNone, nil
	case "delete", "cascade", "cascade_delete":
		return DependentDelete, nil
	case "erase":
		return DependentErase, nil
	case "nullify":
		return DependentNullify, nil
	}
	return DependentNone, fmt.Errorf("%w: unknown dependent policy %q", ErrInvalidData, name)
}

// AssociationConfig static configuration of an association
type AssociationConfig struct {
	Name string
	// Kind association kind, `hasmany` by default
	Kind string
	// Foreign `model.field` holding the owner key on the related rows, `model` alone uses
	// the owner foreign key convention, empty uses the singular association name as model
	Foreign string
	// As discriminator prefix of a polymorphic association, related rows carry `<as>_id`
	// and `<as>_model` columns
	As string
	// Polymorphic with an empty As uses the owner model name as prefix
	Polymorphic bool
	Dependent   Dependent
	// CountCache keeps the number of related rows in an integer field of the owner,
	// named CountCacheField or `<association>_count`
	CountCache      bool
	CountCacheField string
	// ForeignDefault the foreign key of detached rows, 0 when nil
	ForeignDefault interface{}
}

// Association links an owner model type to related rows
type Association interface {
	Name() string
	Owner() *ModelType
	Related() *ModelType
	// Builder returns the query of the rows related to owner, owner must be loaded
	Builder(db *DB, owner *Model) (*Query, error)
	// Join returns the join of the related table for queries on the owner table
	Join(joinType clause.JoinType) clause.Join
	// AssignRelation points item at owner, in memory only
	AssignRelation(owner, item *Model) error
	BeforeSave(db *DB, owner *Model) error
	AfterSave(db *DB, owner *Model) error
	// Delete applies the dependent policy when owner is deleted
	Delete(db *DB, owner *Model) error
}

// AssociationHandle changes the related collection of one owner in memory, Save persists it
type AssociationHandle struct {
	DB          *DB
	Owner       *Model
	Association Association
	Error       error
}

// Association returns the handle of association name of the model targeted with Model
func (db *DB) Association(name string) *AssociationHandle {
	handle := &AssociationHandle{DB: db, Owner: db.model}
	if db.model == nil {
		handle.Error = fmt.Errorf("%w: no model, use Model(owner) first", ErrInvalidOperation)
		return handle
	}

	handle.Association, handle.Error = db.model.Type().Association(name)
	return handle
}

// Collection returns the lazy collection of the persisted related rows
func (handle *AssociationHandle) Collection() *Collection {
	if handle.Error != nil {
		return &Collection{executed: true, err: handle.Error}
	}

	q, err := handle.Association.Builder(handle.DB, handle.Owner)
	if err != nil {
		return &Collection{modelType: handle.Association.Related(), executed: true, err: err}
	}
	return q.Collection()
}

// Count returns the number of persisted related rows
func (handle *AssociationHandle) Count() (int64, error) {
	if handle.Error != nil {
		return 0, handle.Error
	}

	q, err := handle.Association.Builder(handle.DB, handle.Owner)
	if err != nil {
		return 0, err
	}
	return q.Count()
}

// Items returns the assigned collection, loading the persisted one when nothing was assigned
func (handle *AssociationHandle) Items() ([]*Model, error) {
	if handle.Error != nil {
		return nil, handle.Error
	}

	name := handle.Association.Name()
	if assigned := handle.Owner.assigned(name); assigned != nil {
		return assigned.items, nil
	}

	if !handle.Owner.Loaded() {
		return nil, nil
	}

	items, err := handle.Collection().AsArray()
	if err != nil {
		return nil, err
	}

	handle.Owner.assign(name, items)
	handle.Owner.related[name].changed = false
	return items, nil
}

// Replace replaces the related collection with items, repeated items are kept once
func (handle *AssociationHandle) Replace(items ...*Model) error {
	if handle.Error != nil {
		return handle.Error
	}

	unique := make([]*Model, 0, len(items))
	for _, item := range items {
		if indexOf(unique, item) >= 0 {
			continue
		}
		if err := handle.Association.AssignRelation(handle.Owner, item); err != nil {
			return err
		}
		unique = append(unique, item)
	}

	handle.Owner.assign(handle.Association.Name(), unique)
	return nil
}

// Append adds items to the related collection
func (handle *AssociationHandle) Append(items ...*Model) error {
	current, err := handle.Items()
	if err != nil {
		return err
	}

	merged := append([]*Model(nil), current...)
	for _, item := range items {
		if indexOf(merged, item) < 0 {
			merged = append(merged, item)
		}
	}
	return handle.Replace(merged...)
}

// Remove removes items from the related collection, they are detached on save
func (handle *AssociationHandle) Remove(items ...*Model) error {
	current, err := handle.Items()
	if err != nil {
		return err
	}

	kept := make([]*Model, 0, len(current))
	for _, item := range current {
		if indexOf(items, item) < 0 {
			kept = append(kept, item)
		}
	}
	handle.Owner.assign(handle.Association.Name(), kept)
	return nil
}

// Clear empties the related collection, every related row is detached on save
func (handle *AssociationHandle) Clear() error {
	return handle.Replace()
}

// indexOf finds item in items by identity, or by primary key for saved models
func indexOf(items []*Model, item *Model) int {
	for idx, candidate := range items {
		if candidate == item {
			return idx
		}
		if candidate.ID() != nil && item.ID() != nil && candidate.Type() == item.Type() &&
			utils.ToStringKey(candidate.ID()) == utils.ToStringKey(item.ID()) {
			return idx
		}
	}
	return -1
}
