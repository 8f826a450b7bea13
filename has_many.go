package relate

import (
	"fmt"
	"strings"

	"github.com/relate-orm/relate/clause"
	"github.com/relate-orm/relate/schema"
	"github.com/relate-orm/relate/utils"
)

// HasManyKind the association kind tag of HasMany
const HasManyKind = "hasmany"

// HasMany related rows hold the owner key in ForeignField. A polymorphic HasMany also
// stores the owner model name in AsField, so rows of one table can belong to owners of
// several model types.
//
// CountCache names an integer field of the owner model type, not of the related one. It is
// added to the owner descriptor at registration when the owner does not declare it.
type HasMany struct {
	name    string
	owner   *ModelType
	related *ModelType

	ForeignField   string
	As             string
	AsField        string
	Dependent      Dependent
	CountCache     string
	ForeignDefault interface{}
}

var _ Association = (*HasMany)(nil)

// NewHasMany builds a has-many association of owner, it is the constructor of the hasmany kind
func NewHasMany(owner *ModelType, config AssociationConfig, lookup ModelLookup) (Association, error) {
	var (
		meta    = owner.Meta
		namer   = meta.Namer()
		foreign = config.Foreign
	)

	if foreign == "" {
		foreign = namer.SingularName(config.Name) + "." + meta.ForeignKey()
	} else if !strings.Contains(foreign, ".") {
		foreign = foreign + "." + meta.ForeignKey()
	}

	relatedName, foreignField, _ := strings.Cut(foreign, ".")
	related, err := lookup(relatedName)
	if err != nil {
		return nil, err
	}

	association := &HasMany{
		name:           config.Name,
		owner:          owner,
		related:        related,
		ForeignField:   foreignField,
		Dependent:      config.Dependent,
		ForeignDefault: config.ForeignDefault,
	}

	if config.As != "" {
		association.As = config.As
	} else if config.Polymorphic {
		association.As = meta.Name
	}

	if association.As != "" {
		association.ForeignField, association.AsField = namer.PolymorphicNames(association.As)
	}

	for _, field := range []string{association.ForeignField, association.AsField} {
		if field != "" && related.Meta.LookUpField(field) == nil {
			return nil, fmt.Errorf("%w %v.%v", ErrInvalidField, related.Meta.Name, field)
		}
	}

	if association.ForeignDefault == nil {
		association.ForeignDefault = int64(0)
	}
	if association.ForeignDefault, err = related.Meta.LookUpField(association.ForeignField).Cast(association.ForeignDefault); err != nil {
		return nil, err
	}

	if config.CountCache || config.CountCacheField != "" {
		if association.As != "" {
			return nil, ErrPolymorphicCountCache
		}

		association.CountCache = config.CountCacheField
		if association.CountCache == "" {
			association.CountCache = namer.CountCacheName(config.Name)
		}

		if field := meta.LookUpField(association.CountCache); field != nil {
			if field.DataType != schema.Integer {
				return nil, fmt.Errorf("%w: count cache %v.%v must be an integer", ErrInvalidField, meta.Name, field.Name)
			}
		} else if err := meta.AddField(&schema.Field{Name: association.CountCache, DataType: schema.Integer, Default: 0}); err != nil {
			return nil, err
		}
	}

	return association, nil
}

func (association *HasMany) Name() string {
	return association.name
}

func (association *HasMany) Owner() *ModelType {
	return association.owner
}

func (association *HasMany) Related() *ModelType {
	return association.related
}

// IsPolymorphic reports whether related rows carry a discriminator
func (association *HasMany) IsPolymorphic() bool {
	return association.As != ""
}

func (association *HasMany) Builder(db *DB, owner *Model) (*Query, error) {
	if err := owner.LoadedInsist(); err != nil {
		return nil, err
	}

	q := db.query(association.related).Where(association.ForeignField, owner.ID())
	if association.IsPolymorphic() {
		q = q.Where(association.AsField, association.owner.Meta.Name)
	}
	return q, nil
}

func (association *HasMany) Join(joinType clause.JoinType) clause.Join {
	table := association.related.Meta.Table

	on := []clause.Expression{clause.Eq{
		Column: clause.Column{Table: table, Name: association.ForeignField},
		Value:  clause.Column{Table: association.owner.Meta.Table, Name: association.owner.Meta.PrimaryKey},
	}}

	if association.IsPolymorphic() {
		on = append(on, clause.Eq{
			Column: clause.Column{Table: table, Name: association.AsField},
			Value:  association.owner.Meta.Name,
		})
	}

	return clause.Join{Type: joinType, Table: clause.Table{Name: table}, ON: clause.Where{Exprs: on}}
}

func (association *HasMany) AssignRelation(owner, item *Model) error {
	if item == nil || item.Type() != association.related {
		return fmt.Errorf("%w: %v expects %v models", ErrInvalidData, association.name, association.related.Meta.Name)
	}

	if err := item.Set(association.ForeignField, owner.ID()); err != nil {
		return err
	}

	if association.IsPolymorphic() {
		return item.Set(association.AsField, association.owner.Meta.Name)
	}
	return nil
}

// nullifyBuilder detaches the rows related to owner on update
func (association *HasMany) nullifyBuilder(db *DB, owner *Model) (*Query, error) {
	q, err := association.Builder(db, owner)
	if err != nil {
		return nil, err
	}

	q = q.Value(association.ForeignField, association.ForeignDefault)
	if association.IsPolymorphic() {
		q = q.Value(association.AsField, nil)
	}
	return q, nil
}

// BeforeSave stamps the count cache of owner with the size of the assigned collection
func (association *HasMany) BeforeSave(db *DB, owner *Model) error {
	if association.CountCache == "" {
		return nil
	}

	if assigned := owner.assigned(association.name); assigned != nil && assigned.changed {
		return owner.Set(association.CountCache, len(assigned.items))
	}
	return nil
}

// affectedOwnerIDs the owners items belonged to when they were loaded, owner excluded
func (association *HasMany) affectedOwnerIDs(owner *Model, items []*Model) []interface{} {
	var (
		ids  []interface{}
		seen = map[string]bool{utils.ToStringKey(owner.ID()): true}
	)

	for _, item := range items {
		id := item.OriginalValueOf(association.ForeignField)
		if utils.IsZero(id) || utils.AssertEqual(id, association.ForeignDefault) {
			continue
		}

		if key := utils.ToStringKey(id); !seen[key] {
			seen[key] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// AfterSave persists the assigned collection when it changed: new or modified items are
// saved, rows no longer assigned are detached and newly assigned rows attached, then the
// count caches of the owners that lost rows are recomputed
func (association *HasMany) AfterSave(db *DB, owner *Model) error {
	assigned := owner.assigned(association.name)
	if assigned == nil || !assigned.changed {
		return nil
	}

	var affected []interface{}
	if association.CountCache != "" {
		affected = association.affectedOwnerIDs(owner, assigned.items)
	}

	q, err := association.Builder(db, owner)
	if err != nil {
		return err
	}

	previousIDs, err := q.Cache(-1).Collection().Ids()
	if err != nil {
		return err
	}

	// the owner may have been inserted after the items were assigned
	persisted := map[string]bool{}
	for _, item := range assigned.items {
		if err := association.AssignRelation(owner, item); err != nil {
			return err
		}

		if !item.Loaded() || len(association.changedBeyondForeign(item)) > 0 {
			if err := db.save(item); err != nil {
				return err
			}
			persisted[utils.ToStringKey(item.ID())] = true
		}
	}

	oldIDs, newIDs := association.diffIDs(previousIDs, assigned.items, persisted)

	if len(oldIDs) > 0 {
		nullify, err := association.nullifyBuilder(db, owner)
		if err != nil {
			return err
		}
		if _, err := nullify.WhereKey(oldIDs...).Update(); err != nil {
			return err
		}
	}

	if len(newIDs) > 0 {
		attach := db.query(association.related).WhereKey(newIDs...).Value(association.ForeignField, owner.ID())
		if association.IsPolymorphic() {
			attach = attach.Value(association.AsField, association.owner.Meta.Name)
		}
		if _, err := attach.Update(); err != nil {
			return err
		}
	}

	for _, item := range assigned.items {
		item.commit(association.foreignFields()...)
	}

	if len(oldIDs) > 0 || len(newIDs) > 0 {
		db.Logger.Info(db.ctx, "%v.%v of %v: detached %v, attached %v", association.owner.Meta.Name, association.name, owner, oldIDs, newIDs)
	}

	if len(affected) > 0 {
		others, err := db.query(association.owner).WhereKey(affected...).Cache(-1).Collection().AsArray()
		if err != nil {
			return err
		}

		for _, other := range others {
			if err := association.UpdateCountCache(db, other); err != nil {
				db.Logger.Warn(db.ctx, "failed to update %v.%v of %v: %v", association.owner.Meta.Name, association.CountCache, other, err)
				return err
			}
		}
	}
	return nil
}

func (association *HasMany) foreignFields() []string {
	if association.IsPolymorphic() {
		return []string{association.ForeignField, association.AsField}
	}
	return []string{association.ForeignField}
}

// changedBeyondForeign the changed fields of item the bulk attach does not write
func (association *HasMany) changedBeyondForeign(item *Model) []string {
	var fields []string
	for _, field := range item.ChangedFields() {
		if field != association.ForeignField && field != association.AsField {
			fields = append(fields, field)
		}
	}

	return fields
}

// diffIDs returns the previous ids no longer assigned and the assigned ids not previously
// related, leaving out falsy ids and the items just saved
func (association *HasMany) diffIDs(previousIDs []interface{}, items []*Model, persisted map[string]bool) (oldIDs, newIDs []interface{}) {
	current := make(map[string]bool, len(items))
	for _, item := range items {
		current[utils.ToStringKey(item.ID())] = true
	}

	previous := make(map[string]bool, len(previousIDs))
	for _, id := range previousIDs {
		key := utils.ToStringKey(id)
		previous[key] = true
		if !current[key] && !utils.IsZero(id) {
			oldIDs = append(oldIDs, id)
		}
	}

	for _, item := range items {
		key := utils.ToStringKey(item.ID())
		if !previous[key] && !persisted[key] && !utils.IsZero(item.ID()) {
			newIDs = append(newIDs, item.ID())
		}
	}
	return oldIDs, newIDs
}

// UpdateCountCache recomputes the count cache of owner from a fresh count
func (association *HasMany) UpdateCountCache(db *DB, owner *Model) error {
	if association.CountCache == "" {
		return nil
	}

	q, err := association.Builder(db, owner)
	if err != nil {
		return err
	}

	count, err := q.Count()
	if err != nil {
		return err
	}

	if _, err := db.query(association.owner).WhereKey(owner.ID()).Value(association.CountCache, count).Update(); err != nil {
		return err
	}

	if err := owner.Set(association.CountCache, count); err != nil {
		return err
	}
	owner.commit(association.CountCache)
	return nil
}

func (association *HasMany) Delete(db *DB, owner *Model) error {
	switch association.Dependent {
	case DependentDelete:
		q, err := association.Builder(db, owner)
		if err != nil {
			return err
		}

		items, err := q.Collection().AsArray()
		if err != nil {
			return err
		}

		for _, item := range items {
			if err := db.delete(item); err != nil {
				return err
			}
		}
	case DependentErase:
		q, err := association.Builder(db, owner)
		if err != nil {
			return err
		}
		_, err = q.Delete()
		return err
	case DependentNullify:
		q, err := association.nullifyBuilder(db, owner)
		if err != nil {
			return err
		}
		_, err = q.Update()
		return err
	}
	return nil
}
