package relate

import (
	"sort"

	"github.com/relate-orm/relate/utils"
)

// Build returns a new, unsaved model with attrs set
func (db *DB) Build(model string, attrs map[string]interface{}) (*Model, error) {
	mt, err := db.ModelType(model)
	if err != nil {
		return nil, err
	}

	m := mt.New()
	if err := m.SetFields(attrs); err != nil {
		return nil, err
	}
	return m, nil
}

// Create builds a model and saves it
func (db *DB) Create(model string, attrs map[string]interface{}) (*Model, error) {
	m, err := db.Build(model, attrs)
	if err != nil {
		return nil, err
	}

	if err := db.Save(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Find returns the model with unique key key, nil if there is none
func (db *DB) Find(model string, key interface{}) (*Model, error) {
	return db.Query(model).Key(key).First()
}

// FindAll returns the models with the unique keys, lazily
func (db *DB) FindAll(model string, keys ...interface{}) *Collection {
	return db.Query(model).Key(keys...).Collection()
}

// FindInsist returns the models with the unique keys, a *NotFoundError listing the missing
// keys unless every key matched
func (db *DB) FindInsist(model string, keys ...interface{}) (*Collection, error) {
	collection := db.FindAll(model, keys...)

	models, err := collection.AsArray()
	if err != nil {
		return nil, err
	}

	var (
		mt    = collection.ModelType()
		found = map[string]bool{}
	)
	for _, m := range models {
		found[utils.ToStringKey(m.ID())] = true
		if mt.NameKey != "" {
			found[utils.ToStringKey(m.Get(mt.NameKey))] = true
		}
	}

	var missing []interface{}
	for _, key := range keys {
		if !found[utils.ToStringKey(key)] {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 || len(keys) == 0 {
		return nil, &NotFoundError{Model: mt.Meta.Name, Keys: missing}
	}
	return collection, nil
}

func (db *DB) findBy(model string, attrs map[string]interface{}) (*Model, error) {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	q := db.Query(model)
	for _, name := range names {
		q = q.Where(name, attrs[name])
	}
	return q.First()
}

// FindOrBuild returns the first model matching attrs, or a new unsaved one built from them
func (db *DB) FindOrBuild(model string, attrs map[string]interface{}) (*Model, error) {
	m, err := db.findBy(model, attrs)
	if err != nil || m != nil {
		return m, err
	}
	return db.Build(model, attrs)
}

// FindOrCreate returns the first model matching attrs, or creates one from them
func (db *DB) FindOrCreate(model string, attrs map[string]interface{}) (*Model, error) {
	m, err := db.findBy(model, attrs)
	if err != nil || m != nil {
		return m, err
	}
	return db.Create(model, attrs)
}
