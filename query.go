package relate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/relate-orm/relate/cache"
	"github.com/relate-orm/relate/clause"
	"github.com/relate-orm/relate/result"
	"github.com/relate-orm/relate/schema"
)

// Query builds and runs select, count, update and delete statements for one model type.
// Every method returns a new Query, the receiver is left unchanged.
type Query struct {
	Error error

	db        *DB
	modelType *ModelType
	wheres    []clause.Expression
	joins     []clause.Join
	joined    []string
	orders    []clause.OrderByColumn
	limit     *int
	offset    int
	columns   []string
	values    map[string]interface{}
	cacheTTL  time.Duration
}

// Query starts a query on the registered model type model
func (db *DB) Query(model string) *Query {
	mt, err := db.ModelType(model)
	q := &Query{db: db, modelType: mt, Error: err}
	return q
}

func (db *DB) query(mt *ModelType) *Query {
	return &Query{db: db, modelType: mt}
}

// All returns every row of model, lazily
func (db *DB) All(model string) *Collection {
	return db.Query(model).Collection()
}

func (q *Query) clone() *Query {
	c := *q
	c.wheres = append([]clause.Expression(nil), q.wheres...)
	c.joins = append([]clause.Join(nil), q.joins...)
	c.joined = append([]string(nil), q.joined...)
	c.orders = append([]clause.OrderByColumn(nil), q.orders...)
	c.columns = append([]string(nil), q.columns...)
	c.values = make(map[string]interface{}, len(q.values))
	for key, value := range q.values {
		c.values[key] = value
	}
	return &c
}

// AddError add error to query
func (q *Query) AddError(err error) *Query {
	if q.Error == nil {
		q.Error = err
	} else if err != nil {
		q.Error = fmt.Errorf("%v; %w", q.Error, err)
	}
	return q
}

// Meta returns the descriptor of the queried model type
func (q *Query) Meta() *schema.Meta {
	if q.modelType == nil {
		return nil
	}
	return q.modelType.Meta
}

// column resolves name to a column of the queried table, `table.column` names another table
func (q *Query) column(name string) clause.Column {
	if idx := strings.IndexByte(name, '.'); idx > 0 {
		return clause.Column{Table: name[:idx], Name: name[idx+1:]}
	}
	if q.modelType != nil {
		name = q.modelType.Meta.ResolveAttribute(name)
	}
	return clause.Column{Table: clause.CurrentTable, Name: name}
}

// Where adds an equality condition, slices match any of their values and nil matches NULL
func (q *Query) Where(column string, value interface{}) *Query {
	tx := q.clone()
	tx.wheres = append(tx.wheres, clause.Eq{Column: q.column(column), Value: value})
	return tx
}

// WhereNot adds an inequality condition
func (q *Query) WhereNot(column string, value interface{}) *Query {
	tx := q.clone()
	tx.wheres = append(tx.wheres, clause.Neq{Column: q.column(column), Value: value})
	return tx
}

// WhereExpr adds raw conditions
func (q *Query) WhereExpr(exprs ...clause.Expression) *Query {
	tx := q.clone()
	tx.wheres = append(tx.wheres, exprs...)
	return tx
}

// WhereKey restricts the query to primary keys
func (q *Query) WhereKey(keys ...interface{}) *Query {
	return q.WhereExpr(clause.IN{Column: q.column(clause.PrimaryKey), Values: keys})
}

// Key restricts the query to unique keys: numbers match the primary key, other strings the
// name key of the model type when it has one
func (q *Query) Key(keys ...interface{}) *Query {
	if q.modelType == nil || q.modelType.NameKey == "" {
		return q.WhereKey(keys...)
	}

	var ids, names []interface{}
	for _, key := range keys {
		if s, ok := key.(string); ok {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				names = append(names, s)
				continue
			}
		}
		ids = append(ids, key)
	}

	switch {
	case len(names) == 0:
		return q.WhereKey(ids...)
	case len(ids) == 0:
		return q.WhereExpr(clause.IN{Column: q.column(q.modelType.NameKey), Values: names})
	}

	return q.WhereExpr(clause.Or(
		clause.IN{Column: q.column(clause.PrimaryKey), Values: ids},
		clause.IN{Column: q.column(q.modelType.NameKey), Values: names},
	))
}

// Value sets a column for Update
func (q *Query) Value(column string, value interface{}) *Query {
	tx := q.clone()
	if q.modelType != nil {
		column = q.modelType.Meta.ResolveAttribute(column)
	}
	if _, ok := tx.values[column]; !ok {
		tx.columns = append(tx.columns, column)
	}
	tx.values[column] = value
	return tx
}

// Limit specify the number of records to be retrieved
func (q *Query) Limit(limit int) *Query {
	tx := q.clone()
	tx.limit = &limit
	return tx
}

// Offset specify the number of records to skip before starting to return the records
func (q *Query) Offset(offset int) *Query {
	tx := q.clone()
	tx.offset = offset
	return tx
}

// Order specify order when retrieve records from database
func (q *Query) Order(column string, desc bool) *Query {
	tx := q.clone()
	tx.orders = append(tx.orders, clause.OrderByColumn{Column: q.column(column), Desc: desc})
	return tx
}

// Joins joins the related table of association, rows are selected once however many related rows match
func (q *Query) Joins(association string, joinType ...clause.JoinType) *Query {
	tx := q.clone()
	if q.modelType == nil {
		return tx
	}

	a, err := q.modelType.Association(association)
	if err != nil {
		return tx.AddError(err)
	}

	typ := clause.InnerJoin
	if len(joinType) > 0 {
		typ = joinType[0]
	}

	tx.joins = append(tx.joins, a.Join(typ))
	tx.joined = append(tx.joined, a.Related().Meta.Table)
	return tx
}

// Cache caches the rows of the query for ttl, a negative ttl never caches them
func (q *Query) Cache(ttl time.Duration) *Query {
	tx := q.clone()
	tx.cacheTTL = ttl
	return tx
}

func (q *Query) buildSelect(stmt *Statement) {
	if len(q.joins) > 0 {
		stmt.AddClause(clause.Select{Expression: clause.Expr{SQL: "DISTINCT ?.*", Vars: []interface{}{clause.Table{Name: clause.CurrentTable}}}})
	} else {
		stmt.AddClause(clause.Select{})
	}

	stmt.AddClause(clause.From{Joins: q.joins})
	if len(q.wheres) > 0 {
		stmt.AddClause(clause.Where{Exprs: q.wheres})
	}
	if len(q.orders) > 0 {
		stmt.AddClause(clause.OrderBy{Columns: q.orders})
	}
	if q.limit != nil || q.offset > 0 {
		stmt.AddClause(clause.Limit{Limit: q.limit, Offset: q.offset})
	}
	stmt.Build("SELECT", "FROM", "WHERE", "ORDER BY", "LIMIT")
}

// Statement renders the select statement of the query
func (q *Query) Statement() (*Statement, error) {
	if q.Error != nil {
		return nil, q.Error
	}

	stmt := q.db.newStatement(q.modelType.Meta)
	q.buildSelect(stmt)
	return stmt, nil
}

// Count returns the number of matching rows
func (q *Query) Count() (int64, error) {
	if q.Error != nil {
		return 0, q.Error
	}

	stmt := q.db.newStatement(q.modelType.Meta)
	if q.limit != nil || q.offset > 0 {
		stmt.WriteString("SELECT COUNT(*) FROM (")
		q.buildSelect(stmt)
		stmt.WriteString(") counted")
	} else {
		if len(q.joins) > 0 {
			stmt.AddClause(clause.Select{Expression: clause.Expr{SQL: "COUNT(DISTINCT ?)", Vars: []interface{}{clause.PrimaryColumn}}})
		} else {
			stmt.AddClause(clause.Select{Expression: clause.CountStar})
		}
		stmt.AddClause(clause.From{Joins: q.joins})
		if len(q.wheres) > 0 {
			stmt.AddClause(clause.Where{Exprs: q.wheres})
		}
		stmt.Build("SELECT", "FROM", "WHERE")
	}

	var count int64
	if err := stmt.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (q *Query) checkWrite() error {
	if q.Error != nil {
		return q.Error
	}
	if len(q.joins) > 0 {
		return fmt.Errorf("%w: joins are not supported by update and delete", ErrInvalidOperation)
	}
	if q.db.BlockGlobalWrite && len(q.wheres) == 0 {
		return ErrMissingWhereClause
	}
	return nil
}

// Update sets the Value columns of every matching row, returning the affected rows
func (q *Query) Update() (int64, error) {
	if err := q.checkWrite(); err != nil {
		return 0, err
	}
	if len(q.columns) == 0 {
		return 0, fmt.Errorf("%w: no values to update", ErrInvalidData)
	}

	stmt := q.db.newStatement(q.modelType.Meta)
	stmt.AddClause(clause.Update{})
	stmt.AddClause(clause.Assignments(q.columns, q.values))
	if len(q.wheres) > 0 {
		stmt.AddClause(clause.Where{Exprs: q.wheres})
	}
	stmt.Build("UPDATE", "SET", "WHERE")
	return stmt.Exec()
}

// Delete deletes every matching row without loading it, returning the affected rows
func (q *Query) Delete() (int64, error) {
	if err := q.checkWrite(); err != nil {
		return 0, err
	}

	stmt := q.db.newStatement(q.modelType.Meta)
	stmt.AddClause(clause.Delete{})
	stmt.AddClause(clause.From{})
	if len(q.wheres) > 0 {
		stmt.AddClause(clause.Where{Exprs: q.wheres})
	}
	stmt.Build("DELETE", "FROM", "WHERE")
	return stmt.Exec()
}

// Collection returns the lazy collection of matching rows, nothing runs until it is read
func (q *Query) Collection() *Collection {
	return newQueryCollection(q)
}

// First returns the first matching model, nil if none
func (q *Query) First() (*Model, error) {
	return q.Collection().First()
}

// FirstInsist returns the first matching model, a *NotFoundError if none
func (q *Query) FirstInsist() (*Model, error) {
	return q.Collection().FirstInsist()
}

func (q *Query) cacheStore() (cache.Store, time.Duration) {
	if q.db.Cache == nil || q.db.tx != nil {
		return nil, 0
	}

	ttl := q.cacheTTL
	if ttl == 0 {
		ttl = q.db.CacheTTL
	}
	if ttl <= 0 {
		return nil, 0
	}
	return q.db.Cache, ttl
}

// rows runs the select statement, or reads its rows from the result cache
func (q *Query) rows() ([]result.Row, error) {
	stmt, err := q.Statement()
	if err != nil {
		return nil, err
	}

	var key string
	ctx := q.db.ctx
	store, ttl := q.cacheStore()

	if store != nil {
		tables := append([]string{q.modelType.Meta.Table}, q.joined...)
		if key, err = cache.Key(ctx, store, tables, stmt.SQL.String(), stmt.Vars...); err != nil {
			q.db.Logger.Warn(ctx, "failed to build cache key: %v", err)
		} else if data, err := store.Get(ctx, key); err == nil {
			if rows, err := q.decodeRows(data); err == nil {
				q.db.Logger.Info(ctx, "%v rows of %v read from cache", len(rows), q.modelType.Meta.Name)
				return rows, nil
			}
		}
	}

	cursor, err := stmt.Query()
	if err != nil {
		return nil, err
	}

	if store != nil && key != "" {
		if data, err := json.Marshal(cursor.Rows()); err == nil {
			if err := store.Set(ctx, key, data, ttl); err != nil {
				q.db.Logger.Warn(ctx, "failed to cache rows of %v: %v", q.modelType.Meta.Name, err)
			}
		}
	}
	return cursor.Rows(), nil
}

func (q *Query) decodeRows(data []byte) ([]result.Row, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var rows []result.Row
	if err := decoder.Decode(&rows); err != nil {
		return nil, err
	}

	for idx, row := range rows {
		casted, err := q.modelType.Meta.Cast(row)
		if err != nil {
			return nil, err
		}
		rows[idx] = casted
	}
	return rows, nil
}
