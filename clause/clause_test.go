package clause_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relate-orm/relate/clause"
)

// builder renders identifiers in backquotes and values as `?`, the current table is `users`
type builder struct {
	strings.Builder
	vars []interface{}
}

func (b *builder) WriteQuoted(field interface{}) {
	switch v := field.(type) {
	case clause.Table:
		fmt.Fprintf(b, "`%s`", b.table(v.Name))
	case clause.Column:
		if v.Table != "" {
			fmt.Fprintf(b, "`%s`.", b.table(v.Table))
		}
		if v.Name == clause.PrimaryKey {
			v.Name = "id"
		}
		fmt.Fprintf(b, "`%s`", v.Name)
	default:
		fmt.Fprintf(b, "`%v`", v)
	}
}

func (b *builder) table(name string) string {
	if name == clause.CurrentTable {
		return "users"
	}
	return name
}

func (b *builder) AddVar(writer clause.Writer, vars ...interface{}) {
	for idx, v := range vars {
		if idx > 0 {
			writer.WriteByte(',')
		}

		switch v := v.(type) {
		case clause.Column, clause.Table:
			b.WriteQuoted(v)
		case clause.Expression:
			v.Build(b)
		default:
			b.vars = append(b.vars, v)
			writer.WriteString("?")
		}
	}
}

func build(clauses ...clause.Interface) (string, []interface{}) {
	var (
		b     = &builder{}
		names []string
		built = map[string]clause.Clause{}
	)

	for _, c := range clauses {
		existing, ok := built[c.Name()]
		if !ok {
			existing.Name = c.Name()
			names = append(names, c.Name())
		}
		c.MergeClause(&existing)
		built[c.Name()] = existing
	}

	for idx, name := range names {
		if idx > 0 {
			b.WriteByte(' ')
		}
		built[name].Build(b)
	}
	return b.String(), b.vars
}

func TestClauses(t *testing.T) {
	limit := 10

	cases := []struct {
		clauses []clause.Interface
		sql     string
		vars    []interface{}
	}{
		{
			[]clause.Interface{clause.Select{}, clause.From{}},
			"SELECT * FROM `users`", nil,
		},
		{
			[]clause.Interface{clause.Select{Columns: []clause.Column{{Name: "id"}, {Name: "name"}}}, clause.From{}},
			"SELECT `id`,`name` FROM `users`", nil,
		},
		{
			[]clause.Interface{
				clause.Select{Expression: clause.CountStar},
				clause.From{},
				clause.Where{Exprs: []clause.Expression{clause.Eq{Column: clause.Column{Name: "name"}, Value: "rex"}}},
				clause.Where{Exprs: []clause.Expression{clause.Gt{Column: clause.Column{Name: "age"}, Value: 3}}},
			},
			"SELECT COUNT(*) FROM `users` WHERE `name` = ? AND `age` > ?", []interface{}{"rex", 3},
		},
		{
			[]clause.Interface{
				clause.Select{},
				clause.From{Joins: []clause.Join{{
					Type:  clause.LeftJoin,
					Table: clause.Table{Name: "pets"},
					ON: clause.Where{Exprs: []clause.Expression{
						clause.Eq{Column: clause.Column{Table: "pets", Name: "user_id"}, Value: clause.PrimaryColumn},
					}},
				}}},
				clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: "name"}, Desc: true}}},
				clause.Limit{Limit: &limit, Offset: 20},
			},
			"SELECT * FROM `users` LEFT JOIN `pets` ON `pets`.`user_id` = `users`.`id` ORDER BY `name` DESC LIMIT ? OFFSET ?", []interface{}{10, 20},
		},
		{
			[]clause.Interface{
				clause.Update{},
				clause.Assignments([]string{"user_id", "name"}, map[string]interface{}{"name": "rex", "user_id": 0}),
				clause.Where{Exprs: []clause.Expression{clause.IN{Column: clause.PrimaryColumn, Values: []interface{}{1, 2}}}},
			},
			"UPDATE `users` SET `user_id`=?,`name`=? WHERE `users`.`id` IN (?,?)", []interface{}{0, "rex", 1, 2},
		},
		{
			[]clause.Interface{
				clause.Delete{},
				clause.From{},
				clause.Where{Exprs: []clause.Expression{clause.Or(
					clause.Eq{Column: clause.Column{Name: "name"}, Value: nil},
					clause.Neq{Column: clause.Column{Name: "age"}, Value: 3},
				)}},
			},
			"DELETE FROM `users` WHERE `name` IS NULL OR `age` <> ?", []interface{}{3},
		},
		{
			[]clause.Interface{
				clause.Insert{},
				clause.Values{Columns: []clause.Column{{Name: "name"}, {Name: "age"}}, Values: [][]interface{}{{"rex", 3}}},
				clause.Returning{Columns: []clause.Column{{Name: "id"}}},
			},
			"INSERT INTO `users` (`name`,`age`) VALUES (?,?) RETURNING `id`", []interface{}{"rex", 3},
		},
	}

	for idx, c := range cases {
		sql, vars := build(c.clauses...)
		assert.Equal(t, c.sql, sql, "case #%v", idx)
		assert.Equal(t, c.vars, vars, "case #%v", idx)
	}
}

func TestExpressions(t *testing.T) {
	name := clause.Column{Name: "name"}

	cases := []struct {
		expr clause.Expression
		sql  string
		vars []interface{}
	}{
		{clause.Eq{Column: name, Value: []interface{}{"rex", "fido"}}, "`name` IN (?,?)", []interface{}{"rex", "fido"}},
		{clause.Eq{Column: name, Value: []string{}}, "`name` IN (NULL)", nil},
		{clause.IN{Column: name}, "`name` IN (NULL)", nil},
		{clause.IN{Column: name, Values: []interface{}{"rex"}}, "`name` = ?", []interface{}{"rex"}},
		{clause.Not(clause.IN{Column: name, Values: []interface{}{"rex", "fido"}}), "`name` NOT IN (?,?)", []interface{}{"rex", "fido"}},
		{clause.Not(clause.Eq{Column: name, Value: "rex"}), "`name` <> ?", []interface{}{"rex"}},
		{clause.Not(clause.Like{Column: name, Value: "r%"}), "`name` NOT LIKE ?", []interface{}{"r%"}},
		{
			clause.And(clause.Eq{Column: name, Value: "rex"}, clause.Or(clause.Gt{Column: clause.Column{Name: "age"}, Value: 1}, clause.Eq{Column: name, Value: nil})),
			"(`name` = ? AND (`age` > ? OR `name` IS NULL))", []interface{}{"rex", 1},
		},
		{clause.Expr{SQL: "length(?) > ?", Vars: []interface{}{name, 3}}, "length(`name`) > ?", []interface{}{3}},
	}

	for idx, c := range cases {
		b := &builder{}
		c.expr.Build(b)
		assert.Equal(t, c.sql, b.String(), "case #%v", idx)
		assert.Equal(t, c.vars, b.vars, "case #%v", idx)
	}
}
