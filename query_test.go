package relate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relate-orm/relate"
	"github.com/relate-orm/relate/clause"
	"github.com/relate-orm/relate/utils/tests"
)

func TestQueryStatement(t *testing.T) {
	db, _ := tests.OpenDB(t, nil)

	cases := []struct {
		query *relate.Query
		sql   string
	}{
		{db.Query("pet"), "SELECT * FROM `pets`"},
		{db.Query("pet").Where("name", "rex"), "SELECT * FROM `pets` WHERE `pets`.`name` = 'rex'"},
		{db.Query("pet").Where("name", nil), "SELECT * FROM `pets` WHERE `pets`.`name` IS NULL"},
		{db.Query("pet").Where("name", []interface{}{"rex", "fido"}), "SELECT * FROM `pets` WHERE `pets`.`name` IN ('rex','fido')"},
		{db.Query("pet").WhereNot("user_id", 0), "SELECT * FROM `pets` WHERE `pets`.`user_id` <> 0"},
		{db.Query("pet").Where(":primary_key", 3), "SELECT * FROM `pets` WHERE `pets`.`id` = 3"},
		{db.Query("pet").WhereKey(1, 2), "SELECT * FROM `pets` WHERE `pets`.`id` IN (1,2)"},
		{db.Query("pet").Key(5), "SELECT * FROM `pets` WHERE `pets`.`id` = 5"},
		{
			db.Query("pet").WhereExpr(clause.Expr{SQL: "length(?) > ?", Vars: []interface{}{clause.Column{Name: "name"}, 3}}),
			"SELECT * FROM `pets` WHERE length(`name`) > 3",
		},
		{
			db.Query("pet").Where("name", "rex").Order("id", true).Limit(2).Offset(1),
			"SELECT * FROM `pets` WHERE `pets`.`name` = 'rex' ORDER BY `pets`.`id` DESC LIMIT 2 OFFSET 1",
		},
	}

	for _, c := range cases {
		stmt, err := c.query.Statement()
		require.NoError(t, err)
		assert.Equal(t, c.sql, stmt.String())
	}
}

func TestQueryIsImmutable(t *testing.T) {
	db, _ := tests.OpenDB(t, nil)

	base := db.Query("pet").Where("name", "rex")
	base.Where("user_id", 1).Limit(1).Order("name", false)

	stmt, err := base.Statement()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `pets` WHERE `pets`.`name` = 'rex'", stmt.String())
}

func TestQueryCountUpdateDelete(t *testing.T) {
	db, _ := tests.OpenDB(t, nil)

	for _, name := range []string{"rex", "fido", "tom", "kitty"} {
		tests.Create(t, db, "pet", map[string]interface{}{"name": name})
	}

	count, err := db.Query("pet").Count()
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	count, err = db.Query("pet").Offset(1).Limit(2).Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = db.Query("pet").Offset(3).Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	affected, err := db.Query("pet").Where("name", []interface{}{"rex", "fido"}).Value("user_id", 7).Update()
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	count, err = db.Query("pet").Where("user_id", 7).Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	affected, err = db.Query("pet").Where("user_id", 7).Delete()
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	first, err := db.Query("pet").Order("name", false).First()
	require.NoError(t, err)
	assert.Equal(t, "kitty", first.Get("name"))

	_, err = db.Query("pet").Where("name", "rex").FirstInsist()
	assert.ErrorIs(t, err, relate.ErrRecordNotFound)

	_, err = db.Query("pet").Update()
	assert.ErrorIs(t, err, relate.ErrInvalidData)
}

func TestQueryBlockGlobalWrite(t *testing.T) {
	db, _ := tests.OpenDB(t, nil, relate.WithBlockGlobalWrite())
	tests.Create(t, db, "pet", map[string]interface{}{"name": "rex"})

	_, err := db.Query("pet").Value("name", "fido").Update()
	assert.ErrorIs(t, err, relate.ErrMissingWhereClause)

	_, err = db.Query("pet").Delete()
	assert.ErrorIs(t, err, relate.ErrMissingWhereClause)

	affected, err := db.Query("pet").Where("name", "rex").Delete()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

func TestQueryUnknownModel(t *testing.T) {
	db, _ := tests.OpenDB(t, nil)

	q := db.Query("ghost").Where("name", "boo")
	assert.ErrorIs(t, q.Error, relate.ErrModelNotRegistered)

	_, err := q.Count()
	assert.ErrorIs(t, err, relate.ErrModelNotRegistered)

	_, err = q.Statement()
	assert.ErrorIs(t, err, relate.ErrModelNotRegistered)

	collection := db.All("ghost")
	assert.Equal(t, 0, collection.Count())
	assert.ErrorIs(t, collection.Err(), relate.ErrModelNotRegistered)

	_, err = db.Find("ghost", 1)
	assert.ErrorIs(t, err, relate.ErrModelNotRegistered)
}
