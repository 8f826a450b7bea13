package relate_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relate-orm/relate"
	"github.com/relate-orm/relate/schema"
	"github.com/relate-orm/relate/utils/tests"
)

func TestModelChanges(t *testing.T) {
	db, _ := tests.OpenDB(t, nil)

	user, err := db.Build("user", map[string]interface{}{"name": "jinzhu", "age": "18"})
	require.NoError(t, err)
	assert.Equal(t, "user#new", user.String())
	assert.False(t, user.Loaded())
	assert.ErrorIs(t, user.LoadedInsist(), relate.ErrNotLoaded)
	assert.Equal(t, int64(18), user.Get("age"))
	assert.Equal(t, int64(0), user.Get("pets_count"))
	assert.Equal(t, []string{"name", "age"}, user.ChangedFields())

	require.NoError(t, db.Save(user))
	assert.Equal(t, "user#1", user.String())
	assert.True(t, user.Loaded())
	assert.False(t, user.Changed())

	require.NoError(t, user.Set("age", 20))
	assert.True(t, user.Changed("age"))
	assert.False(t, user.Changed("name"))
	assert.Equal(t, int64(18), user.OriginalValueOf("age"))

	// setting the loaded value back is no change
	require.NoError(t, user.Set("age", int64(18)))
	assert.False(t, user.Changed())

	assert.ErrorIs(t, user.Set("nickname", "jz"), relate.ErrInvalidField)
	assert.Error(t, user.Set("age", "eighteen"))

	fields := user.Fields()
	fields["name"] = "changed"
	assert.Equal(t, "jinzhu", user.Get("name"), "Fields returns a copy")
	assert.Equal(t, int64(1), user.Get(":primary_key"))
}

func TestModelUpdate(t *testing.T) {
	db, recorder := tests.OpenDB(t, nil)
	user := tests.Create(t, db, "user", map[string]interface{}{"name": "jinzhu", "age": 18})

	require.NoError(t, user.Set("age", 19))
	recorder.Reset()
	require.NoError(t, db.Save(user))
	assert.Equal(t, []string{"UPDATE `users` SET `age`=19 WHERE `users`.`id` = 1"}, recorder.Statements("UPDATE"))

	reloaded := tests.Reload(t, db, user)
	assert.Equal(t, int64(19), reloaded.Get("age"))
	assert.Equal(t, "jinzhu", reloaded.Get("name"))
}

func TestModelJSON(t *testing.T) {
	db, _ := tests.OpenDB(t, nil)
	user := tests.Create(t, db, "user", map[string]interface{}{"name": "jinzhu"})

	data, err := json.Marshal(user)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"jinzhu","age":null,"pets_count":0}`, string(data))
}

func TestModelTimestamps(t *testing.T) {
	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	db, recorder := tests.OpenDB(t, []relate.ModelConfig{{
		Name: "note",
		Fields: []relate.FieldConfig{
			{Name: "body"},
			{Name: "created_at", Type: schema.Timestamp, AllowNull: true},
			{Name: "updated_at", Type: schema.Timestamp, AllowNull: true},
		},
	}}, relate.WithNowFunc(func() time.Time { return clock }))

	note := tests.Create(t, db, "note", map[string]interface{}{"body": "draft"})
	assert.Equal(t, clock, note.Get("created_at"))
	assert.Equal(t, clock, note.Get("updated_at"))

	created := clock
	clock = clock.Add(time.Hour)
	recorder.Reset()

	require.NoError(t, db.Save(note))
	assert.Empty(t, recorder.Statements("UPDATE"), "nothing changed")

	require.NoError(t, note.Set("body", "final"))
	require.NoError(t, db.Save(note))
	assert.Equal(t, created, note.Get("created_at"))
	assert.Equal(t, clock, note.Get("updated_at"))

	updates := recorder.Statements("UPDATE")
	require.Len(t, updates, 1)
	assert.True(t, strings.HasPrefix(updates[0], "UPDATE `notes` SET `body`='final',`updated_at`="), updates[0])
	assert.False(t, note.Changed())
}
