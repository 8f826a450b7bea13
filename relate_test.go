package relate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relate-orm/relate"
	"github.com/relate-orm/relate/cache"
	"github.com/relate-orm/relate/migrator"
	"github.com/relate-orm/relate/result"
	"github.com/relate-orm/relate/utils/tests"
)

func countPets(t *testing.T, db *relate.DB) int64 {
	t.Helper()

	count, err := db.Query("pet").Count()
	require.NoError(t, err)
	return count
}

func TestTransaction(t *testing.T) {
	db, _ := tests.OpenDB(t, nil)
	failure := errors.New("give up")

	err := db.Transaction(func(tx *relate.DB) error {
		assert.True(t, tx.InTransaction())
		tests.Create(t, tx, "pet", map[string]interface{}{"name": "rex"})
		assert.Equal(t, int64(1), countPets(t, tx))
		return failure
	})
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, int64(0), countPets(t, db))
	assert.False(t, db.InTransaction())

	require.NoError(t, db.Transaction(func(tx *relate.DB) error {
		tests.Create(t, tx, "pet", map[string]interface{}{"name": "rex"})

		err := tx.Transaction(func(nested *relate.DB) error {
			tests.Create(t, nested, "pet", map[string]interface{}{"name": "fido"})
			return failure
		})
		assert.ErrorIs(t, err, failure)

		return tx.Transaction(func(nested *relate.DB) error {
			tests.Create(t, nested, "pet", map[string]interface{}{"name": "tom"})
			return nil
		})
	}))

	names, err := db.Query("pet").Order("id", false).Collection().Column("name")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"rex", "tom"}, names)

	assert.Panics(t, func() {
		db.Transaction(func(tx *relate.DB) error {
			tests.Create(t, tx, "pet", map[string]interface{}{"name": "kitty"})
			panic("boom")
		})
	})
	assert.Equal(t, int64(2), countPets(t, db))
}

func TestBeginCommitRollback(t *testing.T) {
	db, _ := tests.OpenDB(t, nil)

	assert.ErrorIs(t, db.Commit(), relate.ErrInvalidTransaction)
	assert.ErrorIs(t, db.Rollback(), relate.ErrInvalidTransaction)

	tx, err := db.Begin()
	require.NoError(t, err)
	tests.Create(t, tx, "pet", map[string]interface{}{"name": "rex"})
	require.NoError(t, tx.Rollback())
	assert.Equal(t, int64(0), countPets(t, db))

	tx, err = db.Begin()
	require.NoError(t, err)
	tests.Create(t, tx, "pet", map[string]interface{}{"name": "rex"})
	require.NoError(t, tx.Commit())
	assert.Equal(t, int64(1), countPets(t, db))
}

func TestSaveRollsBackOnAssociationFailure(t *testing.T) {
	db, _ := tests.OpenDB(t, nil)

	user := tests.Create(t, db, "user", map[string]interface{}{"name": "jinzhu"})
	pet, err := db.Build("pet", map[string]interface{}{"name": "rex"})
	require.NoError(t, err)
	require.NoError(t, db.Model(user).Association("pets").Append(pet))
	require.NoError(t, user.Set("name", "zhang"))

	// the pets table is gone, saving the pet fails after the user row was updated
	_, err = db.Exec("DROP TABLE `pets`")
	require.NoError(t, err)
	assert.Error(t, db.Save(user))

	assert.Equal(t, "jinzhu", tests.Reload(t, db, user).Get("name"))
}

func TestSaveNewOwnerRollsBack(t *testing.T) {
	db, _ := tests.OpenDB(t, nil)

	user, err := db.Build("user", map[string]interface{}{"name": "jinzhu"})
	require.NoError(t, err)
	pet, err := db.Build("pet", map[string]interface{}{"name": "rex"})
	require.NoError(t, err)
	require.NoError(t, db.Model(user).Association("pets").Append(pet))

	// the user row is inserted, then saving the pet fails
	_, err = db.Exec("DROP TABLE `pets`")
	require.NoError(t, err)
	assert.Error(t, db.Save(user))

	assert.False(t, user.Loaded())
	assert.Nil(t, user.ID())
	assert.Equal(t, int64(0), user.Get("pets_count"))
	assert.False(t, pet.Loaded())
	assert.Nil(t, pet.ID())
	assert.True(t, user.Changed())

	require.NoError(t, migrator.New(db).CreateTable())
	require.NoError(t, db.Save(user))

	found, err := db.Find("user", user.ID())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, int64(1), found.Get("pets_count"))

	ownerIDs, err := db.All("pet").Column("user_id")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{found.ID()}, ownerIDs)
}

func TestSaveInTransactionRollsBackToSavepoint(t *testing.T) {
	db, _ := tests.OpenDB(t, nil)

	require.NoError(t, db.Transaction(func(tx *relate.DB) error {
		user, err := tx.Build("user", map[string]interface{}{"name": "jinzhu"})
		require.NoError(t, err)
		pet, err := tx.Build("pet", map[string]interface{}{"name": "rex"})
		require.NoError(t, err)
		require.NoError(t, tx.Model(user).Association("pets").Append(pet))

		_, err = tx.Exec("DROP TABLE `pets`")
		require.NoError(t, err)
		assert.Error(t, tx.Save(user))
		assert.False(t, user.Loaded())

		count, err := tx.Query("user").Count()
		require.NoError(t, err)
		assert.Equal(t, int64(0), count, "the user insert is rolled back with the savepoint")
		return nil
	}))
}

func TestResultCache(t *testing.T) {
	store := cache.NewMemoryStore(100)
	db, recorder := tests.OpenDB(t, nil, relate.WithCache(store, time.Minute))
	selectPets := "SELECT * FROM `pets`"

	tests.Create(t, db, "pet", map[string]interface{}{"name": "rex"})
	recorder.Reset()

	for i := 0; i < 3; i++ {
		names, err := db.All("pet").Column("name")
		require.NoError(t, err)
		assert.Equal(t, []interface{}{"rex"}, names)
	}
	assert.Len(t, recorder.Statements(selectPets), 1)

	models, err := db.All("pet").AsArray()
	require.NoError(t, err)
	assert.Equal(t, int64(1), models[0].ID(), "cached rows are cast through the field types")

	// writes invalidate the cached rows of their table
	tests.Create(t, db, "pet", map[string]interface{}{"name": "fido"})
	assert.Equal(t, 2, db.All("pet").Count())
	assert.Len(t, recorder.Statements(selectPets), 2)

	// a negative ttl never caches
	for i := 0; i < 2; i++ {
		db.Query("pet").Cache(-1).Collection().Count()
	}
	assert.Len(t, recorder.Statements(selectPets), 4)

	// transactions read their own writes
	require.NoError(t, db.Transaction(func(tx *relate.DB) error {
		tests.Create(t, tx, "pet", map[string]interface{}{"name": "tom"})
		assert.Equal(t, 3, tx.All("pet").Count())
		return nil
	}))
	assert.Equal(t, 3, db.All("pet").Count())

	version, err := cache.Version(context.Background(), store, "pets")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, version, int64(3))
}

func TestContextAndDebug(t *testing.T) {
	db, _ := tests.OpenDB(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	scoped := db.WithContext(ctx)
	assert.Equal(t, ctx, scoped.Context())
	assert.Equal(t, context.Background(), db.Context())

	cancel()
	_, err := scoped.Query("pet").Count()
	assert.ErrorIs(t, err, context.Canceled)

	debug := db.Debug()
	assert.NotSame(t, db.Config, debug.Config)
	assert.Equal(t, int64(0), countPets(t, debug))
}

func TestOpenEnv(t *testing.T) {
	t.Setenv("RELATE_DRIVER", "")
	t.Setenv("RELATE_DSN", "")

	db, err := relate.OpenEnv()
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, "sqlite", db.Dialector.Name())
	require.NoError(t, db.DB().Ping())

	t.Setenv("RELATE_DRIVER", "oracle")
	_, err = relate.OpenEnv()
	assert.Error(t, err)
}

func TestRaw(t *testing.T) {
	db, _ := tests.OpenDB(t, nil)
	tests.Create(t, db, "pet", map[string]interface{}{"name": "rex", "user_id": 3})

	var name string
	require.NoError(t, db.Raw("SELECT name FROM pets WHERE user_id = ?", 3).Scan(&name))
	assert.Equal(t, "rex", name)

	cursor, err := db.Raw("SELECT id, name FROM pets").Query()
	require.NoError(t, err)
	tests.AssertRows(t, []result.Row{{"id": int64(1), "name": "rex"}}, cursor.Rows())

	affected, err := db.Exec("UPDATE pets SET name = ? WHERE id = ?", "fido", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

func TestDuplicatedKey(t *testing.T) {
	db, _ := tests.OpenDB(t, nil)
	_, err := db.Exec("CREATE UNIQUE INDEX `idx_users_name` ON `users` (`name`)")
	require.NoError(t, err)

	tests.Create(t, db, "user", map[string]interface{}{"name": "jinzhu"})
	_, err = db.Create("user", map[string]interface{}{"name": "jinzhu"})
	assert.ErrorIs(t, err, relate.ErrDuplicatedKey)

	count, err := db.Query("user").Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
