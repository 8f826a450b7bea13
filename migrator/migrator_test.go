package migrator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relate-orm/relate"
	"github.com/relate-orm/relate/dialect"
	"github.com/relate-orm/relate/logger"
	"github.com/relate-orm/relate/migrator"
	"github.com/relate-orm/relate/utils/tests"
)

func TestCreateTableSQL(t *testing.T) {
	db, _ := tests.OpenDB(t, nil)
	meta, err := db.Meta("user")
	require.NoError(t, err)

	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS `users` (`id` integer PRIMARY KEY AUTOINCREMENT,`name` text,`age` integer,`pets_count` integer NOT NULL DEFAULT 0)",
		migrator.New(db).CreateTableSQL(meta),
	)

	// opening postgres does not connect
	pg, err := relate.Open(dialect.Postgres("postgres://localhost/relate"), relate.WithLogger(logger.Discard))
	require.NoError(t, err)
	defer pg.Close()
	require.NoError(t, pg.Register(tests.Models()...))

	meta, err = pg.Meta("toy")
	require.NoError(t, err)
	assert.Equal(t,
		`CREATE TABLE IF NOT EXISTS "toys" ("id" bigserial PRIMARY KEY,"owner_id" bigint,"owner_model" text,"name" text)`,
		migrator.New(pg).CreateTableSQL(meta),
	)

	meta, err = pg.Meta("pet")
	require.NoError(t, err)
	assert.Equal(t,
		`CREATE TABLE IF NOT EXISTS "pets" ("id" bigserial PRIMARY KEY,"user_id" bigint NOT NULL DEFAULT 0,"name" text)`,
		migrator.New(pg).CreateTableSQL(meta),
	)
}

func TestHasAndDropTable(t *testing.T) {
	db, _ := tests.OpenDB(t, nil)
	m := migrator.New(db)

	for _, model := range db.Models() {
		exists, err := m.HasTable(model)
		require.NoError(t, err)
		assert.True(t, exists, model)
	}

	require.NoError(t, m.DropTable("toy"))
	exists, err := m.HasTable("toy")
	require.NoError(t, err)
	assert.False(t, exists)

	// dropping twice is fine while CheckExistsBeforeDropping is set
	require.NoError(t, m.DropTable("toy"))
	m.CheckExistsBeforeDropping = false
	assert.Error(t, m.DropTable("toy"))

	require.NoError(t, m.CreateTable("toy"))
	exists, err = m.HasTable("toy")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = m.HasTable("ghost")
	assert.ErrorIs(t, err, relate.ErrModelNotRegistered)
	assert.ErrorIs(t, m.CreateTable("ghost"), relate.ErrModelNotRegistered)
}
