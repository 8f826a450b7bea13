package errtranslator_test

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/relate-orm/relate/errtranslator"
)

func TestSqliteErrTranslator(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	_, err = db.Exec("CREATE TABLE tags (id integer PRIMARY KEY, name text UNIQUE)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO tags (id, name) VALUES (1, 'go')")
	require.NoError(t, err)

	translator := errtranslator.SqliteErrTranslator{}

	_, err = db.Exec("INSERT INTO tags (id, name) VALUES (2, 'go')")
	assert.ErrorIs(t, translator.Translate(err), errtranslator.ErrDuplicatedKey)

	_, err = db.Exec("INSERT INTO tags (id, name) VALUES (1, 'rust')")
	assert.ErrorIs(t, translator.Translate(err), errtranslator.ErrDuplicatedKey)

	_, err = db.Exec("INSERT INTO missing (id) VALUES (1)")
	require.Error(t, err)
	assert.Equal(t, err, translator.Translate(err))
}

func TestPostgresErrTranslator(t *testing.T) {
	translator := errtranslator.PostgresErrTranslator{}

	pgErr := &pgconn.PgError{Code: "23505", Message: `duplicate key value violates unique constraint "tags_name_key"`}
	err := translator.Translate(pgErr)
	assert.ErrorIs(t, err, errtranslator.ErrDuplicatedKey)
	assert.ErrorAs(t, err, &pgErr)
	assert.Equal(t, `duplicated key not allowed, code: 23505, message: duplicate key value violates unique constraint "tags_name_key"`, err.Error())

	other := &pgconn.PgError{Code: "23503"}
	assert.Equal(t, error(other), translator.Translate(other))

	plain := errors.New("connection refused")
	assert.Equal(t, plain, translator.Translate(plain))
}
