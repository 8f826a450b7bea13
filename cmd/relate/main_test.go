package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relate-orm/relate"
	"github.com/relate-orm/relate/config"
)

func run(args ...string) (string, error) {
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relate.yaml")

	require.NoError(t, config.Write(path, &config.Config{
		Driver:   "sqlite",
		DSN:      filepath.Join(dir, "shop.db"),
		LogLevel: "silent",
		Models: []config.Model{
			{
				Name:    "user",
				NameKey: "name",
				Fields:  []config.Field{{Name: "name"}},
				Associations: []config.Association{
					{Name: "pets", CountCache: true, Dependent: "nullify"},
				},
			},
		},
	}))

	_, err := run("model", "--config", path, "--name", "pet", "--fields", "user_id:integer,name:string", "--associations", "")
	require.NoError(t, err)
	_, err = run("model", "--config", path, "--name", "pet", "--fields", "name:string")
	assert.Error(t, err, "pet is defined already")

	out, err := run("migrate", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "tables created\n", out)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	db, err := config.Open(context.Background(), cfg)
	require.NoError(t, err)

	user, err := db.Create("user", map[string]interface{}{"name": "jinzhu"})
	require.NoError(t, err)
	for _, name := range []string{"rex", "fido"} {
		pet, err := db.Build("pet", map[string]interface{}{"name": name})
		require.NoError(t, err)
		require.NoError(t, db.Model(user).Association("pets").Append(pet))
	}
	require.NoError(t, db.Save(user))
	_, err = db.Exec("UPDATE users SET pets_count = 7")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out, err = run("models", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "user (users)")
	assert.Contains(t, out, "  pets -> pet\n")

	out, err = run("count", "--config", path, "user", "jinzhu", "pets")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, err = run("ids", "--config", path, "user", "1", "pets")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2"}, strings.Fields(out))

	_, err = run("count", "--config", path, "user", "zig", "pets")
	var notFound *relate.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	_, err = run("recount", "--config", path, "pet", "toys")
	assert.ErrorIs(t, err, relate.ErrUnknownAssociation)

	out, err = run("recount", "--config", path, "user", "pets")
	require.NoError(t, err)
	assert.Equal(t, "recounted 1 user\n", out)

	db, err = config.Open(context.Background(), cfg)
	require.NoError(t, err)
	defer db.Close()
	user, err = db.Find("user", "jinzhu")
	require.NoError(t, err)
	assert.Equal(t, int64(2), user.Get("pets_count"))
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relate.yaml")

	out, err := run("init", "--config", path, "--driver", "postgres")
	require.NoError(t, err)
	assert.Equal(t, path+" created for postgres\n", out)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Driver)

	_, err = run("init", "--config", path, "--driver", "postgres")
	assert.Error(t, err)
}
