// Package cache stores materialized query results. Entries are keyed by the rendered
// statement and the current version of every table it reads, writes bump the version
// of the tables they touch so stale entries are never read again.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrCacheMiss the key is not present
var ErrCacheMiss = errors.New("cache miss")

// Store is the backend of the result cache
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

const versionPrefix = "relate:version:"

// Version returns the version of table, 0 if it was never written
func Version(ctx context.Context, store Store, table string) (int64, error) {
	value, err := store.Get(ctx, versionPrefix+table)
	if errors.Is(err, ErrCacheMiss) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return strconv.ParseInt(string(value), 10, 64)
}

// Bump invalidates every entry reading table
func Bump(ctx context.Context, store Store, table string) error {
	_, err := store.Incr(ctx, versionPrefix+table)
	return err
}

// Key returns the cache key of a statement reading tables
func Key(ctx context.Context, store Store, tables []string, sql string, vars ...interface{}) (string, error) {
	sorted := append([]string(nil), tables...)
	sort.Strings(sorted)

	var key strings.Builder
	key.WriteString("relate:result:")
	for idx, table := range sorted {
		version, err := Version(ctx, store, table)
		if err != nil {
			return "", err
		}
		if idx > 0 {
			key.WriteByte(',')
		}
		fmt.Fprintf(&key, "%s@%d", table, version)
	}

	hash := sha1.New()
	hash.Write([]byte(sql))
	for _, v := range vars {
		fmt.Fprintf(hash, "|%T:%v", v, v)
	}
	key.WriteByte(':')
	key.WriteString(hex.EncodeToString(hash.Sum(nil)))
	return key.String(), nil
}
