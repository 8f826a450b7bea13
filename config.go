package relate

import (
	"time"

	"github.com/relate-orm/relate/cache"
	"github.com/relate-orm/relate/logger"
	"github.com/relate-orm/relate/schema"
)

// Config relate config
type Config struct {
	// SkipDefaultTransaction by default Save and Delete run in a transaction together with
	// the association side effects, set it to true to run them on the plain connection
	SkipDefaultTransaction bool
	// BlockGlobalWrite refuses updates and deletes without conditions
	BlockGlobalWrite bool
	// NamingStrategy tables, columns naming strategy
	NamingStrategy schema.Namer
	// FieldTypes field type registry models are registered with
	FieldTypes *schema.Types
	// Logger
	Logger logger.Interface
	// NowFunc the function to be used when creating a new timestamp
	NowFunc func() time.Time
	// Cache result cache store, nil disables caching
	Cache cache.Store
	// CacheTTL caches every collection query for this long, 0 only caches queries asking for it
	CacheTTL time.Duration
}

// ConfigOption use functional option for relate Config.
type ConfigOption func(c *Config)

// WithConfig replaces the whole config.
func WithConfig(config Config) ConfigOption {
	return func(c *Config) {
		*c = config
	}
}

// WithSkipDefaultTransaction enable SkipDefaultTransaction.
func WithSkipDefaultTransaction() ConfigOption {
	return func(c *Config) {
		c.SkipDefaultTransaction = true
	}
}

// WithBlockGlobalWrite enable BlockGlobalWrite.
func WithBlockGlobalWrite() ConfigOption {
	return func(c *Config) {
		c.BlockGlobalWrite = true
	}
}

// WithNamingStrategy set schema namer.
func WithNamingStrategy(namer schema.Namer) ConfigOption {
	return func(c *Config) {
		c.NamingStrategy = namer
	}
}

// WithFieldTypes set the field type registry.
func WithFieldTypes(types *schema.Types) ConfigOption {
	return func(c *Config) {
		c.FieldTypes = types
	}
}

// WithLogger set logger.
func WithLogger(logger logger.Interface) ConfigOption {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithNowFunc set NowFunc.
func WithNowFunc(nowFunc func() time.Time) ConfigOption {
	return func(c *Config) {
		c.NowFunc = nowFunc
	}
}

// WithCache caches query results in store, ttl 0 only caches queries asking for it.
func WithCache(store cache.Store, ttl time.Duration) ConfigOption {
	return func(c *Config) {
		c.Cache = store
		c.CacheTTL = ttl
	}
}
