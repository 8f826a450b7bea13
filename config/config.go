// Package config loads connection, cache and model type definitions from YAML.
package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/relate-orm/relate"
	"github.com/relate-orm/relate/cache"
	"github.com/relate-orm/relate/dialect"
	"github.com/relate-orm/relate/logger"
	"github.com/relate-orm/relate/schema"
	"github.com/relate-orm/relate/utils"
)

// Config represents the top-level YAML configuration.
type Config struct {
	Driver   string  `yaml:"driver"`
	DSN      string  `yaml:"dsn"`
	LogLevel string  `yaml:"log_level,omitempty"`
	Logger   string  `yaml:"logger,omitempty"`
	Cache    *Cache  `yaml:"cache,omitempty"`
	Models   []Model `yaml:"models"`
}

// Cache result cache settings, a Redis address or an in memory store of Size entries
type Cache struct {
	Redis    string        `yaml:"redis,omitempty"`
	Password string        `yaml:"password,omitempty"`
	DB       int           `yaml:"db,omitempty"`
	Size     int           `yaml:"size,omitempty"`
	TTL      time.Duration `yaml:"ttl"`
}

// Model a model type
type Model struct {
	Name         string        `yaml:"name"`
	Table        string        `yaml:"table,omitempty"`
	PrimaryKey   string        `yaml:"primary_key,omitempty"`
	NameKey      string        `yaml:"name_key,omitempty"`
	Fields       []Field       `yaml:"fields,omitempty"`
	Associations []Association `yaml:"associations,omitempty"`
}

// Field a field of a model type
type Field struct {
	Name    string      `yaml:"name"`
	Type    string      `yaml:"type,omitempty"`
	Default interface{} `yaml:"default,omitempty"`
	Null    bool        `yaml:"null,omitempty"`
}

// Association an association of a model type
type Association struct {
	Name            string      `yaml:"name"`
	Kind            string      `yaml:"kind,omitempty"`
	Foreign         string      `yaml:"foreign,omitempty"`
	As              string      `yaml:"as,omitempty"`
	Polymorphic     bool        `yaml:"polymorphic,omitempty"`
	Dependent       string      `yaml:"dependent,omitempty"`
	CountCache      bool        `yaml:"count_cache,omitempty"`
	CountCacheField string      `yaml:"count_cache_field,omitempty"`
	ForeignDefault  interface{} `yaml:"foreign_default,omitempty"`
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses a YAML config, empty settings fall back to RELATE_DRIVER, RELATE_DSN,
// RELATE_LOG_LEVEL and RELATE_LOGGER
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// applyEnv fills in empty connection fields from environment variables.
// YAML values take precedence; env vars are used only as fallback.
func (c *Config) applyEnv() {
	if c.Driver == "" {
		c.Driver = os.Getenv("RELATE_DRIVER")
	}
	if c.DSN == "" {
		c.DSN = os.Getenv("RELATE_DSN")
	}
	if c.LogLevel == "" {
		c.LogLevel = os.Getenv("RELATE_LOG_LEVEL")
	}
	if c.Logger == "" {
		c.Logger = os.Getenv("RELATE_LOGGER")
	}
}

func (c *Config) validate() error {
	if c.Driver == "" {
		c.Driver = "sqlite"
	}
	if c.DSN == "" {
		if c.Driver != "sqlite" {
			return fmt.Errorf("dsn is required for %s", c.Driver)
		}
		c.DSN = ":memory:"
	}

	if c.Cache != nil && c.Cache.Redis == "" && c.Cache.Size <= 0 {
		return fmt.Errorf("cache requires a redis address or a positive size")
	}

	if c.Logger != "" && !utils.Contains(logger.Backends, strings.ToLower(c.Logger)) {
		return fmt.Errorf("unsupported logger %q", c.Logger)
	}

	seen := map[string]bool{}
	for _, model := range c.Models {
		if model.Name == "" {
			return fmt.Errorf("models: a model has no name")
		}
		if seen[model.Name] {
			return fmt.Errorf("models: %s is defined twice", model.Name)
		}
		seen[model.Name] = true
	}
	return nil
}

// ModelConfigs returns the model type configurations relate registers
func (c *Config) ModelConfigs() ([]relate.ModelConfig, error) {
	configs := make([]relate.ModelConfig, 0, len(c.Models))

	for _, model := range c.Models {
		config := relate.ModelConfig{
			Name:       model.Name,
			Table:      model.Table,
			PrimaryKey: model.PrimaryKey,
			NameKey:    model.NameKey,
		}

		for _, field := range model.Fields {
			config.Fields = append(config.Fields, relate.FieldConfig{
				Name:      field.Name,
				Type:      schema.DataType(field.Type),
				Default:   field.Default,
				AllowNull: field.Null,
			})
		}

		for _, association := range model.Associations {
			dependent, err := relate.ParseDependent(association.Dependent)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", model.Name, association.Name, err)
			}

			config.Associations = append(config.Associations, relate.AssociationConfig{
				Name:            association.Name,
				Kind:            association.Kind,
				Foreign:         association.Foreign,
				As:              association.As,
				Polymorphic:     association.Polymorphic,
				Dependent:       dependent,
				CountCache:      association.CountCache,
				CountCacheField: association.CountCacheField,
				ForeignDefault:  association.ForeignDefault,
			})
		}

		configs = append(configs, config)
	}
	return configs, nil
}

// Register registers every model type of cfg into db
func Register(db *relate.DB, cfg *Config) error {
	configs, err := cfg.ModelConfigs()
	if err != nil {
		return err
	}
	return db.Register(configs...)
}

// Options returns the relate options of the log level and cache settings
func (c *Config) Options(ctx context.Context) ([]relate.ConfigOption, error) {
	l, err := logger.Open(c.Logger, logger.ParseLevel(c.LogLevel))
	if err != nil {
		return nil, err
	}
	opts := []relate.ConfigOption{relate.WithLogger(l)}

	if c.Cache != nil {
		var store cache.Store
		if c.Cache.Redis != "" {
			client, err := cache.DialRedis(ctx, c.Cache.Redis, c.Cache.Password, c.Cache.DB)
			if err != nil {
				return nil, fmt.Errorf("connecting to redis: %w", err)
			}
			store = cache.NewRedisStore(client, "relate")
		} else {
			store = cache.NewMemoryStore(c.Cache.Size)
		}
		opts = append(opts, relate.WithCache(store, c.Cache.TTL))
	}
	return opts, nil
}

// Open connects to the configured database and registers the configured model types
func Open(ctx context.Context, cfg *Config, opts ...relate.ConfigOption) (*relate.DB, error) {
	dialector, err := dialect.New(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	defaults, err := cfg.Options(ctx)
	if err != nil {
		return nil, err
	}

	db, err := relate.Open(dialector, append(defaults, opts...)...)
	if err != nil {
		return nil, err
	}

	if err := Register(db, cfg); err != nil {
		db.Close()
		return nil, err
	}
	return db.WithContext(ctx), nil
}
