package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jinzhu/now"
)

// DataType the type tag of a field
type DataType string

const (
	Integer   DataType = "integer"
	Float     DataType = "float"
	String    DataType = "string"
	Boolean   DataType = "boolean"
	Timestamp DataType = "timestamp"
)

// Caster normalizes a value read from storage, a serialized row or the application
type Caster func(value interface{}) (interface{}, error)

// Field a column of a model
type Field struct {
	Name       string
	DataType   DataType
	Default    interface{}
	AllowNull  bool
	PrimaryKey bool
	Meta       *Meta
	cast       Caster
}

// Cast converts value to the go type of the field, nil stays nil
func (field *Field) Cast(value interface{}) (interface{}, error) {
	if value == nil {
		if !field.AllowNull && field.Default != nil {
			return field.Default, nil
		}
		return nil, nil
	}

	if field.cast == nil {
		return value, nil
	}

	v, err := field.cast(value)
	if err != nil {
		return nil, fmt.Errorf("field %v.%v: %w", field.Meta.Name, field.Name, err)
	}
	return v, nil
}

// Types maps a field type tag to its caster
type Types struct {
	mu      sync.RWMutex
	casters map[DataType]Caster
}

// NewTypes returns the built in field types
func NewTypes() *Types {
	return &Types{casters: map[DataType]Caster{
		Integer:   castInteger,
		Float:     castFloat,
		String:    castString,
		Boolean:   castBoolean,
		Timestamp: castTimestamp,
	}}
}

// Register adds or replaces the caster of a field type
func (types *Types) Register(dataType DataType, caster Caster) {
	types.mu.Lock()
	defer types.mu.Unlock()
	types.casters[dataType] = caster
}

// Lookup returns the caster registered for dataType
func (types *Types) Lookup(dataType DataType) (Caster, bool) {
	types.mu.RLock()
	defer types.mu.RUnlock()
	caster, ok := types.casters[dataType]
	return caster, ok
}

func castInteger(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("%v overflows int64", v)
		}
		return int64(v), nil
	case float32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case json.Number:
		return v.Int64()
	case []byte:
		return castInteger(string(v))
	case string:
		if v == "" {
			return nil, nil
		}
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	}
	return nil, fmt.Errorf("can not convert %#v to integer", value)
}

func castFloat(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case []byte:
		return castFloat(string(v))
	case string:
		if v == "" {
			return nil, nil
		}
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	}

	i, err := castInteger(value)
	if err != nil {
		return nil, fmt.Errorf("can not convert %#v to float", value)
	}
	return float64(i.(int64)), nil
}

func castString(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case json.Number:
		return v.String(), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	return fmt.Sprint(value), nil
}

func castBoolean(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case []byte:
		return castBoolean(string(v))
	case string:
		if v == "" {
			return false, nil
		}
		return strconv.ParseBool(v)
	}

	i, err := castInteger(value)
	if err != nil {
		return nil, fmt.Errorf("can not convert %#v to boolean", value)
	}
	return i.(int64) != 0, nil
}

func castTimestamp(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return *v, nil
	case []byte:
		return castTimestamp(string(v))
	case string:
		if v == "" {
			return nil, nil
		}
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t, nil
		}

		t, err := now.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %v as time: %w", v, err)
		}
		return t, nil
	}

	i, err := castInteger(value)
	if err != nil {
		return nil, fmt.Errorf("can not convert %#v to timestamp", value)
	}
	return time.Unix(i.(int64), 0), nil
}
