package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// loadField resolves the value for a single struct field: the
// environment variable if set, otherwise the tag default, otherwise
// an error when the tag demands a value.
func loadField(v reflect.Value, envName string, t tag) error {
	envVal := os.Getenv(envName)

	if envVal == "" {
		switch {
		case t.Default != "":
			envVal = t.Default
		case t.Required:
			return fmt.Errorf("required environment variable %s not set", envName)
		case t.NotEmpty:
			return fmt.Errorf("environment variable %s must not be empty", envName)
		default:
			return nil
		}
	}

	return setValue(v, envVal)
}

// setValue parses s into the field's Go type. Durations use
// time.ParseDuration so sample intervals and timeouts read naturally
// ("5s", "250ms").
func setValue(v reflect.Value, s string) error {
	switch v.Kind() {
	case reflect.String:
		v.SetString(s)
		return nil

	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid bool: %w", err)
		}
		v.SetBool(b)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(s)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			v.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid int: %w", err)
		}
		v.SetInt(i)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid uint: %w", err)
		}
		v.SetUint(u)
		return nil

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid float: %w", err)
		}
		v.SetFloat(f)
		return nil

	case reflect.Slice:
		return setSlice(v, s)

	default:
		return fmt.Errorf("unsupported type: %s", v.Type())
	}
}

// setSlice splits s on commas and parses each element into the slice's
// element type. Used for endpoint lists and the like.
func setSlice(v reflect.Value, s string) error {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	slice := reflect.MakeSlice(v.Type(), len(parts), len(parts))

	for i, part := range parts {
		if err := setValue(slice.Index(i), strings.TrimSpace(part)); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}

	v.Set(slice)
	return nil
}
