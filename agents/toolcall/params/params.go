/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package params

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMissing is wrapped by every error reporting an absent required argument.
var ErrMissing = errors.New("missing required argument")

// Extract extracts a required parameter from args with type safety.
// Blank strings count as missing.
func Extract[T any](args map[string]any, name string) (T, error) {
	var zero T

	value, exists := args[name]
	if !exists || value == nil {
		return zero, fmt.Errorf("%w: %s parameter is required", ErrMissing, name)
	}
	v, err := convert[T](name, value)
	if err != nil {
		return zero, err
	}
	if s, ok := any(v).(string); ok && strings.TrimSpace(s) == "" {
		return zero, fmt.Errorf("%w: %s parameter must not be empty", ErrMissing, name)
	}
	return v, nil
}

// ExtractOptional extracts an optional parameter with a default value.
// A null value is treated as absent.
func ExtractOptional[T any](args map[string]any, name string, defaultValue T) (T, error) {
	value, exists := args[name]
	if !exists || value == nil {
		return defaultValue, nil
	}
	return convert[T](name, value)
}

// ExtractStringSlice extracts an optional array of strings. A lone string
// is accepted as a one-element slice.
func ExtractStringSlice(args map[string]any, name string) ([]string, error) {
	value, exists := args[name]
	if !exists || value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case []string:
		return v, nil
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be of type string, got %T", name, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s parameter must be an array of strings, got %T", name, value)
	}
}

// ExtractMap extracts an optional JSON object.
func ExtractMap(args map[string]any, name string) (map[string]any, error) {
	return ExtractOptional[map[string]any](args, name, nil)
}

func convert[T any](name string, value any) (T, error) {
	if v, ok := value.(T); ok {
		return v, nil
	}
	if v, ok := convertNumeric[T](value); ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("%s parameter must be of type %T, got %T", name, zero, value)
}

// convertNumeric handles JSON numbers (float64) and numeric strings, which
// models commonly send for ids such as milestone numbers.
func convertNumeric[T any](value any) (T, bool) {
	var zero T
	f, ok := value.(float64)
	if !ok {
		s, isString := value.(string)
		if !isString {
			return zero, false
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return zero, false
		}
		f = parsed
	}
	switch any(zero).(type) {
	case int:
		if f != float64(int(f)) {
			return zero, false
		}
		return any(int(f)).(T), true
	case int64:
		if f != float64(int64(f)) {
			return zero, false
		}
		return any(int64(f)).(T), true
	case float64:
		return any(f).(T), true
	}
	return zero, false
}
