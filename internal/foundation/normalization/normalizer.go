// Package normalization maps free-form configuration strings onto typed enums.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// EnumNormalizer converts user input into one of a fixed set of enum values.
// Keys are matched case-insensitively after trimming whitespace.
type EnumNormalizer[T comparable] struct {
	enumName     string
	values       map[string]T
	defaultValue T
	validKeys    []string
}

// NewEnumNormalizer creates an enum normalizer with descriptive error messages.
func NewEnumNormalizer[T comparable](enumName string, values map[string]T, defaultValue T) *EnumNormalizer[T] {
	normalized := make(map[string]T, len(values))
	keys := make([]string, 0, len(values))
	for k, v := range values {
		key := clean(k)
		normalized[key] = v
		if key != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return &EnumNormalizer[T]{
		enumName:     enumName,
		values:       normalized,
		defaultValue: defaultValue,
		validKeys:    keys,
	}
}

// Normalize converts raw input to an enum value, returning the default on unknown input.
func (e *EnumNormalizer[T]) Normalize(raw string) T {
	if v, ok := e.Lookup(raw); ok {
		return v
	}
	return e.defaultValue
}

// Lookup reports whether raw names a known value.
func (e *EnumNormalizer[T]) Lookup(raw string) (T, bool) {
	v, ok := e.values[clean(raw)]
	return v, ok
}

// NormalizeWithValidation converts raw input or explains why it cannot.
func (e *EnumNormalizer[T]) NormalizeWithValidation(raw string) (T, error) {
	if v, ok := e.Lookup(raw); ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q, valid options: %v", e.enumName, raw, e.validKeys)
}

// ValidValues returns all accepted spellings, sorted.
func (e *EnumNormalizer[T]) ValidValues() []string {
	out := make([]string, len(e.validKeys))
	copy(out, e.validKeys)
	return out
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
