package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Optional is a PATCH field.  It tells an absent key (Set == false) apart
// from an explicit null (Set && Null) and from a value.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a set, non-null Optional.
func Some[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: v} }

// Null returns a set Optional holding null.
func Null[T any]() Optional[T] { return Optional[T]{Set: true, Null: true} }

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(b, &o.Value)
}

// Ptr returns nil for null and a pointer to the value otherwise.
func (o Optional[T]) Ptr() *T {
	if o.Null {
		return nil
	}
	v := o.Value
	return &v
}

// normalizeString trims a string Optional and turns blank values into null.
func normalizeString(o *Optional[string]) {
	if !o.Set || o.Null {
		return
	}
	o.Value = strings.TrimSpace(o.Value)
	if o.Value == "" {
		o.Null = true
	}
}

// NullIfBlank trims s and returns nil when nothing is left.  Forms submit
// untouched optional inputs as "", which must be stored as NULL.
func NullIfBlank(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
