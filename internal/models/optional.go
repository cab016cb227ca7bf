package models

import "encoding/json"

// Optional is a tri-state field for partial-update payloads. It tells
// apart a key that was absent from the request body, a key set to
// explicit null, and a key carrying a value. encoding/json only calls
// UnmarshalJSON for keys present in the body, so the zero Optional
// means "absent".
type Optional[T any] struct {
	value   T
	present bool
	null    bool
}

// Some returns an Optional carrying a value. Mostly useful in tests.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, present: true}
}

// Null returns an Optional set to explicit null.
func Null[T any]() Optional[T] {
	return Optional[T]{present: true, null: true}
}

// Present reports whether the key appeared in the payload at all.
func (o Optional[T]) Present() bool { return o.present }

// IsNull reports whether the key was set to explicit null.
func (o Optional[T]) IsNull() bool { return o.present && o.null }

// Get returns the carried value and whether one was carried.
func (o Optional[T]) Get() (T, bool) {
	if !o.present || o.null {
		var zero T
		return zero, false
	}
	return o.value, true
}

// Ptr returns nil when the field is null and a pointer to the value
// otherwise. Only meaningful when Present.
func (o Optional[T]) Ptr() *T {
	if !o.present || o.null {
		return nil
	}
	v := o.value
	return &v
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.present = true
	if string(b) == "null" {
		o.null = true
		var zero T
		o.value = zero
		return nil
	}
	o.null = false
	return json.Unmarshal(b, &o.value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.present || o.null {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}
