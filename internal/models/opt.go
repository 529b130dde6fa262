package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Opt is an optional backend value. The backend sends options either as
// null or as a zero/one element array ([] or ["x"]); a bare value is also
// accepted. Opt always encodes in the array form.
type Opt[T any] struct {
	Value T
	Set   bool
}

func Some[T any](v T) Opt[T] { return Opt[T]{Value: v, Set: true} }

func None[T any]() Opt[T] { return Opt[T]{} }

func (o Opt[T]) Get() (T, bool) { return o.Value, o.Set }

// Or returns the value, or fallback when unset.
func (o Opt[T]) Or(fallback T) T {
	if o.Set {
		return o.Value
	}
	return fallback
}

func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("[]"), nil
	}
	return json.Marshal([]T{o.Value})
}

func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = Opt[T]{}
		return nil
	}
	if data[0] == '[' {
		var arr []T
		if err := json.Unmarshal(data, &arr); err != nil {
			return err
		}
		switch len(arr) {
		case 0:
			*o = Opt[T]{}
		case 1:
			*o = Some(arr[0])
		default:
			return fmt.Errorf("optional value: expected at most one element, got %d", len(arr))
		}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// Timestamp is a backend time in nanoseconds since the Unix epoch.
type Timestamp int64

func TimestampOf(t time.Time) Timestamp { return Timestamp(t.UnixNano()) }

func (t Timestamp) Time() time.Time { return time.Unix(0, int64(t)).UTC() }

func (t Timestamp) IsZero() bool { return t == 0 }
