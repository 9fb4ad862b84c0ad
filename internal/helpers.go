package internal

import (
	"strconv"
)

// Value returns the request value stored under key, or the zero T when it is
// missing or of another type.
func Value[T any](c Context, key any) T {
	v, _ := c.Get(key).(T)
	return v
}

// QueryCount parses an optional non-negative integer query parameter that
// must fit in T. An absent parameter yields zero. Malformed, negative or
// overflowing values are a 400.
func QueryCount[T ~int32 | ~int | ~int64](c Context, name string) (T, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}

	var zero T
	bits := strconv.IntSize
	switch any(zero).(type) {
	case int32:
		bits = 32
	case int64:
		bits = 64
	}

	n, err := strconv.ParseInt(raw, 10, bits)
	if err != nil || n < 0 {
		return 0, ErrBadRequest(name+" must be a non-negative integer", WithError(err))
	}
	return T(n), nil
}
