package repository

import "errors"

var (
	// ErrNotFound is returned when no live row matches.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrUsageExhausted is returned when a coupon has no remaining uses.
	ErrUsageExhausted = errors.New("coupon usage limit reached")
)
