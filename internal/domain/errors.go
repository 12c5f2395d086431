package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks missing or invalid client input.
	ErrValidation = errors.New("validation failed")
	// ErrEmptyCart is returned when checking out a cart without lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrUpstream wraps any failure talking to the external catalog.
	ErrUpstream = errors.New("upstream catalog failure")
)
