package adapter

import "errors"

// Package errors for adapter binding and browsing.
var (
	// ErrNoImplementation indicates no registered adapter matches the
	// requested type or model name.
	ErrNoImplementation = errors.New("adapter: no registered implementation")

	// ErrBrowse indicates a content directory browse failed.
	ErrBrowse = errors.New("adapter: browse failed")

	// ErrNotFound indicates a browsed container or item does not exist.
	ErrNotFound = errors.New("adapter: object not found")
)
