package streammagic

import "errors"

// Package errors for the StreamMagic adapters.
var (
	// ErrCommand indicates a unary SMOIP control call failed at the
	// transport level.
	ErrCommand = errors.New("streammagic: command failed")

	// ErrChannel indicates the persistent state channel could not be
	// established or used.
	ErrChannel = errors.New("streammagic: state channel failed")

	// ErrNoLocation indicates the bound descriptor carries no usable
	// location URL to derive the device host from.
	ErrNoLocation = errors.New("streammagic: descriptor has no usable location")
)
