package resolve

import (
	"errors"
	"fmt"
)

// ErrResolution is the base error for every resolution failure. All
// specific resolution errors wrap it, so callers that only care about the
// class can use:
//
//	if errors.Is(err, resolve.ErrResolution) { ... }
var ErrResolution = errors.New("resolve: resolution failed")

// Specific resolution failures. Each wraps ErrResolution.
var (
	// ErrNoStreamer is returned when no preferred-vendor renderer is found.
	ErrNoStreamer = fmt.Errorf("%w: no matching streamer device", ErrResolution)

	// ErrAmbiguousStreamer is returned when more than one preferred-vendor
	// renderer is found and no hint disambiguates them.
	ErrAmbiguousStreamer = fmt.Errorf("%w: multiple matching streamer devices", ErrResolution)

	// ErrUnreachableLocation is returned when a hint parsed as a location
	// URL but the device description could not be fetched from it.
	ErrUnreachableLocation = fmt.Errorf("%w: location unreachable", ErrResolution)

	// ErrNoNameMatch is returned when a friendly-name hint matches no
	// discovered device.
	ErrNoNameMatch = fmt.Errorf("%w: no device with friendly name", ErrResolution)

	// ErrProbe is returned by the vendor probe for every recoverable probe
	// failure (timeout, non-200, non-JSON, missing fields). Streamer
	// resolution treats it as a signal to fall through to friendly-name
	// matching, never as a hard failure.
	ErrProbe = fmt.Errorf("%w: vendor probe failed", ErrResolution)
)
