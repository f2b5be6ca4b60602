package discovery

import "errors"

// Domain errors for the discovery package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, discovery.ErrUnreachable) {
//	    // handle unreachable device description
//	}
var (
	// ErrUnreachable is returned when a device description URL cannot be fetched.
	ErrUnreachable = errors.New("discovery: device description unreachable")

	// ErrBadDescription is returned when a device description document cannot be parsed.
	ErrBadDescription = errors.New("discovery: malformed device description")
)
