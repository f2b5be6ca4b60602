package orchestrator

import (
	"errors"
	"fmt"
)

// Package errors.
var (
	// ErrNoMediaServer indicates an operation needed a media server but
	// none is bound.
	ErrNoMediaServer = errors.New("orchestrator: no media server bound")

	// ErrConstruction indicates the system could not be assembled.
	ErrConstruction = errors.New("orchestrator: construction failed")
)

// ProtocolFault is the one fault type transport commands surface. Every
// vendor-specific error from an adapter is wrapped at the orchestrator
// boundary, carrying the attempted operation's name; callers never see
// adapter error types directly.
type ProtocolFault struct {
	// Op names the attempted operation (e.g. "pause", "set_volume").
	Op string

	// Err is the underlying adapter failure.
	Err error
}

func (f *ProtocolFault) Error() string {
	return fmt.Sprintf("orchestrator: %s failed: %v", f.Op, f.Err)
}

func (f *ProtocolFault) Unwrap() error {
	return f.Err
}

// fault wraps an adapter error as a ProtocolFault, passing nil through.
func fault(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ProtocolFault{Op: op, Err: err}
}
