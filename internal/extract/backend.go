// Package extract provides the text extraction backends and the output
// normalizer for the document pipeline.
package extract

import (
	"context"
	"errors"
)

// ErrUnsupported signals that a backend cannot handle the given document.
// The orchestrator treats it like any other attempt failure and falls
// through to the next backend in the chain.
var ErrUnsupported = errors.New("unsupported document format")

// Backend turns document bytes into raw text. Implementations must honor
// ctx as a deadline hint but are not required to preempt work in progress;
// the orchestrator races every call against its own timers.
type Backend interface {
	// Name identifies the backend in error messages and logs.
	Name() string

	// Extract reads the document and returns its text content.
	Extract(ctx context.Context, data []byte) (string, error)
}
