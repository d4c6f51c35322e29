package analysis

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds surfaced by the engine
var (
	// ErrInvalidWindow reports a malformed analysis window, either an
	// unknown time-range token or an end before its start.
	ErrInvalidWindow = errors.New("invalid analysis window")

	// ErrSourceUnavailable reports a failed data source scan. The whole
	// query aborts; no retries happen inside the engine.
	ErrSourceUnavailable = errors.New("data source unavailable")

	// ErrCapExceeded stops the candidate scan when the working set is
	// full. Never returned to callers; surfaced as the truncated flag
	// on the response.
	ErrCapExceeded = errors.New("working set cap exceeded")
)

// sourceErr classifies a failed scan. Context errors pass through so a
// query timeout stays a timeout; everything else counts as a source
// failure.
func sourceErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, op, err)
}
