package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a collaborator failure at the point where the
// provider's status code or error field is inspected, so the orchestrator
// never has to re-derive it from a flattened string.
type ErrorKind int

const (
	// KindInternal is an unclassified failure.
	KindInternal ErrorKind = iota
	// KindRateLimited marks quota and rate-limit rejections. These drive
	// the persistent outer retry loop.
	KindRateLimited
	// KindUnavailable marks transient provider-side failures worth an
	// inner retry (5xx, operation error code 13).
	KindUnavailable
	// KindMalformed marks a reply whose structured payload survived none
	// of the parse layers.
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindUnavailable:
		return "unavailable"
	case KindMalformed:
		return "malformed_response"
	default:
		return "internal"
	}
}

// Error is a collaborator failure tagged with its kind and the stage that
// produced it.
type Error struct {
	Kind  ErrorKind
	Stage string
	Err   error
}

func (e *Error) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// WrapError tags err with a kind. A nil err returns nil.
func WrapError(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the ErrorKind from err, or KindInternal when untagged.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}

// Provider phrases that indicate quota exhaustion. Matching is
// case-insensitive over the flattened error text.
var rateLimitIndicators = []string{
	"429",
	"resource_exhausted",
	"quota",
	"rate limit",
	"too many requests",
}

// IsRateLimited reports whether err should trigger the persistent retry
// loop. A structured KindRateLimited tag wins; otherwise the error text is
// matched against the known provider phrases.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if KindOf(err) == KindRateLimited {
		return true
	}
	return TextLooksRateLimited(err.Error())
}

// TextLooksRateLimited classifies an already-flattened error string.
func TextLooksRateLimited(s string) bool {
	lower := strings.ToLower(s)
	for _, indicator := range rateLimitIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
