package llm

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies provider failures so callers can branch without
// matching on error strings.
type Kind int

const (
	KindGeneric Kind = iota
	KindNotConfigured
	KindQuota
	KindSafety
)

// Error wraps a provider failure with its classification.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with the given kind.
func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Errorf formats a new classified error.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the classification of err, KindGeneric when untagged.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindGeneric
}

// IsNotConfigured reports whether err means the provider has no usable key.
func IsNotConfigured(err error) bool { return KindOf(err) == KindNotConfigured }

// IsQuota reports whether err is a rate-limit or quota exhaustion failure.
func IsQuota(err error) bool { return KindOf(err) == KindQuota }

// IsSafety reports whether the response was blocked by content filters.
func IsSafety(err error) bool { return KindOf(err) == KindSafety }

// Classify tags an upstream error by inspecting its message. Vendor SDKs
// surface quota and safety blocks as opaque errors, so substring matching
// is the only portable signal.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "429"):
		return NewError(KindQuota, err)
	case strings.Contains(msg, "safety") ||
		strings.Contains(msg, "blocked") ||
		strings.Contains(msg, "prohibited_content"):
		return NewError(KindSafety, err)
	default:
		return NewError(KindGeneric, err)
	}
}
