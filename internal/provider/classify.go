// Package provider holds the failure taxonomy shared by the adapters that talk
// to external speech and language providers.
package provider

import (
	"errors"
	"strings"
)

// ErrMissingCredential is returned when an adapter has no API key configured.
var ErrMissingCredential = errors.New("provider credential missing")

// Failure is the class of a failed provider call.
type Failure int

const (
	GenericFailure Failure = iota
	QuotaExceeded
)

func (f Failure) String() string {
	switch f {
	case QuotaExceeded:
		return "quota_exceeded"
	default:
		return "generic_failure"
	}
}

// IsQuotaText reports whether a provider error text signals exhausted quota or
// credits.
func IsQuotaText(s string) bool {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "insufficient_quota"):
		return true
	case strings.Contains(s, "quota") && strings.Contains(s, "exceeded"):
		return true
	case strings.Contains(s, "429") && strings.Contains(s, "quota"):
		return true
	}
	return false
}

// Classify maps a provider error onto a Failure. A nil error is generic; callers
// only classify errors they already know are failures.
func Classify(err error) Failure {
	if err != nil && IsQuotaText(err.Error()) {
		return QuotaExceeded
	}
	return GenericFailure
}
