package domain

import "errors"

// FailureKind classifies why a search request produced no answer. The kinds
// are the only thing callers above the search client branch on.
type FailureKind string

const (
	// FailureAuth: the credential was rejected (401/403). Retrying cannot help.
	FailureAuth FailureKind = "auth"
	// FailureTransient: rate limited or server-side error (429/5xx).
	FailureTransient FailureKind = "transient"
	// FailureNetwork: timeout or connection failure before a response arrived.
	FailureNetwork FailureKind = "network"
	// FailureMalformed: the API answered 2xx but not in the expected shape.
	FailureMalformed FailureKind = "malformed"
	// FailureUnknown: anything unexpected; the fault-isolation catch-all.
	FailureUnknown FailureKind = "unknown"
)

// Failure is the typed error crossing the search-client boundary. Detail is
// for logs only and must never reach spoken output.
type Failure struct {
	Kind   FailureKind
	Detail string
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return "search failed: " + string(f.Kind)
	}
	return "search failed (" + string(f.Kind) + "): " + f.Detail
}

// Retryable reports whether a single immediate retry is worth attempting.
func (f *Failure) Retryable() bool {
	return f.Kind == FailureTransient || f.Kind == FailureNetwork
}

// KindOf extracts the failure kind from an error returned by a search
// client. Unclassified errors count as unknown.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return FailureUnknown
}
