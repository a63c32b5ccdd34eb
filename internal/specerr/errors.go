// Package specerr defines the typed error kinds used across specindex:
// NotFound, Network, Parse, Integrity, and Usage. Callers should wrap a
// sentinel with fmt.Errorf("...: %w", err) and check with errors.Is,
// matching the wrapping idiom used throughout the index store.
package specerr

import "errors"

var (
	// ErrNotFound covers an unknown spec name, a missing snapshot for a
	// requested sha, or a section absent from a snapshot.
	ErrNotFound = errors.New("not found")

	// ErrNetwork covers HTTP/DNS failure fetching HTML or version metadata.
	// Never cached; the existing index is left intact.
	ErrNetwork = errors.New("network error")

	// ErrParse covers a selector, regex, or schema-mismatch error while
	// parsing spec HTML. No partial snapshot is written.
	ErrParse = errors.New("parse error")

	// ErrIntegrity covers a database invariant violation (e.g. a duplicate
	// anchor). Fatal for the operation; the transaction rolls back.
	ErrIntegrity = errors.New("integrity error")

	// ErrUsage covers a malformed "spec#anchor" input or an unknown
	// direction value. Returned with a usage hint attached by the caller.
	ErrUsage = errors.New("usage error")
)

// Is reports whether err (or any error it wraps) matches kind.
func Is(err, kind error) bool {
	return errors.Is(err, kind)
}
