package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by lookups when no entity matches. Callers decide
// whether absence is an error (membership targets a named rule) or a valid
// state (delete of an already absent rule).
var ErrNotFound = errors.New("not found")

// ConfigurationError reports a caller-supplied name that does not resolve to
// exactly one entity visible in the current scope. It is terminal for the
// invocation and never retried.
type ConfigurationError struct {
	Kind    string // "rule", "vm", "zone", ...
	Name    string
	Matches int // number of entities the name matched
}

func (e *ConfigurationError) Error() string {
	if e.Matches > 1 {
		return fmt.Sprintf("ambiguous %s: %s matches %d entities in scope", e.Kind, e.Name, e.Matches)
	}
	return fmt.Sprintf("unknown %s: %s", e.Kind, e.Name)
}

// NewUnknownError reports a name with zero matches.
func NewUnknownError(kind, name string) *ConfigurationError {
	return &ConfigurationError{Kind: kind, Name: name}
}

// NewAmbiguousError reports a name with more than one match.
func NewAmbiguousError(kind, name string, matches int) *ConfigurationError {
	return &ConfigurationError{Kind: kind, Name: name, Matches: matches}
}

// ProviderError wraps a failed CloudStack API call or a failed asynchronous
// job. Terminal; the invocation must be re-run by the caller.
type ProviderError struct {
	Op  string // API command that failed
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err as a provider failure of op.
func NewProviderError(op string, err error) *ProviderError {
	return &ProviderError{Op: op, Err: err}
}
