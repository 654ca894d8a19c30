package schemaguard

import (
	"errors"
	"fmt"

	"github.com/kaptinlin/go-i18n"
)

// Sentinel error kinds, usable with errors.Is. These are the four kinds
// enumerated in spec §7; they are semantic, not type-named.
var (
	// ErrNoValidTokens is returned when a hard mask policy produced an empty
	// allow-set while the state machine was not in the done phase. Fatal for
	// the current attempt.
	ErrNoValidTokens = errors.New("no valid tokens for this decode step")

	// ErrInvalidTokenSelected is returned when the sampler picked a token
	// whose characters are JSON-valid but whose id is not an edge in the
	// active trie path. Fatal.
	ErrInvalidTokenSelected = errors.New("selected token is not a trie edge")

	// ErrEmptyConstraints is a build-time error: an object schema node
	// declares no keys, so no trie can be built for it.
	ErrEmptyConstraints = errors.New("schema object node has no declared keys")

	// ErrSchemaViolation is returned by the post-generation Validator when a
	// parsed object's keys are not a subset of its schema node's declared
	// keys. Recoverable via the retry policy.
	ErrSchemaViolation = errors.New("generated document violates schema key closure")
)

// DecodeError is the typed error surfaced to callers per spec §7: the kind,
// plus the partial key and position where meaningful.
type DecodeError struct {
	Kind       error  // one of the Err* sentinels above
	PartialKey string // key characters accumulated so far, if any
	Position   int    // index into the token log at which the error was raised
	Detail     string // free-form detail, e.g. the offending token id or violating keys
}

// NewDecodeError constructs a DecodeError for the given kind.
func NewDecodeError(kind error, partialKey string, position int, detail string) *DecodeError {
	return &DecodeError{Kind: kind, PartialKey: partialKey, Position: position, Detail: detail}
}

func (e *DecodeError) Error() string {
	switch {
	case e.PartialKey != "":
		return fmt.Sprintf("%s: partial key %q at position %d%s", e.Kind, e.PartialKey, e.Position, detailSuffix(e.Detail))
	case e.Detail != "":
		return fmt.Sprintf("%s at position %d: %s", e.Kind, e.Position, e.Detail)
	default:
		return fmt.Sprintf("%s at position %d", e.Kind, e.Position)
	}
}

func detailSuffix(d string) string {
	if d == "" {
		return ""
	}
	return " (" + d + ")"
}

// Unwrap exposes the sentinel kind so callers can use errors.Is(err, ErrNoValidTokens) etc.
func (e *DecodeError) Unwrap() error { return e.Kind }

// Localize renders the error through an i18n bundle, falling back to Error()
// when localizer is nil.
func (e *DecodeError) Localize(localizer *i18n.Localizer) string {
	if localizer == nil {
		return e.Error()
	}
	return localizer.Get(errorCode(e.Kind), i18n.Vars(map[string]any{
		"partialKey": e.PartialKey,
		"position":   e.Position,
		"detail":     e.Detail,
	}))
}

// errorCode maps a sentinel kind to its locale message key.
func errorCode(kind error) string {
	switch {
	case errors.Is(kind, ErrNoValidTokens):
		return "no_valid_tokens"
	case errors.Is(kind, ErrInvalidTokenSelected):
		return "invalid_token_selected"
	case errors.Is(kind, ErrEmptyConstraints):
		return "empty_constraints"
	case errors.Is(kind, ErrSchemaViolation):
		return "schema_violation"
	default:
		return "unknown_error"
	}
}
