// Package cuemap implements the CueMap temporal-associative memory engine:
// cue-indexed storage, selective-intersection recall, reinforcement,
// salience scoring, periodic consolidation, and binary snapshotting.
package cuemap

import (
	"errors"
	"fmt"
)

// Kind classifies an Error so boundary layers can map it to a transport
// status without string matching.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidCue
	KindInvalidQuery
	KindTenantMissing
	KindSnapshotIO
	KindSnapshotCorrupt
	KindAuthRequired
	KindAuthInvalid
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidCue:
		return "invalid_cue"
	case KindInvalidQuery:
		return "invalid_query"
	case KindTenantMissing:
		return "tenant_missing"
	case KindSnapshotIO:
		return "snapshot_io"
	case KindSnapshotCorrupt:
		return "snapshot_corrupt"
	case KindAuthRequired:
		return "auth_required"
	case KindAuthInvalid:
		return "auth_invalid"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Error is CueMap's typed error: callers switch on Kind rather than
// matching against bare sentinel values.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newErr(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func wrapErr(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func ErrNotFound(msg string) *Error           { return newErr(KindNotFound, msg) }
func ErrInvalidCue(msg string) *Error         { return newErr(KindInvalidCue, msg) }
func ErrInvalidQuery(msg string) *Error       { return newErr(KindInvalidQuery, msg) }
func ErrTenantMissing(msg string) *Error      { return newErr(KindTenantMissing, msg) }
func ErrSnapshotIO(msg string, c error) *Error     { return wrapErr(KindSnapshotIO, msg, c) }
func ErrSnapshotCorrupt(msg string, c error) *Error { return wrapErr(KindSnapshotCorrupt, msg, c) }
func ErrAuthRequired(msg string) *Error       { return newErr(KindAuthRequired, msg) }
func ErrAuthInvalid(msg string) *Error        { return newErr(KindAuthInvalid, msg) }
func ErrRateLimited(msg string) *Error        { return newErr(KindRateLimited, msg) }

// KindOf returns the Kind of err if it is (or wraps) a *Error, else KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
