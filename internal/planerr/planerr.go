// Package planerr defines the error kinds a planning request can fail
// with, per spec.md §7. Each kind is a sentinel that callers can match
// with errors.Is; Error carries a Kind() accessor so an HTTP-adjacent
// caller can surface "a compact error with a kind tag and a human
// message" without leaking stack traces or internal identifiers.
package planerr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	GazetteerMissing  Kind = "GazetteerMissing"
	EmbedderFailure   Kind = "EmbedderFailure"
	IndexUnavailable  Kind = "IndexUnavailable"
	RankerItemFailure Kind = "RankerItemFailure"
	RouteProvider     Kind = "RouteProviderFailure"
	NoCoordinates     Kind = "NoCoordinates"
	EmptyCandidateSet Kind = "EmptyCandidateSet"
	InvalidRequest    Kind = "InvalidRequest"
)

// sentinels used with errors.Is; wrapped by New() with request-specific
// detail.
var (
	ErrGazetteerMissing  = errors.New("gazetteer source unavailable")
	ErrEmbedderFailure   = errors.New("embedder failed")
	ErrIndexUnavailable  = errors.New("vector index unavailable")
	ErrRankerItemFailure = errors.New("ranker failed for a candidate")
	ErrRouteProvider     = errors.New("route provider failed")
	ErrNoCoordinates     = errors.New("candidate has no coordinates")
	ErrEmptyCandidateSet = errors.New("no attractions found")
	ErrInvalidRequest    = errors.New("invalid request")
)

var sentinelByKind = map[Kind]error{
	GazetteerMissing:  ErrGazetteerMissing,
	EmbedderFailure:   ErrEmbedderFailure,
	IndexUnavailable:  ErrIndexUnavailable,
	RankerItemFailure: ErrRankerItemFailure,
	RouteProvider:     ErrRouteProvider,
	NoCoordinates:     ErrNoCoordinates,
	EmptyCandidateSet: ErrEmptyCandidateSet,
	InvalidRequest:    ErrInvalidRequest,
}

// Error is a kind-tagged, user-safe error.
type Error struct {
	kind    Kind
	sentinel error
	detail  string
}

func New(kind Kind, detail string) *Error {
	return &Error{kind: kind, sentinel: sentinelByKind[kind], detail: detail}
}

// Wrap builds an Error whose detail embeds the causing error's message,
// for the common "an external call failed" case.
func Wrap(kind Kind, action string, cause error) *Error {
	return &Error{kind: kind, sentinel: sentinelByKind[kind], detail: fmt.Sprintf("%s: %v", action, cause)}
}

func (e *Error) Error() string {
	if e.detail == "" {
		return fmt.Sprintf("%s: %v", e.kind, e.sentinel)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.detail)
}

func (e *Error) Unwrap() error { return e.sentinel }

func (e *Error) Kind() Kind { return e.kind }

// Is reports whether target is one of the package sentinels this error
// carries, or the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return t.kind == e.kind
	}
	return errors.Is(e.sentinel, target)
}

// KindOf extracts the Kind tag from err for metrics/logging labels,
// returning "unknown" for an error that didn't originate from New/Wrap.
func KindOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return string(e.kind)
	}
	return "unknown"
}
