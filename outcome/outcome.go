// Package outcome defines the failure taxonomy shared by every lookup stage.
// Stages return *Error values instead of panicking so that callers can branch
// on the kind and the stage that produced it.
package outcome

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindNone           Kind = ""
	KindInvalidInput   Kind = "invalid_input"
	KindNoMatch        Kind = "no_match"
	KindNoEquivalents  Kind = "no_equivalents"
	KindNoDataForYear  Kind = "no_data_for_year"
	KindInfrastructure Kind = "infrastructure"
)

// Stage names the pipeline step that produced a failure.
type Stage string

const (
	StageLatestYear  Stage = "latest_year"
	StageIdentity    Stage = "match_identity"
	StageEquivalents Stage = "find_equivalents"
	StageCosts       Stage = "lookup_costs"
	StageCandidates  Stage = "generic_candidates"
	StageRanking     Stage = "rank"
	StageQuery       Stage = "parse_query"
)

// Header carries the failure kind of a tool response whose body reports
// ok=false, so access logs and metrics can see domain failures served as 200.
const Header = "X-Tool-Outcome"

// Error is a classified failure. Err is set for infrastructure failures.
type Error struct {
	Kind    Kind
	Stage   Stage
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns a classified failure without an underlying cause.
func New(kind Kind, stage Stage, format string, args ...any) *Error {
	return &Error{Kind: kind, Stage: stage, Message: fmt.Sprintf(format, args...)}
}

// InvalidInput reports an empty or malformed query term.
func InvalidInput(stage Stage, format string, args ...any) *Error {
	return New(KindInvalidInput, stage, format, args...)
}

// Infrastructure wraps an unexpected catalog-access failure.
func Infrastructure(stage Stage, err error, message string) *Error {
	return &Error{Kind: KindInfrastructure, Stage: stage, Message: message, Err: err}
}

// KindOf returns the kind of err. Unclassified non-nil errors count as
// infrastructure failures.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return KindInfrastructure
}

// StageOf returns the stage recorded in err, or "" when err is unclassified.
func StageOf(err error) Stage {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Stage
	}
	return ""
}

// Is reports whether err is a classified failure of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
