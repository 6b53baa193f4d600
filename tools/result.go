package tools

import (
	"github.com/giygas/drugcost-api/outcome"
)

// Result is the uniform tool outcome. OK is true exactly when Data is set;
// otherwise Kind, Stage and Error describe the failure.
type Result[T any] struct {
	OK    bool          `json:"ok"`
	Kind  outcome.Kind  `json:"kind,omitempty"`
	Stage outcome.Stage `json:"stage,omitempty"`
	Error string        `json:"error,omitempty"`
	Data  T             `json:"data,omitempty"`
}

func succeed[T any](data T) Result[T] {
	return Result[T]{OK: true, Data: data}
}

func fail[T any](err error) Result[T] {
	return Result[T]{
		Kind:  outcome.KindOf(err),
		Stage: outcome.StageOf(err),
		Error: err.Error(),
	}
}

func from[T any](data T, err error) Result[T] {
	if err != nil {
		return fail[T](err)
	}
	return succeed(data)
}
