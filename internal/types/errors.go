package types

import (
	"errors"
	"strings"

	"github.com/samber/lo"
)

type ErrorTag string

const (
	KeyErrorTag          ErrorTag = "KeyError"
	ReassignmentErrorTag ErrorTag = "ReassignmentError"
	TypeErrorTag         ErrorTag = "TypeError"
	ValueErrorTag        ErrorTag = "ValueError"
	ZeroDivisionErrorTag ErrorTag = "ZeroDivisionError"
)

// Exception is a runtime error that can be shown to the user as a value.
type Exception interface {
	error
	Exception() any
}

type Error struct {
	Tag   ErrorTag
	Err   error
	Extra map[string]any
}

var _ Exception = (*Error)(nil)

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Tag)
	}

	var b strings.Builder
	b.WriteString(string(e.Tag))
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Exception() any {
	tags := []any{e.Tag}
	for err := errors.Unwrap(e); err != nil; err = errors.Unwrap(err) {
		if e, ok := err.(*Error); ok {
			tags = append(tags, e.Tag)
		}
	}

	o := map[string]any{
		"tags": tags,
	}
	if e.Err != nil {
		o["message"] = e.Err.Error()
	}
	if len(e.Extra) != 0 {
		o = lo.Assign(o, e.Extra)
	}
	return o
}
