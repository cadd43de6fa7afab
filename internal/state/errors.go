package state

import (
	"errors"
	"strings"
)

var (
	// ErrCorrupted means the state file exists but cannot be trusted. The
	// file is never rewritten in that case.
	ErrCorrupted = errors.New("state file is corrupted")
	ErrWrite     = errors.New("state file write failed")
)

// Error carries the path of the state file with the failure kind.
type Error struct {
	Kind error
	Path string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Path != "" {
		b.WriteString(" (")
		b.WriteString(e.Path)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
