package intent

import (
	"fmt"
	"strings"
)

const (
	ContextSelect  = "select"
	ContextWhere   = "where"
	ContextOrderBy = "order_by"
)

type UnknownColumnError struct {
	Context   string
	Name      string
	Available []string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("column %q not found in %s clause; available columns: %s",
		e.Name, e.Context, strings.Join(e.Available, ", "))
}

type MalformedIntentError struct {
	Field  string
	Reason string
	Err    error
}

func (e *MalformedIntentError) Error() string {
	msg := "malformed intent"
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedIntentError) Unwrap() error {
	return e.Err
}

func malformed(field, format string, args ...any) error {
	return &MalformedIntentError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
