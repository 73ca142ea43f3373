package schema

import (
	"errors"
	"fmt"

	"github.com/aretw0/chatflow/pkg/domain"
)

// SchemaError represents a single payload validation failure.
type SchemaError struct {
	NodeID  string         // Node the payload belongs to
	Variant domain.Variant // Declared variant of the node
	Field   string         // Payload field name, empty when the whole node is at fault
	Reason  string         // Human-readable reason for failure
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("node %q (%s): %s", e.NodeID, e.Variant, e.Reason)
	}
	return fmt.Sprintf("node %q (%s): field %q: %s", e.NodeID, e.Variant, e.Field, e.Reason)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d schema errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// SchemaErrors flattens err into its *SchemaError values.
func SchemaErrors(err error) []*SchemaError {
	var out []*SchemaError
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		for _, e := range aggr.Errors {
			out = append(out, SchemaErrors(e)...)
		}
		return out
	}
	var se *SchemaError
	if errors.As(err, &se) {
		out = append(out, se)
	}
	return out
}

func join(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return &AggregateError{Errors: errs}
	}
}
