package graphstore

import (
	"fmt"
	"strings"

	"github.com/aretw0/chatflow/pkg/validator"
)

// IntegrityError reports a flow whose node or edge identities are inconsistent.
type IntegrityError struct {
	Tenant     string
	Flow       string
	Violations []string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation in flow %q: %s", e.Flow, strings.Join(e.Violations, "; "))
}

// ActivationError reports an active flow that the validator rejects.
type ActivationError struct {
	Tenant string
	Flow   string
	Issues []validator.Issue
}

func (e *ActivationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.Error()
	}
	return fmt.Sprintf("flow %q cannot be activated: %s", e.Flow, strings.Join(msgs, "; "))
}

// Unwrap exposes the individual issues to errors.As.
func (e *ActivationError) Unwrap() []error {
	errs := make([]error, len(e.Issues))
	for i, issue := range e.Issues {
		errs[i] = issue
	}
	return errs
}
