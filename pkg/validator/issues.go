package validator

import (
	"errors"
	"fmt"
	"strings"
)

// Severity separates issues that block activation from advisory ones.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Kind identifies the rule an issue was raised by.
type Kind string

const (
	KindMissingTrigger   Kind = "missing_trigger"
	KindMultipleTriggers Kind = "multiple_triggers"
	KindTriggerIncoming  Kind = "trigger_incoming_edge"
	KindEmptyKeyword     Kind = "empty_keyword"
	KindDuplicateNode    Kind = "duplicate_node"
	KindDanglingEdge     Kind = "dangling_edge"
	KindInvalidHandle    Kind = "invalid_handle"
	KindDuplicateHandle  Kind = "duplicate_handle"
	KindUnusedEdge       Kind = "unused_edge"
	KindLoop             Kind = "non_branching_loop"
	KindOrphan           Kind = "orphan_node"
)

// Issue is a single structural finding about a flow.
type Issue struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	NodeID   string   `json:"nodeId,omitempty"`
	EdgeID   string   `json:"edgeId,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) Error() string {
	var where string
	switch {
	case i.EdgeID != "":
		where = fmt.Sprintf(" (edge %q)", i.EdgeID)
	case i.NodeID != "":
		where = fmt.Sprintf(" (node %q)", i.NodeID)
	}
	return fmt.Sprintf("%s %s%s: %s", i.Severity, i.Kind, where, i.Message)
}

// Report is the ordered list of issues found in one flow.
type Report []Issue

// Errors returns the issues that block activation.
func (r Report) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns the advisory issues.
func (r Report) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

// HasErrors reports whether any issue blocks activation.
func (r Report) HasErrors() bool {
	for _, i := range r {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Has reports whether the report contains an issue of the given kind.
func (r Report) Has(kind Kind) bool {
	for _, i := range r {
		if i.Kind == kind {
			return true
		}
	}
	return false
}

// Err joins the error-severity issues, or returns nil when there are none.
func (r Report) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	joined := make([]error, len(errs))
	for i, issue := range errs {
		joined[i] = issue
	}
	return errors.Join(joined...)
}

func (r Report) String() string {
	lines := make([]string, len(r))
	for i, issue := range r {
		lines[i] = issue.Error()
	}
	return strings.Join(lines, "\n")
}

func (r Report) filter(s Severity) []Issue {
	var out []Issue
	for _, i := range r {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}
