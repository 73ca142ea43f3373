package domain

import (
	"strconv"
	"strings"
)

// Handle names for condition branches.
const (
	HandleTrue  = "true"
	HandleFalse = "false"
)

const optionHandlePrefix = "handle-"

// Edge is a directed link between two nodes of the same flow.
// SourceHandle is empty for single-exit variants.
type Edge struct {
	ID           string `json:"id" yaml:"id"`
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
}

// OptionHandle returns the handle name for the option at index i.
func OptionHandle(i int) string {
	return optionHandlePrefix + strconv.Itoa(i)
}

// ParseOptionHandle extracts the option index from a handle such as "handle-2".
func ParseOptionHandle(handle string) (int, bool) {
	rest, ok := strings.CutPrefix(handle, optionHandlePrefix)
	if !ok || rest == "" {
		return 0, false
	}
	i, err := strconv.Atoi(rest)
	if err != nil || i < 0 || strconv.Itoa(i) != rest {
		return 0, false
	}
	return i, true
}

// ConditionHandle maps a boolean outcome to its branch handle.
func ConditionHandle(outcome bool) string {
	if outcome {
		return HandleTrue
	}
	return HandleFalse
}
