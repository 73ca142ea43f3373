package conversation

import (
	"fmt"
	"strings"
)

// InterruptPolicy decides what a trigger keyword does to a parked conversation.
type InterruptPolicy string

const (
	InterruptIgnore  InterruptPolicy = "ignore"
	InterruptRestart InterruptPolicy = "restart"
)

// ParseInterruptPolicy maps a config string to a policy. An empty string means ignore.
func ParseInterruptPolicy(s string) (InterruptPolicy, error) {
	switch p := InterruptPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return InterruptIgnore, nil
	case InterruptIgnore, InterruptRestart:
		return p, nil
	}
	return InterruptIgnore, fmt.Errorf("unknown interrupt policy %q", s)
}
