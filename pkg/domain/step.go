package domain

// Outcome summarizes what handling one event did to a conversation.
type Outcome string

const (
	// OutcomeAwaiting means the conversation suspended on a prompt.
	OutcomeAwaiting Outcome = "awaiting"
	// OutcomeNoMatch means a resume event matched no transition; the position is unchanged.
	OutcomeNoMatch Outcome = "no_match"
	// OutcomePaused means the conversation was handed to a human.
	OutcomePaused Outcome = "paused"
	// OutcomeCompleted means a dead end was reached and the position discarded.
	OutcomeCompleted Outcome = "completed"
	// OutcomeIgnored means the event arrived while the conversation was paused.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeUnrouted means no conversation was active and no flow matched.
	OutcomeUnrouted Outcome = "unrouted"
	// OutcomeResolved means an external resolve returned the conversation to Idle.
	OutcomeResolved Outcome = "resolved"
)

// Step is the result of feeding one event to the interpreter.
type Step struct {
	// Position is the next position. It is nil when the conversation returned
	// to Idle. A completed step carries the final position with StatusCompleted,
	// which callers discard rather than store.
	Position *Position      `json:"position,omitempty"`
	Actions  []ActionRequest `json:"actions"`
	Outcome  Outcome         `json:"outcome"`
}

// Terminal reports whether the step ended the conversation's automation run.
func (s *Step) Terminal() bool {
	return s.Outcome == OutcomeCompleted || s.Outcome == OutcomeResolved || s.Position == nil
}
