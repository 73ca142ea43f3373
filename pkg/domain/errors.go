package domain

import "errors"

// ErrFlowNotFound is returned when a flow cannot be found in the store.
var ErrFlowNotFound = errors.New("flow not found")

// ErrPositionNotFound is returned when a conversation has no stored position.
var ErrPositionNotFound = errors.New("position not found")

// ErrNoRoute is returned by the router when no active flow matches an inbound message.
var ErrNoRoute = errors.New("no flow matches inbound message")

// ErrNoMatch marks a resume event that does not correspond to any valid transition.
var ErrNoMatch = errors.New("inbound event matches no transition")
