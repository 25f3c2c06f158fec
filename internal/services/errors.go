package services

import "fmt"

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError reports an absent order, agent, or user.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// AuthorizationError reports a role or ownership mismatch.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }

// StateError reports an illegal transition or unmet precondition.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return e.Msg }

// GatewayError reports an upstream collaborator failure. From the payment
// path it blocks the operation; from the event sinks it is logged and
// swallowed by the dispatcher.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *GatewayError) Unwrap() error { return e.Err }
