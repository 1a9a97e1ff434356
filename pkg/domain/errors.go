package domain

import "errors"

// ErrNoIntent is returned when a phrase does not match any configured intent.
var ErrNoIntent = errors.New("no matching intent")

// ErrMissingOperator is returned when an intent has no operator to dispatch.
var ErrMissingOperator = errors.New("intent has no operator")

// ErrInvalidPath is returned when a state path cannot be parsed or walked.
var ErrInvalidPath = errors.New("invalid state path")

// ErrUnknownCommand is returned when the host registry has no such command.
var ErrUnknownCommand = errors.New("unknown host command")

// ErrPreconditionFailed is returned when a host command refuses to run in the current context.
var ErrPreconditionFailed = errors.New("command precondition failed")

// ErrMissingValue is returned when a state-path intent carries no value to assign.
var ErrMissingValue = errors.New("missing value param")

// ErrNotAssignable is returned when a host attribute or index rejects an assignment.
var ErrNotAssignable = errors.New("target is not assignable")

// ErrNotAList is returned when a configuration document is not a list of intents.
var ErrNotAList = errors.New("configuration is not a list")

// ErrUnsupported is returned when a host object lacks a requested capability.
var ErrUnsupported = errors.New("unsupported by host object")
