package model

import (
	"errors"
	"fmt"
)

// Kind sentinels. Match with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidStrategy      = errors.New("invalid strategy")
	ErrUnknownTask          = errors.New("unknown task")
	ErrOptimizationRejected = errors.New("optimization rejected")
	ErrInvalidInput         = errors.New("invalid input")
)

// Error is a structural failure reported to callers.
type Error struct {
	Kind    error
	Op      string
	Subject string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.Subject != "" {
		msg += ": " + e.Subject
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports a reference to a nonexistent memory id.
func NotFound(op string, id int64) error {
	return &Error{Kind: ErrNotFound, Op: op, Subject: fmt.Sprintf("memory %d", id)}
}

// InvalidStrategy reports an unknown forgetting strategy name.
func InvalidStrategy(op, name string) error {
	return &Error{Kind: ErrInvalidStrategy, Op: op, Subject: fmt.Sprintf("%q", name)}
}

// UnknownTask reports a prompt task with no registered template.
func UnknownTask(op, task string) error {
	return &Error{Kind: ErrUnknownTask, Op: op, Subject: fmt.Sprintf("%q", task)}
}

// OptimizationRejected reports a prompt proposal that failed validation.
func OptimizationRejected(op, task string, cause error) error {
	return &Error{Kind: ErrOptimizationRejected, Op: op, Subject: fmt.Sprintf("%q", task), Err: cause}
}

// InvalidInput reports an argument rejected before any work was done.
func InvalidInput(op, detail string) error {
	return &Error{Kind: ErrInvalidInput, Op: op, Subject: detail}
}
