// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package tabling

import (
	"errors"
	"fmt"
)

// Error is the error type returned by the resolution controller.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	// InternalErr represents an unknown evaluation error.
	InternalErr string = "tabling_internal_error"

	// StateErr indicates an operation was requested while the controller
	// is in an incompatible state, e.g. invalidating a table that is being
	// evaluated. Fatal to the current top-level operation.
	StateErr string = "tabling_state_error"

	// InstantiationErr indicates a goal was insufficiently instantiated:
	// an unbound variable as a goal, or a non-ground negative literal.
	InstantiationErr string = "tabling_instantiation_error"

	// CancelErr indicates the top-level evaluation was cancelled. The
	// component's partial state has been discarded.
	CancelErr string = "tabling_cancel_error"

	// CyclicErr indicates a derivation bound a variable into its own value
	// and the resulting cyclic term cannot be evaluated or stored.
	CyclicErr string = "tabling_cyclic_term_error"
)

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v", e.Code, e.Message)
}

// IsError returns true if err is a controller Error.
func IsError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// IsCancel returns true if err was caused by cancellation.
func IsCancel(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CancelErr
}

func internalErrf(f string, a ...any) error {
	return &Error{Code: InternalErr, Message: fmt.Sprintf(f, a...)}
}

func stateErrf(f string, a ...any) error {
	return &Error{Code: StateErr, Message: fmt.Sprintf(f, a...)}
}

func instantiationErrf(f string, a ...any) error {
	return &Error{Code: InstantiationErr, Message: fmt.Sprintf(f, a...)}
}

func cancelErr() error {
	return &Error{Code: CancelErr, Message: "caller cancelled query"}
}

// cyclicTermErr carries no term in its message; rendering a cyclic term
// would not terminate.
func cyclicTermErr() error {
	return &Error{Code: CyclicErr, Message: "cannot evaluate cyclic term"}
}
