// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package trie

import (
	"errors"
	"fmt"
)

// Error is the error type returned by index operations.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	// InternalErr represents an unknown index error.
	InternalErr string = "trie_internal_error"

	// CyclicErr indicates a term was too deeply cyclic to index. The
	// partially built path has been pruned before the error surfaced.
	CyclicErr string = "trie_cyclic_term_error"

	// AttVarErr indicates a term contained an attributed variable, which
	// cannot be serialized into the index.
	AttVarErr string = "trie_attvar_error"

	// ResourceErr indicates node creation or materialization exhausted an
	// allocation limit. The operation may be retried after raising the
	// limit or reclaiming space.
	ResourceErr string = "trie_resource_error"

	// PermissionErr indicates a value update was requested without update
	// permission and the new value differs from the stored one.
	PermissionErr string = "trie_permission_error"
)

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v", e.Code, e.Message)
}

// IsError returns true if err is an index Error.
func IsError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// IsResource returns true if err reports resource exhaustion. Resource
// errors are retryable at the caller's discretion.
func IsResource(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ResourceErr
}

func cyclicErr() error {
	return &Error{Code: CyclicErr, Message: "cannot index cyclic term"}
}

func attVarErr() error {
	return &Error{Code: AttVarErr, Message: "cannot index term containing attributed variables"}
}

func resourceErr(what string) error {
	return &Error{Code: ResourceErr, Message: what + " exhausted"}
}

func permissionErr(what string) error {
	return &Error{Code: PermissionErr, Message: "no permission to modify " + what}
}
