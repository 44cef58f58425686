// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package tabling

import "sync/atomic"

// Cancel defines the interface for cancelling evaluations. Cancel
// operations are thread-safe and idempotent.
type Cancel interface {
	Ok() bool
	Cancel()
}

type cancel struct {
	flag int32
}

// NewCancel returns a new Cancel object.
func NewCancel() Cancel {
	return &cancel{}
}

func (c *cancel) Ok() bool {
	return atomic.LoadInt32(&c.flag) == 0
}

func (c *cancel) Cancel() {
	atomic.StoreInt32(&c.flag, 1)
}
