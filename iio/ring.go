// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iio

import (
	"github.com/go-swio/swio"
	"golang.org/x/xerrors"
)

// Sink receives fixed-size scan records from an acquisition trigger.
type Sink interface {
	Push(rec []byte) error
}

// Ring is a fixed-capacity ring of fixed-size scan records. When the
// ring is full, pushing a record drops the oldest one.
type Ring struct {
	buf  []byte
	size int // record size in bytes
	n    int // records stored
	r, w int // record indices
}

// NewRing returns a ring holding up to n records of size bytes each.
func NewRing(size, n int) *Ring {
	return &Ring{
		buf:  make([]byte, size*n),
		size: size,
	}
}

// Cap returns the record capacity of the ring.
func (rb *Ring) Cap() int { return len(rb.buf) / rb.size }

// Len returns the number of records stored.
func (rb *Ring) Len() int { return rb.n }

// Push stores one record, dropping the oldest when full.
func (rb *Ring) Push(rec []byte) error {
	if len(rec) != rb.size {
		return xerrors.Errorf("iio: record size %d, want %d: %w", len(rec), rb.size, swio.ErrInvalidArgument)
	}
	copy(rb.buf[rb.w*rb.size:], rec)
	rb.w = (rb.w + 1) % rb.Cap()
	if rb.n == rb.Cap() {
		rb.r = rb.w
		return nil
	}
	rb.n++
	return nil
}

// Pop copies the oldest record into dst and reports whether a record
// was available.
func (rb *Ring) Pop(dst []byte) bool {
	if rb.n == 0 {
		return false
	}
	copy(dst, rb.buf[rb.r*rb.size:(rb.r+1)*rb.size])
	rb.r = (rb.r + 1) % rb.Cap()
	rb.n--
	return true
}
