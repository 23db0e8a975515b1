// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package swio

import "errors"

// Errors shared by the swio device drivers and the network shim.
// Callers classify failures with errors.Is; transport errors are
// propagated wrapped, never replaced by one of these.
var (
	// ErrInvalidArgument reports a bad channel, port or enumerated
	// value. Retrying does not help.
	ErrInvalidArgument = errors.New("swio: invalid argument")

	// ErrNoResource reports an exhausted fixed-size pool (socket
	// slots, buffers).
	ErrNoResource = errors.New("swio: no resource available")

	// ErrTryAgain reports transient backpressure (TX FIFO full, no
	// pending connection, partial send). The caller should retry.
	ErrTryAgain = errors.New("swio: try again")

	// ErrBusy reports hardware that has not completed its reset or
	// power-up sequence yet. The caller should retry after a delay.
	ErrBusy = errors.New("swio: device busy")
)
