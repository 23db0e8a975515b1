// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ad74413r

// ChannelConfig is the intended configuration of one physical
// channel: whether it is wired up, and the function it serves.
type ChannelConfig struct {
	Enabled  bool
	Function Mode
}

// Config collects the per-channel configuration edited through the
// configuration device, together with the two single-bit latches the
// management path uses to hand the configuration over.
//
// Apply signals that editing is done and the configuration may be
// committed. Back signals that the runtime context should be brought
// back. Neither latch carries an error meaning.
type Config struct {
	Channels [NChannels]ChannelConfig

	Apply bool
	Back  bool
}
