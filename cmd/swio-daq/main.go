// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command swio-daq starts a TDAQ server streaming scan records from
// an AD74413R analog front-end.
package main // import "github.com/go-swio/swio/cmd/swio-daq"

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/host/v3"

	"github.com/go-swio/swio/ad74413r"
	"github.com/go-swio/swio/iio"
	"github.com/go-swio/swio/spibus"
)

var (
	port = flag.String("spi", "SPI0.0", "SPI port of the analog front-end")
	rstn = flag.String("reset", "GPIO22", "reset line of the analog front-end")
	mask = flag.Uint("scan-mask", 0xF, "scan-index bitmask to acquire")
)

func main() {
	cmd := flags.New()

	dev := afe{
		port: *port,
		rstn: *rstn,
		mask: uint32(*mask),
	}

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	srv.OutputHandle("/adc", dev.adc)

	srv.RunHandle(dev.run)

	err := srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}

type afe struct {
	port string
	rstn string
	mask uint32

	dev  *ad74413r.IIO
	ring *iio.Ring

	started bool
}

func (dev *afe) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")
	return nil
}

func (dev *afe) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	return dev.setup(ctx)
}

func (dev *afe) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	return dev.setup(ctx)
}

func (dev *afe) setup(ctx tdaq.Context) error {
	if _, err := host.Init(); err != nil {
		ctx.Msg.Errorf("could not initialize host drivers: %+v", err)
		return err
	}

	conn, err := spibus.Open(dev.port, spi.Mode0, 1_000_000)
	if err != nil {
		ctx.Msg.Errorf("could not open SPI port %q: %+v", dev.port, err)
		return err
	}

	rst, err := spibus.OpenPin(dev.rstn)
	if err != nil {
		ctx.Msg.Errorf("could not open reset pin %q: %+v", dev.rstn, err)
		return err
	}

	hw, err := ad74413r.New(ad74413r.AD74413R, conn, rst)
	if err != nil {
		ctx.Msg.Errorf("could not create AFE device: %+v", err)
		return err
	}

	cfg := &ad74413r.Config{
		Channels: [ad74413r.NChannels]ad74413r.ChannelConfig{
			{Enabled: true, Function: ad74413r.VoltageIn},
			{Enabled: true, Function: ad74413r.VoltageIn},
			{Enabled: true, Function: ad74413r.VoltageIn},
			{Enabled: true, Function: ad74413r.VoltageIn},
		},
	}

	dev.ring = iio.NewRing(ad74413r.ScanRecordSize, 1024)
	dev.dev, err = ad74413r.NewIIO(hw, cfg, dev.ring)
	if err != nil {
		ctx.Msg.Errorf("could not create AFE attribute surface: %+v", err)
		return err
	}

	ctx.Msg.Infof("AFE device ready")
	return nil
}

func (dev *afe) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	err := dev.dev.UpdateChannels(dev.mask)
	if err != nil {
		ctx.Msg.Errorf("could not start conversions: %+v", err)
		return err
	}
	dev.started = true
	return nil
}

func (dev *afe) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /stop command...")
	dev.started = false
	err := dev.dev.BufferDisable()
	if err != nil {
		ctx.Msg.Errorf("could not stop conversions: %+v", err)
		return err
	}
	return nil
}

func (dev *afe) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	return nil
}

func (dev *afe) adc(ctx tdaq.Context, dst *tdaq.Frame) error {
	rec := make([]byte, ad74413r.ScanRecordSize)
	for {
		select {
		case <-ctx.Ctx.Done():
			dst.Body = nil
			return nil
		default:
			if dev.ring != nil && dev.ring.Pop(rec) {
				dst.Body = rec
				return nil
			}
			time.Sleep(1 * time.Millisecond)
		}
	}
}

func (dev *afe) run(ctx tdaq.Context) error {
	for {
		select {
		case <-ctx.Ctx.Done():
			return nil
		default:
			if dev.started {
				err := dev.dev.Trigger()
				if err != nil {
					ctx.Msg.Errorf("could not trigger scan: %+v", err)
				}
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}
