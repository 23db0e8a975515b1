// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command swio-srv runs the swio gateway daemon: it brings up the
// AD74413R analog front-end and the ADIN1110 Ethernet bridge over
// their SPI ports and serves the attribute surface over a JSON
// control connection.
package main // import "github.com/go-swio/swio/cmd/swio-srv"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/host/v3"

	"github.com/go-swio/swio/ad74413r"
	"github.com/go-swio/swio/adin1110"
	"github.com/go-swio/swio/iio"
	"github.com/go-swio/swio/spibus"
)

func main() {
	var (
		fname = flag.String("cfg", "swio.yml", "path to the YAML configuration file")
		addr  = flag.String("addr", "", "[ip]:port to listen on (overrides the configuration)")
	)

	flag.Parse()

	log.SetPrefix("swio-srv: ")
	log.SetFlags(0)

	cfg, err := loadConfig(*fname)
	if err != nil {
		log.Fatalf("could not load configuration: %+v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	err = run(cfg)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

// Config describes one gateway board.
type Config struct {
	Addr string        `koanf:"addr"`
	Poll time.Duration `koanf:"poll"`

	AFE struct {
		Chip     string `koanf:"chip"`
		Port     string `koanf:"port"`
		Reset    string `koanf:"reset"`
		Channels []struct {
			Enabled  bool   `koanf:"enabled"`
			Function string `koanf:"function"`
		} `koanf:"channels"`
	} `koanf:"afe"`

	MAC struct {
		Chip  string `koanf:"chip"`
		Port  string `koanf:"port"`
		Reset string `koanf:"reset"`
		Addr  string `koanf:"addr"`
		CRC   bool   `koanf:"crc"`
	} `koanf:"mac"`
}

func loadConfig(fname string) (*Config, error) {
	k := koanf.New(".")
	err := k.Load(file.Provider(fname), yaml.Parser())
	if err != nil {
		return nil, fmt.Errorf("could not parse %q: %w", fname, err)
	}

	cfg := &Config{
		Addr: ":8867",
		Poll: 10 * time.Millisecond,
	}
	err = k.Unmarshal("", cfg)
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal %q: %w", fname, err)
	}

	return cfg, nil
}

func run(cfg *Config) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("could not initialize host drivers: %w", err)
	}

	afe, err := newAFE(cfg)
	if err != nil {
		return fmt.Errorf("could not setup analog front-end: %w", err)
	}

	mac, err := newMAC(cfg)
	if err != nil {
		return fmt.Errorf("could not setup ethernet bridge: %w", err)
	}

	grp, ctx := errgroup.WithContext(context.Background())

	grp.Go(func() error {
		log.Printf("running swio-srv server on %q...", cfg.Addr)
		return ad74413r.Serve(cfg.Addr, afe)
	})

	grp.Go(func() error {
		tick := time.NewTicker(cfg.Poll)
		defer tick.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick.C:
				frm, err := mac.ReadFrame(0)
				if err != nil {
					log.Printf("could not read frame: %+v", err)
					continue
				}
				if frm == nil {
					continue
				}
				log.Printf("rx frame: dst=%v src=%v type=0x%04x len=%d",
					net.HardwareAddr(frm.Dst), net.HardwareAddr(frm.Src),
					frm.Ethertype, len(frm.Payload),
				)
			}
		}
	})

	err = grp.Wait()
	if err != nil {
		return fmt.Errorf("could not run swio-srv: %w", err)
	}
	return nil
}

func newAFE(cfg *Config) (*ad74413r.IIO, error) {
	conn, err := spibus.Open(cfg.AFE.Port, spi.Mode0, 1_000_000)
	if err != nil {
		return nil, fmt.Errorf("could not open AFE SPI port: %w", err)
	}

	rst, err := spibus.OpenPin(cfg.AFE.Reset)
	if err != nil {
		return nil, fmt.Errorf("could not open AFE reset pin: %w", err)
	}

	id := ad74413r.AD74413R
	if cfg.AFE.Chip == "ad74412r" {
		id = ad74413r.AD74412R
	}

	dev, err := ad74413r.New(id, conn, rst)
	if err != nil {
		return nil, fmt.Errorf("could not create AFE device: %w", err)
	}

	var chcfg ad74413r.Config
	for i, c := range cfg.AFE.Channels {
		if i >= ad74413r.NChannels {
			return nil, fmt.Errorf("too many channel configurations (%d)", len(cfg.AFE.Channels))
		}
		mode, err := ad74413r.ModeFromString(c.Function)
		if err != nil {
			return nil, fmt.Errorf("could not parse channel %d function: %w", i, err)
		}
		chcfg.Channels[i] = ad74413r.ChannelConfig{
			Enabled:  c.Enabled,
			Function: mode,
		}
	}

	sink := iio.NewRing(ad74413r.ScanRecordSize, 1024)
	return ad74413r.NewIIO(dev, &chcfg, sink)
}

func newMAC(cfg *Config) (*adin1110.Device, error) {
	conn, err := spibus.Open(cfg.MAC.Port, spi.Mode0, 25_000_000)
	if err != nil {
		return nil, fmt.Errorf("could not open MAC SPI port: %w", err)
	}

	rst, err := spibus.OpenPin(cfg.MAC.Reset)
	if err != nil {
		return nil, fmt.Errorf("could not open MAC reset pin: %w", err)
	}

	hwaddr, err := net.ParseMAC(cfg.MAC.Addr)
	if err != nil {
		return nil, fmt.Errorf("could not parse MAC address %q: %w", cfg.MAC.Addr, err)
	}

	chip := adin1110.ADIN1110
	if cfg.MAC.Chip == "adin2111" {
		chip = adin1110.ADIN2111
	}

	return adin1110.New(chip, conn, rst, hwaddr, cfg.MAC.CRC)
}
