// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ad74413r

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"
)

// server exposes the attribute surface of an AFE device over a JSON
// control connection.
type server struct {
	ctl net.Listener
	msg *log.Logger
	dev *IIO
}

// Serve listens on addr and serves attribute read/write requests for
// the given device.
func Serve(addr string, dev *IIO) error {
	srv, err := newServer(addr, dev)
	if err != nil {
		return fmt.Errorf("could not create swio server: %w", err)
	}
	return srv.serve()
}

func newServer(addr string, dev *IIO) (*server, error) {
	ctl, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("could not create swio-srv server on %q: %w", addr, err)
	}

	srv := &server{
		ctl: ctl,
		msg: log.New(os.Stdout, "swio-srv: ", 0),
		dev: dev,
	}
	return srv, nil
}

func (srv *server) serve() error {
	defer srv.close()

	for {
		conn, err := srv.ctl.Accept()
		if err != nil {
			return fmt.Errorf("could not accept connection: %w", err)
		}

		err = srv.handle(conn)
		if err != nil {
			srv.msg.Printf("could not serve connection: %+v", err)
			continue
		}
	}
}

func (srv *server) handle(conn net.Conn) error {
	defer conn.Close()
	srv.msg.Printf("serving %v...", conn.RemoteAddr())
	defer srv.msg.Printf("serving %v... [done]", conn.RemoteAddr())

loop:
	for {
		var req struct {
			Name string           `json:"name"`
			Args *json.RawMessage `json:"args"`
		}

		err := json.NewDecoder(conn).Decode(&req)
		if err != nil {
			srv.msg.Printf("could not decode command request: %+v", err)
			srv.reply(conn, "", err)
			if errors.Is(err, io.EOF) {
				break loop
			}
			continue
		}
		srv.msg.Printf("received request: name=%q", req.Name)

		switch strings.ToLower(req.Name) {
		case "read":
			var args struct {
				Channel int    `json:"channel"`
				Attr    string `json:"attr"`
			}
			err = json.Unmarshal(*req.Args, &args)
			if err != nil {
				srv.msg.Printf("could not decode %q payload: %+v", req.Name, err)
				srv.reply(conn, "", err)
				continue
			}

			buf := make([]byte, 64)
			n, err := srv.dev.Device().ReadAttr(args.Channel, args.Attr, buf)
			if err != nil {
				srv.msg.Printf("could not read attribute %q: %+v", args.Attr, err)
				srv.reply(conn, "", err)
				continue
			}
			srv.reply(conn, string(buf[:n]), nil)

		case "write":
			var args struct {
				Channel int    `json:"channel"`
				Attr    string `json:"attr"`
				Value   string `json:"value"`
			}
			err = json.Unmarshal(*req.Args, &args)
			if err != nil {
				srv.msg.Printf("could not decode %q payload: %+v", req.Name, err)
				srv.reply(conn, "", err)
				continue
			}

			err = srv.dev.Device().WriteAttr(args.Channel, args.Attr, []byte(args.Value))
			if err != nil {
				srv.msg.Printf("could not write attribute %q: %+v", args.Attr, err)
			}
			srv.reply(conn, "", err)

		case "channels":
			var list []string
			for _, ch := range srv.dev.Device().Channels {
				dir := "in"
				if ch.Out {
					dir = "out"
				}
				list = append(list, fmt.Sprintf(
					"%s %s %s scan=%d", ch.Name, ch.Type, dir, ch.ScanIndex,
				))
			}
			srv.reply(conn, strings.Join(list, "\n"), nil)

		case "faults":
			v, err := srv.dev.dev.Faults()
			if err != nil {
				srv.msg.Printf("could not read fault status: %+v", err)
				srv.reply(conn, "", err)
				continue
			}
			srv.reply(conn, fmt.Sprintf("0x%04x", v), nil)

		case "apply":
			err = srv.dev.ApplyConfig()
			if err != nil {
				srv.msg.Printf("could not apply channel configuration: %+v", err)
			}
			srv.reply(conn, "", err)

		case "stop":
			srv.reply(conn, "", nil)
			break loop

		default:
			srv.msg.Printf("unknown command name=%q, args=%q", req.Name, req.Args)
			err = fmt.Errorf("unknown command %q", req.Name)
			srv.reply(conn, "", err)
			continue
		}
	}

	return nil
}

func (srv *server) reply(conn net.Conn, value string, err error) {
	rep := struct {
		Msg   string `json:"msg"`
		Value string `json:"value,omitempty"`
	}{Msg: "ok", Value: value}
	if err != nil {
		rep.Msg = fmt.Sprintf("%+v", err)
	}

	_ = json.NewEncoder(conn).Encode(rep)
}

func (srv *server) close() {
	_ = srv.ctl.Close()
}
