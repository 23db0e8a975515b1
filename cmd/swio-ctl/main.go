// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command swio-ctl is an interactive client for the swio-srv control
// connection: it reads and writes channel attributes, inspects the
// exposed channel table and commits channel configurations.
package main // import "github.com/go-swio/swio/cmd/swio-ctl"

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"strings"

	"github.com/peterh/liner"
)

func main() {
	addr := flag.String("addr", "localhost:8867", "[ip]:port of swio-srv")

	flag.Parse()

	log.SetPrefix("swio-ctl: ")
	log.SetFlags(0)

	err := run(*addr)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

const usage = `commands:
  read  <channel> <attr>          read an attribute (-1 for device attributes)
  write <channel> <attr> <value>  write an attribute
  channels                        list the exposed channels
  faults                          read the fault status
  apply                           commit the channel configuration
  quit                            leave
`

func run(addr string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("could not dial swio-srv on %q: %w", addr, err)
	}
	defer conn.Close()

	term := liner.NewLiner()
	defer term.Close()
	term.SetCtrlCAborts(true)

	for {
		line, err := term.Prompt("swio> ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				return nil
			}
			return fmt.Errorf("could not read prompt: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		term.AppendHistory(line)

		words := strings.Fields(line)
		switch words[0] {
		case "quit", "exit":
			_, _ = send(conn, "stop", nil)
			return nil

		case "help":
			fmt.Print(usage)

		case "read":
			if len(words) != 3 {
				fmt.Print(usage)
				continue
			}
			ch, err := strconv.Atoi(words[1])
			if err != nil {
				log.Printf("invalid channel %q: %+v", words[1], err)
				continue
			}
			reply(send(conn, "read", map[string]interface{}{
				"channel": ch,
				"attr":    words[2],
			}))

		case "write":
			if len(words) != 4 {
				fmt.Print(usage)
				continue
			}
			ch, err := strconv.Atoi(words[1])
			if err != nil {
				log.Printf("invalid channel %q: %+v", words[1], err)
				continue
			}
			reply(send(conn, "write", map[string]interface{}{
				"channel": ch,
				"attr":    words[2],
				"value":   words[3],
			}))

		case "channels":
			reply(send(conn, "channels", nil))

		case "faults":
			reply(send(conn, "faults", nil))

		case "apply":
			reply(send(conn, "apply", nil))

		default:
			log.Printf("unknown command %q", words[0])
			fmt.Print(usage)
		}
	}
}

// Reply is a swio-srv control response.
type Reply struct {
	Msg   string `json:"msg"`
	Value string `json:"value,omitempty"`
}

func send(conn net.Conn, name string, args interface{}) (Reply, error) {
	req := struct {
		Name string      `json:"name"`
		Args interface{} `json:"args,omitempty"`
	}{Name: name, Args: args}

	var rep Reply

	err := json.NewEncoder(conn).Encode(req)
	if err != nil {
		return rep, fmt.Errorf("could not send %q request: %w", name, err)
	}

	err = json.NewDecoder(conn).Decode(&rep)
	if err != nil {
		return rep, fmt.Errorf("could not decode %q reply: %w", name, err)
	}

	return rep, nil
}

func reply(rep Reply, err error) {
	switch {
	case err != nil:
		log.Printf("%+v", err)
	case rep.Msg != "ok":
		log.Printf("request failed: %s", rep.Msg)
	case rep.Value != "":
		fmt.Println(rep.Value)
	}
}
