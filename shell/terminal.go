// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package shell implements a terminal console handler for user defined
// commands.
package shell

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sort"

	"golang.org/x/term"
)

// ErrUnknownCommand is returned for lines matching no registered command.
var ErrUnknownCommand = errors.New("unknown command, type `help`")

// Interface represents a terminal interface.
type Interface struct {
	// Banner represents the welcome message
	Banner string

	// ReadWriter represents the terminal connection
	ReadWriter io.ReadWriter
}

func match(line string) (match *Cmd, arg []string) {
	var names []string

	for name := range cmds {
		names = append(names, name)
	}

	// deterministic precedence for overlapping patterns
	sort.Strings(names)

	for _, name := range names {
		cmd := cmds[name]

		if cmd.Pattern == nil {
			if cmd.Name == line {
				return cmd, nil
			}
		} else if m := cmd.Pattern.FindStringSubmatch(line); len(m) > 0 && (len(m)-1 == cmd.Args) {
			return cmd, m[1:]
		}
	}

	return
}

// Exec runs the command matching the argument line, printing its result
// on w. Commands terminate the session by returning io.EOF.
func (iface *Interface) Exec(line string, w io.Writer) (err error) {
	var res string

	cmd, arg := match(line)

	if cmd == nil {
		return ErrUnknownCommand
	}

	if res, err = cmd.Fn(iface, arg); err != nil {
		return
	}

	if len(res) > 0 {
		fmt.Fprintln(w, res)
	}

	return
}

func (iface *Interface) readLine(t *term.Terminal, w io.Writer) error {
	s, err := t.ReadLine()

	if err == io.EOF {
		return err
	}

	if err != nil {
		log.Printf("readline error, %v", err)
		return nil
	}

	if len(s) == 0 {
		return nil
	}

	if err = iface.Exec(s, w); err != nil {
		if err == io.EOF {
			return err
		}

		fmt.Fprintf(w, "command error, %v\n", err)
	}

	return nil
}

// Start handles registered commands over the interface ReadWriter until a
// command returns io.EOF or the connection is closed.
func (iface *Interface) Start() {
	Add(Cmd{
		Name: "help",
		Help: "this help",
		Fn:   helpCmd,
	})

	// the EFI console does not interpret VT100 escape sequences
	t := term.NewTerminal(iface.ReadWriter, "> ")
	w := iface.ReadWriter

	fmt.Fprintf(t, "\n%s\n\n", iface.Banner)
	fmt.Fprintf(t, "%s\n", iface.Help())

	for {
		if err := iface.readLine(t, w); err != nil {
			return
		}
	}
}
