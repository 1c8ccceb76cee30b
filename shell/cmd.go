// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package shell

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"text/tabwriter"
)

var cmds = make(map[string]*Cmd)

// CmdFn represents a command handler.
type CmdFn func(iface *Interface, arg []string) (res string, err error)

// Cmd represents a shell command.
type Cmd struct {
	// Name is the command name, matched on the entire line when Pattern
	// is nil.
	Name string
	// Args is the number of Pattern submatches passed to Fn.
	Args int
	// Pattern is the regular expression matching the command line.
	Pattern *regexp.Regexp
	// Syntax is the argument syntax shown by Help.
	Syntax string
	// Help is the command description.
	Help string
	// Fn is the command handler.
	Fn CmdFn
}

// Add registers a terminal interface command, replacing any previous command
// with the same name.
func Add(cmd Cmd) {
	cmds[cmd.Name] = &cmd
}

// Help returns a formatted string with instructions for all registered
// commands.
func (iface *Interface) Help() string {
	var names []string

	for name := range cmds {
		names = append(names, name)
	}

	sort.Strings(names)

	var buf bytes.Buffer
	t := tabwriter.NewWriter(&buf, 16, 8, 0, '\t', tabwriter.TabIndent)

	for _, name := range names {
		fmt.Fprintf(t, "%s\t%s\t # %s\n", name, cmds[name].Syntax, cmds[name].Help)
	}

	t.Flush()

	return buf.String()
}

func helpCmd(iface *Interface, _ []string) (string, error) {
	return iface.Help(), nil
}
