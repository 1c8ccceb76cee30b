// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package cmd implements the diagnostic shell commands operating on the EFI
// services instance.
package cmd

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/hako/durafmt"

	"github.com/usbarmory/go-handoff/shell"
	"github.com/usbarmory/go-handoff/uefi"
)

// UEFI represents the EFI services instance used by all commands, it must be
// set before starting the shell.
var UEFI *uefi.Services

var start = time.Now()

func init() {
	shell.Add(shell.Cmd{
		Name: "build",
		Help: "build information",
		Fn:   buildInfoCmd,
	})

	shell.Add(shell.Cmd{
		Name: "uptime",
		Help: "show how long the system has been running",
		Fn:   uptimeCmd,
	})
}

func buildInfoCmd(_ *shell.Interface, _ []string) (string, error) {
	if bi, ok := debug.ReadBuildInfo(); ok {
		return bi.String(), nil
	}

	return "", nil
}

func uptimeCmd(_ *shell.Interface, _ []string) (string, error) {
	return fmt.Sprintf("%s", durafmt.Parse(time.Since(start)).LimitFirstN(2)), nil
}
