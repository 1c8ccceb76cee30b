// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && amd64

package main

import (
	"fmt"
	"io"
	"log"
	"runtime"

	"github.com/usbarmory/go-handoff/cmd"
	"github.com/usbarmory/go-handoff/shell"
	"github.com/usbarmory/go-handoff/uefi"
	"github.com/usbarmory/go-handoff/uefi/x64"
)

// Interactive, when set at build time, starts the diagnostic shell instead of
// exiting EFI Boot Services right away.
var Interactive string

func init() {
	log.SetFlags(0)
	log.SetOutput(io.MultiWriter(x64.Console, x64.UART0))
}

func main() {
	if x64.UEFI.Boot == nil {
		log.Fatalf("EFI services unavailable, %v", uefi.ErrNotCaptured)
	}

	if len(Interactive) > 0 {
		if err := x64.UEFI.Boot.SetWatchdogTimer(0); err != nil {
			log.Printf("WARNING: could not disable watchdog, %v", err)
		}

		cmd.UEFI = x64.UEFI

		iface := &shell.Interface{
			Banner: fmt.Sprintf("%s/%s (%s) • UEFI",
				runtime.GOOS, runtime.GOARCH, runtime.Version()),
			ReadWriter: x64.UEFI.Console,
		}

		iface.Start()
	}

	if x64.UEFI.Boot.State() == uefi.FirmwareOwned {
		if _, err := x64.UEFI.Handoff(log.Writer()); err != nil {
			log.Fatalf("could not hand off, %v", err)
		}

		log.Printf("exited EFI Boot Services")
	}

	runtime.Exit(0)
}
