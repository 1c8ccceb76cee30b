// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && amd64

package x64

import (
	_ "unsafe"

	"github.com/usbarmory/go-handoff/uefi"
)

// Console represents the UEFI console for standard output, before
// UEFI.Init() it is backed by the ConOut pointer read at image entry.
var Console = &uefi.Console{
	ForceLine: true,
}

func init() {
	if conOut != 0 {
		Console.Out = uefi.NewTextOutput(conOut)
	}
}

//go:linkname printk runtime.printk
func printk(c byte) {
	if UEFI.Boot != nil && UEFI.Boot.State() != uefi.FirmwareOwned {
		UART0.Tx(c)
		return
	}

	Console.Write([]byte{c})
}
