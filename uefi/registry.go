// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
	"sync/atomic"
)

// ErrNotCaptured is returned when the EFI System Table is accessed before its
// address has been captured.
var ErrNotCaptured = errors.New("EFI System Table not yet captured")

// EFI System Table address, written once at image entry
var systemTable atomic.Uint64

// Capture records the EFI System Table address passed by firmware at image
// entry. Only the first non-zero address is retained, the return value
// reports whether the argument has been stored.
func Capture(addr uint64) bool {
	if addr == 0 {
		return false
	}

	return systemTable.CompareAndSwap(0, addr)
}

// Current returns the captured EFI System Table address.
func Current() (addr uint64, err error) {
	if addr = systemTable.Load(); addr == 0 {
		return 0, ErrNotCaptured
	}

	return
}

// MustCurrent is like Current but panics if the EFI System Table has not been
// captured.
func MustCurrent() uint64 {
	addr, err := Current()

	if err != nil {
		panic(err)
	}

	return addr
}
