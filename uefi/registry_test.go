// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/usbarmory/go-handoff/uefi"
)

func TestCurrentBeforeCapture(t *testing.T) {
	uefi.ResetRegistry()

	if _, err := uefi.Current(); !errors.Is(err, uefi.ErrNotCaptured) {
		t.Fatalf("unexpected error, %v", err)
	}

	defer func() {
		if r := recover(); r != uefi.ErrNotCaptured {
			t.Fatalf("unexpected panic value, %v", r)
		}
	}()

	uefi.MustCurrent()
}

func TestCaptureFirstWriterWins(t *testing.T) {
	uefi.ResetRegistry()
	defer uefi.ResetRegistry()

	if !uefi.Capture(0x3fbee018) {
		t.Fatal("first capture not stored")
	}

	if uefi.Capture(0x12345000) {
		t.Fatal("second capture stored")
	}

	if addr := uefi.MustCurrent(); addr != 0x3fbee018 {
		t.Fatalf("got %#x, want %#x", addr, 0x3fbee018)
	}
}

func TestCaptureZero(t *testing.T) {
	uefi.ResetRegistry()
	defer uefi.ResetRegistry()

	if uefi.Capture(0) {
		t.Fatal("nil address captured")
	}

	if !uefi.Capture(0x1000) {
		t.Fatal("capture after nil address not stored")
	}
}

func TestCaptureConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	var stored sync.Map

	uefi.ResetRegistry()
	defer uefi.ResetRegistry()

	for i := uint64(1); i <= 16; i++ {
		wg.Add(1)

		go func(addr uint64) {
			defer wg.Done()

			if uefi.Capture(addr) {
				stored.Store(addr, true)
			}
		}(i * 0x1000)
	}

	wg.Wait()

	n := 0
	addr := uefi.MustCurrent()

	stored.Range(func(k, _ any) bool {
		n++

		if k.(uint64) != addr {
			t.Errorf("stored %#x, current %#x", k, addr)
		}

		return true
	})

	if n != 1 {
		t.Fatalf("%d captures stored", n)
	}
}
