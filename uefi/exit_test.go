// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/usbarmory/go-handoff/uefi"
	"github.com/usbarmory/go-handoff/uefi/uefitest"
)

func calledAfter(calls []string, name string) (after []string) {
	for i, c := range calls {
		if c == name {
			after = calls[i+1:]
		}
	}

	return
}

func TestExitBootServices(t *testing.T) {
	fw := uefitest.New(uefitest.QEMU()...)
	s, _ := fw.Services()

	if state := s.Boot.State(); state != uefi.FirmwareOwned {
		t.Fatalf("unexpected initial state %s", state)
	}

	m, err := s.Boot.GetMemoryMap()

	if err != nil {
		t.Fatal(err)
	}

	if err = s.Boot.ExitBootServices(m); err != nil {
		t.Fatal(err)
	}

	if state := s.Boot.State(); state != uefi.ProgramOwned {
		t.Fatalf("unexpected state %s", state)
	}

	if !fw.Exited {
		t.Fatal("firmware not exited")
	}

	// no firmware service is reachable after the hand-off
	if err = s.Boot.ExitBootServices(m); !errors.Is(err, uefi.ErrExited) {
		t.Fatalf("unexpected error, %v", err)
	}

	if _, err = s.Boot.GetMemoryMap(); !errors.Is(err, uefi.ErrExited) {
		t.Fatalf("unexpected error, %v", err)
	}

	if _, err = s.Boot.AllocatePages(uefi.AllocateAnyPages, uefi.EfiLoaderData, uefi.PageSize, 0); !errors.Is(err, uefi.ErrExited) {
		t.Fatalf("unexpected error, %v", err)
	}

	if n, err := s.Console.Write([]byte("after exit\n")); n != 11 || err != nil {
		t.Fatalf("unexpected console result %d, %v", n, err)
	}

	s.Console.ClearScreen()

	if after := calledAfter(fw.Calls, "ExitBootServices"); len(after) != 0 {
		t.Fatalf("firmware called after exit: %v", after)
	}
}

func TestExitBootServicesInvalidKey(t *testing.T) {
	fw := uefitest.New(uefitest.QEMU()...)
	s, _ := fw.Services()

	m, err := s.Boot.GetMemoryMap()

	if err != nil {
		t.Fatal(err)
	}

	m.MapKey++

	if err = s.Boot.ExitBootServices(m); !errors.Is(err, uefi.ErrEfiInvalidParameter) {
		t.Fatalf("unexpected error, %v", err)
	}

	if state := s.Boot.State(); state != uefi.ExitFailed {
		t.Fatalf("unexpected state %s", state)
	}

	if fw.Exited {
		t.Fatal("firmware exited with invalid key")
	}

	// failure is terminal
	m.MapKey--

	if err = s.Boot.ExitBootServices(m); !errors.Is(err, uefi.ErrExitFailed) {
		t.Fatalf("unexpected error, %v", err)
	}

	if _, err = s.Boot.GetMemoryMap(); !errors.Is(err, uefi.ErrExitFailed) {
		t.Fatalf("unexpected error, %v", err)
	}
}

func TestExitBootServicesStaleKey(t *testing.T) {
	fw := uefitest.New(uefitest.QEMU()...)
	s, _ := fw.Services()

	m, err := s.Boot.GetMemoryMap()

	if err != nil {
		t.Fatal(err)
	}

	addr, err := s.Boot.AllocatePages(uefi.AllocateAnyPages, uefi.EfiLoaderData, 3*uefi.PageSize+1, 0)

	if err != nil {
		t.Fatal(err)
	}

	if d := fw.Descriptors[len(fw.Descriptors)-1]; d.PhysicalStart != addr || d.NumberOfPages != 4 {
		t.Fatalf("unexpected allocation %+v", d)
	}

	if err = s.Boot.ExitBootServices(m); !errors.Is(err, uefi.ErrStaleMapKey) {
		t.Fatalf("unexpected error, %v", err)
	}

	if s.Boot.State() != uefi.ExitFailed {
		t.Fatalf("unexpected state %s", s.Boot.State())
	}

	if after := calledAfter(fw.Calls, "AllocatePages"); len(after) != 0 {
		t.Fatalf("firmware called with stale key: %v", after)
	}
}

func TestExitBootServicesStaleSnapshot(t *testing.T) {
	fw := uefitest.New(uefitest.QEMU()...)
	s, _ := fw.Services()

	first, _ := s.Boot.GetMemoryMap()
	last, _ := s.Boot.GetMemoryMap()

	if first.MapKey != last.MapKey {
		t.Fatalf("unexpected key change")
	}

	// only the last retrieved snapshot can be consumed
	if err := s.Boot.ExitBootServices(first); !errors.Is(err, uefi.ErrStaleMapKey) {
		t.Fatalf("unexpected error, %v", err)
	}
}

func TestExitBootServicesFirmwareError(t *testing.T) {
	fw := uefitest.New(uefitest.QEMU()...)
	fw.ExitBootServicesStatus = uefitest.DeviceError

	s, _ := fw.Services()
	m, _ := s.Boot.GetMemoryMap()

	if err := s.Boot.ExitBootServices(m); !errors.Is(err, uefi.ErrEfiDeviceError) {
		t.Fatalf("unexpected error, %v", err)
	}

	if s.Boot.State() != uefi.ExitFailed {
		t.Fatalf("unexpected state %s", s.Boot.State())
	}
}

func TestExitBootServicesWarning(t *testing.T) {
	fw := uefitest.New(uefitest.QEMU()...)
	s, _ := fw.Services()

	m, err := s.Boot.GetMemoryMap()

	if err != nil {
		t.Fatal(err)
	}

	fw.Warning = uefitest.StaleData

	if err = s.Boot.ExitBootServices(m); !errors.Is(err, uefi.Status(uefi.EFI_WARN_STALE_DATA).Err()) {
		t.Fatalf("unexpected error, %v", err)
	}

	if s.Boot.State() != uefi.ExitFailed {
		t.Fatalf("unexpected state %s", s.Boot.State())
	}

	if _, err = s.Boot.GetMemoryMap(); !errors.Is(err, uefi.ErrExitFailed) {
		t.Fatalf("unexpected error, %v", err)
	}
}

func TestHandoff(t *testing.T) {
	var buf bytes.Buffer

	fw := uefitest.New(uefitest.QEMU()...)
	s, _ := fw.Services()

	m, err := s.Handoff(&buf)

	if err != nil {
		t.Fatal(err)
	}

	if m.MapKey != fw.MapKey() || len(m.Descriptors) != len(fw.Descriptors) {
		t.Fatalf("unexpected memory map %+v", m)
	}

	if !strings.Contains(buf.String(), "exiting EFI Boot Services") {
		t.Fatalf("unexpected report %q", buf.String())
	}

	calls := fw.Calls[len(fw.Calls)-2:]

	if calls[0] != "GetMemoryMap" || calls[1] != "ExitBootServices" {
		t.Fatalf("unexpected call sequence %v", fw.Calls)
	}
}

func TestHandoffQuiet(t *testing.T) {
	fw := uefitest.New(uefitest.QEMU()...)
	s, _ := fw.Services()

	if _, err := s.Handoff(nil); err != nil {
		t.Fatal(err)
	}

	if len(fw.Calls) != 2 {
		t.Fatalf("unexpected call sequence %v", fw.Calls)
	}
}
