// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi_test

import (
	"testing"

	"github.com/usbarmory/go-handoff/uefi"
	"github.com/usbarmory/go-handoff/uefi/uefitest"
)

func TestInitNilSystemTable(t *testing.T) {
	s := &uefi.Services{}

	if err := s.Init(uefitest.ImageHandle, 0); err == nil {
		t.Fatal("nil EFI System Table accepted")
	}
}

func TestAttach(t *testing.T) {
	fw := uefitest.New()
	s, err := fw.Services()

	if err != nil {
		t.Fatal(err)
	}

	if s.ImageHandle() != uefitest.ImageHandle || s.Address() != uefitest.SystemTable {
		t.Fatalf("unexpected handles %#x %#x", s.ImageHandle(), s.Address())
	}

	if s.Console == nil || s.Boot == nil || s.SystemTable == nil {
		t.Fatal("services not initialized")
	}
}

func TestAttachInvalidSignature(t *testing.T) {
	fw := uefitest.New()
	s := &uefi.Services{}

	err := s.Attach(uefitest.ImageHandle, uefitest.SystemTable, &uefi.SystemTable{}, uefi.Protocols{Boot: fw})

	if err == nil {
		t.Fatal("invalid EFI System Table accepted")
	}
}

func TestAttachMissingBootServices(t *testing.T) {
	st := &uefi.SystemTable{}
	st.Header.Signature = 0x5453595320494249

	s := &uefi.Services{}

	if err := s.Attach(uefitest.ImageHandle, uefitest.SystemTable, st, uefi.Protocols{}); err == nil {
		t.Fatal("missing EFI Boot Services accepted")
	}
}

func TestSetWatchdogTimer(t *testing.T) {
	fw := uefitest.New()
	s, _ := fw.Services()

	if err := s.Boot.SetWatchdogTimer(0); err != nil {
		t.Fatal(err)
	}

	if len(fw.Calls) != 1 || fw.Calls[0] != "SetWatchdogTimer" {
		t.Fatalf("unexpected calls %v", fw.Calls)
	}
}

func TestFreePages(t *testing.T) {
	fw := uefitest.New()
	s, _ := fw.Services()

	addr, err := s.Boot.AllocatePages(uefi.AllocateAnyPages, uefi.EfiLoaderData, 2*uefi.PageSize, 0)

	if err != nil {
		t.Fatal(err)
	}

	if err = s.Boot.FreePages(addr, 2*uefi.PageSize); err != nil {
		t.Fatal(err)
	}

	if len(fw.Descriptors) != 0 {
		t.Fatalf("pages not freed, %+v", fw.Descriptors)
	}

	if err = s.Boot.FreePages(addr, 2*uefi.PageSize); err == nil {
		t.Fatal("double free accepted")
	}
}
