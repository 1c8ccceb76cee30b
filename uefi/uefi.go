// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package uefi implements the early Unified Extensible Firmware Interface
// (UEFI) services needed to take over a machine, following the
// specifications at:
//
//	https://uefi.org/specs/UEFI/2.10/
//
// The package covers EFI System Table capture, console text output, the
// memory map and the ExitBootServices() hand-off.
//
// Firmware calls are only performed with `GOOS=tamago` as supported by the
// TamaGo framework for bare metal Go, see https://github.com/usbarmory/tamago.
// On other targets the package builds with inert firmware calls so that its
// logic can be exercised against the simulated firmware in package uefitest.
package uefi

import (
	"errors"
	"unsafe"
)

// EFI Table Header Signature
const signature = 0x5453595320494249 // TSYS IBI

// TableHeader represents the data structure that precedes all of the standard
// EFI table types.
type TableHeader struct {
	Signature  uint64
	Revision   uint32
	HeaderSize uint32
	CRC32      uint32
	Reserved   uint32
}

// SystemTable represents the EFI System Table, containing pointers to the
// runtime and boot services tables.
type SystemTable struct {
	Header               TableHeader
	FirmwareVendor       uint64
	FirmwareRevision     uint32
	_                    uint32
	ConsoleInHandle      uint64
	ConIn                uint64
	ConsoleOutHandle     uint64
	ConOut               uint64
	StandardErrorHandle  uint64
	StdErr               uint64
	RuntimeServices      uint64
	BootServices         uint64
	NumberOfTableEntries uint64
	ConfigurationTable   uint64
}

// layout checks, a mismatch fails compilation
var (
	_ = [1]struct{}{}[unsafe.Sizeof(TableHeader{})-24]
	_ = [1]struct{}{}[unsafe.Sizeof(SystemTable{})-120]
	_ = [1]struct{}{}[unsafe.Offsetof(SystemTable{}.ConOut)-0x40]
	_ = [1]struct{}{}[unsafe.Offsetof(SystemTable{}.BootServices)-0x60]
)

// Protocols groups the firmware call boundaries reachable from an EFI
// System Table.
type Protocols struct {
	ConIn  TextInputProtocol
	ConOut TextOutputProtocol
	Boot   BootServicesTable
}

// Services represents the UEFI services instance.
type Services struct {
	// EFI System Table instance
	SystemTable *SystemTable

	// UEFI services
	Console *Console
	Boot    *BootServices

	imageHandle uint64
	systemTable uint64
}

// Init initializes an UEFI services instance using the argument pointers,
// the EFI System Table is decoded from firmware memory.
func (s *Services) Init(imageHandle uint64, systemTable uint64) (err error) {
	t := &SystemTable{}

	if err = decode(t, systemTable); err != nil {
		return
	}

	if t.BootServices == 0 {
		return errors.New("EFI Boot Services pointer is nil")
	}

	p := Protocols{
		Boot: &bootTable{base: t.BootServices},
	}

	if t.ConIn != 0 {
		p.ConIn = &textInput{base: t.ConIn}
	}

	if t.ConOut != 0 {
		p.ConOut = &textOutput{base: t.ConOut}
	}

	return s.Attach(imageHandle, systemTable, t, p)
}

// Attach initializes an UEFI services instance over an already decoded EFI
// System Table and its resolved protocol instances.
func (s *Services) Attach(imageHandle uint64, systemTable uint64, t *SystemTable, p Protocols) (err error) {
	if t == nil || t.Header.Signature != signature {
		return errors.New("EFI System Table pointer is invalid")
	}

	if p.Boot == nil {
		return errors.New("EFI Boot Services are unavailable")
	}

	s.imageHandle = imageHandle
	s.systemTable = systemTable
	s.SystemTable = t

	s.Console = &Console{
		ForceLine:   true,
		ReplaceTabs: 8,
		In:          p.ConIn,
		Out:         p.ConOut,
	}

	s.Boot = &BootServices{
		table:       p.Boot,
		imageHandle: imageHandle,
	}

	// firmware consoles are gone once boot services are exited
	s.Boot.release = s.Console.detach

	return
}

// ImageHandle returns the UEFI image handle pointer.
func (s *Services) ImageHandle() uint64 {
	return s.imageHandle
}

// Address returns the EFI System Table pointer.
func (s *Services) Address() uint64 {
	return s.systemTable
}
