// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"unsafe"
)

// EFI Simple Text Output Protocol offsets
const (
	outputReset  = 0x00
	outputString = 0x08
	clearScreen  = 0x30
)

// EFI Simple Text Input Protocol offset for ReadKeyStroke
const readKeyStroke = 0x08

// EFI Boot Services offsets
const (
	allocatePages    = 0x28
	freePages        = 0x30
	getMemoryMap     = 0x38
	exitBootServices = 0xe8
	setWatchdogTimer = 0x100
)

// TextOutputProtocol represents the EFI_SIMPLE_TEXT_OUTPUT_PROTOCOL
// functions used by Console, each returning the raw EFI_STATUS.
type TextOutputProtocol interface {
	Reset(extendedVerification bool) (status uint64)
	OutputString(s []uint16) (status uint64)
	ClearScreen() (status uint64)
}

// TextInputProtocol represents the EFI_SIMPLE_TEXT_INPUT_PROTOCOL functions
// used by Console.
type TextInputProtocol interface {
	ReadKeyStroke(k *InputKey) (status uint64)
}

// BootServicesTable represents the EFI_BOOT_SERVICES functions used by
// BootServices, each returning the raw EFI_STATUS.
type BootServicesTable interface {
	AllocatePages(allocateType int, memoryType MemoryType, pages uint64, physicalAddress *uint64) (status uint64)
	FreePages(physicalAddress uint64, pages uint64) (status uint64)
	GetMemoryMap(mapSize *uint64, buf []byte, mapKey *uint64, descriptorSize *uint64, descriptorVersion *uint32) (status uint64)
	ExitBootServices(imageHandle uint64, mapKey uint64) (status uint64)
	SetWatchdogTimer(timeout uint64, code uint64) (status uint64)
}

// This function helps preparing callService arguments, allowing a single call
// for all EFI services.
//
// Obtaining a pointer in this fashion is typically unsafe and tamago/dma
// package would be best to handle this. However, as arguments are prepared
// right before invoking Go assembly, it is considered safe as it is identical
// as having *uint64 as callService prototype.
func ptrval(ptr any) uint64 {
	var p unsafe.Pointer

	switch v := ptr.(type) {
	case *uint64:
		p = unsafe.Pointer(v)
	case *uint32:
		p = unsafe.Pointer(v)
	case *uint16:
		p = unsafe.Pointer(v)
	case *byte:
		p = unsafe.Pointer(v)
	case *InputKey:
		p = unsafe.Pointer(v)
	default:
		panic("internal error, invalid ptrval")
	}

	return uint64(uintptr(p))
}

func boolval(b bool) uint64 {
	if b {
		return 1
	}

	return 0
}

// textOutput calls through an EFI Simple Text Output Protocol instance.
type textOutput struct {
	base uint64
}

// NewTextOutput returns the EFI Simple Text Output Protocol instance at the
// argument address, for console output before EFI System Table decoding.
func NewTextOutput(addr uint64) TextOutputProtocol {
	return &textOutput{base: addr}
}

func (p *textOutput) Reset(extendedVerification bool) uint64 {
	return callService(p.base+outputReset,
		[]uint64{
			p.base,
			boolval(extendedVerification),
		},
	)
}

func (p *textOutput) OutputString(s []uint16) uint64 {
	return callService(p.base+outputString,
		[]uint64{
			p.base,
			ptrval(&s[0]),
		},
	)
}

func (p *textOutput) ClearScreen() uint64 {
	return callService(p.base+clearScreen,
		[]uint64{
			p.base,
		},
	)
}

// textInput calls through an EFI Simple Text Input Protocol instance.
type textInput struct {
	base uint64
}

func (p *textInput) ReadKeyStroke(k *InputKey) uint64 {
	return callService(p.base+readKeyStroke,
		[]uint64{
			p.base,
			ptrval(k),
		},
	)
}

// bootTable calls through the EFI Boot Services table.
type bootTable struct {
	base uint64
}

func (t *bootTable) AllocatePages(allocateType int, memoryType MemoryType, pages uint64, physicalAddress *uint64) uint64 {
	return callService(t.base+allocatePages,
		[]uint64{
			uint64(allocateType),
			uint64(memoryType),
			pages,
			ptrval(physicalAddress),
		},
	)
}

func (t *bootTable) FreePages(physicalAddress uint64, pages uint64) uint64 {
	return callService(t.base+freePages,
		[]uint64{
			physicalAddress,
			pages,
		},
	)
}

func (t *bootTable) GetMemoryMap(mapSize *uint64, buf []byte, mapKey *uint64, descriptorSize *uint64, descriptorVersion *uint32) uint64 {
	return callService(t.base+getMemoryMap,
		[]uint64{
			ptrval(mapSize),
			ptrval(&buf[0]),
			ptrval(mapKey),
			ptrval(descriptorSize),
			ptrval(descriptorVersion),
		},
	)
}

func (t *bootTable) ExitBootServices(imageHandle uint64, mapKey uint64) uint64 {
	return callService(t.base+exitBootServices,
		[]uint64{
			imageHandle,
			mapKey,
		},
	)
}

func (t *bootTable) SetWatchdogTimer(timeout uint64, code uint64) uint64 {
	return callService(t.base+setWatchdogTimer,
		[]uint64{
			timeout,
			code,
			0,
			0,
		},
	)
}
