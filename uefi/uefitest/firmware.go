// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package uefitest provides a simulated UEFI firmware for testing code which
// depends on package uefi outside of a TamaGo UEFI image.
package uefitest

import (
	"encoding/binary"
	"unicode/utf16"

	"github.com/usbarmory/go-handoff/uefi"
)

// EFI_STATUS values returned by the simulated firmware.
const (
	Success          = uefi.EFI_SUCCESS
	errorBit         = 1 << 63
	InvalidParameter = errorBit | uefi.EFI_INVALID_PARAMETER
	BufferTooSmall   = errorBit | uefi.EFI_BUFFER_TOO_SMALL
	DeviceError      = errorBit | uefi.EFI_DEVICE_ERROR
	NotReady         = errorBit | uefi.EFI_NOT_READY
	StaleData        = uefi.EFI_WARN_STALE_DATA
)

// Simulated firmware addresses
const (
	ImageHandle = 0x3e4d3018
	SystemTable = 0x3fbee018
)

// DescriptorSize is the default descriptor stride, 40 bytes followed by
// vendor padding as reported by most firmware.
const DescriptorSize = 48

// Firmware represents a simulated UEFI firmware implementing the console and
// boot services protocols.
type Firmware struct {
	// Memory map returned by GetMemoryMap()
	Descriptors       []uefi.MemoryDescriptor
	DescriptorSize    uint64
	DescriptorVersion uint32

	// Status overrides, a zero value selects the simulated behaviour
	GetMemoryMapStatus     uint64
	ExitBootServicesStatus uint64
	OutputStatus           uint64

	// Warning is returned, in place of Success, by GetMemoryMap() and
	// ExitBootServices() after completing the service.
	Warning uint64

	// Keystrokes returned by ReadKeyStroke()
	Input []rune

	// Output holds each OutputString() argument up to its NUL terminator.
	Output [][]uint16
	// Resets counts Reset() and ClearScreen() calls.
	Resets int

	// Calls records invoked services by name.
	Calls []string

	// Exited is set once ExitBootServices() succeeds.
	Exited bool

	mapKey   uint64
	nextPage uint64
}

// New returns a simulated firmware reporting the argument memory map.
func New(desc ...uefi.MemoryDescriptor) *Firmware {
	return &Firmware{
		Descriptors:       desc,
		DescriptorSize:    DescriptorSize,
		DescriptorVersion: 1,
		mapKey:            0x1000,
		nextPage:          0x40000000,
	}
}

// Services returns an UEFI services instance attached to the simulated
// firmware.
func (fw *Firmware) Services() (s *uefi.Services, err error) {
	t := &uefi.SystemTable{
		FirmwareRevision: 0x10000,
		ConIn:            SystemTable + 0x1000,
		ConOut:           SystemTable + 0x2000,
		BootServices:     SystemTable + 0x3000,
	}

	t.Header.Signature = 0x5453595320494249
	t.Header.Revision = 2<<16 | 100

	s = &uefi.Services{}

	err = s.Attach(ImageHandle, SystemTable, t, uefi.Protocols{
		ConIn:  fw,
		ConOut: fw,
		Boot:   fw,
	})

	return
}

// MapKey returns the key of the current memory map, it changes on every
// memory allocation service call.
func (fw *Firmware) MapKey() uint64 {
	return fw.mapKey
}

// Text returns the console output as a string.
func (fw *Firmware) Text() (s string) {
	for _, out := range fw.Output {
		s += string(utf16.Decode(out))
	}

	return
}

func (fw *Firmware) call(name string) bool {
	fw.Calls = append(fw.Calls, name)
	return !fw.Exited
}

// Reset implements EFI_SIMPLE_TEXT_OUTPUT_PROTOCOL.Reset().
func (fw *Firmware) Reset(_ bool) uint64 {
	if !fw.call("Reset") {
		return InvalidParameter
	}

	fw.Resets++

	return Success
}

// ClearScreen implements EFI_SIMPLE_TEXT_OUTPUT_PROTOCOL.ClearScreen().
func (fw *Firmware) ClearScreen() uint64 {
	return fw.Reset(false)
}

// OutputString implements EFI_SIMPLE_TEXT_OUTPUT_PROTOCOL.OutputString().
func (fw *Firmware) OutputString(s []uint16) uint64 {
	if !fw.call("OutputString") {
		return InvalidParameter
	}

	if len(s) == 0 || s[len(s)-1] != 0 {
		return InvalidParameter
	}

	// firmware prints up to the first NUL
	n := 0

	for s[n] != 0 {
		n++
	}

	out := make([]uint16, n)
	copy(out, s)
	fw.Output = append(fw.Output, out)

	return fw.OutputStatus
}

// ReadKeyStroke implements EFI_SIMPLE_TEXT_INPUT_PROTOCOL.ReadKeyStroke().
func (fw *Firmware) ReadKeyStroke(k *uefi.InputKey) uint64 {
	if !fw.call("ReadKeyStroke") {
		return InvalidParameter
	}

	if len(fw.Input) == 0 {
		return NotReady
	}

	k.ScanCode = 0
	binary.LittleEndian.PutUint16(k.UnicodeChar[:], uint16(fw.Input[0]))
	fw.Input = fw.Input[1:]

	return Success
}

// AllocatePages implements EFI_BOOT_SERVICES.AllocatePages().
func (fw *Firmware) AllocatePages(allocateType int, memoryType uefi.MemoryType, pages uint64, physicalAddress *uint64) uint64 {
	if !fw.call("AllocatePages") {
		return InvalidParameter
	}

	if allocateType >= uefi.MaxAllocateType || memoryType >= uefi.EfiMaxMemoryType || pages == 0 {
		return InvalidParameter
	}

	if allocateType != uefi.AllocateAddress {
		*physicalAddress = fw.nextPage
		fw.nextPage += pages * uefi.PageSize
	} else if fw.allocated(*physicalAddress, pages) {
		return errorBit | uefi.EFI_OUT_OF_RESOURCES
	}

	fw.Descriptors = append(fw.Descriptors, uefi.MemoryDescriptor{
		Type:          uint32(memoryType),
		PhysicalStart: *physicalAddress,
		NumberOfPages: pages,
		Attribute:     uefi.EFI_MEMORY_WB,
	})

	fw.mapKey++

	return Success
}

// FreePages implements EFI_BOOT_SERVICES.FreePages().
// allocated reports whether the argument range overlaps memory which is not
// EfiConventionalMemory.
func (fw *Firmware) allocated(start uint64, pages uint64) bool {
	end := start + pages*uefi.PageSize

	for _, d := range fw.Descriptors {
		if d.MemoryType() == uefi.EfiConventionalMemory {
			continue
		}

		if start < d.PhysicalEnd() && d.PhysicalStart < end {
			return true
		}
	}

	return false
}

func (fw *Firmware) FreePages(physicalAddress uint64, pages uint64) uint64 {
	if !fw.call("FreePages") {
		return InvalidParameter
	}

	for i, d := range fw.Descriptors {
		if d.PhysicalStart == physicalAddress && d.NumberOfPages == pages {
			fw.Descriptors = append(fw.Descriptors[:i], fw.Descriptors[i+1:]...)
			fw.mapKey++
			return Success
		}
	}

	return errorBit | uefi.EFI_NOT_FOUND
}

// GetMemoryMap implements EFI_BOOT_SERVICES.GetMemoryMap().
func (fw *Firmware) GetMemoryMap(mapSize *uint64, buf []byte, mapKey *uint64, descriptorSize *uint64, descriptorVersion *uint32) uint64 {
	if !fw.call("GetMemoryMap") {
		return InvalidParameter
	}

	if fw.GetMemoryMapStatus != Success {
		return fw.GetMemoryMapStatus
	}

	size := uint64(len(fw.Descriptors)) * fw.DescriptorSize

	*descriptorSize = fw.DescriptorSize
	*descriptorVersion = fw.DescriptorVersion

	if *mapSize < size || uint64(len(buf)) < size {
		*mapSize = size
		return BufferTooSmall
	}

	for i, d := range fw.Descriptors {
		off := uint64(i) * fw.DescriptorSize
		rec := make([]byte, max(fw.DescriptorSize, 40))

		for j := range rec {
			rec[j] = 0xaa // vendor padding
		}

		binary.LittleEndian.PutUint32(rec[0:], d.Type)
		binary.LittleEndian.PutUint32(rec[4:], 0)
		binary.LittleEndian.PutUint64(rec[8:], d.PhysicalStart)
		binary.LittleEndian.PutUint64(rec[16:], d.VirtualStart)
		binary.LittleEndian.PutUint64(rec[24:], d.NumberOfPages)
		binary.LittleEndian.PutUint64(rec[32:], d.Attribute)

		copy(buf[off:off+fw.DescriptorSize], rec)
	}

	*mapSize = size
	*mapKey = fw.mapKey

	return fw.Warning
}

// ExitBootServices implements EFI_BOOT_SERVICES.ExitBootServices(), only
// the current map key is accepted.
func (fw *Firmware) ExitBootServices(imageHandle uint64, mapKey uint64) uint64 {
	if !fw.call("ExitBootServices") {
		return InvalidParameter
	}

	if fw.ExitBootServicesStatus != Success {
		return fw.ExitBootServicesStatus
	}

	if imageHandle != ImageHandle || mapKey != fw.mapKey {
		return InvalidParameter
	}

	fw.Exited = true

	return fw.Warning
}

// SetWatchdogTimer implements EFI_BOOT_SERVICES.SetWatchdogTimer().
func (fw *Firmware) SetWatchdogTimer(_ uint64, _ uint64) uint64 {
	if !fw.call("SetWatchdogTimer") {
		return InvalidParameter
	}

	return Success
}

// Descriptor returns a memory descriptor of the argument type and range.
func Descriptor(t uefi.MemoryType, start uint64, pages uint64) uefi.MemoryDescriptor {
	return uefi.MemoryDescriptor{
		Type:          uint32(t),
		PhysicalStart: start,
		NumberOfPages: pages,
		Attribute:     uefi.EFI_MEMORY_WB,
	}
}

// QEMU returns a memory map resembling the one reported by OVMF.
func QEMU() []uefi.MemoryDescriptor {
	return []uefi.MemoryDescriptor{
		Descriptor(uefi.EfiBootServicesCode, 0x00000000, 0x1),
		Descriptor(uefi.EfiConventionalMemory, 0x00001000, 0x9f),
		Descriptor(uefi.EfiConventionalMemory, 0x00100000, 0x700),
		Descriptor(uefi.EfiACPIMemoryNVS, 0x00800000, 0x8),
		Descriptor(uefi.EfiLoaderCode, 0x01000000, 0x2c0),
		Descriptor(uefi.EfiBootServicesData, 0x012c0000, 0x1000),
		Descriptor(uefi.EfiConventionalMemory, 0x022c0000, 0x3d000),
		Descriptor(uefi.EfiACPIReclaimMemory, 0x3f2c0000, 0x10),
		{
			Type:          uint32(uefi.EfiRuntimeServicesData),
			PhysicalStart: 0x3f700000,
			VirtualStart:  0x3f700000,
			NumberOfPages: 0x100,
			Attribute:     uefi.EFI_MEMORY_WB | uefi.EFI_MEMORY_RUNTIME,
		},
		{
			Type:          uint32(uefi.EfiMemoryMappedIO),
			PhysicalStart: 0xffc00000,
			NumberOfPages: 0x400,
			Attribute:     uefi.EFI_MEMORY_UC | uefi.EFI_MEMORY_RUNTIME,
		},
	}
}
