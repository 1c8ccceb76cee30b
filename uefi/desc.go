// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"unsafe"

	"github.com/u-root/u-root/pkg/boot/bzimage"
)

// Advanced Configuration and Power Interface Specification (ACPI)
// Version 6.0 - Table 15-312 Address Range Types12
const AddressRangePersistentMemory = 7

// PageSize represents the EFI page size in bytes
const PageSize = 4096 // 4 KiB

// descriptorLen is the EFI_MEMORY_DESCRIPTOR size without vendor padding.
const descriptorLen = 40

// MemoryDescriptor represents an EFI Memory Descriptor
type MemoryDescriptor struct {
	Type          uint32
	_             uint32
	PhysicalStart uint64
	VirtualStart  uint64
	NumberOfPages uint64
	Attribute     uint64
}

var _ = [1]struct{}{}[unsafe.Sizeof(MemoryDescriptor{})-descriptorLen]

// MemoryType returns the descriptor memory classification.
func (d *MemoryDescriptor) MemoryType() MemoryType {
	return ClassifyMemory(d.Type)
}

// PhysicalEnd returns the descriptor physical end address.
func (d *MemoryDescriptor) PhysicalEnd() uint64 {
	return d.PhysicalStart + d.NumberOfPages*PageSize
}

// Size returns the descriptor size.
func (d *MemoryDescriptor) Size() int {
	return int(d.NumberOfPages * PageSize)
}

// Usable reports whether the described memory can be used freely once EFI
// Boot Services have been exited.
func (d *MemoryDescriptor) Usable() bool {
	// Unified Extensible Firmware Interface (UEFI) Specification
	// Version 2.10 - Table 7.10: Memory Type Usage after ExitBootServices()
	switch d.MemoryType() {
	case EfiLoaderCode, EfiLoaderData, EfiBootServicesCode, EfiBootServicesData, EfiConventionalMemory:
		return d.Attribute&EFI_MEMORY_RUNTIME == 0
	default:
		return false
	}
}

// E820 converts an EFI Memory Map entry to an x86 E820 one suitable for use
// after exiting EFI Boot Services.
func (d *MemoryDescriptor) E820() (bzimage.E820Entry, error) {
	e := bzimage.E820Entry{
		Addr: d.PhysicalStart,
		Size: d.NumberOfPages * PageSize,
	}

	switch {
	case d.Usable():
		e.MemType = bzimage.RAM
	case d.MemoryType() == EfiPersistentMemory:
		e.MemType = AddressRangePersistentMemory
	case d.MemoryType() == EfiACPIReclaimMemory:
		e.MemType = bzimage.ACPI
	case d.MemoryType() == EfiACPIMemoryNVS:
		e.MemType = bzimage.NVS
	default:
		e.MemType = bzimage.Reserved
	}

	return e, nil
}
