// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

// EFI_ALLOCATE_TYPE
const (
	AllocateAnyPages = iota
	AllocateMaxAddress
	AllocateAddress
	MaxAllocateType
)

func pages(size int) uint64 {
	return (uint64(size) + PageSize - 1) / PageSize
}

// AllocatePages calls EFI_BOOT_SERVICES.AllocatePages(), the allocated
// physical address is returned.
//
// Any memory map previously retrieved becomes stale.
func (s *BootServices) AllocatePages(allocateType int, memoryType MemoryType, size int, physicalAddress uint64) (addr uint64, err error) {
	if err = s.available(); err != nil {
		return
	}

	addr = physicalAddress
	status := s.table.AllocatePages(allocateType, memoryType, pages(size), &addr)
	s.seq++

	return addr, parseStatus(status)
}

// FreePages calls EFI_BOOT_SERVICES.FreePages().
//
// Any memory map previously retrieved becomes stale.
func (s *BootServices) FreePages(physicalAddress uint64, size int) (err error) {
	if err = s.available(); err != nil {
		return
	}

	status := s.table.FreePages(physicalAddress, pages(size))
	s.seq++

	return parseStatus(status)
}
