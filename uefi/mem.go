// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
	"fmt"
	"io"

	"github.com/u-root/u-root/pkg/boot/bzimage"
)

const (
	// maximum number of descriptors held by a memory map snapshot
	maxEntries = 512
	// descriptor stride reserved in the memory map buffer, firmware
	// typically appends vendor fields to the 40 bytes descriptor
	descriptorAllocSize = 48
	// memory map buffer size
	mapBufferSize = maxEntries * descriptorAllocSize
)

// ErrBufferTooSmall is returned when firmware reports more memory descriptors
// than a memory map snapshot can hold.
var ErrBufferTooSmall = errors.New("memory map buffer too small")

// MemoryMap represents an EFI Memory Map
type MemoryMap struct {
	MapSize           uint64
	Descriptors       []*MemoryDescriptor
	MapKey            uint64
	DescriptorSize    uint64
	DescriptorVersion uint32

	// boot services memory operation sequence at retrieval
	seq uint64

	buf [mapBufferSize]byte
}

func (m *MemoryMap) parse() (err error) {
	switch {
	case m.MapSize > mapBufferSize:
		return fmt.Errorf("invalid memory map size (%d)", m.MapSize)
	case m.DescriptorSize < descriptorLen:
		return fmt.Errorf("invalid memory descriptor size (%d)", m.DescriptorSize)
	case m.MapSize%m.DescriptorSize != 0:
		return fmt.Errorf("memory map size (%d) is not a multiple of descriptor size (%d)", m.MapSize, m.DescriptorSize)
	case m.MapSize/m.DescriptorSize > maxEntries:
		return fmt.Errorf("%w, %d descriptors exceed %d", ErrBufferTooSmall, m.MapSize/m.DescriptorSize, maxEntries)
	}

	n := int(m.DescriptorSize)
	m.Descriptors = make([]*MemoryDescriptor, 0, int(m.MapSize)/n)

	for i := 0; i < int(m.MapSize); i += n {
		d := &MemoryDescriptor{}

		if err = unmarshalBinary(m.buf[i:i+descriptorLen], d); err != nil {
			return
		}

		m.Descriptors = append(m.Descriptors, d)
	}

	return
}

// E820 converts the EFI Memory Map to an x86 E820 one suitable for use after
// exiting EFI Boot Services.
func (m *MemoryMap) E820() (e []bzimage.E820Entry, err error) {
	for _, desc := range m.Descriptors {
		entry, err := desc.E820()

		if err != nil {
			return nil, err
		}

		e = append(e, entry)
	}

	return
}

// Usable returns the number of pages which can be used freely once EFI Boot
// Services have been exited.
func (m *MemoryMap) Usable() (pages uint64) {
	for _, desc := range m.Descriptors {
		if desc.Usable() {
			pages += desc.NumberOfPages
		}
	}

	return
}

// Fprint writes the memory map descriptors to w.
func (m *MemoryMap) Fprint(w io.Writer) {
	fmt.Fprintf(w, "Type                Start            End              Pages            Attributes\n")

	for _, desc := range m.Descriptors {
		fmt.Fprintf(w, "%-19s %016x %016x %016x %016x\n",
			desc.MemoryType(), desc.PhysicalStart, desc.PhysicalEnd()-1, desc.NumberOfPages, desc.Attribute)
	}
}

// GetMemoryMap calls EFI_BOOT_SERVICES.GetMemoryMap().
//
// The returned map key remains valid only until the next memory allocation
// service call, any such call made through this instance invalidates it for
// ExitBootServices().
func (s *BootServices) GetMemoryMap() (m *MemoryMap, err error) {
	if err = s.available(); err != nil {
		return
	}

	m = &MemoryMap{
		MapSize: mapBufferSize,
	}

	status := s.table.GetMemoryMap(
		&m.MapSize,
		m.buf[:],
		&m.MapKey,
		&m.DescriptorSize,
		&m.DescriptorVersion,
	)

	s.seq++
	m.seq = s.seq

	if Status(status) == errorBit|EFI_BUFFER_TOO_SMALL {
		return nil, fmt.Errorf("%w, %d bytes required", ErrBufferTooSmall, m.MapSize)
	}

	if err = parseStatus(status); err != nil {
		return nil, err
	}

	if err = m.parse(); err != nil {
		return nil, err
	}

	return
}
