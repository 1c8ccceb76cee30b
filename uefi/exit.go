// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
	"fmt"
	"io"
)

// ExitState represents the machine ownership with respect to the
// ExitBootServices() hand-off.
type ExitState int

// ExitBootServices() states, ProgramOwned and ExitFailed are terminal.
const (
	FirmwareOwned ExitState = iota
	Exiting
	ProgramOwned
	ExitFailed
)

func (s ExitState) String() string {
	switch s {
	case FirmwareOwned:
		return "firmware owned"
	case Exiting:
		return "exiting"
	case ProgramOwned:
		return "program owned"
	default:
		return "exit failed"
	}
}

var (
	// ErrExited is returned on any boot service call after a successful
	// ExitBootServices().
	ErrExited = errors.New("EFI Boot Services already exited")

	// ErrExitFailed is returned on any boot service call after a failed
	// ExitBootServices(), the machine state is undefined.
	ErrExitFailed = errors.New("EFI Boot Services exit failed")

	// ErrStaleMapKey is returned when ExitBootServices() is invoked with a
	// memory map which predates a later memory service call.
	ErrStaleMapKey = errors.New("stale memory map key")
)

// BootServices represents an EFI Boot Services instance.
type BootServices struct {
	table       BootServicesTable
	imageHandle uint64

	// memory service call sequence
	seq   uint64
	state ExitState

	// invoked once boot services are exited
	release func()
}

// State returns the ExitBootServices() hand-off state.
func (s *BootServices) State() ExitState {
	return s.state
}

func (s *BootServices) available() error {
	switch s.state {
	case FirmwareOwned:
		return nil
	case ProgramOwned:
		return ErrExited
	default:
		return ErrExitFailed
	}
}

// ExitBootServices calls EFI_BOOT_SERVICES.ExitBootServices() with the
// argument memory map key, which must have been retrieved with the last
// memory service call.
//
// The hand-off can only be attempted once, on success firmware services are
// no longer invoked by this package.
func (s *BootServices) ExitBootServices(m *MemoryMap) (err error) {
	if err = s.available(); err != nil {
		return
	}

	s.state = Exiting

	if m == nil || m.seq != s.seq {
		s.state = ExitFailed
		return ErrStaleMapKey
	}

	status := s.table.ExitBootServices(s.imageHandle, m.MapKey)

	if err = parseStatus(status); err != nil {
		s.state = ExitFailed
		return fmt.Errorf("could not exit EFI Boot Services, %w", err)
	}

	s.state = ProgramOwned
	s.table = nil

	if s.release != nil {
		s.release()
	}

	return
}

// Handoff exits EFI Boot Services, returning the memory map whose key has
// been consumed by the hand-off.
//
// If w is not nil a first memory map is retrieved and written to it, a fresh
// one is then retrieved right before exiting as console output might involve
// memory allocations.
func (s *Services) Handoff(w io.Writer) (m *MemoryMap, err error) {
	if w != nil {
		if m, err = s.Boot.GetMemoryMap(); err != nil {
			return nil, err
		}

		m.Fprint(w)
		fmt.Fprintf(w, "image handle %#x, exiting EFI Boot Services\n", s.imageHandle)
	}

	// no firmware calls are allowed between these two
	if m, err = s.Boot.GetMemoryMap(); err != nil {
		return nil, err
	}

	if err = s.Boot.ExitBootServices(m); err != nil {
		return nil, err
	}

	return
}
