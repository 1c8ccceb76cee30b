// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/usbarmory/go-handoff/shell"
	"github.com/usbarmory/go-handoff/uefi"
)

// ErrNoServices is returned by commands invoked before UEFI is set.
var ErrNoServices = errors.New("EFI services not initialized")

func init() {
	shell.Add(shell.Cmd{
		Name: "uefi",
		Help: "UEFI information",
		Fn:   uefiCmd,
	})

	shell.Add(shell.Cmd{
		Name: "memmap",
		Help: "EFI_BOOT_SERVICES.GetMemoryMap()",
		Fn:   memmapCmd,
	})

	shell.Add(shell.Cmd{
		Name: "e820",
		Help: "E820 conversion of the EFI memory map",
		Fn:   e820Cmd,
	})

	shell.Add(shell.Cmd{
		Name:    "alloc",
		Args:    2,
		Pattern: regexp.MustCompile(`^alloc ([[:xdigit:]]+) (\d+)$`),
		Syntax:  "<hex offset> <size>",
		Help:    "EFI_BOOT_SERVICES.AllocatePages()",
		Fn:      allocCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "free",
		Args:    2,
		Pattern: regexp.MustCompile(`^free ([[:xdigit:]]+) (\d+)$`),
		Syntax:  "<hex offset> <size>",
		Help:    "EFI_BOOT_SERVICES.FreePages()",
		Fn:      freeCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "exit, handoff",
		Args:    1,
		Pattern: regexp.MustCompile(`^(exit|handoff)$`),
		Help:    "EFI_BOOT_SERVICES.ExitBootServices()",
		Fn:      exitCmd,
	})
}

func services() (*uefi.Services, error) {
	if UEFI == nil || UEFI.Boot == nil {
		return nil, ErrNoServices
	}

	return UEFI, nil
}

func uefiCmd(_ *shell.Interface, _ []string) (res string, err error) {
	var buf bytes.Buffer

	s, err := services()

	if err != nil {
		return
	}

	t := s.SystemTable

	fmt.Fprintf(&buf, "System Table .......: %#x\n", s.Address())
	fmt.Fprintf(&buf, "Image Handle .......: %#x\n", s.ImageHandle())
	fmt.Fprintf(&buf, "UEFI Revision ......: %d.%d\n", t.Header.Revision>>16, t.Header.Revision&0xffff)
	fmt.Fprintf(&buf, "Firmware Revision ..: %#x\n", t.FirmwareRevision)
	fmt.Fprintf(&buf, "Console Output .....: %#x\n", t.ConOut)
	fmt.Fprintf(&buf, "Runtime Services ...: %#x\n", t.RuntimeServices)
	fmt.Fprintf(&buf, "Boot Services ......: %#x (%s)\n", t.BootServices, s.Boot.State())
	fmt.Fprintf(&buf, "Configuration Tables: %d @ %#x", t.NumberOfTableEntries, t.ConfigurationTable)

	return buf.String(), nil
}

func memmapCmd(_ *shell.Interface, _ []string) (res string, err error) {
	var buf bytes.Buffer
	var m *uefi.MemoryMap

	s, err := services()

	if err != nil {
		return
	}

	if m, err = s.Boot.GetMemoryMap(); err != nil {
		return
	}

	m.Fprint(&buf)

	usable := m.Usable()
	fmt.Fprintf(&buf, "%d descriptors, %d usable pages (%s)",
		len(m.Descriptors), usable, humanize.IBytes(usable*uefi.PageSize))

	return buf.String(), nil
}

func e820Cmd(_ *shell.Interface, _ []string) (res string, err error) {
	var buf bytes.Buffer
	var m *uefi.MemoryMap

	s, err := services()

	if err != nil {
		return
	}

	if m, err = s.Boot.GetMemoryMap(); err != nil {
		return
	}

	e, err := m.E820()

	if err != nil {
		return
	}

	fmt.Fprintf(&buf, "Start            End              Size       Type\n")

	for _, entry := range e {
		fmt.Fprintf(&buf, "%016x %016x %-10s %v\n",
			entry.Addr, entry.Addr+entry.Size-1, humanize.IBytes(entry.Size), entry.MemType)
	}

	return buf.String(), nil
}

func parseRange(arg []string) (addr uint64, size uint64, err error) {
	if addr, err = strconv.ParseUint(arg[0], 16, 64); err != nil {
		return 0, 0, fmt.Errorf("invalid address, %v", err)
	}

	if size, err = strconv.ParseUint(arg[1], 10, 64); err != nil {
		return 0, 0, fmt.Errorf("invalid size, %v", err)
	}

	if addr%uefi.PageSize != 0 {
		return 0, 0, fmt.Errorf("address must be %d bytes aligned", uefi.PageSize)
	}

	if size == 0 {
		return 0, 0, errors.New("invalid size")
	}

	return
}

func allocCmd(_ *shell.Interface, arg []string) (res string, err error) {
	s, err := services()

	if err != nil {
		return
	}

	addr, size, err := parseRange(arg)

	if err != nil {
		return
	}

	log.Printf("allocating memory range %#08x - %#08x", addr, addr+size)

	addr, err = s.Boot.AllocatePages(uefi.AllocateAddress, uefi.EfiLoaderData, int(size), addr)

	switch {
	case errors.Is(err, uefi.ErrEfiOutOfResources), errors.Is(err, uefi.ErrEfiNotFound):
		return "", fmt.Errorf("memory range %#08x - %#08x unavailable, %w", addr, addr+size, err)
	case err != nil:
		return
	}

	return fmt.Sprintf("allocated %s at %#08x", humanize.IBytes(size), addr), nil
}

func freeCmd(_ *shell.Interface, arg []string) (res string, err error) {
	s, err := services()

	if err != nil {
		return
	}

	addr, size, err := parseRange(arg)

	if err != nil {
		return
	}

	log.Printf("freeing memory range %#08x - %#08x", addr, addr+size)

	err = s.Boot.FreePages(addr, int(size))

	switch {
	case errors.Is(err, uefi.ErrEfiNotFound):
		return "", fmt.Errorf("no allocation at %#08x, %w", addr, err)
	case err != nil:
		return
	}

	return fmt.Sprintf("freed %s at %#08x", humanize.IBytes(size), addr), nil
}

// exitCmd hands off the machine, after which the EFI console is no longer
// available and only log output not directed to it remains visible.
func exitCmd(_ *shell.Interface, _ []string) (res string, err error) {
	s, err := services()

	if err != nil {
		return
	}

	if _, err = s.Handoff(log.Writer()); err != nil {
		return
	}

	log.Printf("exited EFI Boot Services")

	return "", io.EOF
}
