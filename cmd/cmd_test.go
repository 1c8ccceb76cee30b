// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cmd_test

import (
	"bytes"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/usbarmory/go-handoff/cmd"
	"github.com/usbarmory/go-handoff/shell"
	"github.com/usbarmory/go-handoff/uefi"
	"github.com/usbarmory/go-handoff/uefi/uefitest"
)

func setup(t *testing.T) *uefitest.Firmware {
	fw := uefitest.New(uefitest.QEMU()...)
	s, err := fw.Services()

	if err != nil {
		t.Fatal(err)
	}

	cmd.UEFI = s
	t.Cleanup(func() { cmd.UEFI = nil })

	return fw
}

func exec(t *testing.T, line string) (string, error) {
	var buf bytes.Buffer

	err := (&shell.Interface{}).Exec(line, &buf)

	return buf.String(), err
}

func TestNoServices(t *testing.T) {
	cmd.UEFI = nil

	for _, line := range []string{"uefi", "memmap", "e820", "alloc 1000 10", "free 1000 10", "exit"} {
		if _, err := exec(t, line); !errors.Is(err, cmd.ErrNoServices) {
			t.Fatalf("%s: unexpected error %v", line, err)
		}
	}
}

func TestUEFI(t *testing.T) {
	setup(t)

	res, err := exec(t, "uefi")

	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"UEFI Revision ......: 2.100", "firmware owned"} {
		if !strings.Contains(res, want) {
			t.Fatalf("output is missing %q:\n%s", want, res)
		}
	}
}

func TestMemmap(t *testing.T) {
	setup(t)

	res, err := exec(t, "memmap")

	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(res), "\n")

	if len(lines) != 12 {
		t.Fatalf("got %d lines, want 12:\n%s", len(lines), res)
	}

	if !strings.HasPrefix(lines[11], "10 descriptors, 256608 usable pages") {
		t.Fatalf("unexpected summary %q", lines[11])
	}
}

func TestE820(t *testing.T) {
	setup(t)

	res, err := exec(t, "e820")

	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(res, "0000000000100000 00000000007fffff 7.0 MiB") {
		t.Fatalf("unexpected output:\n%s", res)
	}
}

func TestAlloc(t *testing.T) {
	fw := setup(t)
	key := fw.MapKey()

	res, err := exec(t, "alloc 40000000 8192")

	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(res, "allocated 8.0 KiB at 0x40000000") {
		t.Fatalf("unexpected output %q", res)
	}

	d := fw.Descriptors[len(fw.Descriptors)-1]

	if d.PhysicalStart != 0x40000000 || d.NumberOfPages != 2 || d.MemoryType() != uefi.EfiLoaderData {
		t.Fatalf("unexpected descriptor %+v", d)
	}

	if fw.MapKey() == key {
		t.Fatal("map key not updated")
	}

	if _, err = exec(t, "alloc 40000010 8192"); err == nil {
		t.Fatal("unaligned address accepted")
	}

	// EfiLoaderCode
	if _, err = exec(t, "alloc 1000000 4096"); !errors.Is(err, uefi.ErrEfiOutOfResources) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestFree(t *testing.T) {
	fw := setup(t)
	n := len(fw.Descriptors)

	if _, err := exec(t, "alloc 40000000 8192"); err != nil {
		t.Fatal(err)
	}

	res, err := exec(t, "free 40000000 8192")

	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(res, "freed 8.0 KiB at 0x40000000") {
		t.Fatalf("unexpected output %q", res)
	}

	if len(fw.Descriptors) != n {
		t.Fatalf("pages not freed, %d descriptors", len(fw.Descriptors))
	}

	if _, err = exec(t, "free 40000000 8192"); !errors.Is(err, uefi.ErrEfiNotFound) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestExit(t *testing.T) {
	var buf bytes.Buffer

	fw := setup(t)

	w := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(w)

	if _, err := exec(t, "handoff"); err != io.EOF {
		t.Fatalf("unexpected error %v", err)
	}

	if !fw.Exited || cmd.UEFI.Boot.State() != uefi.ProgramOwned {
		t.Fatal("EFI Boot Services not exited")
	}

	for _, want := range []string{"exiting EFI Boot Services", "exited EFI Boot Services"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("log is missing %q:\n%s", want, buf.String())
		}
	}

	if _, err := exec(t, "memmap"); !errors.Is(err, uefi.ErrExited) {
		t.Fatalf("unexpected error %v", err)
	}
}
