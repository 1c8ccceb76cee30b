// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"encoding/binary"
	"unicode/utf16"
	"unicode/utf8"
)

// Console output chunk size in UTF-16 code units, excluding the NUL
// terminator.
const chunkSize = 32

// InputKey represents an EFI Input Key descriptor.
type InputKey struct {
	ScanCode    uint16
	UnicodeChar [2]byte
}

// Console implements the [io.ReadWriter] interface over EFI Simple Text
// Input/Output protocol.
//
// Output is best effort, firmware errors are never returned to the caller.
type Console struct {
	// ForceLine controls whether line feeds (LF) should be supplemented
	// with a carriage return (CR).
	ForceLine bool

	// ReplaceTabs controls whether Console I/O output should have Tab
	// characters replaced with a number of spaces.
	ReplaceTabs int

	In  TextInputProtocol
	Out TextOutputProtocol

	buf [chunkSize + 1]uint16
}

// detach releases firmware protocols, any further I/O is discarded.
func (c *Console) detach() {
	c.In = nil
	c.Out = nil
}

// Input calls EFI_SIMPLE_TEXT_INPUT_PROTOCOL.ReadKeyStroke().
func (c *Console) Input(k *InputKey) (status uint64) {
	if c.In == nil {
		return errorBit | EFI_NOT_READY
	}

	return c.In.ReadKeyStroke(k)
}

// Output calls EFI_SIMPLE_TEXT_OUTPUT_PROTOCOL.OutputString() for each
// chunk of the argument UTF-16 string, NUL code units are dropped.
func (c *Console) Output(s []uint16) (status uint64) {
	var n int

	if c.Out == nil {
		return
	}

	flush := func() {
		c.buf[n] = 0x0000

		if res := c.Out.OutputString(c.buf[:n+1]); res != EFI_SUCCESS && status == EFI_SUCCESS {
			status = res
		}

		n = 0
	}

	for i, r := range s {
		// a NUL would terminate the firmware string early
		if r == 0x0000 {
			continue
		}

		// keep surrogate pairs within the same chunk
		if n == chunkSize || (n == chunkSize-1 && isHighSurrogate(r) && i+1 < len(s)) {
			flush()
		}

		c.buf[n] = r
		n++
	}

	if n > 0 {
		flush()
	}

	return
}

func isHighSurrogate(r uint16) bool {
	return r >= 0xd800 && r < 0xdc00
}

// Reset calls EFI_SIMPLE_TEXT_OUTPUT_PROTOCOL.Reset().
func (c *Console) Reset() {
	if c.Out != nil {
		c.Out.Reset(true)
	}
}

// ClearScreen calls EFI_SIMPLE_TEXT_OUTPUT_PROTOCOL.ClearScreen().
func (c *Console) ClearScreen() {
	if c.Out != nil {
		c.Out.ClearScreen()
	}
}

// Read available data to buffer from console.
func (c *Console) Read(p []byte) (n int, err error) {
	k := &InputKey{}

	for n+utf8.UTFMax <= len(p) {
		status := c.Input(k)

		switch {
		case status == EFI_SUCCESS:
			if r := rune(binary.LittleEndian.Uint16(k.UnicodeChar[:])); r != 0 {
				n += utf8.EncodeRune(p[n:], r)
			}
		case status&0xff == EFI_NOT_READY:
			return
		default:
			return n, parseStatus(status)
		}
	}

	return
}

// Write data from buffer to console.
func (c *Console) Write(p []byte) (n int, err error) {
	var s []uint16

	if len(p) == 0 {
		return
	}

	// We receive an UTF-8 string but we can output only UTF-16 ones.

	for _, r := range utf16.Encode([]rune(string(p))) {
		if r == 0x09 && c.ReplaceTabs > 0 { // Tab
			for i := 0; i < c.ReplaceTabs; i++ {
				s = append(s, 0x20) // Space
			}
			continue
		}

		s = append(s, r)

		if r == 0x0a && c.ForceLine { // LF
			s = append(s, 0x0d) // CR
		}
	}

	c.Output(s)

	return len(p), nil
}
