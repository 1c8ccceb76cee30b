// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"encoding/binary"
	"errors"
)

const align = 8

func unmarshalBinary(buf []byte, data any) (err error) {
	_, err = binary.Decode(buf, binary.LittleEndian, data)
	return
}

// decode reads a fixed layout firmware structure at the argument address.
func decode(data any, addr uint64) (err error) {
	if addr == 0 {
		return errors.New("invalid address")
	}

	n := binary.Size(data)

	if n <= 0 {
		return errors.New("invalid structure")
	}

	buf := make([]byte, n)

	if err = readMemory(addr, (n+align-1)&^(align-1), buf); err != nil {
		return
	}

	return unmarshalBinary(buf, data)
}
