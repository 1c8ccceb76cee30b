// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && amd64

package uefi

import (
	"github.com/usbarmory/tamago/dma"
)

func readMemory(addr uint64, size int, buf []byte) (err error) {
	r, err := dma.NewRegion(uint(addr), size, true)

	if err != nil {
		return
	}

	ptr, mem := r.Reserve(len(buf), 0)
	defer r.Release(ptr)

	copy(buf, mem)

	return
}
