// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build !(tamago && amd64)

package uefi

// Firmware services are not reachable outside of a TamaGo UEFI image.
func callService(_ uint64, _ []uint64) (status uint64) {
	return errorBit | EFI_UNSUPPORTED
}
