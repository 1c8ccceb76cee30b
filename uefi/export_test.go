// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

const (
	ChunkSize  = chunkSize
	MaxEntries = maxEntries
)

func ResetRegistry() {
	systemTable.Store(0)
}
