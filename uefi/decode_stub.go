// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build !(tamago && amd64)

package uefi

import (
	"errors"
)

func readMemory(_ uint64, _ int, _ []byte) error {
	return errors.New("firmware memory is not accessible on this target")
}
