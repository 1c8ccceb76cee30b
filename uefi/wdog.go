// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

const watchdogCode = 0xba3e5e7a1

// SetWatchdogTimer calls EFI_BOOT_SERVICES.SetWatchdogTimer(), a zero
// timeout disables the watchdog.
func (s *BootServices) SetWatchdogTimer(sec int) (err error) {
	if err = s.available(); err != nil {
		return
	}

	return parseStatus(s.table.SetWatchdogTimer(uint64(sec), watchdogCode))
}
