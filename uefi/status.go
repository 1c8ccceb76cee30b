// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"fmt"
)

// EFI_STATUS error codes are flagged with the highest bit.
const errorBit = 1 << 63

// EFI_STATUS code values, error codes additionally carry errorBit.
//
// Unified Extensible Firmware Interface (UEFI) Specification
// Version 2.10 - Appendix D: Status Codes
const (
	EFI_SUCCESS = 0

	EFI_LOAD_ERROR           = 1
	EFI_INVALID_PARAMETER    = 2
	EFI_UNSUPPORTED          = 3
	EFI_BAD_BUFFER_SIZE      = 4
	EFI_BUFFER_TOO_SMALL     = 5
	EFI_NOT_READY            = 6
	EFI_DEVICE_ERROR         = 7
	EFI_WRITE_PROTECTED      = 8
	EFI_OUT_OF_RESOURCES     = 9
	EFI_VOLUME_CORRUPTED     = 10
	EFI_VOLUME_FULL          = 11
	EFI_NO_MEDIA             = 12
	EFI_MEDIA_CHANGED        = 13
	EFI_NOT_FOUND            = 14
	EFI_ACCESS_DENIED        = 15
	EFI_NO_RESPONSE          = 16
	EFI_NO_MAPPING           = 17
	EFI_TIMEOUT              = 18
	EFI_NOT_STARTED          = 19
	EFI_ALREADY_STARTED      = 20
	EFI_ABORTED              = 21
	EFI_ICMP_ERROR           = 22
	EFI_TFTP_ERROR           = 23
	EFI_PROTOCOL_ERROR       = 24
	EFI_INCOMPATIBLE_VERSION = 25
	EFI_SECURITY_VIOLATION   = 26
	EFI_CRC_ERROR            = 27
	EFI_END_OF_MEDIA         = 28
	EFI_END_OF_FILE          = 31
	EFI_INVALID_LANGUAGE     = 32
	EFI_COMPROMISED_DATA     = 33
	EFI_IP_ADDRESS_CONFLICT  = 34
	EFI_HTTP_ERROR           = 35

	EFI_WARN_UNKNOWN_GLYPH    = 1
	EFI_WARN_DELETE_FAILURE   = 2
	EFI_WARN_WRITE_FAILURE    = 3
	EFI_WARN_BUFFER_TOO_SMALL = 4
	EFI_WARN_STALE_DATA       = 5
	EFI_WARN_FILE_SYSTEM      = 6
	EFI_WARN_RESET_REQUIRED   = 7
)

var errorNames = map[Status]string{
	errorBit | EFI_LOAD_ERROR:           "EFI_LOAD_ERROR",
	errorBit | EFI_INVALID_PARAMETER:    "EFI_INVALID_PARAMETER",
	errorBit | EFI_UNSUPPORTED:          "EFI_UNSUPPORTED",
	errorBit | EFI_BAD_BUFFER_SIZE:      "EFI_BAD_BUFFER_SIZE",
	errorBit | EFI_BUFFER_TOO_SMALL:     "EFI_BUFFER_TOO_SMALL",
	errorBit | EFI_NOT_READY:            "EFI_NOT_READY",
	errorBit | EFI_DEVICE_ERROR:         "EFI_DEVICE_ERROR",
	errorBit | EFI_WRITE_PROTECTED:      "EFI_WRITE_PROTECTED",
	errorBit | EFI_OUT_OF_RESOURCES:     "EFI_OUT_OF_RESOURCES",
	errorBit | EFI_VOLUME_CORRUPTED:     "EFI_VOLUME_CORRUPTED",
	errorBit | EFI_VOLUME_FULL:          "EFI_VOLUME_FULL",
	errorBit | EFI_NO_MEDIA:             "EFI_NO_MEDIA",
	errorBit | EFI_MEDIA_CHANGED:        "EFI_MEDIA_CHANGED",
	errorBit | EFI_NOT_FOUND:            "EFI_NOT_FOUND",
	errorBit | EFI_ACCESS_DENIED:        "EFI_ACCESS_DENIED",
	errorBit | EFI_NO_RESPONSE:          "EFI_NO_RESPONSE",
	errorBit | EFI_NO_MAPPING:           "EFI_NO_MAPPING",
	errorBit | EFI_TIMEOUT:              "EFI_TIMEOUT",
	errorBit | EFI_NOT_STARTED:          "EFI_NOT_STARTED",
	errorBit | EFI_ALREADY_STARTED:      "EFI_ALREADY_STARTED",
	errorBit | EFI_ABORTED:              "EFI_ABORTED",
	errorBit | EFI_ICMP_ERROR:           "EFI_ICMP_ERROR",
	errorBit | EFI_TFTP_ERROR:           "EFI_TFTP_ERROR",
	errorBit | EFI_PROTOCOL_ERROR:       "EFI_PROTOCOL_ERROR",
	errorBit | EFI_INCOMPATIBLE_VERSION: "EFI_INCOMPATIBLE_VERSION",
	errorBit | EFI_SECURITY_VIOLATION:   "EFI_SECURITY_VIOLATION",
	errorBit | EFI_CRC_ERROR:            "EFI_CRC_ERROR",
	errorBit | EFI_END_OF_MEDIA:         "EFI_END_OF_MEDIA",
	errorBit | EFI_END_OF_FILE:          "EFI_END_OF_FILE",
	errorBit | EFI_INVALID_LANGUAGE:     "EFI_INVALID_LANGUAGE",
	errorBit | EFI_COMPROMISED_DATA:     "EFI_COMPROMISED_DATA",
	errorBit | EFI_IP_ADDRESS_CONFLICT:  "EFI_IP_ADDRESS_CONFLICT",
	errorBit | EFI_HTTP_ERROR:           "EFI_HTTP_ERROR",
}

var warningNames = map[Status]string{
	EFI_WARN_UNKNOWN_GLYPH:    "EFI_WARN_UNKNOWN_GLYPH",
	EFI_WARN_DELETE_FAILURE:   "EFI_WARN_DELETE_FAILURE",
	EFI_WARN_WRITE_FAILURE:    "EFI_WARN_WRITE_FAILURE",
	EFI_WARN_BUFFER_TOO_SMALL: "EFI_WARN_BUFFER_TOO_SMALL",
	EFI_WARN_STALE_DATA:       "EFI_WARN_STALE_DATA",
	EFI_WARN_FILE_SYSTEM:      "EFI_WARN_FILE_SYSTEM",
	EFI_WARN_RESET_REQUIRED:   "EFI_WARN_RESET_REQUIRED",
}

// StatusClass represents the severity of an EFI_STATUS code.
type StatusClass int

// EFI_STATUS classes
const (
	Success StatusClass = iota
	Warning
	Error
)

func (c StatusClass) String() string {
	switch c {
	case Success:
		return "success"
	case Warning:
		return "warning"
	default:
		return "error"
	}
}

// Status represents an EFI_STATUS code as returned by firmware services.
type Status uint64

// Describe returns the class and the specification name of the status code,
// unknown codes are reported as "unknown" within the class implied by the
// error bit.
func (s Status) Describe() (class StatusClass, kind string) {
	var ok bool

	switch {
	case s == EFI_SUCCESS:
		return Success, "EFI_SUCCESS"
	case s&errorBit != 0:
		class = Error
		kind, ok = errorNames[s]
	default:
		class = Warning
		kind, ok = warningNames[s]
	}

	if !ok {
		kind = "unknown"
	}

	return
}

// IsError reports whether the status code is an error.
func (s Status) IsError() bool {
	return s&errorBit != 0
}

func (s Status) String() string {
	_, kind := s.Describe()
	return kind
}

// StatusError represents a firmware service failure.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	class, kind := e.Status.Describe()
	return fmt.Sprintf("EFI_STATUS %s %#x (%s)", class, uint64(e.Status), kind)
}

// Is allows matching against the status sentinel errors with [errors.Is], for
// instance errors.Is(err, uefi.ErrEfiNotFound).
func (e *StatusError) Is(target error) bool {
	if t, ok := target.(*StatusError); ok {
		return t.Status == e.Status
	}

	return false
}

// Err returns the status as an error, nil for EFI_SUCCESS.
func (s Status) Err() error {
	if s == EFI_SUCCESS {
		return nil
	}

	return &StatusError{Status: s}
}

// Sentinel errors for status codes checked by callers.
var (
	ErrEfiInvalidParameter = Status(errorBit | EFI_INVALID_PARAMETER).Err()
	ErrEfiNotFound         = Status(errorBit | EFI_NOT_FOUND).Err()
	ErrEfiDeviceError      = Status(errorBit | EFI_DEVICE_ERROR).Err()
	ErrEfiOutOfResources   = Status(errorBit | EFI_OUT_OF_RESOURCES).Err()
)

// parseStatus converts an EFI_STATUS to an error, any status other than
// EFI_SUCCESS (warnings included) is an error.
func parseStatus(status uint64) (err error) {
	return Status(status).Err()
}
