// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

// MemoryType represents an EFI_MEMORY_TYPE classification.
type MemoryType uint32

// EFI_MEMORY_TYPE
const (
	EfiReservedMemoryType MemoryType = iota
	EfiLoaderCode
	EfiLoaderData
	EfiBootServicesCode
	EfiBootServicesData
	EfiRuntimeServicesCode
	EfiRuntimeServicesData
	EfiConventionalMemory
	EfiUnusableMemory
	EfiACPIReclaimMemory
	EfiACPIMemoryNVS
	EfiMemoryMappedIO
	EfiMemoryMappedIOPortSpace
	EfiPalCode
	EfiPersistentMemory
	EfiUnacceptedMemoryType
	EfiMaxMemoryType
)

// EfiInvalidMemoryType represents any memory type code not defined by the
// supported specification revision, including OEM and OS vendor ranges.
const EfiInvalidMemoryType MemoryType = 0xffffffff

var memoryTypeNames = [...]string{
	EfiReservedMemoryType:      "Reserved",
	EfiLoaderCode:              "LoaderCode",
	EfiLoaderData:              "LoaderData",
	EfiBootServicesCode:        "BootServicesCode",
	EfiBootServicesData:        "BootServicesData",
	EfiRuntimeServicesCode:     "RuntimeServicesCode",
	EfiRuntimeServicesData:     "RuntimeServicesData",
	EfiConventionalMemory:      "Conventional",
	EfiUnusableMemory:          "Unusable",
	EfiACPIReclaimMemory:       "ACPIReclaim",
	EfiACPIMemoryNVS:           "ACPINVS",
	EfiMemoryMappedIO:          "MMIO",
	EfiMemoryMappedIOPortSpace: "MMIOPortSpace",
	EfiPalCode:                 "PalCode",
	EfiPersistentMemory:        "Persistent",
	EfiUnacceptedMemoryType:    "Unaccepted",
}

// ClassifyMemory converts a raw EFI_MEMORY_TYPE code, codes outside of the
// defined set are classified as EfiInvalidMemoryType.
func ClassifyMemory(code uint32) MemoryType {
	if code >= uint32(EfiMaxMemoryType) {
		return EfiInvalidMemoryType
	}

	return MemoryType(code)
}

func (t MemoryType) String() string {
	if t >= EfiMaxMemoryType {
		return "Invalid"
	}

	return memoryTypeNames[t]
}

// EFI_MEMORY_DESCRIPTOR Attribute bits
const (
	EFI_MEMORY_UC            = 0x0000000000000001
	EFI_MEMORY_WC            = 0x0000000000000002
	EFI_MEMORY_WT            = 0x0000000000000004
	EFI_MEMORY_WB            = 0x0000000000000008
	EFI_MEMORY_UCE           = 0x0000000000000010
	EFI_MEMORY_WP            = 0x0000000000001000
	EFI_MEMORY_RP            = 0x0000000000002000
	EFI_MEMORY_XP            = 0x0000000000004000
	EFI_MEMORY_NV            = 0x0000000000008000
	EFI_MEMORY_MORE_RELIABLE = 0x0000000000010000
	EFI_MEMORY_RO            = 0x0000000000020000
	EFI_MEMORY_SP            = 0x0000000000040000
	EFI_MEMORY_CPU_CRYPTO    = 0x0000000000080000
	EFI_MEMORY_RUNTIME       = 0x8000000000000000
)
