// errors.go: structured configuration errors for the idr package
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package idr

import (
	"github.com/agilira/go-errors"
)

// Error codes for Idr construction failures. An invalid configuration
// is a build-time failure; in Go, that maps onto an error returned by
// New rather than anything observed later at runtime.
const (
	ErrCodeInvalidInitialPageSize errors.ErrorCode = "IDR_INVALID_INITIAL_PAGE_SIZE"
	ErrCodeInvalidMaxPages        errors.ErrorCode = "IDR_INVALID_MAX_PAGES"
	ErrCodeInvalidReservedBits    errors.ErrorCode = "IDR_INVALID_RESERVED_BITS"
	ErrCodeInvalidBitBudget       errors.ErrorCode = "IDR_INVALID_BIT_BUDGET"
)

const (
	msgInvalidInitialPageSize = "invalid initial page size: must be a power of two >= 1"
	msgInvalidMaxPages        = "invalid max pages: must be greater than 0"
	msgInvalidReservedBits    = "invalid reserved bits: must be <= 32"
	msgInvalidBitBudget       = "invalid bit budget: slot and generation bits must each fit in 32 bits"
)

// newErrInvalidInitialPageSize reports a non-power-of-two or zero
// InitialPageSize.
func newErrInvalidInitialPageSize(size uint32) error {
	return errors.NewWithContext(ErrCodeInvalidInitialPageSize, msgInvalidInitialPageSize, map[string]interface{}{
		"provided_initial_page_size": size,
	})
}

// newErrInvalidMaxPages reports a zero MaxPages.
func newErrInvalidMaxPages(maxPages uint32) error {
	return errors.NewWithContext(ErrCodeInvalidMaxPages, msgInvalidMaxPages, map[string]interface{}{
		"provided_max_pages": maxPages,
	})
}

// newErrInvalidReservedBits reports ReservedBits > 32.
func newErrInvalidReservedBits(bits uint32) error {
	return errors.NewWithContext(ErrCodeInvalidReservedBits, msgInvalidReservedBits, map[string]interface{}{
		"provided_reserved_bits": bits,
		"valid_range":            "0-32",
	})
}

// newErrInvalidBitBudget reports SLOT_BITS or GENERATION_BITS
// exceeding 32, or SLOT_BITS exceeding USED_BITS.
func newErrInvalidBitBudget(slotBits, usedBits uint32) error {
	return errors.NewWithContext(ErrCodeInvalidBitBudget, msgInvalidBitBudget, map[string]interface{}{
		"computed_slot_bits": slotBits,
		"computed_used_bits": usedBits,
	})
}

// IsConfigError reports whether err was returned because of an invalid
// Config, as opposed to any other failure mode.
func IsConfigError(err error) bool {
	return errors.HasCode(err, ErrCodeInvalidInitialPageSize) ||
		errors.HasCode(err, ErrCodeInvalidMaxPages) ||
		errors.HasCode(err, ErrCodeInvalidReservedBits) ||
		errors.HasCode(err, ErrCodeInvalidBitBudget)
}
