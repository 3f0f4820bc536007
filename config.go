// config.go: configuration for the Idr resolver
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package idr

import "math/bits"

// Config holds the compile-time-style parameters of an Idr. Unlike a
// cache's Config, these values are never adjusted to defaults on
// invalid input: an invalid configuration must refuse to build, so
// validate reports an error instead of silently substituting a default
// (see DESIGN.md, Open Question #1).
type Config struct {
	// InitialPageSize is the capacity of page 0. Must be a power of two
	// >= 1.
	InitialPageSize uint32

	// MaxPages is the number of pages the Idr can grow to. Must be > 0.
	MaxPages uint32

	// ReservedBits is the number of high bits of every Key left for
	// caller-defined tagging. Must be <= 32.
	ReservedBits uint32

	// Logger receives structured diagnostics: a Debug entry each time a
	// page is allocated. Exhaustion is not logged; it is reported only
	// through MetricsCollector. If nil, NoOpLogger is used.
	Logger Logger

	// MetricsCollector receives operation counters and timings. If nil,
	// NoOpMetricsCollector is used (zero overhead).
	MetricsCollector MetricsCollector
}

// DefaultConfig returns InitialPageSize=32, MaxPages=27, ReservedBits=0,
// giving a total capacity of 4_294_967_264 slots and a generation
// period of 2^32.
func DefaultConfig() Config {
	return Config{
		InitialPageSize: 32,
		MaxPages:        27,
		ReservedBits:    0,
	}
}

// resolved holds the derived bit-layout constants computed once from a
// validated Config. It is immutable for the lifetime of an Idr.
type resolved struct {
	initialPageSize uint32
	initialPageTZ   uint32 // trailing_zeros(InitialPageSize)
	maxPages        uint32
	reservedBits    uint32
	usedBits        uint32
	slotBits        uint32
	generationBits  uint32
	slotMask        uint64
	generationMask  uint64
}

// validate checks the configuration against the constraints below
// and, if they hold, returns the derived bit-layout constants.
//
// Constraints:
//   - InitialPageSize is a power of two, >= 1
//   - MaxPages > 0
//   - ReservedBits <= 32
//   - SLOT_BITS = MaxPages + log2(InitialPageSize), must be <= 32
//   - GENERATION_BITS = USED_BITS - SLOT_BITS, must be in [0, 32]
func (c Config) validate() (resolved, error) {
	if c.InitialPageSize == 0 || c.InitialPageSize&(c.InitialPageSize-1) != 0 {
		return resolved{}, newErrInvalidInitialPageSize(c.InitialPageSize)
	}
	if c.MaxPages == 0 {
		return resolved{}, newErrInvalidMaxPages(c.MaxPages)
	}
	if c.ReservedBits > 32 {
		return resolved{}, newErrInvalidReservedBits(c.ReservedBits)
	}

	tz := uint32(bits.TrailingZeros32(c.InitialPageSize))
	usedBits := 64 - c.ReservedBits
	slotBits := c.MaxPages + tz

	if slotBits > 32 {
		return resolved{}, newErrInvalidBitBudget(slotBits, 0)
	}
	if slotBits > usedBits {
		return resolved{}, newErrInvalidBitBudget(slotBits, usedBits)
	}

	generationBits := usedBits - slotBits
	if generationBits > 32 {
		return resolved{}, newErrInvalidBitBudget(slotBits, usedBits)
	}

	r := resolved{
		initialPageSize: c.InitialPageSize,
		initialPageTZ:   tz,
		maxPages:        c.MaxPages,
		reservedBits:    c.ReservedBits,
		usedBits:        usedBits,
		slotBits:        slotBits,
		generationBits:  generationBits,
	}
	if slotBits == 64 {
		r.slotMask = ^uint64(0)
	} else {
		r.slotMask = (uint64(1) << slotBits) - 1
	}
	if generationBits == 64 {
		r.generationMask = ^uint64(0)
	} else {
		r.generationMask = (uint64(1) << generationBits) - 1
	}
	return r, nil
}

// capacity returns the total number of addressable slots across all
// pages: (2^MaxPages - 1) * InitialPageSize.
func (r resolved) capacity() uint64 {
	return (uint64(1)<<r.maxPages - 1) * uint64(r.initialPageSize)
}

// generationPeriod returns 2^GenerationBits, the number of distinct
// generations a slot cycles through before wrapping.
func (r resolved) generationPeriod() uint64 {
	if r.generationBits == 64 {
		return 0 // wraps at the full uint64 range
	}
	return uint64(1) << r.generationBits
}

// pageStart returns the first valid slot_id for page p: 1 <<
// (initialPageTZ + p).
func (r resolved) pageStart(p uint32) uint32 {
	return uint32(1) << (r.initialPageTZ + p)
}

// pageCapacity returns the slot count of page p: InitialPageSize * 2^p.
func (r resolved) pageCapacity(p uint32) uint32 {
	return r.initialPageSize << p
}
