// key.go: the Key codec
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package idr

import "math/bits"

// Key is an opaque, non-zero 64-bit handle returned by Insert and
// VacantEntry. It packs, low bits first: SLOT_BITS of slot id,
// GENERATION_BITS of generation, and RESERVED_BITS of caller-defined
// tag bits.
//
// Any uint64 in the used-bits range is a syntactically valid Key;
// semantic validity (does it name a live entry) is established only by
// the generation check at lookup time — Get/Remove/Contains accept an
// arbitrary, possibly forged Key and fail silently rather than panic.
type Key uint64

// Uint64 converts k to a plain uint64 for out-of-band transport (e.g.
// across an FFI boundary, or storage in another system).
func (k Key) Uint64() uint64 {
	return uint64(k)
}

// KeyFromUint64 reconstructs a Key from a raw uint64. The result may or
// may not name a live entry; that is only resolved by Get/Remove.
func KeyFromUint64(v uint64) Key {
	return Key(v)
}

// slotID extracts the low SLOT_BITS bits: the 1-based slot identifier.
func (k Key) slotID(r resolved) uint32 {
	return uint32(uint64(k) & r.slotMask)
}

// generation extracts the GENERATION_BITS field above slotID.
func (k Key) generation(r resolved) uint32 {
	return uint32((uint64(k) >> r.slotBits) & r.generationMask)
}

// reserved extracts the high RESERVED_BITS field, the bits a caller may
// use for its own tagging.
func (k Key) reserved(r resolved) uint64 {
	return uint64(k) >> (r.slotBits + r.generationBits)
}

// maskReserved clears the reserved high bits: masking a key produced
// by Insert must yield an equal key, and every accessor must behave
// identically on either form.
func (k Key) maskReserved(r resolved) Key {
	usedMask := r.slotMask | (r.generationMask << r.slotBits)
	return Key(uint64(k) & usedMask)
}

// newKey packs a slot id, generation, and reserved tag into a Key. The
// caller is responsible for ensuring slotID, generation, and reserved
// each fit within their configured bit width; newKey is only ever
// invoked internally with values freshly derived from those widths.
func newKey(r resolved, slotID, generation uint32, reserved uint64) Key {
	v := uint64(slotID) & r.slotMask
	v |= (uint64(generation) & r.generationMask) << r.slotBits
	v |= reserved << (r.slotBits + r.generationBits)
	return Key(v)
}

// pageForSlot derives the owning page index and intra-page offset for
// slotID:
//
//	page_no = 31 - trailing_zeros(INITIAL_PAGE_SIZE) - leading_zeros(slot_id)
//	start_of(p) = 1 << (trailing_zeros(INITIAL_PAGE_SIZE) + p)
//	offset = slot_id - start_of(page_no)
//
// slotID must be non-zero (Key is never all-zero in its slot field);
// the caller must further check pageNo < MaxPages before indexing.
func pageForSlot(r resolved, slotID uint32) (pageNo uint32, offset uint32) {
	pageNo = 31 - r.initialPageTZ - uint32(bits.LeadingZeros32(slotID))
	offset = slotID - r.pageStart(pageNo)
	return pageNo, offset
}
