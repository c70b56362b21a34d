// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mmio provides access to memory-mapped hardware through the Bus
// interface.
//
// Besides plain loads and stores a Bus provides the exclusive access pair
// (LoadEx, StoreEx) used by lock-free read-modify-write loops. LoadEx arms the
// exclusive monitor for an address, StoreEx stores only if the monitor is
// still armed and reports the result. An interrupt taken between the two
// clears the monitor so the loop must start again.
//
// All accesses must be naturally aligned.
package mmio

// Size is the width of a single bus access in bytes.
type Size uint8

const (
	Byte Size = 1
	Half Size = 2
	Word Size = 4
)

// Bits returns the number of bits in s.
func (s Size) Bits() uint { return uint(s) * 8 }

// Mask returns the mask of the value bits of an s-wide access.
func (s Size) Mask() uint32 {
	return uint32(1<<s.Bits() - 1)
}

// Valid reports whether s is one of Byte, Half, Word.
func (s Size) Valid() bool {
	return s == Byte || s == Half || s == Word
}

func (s Size) String() string {
	switch s {
	case Byte:
		return "8"
	case Half:
		return "16"
	case Word:
		return "32"
	}
	return "bad size"
}

// SizeOf returns the access size that corresponds to the bit width n.
func SizeOf(n int) (Size, bool) {
	switch n {
	case 8:
		return Byte, true
	case 16:
		return Half, true
	case 32:
		return Word, true
	}
	return 0, false
}

// Bus is the hardware access interface.
type Bus interface {
	// Load reads size bytes at addr.
	Load(addr uintptr, size Size) uint32

	// Store writes the low size bytes of v at addr.
	Store(addr uintptr, size Size, v uint32)

	// LoadEx reads size bytes at addr and arms the exclusive monitor.
	LoadEx(addr uintptr, size Size) uint32

	// StoreEx writes v at addr if the monitor armed by the preceding LoadEx
	// of the same address is still armed. It reports whether the store took
	// place. StoreEx always disarms the monitor.
	StoreEx(addr uintptr, size Size, v uint32) bool
}

func checkAlign(addr uintptr, size Size) {
	if !size.Valid() {
		panic("mmio: bad access size")
	}
	if addr&uintptr(size-1) != 0 {
		panic("mmio: unaligned access")
	}
}

// lane returns the shift of a size-wide access at addr within its aligned
// word. Byte lanes are little-endian.
func lane(addr uintptr) uint {
	return uint(addr&3) * 8
}

func extract(word uint32, addr uintptr, size Size) uint32 {
	return word >> lane(addr) & size.Mask()
}

func insert(word uint32, addr uintptr, size Size, v uint32) uint32 {
	sh := lane(addr)
	m := size.Mask() << sh
	return word&^m | v<<sh&m
}
