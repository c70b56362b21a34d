// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mmio

import (
	"sync/atomic"
	"unsafe"
)

// Mem is a Bus over a window of real memory that starts at the bus address
// base. Every access is performed with the width it was requested with, so a
// byte store never rewrites the neighbouring bytes. Word accesses use
// sync/atomic.
//
// The exclusive pair is emulated with compare-and-swap: LoadEx remembers the
// word it read, StoreEx succeeds only if the word still holds that value.
// There is no compare-and-swap narrower than a word, so LoadEx and StoreEx
// panic for byte and halfword accesses. Like the local monitor of a single
// core, a Mem has one monitor, so exclusive sequences on one Mem must not be
// run from more than one goroutine at a time.
type Mem struct {
	base uintptr
	buf  []byte
	mon  struct {
		addr  uintptr
		val   uint32
		armed bool
	}
}

// NewMem returns a Mem that maps the bus addresses [base, base+len(buf)) to
// buf. The buf must be 4-byte aligned and its length a multiple of 4.
func NewMem(base uintptr, buf []byte) *Mem {
	if base&3 != 0 || len(buf)&3 != 0 {
		panic("mmio: unaligned memory window")
	}
	if len(buf) != 0 && uintptr(unsafe.Pointer(unsafe.SliceData(buf)))&3 != 0 {
		panic("mmio: unaligned memory window")
	}
	return &Mem{base: base, buf: buf}
}

// Raw returns a Mem for the physical address range [base, base+size). It is
// meant for targets without virtual memory, where bus addresses are pointers.
func Raw(base, size uintptr) *Mem {
	// base is a physical bus address, not a Go object, on a target without an
	// MMU. go vet reports this conversion as a possible misuse of
	// unsafe.Pointer.
	buf := unsafe.Slice((*byte)(unsafe.Pointer(base)), size)
	return NewMem(base, buf)
}

// Base returns the bus address of the first byte of the window.
func (m *Mem) Base() uintptr { return m.base }

// Len returns the size of the window in bytes.
func (m *Mem) Len() int { return len(m.buf) }

func (m *Mem) ptr(addr uintptr, size Size) unsafe.Pointer {
	checkAlign(addr, size)
	off := addr - m.base
	if addr < m.base || off >= uintptr(len(m.buf)) {
		panic("mmio: address out of window")
	}
	return unsafe.Pointer(&m.buf[off])
}

// Single accesses of the exact width. Tests replace them to record the
// accesses.
var (
	load = func(p unsafe.Pointer, size Size) uint32 {
		switch size {
		case Byte:
			return uint32(*(*uint8)(p))
		case Half:
			return uint32(*(*uint16)(p))
		}
		return atomic.LoadUint32((*uint32)(p))
	}
	store = func(p unsafe.Pointer, size Size, v uint32) {
		switch size {
		case Byte:
			*(*uint8)(p) = uint8(v)
		case Half:
			*(*uint16)(p) = uint16(v)
		default:
			atomic.StoreUint32((*uint32)(p), v)
		}
	}
	cas = func(p unsafe.Pointer, old, v uint32) bool {
		return atomic.CompareAndSwapUint32((*uint32)(p), old, v)
	}
)

func (m *Mem) Load(addr uintptr, size Size) uint32 {
	return load(m.ptr(addr, size), size)
}

func (m *Mem) Store(addr uintptr, size Size, v uint32) {
	store(m.ptr(addr, size), size, v)
}

func exWord(size Size) {
	if size != Word {
		panic("mmio: exclusive sub-word access not supported")
	}
}

func (m *Mem) LoadEx(addr uintptr, size Size) uint32 {
	p := m.ptr(addr, size)
	exWord(size)
	v := load(p, Word)
	m.mon.addr = addr
	m.mon.val = v
	m.mon.armed = true
	return v
}

func (m *Mem) StoreEx(addr uintptr, size Size, v uint32) bool {
	p := m.ptr(addr, size)
	exWord(size)
	armed := m.mon.armed && m.mon.addr == addr
	m.mon.armed = false
	return armed && cas(p, m.mon.val, v)
}
