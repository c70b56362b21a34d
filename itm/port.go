// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package itm provides access to the stimulus ports of the ARMv7-M
// Instrumentation Trace Macrocell.
package itm

import (
	"encoding/binary"
	"unsafe"

	"github.com/embeddedgo/regtok/mmio"
)

const (
	Base       uintptr = 0xE000_0000 // address of the stimulus port 0
	PortsCount         = 32
)

// Port is an ITM stimulus port handle. Ports are plain values and may be
// copied: the port hardware serializes the stores made to it.
type Port struct {
	bus  mmio.Bus
	addr uintptr
}

// NewPort returns a handle to the stimulus port n. It panics if n is out of
// [0, PortsCount). The bus must provide exclusive accesses of all sizes
// (mmio.Mem provides them for words only).
func NewPort(bus mmio.Bus, n int) Port {
	if uint(n) >= PortsCount {
		panic("itm: bad stimulus port number")
	}
	return Port{bus, Base + uintptr(n)<<2}
}

// Index returns the port number.
func (p Port) Index() int { return int(p.addr-Base) >> 2 }

// put writes v as one unit. A zero read from the port means its FIFO is full.
func (p Port) put(size mmio.Size, v uint32) {
	for {
		if p.bus.LoadEx(p.addr, size) == 0 {
			continue
		}
		if p.bus.StoreEx(p.addr, size, v) {
			return
		}
	}
}

// WriteByte writes b to the port. It never returns an error.
func (p Port) WriteByte(b byte) error {
	p.put(mmio.Byte, uint32(b))
	return nil
}

// WriteHalf writes h to the port as one unit of two bytes, most significant
// byte first. Its bytes are never split by other writers.
func (p Port) WriteHalf(h uint16) {
	p.put(mmio.Half, uint32(h))
}

// WriteWord writes w to the port as one unit of four bytes, most significant
// byte first. Its bytes are never split by other writers.
func (p Port) WriteWord(w uint32) {
	p.put(mmio.Word, w)
}

// Write writes b to the port. The bytes in the middle of b, starting at the
// first 4-byte aligned address, are written as words. The leading and trailing
// bytes are written one by one. Writes to the same port made by other code
// (e.g. interrupt handlers) can be interleaved with the written sequence.
// Use WriteHalf or WriteWord to write bytes that must not be split.
//
// Write always returns len(b), nil.
func (p Port) Write(b []byte) (int, error) {
	n := len(b)
	if n < 4 {
		for _, c := range b {
			p.put(mmio.Byte, uint32(c))
		}
		return n, nil
	}
	pre, words, _ := split(b)
	for _, c := range b[:pre] {
		p.put(mmio.Byte, uint32(c))
	}
	i := pre
	for end := pre + words*4; i < end; i += 4 {
		p.put(mmio.Word, binary.BigEndian.Uint32(b[i:]))
	}
	for _, c := range b[i:] {
		p.put(mmio.Byte, uint32(c))
	}
	return n, nil
}

// WriteString works like Write.
func (p Port) WriteString(s string) (int, error) {
	return p.Write(unsafe.Slice(unsafe.StringData(s), len(s)))
}

// split divides b into a prefix that ends at a 4-byte aligned address, a
// number of whole words and a suffix.
func split(b []byte) (prefix, words, suffix int) {
	n := len(b)
	if n == 0 {
		return 0, 0, 0
	}
	prefix = int(-uintptr(unsafe.Pointer(unsafe.SliceData(b))) & 3)
	if prefix > n {
		prefix = n
	}
	words = (n - prefix) / 4
	suffix = n - prefix - words*4
	return
}
