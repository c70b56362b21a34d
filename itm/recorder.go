// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package itm

import (
	"sync"

	"github.com/embeddedgo/regtok/mmio"
)

// Unit is a single store to a stimulus port.
type Unit struct {
	Port  int
	Size  mmio.Size
	Value uint32
}

// Bytes appends the bytes of u to b, most significant byte first.
func (u Unit) Bytes(b []byte) []byte {
	for sh := int(u.Size.Bits()) - 8; sh >= 0; sh -= 8 {
		b = append(b, byte(u.Value>>uint(sh)))
	}
	return b
}

// Recorder models the stimulus port block for mmio.Sim. Map it at Base with
// the length PortsCount*4. It records every store and reads as ready (1)
// unless stalled.
type Recorder struct {
	mu     sync.Mutex
	units  []Unit
	stall  int
	polled int
}

// Stall makes the next n port reads report a full FIFO.
func (r *Recorder) Stall(n int) {
	r.mu.Lock()
	r.stall = n
	r.mu.Unlock()
}

func (r *Recorder) Load(off uintptr, size mmio.Size) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.polled++
	if r.stall > 0 {
		r.stall--
		return 0
	}
	return 1
}

func (r *Recorder) Store(off uintptr, size mmio.Size, v uint32) {
	r.mu.Lock()
	r.units = append(r.units, Unit{int(off >> 2), size, v})
	r.mu.Unlock()
}

// Units returns a copy of the recorded units.
func (r *Recorder) Units() []Unit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Unit(nil), r.units...)
}

// Bytes returns the byte stream received by the port n.
func (r *Recorder) Bytes(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	var b []byte
	for _, u := range r.units {
		if u.Port == n {
			b = u.Bytes(b)
		}
	}
	return b
}

// Polled returns the number of port reads.
func (r *Recorder) Polled() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.polled
}

// Reset forgets the recorded units.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.units = nil
	r.polled = 0
	r.mu.Unlock()
}
