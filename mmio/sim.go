// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mmio

import (
	"sort"
	"sync"
)

// Device is a memory-mapped peripheral model attached to a Sim. Offsets are
// relative to the start of the mapped region.
type Device interface {
	Load(off uintptr, size Size) uint32
	Store(off uintptr, size Size, v uint32)
}

// Preempt is called by Sim.LoadEx after the monitor has been armed. It
// simulates an interrupt taken between LoadEx and StoreEx and returns true if
// one was taken. The handler may use the bus (including exclusive accesses).
// Returning from a taken interrupt clears the monitor, as exception return
// does on Cortex-M.
type Preempt func(addr uintptr) (taken bool)

// Stats counts bus accesses seen by a Sim.
type Stats struct {
	Loads    int
	Stores   int
	LoadsEx  int
	StoresEx int // successful
	FailsEx  int // failed store-conditionals
}

type region struct {
	start, end uintptr
	dev        Device
}

type monitor struct {
	addr  uintptr
	size  Size
	armed bool
}

// Sim is a simulated single-core bus: a sparse word-addressed RAM, a list of
// mapped devices and one local exclusive monitor. Any store that overlaps the
// monitored word disarms the monitor.
//
// Sim serializes individual accesses. The exclusive monitor models one core,
// so exclusive sequences must be run from one goroutine. Use Preempt to
// simulate interrupt handlers.
type Sim struct {
	// Preempt, if not nil, is called after every LoadEx.
	Preempt Preempt

	mu      sync.Mutex
	ram     map[uintptr]uint32
	regions []region
	mon     monitor
	stats   Stats
}

// NewSim returns an empty simulated bus. Unwritten RAM reads as zero.
func NewSim() *Sim {
	return &Sim{ram: make(map[uintptr]uint32)}
}

// Map attaches dev to the address range [start, start+length).
func (s *Sim) Map(start, length uintptr, dev Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	end := start + length
	for _, r := range s.regions {
		if start < r.end && r.start < end {
			panic("mmio: overlapping device regions")
		}
	}
	s.regions = append(s.regions, region{start, end, dev})
	sort.Slice(s.regions, func(i, k int) bool {
		return s.regions[i].start < s.regions[k].start
	})
}

func (s *Sim) device(addr uintptr) (Device, uintptr) {
	for _, r := range s.regions {
		if addr >= r.start && addr < r.end {
			return r.dev, addr - r.start
		}
	}
	return nil, 0
}

func (s *Sim) load(addr uintptr, size Size) uint32 {
	checkAlign(addr, size)
	if dev, off := s.device(addr); dev != nil {
		return dev.Load(off, size)
	}
	return extract(s.ram[addr&^3], addr, size)
}

func (s *Sim) store(addr uintptr, size Size, v uint32) {
	checkAlign(addr, size)
	if s.mon.armed && s.mon.addr&^3 == addr&^3 {
		s.mon.armed = false
	}
	if dev, off := s.device(addr); dev != nil {
		dev.Store(off, size, v&size.Mask())
		return
	}
	w := addr &^ 3
	s.ram[w] = insert(s.ram[w], addr, size, v)
}

func (s *Sim) Load(addr uintptr, size Size) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Loads++
	return s.load(addr, size)
}

func (s *Sim) Store(addr uintptr, size Size, v uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Stores++
	s.store(addr, size, v)
}

func (s *Sim) LoadEx(addr uintptr, size Size) uint32 {
	s.mu.Lock()
	s.stats.LoadsEx++
	v := s.load(addr, size)
	s.mon = monitor{addr: addr, size: size, armed: true}
	preempt := s.Preempt
	s.mu.Unlock()
	if preempt != nil && preempt(addr) {
		s.ClearEx()
	}
	return v
}

func (s *Sim) StoreEx(addr uintptr, size Size, v uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.mon.armed && s.mon.addr == addr && s.mon.size == size
	s.mon.armed = false
	if !ok {
		s.stats.FailsEx++
		return false
	}
	s.stats.StoresEx++
	s.store(addr, size, v)
	return true
}

// ClearEx disarms the exclusive monitor.
func (s *Sim) ClearEx() {
	s.mu.Lock()
	s.mon.armed = false
	s.mu.Unlock()
}

// Stats returns the access counters.
func (s *Sim) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// ResetStats zeroes the access counters.
func (s *Sim) ResetStats() {
	s.mu.Lock()
	s.stats = Stats{}
	s.mu.Unlock()
}
