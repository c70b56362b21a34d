// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reg

import (
	"errors"
	"fmt"
	"sync"

	"github.com/embeddedgo/regtok/mmio"
)

var (
	ErrTaken     = errors.New("register already has a writer")
	ErrNotAtomic = errors.New("register not eligible for atomic modify")
	ErrSize      = errors.New("value type does not match register size")
	ErrAlign     = errors.New("register address not aligned")
)

// Cap is a register access capability.
type Cap uint8

const (
	Read Cap = iota
	Write
	ReadWriteAtomic
)

func (c Cap) String() string {
	switch c {
	case Read:
		return "R"
	case Write:
		return "W"
	case ReadWriteAtomic:
		return "RW"
	}
	return "bad capability"
}

// Index hands out register tokens for one bus. It records every write-capable
// token it has issued and refuses to issue another one that covers any byte of
// the same register.
//
// All indexes created for the same bus share one record of writers, so the
// single writer rule holds for the whole program no matter how many indexes
// are created. The bus must be a comparable value (usually a pointer).
type Index struct {
	bus mmio.Bus
	w   *writers
}

// writers maps byte addresses to the registers that own them.
type writers struct {
	mu sync.Mutex
	m  map[uintptr]*Desc
}

var registry struct {
	mu    sync.Mutex
	buses map[mmio.Bus]*writers
}

// NewIndex returns an index for bus.
func NewIndex(bus mmio.Bus) *Index {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if registry.buses == nil {
		registry.buses = make(map[mmio.Bus]*writers)
	}
	w := registry.buses[bus]
	if w == nil {
		w = &writers{m: make(map[uintptr]*Desc)}
		registry.buses[bus] = w
	}
	return &Index{bus: bus, w: w}
}

// Bus returns the bus of x.
func (x *Index) Bus() mmio.Bus { return x.bus }

// Owner returns the register that holds write capability over the byte at
// addr or nil.
func (x *Index) Owner(addr uintptr) *Desc {
	x.w.mu.Lock()
	defer x.w.mu.Unlock()
	return x.w.m[addr]
}

func check[T Value](d *Desc, c Cap) error {
	if d.Size != sizeOf[T]() {
		return fmt.Errorf("reg: take %s %v as uint%d: %w", c, d, bitsOf[T](), ErrSize)
	}
	if d.Addr&uintptr(d.Size-1) != 0 {
		return fmt.Errorf("reg: take %s %v: %w", c, d, ErrAlign)
	}
	if c == ReadWriteAtomic && !d.Atomic {
		return fmt.Errorf("reg: take %s %v: %w", c, d, ErrNotAtomic)
	}
	return nil
}

// owner returns the first register that holds write capability over any byte
// of d. x.w.mu must be held.
func (x *Index) owner(d *Desc) *Desc {
	for a := d.Addr; a < d.end(); a++ {
		if o := x.w.m[a]; o != nil {
			return o
		}
	}
	return nil
}

func (x *Index) claim(d *Desc, c Cap) error {
	x.w.mu.Lock()
	defer x.w.mu.Unlock()
	if o := x.owner(d); o != nil {
		return fmt.Errorf("reg: take %s %v: %w (%s)", c, d, ErrTaken, o.Name)
	}
	for a := d.Addr; a < d.end(); a++ {
		x.w.m[a] = d
	}
	return nil
}

func (x *Index) release(d *Desc) {
	x.w.mu.Lock()
	defer x.w.mu.Unlock()
	for a := d.Addr; a < d.end(); a++ {
		if x.w.m[a] == d {
			delete(x.w.m, a)
		}
	}
}

// TakeR returns a read token for d. Read tokens never conflict.
func TakeR[T Value](x *Index, d *Desc) (R[T], error) {
	if err := check[T](d, Read); err != nil {
		return R[T]{}, err
	}
	return R[T]{x.bus, d}, nil
}

// TakeW returns the write token for d.
func TakeW[T Value](x *Index, d *Desc) (*W[T], error) {
	if err := check[T](d, Write); err != nil {
		return nil, err
	}
	if err := x.claim(d, Write); err != nil {
		return nil, err
	}
	return &W[T]{tok: tok{x, d}}, nil
}

// TakeRW returns the read-write-atomic token for d.
func TakeRW[T Value](x *Index, d *Desc) (*RW[T], error) {
	if err := check[T](d, ReadWriteAtomic); err != nil {
		return nil, err
	}
	if err := x.claim(d, ReadWriteAtomic); err != nil {
		return nil, err
	}
	return &RW[T]{tok: tok{x, d}}, nil
}

// Must panics if err is not nil, otherwise it returns t. It is intended for
// taking tokens in package-level variable declarations.
func Must[Token any](t Token, err error) Token {
	if err != nil {
		panic(err)
	}
	return t
}

// Reset stores the reset value of every register in ds. It holds the write
// capability of all of them for the duration of the reset, so it fails with
// ErrTaken and stores nothing if any of them has a live writer.
func (x *Index) Reset(ds ...*Desc) error {
	x.w.mu.Lock()
	defer x.w.mu.Unlock()
	for _, d := range ds {
		if o := x.owner(d); o != nil {
			return fmt.Errorf("reg: reset %v: %w (%s)", d, ErrTaken, o.Name)
		}
	}
	for _, d := range ds {
		x.bus.Store(d.Addr, d.Size, d.Reset)
	}
	return nil
}
