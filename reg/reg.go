// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package reg provides ownership-tracked access to memory-mapped registers.
//
// A register is described by a Desc. Access to it is granted by tokens taken
// from an Index:
//
//	R[T]   read access, may be copied freely
//	*W[T]  write access, at most one per address
//	*RW[T] read and write access with interrupt-safe read-modify-write,
//	       at most one per address, only for registers marked Atomic
//
// Write-capable tokens must not be copied. They are passed by pointer, which
// moves or lends them, and can be handed back with Release.
//
// The usual way to take tokens is once, during package initialization:
//
//	var ctrl = reg.Must(reg.TakeRW[uint32](board.Regs, &stk.CTRL))
//
// so that a second writer for the same register stops the program before any
// hardware access is made.
package reg

import (
	"fmt"
	"unsafe"

	"github.com/embeddedgo/regtok/mmio"
)

// Value is the set of register value types.
type Value interface {
	~uint8 | ~uint16 | ~uint32
}

// Desc describes a register.
type Desc struct {
	Name  string
	Addr  uintptr
	Size  mmio.Size
	Reset uint32

	// Atomic marks a register that can be safely read and then rewritten
	// with the bits it returned (no write-1-to-clear or other write side
	// effects mixed with live fields). Only such registers can be taken
	// with TakeRW.
	Atomic bool
}

func (d *Desc) String() string {
	return fmt.Sprintf("%s@%#x/%s", d.Name, d.Addr, d.Size)
}

func (d *Desc) end() uintptr {
	return d.Addr + uintptr(d.Size)
}

func sizeOf[T Value]() mmio.Size {
	var v T
	return mmio.Size(unsafe.Sizeof(v))
}

func bitsOf[T Value]() uint {
	return sizeOf[T]().Bits()
}
