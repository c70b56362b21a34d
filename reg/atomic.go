// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reg

import "sync"

// Modify reads the register, passes the value to f and writes the modified
// value back.
//
// The sequence uses the exclusive load/store pair and repeats itself if it was
// interrupted between the load and the store by anything that touched the
// register. Thus f may be called many times and must not have side effects.
// There is no bound on the number of repetitions.
func (r *RW[T]) Modify(f func(v *T)) {
	d := r.desc()
	bus := r.x.bus
	for {
		v := T(bus.LoadEx(d.Addr, d.Size))
		f(&v)
		if bus.StoreEx(d.Addr, d.Size, uint32(v)) {
			return
		}
	}
}

// ModifyReg works like Modify but f also receives the token itself.
func (r *RW[T]) ModifyReg(f func(r *RW[T], v *T)) {
	r.Modify(func(v *T) { f(r, v) })
}

// ModifyPlain reads the register, passes the value to f and writes the
// modified value back using plain loads and stores. It is not atomic: an
// update made by an interrupt handler between the load and the store is lost.
// Use it only where preemption is already excluded.
func (r *RW[T]) ModifyPlain(f func(v *T)) {
	d := r.desc()
	v := T(r.x.bus.Load(d.Addr, d.Size))
	f(&v)
	r.x.bus.Store(d.Addr, d.Size, uint32(v))
}

// ModifyLocked performs ModifyPlain with l held. It is the critical-section
// alternative to Modify for buses without exclusive access: l is expected to
// mask the interrupts that can touch the register.
func (r *RW[T]) ModifyLocked(l sync.Locker, f func(v *T)) {
	l.Lock()
	defer l.Unlock()
	r.ModifyPlain(f)
}

// LoadBits reads the register and returns the value of field f.
func (r *RW[T]) LoadBits(f Field[T]) T {
	return f.Get(r.Load())
}

// SetBit atomically sets the bits of field f.
func (r *RW[T]) SetBit(f Field[T]) {
	r.Modify(f.Set)
}

// ClearBit atomically clears the bits of field f.
func (r *RW[T]) ClearBit(f Field[T]) {
	r.Modify(f.Clear)
}

// ToggleBit atomically inverts the bits of field f.
func (r *RW[T]) ToggleBit(f Field[T]) {
	r.Modify(f.Toggle)
}

// WriteBits atomically replaces field f with the low f.Width() bits of bits.
func (r *RW[T]) WriteBits(f Field[T], bits T) {
	r.Modify(func(v *T) { f.Insert(v, bits) })
}
