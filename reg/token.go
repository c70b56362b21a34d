// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reg

import "github.com/embeddedgo/regtok/mmio"

// noCopy makes go vet (copylocks) report copies of the struct that embeds it.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// R is a read token.
type R[T Value] struct {
	bus mmio.Bus
	d   *Desc
}

// Desc returns the descriptor of the register.
func (r R[T]) Desc() *Desc { return r.d }

// Load reads the register.
func (r R[T]) Load() T {
	return T(r.bus.Load(r.d.Addr, r.d.Size))
}

type tok struct {
	x *Index
	d *Desc
}

func (t *tok) desc() *Desc {
	if t.d == nil {
		panic("reg: use of released token")
	}
	return t.d
}

func (t *tok) release() {
	d := t.desc()
	t.x.release(d)
	t.d = nil
}

// W is a write token. A W must not be copied.
type W[T Value] struct {
	_ noCopy
	tok
}

// Desc returns the descriptor of the register.
func (w *W[T]) Desc() *Desc { return w.desc() }

// Store writes v to the register.
func (w *W[T]) Store(v T) {
	d := w.desc()
	w.x.bus.Store(d.Addr, d.Size, uint32(v))
}

// Release gives the write capability back to the index. The token cannot be
// used afterwards.
func (w *W[T]) Release() { w.release() }

// RW is a read-write-atomic token. A RW must not be copied.
type RW[T Value] struct {
	_ noCopy
	tok
}

// Desc returns the descriptor of the register.
func (r *RW[T]) Desc() *Desc { return r.desc() }

// Load reads the register.
func (r *RW[T]) Load() T {
	d := r.desc()
	return T(r.x.bus.Load(d.Addr, d.Size))
}

// Store writes v to the register.
func (r *RW[T]) Store(v T) {
	d := r.desc()
	r.x.bus.Store(d.Addr, d.Size, uint32(v))
}

// Reader returns a read token for the same register.
func (r *RW[T]) Reader() R[T] {
	return R[T]{r.x.bus, r.desc()}
}

// Release gives the capability back to the index. The token cannot be used
// afterwards.
func (r *RW[T]) Release() { r.release() }
