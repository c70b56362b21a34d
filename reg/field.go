// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reg

// Field describes width bits at offset of a register value of type T. Fields
// are created by NewField or Bit, which check that the field fits in T. The
// zero Field has no bits.
//
// The methods of Field work on in-memory values only. Use the RW methods
// (SetBit, WriteBits, ...) to update a field of the register itself.
type Field[T Value] struct {
	name   string
	offset uint8
	width  uint8
}

// NewField returns a field descriptor. It panics if width is zero or the field
// does not fit in T.
func NewField[T Value](name string, offset, width uint) Field[T] {
	if width == 0 || offset+width > bitsOf[T]() {
		panic("reg: field " + name + " out of register")
	}
	return Field[T]{name, uint8(offset), uint8(width)}
}

// Bit returns a single-bit field descriptor.
func Bit[T Value](name string, n uint) Field[T] {
	return NewField[T](name, n, 1)
}

// Name returns the field name.
func (f Field[T]) Name() string { return f.name }

// Offset returns the position of the lowest bit of f.
func (f Field[T]) Offset() uint { return uint(f.offset) }

// Width returns the number of bits in f.
func (f Field[T]) Width() uint { return uint(f.width) }

// Mask returns the bits of f in place.
func (f Field[T]) Mask() T {
	return T(1<<f.width-1) << f.offset
}

// Get extracts the value of f from v.
func (f Field[T]) Get(v T) T {
	return v & f.Mask() >> f.offset
}

// IsSet reports whether any bit of f is set in v.
func (f Field[T]) IsSet(v T) bool {
	return v&f.Mask() != 0
}

// Set sets all bits of f in v.
func (f Field[T]) Set(v *T) {
	*v |= f.Mask()
}

// Clear clears all bits of f in v.
func (f Field[T]) Clear(v *T) {
	*v &^= f.Mask()
}

// Toggle inverts all bits of f in v.
func (f Field[T]) Toggle(v *T) {
	*v ^= f.Mask()
}

// Insert replaces the bits of f in v with the low width bits of bits. Higher
// bits are dropped.
func (f Field[T]) Insert(v *T, bits T) {
	m := f.Mask()
	*v = *v&^m | bits<<f.offset&m
}
