// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mmio

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Window is a Mem backed by an mmap of a memory device.
type Window struct {
	*Mem
	data []byte
}

// Map maps size bytes of the physical address space starting at base using
// the memory device at path (usually /dev/mem). The base must be page
// aligned.
func Map(path string, base uintptr, size int) (*Window, error) {
	if base%uintptr(os.Getpagesize()) != 0 {
		return nil, fmt.Errorf("mmio: map %#x: base not page aligned", base)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := unix.Mmap(
		int(f.Fd()), int64(base), size,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED,
	)
	if err != nil {
		return nil, fmt.Errorf("mmio: map %#x: %w", base, err)
	}
	return &Window{Mem: NewMem(base, data), data: data}, nil
}

// Close unmaps the window. The Window must not be used after Close.
func (w *Window) Close() error {
	return unix.Munmap(w.data)
}
