// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mmio

import (
	"encoding/binary"
	"errors"
	"io"
	"sort"

	"github.com/marcinbor85/gohex"
)

var ErrAddrRange = errors.New("address does not fit in 32 bits")

// WriteHex writes the RAM content of s in the Intel HEX format. Device
// regions are not included. Adjacent words are merged into one data segment.
func (s *Sim) WriteHex(w io.Writer) error {
	s.mu.Lock()
	addrs := make([]uintptr, 0, len(s.ram))
	for a := range s.ram {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, k int) bool { return addrs[i] < addrs[k] })
	mem := gohex.NewMemory()
	var (
		start uintptr
		data  []byte
	)
	flush := func() error {
		if len(data) == 0 {
			return nil
		}
		err := mem.AddBinary(uint32(start), data)
		data = nil
		return err
	}
	var err error
	for _, a := range addrs {
		if uint64(a) > 0xFFFF_FFFC {
			err = ErrAddrRange
			break
		}
		if len(data) != 0 && start+uintptr(len(data)) != a {
			if err = flush(); err != nil {
				break
			}
		}
		if len(data) == 0 {
			start = a
		}
		data = binary.LittleEndian.AppendUint32(data, s.ram[a])
	}
	s.mu.Unlock()
	if err == nil {
		err = flush()
	}
	if err != nil {
		return err
	}
	return mem.DumpIntelHex(w, 16)
}

// ReadHex loads Intel HEX data from r into the RAM of s. Bytes are stored
// one by one so the segments need not be word aligned.
func (s *Sim) ReadHex(r io.Reader) error {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seg := range mem.GetDataSegments() {
		for i, b := range seg.Data {
			a := uintptr(seg.Address) + uintptr(i)
			w := a &^ 3
			s.ram[w] = insert(s.ram[w], a, Byte, uint32(b))
		}
	}
	return nil
}
