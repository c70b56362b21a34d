// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package regmap holds register maps: the register and field descriptors of a
// device loaded at startup from an SVD or YAML description.
package regmap

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"unsafe"

	"gopkg.in/yaml.v3"

	"github.com/embeddedgo/regtok/mmio"
	"github.com/embeddedgo/regtok/reg"
	"github.com/embeddedgo/regtok/svd"
)

var (
	ErrWidth     = errors.New("bad register width")
	ErrAlign     = errors.New("register address not aligned")
	ErrReset     = errors.New("reset value does not fit the register")
	ErrField     = errors.New("field out of register")
	ErrOverlap   = errors.New("registers overlap")
	ErrDuplicate = errors.New("duplicate register name")
	ErrNotFound  = errors.New("not found")
	ErrFormat    = errors.New("unknown register map format")
)

// Hex is an integer written in hexadecimal in YAML.
type Hex uint64

func (h Hex) MarshalYAML() (any, error) {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!int",
		Value: fmt.Sprintf("%#x", uint64(h)),
	}, nil
}

func (h *Hex) UnmarshalYAML(n *yaml.Node) error {
	v, err := strconv.ParseUint(n.Value, 0, 64)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*h = Hex(v)
	return nil
}

type Field struct {
	Name   string `yaml:"name"`
	Offset uint   `yaml:"offset"`
	Width  uint   `yaml:"width"`
}

type Register struct {
	Name   string  `yaml:"name"`
	Addr   Hex     `yaml:"address"`
	Width  int     `yaml:"width"`
	Reset  Hex     `yaml:"reset"`
	Access string  `yaml:"access,omitempty"`
	Atomic bool    `yaml:"atomic"`
	Fields []Field `yaml:"fields,omitempty"`

	desc *reg.Desc
}

// Desc returns the register descriptor of r. Subsequent calls return the same
// pointer. The Register must not be modified after the first call.
func (r *Register) Desc() *reg.Desc {
	if r.desc == nil {
		size, _ := mmio.SizeOf(r.Width)
		r.desc = &reg.Desc{
			Name:   r.Name,
			Addr:   uintptr(r.Addr),
			Size:   size,
			Reset:  uint32(r.Reset),
			Atomic: r.Atomic,
		}
	}
	return r.desc
}

// Field returns the field with the given name or nil.
func (r *Register) Field(name string) *Field {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			return &r.Fields[i]
		}
	}
	return nil
}

// Map is a register map of one device.
type Map struct {
	Device    string      `yaml:"device"`
	Registers []*Register `yaml:"registers"`
}

// Validate checks the register widths, alignment, reset values, field bounds,
// name uniqueness and that no two registers overlap. It sorts the registers by
// address.
func (m *Map) Validate() error {
	names := make(map[string]bool, len(m.Registers))
	for _, r := range m.Registers {
		if names[r.Name] {
			return fmt.Errorf("%s: %w", r.Name, ErrDuplicate)
		}
		names[r.Name] = true
		size, ok := mmio.SizeOf(r.Width)
		if !ok {
			return fmt.Errorf("%s: %w %d", r.Name, ErrWidth, r.Width)
		}
		if uint64(r.Addr)&uint64(size-1) != 0 {
			return fmt.Errorf("%s: %w: %#x", r.Name, ErrAlign, uint64(r.Addr))
		}
		if uint64(r.Reset)&^uint64(size.Mask()) != 0 {
			return fmt.Errorf("%s: %w: %#x", r.Name, ErrReset, uint64(r.Reset))
		}
		for _, f := range r.Fields {
			if f.Width == 0 || f.Offset+f.Width > uint(r.Width) {
				return fmt.Errorf("%s.%s: %w", r.Name, f.Name, ErrField)
			}
		}
	}
	sort.SliceStable(m.Registers, func(i, k int) bool {
		return m.Registers[i].Addr < m.Registers[k].Addr
	})
	for i := 1; i < len(m.Registers); i++ {
		a, b := m.Registers[i-1], m.Registers[i]
		if uint64(a.Addr)+uint64(a.Width/8) > uint64(b.Addr) {
			return fmt.Errorf("%s, %s: %w", a.Name, b.Name, ErrOverlap)
		}
	}
	return nil
}

// Lookup returns the register with the given name or nil.
func (m *Map) Lookup(name string) *Register {
	for _, r := range m.Registers {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// Desc returns the descriptor of the named register or nil.
func (m *Map) Desc(name string) *reg.Desc {
	if r := m.Lookup(name); r != nil {
		return r.Desc()
	}
	return nil
}

// Descs returns the descriptors of all registers.
func (m *Map) Descs() []*reg.Desc {
	ds := make([]*reg.Desc, len(m.Registers))
	for i, r := range m.Registers {
		ds[i] = r.Desc()
	}
	return ds
}

// FieldOf returns the descriptor of the field fname of the register rname.
// T must match the register width.
func FieldOf[T reg.Value](m *Map, rname, fname string) (reg.Field[T], error) {
	r := m.Lookup(rname)
	if r == nil {
		return reg.Field[T]{}, fmt.Errorf("register %s: %w", rname, ErrNotFound)
	}
	var v T
	if r.Width != int(unsafe.Sizeof(v))*8 {
		return reg.Field[T]{}, fmt.Errorf("%s: %w %d", rname, ErrWidth, r.Width)
	}
	f := r.Field(fname)
	if f == nil {
		return reg.Field[T]{}, fmt.Errorf("field %s.%s: %w", rname, fname, ErrNotFound)
	}
	if f.Width == 0 || f.Offset+f.Width > uint(r.Width) {
		return reg.Field[T]{}, fmt.Errorf("%s.%s: %w", rname, fname, ErrField)
	}
	return reg.NewField[T](fname, f.Offset, f.Width), nil
}

// Reset stores the reset values of all registers using the bus of x. It fails
// if any register has a live writer.
func (m *Map) Reset(x *reg.Index) error {
	return x.Reset(m.Descs()...)
}

// WriteTable writes a human readable listing of m.
func (m *Map) WriteTable(w io.Writer) error {
	tw := new(tabwriter.Writer)
	tw.Init(w, 0, 0, 1, ' ', 0)
	fmt.Fprintln(tw, "// Device:", m.Device)
	for _, r := range m.Registers {
		acc := "-"
		if r.Atomic {
			acc = "A"
		}
		fs := make([]string, len(r.Fields))
		for i, f := range r.Fields {
			if f.Width == 1 {
				fs[i] = fmt.Sprintf("%s(%d)", f.Name, f.Offset)
			} else {
				fs[i] = fmt.Sprintf("%s(%d:%d)", f.Name, f.Offset+f.Width-1, f.Offset)
			}
		}
		fmt.Fprintf(
			tw, "0x%08x\t%2d\t 0x%0*x\t %s\t %s\t %s\n",
			uint64(r.Addr), r.Width, r.Width/4, uint64(r.Reset), acc,
			r.Name, strings.Join(fs, ","),
		)
	}
	return tw.Flush()
}

// Load reads a YAML register map from r and validates it.
func Load(r io.Reader) (*Map, error) {
	m := new(Map)
	if err := yaml.NewDecoder(r).Decode(m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// WriteYAML writes m to w in the format read by Load.
func (m *Map) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return err
	}
	return enc.Close()
}

// ReadFile reads a register map from an SVD (.svd, .xml) or YAML (.yaml, .yml)
// file. Problems in SVD files that do not prevent building the map are
// reported using warn, which may be nil.
func ReadFile(name string, warn func(f string, args ...any)) (*Map, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".svd", ".xml":
		dev, err := svd.ReadFile(name)
		if err != nil {
			return nil, err
		}
		return FromSVD(dev, warn)
	case ".yaml", ".yml":
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		m, err := Load(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return m, nil
	}
	return nil, fmt.Errorf("%s: %w", name, ErrFormat)
}
