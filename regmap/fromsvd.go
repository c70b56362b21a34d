// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regmap

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/embeddedgo/regtok/svd"
)

var (
	ErrDerived = errors.New("derivedFrom element not found")
	ErrNoSize  = errors.New("register size not specified")
)

type conv struct {
	m    *Map
	warn func(f string, args ...any)
}

func (c *conv) warnf(f string, args ...any) {
	if c.warn != nil {
		c.warn(f, args...)
	}
}

// FromSVD flattens the SVD description of a device into a register map.
// Register names have the form PERIPH.REG or PERIPH.CLUSTER_REG, elements of
// register arrays PERIPH.REG[n].
func FromSVD(dev *svd.Device, warn func(f string, args ...any)) (*Map, error) {
	c := &conv{m: &Map{Device: dev.Name}, warn: warn}
	props := dev.RegisterPropertiesGroup
	if props.Size == nil && dev.Width != 0 {
		w := dev.Width
		props.Size = &w
	}
	pmap := make(map[string]*svd.Peripheral, len(dev.Peripherals))
	for _, p := range dev.Peripherals {
		pmap[p.Name] = p
	}
	for _, p := range dev.Peripherals {
		src := p
		if p.DerivedFrom != nil {
			if src = pmap[*p.DerivedFrom]; src == nil {
				return nil, fmt.Errorf("%s: %w: %s", p.Name, ErrDerived, *p.DerivedFrom)
			}
		}
		pp := p.RegisterPropertiesGroup
		if src != p {
			pp.Inherit(&src.RegisterPropertiesGroup)
		}
		pp.Inherit(&props)
		if err := c.regs(p.Name+".", uint64(p.BaseAddress), &pp, src.Registers); err != nil {
			return nil, err
		}
		for _, cl := range src.Clusters {
			if err := c.cluster(p.Name+".", uint64(p.BaseAddress), &pp, cl); err != nil {
				return nil, err
			}
		}
	}
	if err := c.m.Validate(); err != nil {
		return nil, err
	}
	return c.m, nil
}

func (c *conv) cluster(prefix string, base uint64, props *svd.RegisterPropertiesGroup, cl *svd.Cluster) error {
	if cl.DerivedFrom != nil {
		c.warnf("%s%s: derived clusters not supported", prefix, cl.Name)
		return nil
	}
	cp := cl.RegisterPropertiesGroup
	cp.Inherit(props)
	names, offs, err := dim(cl.Name, &cl.DimElementGroup)
	if err != nil {
		return fmt.Errorf("%s%s: %w", prefix, cl.Name, err)
	}
	for i, name := range names {
		addr := base + uint64(cl.AddressOffset) + offs[i]
		p := prefix + name + "_"
		if err := c.regs(p, addr, &cp, cl.Registers); err != nil {
			return err
		}
		for _, sub := range cl.Clusters {
			if err := c.cluster(p, addr, &cp, sub); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *conv) regs(prefix string, base uint64, props *svd.RegisterPropertiesGroup, srs []*svd.Register) error {
	for _, sr := range srs {
		if sr.AlternateRegister != nil || sr.AlternateGroup != nil {
			c.warnf("%s%s: alternate register skipped", prefix, sr.Name)
			continue
		}
		if sr.DerivedFrom != nil {
			d := derived(sr, srs)
			if d == nil {
				return fmt.Errorf("%s%s: %w: %s", prefix, sr.Name, ErrDerived, *sr.DerivedFrom)
			}
			sr = d
		}
		rp := sr.RegisterPropertiesGroup
		rp.Inherit(props)
		if rp.Size == nil {
			return fmt.Errorf("%s%s: %w", prefix, sr.Name, ErrNoSize)
		}
		names, offs, err := dim(sr.Name, &sr.DimElementGroup)
		if err != nil {
			return fmt.Errorf("%s%s: %w", prefix, sr.Name, err)
		}
		fields := c.fields(prefix+sr.Name, sr.Fields)
		for i, name := range names {
			r := &Register{
				Name:   prefix + name,
				Addr:   Hex(base + uint64(sr.AddressOffset) + offs[i]),
				Width:  int(*rp.Size),
				Access: "read-write",
				Atomic: atomicOK(sr, rp.Access),
				Fields: fields,
			}
			if rp.ResetValue != nil {
				r.Reset = Hex(*rp.ResetValue)
			}
			if rp.Access != nil {
				r.Access = *rp.Access
			}
			c.m.Registers = append(c.m.Registers, r)
		}
	}
	return nil
}

// derived returns a copy of the register sr is derived from, renamed and
// moved to sr.
func derived(sr *svd.Register, srs []*svd.Register) *svd.Register {
	for _, b := range srs {
		if b.Name == *sr.DerivedFrom && b != sr {
			d := *b
			d.DerivedFrom = nil
			d.Name = sr.Name
			d.AddressOffset = sr.AddressOffset
			d.DimElementGroup = sr.DimElementGroup
			d.RegisterPropertiesGroup = sr.RegisterPropertiesGroup
			d.Inherit(&b.RegisterPropertiesGroup)
			return &d
		}
	}
	return nil
}

func (c *conv) fields(rname string, sfs []*svd.Field) []Field {
	var fs []Field
	for _, sf := range sfs {
		if sf.DerivedFrom != nil {
			c.warnf("%s.%s: derived fields not supported", rname, sf.Name)
			continue
		}
		off, width, err := sf.Bits()
		if err != nil {
			c.warnf("%s.%s: %v", rname, sf.Name, err)
			continue
		}
		fs = append(fs, Field{Name: sf.Name, Offset: off, Width: width})
	}
	return fs
}

// atomicOK reports whether a register can be rewritten with the value read
// from it without side effects.
func atomicOK(sr *svd.Register, access *string) bool {
	if access != nil && *access != "read-write" {
		return false
	}
	if sr.ReadAction != nil || !plainWrite(sr.ModifiedWriteValues) {
		return false
	}
	for _, f := range sr.Fields {
		if f.ReadAction != nil || !plainWrite(f.ModifiedWriteValues) {
			return false
		}
		if f.Access != nil {
			switch *f.Access {
			case "write-only", "writeOnce", "read-writeOnce":
				return false
			}
		}
	}
	return true
}

func plainWrite(mwv *string) bool {
	return mwv == nil || *mwv == "modify"
}

// dim expands the dim element group of an element called name into the names
// of the elements and their address offsets.
func dim(name string, g *svd.DimElementGroup) ([]string, []uint64, error) {
	if g.Dim == 0 {
		return []string{name}, []uint64{0}, nil
	}
	n := int(g.Dim)
	idx := make([]string, n)
	array := strings.HasSuffix(name, "[%s]")
	switch {
	case array || g.DimIndex == nil:
		for i := range idx {
			idx[i] = strconv.Itoa(i)
		}
	default:
		s := *g.DimIndex
		if a, b, ok := strings.Cut(s, "-"); ok && !strings.Contains(s, ",") {
			lo, err1 := strconv.Atoi(a)
			hi, err2 := strconv.Atoi(b)
			if err1 == nil && err2 == nil && hi-lo+1 == n {
				for i := range idx {
					idx[i] = strconv.Itoa(lo + i)
				}
				break
			}
			// A-D
			if len(a) == 1 && len(b) == 1 && int(b[0])-int(a[0])+1 == n {
				for i := range idx {
					idx[i] = string(rune(a[0]) + rune(i))
				}
				break
			}
			return nil, nil, fmt.Errorf("bad dimIndex %q", s)
		}
		list := strings.Split(s, ",")
		if len(list) != n {
			return nil, nil, fmt.Errorf("dimIndex %q does not match dim %d", s, n)
		}
		for i, v := range list {
			idx[i] = strings.TrimSpace(v)
		}
	}
	names := make([]string, n)
	offs := make([]uint64, n)
	for i := range names {
		if array {
			names[i] = strings.TrimSuffix(name, "[%s]") + "[" + idx[i] + "]"
		} else {
			names[i] = strings.ReplaceAll(name, "%s", idx[i])
		}
		offs[i] = uint64(i) * uint64(g.DimIncrement)
	}
	return names, offs, nil
}
