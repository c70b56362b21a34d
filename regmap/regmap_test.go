// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regmap

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embeddedgo/regtok/mmio"
	"github.com/embeddedgo/regtok/reg"
)

func readMini(t *testing.T) *Map {
	t.Helper()
	m, err := ReadFile("testdata/mini.yaml", nil)
	require.NoError(t, err)
	return m
}

func TestLoad(t *testing.T) {
	m := readMini(t)
	assert.Equal(t, "MINI", m.Device)
	require.Len(t, m.Registers, 5)
	// sorted by address
	assert.Equal(t, "USART1.DR", m.Registers[0].Name)

	load := m.Lookup("STK.LOAD")
	require.NotNil(t, load)
	assert.Equal(t, Hex(0xE000_E014), load.Addr)
	assert.Equal(t, Hex(0xFF_FFFF), load.Reset)
	assert.True(t, load.Atomic)

	d := m.Desc("STK.LOAD")
	assert.Same(t, d, load.Desc(), "descriptor is created once")
	assert.Equal(t, &reg.Desc{
		Name: "STK.LOAD", Addr: 0xE000_E014, Size: mmio.Word,
		Reset: 0xFF_FFFF, Atomic: true,
	}, d)
	assert.Nil(t, m.Desc("STK.CALIB"))
	assert.Len(t, m.Descs(), 5)
}

func TestYAMLRoundTrip(t *testing.T) {
	m := readMini(t)
	var buf bytes.Buffer
	require.NoError(t, m.WriteYAML(&buf))
	assert.Contains(t, buf.String(), "address: 0xe000e010")

	m2, err := Load(&buf)
	require.NoError(t, err)
	require.Len(t, m2.Registers, len(m.Registers))
	for i, r := range m.Registers {
		r2 := m2.Registers[i]
		assert.Equal(t, r.Name, r2.Name)
		assert.Equal(t, r.Addr, r2.Addr)
		assert.Equal(t, r.Width, r2.Width)
		assert.Equal(t, r.Reset, r2.Reset)
		assert.Equal(t, r.Atomic, r2.Atomic)
		assert.Equal(t, r.Fields, r2.Fields)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		regs []*Register
		err  error
	}{
		{"width", []*Register{{Name: "A", Addr: 0, Width: 24}}, ErrWidth},
		{"align", []*Register{{Name: "A", Addr: 2, Width: 32}}, ErrAlign},
		{"reset", []*Register{{Name: "A", Addr: 0, Width: 8, Reset: 0x100}}, ErrReset},
		{"field", []*Register{{Name: "A", Width: 16, Fields: []Field{{"F", 12, 5}}}}, ErrField},
		{"zero field", []*Register{{Name: "A", Width: 16, Fields: []Field{{"F", 0, 0}}}}, ErrField},
		{"dup", []*Register{{Name: "A", Addr: 0, Width: 8}, {Name: "A", Addr: 4, Width: 8}}, ErrDuplicate},
		{"overlap", []*Register{{Name: "A", Addr: 2, Width: 8}, {Name: "B", Addr: 0, Width: 32}}, ErrOverlap},
		{"adjacent", []*Register{{Name: "A", Addr: 4, Width: 8}, {Name: "B", Addr: 0, Width: 32}}, nil},
		{"ok", []*Register{{Name: "A", Addr: 4, Width: 8}, {Name: "B", Addr: 6, Width: 16}}, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := &Map{Registers: c.regs}
			err := m.Validate()
			if c.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, c.err)
			}
		})
	}
}

func TestFieldOf(t *testing.T) {
	m := readMini(t)
	f, err := FieldOf[uint32](m, "STK.LOAD", "RELOAD")
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFF_FFFF), f.Mask())

	_, err = FieldOf[uint16](m, "STK.LOAD", "RELOAD")
	assert.ErrorIs(t, err, ErrWidth)
	_, err = FieldOf[uint32](m, "STK.LOAD", "COUNT")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = FieldOf[uint32](m, "STK.NONE", "COUNT")
	assert.ErrorIs(t, err, ErrNotFound)
}

// Tokens taken for map descriptors drive the simulated hardware.
func TestMap_Tokens(t *testing.T) {
	m := readMini(t)
	sim := mmio.NewSim()
	x := reg.NewIndex(sim)
	require.NoError(t, m.Reset(x))

	load := reg.Must(reg.TakeRW[uint32](x, m.Desc("STK.LOAD")))
	assert.Equal(t, uint32(0xFF_FFFF), load.Load())

	ctrl := reg.Must(reg.TakeRW[uint32](x, m.Desc("STK.CTRL")))
	en := reg.Must(FieldOf[uint32](m, "STK.CTRL", "ENABLE"))
	ctrl.SetBit(en)
	assert.Equal(t, uint32(1), sim.Load(0xE000_E010, mmio.Word))

	_, err := reg.TakeRW[uint32](x, m.Desc("STK.VAL"))
	assert.ErrorIs(t, err, reg.ErrNotAtomic)
	_, err = reg.TakeW[uint32](x, m.Desc("STK.CTRL"))
	assert.ErrorIs(t, err, reg.ErrTaken)
	dr := reg.Must(reg.TakeW[uint16](x, m.Desc("USART1.DR")))
	dr.Store('A')
	assert.Equal(t, uint32('A'), sim.Load(0x4001_3804, mmio.Half))

	assert.ErrorIs(t, m.Reset(x), reg.ErrTaken)
	assert.Equal(t, uint32(1), sim.Load(0xE000_E010, mmio.Word), "nothing reset")
}

func TestWriteTable(t *testing.T) {
	m := readMini(t)
	var buf bytes.Buffer
	require.NoError(t, m.WriteTable(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "// Device: MINI", lines[0])
	assert.Equal(t,
		[]string{"0x40013804", "16", "0x0000", "-", "USART1.DR"},
		strings.Fields(lines[1]),
	)
	assert.Equal(t,
		[]string{"0xe000e010", "32", "0x00000000", "A", "STK.CTRL",
			"ENABLE(0),TICKINT(1),CLKSOURCE(2)"},
		strings.Fields(lines[2]),
	)
	assert.Equal(t,
		[]string{"0xe000e014", "32", "0x00ffffff", "A", "STK.LOAD", "RELOAD(23:0)"},
		strings.Fields(lines[3]),
	)
	// columns are aligned
	assert.Equal(t, strings.Index(lines[1], "USART1.DR"), strings.Index(lines[3], "STK.LOAD"))
}

func TestReadFile_Format(t *testing.T) {
	_, err := ReadFile("testdata/mini.hex", nil)
	assert.ErrorIs(t, err, ErrFormat)
	_, err = ReadFile("testdata/none.yaml", nil)
	assert.Error(t, err)
}
