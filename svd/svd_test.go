// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package svd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `<?xml version="1.0" encoding="utf-8"?>
<device schemaVersion="1.1">
  <vendor>ACME</vendor>
  <name>DEV1</name>
  <addressUnitBits>8</addressUnitBits>
  <width>32</width>
  <size>32</size>
  <access>read-write</access>
  <resetValue>0x00000000</resetValue>
  <peripherals>
    <peripheral>
      <name>UART</name>
      <baseAddress>0x40004000</baseAddress>
      <registers>
        <register>
          <name>CR</name>
          <addressOffset>0x0</addressOffset>
          <size>16</size>
          <resetValue>#1010</resetValue>
          <fields>
            <field><name>EN</name><bitOffset>0</bitOffset></field>
            <field><name>BAUD</name><lsb>4</lsb><msb>11</msb></field>
            <field><name>MODE</name><bitRange>[15:13]</bitRange></field>
          </fields>
        </register>
        <cluster>
          <name>FIFO</name>
          <addressOffset>0x10</addressOffset>
          <register><name>DATA</name><addressOffset>0</addressOffset></register>
        </cluster>
      </registers>
    </peripheral>
    <peripheral derivedFrom="UART">
      <name>UART2</name>
      <baseAddress>0x40004400</baseAddress>
    </peripheral>
  </peripherals>
</device>`

func TestDecode(t *testing.T) {
	dev, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "DEV1", dev.Name)
	assert.Equal(t, "ACME", dev.Vendor)
	assert.Equal(t, Uint(32), dev.Width)
	require.NotNil(t, dev.Size)
	assert.Equal(t, Uint(32), *dev.Size)
	require.Len(t, dev.Peripherals, 2)

	p := dev.Peripherals[0]
	assert.Equal(t, Uint(0x4000_4000), p.BaseAddress)
	assert.Nil(t, p.DerivedFrom)
	require.Len(t, p.Registers, 1)
	require.Len(t, p.Clusters, 1)
	assert.Equal(t, "FIFO", p.Clusters[0].Name)
	assert.Equal(t, Uint(0x10), p.Clusters[0].AddressOffset)
	require.Len(t, p.Clusters[0].Registers, 1)

	r := p.Registers[0]
	require.NotNil(t, r.Size)
	assert.Equal(t, Uint(16), *r.Size)
	require.NotNil(t, r.ResetValue)
	assert.Equal(t, Uint(10), *r.ResetValue)
	assert.Nil(t, r.Access)
	require.Len(t, r.Fields, 3)

	require.NotNil(t, dev.Peripherals[1].DerivedFrom)
	assert.Equal(t, "UART", *dev.Peripherals[1].DerivedFrom)
}

func TestField_Bits(t *testing.T) {
	dev, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	want := []struct{ off, width uint }{{0, 1}, {4, 8}, {13, 3}}
	for i, f := range dev.Peripherals[0].Registers[0].Fields {
		off, width, err := f.Bits()
		require.NoError(t, err, f.Name)
		assert.Equal(t, want[i].off, off, f.Name)
		assert.Equal(t, want[i].width, width, f.Name)
	}

	bad := []string{"", "15:13", "[13:15]", "[a:1]", "[15]"}
	for _, s := range bad {
		f := &Field{Name: "F", BitRangePattern: &s}
		_, _, err := f.Bits()
		assert.ErrorIs(t, err, ErrBitRange, s)
	}
	_, _, err = (&Field{Name: "F"}).Bits()
	assert.ErrorIs(t, err, ErrBitRange)
	_, _, err = (&Field{BitRangeLSBMSB: &BitRangeLSBMSB{LSB: 4, MSB: 3}}).Bits()
	assert.ErrorIs(t, err, ErrBitRange)
}

func TestParseUint(t *testing.T) {
	cases := []struct {
		s string
		v uint64
	}{
		{"10", 10},
		{"0x1F", 31},
		{"0X1f", 31},
		{"#101", 5},
	}
	for _, c := range cases {
		v, err := parseUint(c.s)
		if assert.NoError(t, err, c.s) {
			assert.Equal(t, c.v, v, c.s)
		}
	}
	for _, s := range []string{"", "#12", "0xZZ", "-1"} {
		_, err := parseUint(s)
		assert.Error(t, err, s)
	}
}

func TestInherit(t *testing.T) {
	size, reset := Uint(32), Uint(7)
	acc := "read-only"
	parent := RegisterPropertiesGroup{Size: &size, Access: &acc, ResetValue: &reset}

	own := Uint(8)
	g := RegisterPropertiesGroup{Size: &own}
	g.Inherit(&parent)
	assert.Equal(t, Uint(8), *g.Size)
	assert.Same(t, &acc, g.Access)
	assert.Same(t, &reset, g.ResetValue)
	assert.Nil(t, g.ResetMask)
}
