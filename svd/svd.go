// Copyright 2019 Michal Derkacz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package svd decodes CMSIS-SVD device descriptions.
//
// Only the elements that describe the register map are decoded: peripherals,
// clusters, registers, fields and their register properties.
package svd

import (
	"encoding/xml"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
)

// Uint is an SVD scaledNonNegativeInteger: decimal, 0x hexadecimal or
// #binary.
type Uint uint64

func (u *Uint) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var s string
	if err := d.DecodeElement(&s, &start); err != nil {
		return err
	}
	v, err := parseUint(strings.TrimSpace(s))
	*u = Uint(v)
	return err
}

func parseUint(s string) (uint64, error) {
	if s != "" && s[0] == '#' {
		return strconv.ParseUint(s[1:], 2, 64)
	}
	return strconv.ParseUint(s, 0, 64)
}

type Device struct {
	Name            string `xml:"name"`
	Vendor          string `xml:"vendor"`
	Version         string `xml:"version"`
	Description     string `xml:"description"`
	AddressUnitBits Uint   `xml:"addressUnitBits"`
	Width           Uint   `xml:"width"`
	RegisterPropertiesGroup
	Peripherals []*Peripheral `xml:"peripherals>peripheral"`
}

// RegisterPropertiesGroup holds the properties inherited by the lower levels
// of the description. Nil means not specified.
type RegisterPropertiesGroup struct {
	Size       *Uint   `xml:"size"`
	Access     *string `xml:"access"`
	ResetValue *Uint   `xml:"resetValue"`
	ResetMask  *Uint   `xml:"resetMask"`
}

// Inherit fills the unspecified properties of g from parent.
func (g *RegisterPropertiesGroup) Inherit(parent *RegisterPropertiesGroup) {
	if g.Size == nil {
		g.Size = parent.Size
	}
	if g.Access == nil {
		g.Access = parent.Access
	}
	if g.ResetValue == nil {
		g.ResetValue = parent.ResetValue
	}
	if g.ResetMask == nil {
		g.ResetMask = parent.ResetMask
	}
}

type DimElementGroup struct {
	Dim          Uint    `xml:"dim"`
	DimIncrement Uint    `xml:"dimIncrement"`
	DimIndex     *string `xml:"dimIndex"`
}

type Peripheral struct {
	DerivedFrom *string `xml:"derivedFrom,attr"`
	Name        string  `xml:"name"`
	Description *string `xml:"description"`
	GroupName   *string `xml:"groupName"`
	BaseAddress Uint    `xml:"baseAddress"`
	RegisterPropertiesGroup
	Registers []*Register `xml:"registers>register"`
	Clusters  []*Cluster  `xml:"registers>cluster"`
}

type Cluster struct {
	DerivedFrom *string `xml:"derivedFrom,attr"`
	DimElementGroup
	Name          string  `xml:"name"`
	Description   *string `xml:"description"`
	AddressOffset Uint    `xml:"addressOffset"`
	RegisterPropertiesGroup
	Registers []*Register `xml:"register"`
	Clusters  []*Cluster  `xml:"cluster"`
}

type Register struct {
	DerivedFrom *string `xml:"derivedFrom,attr"`
	DimElementGroup
	Name              string  `xml:"name"`
	Description       *string `xml:"description"`
	AlternateGroup    *string `xml:"alternateGroup"`
	AlternateRegister *string `xml:"alternateRegister"`
	AddressOffset     Uint    `xml:"addressOffset"`
	RegisterPropertiesGroup
	ModifiedWriteValues *string  `xml:"modifiedWriteValues"`
	ReadAction          *string  `xml:"readAction"`
	Fields              []*Field `xml:"fields>field"`
}

type Field struct {
	DerivedFrom *string `xml:"derivedFrom,attr"`
	Name        string  `xml:"name"`
	Description *string `xml:"description"`
	*BitRangeOffsetWidth
	*BitRangeLSBMSB
	BitRangePattern     *string `xml:"bitRange"`
	Access              *string `xml:"access"`
	ModifiedWriteValues *string `xml:"modifiedWriteValues"`
	ReadAction          *string `xml:"readAction"`
}

type BitRangeOffsetWidth struct {
	BitOffset Uint  `xml:"bitOffset"`
	BitWidth  *Uint `xml:"bitWidth"`
}

type BitRangeLSBMSB struct {
	LSB Uint `xml:"lsb"`
	MSB Uint `xml:"msb"`
}

var ErrBitRange = errors.New("bad bit range")

// Bits returns the offset and width of f.
func (f *Field) Bits() (offset, width uint, err error) {
	switch {
	case f.BitRangeOffsetWidth != nil:
		width = 1
		if w := f.BitRangeOffsetWidth.BitWidth; w != nil {
			width = uint(*w)
		}
		return uint(f.BitOffset), width, nil
	case f.BitRangeLSBMSB != nil:
		if f.MSB < f.LSB {
			return 0, 0, ErrBitRange
		}
		return uint(f.LSB), uint(f.MSB-f.LSB) + 1, nil
	case f.BitRangePattern != nil:
		// [msb:lsb]
		s := strings.TrimSpace(*f.BitRangePattern)
		if len(s) < 5 || s[0] != '[' || s[len(s)-1] != ']' {
			return 0, 0, ErrBitRange
		}
		msbs, lsbs, ok := strings.Cut(s[1:len(s)-1], ":")
		if !ok {
			return 0, 0, ErrBitRange
		}
		msb, err1 := strconv.ParseUint(msbs, 10, 8)
		lsb, err2 := strconv.ParseUint(lsbs, 10, 8)
		if err1 != nil || err2 != nil || msb < lsb {
			return 0, 0, ErrBitRange
		}
		return uint(lsb), uint(msb-lsb) + 1, nil
	}
	return 0, 0, ErrBitRange
}

// Decode reads an SVD document from r.
func Decode(r io.Reader) (*Device, error) {
	dev := new(Device)
	if err := xml.NewDecoder(r).Decode(dev); err != nil {
		return nil, err
	}
	return dev, nil
}

// ReadFile reads the SVD file f.
func ReadFile(f string) (*Device, error) {
	r, err := os.Open(f)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Decode(r)
}
