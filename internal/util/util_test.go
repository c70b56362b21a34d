// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package util

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutFile(t *testing.T) {
	cases := []struct {
		in, out, suffix, dir string
		want                 string
	}{
		{"stm32f1.svd", "", ".yaml", "", "stm32f1.yaml"},
		{"svd/stm32f1.svd", "", ".yaml", "", filepath.Join("svd", "stm32f1.yaml")},
		{"svd/stm32f1.svd", "", ".yaml", "out", filepath.Join("out", "stm32f1.yaml")},
		{"svd/stm32f1.svd", "f1.yaml", ".yaml", "", "f1.yaml"},
		{"map.yaml", "reset.hex", ".hex", "out", filepath.Join("out", "reset.hex")},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, OutFile(c.in, c.out, c.suffix, c.dir), c.in)
	}
}

func TestPrefix(t *testing.T) {
	var got string
	w := Prefix("a.svd", func(f string, args ...any) {
		got = fmt.Sprintf(f, args...)
	})
	w("%s: skipped", "R")
	assert.Equal(t, "a.svd: R: skipped", got)
}

func TestPrefix_Nil(t *testing.T) {
	assert.Nil(t, Prefix("a.svd", nil))
}
