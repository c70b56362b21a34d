// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package list

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	miniSVD  = "../../../regmap/testdata/mini.svd"
	miniYAML = "../../../regmap/testdata/mini.yaml"
)

func TestRun(t *testing.T) {
	var (
		mu    sync.Mutex
		warns []string
	)
	warn := func(f string, args ...any) {
		mu.Lock()
		warns = append(warns, fmt.Sprintf(f, args...))
		mu.Unlock()
	}
	var buf bytes.Buffer
	require.NoError(t, run(&buf, warn, []string{miniYAML, miniSVD}))
	out := buf.String()
	yi := strings.Index(out, "// Device: MINI\n0x40013804")
	si := strings.Index(out, "TIM2.SR")
	assert.True(t, yi >= 0 && si > yi, out)
	assert.Len(t, warns, 5)
	for _, w := range warns {
		assert.True(t, strings.HasPrefix(w, miniSVD+": "), w)
	}
}

func TestRun_Error(t *testing.T) {
	var buf bytes.Buffer
	err := run(&buf, nil, []string{miniYAML, "testdata/none.yaml"})
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}
