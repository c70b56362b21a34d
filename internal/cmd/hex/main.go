// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hex

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/embeddedgo/regtok/internal/util"
	"github.com/embeddedgo/regtok/mmio"
	"github.com/embeddedgo/regtok/reg"
	"github.com/embeddedgo/regtok/regmap"
)

const Descr = "write the reset values of a register map in the Intel HEX format"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [OPTIONS] MAP\nOptions:\n", cmd)
		fs.PrintDefaults()
	}
	out := fs.String("o", "", "output `file` (default: MAP with the .hex suffix)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	in := fs.Arg(0)
	m, err := regmap.ReadFile(in, util.Prefix(in, util.Warn))
	util.FatalErr("", err)
	of, err := os.Create(util.OutFile(in, *out, ".hex", ""))
	util.FatalErr("", err)
	defer of.Close()
	util.FatalErr("dumpintelhex", dump(of, m))
}

// dump resets the registers of m in a simulated address space and writes its
// content to w.
func dump(w io.Writer, m *regmap.Map) error {
	sim := mmio.NewSim()
	if err := m.Reset(reg.NewIndex(sim)); err != nil {
		return err
	}
	return sim.WriteHex(w)
}
