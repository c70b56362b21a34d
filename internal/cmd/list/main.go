// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package list

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/embeddedgo/regtok/internal/util"
	"github.com/embeddedgo/regtok/regmap"
)

const Descr = "print the register tables of SVD or YAML register maps"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [OPTIONS] FILE...\nOptions:\n", cmd)
		fs.PrintDefaults()
	}
	quiet := fs.Bool("q", false, "do not print SVD conversion warnings")
	fs.Parse(args)
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(1)
	}
	warn := util.Warn
	if *quiet {
		warn = nil
	}
	util.FatalErr(cmd, run(os.Stdout, warn, fs.Args()))
}

// run reads the files concurrently and writes their tables to w in the order
// of the arguments.
func run(w io.Writer, warn func(f string, args ...any), files []string) error {
	maps := make([]*regmap.Map, len(files))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range files {
		g.Go(func() error {
			m, err := regmap.ReadFile(name, util.Prefix(name, warn))
			maps[i] = m
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, m := range maps {
		if i != 0 {
			io.WriteString(w, "\n")
		}
		if err := m.WriteTable(w); err != nil {
			return err
		}
	}
	return nil
}
