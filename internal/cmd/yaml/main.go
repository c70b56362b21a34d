// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package yaml

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/embeddedgo/regtok/internal/util"
	"github.com/embeddedgo/regtok/regmap"
	"github.com/embeddedgo/regtok/svd"
)

const Descr = "convert SVD files to YAML register maps"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [OPTIONS] SVD...\nOptions:\n", cmd)
		fs.PrintDefaults()
	}
	dir := fs.String(
		"o", "",
		"output `directory` (default: the directory of the SVD file)",
	)
	fs.Parse(args)
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(1)
	}
	if *dir != "" {
		util.FatalErr("", os.MkdirAll(*dir, 0o755))
	}
	util.FatalErr(cmd, run(*dir, util.Warn, fs.Args()))
}

func run(dir string, warn func(f string, args ...any), files []string) error {
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, name := range files {
		g.Go(func() error {
			return convert(name, util.OutFile(name, "", ".yaml", dir), warn)
		})
	}
	return g.Wait()
}

func convert(in, out string, warn func(f string, args ...any)) error {
	dev, err := svd.ReadFile(in)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	m, err := regmap.FromSVD(dev, util.Prefix(in, warn))
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	err = m.WriteYAML(f)
	if e := f.Close(); err == nil {
		err = e
	}
	return err
}
