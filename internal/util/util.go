// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func Warn(f string, args ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
}

func Fatal(f string, args ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	os.Exit(1)
}

// FatalErr prints an error description and exits the program if the
// err != nil.
func FatalErr(what string, err error) {
	if err == nil {
		return
	}
	s := err.Error() + "\n"
	if what != "" {
		s = what + ": " + s
	}
	os.Stderr.WriteString(s)
	os.Exit(1)
}

// OutFile infers the name of the output file from the name of the input file
// if outName is an empty string. The result is placed in dir if dir is not
// empty.
func OutFile(inName, outName, outSuffix, dir string) string {
	if outName == "" {
		base := filepath.Base(inName)
		outName = strings.TrimSuffix(base, filepath.Ext(base)) + outSuffix
		if dir == "" {
			dir = filepath.Dir(inName)
		}
	}
	if dir != "" {
		outName = filepath.Join(dir, outName)
	}
	return outName
}

// Prefix returns a warning function that prepends prefix to every message. It
// returns nil if warn is nil.
func Prefix(prefix string, warn func(f string, args ...any)) func(f string, args ...any) {
	if warn == nil {
		return nil
	}
	return func(f string, args ...any) {
		warn(prefix+": "+f, args...)
	}
}
