//
// Copyright (C) 2015-2026 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package feature

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"git.sr.ht/~vejnar/GeneBody/lib/errs"
)

// OpenMapping reads a two column tabulated file mapping annotation chromosome names to alignment reference names.
func OpenMapping(mpath string) (map[string]string, error) {
	m := make(map[string]string)

	mfos, err := os.Open(mpath)
	if err != nil {
		return m, fmt.Errorf("%w: %v", errs.ErrInput, err)
	}
	defer mfos.Close()

	tscanner := bufio.NewScanner(mfos)
	iline := 0
	for tscanner.Scan() {
		iline++
		if tscanner.Text() == "" {
			continue
		}
		fields := strings.Split(tscanner.Text(), "\t")
		if len(fields) < 2 {
			return m, fmt.Errorf("%w: %s line %d: expected 2 columns", errs.ErrInput, mpath, iline)
		}
		m[fields[0]] = fields[1]
	}
	if err := tscanner.Err(); err != nil {
		return m, fmt.Errorf("%w: %v", errs.ErrInput, err)
	}
	return m, nil
}

// MapName returns the name mapped in m, or name itself.
func MapName(name string, m map[string]string) string {
	if nn, ok := m[name]; ok {
		return nn
	}
	return name
}

// ReverseMapping maps mapped chromosome names back to the index chromosome names.
func (idx *Index) ReverseMapping(m map[string]string) map[string]string {
	r := make(map[string]string, len(idx.chroms))
	for name := range idx.chroms {
		r[MapName(name, m)] = name
	}
	return r
}
