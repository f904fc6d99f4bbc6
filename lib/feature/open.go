//
// Copyright (C) 2026 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package feature

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"git.sr.ht/~vejnar/GeneBody/lib/errs"
)

const (
	FormatGTF = "gtf"
	FormatFON = "fon"
)

type multiCloser []io.Closer

func (mc multiCloser) Close() (err error) {
	for i := len(mc) - 1; i >= 0; i-- {
		if cerr := mc[i].Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return
}

// OpenAnnotation opens a GTF or FON file, gzip compressed if path ends with ".gz".
func OpenAnnotation(path, format string, keys FONKeys) (RecordReader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errs.ErrInput, err)
	}
	closers := multiCloser{f}
	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			closers.Close()
			return nil, nil, fmt.Errorf("%w: open gzip reader %s: %v", errs.ErrInput, path, err)
		}
		closers = append(closers, gz)
		r = gz
	}
	switch strings.ToLower(format) {
	case FormatGTF:
		return NewGTFReader(r), closers, nil
	case FormatFON:
		fr, err := NewFONReader(r, keys)
		if err != nil {
			closers.Close()
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		return fr, closers, nil
	}
	closers.Close()
	return nil, nil, fmt.Errorf("%w: unknown annotation format %q", errs.ErrConfig, format)
}
