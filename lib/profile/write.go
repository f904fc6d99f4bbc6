//
// Copyright (C) 2015-2026 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package profile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4"
)

type GenericWriter interface {
	Write(buf []byte) (n int, err error)
	Close() error
}

type fileWriter struct {
	*bufio.Writer
	zip  GenericWriter
	file *os.File
}

func (fw *fileWriter) Close() error {
	err := fw.Flush()
	if fw.zip != nil {
		if zerr := fw.zip.Close(); err == nil {
			err = zerr
		}
	}
	if fw.file != os.Stdout {
		if ferr := fw.file.Close(); err == nil {
			err = ferr
		}
	}
	return err
}

// Create creates an output file. Output is compressed with lz4 if zipName ends with ".lz4"
// or gzip if it ends with ".gz". Path "-" is the standard output.
func Create(path, zipName string) (GenericWriter, error) {
	var f *os.File
	if path == "-" {
		f = os.Stdout
	} else {
		var err error
		if f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666); err != nil {
			return nil, err
		}
	}
	fw := &fileWriter{file: f}
	var writer io.Writer = f
	switch {
	case strings.HasSuffix(zipName, ".lz4"):
		lzWriter := lz4.NewWriter(f)
		lzWriter.Header = lz4.Header{CompressionLevel: 9}
		fw.zip = lzWriter
		writer = lzWriter
	case strings.HasSuffix(zipName, ".gz"):
		gzWriter := gzip.NewWriter(f)
		fw.zip = gzWriter
		writer = gzWriter
	}
	fw.Writer = bufio.NewWriter(writer)
	return fw, nil
}

// WriteGenes writes the profiled genes, one per line.
func WriteGenes(w io.Writer, results []Result) error {
	if _, err := fmt.Fprintln(w, "gene_id\tchrom\tstrand\tlength\tn_transcript"); err != nil {
		return err
	}
	for _, r := range results {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", r.GeneID, r.Chrom, r.Strand, r.Length, r.NumTranscripts); err != nil {
			return err
		}
	}
	return nil
}
