//
// Copyright (C) 2026 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package feature

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"git.sr.ht/~vejnar/GeneBody/lib/errs"
)

// GTFReader reads records from a GTF file.
type GTFReader struct {
	scanner *bufio.Scanner
	line    int
}

func NewGTFReader(r io.Reader) *GTFReader {
	scanner := bufio.NewScanner(r)
	// Long attribute columns
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &GTFReader{scanner: scanner}
}

// Read returns the next record, or io.EOF.
func (g *GTFReader) Read() (Record, error) {
	for g.scanner.Scan() {
		g.line++
		line := g.scanner.Text()
		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rec, err := parseGTFLine(line)
		if err != nil {
			return Record{}, fmt.Errorf("%w: GTF line %d: %v", errs.ErrInput, g.line, err)
		}
		return rec, nil
	}
	if err := g.scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("%w: scan GTF: %v", errs.ErrInput, err)
	}
	return Record{}, io.EOF
}

func parseGTFLine(line string) (rec Record, err error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 9 {
		return rec, fmt.Errorf("expected 9 fields, got %d", len(fields))
	}
	rec.Start, err = strconv.Atoi(fields[3])
	if err != nil {
		return rec, fmt.Errorf("parse start: %w", err)
	}
	rec.End, err = strconv.Atoi(fields[4])
	if err != nil {
		return rec, fmt.Errorf("parse end: %w", err)
	}
	attrs := parseAttributes(fields[8])
	rec.Chrom = fields[0]
	rec.Source = fields[1]
	rec.Feature = fields[2]
	rec.Strand = fields[6]
	rec.GeneID = attrs["gene_id"]
	rec.TranscriptID = attrs["transcript_id"]
	return rec, nil
}

// parseAttributes parses the GTF attribute column.
// Format: key "value"; key "value"; ...
func parseAttributes(raw string) map[string]string {
	attrs := make(map[string]string)
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.IndexAny(part, " \t")
		if idx == -1 {
			continue
		}
		attrs[part[:idx]] = strings.Trim(strings.TrimSpace(part[idx+1:]), "\"")
	}
	return attrs
}
