//
// Copyright (C) 2015-2026 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package feature

import (
	"encoding/json"
	"fmt"
	"io"

	"git.sr.ht/~vejnar/GeneBody/lib/errs"
)

const SourceFON = "FON"

// FONKeys are the keys of a FON feature used to build exon records.
type FONKeys struct {
	Name   string
	Gene   string
	Chrom  string
	Strand string
	Coords string
}

// DefaultFONKeys matches features exported with transcript and gene stable IDs.
var DefaultFONKeys = FONKeys{
	Name:   "transcript_stable_id",
	Gene:   "gene_stable_id",
	Chrom:  "chrom",
	Strand: "strand",
	Coords: "exons",
}

// FONReader returns one exon record per exon of each "Feature Object Notation" feature.
// Each feature is a transcript; its exons are 0-based [start,end) intervals.
type FONReader struct {
	records []Record
	i       int
}

// NewFONReader decodes the whole FON document from r.
func NewFONReader(r io.Reader, keys FONKeys) (*FONReader, error) {
	d := json.NewDecoder(r)
	d.UseNumber()
	var fon struct {
		Version  json.Number              `json:"fon_version"`
		Features []map[string]interface{} `json:"features"`
	}
	if err := d.Decode(&fon); err != nil {
		return nil, fmt.Errorf("%w: parsing JSON feature file: %v", errs.ErrInput, err)
	}
	// FON version
	if version, err := fon.Version.Int64(); err != nil {
		return nil, fmt.Errorf("%w: missing or invalid fon_version", errs.ErrInput)
	} else if version != 1 {
		return nil, fmt.Errorf("%w: unknown FON version %d", errs.ErrInput, version)
	}
	// Get features
	fr := &FONReader{}
	for i, mf := range fon.Features {
		name, err := fonString(mf, keys.Name, i)
		if err != nil {
			return nil, err
		}
		gene, err := fonString(mf, keys.Gene, i)
		if err != nil {
			return nil, err
		}
		chrom, err := fonString(mf, keys.Chrom, i)
		if err != nil {
			return nil, err
		}
		strand, err := fonString(mf, keys.Strand, i)
		if err != nil {
			return nil, err
		}
		rawCoords, ok := mf[keys.Coords].([]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: FON feature %d (%s) has no %q list", errs.ErrInput, i, name, keys.Coords)
		}
		// Add coordinates
		for _, rc := range rawCoords {
			cj, ok := rc.([]interface{})
			if !ok || len(cj) != 2 {
				return nil, fmt.Errorf("%w: FON feature %s has malformed coordinates", errs.ErrInput, name)
			}
			var coord [2]int
			for k, ck := range cj {
				num, ok := ck.(json.Number)
				if !ok {
					return nil, fmt.Errorf("%w: FON feature %s has non-numeric coordinates", errs.ErrInput, name)
				}
				n, err := num.Int64()
				if err != nil {
					return nil, fmt.Errorf("%w: FON feature %s: %v", errs.ErrInput, name, err)
				}
				coord[k] = int(n)
			}
			fr.records = append(fr.records, Record{
				Feature:      FeatureExon,
				Source:       SourceFON,
				Chrom:        chrom,
				Start:        coord[0] + 1,
				End:          coord[1],
				Strand:       strand,
				GeneID:       gene,
				TranscriptID: name,
			})
		}
	}
	return fr, nil
}

func fonString(mf map[string]interface{}, key string, i int) (string, error) {
	s, ok := mf[key].(string)
	if !ok {
		return "", fmt.Errorf("%w: FON feature %d has no string %q", errs.ErrInput, i, key)
	}
	return s, nil
}

// Read returns the next record, or io.EOF.
func (f *FONReader) Read() (Record, error) {
	if f.i >= len(f.records) {
		return Record{}, io.EOF
	}
	f.i++
	return f.records[f.i-1], nil
}
