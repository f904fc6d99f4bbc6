//
// Copyright (C) 2015-2026 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package esam

import (
	"github.com/biogo/hts/sam"

	"git.sr.ht/~vejnar/GeneBody/lib/coverage"
)

// PathSAM stores Path to SAM (Binary=false) or BAM (Binary=true) file.
type PathSAM struct {
	Path   string
	Binary bool
}

// Blocks returns the reference intervals covered by aligned bases of the SAM record.
// Deletions and skipped regions (introns) advance the position without covering it.
func Blocks(r *sam.Record) []coverage.Block {
	var blocks []coverage.Block
	pos := r.Pos
	for _, co := range r.Cigar {
		con := co.Type().Consumes()
		lr := co.Len() * con.Reference
		if con.Query == con.Reference && lr > 0 {
			if n := len(blocks); n > 0 && blocks[n-1].End == pos {
				blocks[n-1].End = pos + lr
			} else {
				blocks = append(blocks, coverage.Block{Start: pos, End: pos + lr})
			}
		}
		pos += lr
	}
	return blocks
}

// Multiplicity returns the number of reported alignments of the read (NH tag).
func Multiplicity(r *sam.Record) (int, bool) {
	tag, found := r.Tag([]byte{'N', 'H'})
	if !found {
		return 0, false
	}
	switch v := tag.Value().(type) {
	case int8:
		return int(v), true
	case uint8:
		return int(v), true
	case int16:
		return int(v), true
	case uint16:
		return int(v), true
	case int32:
		return int(v), true
	case uint32:
		return int(v), true
	}
	return 0, false
}

// toAlignment fills a with the fields of r used to compute depth.
func toAlignment(r *sam.Record, a *coverage.Alignment) {
	a.Name = r.Name
	a.Unmapped = r.Flags&sam.Unmapped != 0
	a.Multiplicity, a.HasMultiplicity = Multiplicity(r)
	if a.Unmapped {
		a.Blocks = nil
	} else {
		a.Blocks = Blocks(r)
	}
}
