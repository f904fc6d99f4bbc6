//
// Copyright (C) 2015-2026 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//

// Package cmapper maps coordinates between the genome and the concatenated exons of a gene.
package cmapper

// CoordMapper maps sorted, non-overlapping genomic intervals ([start,end)) to a
// contiguous coordinate system starting at 0 at the 5' end.
type CoordMapper struct {
	CoordsGenome, CoordsTranscript [][]int
	Strand                         int8
	Length                         int
}

// Init.
func (cm *CoordMapper) Init() {
	// CoordsTranscript
	var tcoord int
	cm.CoordsTranscript = nil
	if cm.Strand == -1 {
		for i := len(cm.CoordsGenome) - 1; i >= 0; i-- {
			exonLength := cm.CoordsGenome[i][1] - cm.CoordsGenome[i][0]
			cm.CoordsTranscript = append(cm.CoordsTranscript, []int{tcoord, tcoord + exonLength})
			tcoord += exonLength
		}
	} else {
		for i := 0; i < len(cm.CoordsGenome); i++ {
			exonLength := cm.CoordsGenome[i][1] - cm.CoordsGenome[i][0]
			cm.CoordsTranscript = append(cm.CoordsTranscript, []int{tcoord, tcoord + exonLength})
			tcoord += exonLength
		}
	}
	// Length
	cm.Length = cm.GetLength()
}

// GetLength returns mapper length.
func (cm *CoordMapper) GetLength() (length int) {
	for _, iv := range cm.CoordsGenome {
		length += iv[1] - iv[0]
	}
	return
}

// Genome2Transcript translates a coordinate from the genome to the transcript system.
func (cm *CoordMapper) Genome2Transcript(coord int) (tcoord int, within bool) {
	exonIth := -1
	for i := 0; i < len(cm.CoordsGenome); i++ {
		if coord >= cm.CoordsGenome[i][0] && coord < cm.CoordsGenome[i][1] {
			exonIth = i
			break
		}
	}
	if exonIth != -1 {
		if cm.Strand == -1 {
			tcoord = cm.CoordsTranscript[len(cm.CoordsTranscript)-1-exonIth][1] - 1 - (coord - cm.CoordsGenome[exonIth][0])
		} else {
			tcoord = cm.CoordsTranscript[exonIth][0] + (coord - cm.CoordsGenome[exonIth][0])
		}
		within = true
	}
	return
}

// Transcript2Genome translates a coordinate from the transcript to the genome system.
func (cm *CoordMapper) Transcript2Genome(tcoord int) (coord int, within bool) {
	for j := 0; j < len(cm.CoordsTranscript); j++ {
		if tcoord >= cm.CoordsTranscript[j][0] && tcoord < cm.CoordsTranscript[j][1] {
			if cm.Strand == -1 {
				i := len(cm.CoordsGenome) - 1 - j
				return cm.CoordsGenome[i][1] - 1 - (tcoord - cm.CoordsTranscript[j][0]), true
			}
			return cm.CoordsGenome[j][0] + (tcoord - cm.CoordsTranscript[j][0]), true
		}
	}
	return
}

// Positions returns the genomic position of each transcript coordinate from 0 to Length-1.
// Positions are ascending on the forward strand and descending on the reverse strand.
func (cm *CoordMapper) Positions() []int {
	positions := make([]int, 0, cm.Length)
	if cm.Strand == -1 {
		for i := len(cm.CoordsGenome) - 1; i >= 0; i-- {
			for p := cm.CoordsGenome[i][1] - 1; p >= cm.CoordsGenome[i][0]; p-- {
				positions = append(positions, p)
			}
		}
	} else {
		for i := 0; i < len(cm.CoordsGenome); i++ {
			for p := cm.CoordsGenome[i][0]; p < cm.CoordsGenome[i][1]; p++ {
				positions = append(positions, p)
			}
		}
	}
	return positions
}
