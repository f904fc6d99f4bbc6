//
// Copyright (C) 2026 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

// Package coverage builds dense per-chromosome read depth tracks.
package coverage

import (
	"fmt"

	"git.sr.ht/~vejnar/GeneBody/lib/errs"
)

// Block is a contiguous aligned segment (0-based [Start,End)).
type Block struct {
	Start, End int
}

// Alignment is the part of an aligned read used to compute depth.
type Alignment struct {
	Name            string
	Unmapped        bool
	Multiplicity    int
	HasMultiplicity bool
	Blocks          []Block
}

// Iterator yields the alignments of one chromosome.
type Iterator interface {
	// Next advances to the next alignment. It returns false at the end or on error.
	Next() bool
	// Alignment returns the current alignment, valid until the next call to Next.
	Alignment() *Alignment
	// Err returns the error that stopped the iteration, if any.
	Err() error
}

type Options struct {
	// Unique keeps only alignments with multiplicity 1. Alignments must carry a multiplicity.
	Unique bool
	// Visit is called for every alignment adding depth to the track.
	Visit func(*Alignment)
}

// Stats counts alignments seen while populating a track.
type Stats struct {
	Alignments uint64
	Unmapped   uint64
	NonUnique  uint64
	Used       uint64
	Bases      uint64
}

// Add adds counts of o to s.
func (s *Stats) Add(o Stats) {
	s.Alignments += o.Alignments
	s.Unmapped += o.Unmapped
	s.NonUnique += o.NonUnique
	s.Used += o.Used
	s.Bases += o.Bases
}

// Track stores the read depth at each position of one chromosome.
type Track struct {
	Chrom string
	Depth []uint32
}

// NewTrack returns a zero-depth track of the given length.
func NewTrack(chrom string, length int) *Track {
	return &Track{Chrom: chrom, Depth: make([]uint32, length)}
}

// Len returns the chromosome length.
func (t *Track) Len() int {
	return len(t.Depth)
}

// At returns the depth at pos.
func (t *Track) At(pos int) uint32 {
	return t.Depth[pos]
}

// Populate adds one to the depth of every position covered by an aligned block.
func (t *Track) Populate(it Iterator, opts Options) (st Stats, err error) {
	for it.Next() {
		a := it.Alignment()
		st.Alignments++
		// Filtering
		if a.Unmapped {
			st.Unmapped++
			continue
		}
		if opts.Unique {
			if !a.HasMultiplicity {
				return st, fmt.Errorf("%w: alignment %q on %s has no NH tag, required to select unique alignments", errs.ErrData, a.Name, t.Chrom)
			}
			if a.Multiplicity > 1 {
				st.NonUnique++
				continue
			}
		}
		// Depth
		for _, b := range a.Blocks {
			if b.Start < 0 || b.End > len(t.Depth) || b.Start > b.End {
				return st, fmt.Errorf("%w: alignment %q block [%d,%d) outside of %s (length %d)", errs.ErrInput, a.Name, b.Start, b.End, t.Chrom, len(t.Depth))
			}
			for i := b.Start; i < b.End; i++ {
				t.Depth[i]++
			}
			st.Bases += uint64(b.End - b.Start)
		}
		st.Used++
		if opts.Visit != nil {
			opts.Visit(a)
		}
	}
	if err = it.Err(); err != nil {
		return st, err
	}
	return st, nil
}

// Mean returns the mean depth over positions. Positions don't need to be contiguous.
func (t *Track) Mean(positions []int) (float64, error) {
	if len(positions) == 0 {
		return 0, fmt.Errorf("%w: mean depth of an empty position list on %s", errs.ErrData, t.Chrom)
	}
	var sum uint64
	for _, p := range positions {
		if p < 0 || p >= len(t.Depth) {
			return 0, fmt.Errorf("%w: position %d outside of %s (length %d)", errs.ErrInput, p, t.Chrom, len(t.Depth))
		}
		sum += uint64(t.Depth[p])
	}
	return float64(sum) / float64(len(positions)), nil
}

// SliceIterator iterates over alignments held in memory.
type SliceIterator struct {
	alignments []Alignment
	i          int
}

// NewSliceIterator returns an Iterator over alignments.
func NewSliceIterator(alignments []Alignment) *SliceIterator {
	return &SliceIterator{alignments: alignments, i: -1}
}

func (s *SliceIterator) Next() bool {
	if s.i+1 >= len(s.alignments) {
		return false
	}
	s.i++
	return true
}

func (s *SliceIterator) Alignment() *Alignment { return &s.alignments[s.i] }

func (s *SliceIterator) Err() error { return nil }
