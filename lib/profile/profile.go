//
// Copyright (C) 2015-2026 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

// Package profile computes gene-body coverage profiles.
//
// The exonic positions of a gene (union of the exons of all its transcripts) are ordered
// from the 5' to the 3' end and split into NBins bins of equal size (±1 position).
// The profile of a gene is the mean coverage of each bin. Profiles of all genes are
// summed, and optionally divided by the number of genes.
package profile

import (
	"fmt"

	"git.sr.ht/~vejnar/GeneBody/lib/cmapper"
	"git.sr.ht/~vejnar/GeneBody/lib/errs"
	"git.sr.ht/~vejnar/GeneBody/lib/feature"
)

const (
	NBins = 100
	// MinGeneLength is the smallest gene length allowed: every bin has at least one position.
	MinGeneLength = NBins
)

type BinVector [NBins]float64

// Exclusion is the reason a gene has no profile.
type Exclusion int

const (
	Included Exclusion = iota
	ExcludedMultiTranscript
	ExcludedShort
	ExcludedLong
)

func (e Exclusion) String() string {
	switch e {
	case Included:
		return "included"
	case ExcludedMultiTranscript:
		return "multi_transcript"
	case ExcludedShort:
		return "short"
	case ExcludedLong:
		return "long"
	}
	return fmt.Sprintf("Exclusion(%d)", int(e))
}

// Coverage returns the mean depth over genomic positions.
type Coverage interface {
	Mean(positions []int) (float64, error)
}

type Options struct {
	MinGeneLength int
	// MaxGeneLength is ignored if 0.
	MaxGeneLength        int
	SingleTranscriptOnly bool
}

// DefaultOptions returns the options used without configuration.
func DefaultOptions() Options {
	return Options{MinGeneLength: MinGeneLength}
}

// Validate checks gene length limits.
func (o Options) Validate() error {
	if o.MinGeneLength < MinGeneLength {
		return fmt.Errorf("%w: minimum gene length must be >= %d (got %d)", errs.ErrConfig, MinGeneLength, o.MinGeneLength)
	}
	if o.MaxGeneLength < 0 {
		return fmt.Errorf("%w: maximum gene length must be positive (got %d)", errs.ErrConfig, o.MaxGeneLength)
	}
	if o.MaxGeneLength > 0 && o.MaxGeneLength < o.MinGeneLength {
		return fmt.Errorf("%w: maximum gene length %d is below minimum gene length %d", errs.ErrConfig, o.MaxGeneLength, o.MinGeneLength)
	}
	return nil
}

type Result struct {
	GeneID         string
	Chrom          string
	Strand         feature.Strand
	NumTranscripts int
	Length         int
	Excluded       Exclusion
	Bins           BinVector
}

// CutPoints returns the NBins+1 bin boundaries of a gene of length positions.
// Bin i covers [cuts[i], cuts[i+1]).
func CutPoints(length int) (cuts [NBins + 1]int) {
	for i := 0; i <= NBins; i++ {
		cuts[i] = i * length / NBins
	}
	return
}

// ProfileGene returns the mean coverage of each bin of gene g. Genes not passing
// the filters of opts are returned with Excluded set.
func ProfileGene(g *feature.Gene, cov Coverage, opts Options) (res Result, err error) {
	res = Result{GeneID: g.ID(), Chrom: g.Chrom(), NumTranscripts: g.NumTranscripts()}
	// Single model
	if opts.SingleTranscriptOnly && g.NumTranscripts() > 1 {
		res.Excluded = ExcludedMultiTranscript
		return res, nil
	}
	// Exonic positions from 5' to 3'
	if res.Strand, err = g.Strand(); err != nil {
		return res, err
	}
	cm := &cmapper.CoordMapper{CoordsGenome: g.Union(), Strand: int8(res.Strand)}
	cm.Init()
	res.Length = cm.Length
	// Length filters
	if res.Length < opts.MinGeneLength {
		res.Excluded = ExcludedShort
		return res, nil
	}
	if opts.MaxGeneLength > 0 && res.Length > opts.MaxGeneLength {
		res.Excluded = ExcludedLong
		return res, nil
	}
	// Bins
	positions := cm.Positions()
	cuts := CutPoints(res.Length)
	for i := 0; i < NBins; i++ {
		res.Bins[i], err = cov.Mean(positions[cuts[i]:cuts[i+1]])
		if err != nil {
			return res, fmt.Errorf("gene %s: %w", g.ID(), err)
		}
	}
	return res, nil
}
