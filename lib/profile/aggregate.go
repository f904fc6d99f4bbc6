//
// Copyright (C) 2026 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package profile

import (
	"errors"
	"fmt"
	"io"

	"git.sr.ht/~vejnar/GeneBody/lib/errs"
)

// Bin is one line of the final profile.
type Bin struct {
	Index int
	Value float64
}

// Aggregator sums gene profiles.
type Aggregator struct {
	sum       BinVector
	nGene     int
	finalized bool
}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add adds the profile of one gene.
func (a *Aggregator) Add(v BinVector) {
	for i := range v {
		a.sum[i] += v[i]
	}
	a.nGene++
}

// Genes returns the number of profiles added.
func (a *Aggregator) Genes() int { return a.nGene }

// Finalize returns the summed profile, divided by the number of genes if normalize is set.
// It can only be called once.
func (a *Aggregator) Finalize(normalize bool) ([]Bin, error) {
	if a.finalized {
		return nil, errors.New("profile already finalized")
	}
	if normalize && a.nGene == 0 {
		return nil, fmt.Errorf("%w: cannot normalize profile, no gene passed the filters", errs.ErrDivideByZero)
	}
	a.finalized = true
	bins := make([]Bin, NBins)
	for i := range a.sum {
		bins[i].Index = i
		if normalize {
			bins[i].Value = a.sum[i] / float64(a.nGene)
		} else {
			bins[i].Value = a.sum[i]
		}
	}
	return bins, nil
}

// WriteTable writes one "index<TAB>value" line per bin.
func WriteTable(w io.Writer, bins []Bin) error {
	for _, b := range bins {
		if _, err := fmt.Fprintf(w, "%d\t%.4f\n", b.Index, b.Value); err != nil {
			return err
		}
	}
	return nil
}
