//
// Copyright (C) 2015-2026 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package feature

import (
	"github.com/biogo/store/interval"
)

// BuildExonTrees builds one tree per chromosome: each merged exon interval of each gene is added to the tree.
func BuildExonTrees(idx *Index) (trees map[string]*interval.IntTree, err error) {
	trees = make(map[string]*interval.IntTree)
	icoord := 0
	for _, chrom := range idx.Chromosomes() {
		c, _ := idx.Chromosome(chrom)
		tree := &interval.IntTree{}
		for _, g := range c.Genes() {
			for _, coord := range g.Union() {
				iv := IntInterval{Start: coord[0], End: coord[1], UID: uintptr(icoord), GeneID: g.ID()}
				if err = tree.Insert(iv, true); err != nil {
					return
				}
				icoord++
			}
		}
		tree.AdjustRanges()
		trees[chrom] = tree
	}
	return
}

// OverlapsExon reports whether [start,end) overlaps any exon in tree.
func OverlapsExon(tree *interval.IntTree, start, end int) bool {
	if tree == nil || start >= end {
		return false
	}
	return len(tree.Get(IntInterval{Start: start, End: end})) > 0
}
