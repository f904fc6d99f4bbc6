//
// Copyright (C) 2015-2026 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

// Package feature indexes annotated exons by chromosome, gene and transcript.
package feature

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/fatih/set.v0"

	"git.sr.ht/~vejnar/GeneBody/lib/errs"
)

const FeatureExon = "exon"

type Strand int8

const (
	Forward Strand = 1
	Reverse Strand = -1
)

// ParseStrand parses "+" or "F" (forward) and "-" or "R" (reverse).
func ParseStrand(raw string) (Strand, error) {
	switch raw {
	case "+", "F":
		return Forward, nil
	case "-", "R":
		return Reverse, nil
	}
	return 0, fmt.Errorf("%w: unknown strand %q", errs.ErrInput, raw)
}

func (s Strand) String() string {
	switch s {
	case Forward:
		return "+"
	case Reverse:
		return "-"
	}
	return "."
}

// Record is one line of annotation. Start and End are 1-based and inclusive.
type Record struct {
	Feature      string
	Source       string
	Chrom        string
	Start        int
	End          int
	Strand       string
	GeneID       string
	TranscriptID string
}

// RecordReader returns records until io.EOF.
type RecordReader interface {
	Read() (Record, error)
}

// Exon is a 0-based [Start,End) interval.
type Exon struct {
	Start, End int
	Strand     Strand
}

type Transcript struct {
	id    string
	exons []Exon
}

func (t *Transcript) ID() string { return t.id }

// Exons returns a copy of the transcript exons in insertion order.
func (t *Transcript) Exons() []Exon {
	return append([]Exon(nil), t.exons...)
}

type Gene struct {
	id          string
	chrom       string
	transcripts map[string]*Transcript
}

func (g *Gene) ID() string          { return g.id }
func (g *Gene) Chrom() string       { return g.chrom }
func (g *Gene) NumTranscripts() int { return len(g.transcripts) }

// Transcripts returns the gene transcripts sorted by ID.
func (g *Gene) Transcripts() []*Transcript {
	ts := make([]*Transcript, 0, len(g.transcripts))
	for _, t := range g.transcripts {
		ts = append(ts, t)
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].id < ts[j].id })
	return ts
}

// Strand returns the strand shared by all exons of the gene.
// Exons on different strands make the gene strand ambiguous and return an error.
func (g *Gene) Strand() (Strand, error) {
	var strand Strand
	for _, t := range g.Transcripts() {
		for _, e := range t.exons {
			if strand == 0 {
				strand = e.Strand
			} else if e.Strand != strand {
				return 0, fmt.Errorf("%w: gene %s on %s has exons on both strands (transcript %s)", errs.ErrData, g.id, g.chrom, t.id)
			}
		}
	}
	if strand == 0 {
		return 0, fmt.Errorf("%w: gene %s on %s has no exon", errs.ErrData, g.id, g.chrom)
	}
	return strand, nil
}

// Union returns the sorted and merged [start,end) intervals covered by all exons of all transcripts.
func (g *Gene) Union() [][]int {
	var coords [][]int
	for _, t := range g.transcripts {
		for _, e := range t.exons {
			coords = append(coords, []int{e.Start, e.End})
		}
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i][0] == coords[j][0] {
			return coords[i][1] < coords[j][1]
		}
		return coords[i][0] < coords[j][0]
	})
	var union [][]int
	for _, c := range coords {
		if n := len(union); n > 0 && c[0] <= union[n-1][1] {
			if c[1] > union[n-1][1] {
				union[n-1][1] = c[1]
			}
			continue
		}
		union = append(union, []int{c[0], c[1]})
	}
	return union
}

// Length returns the number of distinct positions covered by the gene exons.
func (g *Gene) Length() (length int) {
	for _, c := range g.Union() {
		length += c[1] - c[0]
	}
	return
}

type Chromosome struct {
	name  string
	genes map[string]*Gene
}

func (c *Chromosome) Name() string { return c.name }

// Genes returns the chromosome genes sorted by ID.
func (c *Chromosome) Genes() []*Gene {
	gs := make([]*Gene, 0, len(c.genes))
	for _, g := range c.genes {
		gs = append(gs, g)
	}
	sort.Slice(gs, func(i, j int) bool { return gs[i].id < gs[j].id })
	return gs
}

// Gene returns the gene with id.
func (c *Chromosome) Gene(id string) (*Gene, bool) {
	g, ok := c.genes[id]
	return g, ok
}

// Index groups exons by chromosome, gene and transcript.
type Index struct {
	source          string
	chroms          map[string]*Chromosome
	transcriptChrom map[string]string
	geneIDs         set.Interface
	transcriptIDs   set.Interface
	nGeneModels     int
	discarded       int
}

// NewIndex returns an empty index. If source is not empty, only records with this source are kept.
func NewIndex(source string) *Index {
	return &Index{
		source:          source,
		chroms:          make(map[string]*Chromosome),
		transcriptChrom: make(map[string]string),
		geneIDs:         set.New(set.NonThreadSafe),
		transcriptIDs:   set.New(set.NonThreadSafe),
	}
}

// BuildIndex adds all records read from rr to a new index.
func BuildIndex(rr RecordReader, source string) (*Index, error) {
	idx := NewIndex(source)
	for {
		rec, err := rr.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}
		if err = idx.Add(rec); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// Add adds an exon record to the index. Records of other features or other sources are ignored.
func (idx *Index) Add(rec Record) error {
	if rec.Feature == "" {
		return fmt.Errorf("%w: record without feature type", errs.ErrInput)
	}
	if rec.Feature != FeatureExon {
		return nil
	}
	if idx.source != "" && rec.Source != idx.source {
		return nil
	}
	// Check record
	switch {
	case rec.Chrom == "":
		return fmt.Errorf("%w: exon without chromosome (gene %q, transcript %q)", errs.ErrInput, rec.GeneID, rec.TranscriptID)
	case rec.GeneID == "":
		return fmt.Errorf("%w: exon %s:%d-%d without gene_id", errs.ErrInput, rec.Chrom, rec.Start, rec.End)
	case rec.TranscriptID == "":
		return fmt.Errorf("%w: exon %s:%d-%d without transcript_id", errs.ErrInput, rec.Chrom, rec.Start, rec.End)
	case rec.Start < 1 || rec.End < rec.Start:
		return fmt.Errorf("%w: exon %s:%d-%d of %s has invalid coordinates", errs.ErrInput, rec.Chrom, rec.Start, rec.End, rec.TranscriptID)
	}
	strand, err := ParseStrand(rec.Strand)
	if err != nil {
		return fmt.Errorf("exon %s:%d-%d of %s: %w", rec.Chrom, rec.Start, rec.End, rec.TranscriptID, err)
	}
	// Transcript exons must be on one chromosome
	if chrom, ok := idx.transcriptChrom[rec.TranscriptID]; ok && chrom != rec.Chrom {
		idx.discarded++
		return nil
	}
	idx.transcriptChrom[rec.TranscriptID] = rec.Chrom
	// Chromosome
	c, ok := idx.chroms[rec.Chrom]
	if !ok {
		c = &Chromosome{name: rec.Chrom, genes: make(map[string]*Gene)}
		idx.chroms[rec.Chrom] = c
	}
	// Gene
	g, ok := c.genes[rec.GeneID]
	if !ok {
		g = &Gene{id: rec.GeneID, chrom: rec.Chrom, transcripts: make(map[string]*Transcript)}
		c.genes[rec.GeneID] = g
		idx.geneIDs.Add(rec.GeneID)
		idx.nGeneModels++
	}
	// Transcript
	t, ok := g.transcripts[rec.TranscriptID]
	if !ok {
		t = &Transcript{id: rec.TranscriptID}
		g.transcripts[rec.TranscriptID] = t
		idx.transcriptIDs.Add(rec.TranscriptID)
	}
	t.exons = append(t.exons, Exon{Start: rec.Start - 1, End: rec.End, Strand: strand})
	return nil
}

// Chromosome returns the genes of chromosome name.
func (idx *Index) Chromosome(name string) (*Chromosome, bool) {
	c, ok := idx.chroms[name]
	return c, ok
}

// Chromosomes returns the sorted chromosome names.
func (idx *Index) Chromosomes() []string {
	names := make([]string, 0, len(idx.chroms))
	for n := range idx.chroms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// TotalGenes returns the number of distinct gene IDs.
func (idx *Index) TotalGenes() int { return idx.geneIDs.Size() }

// TotalTranscripts returns the number of distinct transcript IDs.
func (idx *Index) TotalTranscripts() int { return idx.transcriptIDs.Size() }

// GeneModels returns the number of genes per chromosome summed over chromosomes.
func (idx *Index) GeneModels() int { return idx.nGeneModels }

// Discarded returns the number of exons ignored because their transcript was seen on another chromosome.
func (idx *Index) Discarded() int { return idx.discarded }
