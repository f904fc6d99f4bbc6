//
// Copyright (C) 2015-2026 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"git.sr.ht/~vejnar/GeneBody/lib/coverage"
	"git.sr.ht/~vejnar/GeneBody/lib/esam"
	"git.sr.ht/~vejnar/GeneBody/lib/feature"
	"git.sr.ht/~vejnar/GeneBody/lib/profile"
)

// AddCommas adds commas after every 3 characters.
func AddCommas(s string) string {
	if len(s) <= 3 {
		return s
	} else {
		return AddCommas(s[0:len(s)-3]) + "," + s[len(s)-3:]
	}
}

// pendingFile is an output written to a temporary path, renamed once all outputs are written.
type pendingFile struct {
	tmp, path string
}

func stageOutput(path string, write func(io.Writer) error) (*pendingFile, error) {
	if path == "-" {
		w, err := profile.Create(path, "")
		if err != nil {
			return nil, err
		}
		if err = write(w); err != nil {
			w.Close()
			return nil, err
		}
		return nil, w.Close()
	}
	pf := &pendingFile{tmp: path + ".tmp", path: path}
	w, err := profile.Create(pf.tmp, path)
	if err != nil {
		return nil, err
	}
	if err = write(w); err != nil {
		w.Close()
		os.Remove(pf.tmp)
		return nil, err
	}
	if err = w.Close(); err != nil {
		os.Remove(pf.tmp)
		return nil, err
	}
	return pf, nil
}

func commitOutputs(pfs []*pendingFile) error {
	for _, pf := range pfs {
		if pf == nil {
			continue
		}
		if err := os.Rename(pf.tmp, pf.path); err != nil {
			return err
		}
	}
	return nil
}

func discardOutputs(pfs []*pendingFile) {
	for _, pf := range pfs {
		if pf != nil {
			os.Remove(pf.tmp)
		}
	}
}

func loadAnnotation(cfg *Config) (*feature.Index, error) {
	rr, closer, err := feature.OpenAnnotation(cfg.PathAnnotation, cfg.FormatAnnotation, cfg.FONKeys())
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return feature.BuildIndex(rr, cfg.Source)
}

func openAlignments(cfg *Config) (*esam.Source, error) {
	if cfg.PathBAM != "" {
		return esam.Open(esam.PathSAM{Path: cfg.PathBAM, Binary: true}, nil, cfg.NumWorker)
	}
	var cmdIn []string
	if cfg.SAMCommandIn != "" {
		cmdIn = strings.Split(cfg.SAMCommandIn, ",")
	}
	return esam.Open(esam.PathSAM{Path: cfg.PathSAM}, cmdIn, cfg.NumWorker)
}

// run computes the profile chromosome by chromosome: one coverage track is built from the
// alignments, then all genes of the chromosome are profiled on it.
func run(ctx context.Context, cfg *Config, stdout io.Writer, logger *zap.Logger) error {
	timeStart := time.Now()
	report := &Report{}

	// Annotation
	idx, err := loadAnnotation(cfg)
	if err != nil {
		return err
	}
	report.GeneAnnotated = idx.TotalGenes()
	report.TranscriptAnnotated = idx.TotalTranscripts()
	report.ExonDiscarded = idx.Discarded()
	logger.Info("annotation loaded", zap.Int("genes", idx.TotalGenes()), zap.Int("transcripts", idx.TotalTranscripts()), zap.Int("gene_models", idx.GeneModels()))
	if idx.Discarded() > 0 {
		logger.Warn("exons of transcripts on several chromosomes discarded", zap.Int("exons", idx.Discarded()))
	}
	var mapping map[string]string
	if cfg.PathChromMapping != "" {
		if mapping, err = feature.OpenMapping(cfg.PathChromMapping); err != nil {
			return err
		}
	}
	toIndex := idx.ReverseMapping(mapping)
	trees, err := feature.BuildExonTrees(idx)
	if err != nil {
		return err
	}

	// Alignments
	src, err := openAlignments(cfg)
	if err != nil {
		return err
	}
	defer src.Close()
	src.SetLogger(logger)
	found := make(map[string]bool)
	for _, ref := range src.Refs() {
		if chrom, ok := toIndex[ref.Name()]; ok {
			found[chrom] = true
		}
	}
	for _, chrom := range idx.Chromosomes() {
		if !found[chrom] {
			report.ChromMissing = append(report.ChromMissing, chrom)
			logger.Warn("chromosome not found in alignments", zap.String("chrom", feature.MapName(chrom, mapping)))
		}
	}

	opts := cfg.ProfileOptions()
	agg := profile.NewAggregator()
	var profiled []profile.Result
	for _, ref := range src.Refs() {
		chrom, ok := toIndex[ref.Name()]
		if !ok {
			continue
		}
		c, _ := idx.Chromosome(chrom)
		logger.Info("processing", zap.String("chrom", ref.Name()), zap.Int("size", ref.Len()), zap.Duration("elapsed", time.Since(timeStart)))

		// Coverage
		tree := trees[chrom]
		track := coverage.NewTrack(ref.Name(), ref.Len())
		it, err := src.Fetch(ctx, ref)
		if err != nil {
			return err
		}
		st, err := track.Populate(it, coverage.Options{
			Unique: cfg.Unique,
			Visit: func(a *coverage.Alignment) {
				for _, b := range a.Blocks {
					if feature.OverlapsExon(tree, b.Start, b.End) {
						report.AlignExonic++
						return
					}
				}
			},
		})
		if err != nil {
			return fmt.Errorf("%s: %w", ref.Name(), err)
		}
		report.AddStats(st)

		// Genes
		genes := c.Genes()
		nTranscript := 0
		for _, g := range genes {
			nTranscript += g.NumTranscripts()
		}
		logger.Info("transcripts considered", zap.String("chrom", ref.Name()), zap.Int("genes", len(genes)), zap.Int("transcripts", nTranscript))
		for _, g := range genes {
			res, err := profile.ProfileGene(g, track, opts)
			if err != nil {
				return err
			}
			report.AddGene(res)
			if res.Excluded != profile.Included {
				continue
			}
			agg.Add(res.Bins)
			profiled = append(profiled, res)
		}
	}
	logger.Info("genes profiled", zap.Int("genes", agg.Genes()), zap.String("alignments", AddCommas(strconv.FormatUint(report.AlignTotal, 10))))

	// Output
	bins, err := agg.Finalize(cfg.Normalize)
	if err != nil {
		return err
	}
	var pfs []*pendingFile
	pf, err := stageOutput(cfg.PathOutput, func(w io.Writer) error { return profile.WriteTable(w, bins) })
	if err != nil {
		return err
	}
	pfs = append(pfs, pf)
	if cfg.PathGenes != "" {
		pf, err = stageOutput(cfg.PathGenes, func(w io.Writer) error { return profile.WriteGenes(w, profiled) })
		if err != nil {
			discardOutputs(pfs)
			return err
		}
		pfs = append(pfs, pf)
	}
	if err = commitOutputs(pfs); err != nil {
		discardOutputs(pfs)
		return err
	}
	if cfg.PathReport != "" {
		if err = WriteReportPath(cfg.PathReport, stdout, report); err != nil {
			return err
		}
	}
	logger.Info("done", zap.Duration("elapsed", time.Since(timeStart)))
	return nil
}
