//
// Copyright (C) 2015-2026 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"git.sr.ht/~vejnar/GeneBody/lib/coverage"
	"git.sr.ht/~vejnar/GeneBody/lib/profile"
)

// Report summarizes a run.
type Report struct {
	AlignTotal     uint64 `json:"align_total"`
	AlignUnmapped  uint64 `json:"align_unmapped"`
	AlignNonUnique uint64 `json:"align_non_unique"`
	AlignUsed      uint64 `json:"align_used"`
	AlignExonic    uint64 `json:"align_exonic"`
	BaseUsed       uint64 `json:"base_used"`

	GeneAnnotated       int `json:"gene_annotated"`
	TranscriptAnnotated int `json:"transcript_annotated"`
	ExonDiscarded       int `json:"exon_discarded"`

	GeneProfiled                int `json:"gene_profiled"`
	GeneExcludedMultiTranscript int `json:"gene_excluded_multi_transcript"`
	GeneExcludedShort           int `json:"gene_excluded_short"`
	GeneExcludedLong            int `json:"gene_excluded_long"`

	ChromMissing []string `json:"chrom_missing,omitempty"`
}

func (r *Report) AddStats(st coverage.Stats) {
	r.AlignTotal += st.Alignments
	r.AlignUnmapped += st.Unmapped
	r.AlignNonUnique += st.NonUnique
	r.AlignUsed += st.Used
	r.BaseUsed += st.Bases
}

func (r *Report) AddGene(res profile.Result) {
	switch res.Excluded {
	case profile.Included:
		r.GeneProfiled++
	case profile.ExcludedMultiTranscript:
		r.GeneExcludedMultiTranscript++
	case profile.ExcludedShort:
		r.GeneExcludedShort++
	case profile.ExcludedLong:
		r.GeneExcludedLong++
	}
}

func WriteReport(w io.Writer, report *Report) error {
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// WriteReportPath writes the report to pathReport, or stdout if pathReport is "-".
func WriteReportPath(pathReport string, stdout io.Writer, report *Report) error {
	if pathReport == "-" {
		return WriteReport(stdout, report)
	}
	f, err := os.Create(pathReport)
	if err != nil {
		return err
	}
	if err = WriteReport(f, report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
