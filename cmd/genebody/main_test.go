package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGTF = `#!genome-build test
chr1	test	gene	1	150	.	+	.	gene_id "G1";
chr1	test	exon	1	50	.	+	.	gene_id "G1"; transcript_id "T1";
chr1	test	exon	101	150	.	+	.	gene_id "G1"; transcript_id "T1";
chr1	test	exon	161	200	.	-	.	gene_id "G2"; transcript_id "T2";
chrX	test	exon	1	500	.	+	.	gene_id "G3"; transcript_id "T3";
`

// testSAM has two alignments covering the exons of G1.
func testSAM(nh bool) string {
	seq := strings.Repeat("A", 100)
	qual := strings.Repeat("I", 100)
	tag := "\tNH:i:1"
	if !nh {
		tag = ""
	}
	var b strings.Builder
	b.WriteString("@HD\tVN:1.6\tSO:coordinate\n@SQ\tSN:chr1\tLN:200\n@SQ\tSN:chr2\tLN:100\n")
	for _, name := range []string{"r1", "r2"} {
		fmt.Fprintf(&b, "%s\t0\tchr1\t1\t60\t50M50N50M\t*\t0\t0\t%s\t%s%s\n", name, seq, qual, tag)
	}
	return b.String()
}

type testRun struct {
	dir    string
	args   []string
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newTestRun(t *testing.T, nh bool) *testRun {
	t.Helper()
	tr := &testRun{dir: t.TempDir()}
	pathSAM := filepath.Join(tr.dir, "test.sam")
	pathGTF := filepath.Join(tr.dir, "test.gtf")
	require.NoError(t, os.WriteFile(pathSAM, []byte(testSAM(nh)), 0644))
	require.NoError(t, os.WriteFile(pathGTF, []byte(testGTF), 0644))
	tr.args = []string{"--path_sam", pathSAM, "--path_annotation", pathGTF, "--path_output", tr.path("profile.tab")}
	return tr
}

func (tr *testRun) path(name string) string {
	return filepath.Join(tr.dir, name)
}

func (tr *testRun) execute(args ...string) int {
	return execute(context.Background(), append(tr.args, args...), &tr.stdout, &tr.stderr)
}

func TestExecute(t *testing.T) {
	tr := newTestRun(t, true)
	code := tr.execute("--normalize", "--path_report", tr.path("report.json"), "--path_genes", tr.path("genes.tab"), "--verbose")
	require.Equal(t, 0, code, tr.stderr.String())

	out, err := os.ReadFile(tr.path("profile.tab"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(out), "\n"), "\n")
	require.Len(t, lines, 100)
	for i, line := range lines {
		assert.Equal(t, fmt.Sprintf("%d\t2.0000", i), line)
	}
	_, err = os.Stat(tr.path("profile.tab.tmp"))
	assert.True(t, os.IsNotExist(err))

	genes, err := os.ReadFile(tr.path("genes.tab"))
	require.NoError(t, err)
	assert.Equal(t, "gene_id\tchrom\tstrand\tlength\tn_transcript\nG1\tchr1\t+\t100\t1\n", string(genes))

	b, err := os.ReadFile(tr.path("report.json"))
	require.NoError(t, err)
	var report Report
	require.NoError(t, json.Unmarshal(b, &report))
	assert.Equal(t, Report{
		AlignTotal:          2,
		AlignUsed:           2,
		AlignExonic:         2,
		BaseUsed:            200,
		GeneAnnotated:       3,
		TranscriptAnnotated: 3,
		GeneProfiled:        1,
		GeneExcludedShort:   1,
		ChromMissing:        []string{"chrX"},
	}, report)

	assert.Contains(t, tr.stderr.String(), "processing")
	assert.Contains(t, tr.stderr.String(), "chromosome not found in alignments")
}

func TestExecuteNotNormalized(t *testing.T) {
	tr := newTestRun(t, true)
	require.Equal(t, 0, tr.execute("--path_output", tr.path("profile.tab.gz")), tr.stderr.String())
	_, err := os.Stat(tr.path("profile.tab.gz"))
	assert.NoError(t, err)
}

func TestExecuteMinGeneLength(t *testing.T) {
	tr := newTestRun(t, true)
	assert.Equal(t, 2, tr.execute("--min_gene_length", "99"))
	assert.Contains(t, tr.stderr.String(), "configuration error")
	_, err := os.Stat(tr.path("profile.tab"))
	assert.True(t, os.IsNotExist(err))
}

func TestExecuteUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--path_bam", "x.bam", "--path_annotation", "a.gtf", "--no_such_flag"}},
		{"argument", []string{"--path_bam", "x.bam", "--path_annotation", "a.gtf", "extra"}},
		{"no alignment", []string{"--path_annotation", "a.gtf"}},
		{"two alignments", []string{"--path_bam", "x.bam", "--path_sam", "x.sam", "--path_annotation", "a.gtf"}},
		{"no annotation", []string{"--path_bam", "x.bam"}},
		{"format", []string{"--path_bam", "x.bam", "--path_annotation", "a.gtf", "--format_annotation", "bed"}},
		{"max below min", []string{"--path_bam", "x.bam", "--path_annotation", "a.gtf", "--min_gene_length", "500", "--max_gene_length", "200"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, 2, execute(context.Background(), tt.args, &stdout, &stderr), stderr.String())
		})
	}
}

func TestExecuteNoGeneNormalized(t *testing.T) {
	tr := newTestRun(t, true)
	assert.Equal(t, 1, tr.execute("--normalize", "--min_gene_length", "1000"))
	assert.Contains(t, tr.stderr.String(), "division by zero")
	_, err := os.Stat(tr.path("profile.tab"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(tr.path("profile.tab.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestExecuteUniqueMissingNH(t *testing.T) {
	tr := newTestRun(t, false)
	assert.Equal(t, 1, tr.execute("--unique"))
	assert.Contains(t, tr.stderr.String(), "NH tag")

	tr = newTestRun(t, false)
	assert.Equal(t, 0, tr.execute(), tr.stderr.String())
}

func TestExecuteMissingInput(t *testing.T) {
	tr := newTestRun(t, true)
	assert.Equal(t, 1, tr.execute("--path_annotation", tr.path("missing.gtf")))
	assert.Contains(t, tr.stderr.String(), "input error")
}

func TestExecuteVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, execute(context.Background(), []string{"--version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), version)
}

func TestConfigCommand(t *testing.T) {
	dir := t.TempDir()
	pathConfig := filepath.Join(dir, "genebody.yaml")
	require.NoError(t, os.WriteFile(pathConfig, []byte("normalize: true\nmin_gene_length: 200\npath_bam: file.bam\n"), 0644))
	t.Setenv("GENEBODY_SOURCE", "HAVANA")

	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{"config", "--config", pathConfig, "--min_gene_length", "300"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	out := stdout.String()
	assert.Contains(t, out, "normalize: true")
	assert.Contains(t, out, "min_gene_length: 300")
	assert.Contains(t, out, "path_bam: file.bam")
	assert.Contains(t, out, "source: HAVANA")
	assert.Contains(t, out, "format_annotation: gtf")
}

func TestConfigFileRun(t *testing.T) {
	tr := newTestRun(t, true)
	pathConfig := tr.path("genebody.yaml")
	require.NoError(t, os.WriteFile(pathConfig, []byte("min_gene_length: 99\n"), 0644))
	assert.Equal(t, 2, tr.execute("--config", pathConfig))
}

func TestAddCommas(t *testing.T) {
	assert.Equal(t, "123", AddCommas("123"))
	assert.Equal(t, "1,234", AddCommas("1234"))
	assert.Equal(t, "1,234,567", AddCommas("1234567"))
}
