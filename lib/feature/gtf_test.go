package feature

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~vejnar/GeneBody/lib/errs"
)

const testGTF = `##description: Test GTF
chr12	HAVANA	gene	25205246	25250929	.	-	.	gene_id "ENSG00000133703"; gene_type "protein_coding"; gene_name "KRAS";
chr12	HAVANA	transcript	25205246	25250929	.	-	.	gene_id "ENSG00000133703"; transcript_id "ENST00000311936"; gene_name "KRAS";
chr12	HAVANA	exon	25250751	25250929	.	-	.	gene_id "ENSG00000133703"; transcript_id "ENST00000311936"; gene_name "KRAS"; exon_number "1";

chr12	ENSEMBL	exon	25245274	25245395	.	-	.	gene_id "ENSG00000133703"; transcript_id "ENST00000311936"; gene_name "KRAS"; exon_number "2";
`

func TestParseAttributes(t *testing.T) {
	attrs := parseAttributes(`gene_id "ENSG00000133703"; transcript_id "ENST00000311936"; gene_name "KRAS";`)
	assert.Equal(t, "ENSG00000133703", attrs["gene_id"])
	assert.Equal(t, "ENST00000311936", attrs["transcript_id"])
	assert.Equal(t, "KRAS", attrs["gene_name"])
}

func TestGTFReader(t *testing.T) {
	gr := NewGTFReader(strings.NewReader(testGTF))
	var recs []Record
	for {
		rec, err := gr.Read()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		recs = append(recs, rec)
	}
	require.Len(t, recs, 4)
	assert.Equal(t, Record{
		Feature:      "exon",
		Source:       "HAVANA",
		Chrom:        "chr12",
		Start:        25250751,
		End:          25250929,
		Strand:       "-",
		GeneID:       "ENSG00000133703",
		TranscriptID: "ENST00000311936",
	}, recs[2])
	assert.Equal(t, "", recs[0].TranscriptID)
}

func TestGTFReaderIndex(t *testing.T) {
	idx, err := BuildIndex(NewGTFReader(strings.NewReader(testGTF)), "HAVANA")
	require.NoError(t, err)
	c, ok := idx.Chromosome("chr12")
	require.True(t, ok)
	g, ok := c.Gene("ENSG00000133703")
	require.True(t, ok)
	assert.Equal(t, [][]int{{25250750, 25250929}}, g.Union())

	idx, err = BuildIndex(NewGTFReader(strings.NewReader(testGTF)), "")
	require.NoError(t, err)
	c, _ = idx.Chromosome("chr12")
	g, _ = c.Gene("ENSG00000133703")
	assert.Len(t, g.Union(), 2)
}

func TestGTFReaderErrors(t *testing.T) {
	tests := []struct {
		name string
		gtf  string
	}{
		{"short line", "chr1\tHAVANA\texon\t1\t10\n"},
		{"bad start", "chr1\tHAVANA\texon\tx\t10\t.\t+\t.\tgene_id \"G\"; transcript_id \"T\";\n"},
		{"bad end", "chr1\tHAVANA\texon\t1\t1e3\t.\t+\t.\tgene_id \"G\"; transcript_id \"T\";\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGTFReader(strings.NewReader(tt.gtf)).Read()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.ErrInput))
			assert.Contains(t, err.Error(), "line 1")
		})
	}
}

func TestGTFMissingTranscriptID(t *testing.T) {
	gtf := "chr1\tHAVANA\texon\t1\t10\t.\t+\t.\tgene_id \"G\";\n"
	_, err := BuildIndex(NewGTFReader(strings.NewReader(gtf)), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrInput))
}
