package esam

import (
	"io"
	"strings"
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~vejnar/GeneBody/lib/coverage"
)

const testSAM = `@HD VN:1.6 SO:coordinate
@SQ SN:chr1 LN:1000
@SQ SN:chr2 LN:500
@SQ SN:chr3 LN:800
r1 0 chr1 11 60 10M * 0 0 ACGTACGTAC IIIIIIIIII NH:i:1
r2 0 chr1 21 60 5M100N5M * 0 0 ACGTACGTAC IIIIIIIIII NH:i:2
r3 4 chr1 50 0 * * 0 0 * *
r4 16 chr2 101 60 10M * 0 0 ACGTACGTAC IIIIIIIIII NH:i:1
r5 0 chr3 1 60 10M * 0 0 ACGTACGTAC IIIIIIIIII NH:i:1
r6 0 chr3 5 60 3S4M2D3M1I2M * 0 0 ACGTACGTACGTA IIIIIIIIIIIII NH:i:1
u1 4 * 0 0 * * 0 0 * *
`

// samText returns SAM text with space separated fields converted to tabs.
func samText(s string) string {
	return strings.ReplaceAll(s, " ", "\t")
}

func readRecords(t *testing.T, text string) []*sam.Record {
	t.Helper()
	sr, err := sam.NewReader(strings.NewReader(samText(text)))
	require.NoError(t, err)
	var records []*sam.Record
	for {
		r, err := sr.Read()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		records = append(records, r)
	}
	return records
}

func TestBlocks(t *testing.T) {
	records := readRecords(t, testSAM)
	tests := []struct {
		name string
		want []coverage.Block
	}{
		{"r1", []coverage.Block{{Start: 10, End: 20}}},
		{"r2", []coverage.Block{{Start: 20, End: 25}, {Start: 125, End: 130}}},
		{"r3", nil},
		{"r6", []coverage.Block{{Start: 4, End: 8}, {Start: 10, End: 15}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, r := range records {
				if r.Name == tt.name {
					assert.Equal(t, tt.want, Blocks(r))
					return
				}
			}
			t.Fatalf("record %s not found", tt.name)
		})
	}
}

func TestMultiplicity(t *testing.T) {
	records := readRecords(t, testSAM)
	nh, ok := Multiplicity(records[0])
	assert.True(t, ok)
	assert.Equal(t, 1, nh)
	nh, ok = Multiplicity(records[1])
	assert.True(t, ok)
	assert.Equal(t, 2, nh)
	_, ok = Multiplicity(records[2])
	assert.False(t, ok)
}

func TestToAlignment(t *testing.T) {
	records := readRecords(t, testSAM)
	var a coverage.Alignment
	toAlignment(records[1], &a)
	assert.Equal(t, coverage.Alignment{
		Name:            "r2",
		Multiplicity:    2,
		HasMultiplicity: true,
		Blocks:          []coverage.Block{{Start: 20, End: 25}, {Start: 125, End: 130}},
	}, a)
	toAlignment(records[2], &a)
	assert.True(t, a.Unmapped)
	assert.False(t, a.HasMultiplicity)
	assert.Empty(t, a.Blocks)
}
