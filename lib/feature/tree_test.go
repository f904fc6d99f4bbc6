package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildExonTrees(t *testing.T) {
	idx := NewIndex("")
	for _, rec := range []Record{
		exon("chr1", 11, 20, "+", "G1", "T1"),
		exon("chr1", 41, 50, "+", "G1", "T1"),
		exon("chr1", 101, 200, "-", "G2", "T2"),
		exon("chr2", 1, 10, "+", "G3", "T3"),
	} {
		require.NoError(t, idx.Add(rec))
	}
	trees, err := BuildExonTrees(idx)
	require.NoError(t, err)
	require.Len(t, trees, 2)
	assert.Equal(t, 3, trees["chr1"].Len())

	tests := []struct {
		start, end int
		want       bool
	}{
		{0, 10, false},
		{0, 11, true},
		{19, 25, true},
		{20, 40, false},
		{150, 151, true},
		{200, 300, false},
		{15, 15, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OverlapsExon(trees["chr1"], tt.start, tt.end), "[%d,%d)", tt.start, tt.end)
	}
	assert.False(t, OverlapsExon(trees["chr3"], 0, 10))
}
