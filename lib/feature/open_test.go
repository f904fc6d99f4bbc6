package feature

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~vejnar/GeneBody/lib/errs"
)

func TestOpenAnnotationGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genes.gtf.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(testGTF))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	rr, closer, err := OpenAnnotation(path, "GTF", DefaultFONKeys)
	require.NoError(t, err)
	defer closer.Close()
	idx, err := BuildIndex(rr, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"chr12"}, idx.Chromosomes())
}

func TestOpenAnnotationFON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genes.fon.json")
	require.NoError(t, os.WriteFile(path, []byte(testFON), 0o644))

	rr, closer, err := OpenAnnotation(path, FormatFON, DefaultFONKeys)
	require.NoError(t, err)
	defer closer.Close()
	idx, err := BuildIndex(rr, "")
	require.NoError(t, err)
	assert.Equal(t, 1, idx.TotalGenes())
}

func TestOpenAnnotationErrors(t *testing.T) {
	_, _, err := OpenAnnotation(filepath.Join(t.TempDir(), "missing.gtf"), FormatGTF, DefaultFONKeys)
	assert.True(t, errors.Is(err, errs.ErrInput))

	path := filepath.Join(t.TempDir(), "genes.gff")
	require.NoError(t, os.WriteFile(path, []byte(testGTF), 0o644))
	_, _, err = OpenAnnotation(path, "gff", DefaultFONKeys)
	assert.True(t, errors.Is(err, errs.ErrConfig))
}

func TestOpenMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chroms.tab")
	require.NoError(t, os.WriteFile(path, []byte("1\tchr1\n\nMT\tchrM\n"), 0o644))

	m, err := OpenMapping(path)
	require.NoError(t, err)
	assert.Equal(t, "chr1", MapName("1", m))
	assert.Equal(t, "chrM", MapName("MT", m))
	assert.Equal(t, "2", MapName("2", m))

	idx := NewIndex("")
	require.NoError(t, idx.Add(exon("1", 1, 10, "+", "G1", "T1")))
	require.NoError(t, idx.Add(exon("2", 1, 10, "+", "G2", "T2")))
	assert.Equal(t, map[string]string{"chr1": "1", "2": "2"}, idx.ReverseMapping(m))

	require.NoError(t, os.WriteFile(path, []byte("1 chr1\n"), 0o644))
	_, err = OpenMapping(path)
	assert.True(t, errors.Is(err, errs.ErrInput))
}
