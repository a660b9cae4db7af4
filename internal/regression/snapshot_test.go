package regression

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stdbench/internal/config"
	"stdbench/internal/run"
)

func writeRunArtifacts(t *testing.T, r *config.Run) {
	t.Helper()
	for _, c := range run.Sweep(r) {
		for _, kind := range run.ArtifactKinds(r.Kind) {
			path := run.ArtifactPath(r.Output, c, kind)
			require.NoError(t, os.WriteFile(path, []byte(string(kind)+" "+string(c.Algorithm)+"\n"), 0o644))
		}
	}
}

func TestSaveBaseline_Plain(t *testing.T) {
	r := sweepRun(t, config.Evaluate)
	writeRunArtifacts(t, r)
	dir := filepath.Join(t.TempDir(), "baseline")

	written, err := SaveBaseline(r, dir, false)
	require.NoError(t, err)
	require.Len(t, written, 8)
	assert.Equal(t, filepath.Join(dir, "wapo.wand.block_simdbp.0.results"), written[0])
	assert.Equal(t, filepath.Join(dir, "wapo.wand.block_simdbp.0.trec_eval"), written[1])

	outcome, err := NewDetector(nil, nil).CompareWithBaseline(r, dir, 0)
	require.NoError(t, err)
	assert.True(t, outcome.Success())
}

func TestSaveBaseline_CompressedIsReadTransparently(t *testing.T) {
	r := sweepRun(t, config.Benchmark)
	for _, c := range run.Sweep(r) {
		path := run.ArtifactPath(r.Output, c, run.Bench)
		require.NoError(t, os.WriteFile(path, []byte(benchLine(10, 10, 10, 10)+"\n"), 0o644))
	}
	dir := t.TempDir()

	written, err := SaveBaseline(r, dir, true)
	require.NoError(t, err)
	require.Len(t, written, 4)
	for _, path := range written {
		assert.True(t, strings.HasSuffix(path, ".bench"+CompressedSuffix), path)
		_, err := os.Stat(strings.TrimSuffix(path, CompressedSuffix))
		assert.True(t, os.IsNotExist(err))
	}

	data, err := readArtifact(strings.TrimSuffix(written[0], CompressedSuffix))
	require.NoError(t, err)
	assert.Equal(t, benchLine(10, 10, 10, 10)+"\n", string(data))

	outcome, err := NewDetector(nil, nil).CompareWithBaseline(r, dir, 0)
	require.NoError(t, err)
	assert.True(t, outcome.Success())
}

func TestSaveBaseline_MissingArtifact(t *testing.T) {
	r := sweepRun(t, config.Evaluate)
	_, err := SaveBaseline(r, t.TempDir(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read artifact")
}

func TestReadArtifact_CorruptCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.trec_eval")
	require.NoError(t, os.WriteFile(path+CompressedSuffix, []byte("not zstd"), 0o644))

	_, err := readArtifact(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decompress")
}

func TestCheckBaselineNames(t *testing.T) {
	eval := sweepRun(t, config.Evaluate)
	bench := sweepRun(t, config.Benchmark)
	bench.Output = filepath.Join(filepath.Dir(eval.Output), "wapo-bench")
	require.NoError(t, CheckBaselineNames([]*config.Run{eval, bench}))
	require.NoError(t, CheckBaselineNames([]*config.Run{eval, eval}), "a run repeated in place writes the same files")

	clash := sweepRun(t, config.Evaluate)
	require.NotEqual(t, filepath.Dir(eval.Output), filepath.Dir(clash.Output))
	err := CheckBaselineNames([]*config.Run{eval, clash})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "baseline name collision")
	assert.Contains(t, err.Error(), "wapo.wand.block_simdbp.0.results")
}
