package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vamana"
	"github.com/hupe1980/vamana/internal/binfile"
	"github.com/hupe1980/vamana/testutil"
)

// run executes the CLI and returns what it printed to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetContext(t.Context())
	runErr := cmd.Execute()

	require.NoError(t, w.Close())
	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String(), runErr
}

func TestCommands_Definition(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"build", "search", "recall", "info"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}

	build, _, _ := root.Find([]string{"build"})
	degree := build.Flags().Lookup("degree")
	require.NotNil(t, degree)
	assert.Equal(t, "R", degree.Shorthand)
}

func TestBuildSearchInfo(t *testing.T) {
	dir := t.TempDir()
	rng := testutil.NewRNG(4)
	data := filepath.Join(dir, "base.bin")
	queries := filepath.Join(dir, "query.bin")
	snapshot := filepath.Join(dir, "base.vmn")
	require.NoError(t, binfile.WriteFile(data, rng.UniformVectors(300, 6)))
	require.NoError(t, binfile.WriteFile(queries, rng.UniformVectors(5, 6)))

	cfgPath := filepath.Join(dir, "index.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("graph_degree: 12\ncomplexity: 24\ncompression: zstd\n"), 0o600))

	_, err := run(t, "build", "--config", cfgPath, "--data", data, "--out", snapshot, "-T", "2")
	require.NoError(t, err)

	idx, err := vamana.Load[float32](t.Context(), snapshot)
	require.NoError(t, err)
	assert.Equal(t, 300, idx.Len())
	assert.Equal(t, 12, idx.Config().GraphDegree)
	require.NoError(t, idx.Close())

	out, err := run(t, "--json", "search", "--index", snapshot, "--queries", queries, "-k", "3", "-L", "20")
	require.NoError(t, err)
	var res []queryResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res, 5)
	for _, r := range res {
		assert.Len(t, r.IDs, 3)
	}

	out, err = run(t, "--json", "info", "--index", snapshot)
	require.NoError(t, err)
	var info infoOutput
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	require.NotNil(t, info.Snapshot)
	assert.Equal(t, "float32", info.Snapshot.DType)
	assert.Equal(t, uint32(300), info.Snapshot.Live)
	assert.Equal(t, "zstd", info.Snapshot.Compression)
	assert.NotEmpty(t, info.CPU.ISA)
}

func TestBuild_Uint8(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "u8.bin")
	require.NoError(t, binfile.WriteFile(data, testutil.NewRNG(1).Uint8Vectors(100, 4)))

	snapshot := filepath.Join(dir, "u8.vmn")
	_, err := run(t, "build", "--data", data, "--out", snapshot, "--dtype", "uint8", "-R", "8", "-L", "16")
	require.NoError(t, err)

	idx, err := vamana.Load[uint8](t.Context(), snapshot)
	require.NoError(t, err)
	defer idx.Close()
	assert.Equal(t, 100, idx.Len())
}

func TestBuild_Errors(t *testing.T) {
	_, err := run(t, "build")
	assert.Error(t, err)

	dir := t.TempDir()
	data := filepath.Join(dir, "base.bin")
	require.NoError(t, binfile.WriteFile(data, [][]float32{{1, 2}}))
	_, err = run(t, "build", "--data", data)
	assert.ErrorContains(t, err, "no output path")

	_, err = run(t, "build", "--data", data, "--out", filepath.Join(dir, "x.vmn"), "--metric", "cosine")
	assert.Error(t, err)
}

func TestRecall(t *testing.T) {
	out, err := run(t, "--json", "recall", "--points", "2000", "--queries", "100", "-L", "20")
	require.NoError(t, err)
	var res recallResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2000, res.Points)
	assert.Greater(t, res.Recall, 0.8)
}
