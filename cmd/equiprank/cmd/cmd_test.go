package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equiprank/equiprank/pkg/version"
)

const testCorpus = `[
	{"id": "eq-1", "title": "Mop de limpeza industrial com cabo de aluminio"},
	{"id": "eq-2", "title": "Aspirador de po profissional 1400W"},
	{"id": "eq-3", "title": "Balde espremedor amarelo 20 litros"}
]`

// writeWorkspace lays out a corpus and config in a temp dir and returns
// the config path.
func writeWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	corpusPath := filepath.Join(dir, "corpus.json")
	require.NoError(t, os.WriteFile(corpusPath, []byte(testCorpus), 0o644))

	cfg := `paths:
  corpus: ` + corpusPath + `
  snapshot: ` + filepath.Join(dir, "index.snapshot.json") + `
  abbreviations: ` + filepath.Join(dir, "abbreviations.json") + `
logging:
  level: error
`
	cfgFile := filepath.Join(dir, "equiprank.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(cfg), 0o644))
	return cfgFile
}

func runCommand(t *testing.T, in io.Reader, args ...string) (string, error) {
	t.Helper()
	// Persistent flags bind package vars; reset between runs.
	cfgPath, logLevel, noColor = "", "", false
	profileCPU, profileMem, profileTrace = "", "", ""

	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	if in != nil {
		root.SetIn(in)
	}
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, nil, "version", "--short")
	require.NoError(t, err)
	assert.Contains(t, out, version.Short())

	out, err = runCommand(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "equiprank")
}

func TestIndexCommand(t *testing.T) {
	cfgFile := writeWorkspace(t)

	out, err := runCommand(t, nil, "index", "--config", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, out, "indexed 3 documents")

	snapPath := filepath.Join(filepath.Dir(cfgFile), "index.snapshot.json")
	_, statErr := os.Stat(snapPath)
	assert.NoError(t, statErr)
}

func TestSearchCommand(t *testing.T) {
	cfgFile := writeWorkspace(t)

	out, err := runCommand(t, nil, "search", "aspirador de po", "--config", cfgFile, "--offline")
	require.NoError(t, err)
	assert.Contains(t, out, "Aspirador de po profissional 1400W")
	assert.Contains(t, out, "score")
}

func TestSearchCommandUsesSnapshot(t *testing.T) {
	cfgFile := writeWorkspace(t)

	_, err := runCommand(t, nil, "index", "--config", cfgFile)
	require.NoError(t, err)

	out, err := runCommand(t, nil, "search", "balde espremedor", "--config", cfgFile, "--offline")
	require.NoError(t, err)
	assert.Contains(t, out, "Balde espremedor amarelo 20 litros")
}

func TestSearchCommandJSON(t *testing.T) {
	cfgFile := writeWorkspace(t)

	out, err := runCommand(t, nil, "search", "mop industrial", "--config", cfgFile, "--offline", "--json")
	require.NoError(t, err)

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "mop industrial", resp["normalized"])
	assert.NotEmpty(t, resp["results"])
}

func TestSearchCommandMinScore(t *testing.T) {
	cfgFile := writeWorkspace(t)

	out, err := runCommand(t, nil, "search", "mop industrial", "--config", cfgFile, "--offline", "--min-score", "2.0")
	require.NoError(t, err)
	assert.Contains(t, out, "no matching equipment")
}

func TestSearchCommandRejectsBlankQuery(t *testing.T) {
	cfgFile := writeWorkspace(t)

	_, err := runCommand(t, nil, "search", "!!!", "--config", cfgFile, "--offline")
	assert.Error(t, err)
}

func TestSearchCommandInteractive(t *testing.T) {
	cfgFile := writeWorkspace(t)

	in := bytes.NewBufferString("mop industrial\n\nbalde amarelo\n")
	out, err := runCommand(t, in, "search", "--config", cfgFile, "--offline")
	require.NoError(t, err)
	assert.Contains(t, out, "Mop de limpeza industrial com cabo de aluminio")
	assert.Contains(t, out, "Balde espremedor amarelo 20 litros")
}

func TestStatsCommand(t *testing.T) {
	cfgFile := writeWorkspace(t)

	out, err := runCommand(t, nil, "stats", "--config", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, out, "documents 3")
	assert.Contains(t, out, "static-256")
}

func TestDoctorCommand(t *testing.T) {
	cfgFile := writeWorkspace(t)

	out, err := runCommand(t, nil, "doctor", "--config", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, out, "corpus")
	assert.Contains(t, out, "PASS")
	// No snapshot built yet.
	assert.Contains(t, out, "WARN")
}

func TestDoctorCommandFailsWithoutCorpus(t *testing.T) {
	dir := t.TempDir()
	cfg := "paths:\n  corpus: " + filepath.Join(dir, "absent.json") + "\n"
	cfgFile := filepath.Join(dir, "equiprank.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(cfg), 0o644))

	out, err := runCommand(t, nil, "doctor", "--config", cfgFile)
	assert.Error(t, err)
	assert.Contains(t, out, "FAIL")
}

func TestConfigInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "equiprank.yaml")

	out, err := runCommand(t, nil, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "lexical_weight")

	// Refuses to clobber without --force.
	_, err = runCommand(t, nil, "config", "init", "--config", path)
	assert.Error(t, err)

	_, err = runCommand(t, nil, "config", "init", "--config", path, "--force")
	assert.NoError(t, err)
}

func TestConfigShowCommand(t *testing.T) {
	cfgFile := writeWorkspace(t)

	out, err := runCommand(t, nil, "config", "show", "--config", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, out, "bm25_k1")
	assert.Contains(t, out, "provider: static")
}

func TestMissingCorpusFails(t *testing.T) {
	dir := t.TempDir()
	cfg := "paths:\n  corpus: " + filepath.Join(dir, "absent.json") + "\n"
	cfgFile := filepath.Join(dir, "equiprank.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(cfg), 0o644))

	_, err := runCommand(t, nil, "search", "mop", "--config", cfgFile, "--offline")
	assert.Error(t, err)
}
