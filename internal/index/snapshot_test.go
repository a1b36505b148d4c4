package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/equiprank/equiprank/internal/errors"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ix := Build(sampleDocs(), DefaultConfig())
	path := filepath.Join(t.TempDir(), "index.snapshot.json")

	before := ix.Search("mop", 0)
	require.NotEmpty(t, before)

	require.NoError(t, Save(path, ix.Snapshot()))
	snap, err := Load(path)
	require.NoError(t, err)
	restored, err := Restore(snap)
	require.NoError(t, err)

	after := restored.Search("mop", 0)
	require.Len(t, after, len(before))
	assert.Equal(t, before[0].DocID, after[0].DocID)
	assert.InDelta(t, before[0].Score, after[0].Score, 1e-12)
	assert.Equal(t, ix.DocCount(), restored.DocCount())
	assert.Equal(t, ix.TermCount(), restored.TermCount())
}

func TestRestoreRejectsWrongVersion(t *testing.T) {
	snap := Build(sampleDocs(), DefaultConfig()).Snapshot()
	snap.Version = SnapshotVersion + 1

	_, err := Restore(snap)
	require.Error(t, err)
	assert.Equal(t, rerrors.ErrCodeSnapshotVersion, rerrors.CodeOf(err))
}

func TestRestoreRejectsIncomplete(t *testing.T) {
	snap := Build(sampleDocs(), DefaultConfig()).Snapshot()
	snap.Postings = nil

	_, err := Restore(snap)
	require.Error(t, err)
	assert.Equal(t, rerrors.ErrCodeSnapshotCorrupt, rerrors.CodeOf(err))

	_, err = Restore(nil)
	require.Error(t, err)
}

func TestRestoreRebuildsMissingSignatures(t *testing.T) {
	snap := Build(sampleDocs(), DefaultConfig()).Snapshot()
	snap.Signatures = nil

	restored, err := Restore(snap)
	require.NoError(t, err)

	results := restored.Search("aspirdor", 0)
	require.NotEmpty(t, results)
	assert.Equal(t, "eq-2", results[0].DocID)
}

func TestLoadMissingSnapshot(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Equal(t, rerrors.ErrCodeArtifactMissing, rerrors.CodeOf(err))
	assert.False(t, rerrors.IsFatal(err))
}

func TestLoadCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, rerrors.ErrCodeSnapshotCorrupt, rerrors.CodeOf(err))
}
