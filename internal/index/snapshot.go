package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	rerrors "github.com/equiprank/equiprank/internal/errors"
)

// SnapshotVersion is the current snapshot format version. Loading a
// snapshot with any other version is an explicit error, never a guess.
const SnapshotVersion = 1

// Snapshot is the persisted index state: postings, statistics, and the
// fuzzy-matcher structures, sufficient to reconstruct an equivalent
// in-memory Index without re-reading the corpus.
type Snapshot struct {
	Version         int                       `json:"version"`
	K1              float64                   `json:"k1"`
	B               float64                   `json:"b"`
	SignatureLength int                       `json:"signature_length"`
	TotalLen        int                       `json:"total_len"`
	DocOrder        []string                  `json:"doc_order"`
	DocLengths      map[string]int            `json:"doc_lengths"`
	Postings        map[string]map[string]int `json:"postings"`
	Signatures      map[string][]string       `json:"signatures"`
}

// Snapshot captures the index state for persistence.
func (ix *Index) Snapshot() *Snapshot {
	return &Snapshot{
		Version:         SnapshotVersion,
		K1:              ix.cfg.K1,
		B:               ix.cfg.B,
		SignatureLength: ix.cfg.SignatureLength,
		TotalLen:        ix.totalLen,
		DocOrder:        ix.docOrder,
		DocLengths:      ix.docLengths,
		Postings:        ix.postings,
		Signatures:      ix.signatures,
	}
}

// Restore reconstructs an index from a snapshot. This is the second of
// the two construction paths; a restored index never re-reads the corpus.
func Restore(s *Snapshot) (*Index, error) {
	if s == nil {
		return nil, rerrors.SnapshotError("nil snapshot", nil)
	}
	if s.Version != SnapshotVersion {
		return nil, rerrors.New(rerrors.ErrCodeSnapshotVersion,
			fmt.Sprintf("snapshot version %d, want %d", s.Version, SnapshotVersion), nil)
	}
	if s.Postings == nil || s.DocLengths == nil {
		return nil, rerrors.SnapshotError("snapshot missing postings or document statistics", nil)
	}
	if len(s.DocOrder) != len(s.DocLengths) {
		return nil, rerrors.SnapshotError("snapshot document order and lengths disagree", nil)
	}

	ix := &Index{
		cfg: Config{
			K1:              s.K1,
			B:               s.B,
			SignatureLength: s.SignatureLength,
		},
		postings:   s.Postings,
		docLengths: s.DocLengths,
		docOrder:   s.DocOrder,
		totalLen:   s.TotalLen,
		signatures: s.Signatures,
	}
	if ix.signatures == nil {
		ix.signatures = make(map[string][]string)
		ix.buildSignatures()
	}
	return ix, nil
}

// Save writes a snapshot atomically: temp file in the target directory,
// fsync-free rename, guarded by a file lock against concurrent writers.
func Save(path string, s *Snapshot) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return rerrors.Wrap(rerrors.ErrCodeInternal, err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := json.Marshal(s)
	if err != nil {
		return rerrors.Wrap(rerrors.ErrCodeInternal, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return rerrors.Wrap(rerrors.ErrCodeInternal, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return rerrors.Wrap(rerrors.ErrCodeInternal, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return rerrors.Wrap(rerrors.ErrCodeInternal, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return rerrors.Wrap(rerrors.ErrCodeInternal, err)
	}
	return nil
}

// Load reads a snapshot from disk. A missing file surfaces as an
// artifact-missing error so callers can distinguish it from corruption.
func Load(path string) (*Snapshot, error) {
	lock := flock.New(path + ".lock")
	if err := lock.RLock(); err != nil {
		return nil, rerrors.Wrap(rerrors.ErrCodeInternal, err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, rerrors.New(rerrors.ErrCodeArtifactMissing,
				fmt.Sprintf("snapshot %s not found", path), err)
		}
		return nil, rerrors.SnapshotError(fmt.Sprintf("read snapshot %s: %v", path, err), err)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, rerrors.SnapshotError(fmt.Sprintf("parse snapshot %s: %v", path, err), err)
	}
	return &s, nil
}
