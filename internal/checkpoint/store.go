// Package checkpoint persists working-set snapshots so an interrupted run
// can resume without re-paying for classifications already made.
package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/jonathan/fiscal-tone/internal/types"
)

// Snapshot is the envelope written to disk: the full working set plus a
// monotonically increasing sequence number, a wall-clock timestamp, and a
// SHA-256 checksum over the serialized working set. Snapshots are never
// mutated after write; the next one supersedes them.
type Snapshot struct {
	Sequence   int             `json:"sequence"`
	CreatedAt  time.Time       `json:"created_at"`
	Checksum   string          `json:"checksum"`
	WorkingSet json.RawMessage `json:"working_set"`
}

var snapshotNamePattern = regexp.MustCompile(`^snapshot_(\d{6})_\d{8}T\d{6}\.json$`)

// Store writes and reads snapshots under a single directory. Historical
// snapshots accumulate for audit; only the most recent valid one is read.
type Store struct {
	dir     string
	nextSeq int
	logger  *slog.Logger
}

// NewStore opens (creating if needed) a snapshot directory and positions the
// next sequence number after any snapshots already present.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating checkpoint directory %s: %w", dir, err)
	}

	maxSeq := 0
	for _, name := range listSnapshotNames(dir) {
		if seq, ok := parseSequence(name); ok && seq > maxSeq {
			maxSeq = seq
		}
	}
	return &Store{dir: dir, nextSeq: maxSeq + 1, logger: logger}, nil
}

// Save writes a complete snapshot of the working set. The write goes to a
// temp file first and is renamed into place, so a crash mid-write never
// leaves a truncated file under a snapshot name.
func (s *Store) Save(ws *types.WorkingSet) (Snapshot, error) {
	wsBytes, err := json.Marshal(ws)
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshaling working set: %w", err)
	}

	digest := sha256.Sum256(wsBytes)
	snap := Snapshot{
		Sequence:   s.nextSeq,
		CreatedAt:  time.Now().UTC(),
		Checksum:   hex.EncodeToString(digest[:]),
		WorkingSet: wsBytes,
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshaling snapshot: %w", err)
	}

	name := fmt.Sprintf("snapshot_%06d_%s.json", snap.Sequence, snap.CreatedAt.Format("20060102T150405"))
	final := filepath.Join(s.dir, name)
	tmp := final + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return Snapshot{}, fmt.Errorf("writing snapshot %s: %w", name, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return Snapshot{}, fmt.Errorf("committing snapshot %s: %w", name, err)
	}

	s.nextSeq++
	s.logger.Info("checkpoint saved", "sequence", snap.Sequence, "file", name)
	return snap, nil
}

// LoadLatest reconstructs the working set from the most recent valid
// snapshot. Corrupt or truncated snapshots are logged and skipped in favor
// of the next older one; if none are valid (or the directory is empty) it
// returns a nil working set and sequence zero, meaning "nothing done yet".
func (s *Store) LoadLatest() (*types.WorkingSet, int, error) {
	names := listSnapshotNames(s.dir)
	sort.Sort(sort.Reverse(sort.StringSlice(names))) // sequence embeds first, so name order is sequence order

	for _, name := range names {
		ws, seq, err := s.loadSnapshot(name)
		if err != nil {
			s.logger.Warn("skipping unreadable snapshot", "file", name, "error", err)
			continue
		}
		return ws, seq, nil
	}
	return nil, 0, nil
}

// LastSequence returns the sequence of the most recently saved snapshot,
// zero if none has been saved yet.
func (s *Store) LastSequence() int {
	return s.nextSeq - 1
}

func (s *Store) loadSnapshot(name string) (*types.WorkingSet, int, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, 0, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, 0, fmt.Errorf("parsing snapshot: %w", err)
	}

	digest := sha256.Sum256(snap.WorkingSet)
	if hex.EncodeToString(digest[:]) != snap.Checksum {
		return nil, 0, fmt.Errorf("checksum mismatch")
	}

	var ws types.WorkingSet
	if err := json.Unmarshal(snap.WorkingSet, &ws); err != nil {
		return nil, 0, fmt.Errorf("parsing working set: %w", err)
	}
	ws.Reindex()
	return &ws, snap.Sequence, nil
}

func listSnapshotNames(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && snapshotNamePattern.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names
}

func parseSequence(name string) (int, bool) {
	m := snapshotNamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	seq, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return seq, true
}
