package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	lexerr "github.com/Aman-CERP/lexdebate/internal/errors"
	"github.com/Aman-CERP/lexdebate/pkg/version"
)

// snapshotFile is the on-disk shape of a session snapshot.
type snapshotFile struct {
	Version  string     `json:"version"`
	SavedAt  time.Time  `json:"saved_at"`
	Sessions []*Session `json:"sessions"`
}

// SaveSnapshot writes every live session to path. The file is replaced
// atomically. It fails with ERR_204_SNAPSHOT_LOCKED when another process
// is writing the same snapshot.
func SaveSnapshot(s *Store, path string) (int, error) {
	lock := newFileLock(path)
	ok, err := lock.tryLock()
	if err != nil {
		return 0, lexerr.IOError("failed to lock session snapshot", err).WithDetail("path", path)
	}
	if !ok {
		return 0, lexerr.New(lexerr.ErrCodeSnapshotLocked, "session snapshot is locked by another process", nil).
			WithDetail("path", path)
	}
	defer func() { _ = lock.unlock() }()

	snap := snapshotFile{
		Version:  version.Version,
		SavedAt:  time.Now().UTC(),
		Sessions: s.List(),
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return 0, lexerr.InternalError("failed to encode session snapshot", err)
	}

	if err := writeAtomic(path, data); err != nil {
		return 0, lexerr.IOError("failed to write session snapshot", err).WithDetail("path", path)
	}

	slog.Info("sessions_saved",
		slog.String("path", path),
		slog.Int("sessions", len(snap.Sessions)))
	return len(snap.Sessions), nil
}

// LoadSnapshot restores sessions from path into s and reports how many
// were restored. A missing file restores nothing. Sessions older than the
// store TTL are dropped.
func LoadSnapshot(s *Store, path string) (int, error) {
	lock := newFileLock(path)
	if err := lock.lock(); err != nil {
		return 0, lexerr.IOError("failed to lock session snapshot", err).WithDetail("path", path)
	}
	defer func() { _ = lock.unlock() }()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, lexerr.IOError("failed to read session snapshot", err).WithDetail("path", path)
	}

	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		return 0, lexerr.IOError("session snapshot is not valid JSON", err).
			WithDetail("path", path).
			WithSuggestion("Delete the snapshot file to start with no sessions")
	}

	now := time.Now()
	restored := 0
	for _, sess := range snap.Sessions {
		if sess.Debate == nil {
			continue
		}
		if s.put(sess, now) {
			restored++
		}
	}

	slog.Info("sessions_restored",
		slog.String("path", path),
		slog.String("saved_by", snap.Version),
		slog.Int("restored", restored),
		slog.Int("dropped", len(snap.Sessions)-restored))
	return restored, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	return os.Rename(tmpName, path)
}
