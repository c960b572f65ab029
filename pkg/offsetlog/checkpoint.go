package offsetlog

import (
	"encoding/binary"
	"log"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
)

// CheckpointStore caches, per log path, the last confirmed offset observed
// by an OffsetLog — an advisory shortcut so a reopened log can skip
// re-validating from the start. It is never trusted over an actual decode
// failure: a log with no checkpoint, or a stale one, still functions
// correctly starting from zero.
type CheckpointStore struct {
	db *pebble.DB

	mu                sync.Mutex
	lastSaveFailureID string
}

// OpenCheckpointStore opens (creating if absent) a pebble instance rooted
// at dir to back the checkpoint cache.
func OpenCheckpointStore(dir string) (*CheckpointStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &CheckpointStore{db: db}, nil
}

// Save records logPath's last confirmed offset. Failures are the caller's
// to decide whether to treat as fatal; OffsetLog itself only logs them. A
// failed save is tagged with a fresh correlation id, retrievable via
// LastSaveFailureID, so an operator can line up the log line with whatever
// alert or trace picked up the same id.
func (c *CheckpointStore) Save(logPath string, lastValidOffset uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], lastValidOffset)
	if err := c.db.Set([]byte(logPath), buf[:], pebble.NoSync); err != nil {
		id := ksuid.New().String()
		c.mu.Lock()
		c.lastSaveFailureID = id
		c.mu.Unlock()
		log.Printf("checkpoint[%s]: save failed for %s: %v", id, logPath, err)
		return err
	}
	return nil
}

// LastSaveFailureID returns the correlation id logged alongside the most
// recent failed Save call, or "" if none has failed yet.
func (c *CheckpointStore) LastSaveFailureID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSaveFailureID
}

// Load returns the cached offset for logPath, or ok=false if none is
// cached.
func (c *CheckpointStore) Load(logPath string) (offset uint64, ok bool, err error) {
	data, closer, err := c.db.Get([]byte(logPath))
	if err == pebble.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	defer closer.Close()

	if len(data) != 8 {
		return 0, false, nil
	}
	return binary.BigEndian.Uint64(data), true, nil
}

// Close closes the underlying pebble handle.
func (c *CheckpointStore) Close() error {
	return c.db.Close()
}
