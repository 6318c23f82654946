// Package cache keeps decoded messages on disk so that reloading an
// unchanged file skips decoding. Entries are keyed by the SHA-256 of the
// file content and the decode options fingerprint.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/huangweiliang/dlt-viewer-simplified/internal/common"
	"github.com/huangweiliang/dlt-viewer-simplified/internal/dlt"
)

const (
	metaSuffix    = 'm'
	messageSuffix = 'r'
)

type meta struct {
	Count   int       `json:"count"`
	Resyncs int       `json:"resyncs"`
	Stored  time.Time `json:"stored"`
}

type digestEntry struct {
	size    int64
	modTime time.Time
	sum     string
}

type Store struct {
	db *pebble.DB

	mu      sync.Mutex
	digests map[string]digestEntry
}

// Open opens or creates the cache database in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", dir, err)
	}
	return &Store{db: db, digests: make(map[string]digestEntry)}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// digest returns the content hash of path, reusing the last result while
// size and modification time are unchanged.
func (s *Store) digest(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	entry, ok := s.digests[path]
	s.mu.Unlock()
	if ok && entry.size == info.Size() && entry.modTime.Equal(info.ModTime()) {
		return entry.sum, nil
	}
	sum, size, err := common.Sha256OfFile(path)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.digests[path] = digestEntry{size: size, modTime: info.ModTime(), sum: sum}
	s.mu.Unlock()
	return sum, nil
}

// prefix is sha256(file) + sha256(fingerprint)[:8], both raw.
func prefix(fileSum, fingerprint string) ([]byte, error) {
	raw, err := hex.DecodeString(fileSum)
	if err != nil {
		return nil, fmt.Errorf("file digest %q: %w", fileSum, err)
	}
	fp := sha256.Sum256([]byte(fingerprint))
	out := make([]byte, 0, len(raw)+8+1+8)
	out = append(out, raw...)
	return append(out, fp[:8]...), nil
}

func metaKey(p []byte) []byte {
	return append(append([]byte{}, p...), metaSuffix)
}

func messageKey(p []byte, i uint64) []byte {
	k := append(append([]byte{}, p...), messageSuffix)
	return binary.BigEndian.AppendUint64(k, i)
}

// Get returns the cached messages of path decoded with fingerprint.
func (s *Store) Get(path, fingerprint string) ([]dlt.Message, int, bool, error) {
	sum, err := s.digest(path)
	if err != nil {
		return nil, 0, false, err
	}
	p, err := prefix(sum, fingerprint)
	if err != nil {
		return nil, 0, false, err
	}
	raw, closer, err := s.db.Get(metaKey(p))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, 0, false, nil
		}
		return nil, 0, false, err
	}
	var m meta
	err = json.Unmarshal(raw, &m)
	closer.Close()
	if err != nil {
		return nil, 0, false, fmt.Errorf("cache meta: %w", err)
	}

	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: messageKey(p, 0),
		UpperBound: messageKey(p, uint64(m.Count)),
	})
	if err != nil {
		return nil, 0, false, err
	}
	defer iter.Close()
	msgs := make([]dlt.Message, 0, m.Count)
	for iter.First(); iter.Valid(); iter.Next() {
		var msg dlt.Message
		if err := json.Unmarshal(iter.Value(), &msg); err != nil {
			return nil, 0, false, fmt.Errorf("cache record: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if err := iter.Error(); err != nil {
		return nil, 0, false, err
	}
	if len(msgs) != m.Count {
		common.Logf("cache entry for %s incomplete: %d of %d records", path, len(msgs), m.Count)
		return nil, 0, false, nil
	}
	return msgs, m.Resyncs, true, nil
}

// Put stores msgs for path. The meta record is written last in the same
// batch, so a partially written entry is never reported as a hit.
func (s *Store) Put(path, fingerprint string, msgs []dlt.Message, resyncs int) error {
	sum, err := s.digest(path)
	if err != nil {
		return err
	}
	p, err := prefix(sum, fingerprint)
	if err != nil {
		return err
	}
	b := s.db.NewBatch()
	defer b.Close()
	for i, msg := range msgs {
		val, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		if err := b.Set(messageKey(p, uint64(i)), val, nil); err != nil {
			return err
		}
	}
	val, err := json.Marshal(meta{Count: len(msgs), Resyncs: resyncs, Stored: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := b.Set(metaKey(p), val, nil); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}
