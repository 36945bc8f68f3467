// Package store persists interactions and polls in an embedded Pebble
// database. Interactions are append-only: keys embed a sortable timestamp so
// iteration over a stream prefix yields commit order.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"

	"streamflow/pkg/logger"
	"streamflow/pkg/models"
)

var db *pebble.DB

// seq reduces key collisions when multiple interactions share the same
// nanosecond timestamp.
var seq uint64

// ErrDuplicateID is returned when an interaction ID was already committed.
var ErrDuplicateID = fmt.Errorf("interaction id already exists")

// Open opens (or creates) a Pebble database at the given path and keeps a
// package-level handle.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	logger.Info("pebble_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool { return db != nil }

// Key namespaces:
//   stream:<streamID>:ix:<unix_nano_padded>-<seq>  -> Interaction JSON
//   ix:id:<interactionID>                          -> stream key (index)
//   poll:<streamID>:<pollID>                       -> Poll JSON

func ixKey(streamID string, ts int64, s uint64) []byte {
	return []byte(fmt.Sprintf("stream:%s:ix:%020d-%06d", streamID, ts, s))
}

func ixIDKey(id string) []byte {
	return []byte("ix:id:" + id)
}

func pollKey(streamID, pollID string) []byte {
	return []byte("poll:" + streamID + ":" + pollID)
}

// SaveInteraction appends an interaction to its stream. It refuses to
// overwrite an existing interaction ID so duplicate submits surface as
// ErrDuplicateID rather than silently rewriting history.
func SaveInteraction(ix models.Interaction) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	if ix.ID == "" || ix.StreamID == "" {
		return fmt.Errorf("interaction missing id or stream id")
	}
	if _, closer, err := db.Get(ixIDKey(ix.ID)); err == nil {
		_ = closer.Close()
		return ErrDuplicateID
	} else if err != pebble.ErrNotFound {
		return err
	}

	ts := ix.CreatedAt.UTC().UnixNano()
	if ts == 0 {
		ts = time.Now().UTC().UnixNano()
	}
	s := atomic.AddUint64(&seq, 1)
	key := ixKey(ix.StreamID, ts, s)

	data, err := json.Marshal(ix)
	if err != nil {
		return fmt.Errorf("failed to marshal interaction: %w", err)
	}
	if err := db.Set(key, data, pebble.Sync); err != nil {
		logger.Error("save_interaction_failed", "stream", ix.StreamID, "key", string(key), "error", err)
		return err
	}
	if err := db.Set(ixIDKey(ix.ID), key, pebble.Sync); err != nil {
		logger.Error("save_interaction_index_failed", "id", ix.ID, "error", err)
		return err
	}
	logger.Info("interaction_saved", "stream", ix.StreamID, "id", ix.ID, "kind", ix.Kind, "amount_cents", ix.AmountCents)
	return nil
}

// ListInteractions returns interactions for a stream in commit order. A
// positive limit keeps only the most recent entries.
func ListInteractions(streamID string, limit int) ([]models.Interaction, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := []byte("stream:" + streamID + ":ix:")
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []models.Interaction
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var ix models.Interaction
		if err := json.Unmarshal(iter.Value(), &ix); err != nil {
			logger.Warn("skip_invalid_interaction_row", "key", string(iter.Key()), "error", err)
			continue
		}
		out = append(out, ix)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// GetInteraction looks up one interaction by ID via the ID index.
func GetInteraction(id string) (models.Interaction, error) {
	var ix models.Interaction
	if db == nil {
		return ix, fmt.Errorf("pebble not opened; call store.Open first")
	}
	key, closer, err := db.Get(ixIDKey(id))
	if err != nil {
		return ix, err
	}
	k := append([]byte(nil), key...)
	_ = closer.Close()
	v, closer2, err := db.Get(k)
	if err != nil {
		return ix, err
	}
	defer closer2.Close()
	if err := json.Unmarshal(v, &ix); err != nil {
		return ix, fmt.Errorf("invalid stored interaction: %w", err)
	}
	return ix, nil
}

// SavePoll writes poll metadata and counters.
func SavePoll(p models.Poll) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	if p.ID == "" || p.StreamID == "" {
		return fmt.Errorf("poll missing id or stream id")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal poll: %w", err)
	}
	if err := db.Set(pollKey(p.StreamID, p.ID), data, pebble.Sync); err != nil {
		logger.Error("save_poll_failed", "stream", p.StreamID, "poll", p.ID, "error", err)
		return err
	}
	return nil
}

// GetPoll returns one poll by stream and ID. pebble.ErrNotFound is returned
// unwrapped so callers can map it to their own not-found error.
func GetPoll(streamID, pollID string) (models.Poll, error) {
	var p models.Poll
	if db == nil {
		return p, fmt.Errorf("pebble not opened; call store.Open first")
	}
	v, closer, err := db.Get(pollKey(streamID, pollID))
	if err != nil {
		return p, err
	}
	defer closer.Close()
	if err := json.Unmarshal(v, &p); err != nil {
		return p, fmt.Errorf("invalid stored poll: %w", err)
	}
	return p, nil
}

// ListPolls returns all polls for a stream.
func ListPolls(streamID string) ([]models.Poll, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := []byte("poll:" + streamID + ":")
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []models.Poll
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var p models.Poll
		if err := json.Unmarshal(iter.Value(), &p); err != nil {
			logger.Warn("skip_invalid_poll_row", "key", string(iter.Key()), "error", err)
			continue
		}
		out = append(out, p)
	}
	return out, iter.Error()
}

// PurgeInteractionsBefore deletes interaction rows older than cutoff across
// all streams, up to batchSize rows per call. Returns the number deleted.
// Used by the retention sweeper; dryRun counts without deleting.
func PurgeInteractionsBefore(cutoff time.Time, batchSize int, dryRun bool) (int, error) {
	if db == nil {
		return 0, fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := []byte("stream:")
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	cut := cutoff.UTC().UnixNano()
	n := 0
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var ix models.Interaction
		if err := json.Unmarshal(iter.Value(), &ix); err != nil {
			continue
		}
		if ix.CreatedAt.UTC().UnixNano() >= cut {
			continue
		}
		if !dryRun {
			k := append([]byte(nil), iter.Key()...)
			if err := db.Delete(k, pebble.Sync); err != nil {
				return n, err
			}
			if err := db.Delete(ixIDKey(ix.ID), pebble.Sync); err != nil {
				return n, err
			}
		}
		n++
		if batchSize > 0 && n >= batchSize {
			break
		}
	}
	return n, iter.Error()
}
