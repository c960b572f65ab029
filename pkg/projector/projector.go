// Package projector parses (sequence, payload) pairs produced by the
// offset log into structured messages and maintains a queryable relational
// index of them. The index is a best-effort projection, never
// authoritative: a payload that fails to parse is logged and skipped
// rather than propagated, and the log itself remains the source of truth.
package projector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/segmentio/ksuid"
	"github.com/ssargent/flumelog/pkg/metrics"
)

// ProjectorError is a plain named error type for conditions specific to
// the projector.
type ProjectorError struct {
	Message string
}

func (e *ProjectorError) Error() string {
	return e.Message
}

// ErrKeyNotFound is returned by GetSeqByKey when no row matches.
var ErrKeyNotFound = &ProjectorError{"projector: no message with that key"}

// Projector owns one SQLite connection and the latest sequence it has
// indexed. It is safe for single-goroutine use only, consistent with the
// single-handle model the offset log itself follows; callers needing
// concurrent access must serialize their own calls.
type Projector struct {
	mutex   sync.Mutex
	db      *sql.DB
	queries queryRegistry
	latest  uint64
	metrics *metrics.Metrics

	lastParseFailureID string
}

// Open opens (creating if absent) a SQLite database at path, creates the
// message/links/heads tables if they don't already exist, and sets the
// projector's in-memory latest-sequence counter to latestSequence (the
// caller's record of how far it has already projected).
func Open(path string, latestSequence uint64) (*Projector, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	p := &Projector{
		db:      db,
		queries: newQueryRegistry(),
		latest:  latestSequence,
	}

	if err := p.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return p, nil
}

// SetMetrics attaches a metrics sink; a nil sink (the default) makes every
// recording call a no-op.
func (p *Projector) SetMetrics(m *metrics.Metrics) {
	p.metrics = m
}

func (p *Projector) createTables() error {
	for _, key := range []string{QueryInitMessageTable, QueryInitLinksTable, QueryInitHeadsTable} {
		if _, err := p.db.Exec(p.queries.get(key)); err != nil {
			return fmt.Errorf("projector: creating schema: %w", err)
		}
	}
	return nil
}

// Append parses payload as a Message and inserts one row into the message
// table keyed by sequence. A payload that doesn't parse is logged (tagged
// with a correlation id, retrievable via LastParseFailureID, so a caller
// can match a metric or alert back to the exact log line) and silently
// skipped rather than returned as an error.
func (p *Projector) Append(ctx context.Context, sequence uint64, payload []byte) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		id := ksuid.New().String()
		p.lastParseFailureID = id
		log.Printf("projector[%s]: unable to parse item as a message, seq: %d: %v", id, sequence, err)
		if p.metrics != nil {
			p.metrics.RecordProjectorAppend(false)
		}
		return nil
	}

	root, _ := extractContentField(msg.Value.Content, "root")
	branch, _ := extractContentField(msg.Value.Content, "branch")
	contentType, _ := extractContentField(msg.Value.Content, "type")

	_, err := p.db.ExecContext(ctx, p.queries.get(QueryInsertMessage),
		sequence,
		msg.Key,
		msg.Value.Sequence,
		msg.Timestamp,
		msg.Value.Timestamp,
		nullableString(root),
		nullableString(branch),
		msg.Value.Author,
		nullableString(contentType),
		string(msg.Value.Content),
	)
	if p.metrics != nil {
		p.metrics.RecordProjectorAppend(err == nil)
	}
	if err != nil {
		return err
	}

	if sequence > p.latest {
		p.latest = sequence
	}
	return nil
}

// GetSeqByKey returns the sequence of the unique row whose key matches, or
// ErrKeyNotFound if none does.
func (p *Projector) GetSeqByKey(ctx context.Context, key string) (uint64, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	var seq uint64
	err := p.db.QueryRowContext(ctx, p.queries.get(QueryGetSeqByKey), key).Scan(&seq)
	if p.metrics != nil {
		p.metrics.RecordProjectorQuery("get_seq_by_key", err == nil)
	}
	if err == sql.ErrNoRows {
		return 0, ErrKeyNotFound
	}
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// GetSeqsByType returns the sequences of every row whose content_type
// matches, in storage order. An empty result is not an error.
func (p *Projector) GetSeqsByType(ctx context.Context, contentType string) ([]uint64, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	rows, err := p.db.QueryContext(ctx, p.queries.get(QueryGetSeqsByType), contentType)
	if p.metrics != nil {
		p.metrics.RecordProjectorQuery("get_seqs_by_type", err == nil)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seqs []uint64
	for rows.Next() {
		var seq uint64
		if err := rows.Scan(&seq); err != nil {
			return nil, err
		}
		seqs = append(seqs, seq)
	}
	return seqs, rows.Err()
}

// Latest returns the highest sequence successfully indexed so far.
func (p *Projector) Latest() uint64 {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.latest
}

// LastParseFailureID returns the correlation id logged alongside the most
// recent payload that failed to parse as a Message, or "" if none has.
func (p *Projector) LastParseFailureID() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.lastParseFailureID
}

// Close closes the underlying database connection.
func (p *Projector) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.db.Close()
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
