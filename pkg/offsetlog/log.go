// Package offsetlog implements a byte-addressed, append-only file log
// whose records are framed by the codec package: length-prefixed,
// length-suffixed, with a trailing cumulative offset. It wraps the frame
// codec with a file handle, tracks the write position and the last
// confirmed read position, and supports single and batched appends plus
// random-access reads by byte offset.
package offsetlog

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ssargent/flumelog/pkg/codec"
	"github.com/ssargent/flumelog/pkg/metrics"
)

// OffsetLog is a single-writer, single-reader-at-a-time handle onto one
// append-only log file. Two handles open on the same path are unsupported
// — concurrent writers would corrupt the trailing-offset field and drift
// the length counter; the package does not attempt to detect this.
type OffsetLog struct {
	mutex sync.Mutex

	path  string
	width codec.Width

	file *os.File

	length          uint64
	lastValidOffset uint64

	checkpoint *CheckpointStore
	metrics    *metrics.Metrics
}

// Option configures an OffsetLog at Open time.
type Option func(*OffsetLog)

// WithCheckpointStore seeds last_valid_offset from, and subsequently
// updates, an advisory checkpoint cache.
func WithCheckpointStore(cp *CheckpointStore) Option {
	return func(l *OffsetLog) { l.checkpoint = cp }
}

// WithMetrics attaches a metrics sink. A nil Metrics (the default) makes
// every recording call a no-op.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *OffsetLog) { l.metrics = m }
}

// Open opens path for append and random-access read, creating it (and its
// parent directory) if absent. The file is not scanned for validity at
// open time — corruption is discovered lazily, on Get or iteration.
func Open(path string, w codec.Width, opts ...Option) (*OffsetLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}

	size, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		return nil, err
	}

	l := &OffsetLog{
		path:   path,
		width:  w,
		file:   file,
		length: uint64(size),
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.checkpoint != nil {
		if off, ok, err := l.checkpoint.Load(path); err == nil && ok && off <= l.length {
			l.lastValidOffset = off
		}
	}

	l.metrics.SetLogSize(int64(l.length))

	return l, nil
}

// Append encodes payload as one frame, writes it at the current end of the
// log, and returns the offset the record was assigned. On I/O failure the
// log's length is left unchanged — the file may contain a partial write
// past the old end, which the next read will detect as corrupt at that
// position, but the in-memory state stays consistent with what was
// confirmed good.
func (l *OffsetLog) Append(payload []byte) (uint64, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	start := time.Now()
	offset, err := l.appendLocked(payload)
	l.metrics.RecordLogOperation("append", err == nil, time.Since(start))
	return offset, err
}

func (l *OffsetLog) appendLocked(payload []byte) (uint64, error) {
	var buf bytes.Buffer
	newOffset, err := codec.Encode(l.width, l.length, payload, &buf)
	if err != nil {
		return 0, err
	}

	startOffset := l.length
	if err := l.writeAndSync(buf.Bytes()); err != nil {
		return 0, err
	}

	l.length = newOffset
	l.lastValidOffset = startOffset
	l.saveCheckpoint()
	l.metrics.SetLogSize(int64(l.length))

	return startOffset, nil
}

// AppendBatch encodes every payload into a single scratch buffer, each
// frame using the cumulative offset left by the one before it, then
// performs one seek-to-end and one write for the whole batch. It is one
// write call, not a filesystem-atomic operation: a crash mid-write can
// still leave a corrupt tail frame, detected the same way a single
// Append's partial write would be.
func (l *OffsetLog) AppendBatch(payloads [][]byte) ([]uint64, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	start := time.Now()
	offsets, err := l.appendBatchLocked(payloads)
	l.metrics.RecordLogOperation("append_batch", err == nil, time.Since(start))
	return offsets, err
}

func (l *OffsetLog) appendBatchLocked(payloads [][]byte) ([]uint64, error) {
	var buf bytes.Buffer
	offsets := make([]uint64, len(payloads))
	cursor := l.length

	for i, p := range payloads {
		startOffset := cursor
		newOffset, err := codec.Encode(l.width, cursor, p, &buf)
		if err != nil {
			return nil, err
		}
		offsets[i] = startOffset
		cursor = newOffset
	}

	if err := l.writeAndSync(buf.Bytes()); err != nil {
		return nil, err
	}

	l.length = cursor
	if len(offsets) > 0 {
		l.lastValidOffset = offsets[len(offsets)-1]
	}
	l.saveCheckpoint()
	l.metrics.SetLogSize(int64(l.length))

	return offsets, nil
}

func (l *OffsetLog) writeAndSync(data []byte) error {
	if _, err := l.file.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	if _, err := l.file.Write(data); err != nil {
		return err
	}
	return l.file.Sync()
}

func (l *OffsetLog) saveCheckpoint() {
	if l.checkpoint == nil {
		return
	}
	l.checkpoint.Save(l.path, l.lastValidOffset)
}

// Get reads the frame starting at offset and returns its payload. offset
// must be a frame-start position; a non-frame-start offset yields
// undefined but detectable behavior — typically ErrCorruptLogFile.
func (l *OffsetLog) Get(offset uint64) ([]byte, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	start := time.Now()
	payload, err := l.getLocked(offset)
	l.metrics.RecordLogOperation("get", err == nil, time.Since(start))
	if err == codec.ErrCorruptLogFile {
		l.metrics.RecordCorruption()
	}
	return payload, err
}

func (l *OffsetLog) getLocked(offset uint64) ([]byte, error) {
	// Reopen for the read so a handle dedicated to sequential appends
	// never has its position disturbed by random access.
	f, err := os.Open(l.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := f.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, err
	}

	header := make([]byte, 4)
	if _, err := io.ReadFull(f, header); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrDecodeBufferTooSmall
		}
		return nil, err
	}

	payloadLen := int(binary.BigEndian.Uint32(header))
	frameSize := codec.Overhead(l.width) + payloadLen

	full := make([]byte, frameSize)
	copy(full, header)
	if _, err := io.ReadFull(f, full[4:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrDecodeBufferTooSmall
		}
		return nil, err
	}

	payload, consumed, err := codec.Decode(l.width, full)
	if err != nil {
		return nil, err
	}
	if consumed == 0 {
		return nil, ErrDecodeBufferTooSmall
	}

	out := make([]byte, len(payload))
	copy(out, payload)

	l.lastValidOffset = offset
	l.saveCheckpoint()

	return out, nil
}

// Latest returns the starting offset of the most recently confirmed
// record (by Append, AppendBatch, or Get), or 0 if none has been
// confirmed yet.
func (l *OffsetLog) Latest() uint64 {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.lastValidOffset
}

// Clear always fails: random deletion from the middle of the log is not
// part of the contract. Calling it is a programming error.
func (l *OffsetLog) Clear(offset uint64) error {
	return ErrClearNotSupported
}

// Close closes the underlying file handle; every append has already been
// synced to disk when it returned, so there is nothing left to flush. It does not close
// an attached CheckpointStore, whose lifecycle the caller owns
// independently (it may be shared across several logs).
func (l *OffsetLog) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.file.Close()
}
