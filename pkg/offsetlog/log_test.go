package offsetlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ssargent/flumelog/pkg/codec"
)

func newTestLog(t *testing.T, w codec.Width) (*OffsetLog, string) {
	t.Helper()
	dir, err := os.MkdirTemp("", "offsetlog_test")
	assert.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	path := filepath.Join(dir, "log.bin")
	l, err := Open(path, w)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	return l, path
}

func TestAppendGetRoundTrip(t *testing.T) {
	l, _ := newTestLog(t, codec.Width4)

	payloads := [][]byte{
		[]byte("first"),
		[]byte("second"),
		[]byte(""),
		[]byte(`{"value": 1}`),
	}

	offsets := make([]uint64, len(payloads))
	for i, p := range payloads {
		off, err := l.Append(p)
		assert.NoError(t, err)
		offsets[i] = off
	}

	for i, p := range payloads {
		got, err := l.Get(offsets[i])
		assert.NoError(t, err, "Get(offset %d)", offsets[i])
		assert.Equal(t, p, got, "payload %d", i)
	}
}

func TestAppendBatchAssignsConsecutiveOffsets(t *testing.T) {
	l, _ := newTestLog(t, codec.Width4)

	payloads := make([][]byte, 100)
	for i := range payloads {
		payloads[i] = []byte(`{"value": 1}`)
	}

	offsets, err := l.AppendBatch(payloads)
	assert.NoError(t, err)
	assert.Len(t, offsets, 100)
	assert.Equal(t, uint64(0), offsets[0])

	// payload length 12, W=4 framing overhead is 12 bytes, so the second
	// record starts at 24.
	assert.Equal(t, uint64(24), offsets[1])

	got, err := l.Get(offsets[0])
	assert.NoError(t, err)
	assert.Equal(t, `{"value": 1}`, string(got))
}

func TestReopenPreservesLength(t *testing.T) {
	l, path := newTestLog(t, codec.Width8)

	_, err := l.Append([]byte("hello"))
	assert.NoError(t, err)
	_, err = l.Append([]byte("world"))
	assert.NoError(t, err)
	assert.NoError(t, l.Close())

	reopened, err := Open(path, codec.Width8)
	assert.NoError(t, err)
	defer reopened.Close()

	info, err := os.Stat(path)
	assert.NoError(t, err)
	assert.Equal(t, uint64(info.Size()), reopened.length)
}

func TestGetDetectsCorruptFrame(t *testing.T) {
	l, path := newTestLog(t, codec.Width4)

	off, err := l.Append([]byte("a record"))
	assert.NoError(t, err)
	assert.NoError(t, l.Close())

	// Corrupt the trailing length field of the frame.
	f, err := os.OpenFile(path, os.O_RDWR, 0600)
	assert.NoError(t, err)
	_, err = f.WriteAt([]byte{0xFF}, int64(off)+4+8)
	assert.NoError(t, err)
	assert.NoError(t, f.Close())

	reopened, err := Open(path, codec.Width4)
	assert.NoError(t, err)
	defer reopened.Close()

	_, err = reopened.Get(off)
	assert.ErrorIs(t, err, codec.ErrCorruptLogFile)
}

func TestGetOnTruncatedFileIsDecodeBufferTooSmall(t *testing.T) {
	l, path := newTestLog(t, codec.Width4)

	off, err := l.Append([]byte("a longer record body"))
	assert.NoError(t, err)
	assert.NoError(t, l.Close())

	assert.NoError(t, os.Truncate(path, int64(off)+6))

	reopened, err := Open(path, codec.Width4)
	assert.NoError(t, err)
	defer reopened.Close()

	_, err = reopened.Get(off)
	assert.ErrorIs(t, err, ErrDecodeBufferTooSmall)
}

func TestClearIsUnsupported(t *testing.T) {
	l, _ := newTestLog(t, codec.Width4)
	err := l.Clear(0)
	assert.ErrorIs(t, err, ErrClearNotSupported)
}

func TestLatestTracksMostRecentConfirmedOffset(t *testing.T) {
	l, _ := newTestLog(t, codec.Width4)
	assert.Equal(t, uint64(0), l.Latest())

	off1, err := l.Append([]byte("one"))
	assert.NoError(t, err)
	assert.Equal(t, off1, l.Latest())

	off2, err := l.Append([]byte("two"))
	assert.NoError(t, err)
	assert.Equal(t, off2, l.Latest())

	_, err = l.Get(off1)
	assert.NoError(t, err)
	assert.Equal(t, off1, l.Latest())
}

func TestCheckpointStoreSeedsLastValidOffset(t *testing.T) {
	dir, err := os.MkdirTemp("", "offsetlog_checkpoint_test")
	assert.NoError(t, err)
	defer os.RemoveAll(dir)

	cpDir := filepath.Join(dir, "checkpoints")
	cp, err := OpenCheckpointStore(cpDir)
	assert.NoError(t, err)
	defer cp.Close()

	path := filepath.Join(dir, "log.bin")
	l, err := Open(path, codec.Width4, WithCheckpointStore(cp))
	assert.NoError(t, err)

	off, err := l.Append([]byte("checkpointed"))
	assert.NoError(t, err)
	assert.NoError(t, l.Close())

	cachedOffset, ok, err := cp.Load(path)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, off, cachedOffset)

	reopened, err := Open(path, codec.Width4, WithCheckpointStore(cp))
	assert.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, off, reopened.lastValidOffset)
}

func TestGetUpdatesCheckpointStore(t *testing.T) {
	dir, err := os.MkdirTemp("", "offsetlog_checkpoint_get_test")
	assert.NoError(t, err)
	defer os.RemoveAll(dir)

	cpDir := filepath.Join(dir, "checkpoints")
	cp, err := OpenCheckpointStore(cpDir)
	assert.NoError(t, err)
	defer cp.Close()

	path := filepath.Join(dir, "log.bin")
	l, err := Open(path, codec.Width4, WithCheckpointStore(cp))
	assert.NoError(t, err)
	defer l.Close()

	firstOff, err := l.Append([]byte("one"))
	assert.NoError(t, err)
	secondOff, err := l.Append([]byte("two"))
	assert.NoError(t, err)

	// Append already checkpointed secondOff; overwrite it in pebble with a
	// value that is neither offset so we can tell Get is the one that moves
	// the checkpoint back to firstOff.
	assert.NoError(t, cp.Save(path, secondOff+1))

	_, err = l.Get(firstOff)
	assert.NoError(t, err)

	cachedOffset, ok, err := cp.Load(path)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, firstOff, cachedOffset)
	assert.NotEqual(t, secondOff, cachedOffset)
}
