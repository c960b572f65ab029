package offsetlog

import (
	"bufio"
	"io"
	"os"

	"github.com/ssargent/flumelog/pkg/codec"
)

// readChunkSize is how much the iterator pulls from the underlying reader
// at a time while accumulating a partial frame.
const readChunkSize = 4096

// Iterator is a restartable, forward-only, lazy sequence of (offset,
// payload) pairs read from a byte source, starting at an explicit byte
// offset. It holds a buffered reader plus whatever partial frame bytes have
// been accumulated so far; nothing else is buffered in memory.
type Iterator struct {
	src    *bufio.Reader
	width  codec.Width
	offset uint64
	done   bool
	buf    []byte // accumulated, not-yet-decoded bytes
}

// NewIterator constructs an Iterator over r, assuming the byte at r's
// current position corresponds to startingOffset in the underlying log.
func NewIterator(r io.Reader, w codec.Width, startingOffset uint64) *Iterator {
	return &Iterator{
		src:    bufio.NewReader(r),
		width:  w,
		offset: startingOffset,
	}
}

// Next returns the next (offset, payload) pair, or ok=false once the
// source is exhausted or a corrupt frame is encountered. A corrupt frame
// and true end-of-file are not distinguished here — see ValidateTail for
// callers that need to tell them apart.
func (it *Iterator) Next() (offset uint64, payload []byte, ok bool) {
	if it.done {
		return 0, nil, false
	}

	for {
		decoded, consumed, err := codec.Decode(it.width, it.buf)
		if err != nil {
			it.done = true
			return 0, nil, false
		}
		if consumed > 0 {
			out := make([]byte, len(decoded))
			copy(out, decoded)

			frameOffset := it.offset
			it.offset += uint64(consumed)
			it.buf = it.buf[consumed:]
			return frameOffset, out, true
		}

		chunk := make([]byte, readChunkSize)
		n, readErr := it.src.Read(chunk)
		if n > 0 {
			it.buf = append(it.buf, chunk[:n]...)
			continue
		}
		if readErr != nil {
			it.done = true
			return 0, nil, false
		}
	}
}

// ValidateTail rescans the log at path from the beginning and reports
// whether the scan reached true end-of-file or stopped early at a corrupt
// or truncated frame. Next itself does not make this distinction; this is
// the opt-in helper for callers who do care.
func ValidateTail(path string, w codec.Width) (reachedOffset uint64, corrupt bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, false, err
	}

	it := NewIterator(f, w, 0)
	for {
		_, _, ok := it.Next()
		if !ok {
			break
		}
	}
	// it.offset reflects the byte position reached, whether by clean EOF
	// or by stopping at a corrupt frame.
	return it.offset, it.offset != uint64(info.Size()), nil
}
