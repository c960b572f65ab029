package offsetlog

import "github.com/ssargent/flumelog/pkg/codec"

// LogError is a plain named error for conditions specific to the offset log.
type LogError struct {
	Message string
}

func (e *LogError) Error() string {
	return e.Message
}

var (
	// ErrCorruptLogFile is surfaced verbatim from the frame codec: a
	// frame's two length fields disagree.
	ErrCorruptLogFile = codec.ErrCorruptLogFile

	// ErrDecodeBufferTooSmall means a Get was attempted at an offset
	// where the file does not contain enough bytes to complete a frame.
	ErrDecodeBufferTooSmall = &LogError{"offsetlog: buffer too small to decode a complete frame at this offset"}

	// ErrClearNotSupported is returned unconditionally by Clear: random
	// deletion from the middle of the log is not part of the contract.
	ErrClearNotSupported = &LogError{"offsetlog: clear is not supported"}
)
