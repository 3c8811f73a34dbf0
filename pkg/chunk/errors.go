// pkg/chunk/errors.go

package chunk

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidArgument is returned for empty names and out of range
	// offsets or lengths.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDuplicateChunk is returned when a chunk with the same name
	// (ignoring case) already exists.
	ErrDuplicateChunk = errors.New("chunk already exists")

	// ErrChunkNotFound is returned by lookups, updates and removals of an
	// unknown chunk.
	ErrChunkNotFound = errors.New("chunk not found")

	// ErrMalformedContainer is returned when a payload has the wrong magic
	// or a truncated or inconsistent table or body.
	ErrMalformedContainer = errors.New("malformed container")

	// ErrEndOfData is returned when a typed read runs past the end of a chunk.
	ErrEndOfData = errors.New("end of chunk data")

	// ErrNoActiveChunk is returned by writes issued before a current chunk
	// was set.
	ErrNoActiveChunk = errors.New("no active chunk")

	// ErrNotWritable is returned when saving to a nil stream or writing to a
	// read-only page.
	ErrNotWritable = errors.New("stream is not writable")

	// ErrNotSeekable is returned by LoadFrom when the source cannot seek.
	ErrNotSeekable = errors.New("stream is not seekable")

	// ErrAccessDenied is returned when reading a chunk that a writer holds open.
	ErrAccessDenied = errors.New("chunk is open for writing")

	// ErrReleased is returned by any use of a page after Release.
	ErrReleased = errors.New("page is already released")
)

// ArgumentError names the parameter that failed validation.
type ArgumentError struct {
	Param  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidArgument, e.Param, e.Reason)
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func argError(param, format string, args ...interface{}) error {
	return &ArgumentError{Param: param, Reason: fmt.Sprintf(format, args...)}
}

// malformed wraps a low level failure met while parsing a container.
func malformed(err error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg += ": " + err.Error()
	}
	return errors.Wrap(ErrMalformedContainer, msg)
}
