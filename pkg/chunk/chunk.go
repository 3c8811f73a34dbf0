// pkg/chunk/chunk.go

// Package chunk implements the GorChunk container: a single payload holding
// named, independently sized chunks located through an offset table.
//
// Layout (all integers little-endian):
//
//	magic "GORCHUNKFILE_1.0"
//	int32 chunk count
//	int64 absolute offset, one per chunk
//	per chunk, at its offset:
//	    uvarint-prefixed string "GORCHUNK " + upper-cased name
//	    int32 payload length
//	    payload bytes
//
// Readers locate bodies by offset only, so a reader that does not know a
// chunk can skip it without parsing it.
package chunk

import (
	"encoding/binary"
	"strings"

	"GorChunk/pkg/utils"
)

var logger = utils.GetLogger("gorchunk")

const (
	// Magic identifies the format and its version. It is never terminated.
	Magic = "GORCHUNKFILE_1.0"

	// TagPrefix precedes every persisted chunk name. It is not escaped.
	TagPrefix = "GORCHUNK "

	// MaxChunkSize is the largest payload an int32 length field can hold.
	MaxChunkSize = 1<<31 - 1

	countSize  = 4
	offsetSize = 8
	lengthSize = 4
)

// Entry is one row of the directory table.
type Entry struct {
	Name   string `json:"name"`
	Offset int64  `json:"offset"`
	Length int32  `json:"length"`
}

// foldName returns the lookup key of a chunk name. Names are persisted
// upper-cased, folding through ToUpper first keeps the key stable across a
// save/load round trip.
func foldName(name string) string {
	return strings.ToLower(strings.ToUpper(name))
}

func chunkTag(name string) string {
	return TagPrefix + strings.ToUpper(name)
}

// recordSize is the number of bytes a chunk body occupies in the container.
func recordSize(name string, length int) int64 {
	tag := len(chunkTag(name))
	return int64(uvarintLen(uint64(tag)) + tag + lengthSize + length)
}

// tableEnd is the offset of the first chunk body for n chunks.
func tableEnd(n int) int64 {
	return int64(len(Magic) + countSize + offsetSize*n)
}

func uvarintLen(v uint64) int {
	var buf [binary.MaxVarintLen64]byte
	return binary.PutUvarint(buf[:], v)
}
