package chunkstore

import "errors"

var (
	// ErrCorruptIndex indicates the index record could not be decoded.
	// Loads treat it as an empty collection.
	ErrCorruptIndex = errors.New("corrupt chunk index")

	// ErrPartialChunk indicates a referenced chunk was missing or unparseable.
	// Loads drop that chunk and continue.
	ErrPartialChunk = errors.New("unreadable task chunk")

	// ErrWriteQuotaExceeded is returned from Commit.Wait when the backing
	// store kept rejecting the write for size or rate.
	ErrWriteQuotaExceeded = errors.New("task write quota exceeded")

	// ErrWriteTransport is returned from Commit.Wait when the backing store
	// kept failing the write for any other reason.
	ErrWriteTransport = errors.New("task write failed")

	// ErrClosed is returned for saves issued after Close.
	ErrClosed = errors.New("chunk store closed")
)
