package chunkstore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// IndexKey is the reserved record name of the chunk index.
	IndexKey = "tasks:index"
	// ChunkKeyPrefix precedes the zero-based ordinal of each chunk record.
	ChunkKeyPrefix = "tasks:chunk:"

	indexVersion = 1
)

// ChunkIndex lists the chunk records that make up the current collection.
// Chunk records it does not name are orphans and never read.
type ChunkIndex struct {
	Version        int       `json:"version"`
	ChunkKeys      []string  `json:"chunkKeys"`
	TotalTaskCount int       `json:"totalTaskCount"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ChunkKey returns the record name of chunk n.
func ChunkKey(n int) string {
	return ChunkKeyPrefix + strconv.Itoa(n)
}

func decodeIndex(data []byte) (ChunkIndex, error) {
	var idx ChunkIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return ChunkIndex{}, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	if idx.Version != indexVersion {
		return ChunkIndex{}, fmt.Errorf("%w: unsupported version %d", ErrCorruptIndex, idx.Version)
	}
	for _, key := range idx.ChunkKeys {
		if !strings.HasPrefix(key, ChunkKeyPrefix) {
			return ChunkIndex{}, fmt.Errorf("%w: foreign key %q", ErrCorruptIndex, key)
		}
	}
	return idx, nil
}

func encodeIndex(idx ChunkIndex) ([]byte, error) {
	data, err := json.Marshal(idx)
	if err != nil {
		return nil, fmt.Errorf("encoding index: %w", err)
	}
	return data, nil
}
