package chunkstore

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/tasktimer/internal/domain/task"
	"github.com/stretchr/testify/require"
)

func fixedTask(i int) task.Task {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return task.Task{
		ID:        fmt.Sprintf("t-%04d", i),
		Name:      "Same length name",
		Status:    task.StatusTodo,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

func encodedLen(t *testing.T, tk task.Task) int {
	t.Helper()
	data, err := json.Marshal(tk)
	require.NoError(t, err)
	return len(data)
}

func TestPack_Empty(t *testing.T) {
	chunks, err := Pack(nil, 100)
	require.NoError(t, err)
	require.Empty(t, chunks)
}

func TestPack_ChunkCount(t *testing.T) {
	tasks := make([]task.Task, 10)
	for i := range tasks {
		tasks[i] = fixedTask(i)
	}
	l := encodedLen(t, tasks[0])

	// Exactly three tasks fit: brackets, three items, two commas.
	target := 3*l + 4
	chunks, err := Pack(tasks, target)
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	total := 0
	for _, c := range chunks {
		require.LessOrEqual(t, len(c), target)
		total += len(c)
	}
	want := (total + target - 1) / target
	require.Equal(t, want, len(chunks))
}

func TestPack_OversizedTaskGetsOwnChunk(t *testing.T) {
	small := fixedTask(1)
	big := fixedTask(2)
	big.Notes = strings.Repeat("n", 500)
	tail := fixedTask(3)

	target := encodedLen(t, small)*2 + 3
	chunks, err := Pack([]task.Task{small, big, tail}, target)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	require.Greater(t, len(chunks[1]), target)

	got, err := unpack(chunks[1])
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, big.ID, got[0].ID)
}

func TestPack_GreedyAndOrdered(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tasks := make([]task.Task, 200)
	for i := range tasks {
		tasks[i] = fixedTask(i)
		tasks[i].Notes = strings.Repeat("x", rng.Intn(400))
	}

	const target = 1024
	chunks, err := Pack(tasks, target)
	require.NoError(t, err)

	var all []task.Task
	for i, c := range chunks {
		part, err := unpack(c)
		require.NoError(t, err)
		require.NotEmpty(t, part)
		if len(part) > 1 {
			require.LessOrEqual(t, len(c), target, "chunk %d over budget", i)
		}
		// The next chunk's first task would not have fit here.
		if i+1 < len(chunks) {
			next, err := unpack(chunks[i+1])
			require.NoError(t, err)
			require.Greater(t, len(c)+1+encodedLen(t, next[0]), target)
		}
		all = append(all, part...)
	}

	require.Len(t, all, len(tasks))
	for i := range tasks {
		require.Equal(t, tasks[i].ID, all[i].ID)
	}
}

func TestDecodeIndex(t *testing.T) {
	_, err := decodeIndex([]byte("{not json"))
	require.ErrorIs(t, err, ErrCorruptIndex)

	_, err = decodeIndex([]byte(`{"version":2,"chunkKeys":[]}`))
	require.ErrorIs(t, err, ErrCorruptIndex)

	_, err = decodeIndex([]byte(`{"version":1,"chunkKeys":["settings"]}`))
	require.ErrorIs(t, err, ErrCorruptIndex)

	idx, err := decodeIndex([]byte(`{"version":1,"chunkKeys":["tasks:chunk:0"],"totalTaskCount":3}`))
	require.NoError(t, err)
	require.Equal(t, []string{ChunkKey(0)}, idx.ChunkKeys)
	require.Equal(t, 3, idx.TotalTaskCount)
}

func TestStaleKeys(t *testing.T) {
	prev := []string{ChunkKey(0), ChunkKey(1), ChunkKey(2)}
	require.Equal(t, []string{ChunkKey(2)}, staleKeys(prev, prev[:2]))
	require.Empty(t, staleKeys(prev[:1], prev))
}
