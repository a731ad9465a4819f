package chunkstore

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rpggio/tasktimer/internal/domain/task"
)

// Pack serializes tasks into JSON-array chunks. Tasks are packed greedily in
// order; a chunk is closed once the next task would push it past target
// bytes. A task that alone exceeds target gets a chunk of its own.
func Pack(tasks []task.Task, target int) ([][]byte, error) {
	var chunks [][]byte
	var cur bytes.Buffer
	count := 0

	closeChunk := func() {
		cur.WriteByte(']')
		chunks = append(chunks, bytes.Clone(cur.Bytes()))
		cur.Reset()
		count = 0
	}

	for i := range tasks {
		item, err := json.Marshal(tasks[i])
		if err != nil {
			return nil, fmt.Errorf("encoding task %s: %w", tasks[i].ID, err)
		}

		// Size after appending: current bytes, separator, item, closing bracket.
		if count > 0 && cur.Len()+1+len(item)+1 > target {
			closeChunk()
		}

		if count == 0 {
			cur.WriteByte('[')
		} else {
			cur.WriteByte(',')
		}
		cur.Write(item)
		count++
	}

	if count > 0 {
		closeChunk()
	}

	return chunks, nil
}

func unpack(data []byte) ([]task.Task, error) {
	var tasks []task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}
