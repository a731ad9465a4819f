package functional_test

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// stdioSession wraps an MCP client session for stdio transport testing
type stdioSession struct {
	session *sdkmcp.ClientSession
	cancel  context.CancelFunc
	once    sync.Once
}

func binaryPath(t *testing.T) string {
	t.Helper()
	for _, path := range []string{"./bin/tasktimer", "../../bin/tasktimer"} {
		if _, err := os.Stat(path); err == nil {
			abs, err := filepath.Abs(path)
			require.NoError(t, err)
			return abs
		}
	}
	t.Skip("Server binary not found. Run 'go build -o bin/tasktimer ./cmd/tasktimer' first.")
	return ""
}

func newStdioSession(t *testing.T, dbPath string) *stdioSession {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	cmd := exec.CommandContext(ctx, binaryPath(t), "serve")
	cmd.Env = append(os.Environ(),
		"TASKTIMER_TRANSPORT=stdio",
		"TASKTIMER_DB_PATH="+dbPath,
		"TASKTIMER_WRITE_THROTTLE_MS=10",
	)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, &sdkmcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		cancel()
		t.Fatalf("Failed to connect: %v", err)
	}

	s := &stdioSession{session: session, cancel: cancel}
	t.Cleanup(s.close)
	return s
}

// close ends the session; the server saves its final state on exit.
func (s *stdioSession) close() {
	s.once.Do(func() {
		s.session.Close()
		s.cancel()
	})
}

func (s *stdioSession) callTool(t *testing.T, name string, args map[string]any) json.RawMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if args == nil {
		args = map[string]any{}
	}
	result, err := s.session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err, "CallTool %s failed", name)
	require.NotEmpty(t, result.Content, "Tool %s returned no content", name)

	for _, content := range result.Content {
		if textContent, ok := content.(*sdkmcp.TextContent); ok {
			require.False(t, result.IsError, "Tool %s returned error: %s", name, textContent.Text)
			return json.RawMessage(textContent.Text)
		}
	}
	t.Fatalf("Tool %s returned no text content", name)
	return nil
}

type taskResp struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	ElapsedMs int64  `json:"elapsed_ms"`
	Running   bool   `json:"running"`
}

type listResp struct {
	Tasks   []taskResp `json:"tasks"`
	Total   int        `json:"total"`
	Running int        `json:"running"`
}

func TestStdioFunctional_ToolsListed(t *testing.T) {
	s := newStdioSession(t, filepath.Join(t.TempDir(), "tasks.db"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	tools, err := s.session.ListTools(ctx, nil)
	require.NoError(t, err)

	toolMap := make(map[string]*sdkmcp.Tool)
	for _, tool := range tools.Tools {
		toolMap[tool.Name] = tool
	}
	for _, name := range []string{
		"list_tasks", "get_task", "add_task", "update_task", "delete_task",
		"toggle_timer", "set_elapsed", "clear_timer", "clear_tasks",
	} {
		require.Contains(t, toolMap, name)
	}
}

func TestStdioFunctional_StatePersistsAcrossRestart(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tasks.db")

	first := newStdioSession(t, dbPath)
	var added taskResp
	require.NoError(t, json.Unmarshal(first.callTool(t, "add_task", map[string]any{"name": "Persisted"}), &added))

	var running taskResp
	require.NoError(t, json.Unmarshal(first.callTool(t, "toggle_timer", map[string]any{"id": added.ID}), &running))
	require.True(t, running.Running)
	time.Sleep(50 * time.Millisecond)
	first.close()

	second := newStdioSession(t, dbPath)
	var list listResp
	require.NoError(t, json.Unmarshal(second.callTool(t, "list_tasks", nil), &list))
	require.Len(t, list.Tasks, 1)
	require.Equal(t, "Persisted", list.Tasks[0].Name)
	require.Equal(t, "todo", list.Tasks[0].Status)
	require.False(t, list.Tasks[0].Running)
	require.Positive(t, list.Tasks[0].ElapsedMs)
}

func TestStdioFunctional_ClearTasks(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tasks.db")

	s := newStdioSession(t, dbPath)
	for _, name := range []string{"a", "b", "c"} {
		s.callTool(t, "add_task", map[string]any{"name": name})
	}
	var cleared struct {
		Cleared int `json:"cleared"`
	}
	require.NoError(t, json.Unmarshal(s.callTool(t, "clear_tasks", map[string]any{"confirm": true}), &cleared))
	require.Equal(t, 3, cleared.Cleared)
	s.close()

	again := newStdioSession(t, dbPath)
	var list listResp
	require.NoError(t, json.Unmarshal(again.callTool(t, "list_tasks", nil), &list))
	require.Zero(t, list.Total)
}
