package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `tasktimer keeps an ordered task list where every task carries a stopwatch.

Model:
- Task: id, name, status (todo, in-progress, done), notes, elapsed time, extra columns.
- Timer: toggle_timer starts or stops it. A running task is in-progress; stopping restores its previous status.
- Done tasks cannot be started. Marking a running task done keeps it done when the timer stops.

Workflow:
1) list_tasks to see ids and live elapsed times.
2) add_task / update_task / delete_task to edit the list.
3) toggle_timer to track time; set_elapsed or update_task(elapsed) to correct it.
4) clear_timer zeroes one timer (or all); clear_tasks deletes everything and requires confirm=true.

Saves are batched in the background, so a burst of edits becomes one write.

Docs:
- tasktimer://docs/index
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "tasktimer://docs/index",
		Name:        "docs_index",
		Title:       "tasktimer docs",
		Description: "Tool reference, elapsed time formats, and storage behavior.",
		Content: `# tasktimer

## Tools

| Tool | Purpose |
|---|---|
| list_tasks | List tasks, optionally filtered by status or running timers |
| get_task | Read one task |
| add_task | Append a task (status todo or done) |
| update_task | Edit name, notes, status, columns, or elapsed time |
| delete_task | Remove a task and its timer |
| toggle_timer | Start or stop a timer |
| set_elapsed | Replace elapsed time; a running timer keeps counting from the new value |
| clear_timer | Stop and zero one timer, or all timers when id is omitted |
| clear_tasks | Delete every task (confirm=true) |

## Elapsed time formats

- ` + "`1:02:03`" + ` hours, minutes, seconds
- ` + "`02:03`" + ` minutes and seconds
- ` + "`123`" + ` seconds
- ` + "`1h2m3s`" + ` duration

## Status rules

- in-progress is owned by the timer. Set todo or done directly; starting a timer sets in-progress.
- Setting todo on a running task fails with TIMER_RUNNING. Stop the timer first.
- After a restart no timer is running, so in-progress tasks come back as todo.

## Storage

Tasks are saved as a small index plus size-limited chunks. Saves are coalesced
and rate limited; QUOTA_EXCEEDED means the store refused the write after retries.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
