package mcp

var editableStatuses = []string{"todo", "done"}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Reading
		{
			Name:        "list_tasks",
			Description: "List tasks in board order with live elapsed times",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"status": map[string]any{
						"type":        "string",
						"description": "Only return tasks with this status",
						"enum":        []string{"todo", "in-progress", "done"},
					},
					"running_only": map[string]any{
						"type":        "boolean",
						"description": "Only return tasks whose timer is running",
					},
				},
			},
		},
		{
			Name:        "get_task",
			Description: "Get one task by id",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{
						"type":        "string",
						"description": "Task ID",
					},
				},
				"required": []string{"id"},
			},
		},

		// Editing
		{
			Name:        "add_task",
			Description: "Append a new task to the board",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{
						"type":        "string",
						"description": "Task name",
					},
					"notes": map[string]any{
						"type":        "string",
						"description": "Free-form notes",
					},
					"status": map[string]any{
						"type":        "string",
						"description": "Initial status (defaults to todo)",
						"enum":        editableStatuses,
					},
					"columns": map[string]any{
						"type":                 "object",
						"description":          "Additional column values keyed by column name",
						"additionalProperties": map[string]any{"type": "string"},
					},
				},
				"required": []string{"name"},
			},
		},
		{
			Name:        "update_task",
			Description: "Edit a task. Omitted fields are left unchanged. Editing elapsed time of a running task rebases its timer",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{
						"type":        "string",
						"description": "Task ID",
					},
					"name": map[string]any{
						"type":        "string",
						"description": "New task name",
					},
					"notes": map[string]any{
						"type":        "string",
						"description": "New notes",
					},
					"status": map[string]any{
						"type":        "string",
						"description": "New status. in-progress is only set by starting the timer",
						"enum":        editableStatuses,
					},
					"elapsed": map[string]any{
						"type":        "string",
						"description": "Elapsed time as H:MM:SS, MM:SS, seconds, or a duration like 1h30m",
					},
					"columns": map[string]any{
						"type":                 "object",
						"description":          "Column values to set, keyed by column name",
						"additionalProperties": map[string]any{"type": "string"},
					},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "delete_task",
			Description: "Delete a task and discard its timer",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{
						"type":        "string",
						"description": "Task ID",
					},
				},
				"required": []string{"id"},
			},
		},

		// Timers
		{
			Name:        "toggle_timer",
			Description: "Start a stopped timer or stop a running one. Done tasks cannot be started",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{
						"type":        "string",
						"description": "Task ID",
					},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "set_elapsed",
			Description: "Replace a task's elapsed time. A running timer continues from the new value",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{
						"type":        "string",
						"description": "Task ID",
					},
					"elapsed": map[string]any{
						"type":        "string",
						"description": "Elapsed time as H:MM:SS, MM:SS, seconds, or a duration like 1h30m",
					},
					"elapsed_ms": map[string]any{
						"type":        "integer",
						"description": "Elapsed time in milliseconds (takes precedence over elapsed)",
						"minimum":     0,
					},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "clear_timer",
			Description: "Stop and zero the timer of one task, or of every task when id is omitted",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{
						"type":        "string",
						"description": "Task ID (omit to clear all timers)",
					},
				},
			},
		},
		{
			Name:        "clear_tasks",
			Description: "Delete every task and all stored task records",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"confirm": map[string]any{
						"type":        "boolean",
						"description": "Must be true",
					},
				},
				"required": []string{"confirm"},
			},
		},
	}
}
