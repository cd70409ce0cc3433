package catalog

// DefaultCatalog registers the built-in node kinds used by the designer
// palette. The "parallel" kind is a palette label only; runs stay sequential.
func DefaultCatalog() *Catalog {
	c := NewCatalog()

	kinds := []Kind{
		{
			Name:     "trigger",
			Label:    "Trigger",
			Icon:     "zap",
			Color:    "#f59e0b",
			Category: CategoryTrigger,
			Required: true,
			ConfigSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":    map[string]any{"type": "string"},
					"enabled": map[string]any{"type": "boolean"},
					"source": map[string]any{
						"type": "string",
						"enum": []any{"manual", "webhook", "schedule"},
					},
				},
			},
		},
		{
			Name:     "llm",
			Label:    "LLM",
			Icon:     "brain",
			Color:    "#8b5cf6",
			Category: CategoryProcessing,
			Required: true,
			ConfigSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":    map[string]any{"type": "string"},
					"enabled": map[string]any{"type": "boolean"},
					"model":   map[string]any{"type": "string"},
					"temperature": map[string]any{
						"type":    "number",
						"minimum": 0,
						"maximum": 2,
					},
				},
			},
		},
		{
			Name:     "tool",
			Label:    "Tool Call",
			Icon:     "wrench",
			Color:    "#0ea5e9",
			Category: CategoryProcessing,
			ConfigSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":    map[string]any{"type": "string"},
					"enabled": map[string]any{"type": "boolean"},
					"tool":    map[string]any{"type": "string"},
					"timeout": map[string]any{"type": "integer", "minimum": 0},
				},
			},
		},
		{
			Name:     "condition",
			Label:    "Condition",
			Icon:     "git-branch",
			Color:    "#f97316",
			Category: CategoryControl,
			ConfigSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":       map[string]any{"type": "string"},
					"enabled":    map[string]any{"type": "boolean"},
					"expression": map[string]any{"type": "string"},
				},
			},
		},
		{
			Name:     "loop",
			Label:    "Loop",
			Icon:     "repeat",
			Color:    "#14b8a6",
			Category: CategoryControl,
			ConfigSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":           map[string]any{"type": "string"},
					"enabled":        map[string]any{"type": "boolean"},
					"max_iterations": map[string]any{"type": "integer", "minimum": 1},
				},
			},
		},
		{
			Name:     "parallel",
			Label:    "Parallel",
			Icon:     "columns",
			Color:    "#6366f1",
			Category: CategoryControl,
		},
		{
			Name:     "memory",
			Label:    "Memory",
			Icon:     "database",
			Color:    "#ec4899",
			Category: CategoryMemory,
			ConfigSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":    map[string]any{"type": "string"},
					"enabled": map[string]any{"type": "boolean"},
					"store":   map[string]any{"type": "string"},
				},
			},
		},
		{
			Name:     "output",
			Label:    "Output",
			Icon:     "send",
			Color:    "#22c55e",
			Category: CategoryOutput,
			Required: true,
			ConfigSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":    map[string]any{"type": "string"},
					"enabled": map[string]any{"type": "boolean"},
					"format":  map[string]any{"type": "string"},
				},
			},
		},
	}

	for _, kind := range kinds {
		if err := c.Register(kind); err != nil {
			// Built-in schemas are static; a failure here is a programming error.
			panic(err)
		}
	}

	return c
}
