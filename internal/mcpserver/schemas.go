package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

func addTool() mcp.Tool {
	return mcp.Tool{
		Name:        "memo_add",
		Description: "Store one memory in the project's local memory store",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "The content to remember",
				},
				"container": map[string]interface{}{
					"type":        "string",
					"description": "Named container to scope this memory to (defaults to the project container)",
				},
			},
			Required: []string{"text"},
		},
	}
}

func searchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "memo_search",
		Description: "Hybrid dense-vector + full-text search over stored memories",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query",
				},
				"container": map[string]interface{}{
					"type":        "string",
					"description": "Named container to scope the search to (defaults to the project container)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results",
					"default":     10,
				},
			},
			Required: []string{"query"},
		},
	}
}

func importMarkdownTool() mcp.Tool {
	return mcp.Tool{
		Name:        "memo_import_markdown",
		Description: "Chunk and import a markdown file or directory, replacing any prior import from the same path",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to a markdown file or a directory of markdown files",
				},
				"container": map[string]interface{}{
					"type":        "string",
					"description": "Named container to scope the import to (defaults to the project container)",
				},
			},
			Required: []string{"path"},
		},
	}
}

func forgetTool() mcp.Tool {
	return mcp.Tool{
		Name:        "memo_forget",
		Description: "Delete one memory by id",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Memory id to delete",
				},
			},
			Required: []string{"id"},
		},
	}
}

func statusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "memo_status",
		Description: "Report model, dimension, database path, and per-container counts",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
