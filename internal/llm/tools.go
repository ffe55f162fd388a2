package llm

// DelegateToolName is the tool the execution loop routes back into the
// delegation engine instead of the local executor.
const DelegateToolName = "delegate_task"

// DelegateTool returns the delegation tool schema. It is offered only to
// nodes above the maximum delegation depth's floor; leaf-depth nodes
// never see it.
func DelegateTool() ToolDef {
	return ToolDef{
		Name: DelegateToolName,
		Description: "Delegate a focused subtask to a sub-agent. The sub-agent runs independently " +
			"with its own tools and returns only its result. Use this to decompose work. " +
			"Each subtask must be self-contained. The sub-agent has NO memory of this conversation.",
		Properties: map[string]interface{}{
			"task_description": map[string]interface{}{
				"type": "string",
				"description": "Clear, specific description. Include all needed context (file paths, " +
					"section names, requirements). The sub-agent knows nothing else.",
			},
			"expected_output": map[string]interface{}{
				"type": "string",
				"description": "What the result should look like. E.g., 'A 500-word draft saved to " +
					"chapters/methods.tex' or 'Summary of key findings from data/results.csv'.",
			},
			"budget_usd": map[string]interface{}{
				"type": "number",
				"description": "Max budget in USD. Typical: $0.03 for reads, $0.10 for analysis, " +
					"$0.50 for writing tasks.",
			},
			"context_files": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
				"description": "Optional file paths the sub-agent should read before starting. " +
					"Provide paths instead of pasting content.",
			},
		},
		Required: []string{"task_description", "expected_output", "budget_usd"},
	}
}

// WorkerTools returns the tool schemas for direct execution.
func WorkerTools() []ToolDef {
	return []ToolDef{
		{
			Name:        "read_file",
			Description: "Read a file from the workspace. Returns the file contents.",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path relative to the workspace root",
				},
			},
			Required: []string{"path"},
		},
		{
			Name:        "write_file",
			Description: "Write content to a file in the workspace. Creates parent directories if needed.",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path relative to the workspace root",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Content to write to the file",
				},
			},
			Required: []string{"path", "content"},
		},
		{
			Name:        "list_files",
			Description: "List files in a workspace directory.",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Directory path relative to the workspace root (default: the root)",
				},
			},
		},
		{
			Name:        "search_files",
			Description: "Search workspace files for a substring. Returns matching lines with file and line number.",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Text to search for",
				},
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Directory to search in (default: the workspace root)",
				},
			},
			Required: []string{"query"},
		},
		{
			Name:        "run_script",
			Description: "Run a shell command in the workspace and return its output. Commands are killed after the configured timeout.",
			Properties: map[string]interface{}{
				"command": map[string]interface{}{
					"type":        "string",
					"description": "The shell command to execute",
				},
			},
			Required: []string{"command"},
		},
	}
}

// Toolset returns the tools visible to a node. The delegation tool is
// included only when the node sits above the delegation-depth floor.
func Toolset(includeDelegate bool) []ToolDef {
	tools := WorkerTools()
	if includeDelegate {
		tools = append(tools, DelegateTool())
	}
	return tools
}
