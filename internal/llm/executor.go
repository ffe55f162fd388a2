package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// maxToolOutput bounds any single tool result fed back into the
// conversation; the reasoning service pays input tokens for every byte.
const maxToolOutput = 8000

// Executor runs tool requests against the local workspace. It never
// returns a Go error: faults are converted to result strings the
// reasoning service can see and react to.
type Executor struct {
	workDir       string
	scriptTimeout time.Duration
}

// NewExecutor creates an executor sandboxed to workDir.
func NewExecutor(workDir string, scriptTimeout time.Duration) *Executor {
	if scriptTimeout <= 0 {
		scriptTimeout = 120 * time.Second
	}
	return &Executor{workDir: workDir, scriptTimeout: scriptTimeout}
}

// Execute runs a tool by name and returns the result as a string.
func (e *Executor) Execute(ctx context.Context, name string, input json.RawMessage) string {
	var result string
	switch name {
	case "read_file":
		result = e.execRead(input)
	case "write_file":
		result = e.execWrite(input)
	case "list_files":
		result = e.execList(input)
	case "search_files":
		result = e.execSearch(input)
	case "run_script":
		result = e.execScript(ctx, input)
	default:
		return fmt.Sprintf("Error: unknown tool %q", name)
	}
	return truncateOutput(result)
}

// ReadFile reads a workspace file directly, used for injecting context
// files into a freshly delegated child's conversation.
func (e *Executor) ReadFile(path string) (string, error) {
	resolved, err := e.resolvePath(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", err
	}
	return truncateOutput(string(data)), nil
}

func (e *Executor) execRead(input json.RawMessage) string {
	var params struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return fmt.Sprintf("Error: invalid parameters: %v", err)
	}

	content, err := e.ReadFile(params.Path)
	if err != nil {
		return fmt.Sprintf("Error reading %s: %v", params.Path, err)
	}
	return content
}

func (e *Executor) execWrite(input json.RawMessage) string {
	var params struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return fmt.Sprintf("Error: invalid parameters: %v", err)
	}

	path, err := e.resolvePath(params.Path)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Sprintf("Error creating directories: %v", err)
	}
	if err := os.WriteFile(path, []byte(params.Content), 0644); err != nil {
		return fmt.Sprintf("Error writing %s: %v", params.Path, err)
	}
	return fmt.Sprintf("Wrote %d bytes to %s", len(params.Content), params.Path)
}

func (e *Executor) execList(input json.RawMessage) string {
	var params struct {
		Path string `json:"path"`
	}
	if len(input) > 0 {
		if err := json.Unmarshal(input, &params); err != nil {
			return fmt.Sprintf("Error: invalid parameters: %v", err)
		}
	}
	if params.Path == "" {
		params.Path = "."
	}

	path, err := e.resolvePath(params.Path)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Sprintf("Error listing %s: %v", params.Path, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return "(empty directory)"
	}
	return strings.Join(names, "\n")
}

func (e *Executor) execSearch(input json.RawMessage) string {
	var params struct {
		Query string `json:"query"`
		Path  string `json:"path"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return fmt.Sprintf("Error: invalid parameters: %v", err)
	}
	if params.Path == "" {
		params.Path = "."
	}

	root, err := e.resolvePath(params.Path)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	var matches []string
	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(e.workDir, path)
		for i, line := range strings.Split(string(data), "\n") {
			if strings.Contains(line, params.Query) {
				matches = append(matches, fmt.Sprintf("%s:%d: %s", rel, i+1, strings.TrimSpace(line)))
				if len(matches) >= 100 {
					return filepath.SkipAll
				}
			}
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Sprintf("Error searching: %v", walkErr)
	}
	if len(matches) == 0 {
		return fmt.Sprintf("No matches for %q", params.Query)
	}
	return strings.Join(matches, "\n")
}

func (e *Executor) execScript(ctx context.Context, input json.RawMessage) string {
	var params struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return fmt.Sprintf("Error: invalid parameters: %v", err)
	}
	if strings.TrimSpace(params.Command) == "" {
		return "Error: command is required"
	}

	cmdCtx, cancel := context.WithTimeout(ctx, e.scriptTimeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "sh", "-c", params.Command)
	cmd.Dir = e.workDir
	output, err := cmd.CombinedOutput()
	if cmdCtx.Err() == context.DeadlineExceeded {
		return fmt.Sprintf("Error: command timed out after %s", e.scriptTimeout)
	}
	if err != nil {
		return fmt.Sprintf("Command failed: %v\n%s", err, output)
	}
	if len(output) == 0 {
		return "(no output)"
	}
	return string(output)
}

// resolvePath resolves a tool path against the sandbox root and rejects
// escapes above it.
func (e *Executor) resolvePath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("absolute paths are not allowed: %s", path)
	}
	resolved := filepath.Join(e.workDir, path)
	rel, err := filepath.Rel(e.workDir, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes the workspace: %s", path)
	}
	return resolved, nil
}

func truncateOutput(s string) string {
	if len(s) <= maxToolOutput {
		return s
	}
	return s[:maxToolOutput-500] + fmt.Sprintf("\n\n... [truncated, %d chars total]", len(s))
}
