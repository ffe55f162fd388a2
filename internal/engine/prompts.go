package engine

import (
	"fmt"
	"strings"

	"github.com/stewardbot/steward/pkg/models"
)

const (
	// maxResultStored bounds the result text persisted on a task row.
	maxResultStored = 1000
	// maxChildSummary bounds a child's result as seen by its parent, so a
	// single planner conversation is not flooded by verbose child output.
	maxChildSummary = 500
	// maxMemoriesInjected bounds the memories added to a root's context.
	maxMemoriesInjected = 3
	// maxKeywords bounds the tags extracted from a description.
	maxKeywords = 5
)

const workerPrompt = `You are an autonomous research assistant working on one task.

RULES:
- Be concise. You are in an agentic loop and every token costs money.
- When uncertain, say so explicitly. The orchestrator will ask the user.
- Report what you did, not what you could do.
- For data tasks: describe your approach, then execute. Show key results inline.
- Use the tools to read and write workspace files and run commands.`

const plannerPrompt = `You are a planning agent. Your job is to decompose a large task into focused subtasks and delegate them.

RULES:
- Be concise. You are in an agentic loop and every token costs money.
- State your plan as a short list before delegating anything.
- Each delegated subtask must be self-contained: the sub-agent has no memory of this conversation.
- Assign each subtask a realistic budget; small read tasks need only a few cents.
- After all subtasks return, combine their results into a final answer.`

const subAgentPrompt = `You are a sub-agent executing one focused subtask.

RULES:
- Be concise. You are in an agentic loop and every token costs money.
- Do exactly what the task asks, nothing more.
- Return your result as plain text; your parent sees only your final output.
- Report what you did, not what you could do.`

// systemPromptFor picks the instruction prelude for a node's role and
// depth.
func systemPromptFor(role models.Role, depth int) string {
	if role == models.RolePlanner {
		return plannerPrompt
	}
	if depth > 0 {
		return subAgentPrompt
	}
	return workerPrompt
}

// decompositionSignals are phrases that mark a request as broad enough to
// plan rather than execute directly.
var decompositionSignals = []string{
	"all chapters",
	"everything",
	"and then",
	"multiple",
	"each ",
	"go through",
	"step by step",
}

// hasDecompositionSignal reports whether a description reads like a
// multi-part request.
func hasDecompositionSignal(description string) bool {
	lower := strings.ToLower(description)
	for _, signal := range decompositionSignals {
		if strings.Contains(lower, signal) {
			return true
		}
	}
	return false
}

// formatMemories renders stored summaries for context injection.
func formatMemories(memories []models.SessionMemory) string {
	var b strings.Builder
	b.WriteString("Relevant context from past work:\n")
	for _, m := range memories {
		fmt.Fprintf(&b, "- %s\n", m.Summary)
	}
	return strings.TrimRight(b.String(), "\n")
}

// stopWords are skipped during keyword extraction.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true,
	"has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true, "may": true,
	"might": true, "can": true, "shall": true, "to": true, "of": true,
	"in": true, "for": true, "on": true, "with": true, "at": true,
	"by": true, "from": true, "as": true, "into": true, "about": true,
	"between": true, "through": true, "after": true, "before": true,
	"during": true, "without": true, "it": true, "its": true, "this": true,
	"that": true, "these": true, "those": true, "i": true, "you": true,
	"he": true, "she": true, "we": true, "they": true, "my": true,
	"your": true, "his": true, "her": true, "our": true, "their": true,
	"me": true, "him": true, "and": true, "or": true, "but": true,
	"not": true, "so": true, "if": true, "then": true, "than": true,
	"also": true, "just": true, "please": true, "help": true, "want": true,
	"need": true, "make": true, "get": true, "run": true,
}

// extractKeywords pulls up to maxKeywords distinctive words from a
// description, for memory tagging and search.
func extractKeywords(text string) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:'\"()[]{}")
		if len(word) <= 2 || stopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
		if len(keywords) >= maxKeywords {
			break
		}
	}
	return keywords
}

// head returns the first n characters of s.
func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// truncate bounds s to max characters, marking the cut with the total
// length so the reader knows output was dropped.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-50] + fmt.Sprintf("\n... [truncated, %d chars total]", len(s))
}
