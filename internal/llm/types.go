// Package llm provides the reasoning-service integration for Steward:
// a conversation representation that round-trips through JSON, the
// Anthropic API client, tool schemas, and the local tool executor.
package llm

import "encoding/json"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Block types.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// Block is one content block within a conversation turn. The JSON shape
// is stable: checkpointed conversations are persisted and must restore
// byte-for-byte.
type Block struct {
	Type string `json:"type"`
	// Text is set for text blocks.
	Text string `json:"text,omitempty"`
	// ID and Name identify a tool_use request; Input is its arguments.
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
	// Content and IsError carry a tool_result.
	Content string `json:"content,omitempty"`
	IsError bool   `json:"is_error,omitempty"`
}

// Message is one turn of a conversation.
type Message struct {
	Role   string  `json:"role"`
	Blocks []Block `json:"blocks"`
}

// UserText builds a plain-text user turn.
func UserText(text string) Message {
	return Message{Role: RoleUser, Blocks: []Block{{Type: BlockText, Text: text}}}
}

// AssistantText builds a plain-text assistant turn.
func AssistantText(text string) Message {
	return Message{Role: RoleAssistant, Blocks: []Block{{Type: BlockText, Text: text}}}
}

// ToolResults builds the combined user turn carrying tool results.
func ToolResults(blocks []Block) Message {
	return Message{Role: RoleUser, Blocks: blocks}
}

// MarshalConversation encodes a conversation for storage.
func MarshalConversation(msgs []Message) (string, error) {
	data, err := json.Marshal(msgs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UnmarshalConversation decodes a stored conversation.
func UnmarshalConversation(data string) ([]Message, error) {
	var msgs []Message
	if err := json.Unmarshal([]byte(data), &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// ToolDef describes one tool offered to the reasoning service.
type ToolDef struct {
	Name        string
	Description string
	Properties  map[string]interface{}
	Required    []string
}

// Request is one reasoning-service invocation.
type Request struct {
	Model     string
	System    string
	MaxTokens int
	Messages  []Message
	Tools     []ToolDef
}

// Response is the parsed result of one reasoning-service invocation.
type Response struct {
	// Blocks preserves the assistant content in request order.
	Blocks []Block
	// EndTurn is true when the service signaled natural completion.
	EndTurn      bool
	StopReason   string
	InputTokens  int64
	OutputTokens int64
}

// Text concatenates the response's text segments.
func (r *Response) Text() string {
	var out string
	for _, b := range r.Blocks {
		if b.Type == BlockText {
			if out != "" {
				out += "\n"
			}
			out += b.Text
		}
	}
	return out
}

// ToolRequests returns the tool_use blocks in request order.
func (r *Response) ToolRequests() []Block {
	var reqs []Block
	for _, b := range r.Blocks {
		if b.Type == BlockToolUse {
			reqs = append(reqs, b)
		}
	}
	return reqs
}

// AssistantMessage returns the response content as a conversation turn.
func (r *Response) AssistantMessage() Message {
	return Message{Role: RoleAssistant, Blocks: r.Blocks}
}
