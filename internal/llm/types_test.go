package llm

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestConversationRoundTrip(t *testing.T) {
	msgs := []Message{
		UserText("summarize chapter 3"),
		{
			Role: RoleAssistant,
			Blocks: []Block{
				{Type: BlockText, Text: "Reading the chapter first."},
				{Type: BlockToolUse, ID: "tu_1", Name: "read_file", Input: json.RawMessage(`{"path":"ch3.tex"}`)},
			},
		},
		ToolResults([]Block{
			{Type: BlockToolResult, ID: "tu_1", Content: "chapter text", IsError: false},
		}),
	}

	encoded, err := MarshalConversation(msgs)
	if err != nil {
		t.Fatalf("MarshalConversation failed: %v", err)
	}

	decoded, err := UnmarshalConversation(encoded)
	if err != nil {
		t.Fatalf("UnmarshalConversation failed: %v", err)
	}

	// No turn or block may be dropped or altered: the reasoning service
	// has no memory of its own between calls.
	if !reflect.DeepEqual(msgs, decoded) {
		t.Errorf("round trip altered conversation:\n got %+v\nwant %+v", decoded, msgs)
	}
}

func TestResponseText(t *testing.T) {
	resp := &Response{Blocks: []Block{
		{Type: BlockText, Text: "first"},
		{Type: BlockToolUse, ID: "tu_1", Name: "read_file"},
		{Type: BlockText, Text: "second"},
	}}

	if got := resp.Text(); got != "first\nsecond" {
		t.Errorf("Text() = %q, want %q", got, "first\nsecond")
	}
}

func TestResponseToolRequests(t *testing.T) {
	resp := &Response{Blocks: []Block{
		{Type: BlockText, Text: "planning"},
		{Type: BlockToolUse, ID: "tu_1", Name: "read_file"},
		{Type: BlockToolUse, ID: "tu_2", Name: "delegate_task"},
	}}

	reqs := resp.ToolRequests()
	if len(reqs) != 2 {
		t.Fatalf("len(ToolRequests) = %d, want 2", len(reqs))
	}
	// Order must match the request order.
	if reqs[0].ID != "tu_1" || reqs[1].ID != "tu_2" {
		t.Errorf("tool requests out of order: %s, %s", reqs[0].ID, reqs[1].ID)
	}
}

func TestToolset(t *testing.T) {
	withDelegate := Toolset(true)
	withoutDelegate := Toolset(false)

	if len(withDelegate) != len(withoutDelegate)+1 {
		t.Errorf("delegate toolset should have one extra tool: %d vs %d",
			len(withDelegate), len(withoutDelegate))
	}

	hasDelegate := func(tools []ToolDef) bool {
		for _, tool := range tools {
			if tool.Name == DelegateToolName {
				return true
			}
		}
		return false
	}
	if !hasDelegate(withDelegate) {
		t.Error("Toolset(true) should include the delegation tool")
	}
	if hasDelegate(withoutDelegate) {
		t.Error("Toolset(false) should not include the delegation tool")
	}
}
