package agent_test

import (
	"testing"

	"github.com/nelssec/friday-agent/internal/agent"
	"github.com/nelssec/friday-agent/internal/llm"
)

func agentEvent(msgs ...*agent.Message) agent.Event {
	return agent.Event{Agent: &agent.StateUpdate{Messages: msgs}}
}

func rootEvent(msgs ...*agent.Message) agent.Event {
	return agent.Event{Root: &agent.StateUpdate{Messages: msgs}}
}

func textMsg(content string) *agent.Message {
	return &agent.Message{Role: "assistant", Content: content}
}

func toolMsg(content string, names ...string) *agent.Message {
	msg := &agent.Message{Role: "assistant", Content: content}
	for _, name := range names {
		msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{Name: name})
	}
	return msg
}

func TestParseEvents_EmptyStream(t *testing.T) {
	result := agent.ParseEvents(nil)

	if result.ToolCalled != agent.NoTool {
		t.Errorf("ToolCalled = %q, want %q", result.ToolCalled, agent.NoTool)
	}
	if result.Response != "" {
		t.Errorf("Response = %q, want empty", result.Response)
	}
}

func TestParseEvents_TextFragmentsConcatenated(t *testing.T) {
	events := []agent.Event{
		agentEvent(textMsg("Hi "), textMsg("there")),
	}

	result := agent.ParseEvents(events)

	if result.ToolCalled != agent.NoTool {
		t.Errorf("ToolCalled = %q, want %q", result.ToolCalled, agent.NoTool)
	}
	if result.Response != "Hi there" {
		t.Errorf("Response = %q, want %q", result.Response, "Hi there")
	}
}

func TestParseEvents_FragmentsAcrossEvents(t *testing.T) {
	events := []agent.Event{
		agentEvent(textMsg("one")),
		agentEvent(textMsg("two")),
		rootEvent(textMsg("three")),
	}

	result := agent.ParseEvents(events)

	if result.Response != "onetwothree" {
		t.Errorf("Response = %q, want %q", result.Response, "onetwothree")
	}
}

func TestParseEvents_ToolRequestAndToolResult(t *testing.T) {
	events := []agent.Event{
		agentEvent(toolMsg("", agent.ToolCallEmergency)),
		rootEvent(&agent.Message{Role: "tool", Content: "Calling now"}),
	}

	result := agent.ParseEvents(events)

	if result.ToolCalled != agent.ToolCallEmergency {
		t.Errorf("ToolCalled = %q, want %q", result.ToolCalled, agent.ToolCallEmergency)
	}
	if result.Response != "Calling now" {
		t.Errorf("Response = %q, want %q", result.Response, "Calling now")
	}
}

func TestParseEvents_FirstToolWins(t *testing.T) {
	events := []agent.Event{
		agentEvent(toolMsg("", agent.ToolAskSpecialist)),
		agentEvent(toolMsg("", agent.ToolCallEmergency)),
	}

	result := agent.ParseEvents(events)

	if result.ToolCalled != agent.ToolAskSpecialist {
		t.Errorf("ToolCalled = %q, want %q", result.ToolCalled, agent.ToolAskSpecialist)
	}
}

func TestParseEvents_FirstToolWinsWithinMessage(t *testing.T) {
	events := []agent.Event{
		agentEvent(toolMsg("", agent.ToolCallEmergency, agent.ToolAskSpecialist)),
	}

	result := agent.ParseEvents(events)

	if result.ToolCalled != agent.ToolCallEmergency {
		t.Errorf("ToolCalled = %q, want %q", result.ToolCalled, agent.ToolCallEmergency)
	}
}

func TestParseEvents_SkipsUnrecognizedShapes(t *testing.T) {
	events := []agent.Event{
		{}, // no stage set
		agentEvent(nil, textMsg("kept")),
		{},
	}

	result := agent.ParseEvents(events)

	if result.Response != "kept" {
		t.Errorf("Response = %q, want %q", result.Response, "kept")
	}
}

func TestParseEvents_TrimsSurroundingWhitespace(t *testing.T) {
	events := []agent.Event{
		agentEvent(textMsg("  \n"), textMsg("answer"), textMsg("  ")),
	}

	result := agent.ParseEvents(events)

	if result.Response != "answer" {
		t.Errorf("Response = %q, want %q", result.Response, "answer")
	}
}

func TestParseEvents_ToolRequestWithEmptyNameIgnored(t *testing.T) {
	events := []agent.Event{
		agentEvent(toolMsg("hello", "")),
	}

	result := agent.ParseEvents(events)

	if result.ToolCalled != agent.NoTool {
		t.Errorf("ToolCalled = %q, want %q", result.ToolCalled, agent.NoTool)
	}
	if result.Response != "hello" {
		t.Errorf("Response = %q, want %q", result.Response, "hello")
	}
}
