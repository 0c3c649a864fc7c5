package agent

import (
	"strings"

	"github.com/nelssec/friday-agent/internal/llm"
)

// NoTool is the ToolCalled value for turns answered without any tool.
const NoTool = "None"

// Message is a single assistant- or tool-authored entry inside an event.
// An assistant message may carry pending tool requests alongside text; a
// tool-result message carries only the tool's returned text.
type Message struct {
	Role      string
	Content   string
	ToolCalls []llm.ToolCall
}

// StateUpdate is the payload of one execution-stage update.
type StateUpdate struct {
	Messages []*Message
}

// Event is one incremental update emitted while a turn runs. Depending on
// which stage produced it, messages surface under Root or Agent; at most
// one of the two is set. Events carrying neither are skipped by the parser
// rather than failing the turn.
type Event struct {
	Root  *StateUpdate
	Agent *StateUpdate
}

func (e Event) messages() []*Message {
	switch {
	case e.Root != nil:
		return e.Root.Messages
	case e.Agent != nil:
		return e.Agent.Messages
	}
	return nil
}

// TurnResult is what one user turn produces: the full text to show and the
// name of the tool that was invoked, or NoTool.
type TurnResult struct {
	Response   string
	ToolCalled string
}

// ParseEvents recovers a TurnResult from an event stream in arrival order.
// The first pending tool request observed wins; text fragments from every
// message, tool results included, are concatenated with no separator and
// trimmed of surrounding whitespace.
func ParseEvents(events []Event) TurnResult {
	result := TurnResult{ToolCalled: NoTool}

	var buf strings.Builder
	for _, event := range events {
		for _, msg := range event.messages() {
			if msg == nil {
				continue
			}

			if result.ToolCalled == NoTool && len(msg.ToolCalls) > 0 && msg.ToolCalls[0].Name != "" {
				result.ToolCalled = msg.ToolCalls[0].Name
			}

			buf.WriteString(msg.Content)
		}
	}

	result.Response = strings.TrimSpace(buf.String())
	return result
}
