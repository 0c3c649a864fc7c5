package agent_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nelssec/friday-agent/internal/agent"
	"github.com/nelssec/friday-agent/internal/llm"
	"github.com/rs/zerolog"
)

func newTestAgent(classifier llm.Client, specialist llm.Client, dialer agent.Dialer) *agent.Agent {
	handler := agent.NewToolHandler(specialist, dialer, zerolog.Nop())
	return agent.New(llm.ForceClient(classifier), handler, zerolog.Nop())
}

func TestRespond_DirectAnswer(t *testing.T) {
	classifier := &fakeClient{resp: &llm.Response{Content: "Mars is cold."}}
	ag := newTestAgent(classifier, nil, nil)

	result, err := ag.Respond(context.Background(), agent.Turn{Message: "What's the weather on Mars?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ToolCalled != agent.NoTool {
		t.Errorf("ToolCalled = %q, want %q", result.ToolCalled, agent.NoTool)
	}
	if result.Response != "Mars is cold." {
		t.Errorf("Response = %q", result.Response)
	}
}

func TestRespond_SessionContextReachesModel(t *testing.T) {
	classifier := &fakeClient{resp: &llm.Response{Content: "ok"}}
	ag := newTestAgent(classifier, nil, nil)

	_, err := ag.Respond(context.Background(), agent.Turn{
		Message:        "hello",
		SessionContext: "User name: Ada. User phone: +1555.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(classifier.gotSystem, "User phone: +1555.") {
		t.Errorf("system prompt missing session context: %q", classifier.gotSystem)
	}
	if !strings.Contains(classifier.gotSystem, "Friday") {
		t.Errorf("system prompt missing instruction text: %q", classifier.gotSystem)
	}
	if len(classifier.gotTools) != 2 {
		t.Errorf("classifier got %d tool definitions, want 2", len(classifier.gotTools))
	}
}

func TestRespond_TherapyToolExecuted(t *testing.T) {
	classifier := &fakeClient{resp: &llm.Response{
		ToolCalls: []llm.ToolCall{{
			ID:    "t1",
			Name:  agent.ToolAskSpecialist,
			Input: []byte(`{"prompt":"I feel low"}`),
		}},
	}}
	specialist := &fakeClient{resp: &llm.Response{Content: "Many people feel this way."}}
	ag := newTestAgent(classifier, specialist, nil)

	result, err := ag.Respond(context.Background(), agent.Turn{Message: "I feel low"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ToolCalled != agent.ToolAskSpecialist {
		t.Errorf("ToolCalled = %q, want %q", result.ToolCalled, agent.ToolAskSpecialist)
	}
	if result.Response != "Many people feel this way." {
		t.Errorf("Response = %q", result.Response)
	}
	if len(specialist.gotMessages) != 1 || specialist.gotMessages[0].Content != "I feel low" {
		t.Errorf("specialist received %+v", specialist.gotMessages)
	}
}

func TestRespond_EmergencyToolResultAccumulated(t *testing.T) {
	classifier := &fakeClient{resp: &llm.Response{
		Content: "I'm getting help right away. ",
		ToolCalls: []llm.ToolCall{{
			ID:    "t1",
			Name:  agent.ToolCallEmergency,
			Input: []byte(`{"phone":"+15550001111"}`),
		}},
	}}
	dialer := &fakeDialer{sid: "CA42"}
	ag := newTestAgent(classifier, nil, dialer)

	result, err := ag.Respond(context.Background(), agent.Turn{Message: "I want to end it"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ToolCalled != agent.ToolCallEmergency {
		t.Errorf("ToolCalled = %q, want %q", result.ToolCalled, agent.ToolCallEmergency)
	}
	if !strings.HasPrefix(result.Response, "I'm getting help right away.") {
		t.Errorf("Response = %q, want assistant text first", result.Response)
	}
	if !strings.Contains(result.Response, "CA42") {
		t.Errorf("Response = %q, want tool result text accumulated", result.Response)
	}
	if dialer.gotTo != "+15550001111" {
		t.Errorf("dialed %q", dialer.gotTo)
	}
}

func TestRespond_NoClient(t *testing.T) {
	handler := agent.NewToolHandler(nil, nil, zerolog.Nop())
	ag := agent.New(llm.ForceClient(nil), handler, zerolog.Nop())

	_, err := ag.Respond(context.Background(), agent.Turn{Message: "hello"})

	if !errors.Is(err, agent.ErrNoClient) {
		t.Errorf("err = %v, want ErrNoClient", err)
	}
}

// fallbackRouter routes every query to its local client and exposes a
// cloud client for the retry path, like the hybrid router does.
type fallbackRouter struct {
	local llm.Client
	cloud llm.Client
}

func (r *fallbackRouter) Route(query string) llm.Client { return r.local }
func (r *fallbackRouter) GetCloud() llm.Client          { return r.cloud }

func TestRespond_LocalFailureFallsBackToCloud(t *testing.T) {
	local := &fakeClient{err: errors.New("ollama unreachable")}
	cloud := &fakeClient{resp: &llm.Response{Content: "answered by cloud"}}
	handler := agent.NewToolHandler(nil, nil, zerolog.Nop())
	ag := agent.New(&fallbackRouter{local: local, cloud: cloud}, handler, zerolog.Nop())

	result, err := ag.Respond(context.Background(), agent.Turn{
		Message:        "hello",
		SessionContext: "User name: Ada.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Response != "answered by cloud" {
		t.Errorf("Response = %q", result.Response)
	}
	if cloud.calls != 1 {
		t.Errorf("cloud calls = %d, want 1", cloud.calls)
	}
	if cloud.gotSystem != local.gotSystem {
		t.Errorf("retry changed the system prompt: %q vs %q", cloud.gotSystem, local.gotSystem)
	}
	if len(cloud.gotMessages) != 1 || cloud.gotMessages[0].Content != "hello" {
		t.Errorf("retry messages = %+v", cloud.gotMessages)
	}
}

func TestRespond_CloudAlsoFails(t *testing.T) {
	local := &fakeClient{err: errors.New("ollama unreachable")}
	cloud := &fakeClient{err: errors.New("cloud quota exceeded")}
	handler := agent.NewToolHandler(nil, nil, zerolog.Nop())
	ag := agent.New(&fallbackRouter{local: local, cloud: cloud}, handler, zerolog.Nop())

	_, err := ag.Respond(context.Background(), agent.Turn{Message: "hello"})

	if err == nil || !strings.Contains(err.Error(), "cloud quota exceeded") {
		t.Errorf("err = %v, want the cloud failure surfaced", err)
	}
}

func TestRespond_NoRetryWhenCloudAlreadyFailed(t *testing.T) {
	cloud := &fakeClient{err: errors.New("cloud down")}
	handler := agent.NewToolHandler(nil, nil, zerolog.Nop())
	ag := agent.New(&fallbackRouter{local: cloud, cloud: cloud}, handler, zerolog.Nop())

	_, err := ag.Respond(context.Background(), agent.Turn{Message: "hello"})

	if err == nil || !strings.Contains(err.Error(), "cloud down") {
		t.Errorf("err = %v", err)
	}
	if cloud.calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry against the client that just failed)", cloud.calls)
	}
}

func TestRespond_NoRetryWithoutCloud(t *testing.T) {
	local := &fakeClient{err: errors.New("ollama unreachable")}
	handler := agent.NewToolHandler(nil, nil, zerolog.Nop())
	ag := agent.New(&fallbackRouter{local: local}, handler, zerolog.Nop())

	_, err := ag.Respond(context.Background(), agent.Turn{Message: "hello"})

	if err == nil || !strings.Contains(err.Error(), "ollama unreachable") {
		t.Errorf("err = %v, want the local failure surfaced", err)
	}
}

func TestRespond_ModelFailurePropagates(t *testing.T) {
	classifier := &fakeClient{err: errors.New("upstream timeout")}
	ag := newTestAgent(classifier, nil, nil)

	_, err := ag.Respond(context.Background(), agent.Turn{Message: "hello"})

	if err == nil || !strings.Contains(err.Error(), "upstream timeout") {
		t.Errorf("err = %v, want wrapped model error", err)
	}
}
