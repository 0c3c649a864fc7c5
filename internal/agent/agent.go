package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/nelssec/friday-agent/internal/llm"
	"github.com/rs/zerolog"
)

// ErrNoClient means no language model provider could be constructed at all.
// This is the only tool-adjacent failure that blocks a turn; callers should
// surface it as a configuration error before any dispatch happens.
var ErrNoClient = errors.New("no LLM client available - set ANTHROPIC_API_KEY or ensure Ollama is running")

// Turn is the ephemeral input for one user message.
type Turn struct {
	Message        string
	SessionContext string
}

type Agent struct {
	router       llm.Router
	toolHandler  *ToolHandler
	logger       zerolog.Logger
	systemPrompt string
	tools        []llm.ToolDefinition
}

func New(router llm.Router, toolHandler *ToolHandler, logger zerolog.Logger) *Agent {
	return &Agent{
		router:       router,
		toolHandler:  toolHandler,
		logger:       logger,
		systemPrompt: getSystemPrompt(),
		tools:        getToolDefinitions(),
	}
}

// Respond runs one full turn: a single classification call to the dispatch
// model, execution of whatever tools it requested, and recovery of the
// final answer from the emitted event stream.
func (a *Agent) Respond(ctx context.Context, turn Turn) (TurnResult, error) {
	client := a.router.Route(turn.Message)
	if client == nil {
		return TurnResult{}, ErrNoClient
	}

	a.logger.Info().Str("client", client.Name()).Str("query", truncate(turn.Message, 50)).Msg("dispatching turn")

	events, err := a.runTurn(ctx, client, turn)
	if err != nil {
		return TurnResult{}, err
	}

	return ParseEvents(events), nil
}

// runTurn produces the turn's ordered event stream. Assistant updates are
// emitted under the Agent stage, tool results under the Root stage.
func (a *Agent) runTurn(ctx context.Context, client llm.Client, turn Turn) ([]Event, error) {
	system := a.systemPrompt
	if turn.SessionContext != "" {
		system += "\n\n" + turn.SessionContext
	}

	messages := []llm.Message{{Role: "user", Content: turn.Message}}

	resp, err := client.Chat(ctx, messages, a.tools, system)
	if err != nil {
		resp, err = a.retryOnCloud(ctx, client, messages, system, err)
		if err != nil {
			return nil, fmt.Errorf("LLM error: %w", err)
		}
	}

	events := []Event{{
		Agent: &StateUpdate{Messages: []*Message{{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		}}},
	}}

	for _, tc := range resp.ToolCalls {
		a.logger.Info().Str("tool", tc.Name).Msg("executing tool")

		result := a.toolHandler.Execute(ctx, tc.Name, tc.Input)
		events = append(events, Event{
			Root: &StateUpdate{Messages: []*Message{{
				Role:    "tool",
				Content: result,
			}}},
		})
	}

	return events, nil
}

// cloudFallback is the slice of the router the retry path needs.
// HybridRouter implements it; routers that cannot fall back simply don't.
type cloudFallback interface {
	GetCloud() llm.Client
}

func (a *Agent) retryOnCloud(ctx context.Context, failed llm.Client, messages []llm.Message, system string, callErr error) (*llm.Response, error) {
	fallback, ok := a.router.(cloudFallback)
	if !ok {
		return nil, callErr
	}

	cloud := fallback.GetCloud()
	if cloud == nil || failed == cloud {
		return nil, callErr
	}

	a.logger.Warn().Err(callErr).Msg("local model failed, falling back to cloud")
	return cloud.Chat(ctx, messages, a.tools, system)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func getSystemPrompt() string {
	return `You are "Friday", an AI mental health assistant with three modes of operation:
1. **General Q&A Mode**: If the user is asking a factual, casual, or non-emotional question, respond directly without using any tools.
2. **Therapeutic Mode**: If the user shares emotional concerns, mental health struggles, or seeks personal guidance, use the ` + "`ask_mental_health_specialist`" + ` tool.
3. **Emergency Mode**: If the user mentions suicidal thoughts, self-harm, or being in immediate danger, IMMEDIATELY call the ` + "`call_emergency_services`" + ` tool.

Rules for Decision Making:
- Always first assess the emotional and safety level of the user's message.
- If the situation involves emotional distress but not immediate danger, use ask_mental_health_specialist.
- If there are any indicators of self-harm, suicide, or danger to self/others, use call_emergency_services without hesitation.
- Otherwise, answer directly as a friendly and helpful AI.
- Never request more than one tool in a single turn.

Tone Guidelines:
- Empathetic, warm, and understanding for all emotional interactions.
- Concise and clear for general queries.
- Urgent and safety-focused for emergencies.

You have access to:
- ask_mental_health_specialist(prompt: string)
- call_emergency_services(phone: string)`
}
