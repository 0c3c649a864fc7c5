package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nelssec/friday-agent/internal/llm"
	"github.com/rs/zerolog"
)

const (
	ToolAskSpecialist = "ask_mental_health_specialist"
	ToolCallEmergency = "call_emergency_services"
)

const specialistFallback = "I'm having technical difficulties right now, but I want you to know your feelings matter. Please try again later."

const therapistSystemPrompt = `You are Dr Julie Stark, a warm and experienced clinical psychologist.
Respond to patients with:

1. Emotional attunement ("I can see that you're feeling...")
2. Gentle normalization ("Many people feel this way...")
3. Practical guidance ("What sometimes helps is...")
4. Strengths-focused support ("I notice how you're...")

Key principles:
- Never use brackets or labels
- Blend elements seamlessly
- Vary sentence structure
- Use natural transitions
- Mirror the user's language and tone
- Use a warm, empathetic tone
- Always keep the conversation going by asking open-ended questions to explore root causes`

// Dialer places one outbound voice call and returns the provider's call
// identifier. telephony.Client is the production implementation.
type Dialer interface {
	Call(ctx context.Context, to string) (string, error)
}

// ToolHandler executes the two tools the dispatch model may request. Every
// execution returns user-facing text; failures are folded into the text
// because the result becomes part of the turn's transcript, and the
// emergency path in particular must never yield a blank answer.
type ToolHandler struct {
	specialist llm.Client
	dialer     Dialer
	logger     zerolog.Logger
}

// NewToolHandler wires the therapist model client and the telephony dialer.
// Either may be nil when unconfigured; execution then degrades to visible
// not-configured messages instead of failing.
func NewToolHandler(specialist llm.Client, dialer Dialer, logger zerolog.Logger) *ToolHandler {
	return &ToolHandler{
		specialist: specialist,
		dialer:     dialer,
		logger:     logger,
	}
}

type specialistArgs struct {
	Prompt string `json:"prompt"`
}

type emergencyArgs struct {
	Phone string `json:"phone"`
}

func (h *ToolHandler) Execute(ctx context.Context, name string, input json.RawMessage) string {
	switch name {
	case ToolAskSpecialist:
		var args specialistArgs
		if err := json.Unmarshal(input, &args); err != nil {
			h.logger.Warn().Err(err).Msg("bad specialist tool arguments")
		}
		return h.askSpecialist(ctx, args.Prompt)
	case ToolCallEmergency:
		var args emergencyArgs
		if err := json.Unmarshal(input, &args); err != nil {
			h.logger.Warn().Err(err).Msg("bad emergency tool arguments")
		}
		return h.callEmergency(ctx, args.Phone)
	default:
		h.logger.Warn().Str("tool", name).Msg("model requested unknown tool")
		return fmt.Sprintf("The requested action %q is not available.", name)
	}
}

func (h *ToolHandler) askSpecialist(ctx context.Context, prompt string) string {
	if h.specialist == nil {
		return "The assistant is not fully configured for therapeutic responses yet. Please try again after the server is configured."
	}

	resp, err := h.specialist.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, nil, therapistSystemPrompt)
	if err != nil {
		h.logger.Error().Err(err).Msg("specialist model call failed")
		return specialistFallback
	}

	return strings.TrimSpace(resp.Content)
}

func (h *ToolHandler) callEmergency(ctx context.Context, phone string) string {
	if h.dialer == nil {
		return "An emergency call could not be initiated because telephony is not configured. Please dial your local emergency number immediately."
	}

	sid, err := h.dialer.Call(ctx, phone)
	if err != nil {
		h.logger.Error().Err(err).Str("phone", phone).Msg("emergency call failed")
		return fmt.Sprintf("The emergency call attempt failed (error: %v). Please dial your local emergency number immediately.", err)
	}

	h.logger.Info().Str("phone", phone).Str("sid", sid).Msg("emergency call placed")
	return fmt.Sprintf("A critical situation alert has been triggered. The emergency helpline is now calling %s. Call SID: %s. Please stay safe and on the line.", phone, sid)
}

func getToolDefinitions() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		{
			Name:        ToolAskSpecialist,
			Description: "Generate a therapeutic response using a clinical-psychologist persona. Use this ONLY for emotional, mental health, or personal well-being related queries.",
			Parameters: map[string]interface{}{
				"prompt": map[string]interface{}{
					"type":        "string",
					"description": "The user's concern, passed through for a therapeutic reply",
				},
			},
			Required: []string{"prompt"},
		},
		{
			Name:        ToolCallEmergency,
			Description: "Place an emergency call to the user's phone number. Use this ONLY if the user expresses suicidal thoughts, self-harm, immediate danger, or a mental health crisis.",
			Parameters: map[string]interface{}{
				"phone": map[string]interface{}{
					"type":        "string",
					"description": "The exact phone number to dial, as provided in the session context",
				},
			},
			Required: []string{"phone"},
		},
	}
}
