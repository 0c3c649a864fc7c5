package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/nelssec/friday-agent/internal/agent"
)

const (
	ModeChat  = "chat"
	ModeVoice = "voice"
)

// modelUnreachableResponse is shown instead of failing the turn when the
// dispatch model call errors mid-request.
const modelUnreachableResponse = "I'm having trouble reaching my language model right now. Please try again in a moment."

type StartSessionRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type StartSessionResponse struct {
	SessionID string `json:"session_id"`
	Greeting  string `json:"greeting"`
}

type AskRequest struct {
	Message      string `json:"message"`
	SessionID    string `json:"session_id"`
	InputMode    string `json:"input_mode"`
	ResponseMode string `json:"response_mode,omitempty"`
}

type AskResponse struct {
	Response     string `json:"response"`
	ToolCalled   string `json:"tool_called"`
	ResponseMode string `json:"response_mode"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		s.writeError(w, "name is required", http.StatusBadRequest)
		return
	}

	sessionID := uuid.New().String()
	s.store.Create(sessionID, req.Name, req.Phone)

	greeting := fmt.Sprintf(
		"Hello %s, I'm Friday. We can communicate in two modes: chat or voice. "+
			"You can send messages by typing or speaking, and choose how you'd like me to respond.",
		req.Name)

	s.writeJSON(w, StartSessionResponse{
		SessionID: sessionID,
		Greeting:  greeting,
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Message == "" {
		s.writeError(w, "message is required", http.StatusBadRequest)
		return
	}
	if !validMode(req.InputMode) {
		s.writeError(w, "input_mode must be \"chat\" or \"voice\"", http.StatusBadRequest)
		return
	}
	if req.ResponseMode != "" && !validMode(req.ResponseMode) {
		s.writeError(w, "response_mode must be \"chat\" or \"voice\"", http.StatusBadRequest)
		return
	}

	// Unknown sessions degrade to anonymous defaults instead of failing.
	name := "there"
	phone := ""
	if sess := s.store.Get(req.SessionID); sess != nil {
		name = sess.Name
		phone = sess.Phone
	}

	responseMode := req.ResponseMode
	if responseMode == "" {
		responseMode = req.InputMode
	}

	result, err := s.agent.Respond(r.Context(), agent.Turn{
		Message:        req.Message,
		SessionContext: SessionContext(name, phone),
	})
	if err != nil {
		if errors.Is(err, agent.ErrNoClient) {
			s.logger.Error().Err(err).Msg("no model client configured")
			s.writeError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}

		s.logger.Error().Err(err).Msg("turn failed")
		s.writeJSON(w, AskResponse{
			Response:     modelUnreachableResponse,
			ToolCalled:   agent.NoTool,
			ResponseMode: responseMode,
		})
		return
	}

	s.writeJSON(w, AskResponse{
		Response:     result.Response,
		ToolCalled:   result.ToolCalled,
		ResponseMode: responseMode,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// SessionContext builds the per-turn instruction fragment that tells the
// dispatch model who it is talking to. The phone number is embedded
// verbatim so the emergency tool dials exactly what was registered.
func SessionContext(name, phone string) string {
	return fmt.Sprintf(
		"User name: %s. User phone: %s. "+
			"When using call_emergency_services(phone), always pass this exact phone number: %s. "+
			"Agent name is Friday.",
		name, phone, phone)
}

func validMode(mode string) bool {
	return mode == ModeChat || mode == ModeVoice
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
