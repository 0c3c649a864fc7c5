package llm

import (
	"context"
	"strings"
)

type HybridRouter struct {
	localClient *OllamaClient
	cloudClient *ClaudeClient
	preferLocal bool
	localAvail  bool
}

func NewHybridRouter(ollamaURL, ollamaModel, claudeAPIKey, claudeModel string, preferLocal bool) *HybridRouter {
	router := &HybridRouter{
		preferLocal: preferLocal,
	}

	if ollamaURL != "" || preferLocal {
		router.localClient = NewOllamaClient(ollamaURL, ollamaModel)
		router.localAvail = router.localClient.IsAvailable(context.Background())
	}

	if claudeAPIKey != "" {
		router.cloudClient = NewClaudeClient(claudeAPIKey, claudeModel)
	}

	return router
}

func (r *HybridRouter) Route(query string) Client {
	// Safety-sensitive messages always go to the strongest available model,
	// even when the user asked to prefer the local one.
	if r.isHighRiskMessage(query) && r.cloudClient != nil {
		return r.cloudClient
	}

	if r.preferLocal && r.localAvail && r.localClient != nil {
		return r.localClient
	}

	if r.cloudClient != nil {
		return r.cloudClient
	}

	if r.localClient != nil {
		return r.localClient
	}

	return nil
}

func (r *HybridRouter) GetLocal() Client {
	if r.localClient != nil && r.localAvail {
		return r.localClient
	}
	return nil
}

func (r *HybridRouter) GetCloud() Client {
	if r.cloudClient == nil {
		return nil
	}
	return r.cloudClient
}

// Select narrows the router to a single provider. "local" and "cloud"
// pin the corresponding client; anything else ("auto", "") keeps the
// hybrid routing behavior.
func (r *HybridRouter) Select(provider string) Router {
	switch strings.ToLower(provider) {
	case "local":
		return ForceClient(r.GetLocal())
	case "cloud":
		return ForceClient(r.GetCloud())
	default:
		return r
	}
}

func (r *HybridRouter) LocalAvailable() bool {
	return r.localAvail
}

func (r *HybridRouter) isHighRiskMessage(query string) bool {
	query = strings.ToLower(query)

	riskIndicators := []string{
		"suicide",
		"suicidal",
		"kill myself",
		"end my life",
		"self-harm",
		"self harm",
		"hurt myself",
		"harm myself",
		"overdose",
		"don't want to live",
		"do not want to live",
		"no reason to live",
		"want to die",
		"in danger",
	}

	for _, indicator := range riskIndicators {
		if strings.Contains(query, indicator) {
			return true
		}
	}

	return false
}

type ForcedClient struct {
	client Client
}

func ForceClient(c Client) *ForcedClient {
	return &ForcedClient{client: c}
}

func (f *ForcedClient) Route(query string) Client {
	return f.client
}
