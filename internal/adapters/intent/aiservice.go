package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
	"github.com/carlwahlen/ai-navigation-api/internal/domain/providers"
	"github.com/carlwahlen/ai-navigation-api/internal/infrastructure/observability"
)

// AIServiceClient calls an external intent-detection service over HTTP and
// falls back to the keyword detector when the service is unreachable or
// returns garbage. Navigation must keep working without the AI service.
type AIServiceClient struct {
	baseURL    string
	httpClient *http.Client
	fallback   providers.IntentProvider
}

// NewAIServiceClient creates a client for the external intent service.
func NewAIServiceClient(baseURL string, timeout time.Duration) providers.IntentProvider {
	return &AIServiceClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		fallback:   NewKeywordDetector(),
	}
}

type detectRequest struct {
	Query            string               `json:"query"`
	TenantID         string               `json:"tenant_id"`
	AvailableIntents []string             `json:"available_intents,omitempty"`
	UserContext      entities.UserContext `json:"user_context"`
}

type detectResponse struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

type respondRequest struct {
	Intent      string               `json:"intent"`
	StepTitle   string               `json:"step_title,omitempty"`
	StepType    string               `json:"step_type,omitempty"`
	FlowName    string               `json:"flow_name,omitempty"`
	UserContext entities.UserContext `json:"user_context"`
}

type respondResponse struct {
	Message string `json:"message"`
}

// DetectIntent asks the external service to classify the query.
func (c *AIServiceClient) DetectIntent(ctx context.Context, input string, ic providers.IntentContext) (*providers.IntentDetection, error) {
	req := detectRequest{
		Query:            input,
		TenantID:         ic.TenantID,
		AvailableIntents: ic.AvailableIntents,
		UserContext:      ic.UserContext,
	}

	out := &detectResponse{}
	if err := c.doJSON(ctx, "/v1/intent/detect", req, out); err != nil {
		c.logFallback(ctx, "intent detection", err)
		return c.fallback.DetectIntent(ctx, input, ic)
	}
	if out.Intent == "" {
		c.logFallback(ctx, "intent detection", fmt.Errorf("empty intent in response"))
		return c.fallback.DetectIntent(ctx, input, ic)
	}

	return &providers.IntentDetection{
		Intent:     out.Intent,
		Confidence: out.Confidence,
		Reasoning:  out.Reasoning,
	}, nil
}

// GenerateResponse asks the external service for the assistant message.
func (c *AIServiceClient) GenerateResponse(ctx context.Context, prompt providers.AssistantPrompt) (string, error) {
	req := respondRequest{
		Intent:      prompt.Intent,
		UserContext: prompt.UserContext,
	}
	if prompt.CurrentStep != nil {
		req.StepTitle = prompt.CurrentStep.Title
		req.StepType = string(prompt.CurrentStep.Type)
	}
	if prompt.Flow != nil {
		req.FlowName = prompt.Flow.Name
	}

	out := &respondResponse{}
	if err := c.doJSON(ctx, "/v1/intent/respond", req, out); err != nil {
		c.logFallback(ctx, "response generation", err)
		return c.fallback.GenerateResponse(ctx, prompt)
	}
	if out.Message == "" {
		return c.fallback.GenerateResponse(ctx, prompt)
	}

	return out.Message, nil
}

func (c *AIServiceClient) doJSON(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("intent service returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *AIServiceClient) logFallback(ctx context.Context, operation string, err error) {
	logger := observability.LoggerFromContext(ctx)
	logger.Warn().Err(err).Str("operation", operation).Msg("intent service unavailable, using keyword fallback")
}
