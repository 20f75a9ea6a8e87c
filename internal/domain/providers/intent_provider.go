package providers

import (
	"context"

	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
)

// IntentDetection is the result of classifying a free-text query.
type IntentDetection struct {
	Intent     string
	Confidence float64
	Reasoning  string
}

// IntentContext carries the tenant data an intent detector may use.
type IntentContext struct {
	TenantID         string
	AvailableIntents []string
	ContentIndex     []*entities.ContentItem
	UserContext      entities.UserContext
}

// AssistantPrompt is the input for generating the assistant message shown
// alongside a navigation result.
type AssistantPrompt struct {
	Intent       string
	CurrentStep  *entities.Step
	Flow         *entities.Flow
	UserContext  entities.UserContext
	ContentIndex []*entities.ContentItem
}

// IntentProvider abstracts the intent classifier: the built-in keyword
// detector, or an external AI service.
type IntentProvider interface {
	DetectIntent(ctx context.Context, input string, ic IntentContext) (*IntentDetection, error)
	GenerateResponse(ctx context.Context, prompt AssistantPrompt) (string, error)
}
