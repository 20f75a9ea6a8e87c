package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
	"github.com/carlwahlen/ai-navigation-api/internal/domain/providers"
)

// KeywordDetector is the built-in rule-based intent classifier. It is the
// fallback when no external intent service is configured and when the
// external service is unreachable.
type KeywordDetector struct{}

// NewKeywordDetector creates the rule-based detector.
func NewKeywordDetector() providers.IntentProvider {
	return &KeywordDetector{}
}

var (
	contactKeywords = []string{"contact", "support", "help me", "speak", "talk to", "call", "phone", "email", "agent", "human"}
	statusKeywords  = []string{"status", "track", "tracking", "progress", "where is my", "when will"}
	infoKeywords    = []string{"how", "what", "where", "why", "about", "find", "information", "guide"}
)

// DetectIntent classifies the query by keyword match. Unmatched queries fall
// back to find_information with low confidence rather than failing.
func (d *KeywordDetector) DetectIntent(ctx context.Context, input string, ic providers.IntentContext) (*providers.IntentDetection, error) {
	normalized := entities.NormalizeQuery(input)

	if matched := matchKeyword(normalized, contactKeywords); matched != "" {
		return &providers.IntentDetection{
			Intent:     entities.IntentContactSupport,
			Confidence: 0.9,
			Reasoning:  fmt.Sprintf("matched keyword %q", matched),
		}, nil
	}

	if matched := matchKeyword(normalized, statusKeywords); matched != "" {
		return &providers.IntentDetection{
			Intent:     entities.IntentCheckStatus,
			Confidence: 0.85,
			Reasoning:  fmt.Sprintf("matched keyword %q", matched),
		}, nil
	}

	if matched := matchKeyword(normalized, infoKeywords); matched != "" {
		return &providers.IntentDetection{
			Intent:     entities.IntentFindInformation,
			Confidence: 0.8,
			Reasoning:  fmt.Sprintf("matched keyword %q", matched),
		}, nil
	}

	return &providers.IntentDetection{
		Intent:     entities.IntentFindInformation,
		Confidence: 0.5,
		Reasoning:  "no keyword match, defaulting to information lookup",
	}, nil
}

// GenerateResponse produces the assistant message for a navigation result
// from fixed templates.
func (d *KeywordDetector) GenerateResponse(ctx context.Context, prompt providers.AssistantPrompt) (string, error) {
	if prompt.CurrentStep == nil {
		return "I could not find a matching flow for that. Could you rephrase your question?", nil
	}

	step := prompt.CurrentStep
	switch step.Type {
	case entities.StepTypeLogin:
		return fmt.Sprintf("You need to log in first. %s", step.Description), nil
	case entities.StepTypeForm:
		return fmt.Sprintf("Please fill in %s to continue.", step.Title), nil
	case entities.StepTypeSummary:
		return fmt.Sprintf("You're all set: %s.", step.Title), nil
	default:
		if prompt.Flow != nil {
			return fmt.Sprintf("Here's %s, part of %s.", step.Title, prompt.Flow.Name), nil
		}
		return fmt.Sprintf("Here's %s.", step.Title), nil
	}
}

func matchKeyword(normalized string, keywords []string) string {
	for _, kw := range keywords {
		if strings.Contains(normalized, kw) {
			return kw
		}
	}
	return ""
}
