package services

import (
	"context"
	"sort"
	"strings"

	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
	"github.com/carlwahlen/ai-navigation-api/internal/domain/providers"
	"github.com/carlwahlen/ai-navigation-api/internal/domain/repositories"
	"github.com/carlwahlen/ai-navigation-api/internal/infrastructure/observability"
	apperrors "github.com/carlwahlen/ai-navigation-api/pkg/errors"
)

const (
	intentMatchScore  = 5.0
	keywordMatchScore = 2.0
	maxPriorityBoost  = 10.0
)

// NavigateInput is a user's free-text navigation request.
type NavigateInput struct {
	TenantID  string               `json:"tenant_id"`
	Query     string               `json:"query"`
	SessionID string               `json:"session_id,omitempty"`
	Context   entities.UserContext `json:"context"`
	Track     bool                 `json:"track"`
}

// ContinueInput advances an existing session to its next step.
type ContinueInput struct {
	TenantID  string `json:"tenant_id"`
	SessionID string `json:"session_id"`
}

// NavigationResult is what the user gets back: where to go and why.
type NavigationResult struct {
	SessionID  string         `json:"session_id"`
	Matched    bool           `json:"matched"`
	FlowID     string         `json:"flow_id,omitempty"`
	FlowName   string         `json:"flow_name,omitempty"`
	Intent     string         `json:"intent"`
	Confidence float64        `json:"confidence"`
	Step       *entities.Step `json:"step,omitempty"`
	TargetURL  string         `json:"target_url,omitempty"`
	Message    string         `json:"message"`
	Completed  bool           `json:"completed"`
}

// NavigationService routes a free-text query to a flow step. Flow matching
// combines intent, keyword overlap and the historical priority score of the
// query, so the router gets better as usage accumulates.
type NavigationService struct {
	sessions repositories.SessionRepository
	flows    repositories.FlowRepository
	content  repositories.ContentRepository
	queries  *QueryService
	intents  providers.IntentProvider
	tracker  *QueryTracker
}

// NewNavigationService creates a new navigation service. tracker may be nil
// to disable usage tracking entirely.
func NewNavigationService(
	sessions repositories.SessionRepository,
	flows repositories.FlowRepository,
	content repositories.ContentRepository,
	queries *QueryService,
	intents providers.IntentProvider,
	tracker *QueryTracker,
) *NavigationService {
	return &NavigationService{
		sessions: sessions,
		flows:    flows,
		content:  content,
		queries:  queries,
		intents:  intents,
		tracker:  tracker,
	}
}

// Navigate resolves a query to a flow step and records the routing decision.
func (s *NavigationService) Navigate(ctx context.Context, in NavigateInput) (*NavigationResult, error) {
	if in.TenantID == "" {
		return nil, apperrors.NewValidationError("tenant_id is required")
	}
	if strings.TrimSpace(in.Query) == "" {
		return nil, apperrors.NewValidationError("query is required")
	}

	session, err := s.resolveSession(ctx, in)
	if err != nil {
		return nil, err
	}

	flows, err := s.flows.GetByTenant(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}

	contentIndex, err := s.content.GetByTenant(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}

	detection, err := s.intents.DetectIntent(ctx, in.Query, providers.IntentContext{
		TenantID:         in.TenantID,
		AvailableIntents: availableIntents(flows),
		ContentIndex:     contentIndex,
		UserContext:      in.Context,
	})
	if err != nil {
		return nil, apperrors.NewExternalError("intent detection failed", err)
	}

	flow := s.matchFlow(ctx, in, detection.Intent, flows)
	if flow == nil {
		return s.noMatchResult(ctx, session, in, detection, contentIndex)
	}

	step := nextEligibleStep(flow, "", in.Context)
	targetURL := resolveTargetURL(step, contentIndex)

	message, err := s.intents.GenerateResponse(ctx, providers.AssistantPrompt{
		Intent:       detection.Intent,
		CurrentStep:  step,
		Flow:         flow,
		UserContext:  in.Context,
		ContentIndex: contentIndex,
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to generate assistant message")
		message = ""
	}

	session.CurrentFlowID = flow.ID
	if step != nil {
		session.CurrentStepID = step.ID
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	if in.Track && s.tracker != nil {
		s.trackNavigation(ctx, in, detection.Intent, flow.ID, targetURL, session.ID)
	}

	return &NavigationResult{
		SessionID:  session.ID,
		Matched:    true,
		FlowID:     flow.ID,
		FlowName:   flow.Name,
		Intent:     detection.Intent,
		Confidence: detection.Confidence,
		Step:       step,
		TargetURL:  targetURL,
		Message:    message,
	}, nil
}

// Continue moves a session to the next eligible step of its current flow.
func (s *NavigationService) Continue(ctx context.Context, in ContinueInput) (*NavigationResult, error) {
	if in.TenantID == "" {
		return nil, apperrors.NewValidationError("tenant_id is required")
	}
	if in.SessionID == "" {
		return nil, apperrors.NewValidationError("session_id is required")
	}

	session, err := s.sessions.GetByID(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if session.TenantID != in.TenantID {
		return nil, apperrors.NewNotFoundError("session not found")
	}
	if session.CurrentFlowID == "" {
		return nil, apperrors.NewValidationError("session has no active flow")
	}

	flows, err := s.flows.GetByTenant(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}

	var flow *entities.Flow
	for _, f := range flows {
		if f.ID == session.CurrentFlowID {
			flow = f
			break
		}
	}
	if flow == nil {
		return nil, apperrors.NewNotFoundError("flow not found")
	}

	contentIndex, err := s.content.GetByTenant(ctx, session.TenantID)
	if err != nil {
		return nil, err
	}

	step := nextEligibleStep(flow, session.CurrentStepID, session.Context)
	if step == nil {
		session.Completed = true
		if err := s.sessions.Update(ctx, session); err != nil {
			return nil, err
		}
		return &NavigationResult{
			SessionID: session.ID,
			Matched:   true,
			FlowID:    flow.ID,
			FlowName:  flow.Name,
			Intent:    flow.Intent,
			Completed: true,
			Message:   "You've completed " + flow.Name + ".",
		}, nil
	}

	targetURL := resolveTargetURL(step, contentIndex)
	message, err := s.intents.GenerateResponse(ctx, providers.AssistantPrompt{
		Intent:       flow.Intent,
		CurrentStep:  step,
		Flow:         flow,
		UserContext:  session.Context,
		ContentIndex: contentIndex,
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to generate assistant message")
		message = ""
	}

	session.CurrentStepID = step.ID
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	return &NavigationResult{
		SessionID:  session.ID,
		Matched:    true,
		FlowID:     flow.ID,
		FlowName:   flow.Name,
		Intent:     flow.Intent,
		Confidence: 1,
		Step:       step,
		TargetURL:  targetURL,
		Message:    message,
	}, nil
}

func (s *NavigationService) resolveSession(ctx context.Context, in NavigateInput) (*entities.Session, error) {
	if in.SessionID != "" {
		session, err := s.sessions.GetByID(ctx, in.SessionID)
		if err == nil && session.TenantID == in.TenantID {
			session.Context = in.Context
			return session, nil
		}
		if err != nil && !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, err
		}
		// Unknown or foreign session IDs start a fresh session.
	}

	session := &entities.Session{
		TenantID: in.TenantID,
		Context:  in.Context,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// matchFlow scores candidate flows by detected intent, keyword overlap with
// the normalized query, and the priority score of queries previously routed
// to them. The zero-score floor keeps unrelated flows from winning by
// default.
func (s *NavigationService) matchFlow(ctx context.Context, in NavigateInput, intent string, flows []*entities.Flow) *entities.Flow {
	normalized := entities.NormalizeQuery(in.Query)

	boostFlowID, boost := s.priorityBoost(ctx, in.TenantID, normalized)

	var best *entities.Flow
	var bestScore float64
	for _, flow := range flows {
		if !flow.Enabled || !flow.Conditions.Matches(in.Context) {
			continue
		}

		var score float64
		if flow.Intent == intent {
			score += intentMatchScore
		}
		for _, kw := range flow.Keywords {
			if kw != "" && strings.Contains(normalized, strings.ToLower(kw)) {
				score += keywordMatchScore
			}
		}
		if flow.ID == boostFlowID {
			score += boost
		}

		if score > bestScore {
			best = flow
			bestScore = score
		}
	}

	return best
}

// priorityBoost looks up the query's history and boosts the flow it was last
// routed to, capped so history cannot drown out an intent mismatch.
func (s *NavigationService) priorityBoost(ctx context.Context, tenantID, normalized string) (string, float64) {
	freq, err := s.queries.repo.GetFrequencyForQuery(ctx, tenantID, normalized)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to load query history for flow matching")
		return "", 0
	}
	if freq == nil || freq.FlowID == "" {
		return "", 0
	}

	boost := freq.Priority()
	if boost > maxPriorityBoost {
		boost = maxPriorityBoost
	}
	return freq.FlowID, boost
}

func (s *NavigationService) noMatchResult(ctx context.Context, session *entities.Session, in NavigateInput, detection *providers.IntentDetection, contentIndex []*entities.ContentItem) (*NavigationResult, error) {
	message, err := s.intents.GenerateResponse(ctx, providers.AssistantPrompt{
		Intent:       detection.Intent,
		UserContext:  in.Context,
		ContentIndex: contentIndex,
	})
	if err != nil {
		message = "I could not find a matching flow for that. Could you rephrase your question?"
	}

	return &NavigationResult{
		SessionID:  session.ID,
		Matched:    false,
		Intent:     detection.Intent,
		Confidence: detection.Confidence,
		Message:    message,
	}, nil
}

// trackNavigation records the routing decision as an unconfirmed usage.
// Success stays false until feedback confirms the outcome.
func (s *NavigationService) trackNavigation(ctx context.Context, in NavigateInput, intent, flowID, targetURL, sessionID string) {
	if targetURL == "" {
		targetURL = "/"
	}
	err := s.tracker.Track(ctx, TrackQueryInput{
		TenantID:  in.TenantID,
		Query:     in.Query,
		Intent:    intent,
		FlowID:    flowID,
		TargetURL: targetURL,
		SessionID: sessionID,
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to track navigation query")
	}
}

// nextEligibleStep returns the first step after afterStepID, in order, whose
// conditions admit the user context. An empty afterStepID starts from the
// beginning.
func nextEligibleStep(flow *entities.Flow, afterStepID string, uc entities.UserContext) *entities.Step {
	steps := make([]entities.Step, len(flow.Steps))
	copy(steps, flow.Steps)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })

	passed := afterStepID == ""
	for i := range steps {
		if !passed {
			if steps[i].ID == afterStepID {
				passed = true
			}
			continue
		}
		if steps[i].Eligible(uc) {
			return &steps[i]
		}
	}
	return nil
}

// resolveTargetURL prefers the step's direct URL, then its content item.
func resolveTargetURL(step *entities.Step, contentIndex []*entities.ContentItem) string {
	if step == nil {
		return ""
	}
	if step.DirectURL != "" {
		return step.DirectURL
	}
	if step.ContentItemID != "" {
		for _, item := range contentIndex {
			if item.ID == step.ContentItemID {
				return item.URL
			}
		}
	}
	return ""
}

func availableIntents(flows []*entities.Flow) []string {
	seen := make(map[string]struct{})
	var intents []string
	for _, f := range flows {
		if f.Intent == "" {
			continue
		}
		if _, ok := seen[f.Intent]; ok {
			continue
		}
		seen[f.Intent] = struct{}{}
		intents = append(intents, f.Intent)
	}
	return intents
}
