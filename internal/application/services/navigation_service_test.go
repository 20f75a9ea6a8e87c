package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
	"github.com/carlwahlen/ai-navigation-api/internal/domain/providers"
	apperrors "github.com/carlwahlen/ai-navigation-api/pkg/errors"
)

type mockSessionRepository struct {
	mock.Mock
}

func (m *mockSessionRepository) Create(ctx context.Context, session *entities.Session) error {
	args := m.Called(ctx, session)
	if session.ID == "" {
		session.ID = "session-new"
	}
	return args.Error(0)
}

func (m *mockSessionRepository) GetByID(ctx context.Context, id string) (*entities.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Session), args.Error(1)
}

func (m *mockSessionRepository) Update(ctx context.Context, session *entities.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

type mockFlowRepository struct {
	mock.Mock
}

func (m *mockFlowRepository) GetByTenant(ctx context.Context, tenantID string) ([]*entities.Flow, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Flow), args.Error(1)
}

type mockContentRepository struct {
	mock.Mock
}

func (m *mockContentRepository) GetByTenant(ctx context.Context, tenantID string) ([]*entities.ContentItem, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ContentItem), args.Error(1)
}

func (m *mockContentRepository) BulkUpsert(ctx context.Context, tenantID string, items []*entities.ContentItem) error {
	args := m.Called(ctx, tenantID, items)
	return args.Error(0)
}

type mockIntentProvider struct {
	mock.Mock
}

func (m *mockIntentProvider) DetectIntent(ctx context.Context, input string, ic providers.IntentContext) (*providers.IntentDetection, error) {
	args := m.Called(ctx, input, ic)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.IntentDetection), args.Error(1)
}

func (m *mockIntentProvider) GenerateResponse(ctx context.Context, prompt providers.AssistantPrompt) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func resetFlow() *entities.Flow {
	return &entities.Flow{
		ID:       "flow-reset",
		TenantID: "tenant-1",
		Name:     "Reset password",
		Intent:   entities.IntentFindInformation,
		Keywords: []string{"password", "reset"},
		Enabled:  true,
		Steps: []entities.Step{
			{ID: "step-guide", Type: entities.StepTypeContent, Title: "Password reset guide", ContentItemID: "content-guide", Order: 1},
			{ID: "step-form", Type: entities.StepTypeForm, Title: "Reset form", DirectURL: "/account/reset", Order: 2},
		},
	}
}

func contactFlow() *entities.Flow {
	return &entities.Flow{
		ID:       "flow-contact",
		TenantID: "tenant-1",
		Name:     "Contact support",
		Intent:   entities.IntentContactSupport,
		Keywords: []string{"contact", "support"},
		Enabled:  true,
		Steps: []entities.Step{
			{ID: "step-contact", Type: entities.StepTypeContent, Title: "Contact page", DirectURL: "/contact", Order: 1},
		},
	}
}

func navigationFixture(t *testing.T) (*NavigationService, *mockSessionRepository, *mockFlowRepository, *mockContentRepository, *mockQueryRepository, *mockIntentProvider) {
	t.Helper()
	sessions := new(mockSessionRepository)
	flows := new(mockFlowRepository)
	content := new(mockContentRepository)
	queries := new(mockQueryRepository)
	intents := new(mockIntentProvider)

	service := NewNavigationService(sessions, flows, content, NewQueryService(queries, nil), intents, nil)
	return service, sessions, flows, content, queries, intents
}

func TestNavigationService_Navigate(t *testing.T) {
	t.Run("routes query to keyword-matched flow", func(t *testing.T) {
		service, sessions, flows, content, queries, intents := navigationFixture(t)

		sessions.On("Create", mock.Anything, mock.Anything).Return(nil)
		sessions.On("Update", mock.Anything, mock.Anything).Return(nil)
		flows.On("GetByTenant", mock.Anything, "tenant-1").Return([]*entities.Flow{contactFlow(), resetFlow()}, nil)
		content.On("GetByTenant", mock.Anything, "tenant-1").Return([]*entities.ContentItem{
			{ID: "content-guide", URL: "/help/reset-password", Title: "Password reset guide"},
		}, nil)
		queries.On("GetFrequencyForQuery", mock.Anything, "tenant-1", mock.Anything).Return(nil, nil)
		intents.On("DetectIntent", mock.Anything, mock.Anything, mock.Anything).
			Return(&providers.IntentDetection{Intent: entities.IntentFindInformation, Confidence: 0.8}, nil)
		intents.On("GenerateResponse", mock.Anything, mock.Anything).Return("Here's the guide.", nil)

		result, err := service.Navigate(context.Background(), NavigateInput{
			TenantID: "tenant-1",
			Query:    "how do I reset my password",
		})
		require.NoError(t, err)

		assert.True(t, result.Matched)
		assert.Equal(t, "flow-reset", result.FlowID)
		assert.Equal(t, "step-guide", result.Step.ID)
		assert.Equal(t, "/help/reset-password", result.TargetURL)
		assert.Equal(t, "session-new", result.SessionID)
		assert.Equal(t, "Here's the guide.", result.Message)
	})

	t.Run("query history boosts the previously chosen flow", func(t *testing.T) {
		service, sessions, flows, content, queries, intents := navigationFixture(t)

		// Two flows share the detected intent and neither matches a keyword;
		// history is the tie-breaker.
		a := &entities.Flow{ID: "flow-a", Name: "A", Intent: entities.IntentOther, Enabled: true, Steps: []entities.Step{{ID: "a1", DirectURL: "/a", Order: 1}}}
		b := &entities.Flow{ID: "flow-b", Name: "B", Intent: entities.IntentOther, Enabled: true, Steps: []entities.Step{{ID: "b1", DirectURL: "/b", Order: 1}}}

		sessions.On("Create", mock.Anything, mock.Anything).Return(nil)
		sessions.On("Update", mock.Anything, mock.Anything).Return(nil)
		flows.On("GetByTenant", mock.Anything, "tenant-1").Return([]*entities.Flow{a, b}, nil)
		content.On("GetByTenant", mock.Anything, "tenant-1").Return([]*entities.ContentItem{}, nil)
		queries.On("GetFrequencyForQuery", mock.Anything, "tenant-1", "billing help").
			Return(&entities.QueryFrequency{NormalizedQuery: "billing help", FlowID: "flow-b", Count: 8, SuccessRate: 1.0}, nil)
		intents.On("DetectIntent", mock.Anything, mock.Anything, mock.Anything).
			Return(&providers.IntentDetection{Intent: entities.IntentOther, Confidence: 0.6}, nil)
		intents.On("GenerateResponse", mock.Anything, mock.Anything).Return("ok", nil)

		result, err := service.Navigate(context.Background(), NavigateInput{
			TenantID: "tenant-1",
			Query:    "Billing  HELP",
		})
		require.NoError(t, err)
		assert.Equal(t, "flow-b", result.FlowID)
	})

	t.Run("no candidate flow returns an unmatched result", func(t *testing.T) {
		service, sessions, flows, content, queries, intents := navigationFixture(t)

		sessions.On("Create", mock.Anything, mock.Anything).Return(nil)
		flows.On("GetByTenant", mock.Anything, "tenant-1").Return([]*entities.Flow{}, nil)
		content.On("GetByTenant", mock.Anything, "tenant-1").Return([]*entities.ContentItem{}, nil)
		queries.On("GetFrequencyForQuery", mock.Anything, "tenant-1", mock.Anything).Return(nil, nil)
		intents.On("DetectIntent", mock.Anything, mock.Anything, mock.Anything).
			Return(&providers.IntentDetection{Intent: entities.IntentOther, Confidence: 0.5}, nil)
		intents.On("GenerateResponse", mock.Anything, mock.Anything).Return("Could you rephrase?", nil)

		result, err := service.Navigate(context.Background(), NavigateInput{
			TenantID: "tenant-1",
			Query:    "gibberish",
		})
		require.NoError(t, err)
		assert.False(t, result.Matched)
		assert.Empty(t, result.FlowID)
	})

	t.Run("rejects missing tenant", func(t *testing.T) {
		service, _, _, _, _, _ := navigationFixture(t)

		_, err := service.Navigate(context.Background(), NavigateInput{Query: "anything"})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestNavigationService_Continue(t *testing.T) {
	t.Run("advances to the next step", func(t *testing.T) {
		service, sessions, flows, content, _, intents := navigationFixture(t)

		session := &entities.Session{
			ID:            "session-1",
			TenantID:      "tenant-1",
			CurrentFlowID: "flow-reset",
			CurrentStepID: "step-guide",
		}
		sessions.On("GetByID", mock.Anything, "session-1").Return(session, nil)
		sessions.On("Update", mock.Anything, mock.Anything).Return(nil)
		flows.On("GetByTenant", mock.Anything, "tenant-1").Return([]*entities.Flow{resetFlow()}, nil)
		content.On("GetByTenant", mock.Anything, "tenant-1").Return([]*entities.ContentItem{}, nil)
		intents.On("GenerateResponse", mock.Anything, mock.Anything).Return("Next: the form.", nil)

		result, err := service.Continue(context.Background(), ContinueInput{TenantID: "tenant-1", SessionID: "session-1"})
		require.NoError(t, err)

		assert.Equal(t, "step-form", result.Step.ID)
		assert.Equal(t, "/account/reset", result.TargetURL)
		assert.False(t, result.Completed)
	})

	t.Run("completes the session after the last step", func(t *testing.T) {
		service, sessions, flows, content, _, _ := navigationFixture(t)

		session := &entities.Session{
			ID:            "session-1",
			TenantID:      "tenant-1",
			CurrentFlowID: "flow-reset",
			CurrentStepID: "step-form",
		}
		sessions.On("GetByID", mock.Anything, "session-1").Return(session, nil)
		sessions.On("Update", mock.Anything, mock.MatchedBy(func(s *entities.Session) bool {
			return s.Completed
		})).Return(nil)
		flows.On("GetByTenant", mock.Anything, "tenant-1").Return([]*entities.Flow{resetFlow()}, nil)
		content.On("GetByTenant", mock.Anything, "tenant-1").Return([]*entities.ContentItem{}, nil)

		result, err := service.Continue(context.Background(), ContinueInput{TenantID: "tenant-1", SessionID: "session-1"})
		require.NoError(t, err)
		assert.True(t, result.Completed)
		assert.Nil(t, result.Step)
	})

	t.Run("skips steps the context is not eligible for", func(t *testing.T) {
		service, sessions, flows, content, _, intents := navigationFixture(t)

		loggedIn := true
		flow := resetFlow()
		needsAnon := false
		flow.Steps = append(flow.Steps, entities.Step{
			ID: "step-anon", Type: entities.StepTypeContent, Title: "Create account", DirectURL: "/signup", Order: 3,
			Conditions: &entities.StepConditions{LoggedIn: &needsAnon},
		})

		session := &entities.Session{
			ID:            "session-1",
			TenantID:      "tenant-1",
			CurrentFlowID: "flow-reset",
			CurrentStepID: "step-form",
			Context:       entities.UserContext{LoggedIn: &loggedIn},
		}
		sessions.On("GetByID", mock.Anything, "session-1").Return(session, nil)
		sessions.On("Update", mock.Anything, mock.Anything).Return(nil)
		flows.On("GetByTenant", mock.Anything, "tenant-1").Return([]*entities.Flow{flow}, nil)
		content.On("GetByTenant", mock.Anything, "tenant-1").Return([]*entities.ContentItem{}, nil)
		intents.On("GenerateResponse", mock.Anything, mock.Anything).Return("done", nil)

		result, err := service.Continue(context.Background(), ContinueInput{TenantID: "tenant-1", SessionID: "session-1"})
		require.NoError(t, err)
		// The logged-out-only step is skipped; nothing remains.
		assert.True(t, result.Completed)
	})

	t.Run("foreign session is not found", func(t *testing.T) {
		service, sessions, _, _, _, _ := navigationFixture(t)

		sessions.On("GetByID", mock.Anything, "session-1").
			Return(&entities.Session{ID: "session-1", TenantID: "tenant-2"}, nil)

		_, err := service.Continue(context.Background(), ContinueInput{TenantID: "tenant-1", SessionID: "session-1"})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}
