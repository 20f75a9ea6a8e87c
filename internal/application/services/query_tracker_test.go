package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
	"github.com/carlwahlen/ai-navigation-api/pkg/config"
	apperrors "github.com/carlwahlen/ai-navigation-api/pkg/errors"
)

func TestQueryTracker_Track(t *testing.T) {
	t.Run("writes enqueued events in the background", func(t *testing.T) {
		repo := new(mockQueryRepository)
		service := NewQueryService(repo, nil)
		tracker := NewQueryTracker(service, nil, nil, config.TrackerConfig{QueueSize: 8, WriteTimeoutMs: 1000})

		written := make(chan struct{})
		repo.On("LogQuery", mock.Anything, mock.MatchedBy(func(e *entities.QueryEvent) bool {
			return e.NormalizedQuery == "how do i reset my password?"
		})).Run(func(mock.Arguments) {
			close(written)
		}).Return(nil)

		tracker.Start()
		defer tracker.Stop()

		require.NoError(t, tracker.Track(context.Background(), validTrackInput()))

		select {
		case <-written:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for background write")
		}
		repo.AssertExpectations(t)
	})

	t.Run("invalid input fails fast and is never enqueued", func(t *testing.T) {
		repo := new(mockQueryRepository)
		service := NewQueryService(repo, nil)
		tracker := NewQueryTracker(service, nil, nil, config.TrackerConfig{QueueSize: 8, WriteTimeoutMs: 1000})
		tracker.Start()
		defer tracker.Stop()

		in := validTrackInput()
		in.TenantID = ""

		err := tracker.Track(context.Background(), in)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

		time.Sleep(50 * time.Millisecond)
		repo.AssertNotCalled(t, "LogQuery", mock.Anything, mock.Anything)
	})

	t.Run("full queue drops instead of blocking", func(t *testing.T) {
		repo := new(mockQueryRepository)
		service := NewQueryService(repo, nil)
		// Worker not started: the queue only fills.
		tracker := NewQueryTracker(service, nil, nil, config.TrackerConfig{QueueSize: 1, WriteTimeoutMs: 1000})

		require.NoError(t, tracker.Track(context.Background(), validTrackInput()))
		require.NoError(t, tracker.Track(context.Background(), validTrackInput()))
		repo.AssertNotCalled(t, "LogQuery", mock.Anything, mock.Anything)
	})
}
