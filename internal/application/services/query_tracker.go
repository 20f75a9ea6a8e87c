package services

import (
	"context"
	"sync"
	"time"

	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
	"github.com/carlwahlen/ai-navigation-api/internal/domain/providers"
	"github.com/carlwahlen/ai-navigation-api/internal/infrastructure/observability"
	"github.com/carlwahlen/ai-navigation-api/pkg/config"
)

// QueryTracker records query usage off the request path. Track validates
// synchronously, then hands the event to a background worker: a full queue
// or a failed write drops the observation and logs it, it never surfaces to
// the caller.
type QueryTracker struct {
	service  *QueryService
	eventBus providers.EventBus
	metrics  *observability.Metrics

	queue        chan *entities.QueryEvent
	writeTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueryTracker creates a tracker over the query service. eventBus and
// metrics may be nil.
func NewQueryTracker(service *QueryService, eventBus providers.EventBus, metrics *observability.Metrics, cfg config.TrackerConfig) *QueryTracker {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1024
	}
	writeTimeout := time.Duration(cfg.WriteTimeoutMs) * time.Millisecond
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &QueryTracker{
		service:      service,
		eventBus:     eventBus,
		metrics:      metrics,
		queue:        make(chan *entities.QueryEvent, queueSize),
		writeTimeout: writeTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start launches the background writer.
func (t *QueryTracker) Start() {
	t.wg.Add(1)
	go t.processQueue()
	observability.GetLogger().Info().Msg("query tracker started")
}

// Stop drains nothing: queued events not yet written are dropped. Callers
// that need durability use QueryService.TrackQuery directly.
func (t *QueryTracker) Stop() {
	t.cancel()
	t.wg.Wait()
	observability.GetLogger().Info().Msg("query tracker stopped")
}

// Track validates the input and enqueues it for a background write. The
// returned error is a validation error only; storage failures are absorbed.
func (t *QueryTracker) Track(ctx context.Context, in TrackQueryInput) error {
	event, err := t.service.NewEvent(in)
	if err != nil {
		return err
	}

	select {
	case t.queue <- event:
		if t.metrics != nil {
			t.metrics.TrackerQueueDepth.Add(ctx, 1)
		}
	default:
		if t.metrics != nil {
			t.metrics.TrackerDropCount.Add(ctx, 1)
		}
		observability.LoggerFromContext(ctx).Warn().
			Str("tenant_id", event.TenantID).
			Msg("tracker queue full, dropping query event")
	}

	return nil
}

func (t *QueryTracker) processQueue() {
	defer t.wg.Done()

	for {
		select {
		case <-t.ctx.Done():
			return
		case event := <-t.queue:
			if event == nil {
				continue
			}
			t.writeEvent(event)
		}
	}
}

// writeEvent persists one event with a fresh context: the originating
// request context may already be cancelled.
func (t *QueryTracker) writeEvent(event *entities.QueryEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), t.writeTimeout)
	defer cancel()

	if t.metrics != nil {
		t.metrics.TrackerQueueDepth.Add(ctx, -1)
	}

	stored, err := t.service.TrackQuery(ctx, trackInputFromEvent(event))
	if err != nil {
		observability.GetLogger().Warn().Err(err).
			Str("tenant_id", event.TenantID).
			Str("flow_id", event.FlowID).
			Msg("failed to log query event")
		return
	}

	if t.metrics != nil {
		t.metrics.TrackedQueryCount.Add(ctx, 1)
	}

	t.publish(ctx, stored)
}

func (t *QueryTracker) publish(ctx context.Context, event *entities.QueryEvent) {
	if t.eventBus == nil {
		return
	}

	tracked := &entities.QueryTrackedEvent{
		ID:              event.ID,
		TenantID:        event.TenantID,
		NormalizedQuery: event.NormalizedQuery,
		Intent:          event.Intent,
		FlowID:          event.FlowID,
		Success:         event.Success,
		TrackedAt:       time.Now().UTC(),
	}

	for _, channel := range []string{
		providers.EventChannelQueriesTracked,
		providers.GetTenantChannel(event.TenantID),
	} {
		if err := t.eventBus.Publish(ctx, channel, tracked); err != nil {
			observability.GetLogger().Warn().Err(err).
				Str("channel", channel).
				Msg("failed to publish tracked query event")
		}
	}
}

func trackInputFromEvent(event *entities.QueryEvent) TrackQueryInput {
	return TrackQueryInput{
		TenantID:  event.TenantID,
		Query:     event.Query,
		Intent:    event.Intent,
		FlowID:    event.FlowID,
		TargetURL: event.TargetURL,
		SessionID: event.SessionID,
		Success:   event.Success,
	}
}
