package providers

import (
	"context"

	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
)

// EventBus publishes and subscribes to tracked-query notifications. The
// tracker publishes after each durable write; the live analytics stream
// subscribes.
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.QueryTrackedEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.QueryTrackedEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelQueriesTracked carries every tracked query across tenants.
	EventChannelQueriesTracked = "queries:tracked"

	// EventChannelTenantPrefix is the prefix for tenant-scoped channels.
	EventChannelTenantPrefix = "queries:tenant:"
)

// GetTenantChannel returns the tenant-scoped channel name.
func GetTenantChannel(tenantID string) string {
	return EventChannelTenantPrefix + tenantID
}
