package entities_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
)

func TestNormalizeQuery(t *testing.T) {
	t.Run("lowercases and trims", func(t *testing.T) {
		assert.Equal(t, "find my invoice", entities.NormalizeQuery("  Find My Invoice "))
	})

	t.Run("collapses internal whitespace", func(t *testing.T) {
		assert.Equal(t, "find my invoice", entities.NormalizeQuery("find\tmy   invoice"))
	})

	t.Run("empty input stays empty", func(t *testing.T) {
		assert.Equal(t, "", entities.NormalizeQuery("   "))
	})
}

func TestAggregateQueryEvents(t *testing.T) {
	t.Run("empty set yields zero count and zero rate", func(t *testing.T) {
		freq := entities.AggregateQueryEvents(nil)

		assert.Equal(t, 0, freq.Count)
		assert.Equal(t, 0.0, freq.SuccessRate)
	})

	t.Run("count matches event count and rate stays within bounds", func(t *testing.T) {
		events := []*entities.QueryEvent{
			{NormalizedQuery: "find my invoice", Success: true},
			{NormalizedQuery: "find my invoice", Success: false},
			{NormalizedQuery: "find my invoice", Success: true},
		}

		freq := entities.AggregateQueryEvents(events)

		assert.Equal(t, 3, freq.Count)
		assert.InDelta(t, 2.0/3.0, freq.SuccessRate, 1e-9)
		assert.GreaterOrEqual(t, freq.SuccessRate, 0.0)
		assert.LessOrEqual(t, freq.SuccessRate, 1.0)
	})

	t.Run("metadata comes from the newest event", func(t *testing.T) {
		older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		newer := older.Add(time.Hour)
		events := []*entities.QueryEvent{
			{NormalizedQuery: "billing", Intent: "check_status", FlowID: "f-old", CreatedAt: older},
			{NormalizedQuery: "billing", Intent: "contact_support", FlowID: "f-new", CreatedAt: newer},
		}

		freq := entities.AggregateQueryEvents(events)

		assert.Equal(t, "contact_support", freq.Intent)
		assert.Equal(t, "f-new", freq.FlowID)
		assert.Equal(t, newer, freq.LastUsed)
	})
}

func TestQueryFrequency_Priority(t *testing.T) {
	t.Run("score is count times success rate", func(t *testing.T) {
		freq := &entities.QueryFrequency{Count: 11, SuccessRate: 10.0 / 11.0}

		assert.InDelta(t, 10.0, freq.Priority(), 1e-9)
	})

	t.Run("nil frequency scores zero", func(t *testing.T) {
		var freq *entities.QueryFrequency

		assert.Equal(t, 0.0, freq.Priority())
	})

	t.Run("adding a success never decreases the score", func(t *testing.T) {
		events := []*entities.QueryEvent{
			{Success: true}, {Success: false}, {Success: true},
		}
		before := entities.AggregateQueryEvents(events)
		after := entities.AggregateQueryEvents(append(events, &entities.QueryEvent{Success: true}))

		assert.GreaterOrEqual(t, after.Priority(), before.Priority())
	})
}
