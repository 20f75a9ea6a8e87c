package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
)

func boolPtr(v bool) *bool { return &v }

func TestFlowConditions_Matches(t *testing.T) {
	t.Run("nil conditions admit everything", func(t *testing.T) {
		var c *entities.FlowConditions

		assert.True(t, c.Matches(entities.UserContext{Language: "de", Device: "mobile"}))
	})

	t.Run("language must be listed when the context sets one", func(t *testing.T) {
		c := &entities.FlowConditions{Language: []string{"en", "sv"}}

		assert.True(t, c.Matches(entities.UserContext{Language: "sv"}))
		assert.False(t, c.Matches(entities.UserContext{Language: "de"}))
	})

	t.Run("unset context attribute does not fail the condition", func(t *testing.T) {
		c := &entities.FlowConditions{UserType: []string{"customer"}}

		assert.True(t, c.Matches(entities.UserContext{}))
	})
}

func TestStep_Eligible(t *testing.T) {
	t.Run("no conditions means always eligible", func(t *testing.T) {
		step := &entities.Step{ID: "step-1", Type: entities.StepTypeContent}

		assert.True(t, step.Eligible(entities.UserContext{}))
	})

	t.Run("logged in requirement", func(t *testing.T) {
		step := &entities.Step{
			ID:         "step-login",
			Type:       entities.StepTypeLogin,
			Conditions: &entities.StepConditions{LoggedIn: boolPtr(true)},
		}

		assert.True(t, step.Eligible(entities.UserContext{LoggedIn: boolPtr(true)}))
		assert.False(t, step.Eligible(entities.UserContext{LoggedIn: boolPtr(false)}))
		assert.False(t, step.Eligible(entities.UserContext{}))
	})

	t.Run("device filter", func(t *testing.T) {
		step := &entities.Step{
			ID:         "step-desktop",
			Conditions: &entities.StepConditions{Device: []string{"desktop"}},
		}

		assert.True(t, step.Eligible(entities.UserContext{Device: "desktop"}))
		assert.False(t, step.Eligible(entities.UserContext{Device: "mobile"}))
	})
}
