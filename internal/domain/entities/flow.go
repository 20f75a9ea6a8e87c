package entities

// Known intent labels. Intents are open-ended strings so tenants can define
// their own; these are the ones the built-in keyword detector emits.
const (
	IntentFindInformation = "find_information"
	IntentContactSupport  = "contact_support"
	IntentCheckStatus     = "check_status"
	IntentOther           = "other"
)

// StepType classifies what a flow step asks the user to do.
type StepType string

const (
	StepTypeContent StepType = "content"
	StepTypeLogin   StepType = "login"
	StepTypeForm    StepType = "form"
	StepTypeSummary StepType = "summary"
)

// StepConditions gate a step on user context attributes. Empty slices and
// nil pointers mean "no constraint".
type StepConditions struct {
	UserType []string `json:"user_type,omitempty"`
	Language []string `json:"language,omitempty"`
	Device   []string `json:"device,omitempty"`
	LoggedIn *bool    `json:"logged_in,omitempty"`
}

// Step is one step in a navigation flow. The target URL comes either from
// DirectURL or by resolving ContentItemID against the tenant's content index.
type Step struct {
	ID            string          `json:"id"`
	Type          StepType        `json:"type"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	ContentItemID string          `json:"content_item_id,omitempty"`
	DirectURL     string          `json:"direct_url,omitempty"`
	Required      bool            `json:"required"`
	Order         int             `json:"order"`
	Conditions    *StepConditions `json:"conditions,omitempty"`
}

// FlowConditions gate a whole flow on user context attributes.
type FlowConditions struct {
	UserType []string `json:"user_type,omitempty"`
	Language []string `json:"language,omitempty"`
	Device   []string `json:"device,omitempty"`
}

// Flow describes an end-to-end task process a user can be guided through.
type Flow struct {
	ID          string          `json:"id" db:"id"`
	TenantID    string          `json:"tenant_id" db:"tenant_id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description,omitempty" db:"description"`
	Intent      string          `json:"intent" db:"intent"`
	Keywords    []string        `json:"keywords,omitempty" db:"keywords"`
	Steps       []Step          `json:"steps" db:"steps"`
	Conditions  *FlowConditions `json:"conditions,omitempty" db:"conditions"`
	Enabled     bool            `json:"enabled" db:"enabled"`
}

// Matches reports whether the flow's conditions admit the given context.
func (c *FlowConditions) Matches(uc UserContext) bool {
	if c == nil {
		return true
	}
	if len(c.Language) > 0 && uc.Language != "" && !contains(c.Language, uc.Language) {
		return false
	}
	if len(c.UserType) > 0 && uc.UserType != "" && !contains(c.UserType, uc.UserType) {
		return false
	}
	if len(c.Device) > 0 && uc.Device != "" && !contains(c.Device, uc.Device) {
		return false
	}
	return true
}

// Eligible reports whether the step's conditions admit the given context.
func (s *Step) Eligible(uc UserContext) bool {
	c := s.Conditions
	if c == nil {
		return true
	}
	if len(c.Language) > 0 && uc.Language != "" && !contains(c.Language, uc.Language) {
		return false
	}
	if len(c.UserType) > 0 && uc.UserType != "" && !contains(c.UserType, uc.UserType) {
		return false
	}
	if len(c.Device) > 0 && uc.Device != "" && !contains(c.Device, uc.Device) {
		return false
	}
	if c.LoggedIn != nil {
		loggedIn := uc.LoggedIn != nil && *uc.LoggedIn
		if loggedIn != *c.LoggedIn {
			return false
		}
	}
	return true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
