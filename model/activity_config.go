package model

import "time"

// ActivityToggles is the per-user enable/disable set for each tracked kind.
type ActivityToggles struct {
	PageViews       bool `bson:"pageViews" json:"pageViews"`
	ButtonClicks    bool `bson:"buttonClicks" json:"buttonClicks"`
	FormSubmissions bool `bson:"formSubmissions" json:"formSubmissions"`
	FormInputs      bool `bson:"formInputs" json:"formInputs"`
	APICalls        bool `bson:"apiCalls" json:"apiCalls"`
	LoginLogout     bool `bson:"loginLogout" json:"loginLogout"`
	VisitTime       bool `bson:"visitTime" json:"visitTime"`
}

// ActivityConfig is the one-per-user tracking configuration. Absence of a
// record means everything is enabled; see DefaultActivityConfig.
type ActivityConfig struct {
	UserID    string          `bson:"user_id" json:"userId"`
	Enabled   ActivityToggles `bson:"enabled" json:"enabled"`
	UpdatedAt time.Time       `bson:"updated_at" json:"updatedAt"`
}

// DefaultActivityConfig is the all-enabled fallback used when a user has
// never saved a configuration.
func DefaultActivityConfig(userID string) *ActivityConfig {
	return &ActivityConfig{
		UserID: userID,
		Enabled: ActivityToggles{
			PageViews:       true,
			ButtonClicks:    true,
			FormSubmissions: true,
			FormInputs:      true,
			APICalls:        true,
			LoginLogout:     true,
			VisitTime:       true,
		},
	}
}

// ActionEnabled maps an action kind onto its toggle.
func (c *ActivityConfig) ActionEnabled(a Action) bool {
	switch a {
	case ActionPageView:
		return c.Enabled.PageViews
	case ActionButtonClick:
		return c.Enabled.ButtonClicks
	case ActionFormSubmission:
		return c.Enabled.FormSubmissions
	case ActionFormInput:
		return c.Enabled.FormInputs
	case ActionAPICall:
		return c.Enabled.APICalls
	case ActionLogin, ActionLogout:
		return c.Enabled.LoginLogout
	}
	return false
}
