package model

import "time"

// Action identifies the kind of user interaction an Activity records.
type Action string

const (
	ActionPageView       Action = "page_view"
	ActionButtonClick    Action = "button_click"
	ActionFormSubmission Action = "form_submission"
	ActionFormInput      Action = "form_input"
	ActionAPICall        Action = "api_call"
	ActionLogin          Action = "login"
	ActionLogout         Action = "logout"
)

// Valid reports whether a is one of the known action kinds.
func (a Action) Valid() bool {
	switch a {
	case ActionPageView, ActionButtonClick, ActionFormSubmission,
		ActionFormInput, ActionAPICall, ActionLogin, ActionLogout:
		return true
	}
	return false
}

// ActivityMetadata holds free-form context captured alongside every event.
type ActivityMetadata struct {
	StudentID       string `bson:"studentId,omitempty" json:"studentId,omitempty"`
	Email           string `bson:"email,omitempty" json:"email,omitempty"`
	Name            string `bson:"name,omitempty" json:"name,omitempty"`
	IP              string `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent       string `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	SessionID       string `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	SessionDuration int64  `bson:"sessionDuration,omitempty" json:"sessionDuration,omitempty"`
}

// Activity is an append-only audit event. Action-specific fields are only
// set for the action kind that requires them; the tracker's typed entry
// points guarantee the companion-field invariants at compile time.
type Activity struct {
	ActivityID string           `bson:"activity_id" json:"activityId"`
	UserID     string           `bson:"user_id" json:"userId"`
	Action     Action           `bson:"action" json:"action"`
	Path       string           `bson:"path" json:"path"`
	Status     string           `bson:"status,omitempty" json:"status,omitempty"`
	ElementID  string           `bson:"element_id,omitempty" json:"elementId,omitempty"`
	FormID     string           `bson:"form_id,omitempty" json:"formId,omitempty"`
	FormData   map[string]string `bson:"form_data,omitempty" json:"formData,omitempty"`
	InputName  string           `bson:"input_name,omitempty" json:"inputName,omitempty"`
	InputValue string           `bson:"input_value,omitempty" json:"inputValue,omitempty"`
	Endpoint   string           `bson:"api_endpoint,omitempty" json:"apiEndpoint,omitempty"`
	Method     string           `bson:"api_method,omitempty" json:"apiMethod,omitempty"`
	Metadata   ActivityMetadata `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Timestamp  time.Time        `bson:"timestamp" json:"timestamp"`
}

// SummaryBucket is one row of the activity summary aggregation: the count
// of one action kind within one date bucket.
type SummaryBucket struct {
	Date   string `bson:"date" json:"date"`
	Action Action `bson:"action" json:"action"`
	Count  int64  `bson:"count" json:"count"`
}
