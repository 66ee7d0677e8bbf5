package services

import (
	"context"
	"log"
	"time"

	"main/model"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionContextKey is where the session middleware parks the resolved
// SessionClaims in the gin context.
const SessionContextKey = "session"

// CurrentUser returns the authenticated identity for this request, or nil.
func CurrentUser(c *gin.Context) *SessionClaims {
	value, exists := c.Get(SessionContextKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*SessionClaims)
	if !ok {
		return nil
	}
	return claims
}

// ActivityStore persists audit events.
type ActivityStore interface {
	Insert(ctx context.Context, activity *model.Activity) error
}

// ConfigStore loads per-user tracking configuration. A nil config with nil
// error means no record exists and the all-enabled default applies.
type ConfigStore interface {
	Get(ctx context.Context, userID string) (*model.ActivityConfig, error)
}

// VisitStore maintains the open/close page-visit records.
type VisitStore interface {
	TouchOpenVisit(ctx context.Context, userID, page, device string) error
	CloseOpenVisits(ctx context.Context, userID string) (int64, error)
}

// Tracker records user interactions. It is constructed once at startup and
// passed by injection; its only state is the immutable process session id,
// so it is safe for concurrent use. Tracking is best-effort telemetry:
// nothing in here ever fails the caller's primary action.
type Tracker struct {
	sessionID  string
	activities ActivityStore
	configs    ConfigStore
	visits     VisitStore
}

// NewTracker builds the tracker with a fresh process session id.
func NewTracker(activities ActivityStore, configs ConfigStore, visits VisitStore) *Tracker {
	return &Tracker{
		sessionID:  uuid.New().String(),
		activities: activities,
		configs:    configs,
		visits:     visits,
	}
}

// SessionID returns the immutable id generated at process start.
func (t *Tracker) SessionID() string {
	return t.sessionID
}

func (t *Tracker) TrackPageView(c *gin.Context, path string) {
	t.record(c, &model.Activity{Action: model.ActionPageView, Path: path})
}

func (t *Tracker) TrackButtonClick(c *gin.Context, path, elementID string) {
	t.record(c, &model.Activity{Action: model.ActionButtonClick, Path: path, ElementID: elementID})
}

func (t *Tracker) TrackFormSubmission(c *gin.Context, path, formID string, formData map[string]string) {
	t.record(c, &model.Activity{Action: model.ActionFormSubmission, Path: path, FormID: formID, FormData: formData})
}

func (t *Tracker) TrackFormInput(c *gin.Context, path, inputName, inputValue string) {
	t.record(c, &model.Activity{Action: model.ActionFormInput, Path: path, InputName: inputName, InputValue: inputValue})
}

func (t *Tracker) TrackAPICall(c *gin.Context, path, endpoint, method string) {
	t.record(c, &model.Activity{Action: model.ActionAPICall, Path: path, Endpoint: endpoint, Method: method})
}

func (t *Tracker) TrackLogin(c *gin.Context, path, status string) {
	t.record(c, &model.Activity{Action: model.ActionLogin, Path: path, Status: status})
}

// TrackLogout closes the user's open visit before recording the logout
// event. Ordering matters: the visit duration is computed while the visit
// is still open.
func (t *Tracker) TrackLogout(c *gin.Context, path string) {
	t.EndVisit(c)
	t.record(c, &model.Activity{Action: model.ActionLogout, Path: path})
}

// EndVisit closes every open visit record for the current user, computing
// durations. Called on logout; a no-op without a session.
func (t *Tracker) EndVisit(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		return
	}

	ctx, cancel := trackingContext(c)
	defer cancel()

	closed, err := t.visits.CloseOpenVisits(ctx, user.Username)
	if err != nil {
		utils.TrackError("tracking", "visit_close_failed")
		log.Printf("tracker: failed to close visits for %s: %v", user.Username, err)
		return
	}
	if closed > 0 {
		log.Printf("tracker: closed %d open visit(s) for %s", closed, user.Username)
	}
}

// record is the common path behind every Track* method. Without a session
// it is a silent no-op; with one, it consults the user's config, persists
// the event and touches the visit record. All failures are logged and
// swallowed.
func (t *Tracker) record(c *gin.Context, activity *model.Activity) {
	user := CurrentUser(c)
	if user == nil {
		return
	}

	ctx, cancel := trackingContext(c)
	defer cancel()

	cfg := t.loadConfig(ctx, user.Username)
	if !cfg.ActionEnabled(activity.Action) {
		return
	}

	activity.ActivityID = uuid.New().String()
	activity.UserID = user.Username
	activity.Timestamp = time.Now()
	activity.Metadata = model.ActivityMetadata{
		StudentID: user.StudentID,
		Email:     user.Email,
		Name:      user.Name,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		SessionID: t.sessionID,
	}

	if err := t.activities.Insert(ctx, activity); err != nil {
		utils.TrackError("tracking", "activity_insert_failed")
		log.Printf("tracker: failed to record %s for %s: %v", activity.Action, user.Username, err)
		return
	}
	utils.TrackActivity(string(activity.Action))

	if cfg.Enabled.VisitTime && activity.Path != "" {
		device := utils.DeviceLabel(c.Request.UserAgent())
		if err := t.visits.TouchOpenVisit(ctx, user.Username, activity.Path, device); err != nil {
			utils.TrackError("tracking", "visit_touch_failed")
			log.Printf("tracker: failed to touch visit %s/%s: %v", user.Username, activity.Path, err)
		}
	}
}

// loadConfig resolves the user's tracking toggles: cache, then store, then
// the all-enabled default. Lookup failures degrade to the default rather
// than dropping the event.
func (t *Tracker) loadConfig(ctx context.Context, userID string) *model.ActivityConfig {
	if GlobalConfigCache != nil {
		if cfg, err := GlobalConfigCache.Get(ctx, userID); err == nil && cfg != nil {
			utils.TrackCacheOperation("activity_config", true)
			return cfg
		}
		utils.TrackCacheOperation("activity_config", false)
	}

	cfg, err := t.configs.Get(ctx, userID)
	if err != nil {
		utils.TrackError("tracking", "config_lookup_failed")
		log.Printf("tracker: failed to load config for %s: %v", userID, err)
		return model.DefaultActivityConfig(userID)
	}
	if cfg == nil {
		return model.DefaultActivityConfig(userID)
	}

	if GlobalConfigCache != nil {
		if err := GlobalConfigCache.Set(ctx, cfg); err != nil {
			log.Printf("tracker: failed to cache config for %s: %v", userID, err)
		}
	}

	return cfg
}

func trackingContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), 10*time.Second)
}
