package handler

import (
	"context"
	"log"
	"strconv"
	"time"

	"main/model"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// ActivityQuerier is the read side of the activities collection.
type ActivityQuerier interface {
	RecentLogins(ctx context.Context, userID, status string, limit int64) ([]model.Activity, error)
	Summary(ctx context.Context, start, end time.Time, groupBy string) ([]model.SummaryBucket, error)
}

// ConfigStore reads and writes per-user tracking configuration.
type ConfigStore interface {
	Get(ctx context.Context, userID string) (*model.ActivityConfig, error)
	Upsert(ctx context.Context, cfg *model.ActivityConfig) error
}

// ActivityHandler exposes the tracking ingestion endpoint and the
// analytics/query API over the audit trail.
type ActivityHandler struct {
	tracker    *services.Tracker
	activities ActivityQuerier
	configs    ConfigStore
}

func NewActivityHandler(tracker *services.Tracker, activities ActivityQuerier, configs ConfigStore) *ActivityHandler {
	return &ActivityHandler{tracker: tracker, activities: activities, configs: configs}
}

// TrackRequest is a browser-reported interaction event. The action kind
// dictates which companion fields are required; the handler validates that
// at the boundary and then hands off to the tracker's typed entry points.
type TrackRequest struct {
	Action      model.Action      `json:"action" binding:"required"`
	Path        string            `json:"path"`
	ElementID   string            `json:"elementId"`
	FormID      string            `json:"formId"`
	FormData    map[string]string `json:"formData"`
	InputName   string            `json:"inputName"`
	InputValue  string            `json:"inputValue"`
	APIEndpoint string            `json:"apiEndpoint"`
	APIMethod   string            `json:"apiMethod"`
}

// Track serves POST /api/activity/track. Tracking is best-effort: a
// request without a resolvable session still gets a 200, it just records
// nothing.
func (h *ActivityHandler) Track(c *gin.Context) {
	var req TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid Request")
		return
	}

	switch req.Action {
	case model.ActionPageView:
		h.tracker.TrackPageView(c, req.Path)
	case model.ActionButtonClick:
		if req.ElementID == "" {
			utils.BadRequest(c, "button_click requires elementId")
			return
		}
		h.tracker.TrackButtonClick(c, req.Path, req.ElementID)
	case model.ActionFormSubmission:
		if req.FormID == "" || len(req.FormData) == 0 {
			utils.BadRequest(c, "form_submission requires formId and formData")
			return
		}
		h.tracker.TrackFormSubmission(c, req.Path, req.FormID, req.FormData)
	case model.ActionFormInput:
		if req.InputName == "" {
			utils.BadRequest(c, "form_input requires inputName")
			return
		}
		h.tracker.TrackFormInput(c, req.Path, req.InputName, req.InputValue)
	case model.ActionAPICall:
		if req.APIEndpoint == "" || req.APIMethod == "" {
			utils.BadRequest(c, "api_call requires apiEndpoint and apiMethod")
			return
		}
		h.tracker.TrackAPICall(c, req.Path, req.APIEndpoint, req.APIMethod)
	case model.ActionLogout:
		h.tracker.TrackLogout(c, req.Path)
	default:
		utils.BadRequest(c, "unknown action")
		return
	}

	utils.Success(c, gin.H{"tracked": true})
}

// Summary serves GET /api/activity/summary?startDate&endDate&groupBy.
func (h *ActivityHandler) Summary(c *gin.Context) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)

	if raw := c.Query("startDate"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			utils.BadRequest(c, "invalid startDate")
			return
		}
		start = parsed
	}
	if raw := c.Query("endDate"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			utils.BadRequest(c, "invalid endDate")
			return
		}
		// An endDate without a time component means "through that day".
		parsed = parsed.Add(24*time.Hour - time.Nanosecond)
		end = parsed
	}

	groupBy := c.DefaultQuery("groupBy", "day")
	switch groupBy {
	case "day", "week", "month":
	default:
		utils.BadRequest(c, "groupBy must be day, week or month")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	buckets, err := h.activities.Summary(ctx, start, end, groupBy)
	if err != nil {
		log.Printf("activity: summary query failed: %v", err)
		utils.InternalError(c, "Failed to build activity summary")
		return
	}

	// One entry per date bucket with counts keyed by action.
	type summaryRow struct {
		Date   string                 `json:"date"`
		Counts map[model.Action]int64 `json:"counts"`
		Total  int64                  `json:"total"`
	}
	var rows []summaryRow
	index := map[string]int{}
	for _, b := range buckets {
		i, seen := index[b.Date]
		if !seen {
			i = len(rows)
			index[b.Date] = i
			rows = append(rows, summaryRow{Date: b.Date, Counts: map[model.Action]int64{}})
		}
		rows[i].Counts[b.Action] += b.Count
		rows[i].Total += b.Count
	}

	utils.Success(c, gin.H{
		"startDate": start,
		"endDate":   end,
		"groupBy":   groupBy,
		"buckets":   rows,
	})
}

// LoginHistory serves GET /api/activity/login?userId&status&limit.
func (h *ActivityHandler) LoginHistory(c *gin.Context) {
	userID := c.Query("userId")
	status := c.Query("status")

	var limit int64
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			utils.BadRequest(c, "invalid limit")
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	logins, err := h.activities.RecentLogins(ctx, userID, status, limit)
	if err != nil {
		log.Printf("activity: login history query failed: %v", err)
		utils.InternalError(c, "Failed to query login activity")
		return
	}

	utils.Success(c, gin.H{"logins": logins, "count": len(logins)})
}

// GetConfig serves GET /api/activity/config for the authenticated user,
// falling back to the all-enabled default when nothing is saved.
func (h *ActivityHandler) GetConfig(c *gin.Context) {
	user := services.CurrentUser(c)
	if user == nil {
		utils.Unauthorized(c, "Missing or invalid session")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	cfg, err := h.configs.Get(ctx, user.Username)
	if err != nil {
		log.Printf("activity: config lookup failed for %s: %v", user.Username, err)
		utils.InternalError(c, "Failed to load tracking configuration")
		return
	}
	if cfg == nil {
		cfg = model.DefaultActivityConfig(user.Username)
	}

	utils.Success(c, cfg)
}

// UpdateConfig serves PUT /api/activity/config.
func (h *ActivityHandler) UpdateConfig(c *gin.Context) {
	user := services.CurrentUser(c)
	if user == nil {
		utils.Unauthorized(c, "Missing or invalid session")
		return
	}

	var toggles model.ActivityToggles
	if err := c.ShouldBindJSON(&toggles); err != nil {
		utils.BadRequest(c, "Invalid Request")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	cfg := &model.ActivityConfig{UserID: user.Username, Enabled: toggles}
	if err := h.configs.Upsert(ctx, cfg); err != nil {
		log.Printf("activity: config update failed for %s: %v", user.Username, err)
		utils.InternalError(c, "Failed to save tracking configuration")
		return
	}

	if services.GlobalConfigCache != nil {
		if err := services.GlobalConfigCache.Invalidate(ctx, user.Username); err != nil {
			log.Printf("activity: config cache invalidation failed for %s: %v", user.Username, err)
		}
	}

	utils.Success(c, cfg)
}

func parseDate(raw string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", raw)
}
