package handler

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"main/model"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserStore is the slice of the user repository the login pipeline needs.
type UserStore interface {
	UpsertOnLogin(ctx context.Context, login *model.LoginUpsert) (*model.User, error)
}

// ActivityWriter appends audit events.
type ActivityWriter interface {
	Insert(ctx context.Context, activity *model.Activity) error
}

// LoginRequest is the inbound login payload. Username may arrive as either
// username or studentId; everything beyond the credentials is audit
// context supplied by the portal front end.
type LoginRequest struct {
	Username    string `json:"username"`
	StudentID   string `json:"studentId"`
	Password    string `json:"password"`
	DeviceName  string `json:"deviceName"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Message     string `json:"message"`
	AccessToken string `json:"accessToken"`
	Roles       string `json:"commaSeparatedRoles"`
}

// LoginHandler runs the login proxy and activity-logging pipeline: forward
// credentials upstream, upsert the user profile, append a login audit
// record. The upsert is the concurrency-safety mechanism — two concurrent
// first logins for one username land on a single document.
type LoginHandler struct {
	upstream   *services.UpstreamClient
	users      UserStore
	activities ActivityWriter
}

func NewLoginHandler(upstream *services.UpstreamClient, users UserStore, activities ActivityWriter) *LoginHandler {
	return &LoginHandler{upstream: upstream, users: users, activities: activities}
}

// ProxyLogin serves POST /api/proxy/login: forwards the credentials to the
// upstream /login endpoint, relays its payload, and records the outcome.
func (h *LoginHandler) ProxyLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.TrackAuthAttempt("failure", "validation")
		utils.BadRequest(c, "Invalid Request")
		return
	}

	username := req.Username
	if username == "" {
		username = req.StudentID
	}
	if username == "" {
		utils.TrackAuthAttempt("failure", "validation")
		utils.BadRequest(c, "username is required")
		return
	}

	resp, err := h.upstream.Post(c.Request.Context(), "/login", nil, gin.H{
		"username":   username,
		"password":   req.Password,
		"deviceName": req.DeviceName,
	}, nil)
	if err != nil {
		// The forwarding failed but the attempt still gets audited.
		utils.TrackAuthAttempt("failure", "upstream_unreachable")
		if recordErr := h.recordLogin(c, &req, username, "failed"); recordErr != nil {
			log.Printf("login: failed to record unreachable-upstream attempt for %s: %v", username, recordErr)
		}
		utils.InternalError(c, "Failed to reach the university service")
		return
	}

	var payload map[string]interface{}
	if jsonErr := json.Unmarshal(resp.Body, &payload); jsonErr != nil {
		payload = gin.H{"message": strings.TrimSpace(string(resp.Body))}
	}

	message, _ := payload["message"].(string)
	status := "failed"
	if resp.OK() && message == "success" {
		status = "success"
	}
	if token, ok := payload["accessToken"].(string); ok && req.AccessToken == "" {
		req.AccessToken = token
	}
	if name, ok := payload["name"].(string); ok && req.Name == "" {
		req.Name = name
	}
	if roles, ok := payload["commaSeparatedRoles"].(string); ok && req.Roles == "" {
		req.Roles = roles
	}

	utils.TrackAuthAttempt(status, "login")

	if err := h.recordLogin(c, &req, username, status); err != nil {
		log.Printf("login: failed to record attempt for %s: %v", username, err)
		utils.InternalError(c, "Failed to record login activity")
		return
	}

	if status == "success" {
		sessionToken, tokenErr := services.GenerateSessionToken(&services.SessionClaims{
			Username:  username,
			Name:      req.Name,
			StudentID: req.StudentID,
			Email:     req.Email,
			Roles:     parseRoles(req.Roles),
		})
		if tokenErr != nil {
			log.Printf("login: failed to issue session token for %s: %v", username, tokenErr)
		} else {
			payload["sessionToken"] = sessionToken
		}
	}

	c.JSON(resp.StatusCode, payload)
}

// ActivityLogin serves POST /api/activity/login: the front end posts a
// login outcome it already obtained through the proxy, and the gateway
// persists the audit trail and profile upsert.
func (h *LoginHandler) ActivityLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid Request")
		return
	}

	username := req.Username
	if username == "" {
		username = req.StudentID
	}
	if username == "" {
		utils.BadRequest(c, "username is required")
		return
	}

	status := "failed"
	if req.Message == "success" {
		status = "success"
	}

	if err := h.recordLogin(c, &req, username, status); err != nil {
		log.Printf("login: failed to record activity login for %s: %v", username, err)
		utils.InternalError(c, "Failed to record login activity")
		return
	}

	utils.Success(c, gin.H{
		"tracked":  true,
		"username": username,
		"status":   status,
	})
}

// recordLogin performs the two independent writes of the pipeline: the
// atomic user upsert and the login activity insert. There is deliberately
// no transaction tying them together; a crash in between leaves one write
// without the other and that inconsistency window is accepted.
func (h *LoginHandler) recordLogin(c *gin.Context, req *LoginRequest, username, status string) error {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	userAgent := c.Request.UserAgent()
	deviceName := req.DeviceName
	if deviceName == "" {
		deviceName = utils.DeviceLabel(userAgent)
	}

	var passwordHash string
	if req.Password != "" {
		hash, err := services.HashPassword(req.Password)
		if err != nil {
			log.Printf("login: failed to hash password for %s: %v", username, err)
		} else {
			passwordHash = hash
		}
	}

	_, upsertErr := h.users.UpsertOnLogin(ctx, &model.LoginUpsert{
		Username:     username,
		StudentID:    req.StudentID,
		Name:         req.Name,
		Email:        req.Email,
		Roles:        parseRoles(req.Roles),
		PasswordHash: passwordHash,
		AccessToken:  req.AccessToken,
		Device: model.DeviceInfo{
			DeviceName: deviceName,
			LastLogin:  time.Now(),
			IPAddress:  c.ClientIP(),
			UserAgent:  userAgent,
		},
	})
	if upsertErr != nil {
		return upsertErr
	}

	activity := &model.Activity{
		ActivityID: uuid.New().String(),
		UserID:     username,
		Action:     model.ActionLogin,
		Path:       "/login",
		Status:     status,
		Timestamp:  time.Now(),
		Metadata: model.ActivityMetadata{
			StudentID: req.StudentID,
			Email:     req.Email,
			Name:      req.Name,
			IP:        c.ClientIP(),
			UserAgent: userAgent,
		},
	}
	if err := h.activities.Insert(ctx, activity); err != nil {
		return err
	}
	utils.TrackActivity(string(model.ActionLogin))

	return nil
}

// parseRoles splits a comma-separated role string into a normalized role
// set, defaulting to ["user"].
func parseRoles(roles string) []string {
	var parsed []string
	for _, role := range strings.Split(roles, ",") {
		role = strings.ToLower(strings.TrimSpace(role))
		if role != "" {
			parsed = append(parsed, role)
		}
	}
	if len(parsed) == 0 {
		return []string{"user"}
	}
	return parsed
}
