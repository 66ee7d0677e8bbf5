package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// forwardedHeaders is the whitelisted subset of inbound headers relayed to
// the upstream. Everything else stays at the boundary.
var forwardedHeaders = []string{"Authorization", "User-Agent"}

// ProxyHandler is the generic catch-all boundary between the browser and
// the university backend. It forwards method, JSON body and whitelisted
// headers, then relays the upstream response with normalized error bodies.
type ProxyHandler struct {
	upstream *services.UpstreamClient
	login    *LoginHandler
}

func NewProxyHandler(upstream *services.UpstreamClient, login *LoginHandler) *ProxyHandler {
	return &ProxyHandler{upstream: upstream, login: login}
}

// Forward serves ANY /api/proxy/*path. The login path is the one
// specialized route: it runs the full login pipeline instead of the plain
// relay so the audit write happens.
func (h *ProxyHandler) Forward(c *gin.Context) {
	path := strings.Trim(c.Param("path"), "/")

	if h.login != nil && c.Request.Method == http.MethodPost && strings.EqualFold(path, "login") {
		h.login.ProxyLogin(c)
		return
	}

	h.forward(c, path)
}

// Fallback serves unmatched /api/* paths via NoRoute, stripping the /api
// segment before resolving against the upstream base.
func (h *ProxyHandler) Fallback(c *gin.Context) {
	urlPath := c.Request.URL.Path
	if !strings.HasPrefix(urlPath, "/api/") {
		utils.NotFound(c, "Not Found")
		return
	}
	h.forward(c, strings.TrimPrefix(urlPath, "/api/"))
}

func (h *ProxyHandler) forward(c *gin.Context, path string) {
	method := c.Request.Method

	var body []byte
	if c.Request.Body != nil {
		var err error
		body, err = io.ReadAll(c.Request.Body)
		if err != nil {
			utils.TrackError("proxy", "read_request_body")
			h.internalError(c, "failed to read request body")
			return
		}
	}

	headers := http.Header{}
	for _, name := range forwardedHeaders {
		if value := c.GetHeader(name); value != "" {
			headers.Set(name, value)
		}
	}

	query := c.Request.URL.Query()

	log.Printf("proxy: %s /%s query=%q body=%dB auth=%t",
		method, path, query.Encode(), len(body), headers.Get("Authorization") != "")

	resp, err := h.upstream.Do(c.Request.Context(), method, path, query, body, headers)
	if err != nil {
		log.Printf("proxy: upstream call failed for %s /%s: %v", method, path, err)
		h.internalError(c, err.Error())
		return
	}

	for _, name := range []string{"Content-Type", "Authorization"} {
		if value := resp.Header.Get(name); value != "" {
			c.Writer.Header().Set(name, value)
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}

	log.Printf("proxy: %s /%s -> %d (%dB)", method, path, resp.StatusCode, len(resp.Body))

	// Relay JSON bodies untouched; wrap anything else so clients always
	// receive a JSON envelope.
	if json.Valid(resp.Body) {
		c.Data(resp.StatusCode, contentType, resp.Body)
		return
	}

	raw := strings.TrimSpace(string(resp.Body))
	if resp.OK() {
		c.JSON(resp.StatusCode, gin.H{"message": raw})
		return
	}
	c.JSON(resp.StatusCode, gin.H{
		"error":   "Upstream Error",
		"message": raw,
		"status":  resp.StatusCode,
	})
}

func (h *ProxyHandler) internalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Internal Server Error",
		"message": message,
	})
}
