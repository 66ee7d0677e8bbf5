package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"main/utils"

	"github.com/gin-gonic/gin"
)

func TestRecoveryMiddlewareConvertsPanic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RecoveryMiddleware())
	router.GET("/boom", func(c *gin.Context) {
		panic("something broke")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", w.Code)
	}

	var resp utils.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("panic response was not the JSON envelope: %v", err)
	}
	if resp.Error != "Internal Server Error" {
		t.Errorf("error: got %q", resp.Error)
	}
}
