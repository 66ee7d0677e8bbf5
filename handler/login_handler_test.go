package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"main/model"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// fakeUserStore mirrors the upsert semantics of the Mongo repository: one
// document per username, device entries added as a set.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User
	err   error
	calls int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*model.User)}
}

func (f *fakeUserStore) UpsertOnLogin(ctx context.Context, login *model.LoginUpsert) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	user, ok := f.users[login.Username]
	if !ok {
		user = &model.User{
			Username:  login.Username,
			StudentID: login.StudentID,
			Email:     login.Email,
			CreatedAt: time.Now(),
		}
		f.users[login.Username] = user
	}
	user.Name = login.Name
	user.Roles = login.Roles
	user.LastLogin = time.Now()
	user.IsActive = true
	if login.AccessToken != "" {
		user.AccessToken = login.AccessToken
	}
	for _, existing := range user.DeviceInfo {
		if reflect.DeepEqual(existing, login.Device) {
			return user, nil
		}
	}
	user.DeviceInfo = append(user.DeviceInfo, login.Device)
	return user, nil
}

type fakeActivityWriter struct {
	mu         sync.Mutex
	activities []*model.Activity
	err        error
}

func (f *fakeActivityWriter) Insert(ctx context.Context, activity *model.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.activities = append(f.activities, activity)
	return nil
}

func loginTestRouter(upstream *services.UpstreamClient, users *fakeUserStore, activities *fakeActivityWriter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewLoginHandler(upstream, users, activities)
	proxy := NewProxyHandler(upstream, handler)
	router := gin.New()
	router.Any("/api/proxy/*path", proxy.Forward)
	router.POST("/api/activity/login", handler.ActivityLogin)
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) Chrome/120.0")
	router.ServeHTTP(w, req)
	return w
}

func TestActivityLoginRequiresUsername(t *testing.T) {
	users := newFakeUserStore()
	activities := &fakeActivityWriter{}
	router := loginTestRouter(services.NewUpstreamClientWithBase("http://127.0.0.1:1"), users, activities)

	w := postJSON(router, "/api/activity/login", `{"message":"success"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
	if users.calls != 0 {
		t.Error("validation failure must not touch the user store")
	}
	if len(activities.activities) != 0 {
		t.Error("validation failure must not record an activity")
	}
}

func TestActivityLoginRecordsSuccess(t *testing.T) {
	users := newFakeUserStore()
	activities := &fakeActivityWriter{}
	router := loginTestRouter(services.NewUpstreamClientWithBase("http://127.0.0.1:1"), users, activities)

	w := postJSON(router, "/api/activity/login",
		`{"username":"193-15-1036","name":"Nadia Islam","email":"nadia@diu.edu.bd","message":"success","commaSeparatedRoles":"Student, USER"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}

	var resp utils.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not an envelope: %v", err)
	}
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data: got %T", resp.Data)
	}
	if data["status"] != "success" || data["tracked"] != true {
		t.Errorf("data: got %v", data)
	}

	user := users.users["193-15-1036"]
	if user == nil {
		t.Fatal("user was not upserted")
	}
	if user.Name != "Nadia Islam" {
		t.Errorf("name: got %q", user.Name)
	}
	if !reflect.DeepEqual(user.Roles, []string{"student", "user"}) {
		t.Errorf("roles: got %v", user.Roles)
	}
	if len(user.DeviceInfo) != 1 {
		t.Fatalf("devices: got %d", len(user.DeviceInfo))
	}

	if len(activities.activities) != 1 {
		t.Fatalf("activities: got %d", len(activities.activities))
	}
	act := activities.activities[0]
	if act.Action != model.ActionLogin || act.Status != "success" || act.UserID != "193-15-1036" {
		t.Errorf("activity: got %+v", act)
	}
}

func TestActivityLoginNonSuccessMessage(t *testing.T) {
	users := newFakeUserStore()
	activities := &fakeActivityWriter{}
	router := loginTestRouter(services.NewUpstreamClientWithBase("http://127.0.0.1:1"), users, activities)

	w := postJSON(router, "/api/activity/login", `{"studentId":"193-15-1036","message":"invalid credentials"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if len(activities.activities) != 1 || activities.activities[0].Status != "failed" {
		t.Errorf("expected a failed login record, got %+v", activities.activities)
	}
}

func TestProxyLoginSuccessIssuesSessionToken(t *testing.T) {
	utils.JWTSecretKey = "test_jwt_secret"
	utils.JWTExpirationTime = 3600

	var upstreamBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" {
			t.Errorf("upstream path: got %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&upstreamBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"success","accessToken":"upstream-tok","name":"Nadia Islam","commaSeparatedRoles":"student"}`))
	}))
	defer server.Close()

	users := newFakeUserStore()
	activities := &fakeActivityWriter{}
	router := loginTestRouter(services.NewUpstreamClientWithBase(server.URL), users, activities)

	w := postJSON(router, "/api/proxy/login", `{"username":"193-15-1036","password":"secret","deviceName":"Chrome on Linux"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	if upstreamBody["username"] != "193-15-1036" || upstreamBody["password"] != "secret" {
		t.Errorf("upstream credentials: got %v", upstreamBody)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if payload["message"] != "success" {
		t.Errorf("message not relayed: got %v", payload)
	}
	token, _ := payload["sessionToken"].(string)
	if token == "" {
		t.Fatal("expected a sessionToken on success")
	}
	claims, err := services.ParseSessionToken(token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.Username != "193-15-1036" || claims.Name != "Nadia Islam" {
		t.Errorf("claims: got %+v", claims)
	}

	user := users.users["193-15-1036"]
	if user == nil {
		t.Fatal("user was not upserted")
	}
	if user.AccessToken != "upstream-tok" {
		t.Errorf("access token from the upstream payload not stored: got %q", user.AccessToken)
	}
	if len(activities.activities) != 1 || activities.activities[0].Status != "success" {
		t.Errorf("expected one success activity, got %+v", activities.activities)
	}
}

func TestProxyLoginRejectedUpstream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid credentials"}`))
	}))
	defer server.Close()

	users := newFakeUserStore()
	activities := &fakeActivityWriter{}
	router := loginTestRouter(services.NewUpstreamClientWithBase(server.URL), users, activities)

	w := postJSON(router, "/api/proxy/login", `{"username":"193-15-1036","password":"wrong"}`)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("upstream status not relayed: got %d", w.Code)
	}
	var payload map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &payload)
	if _, ok := payload["sessionToken"]; ok {
		t.Error("no sessionToken may be issued for a rejected login")
	}
	if len(activities.activities) != 1 || activities.activities[0].Status != "failed" {
		t.Errorf("expected one failed activity, got %+v", activities.activities)
	}
}

func TestProxyLoginUpstreamUnreachableStillAudited(t *testing.T) {
	users := newFakeUserStore()
	activities := &fakeActivityWriter{}
	router := loginTestRouter(services.NewUpstreamClientWithBase("http://127.0.0.1:1"), users, activities)

	w := postJSON(router, "/api/proxy/login", `{"username":"193-15-1036","password":"secret"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", w.Code)
	}
	if len(activities.activities) != 1 || activities.activities[0].Status != "failed" {
		t.Errorf("unreachable upstream must still be audited, got %+v", activities.activities)
	}
}

func TestProxyLoginConcurrentSameUsername(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"success"}`))
	}))
	defer server.Close()

	utils.JWTSecretKey = "test_jwt_secret"
	utils.JWTExpirationTime = 3600

	users := newFakeUserStore()
	activities := &fakeActivityWriter{}
	router := loginTestRouter(services.NewUpstreamClientWithBase(server.URL), users, activities)

	var wg sync.WaitGroup
	for _, device := range []string{"Chrome on Linux", "Safari on iPhone"} {
		wg.Add(1)
		go func(device string) {
			defer wg.Done()
			w := postJSON(router, "/api/proxy/login",
				`{"username":"193-15-1036","password":"secret","deviceName":"`+device+`"}`)
			if w.Code != http.StatusOK {
				t.Errorf("status: got %d", w.Code)
			}
		}(device)
	}
	wg.Wait()

	if len(users.users) != 1 {
		t.Fatalf("expected a single user document, got %d", len(users.users))
	}
	if devices := len(users.users["193-15-1036"].DeviceInfo); devices != 2 {
		t.Errorf("expected both devices on the one document, got %d", devices)
	}
	if len(activities.activities) != 2 {
		t.Errorf("expected two login activities, got %d", len(activities.activities))
	}
}

func TestParseRoles(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", []string{"user"}},
		{" , ,", []string{"user"}},
		{"Admin, USER ,student", []string{"admin", "user", "student"}},
		{"student", []string{"student"}},
	}

	for _, tc := range cases {
		if got := parseRoles(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("parseRoles(%q): got %v, want %v", tc.in, got, tc.want)
		}
	}
}
