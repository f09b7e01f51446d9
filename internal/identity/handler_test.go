package identity_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"vault-backend/internal/bootstrap"
	"vault-backend/internal/shared/config"
)

type captureCodeSender struct {
	codes map[string]string
}

func (s *captureCodeSender) SendCode(ctx context.Context, phone, code string) error {
	if s.codes == nil {
		s.codes = make(map[string]string)
	}
	s.codes[phone] = code
	return nil
}

func newTestApp(t *testing.T) (*bootstrap.App, *captureCodeSender) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app, err := bootstrap.Build(config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		LocalStoreDir:   t.TempDir(),
		Env:             "dev",
		ObjectStoreType: "local",
	})
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	sender := &captureCodeSender{}
	app.IdentityService.SMS = sender
	return app, sender
}

func postJSON(t *testing.T, router http.Handler, path string, payload any, authToken string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func registerViaAPI(t *testing.T, router http.Handler, sender *captureCodeSender, email, phone string) string {
	t.Helper()

	resp := postJSON(t, router, "/api/v1/auth/otp/request", map[string]string{
		"phone":   phone,
		"purpose": "register",
	}, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("otp request: expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var challenge struct {
		ChallengeID string `json:"challengeId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&challenge); err != nil {
		t.Fatalf("decode otp response: %v", err)
	}

	resp = postJSON(t, router, "/api/v1/auth/register", map[string]string{
		"name":        "Test User",
		"email":       email,
		"phone":       phone,
		"password":    "hunter22",
		"challengeId": challenge.ChallengeID,
		"code":        sender.codes[phone],
	}, "")
	if resp.Code != http.StatusCreated {
		t.Fatalf("register: expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var session struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if session.Token == "" {
		t.Fatalf("expected session token")
	}
	return session.Token
}

func TestRegisterLoginAndProfileRoundTrip(t *testing.T) {
	app, sender := newTestApp(t)
	router := app.Router

	registerViaAPI(t, router, sender, "a@example.com", "+15550001111")

	resp := postJSON(t, router, "/api/v1/auth/login", map[string]string{
		"identifier": "a@example.com",
		"password":   "hunter22",
	}, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("login: expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var session struct {
		Token string `json:"token"`
		User  struct {
			Email string `json:"email"`
			Phone string `json:"phone"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if session.User.Email != "a@example.com" {
		t.Fatalf("unexpected user: %+v", session.User)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	respMe := httptest.NewRecorder()
	router.ServeHTTP(respMe, req)
	if respMe.Code != http.StatusOK {
		t.Fatalf("me: expected status 200, got %d", respMe.Code)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	app, sender := newTestApp(t)
	router := app.Router

	registerViaAPI(t, router, sender, "a@example.com", "+15550001111")

	resp := postJSON(t, router, "/api/v1/auth/login", map[string]string{
		"identifier": "a@example.com",
		"password":   "wrong",
	}, "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestOTPLoginFlow(t *testing.T) {
	app, sender := newTestApp(t)
	router := app.Router

	registerViaAPI(t, router, sender, "a@example.com", "+15550001111")

	resp := postJSON(t, router, "/api/v1/auth/otp/request", map[string]string{
		"phone":   "+15550001111",
		"purpose": "login",
	}, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("otp request: expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var challenge struct {
		ChallengeID string `json:"challengeId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&challenge); err != nil {
		t.Fatalf("decode otp response: %v", err)
	}

	resp = postJSON(t, router, "/api/v1/auth/otp/verify", map[string]string{
		"challengeId": challenge.ChallengeID,
		"code":        sender.codes["+15550001111"],
	}, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("otp verify: expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	// The same challenge cannot be redeemed twice.
	resp = postJSON(t, router, "/api/v1/auth/otp/verify", map[string]string{
		"challengeId": challenge.ChallengeID,
		"code":        sender.codes["+15550001111"],
	}, "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("second verify: expected status 401, got %d", resp.Code)
	}
}

func TestPhoneChangeFlow(t *testing.T) {
	app, sender := newTestApp(t)
	router := app.Router

	token := registerViaAPI(t, router, sender, "a@example.com", "+15550001111")

	resp := postJSON(t, router, "/api/v1/me/phone/code", map[string]string{
		"phone": "+15550002222",
	}, token)
	if resp.Code != http.StatusOK {
		t.Fatalf("phone change code: expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var challenge struct {
		ChallengeID string `json:"challengeId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&challenge); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	resp = postJSON(t, router, "/api/v1/me/phone", map[string]string{
		"challengeId": challenge.ChallengeID,
		"code":        sender.codes["+15550002222"],
	}, token)
	if resp.Code != http.StatusOK {
		t.Fatalf("phone change: expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var user struct {
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if user.Phone != "+15550002222" {
		t.Fatalf("phone = %q", user.Phone)
	}
}

func TestProfileRoutesRequireAuth(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}
