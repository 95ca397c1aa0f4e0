package gajpati

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestSession(t *testing.T, serverURL string, tokens TokenStore) *Session {
	t.Helper()
	return NewSession(newTestClient(t, serverURL, tokens, nil))
}

func TestLoginStoresTokenAndProjectsUser(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/users/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data":{"user":{"_id":"u1","fullname":"A","email":"a@x.io","username":"a","role":"admin"},"accessToken":"tok1"}}`))
	}))
	defer server.Close()

	tokens := NewMemoryTokenStore()
	session := newTestSession(t, server.URL, tokens)

	result := session.Login(context.Background(), Credentials{Username: "a", Password: "pw"})
	if !result.Success {
		t.Fatalf("login failed: %s", result.Error)
	}
	if result.User == nil || result.User.ID != "u1" || result.User.Name != "A" || result.User.Role != "admin" {
		t.Errorf("projected user = %+v", result.User)
	}
	if token, _ := tokens.Load(); token != "tok1" {
		t.Errorf("stored token = %q, want tok1", token)
	}
	if !session.IsAuthenticated() {
		t.Error("session not authenticated after login")
	}
	if user := session.User(); user == nil || user.Username != "a" {
		t.Errorf("session user = %+v", user)
	}
}

func TestLoginWithoutUserRecordFails(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer server.Close()

	session := newTestSession(t, server.URL, NewMemoryTokenStore())

	result := session.Login(context.Background(), Credentials{Username: "a", Password: "pw"})
	if result.Success {
		t.Fatal("login succeeded despite missing user record")
	}
	if result.Error != "Login failed. Please try again." {
		t.Errorf("error = %q", result.Error)
	}
	if session.IsAuthenticated() {
		t.Error("session authenticated after failed login")
	}
}

func TestLoginErrorTranslation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		backend string
		want    string
	}{
		{"unknown account", http.StatusNotFound, "User does not exist", "No account found with this username."},
		{"bad password", http.StatusUnauthorized, "Invalid user credentials", "Invalid username or password."},
		{"deactivated", http.StatusForbidden, "Account is deactivated by the administrator", "Your account has been deactivated. Please contact an administrator."},
		{"rate limited", http.StatusTooManyRequests, "Too many requests from this IP", "Too many login attempts. Please try again later."},
		{"unmatched passthrough", http.StatusInternalServerError, "Something odd happened", "Something odd happened"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"` + tt.backend + `"}`))
			}))
			defer server.Close()

			session := newTestSession(t, server.URL, NewMemoryTokenStore())
			result := session.Login(context.Background(), Credentials{Username: "a", Password: "pw"})
			if result.Success {
				t.Fatal("login succeeded unexpectedly")
			}
			if result.Error != tt.want {
				t.Errorf("error = %q, want %q", result.Error, tt.want)
			}
		})
	}
}

func TestSignupErrorTranslation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		backend string
		want    string
	}{
		{"bad username", "Username can only contain alphanumerics", "Username may only contain letters, numbers and underscores."},
		{"duplicate", "User with email or username already exists", "An account with this email or username already exists."},
		{"weak password", "Password must be at least 8 characters", "Password must be at least 8 characters long."},
		{"bad email", "Invalid email format", "Please enter a valid email address."},
		{"unmatched passthrough", "Upstream database offline", "Upstream database offline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"message":"` + tt.backend + `"}`))
			}))
			defer server.Close()

			session := newTestSession(t, server.URL, NewMemoryTokenStore())
			result := session.Signup(context.Background(), SignupData{Username: "a"})
			if result.Success {
				t.Fatal("signup succeeded unexpectedly")
			}
			if result.Error != tt.want {
				t.Errorf("error = %q, want %q", result.Error, tt.want)
			}
		})
	}
}

func TestSignupDefaultMessage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"_id":"u2"}}`))
	}))
	defer server.Close()

	session := newTestSession(t, server.URL, NewMemoryTokenStore())
	result := session.Signup(context.Background(), SignupData{Username: "b"})
	if !result.Success {
		t.Fatalf("signup failed: %s", result.Error)
	}
	if result.Message != "Account created successfully." {
		t.Errorf("message = %q", result.Message)
	}
}

func TestLogoutClearsStateEvenWhenBackendUnreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	tokens := NewMemoryTokenStore()
	if err := tokens.Save("tok1"); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	session := newTestSession(t, server.URL, tokens)
	session.SetUser(&UserProfile{ID: "u1", Username: "a"})

	result := session.Logout(context.Background())
	if !result.Success {
		t.Error("logout must always succeed locally")
	}
	if token, _ := tokens.Load(); token != "" {
		t.Errorf("token survived logout: %q", token)
	}
	if session.IsAuthenticated() || session.User() != nil {
		t.Error("session state survived logout")
	}
}

func TestCheckAuthWithoutTokenMakesNoNetworkCalls(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	session := newTestSession(t, server.URL, NewMemoryTokenStore())
	if session.CheckAuth(context.Background()) {
		t.Error("CheckAuth true without a token")
	}
	if calls.Load() != 0 {
		t.Errorf("CheckAuth made %d network calls without a token", calls.Load())
	}
}

func TestCheckAuthRecoversThroughRefresh(t *testing.T) {
	t.Parallel()

	var refreshed atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/users/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshed.Store(true)
		_, _ = w.Write([]byte(`{"data":{"accessToken":"tok2"}}`))
	})
	mux.HandleFunc("/api/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		if !refreshed.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"profile store unavailable"}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"_id":"u1","fullname":"A","email":"a@x.io","username":"a"}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	tokens := NewMemoryTokenStore()
	if err := tokens.Save("tok1"); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	session := newTestSession(t, server.URL, tokens)

	if !session.CheckAuth(context.Background()) {
		t.Fatal("CheckAuth failed despite recoverable refresh")
	}
	if !refreshed.Load() {
		t.Error("refresh endpoint was never hit")
	}
	if user := session.User(); user == nil || user.Role != "user" {
		t.Errorf("restored user = %+v, want role defaulted to user", user)
	}
	if token, _ := tokens.Load(); token != "tok2" {
		t.Errorf("stored token = %q, want tok2", token)
	}
}

func TestCurrentUserFailureLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"boom"}`))
	}))
	defer server.Close()

	session := newTestSession(t, server.URL, NewMemoryTokenStore())
	session.SetUser(&UserProfile{ID: "u1", Username: "a"})

	result := session.CurrentUser(context.Background())
	if result.Success {
		t.Fatal("CurrentUser succeeded unexpectedly")
	}
	if !session.IsAuthenticated() {
		t.Error("failed profile fetch must not deauthenticate the session")
	}
	if user := session.User(); user == nil || user.ID != "u1" {
		t.Errorf("session user mutated by failed fetch: %+v", user)
	}
}

func TestSetUserControlsAuthenticatedFlag(t *testing.T) {
	t.Parallel()

	session := NewSession(nil)

	session.SetUser(&UserProfile{ID: "u1"})
	if !session.IsAuthenticated() {
		t.Error("authenticated flag not set with a user")
	}

	session.SetUser(nil)
	if session.IsAuthenticated() || session.User() != nil {
		t.Error("authenticated flag or user survived SetUser(nil)")
	}
}

func TestUserReturnsCopy(t *testing.T) {
	t.Parallel()

	session := NewSession(nil)
	session.SetUser(&UserProfile{ID: "u1", Name: "A"})

	copied := session.User()
	copied.Name = "mutated"

	if session.User().Name != "A" {
		t.Error("mutating the returned profile leaked into session state")
	}
}
