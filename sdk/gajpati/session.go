package gajpati

import (
	"context"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	registerEndpoint    = "/users/register"
	logoutEndpoint      = "/users/logout"
	currentUserEndpoint = "/users/me"
)

// UserProfile is the projection of a backend user record. It is replaced
// wholesale on every fetch, never mutated in place.
type UserProfile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Role     string `json:"role"`
}

// Credentials are the login inputs.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignupData are the registration inputs.
type SignupData struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Result is the uniform outcome of every session operation. Session methods
// never return a Go error; failures are folded into Error with a message fit
// for the operator.
type Result struct {
	Success bool
	Message string
	Error   string
	User    *UserProfile
}

// Session holds the in-memory authentication state for one operator. It is
// constructed with its client rather than living as package state, so tests
// and embedders own the full lifecycle.
type Session struct {
	client *Client

	mu            sync.Mutex
	user          *UserProfile
	authenticated bool
	loading       bool
}

// NewSession creates an empty, unauthenticated session over the given client.
func NewSession(client *Client) *Session {
	return &Session{client: client}
}

// Login authenticates against the backend, persists the returned access
// token, and marks the session authenticated.
func (s *Session) Login(ctx context.Context, creds Credentials) Result {
	s.setLoading(true)
	defer s.setLoading(false)

	res, err := s.client.Request(ctx, loginEndpoint, &RequestOptions{
		Method: http.MethodPost,
		Body:   creds,
	})
	if err != nil {
		return Result{Error: translateLoginError(errorMessage(err))}
	}

	userNode := userRecord(res)
	if !userNode.Exists() {
		return Result{Error: "Login failed. Please try again."}
	}

	if token := firstString(res, "data.accessToken", "accessToken"); token != "" {
		if saveErr := s.client.tokens.Save(token); saveErr != nil {
			log.Warnf("persisting login token: %v", saveErr)
		}
	}

	profile := projectUser(userNode)
	s.setSession(profile, true)
	return Result{Success: true, User: profile}
}

// Signup registers a new account. It does not authenticate the session; the
// operator logs in afterwards.
func (s *Session) Signup(ctx context.Context, data SignupData) Result {
	res, err := s.client.Request(ctx, registerEndpoint, &RequestOptions{
		Method: http.MethodPost,
		Body:   data,
	})
	if err != nil {
		return Result{Error: translateSignupError(errorMessage(err))}
	}

	message := firstString(res, "message", "data.message")
	if message == "" {
		message = "Account created successfully."
	}
	return Result{Success: true, Message: message}
}

// Logout tells the backend to end the session (best effort) and then
// unconditionally clears the persisted token and resets local state. The
// cleanup runs whether or not the backend call succeeded.
func (s *Session) Logout(ctx context.Context) Result {
	if _, err := s.client.Request(ctx, logoutEndpoint, &RequestOptions{Method: http.MethodPost}); err != nil {
		log.Warnf("backend logout failed, clearing local session anyway: %v", err)
	}

	if err := s.client.tokens.Clear(); err != nil {
		log.Warnf("clearing token on logout: %v", err)
	}
	s.reset()
	return Result{Success: true}
}

// RefreshAuth exchanges the session cookie for a new access token through
// the refresh coordinator. On failure the token is cleared and the session
// reset.
func (s *Session) RefreshAuth(ctx context.Context) Result {
	if _, err := s.client.awaitRefresh(ctx); err != nil {
		s.reset()
		return Result{Error: errorMessage(err)}
	}
	return Result{Success: true}
}

// CurrentUser fetches and stores the authenticated operator's profile. On
// failure the session state is left untouched.
func (s *Session) CurrentUser(ctx context.Context) Result {
	res, err := s.client.Request(ctx, currentUserEndpoint, nil)
	if err != nil {
		log.Debugf("current user fetch failed: %v", err)
		return Result{Error: errorMessage(err)}
	}

	userNode := userRecord(res)
	if !userNode.Exists() {
		return Result{Error: "Could not load the current user."}
	}

	profile := projectUser(userNode)
	s.setSession(profile, true)
	return Result{Success: true, User: profile}
}

// CheckAuth reports whether a usable session exists. Without a persisted
// token it answers immediately with no network traffic. Otherwise it tries
// the current-user endpoint, falling back to one refresh plus a single retry.
func (s *Session) CheckAuth(ctx context.Context) bool {
	token, err := s.client.tokens.Load()
	if err != nil {
		log.Warnf("token load during auth check failed: %v", err)
		if clearErr := s.client.tokens.Clear(); clearErr != nil {
			log.Warnf("clearing unreadable token: %v", clearErr)
		}
		s.reset()
		return false
	}
	if token == "" {
		return false
	}

	if s.CurrentUser(ctx).Success {
		return true
	}
	if !s.RefreshAuth(ctx).Success {
		return false
	}
	return s.CurrentUser(ctx).Success
}

// Initialize restores the session at process start: an auth check followed by
// a profile fetch, with loading toggled around the whole sequence. Failures
// are logged, never surfaced.
func (s *Session) Initialize(ctx context.Context) {
	s.setLoading(true)
	defer s.setLoading(false)

	if !s.CheckAuth(ctx) {
		return
	}
	if res := s.CurrentUser(ctx); !res.Success {
		log.Warnf("session restore: profile fetch failed: %s", res.Error)
	}
}

// SetUser overrides the session with an externally obtained profile. The
// session is authenticated iff user is non-nil.
func (s *Session) SetUser(user *UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.authenticated = user != nil
}

// User returns the current profile, or nil when unauthenticated.
func (s *Session) User() *UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	copied := *s.user
	return &copied
}

// IsAuthenticated reports the session's authenticated flag.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// IsLoading reports whether a session lifecycle operation is in flight.
func (s *Session) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Session) setLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
}

func (s *Session) setSession(user *UserProfile, authenticated bool) {
	s.mu.Lock()
	s.user = user
	s.authenticated = authenticated
	s.mu.Unlock()
}

func (s *Session) reset() {
	s.mu.Lock()
	s.user = nil
	s.authenticated = false
	s.mu.Unlock()
}

// userRecord locates the user object in a backend response, probing the
// data-wrapped and top-level shapes the backend emits.
func userRecord(res gjson.Result) gjson.Result {
	for _, path := range []string{"data.user", "user", "data"} {
		node := res.Get(path)
		if node.IsObject() && (node.Get("_id").Exists() || node.Get("email").Exists()) {
			return node
		}
	}
	if res.IsObject() && res.Get("_id").Exists() {
		return res
	}
	return gjson.Result{}
}

// projectUser maps a backend user record onto a UserProfile. Role defaults
// to "user" when the record omits it.
func projectUser(node gjson.Result) *UserProfile {
	role := node.Get("role").String()
	if role == "" {
		role = "user"
	}
	return &UserProfile{
		ID:       node.Get("_id").String(),
		Name:     node.Get("fullname").String(),
		Email:    node.Get("email").String(),
		Username: node.Get("username").String(),
		Avatar:   node.Get("avatar").String(),
		Role:     role,
	}
}
