package gajpati

import (
	"context"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// refreshResult is what a queued caller receives when the in-flight refresh
// settles: the new token on success, the refresh error otherwise.
type refreshResult struct {
	token string
	err   error
}

// awaitRefresh coordinates token refresh across concurrent 401s. The first
// caller to observe the idle state owns the refresh call; every caller that
// arrives while a refresh is in flight is appended to the waiter queue and
// blocks until the owner settles it. At most one refresh request is ever in
// flight, and queued callers never hit the refresh endpoint themselves.
func (c *Client) awaitRefresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.refreshing {
		ch := make(chan refreshResult, 1)
		c.waiters = append(c.waiters, ch)
		c.mu.Unlock()
		select {
		case <-ctx.Done():
			return "", &NetworkError{Err: ctx.Err()}
		case res := <-ch:
			return res.token, res.err
		}
	}
	c.refreshing = true
	c.mu.Unlock()

	token, err := c.refreshAccessToken(ctx)

	c.mu.Lock()
	c.refreshing = false
	waiters := c.waiters
	c.waiters = nil
	expiredHook := c.onAuthExpired
	c.mu.Unlock()

	if err != nil {
		log.Warnf("token refresh failed, session is unrecoverable: %v", err)
		if clearErr := c.tokens.Clear(); clearErr != nil {
			log.Warnf("clearing token after failed refresh: %v", clearErr)
		}
		for _, ch := range waiters {
			ch <- refreshResult{err: err}
		}
		if expiredHook != nil {
			expiredHook()
		}
		return "", err
	}

	if saveErr := c.tokens.Save(token); saveErr != nil {
		log.Warnf("persisting refreshed token: %v", saveErr)
	}
	// Waiters are resolved in the order they queued; each retries its own
	// request after waking.
	for _, ch := range waiters {
		ch <- refreshResult{token: token}
	}
	return token, nil
}

// refreshAccessToken exchanges the session cookie for a new access token.
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	res, err := c.do(ctx, refreshEndpoint, &RequestOptions{Method: http.MethodPost}, nil, contentTypeJSON, "")
	if err != nil {
		return "", err
	}
	token := firstString(res, "data.accessToken", "accessToken")
	if token == "" {
		return "", fmt.Errorf("gajpati auth: refresh response carried no access token")
	}
	return token, nil
}
