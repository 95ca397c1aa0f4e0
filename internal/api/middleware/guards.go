// Package middleware provides gin middleware for the admin console: the
// session route guards plus request-ID tagging and access logging.
package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/MishraAmit1/gajpatiadmin/sdk/gajpati"
)

// LoginPath is the guest surface unauthenticated operators are sent to.
const LoginPath = "/login"

// HomePath is where authenticated operators land.
const HomePath = "/"

// RequireAuth gates protected routes on session state. When the session is
// neither authenticated nor mid-check it runs an auth check first (which may
// hit the backend); operators that remain unauthenticated are redirected to
// the login surface with the originating location preserved for post-login
// return.
func RequireAuth(session *gajpati.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session.IsAuthenticated() && !session.IsLoading() {
			session.CheckAuth(c.Request.Context())
		}

		if session.IsAuthenticated() {
			c.Next()
			return
		}

		next := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			next += "?" + c.Request.URL.RawQuery
		}
		c.Redirect(http.StatusFound, LoginPath+"?next="+url.QueryEscape(next))
		c.Abort()
	}
}

// GuestOnly is the mirror gate for the login and signup surfaces: an already
// authenticated operator is sent home instead.
func GuestOnly(session *gajpati.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		if session.IsAuthenticated() {
			c.Redirect(http.StatusFound, HomePath)
			c.Abort()
			return
		}
		c.Next()
	}
}
