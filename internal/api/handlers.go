package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/MishraAmit1/gajpatiadmin/internal/buildinfo"
	"github.com/MishraAmit1/gajpatiadmin/sdk/gajpati"
)

func (s *Server) handleLoginSurface(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Authentication required. POST credentials to /session/login.",
		"next":    c.Query("next"),
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var creds gajpati.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	result := s.session.Login(c.Request.Context(), creds)
	if !result.Success {
		c.JSON(http.StatusUnauthorized, gin.H{"error": result.Error})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": result.User})
}

func (s *Server) handleSignup(c *gin.Context) {
	var data gajpati.SignupData
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fullname, email, username and password are required"})
		return
	}

	result := s.session.Signup(c.Request.Context(), data)
	if !result.Success {
		c.JSON(http.StatusBadRequest, gin.H{"error": result.Error})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": result.Message})
}

func (s *Server) handleLogout(c *gin.Context) {
	s.session.Logout(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "Logged out."})
}

func (s *Server) handleSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"authenticated": s.session.IsAuthenticated(),
		"loading":       s.session.IsLoading(),
		"user":          s.session.User(),
	})
}

func (s *Server) handleDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"console": "gajpati-admin",
		"version": buildinfo.Version,
		"user":    s.session.User(),
	})
}

// registerResourceRoutes wires the guarded passthrough surface: listing,
// inspection and lifecycle operations for every backend resource the
// dashboard manages.
func (s *Server) registerResourceRoutes(panel *gin.RouterGroup) {
	svc := s.services

	type routes struct {
		name      string
		list      func(context.Context, url.Values) (gjson.Result, error)
		get       func(context.Context, string) (gjson.Result, error)
		remove    func(context.Context, string) (gjson.Result, error)
		toggle    func(context.Context, string) (gjson.Result, error)
		permanent func(context.Context, string) (gjson.Result, error)
	}

	table := []routes{
		{"products", svc.Products.List, svc.Products.Get, svc.Products.Delete, svc.Products.ToggleStatus, svc.Products.PermanentDelete},
		{"plants", svc.Plants.List, svc.Plants.Get, svc.Plants.Delete, svc.Plants.ToggleStatus, svc.Plants.PermanentDelete},
		{"natures", svc.Natures.List, svc.Natures.Get, svc.Natures.Delete, svc.Natures.ToggleStatus, svc.Natures.PermanentDelete},
		{"inquiries", svc.Inquiries.List, svc.Inquiries.Get, svc.Inquiries.Delete, svc.Inquiries.ToggleStatus, svc.Inquiries.PermanentDelete},
		{"blogs", svc.Blogs.List, svc.Blogs.Get, svc.Blogs.Delete, nil, nil},
		{"quotes", svc.Quotes.List, svc.Quotes.Get, svc.Quotes.Delete, nil, nil},
		{"users", svc.Users.List, svc.Users.Get, svc.Users.Delete, nil, nil},
		{"subscribers", svc.Subscribers.List, nil, svc.Subscribers.Delete, nil, nil},
	}

	for _, r := range table {
		group := panel.Group("/" + r.name)
		group.GET("", s.listHandler(r.list))
		if r.get != nil {
			group.GET("/:id", s.itemHandler(r.get))
		}
		if r.remove != nil {
			group.DELETE("/:id", s.itemHandler(r.remove))
		}
		if r.toggle != nil {
			group.PATCH("/:id/toggle-status", s.itemHandler(r.toggle))
		}
		if r.permanent != nil {
			group.DELETE("/:id/permanent", s.itemHandler(r.permanent))
		}
	}

	panel.GET("/search/products", func(c *gin.Context) {
		res, err := svc.Products.Search(c.Request.Context(), c.Query("q"), c.Request.URL.Query())
		s.renderResult(c, res, err)
	})
}

func (s *Server) listHandler(list func(context.Context, url.Values) (gjson.Result, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := list(c.Request.Context(), c.Request.URL.Query())
		s.renderResult(c, res, err)
	}
}

func (s *Server) itemHandler(op func(context.Context, string) (gjson.Result, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := op(c.Request.Context(), c.Param("id"))
		s.renderResult(c, res, err)
	}
}

// renderResult forwards the backend response body, translating SDK errors
// into console-facing statuses.
func (s *Server) renderResult(c *gin.Context, res gjson.Result, err error) {
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if res.Raw == "" {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.Data(http.StatusOK, "application/json", []byte(res.Raw))
}

func statusFor(err error) int {
	var authErr *gajpati.AuthExpiredError
	if errors.As(err, &authErr) {
		return http.StatusUnauthorized
	}
	var httpErr *gajpati.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	var valErr *gajpati.ValidationError
	if errors.As(err, &valErr) {
		return valErr.Status
	}
	return http.StatusBadGateway
}
