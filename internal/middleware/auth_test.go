package middleware

import (
	"errors"
	"net/http"
	"testing"

	"github.com/aman-churiwal/second-brain/internal/models"
	"github.com/aman-churiwal/second-brain/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*service.Claims, error) {
	switch token {
	case "user-token":
		return &service.Claims{UserID: "u1", Email: "u1@example.com", Role: models.RoleUser, Tier: "premium"}, nil
	case "admin-token":
		return &service.Claims{UserID: "a1", Email: "root@example.com", Role: models.RoleAdmin, Tier: "admin"}, nil
	}
	return nil, errors.New("bad token")
}

func newAuthRouter(extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(Authenticate(stubValidator{}), RejectInvalidCredentials())
	r.Use(extra...)
	r.GET("/whoami", func(c *gin.Context) {
		identity, _, tier := RateLimitSubject(c)
		c.JSON(http.StatusOK, gin.H{
			"owner":    OwnerID(c),
			"identity": identity,
			"tier":     tier,
		})
	})
	return r
}

func TestAuthenticate(t *testing.T) {
	r := newAuthRouter()

	tests := []struct {
		name   string
		header string
		want   int
		body   string
	}{
		{"no header", "", http.StatusOK, `"identity":"anonymous"`},
		{"valid token", "Bearer user-token", http.StatusOK, `"identity":"user_u1"`},
		{"wrong scheme", "Basic user-token", http.StatusUnauthorized, "Invalid authorization header format"},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, "Invalid or expired token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			w := doRequest(r, http.MethodGet, "/whoami", headers)
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}

	w := doRequest(r, http.MethodGet, "/whoami", map[string]string{"Authorization": "Bearer user-token"})
	assert.Contains(t, w.Body.String(), `"tier":"premium"`)
}

func TestRequireAuth(t *testing.T) {
	r := newAuthRouter(RequireAuth())

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, http.MethodGet, "/whoami", nil).Code)

	w := doRequest(r, http.MethodGet, "/whoami", map[string]string{"Authorization": "Bearer user-token"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"owner":"u1"`)
}

func TestRequireRole(t *testing.T) {
	r := newAuthRouter(RequireRole(models.RoleAdmin))

	assert.Equal(t, http.StatusForbidden, doRequest(r, http.MethodGet, "/whoami", nil).Code)
	assert.Equal(t, http.StatusForbidden,
		doRequest(r, http.MethodGet, "/whoami", map[string]string{"Authorization": "Bearer user-token"}).Code)
	assert.Equal(t, http.StatusOK,
		doRequest(r, http.MethodGet, "/whoami", map[string]string{"Authorization": "Bearer admin-token"}).Code)
}

func TestAuthenticate_DefersRejection(t *testing.T) {
	var sawIdentity string

	r := gin.New()
	r.Use(Authenticate(stubValidator{}))
	r.Use(func(c *gin.Context) {
		sawIdentity, _, _ = RateLimitSubject(c)
		c.Next()
	})
	r.Use(RejectInvalidCredentials())
	r.GET("/whoami", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := doRequest(r, http.MethodGet, "/whoami", map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "anonymous", sawIdentity)
}
