package handler

import (
	"net/http"
	"testing"

	"github.com/aman-churiwal/second-brain/internal/models"
	"github.com/aman-churiwal/second-brain/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler(t *testing.T) {
	authService := service.NewAuthService(newUserRepo(), "test-secret", 1, []string{"root@example.com"})
	h := NewAuthHandler(authService)

	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)

	type registerResponse struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}

	t.Run("register", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/register", gin.H{"email": "alice@example.com", "password": "password123", "name": "Alice"})
		require.Equal(t, http.StatusCreated, w.Code)

		resp := decode[registerResponse](t, w)
		assert.Equal(t, "alice@example.com", resp.User.Email)
		assert.NotEmpty(t, resp.Token)
		assert.NotContains(t, w.Body.String(), "password")

		claims, err := authService.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID.String(), claims.UserID)
	})

	t.Run("register admin email", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/register", gin.H{"email": "root@example.com", "password": "password123"})
		require.Equal(t, http.StatusCreated, w.Code)
		resp := decode[registerResponse](t, w)
		assert.Equal(t, models.RoleAdmin, resp.User.Role)
		assert.Equal(t, "admin", resp.User.Tier)
	})

	t.Run("duplicate email", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/register", gin.H{"email": "alice@example.com", "password": "password123"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/register", gin.H{"email": "not-an-email", "password": "short"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("login", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/login", gin.H{"email": "alice@example.com", "password": "password123"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, decode[map[string]string](t, w)["token"])

		w = doJSON(t, r, http.MethodPost, "/login", gin.H{"email": "alice@example.com", "password": "wrong-password"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
