package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aman-churiwal/second-brain/internal/middleware"
	"github.com/aman-churiwal/second-brain/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser authenticates every request as the given user.
func asUser(userID, role, tier string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextRole, role)
		c.Set(middleware.ContextTier, tier)
		c.Next()
	}
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.1:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

type memoryRepo struct {
	mu       sync.Mutex
	memories map[string]models.Memory
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{memories: make(map[string]models.Memory)}
}

func (r *memoryRepo) Create(ctx context.Context, m *models.Memory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	r.memories[m.ID.String()] = *m
	return nil
}

func (r *memoryRepo) FindByID(ctx context.Context, ownerID, id string) (*models.Memory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.memories[id]
	if !ok || m.OwnerID != ownerID {
		return nil, nil
	}
	return &m, nil
}

func (r *memoryRepo) List(ctx context.Context, ownerID string, limit, offset int) ([]models.Memory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Memory{}
	for _, m := range r.memories {
		if m.OwnerID == ownerID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryRepo) Update(ctx context.Context, m *models.Memory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memories[m.ID.String()] = *m
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, ownerID, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.memories[id]
	if !ok || m.OwnerID != ownerID {
		return 0, nil
	}
	delete(r.memories, id)
	return 1, nil
}

func (r *memoryRepo) Search(ctx context.Context, ownerID, query string, limit int) ([]models.Memory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Memory{}
	for _, m := range r.memories {
		if m.OwnerID == ownerID && strings.Contains(strings.ToLower(m.Title+" "+m.Content), strings.ToLower(query)) {
			out = append(out, m)
		}
	}
	return out, nil
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

var errDown = errors.New("connection refused")

type userRepo struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newUserRepo() *userRepo {
	return &userRepo{users: make(map[string]models.User)}
}

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.ID = uuid.New()
	r.users[u.Email] = *u
	return nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type apiKeyRepo struct {
	mu   sync.Mutex
	keys map[string]models.APIKey
}

func newAPIKeyRepo() *apiKeyRepo {
	return &apiKeyRepo{keys: make(map[string]models.APIKey)}
}

func (r *apiKeyRepo) Create(ctx context.Context, k *models.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k.ID = uuid.New()
	r.keys[k.ID.String()] = *k
	return nil
}

func (r *apiKeyRepo) FindByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.keys {
		if k.KeyHash == hash {
			return &k, nil
		}
	}
	return nil, nil
}

func (r *apiKeyRepo) FindByID(ctx context.Context, id string) (*models.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.keys[id]
	if !ok {
		return nil, nil
	}
	return &k, nil
}

func (r *apiKeyRepo) List(ctx context.Context) ([]models.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.APIKey{}
	for _, k := range r.keys {
		out = append(out, k)
	}
	return out, nil
}

func (r *apiKeyRepo) UpdateLastUsed(ctx context.Context, id uuid.UUID) error { return nil }

func (r *apiKeyRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, id)
	return nil
}
