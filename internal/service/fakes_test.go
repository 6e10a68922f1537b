package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aman-churiwal/second-brain/internal/models"
	"github.com/google/uuid"
)

type fakeMemoryRepo struct {
	mu       sync.Mutex
	memories map[uuid.UUID]models.Memory
}

func newFakeMemoryRepo() *fakeMemoryRepo {
	return &fakeMemoryRepo{memories: make(map[uuid.UUID]models.Memory)}
}

func (r *fakeMemoryRepo) Create(ctx context.Context, m *models.Memory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	r.memories[m.ID] = *m
	return nil
}

func (r *fakeMemoryRepo) FindByID(ctx context.Context, ownerID, id string) (*models.Memory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	m, ok := r.memories[parsed]
	if !ok || m.OwnerID != ownerID {
		return nil, nil
	}
	return &m, nil
}

func (r *fakeMemoryRepo) List(ctx context.Context, ownerID string, limit, offset int) ([]models.Memory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Memory
	for _, m := range r.memories {
		if m.OwnerID == ownerID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	if offset >= len(out) {
		return []models.Memory{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeMemoryRepo) Update(ctx context.Context, m *models.Memory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memories[m.ID] = *m
	return nil
}

func (r *fakeMemoryRepo) Delete(ctx context.Context, ownerID, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	parsed, err := uuid.Parse(id)
	if err != nil {
		return 0, nil
	}
	m, ok := r.memories[parsed]
	if !ok || m.OwnerID != ownerID {
		return 0, nil
	}
	delete(r.memories, parsed)
	return 1, nil
}

func (r *fakeMemoryRepo) Search(ctx context.Context, ownerID, query string, limit int) ([]models.Memory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := strings.ToLower(query)
	var out []models.Memory
	for _, m := range r.memories {
		if m.OwnerID != ownerID {
			continue
		}
		if strings.Contains(strings.ToLower(m.Title), q) || strings.Contains(strings.ToLower(m.Content), q) {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.Email] = *u
	return nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type fakeAPIKeyRepo struct {
	mu          sync.Mutex
	keys        map[string]models.APIKey
	hashLookups int
}

func newFakeAPIKeyRepo() *fakeAPIKeyRepo {
	return &fakeAPIKeyRepo{keys: make(map[string]models.APIKey)}
}

func (r *fakeAPIKeyRepo) Create(ctx context.Context, k *models.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	r.keys[k.ID.String()] = *k
	return nil
}

func (r *fakeAPIKeyRepo) FindByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hashLookups++
	for _, k := range r.keys {
		if k.KeyHash == hash && k.IsActive {
			return &k, nil
		}
	}
	return nil, nil
}

func (r *fakeAPIKeyRepo) FindByID(ctx context.Context, id string) (*models.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.keys[id]
	if !ok {
		return nil, nil
	}
	return &k, nil
}

func (r *fakeAPIKeyRepo) List(ctx context.Context) ([]models.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.APIKey, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, k)
	}
	return out, nil
}

func (r *fakeAPIKeyRepo) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := r.keys[id.String()]
	now := time.Now()
	k.LastUsedAt = &now
	r.keys[id.String()] = k
	return nil
}

func (r *fakeAPIKeyRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, id)
	return nil
}
