package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aman-churiwal/second-brain/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// uniformQuotas applies the same request counts to every category.
func uniformQuotas(hourly, burst int) ratelimit.Quotas {
	h := make(map[string]int, len(ratelimit.Categories))
	b := make(map[string]int, len(ratelimit.Categories))
	for _, c := range ratelimit.Categories {
		h[string(c)] = hourly
		b[string(c)] = burst
	}
	return ratelimit.DefaultQuotas().WithOverrides(h, b)
}

func newPolicy(store ratelimit.Store, quotas ratelimit.Quotas) *ratelimit.Policy {
	now := func() time.Time { return time.Date(2024, 5, 10, 9, 15, 0, 0, time.UTC) }
	return ratelimit.NewPolicy(ratelimit.New(store, ratelimit.WithClock(now)), quotas, nil)
}

func doRequest(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "192.0.2.1:1234"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

type errStore struct {
	err error
}

func (s errStore) Get(ctx context.Context, key string) (int64, error)  { return 0, s.err }
func (s errStore) Incr(ctx context.Context, key string) (int64, error) { return 0, s.err }
func (s errStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return false, s.err
}
func (s errStore) Del(ctx context.Context, keys ...string) (int64, error) { return 0, s.err }
