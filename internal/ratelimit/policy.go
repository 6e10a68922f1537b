package ratelimit

import (
	"context"
	"fmt"

	"github.com/aman-churiwal/second-brain/internal/metrics"
)

// Request is the resolved view of one inbound request.
type Request struct {
	Identity string
	ClientIP string
	Category Category
	Tier     UserTier
}

// Result carries both scope decisions of a single request.
type Result struct {
	Hourly Decision
	Burst  Decision
}

func (r Result) Allowed() bool {
	return r.Hourly.Allowed && r.Burst.Allowed
}

// Denial reports the scope that denied the request. Hourly wins when both deny.
func (r Result) Denial() (Scope, Decision, bool) {
	if !r.Hourly.Allowed {
		return ScopeHourly, r.Hourly, true
	}
	if !r.Burst.Allowed {
		return ScopeBurst, r.Burst, true
	}
	return "", Decision{}, false
}

type CategoryStatus struct {
	Category Category `json:"category"`
	Hourly   Status   `json:"hourly"`
	Burst    Status   `json:"burst"`
}

// Policy applies the hourly and burst tables to requests.
type Policy struct {
	limiter *RateLimiter
	quotas  Quotas
	metrics *metrics.Metrics
}

func NewPolicy(limiter *RateLimiter, quotas Quotas, m *metrics.Metrics) *Policy {
	return &Policy{limiter: limiter, quotas: quotas, metrics: m}
}

func (p *Policy) Quotas() Quotas {
	return p.quotas
}

// Check evaluates the hourly and then the burst quota. Both are always
// recorded, even when the hourly check already denies.
func (p *Policy) Check(ctx context.Context, req Request) (Result, error) {
	hourly, err := p.check(ctx, ScopeHourly, req)
	if err != nil {
		return Result{}, err
	}

	burst, err := p.check(ctx, ScopeBurst, req)
	if err != nil {
		return Result{}, err
	}

	return Result{Hourly: hourly, Burst: burst}, nil
}

func (p *Policy) check(ctx context.Context, scope Scope, req Request) (Decision, error) {
	key := Key(scope, req.Identity, req.ClientIP, req.Category)
	decision, err := p.limiter.IsAllowed(ctx, key, p.quotas.For(scope, req.Category), req.Tier)
	if err != nil {
		return Decision{}, err
	}

	p.metrics.RecordDecision(string(req.Category), string(scope), decision.Allowed)
	return decision, nil
}

// Status reports both scopes for every category without recording requests.
func (p *Policy) Status(ctx context.Context, identity, clientIP string, tier UserTier) ([]CategoryStatus, error) {
	statuses := make([]CategoryStatus, 0, len(Categories))

	for _, category := range Categories {
		hourly, err := p.limiter.Status(ctx, Key(ScopeHourly, identity, clientIP, category), p.quotas.For(ScopeHourly, category), tier)
		if err != nil {
			return nil, err
		}

		burst, err := p.limiter.Status(ctx, Key(ScopeBurst, identity, clientIP, category), p.quotas.For(ScopeBurst, category), tier)
		if err != nil {
			return nil, err
		}

		statuses = append(statuses, CategoryStatus{Category: category, Hourly: hourly, Burst: burst})
	}

	return statuses, nil
}

// Reset clears both scopes for one identity and category.
func (p *Policy) Reset(ctx context.Context, identity, clientIP string, category Category) error {
	for _, scope := range []Scope{ScopeHourly, ScopeBurst} {
		key := Key(scope, identity, clientIP, category)
		if err := p.limiter.Reset(ctx, key, p.quotas.For(scope, category)); err != nil {
			return fmt.Errorf("reset %s limits for %s: %w", scope, identity, err)
		}
	}
	return nil
}
