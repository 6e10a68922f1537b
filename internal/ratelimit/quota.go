package ratelimit

import "time"

type Scope string

const (
	ScopeHourly Scope = "hourly"
	ScopeBurst  Scope = "burst"
)

const (
	HourlyWindow = time.Hour
	BurstWindow  = time.Minute
)

type Quota struct {
	Requests int
	Window   time.Duration
}

func (q Quota) windowSeconds() int64 {
	secs := int64(q.Window / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// Quotas holds the hourly and burst tables keyed by category.
type Quotas struct {
	Hourly map[Category]Quota
	Burst  map[Category]Quota
}

func DefaultQuotas() Quotas {
	hourly := map[Category]int{
		CategoryDefault:  1000,
		CategoryHealth:   3600,
		CategorySearch:   300,
		CategoryUpload:   50,
		CategoryMemories: 1000,
		CategoryAuth:     30,
	}
	burst := map[Category]int{
		CategoryDefault:  60,
		CategoryHealth:   120,
		CategorySearch:   20,
		CategoryUpload:   5,
		CategoryMemories: 60,
		CategoryAuth:     5,
	}

	q := Quotas{
		Hourly: make(map[Category]Quota, len(hourly)),
		Burst:  make(map[Category]Quota, len(burst)),
	}
	for c, n := range hourly {
		q.Hourly[c] = Quota{Requests: n, Window: HourlyWindow}
	}
	for c, n := range burst {
		q.Burst[c] = Quota{Requests: n, Window: BurstWindow}
	}
	return q
}

// WithOverrides returns a copy with per-category request counts replaced.
// Unknown category names are ignored.
func (q Quotas) WithOverrides(hourly, burst map[string]int) Quotas {
	out := Quotas{
		Hourly: make(map[Category]Quota, len(q.Hourly)),
		Burst:  make(map[Category]Quota, len(q.Burst)),
	}
	for c, quota := range q.Hourly {
		out.Hourly[c] = quota
	}
	for c, quota := range q.Burst {
		out.Burst[c] = quota
	}

	for name, n := range hourly {
		if c, ok := ParseCategory(name); ok && n > 0 {
			out.Hourly[c] = Quota{Requests: n, Window: HourlyWindow}
		}
	}
	for name, n := range burst {
		if c, ok := ParseCategory(name); ok && n > 0 {
			out.Burst[c] = Quota{Requests: n, Window: BurstWindow}
		}
	}
	return out
}

// For returns the quota for scope and category, falling back to the default category.
func (q Quotas) For(scope Scope, category Category) Quota {
	table := q.Hourly
	if scope == ScopeBurst {
		table = q.Burst
	}

	if quota, ok := table[category]; ok {
		return quota
	}
	return table[CategoryDefault]
}
