package kis

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalIssueGuard enforces the issuance interval per app key inside one process.
type LocalIssueGuard struct {
	mu       sync.Mutex
	interval time.Duration
	limiters map[string]*rate.Limiter
}

// NewLocalIssueGuard allows one issuance per interval for each app key.
func NewLocalIssueGuard(interval time.Duration) *LocalIssueGuard {
	if interval <= 0 {
		interval = time.Minute
	}
	return &LocalIssueGuard{
		interval: interval,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (g *LocalIssueGuard) Acquire(_ context.Context, appKey string) (bool, error) {
	g.mu.Lock()
	lim, ok := g.limiters[appKey]
	if !ok {
		lim = rate.NewLimiter(rate.Every(g.interval), 1)
		g.limiters[appKey] = lim
	}
	g.mu.Unlock()
	return lim.Allow(), nil
}
