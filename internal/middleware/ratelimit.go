package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/hubtc/portal/internal/app/models/dto"
	"github.com/hubtc/portal/internal/pkg/metrics"
)

// ContextThrottled is set on requests that exceeded their limiter
const ContextThrottled = "throttled"

// limiters idle for longer than limiterTTL are dropped on the next sweep
const (
	limiterTTL         = 10 * time.Minute
	limiterSweepPeriod = time.Minute
)

type limiterEntry struct {
	l        *rate.Limiter
	lastSeen time.Time
}

type limiterPool struct {
	mu           sync.Mutex
	m            map[int64]*limiterEntry
	rps          float64
	burst        int
	now          func() time.Time
	startCleanup sync.Once
}

func newLimiterPool(rps float64, burst int) *limiterPool {
	return &limiterPool{
		m:     make(map[int64]*limiterEntry),
		rps:   rps,
		burst: burst,
		now:   time.Now,
	}
}

func (p *limiterPool) get(key int64) *rate.Limiter {
	p.startCleanup.Do(func() { go p.cleanupLoop() })

	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	if e, ok := p.m[key]; ok {
		e.lastSeen = now
		return e.l
	}
	l := rate.NewLimiter(rate.Limit(p.rps), p.burst)
	p.m[key] = &limiterEntry{l: l, lastSeen: now}
	return l
}

func (p *limiterPool) Allow(key int64) bool {
	return p.get(key).Allow()
}

// evictIdle drops limiters not used since cutoff. An evicted user starts over
// with a full bucket, which is never stricter than the limiter it replaces.
func (p *limiterPool) evictIdle(cutoff time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	evicted := 0
	for k, e := range p.m {
		if e.lastSeen.Before(cutoff) {
			delete(p.m, k)
			evicted++
		}
	}
	return evicted
}

func (p *limiterPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}

func (p *limiterPool) cleanupLoop() {
	ticker := time.NewTicker(limiterSweepPeriod)
	defer ticker.Stop()
	for range ticker.C {
		p.evictIdle(p.now().Add(-limiterTTL))
	}
}

// TypingLimiter rate limits typing signals per session user. An over-limit
// signal is answered 200 without being recorded, so clients never retry it.
func TypingLimiter(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 3
	}
	pool := newLimiterPool(rps, burst)

	return func(c *gin.Context) {
		if pool.Allow(c.GetInt64(ContextUserID)) {
			c.Next()
			return
		}
		metrics.TypingSignals.WithLabelValues("throttled").Inc()
		c.Set(ContextThrottled, true)
		c.AbortWithStatusJSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Typing signal throttled"}))
	}
}
