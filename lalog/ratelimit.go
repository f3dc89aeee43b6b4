package lalog

import (
	"sync"
	"time"
)

// RateLimit counts hits per actor within a fixed time window and reports once the window's quota is
// exhausted. The window resets wholesale rather than rolling, which is cheap and good enough for
// throttling log output and (via config.ConnectionRateLimit) per-IP connection acceptance.
type RateLimit struct {
	WindowSecs int64
	MaxHits    int
	Logger     *Logger

	windowStart int64
	hits        map[string]int
	warnedOnce  map[string]struct{}
	mu          sync.Mutex
}

// NewRateLimit constructs a rate limiter. windowSecs and maxHits must both be positive.
func NewRateLimit(windowSecs int64, maxHits int, logger *Logger) *RateLimit {
	if windowSecs < 1 || maxHits < 1 {
		panic("lalog.NewRateLimit: WindowSecs and MaxHits must be greater than 0")
	}
	limit := &RateLimit{
		WindowSecs: windowSecs,
		MaxHits:    maxHits,
		Logger:     logger,
		hits:       make(map[string]int),
		warnedOnce: make(map[string]struct{}),
	}
	if limit.Logger == nil {
		limit.Logger = DefaultLogger
	}
	// Stretch a per-second budget across a few seconds so that bursts don't thrash the reset,
	// which in turn keeps the "exceeded limit" log line from repeating every second.
	if limit.WindowSecs == 1 {
		for _, factor := range []int{11, 7, 5, 3, 2} {
			if limit.MaxHits%factor == 0 {
				limit.WindowSecs = int64(factor)
				limit.MaxHits *= factor
				break
			}
		}
	}
	return limit
}

// Add records one hit for actor and reports whether it fell within the current window's quota.
// When logOnExceed is true, the first hit beyond quota within a window is also logged.
func (limit *RateLimit) Add(actor string, logOnExceed bool) bool {
	limit.mu.Lock()
	defer limit.mu.Unlock()
	if now := time.Now().Unix(); now-limit.windowStart >= limit.WindowSecs {
		limit.hits = make(map[string]int)
		limit.warnedOnce = make(map[string]struct{})
		limit.windowStart = now
	}
	count := limit.hits[actor]
	if count >= limit.MaxHits {
		if _, alreadyWarned := limit.warnedOnce[actor]; !alreadyWarned && logOnExceed {
			limit.Logger.Info("RateLimit", nil, "%s exceeded limit of %d hits per %d seconds", actor, limit.MaxHits, limit.WindowSecs)
			limit.warnedOnce[actor] = struct{}{}
		}
		return false
	}
	limit.hits[actor] = count + 1
	return true
}
