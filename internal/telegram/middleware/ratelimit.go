package middleware

import (
	"sync"
	"time"

	"github.com/futig/docchat/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	warningInterval   = 30 * time.Second
	cleanupInterval   = 10 * time.Minute
	inactiveThreshold = time.Hour
)

// userLimit tracks rate limit state for a single user
type userLimit struct {
	mu            sync.Mutex
	limiter       *rate.Limiter
	lastSeen      time.Time
	warningsSent  int
	lastWarningAt time.Time
}

// RateLimiterMiddleware implements token bucket rate limiting per user.
// The bucket holds burst tokens and refills at requestsPerMinute.
type RateLimiterMiddleware struct {
	mu        sync.Mutex
	limits    map[int64]*userLimit
	every     rate.Limit
	burst     int
	logger    *zap.Logger
	bot       Sender
	done      chan struct{}
	closeOnce sync.Once
	now       func() time.Time
}

// NewRateLimiterMiddleware creates a rate limiter and starts its cleanup loop
func NewRateLimiterMiddleware(requestsPerMinute, burst int, logger *zap.Logger, bot Sender) *RateLimiterMiddleware {
	if burst < 1 {
		burst = 1
	}

	rl := &RateLimiterMiddleware{
		limits: make(map[int64]*userLimit),
		every:  rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:  burst,
		logger: logger,
		bot:    bot,
		done:   make(chan struct{}),
		now:    time.Now,
	}

	go rl.cleanupInactiveUsers()

	return rl
}

// Handle drops updates from users over their limit
func (rl *RateLimiterMiddleware) Handle(update tgbotapi.Update, next func(tgbotapi.Update)) {
	userID, chatID, ok := updateSource(update)
	if !ok {
		next(update)
		return
	}

	if !rl.allowRequest(userID, chatID) {
		rl.logger.Warn("rate limit exceeded",
			zap.Int64("user_id", userID),
			zap.Int64("chat_id", chatID),
		)
		return
	}

	next(update)
}

// Close stops the cleanup loop
func (rl *RateLimiterMiddleware) Close() {
	rl.closeOnce.Do(func() { close(rl.done) })
}

func (rl *RateLimiterMiddleware) allowRequest(userID, chatID int64) bool {
	now := rl.now()

	rl.mu.Lock()
	limit, exists := rl.limits[userID]
	if !exists {
		limit = &userLimit{limiter: rate.NewLimiter(rl.every, rl.burst)}
		rl.limits[userID] = limit
	}
	rl.mu.Unlock()

	limit.mu.Lock()
	defer limit.mu.Unlock()

	limit.lastSeen = now
	if limit.limiter.AllowN(now, 1) {
		limit.warningsSent = 0
		return true
	}

	if now.Sub(limit.lastWarningAt) > warningInterval {
		limit.warningsSent++
		limit.lastWarningAt = now
		rl.sendWarning(chatID, limit.warningsSent)
	}

	return false
}

func (rl *RateLimiterMiddleware) sendWarning(chatID int64, count int) {
	if chatID == 0 {
		return
	}

	if _, err := rl.bot.Send(tgbotapi.NewMessage(chatID, render.RateLimitWarning(count))); err != nil {
		rl.logger.Error("failed to send rate limit warning",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}

func (rl *RateLimiterMiddleware) cleanupInactiveUsers() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.removeInactive()
		}
	}
}

func (rl *RateLimiterMiddleware) removeInactive() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for userID, limit := range rl.limits {
		limit.mu.Lock()
		if now.Sub(limit.lastSeen) > inactiveThreshold {
			delete(rl.limits, userID)
			rl.logger.Debug("cleaned up inactive user from rate limiter",
				zap.Int64("user_id", userID),
			)
		}
		limit.mu.Unlock()
	}
}
