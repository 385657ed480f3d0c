package middleware

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to a request when the counter store is down.
type FailPolicy int

const (
	FailOpen FailPolicy = iota
	FailClosed
)

var errNoRedis = errors.New("rate limit: redis client is nil")

// Rule is a fixed-window quota. Requests are counted per caller under
// "rl:<Name>:<caller>"; an empty Name falls back to the request path.
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
	Policy FailPolicy
}

// Decision is the outcome of one counted request.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

func rateLimitBypassed() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development", "stress":
		return true
	}
	return false
}

// CheckRateLimit counts one request by caller against rule. Limiting is
// bypassed in test, development and stress environments.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, rule Rule, caller string) (Decision, error) {
	if rateLimitBypassed() {
		return Decision{Allowed: true, Remaining: rule.Limit}, nil
	}
	if rdb == nil {
		return Decision{}, errNoRedis
	}

	key := "rl:" + rule.Name + ":" + caller
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.ExpireNX(ctx, key, rule.Window)
		ttl = p.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return Decision{}, err
	}

	n := int(incr.Val())
	reset := ttl.Val()
	if reset < 0 {
		reset = rule.Window
	}
	return Decision{
		Allowed:   n <= rule.Limit,
		Remaining: max(rule.Limit-n, 0),
		ResetIn:   reset,
	}, nil
}

// RateLimit enforces rule per signed-in user, or per client IP for
// anonymous requests.
func RateLimit(rdb *redis.Client, rule Rule) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r := rule
		if r.Name == "" {
			r.Name = c.Path()
		}
		caller := "ip:" + c.IP()
		if uid := UserID(c); uid != "" {
			caller = "user:" + uid
		}

		d, err := CheckRateLimit(c.UserContext(), rdb, r, caller)
		if err != nil {
			if r.Policy == FailOpen {
				return c.Next()
			}
			Logger.WarnContext(c.UserContext(), "rate limit store unavailable",
				slog.String("rule", r.Name),
				slog.String("error", err.Error()),
			)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Rate limiting unavailable",
				"code":  "SERVICE_UNAVAILABLE",
			})
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(r.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(d.ResetIn.Round(time.Second)/time.Second)))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests",
				"code":  "RATE_LIMITED",
			})
		}
		return c.Next()
	}
}
