package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/AdityaTeltia/lyzr-agent-craft/internal/crypto"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/metrics"
)

// RateLimit caps requests whose method matches and whose path starts with
// PathPrefix. Counters are scoped by Name, so two limits never share a
// bucket.
type RateLimit struct {
	Name       string
	Method     string
	PathPrefix string
	Requests   int
	Window     time.Duration
	KeyFunc    func(r *http.Request) string
}

// DefaultLimits are the limits applied to the dashboard routes. The first
// match wins.
func DefaultLimits() []RateLimit {
	return []RateLimit{
		{Name: "sign_in", Method: http.MethodPost, PathPrefix: "/sign-in", Requests: 10, Window: time.Minute, KeyFunc: ipKey},
		{Name: "sign_up", Method: http.MethodPost, PathPrefix: "/sign-up", Requests: 5, Window: time.Hour, KeyFunc: ipKey},
		{Name: "create_agent", Method: http.MethodPost, PathPrefix: "/create-agent", Requests: 10, Window: time.Hour, KeyFunc: sessionOrIPKey},
		{Name: "agent_action", Method: http.MethodPost, PathPrefix: "/agent/", Requests: 30, Window: time.Minute, KeyFunc: sessionOrIPKey},
		{Name: "agent_page", Method: http.MethodGet, PathPrefix: "/agent/", Requests: 120, Window: time.Minute, KeyFunc: sessionOrIPKey},
		{Name: "ticket_page", Method: http.MethodGet, PathPrefix: "/ticket/", Requests: 120, Window: time.Minute, KeyFunc: sessionOrIPKey},
	}
}

// RateLimiterConfig holds configuration for the rate limiter.
type RateLimiterConfig struct {
	Whitelist        []string // IPs or CIDRs exempt from rate limiting
	AutoBlockEnabled bool     // Enable auto-blocking after repeated violations
	Limits           []RateLimit
}

// RateLimiter implements per-route fixed window rate limiting on Redis.
type RateLimiter struct {
	client           *redis.Client
	limits           []RateLimit
	blocker          *IPBlocker
	logger           zerolog.Logger
	whitelist        []*net.IPNet
	whitelistIPs     map[string]bool
	autoBlockEnabled bool
	now              func() time.Time
}

// NewRateLimiter creates a new rate limiter. A config without Limits uses
// DefaultLimits.
func NewRateLimiter(client *redis.Client, logger zerolog.Logger, cfg RateLimiterConfig) *RateLimiter {
	limits := cfg.Limits
	if len(limits) == 0 {
		limits = DefaultLimits()
	}
	rl := &RateLimiter{
		client:           client,
		limits:           limits,
		blocker:          NewIPBlocker(client),
		logger:           logger,
		whitelistIPs:     make(map[string]bool),
		autoBlockEnabled: cfg.AutoBlockEnabled,
		now:              time.Now,
	}

	for _, entry := range cfg.Whitelist {
		if strings.Contains(entry, "/") {
			_, ipNet, err := net.ParseCIDR(entry)
			if err != nil {
				logger.Warn().Str("entry", entry).Err(err).Msg("invalid CIDR in whitelist")
				continue
			}
			rl.whitelist = append(rl.whitelist, ipNet)
		} else {
			rl.whitelistIPs[entry] = true
		}
	}

	if len(cfg.Whitelist) > 0 {
		logger.Info().
			Int("ips", len(rl.whitelistIPs)).
			Int("cidrs", len(rl.whitelist)).
			Msg("rate limit whitelist configured")
	}

	return rl
}

func (rl *RateLimiter) isWhitelisted(ipStr string) bool {
	if rl.whitelistIPs[ipStr] {
		return true
	}
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, ipNet := range rl.whitelist {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}

// ipKey identifies the caller by client IP.
func ipKey(r *http.Request) string {
	return "ip:" + RealIP(r)
}

// sessionOrIPKey identifies the caller by the session ID in the cookie,
// falling back to the IP. The token is verified later by the gate; a
// forged ID only buys the forger their own bucket.
func sessionOrIPKey(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if id, ok := crypto.UnverifiedSessionID(cookie.Value); ok {
			return "session:" + id.String()
		}
	}
	return ipKey(r)
}

// RealIP extracts the real client IP from headers or connection.
func RealIP(r *http.Request) string {
	if ip := r.Header.Get("Fly-Client-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// CheckAndIncrement counts one request against limit for caller and
// reports whether it is allowed, how many remain and when the window
// resets. Redis failures allow the request.
func (rl *RateLimiter) CheckAndIncrement(ctx context.Context, limit RateLimit, caller string) (bool, int, time.Time) {
	now := rl.now()
	bucket := now.Unix() / int64(limit.Window.Seconds())
	resetAt := time.Unix((bucket+1)*int64(limit.Window.Seconds()), 0)
	key := fmt.Sprintf("ratelimit:%s:%s:%d", limit.Name, caller, bucket)

	pipe := rl.client.TxPipeline()
	countCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, limit.Window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		rl.logger.Error().Err(err).Str("limit", limit.Name).Msg("rate limit check failed")
		return true, limit.Requests, resetAt
	}

	count := int(countCmd.Val())
	remaining := limit.Requests - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= limit.Requests, remaining, resetAt
}

// Middleware returns the rate limiting middleware.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := RealIP(r)

		if rl.isWhitelisted(ip) {
			next.ServeHTTP(w, r)
			return
		}

		if rl.blocker.IsBlocked(r.Context(), ip) {
			rl.logger.Warn().
				Str("type", "security").
				Str("event", "blocked_request").
				Str("ip", ip).
				Str("endpoint", r.URL.Path).
				Msg("blocked IP attempted request")
			metrics.BlockedRequests.WithLabelValues("ip_blocked").Inc()
			http.Error(w, "Access temporarily blocked.", http.StatusForbidden)
			return
		}

		limit, ok := rl.findLimit(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		caller := limit.KeyFunc(r)
		allowed, remaining, resetAt := rl.CheckAndIncrement(r.Context(), limit, caller)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			retry := int(resetAt.Sub(rl.now()).Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retry))

			rl.trackViolation(r.Context(), ip)

			rl.logger.Warn().
				Str("type", "security").
				Str("event", "rate_limit_exceeded").
				Str("ip", ip).
				Str("limit", limit.Name).
				Str("caller", caller).
				Msg("rate limit exceeded")

			metrics.RateLimitHits.WithLabelValues(limit.Name).Inc()
			http.Error(w, "Too many requests. Please try again shortly.", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// findLimit returns the first limit matching r.
func (rl *RateLimiter) findLimit(r *http.Request) (RateLimit, bool) {
	for _, l := range rl.limits {
		if r.Method == l.Method && strings.HasPrefix(r.URL.Path, l.PathPrefix) {
			return l, true
		}
	}
	return RateLimit{}, false
}

// trackViolation counts violations per IP and blocks repeat offenders
// for a day.
func (rl *RateLimiter) trackViolation(ctx context.Context, ip string) {
	if !rl.autoBlockEnabled {
		return
	}

	key := "violations:ip:" + ip
	count, err := rl.client.Incr(ctx, key).Result()
	if err != nil {
		return
	}
	rl.client.Expire(ctx, key, time.Hour)

	if count >= 10 {
		rl.blocker.Block(ctx, ip, 24*time.Hour, "repeated rate limit violations")
		rl.logger.Warn().
			Str("type", "security").
			Str("event", "ip_auto_blocked").
			Str("ip", ip).
			Int64("violations", count).
			Msg("IP auto-blocked for repeated violations")
	}
}

// IPBlocker manages temporary IP blocks.
type IPBlocker struct {
	client *redis.Client
}

// NewIPBlocker creates a new IP blocker.
func NewIPBlocker(client *redis.Client) *IPBlocker {
	return &IPBlocker{client: client}
}

func blockKey(ip string) string {
	return "blocked:ip:" + ip
}

// IsBlocked checks if an IP is blocked.
func (b *IPBlocker) IsBlocked(ctx context.Context, ip string) bool {
	exists, _ := b.client.Exists(ctx, blockKey(ip)).Result()
	return exists > 0
}

// Block blocks an IP for the specified duration.
func (b *IPBlocker) Block(ctx context.Context, ip string, duration time.Duration, reason string) {
	b.client.Set(ctx, blockKey(ip), reason, duration)
}

// Unblock removes an IP block.
func (b *IPBlocker) Unblock(ctx context.Context, ip string) {
	b.client.Del(ctx, blockKey(ip))
}
