package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lfariabr/wedstack-sub000/internal/core/domain"
	"github.com/lfariabr/wedstack-sub000/internal/infra/logger"
	"github.com/lfariabr/wedstack-sub000/internal/usecase"
)

const (
	rateLimitProblemType  = "https://wedding.example.com/errors/rate-limit-exceeded"
	rateLimitProblemTitle = "Rate Limit Exceeded"
)

// IdentifierFunc extracts the identifier used to scope rate limits (e.g., client IP).
type IdentifierFunc func(*gin.Context) (string, bool)

// RateLimitRule configures a fixed-window limit for a particular identifier.
type RateLimitRule struct {
	Name       string
	Limit      int
	Window     time.Duration
	Identifier IdentifierFunc
}

// RateLimiter applies fixed-window quotas to incoming requests. A store
// failure denies the request: quota enforcement guards the expensive chatbot
// path, so open-on-error would turn a Redis outage into an unmetered bill.
type RateLimiter struct {
	limiter   *usecase.RateLimiter
	logger    *zap.Logger
	decisions *prometheus.CounterVec
}

// ProblemDetails represents an RFC 9457 compatible error payload for rate limits.
type ProblemDetails struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail"`
	Instance   string         `json:"instance"`
	RetryAfter int            `json:"retry_after"`
	TraceID    string         `json:"trace_id,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// NewRateLimiter builds a reusable rate limiter middleware helper.
func NewRateLimiter(limiter *usecase.RateLimiter, log *zap.Logger) *RateLimiter {
	if log == nil {
		log = zap.NewNop()
	}

	return &RateLimiter{
		limiter: limiter,
		logger:  log,
	}
}

// WithDecisionCounter wires a Prometheus counter partitioned by rule and outcome.
func (rl *RateLimiter) WithDecisionCounter(decisions *prometheus.CounterVec) *RateLimiter {
	rl.decisions = decisions
	return rl
}

// NewRateLimitDecisionCounter registers the decisions counter on the given registerer.
func NewRateLimitDecisionCounter(reg prometheus.Registerer, namespace string) (*prometheus.CounterVec, error) {
	if namespace == "" {
		namespace = "wedding"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rate_limit",
		Name:      "decisions_total",
		Help:      "Rate limit decisions partitioned by rule and outcome.",
	}, []string{"rule", "outcome"})

	if err := reg.Register(decisions); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("register rate limit decisions counter: %w", err)
	}

	return decisions, nil
}

// ClientIPIdentifier builds an IdentifierFunc using the request's client IP.
func ClientIPIdentifier() IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		ip := c.ClientIP()
		if ip == "" {
			return "", false
		}
		return ip, true
	}
}

// UserIdentifier builds an IdentifierFunc using the authenticated user ID,
// falling back to client IP for anonymous callers.
func UserIdentifier() IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		if userID, ok := GetAuthenticatedUserID(c); ok && userID != "" {
			return "user:" + userID, true
		}

		ip := c.ClientIP()
		if ip == "" {
			return "", false
		}
		return "ip:" + ip, true
	}
}

// RateLimit returns a Gin middleware enforcing the provided rules.
func (rl *RateLimiter) RateLimit(rules ...RateLimitRule) gin.HandlerFunc {
	filtered := make([]RateLimitRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Identifier == nil || rule.Limit <= 0 || rule.Window <= 0 {
			continue
		}
		if rule.Name == "" {
			rule.Name = "default"
		}
		filtered = append(filtered, rule)
	}

	return func(c *gin.Context) {
		if len(filtered) == 0 || rl.limiter == nil {
			c.Next()
			return
		}

		var tightest *domain.RateLimitResult

		for _, rule := range filtered {
			identifier, ok := rule.Identifier(c)
			if !ok || identifier == "" {
				continue
			}

			key := fmt.Sprintf("%s:%s", rule.Name, identifier)

			result, err := rl.limiter.Limit(c.Request.Context(), key, rule.Limit, rule.Window)
			if err != nil {
				rl.logger.Error("rate limit check failed",
					zap.String("rule", rule.Name),
					zap.String("identifier", logger.MaskIP(identifier)),
					zap.Error(err),
				)
				rl.countDecision(rule.Name, "error")
				rl.respondUnavailable(c)
				return
			}

			if tightest == nil || result.Remaining < tightest.Remaining {
				tightest = result
			}

			if !result.Allowed {
				rl.countDecision(rule.Name, "denied")
				rl.applyHeaders(c, result)
				rl.respondRateLimited(c, result)
				return
			}

			rl.countDecision(rule.Name, "allowed")
		}

		if tightest != nil {
			rl.applyHeaders(c, tightest)
		}

		c.Next()
	}
}

func (rl *RateLimiter) countDecision(rule, outcome string) {
	if rl.decisions != nil {
		rl.decisions.WithLabelValues(rule, outcome).Inc()
	}
}

func (rl *RateLimiter) applyHeaders(c *gin.Context, res *domain.RateLimitResult) {
	headers := c.Writer.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(maxInt(res.Remaining, 0)))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetTime.Unix(), 10))

	if !res.Allowed {
		seconds := int(math.Ceil(time.Until(res.ResetTime).Seconds()))
		if seconds < 0 {
			seconds = 0
		}
		headers.Set("Retry-After", strconv.Itoa(seconds))
	}
}

func (rl *RateLimiter) respondRateLimited(c *gin.Context, res *domain.RateLimitResult) {
	retrySeconds := int(math.Ceil(time.Until(res.ResetTime).Seconds()))
	if retrySeconds < 0 {
		retrySeconds = 0
	}

	detail := fmt.Sprintf("Too many requests. Try again in %d seconds.", retrySeconds)
	instance := c.FullPath()
	if instance == "" {
		instance = c.Request.URL.Path
	}

	problem := ProblemDetails{
		Type:       rateLimitProblemType,
		Title:      rateLimitProblemTitle,
		Status:     http.StatusTooManyRequests,
		Detail:     detail,
		Instance:   instance,
		RetryAfter: retrySeconds,
		TraceID:    GetTraceID(c),
	}

	c.AbortWithStatusJSON(http.StatusTooManyRequests, problem)
}

func (rl *RateLimiter) respondUnavailable(c *gin.Context) {
	instance := c.FullPath()
	if instance == "" {
		instance = c.Request.URL.Path
	}

	problem := ProblemDetails{
		Type:     "https://wedding.example.com/errors/rate-limit-unavailable",
		Title:    "Rate Limiter Unavailable",
		Status:   http.StatusServiceUnavailable,
		Detail:   "Quota enforcement is temporarily unavailable. Try again shortly.",
		Instance: instance,
		TraceID:  GetTraceID(c),
	}

	c.Header("Retry-After", "5")
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, problem)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
