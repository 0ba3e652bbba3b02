package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/huellitas/huellitas-backend/api/responses"
	pkgerrors "github.com/huellitas/huellitas-backend/pkg/errors"
	"github.com/huellitas/huellitas-backend/pkg/logger"
	pkgredis "github.com/huellitas/huellitas-backend/pkg/redis"
)

// RateLimiterStore counts hits per scope inside a fixed window.
type RateLimiterStore interface {
	Hit(ctx context.Context, scope string, limit int64, window time.Duration) (pkgredis.Window, error)
}

// maxThrottledBody bounds how much of a login/register body is buffered to
// find the email.
const maxThrottledBody = 64 << 10

// AuthRateLimitPolicy throttles one auth endpoint by client address and by
// the email found in the JSON body. A zero limit disables that dimension.
type AuthRateLimitPolicy struct {
	Endpoint   string
	Window     time.Duration
	PerIP      int
	PerAccount int
}

func NewAuthRateLimitPolicy(endpoint string, window time.Duration, perIP, perAccount int) AuthRateLimitPolicy {
	endpoint = strings.ToLower(strings.TrimSpace(endpoint))
	if endpoint == "" {
		endpoint = "auth"
	}
	return AuthRateLimitPolicy{Endpoint: endpoint, Window: window, PerIP: perIP, PerAccount: perAccount}
}

func (p AuthRateLimitPolicy) active() bool {
	return p.Window > 0 && (p.PerIP > 0 || p.PerAccount > 0)
}

type throttleCheck struct {
	dimension string
	subject   string
	limit     int
}

// AuthRateLimit answers 429 with a Retry-After header once either counter
// is exhausted. Store failures surface as dependency errors.
func AuthRateLimit(policy AuthRateLimitPolicy, store RateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.active() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			checks := make([]throttleCheck, 0, 2)
			if policy.PerIP > 0 {
				if ip := clientIP(r); ip != "" {
					checks = append(checks, throttleCheck{dimension: "ip", subject: ip, limit: policy.PerIP})
				}
			}
			if policy.PerAccount > 0 {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxThrottledBody))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unable to read request body"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
				if email := emailFromBody(body); email != "" {
					checks = append(checks, throttleCheck{dimension: "email", subject: digest(email), limit: policy.PerAccount})
				}
			}

			for _, check := range checks {
				scope := policy.Endpoint + ":" + check.dimension + ":" + check.subject
				win, err := store.Hit(ctx, scope, int64(check.limit), policy.Window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiter unavailable"))
					return
				}
				if !win.Allowed() {
					throttled(ctx, logg, w, policy, check, win)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func throttled(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy AuthRateLimitPolicy, check throttleCheck, win pkgredis.Window) {
	retryAfter := int(math.Ceil(win.ResetIn.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"endpoint":    policy.Endpoint,
			"dimension":   check.dimension,
			"subject":     check.subject,
			"attempts":    win.Count,
			"limit":       win.Limit,
			"retry_after": retryAfter,
		}), "auth request throttled")
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
}

// clientIP trusts the first X-Forwarded-For hop since the API runs behind a
// load balancer.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func emailFromBody(payload []byte) string {
	var probe struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(payload, &probe) != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(probe.Email))
}

// digest keeps raw emails out of Redis keys and logs.
func digest(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:12])
}
