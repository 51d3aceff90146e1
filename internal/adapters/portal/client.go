package portal

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bnema/egnyte-reseller-cli/internal/ports"
)

const (
	DefaultBaseURL = "https://resellers.egnyte.com"

	defaultTimeout      = 20000 * time.Millisecond
	defaultBackoffDelay = time.Second
	maxBackoffDelay     = 10 * time.Second
	maxResponseBytes    = 1 << 20
)

var ErrMissingCredentials = errors.New("missing config values username or password")

// Config configures a portal client. Username and Password are required;
// everything else has a default.
type Config struct {
	BaseURL  string
	Username string
	Password string
	// TimeoutMs is the per-request timeout in milliseconds, as text. Operator
	// configs have historically carried values like "30000," so the parse is
	// tolerant: the leading integer wins and anything unusable falls back to
	// 20000.
	TimeoutMs string
	// ForceLicenseChange permits seat reductions below the in-use count and
	// enables the soft-success reading of the known CFS upgrade failure.
	ForceLicenseChange bool
	// BackoffDelay is the base pacing delay between sequential per-plan
	// usage fetches.
	BackoffDelay time.Duration
	// ProtectPlanID is the reserved plan that carries Protect add-on usage.
	ProtectPlanID string
}

// Client talks to the resellers portal. One client owns one cookie store and
// one cached reseller id; instances are not meant to be shared.
type Client struct {
	baseURL string
	cfg     Config

	// the login and browse endpoints signal via 302, so redirect following
	// stays off for those; the plain client serves the JSON endpoints.
	http           *http.Client
	httpNoRedirect *http.Client

	backoffBase time.Duration
	sleep       func(ctx context.Context, d time.Duration) error

	resellerMu sync.Mutex
	resellerID string
}

var (
	_ ports.CustomerReader = (*Client)(nil)
	_ ports.PlanReader     = (*Client)(nil)
	_ ports.LicenseWriter  = (*Client)(nil)
)

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Username) == "" || cfg.Password == "" {
		return nil, ErrMissingCredentials
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	backoff := cfg.BackoffDelay
	if backoff <= 0 {
		backoff = defaultBackoffDelay
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	timeout := parseTimeoutMs(cfg.TimeoutMs)

	return &Client{
		baseURL: baseURL,
		cfg:     cfg,
		http: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		httpNoRedirect: &http.Client{
			Jar:     jar,
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		backoffBase: backoff,
		sleep:       sleepContext,
	}, nil
}

// parseTimeoutMs mirrors the historical config contract: a leading integer in
// the string is taken as milliseconds, and non-numeric or near-zero values
// fall back to the 20 s default.
func parseTimeoutMs(raw string) time.Duration {
	prefix := leadingInt(strings.TrimSpace(raw))

	n, err := strconv.Atoi(prefix)
	if err != nil {
		return defaultTimeout
	}
	if n < 0 {
		n = -n
	}
	if n <= 1 {
		return defaultTimeout
	}

	return time.Duration(n) * time.Millisecond
}

func leadingInt(s string) string {
	end := 0
	for i, r := range s {
		if i == 0 && (r == '+' || r == '-') {
			end = i + 1
			continue
		}
		if r < '0' || r > '9' {
			break
		}
		end = i + 1
	}

	return s[:end]
}

// backoffDelay grows the pacing delay by 1.5x per completed plan, capped at
// 10 s. This is courtesy pacing for the upstream rate limiter, not retry
// logic.
func (c *Client) backoffDelay(iteration int) time.Duration {
	if iteration < 1 {
		iteration = 1
	}

	delay := time.Duration(float64(c.backoffBase) * math.Pow(1.5, float64(iteration-1)))
	if delay > maxBackoffDelay {
		return maxBackoffDelay
	}

	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
