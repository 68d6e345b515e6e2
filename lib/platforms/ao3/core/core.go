package core

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"ao3-go/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("ao3.lib.platforms.ao3.core")

const (
	DefaultBaseUrl   = "https://archiveofourown.org"
	DefaultUserAgent = "ao3-go (bot; +golang)"
	DefaultTimeout   = 30
	DefaultRateLimit = 2
)

type ClientOptions struct {
	BaseUrl   string `json:"base_url"`
	UserAgent string `json:"user_agent"`
	// per-request timeout in seconds, 0 leaves it to the transport
	TimeoutSeconds int `json:"timeout_seconds"`
	// requests per second, 0 disables client side pacing
	RateLimit        float64 `json:"rate_limit"`
	CloudflareBypass bool    `json:"cloudflare_bypass"`
	// when set, every http exchange is written to a file in this directory
	DumpDir string `json:"dump_dir"`

	// Sleep waits out retry delays. It defaults to a timer that gives up
	// when ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error `json:"-"`
}

func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		BaseUrl:          DefaultBaseUrl,
		UserAgent:        DefaultUserAgent,
		TimeoutSeconds:   DefaultTimeout,
		RateLimit:        DefaultRateLimit,
		CloudflareBypass: true,
	}
}

// Client is the transport to the archive. The underlying http session
// is opened on first use and shared by every request.
type Client struct {
	BaseUrl *url.URL
	State   *AuthState

	opts    ClientOptions
	sleep   func(ctx context.Context, d time.Duration) error
	jar     http.CookieJar
	limiter *rate.Limiter
	output  restyutil.InstrumentOutput

	mu   sync.Mutex
	http *resty.Client
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	if baseUrl.Scheme == "" || baseUrl.Host == "" {
		return nil, fmt.Errorf("base url must be absolute: %q", opts.BaseUrl)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		BaseUrl: baseUrl,
		State:   &AuthState{},
		opts:    opts,
		sleep:   opts.Sleep,
		jar:     jar,
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	if opts.RateLimit > 0 {
		// max burst >= 1 just means that no requests will be dropped
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), max(1, int(opts.RateLimit)))
	}
	if opts.DumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(opts.DumpDir)
		if err != nil {
			return nil, err
		}
		c.output = output
	}
	return c, nil
}

type noRedirectKey struct{}

func withoutRedirects(ctx context.Context) context.Context {
	return context.WithValue(ctx, noRedirectKey{}, true)
}

func (c *Client) redirectPolicy() resty.RedirectPolicy {
	domain := resty.DomainCheckRedirectPolicy(c.BaseUrl.Hostname())
	limit := resty.FlexibleRedirectPolicy(10)
	return resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		if skip, _ := req.Context().Value(noRedirectKey{}).(bool); skip {
			return http.ErrUseLastResponse
		}
		err := limit.Apply(req, via)
		if err != nil {
			return err
		}
		return domain.Apply(req, via)
	})
}

// session returns the shared http client, creating it if this is the
// first request since construction or since Close.
func (c *Client) session() *resty.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.http != nil {
		return c.http
	}

	client := resty.New()
	client.SetCookieJar(c.jar)
	if c.opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetHeader("user-agent", c.opts.UserAgent)
	client.SetRedirectPolicy(c.redirectPolicy())
	if c.opts.TimeoutSeconds > 0 {
		client.SetTimeout(time.Duration(c.opts.TimeoutSeconds) * time.Second)
	}

	if c.limiter != nil {
		limiter := c.limiter
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}
	restyutil.InstrumentClient(client, otel.Tracer("ao3.lib.platforms.ao3.http"), c.output)

	c.http = client
	return client
}

// Close drops idle connections. Cookies and the auth state are kept, the
// next request opens a new session.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.http == nil {
		return
	}
	c.http.GetClient().CloseIdleConnections()
	c.http = nil
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
