// Package finance is a client for the Yahoo! Finance quote, spark, chart
// and historic download endpoints.
package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/kjannette/stocks-backend/internal/httputil"
	"github.com/kjannette/stocks-backend/internal/session"
)

const DefaultBaseURL = "https://query1.finance.yahoo.com"

type Options struct {
	BaseURL        string
	LandingURL     string
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
	// RequestsPerSecond throttles outbound requests. Zero disables it.
	RequestsPerSecond float64
	Transport         http.RoundTripper
	// Session is shared when several clients should reuse one crumb.
	Session *session.Session
	Now     func() time.Time
	Sleep   func(ctx context.Context, d time.Duration) error
	Logger  zerolog.Logger
}

// Client issues upstream requests through one session. It is safe for
// concurrent use.
type Client struct {
	http    *resty.Client
	session *session.Session
	limiter *rate.Limiter
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
	log     zerolog.Logger
}

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = session.DefaultUserAgent
	}
	if opts.AcceptLanguage == "" {
		opts.AcceptLanguage = session.DefaultAcceptLanguage
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Session == nil {
		opts.Session = session.New(session.Options{
			LandingURL:     opts.LandingURL,
			UserAgent:      opts.UserAgent,
			AcceptLanguage: opts.AcceptLanguage,
			Transport:      opts.Transport,
			Timeout:        opts.Timeout,
			Now:            opts.Now,
			Logger:         opts.Logger,
		})
	}

	c := &Client{
		session: opts.Session,
		now:     opts.Now,
		sleep:   opts.Sleep,
		log:     opts.Logger.With().Str("component", "finance").Logger(),
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	c.http = resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetCookieJar(opts.Session.Jar()).
		SetRetryCount(0).
		SetHeaders(map[string]string{
			"Accept":          "*/*",
			"Accept-Encoding": "gzip, br",
			"Accept-Language": opts.AcceptLanguage,
			"Connection":      "keep-alive",
			"User-Agent":      opts.UserAgent,
		}).
		OnBeforeRequest(c.throttle).
		OnAfterResponse(httputil.DecompressBrotli)
	if opts.Transport != nil {
		c.http.SetTransport(opts.Transport)
	}
	return c
}

// Session exposes the client's crumb/cookie session.
func (c *Client) Session() *session.Session {
	return c.session
}

// HasCrumb reports whether the session has completed a refresh.
func (c *Client) HasCrumb() bool {
	return c.session.Crumb() != ""
}

func (c *Client) throttle(_ *resty.Client, r *resty.Request) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(r.Context())
}

// get refreshes the session if due and issues one GET. withCrumb adds the
// session crumb to the query.
func (c *Client) get(ctx context.Context, path string, params url.Values, withCrumb bool) (*resty.Response, error) {
	if err := c.session.AutoRefresh(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	if withCrumb {
		params.Set("crumb", c.session.Crumb())
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		Get(path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	c.log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode()).
		Dur("elapsed", resp.Time()).
		Msg("upstream request")
	return resp, nil
}

// envelope is the {result, error} pair every JSON endpoint wraps its data in.
type envelope[T any] struct {
	Result []T `json:"result"`
	Error  *struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// decodeResult unwraps resp.Body().<root>.result, surfacing non-2xx replies
// and embedded provider errors as *Error.
func decodeResult[T any](resp *resty.Response, root string) ([]T, error) {
	if !resp.IsSuccess() {
		return nil, responseError(resp)
	}
	node := gjson.GetBytes(resp.Body(), root)
	if !node.Exists() {
		return nil, &Error{
			Kind:        KindTransport,
			StatusCode:  resp.StatusCode(),
			Description: fmt.Sprintf("response has no %q member: %s", root, truncate(resp.String(), 256)),
		}
	}
	var env envelope[T]
	if err := json.Unmarshal([]byte(node.Raw), &env); err != nil {
		return nil, &Error{Kind: KindTransport, StatusCode: resp.StatusCode(), Err: fmt.Errorf("decode %s: %w", root, err)}
	}
	if env.Error != nil && (env.Error.Code != "" || env.Error.Description != "") {
		return nil, &Error{
			Kind:        KindProvider,
			StatusCode:  resp.StatusCode(),
			Code:        env.Error.Code,
			Description: env.Error.Description,
		}
	}
	return env.Result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
