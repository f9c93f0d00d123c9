package session

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// DefaultCrumb is used when the landing page carries no crumb. Upstream has
// accepted it for cookie-authenticated requests.
const DefaultCrumb = "ibG1c1O0H9S"

const (
	DefaultLandingURL     = "https://finance.yahoo.com/"
	DefaultUserAgent      = "Mozilla/5.0"
	DefaultAcceptLanguage = "en-US"
	DefaultRefreshMargin  = 10 * time.Minute
)

var crumbPattern = regexp.MustCompile(`"crumb"\s*:\s*"([^"]+)"`)

type Options struct {
	LandingURL     string
	UserAgent      string
	AcceptLanguage string
	Transport      http.RoundTripper
	Timeout        time.Duration
	// RefreshMargin is how close to expiry a cookie may get before the
	// session is considered stale.
	RefreshMargin time.Duration
	Now           func() time.Time
	Logger        zerolog.Logger
}

// Session holds the cookie jar and crumb shared by every upstream request.
type Session struct {
	opts Options
	log  zerolog.Logger
	jar  *Jar

	mu    sync.Mutex
	crumb string
}

func New(opts Options) *Session {
	if opts.LandingURL == "" {
		opts.LandingURL = DefaultLandingURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.AcceptLanguage == "" {
		opts.AcceptLanguage = DefaultAcceptLanguage
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RefreshMargin <= 0 {
		opts.RefreshMargin = DefaultRefreshMargin
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	jar := NewJar()
	jar.now = opts.Now
	return &Session{
		opts: opts,
		log:  opts.Logger.With().Str("component", "session").Logger(),
		jar:  jar,
	}
}

// Jar is the cookie store requests should be sent with.
func (s *Session) Jar() *Jar {
	return s.jar
}

func (s *Session) Crumb() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crumb
}

// ShouldRefresh is true when the jar is empty or any cookie expires
// within the refresh margin.
func (s *Session) ShouldRefresh() bool {
	if s.jar.Len() == 0 {
		return true
	}
	return s.jar.ExpiresWithin(s.opts.Now(), s.opts.RefreshMargin)
}

// AutoRefresh refreshes only when the cookies are stale and no crumb is
// cached. Call it before every authenticated request.
func (s *Session) AutoRefresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.crumb != "" || !s.ShouldRefresh() {
		return nil
	}
	return s.refreshLocked(ctx)
}

// Refresh fetches the landing page without any session cookie, stores the
// cookies it sets and extracts the crumb from its body.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

// Invalidate drops the crumb and cookies so the next AutoRefresh
// performs a full handshake.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.crumb = ""
	s.jar.Clear()
}

func (s *Session) refreshLocked(ctx context.Context) error {
	fresh := NewJar()
	fresh.now = s.opts.Now
	hc := &http.Client{Jar: fresh, Timeout: s.opts.Timeout}
	if s.opts.Transport != nil {
		hc.Transport = s.opts.Transport
	}
	client := resty.NewWithClient(hc).
		SetHeader("Accept-Language", s.opts.AcceptLanguage).
		SetHeader("Connection", "keep-alive").
		SetHeader("User-Agent", s.opts.UserAgent)

	resp, err := client.R().SetContext(ctx).Get(s.opts.LandingURL)
	if err != nil {
		return fmt.Errorf("session refresh: %w", err)
	}

	crumb, ok := extractCrumb(resp.Body())
	if !ok {
		s.log.Warn().Int("status", resp.StatusCode()).Msg("no crumb on landing page, using default")
		crumb = DefaultCrumb
	}

	s.jar.ReplaceWith(fresh)
	s.crumb = crumb
	s.log.Debug().Int("cookies", s.jar.Len()).Msg("session refreshed")
	return nil
}

func extractCrumb(body []byte) (string, bool) {
	m := crumbPattern.FindSubmatch(body)
	if m == nil {
		return "", false
	}
	raw := string(m[1])
	if v, err := strconv.Unquote(`"` + raw + `"`); err == nil {
		raw = v
	}
	if raw == "" {
		return "", false
	}
	return raw, true
}
