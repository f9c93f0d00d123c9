package session

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Jar is an http.CookieJar whose entries live in a go-cache store, so a
// cookie's expiry doubles as its cache expiration and stays inspectable.
type Jar struct {
	mu    sync.Mutex
	store *cache.Cache
	now   func() time.Time
}

type entry struct {
	cookie   http.Cookie
	domain   string
	hostOnly bool
	expires  time.Time // zero for session cookies
}

func NewJar() *Jar {
	return &Jar{
		store: cache.New(cache.NoExpiration, 10*time.Minute),
		now:   time.Now,
	}
}

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	host := canonicalHost(u.Host)
	now := j.now()
	for _, c := range cookies {
		e := entry{cookie: *c, domain: host, hostOnly: true}
		if d := strings.TrimPrefix(strings.ToLower(c.Domain), "."); d != "" {
			if !domainMatch(host, d) {
				continue
			}
			e.domain, e.hostOnly = d, false
		}
		if e.cookie.Path == "" || e.cookie.Path[0] != '/' {
			e.cookie.Path = defaultPath(u.Path)
		}

		key := e.domain + ";" + e.cookie.Path + ";" + c.Name
		switch {
		case c.MaxAge < 0:
			j.store.Delete(key)
			continue
		case c.MaxAge > 0:
			e.expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		case !c.Expires.IsZero():
			e.expires = c.Expires
		}

		if e.expires.IsZero() {
			j.store.Set(key, e, cache.NoExpiration)
			continue
		}
		ttl := e.expires.Sub(now)
		if ttl <= 0 {
			j.store.Delete(key)
			continue
		}
		j.store.Set(key, e, ttl)
	}
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	host := canonicalHost(u.Host)
	path := u.Path
	if path == "" {
		path = "/"
	}
	secure := u.Scheme == "https"

	var out []*http.Cookie
	for _, item := range j.store.Items() {
		e := item.Object.(entry)
		if e.hostOnly && host != e.domain {
			continue
		}
		if !e.hostOnly && !domainMatch(host, e.domain) {
			continue
		}
		if !pathMatch(path, e.cookie.Path) || (e.cookie.Secure && !secure) {
			continue
		}
		out = append(out, &http.Cookie{Name: e.cookie.Name, Value: e.cookie.Value})
	}
	return out
}

// Len counts unexpired cookies across all domains.
// Items skips entries the janitor has not evicted yet.
func (j *Jar) Len() int {
	return len(j.store.Items())
}

// ExpiresWithin reports whether any persistent cookie expires before now+d.
// Session cookies never count as expiring.
func (j *Jar) ExpiresWithin(now time.Time, d time.Duration) bool {
	limit := now.Add(d)
	for _, item := range j.store.Items() {
		e := item.Object.(entry)
		if !e.expires.IsZero() && e.expires.Before(limit) {
			return true
		}
	}
	return false
}

// Clear drops every cookie.
func (j *Jar) Clear() {
	j.store.Flush()
}

// ReplaceWith swaps this jar's contents for other's.
func (j *Jar) ReplaceWith(other *Jar) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.store.Flush()
	for k, item := range other.store.Items() {
		ttl := cache.NoExpiration
		if item.Expiration > 0 {
			ttl = time.Until(time.Unix(0, item.Expiration))
			if ttl <= 0 {
				continue
			}
		}
		j.store.Set(k, item.Object, ttl)
	}
}

func canonicalHost(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(host)
}

func domainMatch(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func defaultPath(p string) string {
	i := strings.LastIndex(p, "/")
	if i <= 0 {
		return "/"
	}
	return p[:i]
}

func pathMatch(reqPath, cookiePath string) bool {
	if reqPath == cookiePath || cookiePath == "/" {
		return true
	}
	return strings.HasPrefix(reqPath, cookiePath) &&
		(strings.HasSuffix(cookiePath, "/") || reqPath[len(cookiePath)] == '/')
}
