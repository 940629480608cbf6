// Package cookiejar is an http.CookieJar that survives restarts by writing
// every change through to the database.
//
// Cookies are grouped by the host they were received from, and a response's
// cookies replace everything previously stored for that host. Expired cookies
// are pruned when they are next read. The session tokens are left out: the
// token store owns them and sends them itself.
package cookiejar

import (
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/amonks/artsy/data"
	"github.com/amonks/artsy/db"
	"github.com/rs/zerolog/log"
)

// Jar is an http.CookieJar backed by the db. It is safe for concurrent use.
type Jar struct {
	db  *db.DB
	now func() time.Time

	mu    sync.Mutex
	hosts map[string][]*http.Cookie
}

var _ http.CookieJar = (*Jar)(nil)

// New loads the persisted cookies from db.
func New(db *db.DB) (*Jar, error) {
	stored, err := db.GetCookies()
	if err != nil {
		return nil, fmt.Errorf("error loading cookie jar: %w", err)
	}
	jar := &Jar{db: db, now: time.Now, hosts: map[string][]*http.Cookie{}}
	for host, rows := range stored {
		cookies := make([]*http.Cookie, len(rows))
		for i, row := range rows {
			cookies[i] = fromRow(row)
		}
		jar.hosts[host] = cookies
	}
	return jar, nil
}

// SetCookies implements http.CookieJar.
func (jar *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	jar.mu.Lock()
	defer jar.mu.Unlock()

	now := jar.now()
	// Walk backwards so that a later cookie of the same name wins, deletions
	// included.
	kept := make([]*http.Cookie, 0, len(cookies))
	seen := make(map[string]bool, len(cookies))
	for i := len(cookies) - 1; i >= 0; i-- {
		cookie := cookies[i]
		if seen[cookie.Name] {
			continue
		}
		seen[cookie.Name] = true
		if cookie.MaxAge < 0 || isToken(cookie.Name) {
			continue
		}
		c := *cookie
		if c.MaxAge > 0 {
			c.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
			c.MaxAge = 0
		}
		kept = append(kept, &c)
	}
	slices.Reverse(kept)
	jar.hosts[u.Host] = kept
	jar.save(u.Host)
}

// Cookies implements http.CookieJar.
func (jar *Jar) Cookies(u *url.URL) []*http.Cookie {
	jar.mu.Lock()
	defer jar.mu.Unlock()

	now := jar.now()
	stored := jar.hosts[u.Host]
	valid := make([]*http.Cookie, 0, len(stored))
	for _, cookie := range stored {
		if !cookie.Expires.IsZero() && cookie.Expires.Before(now) {
			continue
		}
		valid = append(valid, cookie)
	}
	if len(valid) != len(stored) {
		jar.hosts[u.Host] = valid
		jar.save(u.Host)
	}
	return valid
}

func isToken(name string) bool {
	for _, kind := range data.Kinds {
		if name == string(kind) {
			return true
		}
	}
	return false
}

// save must be called with mu held. A failed save only costs us persistence,
// so it is logged rather than surfaced through the CookieJar interface.
func (jar *Jar) save(host string) {
	cookies := jar.hosts[host]
	rows := make([]db.Cookie, len(cookies))
	for i, cookie := range cookies {
		rows[i] = toRow(cookie)
	}
	if err := jar.db.ReplaceCookies(host, rows); err != nil {
		log.Error().Err(err).Str("host", host).Msg("failed to persist cookies")
	}
}

func toRow(cookie *http.Cookie) db.Cookie {
	row := db.Cookie{
		Name:     cookie.Name,
		Value:    cookie.Value,
		Domain:   cookie.Domain,
		Path:     cookie.Path,
		Secure:   cookie.Secure,
		HttpOnly: cookie.HttpOnly,
	}
	if !cookie.Expires.IsZero() {
		row.ExpiresAt = sql.NullTime{Time: cookie.Expires, Valid: true}
	}
	return row
}

func fromRow(row db.Cookie) *http.Cookie {
	cookie := &http.Cookie{
		Name:     row.Name,
		Value:    row.Value,
		Domain:   row.Domain,
		Path:     row.Path,
		Secure:   row.Secure,
		HttpOnly: row.HttpOnly,
	}
	if row.ExpiresAt.Valid {
		cookie.Expires = row.ExpiresAt.Time
	}
	return cookie
}
