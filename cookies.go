package hoyokit

import (
	"sort"
	"strconv"
	"strings"

	http "github.com/bogdanfinn/fhttp"
)

// Well-known credential names. The store accepts arbitrary names; these are
// the ones the platform is known to issue.
const (
	CookieLoginTicket   = "login_ticket"
	CookieStoken        = "stoken"
	CookieStuid         = "stuid"
	CookieMid           = "mid"
	CookieLToken        = "ltoken"
	CookieLTokenV2      = "ltoken_v2"
	CookieLTuid         = "ltuid"
	CookieLTMidV2       = "ltmid_v2"
	CookieCookieToken   = "cookie_token"
	CookieCookieTokenV2 = "cookie_token_v2"
	CookieAccountMidV2  = "account_mid_v2"
	CookieAccountID     = "account_id"
	CookieDeviceID      = "device_id"
	CookieDeviceFP      = "device_fp"
)

// userIDNames is the priority order in which user-id-bearing credentials are
// scanned when resolving the account id.
var userIDNames = [...]string{
	CookieLTuid, CookieAccountID, CookieStuid, "ltuid_v2", "account_id_v2",
}

// Cookies is the in-memory credential store: a mutable, case-sensitive bag of
// named credential strings that travels as the request cookie header.
//
// Mutation is last-write-wins per name, values never expire and are never
// removed automatically. The store is not internally synchronized; a client
// issuing concurrent exchange operations against the same store must
// serialize dependent operations itself.
type Cookies struct {
	values map[string]string
}

// NewCookies returns an empty credential store.
func NewCookies() *Cookies {
	return &Cookies{values: make(map[string]string)}
}

// ParseCookies builds a store from a browser-style cookie header string
// ("name=value; name2=value2"). Attributes such as Path or Expires are
// discarded.
func ParseCookies(raw string) *Cookies {
	c := NewCookies()
	header := http.Header{}
	header.Add("Cookie", raw)
	req := http.Request{Header: header}
	for _, cookie := range req.Cookies() {
		if isCookieAttribute(cookie.Name) {
			continue
		}
		c.Set(cookie.Name, cookie.Value)
	}
	return c
}

var cookieAttributes = map[string]struct{}{
	"path": {}, "domain": {}, "expires": {}, "max-age": {},
	"secure": {}, "httponly": {}, "samesite": {},
}

func isCookieAttribute(name string) bool {
	_, ok := cookieAttributes[strings.ToLower(name)]
	return ok
}

// Get returns the value for name and whether it is present.
func (c *Cookies) Get(name string) (string, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Value returns the value for name, or "" when absent.
func (c *Cookies) Value(name string) string {
	return c.values[name]
}

// Set stores value under name, overwriting any previous value.
func (c *Cookies) Set(name, value string) {
	c.values[name] = value
}

// Delete removes name from the store.
func (c *Cookies) Delete(name string) {
	delete(c.values, name)
}

// Len reports the number of stored credentials.
func (c *Cookies) Len() int { return len(c.values) }

// Names returns the stored credential names in sorted order.
func (c *Cookies) Names() []string {
	names := make([]string, 0, len(c.values))
	for name := range c.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Header renders the store as a cookie header value with names sorted, so a
// given store state always produces the same wire bytes.
func (c *Cookies) Header() string {
	pairs := make([]string, 0, len(c.values))
	for _, name := range c.Names() {
		pairs = append(pairs, name+"="+c.values[name])
	}
	return strings.Join(pairs, "; ")
}

// AccountID scans the user-id-bearing credential names in priority order and
// returns the first present value parsed as an integer. ok is false when none
// is present or the value does not parse.
func (c *Cookies) AccountID() (int64, bool) {
	for _, name := range userIDNames {
		if v, present := c.values[name]; present {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, false
			}
			return id, true
		}
	}
	return 0, false
}

// Typed accessors for the credentials the exchange operations consume.

func (c *Cookies) LoginTicket() string { return c.values[CookieLoginTicket] }
func (c *Cookies) Stoken() string      { return c.values[CookieStoken] }
func (c *Cookies) Mid() string         { return c.values[CookieMid] }
func (c *Cookies) LToken() string      { return c.values[CookieLToken] }
func (c *Cookies) CookieToken() string { return c.values[CookieCookieToken] }
