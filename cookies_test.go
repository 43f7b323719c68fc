package hoyokit

import "testing"

func TestParseCookies(t *testing.T) {
	c := ParseCookies("ltoken=abc; ltuid=123; stoken=def")
	if got := c.Value(CookieLToken); got != "abc" {
		t.Errorf("ltoken = %q, want abc", got)
	}
	if got := c.Value(CookieLTuid); got != "123" {
		t.Errorf("ltuid = %q, want 123", got)
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
}

func TestParseCookiesDropsAttributes(t *testing.T) {
	c := ParseCookies("ltoken=abc; Path=/; Domain=.mihoyo.com")
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1 (attributes must be discarded): %v", c.Len(), c.Names())
	}
}

func TestCookiesAccountIDPriority(t *testing.T) {
	c := NewCookies()
	c.Set(CookieStuid, "300")
	c.Set(CookieAccountID, "200")
	c.Set(CookieLTuid, "100")

	id, ok := c.AccountID()
	if !ok || id != 100 {
		t.Errorf("AccountID = (%d, %v), want ltuid to win with 100", id, ok)
	}

	c.Delete(CookieLTuid)
	id, ok = c.AccountID()
	if !ok || id != 200 {
		t.Errorf("AccountID = (%d, %v), want account_id next with 200", id, ok)
	}
}

func TestCookiesAccountIDUnparsable(t *testing.T) {
	c := NewCookies()
	c.Set(CookieLTuid, "not-a-number")
	if _, ok := c.AccountID(); ok {
		t.Error("expected ok=false for a non-numeric id")
	}
}

func TestCookiesHeaderDeterministic(t *testing.T) {
	c := NewCookies()
	c.Set("b", "2")
	c.Set("a", "1")
	c.Set("c", "3")
	want := "a=1; b=2; c=3"
	for i := 0; i < 5; i++ {
		if got := c.Header(); got != want {
			t.Fatalf("Header = %q, want %q", got, want)
		}
	}
}

func TestCookiesLastWriteWins(t *testing.T) {
	c := NewCookies()
	c.Set(CookieStoken, "old")
	c.Set(CookieStoken, "new")
	if got := c.Stoken(); got != "new" {
		t.Errorf("Stoken = %q, want new", got)
	}
}
