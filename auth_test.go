package hoyokit

import (
	"context"
	"errors"
	"strings"
	"testing"

	http "github.com/bogdanfinn/fhttp"
)

func TestCheckStokenMissingInputs(t *testing.T) {
	c := testClient(t, RegionOverseas, &fakeDoer{})
	if err := c.CheckStoken("", 0, ""); !errors.Is(err, ErrMissingCredential) {
		t.Errorf("got %v, want MissingCredential without stoken", err)
	}
	if err := c.CheckStoken("token", 0, ""); !errors.Is(err, ErrMissingCredential) {
		t.Errorf("got %v, want MissingCredential without account id", err)
	}
	if err := c.CheckStoken("token", 123, ""); err != nil {
		t.Errorf("v1 stoken with account id should pass: %v", err)
	}
}

func TestCheckStokenV2RequiresMid(t *testing.T) {
	c := testClient(t, RegionOverseas, &fakeDoer{})
	if err := c.CheckStoken("v2_abc", 123, ""); !errors.Is(err, ErrMissingCredential) {
		t.Errorf("got %v, want MissingCredential for v2 stoken without mid", err)
	}
	if err := c.CheckStoken("v2_abc", 123, "some-mid"); err != nil {
		t.Errorf("v2 stoken with mid should pass: %v", err)
	}
	if got := c.Cookies().Mid(); got != "some-mid" {
		t.Errorf("mid = %q, want it pinned in the store", got)
	}
}

func TestCheckStokenFallsBackToStore(t *testing.T) {
	c := testClient(t, RegionOverseas, &fakeDoer{},
		WithCookieString("stoken=stored; stuid=77"))
	if err := c.CheckStoken("", 0, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, ok := c.AccountID()
	if !ok || id != 77 {
		t.Errorf("AccountID = (%d, %v), want 77 from the store", id, ok)
	}
}

func TestGetStokenV2RegionGate(t *testing.T) {
	c := testClient(t, RegionOverseas, &fakeDoer{})
	_, _, err := c.GetStokenV2AndMidByStoken(context.Background(), "token", 123)
	if !errors.Is(err, ErrRegionNotSupported) {
		t.Errorf("got %v, want RegionNotSupported for an overseas client", err)
	}
}

func TestGetStokenV2AndMidByStokenSuccess(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{envelopeResponse(0, "OK",
		`{"user_info":{"mid":"m123"},"token":{"token":"v2_new"}}`)}}
	c := testClient(t, RegionChinese, doer)

	stoken, mid, err := c.GetStokenV2AndMidByStoken(context.Background(), "v1old", 55)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stoken != "v2_new" || mid != "m123" {
		t.Errorf("got (%q, %q), want (v2_new, m123)", stoken, mid)
	}
	if got := c.Cookies().Stoken(); got != "v2_new" {
		t.Errorf("store stoken = %q, want the upgraded token", got)
	}
	if got := c.Cookies().Mid(); got != "m123" {
		t.Errorf("store mid = %q", got)
	}

	req := doer.requests[0]
	if got := req.Header["x-rpc-app_id"]; len(got) != 1 || got[0] != appIDMihoyoPassport {
		t.Errorf("x-rpc-app_id = %v", got)
	}
}

func TestGetCookieTokenByStokenMethodByRegion(t *testing.T) {
	for _, tt := range []struct {
		region Region
		method string
	}{
		{RegionChinese, http.MethodGet},
		{RegionOverseas, http.MethodPost},
	} {
		doer := &fakeDoer{responses: []*http.Response{envelopeResponse(0, "OK",
			`{"cookie_token":"ck"}`)}}
		c := testClient(t, tt.region, doer)

		token, err := c.GetCookieTokenByStoken(context.Background(), "stk", 9, "")
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.region, err)
		}
		if token != "ck" {
			t.Errorf("%s: token = %q", tt.region, token)
		}
		if got := doer.requests[0].Method; got != tt.method {
			t.Errorf("%s: method = %s, want %s", tt.region, got, tt.method)
		}
		if got := c.Cookies().CookieToken(); got != "ck" {
			t.Errorf("%s: store cookie_token = %q", tt.region, got)
		}
		if got := c.Cookies().Value(CookieAccountID); got != "9" {
			t.Errorf("%s: store account_id = %q", tt.region, got)
		}
	}
}

func TestGetStokenByLoginTicketWritesAllTokens(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{envelopeResponse(0, "OK",
		`{"list":[{"name":"stoken","token":"stk"},{"name":"ltoken","token":"ltk"}]}`)}}
	c := testClient(t, RegionChinese, doer)

	stoken, err := c.GetStokenByLoginTicket(context.Background(), "ticket", 33)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stoken != "stk" {
		t.Errorf("stoken = %q", stoken)
	}
	if got := c.Cookies().LToken(); got != "ltk" {
		t.Errorf("store ltoken = %q", got)
	}
	if _, ok := c.Cookies().Get(CookieStuid); ok {
		t.Error("the exchange must not bind a stuid on its own")
	}
	if !strings.Contains(doer.requests[0].URL.RawQuery, "token_types=3") {
		t.Errorf("query = %q, want token_types=3", doer.requests[0].URL.RawQuery)
	}
}

func TestGetStokenByLoginTicketRefreshesExistingStuid(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{envelopeResponse(0, "OK",
		`{"list":[{"name":"stoken","token":"stk"}]}`)}}
	c := testClient(t, RegionChinese, doer, WithCookieString("stuid=11"))

	if _, err := c.GetStokenByLoginTicket(context.Background(), "ticket", 33); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Cookies().Value(CookieStuid); got != "33" {
		t.Errorf("store stuid = %q, want the refreshed account id", got)
	}
}

func TestGetCookieTokenByLoginTicketExpired(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{envelopeResponse(0, "OK",
		`{"cookie_info":null}`)}}
	c := testClient(t, RegionChinese, doer)

	_, err := c.GetCookieTokenByLoginTicket(context.Background(), "ticket")
	if err == nil || !strings.Contains(err.Error(), "expired") {
		t.Errorf("got %v, want an expired-ticket error", err)
	}
}

func TestGetAllTokenByStokenV2Selection(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{envelopeResponse(0, "OK",
		`{"user_info":{"mid":"m9"},"tokens":[
			{"token_type":1,"token":"v2_stk"},
			{"token_type":2,"token":"v2_ltk"},
			{"token_type":4,"token":"plainck"}]}`)}}
	c := testClient(t, RegionOverseas, doer)

	set, err := c.GetAllTokenByStoken(context.Background(), "v2_old", 12, "oldmid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Stoken != "v2_stk" || set.Mid != "m9" {
		t.Errorf("set = %+v", set)
	}
	if set.LTokenV2 != "v2_ltk" || set.LToken != "" {
		t.Errorf("v2 ltoken misclassified: %+v", set)
	}
	if set.CookieToken != "plainck" || set.CookieTokenV2 != "" {
		t.Errorf("plain cookie token misclassified: %+v", set)
	}
	if got := c.Cookies().Value(CookieLTokenV2); got != "v2_ltk" {
		t.Errorf("store ltoken_v2 = %q", got)
	}
	if got := c.Cookies().Value(CookieLTMidV2); got != "m9" {
		t.Errorf("store ltmid_v2 = %q", got)
	}
	if got := c.Cookies().CookieToken(); got != "plainck" {
		t.Errorf("store cookie_token = %q", got)
	}
}

func TestGetAllTokenByStokenRegionGate(t *testing.T) {
	c := testClient(t, RegionChinese, &fakeDoer{})
	_, err := c.GetAllTokenByStoken(context.Background(), "stk", 1, "")
	if !errors.Is(err, ErrRegionNotSupported) {
		t.Errorf("got %v, want RegionNotSupported for a mainland client", err)
	}
}

func TestGetGameTokenNotPersisted(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{envelopeResponse(0, "OK",
		`{"game_token":"gt"}`)}}
	c := testClient(t, RegionChinese, doer, WithCookieString("stoken=stk; stuid=5"))

	token, err := c.GetGameTokenByStoken(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "gt" {
		t.Errorf("token = %q", token)
	}
	if _, ok := c.Cookies().Get("game_token"); ok {
		t.Error("game token must not be written to the store")
	}
}

func TestCheckLoginQRCodeUnconfirmed(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{envelopeResponse(0, "OK",
		`{"stat":"Scanned","payload":{"raw":""}}`)}}
	c := testClient(t, RegionChinese, doer)

	token, confirmed, err := c.CheckLoginQRCode(context.Background(), "tic", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if confirmed || token != "" {
		t.Errorf("got (%q, %v), want unconfirmed sentinel", token, confirmed)
	}
}

func TestCheckLoginQRCodeConfirmed(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{envelopeResponse(0, "OK",
		`{"stat":"Confirmed","payload":{"raw":"{\"uid\":\"808\",\"token\":\"gtk\"}"}}`)}}
	c := testClient(t, RegionChinese, doer)

	token, confirmed, err := c.CheckLoginQRCode(context.Background(), "tic", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !confirmed || token != "gtk" {
		t.Errorf("got (%q, %v)", token, confirmed)
	}
	if id, ok := c.AccountID(); !ok || id != 808 {
		t.Errorf("AccountID = (%d, %v), want 808 adopted from the login", id, ok)
	}
}

func TestAcceptLoginQRCodeRejectsForeignURL(t *testing.T) {
	c := testClient(t, RegionChinese, &fakeDoer{}, WithCookieString("stoken=stk; stuid=5"))
	err := c.AcceptLoginQRCode(context.Background(), "https://evil.example/qr?ticket=t")
	if err == nil || !strings.Contains(err.Error(), "invalid qrcode url") {
		t.Errorf("got %v, want an invalid-url error", err)
	}
}

func TestVerifyStokenChineseDelegates(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{envelopeResponse(0, "OK",
		`{"cookie_token":"ck"}`)}}
	c := testClient(t, RegionChinese, doer)

	if err := c.VerifyStoken(context.Background(), "stk", 4, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doer.requests) != 1 {
		t.Fatalf("requests = %d", len(doer.requests))
	}
	if !strings.Contains(doer.requests[0].URL.Path, "getCookieAccountInfoBySToken") {
		t.Errorf("path = %q, want cookie-token exchange", doer.requests[0].URL.Path)
	}
}

func TestGameLoginRequiresGame(t *testing.T) {
	c := testClient(t, RegionOverseas, &fakeDoer{})
	_, err := c.GameLogin(context.Background(), "1", "token")
	if !errors.Is(err, ErrGameNotSupported) {
		t.Errorf("got %v, want GameNotSupported without a configured game", err)
	}
}

func TestGameLoginSignsPayload(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{envelopeResponse(0, "OK",
		`{"combo_id":"c1","open_id":"o1","combo_token":"ct1","heartbeat":false,"account_type":1}`)}}
	c := testClient(t, RegionOverseas, doer, WithGame(GameGenshin))

	result, err := c.GameLogin(context.Background(), "700000001", "gametoken")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ComboToken != "ct1" {
		t.Errorf("combo token = %q", result.ComboToken)
	}
	req := doer.requests[0]
	body, _ := req.GetBody()
	raw := make([]byte, 4096)
	n, _ := body.Read(raw)
	if !strings.Contains(string(raw[:n]), `"sign":"`) {
		t.Errorf("payload is not signed: %s", raw[:n])
	}
	if got := req.Header["x-rpc-game_biz"]; len(got) != 1 || got[0] != "hk4e_global" {
		t.Errorf("x-rpc-game_biz = %v", got)
	}
}
