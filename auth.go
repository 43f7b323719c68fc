package hoyokit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	http "github.com/bogdanfinn/fhttp"
)

// Credential exchange operations. Each one derives a credential from another
// via a platform endpoint, validates its inputs before any request is sent,
// and writes its outputs back into the store only after a fully parsed
// success.

// CheckStoken validates and pins the stoken/account_id/mid triple used by
// every stoken-derived exchange. Arguments fall back to the store (zero
// values mean "use the stored one"); an stoken in the v2_ format additionally
// requires a mid. On success the resolved values are written back so the
// outgoing cookie header carries them.
func (c *Client) CheckStoken(stoken string, accountID int64, mid string) error {
	if stoken == "" {
		stoken = c.cookies.Stoken()
	}
	if accountID == 0 {
		accountID, _ = c.AccountID()
	}
	if mid == "" {
		mid = c.cookies.Mid()
	}
	if stoken == "" {
		return missingCredential(CookieStoken)
	}
	if accountID == 0 {
		return missingCredential(CookieAccountID)
	}
	if strings.HasPrefix(stoken, "v2_") {
		if mid == "" {
			return missingCredential(CookieMid)
		}
		c.cookies.Set(CookieMid, mid)
	}
	c.cookies.Set(CookieStuid, strconv.FormatInt(accountID, 10))
	c.cookies.Set(CookieStoken, stoken)
	c.accountID = accountID
	return nil
}

// multiTokenData is the getMultiTokenByLoginTicket payload: a list of named
// tokens.
type multiTokenData struct {
	List []struct {
		Name  string `json:"name"`
		Token string `json:"token"`
	} `json:"list"`
}

// GetStokenByLoginTicket exchanges a login ticket for a super token. Every
// token in the response is written to the store under its own name.
func (c *Client) GetStokenByLoginTicket(ctx context.Context, loginTicket string, accountID int64) (string, error) {
	if loginTicket == "" {
		loginTicket = c.cookies.LoginTicket()
	}
	if accountID == 0 {
		accountID, _ = c.AccountID()
	}
	if loginTicket == "" {
		return "", missingCredential(CookieLoginTicket)
	}
	if accountID == 0 {
		return "", missingCredential(CookieAccountID)
	}
	base, err := authURL.URL(c.region)
	if err != nil {
		return "", err
	}
	params := url.Values{
		"login_ticket": {loginTicket},
		"uid":          {strconv.FormatInt(accountID, 10)},
		"token_types":  {"3"},
	}
	raw, err := c.requestLab(ctx, joinURL(base, "getMultiTokenByLoginTicket"), labRequest{Params: params})
	if err != nil {
		return "", err
	}
	var data multiTokenData
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", fmt.Errorf("malformed multi-token response: %w", err)
	}
	for _, entry := range data.List {
		if entry.Name != "" && entry.Token != "" {
			c.cookies.Set(entry.Name, entry.Token)
		}
	}
	stoken := c.cookies.Stoken()
	if stoken != "" {
		c.accountID = accountID
		// refresh an existing stuid only; the exchange itself does not bind one
		if _, ok := c.cookies.Get(CookieStuid); ok {
			c.cookies.Set(CookieStuid, strconv.FormatInt(accountID, 10))
		}
	}
	return stoken, nil
}

type cookieAccountInfoData struct {
	CookieInfo *struct {
		AccountID   int64  `json:"account_id"`
		CookieToken string `json:"cookie_token"`
	} `json:"cookie_info"`
}

// GetCookieTokenByLoginTicket exchanges a login ticket for a cookie token.
// The platform signals an expired ticket by returning an empty cookie_info.
func (c *Client) GetCookieTokenByLoginTicket(ctx context.Context, loginTicket string) (string, error) {
	if loginTicket == "" {
		loginTicket = c.cookies.LoginTicket()
	}
	if loginTicket == "" {
		return "", missingCredential(CookieLoginTicket)
	}
	base, err := webAccountURL.URL(c.region)
	if err != nil {
		return "", err
	}
	params := url.Values{"login_ticket": {loginTicket}}
	raw, err := c.requestLab(ctx, joinURL(base, "cookie_accountinfo_by_loginticket"), labRequest{Params: params})
	if err != nil {
		return "", err
	}
	var data cookieAccountInfoData
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", fmt.Errorf("malformed cookie-info response: %w", err)
	}
	if data.CookieInfo == nil || data.CookieInfo.CookieToken == "" {
		return "", fmt.Errorf("login ticket is expired")
	}
	if data.CookieInfo.AccountID != 0 {
		c.accountID = data.CookieInfo.AccountID
		c.cookies.Set(CookieAccountID, strconv.FormatInt(data.CookieInfo.AccountID, 10))
	}
	c.cookies.Set(CookieCookieToken, data.CookieInfo.CookieToken)
	return data.CookieInfo.CookieToken, nil
}

// GetCookieTokenByStoken exchanges a super token for a cookie token. The
// mainland deployment serves this as GET, overseas as POST.
func (c *Client) GetCookieTokenByStoken(ctx context.Context, stoken string, accountID int64, mid string) (string, error) {
	if err := c.CheckStoken(stoken, accountID, mid); err != nil {
		return "", err
	}
	base, err := passportURL.URL(c.region)
	if err != nil {
		return "", err
	}
	method := http.MethodPost
	if c.region == RegionChinese {
		method = http.MethodGet
	}
	raw, err := c.requestLab(ctx, joinURL(base, "getCookieAccountInfoBySToken"), labRequest{Method: method})
	if err != nil {
		return "", err
	}
	var data struct {
		CookieToken string `json:"cookie_token"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", fmt.Errorf("malformed cookie-token response: %w", err)
	}
	if data.CookieToken != "" {
		c.cookies.Set(CookieCookieToken, data.CookieToken)
		c.cookies.Set(CookieAccountID, strconv.FormatInt(c.accountID, 10))
	}
	return data.CookieToken, nil
}

// GetLTokenByStoken exchanges a super token for a login token, with the same
// method-by-region split as GetCookieTokenByStoken.
func (c *Client) GetLTokenByStoken(ctx context.Context, stoken string, accountID int64, mid string) (string, error) {
	if err := c.CheckStoken(stoken, accountID, mid); err != nil {
		return "", err
	}
	base, err := passportURL.URL(c.region)
	if err != nil {
		return "", err
	}
	method := http.MethodPost
	if c.region == RegionChinese {
		method = http.MethodGet
	}
	raw, err := c.requestLab(ctx, joinURL(base, "getLTokenBySToken"), labRequest{Method: method})
	if err != nil {
		return "", err
	}
	var data struct {
		LToken string `json:"ltoken"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", fmt.Errorf("malformed ltoken response: %w", err)
	}
	if data.LToken != "" {
		c.cookies.Set(CookieLToken, data.LToken)
		c.cookies.Set(CookieLTuid, strconv.FormatInt(c.accountID, 10))
	}
	return data.LToken, nil
}

// GetAuthkeyByStoken requests an authkey for a game and server, e.g. with
// authAppID "webview_gacha" for wish records. gameBiz and server default to
// values recognized from the player id.
func (c *Client) GetAuthkeyByStoken(ctx context.Context, authAppID, gameBiz, server string) (string, error) {
	if err := c.CheckStoken("", 0, ""); err != nil {
		return "", err
	}
	playerID, ok := c.PlayerID()
	if !ok {
		return "", missingCredential("player_id")
	}
	var err error
	if gameBiz == "" {
		if gameBiz, err = RecognizeGameBiz(playerID, c.game); err != nil {
			return "", err
		}
	}
	if server == "" {
		if server, err = RecognizeServer(playerID, c.game); err != nil {
			return "", err
		}
	}
	endpoint, err := authKeyURL.URL(c.region)
	if err != nil {
		return "", err
	}
	body := map[string]any{
		"auth_appid": authAppID,
		"game_biz":   gameBiz,
		"game_uid":   playerID,
		"region":     server,
	}
	raw, err := c.requestLab(ctx, endpoint, labRequest{Body: body})
	if err != nil {
		return "", err
	}
	var data struct {
		Authkey string `json:"authkey"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", fmt.Errorf("malformed authkey response: %w", err)
	}
	return data.Authkey, nil
}

// tokenData is the shared payload shape of the v2 token exchanges.
type tokenData struct {
	UserInfo struct {
		Mid string `json:"mid"`
	} `json:"user_info"`
	Token struct {
		Token string `json:"token"`
	} `json:"token"`
}

// GetStokenV2AndMidByStoken upgrades a v1 super token to the v2 format and
// its paired mid. Mainland only; the store's stoken is replaced.
func (c *Client) GetStokenV2AndMidByStoken(ctx context.Context, stoken string, accountID int64) (string, string, error) {
	if err := c.regionSpecific(true); err != nil {
		return "", "", err
	}
	if err := c.CheckStoken(stoken, accountID, ""); err != nil {
		return "", "", err
	}
	base, err := passportMaURL.URL(c.region)
	if err != nil {
		return "", "", err
	}
	headers := http.Header{"x-rpc-app_id": {appIDMihoyoPassport}}
	raw, err := c.requestLab(ctx, joinURL(base, "app/getTokenBySToken"), labRequest{
		Method:  http.MethodPost,
		Headers: headers,
	})
	if err != nil {
		return "", "", err
	}
	var data tokenData
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", "", fmt.Errorf("malformed token response: %w", err)
	}
	c.cookies.Set(CookieMid, data.UserInfo.Mid)
	c.cookies.Set(CookieStoken, data.Token.Token)
	return data.Token.Token, data.UserInfo.Mid, nil
}

// GetStokenV2AndMidByGameToken exchanges a game token for a v2 super token
// and mid. Mainland only.
func (c *Client) GetStokenV2AndMidByGameToken(ctx context.Context, gameToken string) (string, string, error) {
	if err := c.regionSpecific(true); err != nil {
		return "", "", err
	}
	accountID, ok := c.AccountID()
	if !ok {
		return "", "", missingCredential(CookieAccountID)
	}
	if gameToken == "" {
		return "", "", missingCredential("game_token")
	}
	base, err := passportMaURL.URL(c.region)
	if err != nil {
		return "", "", err
	}
	body := map[string]any{
		"account_id": accountID,
		"game_token": gameToken,
	}
	headers := http.Header{"x-rpc-app_id": {appIDMihoyoPassport}}
	raw, err := c.requestLab(ctx, joinURL(base, "app/getTokenByGameToken"), labRequest{
		Body:    body,
		Headers: headers,
	})
	if err != nil {
		return "", "", err
	}
	var data tokenData
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", "", fmt.Errorf("malformed token response: %w", err)
	}
	c.cookies.Set(CookieMid, data.UserInfo.Mid)
	c.cookies.Set(CookieStoken, data.Token.Token)
	return data.Token.Token, data.UserInfo.Mid, nil
}

// GetGameTokenByStoken fetches a game token. Mainland only; the result is
// returned but not persisted into the store.
func (c *Client) GetGameTokenByStoken(ctx context.Context) (string, error) {
	if err := c.regionSpecific(true); err != nil {
		return "", err
	}
	if err := c.CheckStoken("", 0, ""); err != nil {
		return "", err
	}
	base, err := authURL.URL(c.region)
	if err != nil {
		return "", err
	}
	raw, err := c.requestLab(ctx, joinURL(base, "getGameToken"), labRequest{Method: http.MethodGet})
	if err != nil {
		return "", err
	}
	var data struct {
		GameToken string `json:"game_token"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", fmt.Errorf("malformed game-token response: %w", err)
	}
	return data.GameToken, nil
}

// TokenSet is the result of the overseas all-token exchange. The v2-suffixed
// fields are populated when the platform hands back v2_-prefixed values.
type TokenSet struct {
	Stoken        string
	Mid           string
	LToken        string
	LTokenV2      string
	LTMidV2       string
	CookieToken   string
	CookieTokenV2 string
	AccountMidV2  string
}

// Token type discriminators in the getBySToken response.
const (
	tokenTypeStoken      = 1
	tokenTypeLToken      = 2
	tokenTypeCookieToken = 4
)

// GetAllTokenByStoken derives the v2 super token, mid, login token and cookie
// token in one exchange. Overseas only. All returned credentials are written
// to the store under the names matching their format.
func (c *Client) GetAllTokenByStoken(ctx context.Context, stoken string, accountID int64, mid string) (*TokenSet, error) {
	if err := c.regionSpecific(false); err != nil {
		return nil, err
	}
	if err := c.CheckStoken(stoken, accountID, mid); err != nil {
		return nil, err
	}
	endpoint, err := getTokensBySTokenURL.URL(c.region)
	if err != nil {
		return nil, err
	}
	body := map[string]any{"dst_token_types": []int{tokenTypeStoken, tokenTypeLToken, tokenTypeCookieToken}}
	headers := http.Header{"x-rpc-app_id": {appIDHoyolabPassport}}
	raw, err := c.requestLab(ctx, endpoint, labRequest{
		Method:  http.MethodPost,
		Body:    body,
		Headers: headers,
	})
	if err != nil {
		return nil, err
	}
	var data struct {
		Tokens []struct {
			TokenType int    `json:"token_type"`
			Token     string `json:"token"`
		} `json:"tokens"`
		UserInfo struct {
			Mid string `json:"mid"`
		} `json:"user_info"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("malformed token response: %w", err)
	}

	tokens := map[int]string{}
	for _, t := range data.Tokens {
		tokens[t.TokenType] = t.Token
	}
	set := &TokenSet{
		Stoken: tokens[tokenTypeStoken],
		Mid:    data.UserInfo.Mid,
	}
	if ltoken := tokens[tokenTypeLToken]; strings.HasPrefix(ltoken, "v2_") {
		set.LTokenV2 = ltoken
		set.LTMidV2 = set.Mid
	} else {
		set.LToken = ltoken
	}
	if cookieToken := tokens[tokenTypeCookieToken]; strings.HasPrefix(cookieToken, "v2_") {
		set.CookieTokenV2 = cookieToken
		set.AccountMidV2 = set.Mid
	} else {
		set.CookieToken = cookieToken
	}

	uid := strconv.FormatInt(c.accountID, 10)
	c.cookies.Set(CookieMid, set.Mid)
	c.cookies.Set(CookieStoken, set.Stoken)
	c.cookies.Set(CookieStuid, uid)
	if set.LToken != "" {
		c.cookies.Set(CookieLToken, set.LToken)
		c.cookies.Set(CookieLTuid, uid)
	}
	if set.LTokenV2 != "" {
		c.cookies.Set(CookieLTokenV2, set.LTokenV2)
		c.cookies.Set(CookieLTMidV2, set.LTMidV2)
	}
	if set.CookieToken != "" {
		c.cookies.Set(CookieCookieToken, set.CookieToken)
		c.cookies.Set(CookieAccountID, uid)
	}
	if set.CookieTokenV2 != "" {
		c.cookies.Set(CookieCookieTokenV2, set.CookieTokenV2)
		c.cookies.Set(CookieAccountMidV2, set.AccountMidV2)
	}
	return set, nil
}

// VerifyStoken checks a super token against the platform; success is a nil
// error. Overseas uses the dedicated verify endpoint, mainland verifies by
// performing the cookie-token exchange.
func (c *Client) VerifyStoken(ctx context.Context, stoken string, accountID int64, mid string) error {
	if err := c.CheckStoken(stoken, accountID, mid); err != nil {
		return err
	}
	if c.region == RegionChinese {
		_, err := c.GetCookieTokenByStoken(ctx, stoken, accountID, mid)
		return err
	}
	base, err := passportMaURL.URL(c.region)
	if err != nil {
		return err
	}
	headers := http.Header{"x-rpc-app_id": {appIDHoyolabPassport}}
	_, err = c.requestLab(ctx, joinURL(base, "token/verifySToken"), labRequest{
		Method:  http.MethodPost,
		Headers: headers,
	})
	return err
}

// VerifyLToken checks a login token; success is a nil error.
func (c *Client) VerifyLToken(ctx context.Context, ltoken string, ltuid int64) error {
	if ltoken == "" {
		ltoken = c.cookies.LToken()
	}
	if ltuid == 0 {
		ltuid, _ = c.AccountID()
	}
	if ltoken == "" {
		return missingCredential(CookieLToken)
	}
	if ltuid == 0 {
		return missingCredential(CookieLTuid)
	}
	c.cookies.Set(CookieLToken, ltoken)
	c.cookies.Set(CookieLTuid, strconv.FormatInt(ltuid, 10))
	if c.region == RegionOverseas {
		base, err := passportMaURL.URL(c.region)
		if err != nil {
			return err
		}
		headers := http.Header{"x-rpc-app_id": {appIDHoyolabPassport}}
		_, err = c.requestLab(ctx, joinURL(base, "token/verifyLToken"), labRequest{
			Method:  http.MethodPost,
			Headers: headers,
		})
		return err
	}
	base, err := passportURL.URL(c.region)
	if err != nil {
		return err
	}
	body := map[string]any{"ltoken": ltoken, "uid": ltuid}
	headers := http.Header{"x-rpc-app_id": {appIDMihoyoPassport}}
	_, err = c.requestLab(ctx, joinURL(base, "getUserAccountInfoByLToken"), labRequest{
		Method:  http.MethodPost,
		Body:    body,
		Headers: headers,
	})
	return err
}

// VerifyCookieToken checks a cookie token; success is a nil error.
func (c *Client) VerifyCookieToken(ctx context.Context, cookieToken string, accountID int64) error {
	if cookieToken == "" {
		cookieToken = c.cookies.CookieToken()
	}
	if accountID == 0 {
		accountID, _ = c.AccountID()
	}
	if cookieToken == "" {
		return missingCredential(CookieCookieToken)
	}
	if accountID == 0 {
		return missingCredential(CookieAccountID)
	}
	c.cookies.Set(CookieCookieToken, cookieToken)
	c.cookies.Set(CookieAccountID, strconv.FormatInt(accountID, 10))
	if c.region == RegionOverseas {
		base, err := passportMaURL.URL(c.region)
		if err != nil {
			return err
		}
		headers := http.Header{"x-rpc-app_id": {appIDHoyolabPassport}}
		_, err = c.requestLab(ctx, joinURL(base, "token/verifyCookieToken"), labRequest{
			Method:  http.MethodPost,
			Headers: headers,
		})
		return err
	}
	base, err := passportURL.URL(c.region)
	if err != nil {
		return err
	}
	body := map[string]any{"cookie_token": cookieToken, "uid": accountID}
	headers := http.Header{"x-rpc-app_id": {appIDMihoyoPassport}}
	_, err = c.requestLab(ctx, joinURL(base, "getUserAccountInfoByCookieToken"), labRequest{
		Method:  http.MethodPost,
		Body:    body,
		Headers: headers,
	})
	return err
}

// GetGameTokenV2ByAuthTicket exchanges an auth ticket for a v2 game token.
// Mainland only.
func (c *Client) GetGameTokenV2ByAuthTicket(ctx context.Context, appID, authTicket string) (string, error) {
	if err := c.regionSpecific(true); err != nil {
		return "", err
	}
	endpoint, err := authTicketLoginURL.URL(c.region)
	if err != nil {
		return "", err
	}
	body := map[string]any{"ticket": authTicket}
	headers := http.Header{"x-rpc-app_id": {appID}}
	raw, err := c.requestAPI(ctx, http.MethodPost, endpoint, body, nil, mergeHeaders(c.defaultHeaders(), headers))
	if err != nil {
		return "", err
	}
	var data tokenData
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", fmt.Errorf("malformed token response: %w", err)
	}
	return data.Token.Token, nil
}

// GameLoginResult is the shield login payload.
type GameLoginResult struct {
	ComboID     string `json:"combo_id"`
	OpenID      string `json:"open_id"`
	ComboToken  string `json:"combo_token"`
	Heartbeat   bool   `json:"heartbeat"`
	AccountType int    `json:"account_type"`
}

// GameLogin performs the shield login with a game token, yielding the combo
// token used by in-game APIs. Requires a configured game.
func (c *Client) GameLogin(ctx context.Context, uid, gameToken string) (*GameLoginResult, error) {
	if c.game == "" {
		return nil, fmt.Errorf("%w: no game configured", ErrGameNotSupported)
	}
	endpoint, err := gameLoginURL.URL(c.region, c.game)
	if err != nil {
		return nil, err
	}
	appID, ok := appIDs[c.game][c.region]
	if !ok {
		return nil, fmt.Errorf("%w: no app id for %s/%s", ErrGameNotSupported, c.region, c.game)
	}
	appIDNum, err := strconv.Atoi(appID)
	if err != nil {
		return nil, fmt.Errorf("invalid app id %q: %w", appID, err)
	}
	inner, err := json.Marshal(map[string]any{
		"uid":             uid,
		"token":           gameToken,
		"guest":           false,
		"is_new_register": false,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	payload := map[string]any{
		"channel_id": 1,
		"device":     c.deviceID,
		"app_id":     appIDNum,
		"data":       string(inner),
	}
	sign, err := generateSign(payload, c.game, c.region)
	if err != nil {
		return nil, err
	}
	payload["sign"] = sign

	biz, err := GameBiz(c.region, c.game)
	if err != nil {
		return nil, err
	}
	headers := http.Header{
		"x-rpc-client_type": {"1"},
		"x-rpc-channel_id":  {"1"},
		"x-rpc-game_biz":    {biz},
		"x-rpc-device_id":   {c.deviceID},
	}
	raw, err := c.requestAPI(ctx, http.MethodPost, endpoint, payload, nil, headers)
	if err != nil {
		return nil, err
	}
	var result GameLoginResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("malformed login response: %w", err)
	}
	return &result, nil
}

// =============================================================================
// QR login (mainland)
// =============================================================================

// GenLoginQRCode requests a login QR code. The returned URL is rendered for
// the user to scan; the ticket identifies the session when polling.
func (c *Client) GenLoginQRCode(ctx context.Context, appID string) (qrURL, ticket string, err error) {
	if err := c.regionSpecific(true); err != nil {
		return "", "", err
	}
	if appID == "" {
		appID = "8"
	}
	body := map[string]any{"app_id": appID, "device": c.deviceID}
	raw, err := c.requestAPI(ctx, http.MethodPost, joinURL(qrcodeURL, "fetch"), body, nil, c.defaultHeaders())
	if err != nil {
		return "", "", err
	}
	var data struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", "", fmt.Errorf("malformed qrcode response: %w", err)
	}
	if data.URL == "" {
		return "", "", nil
	}
	_, ticket, found := strings.Cut(data.URL, "ticket=")
	if !found {
		return "", "", fmt.Errorf("qrcode url carries no ticket: %q", data.URL)
	}
	return data.URL, ticket, nil
}

// CheckLoginQRCode polls a QR login session. An unconfirmed session is the
// normal in-progress state and returns confirmed=false with no error; once
// confirmed, the embedded game token is returned and the account id adopted.
func (c *Client) CheckLoginQRCode(ctx context.Context, ticket, appID string) (gameToken string, confirmed bool, err error) {
	if err := c.regionSpecific(true); err != nil {
		return "", false, err
	}
	if appID == "" {
		appID = "8"
	}
	body := map[string]any{"app_id": appID, "ticket": ticket, "device": c.deviceID}
	raw, err := c.requestAPI(ctx, http.MethodPost, joinURL(qrcodeURL, "query"), body, nil, c.defaultHeaders())
	if err != nil {
		return "", false, err
	}
	var data struct {
		Stat    string `json:"stat"`
		Payload struct {
			Raw string `json:"raw"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", false, fmt.Errorf("malformed qrcode response: %w", err)
	}
	if data.Stat != "Confirmed" {
		return "", false, nil
	}
	var info struct {
		UID   string `json:"uid"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(data.Payload.Raw), &info); err != nil {
		return "", false, fmt.Errorf("malformed qrcode payload: %w", err)
	}
	if id, err := strconv.ParseInt(info.UID, 10, 64); err == nil {
		c.accountID = id
	}
	return info.Token, true, nil
}

// AcceptLoginQRCode confirms an in-game login QR code on behalf of the
// account: it scans the ticket, derives a game token from the stored stoken
// and posts the confirmation payload. Mainland only.
func (c *Client) AcceptLoginQRCode(ctx context.Context, rawQRURL string) error {
	if err := c.regionSpecific(true); err != nil {
		return err
	}
	if err := c.CheckStoken("", 0, ""); err != nil {
		return err
	}
	if !strings.HasPrefix(rawQRURL, qrcodeGamePage) {
		return fmt.Errorf("invalid qrcode url: %q", rawQRURL)
	}
	u, err := url.Parse(rawQRURL)
	if err != nil {
		return fmt.Errorf("invalid qrcode url: %w", err)
	}
	query := u.Query()
	ticket := query.Get("ticket")
	appID := query.Get("app_id")
	bizKey := query.Get("biz_key")
	if ticket == "" || appID == "" || bizKey == "" {
		return fmt.Errorf("qrcode url is missing ticket, app_id or biz_key: %q", rawQRURL)
	}

	base := strings.Replace(qrcodeURL, "hk4e_cn", bizKey, 1)
	scanBody := map[string]any{"ticket": ticket, "app_id": appID, "device": c.deviceID}
	if _, err := c.requestLab(ctx, joinURL(base, "scan"), labRequest{Body: scanBody}); err != nil {
		return err
	}

	gameToken, err := c.GetGameTokenByStoken(ctx)
	if err != nil {
		return err
	}
	rawPayload, err := json.MarshalIndent(map[string]string{
		"uid":   strconv.FormatInt(c.accountID, 10),
		"token": gameToken,
	}, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	confirmBody := map[string]any{
		"ticket": ticket,
		"app_id": appID,
		"device": c.deviceID,
		"payload": map[string]string{
			"proto": "Account",
			"raw":   string(rawPayload),
		},
	}
	_, err = c.requestLab(ctx, joinURL(base, "confirm"), labRequest{Body: confirmBody})
	return err
}
