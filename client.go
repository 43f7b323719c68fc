package hoyokit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/google/uuid"
)

// HTTPDoer is the transport surface the client depends on. tls-client's
// HttpClient satisfies it; tests inject fakes.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Timeouts carries the per-phase transport deadlines. tls-client exposes a
// single request timeout, so the sum of the phases is applied as the overall
// deadline; the fields are kept separate for configuration fidelity.
type Timeouts struct {
	Connect time.Duration
	Read    time.Duration
	Write   time.Duration
	Pool    time.Duration
}

// DefaultTimeouts mirrors the platform clients' stock configuration.
var DefaultTimeouts = Timeouts{
	Connect: 5 * time.Second,
	Read:    5 * time.Second,
	Write:   5 * time.Second,
	Pool:    1 * time.Second,
}

func (t Timeouts) total() time.Duration {
	return t.Connect + t.Read + t.Write + t.Pool
}

// Client is a typed client for one region of the platform. It bundles the
// credential store, the signing engine and the HTTP pipeline; exchange
// operations in auth.go read and write the store through it.
type Client struct {
	region    Region
	game      Game
	lang      string
	accountID int64
	playerID  int64
	deviceID  string
	deviceFP  string

	cookies  *Cookies
	http     HTTPDoer
	tls      tls_client.HttpClient
	logger   Logger
	timeouts Timeouts
	proxyURL string
}

// Option configures a Client at construction time.
type Option func(*Client)

func WithGame(game Game) Option           { return func(c *Client) { c.game = game } }
func WithLang(lang string) Option         { return func(c *Client) { c.lang = lang } }
func WithAccountID(id int64) Option       { return func(c *Client) { c.accountID = id } }
func WithPlayerID(id int64) Option        { return func(c *Client) { c.playerID = id } }
func WithDeviceID(id string) Option       { return func(c *Client) { c.deviceID = id } }
func WithDeviceFP(fp string) Option       { return func(c *Client) { c.deviceFP = fp } }
func WithLogger(logger Logger) Option     { return func(c *Client) { c.logger = logger } }
func WithTimeouts(t Timeouts) Option      { return func(c *Client) { c.timeouts = t } }
func WithProxyURL(proxyURL string) Option { return func(c *Client) { c.proxyURL = proxyURL } }

// WithCookies attaches an existing credential store. The client takes
// ownership; callers should not mutate it concurrently with requests.
func WithCookies(cookies *Cookies) Option {
	return func(c *Client) { c.cookies = cookies }
}

// WithCookieString parses a browser-style cookie header into the store.
func WithCookieString(raw string) Option {
	return func(c *Client) { c.cookies = ParseCookies(raw) }
}

// WithHTTPClient replaces the transport. Used by tests; also allows sharing a
// configured tls-client across clients.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) { c.http = doer }
}

// NewClient builds a client for the given region.
func NewClient(region Region, opts ...Option) (*Client, error) {
	if region != RegionOverseas && region != RegionChinese {
		return nil, fmt.Errorf("%w: %q", ErrRegionNotSupported, region)
	}
	c := &Client{
		region:   region,
		lang:     "en-us",
		logger:   noopLogger{},
		timeouts: DefaultTimeouts,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cookies == nil {
		c.cookies = NewCookies()
	}
	if c.accountID == 0 {
		if id, ok := c.cookies.AccountID(); ok {
			c.accountID = id
		}
	}
	c.resolveDevice()

	if c.http == nil {
		jar := tls_client.NewCookieJar()
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(int(c.timeouts.total().Seconds())),
			tls_client.WithClientProfile(profiles.Chrome_133),
			tls_client.WithNotFollowRedirects(),
			tls_client.WithCookieJar(jar),
		}
		if c.proxyURL != "" {
			options = append(options, tls_client.WithProxyUrl(c.proxyURL))
		}
		tlsClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to build transport: %w", err)
		}
		c.tls = tlsClient
		c.http = tlsClient
	}
	return c, nil
}

// resolveDevice fixes the device identity for the lifetime of the client:
// explicit option, then the store, then an id derived from the account id,
// then a random one. The fingerprint defaults to the first 13 hex chars of
// the id's MD5.
func (c *Client) resolveDevice() {
	if c.deviceID == "" {
		c.deviceID = c.cookies.Value(CookieDeviceID)
	}
	if c.deviceID == "" {
		if c.accountID != 0 {
			c.deviceID = uuid.NewMD5(uuid.NameSpaceURL, []byte(strconv.FormatInt(c.accountID, 10))).String()
		} else {
			c.deviceID = uuid.New().String()
		}
	}
	if c.deviceFP == "" {
		c.deviceFP = c.cookies.Value(CookieDeviceFP)
	}
	if c.deviceFP == "" {
		c.deviceFP = hexDigest(c.deviceID)[:13]
	}
}

// SetProxy switches the transport to a new proxy without dropping cookies or
// credentials. Only available on the default transport.
func (c *Client) SetProxy(proxyURL string) error {
	if c.tls == nil {
		return fmt.Errorf("transport does not support proxy changes")
	}
	if err := c.tls.SetProxy(proxyURL); err != nil {
		return err
	}
	c.proxyURL = proxyURL
	return nil
}

func (c *Client) Region() Region    { return c.region }
func (c *Client) Game() Game        { return c.game }
func (c *Client) Cookies() *Cookies { return c.cookies }
func (c *Client) DeviceID() string  { return c.deviceID }
func (c *Client) DeviceFP() string  { return c.deviceFP }

// AccountID returns the account id, falling back to the store scan.
func (c *Client) AccountID() (int64, bool) {
	if c.accountID != 0 {
		return c.accountID, true
	}
	return c.cookies.AccountID()
}

// PlayerID returns the in-game player id when configured.
func (c *Client) PlayerID() (int64, bool) {
	return c.playerID, c.playerID != 0
}

// regionSpecific gates an operation on the client's region.
func (c *Client) regionSpecific(chinese bool) error {
	if chinese && c.region != RegionChinese {
		return fmt.Errorf("%w: operation is only available for the Chinese region", ErrRegionNotSupported)
	}
	if !chinese && c.region == RegionChinese {
		return fmt.Errorf("%w: operation is only available for the overseas region", ErrRegionNotSupported)
	}
	return nil
}

func (c *Client) appVersion() string {
	if c.region == RegionChinese {
		return "2.46.1"
	}
	return "1.5.0"
}

func (c *Client) clientType() string { return "5" }

const deviceName = "HYK Build 240817"

func (c *Client) userAgent() string {
	if c.region == RegionChinese {
		return fmt.Sprintf(
			"Mozilla/5.0 (Linux; %s) AppleWebKit/537.36 (KHTML, like Gecko) "+
				"Version/4.0 Chrome/111.0.5563.116 Mobile Safari/537.36 miHoYoBBS/%s",
			deviceName, c.appVersion(),
		)
	}
	return "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/111.0.5563.116 Safari/537.36"
}

// defaultHeaders is the baseline every request carries. Header keys stay
// lowercase; the wire protocol is case-sensitive about some of the x-rpc
// names.
func (c *Client) defaultHeaders() http.Header {
	return http.Header{
		"user-agent":        {c.userAgent()},
		"x-rpc-app_version": {c.appVersion()},
		"x-rpc-client_type": {c.clientType()},
		"x-rpc-device_id":   {c.deviceID},
		"x-rpc-device_fp":   {c.deviceFP},
	}
}

// labHeaders extends the baseline with the DS signature and its correlated
// app-version/client-type headers, plus the language header overseas.
func (c *Client) labHeaders(lang string, dsType DSType, newDS bool, body any, params url.Values) (http.Header, error) {
	h := c.defaultHeaders()
	if c.region == RegionOverseas {
		if lang == "" {
			lang = c.lang
		}
		if c.game == GameZZZ {
			h["x-rpc-lang"] = []string{lang}
		}
		h["x-rpc-language"] = []string{lang}
	}
	appVersion, clientType, ds, err := GenerateDynamicSecret(c.region, dsType, newDS, body, params)
	if err != nil {
		return nil, err
	}
	h["x-rpc-app_version"] = []string{appVersion}
	h["x-rpc-client_type"] = []string{clientType}
	h["DS"] = []string{ds}
	return h, nil
}

// mergeHeaders copies extra over base; caller-supplied values win on
// conflict.
func mergeHeaders(base, extra http.Header) http.Header {
	for k, vs := range extra {
		base[k] = vs
	}
	return base
}

// newRequest assembles an outbound request: JSON body, merged query
// parameters and the credential store rendered as the cookie header.
func (c *Client) newRequest(ctx context.Context, method, rawURL string, body any, params url.Values, headers http.Header) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		reader = bytes.NewReader(raw)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Set(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	if headers == nil {
		headers = http.Header{}
	}
	if body != nil && len(headers["content-type"]) == 0 {
		headers["content-type"] = []string{"application/json"}
	}
	if c.cookies.Len() > 0 {
		headers["cookie"] = []string{c.cookies.Header()}
	}
	req.Header = headers
	return req, nil
}

// do dispatches the request and classifies transport failures. The pipeline
// never retries; both TimedOut and NetworkError are retryable by the caller.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Logf("%s %s -> error: %v", req.Method, req.URL.Path, err)
		return nil, classifyTransportError(err)
	}
	c.logger.Logf("%s %s -> %d", req.Method, req.URL.Path, resp.StatusCode)
	return resp, nil
}

// readResponseBody decompresses and reads the full response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	body := http.DecompressBody(resp)
	defer body.Close()
	return io.ReadAll(body)
}

// envelope is the platform's uniform response wrapper.
type envelope struct {
	RetCode int             `json:"retcode"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// requestAPI performs a request and classifies the JSON envelope: retcode 0
// yields data, anything else a typed error. HTTP 404 means the endpoint does
// not exist for this region; other non-success statuses carry the raw body.
func (c *Client) requestAPI(ctx context.Context, method, rawURL string, body any, params url.Values, headers http.Header) (json.RawMessage, error) {
	req, err := c.newRequest(ctx, method, rawURL, body, params, headers)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := readResponseBody(resp)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: endpoint not found or has been removed", ErrNotSupported)
	}
	if resp.StatusCode >= 400 {
		return nil, &BadRequest{StatusCode: resp.StatusCode, Message: string(raw)}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &BadRequest{StatusCode: resp.StatusCode, Message: fmt.Sprintf("malformed response body: %v", err)}
	}
	if env.RetCode != 0 {
		return nil, retcodeError(0, env.RetCode, env.Message)
	}
	return env.Data, nil
}

// labRequest carries the optional parts of a signed lab-API call.
type labRequest struct {
	Method  string
	Body    any
	Params  url.Values
	Headers http.Header
	Lang    string
	NewDS   bool
	DSType  DSType
}

// requestLab performs a signed request. The method defaults to POST when a
// body is present, GET otherwise; caller headers override the generated
// ones.
func (c *Client) requestLab(ctx context.Context, rawURL string, o labRequest) (json.RawMessage, error) {
	method := o.Method
	if method == "" {
		if o.Body != nil {
			method = http.MethodPost
		} else {
			method = http.MethodGet
		}
	}
	headers, err := c.labHeaders(o.Lang, o.DSType, o.NewDS, o.Body, o.Params)
	if err != nil {
		return nil, err
	}
	headers = mergeHeaders(headers, o.Headers)
	return c.requestAPI(ctx, method, rawURL, o.Body, o.Params, headers)
}
