package hoyokit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"

	http "github.com/bogdanfinn/fhttp"
)

// Geetest verification helpers for the game-record surface. Mainland only.

const geetestAjaxURL = "https://api.geetest.com/ajax.php"

// Verification is a freshly created geetest challenge.
type Verification struct {
	Challenge  string `json:"challenge"`
	GT         string `json:"gt"`
	NewCaptcha int    `json:"new_captcha"`
}

// CreateVerification asks the platform for a geetest challenge; isHigh
// requests the high-risk variant.
func (c *Client) CreateVerification(ctx context.Context, isHigh bool) (*Verification, error) {
	if err := c.regionSpecific(true); err != nil {
		return nil, err
	}
	base, err := verificationURL.URL(c.region)
	if err != nil {
		return nil, err
	}
	params := url.Values{"is_high": {strconv.FormatBool(isHigh)}}
	raw, err := c.requestLab(ctx, joinURL(base, "createVerification"), labRequest{
		Method: http.MethodGet,
		Params: params,
	})
	if err != nil {
		return nil, err
	}
	var v Verification
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("malformed verification: %w", err)
	}
	return &v, nil
}

// VerifyVerification submits a solved challenge.
func (c *Client) VerifyVerification(ctx context.Context, challenge, validate string) error {
	if err := c.regionSpecific(true); err != nil {
		return err
	}
	base, err := verificationURL.URL(c.region)
	if err != nil {
		return err
	}
	body := map[string]any{
		"geetest_challenge": challenge,
		"geetest_validate":  validate,
		"geetest_seccode":   validate + "|jordan",
	}
	_, err = c.requestLab(ctx, joinURL(base, "verifyVerification"), labRequest{Body: body})
	return err
}

// jsonpBody extracts the JSON object from a geetest JSONP response like
// geetest_123({...}).
var jsonpBody = regexp.MustCompile(`^.*?\((\{.*)\)$`)

// RequestVerifyAjax probes the geetest ajax endpoint for the no-interaction
// validate code. An empty return with nil error means the challenge needs an
// interactive solve.
func (c *Client) RequestVerifyAjax(ctx context.Context, referer, gt, challenge string) (string, error) {
	if err := c.regionSpecific(true); err != nil {
		return "", err
	}
	params := url.Values{
		"gt":          {gt},
		"challenge":   {challenge},
		"lang":        {"zh-cn"},
		"pt":          {"3"},
		"client_type": {"web_mobile"},
		"callback":    {fmt.Sprintf("geetest_%d", time.Now().UnixMilli())},
	}
	headers := c.defaultHeaders()
	headers["referer"] = []string{referer}
	req, err := c.newRequest(ctx, http.MethodGet, geetestAjaxURL, nil, params, headers)
	if err != nil {
		return "", err
	}
	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := readResponseBody(resp)
	if err != nil {
		return "", classifyTransportError(err)
	}
	m := jsonpBody.FindSubmatch(body)
	if m == nil {
		return "", fmt.Errorf("malformed geetest response: %q", body)
	}
	var data struct {
		Status string `json:"status"`
		Data   struct {
			Result   string `json:"result"`
			Validate string `json:"validate"`
		} `json:"data"`
	}
	if err := json.Unmarshal(m[1], &data); err != nil {
		return "", fmt.Errorf("malformed geetest response: %w", err)
	}
	if data.Status == "success" && data.Data.Result == "success" {
		return data.Data.Validate, nil
	}
	return "", nil
}
