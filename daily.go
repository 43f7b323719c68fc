package hoyokit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	http "github.com/bogdanfinn/fhttp"
	"golang.org/x/sync/errgroup"
)

// Daily check-in rewards. The claim endpoint can demand a geetest challenge,
// surfaced as a GeetestChallengeError.

// DailyRewardInfo is the current sign-in state.
type DailyRewardInfo struct {
	SignedIn       bool `json:"is_sign"`
	ClaimedRewards int  `json:"total_sign_day"`
}

// DailyReward is one monthly reward entry.
type DailyReward struct {
	Name   string `json:"name"`
	Amount int    `json:"cnt"`
	Icon   string `json:"icon"`
}

// ClaimedDailyReward is one already-claimed reward from the history list.
type ClaimedDailyReward struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Amount    int    `json:"cnt"`
	Icon      string `json:"img"`
	CreatedAt string `json:"created_at"`
}

// Mainland check-in is served from the community app, so the request carries
// browser-on-android identifiers.
var dailyChineseHeaders = http.Header{
	"x-rpc-device_name":  {"Chrome 20 2023"},
	"x-rpc-channel":      {"chrome"},
	"x-rpc-device_model": {"Chrome 2023"},
	"x-rpc-sys_version":  {"13"},
	"x-rpc-platform":     {"android"},
}

var dailyReferers = map[Game]string{
	GameGenshin: "https://webstatic.mihoyo.com/bbs/event/signin-ys/index.html?" +
		"bbs_auth_required=true&act_id=e202009291139501&utm_source=bbs&utm_medium=mys&utm_campaign=icon",
	GameStarRail: "https://webstatic.mihoyo.com/bbs/event/signin/hkrpg/index.html?" +
		"bbs_auth_required=true&act_id=e202304121516551&" +
		"bbs_auth_required=true&bbs_presentation_style=fullscreen&" +
		"utm_source=bbs&utm_medium=mys&utm_campaign=icon",
}

// requestDailyReward performs a signed request against the reward endpoint
// family. The route table embeds the act_id query, which is split off here
// and merged into the request parameters.
func (c *Client) requestDailyReward(ctx context.Context, endpoint, method string, params url.Values, challenge, validate string) (json.RawMessage, error) {
	if c.game == "" {
		return nil, fmt.Errorf("%w: no game configured", ErrGameNotSupported)
	}
	base, err := rewardURL.URL(c.region, c.game)
	if err != nil {
		return nil, err
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid reward url: %w", err)
	}
	if params == nil {
		params = url.Values{}
	}
	for k, vs := range baseURL.Query() {
		params[k] = vs
	}
	params.Set("lang", c.lang)
	baseURL.RawQuery = ""

	// literal lowercase keys throughout; Header.Set would canonicalize them
	headers := http.Header{}
	if challenge != "" {
		headers["x-rpc-challenge"] = []string{challenge}
	}
	if validate != "" {
		headers["x-rpc-validate"] = []string{validate}
		headers["x-rpc-seccode"] = []string{validate + "|jordan"}
	}
	if c.region == RegionChinese {
		for k, vs := range dailyChineseHeaders {
			headers[k] = vs
		}
		if referer, ok := dailyReferers[c.game]; ok {
			headers["referer"] = []string{referer}
			playerID, ok := c.PlayerID()
			if !ok {
				return nil, missingCredential("player_id")
			}
			server, err := RecognizeServer(playerID, c.game)
			if err != nil {
				return nil, err
			}
			params.Set("uid", strconv.FormatInt(playerID, 10))
			params.Set("region", server)
		}
	}

	return c.requestLab(ctx, joinURL(baseURL.String(), endpoint), labRequest{
		Method:  method,
		Params:  params,
		Headers: headers,
	})
}

// GetRewardInfo returns the sign-in state for the current month.
func (c *Client) GetRewardInfo(ctx context.Context) (*DailyRewardInfo, error) {
	raw, err := c.requestDailyReward(ctx, "info", http.MethodGet, nil, "", "")
	if err != nil {
		return nil, err
	}
	var info DailyRewardInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("malformed reward info: %w", err)
	}
	return &info, nil
}

// GetMonthlyRewards lists every reward claimable this month.
func (c *Client) GetMonthlyRewards(ctx context.Context) ([]DailyReward, error) {
	raw, err := c.requestDailyReward(ctx, "home", http.MethodGet, nil, "", "")
	if err != nil {
		return nil, err
	}
	var data struct {
		Awards []DailyReward `json:"awards"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("malformed reward list: %w", err)
	}
	return data.Awards, nil
}

func (c *Client) getClaimedRewardsPage(ctx context.Context, page int) ([]ClaimedDailyReward, error) {
	params := url.Values{"current_page": {strconv.Itoa(page)}}
	raw, err := c.requestDailyReward(ctx, "award", http.MethodGet, params, "", "")
	if err != nil {
		return nil, err
	}
	var data struct {
		List []ClaimedDailyReward `json:"list"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("malformed claimed rewards: %w", err)
	}
	return data.List, nil
}

// ClaimedRewards pages through the claim history, up to limit entries (zero
// for all). The scan stops after nine pages regardless.
func (c *Client) ClaimedRewards(ctx context.Context, limit int) ([]ClaimedDailyReward, error) {
	var result []ClaimedDailyReward
	for page := 1; page < 10; page++ {
		items, err := c.getClaimedRewardsPage(ctx, page)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			break
		}
		result = append(result, items...)
		if limit > 0 && len(result) >= limit {
			return result[:limit], nil
		}
	}
	return result, nil
}

// ClaimDailyReward claims today's reward and returns it. A non-empty
// challenge/validate pair replays a solved geetest; when the platform demands
// one instead, the error is a GeetestChallengeError carrying the challenge
// parameters.
func (c *Client) ClaimDailyReward(ctx context.Context, challenge, validate string) (*DailyReward, error) {
	raw, err := c.requestDailyReward(ctx, "sign", http.MethodPost, nil, challenge, validate)
	if err != nil {
		return nil, err
	}
	var data struct {
		Success   int    `json:"success"`
		GT        string `json:"gt"`
		Challenge string `json:"challenge"`
		GTResult  *struct {
			Success   int    `json:"success"`
			GT        string `json:"gt"`
			Challenge string `json:"challenge"`
		} `json:"gt_result"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("malformed claim response: %w", err)
	}
	if c.region == RegionChinese && data.Success == 1 {
		return nil, &GeetestChallengeError{GT: data.GT, Challenge: data.Challenge}
	}
	if c.region == RegionOverseas && data.GTResult != nil && data.GTResult.Success != 0 {
		return nil, &GeetestChallengeError{GT: data.GTResult.GT, Challenge: data.GTResult.Challenge}
	}

	var (
		info    *DailyRewardInfo
		rewards []DailyReward
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		info, err = c.GetRewardInfo(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rewards, err = c.GetMonthlyRewards(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if info.ClaimedRewards < 1 || info.ClaimedRewards > len(rewards) {
		return nil, fmt.Errorf("claimed reward index %d out of range", info.ClaimedRewards)
	}
	return &rewards[info.ClaimedRewards-1], nil
}
