package hoyokit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	http "github.com/bogdanfinn/fhttp"
)

// Wish record (gacha history) retrieval. These endpoints authenticate with an
// authkey instead of cookies; see GetAuthkeyByStoken.

// Genshin banner types.
const (
	BannerNovice     = 100
	BannerStandard   = 200
	BannerCharacter  = 301
	BannerWeapon     = 302
	BannerCharacter2 = 400
	BannerChronicled = 500
)

// defaultBannerTypes is scanned by WishHistory when the caller passes none.
var defaultBannerTypes = []int{BannerNovice, BannerStandard, BannerCharacter, BannerWeapon, BannerChronicled}

// Wish is one gacha pull. The platform serves every field as a string; the
// numeric accessors parse on demand.
type Wish struct {
	UID        string `json:"uid"`
	GachaType  string `json:"gacha_type"`
	ItemID     string `json:"item_id"`
	Count      string `json:"count"`
	Time       string `json:"time"`
	Name       string `json:"name"`
	Lang       string `json:"lang"`
	ItemType   string `json:"item_type"`
	RankType   string `json:"rank_type"`
	ID         string `json:"id"`
	BannerName string `json:"-"`
}

// WishID returns the record id as an integer; ids order pulls
// chronologically.
func (w Wish) WishID() int64 {
	id, _ := strconv.ParseInt(w.ID, 10, 64)
	return id
}

// Rarity returns the item rank as an integer.
func (w Wish) Rarity() int {
	r, _ := strconv.Atoi(w.RankType)
	return r
}

// BannerType returns the banner discriminator as an integer.
func (w Wish) BannerType() int {
	t, _ := strconv.Atoi(w.GachaType)
	return t
}

// shortLangCode collapses a locale to the short form the gacha endpoints
// expect: zh variants stay intact, everything else drops the region suffix.
func shortLangCode(lang string) string {
	if strings.Contains(lang, "zh") {
		return lang
	}
	code, _, _ := strings.Cut(lang, "-")
	return code
}

// requestGachaInfo performs an authkey-authenticated GET against a gacha info
// endpoint.
func (c *Client) requestGachaInfo(ctx context.Context, endpoint, authkey, lang string, params url.Values) (json.RawMessage, error) {
	if authkey == "" {
		return nil, missingCredential("authkey")
	}
	if c.game == "" {
		return nil, fmt.Errorf("%w: no game configured", ErrGameNotSupported)
	}
	base, err := gachaInfoURL.URL(c.region, c.game)
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = url.Values{}
	}
	if unquoted, err := url.QueryUnescape(authkey); err == nil {
		authkey = unquoted
	}
	if lang == "" {
		lang = c.lang
	}
	params.Set("authkey_ver", "1")
	params.Set("authkey", authkey)
	params.Set("lang", shortLangCode(lang))
	return c.requestAPI(ctx, http.MethodGet, joinURL(base, endpoint), nil, params, c.defaultHeaders())
}

// GetWishPage fetches a single page of wish records for one banner type.
func (c *Client) GetWishPage(ctx context.Context, authkey string, bannerType int, endID int64) ([]Wish, error) {
	biz, err := GameBiz(c.region, c.game)
	if err != nil {
		return nil, err
	}
	params := url.Values{
		"gacha_type": {strconv.Itoa(bannerType)},
		"size":       {"20"},
		"end_id":     {strconv.FormatInt(endID, 10)},
		"game_biz":   {biz},
	}
	raw, err := c.requestGachaInfo(ctx, "getGachaLog", authkey, "", params)
	if err != nil {
		return nil, err
	}
	var data struct {
		List []Wish `json:"list"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("malformed wish page: %w", err)
	}
	return data.List, nil
}

// GetBannerNames returns the localized banner names keyed by banner type.
func (c *Client) GetBannerNames(ctx context.Context, authkey, lang string) (map[int]string, error) {
	raw, err := c.requestGachaInfo(ctx, "getConfigList", authkey, lang, nil)
	if err != nil {
		return nil, err
	}
	var data struct {
		GachaTypeList []struct {
			Key  string `json:"key"`
			Name string `json:"name"`
		} `json:"gacha_type_list"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("malformed banner list: %w", err)
	}
	names := make(map[int]string, len(data.GachaTypeList))
	for _, entry := range data.GachaTypeList {
		key, err := strconv.Atoi(entry.Key)
		if err != nil {
			continue
		}
		names[key] = entry.Name
	}
	return names, nil
}

// WishHistoryOptions tunes a WishHistory scan.
type WishHistoryOptions struct {
	// BannerTypes selects the banners to scan; nil scans the default set.
	BannerTypes []int
	// Limit caps the collected records per banner. Zero collects all.
	Limit int
	// EndID stops a banner's scan when this record id is reached.
	EndID int64
	// MinID stops a banner's scan below this record id.
	MinID int64
}

// WishHistory collects wish records across banner types, sorted
// chronologically. Each banner is paginated independently; the second
// character banner shares its name with the first.
func (c *Client) WishHistory(ctx context.Context, authkey string, opts WishHistoryOptions) ([]Wish, error) {
	bannerTypes := opts.BannerTypes
	if len(bannerTypes) == 0 {
		bannerTypes = defaultBannerTypes
	}
	names, err := c.GetBannerNames(ctx, authkey, "")
	if err != nil {
		return nil, err
	}
	var wishes []Wish
	for _, bannerType := range bannerTypes {
		p := &Paginator[Wish]{
			Fetch: func(ctx context.Context, endID int64) ([]Wish, error) {
				return c.GetWishPage(ctx, authkey, bannerType, endID)
			},
			ID:    Wish.WishID,
			EndID: opts.EndID,
			MinID: opts.MinID,
			Limit: opts.Limit,
		}
		items, err := p.Collect(ctx)
		if err != nil {
			return nil, err
		}
		name := names[bannerType]
		if bannerType == BannerCharacter2 {
			name = names[BannerCharacter]
		}
		for i := range items {
			items[i].BannerName = name
		}
		wishes = append(wishes, items...)
	}
	sort.SliceStable(wishes, func(i, j int) bool {
		return wishes[i].WishID() < wishes[j].WishID()
	})
	return wishes, nil
}
