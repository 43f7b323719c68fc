package hoyokit

import (
	"fmt"
	"strings"
)

// Endpoint tables. Every exchange operation resolves its base URL from one of
// these before calling the request pipeline; an empty entry means the region
// does not expose the route.

type internationalRoute struct {
	overseas string
	chinese  string
}

func (r internationalRoute) URL(region Region) (string, error) {
	var u string
	switch region {
	case RegionOverseas:
		u = r.overseas
	case RegionChinese:
		u = r.chinese
	default:
		return "", fmt.Errorf("%w: %q", ErrRegionNotSupported, region)
	}
	if u == "" {
		return "", fmt.Errorf("%w: route has no %s URL", ErrRegionNotSupported, region)
	}
	return u, nil
}

type gameRoute struct {
	overseas map[Game]string
	chinese  map[Game]string
}

func (r gameRoute) URL(region Region, game Game) (string, error) {
	var urls map[Game]string
	switch region {
	case RegionOverseas:
		urls = r.overseas
	case RegionChinese:
		urls = r.chinese
	default:
		return "", fmt.Errorf("%w: %q", ErrRegionNotSupported, region)
	}
	u := urls[game]
	if u == "" {
		return "", fmt.Errorf("%w: route has no %s URL for %s", ErrGameNotSupported, region, game)
	}
	return u, nil
}

// joinURL appends path segments to a base URL.
func joinURL(base string, segments ...string) string {
	u := strings.TrimRight(base, "/")
	for _, s := range segments {
		u += "/" + strings.Trim(s, "/")
	}
	return u
}

const passportHost = "passport-api.mihoyo.com"

var (
	takumiURL = internationalRoute{
		overseas: "https://api-os-takumi.mihoyo.com",
		chinese:  "https://api-takumi.mihoyo.com",
	}

	// auth/api: login-ticket and game-token exchanges. Mainland only.
	authURL = internationalRoute{
		chinese: "https://api-takumi.mihoyo.com/auth/api",
	}

	// account/auth/api: v1 stoken exchanges.
	passportURL = internationalRoute{
		overseas: "https://api-account-os.hoyolab.com/account/auth/api",
		chinese:  "https://" + passportHost + "/account/auth/api",
	}

	// ma-passport: v2 token exchanges and verification.
	passportMaURL = internationalRoute{
		overseas: "https://sg-public-api.hoyoverse.com/account/ma-passport",
		chinese:  "https://" + passportHost + "/account/ma-cn-session",
	}

	getTokensBySTokenURL = internationalRoute{
		overseas: "https://sg-public-api.hoyoverse.com/account/ma-passport/token/getBySToken",
	}

	authTicketLoginURL = internationalRoute{
		chinese: "https://" + passportHost + "/account/ma-cn-passport/app/loginByAuthTicket",
	}

	authKeyURL = internationalRoute{
		chinese: "https://api-takumi.mihoyo.com/binding/api/genAuthKey",
	}

	webAccountURL = internationalRoute{
		overseas: "https://webapi-os.account.hoyoverse.com/Api",
		chinese:  "https://webapi.account.mihoyo.com/Api",
	}

	// QR login. The URL carries the hk4e_cn biz segment which scan/confirm
	// replace with the biz key from the QR code.
	qrcodeURL = "https://hk4e-sdk.mihoyo.com/hk4e_cn/combo/panda/qrcode"

	qrcodeGamePage = "https://user.mihoyo.com/qr_code_in_game.html"

	gachaInfoURL = gameRoute{
		overseas: map[Game]string{
			GameGenshin: "https://hk4e-api-os.hoyoverse.com/event/gacha_info/api",
		},
		chinese: map[Game]string{
			GameGenshin:  "https://hk4e-api.mihoyo.com/event/gacha_info/api",
			GameStarRail: "https://api-takumi.mihoyo.com/common/gacha_record/api",
		},
	}

	rewardURL = gameRoute{
		overseas: map[Game]string{
			GameGenshin:  "https://sg-hk4e-api.hoyolab.com/event/sol?act_id=e202102251931481",
			GameHonkai:   "https://sg-public-api.hoyolab.com/event/mani?act_id=e202110291205111",
			GameStarRail: "https://sg-public-api.hoyolab.com/event/luna/os?act_id=e202303301540311",
		},
		chinese: map[Game]string{
			GameGenshin:  "https://api-takumi.mihoyo.com/event/bbs_sign_reward?act_id=e202009291139501",
			GameHonkai:   "https://api-takumi.mihoyo.com/event/luna?act_id=e202207181446311",
			GameStarRail: "https://api-takumi.mihoyo.com/event/luna?act_id=e202304121516551",
		},
	}

	gameLoginURL = gameRoute{
		overseas: map[Game]string{
			GameGenshin:  "https://hk4e-sdk-os.hoyoverse.com/hk4e_global/mdk/shield/api/login",
			GameStarRail: "https://hkrpg-sdk-os.hoyoverse.com/hkrpg_global/mdk/shield/api/login",
			GameZZZ:      "https://nap-sdk-os.hoyoverse.com/nap_global/mdk/shield/api/login",
		},
		chinese: map[Game]string{
			GameGenshin:  "https://hk4e-sdk.mihoyo.com/hk4e_cn/mdk/shield/api/login",
			GameStarRail: "https://hkrpg-sdk.mihoyo.com/hkrpg_cn/mdk/shield/api/login",
		},
	}

	codeURL = internationalRoute{
		overseas: "https://sg-hk4e-api.hoyoverse.com/common/apicdkey/api/webExchangeCdkey",
	}

	verificationURL = internationalRoute{
		chinese: "https://api-takumi-record.mihoyo.com/game_record/app/card/wapi",
	}
)

// Passport app ids sent as x-rpc-app_id on the v2 exchange family.
const (
	appIDMihoyoPassport  = "bll8iq97cem8"
	appIDHoyolabPassport = "c9oqaq3s3gu8"
)
