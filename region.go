package hoyokit

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// Region selects the platform deployment a client talks to. The two
// deployments expose different hosts, signing salts and, for some
// operations, entirely different endpoints.
type Region string

const (
	RegionOverseas Region = "os"
	RegionChinese  Region = "cn"
)

// Game identifies a title on the platform. A few endpoints are keyed by
// (region, game) rather than region alone.
type Game string

const (
	GameGenshin  Game = "genshin"
	GameHonkai   Game = "honkai3rd"
	GameStarRail Game = "hkrpg"
	GameZZZ      Game = "nap"
)

// gameBiz is the platform's internal business identifier for a (region, game)
// pair, sent as the game_biz parameter on several endpoints.
var gameBiz = map[Region]map[Game]string{
	RegionOverseas: {
		GameGenshin:  "hk4e_global",
		GameStarRail: "hkrpg_global",
		GameHonkai:   "bh3_os",
		GameZZZ:      "nap_global",
	},
	RegionChinese: {
		GameGenshin:  "hk4e_cn",
		GameStarRail: "hkrpg_cn",
		GameHonkai:   "bh3_cn",
		GameZZZ:      "nap_cn",
	},
}

// GameBiz returns the game_biz identifier for a (region, game) pair.
func GameBiz(region Region, game Game) (string, error) {
	biz, ok := gameBiz[region][game]
	if !ok {
		return "", fmt.Errorf("%w: no game_biz for %s/%s", ErrGameNotSupported, region, game)
	}
	return biz, nil
}

// App keys and ids used by the game-login (shield) endpoints.
var appKeys = map[Game]map[Region]string{
	GameGenshin: {
		RegionOverseas: "6a4c78fe0356ba4673b8071127b28123",
		RegionChinese:  "d0d3a7342df2026a70f650b907800111",
	},
	GameStarRail: {
		RegionOverseas: "d74818dabd4182d4fbac7f8df1622648",
		RegionChinese:  "4650f3a396d34d576c3d65df26415394",
	},
	GameHonkai: {
		RegionOverseas: "243187699ab762b682a2a2e50ba02285",
		RegionChinese:  "0ebc517adb1b62c6b408df153331f9aa",
	},
	GameZZZ: {
		RegionOverseas: "ff0f2776bf515d79d1f8ff1fb98b2a06",
		RegionChinese:  "8844b676f3268c082a56021d9f47a206",
	},
}

var appIDs = map[Game]map[Region]string{
	GameGenshin:  {RegionOverseas: "4", RegionChinese: "4"},
	GameStarRail: {RegionOverseas: "11", RegionChinese: "8"},
	GameHonkai:   {RegionOverseas: "8", RegionChinese: "1"},
	GameZZZ:      {RegionOverseas: "15", RegionChinese: "12"},
}

// generateSignByKey signs a flat parameter map the way the shield login API
// expects: keys sorted, values stringified, joined as k=v with '&',
// HMAC-SHA256 over the result.
func generateSignByKey(data map[string]any, key string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, data[k]))
	}
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(strings.Join(pairs, "&")))
	return fmt.Sprintf("%x", mac.Sum(nil))
}

// generateSign signs data with the app key for the given (game, region).
func generateSign(data map[string]any, game Game, region Region) (string, error) {
	key, ok := appKeys[game][region]
	if !ok {
		return "", fmt.Errorf("%w: no app key for %s/%s", ErrGameNotSupported, region, game)
	}
	return generateSignByKey(data, key), nil
}

// ComboToken builds the x-rpc-combo_token header value used by in-game APIs.
// The field list and its ';'-joined sorted encoding are fixed by the server.
func ComboToken(accountID int64, comboToken string, game Game, region Region) (string, error) {
	appID, ok := appIDs[game][region]
	if !ok {
		return "", fmt.Errorf("%w: no app id for %s/%s", ErrGameNotSupported, region, game)
	}
	biz, err := GameBiz(region, game)
	if err != nil {
		return "", err
	}
	const channelID = "1"
	sign, err := generateSign(map[string]any{
		"app_id":      appID,
		"channel_id":  channelID,
		"open_id":     fmt.Sprintf("%d", accountID),
		"combo_token": comboToken,
	}, game, region)
	if err != nil {
		return "", err
	}
	fields := map[string]string{
		"ai": appID,
		"ci": channelID,
		"oi": fmt.Sprintf("%d", accountID),
		"ct": comboToken,
		"si": sign,
		"bi": biz,
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k + "=" + fields[k] + ";")
	}
	return b.String(), nil
}

// UID-prefix tables for server recognition. The platform encodes the shard in
// the first digit(s) of a player id.
var genshinServers = map[int]string{
	1: "cn_gf01", 2: "cn_gf01", 3: "cn_gf01", 5: "cn_qd01",
	6: "os_usa", 7: "os_euro", 8: "os_asia", 18: "os_asia", 9: "os_cht",
}

var starRailServers = map[int]string{
	1: "prod_gf_cn", 2: "prod_gf_cn", 5: "prod_qd_cn",
	6: "prod_official_usa", 7: "prod_official_eur",
	8: "prod_official_asia", 9: "prod_official_cht",
}

var uidLength = map[Game]int{
	GameGenshin:  9,
	GameStarRail: 9,
	GameHonkai:   8,
	GameZZZ:      9,
}

func uidFirstDigit(playerID int64, game Game) (int, error) {
	length, ok := uidLength[game]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrGameNotSupported, game)
	}
	div := int64(1)
	for i := 0; i < length-1; i++ {
		div *= 10
	}
	first := int(playerID / div)
	if first == 0 {
		return 0, fmt.Errorf("player id %d is not valid for %s", playerID, game)
	}
	return first, nil
}

// RecognizeServer maps a player id to the server identifier the platform
// expects in region parameters. Only games with a known shard table resolve.
func RecognizeServer(playerID int64, game Game) (string, error) {
	first, err := uidFirstDigit(playerID, game)
	if err != nil {
		return "", err
	}
	var server string
	switch game {
	case GameGenshin:
		server = genshinServers[first]
	case GameStarRail:
		server = starRailServers[first]
	default:
		return "", fmt.Errorf("%w: no server table for %s", ErrGameNotSupported, game)
	}
	if server == "" {
		return "", fmt.Errorf("player id %d is not associated with any server", playerID)
	}
	return server, nil
}

// RecognizeGameBiz resolves the game_biz for a player id by inferring the
// region from the uid shard.
func RecognizeGameBiz(playerID int64, game Game) (string, error) {
	server, err := RecognizeServer(playerID, game)
	if err != nil {
		return "", err
	}
	region := RegionOverseas
	if strings.HasPrefix(server, "cn_") || strings.HasPrefix(server, "prod_gf") || strings.HasPrefix(server, "prod_qd") {
		region = RegionChinese
	}
	return GameBiz(region, game)
}
