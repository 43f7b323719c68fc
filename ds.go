package hoyokit

import (
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"sort"
	"strings"
	"time"
)

// DSType selects the signing variant a request is made as. The platform ties
// each salt to the client surface (web view vs. the Android app) that
// legitimately produces it.
type DSType string

const (
	DSTypeWeb     DSType = "web"
	DSTypeAndroid DSType = "android"
)

// ErrSerialization is returned when a request body cannot be serialized for
// signing.
var ErrSerialization = errors.New("serialization error")

const (
	miyousheVersion = "2.61.1"
	miyousheAppSalt = "uTUzziiV9FazyGA7XgVIk287ZczinFRV"
	miyousheWebSalt = "L6ht0P18usSaC9c5Do3olmygiR4QX389"

	overseasSalt       = "6s25p5ox5y14umn1p61aqyyvbvvl3lrt"
	chineseNewWebSalt  = "xV8v4Qu54lUKrEYFZkJhB8cuOh9Asafs"
	chineseAndroidSalt = "t0qEgfub6cvueAPgR5m9aQWWVciEer7v"
)

// Overridable for deterministic tests.
var (
	dsNow     = time.Now
	dsRandInt = rand.Intn
)

const nonceAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func hexDigest(text string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(text)))
}

// dsParams is the resolved signing configuration for one request.
type dsParams struct {
	salt       string
	appVersion string
	clientType string
	useNew     bool
}

// resolveDS picks the salt, correlated headers and algorithm for a
// (region, variant) pair.
//
// The current ("new") algorithm is used when the caller asks for it, or when
// the region is CHINESE and the variant is the Android one. The source this
// behavior derives from spells the condition in a way that ignores the region
// entirely; the region-qualified reading is the documented intent and is what
// we implement.
func resolveDS(region Region, dsType DSType, newDS bool) (dsParams, error) {
	p := dsParams{
		appVersion: miyousheVersion,
		clientType: "5",
	}
	p.useNew = newDS || (region == RegionChinese && dsType == DSTypeAndroid)

	switch region {
	case RegionOverseas:
		p.salt = overseasSalt
		p.appVersion = "1.5.0"
	case RegionChinese:
		switch dsType {
		case "", DSTypeWeb:
			if p.useNew {
				p.salt = chineseNewWebSalt
			} else {
				p.salt = miyousheWebSalt
			}
		case DSTypeAndroid:
			p.clientType = "2"
			if p.useNew {
				p.salt = miyousheAppSalt
			} else {
				p.salt = chineseAndroidSalt
			}
		default:
			return dsParams{}, fmt.Errorf("unknown ds type: %q", dsType)
		}
	default:
		return dsParams{}, fmt.Errorf("unknown region: %q", region)
	}
	return p, nil
}

// legacySecret computes the legacy DS string for a fixed timestamp and nonce.
// Pure function of its inputs.
func legacySecret(salt string, t int64, nonce string) string {
	hash := hexDigest(fmt.Sprintf("salt=%s&t=%d&r=%s", salt, t, nonce))
	return fmt.Sprintf("%d,%s,%s", t, nonce, hash)
}

// currentSecret computes the current DS string, which additionally signs the
// compact JSON body and the sorted query string.
func currentSecret(salt string, t int64, nonce int, body any, params url.Values) (string, error) {
	b, err := serializeBody(body)
	if err != nil {
		return "", err
	}
	q := sortedQuery(params)
	hash := hexDigest(fmt.Sprintf("salt=%s&t=%d&r=%d&b=%s&q=%s", salt, t, nonce, b, q))
	return fmt.Sprintf("%d,%d,%s", t, nonce, hash), nil
}

func serializeBody(body any) (string, error) {
	if body == nil {
		return "", nil
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return string(raw), nil
}

// sortedQuery renders params as k=v pairs joined with '&', keys sorted
// lexicographically, without URL escaping. The server signs the raw values.
func sortedQuery(params url.Values) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params.Get(k))
	}
	return strings.Join(pairs, "&")
}

func randomNonce(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(nonceAlphabet[dsRandInt(len(nonceAlphabet))])
	}
	return b.String()
}

// GenerateDynamicSecret computes the DS header for a request along with the
// app version and client type the platform expects to see in the correlated
// x-rpc headers. body and params must match what the request will actually
// send; they only affect the current algorithm.
func GenerateDynamicSecret(region Region, dsType DSType, newDS bool, body any, params url.Values) (appVersion, clientType, ds string, err error) {
	p, err := resolveDS(region, dsType, newDS)
	if err != nil {
		return "", "", "", err
	}
	t := dsNow().Unix()
	if p.useNew {
		nonce := 100001 + dsRandInt(100000)
		ds, err = currentSecret(p.salt, t, nonce, body, params)
		if err != nil {
			return "", "", "", err
		}
	} else {
		ds = legacySecret(p.salt, t, randomNonce(6))
	}
	return p.appVersion, p.clientType, ds, nil
}
