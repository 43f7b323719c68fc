package hoyokit

import (
	"context"
	"errors"
	"strings"
	"testing"

	http "github.com/bogdanfinn/fhttp"
)

func TestGetRewardInfoMergesActID(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{envelopeResponse(0, "OK",
		`{"is_sign":true,"total_sign_day":7}`)}}
	c := testClient(t, RegionOverseas, doer, WithGame(GameGenshin))

	info, err := c.GetRewardInfo(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.SignedIn || info.ClaimedRewards != 7 {
		t.Errorf("info = %+v", info)
	}

	req := doer.requests[0]
	query := req.URL.Query()
	if query.Get("act_id") == "" {
		t.Errorf("act_id missing from query %q", req.URL.RawQuery)
	}
	if query.Get("lang") != "en-us" {
		t.Errorf("lang = %q", query.Get("lang"))
	}
	if strings.Contains(req.URL.Path, "?") {
		t.Errorf("path %q still carries the embedded query", req.URL.Path)
	}
}

func TestGetRewardInfoRequiresGame(t *testing.T) {
	c := testClient(t, RegionOverseas, &fakeDoer{})
	if _, err := c.GetRewardInfo(context.Background()); !errors.Is(err, ErrGameNotSupported) {
		t.Errorf("got %v, want GameNotSupported", err)
	}
}

func TestClaimDailyRewardAlreadyClaimed(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{envelopeResponse(-5003, "already claimed", "")}}
	c := testClient(t, RegionOverseas, doer, WithGame(GameGenshin))

	_, err := c.ClaimDailyReward(context.Background(), "", "")
	if !errors.Is(err, ErrAlreadyClaimed) {
		t.Errorf("got %v, want AlreadyClaimed", err)
	}
}

func TestClaimDailyRewardGeetestOverseas(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{envelopeResponse(0, "OK",
		`{"gt_result":{"success":1,"gt":"g1","challenge":"c1"}}`)}}
	c := testClient(t, RegionOverseas, doer, WithGame(GameGenshin))

	_, err := c.ClaimDailyReward(context.Background(), "", "")
	if !errors.Is(err, ErrNeedChallenge) {
		t.Fatalf("got %v, want NeedChallenge", err)
	}
	var gee *GeetestChallengeError
	if !errors.As(err, &gee) || gee.GT != "g1" || gee.Challenge != "c1" {
		t.Errorf("challenge params not carried: %+v", gee)
	}
}

func TestClaimDailyRewardChineseRequiresPlayerID(t *testing.T) {
	c := testClient(t, RegionChinese, &fakeDoer{}, WithGame(GameGenshin))
	_, err := c.ClaimDailyReward(context.Background(), "", "")
	if !errors.Is(err, ErrMissingCredential) {
		t.Errorf("got %v, want MissingCredential for the uid decoration", err)
	}
}

func TestClaimDailyRewardReplaysSolvedChallenge(t *testing.T) {
	doer := &fakeDoer{handler: func(req *http.Request) *http.Response {
		switch {
		case strings.HasSuffix(req.URL.Path, "/sign"):
			return envelopeResponse(0, "OK", `{"success":0}`)
		case strings.HasSuffix(req.URL.Path, "/info"):
			return envelopeResponse(0, "OK", `{"is_sign":true,"total_sign_day":1}`)
		default:
			return envelopeResponse(0, "OK", `{"awards":[{"name":"Primogem","cnt":20,"icon":""}]}`)
		}
	}}
	c := testClient(t, RegionOverseas, doer, WithGame(GameGenshin))

	reward, err := c.ClaimDailyReward(context.Background(), "ch", "val")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reward.Name != "Primogem" || reward.Amount != 20 {
		t.Errorf("reward = %+v", reward)
	}

	sign := doer.requests[0]
	if got := sign.Header["x-rpc-challenge"]; len(got) != 1 || got[0] != "ch" {
		t.Errorf("x-rpc-challenge = %v", got)
	}
	if got := sign.Header["x-rpc-validate"]; len(got) != 1 || got[0] != "val" {
		t.Errorf("x-rpc-validate = %v", got)
	}
	if got := sign.Header["x-rpc-seccode"]; len(got) != 1 || got[0] != "val|jordan" {
		t.Errorf("x-rpc-seccode = %v", got)
	}
	for key := range sign.Header {
		if key != strings.ToLower(key) && key != "DS" {
			t.Errorf("header key %q is not lowercase", key)
		}
	}
}

func TestClaimedRewardsLimit(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{envelopeResponse(0, "OK",
		`{"list":[{"id":1,"name":"a","cnt":1},{"id":2,"name":"b","cnt":1},{"id":3,"name":"c","cnt":1}]}`)}}
	c := testClient(t, RegionOverseas, doer, WithGame(GameGenshin))

	items, err := c.ClaimedRewards(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 || items[1].Name != "b" {
		t.Errorf("items = %+v", items)
	}
}
