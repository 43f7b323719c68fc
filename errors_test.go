package hoyokit

import (
	"errors"
	"testing"
)

func TestRetcodeErrorTable(t *testing.T) {
	tests := []struct {
		retcode int
		message string
		want    error
	}{
		{10102, "x", ErrDataNotPublic},
		{-100, "something", ErrInvalidCookies},
		{10101, "x", ErrTooManyRequests},
		{-110, "x", ErrVisitsTooFrequently},
		{-5003, "x", ErrAlreadyClaimed},
		{1034, "x", ErrNeedChallenge},
		{-2017, "x", ErrRedemptionClaimed},
		{-2017, "x", ErrRedemption},
		{1009, "x", ErrAccountNotFound},
	}
	for _, tt := range tests {
		err := retcodeError(0, tt.retcode, tt.message)
		if !errors.Is(err, tt.want) {
			t.Errorf("retcode %d: got %v, want match for %v", tt.retcode, err, tt.want)
		}
	}
}

func TestRateLimitIsNotACookieFailure(t *testing.T) {
	err := retcodeError(0, 10101, "x")
	if !errors.Is(err, ErrTooManyRequests) {
		t.Fatalf("got %v, want TooManyRequests", err)
	}
	if errors.Is(err, ErrInvalidCookies) {
		t.Error("rate limiting must not be mistaken for invalid cookies; it is retryable after backoff")
	}
}

func TestRetcodeErrorAuthkeyPrecedence(t *testing.T) {
	err := retcodeError(0, -100, "authkey expired")
	if !errors.Is(err, ErrAuthkeyTimeout) {
		t.Errorf("got %v, want AuthkeyTimeout for expired authkey", err)
	}
	if errors.Is(err, ErrInvalidCookies) {
		t.Error("authkey prefix must take precedence over the -100 cookie mapping")
	}

	err = retcodeError(0, -100, "authkey error")
	if !errors.Is(err, ErrInvalidAuthkey) {
		t.Errorf("got %v, want InvalidAuthkey for -100", err)
	}
	err = retcodeError(0, -101, "authkey problem")
	if !errors.Is(err, ErrAuthkeyTimeout) {
		t.Errorf("got %v, want AuthkeyTimeout for -101", err)
	}
	if !errors.Is(err, ErrAuthkey) {
		t.Error("authkey subtypes must match the authkey base")
	}
}

func TestRetcodeErrorUnknownCode(t *testing.T) {
	err := retcodeError(0, -9999, "mystery")
	var br *BadRequest
	if !errors.As(err, &br) {
		t.Fatalf("got %T, want *BadRequest", err)
	}
	if br.RetCode != -9999 {
		t.Errorf("RetCode = %d", br.RetCode)
	}
	if br.Kind != nil {
		t.Errorf("unknown code should carry no kind, got %v", br.Kind)
	}
}

func TestRetcodeErrorRedemptionSubstring(t *testing.T) {
	err := retcodeError(0, -9999, "redemption is closed")
	if !errors.Is(err, ErrRedemption) {
		t.Errorf("got %v, want redemption kind from message substring", err)
	}
}

func TestBadRequestMessage(t *testing.T) {
	err := &BadRequest{RetCode: 10102, Message: "not public"}
	if got := err.Error(); got != "[10102] not public" {
		t.Errorf("Error = %q", got)
	}
	err = &BadRequest{StatusCode: 502, Message: "bad gateway"}
	if got := err.Error(); got != "[502] bad gateway" {
		t.Errorf("Error = %q", got)
	}
}

func TestClassifyTransportError(t *testing.T) {
	err := classifyTransportError(errors.New("dial tcp: i/o timeout"))
	if !errors.Is(err, ErrTimedOut) {
		t.Errorf("got %v, want TimedOut", err)
	}
	if !errors.Is(err, ErrNetwork) {
		t.Error("TimedOut must also match the network base")
	}

	err = classifyTransportError(errors.New("connection refused"))
	if errors.Is(err, ErrTimedOut) {
		t.Errorf("got %v, want plain network error", err)
	}
	if !errors.Is(err, ErrNetwork) {
		t.Error("transport failures must match the network base")
	}
}

func TestGeetestChallengeError(t *testing.T) {
	var err error = &GeetestChallengeError{GT: "gt", Challenge: "ch"}
	if !errors.Is(err, ErrNeedChallenge) {
		t.Error("geetest error must match NeedChallenge")
	}
}
