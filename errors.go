package hoyokit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// =============================================================================
// Transport errors
// =============================================================================

// ErrNetwork is the base classification for transport-level failures. These
// never imply credential invalidity and are safe to retry with backoff.
var ErrNetwork = errors.New("network error")

// ErrTimedOut marks a request that exceeded its deadline. It is a network
// error (errors.Is(err, ErrNetwork) holds), kept distinct so callers can
// retry timeouts more aggressively than other transport failures.
var ErrTimedOut = fmt.Errorf("%w: timed out", ErrNetwork)

// timeoutErrorPatterns contains transport error substrings that indicate a
// timeout rather than a generic connection failure.
var timeoutErrorPatterns = []string{
	"i/o timeout",
	"context deadline exceeded",
	"TLS handshake timeout",
	"timeout awaiting response",
}

// classifyTransportError maps a raw transport error onto the ErrTimedOut /
// ErrNetwork taxonomy.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimedOut, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimedOut, err)
	}
	for _, pattern := range timeoutErrorPatterns {
		if strings.Contains(err.Error(), pattern) {
			return fmt.Errorf("%w: %v", ErrTimedOut, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

// =============================================================================
// Capability errors
// =============================================================================

// ErrNotSupported marks a static capability mismatch: the endpoint does not
// exist (HTTP 404) or is not exposed for the client's configuration.
var ErrNotSupported = errors.New("not supported")

// ErrRegionNotSupported is raised when an operation is called from a client
// whose region does not expose it.
var ErrRegionNotSupported = fmt.Errorf("%w: region", ErrNotSupported)

// ErrGameNotSupported is raised when an endpoint has no URL for the client's
// game.
var ErrGameNotSupported = fmt.Errorf("%w: game", ErrNotSupported)

// ErrMissingCredential indicates caller misuse: an exchange operation was
// invoked without a credential it requires, before any request was sent.
var ErrMissingCredential = errors.New("missing credential")

func missingCredential(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingCredential, name)
}

// =============================================================================
// Domain errors (non-zero retcode in the response envelope)
// =============================================================================

// Sentinel kinds refining BadRequest. Callers match them with errors.Is.
var (
	ErrInternalDatabase    = errors.New("internal database error")
	ErrAccountNotFound     = errors.New("account not found")
	ErrDataNotPublic       = errors.New("user's data is not public")
	ErrInvalidCookies      = errors.New("cookies are not valid")
	ErrTooManyRequests     = errors.New("too many requests")
	ErrVisitsTooFrequently = errors.New("visits too frequently")
	ErrAlreadyClaimed      = errors.New("already claimed the daily reward today")
	ErrNeedChallenge       = errors.New("a verification challenge is required")

	ErrAuthkey        = errors.New("authkey error")
	ErrInvalidAuthkey = fmt.Errorf("%w: authkey is not valid", ErrAuthkey)
	ErrAuthkeyTimeout = fmt.Errorf("%w: authkey has timed out", ErrAuthkey)

	ErrRedemption         = errors.New("redemption error")
	ErrRedemptionInvalid  = fmt.Errorf("%w: invalid redemption code", ErrRedemption)
	ErrRedemptionCooldown = fmt.Errorf("%w: redemption is on cooldown", ErrRedemption)
	ErrRedemptionClaimed  = fmt.Errorf("%w: redemption code has been claimed already", ErrRedemption)
)

// BadRequest is the base domain error for any response the platform rejected.
// RetCode carries the platform's error code, StatusCode the HTTP status (0
// when the failure was signalled inside a 2xx envelope). Kind, when set,
// classifies the failure with one of the sentinel errors above and is exposed
// through Unwrap so errors.Is matches the subtype.
type BadRequest struct {
	StatusCode int
	RetCode    int
	Message    string
	Kind       error
}

func (e *BadRequest) Error() string {
	code := e.RetCode
	if code == 0 {
		code = e.StatusCode
	}
	if code != 0 {
		return fmt.Sprintf("[%d] %s", code, e.Message)
	}
	return e.Message
}

func (e *BadRequest) Unwrap() error { return e.Kind }

// retcodeEntry maps a platform retcode to a sentinel kind and, optionally, a
// clearer message than the one the server sends.
type retcodeEntry struct {
	kind    error
	message string
}

var retcodeTable = map[int]retcodeEntry{
	// misc hoyolab
	-100: {kind: ErrInvalidCookies},
	-108: {message: "Invalid language."},
	-110: {kind: ErrVisitsTooFrequently},
	// game record
	10001:  {kind: ErrInvalidCookies},
	-10001: {message: "Malformed request."},
	-10002: {message: "No game account associated with cookies."},
	// database game record
	10101: {kind: ErrTooManyRequests, message: "Cannot get data for more than 30 accounts per cookie per day."},
	10102: {kind: ErrDataNotPublic},
	10103: {kind: ErrInvalidCookies, message: "Cookies are valid but do not have a hoyolab account bound to them."},
	10104: {message: "Cannot view real-time notes of other users."},
	// verification
	1034:  {kind: ErrNeedChallenge},
	10035: {kind: ErrNeedChallenge},
	// calculator
	-500001: {message: "Invalid fields in calculation."},
	-500004: {kind: ErrVisitsTooFrequently},
	-502001: {message: "User does not have this character."},
	-502002: {message: "Calculator sync is not enabled."},
	// mixin
	-1:   {kind: ErrInternalDatabase},
	1009: {kind: ErrAccountNotFound},
	// redemption
	-1065: {kind: ErrRedemptionInvalid},
	-1071: {kind: ErrInvalidCookies},
	-1073: {kind: ErrAccountNotFound, message: "Account has no game account bound to it."},
	-2001: {kind: ErrRedemptionInvalid, message: "Redemption code has expired."},
	-2003: {kind: ErrRedemptionInvalid, message: "Redemption code is incorrectly formatted."},
	-2004: {kind: ErrRedemptionInvalid},
	-2014: {kind: ErrRedemptionInvalid, message: "Redemption code not activated."},
	-2016: {kind: ErrRedemptionCooldown},
	-2017: {kind: ErrRedemptionClaimed},
	-2018: {kind: ErrRedemptionClaimed},
	-2021: {kind: ErrRedemption, message: "Cannot claim codes for accounts with adventure rank lower than 10."},
	// rewards
	-5003: {kind: ErrAlreadyClaimed},
	// chinese
	1008:  {kind: ErrAccountNotFound},
	-1104: {message: "This action must be done in the app."},
}

// retcodeError resolves a non-zero envelope retcode to a typed error. The
// authkey message prefix takes precedence over the static table: the platform
// reuses -100/-101 for both cookie and authkey failures and disambiguates
// only through the message text.
func retcodeError(statusCode, retCode int, message string) error {
	e := &BadRequest{StatusCode: statusCode, RetCode: retCode, Message: message}

	if strings.HasPrefix(message, "authkey") {
		switch {
		case strings.Contains(message, "expired") || strings.Contains(message, "timed out") || retCode == -101:
			e.Kind = ErrAuthkeyTimeout
		case retCode == -100:
			e.Kind = ErrInvalidAuthkey
		default:
			e.Kind = ErrAuthkey
		}
		return e
	}

	if entry, ok := retcodeTable[retCode]; ok {
		e.Kind = entry.kind
		if entry.message != "" {
			e.Message = entry.message
		}
		return e
	}

	if strings.Contains(message, "redemption") {
		e.Kind = ErrRedemption
	}
	return e
}

// GeetestChallengeError carries the parameters of a geetest challenge the
// platform demands before it will accept the request. Solving the challenge
// is out of band; errors.Is(err, ErrNeedChallenge) holds.
type GeetestChallengeError struct {
	GT        string
	Challenge string
}

func (e *GeetestChallengeError) Error() string {
	return fmt.Sprintf("geetest challenge triggered (gt=%s)", e.GT)
}

func (e *GeetestChallengeError) Unwrap() error { return ErrNeedChallenge }
