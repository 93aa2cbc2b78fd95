package protocolerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind enumerates the closed set of failure categories callers can observe.
type Kind int

const (
	// KindProtocol wraps any unrecognized chain revert or hosted-service failure.
	KindProtocol Kind = iota
	KindMarketExpired
	KindMarketExchangeRateBelowOne
	KindMarketProportionTooHigh
	KindInvalidParameters
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindMarketExpired:
		return "MarketExpired"
	case KindMarketExchangeRateBelowOne:
		return "MarketExchangeRateBelowOne"
	case KindMarketProportionTooHigh:
		return "MarketProportionTooHigh"
	case KindInvalidParameters:
		return "InvalidParameters"
	case KindTransport:
		return "TransportError"
	default:
		return "ProtocolError"
	}
}

// Error is a classified protocol failure. Message is human-readable; the
// original failure stays reachable through Unwrap.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New returns a classified error with an explicit kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// revertReasons maps on-chain revert identifiers to their classification.
// Matching is substring-based against the raw error message.
var revertReasons = []struct {
	identifier string
	kind       Kind
	message    string
}{
	{"MarketExpired", KindMarketExpired, "Market has expired"},
	{"MarketExchangeRateBelowOne", KindMarketExchangeRateBelowOne, "Market exchange rate is below one"},
	{"MarketProportionTooHigh", KindMarketProportionTooHigh, "Market proportion is too high"},
	{"MarketZeroAmountsInput", KindInvalidParameters, "Zero amounts provided for input"},
	{"MarketZeroAmountsOutput", KindInvalidParameters, "Zero amounts provided for output"},
}

// Classify maps a raw failure to exactly one classified error. A nil input
// returns nil; everything else produces a non-nil *Error, never a silent pass.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	if classified, ok := err.(*Error); ok {
		return classified
	}
	msg := err.Error()
	for _, reason := range revertReasons {
		if strings.Contains(msg, reason.identifier) {
			return Wrap(reason.kind, reason.message, err)
		}
	}
	return Wrap(KindProtocol, msg, err)
}

// ClassifyHTTP maps a hosted-service response to a classified error. Bodies
// carrying a known revert identifier classify to the named kind; anything
// else on a non-2xx status is a transport failure.
func ClassifyHTTP(status int, body []byte) *Error {
	msg := strings.TrimSpace(string(body))
	for _, reason := range revertReasons {
		if strings.Contains(msg, reason.identifier) {
			return New(reason.kind, reason.message)
		}
	}
	if len(msg) > 256 {
		msg = msg[:256]
	}
	if msg == "" {
		return New(KindTransport, fmt.Sprintf("hosted service returned status %d", status))
	}
	return New(KindTransport, fmt.Sprintf("hosted service returned status %d: %s", status, msg))
}

// IsKind reports whether err is a classified error of the given kind.
func IsKind(err error, kind Kind) bool {
	var classified *Error
	return errors.As(err, &classified) && classified.Kind == kind
}
