package trading

import (
	"errors"
	"fmt"
)

// Kind classifies a trading failure so callers can render distinct messaging.
// Expected local conditions (empty amounts, unresolved tokens, oracle not
// ready) are absorbed by the engine and never surface as errors.
type Kind int

const (
	// KindRouting covers routing-oracle and network failures during quoting.
	KindRouting Kind = iota
	// KindConversion covers amount parsing and wrap/derivative conversion
	// failures.
	KindConversion
	// KindSubmission covers rejected, reverted or wallet-declined
	// submissions.
	KindSubmission
	// KindSlippageExceeded is a submission failure whose signature shows the
	// realized price moved past the user's tolerance; callers should offer a
	// re-quote instead of a generic error.
	KindSlippageExceeded
	// KindConfirmation covers transactions that were accepted but never
	// confirmed or were mined reverted.
	KindConfirmation
)

func (k Kind) String() string {
	switch k {
	case KindRouting:
		return "routing"
	case KindConversion:
		return "conversion"
	case KindSubmission:
		return "submission"
	case KindSlippageExceeded:
		return "slippage exceeded"
	case KindConfirmation:
		return "confirmation"
	default:
		return "unknown"
	}
}

// Error is a typed trading failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from an error chain.
func KindOf(err error) (Kind, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return 0, false
}
