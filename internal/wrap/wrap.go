package wrap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Type classifies a token pair as a deterministic wrap conversion or a
// regular market trade.
type Type int

const (
	None Type = iota
	Wrap
	Unwrap
)

func (t Type) String() string {
	switch t {
	case Wrap:
		return "wrap"
	case Unwrap:
		return "unwrap"
	default:
		return "none"
	}
}

// ConversionOracle supplies exchange rates for rebasing wrappers whose
// conversion is not 1:1 (wstETH style). Amounts are integer base units.
type ConversionOracle interface {
	// WrapOutput returns the wrapper amount minted for an underlying amount.
	WrapOutput(ctx context.Context, wrapper common.Address, amount *big.Int) (*big.Int, error)
	// UnwrapOutput returns the underlying amount redeemed for a wrapper amount.
	UnwrapOutput(ctx context.Context, wrapper common.Address, amount *big.Int) (*big.Int, error)
}

// Classifier decides whether a pair is a wrap, an unwrap, or a market trade.
// A wrap-classified pair must never be sent to the routing oracle.
type Classifier struct {
	native        common.Address
	wrappedNative common.Address

	// wrapper -> underlying, for rebasing wrappers with an oracle rate
	rebasing map[common.Address]common.Address
	oracle   ConversionOracle
}

func NewClassifier(native, wrappedNative common.Address, oracle ConversionOracle) *Classifier {
	return &Classifier{
		native:        native,
		wrappedNative: wrappedNative,
		rebasing:      make(map[common.Address]common.Address),
		oracle:        oracle,
	}
}

// RegisterRebasing adds a wrapper/underlying pair whose conversion rate comes
// from the oracle rather than being 1:1.
func (c *Classifier) RegisterRebasing(wrapper, underlying common.Address) {
	c.rebasing[wrapper] = underlying
}

// Classify returns the wrap relationship between tokenIn and tokenOut.
func (c *Classifier) Classify(tokenIn, tokenOut common.Address) Type {
	if tokenIn == c.native && tokenOut == c.wrappedNative {
		return Wrap
	}
	if tokenIn == c.wrappedNative && tokenOut == c.native {
		return Unwrap
	}
	if underlying, ok := c.rebasing[tokenOut]; ok && tokenIn == underlying {
		return Wrap
	}
	if underlying, ok := c.rebasing[tokenIn]; ok && tokenOut == underlying {
		return Unwrap
	}
	return None
}

// Wrapper returns the wrapper token address for a classified pair: the out
// token when wrapping, the in token when unwrapping.
func (c *Classifier) Wrapper(tokenIn, tokenOut common.Address, t Type) common.Address {
	if t == Wrap {
		return tokenOut
	}
	return tokenIn
}

// Output computes the deterministic counter-amount for a wrap conversion.
// Native wraps are 1:1; rebasing wrappers go through the conversion oracle.
func (c *Classifier) Output(ctx context.Context, wrapper common.Address, t Type, amount *big.Int) (*big.Int, error) {
	if t == None {
		return nil, fmt.Errorf("pair is not a wrap conversion")
	}
	if wrapper == c.wrappedNative {
		return new(big.Int).Set(amount), nil
	}
	if _, ok := c.rebasing[wrapper]; ok {
		if c.oracle == nil {
			return nil, fmt.Errorf("no conversion oracle for wrapper %s", wrapper.Hex())
		}
		if t == Wrap {
			return c.oracle.WrapOutput(ctx, wrapper, amount)
		}
		return c.oracle.UnwrapOutput(ctx, wrapper, amount)
	}
	return nil, fmt.Errorf("unknown wrapper %s", wrapper.Hex())
}
