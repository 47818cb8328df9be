package wrap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// StaticRateOracle is a ConversionOracle with fixed wrapper/underlying rates.
// Rate is expressed as underlying per one wrapper unit (e.g. wstETH -> stETH
// rate 1.12 means unwrapping 1 wstETH yields 1.12 stETH).
type StaticRateOracle struct {
	rates map[common.Address]decimal.Decimal
}

func NewStaticRateOracle() *StaticRateOracle {
	return &StaticRateOracle{rates: make(map[common.Address]decimal.Decimal)}
}

func (o *StaticRateOracle) SetRate(wrapper common.Address, underlyingPerWrapper decimal.Decimal) {
	o.rates[wrapper] = underlyingPerWrapper
}

func (o *StaticRateOracle) WrapOutput(ctx context.Context, wrapper common.Address, amount *big.Int) (*big.Int, error) {
	rate, ok := o.rates[wrapper]
	if !ok || rate.Sign() <= 0 {
		return nil, fmt.Errorf("no rate for wrapper %s", wrapper.Hex())
	}
	out := decimal.NewFromBigInt(amount, 0).Div(rate)
	return out.Truncate(0).BigInt(), nil
}

func (o *StaticRateOracle) UnwrapOutput(ctx context.Context, wrapper common.Address, amount *big.Int) (*big.Int, error) {
	rate, ok := o.rates[wrapper]
	if !ok || rate.Sign() <= 0 {
		return nil, fmt.Errorf("no rate for wrapper %s", wrapper.Hex())
	}
	out := decimal.NewFromBigInt(amount, 0).Mul(rate)
	return out.Truncate(0).BigInt(), nil
}
