package tokens

import (
	"github.com/ethereum/go-ethereum/common"
)

// Token describes a resolved ERC-20 token. Instances are immutable once
// resolved; resolution itself (token lists, on-chain lookups) happens outside
// this core.
type Token struct {
	Address  common.Address
	Decimals uint8
	Symbol   string
}

// Resolver maps a token address to its metadata.
type Resolver interface {
	Lookup(addr common.Address) (Token, bool)
}

// MapResolver is a static in-memory Resolver.
type MapResolver map[common.Address]Token

func (m MapResolver) Lookup(addr common.Address) (Token, bool) {
	t, ok := m[addr]
	return t, ok
}

// NewMapResolver builds a MapResolver keyed by each token's address.
func NewMapResolver(toks ...Token) MapResolver {
	m := make(MapResolver, len(toks))
	for _, t := range toks {
		m[t.Address] = t
	}
	return m
}
