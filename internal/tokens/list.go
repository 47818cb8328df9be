package tokens

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
)

type listEntry struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
}

// LoadList reads a JSON token list into a Resolver. Entries with a malformed
// address are rejected.
func LoadList(path string) (MapResolver, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token list: %w", err)
	}

	var entries []listEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("parse token list: %w", err)
	}

	m := make(MapResolver, len(entries))
	for _, e := range entries {
		if !common.IsHexAddress(e.Address) {
			return nil, fmt.Errorf("token list: bad address %q", e.Address)
		}
		addr := common.HexToAddress(e.Address)
		m[addr] = Token{Address: addr, Decimals: e.Decimals, Symbol: e.Symbol}
	}
	return m, nil
}
