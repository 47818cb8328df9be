package tokens

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadList(t *testing.T) {
	path := writeList(t, `[
		{"address": "0x6B175474E89094C44Da98b954EedeAC495271d0F", "decimals": 18, "symbol": "DAI"},
		{"address": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "decimals": 6, "symbol": "USDC"}
	]`)

	list, err := LoadList(path)
	require.NoError(t, err)
	require.Len(t, list, 2)

	tok, ok := list.Lookup(common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"))
	require.True(t, ok)
	assert.Equal(t, "USDC", tok.Symbol)
	assert.Equal(t, uint8(6), tok.Decimals)

	_, ok = list.Lookup(common.HexToAddress("0x0000000000000000000000000000000000000001"))
	assert.False(t, ok)
}

func TestLoadList_BadAddress(t *testing.T) {
	path := writeList(t, `[{"address": "nope", "decimals": 18, "symbol": "X"}]`)
	_, err := LoadList(path)
	assert.Error(t, err)
}

func TestLoadList_Missing(t *testing.T) {
	_, err := LoadList(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
