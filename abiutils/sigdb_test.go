package abiutils

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSignatures = `{
	"4bytes": {
		"a9059cbb": [
			"transfer(address,uint256) returns (bool)",
			"transfer(address,uint256)"
		],
		"18160ddd": "totalSupply() returns (uint256)"
	},
	"events": {
		"ddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef": "Transfer(address indexed from, address indexed to, uint256 value)"
	},
	"interfaces": {
		"IERC20": [
			"approve(address spender, uint256 amount) returns (bool)",
			{"type": "event", "name": "Approval", "inputs": [
				{"name": "owner", "type": "address", "indexed": true},
				{"name": "spender", "type": "address", "indexed": true},
				{"name": "value", "type": "uint256"}
			]},
			{"type": "error", "name": "InsufficientAllowance", "inputs": [
				{"name": "needed", "type": "uint256"}
			]}
		]
	},
	"labels": {
		"0xdAC17F958D2ee523a2206206994597C13D831ec7": "USDT"
	}
}`

func TestSignatureDB(t *testing.T) {
	sigdb, err := NewSignatureDB(rawdb.NewMemoryDatabase(), 16)
	require.NoError(t, err)
	assert.Empty(t, sigdb.Methods(HexToMethodId("a9059cbb")))

	require.NoError(t, sigdb.Import(strings.NewReader(testSignatures), false))

	transfers := sigdb.Methods(HexToMethodId("a9059cbb"))
	require.Len(t, transfers, 1, "duplicated signatures are merged")
	assert.Equal(t, "transfer(address,uint256)", transfers[0].Sig)
	assert.Len(t, transfers[0].Outputs, 1)

	approves := sigdb.Methods(HexToMethodId("095ea7b3"))
	require.Len(t, approves, 1)
	assert.Equal(t, "approve", approves[0].Name)

	events := sigdb.Events(common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"))
	require.Len(t, events, 1)
	assert.Equal(t, "Transfer", events[0].Name)
	assert.True(t, events[0].Inputs[0].Indexed)

	approval := sigdb.Events(common.HexToHash("0x8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925"))
	require.Len(t, approval, 1)
	assert.Equal(t, "Approval", approval[0].Name)

	errs := sigdb.Errors()
	assert.Contains(t, errs.Errors, "InsufficientAllowance")

	label, ok := sigdb.Label(common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"))
	assert.True(t, ok)
	assert.Equal(t, "USDT", label)
	_, ok = sigdb.Label(common.HexToAddress("0x01"))
	assert.False(t, ok)
	assert.Len(t, sigdb.Labels(), 1)

	_, ok = sigdb.Interface("IERC20")
	assert.True(t, ok)
}

func TestSignatureDBMerge(t *testing.T) {
	sigdb, err := NewSignatureDB(rawdb.NewMemoryDatabase(), 0)
	require.NoError(t, err)
	require.NoError(t, sigdb.Import(strings.NewReader(`{"4bytes": {"a9059cbb": "transfer(address,uint256)"}}`), false))
	require.Len(t, sigdb.Methods(HexToMethodId("a9059cbb")), 1)

	// re-importing a known signature keeps a single entry
	require.NoError(t, sigdb.Import(strings.NewReader(`{"4bytes": {"a9059cbb": "transfer(address,uint256)"}, "labels": {}}`), false))
	require.Len(t, sigdb.Methods(HexToMethodId("a9059cbb")), 1)

	// mismatched selectors are dropped on lookup
	require.NoError(t, sigdb.Import(strings.NewReader(`{"4bytes": {"a9059cbb": "approve(address,uint256)"}}`), true))
	assert.Empty(t, sigdb.Methods(HexToMethodId("a9059cbb")))
}
