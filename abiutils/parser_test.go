package abiutils

import (
	"encoding/json"
	"testing"

	"github.com/status-im/keycard-go/hexutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethodSig(t *testing.T) {
	tests := []struct {
		sig        string
		identifier string
		selector   string
		numOutputs int
	}{
		{"totalSupply() returns(uint256)", "totalSupply()", "18160ddd", 1},
		{"transfer(address,uint256)", "transfer(address,uint256)", "a9059cbb", 0},
		{"transfer(address to, uint amount) returns (bool)", "transfer(address,uint256)", "a9059cbb", 1},
		{"function balanceOf(address owner) returns (uint256 balance)", "balanceOf(address)", "70a08231", 1},
		{"sign(uint256 privateKey, bytes32 digest) returns (uint8 v, bytes32 r, bytes32 s)", "sign(uint256,bytes32)", "e341eaa4", 3},
	}
	for _, test := range tests {
		elem, err := ParseMethodSig(test.sig)
		require.NoError(t, err, test.sig)
		assert.Equal(t, "function", elem.Type)
		assert.Equal(t, test.identifier, elem.Identifier())
		assert.Equal(t, HexToMethodId(test.selector), elem.Selector())
		assert.Len(t, elem.Outputs, test.numOutputs)
	}
}

func TestParseEventSig(t *testing.T) {
	elem, err := ParseEventSig("Transfer(address indexed from, address indexed to, uint256 value)")
	require.NoError(t, err)
	assert.Equal(t, "event", elem.Type)
	assert.Equal(t, "Transfer(address,address,uint256)", elem.Identifier())
	assert.Equal(t, "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef", elem.Topic().Hex())
	require.Len(t, elem.Inputs, 3)
	assert.True(t, elem.Inputs[0].Indexed)
	assert.Equal(t, "from", elem.Inputs[0].Name)
	assert.False(t, elem.Inputs[2].Indexed)
}

func TestParseInvalidSig(t *testing.T) {
	for _, sig := range []string{"", "transfer", "transfer(address,", "transfer(foo)", "transfer(address,,uint256)"} {
		_, err := ParseMethodSig(sig)
		assert.ErrorIs(t, err, ErrInvalidSignature, sig)
	}
}

func TestABIElementMarshalJSON(t *testing.T) {
	abiEntryStr := `{
		"inputs": [
			{"internalType": "address", "name": "from", "type": "address"},
			{"internalType": "address", "name": "to", "type": "address"},
			{"internalType": "uint256", "name": "value", "type": "uint256"}
		],
		"name": "transferFrom",
		"outputs": [
			{"internalType": "bool", "name": "", "type": "bool"}
		],
		"stateMutability": "nonpayable",
		"type": "function"
	}`
	entry := ABIElement{}
	require.NoError(t, json.Unmarshal([]byte(abiEntryStr), &entry))
	assert.Equal(t, "transferFrom(address,address,uint256)", entry.Identifier())

	data, err := json.Marshal(entry)
	require.NoError(t, err)
	decoded := ABIElement{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, entry.Identifier(), decoded.Identifier())
	assert.Equal(t, entry.StateMutability, decoded.StateMutability)
	require.Len(t, decoded.Outputs, 1)
	assert.Equal(t, "bool", decoded.Outputs[0].Type.String())
}

func TestABIElementTupleMarshalJSON(t *testing.T) {
	abiEntryStr := `{
		"type": "function",
		"name": "submit",
		"inputs": [{
			"name": "order",
			"type": "tuple",
			"components": [
				{"name": "maker", "type": "address"},
				{"name": "amounts", "type": "uint256[]"}
			]
		}]
	}`
	entry := ABIElement{}
	require.NoError(t, json.Unmarshal([]byte(abiEntryStr), &entry))
	assert.Equal(t, "submit((address,uint256[]))", entry.Identifier())

	data, err := json.Marshal(entry)
	require.NoError(t, err)
	decoded := ABIElement{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, entry.Identifier(), decoded.Identifier())
}

func TestAbiListUnmarshalJSON(t *testing.T) {
	testData := `{
		"18160ddd": "totalSupply() returns(uint256)",
		"a9059cbb": "transfer(address,uint256)",
		"23b872dd": [
			"transferFrom(address,address,uint256)",
			{
				"constant": false,
				"inputs": [
					{"name": "_from", "type": "address"},
					{"name": "_to", "type": "address"},
					{"name": "_value", "type": "uint256"}
				],
				"name": "transferFrom",
				"outputs": [{"name": "", "type": "bool"}],
				"payable": false,
				"type": "function"
			}
		]
	}`
	abis := map[string]ABIElements{}
	require.NoError(t, json.Unmarshal([]byte(testData), &abis))
	require.Len(t, abis["18160ddd"], 1)
	require.Len(t, abis["a9059cbb"], 1)
	require.Len(t, abis["23b872dd"], 2)
	for id, list := range abis {
		for _, elem := range list {
			assert.Equal(t, HexToMethodId(id), elem.Selector())
		}
	}
	assert.Equal(t, "nonpayable", abis["23b872dd"][1].StateMutability)
}

func TestMethodIdText(t *testing.T) {
	id := MethodId{}
	require.NoError(t, id.UnmarshalText([]byte("0xA9059CBB")))
	assert.Equal(t, "a9059cbb", id.String())
	assert.Error(t, id.UnmarshalText([]byte("a9059c")))

	sel, ok := BytesToMethodId(hexutils.HexToBytes("a9059cbb00"))
	assert.True(t, ok)
	assert.Equal(t, id, sel)
	_, ok = BytesToMethodId([]byte{0xa9})
	assert.False(t, ok)
}
