package abiutils

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newType(t *testing.T, typ string, components []abi.ArgumentMarshaling) abi.Type {
	abiType, err := abi.NewType(typ, "", components)
	require.NoError(t, err)
	return abiType
}

func TestLabel(t *testing.T) {
	usdt := common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	other := common.HexToAddress("0x64108bbDe14CC327EBba159e1937A9791Ce0e8a9")
	labels := map[common.Address]string{usdt: "USDT"}

	orderType := newType(t, "tuple", []abi.ArgumentMarshaling{
		{Name: "maker", Type: "address"},
		{Name: "amount", Type: "uint256"},
	})
	type order struct {
		Maker  common.Address
		Amount *big.Int
	}

	tests := []struct {
		typ      abi.Type
		value    interface{}
		expected string
	}{
		{newType(t, "address", nil), usdt, "USDT (0xdAC17F958D2ee523a2206206994597C13D831ec7)"},
		{newType(t, "address", nil), other, "0x64108bbDe14CC327EBba159e1937A9791Ce0e8a9"},
		{newType(t, "uint256", nil), big.NewInt(1000000000000000000), "1000000000000000000"},
		{newType(t, "uint8", nil), uint8(27), "27"},
		{newType(t, "int256", nil), big.NewInt(-5), "-5"},
		{newType(t, "bool", nil), true, "true"},
		{newType(t, "string", nil), "hello", `"hello"`},
		{newType(t, "bytes", nil), []byte{0xde, 0xad}, "0xdead"},
		{newType(t, "bytes4", nil), [4]byte{0xa9, 0x05, 0x9c, 0xbb}, "0xa9059cbb"},
		{newType(t, "address[]", nil), []common.Address{usdt, other}, "[USDT (0xdAC17F958D2ee523a2206206994597C13D831ec7), 0x64108bbDe14CC327EBba159e1937A9791Ce0e8a9]"},
		{newType(t, "uint256[2]", nil), [2]*big.Int{big.NewInt(1), big.NewInt(2)}, "[1, 2]"},
		{orderType, order{Maker: usdt, Amount: big.NewInt(7)}, "(USDT (0xdAC17F958D2ee523a2206206994597C13D831ec7), 7)"},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, Label(test.typ, test.value, labels), test.typ.String())
	}
}

func TestLabelValues(t *testing.T) {
	elem, err := ParseMethodSig("transfer(address to, uint256 amount)")
	require.NoError(t, err)
	to := common.HexToAddress("0xA73BC58956dC002Ab777452aa0b60d37B4f6d637")
	data, err := elem.Inputs.Pack(to, big.NewInt(100))
	require.NoError(t, err)
	values, err := elem.Inputs.Unpack(data)
	require.NoError(t, err)

	labels := map[common.Address]string{to: "alice"}
	assert.Equal(t, []string{"alice (0xA73BC58956dC002Ab777452aa0b60d37B4f6d637)", "100"}, LabelValues(elem.Inputs, values, labels))
	assert.Equal(t, []string{"0xA73BC58956dC002Ab777452aa0b60d37B4f6d637", "100"}, LabelValues(elem.Inputs, values, nil))
}
