package decoder

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verichains/calltrace/abiutils"
	"github.com/verichains/calltrace/trace"
)

const tokenABI = `[
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"event","name":"Transfer","inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256"}]},
	{"type":"error","name":"InsufficientBalance","inputs":[{"name":"available","type":"uint256"}]}
]`

const testSignatures = `{
	"4bytes": {
		"095ea7b3": "approve(address spender, uint256 amount) returns (bool)"
	},
	"labels": {
		"0xdAC17F958D2ee523a2206206994597C13D831ec7": "USDT"
	}
}`

var (
	alice = common.HexToAddress("0xA73BC58956dC002Ab777452aa0b60d37B4f6d637")
	token = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	vault = common.HexToAddress("0x64108bbDe14CC327EBba159e1937A9791Ce0e8a9")
)

func mustMethod(t *testing.T, sig string) abi.Method {
	elem, err := abiutils.ParseMethodSig(sig)
	require.NoError(t, err)
	return elem.Method()
}

func pack(t *testing.T, fn abi.Method, args ...interface{}) []byte {
	data, err := fn.Inputs.Pack(args...)
	require.NoError(t, err)
	return append(common.CopyBytes(fn.ID), data...)
}

func newTestDecoder(t *testing.T) *CallTraceDecoder {
	sigdb, err := abiutils.NewSignatureDB(rawdb.NewMemoryDatabase(), 16)
	require.NoError(t, err)
	require.NoError(t, sigdb.Import(strings.NewReader(testSignatures), false))

	dec, err := NewCallTraceDecoder(&Config{Workers: 2, Precompiles: true}, sigdb)
	require.NoError(t, err)
	t.Cleanup(dec.Close)

	contract, err := abi.JSON(strings.NewReader(tokenABI))
	require.NoError(t, err)
	dec.AddABI(contract)
	dec.AddLabel(vault, "Vault")
	return dec
}

func push(t *testing.T, arena *trace.CallTraceArena, parent int, to common.Address, kind trace.CallKind, input, output []byte, success bool) int {
	status := trace.StatusReturn
	if !success {
		status = trace.StatusRevert
	}
	idx, err := arena.Push(parent, trace.CallTrace{
		Caller:  alice,
		Address: to,
		Kind:    kind,
		Value:   new(big.Int),
		Data:    trace.RawCall(input),
		Output:  trace.RawReturn(output),
		Success: success,
		Status:  status,
	})
	require.NoError(t, err)
	return idx
}

func TestDecode(t *testing.T) {
	dec := newTestDecoder(t)
	transfer := mustMethod(t, "transfer(address,uint256)")
	approve := mustMethod(t, "approve(address,uint256)")
	insufficient, err := abiutils.ParseErrorSig("InsufficientBalance(uint256)")
	require.NoError(t, err)
	transferTopic := common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

	arena := trace.NewArena()
	output := make([]byte, 32)
	output[31] = 1
	root := push(t, arena, trace.NoParent, token, trace.KindCall, pack(t, transfer, vault, big.NewInt(100)), output, true)
	require.NoError(t, arena.AddLog(root, trace.NewLogEntry(token,
		[]common.Hash{transferTopic, common.BytesToHash(alice.Bytes()), common.BytesToHash(vault.Bytes())},
		output)))
	approveIdx := push(t, arena, root, token, trace.KindCall, pack(t, approve, vault, big.NewInt(1)), output, true)
	revertData := pack(t, insufficient.Method(), big.NewInt(7))
	revertIdx := push(t, arena, root, vault, trace.KindCall, pack(t, transfer, alice, big.NewInt(1)), revertData, false)
	shaIdx := push(t, arena, root, common.BytesToAddress([]byte{0x02}), trace.KindStaticCall, []byte("abc"), common.FromHex("0xba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"), true)
	unknownIdx := push(t, arena, root, vault, trace.KindCall, []byte{0xde, 0xad, 0xbe, 0xef}, nil, true)
	createIdx := push(t, arena, root, vault, trace.KindCreate, pack(t, transfer, alice, big.NewInt(1)), nil, true)

	dec.Decode(arena)

	node := arena.Root()
	call, ok := node.Trace.Data.Decoded()
	require.True(t, ok)
	assert.Equal(t, "transfer", call.Name)
	assert.Equal(t, []string{"Vault (" + vault.Hex() + ")", "100"}, call.Args)
	assert.Equal(t, "USDT", node.Trace.Label)
	ret, _ := node.Trace.Output.Decoded()
	assert.Equal(t, "true", ret)
	logged, ok := node.Logs[0].Decoded()
	require.True(t, ok)
	assert.Equal(t, "Transfer", logged.Name)
	assert.Equal(t, "1", logged.Params[2].Value)

	node, _ = arena.Node(approveIdx)
	call, _ = node.Trace.Data.Decoded()
	assert.Equal(t, "approve(address,uint256)", call.Signature)

	node, _ = arena.Node(revertIdx)
	assert.Equal(t, "Vault", node.Trace.Label)
	ret, ok = node.Trace.Output.Decoded()
	require.True(t, ok)
	assert.Equal(t, `"InsufficientBalance(7)"`, ret)

	node, _ = arena.Node(shaIdx)
	assert.Equal(t, trace.PrecompileLabel, node.Trace.Label)
	call, _ = node.Trace.Data.Decoded()
	assert.Equal(t, "sha256", call.Name)

	node, _ = arena.Node(unknownIdx)
	assert.True(t, node.Trace.Data.IsRaw())
	assert.True(t, node.Trace.Output.IsRaw())

	node, _ = arena.Node(createIdx)
	assert.True(t, node.Trace.Data.IsRaw())
}

func TestCandidateOrder(t *testing.T) {
	dec := newTestDecoder(t)
	local := mustMethod(t, "approve(address,uint256) returns (uint256)")
	dec.AddFunction(local)
	dec.AddFunction(local)

	funcs := dec.Functions(abiutils.HexToMethodId("095ea7b3"))
	require.Len(t, funcs, 2)
	assert.Equal(t, abi.UintTy, funcs[0].Outputs[0].Type.T, "local definitions come first")
	assert.Equal(t, abi.BoolTy, funcs[1].Outputs[0].Type.T)

	assert.Empty(t, dec.Functions(abiutils.HexToMethodId("ffffffff")))
	labels := dec.Labels()
	assert.Equal(t, CheatcodeLabel, labels[trace.CheatcodeAddress])
	assert.Equal(t, "USDT", labels[token])
	dec.AddLabel(token, "Tether")
	assert.Equal(t, "Tether", dec.Labels()[token])
	assert.Contains(t, dec.Errors().Errors, "InsufficientBalance")
}

func TestDecodeAfterClose(t *testing.T) {
	dec, err := NewCallTraceDecoder(&Config{Workers: 0}, nil)
	require.NoError(t, err)
	transfer := mustMethod(t, "transfer(address,uint256)")
	dec.AddFunction(transfer)
	dec.Close()

	arena := trace.NewArena()
	push(t, arena, trace.NoParent, token, trace.KindCall, pack(t, transfer, vault, big.NewInt(1)), nil, true)
	dec.Decode(arena)
	assert.False(t, arena.Root().Trace.Data.IsRaw())
}
