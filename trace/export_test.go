package trace

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParityAction(t *testing.T) {
	node := newNode(vault, []byte{0x01, 0x02}, []byte{0x03}, true, StatusReturn)
	node.Trace.Value = big.NewInt(7)
	node.Trace.GasCost = 21000
	node.Trace.Kind = KindDelegateCall

	action := node.ParityAction()
	require.NotNil(t, action.Call)
	assert.Equal(t, ActionCall, action.Type())
	assert.Equal(t, "delegatecall", action.Call.CallType)
	assert.Equal(t, alice, action.Call.From)
	assert.Equal(t, vault, action.Call.To)
	assert.Equal(t, int64(7), action.Call.Value.ToInt().Int64())
	assert.Equal(t, uint64(21000), uint64(action.Call.Gas))
	result := node.ParityResult()
	require.NotNil(t, result)
	assert.Equal(t, []byte{0x03}, []byte(result.Call.Output))

	node.Trace.Kind = KindCreate2
	action = node.ParityAction()
	require.NotNil(t, action.Create)
	assert.Equal(t, ActionCreate, action.Type())
	assert.Equal(t, []byte{0x01, 0x02}, []byte(action.Create.Init))
	result = node.ParityResult()
	require.NotNil(t, result.Create)
	assert.Equal(t, vault, result.Create.Address)
	assert.Equal(t, []byte{0x03}, []byte(result.Create.Code))

	// self destructs map to suicide whatever the call kind
	for _, kind := range []CallKind{KindCall, KindCreate, KindStaticCall} {
		node.Trace.Kind = kind
		node.Trace.Status = StatusSelfDestruct
		action = node.ParityAction()
		require.NotNil(t, action.Suicide, kind.String())
		assert.Equal(t, ActionSuicide, action.Type())
		assert.Equal(t, vault, action.Suicide.Address)
		assert.Equal(t, common.Address{}, action.Suicide.RefundAddress)
		assert.Nil(t, node.ParityResult())
	}
}

func TestParityTraces(t *testing.T) {
	arena := buildArena(t)
	failed, _ := arena.Node(2)
	failed.Trace.Success = false
	failed.Trace.Status = StatusRevert

	traces := arena.ParityTraces()
	require.Len(t, traces, 4)
	assert.Equal(t, []int{}, traces[0].TraceAddress)
	assert.Equal(t, 2, traces[0].Subtraces)
	assert.Equal(t, []int{0}, traces[1].TraceAddress)
	assert.Equal(t, []int{0, 0}, traces[2].TraceAddress)
	assert.Equal(t, []int{1}, traces[3].TraceAddress)
	assert.Equal(t, "Revert", traces[2].Error)
	assert.Nil(t, traces[2].Result)
	assert.NotNil(t, traces[1].Result)

	data, err := json.Marshal(traces[2])
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "call", decoded["type"])
	assert.Equal(t, "Revert", decoded["error"])
	assert.Nil(t, decoded["result"])
	action := decoded["action"].(map[string]interface{})
	assert.Equal(t, "call", action["callType"])
	assert.Equal(t, "0x0", action["value"])

	assert.Nil(t, NewArena().ParityTraces())
}

func TestGethTrace(t *testing.T) {
	node := newNode(vault, nil, []byte{0xaa}, false, StatusRevert)
	node.Trace.Depth = 2
	memory := make([]byte, 40)
	memory[31] = 0x80
	memory[39] = 0x01
	slot := common.HexToHash("0x01")
	node.Trace.Steps = []CallTraceStep{
		{PC: 0, Op: vm.PUSH1, Stack: []uint256.Int{}},
		{
			PC:     5,
			Op:     vm.SSTORE,
			Stack:  []uint256.Int{*uint256.NewInt(0x2a), *uint256.NewInt(1)},
			Memory: memory,
			State:  map[common.Hash]StorageSlot{slot: {Present: common.HexToHash("0x2a")}},
		},
	}

	geth := node.GethTrace()
	assert.True(t, geth.Failed)
	assert.Equal(t, []byte{0xaa}, []byte(geth.ReturnValue))
	require.Len(t, geth.StructLogs, 2)

	first := geth.StructLogs[0]
	assert.Equal(t, "PUSH1", first.Op)
	assert.Equal(t, uint64(2), first.Depth)
	assert.Empty(t, *first.Memory)
	assert.Empty(t, first.Storage)

	second := geth.StructLogs[1]
	assert.Equal(t, "SSTORE", second.Op)
	assert.Equal(t, uint64(5), second.Pc)
	assert.Equal(t, []string{"0x2a", "0x1"}, *second.Stack)
	require.Len(t, *second.Memory, 2)
	assert.Equal(t, "0000000000000000000000000000000000000000000000000000000000000080", (*second.Memory)[0])
	assert.Equal(t, "0000000000000001", (*second.Memory)[1])
	assert.Equal(t, map[string]string{
		"0000000000000000000000000000000000000000000000000000000000000001": "000000000000000000000000000000000000000000000000000000000000002a",
	}, second.Storage)
}
