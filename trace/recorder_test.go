package trace

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScope struct {
	tracing.OpContext
	stack  []uint256.Int
	memory []byte
}

func (s *fakeScope) StackData() []uint256.Int { return s.stack }
func (s *fakeScope) MemoryData() []byte       { return s.memory }

func TestRecorder(t *testing.T) {
	rec := NewRecorder(&RecorderConfig{RecordSteps: true})
	hooks := rec.Hooks()
	scope := &fakeScope{stack: []uint256.Int{*uint256.NewInt(1)}, memory: []byte{0x01}}
	slot := common.HexToHash("0x05")

	hooks.OnTxStart(nil, nil, alice)
	hooks.OnEnter(0, byte(vm.CALL), alice, token, []byte{0xa9, 0x05, 0x9c, 0xbb}, 100000, big.NewInt(3))
	hooks.OnOpcode(0, byte(vm.PUSH1), 100000, 3, scope, nil, 1, nil)

	hooks.OnEnter(1, byte(vm.STATICCALL), token, vault, nil, 5000, nil)
	hooks.OnOpcode(0, byte(vm.STOP), 5000, 0, scope, nil, 2, nil)
	hooks.OnExit(1, nil, 100, nil, false)

	hooks.OnLog(&types.Log{Address: token, Topics: []common.Hash{{0x01}}, Data: []byte{0x02}})

	hooks.OnEnter(1, byte(vm.CALL), token, alice, nil, 5000, big.NewInt(0))
	hooks.OnExit(1, []byte{0x08, 0xc3, 0x79, 0xa0}, 50, vm.ErrExecutionReverted, true)

	hooks.OnEnter(1, byte(vm.CREATE2), token, vault, []byte{0x60}, 5000, big.NewInt(0))
	hooks.OnOpcode(0, byte(vm.SELFDESTRUCT), 5000, 0, scope, nil, 2, nil)
	hooks.OnEnter(2, byte(vm.SELFDESTRUCT), vault, alice, nil, 0, big.NewInt(0))
	hooks.OnExit(2, nil, 0, nil, false)
	hooks.OnExit(1, nil, 10, nil, false)

	hooks.OnOpcode(10, byte(vm.SSTORE), 90000, 20000, scope, nil, 1, nil)
	hooks.OnStorageChange(token, slot, common.HexToHash("0x01"), common.HexToHash("0x02"))
	hooks.OnStorageChange(token, slot, common.HexToHash("0x02"), common.HexToHash("0x03"))
	hooks.OnOpcode(11, byte(vm.RETURN), 70000, 0, scope, nil, 1, nil)
	hooks.OnExit(0, []byte{0x01}, 30000, nil, false)

	arena := rec.Arena()
	require.Equal(t, 4, arena.Len())
	require.NoError(t, arena.Validate())

	root := arena.Root()
	assert.Equal(t, KindCall, root.Kind())
	assert.Equal(t, StatusReturn, root.Status())
	assert.True(t, root.Trace.Success)
	assert.Equal(t, uint64(30000), root.Trace.GasCost)
	assert.Equal(t, int64(3), root.Trace.Value.Int64())
	assert.Equal(t, []byte{0xa9, 0x05, 0x9c, 0xbb}, root.Trace.Data.Bytes())
	assert.Equal(t, []int{1, 2, 3}, root.Children)
	assert.Equal(t, []LogCallOrder{
		{Kind: OrderCall, Index: 0},
		{Kind: OrderLog, Index: 0},
		{Kind: OrderCall, Index: 1},
		{Kind: OrderCall, Index: 2},
	}, root.Ordering)
	require.Len(t, root.Logs, 1)
	assert.Equal(t, token, root.Logs[0].Raw().Address)

	require.Len(t, root.Trace.Steps, 3)
	sstore := root.Trace.Steps[1]
	assert.Equal(t, vm.SSTORE, sstore.Op)
	assert.Equal(t, StorageSlot{Original: common.HexToHash("0x01"), Present: common.HexToHash("0x03")}, sstore.State[slot])

	static, _ := arena.Node(1)
	assert.Equal(t, KindStaticCall, static.Kind())
	assert.Equal(t, StatusStop, static.Status())
	assert.Equal(t, 1, static.Trace.Depth)

	reverted, _ := arena.Node(2)
	assert.Equal(t, StatusRevert, reverted.Status())
	assert.False(t, reverted.Trace.Success)
	assert.Equal(t, []byte{0x08, 0xc3, 0x79, 0xa0}, reverted.Trace.Output.Bytes())

	created, _ := arena.Node(3)
	assert.Equal(t, KindCreate2, created.Kind())
	assert.Equal(t, StatusSelfDestruct, created.Status())
	assert.True(t, created.Trace.Success)
	assert.Empty(t, created.Children)
}

func TestRecorderWithoutSteps(t *testing.T) {
	rec := NewRecorder(nil)
	hooks := rec.Hooks()
	scope := &fakeScope{}

	hooks.OnEnter(0, byte(vm.CALL), alice, token, nil, 0, nil)
	hooks.OnOpcode(0, byte(vm.STOP), 0, 0, scope, nil, 1, nil)
	hooks.OnStorageChange(token, common.Hash{}, common.Hash{}, common.Hash{0x01})
	hooks.OnExit(0, nil, 0, nil, false)

	root := rec.Arena().Root()
	require.NotNil(t, root)
	assert.Empty(t, root.Trace.Steps)
	assert.Equal(t, StatusStop, root.Status())

	// a second top level call starts a fresh arena
	hooks.OnEnter(0, byte(vm.CALL), alice, vault, nil, 0, nil)
	hooks.OnExit(0, nil, 0, vm.ErrOutOfGas, false)
	assert.Equal(t, 1, rec.Arena().Len())
	assert.Equal(t, vault, rec.Arena().Root().Trace.Address)
	assert.Equal(t, StatusOutOfGas, rec.Arena().Root().Status())
}

func TestRecorderStop(t *testing.T) {
	rec := NewRecorder(nil)
	hooks := rec.Hooks()
	hooks.OnEnter(0, byte(vm.CALL), alice, token, nil, 0, nil)
	rec.Stop()
	hooks.OnEnter(1, byte(vm.CALL), token, vault, nil, 0, nil)
	hooks.OnExit(1, nil, 0, nil, false)
	assert.Equal(t, 1, rec.Arena().Len())

	rec.Reset()
	assert.Equal(t, 0, rec.Arena().Len())
	hooks.OnEnter(0, byte(vm.CALL), alice, token, nil, 0, nil)
	assert.Equal(t, 1, rec.Arena().Len())
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want Status
	}{
		{nil, StatusReturn},
		{vm.ErrExecutionReverted, StatusRevert},
		{vm.ErrOutOfGas, StatusOutOfGas},
		{vm.ErrInvalidJump, StatusInvalidJump},
		{&vm.ErrInvalidOpCode{}, StatusInvalidOpcode},
		{&vm.ErrStackUnderflow{}, StatusStackUnderflow},
		{vm.ErrDepth, StatusCallTooDeep},
		{vm.ErrInsufficientBalance, StatusOutOfFund},
		{vm.ErrWriteProtection, StatusWriteProtection},
		{errors.New("bn256: malformed point"), StatusUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFromError(tt.err), "%v", tt.err)
	}
}

func TestRecorderPrecompileError(t *testing.T) {
	rec := NewRecorder(nil)
	hooks := rec.Hooks()
	failure := errors.New("bn256: malformed point")
	ecpairing := common.BytesToAddress([]byte{0x08})

	hooks.OnEnter(0, byte(vm.STATICCALL), alice, ecpairing, nil, 0, nil)
	hooks.OnExit(0, nil, 0, failure, false)
	assert.Equal(t, StatusPrecompileError, rec.Arena().Root().Status())

	hooks.OnEnter(0, byte(vm.CALL), alice, token, nil, 0, nil)
	hooks.OnExit(0, nil, 0, failure, false)
	assert.Equal(t, StatusUnknown, rec.Arena().Root().Status())
	assert.False(t, rec.Arena().Root().Trace.Success)
}
