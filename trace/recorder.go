//
// Created on 2023/3/13 by khanghh
// Project: github.com/verichains/calltrace
// Copyright (c) 2023 Verichains Lab
//

package trace

import (
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/verichains/calltrace/abiutils"
)

type RecorderConfig struct {
	RecordSteps bool // If true, stack, memory and storage writes are recorded per instruction
}

type openFrame struct {
	idx            int
	lastOp         vm.OpCode
	selfDestructed bool
}

// Recorder builds a call trace arena from the hooks of a single execution.
type Recorder struct {
	cfg       RecorderConfig
	arena     *CallTraceArena
	callstack []openFrame
	skipExits int    // pending exits of selfdestruct pseudo frames
	interrupt uint32 // Atomic flag to stop recording
}

func NewRecorder(cfg *RecorderConfig) *Recorder {
	if cfg == nil {
		cfg = &RecorderConfig{}
	}
	return &Recorder{
		cfg:   *cfg,
		arena: NewArena(),
	}
}

// Hooks returns the live tracing hooks feeding the recorder.
func (r *Recorder) Hooks() *tracing.Hooks {
	return &tracing.Hooks{
		OnTxStart:       r.OnTxStart,
		OnEnter:         r.OnEnter,
		OnExit:          r.OnExit,
		OnOpcode:        r.OnOpcode,
		OnLog:           r.OnLog,
		OnStorageChange: r.OnStorageChange,
	}
}

// Arena returns the recorded arena.
func (r *Recorder) Arena() *CallTraceArena {
	return r.arena
}

func (r *Recorder) Reset() {
	r.arena = NewArena()
	r.callstack = r.callstack[:0]
	r.skipExits = 0
	atomic.StoreUint32(&r.interrupt, 0)
}

// Stop terminates recording at the next hook.
func (r *Recorder) Stop() {
	atomic.StoreUint32(&r.interrupt, 1)
}

func (r *Recorder) stopped() bool {
	return atomic.LoadUint32(&r.interrupt) > 0
}

func (r *Recorder) top() *openFrame {
	if len(r.callstack) == 0 {
		return nil
	}
	return &r.callstack[len(r.callstack)-1]
}

func (r *Recorder) OnTxStart(_ *tracing.VMContext, _ *types.Transaction, _ common.Address) {
	r.Reset()
}

// OnEnter is called when the VM enters a new frame, including the top level one.
func (r *Recorder) OnEnter(depth int, typ byte, from common.Address, to common.Address, input []byte, gas uint64, value *big.Int) {
	if r.stopped() {
		return
	}
	op := vm.OpCode(typ)
	if op == vm.SELFDESTRUCT {
		r.skipExits++
		return
	}
	// a new top level call starts a new arena
	if len(r.callstack) == 0 && r.arena.Len() > 0 {
		r.arena = NewArena()
	}
	kind, ok := KindFromOpCode(op)
	if !ok {
		log.Debug("Unknown call type", "op", op)
	}
	if value != nil {
		value = new(big.Int).Set(value)
	}
	parent := NoParent
	if f := r.top(); f != nil {
		parent = f.idx
	}
	idx, err := r.arena.Push(parent, CallTrace{
		Caller:  from,
		Address: to,
		Kind:    kind,
		Value:   value,
		Data:    RawCall(common.CopyBytes(input)),
		Depth:   depth,
		Status:  StatusUnknown,
	})
	if err != nil {
		log.Error("Failed to record call frame", "depth", depth, "err", err)
		r.Stop()
		return
	}
	r.callstack = append(r.callstack, openFrame{idx: idx})
}

// OnExit is called when the VM leaves a frame, even if it didn't execute any code.
func (r *Recorder) OnExit(depth int, output []byte, gasUsed uint64, err error, reverted bool) {
	if r.stopped() {
		return
	}
	if r.skipExits > 0 {
		r.skipExits--
		return
	}
	f := r.top()
	if f == nil {
		return
	}
	r.callstack = r.callstack[:len(r.callstack)-1]

	node := &r.arena.nodes[f.idx]
	node.Trace.GasCost = gasUsed
	node.Trace.Output = RawReturn(common.CopyBytes(output))
	node.Trace.Success = err == nil && !reverted
	switch {
	case err != nil:
		node.Trace.Status = StatusFromError(err)
		// precompiles fail with their own unexported errors
		if node.Trace.Status == StatusUnknown && abiutils.IsPrecompile(node.Trace.Address) {
			node.Trace.Status = StatusPrecompileError
		}
	case reverted:
		node.Trace.Status = StatusRevert
	case f.selfDestructed:
		node.Trace.Status = StatusSelfDestruct
	case f.lastOp == vm.STOP:
		node.Trace.Status = StatusStop
	default:
		node.Trace.Status = StatusReturn
	}
}

// OnOpcode is called before every instruction.
func (r *Recorder) OnOpcode(pc uint64, op byte, gas, cost uint64, scope tracing.OpContext, rData []byte, depth int, err error) {
	if r.stopped() {
		return
	}
	f := r.top()
	if f == nil {
		return
	}
	f.lastOp = vm.OpCode(op)
	if f.lastOp == vm.SELFDESTRUCT {
		f.selfDestructed = true
	}
	if !r.cfg.RecordSteps {
		return
	}
	stackData := scope.StackData()
	stack := make([]uint256.Int, len(stackData))
	copy(stack, stackData)
	node := &r.arena.nodes[f.idx]
	node.Trace.Steps = append(node.Trace.Steps, CallTraceStep{
		PC:     pc,
		Op:     vm.OpCode(op),
		Stack:  stack,
		Memory: common.CopyBytes(scope.MemoryData()),
	})
}

// OnLog is called for every log emitted by the executing frame.
func (r *Recorder) OnLog(l *types.Log) {
	if r.stopped() {
		return
	}
	f := r.top()
	if f == nil {
		return
	}
	topics := make([]common.Hash, len(l.Topics))
	copy(topics, l.Topics)
	if err := r.arena.AddLog(f.idx, NewLogEntry(l.Address, topics, common.CopyBytes(l.Data))); err != nil {
		log.Error("Failed to record log", "err", err)
	}
}

// OnStorageChange attaches a storage write to the last recorded step.
func (r *Recorder) OnStorageChange(addr common.Address, slot common.Hash, prev, new common.Hash) {
	if r.stopped() || !r.cfg.RecordSteps {
		return
	}
	f := r.top()
	if f == nil {
		return
	}
	steps := r.arena.nodes[f.idx].Trace.Steps
	if len(steps) == 0 {
		return
	}
	step := &steps[len(steps)-1]
	if step.State == nil {
		step.State = make(map[common.Hash]StorageSlot)
	}
	original := prev
	if slotState, ok := step.State[slot]; ok {
		original = slotState.Original
	}
	step.State[slot] = StorageSlot{Original: original, Present: new}
}
