//
// Created on 2023/4/3 by khanghh
// Project: github.com/verichains/calltrace
// Copyright (c) 2023 Verichains Lab
//

package trace

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
)

// CallKind is the kind of message call a trace node was created for.
type CallKind uint8

const (
	KindCall CallKind = iota
	KindStaticCall
	KindCallCode
	KindDelegateCall
	KindCreate
	KindCreate2
)

var callKindNames = map[CallKind]string{
	KindCall:         "CALL",
	KindStaticCall:   "STATICCALL",
	KindCallCode:     "CALLCODE",
	KindDelegateCall: "DELEGATECALL",
	KindCreate:       "CREATE",
	KindCreate2:      "CREATE2",
}

func (k CallKind) String() string {
	if name, ok := callKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("CallKind(%d)", uint8(k))
}

// IsCreate reports whether the kind deploys a contract.
func (k CallKind) IsCreate() bool {
	return k == KindCreate || k == KindCreate2
}

// CallType returns the parity callType tag, empty for creations.
func (k CallKind) CallType() string {
	switch k {
	case KindCall:
		return "call"
	case KindStaticCall:
		return "staticcall"
	case KindCallCode:
		return "callcode"
	case KindDelegateCall:
		return "delegatecall"
	}
	return ""
}

func (k CallKind) MarshalText() ([]byte, error) {
	name, ok := callKindNames[k]
	if !ok {
		return nil, fmt.Errorf("invalid call kind %d", uint8(k))
	}
	return []byte(name), nil
}

func (k *CallKind) UnmarshalText(text []byte) error {
	for kind, name := range callKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("invalid call kind %q", text)
}

// KindFromOpCode maps a call-family opcode to its CallKind.
func KindFromOpCode(op vm.OpCode) (CallKind, bool) {
	switch op {
	case vm.CALL:
		return KindCall, true
	case vm.STATICCALL:
		return KindStaticCall, true
	case vm.CALLCODE:
		return KindCallCode, true
	case vm.DELEGATECALL:
		return KindDelegateCall, true
	case vm.CREATE:
		return KindCreate, true
	case vm.CREATE2:
		return KindCreate2, true
	}
	return KindCall, false
}

// Status is the return code the VM finished a call frame with.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusStop
	StatusReturn
	StatusSelfDestruct
	StatusRevert
	StatusOutOfGas
	StatusInvalidJump
	StatusInvalidOpcode
	StatusStackUnderflow
	StatusStackOverflow
	StatusCallTooDeep
	StatusOutOfFund
	StatusCreateCollision
	StatusCodeSizeLimit
	StatusWriteProtection
	StatusReturnDataOutOfBounds
	StatusNonceOverflow
	StatusPrecompileError
)

var statusNames = map[Status]string{
	StatusUnknown:               "Unknown",
	StatusStop:                  "Stop",
	StatusReturn:                "Return",
	StatusSelfDestruct:          "SelfDestruct",
	StatusRevert:                "Revert",
	StatusOutOfGas:              "OutOfGas",
	StatusInvalidJump:           "InvalidJump",
	StatusInvalidOpcode:         "InvalidOpcode",
	StatusStackUnderflow:        "StackUnderflow",
	StatusStackOverflow:         "StackOverflow",
	StatusCallTooDeep:           "CallTooDeep",
	StatusOutOfFund:             "OutOfFund",
	StatusCreateCollision:       "CreateCollision",
	StatusCodeSizeLimit:         "CodeSizeLimit",
	StatusWriteProtection:       "WriteProtection",
	StatusReturnDataOutOfBounds: "ReturnDataOutOfBounds",
	StatusNonceOverflow:         "NonceOverflow",
	StatusPrecompileError:       "PrecompileError",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// IsOk reports whether the frame halted normally.
func (s Status) IsOk() bool {
	return s == StatusStop || s == StatusReturn || s == StatusSelfDestruct
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("invalid status %q", text)
}

// StatusFromError maps an error returned by the geth interpreter to a Status.
// Errors outside the interpreter's own set map to StatusUnknown.
func StatusFromError(err error) Status {
	var (
		underflow *vm.ErrStackUnderflow
		overflow  *vm.ErrStackOverflow
		invalidOp *vm.ErrInvalidOpCode
	)
	switch {
	case err == nil:
		return StatusReturn
	case errors.Is(err, vm.ErrExecutionReverted):
		return StatusRevert
	case errors.Is(err, vm.ErrOutOfGas), errors.Is(err, vm.ErrCodeStoreOutOfGas), errors.Is(err, vm.ErrGasUintOverflow):
		return StatusOutOfGas
	case errors.Is(err, vm.ErrInvalidJump):
		return StatusInvalidJump
	case errors.As(err, &invalidOp), errors.Is(err, vm.ErrInvalidCode):
		return StatusInvalidOpcode
	case errors.As(err, &underflow):
		return StatusStackUnderflow
	case errors.As(err, &overflow):
		return StatusStackOverflow
	case errors.Is(err, vm.ErrDepth):
		return StatusCallTooDeep
	case errors.Is(err, vm.ErrInsufficientBalance):
		return StatusOutOfFund
	case errors.Is(err, vm.ErrContractAddressCollision):
		return StatusCreateCollision
	case errors.Is(err, vm.ErrMaxCodeSizeExceeded), errors.Is(err, vm.ErrMaxInitCodeSizeExceeded):
		return StatusCodeSizeLimit
	case errors.Is(err, vm.ErrWriteProtection):
		return StatusWriteProtection
	case errors.Is(err, vm.ErrReturnDataOutOfBounds):
		return StatusReturnDataOutOfBounds
	case errors.Is(err, vm.ErrNonceUintOverflow):
		return StatusNonceOverflow
	}
	return StatusUnknown
}

// RawOrDecoded holds a payload recorded by the VM together with its decoded
// form once a decode pass succeeded. The transition is one-way: a decoded
// value is never replaced. The recorded bytes are kept after decoding so
// exporters always see the original payload.
type RawOrDecoded[T any] struct {
	raw     []byte
	decoded *T
}

func newRaw[T any](data []byte) RawOrDecoded[T] {
	return RawOrDecoded[T]{raw: data}
}

// IsRaw reports whether the payload has not been decoded yet.
func (r RawOrDecoded[T]) IsRaw() bool {
	return r.decoded == nil
}

// Bytes returns the payload as recorded by the VM.
func (r RawOrDecoded[T]) Bytes() []byte {
	return r.raw
}

// Decoded returns the decoded value if any.
func (r RawOrDecoded[T]) Decoded() (T, bool) {
	if r.decoded == nil {
		var zero T
		return zero, false
	}
	return *r.decoded, true
}

func (r *RawOrDecoded[T]) setDecoded(v T) {
	if r.decoded == nil {
		r.decoded = &v
	}
}

// DecodedCall is the labeled form of a call's input.
type DecodedCall struct {
	Name      string   `json:"name"`
	Signature string   `json:"signature"`
	Args      []string `json:"args"`
}

type (
	CallData   = RawOrDecoded[DecodedCall]
	ReturnData = RawOrDecoded[string]
)

// RawCall wraps recorded call input.
func RawCall(data []byte) CallData { return newRaw[DecodedCall](data) }

// RawReturn wraps recorded return data.
func RawReturn(data []byte) ReturnData { return newRaw[string](data) }

// LogParam is one labeled event argument.
type LogParam struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// DecodedLog is the labeled form of an emitted log.
type DecodedLog struct {
	Name   string     `json:"name"`
	Params []LogParam `json:"params"`
}

// RawLog is a log as emitted by the VM.
type RawLog struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

// LogEntry is a log emitted inside a call frame, raw until decoded.
type LogEntry struct {
	raw     RawLog
	decoded *DecodedLog
}

func NewLogEntry(addr common.Address, topics []common.Hash, data []byte) LogEntry {
	return LogEntry{raw: RawLog{Address: addr, Topics: topics, Data: data}}
}

func (l LogEntry) IsRaw() bool { return l.decoded == nil }

func (l LogEntry) Raw() RawLog { return l.raw }

func (l LogEntry) Topic0() (common.Hash, bool) {
	if len(l.raw.Topics) == 0 {
		return common.Hash{}, false
	}
	return l.raw.Topics[0], true
}

func (l LogEntry) Decoded() (DecodedLog, bool) {
	if l.decoded == nil {
		return DecodedLog{}, false
	}
	return *l.decoded, true
}

// OrderKind tags an element of a node's ordering.
type OrderKind uint8

const (
	OrderCall OrderKind = iota
	OrderLog
)

// LogCallOrder records one child call or one log emission, in execution order.
type LogCallOrder struct {
	Kind  OrderKind
	Index int // child node index for OrderCall, log index for OrderLog
}

// StorageSlot is the state of a touched storage slot after a step.
type StorageSlot struct {
	Original common.Hash `json:"original"`
	Present  common.Hash `json:"present"`
}

// CallTraceStep is a snapshot of a single executed instruction.
type CallTraceStep struct {
	PC     uint64
	Op     vm.OpCode
	Stack  []uint256.Int
	Memory []byte
	State  map[common.Hash]StorageSlot
}

// CallTrace is everything recorded for a single call frame.
type CallTrace struct {
	Caller  common.Address
	Address common.Address
	Kind    CallKind
	Value   *big.Int
	GasCost uint64
	Data    CallData
	Output  ReturnData
	Success bool
	Status  Status
	Depth   int
	Label   string // optional display label
	Steps   []CallTraceStep
}
