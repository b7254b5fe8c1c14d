package trace

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
)

type stepMarshaling struct {
	PC     uint64                      `json:"pc"`
	Op     string                      `json:"op"`
	Stack  []string                    `json:"stack,omitempty"`
	Memory hexutil.Bytes               `json:"memory,omitempty"`
	State  map[common.Hash]StorageSlot `json:"state,omitempty"`
}

type logMarshaling struct {
	Address common.Address `json:"address"`
	Topics  []common.Hash  `json:"topics"`
	Data    hexutil.Bytes  `json:"data"`
	Decoded *DecodedLog    `json:"decoded,omitempty"`
}

type orderMarshaling struct {
	Call *int `json:"call,omitempty"`
	Log  *int `json:"log,omitempty"`
}

type traceMarshaling struct {
	Caller        common.Address   `json:"caller"`
	Address       common.Address   `json:"address"`
	Kind          CallKind         `json:"kind"`
	Value         *hexutil.Big     `json:"value,omitempty"`
	GasCost       hexutil.Uint64   `json:"gasCost"`
	Data          hexutil.Bytes    `json:"data"`
	DecodedCall   *DecodedCall     `json:"decodedCall,omitempty"`
	Output        hexutil.Bytes    `json:"output"`
	DecodedOutput *string          `json:"decodedOutput,omitempty"`
	Success       bool             `json:"success"`
	Status        Status           `json:"status"`
	Depth         int              `json:"depth"`
	Label         string           `json:"label,omitempty"`
	Steps         []stepMarshaling `json:"steps,omitempty"`
}

type nodeMarshaling struct {
	Idx      int               `json:"idx"`
	Parent   *int              `json:"parent"`
	Children []int             `json:"children"`
	Trace    traceMarshaling   `json:"trace"`
	Logs     []logMarshaling   `json:"logs"`
	Ordering []orderMarshaling `json:"ordering"`
}

func (n CallTraceNode) MarshalJSON() ([]byte, error) {
	enc := nodeMarshaling{
		Idx:      n.Idx,
		Children: n.Children,
		Logs:     make([]logMarshaling, len(n.Logs)),
		Ordering: make([]orderMarshaling, len(n.Ordering)),
	}
	if enc.Children == nil {
		enc.Children = []int{}
	}
	if n.Parent != NoParent {
		parent := n.Parent
		enc.Parent = &parent
	}
	t := &n.Trace
	enc.Trace = traceMarshaling{
		Caller:  t.Caller,
		Address: t.Address,
		Kind:    t.Kind,
		GasCost: hexutil.Uint64(t.GasCost),
		Data:    t.Data.Bytes(),
		Output:  t.Output.Bytes(),
		Success: t.Success,
		Status:  t.Status,
		Depth:   t.Depth,
		Label:   t.Label,
	}
	if t.Value != nil {
		enc.Trace.Value = (*hexutil.Big)(t.Value)
	}
	if call, ok := t.Data.Decoded(); ok {
		enc.Trace.DecodedCall = &call
	}
	if output, ok := t.Output.Decoded(); ok {
		enc.Trace.DecodedOutput = &output
	}
	for _, step := range t.Steps {
		stack := make([]string, len(step.Stack))
		for i := range step.Stack {
			stack[i] = step.Stack[i].Hex()
		}
		enc.Trace.Steps = append(enc.Trace.Steps, stepMarshaling{
			PC:     step.PC,
			Op:     step.Op.String(),
			Stack:  stack,
			Memory: step.Memory,
			State:  step.State,
		})
	}
	for i, l := range n.Logs {
		enc.Logs[i] = logMarshaling{
			Address: l.raw.Address,
			Topics:  l.raw.Topics,
			Data:    l.raw.Data,
			Decoded: l.decoded,
		}
	}
	for i, item := range n.Ordering {
		index := item.Index
		if item.Kind == OrderLog {
			enc.Ordering[i].Log = &index
		} else {
			enc.Ordering[i].Call = &index
		}
	}
	return json.Marshal(enc)
}

// UnmarshalJSON restores the recorded fields of a node, decoded values are
// dropped and must be recomputed by a decode pass.
func (n *CallTraceNode) UnmarshalJSON(input []byte) error {
	var dec nodeMarshaling
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	node := CallTraceNode{
		Idx:    dec.Idx,
		Parent: NoParent,
	}
	if len(dec.Children) > 0 {
		node.Children = dec.Children
	}
	if len(dec.Logs) > 0 {
		node.Logs = make([]LogEntry, len(dec.Logs))
	}
	if len(dec.Ordering) > 0 {
		node.Ordering = make([]LogCallOrder, len(dec.Ordering))
	}
	if dec.Parent != nil {
		node.Parent = *dec.Parent
	}
	t := dec.Trace
	node.Trace = CallTrace{
		Caller:  t.Caller,
		Address: t.Address,
		Kind:    t.Kind,
		GasCost: uint64(t.GasCost),
		Data:    RawCall(t.Data),
		Output:  RawReturn(t.Output),
		Success: t.Success,
		Status:  t.Status,
		Depth:   t.Depth,
		Label:   t.Label,
	}
	if t.Value != nil {
		node.Trace.Value = new(big.Int).Set((*big.Int)(t.Value))
	}
	for _, step := range t.Steps {
		stack := make([]uint256.Int, len(step.Stack))
		for i, word := range step.Stack {
			val, err := uint256.FromHex(word)
			if err != nil {
				return fmt.Errorf("invalid stack word %q: %w", word, err)
			}
			stack[i] = *val
		}
		node.Trace.Steps = append(node.Trace.Steps, CallTraceStep{
			PC:     step.PC,
			Op:     vm.StringToOp(step.Op),
			Stack:  stack,
			Memory: step.Memory,
			State:  step.State,
		})
	}
	for i, l := range dec.Logs {
		node.Logs[i] = NewLogEntry(l.Address, l.Topics, l.Data)
	}
	for i, item := range dec.Ordering {
		switch {
		case item.Call != nil && item.Log == nil:
			node.Ordering[i] = LogCallOrder{Kind: OrderCall, Index: *item.Call}
		case item.Log != nil && item.Call == nil:
			node.Ordering[i] = LogCallOrder{Kind: OrderLog, Index: *item.Log}
		default:
			return fmt.Errorf("%w: node %d has malformed ordering entry %d", ErrInvalidArena, dec.Idx, i)
		}
	}
	*n = node
	return nil
}

func (a *CallTraceArena) MarshalJSON() ([]byte, error) {
	if a.nodes == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.nodes)
}

// UnmarshalJSON restores an arena and validates its structure.
func (a *CallTraceArena) UnmarshalJSON(input []byte) error {
	var nodes []CallTraceNode
	if err := json.Unmarshal(input, &nodes); err != nil {
		return err
	}
	restored, err := RestoreArena(nodes)
	if err != nil {
		return err
	}
	*a = *restored
	return nil
}
