package trace

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ActionType tags a parity trace action.
type ActionType string

const (
	ActionCall    ActionType = "call"
	ActionCreate  ActionType = "create"
	ActionSuicide ActionType = "suicide"
)

type CallAction struct {
	From     common.Address `json:"from"`
	To       common.Address `json:"to"`
	Value    *hexutil.Big   `json:"value"`
	Gas      hexutil.Uint64 `json:"gas"`
	Input    hexutil.Bytes  `json:"input"`
	CallType string         `json:"callType"`
}

type CreateAction struct {
	From  common.Address `json:"from"`
	Value *hexutil.Big   `json:"value"`
	Gas   hexutil.Uint64 `json:"gas"`
	Init  hexutil.Bytes  `json:"init"`
}

type SuicideAction struct {
	Address       common.Address `json:"address"`
	RefundAddress common.Address `json:"refundAddress"`
	Balance       *hexutil.Big   `json:"balance"`
}

// Action is a parity trace action, exactly one field is set.
type Action struct {
	Call    *CallAction
	Create  *CreateAction
	Suicide *SuicideAction
}

func (a Action) Type() ActionType {
	switch {
	case a.Create != nil:
		return ActionCreate
	case a.Suicide != nil:
		return ActionSuicide
	}
	return ActionCall
}

// MarshalJSON encodes the set variant only, the tag is carried by the
// enclosing trace.
func (a Action) MarshalJSON() ([]byte, error) {
	switch {
	case a.Call != nil:
		return json.Marshal(a.Call)
	case a.Create != nil:
		return json.Marshal(a.Create)
	case a.Suicide != nil:
		return json.Marshal(a.Suicide)
	}
	return []byte("null"), nil
}

type CallResult struct {
	GasUsed hexutil.Uint64 `json:"gasUsed"`
	Output  hexutil.Bytes  `json:"output"`
}

type CreateResult struct {
	GasUsed hexutil.Uint64 `json:"gasUsed"`
	Code    hexutil.Bytes  `json:"code"`
	Address common.Address `json:"address"`
}

// Result is a parity trace result, exactly one field is set.
type Result struct {
	Call   *CallResult
	Create *CreateResult
}

func (r Result) MarshalJSON() ([]byte, error) {
	if r.Create != nil {
		return json.Marshal(r.Create)
	}
	return json.Marshal(r.Call)
}

func hexValue(v *big.Int) *hexutil.Big {
	if v == nil {
		return (*hexutil.Big)(new(big.Int))
	}
	return (*hexutil.Big)(new(big.Int).Set(v))
}

// ParityAction projects the node's call into a parity action. A self-destructed
// frame is always a suicide action; its refund address is not recorded and is
// left as the zero address.
func (n *CallTraceNode) ParityAction() Action {
	t := &n.Trace
	if t.Status == StatusSelfDestruct {
		return Action{Suicide: &SuicideAction{
			Address: t.Address,
			Balance: hexValue(t.Value),
		}}
	}
	if t.Kind.IsCreate() {
		return Action{Create: &CreateAction{
			From:  t.Caller,
			Value: hexValue(t.Value),
			Gas:   hexutil.Uint64(t.GasCost),
			Init:  common.CopyBytes(t.Data.Bytes()),
		}}
	}
	return Action{Call: &CallAction{
		From:     t.Caller,
		To:       t.Address,
		Value:    hexValue(t.Value),
		Gas:      hexutil.Uint64(t.GasCost),
		Input:    common.CopyBytes(t.Data.Bytes()),
		CallType: t.Kind.CallType(),
	}}
}

// ParityResult projects the node's outcome into a parity result, nil for a
// self-destructed frame.
func (n *CallTraceNode) ParityResult() *Result {
	t := &n.Trace
	if t.Status == StatusSelfDestruct {
		return nil
	}
	if t.Kind.IsCreate() {
		return &Result{Create: &CreateResult{
			GasUsed: hexutil.Uint64(t.GasCost),
			Code:    common.CopyBytes(t.Output.Bytes()),
			Address: t.Address,
		}}
	}
	return &Result{Call: &CallResult{
		GasUsed: hexutil.Uint64(t.GasCost),
		Output:  common.CopyBytes(t.Output.Bytes()),
	}}
}

// ParityTrace is one entry of a flat parity trace list.
type ParityTrace struct {
	Type         ActionType `json:"type"`
	Action       Action     `json:"action"`
	Result       *Result    `json:"result"`
	Error        string     `json:"error,omitempty"`
	Subtraces    int        `json:"subtraces"`
	TraceAddress []int      `json:"traceAddress"`
}

// ParityTraces flattens the arena into parity traces in depth first order.
func (a *CallTraceArena) ParityTraces() []ParityTrace {
	if len(a.nodes) == 0 {
		return nil
	}
	out := make([]ParityTrace, 0, len(a.nodes))
	var walk func(idx int, address []int)
	walk = func(idx int, address []int) {
		n := &a.nodes[idx]
		action := n.ParityAction()
		entry := ParityTrace{
			Type:         action.Type(),
			Action:       action,
			Subtraces:    len(n.Children),
			TraceAddress: address,
		}
		if n.Trace.Success {
			entry.Result = n.ParityResult()
		} else {
			entry.Error = n.Trace.Status.String()
		}
		out = append(out, entry)
		for i, child := range n.Children {
			childAddr := make([]int, len(address)+1)
			copy(childAddr, address)
			childAddr[len(address)] = i
			walk(child, childAddr)
		}
	}
	walk(0, []int{})
	return out
}
