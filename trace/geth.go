package trace

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// GethTrace is the struct logger output of debug_traceTransaction.
//
// Gas, and the per-step Gas, GasCost, RefundCounter and Error fields are not
// recorded by the step recorder and are left empty.
type GethTrace struct {
	Failed      bool          `json:"failed"`
	Gas         uint64        `json:"gas"`
	ReturnValue hexutil.Bytes `json:"returnValue"`
	StructLogs  []StructLog   `json:"structLogs"`
}

type StructLog struct {
	Depth         uint64            `json:"depth"`
	Error         *string           `json:"error,omitempty"`
	Gas           uint64            `json:"gas"`
	GasCost       uint64            `json:"gasCost"`
	Memory        *[]string         `json:"memory,omitempty"`
	Op            string            `json:"op"`
	Pc            uint64            `json:"pc"`
	RefundCounter *uint64           `json:"refundCounter,omitempty"`
	Stack         *[]string         `json:"stack,omitempty"`
	Storage       map[string]string `json:"storage"`
}

// GethTrace projects the node's recorded steps into geth struct logs. Every
// log carries the node depth.
func (n *CallTraceNode) GethTrace() GethTrace {
	t := &n.Trace
	logs := make([]StructLog, 0, len(t.Steps))
	for i := range t.Steps {
		step := &t.Steps[i]
		stack := make([]string, len(step.Stack))
		for j := range step.Stack {
			stack[j] = step.Stack[j].Hex()
		}
		memory := memoryWords(step.Memory)
		storage := make(map[string]string, len(step.State))
		for slot, value := range step.State {
			storage[fmt.Sprintf("%x", slot)] = fmt.Sprintf("%x", value.Present)
		}
		logs = append(logs, StructLog{
			Depth:   uint64(t.Depth),
			Op:      step.Op.String(),
			Pc:      step.PC,
			Stack:   &stack,
			Memory:  &memory,
			Storage: storage,
		})
	}
	return GethTrace{
		Failed:      !t.Success,
		ReturnValue: t.Output.Bytes(),
		StructLogs:  logs,
	}
}

// memoryWords splits memory into 32 byte hex words.
func memoryWords(memory []byte) []string {
	words := make([]string, 0, (len(memory)+31)/32)
	for i := 0; i < len(memory); i += 32 {
		end := i + 32
		if end > len(memory) {
			end = len(memory)
		}
		words = append(words, fmt.Sprintf("%x", memory[i:end]))
	}
	return words
}
