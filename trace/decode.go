package trace

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/verichains/calltrace/abiutils"
)

// PrecompileLabel is the display label of calls into precompiled contracts.
const PrecompileLabel = "PRECOMPILE"

const selectorLen = 4

// inputDecoder decodes call arguments (selector stripped) against fn, ok is
// false if the strategy does not apply or failed.
type inputDecoder func(n *CallTraceNode, fn *abi.Method, args []byte, labels map[common.Address]string, errs *abi.ABI) ([]string, bool)

// outputDecoder decodes the return data of a call into its display form.
type outputDecoder func(n *CallTraceNode, funcs []abi.Method, labels map[common.Address]string, errs *abi.ABI) (string, bool)

// strategies in priority order
var (
	inputDecoders  = []inputDecoder{decodeCheatInputs, decodeGenericInputs}
	outputDecoders = []outputDecoder{decodeCandidateOutputs, decodeRevertOutput}
)

// DecodeFunction decodes the call data and return data of the node against
// candidate functions sharing the call's selector. The first candidate gives
// the name, signature and argument types, every candidate's outputs are tried
// in order. Decoding is best effort: failures leave data raw or arguments
// empty. It panics if funcs is empty.
func (n *CallTraceNode) DecodeFunction(funcs []abi.Method, labels map[common.Address]string, errs *abi.ABI) {
	if len(funcs) == 0 {
		panic("trace: DecodeFunction called without candidate functions")
	}
	if !n.Trace.Data.IsRaw() {
		return
	}
	fn := &funcs[0]
	args := []string{}
	if input := n.Trace.Data.Bytes(); len(input) >= selectorLen {
		for _, decode := range inputDecoders {
			if decoded, ok := decode(n, fn, input[selectorLen:], labels, errs); ok {
				args = decoded
				break
			}
		}
	}
	n.Trace.Data.setDecoded(DecodedCall{
		Name:      fn.Name,
		Signature: fn.Sig,
		Args:      args,
	})

	if !n.Trace.Output.IsRaw() {
		return
	}
	for _, decode := range outputDecoders {
		if decoded, ok := decode(n, funcs, labels, errs); ok {
			n.Trace.Output.setDecoded(decoded)
			return
		}
	}
}

func decodeGenericInputs(_ *CallTraceNode, fn *abi.Method, args []byte, labels map[common.Address]string, _ *abi.ABI) ([]string, bool) {
	values, err := fn.Inputs.Unpack(args)
	if err != nil {
		return nil, false
	}
	return abiutils.LabelValues(fn.Inputs, values, labels), true
}

// decodeCandidateOutputs accepts the first candidate whose outputs decode into
// a non-empty value list.
func decodeCandidateOutputs(n *CallTraceNode, funcs []abi.Method, labels map[common.Address]string, _ *abi.ABI) (string, bool) {
	output := n.Trace.Output.Bytes()
	if !n.Trace.Success || len(output) == 0 {
		return "", false
	}
	for i := range funcs {
		values, err := funcs[i].Outputs.Unpack(output)
		if err != nil || len(values) == 0 {
			continue
		}
		return strings.Join(abiutils.LabelValues(funcs[i].Outputs, values, labels), ", "), true
	}
	return "", false
}

// decodeRevertOutput renders the revert reason of failed calls. Return data
// of a successful call is never read as a reason.
func decodeRevertOutput(n *CallTraceNode, _ []abi.Method, _ map[common.Address]string, errs *abi.ABI) (string, bool) {
	if n.Trace.Success && len(n.Trace.Output.Bytes()) > 0 {
		return "", false
	}
	reason, ok := revertReason(n.Trace.Output.Bytes(), n.Trace.Status, errs)
	if !ok {
		return "", false
	}
	return `"` + reason + `"`, true
}

func revertReason(output []byte, status Status, errs *abi.ABI) (string, bool) {
	if len(output) < selectorLen && !status.IsOk() {
		return fmt.Sprintf("EvmError: %s", status), true
	}
	reason, err := abiutils.DecodeRevert(output, errs)
	if err != nil {
		return "", false
	}
	return reason, true
}

// DecodePrecompile decodes a call into a precompiled contract against its
// positional function definition fn. Inputs carry no selector, undecodable
// data is rendered as hex.
func (n *CallTraceNode) DecodePrecompile(fn abi.Method, labels map[common.Address]string) {
	if !n.Trace.Data.IsRaw() {
		return
	}
	n.Trace.Label = PrecompileLabel

	input := n.Trace.Data.Bytes()
	args := []string{common.Bytes2Hex(input)}
	if values, err := fn.Inputs.Unpack(input); err == nil {
		args = abiutils.LabelValues(fn.Inputs, values, labels)
	}
	n.Trace.Data.setDecoded(DecodedCall{
		Name:      fn.Name,
		Signature: fn.Sig,
		Args:      args,
	})

	if !n.Trace.Output.IsRaw() {
		return
	}
	output := n.Trace.Output.Bytes()
	decoded := common.Bytes2Hex(output)
	if values, err := fn.Outputs.Unpack(output); err == nil {
		decoded = strings.Join(abiutils.LabelValues(fn.Outputs, values, labels), ", ")
	}
	n.Trace.Output.setDecoded(decoded)
}

// DecodeLog decodes log i of the node against candidate events sharing its
// first topic. The first event whose indexed and non-indexed arguments unpack
// from the topics and data wins. Failures leave the log raw.
func (n *CallTraceNode) DecodeLog(i int, events []abi.Event, labels map[common.Address]string) {
	if i < 0 || i >= len(n.Logs) || !n.Logs[i].IsRaw() {
		return
	}
	raw := n.Logs[i].Raw()
	for j := range events {
		params, ok := unpackEvent(&events[j], raw, labels)
		if !ok {
			continue
		}
		n.Logs[i].decoded = &DecodedLog{Name: events[j].Name, Params: params}
		return
	}
}

func unpackEvent(event *abi.Event, raw RawLog, labels map[common.Address]string) ([]LogParam, bool) {
	topics := raw.Topics
	if !event.Anonymous {
		if len(topics) == 0 || topics[0] != event.ID {
			return nil, false
		}
		topics = topics[1:]
	}
	var indexed int
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed++
		}
	}
	if indexed != len(topics) {
		return nil, false
	}
	nonIndexed := event.Inputs.NonIndexed()
	values, err := nonIndexed.Unpack(raw.Data)
	if err != nil || len(values) != len(nonIndexed) {
		return nil, false
	}

	params := make([]LogParam, 0, len(event.Inputs))
	var topicIdx, dataIdx int
	for _, arg := range event.Inputs {
		var value string
		if arg.Indexed {
			topic := topics[topicIdx]
			topicIdx++
			var ok bool
			if value, ok = labelTopic(arg.Type, topic, labels); !ok {
				return nil, false
			}
		} else {
			value = abiutils.Label(arg.Type, values[dataIdx], labels)
			dataIdx++
		}
		params = append(params, LogParam{Name: arg.Name, Value: value})
	}
	return params, true
}

// labelTopic renders an indexed argument. Dynamic and composite values are
// stored as their keccak hash and are shown as such.
func labelTopic(typ abi.Type, topic common.Hash, labels map[common.Address]string) (string, bool) {
	switch typ.T {
	case abi.StringTy, abi.BytesTy, abi.SliceTy, abi.ArrayTy, abi.TupleTy:
		return topic.Hex(), true
	}
	values, err := abi.Arguments{{Type: typ}}.Unpack(topic.Bytes())
	if err != nil || len(values) != 1 {
		return "", false
	}
	return abiutils.Label(typ, values[0], labels), true
}
