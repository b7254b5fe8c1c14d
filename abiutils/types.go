package abiutils

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/status-im/keycard-go/hexutils"
)

type MethodId [4]byte

func (id MethodId) String() string {
	return strings.ToLower(hexutils.BytesToHex(id[:]))
}

func (id MethodId) Bytes() []byte {
	return id[:]
}

func (id MethodId) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *MethodId) UnmarshalText(text []byte) error {
	val, err := hex.DecodeString(strings.TrimPrefix(string(text), "0x"))
	if err != nil || len(val) != len(id) {
		return fmt.Errorf("invalid method id %q", text)
	}
	copy(id[:], val)
	return nil
}

func HexToMethodId(s string) MethodId {
	id := MethodId{}
	copy(id[:], hexutils.HexToBytes(strings.TrimPrefix(s, "0x")))
	return id
}

// BytesToMethodId returns the selector of call data, ok is false if data is shorter than 4 bytes.
func BytesToMethodId(data []byte) (MethodId, bool) {
	id := MethodId{}
	if len(data) < len(id) {
		return id, false
	}
	copy(id[:], data[:4])
	return id, true
}

func sigToID(sig string) MethodId {
	id := MethodId{}
	copy(id[:], crypto.Keccak256([]byte(sig))[:4])
	return id
}

// ABIElement is a single json abi entry: a function, an event or an error.
type ABIElement struct {
	Type    string
	Name    string
	Inputs  abi.Arguments
	Outputs abi.Arguments

	// Status indicator which can be: "pure", "view",
	// "nonpayable" or "payable".
	StateMutability string

	// Event relevant indicator represents the event is
	// declared as anonymous.
	Anonymous bool
}

// Identifier returns the canonical signature, e.g. transfer(address,uint256)
func (e ABIElement) Identifier() string {
	types := make([]string, len(e.Inputs))
	for i, arg := range e.Inputs {
		types[i] = arg.Type.String()
	}
	return fmt.Sprintf("%v(%v)", e.Name, strings.Join(types, ","))
}

func (e ABIElement) Selector() MethodId {
	return sigToID(e.Identifier())
}

func (e ABIElement) Topic() common.Hash {
	return crypto.Keccak256Hash([]byte(e.Identifier()))
}

func (e ABIElement) Method() abi.Method {
	return abi.NewMethod(e.Name, e.Name, abi.Function, e.StateMutability, false, e.StateMutability == "payable", e.Inputs, e.Outputs)
}

func (e ABIElement) Event() abi.Event {
	return abi.NewEvent(e.Name, e.Name, e.Anonymous, e.Inputs)
}

func (e ABIElement) Error() abi.Error {
	return abi.NewError(e.Name, e.Inputs)
}

type abiElementMarshaling struct {
	Type            string               `json:"type"`
	Name            string               `json:"name"`
	Inputs          []argumentMarshaling `json:"inputs,omitempty"`
	Outputs         []argumentMarshaling `json:"outputs,omitempty"`
	StateMutability string               `json:"stateMutability,omitempty"`
	Anonymous       bool                 `json:"anonymous,omitempty"`
}

type argumentMarshaling struct {
	Name         string               `json:"name"`
	Type         string               `json:"type"`
	InternalType string               `json:"internalType,omitempty"`
	Components   []argumentMarshaling `json:"components,omitempty"`
	Indexed      bool                 `json:"indexed,omitempty"`
}

// marshalType splits a type into its json type string and tuple components.
func marshalType(t abi.Type) (string, []argumentMarshaling) {
	switch t.T {
	case abi.TupleTy:
		comps := make([]argumentMarshaling, len(t.TupleElems))
		for i, elem := range t.TupleElems {
			typ, sub := marshalType(*elem)
			comps[i] = argumentMarshaling{Name: t.TupleRawNames[i], Type: typ, Components: sub}
		}
		return "tuple", comps
	case abi.SliceTy:
		typ, sub := marshalType(*t.Elem)
		return typ + "[]", sub
	case abi.ArrayTy:
		typ, sub := marshalType(*t.Elem)
		return fmt.Sprintf("%s[%d]", typ, t.Size), sub
	}
	return t.String(), nil
}

func marshalArguments(args abi.Arguments) []argumentMarshaling {
	ret := make([]argumentMarshaling, 0, len(args))
	for _, arg := range args {
		typ, comps := marshalType(arg.Type)
		ret = append(ret, argumentMarshaling{
			Name:       arg.Name,
			Type:       typ,
			Components: comps,
			Indexed:    arg.Indexed,
		})
	}
	return ret
}

func (e ABIElement) MarshalJSON() ([]byte, error) {
	return json.Marshal(abiElementMarshaling{
		Type:            e.Type,
		Name:            e.Name,
		Inputs:          marshalArguments(e.Inputs),
		Outputs:         marshalArguments(e.Outputs),
		StateMutability: e.StateMutability,
		Anonymous:       e.Anonymous,
	})
}

func (e *ABIElement) UnmarshalJSON(data []byte) error {
	var dec struct {
		Type            string        `json:"type"`
		Name            string        `json:"name"`
		Inputs          abi.Arguments `json:"inputs"`
		Outputs         abi.Arguments `json:"outputs"`
		StateMutability string        `json:"stateMutability"`
		Constant        bool          `json:"constant"`
		Payable         bool          `json:"payable"`
		Anonymous       bool          `json:"anonymous"`
	}
	if err := json.Unmarshal(data, &dec); err != nil {
		return err
	}
	if dec.Type == "" {
		dec.Type = "function"
	}
	// legacy abi without stateMutability
	if dec.Type == "function" && dec.StateMutability == "" {
		switch {
		case dec.Constant:
			dec.StateMutability = "view"
		case dec.Payable:
			dec.StateMutability = "payable"
		default:
			dec.StateMutability = "nonpayable"
		}
	}
	*e = ABIElement{
		Type:            dec.Type,
		Name:            dec.Name,
		Inputs:          dec.Inputs,
		Outputs:         dec.Outputs,
		StateMutability: dec.StateMutability,
		Anonymous:       dec.Anonymous,
	}
	return nil
}

// Interface is a named set of abi elements, e.g. IERC20
type Interface struct {
	abi.ABI
	Name string
}

func NewInterface(name string, elems []ABIElement) (Interface, error) {
	methods := make(map[string]abi.Method)
	events := make(map[string]abi.Event)
	errors := make(map[string]abi.Error)
	for _, elem := range elems {
		switch elem.Type {
		case "function", "":
			methods[elem.Name] = elem.Method()
		case "event":
			events[elem.Name] = elem.Event()
		case "error":
			errors[elem.Name] = elem.Error()
		case "constructor", "fallback", "receive":
			continue
		default:
			return Interface{}, fmt.Errorf("invalid abi entry type: %v", elem.Type)
		}
	}
	return Interface{
		ABI: abi.ABI{
			Methods: methods,
			Events:  events,
			Errors:  errors,
		},
		Name: name,
	}, nil
}
