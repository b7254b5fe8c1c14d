package abiutils

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	panicSelector             = sigToID("Panic(uint256)")
	errorSelector             = sigToID("Error(string)")
	expectRevertBytesSelector = sigToID("expectRevert(bytes)")
	expectRevertIdSelector    = sigToID("expectRevert(bytes4)")

	uint256Args = mustArguments("uint256")
	stringArgs  = mustArguments("string")
	bytesArgs   = mustArguments("bytes")
	bytes4Args  = mustArguments("bytes4")
)

// solidity builtin panic codes
var panicReasons = map[uint64]string{
	0x01: "Assertion violated",
	0x11: "Arithmetic over/underflow",
	0x12: "Division or modulo by 0",
	0x21: "Conversion into non-existent enum type",
	0x22: "Incorrectly encoded storage byte array",
	0x31: "`pop()` on empty array",
	0x32: "Index out of bounds",
	0x41: "Out of memory",
	0x51: "Calling a zero-initialized variable of internal function type",
}

func mustArguments(types ...string) abi.Arguments {
	args := make(abi.Arguments, len(types))
	for i, t := range types {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(err)
		}
		args[i] = abi.Argument{Type: typ}
	}
	return args
}

// DecodeRevert decodes revert data returned by a failed call into a human
// readable reason. errs is the set of known custom errors and may be nil.
func DecodeRevert(data []byte, errs *abi.ABI) (string, error) {
	if len(data) < 4 {
		return "", ErrNotEnoughData
	}
	selector, _ := BytesToMethodId(data)
	payload := data[4:]
	switch selector {
	case panicSelector:
		values, err := uint256Args.Unpack(payload)
		if err != nil {
			break
		}
		code := values[0].(*big.Int)
		if code.IsUint64() {
			if reason, ok := panicReasons[code.Uint64()]; ok {
				return reason, nil
			}
		}
		return fmt.Sprintf("Unknown panic code: %#x", code), nil
	case errorSelector:
		if reason, err := abi.UnpackRevert(data); err == nil {
			return reason, nil
		}
	case expectRevertBytesSelector:
		values, err := bytesArgs.Unpack(payload)
		if err != nil {
			break
		}
		if inner := values[0].([]byte); !bytes.Equal(inner, data) {
			if reason, err := DecodeRevert(inner, errs); err == nil {
				return reason, nil
			}
			return hexutil.Encode(inner), nil
		}
	case expectRevertIdSelector:
		values, err := bytes4Args.Unpack(payload)
		if err != nil {
			break
		}
		inner := values[0].([4]byte)
		if reason, ok := decodeCustomError(inner[:], errs); ok {
			return reason, nil
		}
		return hexutil.Encode(inner[:]), nil
	}
	if reason, ok := decodeCustomError(data, errs); ok {
		return reason, nil
	}
	// optimistically try to decode as a bare string
	if values, err := stringArgs.Unpack(data); err == nil {
		return values[0].(string), nil
	}
	if values, err := stringArgs.Unpack(payload); err == nil {
		return fmt.Sprintf("%s:%s", selector, values[0].(string)), nil
	}
	return "", ErrUndecodableRevert
}

// decodeCustomError matches the selector of data against errs, a payload of
// only the selector renders the error without arguments.
func decodeCustomError(data []byte, errs *abi.ABI) (string, bool) {
	if errs == nil || len(errs.Errors) == 0 || len(data) < 4 {
		return "", false
	}
	names := make([]string, 0, len(errs.Errors))
	for name := range errs.Errors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		e := errs.Errors[name]
		if !bytes.Equal(e.ID[:4], data[:4]) {
			continue
		}
		values, err := e.Inputs.Unpack(data[4:])
		if err != nil {
			continue
		}
		return fmt.Sprintf("%s(%s)", e.Name, strings.Join(LabelValues(e.Inputs, values, nil), ", ")), true
	}
	return "", false
}
