package abiutils

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Label renders a decoded abi value as text. Addresses found in labels are
// rendered as "<label> (<address>)", composite values keep their bracket or
// parenthesis grouping around the labeled leaves.
func Label(typ abi.Type, value interface{}, labels map[common.Address]string) string {
	switch typ.T {
	case abi.AddressTy:
		addr, ok := value.(common.Address)
		if !ok {
			return fmt.Sprint(value)
		}
		if label, ok := labels[addr]; ok {
			return fmt.Sprintf("%s (%s)", label, addr.Hex())
		}
		return addr.Hex()
	case abi.IntTy, abi.UintTy:
		if v, ok := value.(*big.Int); ok {
			return v.String()
		}
		return fmt.Sprint(value)
	case abi.BoolTy:
		return fmt.Sprint(value)
	case abi.StringTy:
		return fmt.Sprintf("%q", value)
	case abi.BytesTy:
		if b, ok := value.([]byte); ok {
			return hexutil.Encode(b)
		}
	case abi.FixedBytesTy, abi.FunctionTy:
		return hexutil.Encode(toBytes(value))
	case abi.SliceTy, abi.ArrayTy:
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			break
		}
		elems := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elems[i] = Label(*typ.Elem, rv.Index(i).Interface(), labels)
		}
		return "[" + strings.Join(elems, ", ") + "]"
	case abi.TupleTy:
		rv := reflect.Indirect(reflect.ValueOf(value))
		if rv.Kind() != reflect.Struct || rv.NumField() != len(typ.TupleElems) {
			break
		}
		elems := make([]string, len(typ.TupleElems))
		for i, elem := range typ.TupleElems {
			elems[i] = Label(*elem, rv.Field(i).Interface(), labels)
		}
		return "(" + strings.Join(elems, ", ") + ")"
	}
	return fmt.Sprint(value)
}

// LabelValues labels every unpacked value of args, values must come from args.Unpack.
func LabelValues(args abi.Arguments, values []interface{}, labels map[common.Address]string) []string {
	ret := make([]string, 0, len(values))
	for i, arg := range args.NonIndexed() {
		if i >= len(values) {
			break
		}
		ret = append(ret, Label(arg.Type, values[i], labels))
	}
	return ret
}

func toBytes(value interface{}) []byte {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Array || rv.Type().Elem().Kind() != reflect.Uint8 {
		return nil
	}
	ret := make([]byte, rv.Len())
	reflect.Copy(reflect.ValueOf(ret), rv)
	return ret
}
