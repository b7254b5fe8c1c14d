package trace

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/verichains/calltrace/abiutils"
)

// CheatcodeAddress is the virtual address of the test cheat interface,
// address(bytes20(uint160(uint256(keccak256("hevm cheat code"))))).
var CheatcodeAddress = common.HexToAddress("0x7109709ECfa91a80626fF3989D68f67F5b1DD12D")

const redactedKey = "<pk>"

// decodeCheatInputs decodes arguments of cheat calls that need special
// rendering: private keys are redacted and expected reverts are decoded.
func decodeCheatInputs(n *CallTraceNode, fn *abi.Method, args []byte, labels map[common.Address]string, errs *abi.ABI) ([]string, bool) {
	if n.Trace.Address != CheatcodeAddress {
		return nil, false
	}
	switch fn.Name {
	case "expectRevert":
		values, err := fn.Inputs.Unpack(args)
		if err != nil || len(values) == 0 {
			return nil, false
		}
		var data []byte
		switch v := values[0].(type) {
		case []byte:
			data = v
		case [4]byte:
			data = v[:]
		default:
			return nil, false
		}
		reason, err := abiutils.DecodeRevert(data, errs)
		if err != nil {
			return nil, false
		}
		return []string{reason}, true
	case "rememberKey", "addr", "startBroadcast", "broadcast":
		// only the overloads taking a private key
		if len(fn.Inputs) == 0 || fn.Inputs[0].Type.T != abi.UintTy {
			return nil, false
		}
		return []string{redactedKey}, true
	case "sign":
		values, err := fn.Inputs.Unpack(args)
		if err != nil {
			return nil, false
		}
		decoded := abiutils.LabelValues(fn.Inputs, values, labels)
		if len(decoded) > 0 && fn.Inputs[0].Type.T == abi.UintTy {
			decoded[0] = redactedKey
		}
		return decoded, true
	case "deriveKey":
		return []string{redactedKey}, true
	}
	return nil, false
}
