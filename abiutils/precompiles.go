package abiutils

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// positional signatures of the standard precompiled contracts
var precompileSigs = map[byte]string{
	0x01: "ecrecover(bytes32 hash, uint8 v, bytes32 r, bytes32 s) returns (address publicAddress)",
	0x02: "sha256(bytes data) returns (bytes32 hash)",
	0x03: "ripemd(bytes data) returns (bytes20 hash)",
	0x04: "identity(bytes data) returns (bytes data)",
	0x05: "modexp(uint256 Bsize, uint256 Esize, uint256 Msize, bytes BEM) returns (bytes value)",
	0x06: "ecadd(uint256 x1, uint256 y1, uint256 x2, uint256 y2) returns (uint256 x, uint256 y)",
	0x07: "ecmul(uint256 x1, uint256 y1, uint256 s) returns (uint256 x, uint256 y)",
	0x08: "ecpairing(uint256[] x) returns (bool success)",
	0x09: "blake2f(uint32 rounds, bytes32[2] h, bytes32[4] m, bytes8[2] t, bool f) returns (bytes32[2] h)",
}

var precompiles = loadPrecompiles()

func loadPrecompiles() map[common.Address]abi.Method {
	ret := make(map[common.Address]abi.Method, len(precompileSigs))
	for id, sig := range precompileSigs {
		elem, err := ParseMethodSig(sig)
		if err != nil {
			panic(err)
		}
		ret[common.BytesToAddress([]byte{id})] = elem.Method()
	}
	return ret
}

// Precompile returns the positional function definition of the precompiled
// contract at addr.
func Precompile(addr common.Address) (abi.Method, bool) {
	method, ok := precompiles[addr]
	return method, ok
}

func IsPrecompile(addr common.Address) bool {
	_, ok := precompiles[addr]
	return ok
}
