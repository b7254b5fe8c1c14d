package abiutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var sigRegex = regexp.MustCompile(`^(?:(function|event|error)\s+)?(\w+)\(([^\(\)]*)\)(?:\s*returns\s*\(([^\(\)]*)\))?$`)

var typeAliases = map[string]string{
	"uint": "uint256",
	"int":  "int256",
	"byte": "bytes1",
}

// normalizeType expands solidity type aliases, keeping array suffixes.
func normalizeType(typ string) string {
	base, suffix := typ, ""
	if i := strings.IndexByte(typ, '['); i >= 0 {
		base, suffix = typ[:i], typ[i:]
	}
	if canonical, ok := typeAliases[base]; ok {
		return canonical + suffix
	}
	return typ
}

func parseArguments(str string) (abi.Arguments, error) {
	args := make(abi.Arguments, 0)
	if len(strings.TrimSpace(str)) == 0 {
		return args, nil
	}
	for _, arg := range strings.Split(str, ",") {
		tokens := strings.Fields(arg)
		if len(tokens) == 0 {
			return nil, fmt.Errorf("%w: empty argument", ErrInvalidSignature)
		}
		var (
			name    string
			indexed bool
		)
		typeStr := tokens[0]
		for _, tok := range tokens[1:] {
			switch tok {
			case "indexed":
				indexed = true
			case "memory", "calldata", "storage":
			default:
				name = tok
			}
		}
		argType, err := abi.NewType(normalizeType(typeStr), "", nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		args = append(args, abi.Argument{
			Name:    name,
			Type:    argType,
			Indexed: indexed,
		})
	}
	return args, nil
}

func parseSig(str string, defaultType string) (ABIElement, error) {
	matches := sigRegex.FindStringSubmatch(strings.TrimSpace(str))
	if matches == nil {
		return ABIElement{}, fmt.Errorf("%w: %q", ErrInvalidSignature, str)
	}
	elem := ABIElement{Type: defaultType, Name: matches[2]}
	if matches[1] != "" {
		elem.Type = matches[1]
	}
	var err error
	if elem.Inputs, err = parseArguments(matches[3]); err != nil {
		return ABIElement{}, err
	}
	if elem.Outputs, err = parseArguments(matches[4]); err != nil {
		return ABIElement{}, err
	}
	if elem.Type == "function" {
		elem.StateMutability = "nonpayable"
	}
	return elem, nil
}

// ParseMethodSig parses human readable method signature string into ABIElement,
// e.g. "balanceOf(address owner) returns (uint256)"
func ParseMethodSig(str string) (ABIElement, error) {
	return parseSig(str, "function")
}

// ParseEventSig parses human readable event signature,
// e.g. "Transfer(address indexed from, address indexed to, uint256 value)"
func ParseEventSig(str string) (ABIElement, error) {
	return parseSig(str, "event")
}

// ParseErrorSig parses human readable custom error signature
func ParseErrorSig(str string) (ABIElement, error) {
	return parseSig(str, "error")
}
