package trace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterSelect(t *testing.T) {
	arena := buildArena(t)
	failed, _ := arena.Node(2)
	failed.Trace.Success = false
	failed.Trace.Status = StatusRevert
	failed.Trace.Kind = KindDelegateCall
	named, _ := arena.Node(1)
	named.Trace.Data.setDecoded(DecodedCall{Name: "transfer", Signature: "transfer(address,uint256)", Args: []string{}})

	tests := []struct {
		source   string
		expected []int
	}{
		{"", []int{0, 1, 2, 3}},
		{"Depth == 1", []int{1, 3}},
		{"!Success", []int{2}},
		{`Kind == "DELEGATECALL" && Status == "Revert"`, []int{2}},
		{`Function == "transfer"`, []int{1}},
		{"Logs > 0 || Children > 1", []int{0}},
		{`Address == "` + strings.ToLower(vault.Hex()) + `"`, []int{1}},
		{`Caller startsWith "0xa73b"`, []int{0}},
	}
	for _, test := range tests {
		filter, err := CompileFilter(test.source)
		require.NoError(t, err, test.source)
		matched, err := arena.Select(filter)
		require.NoError(t, err, test.source)
		assert.Equal(t, test.expected, matched, test.source)
	}
}

func TestCompileFilterErrors(t *testing.T) {
	for _, source := range []string{"Depth +", "Depth + 1", "Unknown == 1"} {
		_, err := CompileFilter(source)
		assert.Error(t, err, source)
	}
	filter, err := CompileFilter("  ")
	require.NoError(t, err)
	assert.Equal(t, "true", filter.String())
}
