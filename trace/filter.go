package trace

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// FilterEnv is the environment a filter expression is evaluated against.
// Addresses are lower case hex.
type FilterEnv struct {
	Index     int
	Depth     int
	Kind      string
	Caller    string
	Address   string
	Label     string
	Function  string
	Signature string
	Success   bool
	Status    string
	Logs      int
	Children  int
}

func newFilterEnv(n *CallTraceNode) FilterEnv {
	env := FilterEnv{
		Index:    n.Idx,
		Depth:    n.Trace.Depth,
		Kind:     n.Trace.Kind.String(),
		Caller:   strings.ToLower(n.Trace.Caller.Hex()),
		Address:  strings.ToLower(n.Trace.Address.Hex()),
		Label:    n.Trace.Label,
		Success:  n.Trace.Success,
		Status:   n.Trace.Status.String(),
		Logs:     len(n.Logs),
		Children: len(n.Children),
	}
	if call, ok := n.Trace.Data.Decoded(); ok {
		env.Function = call.Name
		env.Signature = call.Signature
	}
	return env
}

// Filter is a compiled boolean expression over call nodes, e.g.
// `Kind == "DELEGATECALL" && !Success`.
type Filter struct {
	source  string
	program *vm.Program
}

func CompileFilter(source string) (*Filter, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		source = "true"
	}
	program, err := expr.Compile(source, expr.Env(FilterEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", source, err)
	}
	return &Filter{source: source, program: program}, nil
}

func (f *Filter) String() string {
	return f.source
}

func (f *Filter) Match(n *CallTraceNode) (bool, error) {
	out, err := expr.Run(f.program, newFilterEnv(n))
	if err != nil {
		return false, err
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("filter must evaluate to bool (got %T)", out)
	}
	return matched, nil
}

// Select returns the indices of all nodes matching the filter.
func (a *CallTraceArena) Select(f *Filter) ([]int, error) {
	ret := make([]int, 0)
	for i := range a.nodes {
		matched, err := f.Match(&a.nodes[i])
		if err != nil {
			return nil, err
		}
		if matched {
			ret = append(ret, i)
		}
	}
	return ret, nil
}
