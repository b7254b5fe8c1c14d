package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fatih/color"
	"github.com/verichains/calltrace/trace"
)

const (
	branchPrefix = "├─ "
	lastPrefix   = "└─ "
	pipeIndent   = "│  "
)

type Options struct {
	NoColor bool
	Gas     bool // Print the gas used by every call
}

type printer struct {
	w     io.Writer
	opts  Options
	err   error
	ok    *color.Color
	fail  *color.Color
	event *color.Color
	ret   *color.Color
	kind  *color.Color
}

func newPrinter(w io.Writer, opts *Options) *printer {
	if opts == nil {
		opts = &Options{}
	}
	p := &printer{
		w:     w,
		opts:  *opts,
		ok:    color.New(color.FgGreen),
		fail:  color.New(color.FgRed),
		event: color.New(color.FgCyan),
		ret:   color.New(color.FgYellow),
		kind:  color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.ok, p.fail, p.event, p.ret, p.kind} {
		if opts.NoColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
	}
	return p
}

func (p *printer) println(prefix, line string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, prefix+line)
}

// Tree prints the call tree of the arena, logs are interleaved with the
// calls in execution order and every call ends with its return line.
func Tree(w io.Writer, arena *trace.CallTraceArena, opts *Options) error {
	root := arena.Root()
	if root == nil {
		return nil
	}
	p := newPrinter(w, opts)
	p.node(arena, root, "", "")
	return p.err
}

func (p *printer) node(arena *trace.CallTraceArena, n *trace.CallTraceNode, linePrefix, childPrefix string) {
	p.println(linePrefix, p.header(n))
	for _, item := range n.Ordering {
		switch item.Kind {
		case trace.OrderCall:
			child, err := arena.Node(n.Children[item.Index])
			if err != nil {
				p.err = err
				return
			}
			p.node(arena, child, childPrefix+branchPrefix, childPrefix+pipeIndent)
		case trace.OrderLog:
			p.println(childPrefix+branchPrefix, p.emit(n.Logs[item.Index]))
		}
	}
	p.println(childPrefix+lastPrefix, p.returns(n))
}

func (p *printer) header(n *trace.CallTraceNode) string {
	t := &n.Trace
	c := p.ok
	if !t.Success {
		c = p.fail
	}
	callee := t.Address.Hex()
	if t.Label != "" {
		callee = t.Label
	}

	var sb strings.Builder
	if p.opts.Gas {
		fmt.Fprintf(&sb, "[%d] ", t.GasCost)
	}
	if t.Kind.IsCreate() {
		fmt.Fprintf(&sb, "%s %s", c.Sprint("new"), c.Sprintf("%s@%s", callee, t.Address.Hex()))
		if t.Value != nil && t.Value.Sign() > 0 {
			fmt.Fprintf(&sb, "{value: %s}", t.Value)
		}
		return sb.String()
	}
	sb.WriteString(c.Sprint(callee))
	sb.WriteString("::")
	sb.WriteString(c.Sprint(functionName(t)))
	if t.Value != nil && t.Value.Sign() > 0 {
		fmt.Fprintf(&sb, "{value: %s}", t.Value)
	}
	sb.WriteString(functionArgs(t))
	if t.Kind != trace.KindCall {
		sb.WriteString(" ")
		sb.WriteString(p.kind.Sprintf("[%s]", strings.ToLower(t.Kind.String())))
	}
	return sb.String()
}

func functionName(t *trace.CallTrace) string {
	if call, ok := t.Data.Decoded(); ok {
		return call.Name
	}
	data := t.Data.Bytes()
	if len(data) == 0 {
		return "fallback"
	}
	if len(data) < 4 {
		return hexutil.Encode(data)
	}
	return hexutil.Encode(data[:4])
}

func functionArgs(t *trace.CallTrace) string {
	if call, ok := t.Data.Decoded(); ok {
		return "(" + strings.Join(call.Args, ", ") + ")"
	}
	data := t.Data.Bytes()
	if len(data) <= 4 {
		return "()"
	}
	return "(" + hexutil.Encode(data[4:]) + ")"
}

func (p *printer) emit(l trace.LogEntry) string {
	if decoded, ok := l.Decoded(); ok {
		params := make([]string, len(decoded.Params))
		for i, param := range decoded.Params {
			if param.Name == "" {
				params[i] = param.Value
			} else {
				params[i] = param.Name + ": " + param.Value
			}
		}
		return fmt.Sprintf("%s %s(%s)", p.event.Sprint("emit"), p.event.Sprint(decoded.Name), strings.Join(params, ", "))
	}
	raw := l.Raw()
	parts := make([]string, 0, len(raw.Topics)+1)
	for i, topic := range raw.Topics {
		parts = append(parts, fmt.Sprintf("topic %d: %s", i, topic.Hex()))
	}
	parts = append(parts, "data: "+hexutil.Encode(raw.Data))
	return fmt.Sprintf("%s %s", p.event.Sprint("emit"), strings.Join(parts, ", "))
}

func (p *printer) returns(n *trace.CallTraceNode) string {
	t := &n.Trace
	var out string
	if decoded, ok := t.Output.Decoded(); ok {
		out = decoded
	} else if t.Kind.IsCreate() && t.Success {
		out = fmt.Sprintf("%d bytes of code", len(t.Output.Bytes()))
	} else if len(t.Output.Bytes()) > 0 {
		out = hexutil.Encode(t.Output.Bytes())
	} else {
		out = "()"
	}
	if !t.Status.IsOk() {
		return fmt.Sprintf("%s %s", p.fail.Sprintf("← [%s]", t.Status), out)
	}
	return fmt.Sprintf("%s %s", p.ret.Sprint("←"), out)
}
