//
// Created on 2023/4/3 by khanghh
// Project: github.com/verichains/calltrace
// Copyright (c) 2023 Verichains Lab
//

package trace

import (
	"fmt"
)

// NoParent is the parent index of the root node.
const NoParent = -1

// CallTraceNode is a single call frame in the arena.
type CallTraceNode struct {
	Idx      int
	Parent   int // NoParent for the root
	Children []int
	Trace    CallTrace
	Logs     []LogEntry
	Ordering []LogCallOrder
}

func (n *CallTraceNode) IsRoot() bool {
	return n.Parent == NoParent
}

func (n *CallTraceNode) Kind() CallKind {
	return n.Trace.Kind
}

func (n *CallTraceNode) Status() Status {
	return n.Trace.Status
}

// CallTraceArena is an append-only tree of call frames addressed by index.
// The root is at index 0. It is not safe for concurrent mutation.
type CallTraceArena struct {
	nodes []CallTraceNode
}

func NewArena() *CallTraceArena {
	return &CallTraceArena{}
}

func (a *CallTraceArena) Len() int {
	return len(a.nodes)
}

// Nodes returns the nodes in index order. Elements may be modified in place
// but the slice must not be appended to.
func (a *CallTraceArena) Nodes() []CallTraceNode {
	return a.nodes
}

func (a *CallTraceArena) Node(idx int) (*CallTraceNode, error) {
	if idx < 0 || idx >= len(a.nodes) {
		return nil, &IndexError{Index: idx, Len: len(a.nodes)}
	}
	return &a.nodes[idx], nil
}

// Root returns the first node, nil for an empty arena.
func (a *CallTraceArena) Root() *CallTraceNode {
	if len(a.nodes) == 0 {
		return nil
	}
	return &a.nodes[0]
}

// Push allocates a node for trace under parent, use NoParent for the root.
// The new node is linked into the parent's children and ordering.
func (a *CallTraceArena) Push(parent int, trace CallTrace) (int, error) {
	idx := len(a.nodes)
	if parent == NoParent {
		if idx != 0 {
			return 0, fmt.Errorf("%w: arena already has a root", ErrInvalidArena)
		}
	} else if _, err := a.Node(parent); err != nil {
		return 0, err
	}
	a.nodes = append(a.nodes, CallTraceNode{
		Idx:    idx,
		Parent: parent,
		Trace:  trace,
	})
	if parent != NoParent {
		if err := a.AddChild(parent, idx); err != nil {
			a.nodes = a.nodes[:idx]
			return 0, err
		}
	}
	return idx, nil
}

// AddChild links child into parent's children and ordering.
func (a *CallTraceArena) AddChild(parent, child int) error {
	p, err := a.Node(parent)
	if err != nil {
		return err
	}
	c, err := a.Node(child)
	if err != nil {
		return err
	}
	if c.Parent != parent {
		return fmt.Errorf("%w: node %d has parent %d, not %d", ErrInvalidChild, child, c.Parent, parent)
	}
	for _, idx := range p.Children {
		if idx == child {
			return fmt.Errorf("%w: node %d is already a child of %d", ErrInvalidChild, child, parent)
		}
	}
	p.Ordering = append(p.Ordering, LogCallOrder{Kind: OrderCall, Index: len(p.Children)})
	p.Children = append(p.Children, child)
	return nil
}

// AddLog appends log to the node's logs and ordering.
func (a *CallTraceArena) AddLog(idx int, log LogEntry) error {
	n, err := a.Node(idx)
	if err != nil {
		return err
	}
	n.Ordering = append(n.Ordering, LogCallOrder{Kind: OrderLog, Index: len(n.Logs)})
	n.Logs = append(n.Logs, log)
	return nil
}

// Validate checks the structural invariants of the arena: a single root at
// index 0, consistent parent/child links and a complete ordering per node.
func (a *CallTraceArena) Validate() error {
	seen := make([]bool, len(a.nodes))
	for i := range a.nodes {
		n := &a.nodes[i]
		if n.Idx != i {
			return fmt.Errorf("%w: node %d has index %d", ErrInvalidArena, i, n.Idx)
		}
		if (i == 0) != (n.Parent == NoParent) {
			return fmt.Errorf("%w: node %d has parent %d", ErrInvalidArena, i, n.Parent)
		}
		if n.Parent != NoParent && (n.Parent < 0 || n.Parent >= len(a.nodes)) {
			return fmt.Errorf("%w: node %d has unknown parent %d", ErrInvalidArena, i, n.Parent)
		}
		for _, child := range n.Children {
			if child <= 0 || child >= len(a.nodes) || a.nodes[child].Parent != i || seen[child] {
				return fmt.Errorf("%w: node %d has invalid child %d", ErrInvalidArena, i, child)
			}
			seen[child] = true
		}
		if err := validateOrdering(n); err != nil {
			return err
		}
	}
	for i := 1; i < len(a.nodes); i++ {
		if !seen[i] {
			return fmt.Errorf("%w: node %d is not linked to its parent", ErrInvalidArena, i)
		}
	}
	return nil
}

func validateOrdering(n *CallTraceNode) error {
	if len(n.Ordering) != len(n.Children)+len(n.Logs) {
		return fmt.Errorf("%w: node %d ordering has %d entries, want %d", ErrInvalidArena, n.Idx, len(n.Ordering), len(n.Children)+len(n.Logs))
	}
	var (
		calls = make([]bool, len(n.Children))
		logs  = make([]bool, len(n.Logs))
	)
	for _, item := range n.Ordering {
		var seen []bool
		switch item.Kind {
		case OrderCall:
			seen = calls
		case OrderLog:
			seen = logs
		default:
			return fmt.Errorf("%w: node %d has unknown ordering kind %d", ErrInvalidArena, n.Idx, item.Kind)
		}
		if item.Index < 0 || item.Index >= len(seen) || seen[item.Index] {
			return fmt.Errorf("%w: node %d has invalid ordering entry %d", ErrInvalidArena, n.Idx, item.Index)
		}
		seen[item.Index] = true
	}
	return nil
}

// RestoreArena rebuilds an arena from previously recorded nodes.
func RestoreArena(nodes []CallTraceNode) (*CallTraceArena, error) {
	arena := &CallTraceArena{nodes: nodes}
	if err := arena.Validate(); err != nil {
		return nil, err
	}
	return arena, nil
}
