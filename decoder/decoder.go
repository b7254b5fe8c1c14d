//
// Created on 2023/4/7 by khanghh
// Project: github.com/verichains/calltrace
// Copyright (c) 2023 Verichains Lab
//

package decoder

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/panjf2000/ants/v2"
	"github.com/verichains/calltrace/abiutils"
	"github.com/verichains/calltrace/trace"
)

// CheatcodeLabel is the default label of the cheat interface address.
const CheatcodeLabel = "VM"

// CallTraceDecoder holds every known function, event, error and address label
// and decodes recorded arenas against them. Local definitions take precedence
// over the ones found in the signature database.
type CallTraceDecoder struct {
	cfg   Config
	sigdb *abiutils.SignatureDB // optional
	pool  *ants.Pool

	functions map[abiutils.MethodId][]abi.Method
	events    map[common.Hash][]abi.Event
	errors    abi.ABI
	labels    map[common.Address]string
	mtx       sync.RWMutex
}

type decodeStats struct {
	calls   uint32
	decoded uint32
	logs    uint32
}

// AddABI registers every function, event and error of contract.
func (d *CallTraceDecoder) AddABI(contract abi.ABI) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	for _, method := range contract.Methods {
		d.addFunction(method)
	}
	for _, event := range contract.Events {
		d.addEvent(event)
	}
	for name, e := range contract.Errors {
		d.errors.Errors[name] = e
	}
}

func (d *CallTraceDecoder) AddFunction(method abi.Method) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	d.addFunction(method)
}

func (d *CallTraceDecoder) addFunction(method abi.Method) {
	id, ok := abiutils.BytesToMethodId(method.ID)
	if !ok {
		return
	}
	if containsMethod(d.functions[id], method) {
		return
	}
	d.functions[id] = append(d.functions[id], method)
}

func (d *CallTraceDecoder) AddEvent(event abi.Event) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	d.addEvent(event)
}

func (d *CallTraceDecoder) addEvent(event abi.Event) {
	for _, ev := range d.events[event.ID] {
		if ev.Sig == event.Sig {
			return
		}
	}
	d.events[event.ID] = append(d.events[event.ID], event)
}

// SetErrors merges errs into the error set used to decode reverts.
func (d *CallTraceDecoder) SetErrors(errs abi.ABI) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	for name, e := range errs.Errors {
		d.errors.Errors[name] = e
	}
}

func (d *CallTraceDecoder) AddLabel(addr common.Address, label string) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	d.labels[addr] = label
}

// Functions returns the candidate functions for a selector, local ones first.
func (d *CallTraceDecoder) Functions(id abiutils.MethodId) []abi.Method {
	d.mtx.RLock()
	funcs := append([]abi.Method{}, d.functions[id]...)
	d.mtx.RUnlock()
	if d.sigdb == nil {
		return funcs
	}
	for _, method := range d.sigdb.Methods(id) {
		if !containsMethod(funcs, method) {
			funcs = append(funcs, method)
		}
	}
	return funcs
}

// Events returns the candidate events for a topic, local ones first.
func (d *CallTraceDecoder) Events(topic common.Hash) []abi.Event {
	d.mtx.RLock()
	events := append([]abi.Event{}, d.events[topic]...)
	d.mtx.RUnlock()
	if d.sigdb == nil {
		return events
	}
	for _, event := range d.sigdb.Events(topic) {
		known := false
		for _, ev := range events {
			if ev.Sig == event.Sig {
				known = true
				break
			}
		}
		if !known {
			events = append(events, event)
		}
	}
	return events
}

// Labels returns a snapshot of all address labels.
func (d *CallTraceDecoder) Labels() map[common.Address]string {
	labels := make(map[common.Address]string)
	if d.sigdb != nil {
		for addr, label := range d.sigdb.Labels() {
			labels[addr] = label
		}
	}
	d.mtx.RLock()
	defer d.mtx.RUnlock()
	for addr, label := range d.labels {
		labels[addr] = label
	}
	return labels
}

// Errors returns a snapshot of the error set.
func (d *CallTraceDecoder) Errors() *abi.ABI {
	errs := &abi.ABI{Errors: make(map[string]abi.Error)}
	if d.sigdb != nil {
		for name, e := range d.sigdb.Errors().Errors {
			errs.Errors[name] = e
		}
	}
	d.mtx.RLock()
	defer d.mtx.RUnlock()
	for name, e := range d.errors.Errors {
		errs.Errors[name] = e
	}
	return errs
}

// Decode runs the decode pass over every node of the arena. Nodes are decoded
// in parallel, the arena must not be modified until Decode returns.
func (d *CallTraceDecoder) Decode(arena *trace.CallTraceArena) {
	start := time.Now()
	labels := d.Labels()
	errs := d.Errors()
	nodes := arena.Nodes()

	var (
		stats decodeStats
		wg    sync.WaitGroup
	)
	for i := range nodes {
		node := &nodes[i]
		task := func() {
			defer wg.Done()
			d.decodeNode(node, labels, errs, &stats)
		}
		wg.Add(1)
		if err := d.pool.Submit(task); err != nil {
			log.Debug("Decode pool unavailable, decoding inline", "err", err)
			task()
		}
	}
	wg.Wait()
	log.Info("Decoded call trace", "calls", stats.calls, "decoded", stats.decoded, "logs", stats.logs, "elapsed", common.PrettyDuration(time.Since(start)))
}

func (d *CallTraceDecoder) decodeNode(node *trace.CallTraceNode, labels map[common.Address]string, errs *abi.ABI, stats *decodeStats) {
	atomic.AddUint32(&stats.calls, 1)
	addr := node.Trace.Address
	if node.Trace.Label == "" {
		if label, ok := labels[addr]; ok {
			node.Trace.Label = label
		}
	}
	switch {
	case node.Kind().IsCreate():
	case d.cfg.Precompiles && abiutils.IsPrecompile(addr):
		fn, _ := abiutils.Precompile(addr)
		node.DecodePrecompile(fn, labels)
	default:
		if id, ok := abiutils.BytesToMethodId(node.Trace.Data.Bytes()); ok {
			if funcs := d.Functions(id); len(funcs) > 0 {
				node.DecodeFunction(funcs, labels, errs)
			} else {
				log.Trace("Unknown selector", "node", node.Idx, "selector", id)
			}
		}
	}
	if !node.Trace.Data.IsRaw() {
		atomic.AddUint32(&stats.decoded, 1)
	}
	for i := range node.Logs {
		topic, ok := node.Logs[i].Topic0()
		if !ok {
			continue
		}
		if events := d.Events(topic); len(events) > 0 {
			node.DecodeLog(i, events, labels)
		}
		if !node.Logs[i].IsRaw() {
			atomic.AddUint32(&stats.logs, 1)
		}
	}
}

// Close releases the worker pool.
func (d *CallTraceDecoder) Close() {
	d.pool.Release()
}

// methodKey identifies a function by its signature and output types.
func methodKey(method abi.Method) string {
	outputs := make([]string, len(method.Outputs))
	for i, arg := range method.Outputs {
		outputs[i] = arg.Type.String()
	}
	return method.Sig + "(" + strings.Join(outputs, ",") + ")"
}

func containsMethod(funcs []abi.Method, method abi.Method) bool {
	key := methodKey(method)
	for _, fn := range funcs {
		if methodKey(fn) == key {
			return true
		}
	}
	return false
}

// NewCallTraceDecoder creates a decoder, sigdb may be nil.
func NewCallTraceDecoder(cfg *Config, sigdb *abiutils.SignatureDB) (*CallTraceDecoder, error) {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	config := *cfg
	if err := config.Sanitize(); err != nil {
		return nil, err
	}
	pool, err := ants.NewPool(config.Workers)
	if err != nil {
		return nil, err
	}
	return &CallTraceDecoder{
		cfg:       config,
		sigdb:     sigdb,
		pool:      pool,
		functions: make(map[abiutils.MethodId][]abi.Method),
		events:    make(map[common.Hash][]abi.Event),
		errors:    abi.ABI{Errors: make(map[string]abi.Error)},
		labels:    map[common.Address]string{trace.CheatcodeAddress: CheatcodeLabel},
	}, nil
}
