package journal

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
	"github.com/verichains/calltrace/trace"
)

// rlp has no signed integers nor maps, parents are stored shifted by one
// and storage writes as a list.
type slotRecord struct {
	Slot     common.Hash
	Original common.Hash
	Present  common.Hash
}

type stepRecord struct {
	PC     uint64
	Op     uint8
	Stack  []*uint256.Int
	Memory []byte
	State  []slotRecord
}

type logRecord struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

type orderRecord struct {
	Kind  uint8
	Index uint64
}

type nodeRecord struct {
	Parent   uint64 // 0 for the root
	Children []uint64
	Caller   common.Address
	Address  common.Address
	Kind     uint8
	Value    *big.Int
	GasCost  uint64
	Data     []byte
	Output   []byte
	Success  bool
	Status   uint8
	Depth    uint64
	Label    string
	Steps    []stepRecord
	Logs     []logRecord
	Ordering []orderRecord
}

type arenaRecord struct {
	Time  uint64
	Nodes []nodeRecord
}

func newArenaRecord(arena *trace.CallTraceArena, ts uint64) *arenaRecord {
	nodes := arena.Nodes()
	rec := &arenaRecord{
		Time:  ts,
		Nodes: make([]nodeRecord, len(nodes)),
	}
	for i := range nodes {
		n := &nodes[i]
		t := &n.Trace
		enc := nodeRecord{
			Parent:  uint64(n.Parent + 1),
			Caller:  t.Caller,
			Address: t.Address,
			Kind:    uint8(t.Kind),
			Value:   t.Value,
			GasCost: t.GasCost,
			Data:    t.Data.Bytes(),
			Output:  t.Output.Bytes(),
			Success: t.Success,
			Status:  uint8(t.Status),
			Depth:   uint64(t.Depth),
			Label:   t.Label,
		}
		if enc.Value == nil {
			enc.Value = new(big.Int)
		}
		for _, child := range n.Children {
			enc.Children = append(enc.Children, uint64(child))
		}
		for _, step := range t.Steps {
			stack := make([]*uint256.Int, len(step.Stack))
			for j := range step.Stack {
				stack[j] = new(uint256.Int).Set(&step.Stack[j])
			}
			state := make([]slotRecord, 0, len(step.State))
			for slot, value := range step.State {
				state = append(state, slotRecord{Slot: slot, Original: value.Original, Present: value.Present})
			}
			enc.Steps = append(enc.Steps, stepRecord{
				PC:     step.PC,
				Op:     uint8(step.Op),
				Stack:  stack,
				Memory: step.Memory,
				State:  state,
			})
		}
		for _, l := range n.Logs {
			raw := l.Raw()
			enc.Logs = append(enc.Logs, logRecord{Address: raw.Address, Topics: raw.Topics, Data: raw.Data})
		}
		for _, item := range n.Ordering {
			enc.Ordering = append(enc.Ordering, orderRecord{Kind: uint8(item.Kind), Index: uint64(item.Index)})
		}
		rec.Nodes[i] = enc
	}
	return rec
}

func (rec *arenaRecord) arena() (*trace.CallTraceArena, error) {
	nodes := make([]trace.CallTraceNode, len(rec.Nodes))
	for i, enc := range rec.Nodes {
		n := trace.CallTraceNode{
			Idx:    i,
			Parent: int(enc.Parent) - 1,
			Trace: trace.CallTrace{
				Caller:  enc.Caller,
				Address: enc.Address,
				Kind:    trace.CallKind(enc.Kind),
				Value:   enc.Value,
				GasCost: enc.GasCost,
				Data:    trace.RawCall(enc.Data),
				Output:  trace.RawReturn(enc.Output),
				Success: enc.Success,
				Status:  trace.Status(enc.Status),
				Depth:   int(enc.Depth),
				Label:   enc.Label,
			},
		}
		for _, child := range enc.Children {
			n.Children = append(n.Children, int(child))
		}
		for _, step := range enc.Steps {
			decoded := trace.CallTraceStep{
				PC:     step.PC,
				Op:     vm.OpCode(step.Op),
				Stack:  make([]uint256.Int, len(step.Stack)),
				Memory: step.Memory,
			}
			for j, word := range step.Stack {
				decoded.Stack[j] = *word
			}
			if len(step.State) > 0 {
				decoded.State = make(map[common.Hash]trace.StorageSlot, len(step.State))
				for _, slot := range step.State {
					decoded.State[slot.Slot] = trace.StorageSlot{Original: slot.Original, Present: slot.Present}
				}
			}
			n.Trace.Steps = append(n.Trace.Steps, decoded)
		}
		for _, l := range enc.Logs {
			n.Logs = append(n.Logs, trace.NewLogEntry(l.Address, l.Topics, l.Data))
		}
		for _, item := range enc.Ordering {
			n.Ordering = append(n.Ordering, trace.LogCallOrder{Kind: trace.OrderKind(item.Kind), Index: int(item.Index)})
		}
		nodes[i] = n
	}
	return trace.RestoreArena(nodes)
}
