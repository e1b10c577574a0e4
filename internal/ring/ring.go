// Package ring is an in-process test/demo harness that wires together two
// or more *mbus.FSM instances the way real MBus hardware wires GPIO lines:
// each node's driven CLKOUT/DOUT feeds the next node's CLKIN/DIN, forming
// a closed loop.
//
// The FSM core is explicitly non-reentrant and single-threaded (spec §5),
// so this harness must not deliver a forwarded edge by calling back into
// a handler while that handler (or one of its own callees) is still on
// the call stack — on real hardware, signal propagation between nodes
// takes nonzero time, which is exactly what prevents that recursion.
// Ring models this with a small FIFO: SetGPIOVal enqueues the edge
// instead of delivering it immediately, and Drain pumps the queue to
// quiescence one hop at a time after each externally-injected edge.
//
// Ring does not generate the interrupt-request pulse pattern itself
// (spec §6: "3 DIN rising edges while CLKOUT held high") — on real
// hardware that pattern is toggled directly onto DOUT by platform code
// once it observes the FSM holding CLKOUT high, bypassing the FSM's own
// bit-by-bit protocol entirely. Callers exercising the interrupt-request
// path should drive it the same way, via Ring.Pulse.
package ring

import "github.com/ringbus/mbus"

// Node is one participant in the ring.
type Node struct {
	FSM    *mbus.FSM
	Config *mbus.Config
	next   int
}

type edgeKind uint8

const (
	edgeClk edgeKind = iota
	edgeDin
)

type pendingEdge struct {
	kind  edgeKind
	node  int
	level mbus.Level
}

// Ring is a closed loop of nodes connected in daisy-chain order: node i's
// CLKOUT/DOUT feed node (i+1)%N's CLKIN/DIN, except that the last node's
// CLKOUT is not fed back into node 0, whose CLKIN is driven by TickClock.
type Ring struct {
	nodes   []*Node
	pending []pendingEdge
}

// New builds a ring from cfgs, constructing and initializing one FSM per
// Config and wiring SetGPIOVal for each to forward into its successor.
// cfgs[i].SetGPIOVal is overwritten; callers must not set it beforehand.
func New(cfgs []*mbus.Config) (*Ring, error) {
	r := &Ring{nodes: make([]*Node, len(cfgs))}
	for i, cfg := range cfgs {
		// New owns the two opaque GPIO identifiers passed through
		// SetGPIOVal, the same way periphgpio.Open does for real pins:
		// leaving them at their zero value would make every driven DOUT
		// edge indistinguishable from a CLKOUT edge.
		cfg.CLKOUTGpio, cfg.DOUTGpio = 0, 1
		// Init rejects a nil SetGPIOVal; the forwarding closure replaces
		// this placeholder below, once every node exists.
		cfg.SetGPIOVal = func(mbus.GPIO, mbus.Level) {}

		fsm, err := mbus.NewFSM(cfg)
		if err != nil {
			return nil, err
		}
		r.nodes[i] = &Node{FSM: fsm, Config: cfg, next: (i + 1) % len(cfgs)}
	}
	last := len(r.nodes) - 1
	for i, n := range r.nodes {
		idx := i
		node := n
		clkoutGpio := node.Config.CLKOUTGpio
		doutGpio := node.Config.DOUTGpio
		node.Config.SetGPIOVal = func(gpio mbus.GPIO, level mbus.Level) {
			kind := edgeDin
			if gpio == clkoutGpio {
				// Node 0's CLKIN is externally driven (see TickClock);
				// closing the CLKOUT loop back into it would deliver a
				// same-level edge on top of the one TickClock already
				// injected, tripping the duplicate-edge fault. Every
				// other hop mirrors the clock normally.
				if idx == last {
					return
				}
				kind = edgeClk
			} else if gpio != doutGpio {
				return
			}
			r.pending = append(r.pending, pendingEdge{kind: kind, node: r.nodes[idx].next, level: level})
		}
	}
	return r, nil
}

// Node returns the i'th node in the ring.
func (r *Ring) Node(i int) *Node { return r.nodes[i] }

// Drain delivers every pending edge to its destination node, in FIFO
// order, continuing until propagation settles (no node produces further
// output). Call it after any externally-injected edge.
func (r *Ring) Drain() {
	for len(r.pending) > 0 {
		e := r.pending[0]
		r.pending = r.pending[1:]
		n := r.nodes[e.node]
		switch e.kind {
		case edgeClk:
			n.FSM.OnClkEdge(e.level)
		case edgeDin:
			n.FSM.OnDinEdge(e.level)
		}
	}
}

// TickClock injects one CLKIN transition into node 0 — the ring's
// designated external clock source, analogous to the one node in a real
// deployment whose CLKIN pin is wired to an oscillator rather than to a
// neighbor's CLKOUT — and drains all resulting propagation before
// returning.
func (r *Ring) TickClock(level mbus.Level) {
	r.nodes[0].FSM.OnClkEdge(level)
	r.Drain()
}

// Pulse toggles node i's own DOUT through levels, draining propagation
// after each step. It stands in for the platform-level GPIO toggling
// real hardware performs to emit the interrupt-request pattern once the
// FSM is holding CLKOUT high (spec §6) — the FSM itself never does this.
func (r *Ring) Pulse(i int, levels ...mbus.Level) {
	n := r.nodes[i]
	for _, level := range levels {
		n.Config.SetGPIOVal(n.Config.DOUTGpio, level)
		r.Drain()
	}
}
