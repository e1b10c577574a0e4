// Package periphgpio is the real-hardware platform shim for the MBus FSM
// core: it owns the four GPIO lines (CLKIN, CLKOUT, DIN, DOUT) through
// periph.io, watches CLKIN/DIN for edges, and drives mbus.FSM.OnClkEdge /
// OnDinEdge from those watches. It is the one place in this module that
// actually touches hardware; everything above it (FSM) stays pure and
// testable without a board attached.
package periphgpio

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ringbus/mbus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// PinNames names the four GPIO lines by their periph.io pin name (as
// accepted by gpioreg.ByName), e.g. "GPIO17".
type PinNames struct {
	CLKIN  string
	CLKOUT string
	DIN    string
	DOUT   string
}

// Shim drives an *mbus.FSM from real GPIO hardware. Construct one per
// node; Run blocks watching for edges until ctx-like Stop is called.
type Shim struct {
	log *slog.Logger

	clkin  gpio.PinIO
	clkout gpio.PinIO
	din    gpio.PinIO
	dout   gpio.PinIO

	clkoutGpio mbus.GPIO
	doutGpio   mbus.GPIO

	fsm *mbus.FSM

	// edgeMu serializes OnClkEdge/OnDinEdge: the FSM core is explicitly
	// non-reentrant (spec §5), and CLKIN/DIN are watched from two
	// independent goroutines.
	edgeMu sync.Mutex

	stop chan struct{}
	done chan struct{}
}

// Open resolves pins by name and wires cfg.SetGPIOVal to drive CLKOUT/DOUT
// directly. cfg must not have SetGPIOVal set already; cfg.RecvBuffers and
// the prefix/callback fields should already be populated (e.g. via
// nodeconfig.Apply) before calling Open.
func Open(pins PinNames, cfg *mbus.Config, log *slog.Logger) (*Shim, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "periphgpio")

	clkin := gpioreg.ByName(pins.CLKIN)
	clkout := gpioreg.ByName(pins.CLKOUT)
	din := gpioreg.ByName(pins.DIN)
	dout := gpioreg.ByName(pins.DOUT)
	if clkin == nil || clkout == nil || din == nil || dout == nil {
		return nil, fmt.Errorf("periphgpio: one or more named pins not found: %+v", pins)
	}

	if err := clkin.In(gpio.PullNoChange, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("periphgpio: CLKIN In: %w", err)
	}
	if err := din.In(gpio.PullNoChange, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("periphgpio: DIN In: %w", err)
	}
	if err := clkout.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("periphgpio: CLKOUT Out: %w", err)
	}
	if err := dout.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("periphgpio: DOUT Out: %w", err)
	}

	s := &Shim{
		log:    log,
		clkin:  clkin,
		clkout: clkout,
		din:    din,
		dout:   dout,
		stop:   make(chan struct{}),
		done:   make(chan struct{}, 2),
	}

	// Open owns the two opaque GPIO identifiers passed through
	// SetGPIOVal, since only it needs to tell them apart.
	s.clkoutGpio, s.doutGpio = 0, 1
	cfg.CLKOUTGpio, cfg.DOUTGpio = s.clkoutGpio, s.doutGpio
	cfg.SetGPIOVal = s.setGPIOVal

	fsm, err := mbus.NewFSM(cfg)
	if err != nil {
		return nil, fmt.Errorf("periphgpio: %w", err)
	}
	s.fsm = fsm

	return s, nil
}

// FSM returns the shim's FSM, for Send and status queries.
func (s *Shim) FSM() *mbus.FSM { return s.fsm }

func (s *Shim) setGPIOVal(gp mbus.GPIO, level mbus.Level) {
	pin := s.clkout
	if gp == s.doutGpio {
		pin = s.dout
	}
	if err := pin.Out(toPeriphLevel(level)); err != nil {
		s.log.Error("gpio write failed", "pin", pin, "err", err)
	}
}

func toPeriphLevel(l mbus.Level) gpio.Level { return gpio.Level(l) }
func toMbusLevel(l gpio.Level) mbus.Level   { return mbus.Level(l) }

// Run watches CLKIN and DIN for edges until Stop is called, driving the
// FSM from each one. It blocks and should be run in its own goroutine.
func (s *Shim) Run() {
	go s.watch(s.clkin, s.fsm.OnClkEdge)
	go s.watch(s.din, s.fsm.OnDinEdge)
	<-s.stop
	<-s.done
	<-s.done
}

func (s *Shim) watch(pin gpio.PinIO, deliver func(mbus.Level)) {
	defer func() { s.done <- struct{}{} }()
	for {
		select {
		case <-s.stop:
			return
		default:
		}
		if !pin.WaitForEdge(100 * time.Millisecond) {
			continue
		}
		level := toMbusLevel(pin.Read())
		s.edgeMu.Lock()
		deliver(level)
		s.edgeMu.Unlock()
	}
}

// Stop signals both watch loops to exit; it does not wait for them. Run
// returns once both have exited.
func (s *Shim) Stop() {
	close(s.stop)
}
