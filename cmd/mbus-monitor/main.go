// Command mbus-monitor drives either a real MBus node or a simulated
// two-node ring, logging every state transition with a role-colored swatch.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"

	"github.com/ringbus/mbus"
	"github.com/ringbus/mbus/internal/ring"
	"github.com/ringbus/mbus/nodeconfig"
	"github.com/ringbus/mbus/platform/periphgpio"
)

var roleColor = map[mbus.Role]color.NRGBA{
	mbus.RoleForward:          {R: 0x60, G: 0x60, B: 0x60, A: 0xff},
	mbus.RoleTransmit:         {R: 0x20, G: 0xa0, B: 0x20, A: 0xff},
	mbus.RoleReceive:          {R: 0x20, G: 0x60, B: 0xd0, A: 0xff},
	mbus.RoleReceiveBroadcast: {R: 0x90, G: 0x60, B: 0xd0, A: 0xff},
	mbus.RoleInterrupter:      {R: 0xd0, G: 0x40, B: 0x20, A: 0xff},
}

func swatch(role mbus.Role) string {
	c, ok := roleColor[role]
	if !ok {
		c = color.NRGBA{A: 0xff}
	}
	return ansi256.Default.Block(c)
}

func main() {
	sim := flag.Bool("sim", false, "run a simulated two-node ring instead of real GPIO hardware")
	configPath := flag.String("config", "", "node config INI path (real mode only)")
	clkin := flag.String("clkin", "GPIO5", "CLKIN pin name (real mode only)")
	clkout := flag.String("clkout", "GPIO6", "CLKOUT pin name (real mode only)")
	din := flag.String("din", "GPIO13", "DIN pin name (real mode only)")
	dout := flag.String("dout", "GPIO19", "DOUT pin name (real mode only)")
	flag.Parse()

	out := colorable.NewColorableStdout()
	log := slog.New(slog.NewTextHandler(out, nil)).With("component", "mbus-monitor")

	if *sim {
		runSim(out, log)
		return
	}

	if err := runReal(*configPath, periphgpio.PinNames{CLKIN: *clkin, CLKOUT: *clkout, DIN: *din, DOUT: *dout}, out, log); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func runReal(configPath string, pins periphgpio.PinNames, out io.Writer, log *slog.Logger) error {
	if configPath == "" {
		return fmt.Errorf("-config is required in real mode")
	}
	nc, err := nodeconfig.Load(configPath)
	if err != nil {
		return err
	}

	cfg := &mbus.Config{}
	nc.Apply(cfg)

	shim, err := periphgpio.Open(pins, cfg, log)
	if err != nil {
		return err
	}
	go monitor(out, "node", shim.FSM())
	shim.Run()
	return nil
}

func runSim(out io.Writer, log *slog.Logger) {
	sender := &mbus.Config{ShortPrefix: 0, RecvBuffers: []*mbus.RecvSlot{{Buffer: make([]byte, 8), Length: 8}}}
	receiver := &mbus.Config{ShortPrefix: 0x3, RecvBuffers: []*mbus.RecvSlot{{Buffer: make([]byte, 8), Length: 8}}}
	receiver.OnRecv = func(idx int) {
		log.Info("message received", "slot", idx)
	}

	r, err := ring.New([]*mbus.Config{sender, receiver})
	if err != nil {
		log.Error("failed to build simulated ring", "err", err)
		os.Exit(1)
	}

	go monitor(out, "sender", r.Node(0).FSM)
	go monitor(out, "receiver", r.Node(1).FSM)

	// buf[0]'s low nibble is the bit-reversal of the receiver's ShortPrefix
	// (0x3 -> 0xC): the wire drives LSB-first but the address decoder
	// accumulates MSB-first. priority=true so the arbitration round
	// resolves without depending on the sole bidder's own reflection
	// racing the fixed 3-tick sampling window.
	r.Node(0).FSM.Send([]byte{0x0c, 0x5a}, 2, true)

	level := mbus.Low
	for i := 0; i < 200; i++ {
		r.TickClock(level)
		level = !level
		time.Sleep(time.Millisecond)
	}
}

func monitor(out io.Writer, name string, fsm *mbus.FSM) {
	var last mbus.State
	for range time.Tick(time.Millisecond) {
		if s := fsm.State(); s != last {
			fmt.Fprintf(out, "%s %-8s %s -> %s\n", swatch(fsm.Role()), name, last, s)
			last = s
		}
	}
}
