package mbus

// Level is the logic level of one of the four MBus GPIO lines.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func boolToLevel(b bool) Level {
	if b {
		return High
	}
	return Low
}

func (l Level) bit() uint8 {
	if l {
		return 1
	}
	return 0
}

// GPIO identifies one of the two locally-driven lines (CLKOUT, DOUT). The
// core never interprets this value; it is passed straight through to
// Config.SetGPIOVal, whose meaning is entirely owned by the platform shim.
type GPIO uint

// RecvSlot is one receive buffer slot owned by the client (spec §3).
//
// A slot is available for the core to claim iff Length > 0, meaning up to
// Length bytes may be written into Buffer. When the core claims a slot it
// rewrites Length to -bytesReceived atomically with the completion
// callback; the client re-arms the slot by writing a positive Length.
// Addr is written by the core on claim and records the decoded header.
type RecvSlot struct {
	Buffer []byte
	Length int
	Addr   uint32
}

// Config is the caller-owned configuration for a single FSM instance. It
// must remain valid for the lifetime of the process; Init only stores a
// pointer to it.
type Config struct {
	// CLKOUTGpio and DOUTGpio are opaque identifiers for the two locally
	// driven lines, passed through verbatim to SetGPIOVal.
	CLKOUTGpio GPIO
	DOUTGpio   GPIO

	// ParticipateInEnumeration and PromiscuousMode are reserved for the
	// upper-layer enumeration protocol (out of scope, §1). The FSM does
	// not consult either field.
	ParticipateInEnumeration bool
	PromiscuousMode          bool

	// BroadcastChannels is a 16-bit vector; bit k set means the node is
	// subscribed to broadcast channel k.
	BroadcastChannels uint16

	// ShortPrefix is the node's 4-bit unicast prefix (only the low nibble
	// is significant).
	ShortPrefix uint8

	// FullPrefix is the node's 24-bit long unicast prefix, right-aligned
	// in a 32-bit field; the top byte must be zero.
	FullPrefix uint32

	// SetGPIOVal sets CLKOUTGpio or DOUTGpio to the given level. Invoked
	// synchronously from within the edge handlers (interrupt context).
	SetGPIOVal func(gpio GPIO, level Level)

	// OnSendDone is invoked either synchronously from Send (BusBusy) or
	// from within an edge handler at the BEGIN_IDLE transition once the
	// buffer has been transmitted. A Send that loses arbitration, or
	// whose transaction ends with an error latched (reported through
	// OnError instead), gets no OnSendDone call.
	OnSendDone func(bytesSent int, err error)

	// OnRecv is invoked once an addressed message has been fully
	// received into one of RecvBuffers. bufIdx indexes RecvBuffers.
	OnRecv func(bufIdx int)

	// OnError is invoked when the FSM latches a fatal synch error or
	// recovers from an overflow via the interrupt-request protocol.
	OnError func(err error)

	// RecvBuffers holds the client's receive buffer slots. At least one
	// slot is required. The slice itself (its length and the Buffer
	// field of each slot) must not be mutated by the client after Init;
	// only Length and Addr are expected to change, per the RecvSlot
	// contract, and only Length is ever written by the client afterward.
	RecvBuffers []*RecvSlot
}

func (c *Config) valid() bool {
	return c != nil && len(c.RecvBuffers) > 0 && c.SetGPIOVal != nil
}
