// Package nodeconfig loads the static, slowly-changing half of an
// mbus.Config (address prefixes, broadcast subscriptions, receive buffer
// sizing) from an INI file, leaving the GPIO wiring and callbacks to be
// filled in by the platform layer.
package nodeconfig

import (
	"fmt"
	"strconv"

	"github.com/ringbus/mbus"
	"gopkg.in/ini.v1"
)

// NodeConfig is the parsed contents of a node's INI file.
type NodeConfig struct {
	ShortPrefix              uint8
	FullPrefix               uint32
	BroadcastChannels        uint16
	ParticipateInEnumeration bool
	PromiscuousMode          bool
	RecvBufferSizes          []int
}

// Load reads path and returns the parsed node configuration. The file is
// expected to carry a single [node] section:
//
//	[node]
//	short_prefix = 0x3
//	full_prefix  = 0xabcdef
//	broadcast_channels = 0x0021
//	participate_in_enumeration = true
//	promiscuous_mode = false
//	recv_buffer_sizes = 64,64,256
func Load(path string) (*NodeConfig, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("nodeconfig: %w", err)
	}
	return parse(f)
}

func parse(f *ini.File) (*NodeConfig, error) {
	section := f.Section("node")

	shortPrefix, err := strconv.ParseUint(section.Key("short_prefix").String(), 0, 8)
	if err != nil {
		return nil, fmt.Errorf("nodeconfig: short_prefix: %w", err)
	}
	fullPrefix, err := strconv.ParseUint(section.Key("full_prefix").String(), 0, 32)
	if err != nil {
		return nil, fmt.Errorf("nodeconfig: full_prefix: %w", err)
	}
	broadcast, err := strconv.ParseUint(section.Key("broadcast_channels").String(), 0, 16)
	if err != nil {
		return nil, fmt.Errorf("nodeconfig: broadcast_channels: %w", err)
	}

	sizes, err := section.Key("recv_buffer_sizes").Ints(",")
	if err != nil {
		return nil, fmt.Errorf("nodeconfig: recv_buffer_sizes: %w", err)
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("nodeconfig: recv_buffer_sizes must list at least one slot")
	}

	return &NodeConfig{
		ShortPrefix:              uint8(shortPrefix),
		FullPrefix:               uint32(fullPrefix),
		BroadcastChannels:        uint16(broadcast),
		ParticipateInEnumeration: section.Key("participate_in_enumeration").MustBool(false),
		PromiscuousMode:          section.Key("promiscuous_mode").MustBool(false),
		RecvBufferSizes:          sizes,
	}, nil
}

// Apply allocates RecvBuffers per RecvBufferSizes and fills cfg's static
// fields. GPIO identifiers, SetGPIOVal, and the three callbacks are left
// untouched — the caller (typically a platform shim) sets those.
func (n *NodeConfig) Apply(cfg *mbus.Config) {
	cfg.ShortPrefix = n.ShortPrefix
	cfg.FullPrefix = n.FullPrefix
	cfg.BroadcastChannels = n.BroadcastChannels
	cfg.ParticipateInEnumeration = n.ParticipateInEnumeration
	cfg.PromiscuousMode = n.PromiscuousMode

	cfg.RecvBuffers = make([]*mbus.RecvSlot, len(n.RecvBufferSizes))
	for i, size := range n.RecvBufferSizes {
		cfg.RecvBuffers[i] = &mbus.RecvSlot{Buffer: make([]byte, size), Length: size}
	}
}
