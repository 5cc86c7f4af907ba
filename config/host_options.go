package config

import "fmt"

// HostOptions describes a declarative group of identical (or sequentially
// numbered) hosts to be expanded by hosts.HostRegistry.
type HostOptions struct {
	Name          string `yaml:"name"`
	Quantity      uint64 `yaml:"quantity"`
	IPAddr        string `yaml:"ip_addr,omitempty"`
	NetworkNodeID uint64 `yaml:"network_node_id"`

	LogLevel           string `yaml:"log_level"`
	HeartbeatLogLevel  string `yaml:"heartbeat_log_level"`
	HeartbeatLogInfo   string `yaml:"heartbeat_log_info"`
	HeartbeatInterval  uint64 `yaml:"heartbeat_interval_ms"`
	PcapDirectory      string `yaml:"pcap_directory,omitempty"`

	BandwidthDownBits uint64 `yaml:"bandwidth_down_bits,omitempty"`
	BandwidthUpBits   uint64 `yaml:"bandwidth_up_bits,omitempty"`

	Processes []ProcessOptions `yaml:"processes"`
}

// GetName returns the host entry's base name.
func (h *HostOptions) GetName() string { return h.Name }

// GetQuantity returns how many concrete hosts this entry expands to.
func (h *HostOptions) GetQuantity() uint64 {
	if h.Quantity == 0 {
		return 1
	}
	return h.Quantity
}

// GetIPAddr returns the fixed IP address and whether one was set.
func (h *HostOptions) GetIPAddr() (string, bool) {
	if h.IPAddr == "" {
		return "", false
	}
	return h.IPAddr, true
}

// GetNetworkNodeID returns the graph node this host (group) is attached to.
func (h *HostOptions) GetNetworkNodeID() uint64 { return h.NetworkNodeID }

// GetLogLevel returns the per-host log level.
func (h *HostOptions) GetLogLevel() string { return h.LogLevel }

// GetHeartbeatLogLevel returns the heartbeat log level.
func (h *HostOptions) GetHeartbeatLogLevel() string { return h.HeartbeatLogLevel }

// GetHeartbeatLogInfo returns the heartbeat log info string.
func (h *HostOptions) GetHeartbeatLogInfo() string { return h.HeartbeatLogInfo }

// GetHeartbeatInterval returns the heartbeat interval in milliseconds.
func (h *HostOptions) GetHeartbeatInterval() uint64 { return h.HeartbeatInterval }

// GetPcapDirectory returns the optional pcap output directory.
func (h *HostOptions) GetPcapDirectory() (string, bool) {
	if h.PcapDirectory == "" {
		return "", false
	}
	return h.PcapDirectory, true
}

// GetBandwidthDown returns the host-supplied downstream bandwidth, if any.
func (h *HostOptions) GetBandwidthDown() (uint64, bool) {
	if h.BandwidthDownBits == 0 {
		return 0, false
	}
	return h.BandwidthDownBits, true
}

// GetBandwidthUp returns the host-supplied upstream bandwidth, if any.
func (h *HostOptions) GetBandwidthUp() (uint64, bool) {
	if h.BandwidthUpBits == 0 {
		return 0, false
	}
	return h.BandwidthUpBits, true
}

// IterProcesses returns the process entries attached to this host group.
func (h *HostOptions) IterProcesses() []ProcessOptions { return h.Processes }

// HostName composes the concrete hostname for the i'th (0-based) instance of
// this host group: the bare name when quantity is 1, else name+(i+1).
func (h *HostOptions) HostName(i uint64) string {
	if h.GetQuantity() == 1 {
		return h.Name
	}
	return fmt.Sprintf("%s%d", h.Name, i+1)
}
