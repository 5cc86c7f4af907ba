// Package config provides the typed accessors the controller core consumes.
// Parsing of the on-disk configuration file format is a thin YAML loader
// here; CLI wiring lives in cmd.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vnetsim/vnetsim/simtime"
)

// Config is the top-level simulation configuration.
type Config struct {
	Seed            int64  `yaml:"seed"`
	Runahead        uint64 `yaml:"runahead_ms"`
	StopTime        uint64 `yaml:"stop_time_ms"`
	BootstrapEnd    uint64 `yaml:"bootstrap_end_ms"`
	Workers         int    `yaml:"workers"`
	UseShortestPath bool   `yaml:"use_shortest_path"`
	LogLevel        string `yaml:"log_level"`

	TopologyPath string `yaml:"topology_path"`

	SocketSendBuffer    uint64 `yaml:"socket_send_buffer"`
	SocketRecvBuffer    uint64 `yaml:"socket_recv_buffer"`
	SocketSendAutotune  bool   `yaml:"socket_send_autotune"`
	SocketRecvAutotune  bool   `yaml:"socket_recv_autotune"`
	InterfaceBuffer     uint64 `yaml:"interface_buffer"`
	InterfaceQdisc      string `yaml:"interface_qdisc"`

	Hosts []HostOptions `yaml:"hosts"`
}

// Load reads and strictly decodes a YAML configuration file. Unknown fields
// are rejected so a typo in a config file fails loudly instead of silently
// using a default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// GetSeed returns the deterministic seed for this run's random sources.
func (c *Config) GetSeed() int64 { return c.Seed }

// GetRunahead returns the operator-configured lookahead floor, in
// nanoseconds. Zero means "unset".
func (c *Config) GetRunahead() simtime.Time { return simtime.Time(c.Runahead) * simtime.Millisecond }

// GetStopTime returns the simulation end time, in nanoseconds.
func (c *Config) GetStopTime() simtime.Time { return simtime.Time(c.StopTime) * simtime.Millisecond }

// GetBootstrapEndTime returns the end of the bootstrap phase, in
// nanoseconds.
func (c *Config) GetBootstrapEndTime() simtime.Time {
	return simtime.Time(c.BootstrapEnd) * simtime.Millisecond
}

// GetWorkers returns the configured worker count. 0 means single-threaded.
func (c *Config) GetWorkers() int { return c.Workers }

// GetUseShortestPath reports whether RoutingInfo should be built in
// shortest-path mode (true) or direct mode (false).
func (c *Config) GetUseShortestPath() bool { return c.UseShortestPath }

// GetLogLevel returns the configured log level string.
func (c *Config) GetLogLevel() string { return c.LogLevel }

// GetSocketSendBuffer returns the default per-host socket send buffer size.
func (c *Config) GetSocketSendBuffer() uint64 { return c.SocketSendBuffer }

// GetSocketRecvBuffer returns the default per-host socket recv buffer size.
func (c *Config) GetSocketRecvBuffer() uint64 { return c.SocketRecvBuffer }

// GetSocketSendAutotune reports whether send-buffer autotuning is enabled.
func (c *Config) GetSocketSendAutotune() bool { return c.SocketSendAutotune }

// GetSocketRecvAutotune reports whether recv-buffer autotuning is enabled.
func (c *Config) GetSocketRecvAutotune() bool { return c.SocketRecvAutotune }

// GetInterfaceBuffer returns the default per-host NIC interface buffer size.
func (c *Config) GetInterfaceBuffer() uint64 { return c.InterfaceBuffer }

// GetInterfaceQdisc returns the default queueing discipline name.
func (c *Config) GetInterfaceQdisc() string { return c.InterfaceQdisc }

// GetTopologyPath returns the path to the topology graph file.
func (c *Config) GetTopologyPath() string { return c.TopologyPath }

// IterHosts returns the configured host entries in declaration order. It
// replaces the source's callback-with-opaque-userdata iteration: callers
// range over the returned slice directly.
func (c *Config) IterHosts() []HostOptions {
	return c.Hosts
}
