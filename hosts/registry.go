package hosts

import (
	"fmt"
	"net"

	"github.com/vnetsim/vnetsim/config"
	"github.com/vnetsim/vnetsim/network"
	"github.com/vnetsim/vnetsim/simerrors"
	"github.com/vnetsim/vnetsim/simtime"
	"github.com/vnetsim/vnetsim/topology"
)

// Manager is the subset of the worker/manager subsystem's contract that
// host registration needs. The real scheduler lives outside this module;
// package manager ships a reference implementation that satisfies this
// interface.
type Manager interface {
	RawCPUFrequency() uint64
	AddNewVirtualHost(params Parameters) error
	AddNewVirtualProcess(hostname, path string, start, stop simtime.Time, argv []string, environment string) error
}

// Registry expands config.HostOptions entries into concrete hosts and
// virtual processes, registering each with a Manager and recording its
// address in both an IpAssignment and a DNS directory.
type Registry struct {
	graph      *topology.NetworkGraph
	assignment *network.IpAssignment
	dns        *network.DNS
	manager    Manager
}

// NewRegistry builds a Registry over the given graph, address pool, DNS
// directory and manager.
func NewRegistry(graph *topology.NetworkGraph, assignment *network.IpAssignment, dns *network.DNS, mgr Manager) *Registry {
	return &Registry{graph: graph, assignment: assignment, dns: dns, manager: mgr}
}

// RegisterAll expands and registers every host entry in two passes: first
// every entry with a fixed IP address, then every entry without one. This
// guarantees fixed addresses are never stolen by the auto-allocator
// regardless of declaration order (spec invariant: two-pass registration).
func (r *Registry) RegisterAll(cfg *config.Config) error {
	for _, h := range cfg.IterHosts() {
		if _, ok := h.GetIPAddr(); !ok {
			continue
		}
		if err := r.registerHostGroup(cfg, &h); err != nil {
			return fmt.Errorf("register host %s: %w", h.GetName(), err)
		}
	}

	for _, h := range cfg.IterHosts() {
		if _, ok := h.GetIPAddr(); ok {
			continue
		}
		if err := r.registerHostGroup(cfg, &h); err != nil {
			return fmt.Errorf("register host %s: %w", h.GetName(), err)
		}
	}

	return nil
}

func (r *Registry) registerHostGroup(cfg *config.Config, h *config.HostOptions) error {
	ipAddr, fixed := h.GetIPAddr()
	quantity := h.GetQuantity()

	if fixed && quantity > 1 {
		return fmt.Errorf("%w: host %s has fixed address with quantity %d", simerrors.ErrAmbiguousAddress, h.GetName(), quantity)
	}

	node := int64(h.GetNetworkNodeID())
	if !r.graph.HasNode(node) {
		return fmt.Errorf("%w: node %d", simerrors.ErrNodeMissing, node)
	}

	for i := uint64(0); i < quantity; i++ {
		hostname := h.HostName(i)

		var ip net.IP
		var err error
		if fixed {
			ip = net.ParseIP(ipAddr).To4()
			if ip == nil {
				return fmt.Errorf("invalid IP address %q for host %s", ipAddr, h.GetName())
			}
			err = r.assignment.AssignHostWithIp(node, ip)
		} else {
			ip, err = r.assignment.AssignHost(node)
		}
		if err != nil {
			return err
		}

		if _, err := r.dns.Register(hostname, ip); err != nil {
			return err
		}

		bwDown, bwUp, err := r.resolveBandwidth(h, node)
		if err != nil {
			return err
		}

		pcapDir, _ := h.GetPcapDirectory()
		params := Parameters{
			Hostname:            hostname,
			IPAddr:              ip,
			CPUFrequencyHz:      r.manager.RawCPUFrequency(),
			CPUThresholdNs:      0,
			CPUPrecisionNs:      DefaultCPUPrecisionNs,
			LogLevel:            h.GetLogLevel(),
			HeartbeatLogLevel:   h.GetHeartbeatLogLevel(),
			HeartbeatLogInfo:    h.GetHeartbeatLogInfo(),
			HeartbeatInterval:   h.GetHeartbeatInterval(),
			RequestedBwDownBits: bwDown,
			RequestedBwUpBits:   bwUp,
			SocketSendBufSize:   cfg.GetSocketSendBuffer(),
			SocketRecvBufSize:   cfg.GetSocketRecvBuffer(),
			AutotuneSendBuf:     cfg.GetSocketSendAutotune(),
			AutotuneRecvBuf:     cfg.GetSocketRecvAutotune(),
			InterfaceBufSize:    cfg.GetInterfaceBuffer(),
			InterfaceQdisc:      cfg.GetInterfaceQdisc(),
			PcapDirectory:       pcapDir,
		}

		if err := r.manager.AddNewVirtualHost(params); err != nil {
			return fmt.Errorf("add virtual host %s: %w", hostname, err)
		}

		if err := r.registerProcesses(hostname, h); err != nil {
			return err
		}
	}

	return nil
}

func (r *Registry) resolveBandwidth(h *config.HostOptions, node int64) (down, up uint64, err error) {
	down, foundDown := h.GetBandwidthDown()
	if !foundDown {
		down, foundDown = r.graph.NodeBandwidthDownBits(node)
	}
	up, foundUp := h.GetBandwidthUp()
	if !foundUp {
		up, foundUp = r.graph.NodeBandwidthUpBits(node)
	}

	if !foundDown || down == 0 {
		return 0, 0, fmt.Errorf("%w: no downstream bandwidth for host %s", simerrors.ErrBandwidth, h.GetName())
	}
	if !foundUp || up == 0 {
		return 0, 0, fmt.Errorf("%w: no upstream bandwidth for host %s", simerrors.ErrBandwidth, h.GetName())
	}

	return down, up, nil
}

func (r *Registry) registerProcesses(hostname string, h *config.HostOptions) error {
	for _, proc := range h.IterProcesses() {
		path, err := proc.GetPath()
		if err != nil {
			return fmt.Errorf("%w: host %s process %s", simerrors.ErrPluginPath, hostname, proc.GetRawPath())
		}

		argv := append([]string{path}, proc.GetArgs()...)
		for i := uint64(0); i < proc.GetQuantity(); i++ {
			if err := r.manager.AddNewVirtualProcess(hostname, path, proc.GetStartTime(), proc.GetStopTime(), argv, proc.GetEnvironment()); err != nil {
				return fmt.Errorf("add virtual process %s on host %s: %w", path, hostname, err)
			}
		}
	}
	return nil
}
