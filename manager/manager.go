// Package manager defines the worker/manager subsystem's contract with the
// controller core, and ships a reference implementation used by tests and
// by single-process runs. The real per-host event scheduler — batching,
// per-packet delivery, bandwidth shaping — is an external collaborator and
// out of scope here; this implementation runs every registered host with no
// internal events, enough to drive the window-advancement protocol to
// completion.
package manager

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vnetsim/vnetsim/hosts"
	"github.com/vnetsim/vnetsim/simtime"
)

// Coordinator is the Manager-facing API the controller core exposes. It is
// satisfied by *controller.Controller; defined here (rather than imported
// from package controller) so this package has no dependency on it.
type Coordinator interface {
	ManagerFinishedCurrentRound(minNextEventTime simtime.Time) (windowStart, windowEnd simtime.Time, keepRunning bool)
}

type virtualProcess struct {
	hostname    string
	path        string
	start, stop simtime.Time
	argv        []string
	environment string
}

// Manager is a minimal reference implementation of the worker/manager
// subsystem. It satisfies hosts.Manager and drives a Coordinator (such as
// *controller.Controller) through window advancement without scheduling any per-host events.
type Manager struct {
	mu        sync.Mutex
	cpuFreqHz uint64
	hostNames []string
	processes []virtualProcess

	endTime          simtime.Time
	bootstrapEndTime simtime.Time
}

// New creates a Manager with the given raw CPU frequency (as would be read
// from the host platform), end time and bootstrap end time.
func New(cpuFreqHz uint64, endTime, bootstrapEndTime simtime.Time) *Manager {
	return &Manager{
		cpuFreqHz:        cpuFreqHz,
		endTime:          endTime,
		bootstrapEndTime: bootstrapEndTime,
	}
}

// RawCPUFrequency returns the manager-reported CPU frequency new hosts
// should default to.
func (m *Manager) RawCPUFrequency() uint64 {
	return m.cpuFreqHz
}

// AddNewVirtualHost registers a host with the manager.
func (m *Manager) AddNewVirtualHost(params hosts.Parameters) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range m.hostNames {
		if name == params.Hostname {
			return fmt.Errorf("host %s already registered", params.Hostname)
		}
	}
	m.hostNames = append(m.hostNames, params.Hostname)
	return nil
}

// AddNewVirtualProcess registers a virtual process to run on hostname.
func (m *Manager) AddNewVirtualProcess(hostname, path string, start, stop simtime.Time, argv []string, environment string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	for _, name := range m.hostNames {
		if name == hostname {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("host %s not registered", hostname)
	}

	m.processes = append(m.processes, virtualProcess{
		hostname: hostname, path: path, start: start, stop: stop,
		argv: append([]string(nil), argv...), environment: environment,
	})
	return nil
}

// HostCount returns the number of hosts registered so far. Exposed for
// tests.
func (m *Manager) HostCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hostNames)
}

// Hostnames returns the registered hostnames, sorted lexically. Exposed for
// tests.
func (m *Manager) Hostnames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]string(nil), m.hostNames...)
	sort.Strings(out)
	return out
}

// ProcessCount returns the number of virtual processes registered so far.
// Exposed for tests.
func (m *Manager) ProcessCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.processes)
}

// Run drives ctrl through window advancement until it reports no more work.
// With no internal events, the reference manager reports its next event
// time as the current window's end, so each round steps the window forward
// by the controller's current lookahead until the controller reports that
// endTime has been reached.
//
// The reference manager only calls ManagerFinishedCurrentRound in
// multi-worker mode; with zero workers the controller already starts with a
// window spanning [0, SIMTIME_MAX) and there is nothing for the manager to
// report, matching scenario S1 in spec.md.
func (m *Manager) Run(ctrl Coordinator, windowEnd simtime.Time) error {
	if windowEnd == simtime.Max {
		return nil
	}

	next := windowEnd
	for {
		start, end, keepRunning := ctrl.ManagerFinishedCurrentRound(next)
		if !keepRunning {
			return nil
		}
		next = end
		_ = start
	}
}
