// Package controller implements the simulation core's lifecycle state
// machine: it loads the network graph and addressing, builds a Manager and
// hands it the expanded host set, computes routing, then drives bounded
// lookahead windows until the run ends. It is the only package in this
// module that owns the full simulation setup end to end.
package controller

import (
	"fmt"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/vnetsim/vnetsim/config"
	"github.com/vnetsim/vnetsim/hosts"
	"github.com/vnetsim/vnetsim/manager"
	"github.com/vnetsim/vnetsim/network"
	"github.com/vnetsim/vnetsim/routing"
	"github.com/vnetsim/vnetsim/simerrors"
	"github.com/vnetsim/vnetsim/simtime"
	"github.com/vnetsim/vnetsim/topology"
)

// State is the controller's lifecycle state.
type State int

const (
	StateCreated State = iota
	StateLoading
	StateRegistering
	StateRouting
	StateRunning
	StateFinished
	StateFailedLoad
	StateFailedRegister
	StateFailedRun
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateLoading:
		return "loading"
	case StateRegistering:
		return "registering"
	case StateRouting:
		return "routing"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	case StateFailedLoad:
		return "failed_load"
	case StateFailedRegister:
		return "failed_register"
	case StateFailedRun:
		return "failed_run"
	default:
		return "unknown"
	}
}

// referenceCPUFrequencyHz is the CPU frequency the in-module reference
// manager reports to newly registered hosts. A real manager would read this
// from the host platform.
const referenceCPUFrequencyHz = 2_400_000_000

// Controller owns the whole simulation lifecycle: configuration, the
// transient network graph, IP assignment, routing, DNS, and the
// window-advancement state. It is not safe for concurrent use except for
// the query methods documented as concurrency-safe below.
type Controller struct {
	cfg   *config.Config
	state State

	graph       *topology.NetworkGraph
	assignment  *network.IpAssignment
	routingInfo *routing.RoutingInfo
	dns         *network.DNS
	mgr         *manager.Manager

	minJumpTimeConfig simtime.Time
	minJumpTime       simtime.Time
	nextMinJumpTime   simtime.Time

	executeWindowStart simtime.Time
	executeWindowEnd   simtime.Time
	endTime            simtime.Time
	bootstrapEndTime   simtime.Time

	started bool
}

// New allocates a Controller for the given configuration. It performs no
// I/O and emits no log message — the surrounding process may not yet have a
// logger configured at this point.
func New(cfg *config.Config) *Controller {
	return &Controller{
		cfg:               cfg,
		state:             StateCreated,
		minJumpTimeConfig: cfg.GetRunahead(),
	}
}

// State returns the controller's current lifecycle state.
func (c *Controller) State() State { return c.state }

// Manager returns the manager driving this run, or nil before Run has
// created one. Exposed for tests and for callers that need to inspect what
// got registered.
func (c *Controller) Manager() *manager.Manager { return c.mgr }

// Run executes the full lifecycle: load graph and addressing, register
// hosts, compute routing, then drive the manager. It returns a non-nil
// error on any fatal condition, matching spec.md's "surface exit code 1"
// contract at the CLI layer.
func (c *Controller) Run() error {
	logrus.Info("simulation controller created")

	if err := c.load(); err != nil {
		c.state = StateFailedLoad
		return err
	}

	c.initializeTimeWindows()

	logrus.Info("registering plugins and hosts")
	c.state = StateRegistering

	c.mgr = manager.New(referenceCPUFrequencyHz, c.endTime, c.bootstrapEndTime)

	registry := hosts.NewRegistry(c.graph, c.assignment, c.dns, c.mgr)
	if err := registry.RegisterAll(c.cfg); err != nil {
		c.state = StateFailedRegister
		return fmt.Errorf("register hosts: %w", err)
	}

	logrus.Info("computing routing table")
	c.state = StateRouting
	ri, err := routing.New(c.graph, c.assignment, c.cfg.GetUseShortestPath())
	if err != nil {
		c.state = StateFailedRegister
		return fmt.Errorf("compute routing: %w", err)
	}
	c.routingInfo = ri
	// The graph is only needed to compute routing; release it now.
	c.graph = nil

	logrus.Info("running simulation")
	c.state = StateRunning
	c.started = true

	if err := c.mgr.Run(c, c.executeWindowEnd); err != nil {
		c.state = StateFailedRun
		return fmt.Errorf("run manager: %w", err)
	}

	logrus.Info("simulation finished, cleaning up now")
	c.state = StateFinished
	return nil
}

func (c *Controller) load() error {
	logrus.Info("loading and initializing simulation data")
	c.state = StateLoading

	graph, err := topology.Load(c.cfg.GetTopologyPath(), c.cfg.GetUseShortestPath())
	if err != nil {
		return fmt.Errorf("load topology: %w", err)
	}
	c.graph = graph
	c.assignment = network.New(c.cfg.GetSeed())
	c.dns = network.NewDNS()
	return nil
}

func (c *Controller) initializeTimeWindows() {
	c.endTime = c.cfg.GetStopTime()
	c.bootstrapEndTime = c.cfg.GetBootstrapEndTime()

	if c.cfg.GetWorkers() > 0 {
		c.executeWindowStart = 0
		c.executeWindowEnd = c.getMinTimeJump()
	} else {
		c.executeWindowStart = 0
		c.executeWindowEnd = simtime.Max
	}
}

// getMinTimeJump returns the lookahead currently in effect: the greater of
// the observed topology minimum (or a 10ms default if none has been
// observed yet) and the operator-configured runahead floor.
func (c *Controller) getMinTimeJump() simtime.Time {
	minJump := c.minJumpTime
	if minJump == 0 {
		minJump = 10 * simtime.Millisecond
	}
	if c.minJumpTimeConfig > 0 && minJump < c.minJumpTimeConfig {
		minJump = c.minJumpTimeConfig
	}
	return minJump
}

// GetMinTimeJump exposes getMinTimeJump to the manager and to tests.
func (c *Controller) GetMinTimeJump() simtime.Time { return c.getMinTimeJump() }

// UpdateMinTimeJump records an observed minimum path latency (in
// milliseconds) from the Manager's topology analysis. It takes effect only
// at the next window boundary via ManagerFinishedCurrentRound.
func (c *Controller) UpdateMinTimeJump(observedMinPathLatencyMs float64) {
	observedNs := simtime.Time(observedMinPathLatencyMs * float64(simtime.Millisecond))
	if c.nextMinJumpTime == 0 || observedNs < c.nextMinJumpTime {
		c.nextMinJumpTime = observedNs
	}
}

// ManagerFinishedCurrentRound commits the pending lookahead observation (if
// any), computes the next window from minNextEventTime, and reports whether
// the simulation should keep running. It must only be called from the
// Manager's single coordination goroutine, serialized with respect to
// itself and never concurrently with any other Controller entry point that
// mutates window state.
func (c *Controller) ManagerFinishedCurrentRound(minNextEventTime simtime.Time) (windowStart, windowEnd simtime.Time, keepRunning bool) {
	if !c.started {
		panic(fmt.Errorf("%w: ManagerFinishedCurrentRound called before Run", simerrors.ErrInvariant))
	}

	if c.nextMinJumpTime != 0 {
		c.minJumpTime = c.nextMinJumpTime
	}

	newStart := minNextEventTime
	newEnd := newStart + c.getMinTimeJump()
	if newEnd > c.endTime {
		newEnd = c.endTime
	}

	c.executeWindowStart = newStart
	c.executeWindowEnd = newEnd

	return newStart, newEnd, newStart < newEnd
}

// RequestEarlyStop sets endTime to the current window start, so the next
// call to ManagerFinishedCurrentRound terminates the run. Not wired to OS
// signals here; the surrounding runtime bridges signal delivery to this
// call (spec.md's commented-out signal handling, deferred per spec.md §9).
func (c *Controller) RequestEarlyStop() {
	c.endTime = c.executeWindowStart
}

// GetLatency returns the path latency from srcAddr to dstAddr, in
// milliseconds, converting from the nanosecond-precision internal value.
// IPv4 addresses are in host byte order at this API.
func (c *Controller) GetLatency(srcAddr, dstAddr net.IP) (float64, error) {
	ns, err := c.routingInfo.LatencyNs(srcAddr, dstAddr)
	if err != nil {
		return 0, err
	}
	return float64(ns) / 1_000_000.0, nil
}

// GetReliability returns the aggregate reliability from srcAddr to dstAddr.
func (c *Controller) GetReliability(srcAddr, dstAddr net.IP) (float64, error) {
	return c.routingInfo.Reliability(srcAddr, dstAddr)
}

// IsRoutable reports whether a path exists from srcAddr to dstAddr.
func (c *Controller) IsRoutable(srcAddr, dstAddr net.IP) bool {
	return c.routingInfo.IsRoutable(srcAddr, dstAddr)
}

// IncrementPacketCount increments the telemetry counter for (srcAddr,
// dstAddr). Safe for concurrent use by worker goroutines.
func (c *Controller) IncrementPacketCount(srcAddr, dstAddr net.IP) {
	c.routingInfo.IncrementPacketCount(srcAddr, dstAddr)
}

// GetDNS returns the shared DNS directory for the duration of the run.
// Callers must not mutate it.
func (c *Controller) GetDNS() *network.DNS {
	return c.dns
}

// Free releases every owned resource in reverse construction order. It
// warns if the network graph was not already released by Run's transition
// into the Routing state, which would indicate a control-flow bug.
func (c *Controller) Free() {
	c.routingInfo = nil
	c.dns = nil
	c.assignment = nil
	if c.graph != nil {
		logrus.Warn("network graph was not properly freed")
		c.graph = nil
	}
	logrus.Info("simulation controller destroyed")
}
