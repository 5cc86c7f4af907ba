package controller

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vnetsim/vnetsim/config"
	"github.com/vnetsim/vnetsim/simerrors"
	"github.com/vnetsim/vnetsim/simtime"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func testConfig(t *testing.T, workers int) *config.Config {
	t.Helper()
	dir := t.TempDir()
	topoPath := writeFile(t, dir, "topo.yaml", `
nodes:
  0: {bandwidth_down_bits: 1000000, bandwidth_up_bits: 500000}
  1: {bandwidth_down_bits: 1000000, bandwidth_up_bits: 500000}
edges:
  - {from: 0, to: 1, latency_ms: 5, packet_loss: 0}
`)

	return &config.Config{
		Seed:            1,
		StopTime:        1000,
		Workers:         workers,
		UseShortestPath: true,
		TopologyPath:    topoPath,
		Hosts: []config.HostOptions{
			{Name: "a", Quantity: 1, NetworkNodeID: 0},
			{Name: "b", Quantity: 1, NetworkNodeID: 1},
		},
	}
}

func TestRun_SingleThreaded_RunsToCompletion(t *testing.T) {
	c := New(testConfig(t, 0))

	err := c.Run()
	require.NoError(t, err)
	require.Equal(t, StateFinished, c.State())
	require.Equal(t, 2, c.Manager().HostCount())
}

func TestRun_FailsOnMissingTopology(t *testing.T) {
	cfg := testConfig(t, 0)
	cfg.TopologyPath = "/nonexistent/path/topo.yaml"
	c := New(cfg)

	err := c.Run()
	require.Error(t, err)
	require.Equal(t, StateFailedLoad, c.State())
}

func TestRun_FailsOnBadHostConfig(t *testing.T) {
	cfg := testConfig(t, 0)
	cfg.Hosts = append(cfg.Hosts, config.HostOptions{Name: "bad", Quantity: 1, NetworkNodeID: 99})
	c := New(cfg)

	err := c.Run()
	require.Error(t, err)
	require.Equal(t, StateFailedRegister, c.State())
}

func TestGetMinTimeJump_DefaultsAndFloor(t *testing.T) {
	cfg := testConfig(t, 0)
	cfg.Runahead = 50
	c := New(cfg)

	require.Equal(t, 50*simtime.Millisecond, c.GetMinTimeJump())
}

func TestGetMinTimeJump_UsesObservedWhenLarger(t *testing.T) {
	cfg := testConfig(t, 0)
	cfg.Runahead = 1
	c := New(cfg)
	c.minJumpTime = 20 * simtime.Millisecond

	require.Equal(t, 20*simtime.Millisecond, c.GetMinTimeJump())
}

func TestManagerFinishedCurrentRound_PanicsBeforeStart(t *testing.T) {
	c := New(testConfig(t, 1))

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		require.ErrorIs(t, err, simerrors.ErrInvariant)
	}()

	c.ManagerFinishedCurrentRound(0)
}

func TestManagerFinishedCurrentRound_AdvancesWindowAndStops(t *testing.T) {
	c := New(testConfig(t, 1))
	c.endTime = 100
	c.started = true
	c.minJumpTime = 10

	start, end, keepRunning := c.ManagerFinishedCurrentRound(0)
	require.Equal(t, simtime.Time(0), start)
	require.Equal(t, simtime.Time(10), end)
	require.True(t, keepRunning)

	start, end, keepRunning = c.ManagerFinishedCurrentRound(100)
	require.Equal(t, simtime.Time(100), start)
	require.Equal(t, simtime.Time(100), end)
	require.False(t, keepRunning)
}

func TestRequestEarlyStop_EndsAtCurrentWindowStart(t *testing.T) {
	c := New(testConfig(t, 1))
	c.endTime = 1000
	c.executeWindowStart = 42

	c.RequestEarlyStop()

	require.Equal(t, simtime.Time(42), c.endTime)
}

func TestUpdateMinTimeJump_TakesSmallestObservation(t *testing.T) {
	c := New(testConfig(t, 1))

	c.UpdateMinTimeJump(15.0)
	c.UpdateMinTimeJump(5.0)
	c.UpdateMinTimeJump(25.0)

	require.Equal(t, simtime.Time(5*simtime.Millisecond), c.nextMinJumpTime)
}

func TestRoutingQueries_AfterRun(t *testing.T) {
	c := New(testConfig(t, 0))
	require.NoError(t, c.Run())

	hostnames := c.Manager().Hostnames()
	require.Len(t, hostnames, 2)

	dns := c.GetDNS()
	ipA, ok := dns.ResolveByName("a")
	require.True(t, ok)
	ipB, ok := dns.ResolveByName("b")
	require.True(t, ok)

	require.True(t, c.IsRoutable(ipA, ipB))

	latency, err := c.GetLatency(ipA, ipB)
	require.NoError(t, err)
	require.Equal(t, 5.0, latency)

	c.IncrementPacketCount(ipA, ipB)
}
