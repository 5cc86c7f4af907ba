package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
seed: 1
runahead_ms: 5
stop_time_ms: 1000
bootstrap_end_ms: 0
workers: 0
use_shortest_path: true
log_level: info
topology_path: topo.yaml
hosts:
  - name: A
    quantity: 1
    network_node_id: 0
    bandwidth_down_bits: 1000000
    bandwidth_up_bits: 1000000
  - name: B
    quantity: 10
    network_node_id: 1
    bandwidth_down_bits: 1000000
    bandwidth_up_bits: 1000000
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_RoundTrips(t *testing.T) {
	path := writeTempConfig(t, sampleConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.EqualValues(t, 1, cfg.GetSeed())
	assert.Equal(t, uint64(5_000_000), cfg.GetRunahead())
	assert.Equal(t, uint64(1_000_000_000), cfg.GetStopTime())
	assert.True(t, cfg.GetUseShortestPath())
	assert.Len(t, cfg.IterHosts(), 2)
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	path := writeTempConfig(t, sampleConfig+"\nbogus_field: true\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestHostOptions_HostName(t *testing.T) {
	single := HostOptions{Name: "A", Quantity: 1}
	assert.Equal(t, "A", single.HostName(0))

	multi := HostOptions{Name: "B", Quantity: 10}
	assert.Equal(t, "B1", multi.HostName(0))
	assert.Equal(t, "B10", multi.HostName(9))
}

func TestHostOptions_GetQuantityDefaultsToOne(t *testing.T) {
	h := HostOptions{Name: "A"}
	assert.Equal(t, uint64(1), h.GetQuantity())
}

func TestHostOptions_GetIPAddr(t *testing.T) {
	h := HostOptions{IPAddr: "10.0.0.5"}
	ip, ok := h.GetIPAddr()
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.5", ip)

	none := HostOptions{}
	_, ok = none.GetIPAddr()
	assert.False(t, ok)
}

func TestProcessOptions_GetPathFailsForUnknownBinary(t *testing.T) {
	p := ProcessOptions{RawPath: "definitely-not-a-real-binary-xyz"}
	_, err := p.GetPath()
	require.Error(t, err)
}

func TestProcessOptions_QuantityDefaultsToOne(t *testing.T) {
	p := ProcessOptions{}
	assert.Equal(t, uint64(1), p.GetQuantity())
}
