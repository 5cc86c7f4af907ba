package hosts

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/vnetsim/vnetsim/config"
	"github.com/vnetsim/vnetsim/network"
	"github.com/vnetsim/vnetsim/simerrors"
	"github.com/vnetsim/vnetsim/simtime"
	"github.com/vnetsim/vnetsim/topology"
)

// fakeManager records registrations in declaration order, without scheduling
// any events, so registry behavior can be asserted directly.
type fakeManager struct {
	cpuFreq   uint64
	hosts     []Parameters
	processes []string
}

func (m *fakeManager) RawCPUFrequency() uint64 { return m.cpuFreq }

func (m *fakeManager) AddNewVirtualHost(params Parameters) error {
	m.hosts = append(m.hosts, params)
	return nil
}

func (m *fakeManager) AddNewVirtualProcess(hostname, path string, start, stop simtime.Time, argv []string, environment string) error {
	m.processes = append(m.processes, hostname+":"+path)
	return nil
}

func loadTestGraph(t *testing.T) *topology.NetworkGraph {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "topo.yaml")
	contents := `
nodes:
  0: {bandwidth_down_bits: 1000000, bandwidth_up_bits: 500000}
  1: {bandwidth_down_bits: 1000000, bandwidth_up_bits: 500000}
edges:
  - {from: 0, to: 1, latency_ms: 10, packet_loss: 0}
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	g, err := topology.Load(path, true)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestRegisterAll_FixedBeforeAuto(t *testing.T) {
	g := loadTestGraph(t)
	assignment := network.New(1)
	dns := network.NewDNS()
	mgr := &fakeManager{cpuFreq: 2_000_000_000}
	r := NewRegistry(g, assignment, dns, mgr)

	fixedIP := net.ParseIP("10.0.0.9").To4()
	cfg := &config.Config{
		Hosts: []config.HostOptions{
			{Name: "auto", Quantity: 5, NetworkNodeID: 1},
			{Name: "fixed", Quantity: 1, NetworkNodeID: 0, IPAddr: fixedIP.String()},
		},
	}

	if err := r.RegisterAll(cfg); err != nil {
		t.Fatalf("RegisterAll() error = %v", err)
	}

	node, ok := assignment.LookupNode(fixedIP)
	if !ok || node != 0 {
		t.Fatalf("LookupNode(fixedIP) = (%d, %v), want (0, true)", node, ok)
	}
	if len(mgr.hosts) != 6 {
		t.Fatalf("len(hosts) = %d, want 6", len(mgr.hosts))
	}
}

func TestRegisterAll_RejectsFixedIPWithQuantityGreaterThanOne(t *testing.T) {
	g := loadTestGraph(t)
	assignment := network.New(1)
	dns := network.NewDNS()
	mgr := &fakeManager{}
	r := NewRegistry(g, assignment, dns, mgr)

	cfg := &config.Config{
		Hosts: []config.HostOptions{
			{Name: "bad", Quantity: 2, NetworkNodeID: 0, IPAddr: "10.0.0.9"},
		},
	}

	err := r.RegisterAll(cfg)
	if !errors.Is(err, simerrors.ErrAmbiguousAddress) {
		t.Fatalf("error = %v, want ErrAmbiguousAddress", err)
	}
}

func TestRegisterAll_RejectsMissingNode(t *testing.T) {
	g := loadTestGraph(t)
	assignment := network.New(1)
	dns := network.NewDNS()
	mgr := &fakeManager{}
	r := NewRegistry(g, assignment, dns, mgr)

	cfg := &config.Config{
		Hosts: []config.HostOptions{
			{Name: "ghost", Quantity: 1, NetworkNodeID: 99},
		},
	}

	err := r.RegisterAll(cfg)
	if !errors.Is(err, simerrors.ErrNodeMissing) {
		t.Fatalf("error = %v, want ErrNodeMissing", err)
	}
}

func TestRegisterAll_RejectsMissingBandwidth(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topo.yaml")
	contents := `
nodes:
  0: {}
edges: []
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	g, err := topology.Load(path, false)
	if err != nil {
		t.Fatal(err)
	}

	assignment := network.New(1)
	dns := network.NewDNS()
	mgr := &fakeManager{}
	r := NewRegistry(g, assignment, dns, mgr)

	cfg := &config.Config{
		Hosts: []config.HostOptions{
			{Name: "nobw", Quantity: 1, NetworkNodeID: 0},
		},
	}

	err = r.RegisterAll(cfg)
	if !errors.Is(err, simerrors.ErrBandwidth) {
		t.Fatalf("error = %v, want ErrBandwidth", err)
	}
}

func TestRegisterAll_NumberedHostnames(t *testing.T) {
	g := loadTestGraph(t)
	assignment := network.New(1)
	dns := network.NewDNS()
	mgr := &fakeManager{}
	r := NewRegistry(g, assignment, dns, mgr)

	cfg := &config.Config{
		Hosts: []config.HostOptions{
			{Name: "worker", Quantity: 3, NetworkNodeID: 0},
		},
	}

	if err := r.RegisterAll(cfg); err != nil {
		t.Fatalf("RegisterAll() error = %v", err)
	}

	names := make(map[string]bool)
	for _, p := range mgr.hosts {
		names[p.Hostname] = true
	}
	for _, want := range []string{"worker1", "worker2", "worker3"} {
		if !names[want] {
			t.Fatalf("missing expected hostname %q, got %v", want, names)
		}
	}
}

func TestRegisterAll_RegistersProcesses(t *testing.T) {
	g := loadTestGraph(t)
	assignment := network.New(1)
	dns := network.NewDNS()
	mgr := &fakeManager{}
	r := NewRegistry(g, assignment, dns, mgr)

	cfg := &config.Config{
		Hosts: []config.HostOptions{
			{
				Name: "srv", Quantity: 1, NetworkNodeID: 0,
				Processes: []config.ProcessOptions{
					{RawPath: "sh", Quantity: 1},
				},
			},
		},
	}

	if err := r.RegisterAll(cfg); err != nil {
		t.Fatalf("RegisterAll() error = %v", err)
	}
	if len(mgr.processes) != 1 {
		t.Fatalf("len(processes) = %d, want 1", len(mgr.processes))
	}
}
