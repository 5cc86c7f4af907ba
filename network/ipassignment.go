// Package network implements the simulation's addressing layer: the IPv4
// pool / graph-node binding (IpAssignment) and the hostname/IP/identity
// directory (DNS). Both span the whole lifetime of a simulation run.
package network

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math/rand"
	"net"
	"sync"

	"github.com/vnetsim/vnetsim/simerrors"
)

// reservedRanges lists the IPv4 ranges that may never be assigned to a
// simulated host: 0/8, 127/8 and 224/4 (multicast). The broadcast address
// is also reserved; isReserved checks it separately.
var reservedRanges = []struct {
	network *net.IPNet
}{
	{mustParseCIDR("0.0.0.0/8")},
	{mustParseCIDR("127.0.0.0/8")},
	{mustParseCIDR("224.0.0.0/4")},
}

func mustParseCIDR(s string) *net.IPNet {
	_, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return n
}

func isReserved(ip net.IP) bool {
	if ip.Equal(net.IPv4bcast) {
		return true
	}
	for _, r := range reservedRanges {
		if r.network.Contains(ip) {
			return true
		}
	}
	return false
}

// ip4Key reduces an IPv4 address to its canonical 32-bit key, in network
// byte order (first octet most significant), for use as a map key.
func ip4Key(ip net.IP) uint32 {
	v4 := ip.To4()
	return binary.BigEndian.Uint32(v4)
}

func keyToIP(key uint32) net.IP {
	b := make(net.IP, 4)
	binary.BigEndian.PutUint32(b, key)
	return b
}

// IpAssignment binds IPv4 addresses to graph-node ids, one-to-many in the
// node->ips direction and one-to-one in the ip->node direction.
type IpAssignment struct {
	mu        sync.RWMutex
	ipToNode  map[uint32]int64
	nodeToIPs map[int64]map[uint32]struct{}
	rng       *rand.Rand
}

// New creates an IpAssignment whose auto-allocation pool is deterministically
// seeded from the given simulation seed.
func New(seed int64) *IpAssignment {
	return &IpAssignment{
		ipToNode:  make(map[uint32]int64),
		nodeToIPs: make(map[int64]map[uint32]struct{}),
		rng:       rand.New(rand.NewSource(deriveSeed(seed, "ipassignment"))),
	}
}

// deriveSeed derives a subsystem-specific seed from the master seed so that
// IP allocation draws never interact with any other subsystem's randomness,
// even though both ultimately originate from the same configured seed.
func deriveSeed(masterSeed int64, subsystem string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(subsystem))
	return masterSeed ^ int64(h.Sum64())
}

// AssignHostWithIp binds the given graph node to the given fixed IPv4
// address.
func (a *IpAssignment) AssignHostWithIp(node int64, ip net.IP) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if isReserved(ip) {
		return fmt.Errorf("%w: %s", simerrors.ErrReservedAddress, ip)
	}
	key := ip4Key(ip)
	if _, exists := a.ipToNode[key]; exists {
		return fmt.Errorf("%w: %s", simerrors.ErrAddressInUse, ip)
	}

	a.bind(node, key)
	return nil
}

// AssignHost draws a fresh IPv4 address from the deterministic pool and
// binds it to the given graph node.
func (a *IpAssignment) AssignHost(node int64) (net.IP, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for {
		key := a.rng.Uint32()
		ip := keyToIP(key)
		if isReserved(ip) {
			continue
		}
		if _, exists := a.ipToNode[key]; exists {
			continue
		}
		a.bind(node, key)
		return ip, nil
	}
}

func (a *IpAssignment) bind(node int64, key uint32) {
	a.ipToNode[key] = node
	if a.nodeToIPs[node] == nil {
		a.nodeToIPs[node] = make(map[uint32]struct{})
	}
	a.nodeToIPs[node][key] = struct{}{}
}

// LookupNode returns the graph node the given IPv4 address is bound to.
func (a *IpAssignment) LookupNode(ip net.IP) (int64, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	node, ok := a.ipToNode[ip4Key(ip)]
	return node, ok
}

// LookupIps returns every IPv4 address bound to the given graph node.
func (a *IpAssignment) LookupIps(node int64) []net.IP {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ips := make([]net.IP, 0, len(a.nodeToIPs[node]))
	for key := range a.nodeToIPs[node] {
		ips = append(ips, keyToIP(key))
	}
	return ips
}

// AssignedNodes returns every graph node that has at least one IPv4 address
// bound to it.
func (a *IpAssignment) AssignedNodes() []int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	nodes := make([]int64, 0, len(a.nodeToIPs))
	for node := range a.nodeToIPs {
		nodes = append(nodes, node)
	}
	return nodes
}

// AllIPs returns every assigned IPv4 address across all nodes.
func (a *IpAssignment) AllIPs() []net.IP {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ips := make([]net.IP, 0, len(a.ipToNode))
	for key := range a.ipToNode {
		ips = append(ips, keyToIP(key))
	}
	return ips
}
