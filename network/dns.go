package network

import (
	"fmt"
	"net"
	"sync"

	"github.com/vnetsim/vnetsim/simerrors"
)

// HostIdentity is an opaque, monotonically increasing token assigned to a
// hostname at DNS registration time.
type HostIdentity uint64

// DNS is an injective hostname <-> IPv4 map, plus an opaque identity token
// per hostname. Safe for concurrent reads once registration (a
// construction-time-only activity) is complete.
type DNS struct {
	mu        sync.RWMutex
	nameToIP  map[string]net.IP
	ipToName  map[uint32]string
	identity  map[string]HostIdentity
	nextID    HostIdentity
}

// NewDNS creates an empty DNS directory.
func NewDNS() *DNS {
	return &DNS{
		nameToIP: make(map[string]net.IP),
		ipToName: make(map[uint32]string),
		identity: make(map[string]HostIdentity),
	}
}

// Register binds hostname to ip and assigns it a fresh identity token.
func (d *DNS) Register(hostname string, ip net.IP) (HostIdentity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.nameToIP[hostname]; exists {
		return 0, fmt.Errorf("%w: hostname %s", simerrors.ErrDuplicate, hostname)
	}
	if _, exists := d.ipToName[ip4Key(ip)]; exists {
		return 0, fmt.Errorf("%w: address %s", simerrors.ErrDuplicate, ip)
	}

	d.nextID++
	id := d.nextID
	d.nameToIP[hostname] = ip
	d.ipToName[ip4Key(ip)] = hostname
	d.identity[hostname] = id
	return id, nil
}

// ResolveByName returns the IPv4 address registered for hostname.
func (d *DNS) ResolveByName(hostname string) (net.IP, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ip, ok := d.nameToIP[hostname]
	return ip, ok
}

// ResolveByIp returns the hostname registered for ip.
func (d *DNS) ResolveByIp(ip net.IP) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.ipToName[ip4Key(ip)]
	return name, ok
}

// Identity returns the opaque identity token assigned to hostname.
func (d *DNS) Identity(hostname string) (HostIdentity, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.identity[hostname]
	return id, ok
}
