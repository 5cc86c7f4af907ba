// Package routing precomputes all-pairs routing data (latency, reliability,
// packet counters) from a topology.NetworkGraph and a network.IpAssignment.
// Once built it no longer needs the graph; reads and packet-count increments
// are safe for concurrent use by worker goroutines.
package routing

import (
	"container/heap"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/vnetsim/vnetsim/network"
	"github.com/vnetsim/vnetsim/simerrors"
	"github.com/vnetsim/vnetsim/topology"
)

type pairKey [2]uint32

func makePairKey(src, dst uint32) pairKey {
	return pairKey{src, dst}
}

// pathInfo holds the precomputed routing data for one ordered address pair.
type pathInfo struct {
	latencyNs   uint64
	reliability float64
	packets     uint64 // accessed only via atomic operations
}

// RoutingInfo is the all-pairs routing table computed once at simulation
// setup. Keys are IPv4 addresses in network byte order, matching the
// source's convention of normalising at this layer while the public
// Controller API stays in host byte order.
type RoutingInfo struct {
	mu    sync.RWMutex
	paths map[pairKey]*pathInfo
}

// New builds RoutingInfo from graph and assignment. When useShortestPath is
// true, it runs a deterministic Dijkstra from every node hosting an
// assigned IP; otherwise every routable pair is given the graph's single
// global-minimum-latency synthetic link (direct mode).
func New(graph *topology.NetworkGraph, assignment *network.IpAssignment, useShortestPath bool) (*RoutingInfo, error) {
	if useShortestPath {
		return newShortestPath(graph, assignment)
	}
	return newDirect(graph, assignment)
}

func newDirect(graph *topology.NetworkGraph, assignment *network.IpAssignment) (*RoutingInfo, error) {
	minLatency, ok := graph.MinEdgeLatencyNs()
	if !ok {
		return nil, fmt.Errorf("%w: graph has no edges for direct routing mode", simerrors.ErrTopology)
	}
	reliability := graph.GlobalLossSurvivalProduct()

	ri := &RoutingInfo{paths: make(map[pairKey]*pathInfo)}
	ips := assignment.AllIPs()
	for _, src := range ips {
		for _, dst := range ips {
			if src.Equal(dst) {
				continue
			}
			ri.paths[makePairKey(toNetworkOrder(src), toNetworkOrder(dst))] = &pathInfo{
				latencyNs:   minLatency,
				reliability: reliability,
			}
		}
	}
	return ri, nil
}

func newShortestPath(graph *topology.NetworkGraph, assignment *network.IpAssignment) (*RoutingInfo, error) {
	ri := &RoutingInfo{paths: make(map[pairKey]*pathInfo)}

	sourceNodes := assignment.AssignedNodes()
	nodeResults := make(map[int64]map[int64]dijkstraResult, len(sourceNodes))
	for _, src := range sourceNodes {
		nodeResults[src] = dijkstra(graph, src)
	}

	for _, srcNode := range sourceNodes {
		srcIPs := assignment.LookupIps(srcNode)
		results := nodeResults[srcNode]
		for dstNode, res := range results {
			if dstNode == srcNode {
				continue
			}
			dstIPs := assignment.LookupIps(dstNode)
			for _, srcIP := range srcIPs {
				for _, dstIP := range dstIPs {
					ri.paths[makePairKey(toNetworkOrder(srcIP), toNetworkOrder(dstIP))] = &pathInfo{
						latencyNs:   res.latencyNs,
						reliability: res.reliability,
					}
				}
			}
		}
	}

	return ri, nil
}

func toNetworkOrder(ip net.IP) uint32 {
	v4 := ip.To4()
	return uint32(v4[0])<<24 | uint32(v4[1])<<16 | uint32(v4[2])<<8 | uint32(v4[3])
}

// dijkstraResult is the per-destination outcome of a single-source Dijkstra
// run: cumulative latency in ns and cumulative reliability.
type dijkstraResult struct {
	latencyNs   uint64
	reliability float64
}

// heapItem is one entry in the Dijkstra priority queue.
type heapItem struct {
	node        int64
	latencyNs   uint64
	reliability float64
}

type dijkstraHeap []heapItem

func (h dijkstraHeap) Len() int { return len(h) }

// Less pins the tie-break: lower cumulative latency first, then lower node
// id — this is what makes the computed shortest paths bit-reproducible
// across runs regardless of map iteration order upstream.
func (h dijkstraHeap) Less(i, j int) bool {
	if h[i].latencyNs != h[j].latencyNs {
		return h[i].latencyNs < h[j].latencyNs
	}
	return h[i].node < h[j].node
}

func (h dijkstraHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *dijkstraHeap) Push(x interface{}) { *h = append(*h, x.(heapItem)) }

func (h *dijkstraHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// dijkstra runs a single-source shortest-path search from src over graph,
// weighted by edge latency, with reliability accumulated as the product of
// per-hop survival probabilities along the winning path. Ties in cumulative
// latency are broken by the lower neighbor id, per the pinned ordering the
// routing table's determinism depends on.
func dijkstra(graph *topology.NetworkGraph, src int64) map[int64]dijkstraResult {
	results := make(map[int64]dijkstraResult)
	visited := make(map[int64]bool)

	h := &dijkstraHeap{{node: src, latencyNs: 0, reliability: 1.0}}
	heap.Init(h)

	for h.Len() > 0 {
		cur := heap.Pop(h).(heapItem)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true
		if cur.node != src {
			results[cur.node] = dijkstraResult{latencyNs: cur.latencyNs, reliability: cur.reliability}
		}

		for _, nb := range graph.Neighbors(cur.node) {
			if visited[nb.Node] {
				continue
			}
			heap.Push(h, heapItem{
				node:        nb.Node,
				latencyNs:   cur.latencyNs + nb.Attrs.LatencyNs,
				reliability: cur.reliability * (1 - nb.Attrs.PacketLoss),
			})
		}
	}

	return results
}

// LatencyNs returns the path latency from src to dst, in nanoseconds.
func (ri *RoutingInfo) LatencyNs(src, dst net.IP) (uint64, error) {
	p, ok := ri.lookup(src, dst)
	if !ok {
		return 0, fmt.Errorf("%w: %s -> %s", simerrors.ErrUnroutable, src, dst)
	}
	return p.latencyNs, nil
}

// Reliability returns the aggregate reliability from src to dst.
func (ri *RoutingInfo) Reliability(src, dst net.IP) (float64, error) {
	p, ok := ri.lookup(src, dst)
	if !ok {
		return 0, fmt.Errorf("%w: %s -> %s", simerrors.ErrUnroutable, src, dst)
	}
	return p.reliability, nil
}

// IsRoutable reports whether a path exists from src to dst.
func (ri *RoutingInfo) IsRoutable(src, dst net.IP) bool {
	_, ok := ri.lookup(src, dst)
	return ok
}

// IncrementPacketCount atomically increments the telemetry counter for the
// (src, dst) pair. A no-op if the pair is unroutable.
func (ri *RoutingInfo) IncrementPacketCount(src, dst net.IP) {
	p, ok := ri.lookup(src, dst)
	if !ok {
		return
	}
	atomic.AddUint64(&p.packets, 1)
}

// PacketCount returns the current telemetry counter for the (src, dst) pair.
func (ri *RoutingInfo) PacketCount(src, dst net.IP) uint64 {
	p, ok := ri.lookup(src, dst)
	if !ok {
		return 0
	}
	return atomic.LoadUint64(&p.packets)
}

func (ri *RoutingInfo) lookup(src, dst net.IP) (*pathInfo, bool) {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	p, ok := ri.paths[makePairKey(toNetworkOrder(src), toNetworkOrder(dst))]
	return p, ok
}
