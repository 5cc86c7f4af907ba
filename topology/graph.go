// Package topology builds the immutable weighted graph of the simulated
// network: nodes with optional default bandwidth, edges with latency,
// jitter and packet loss. It is read-only once loaded and is released once
// routing.RoutingInfo has been computed from it.
package topology

import (
	"bytes"
	"fmt"
	"os"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gopkg.in/yaml.v3"

	"github.com/vnetsim/vnetsim/simerrors"
)

// NodeAttrs holds the optional per-node default bandwidth.
type NodeAttrs struct {
	BandwidthDownBits uint64 `yaml:"bandwidth_down_bits,omitempty"`
	BandwidthUpBits   uint64 `yaml:"bandwidth_up_bits,omitempty"`
}

// EdgeSpec is the on-disk representation of one undirected edge.
type EdgeSpec struct {
	From       int64   `yaml:"from"`
	To         int64   `yaml:"to"`
	LatencyMs  float64 `yaml:"latency_ms"`
	JitterMs   float64 `yaml:"jitter_ms"`
	PacketLoss float64 `yaml:"packet_loss"`
}

// graphFile is the on-disk topology file format.
type graphFile struct {
	Nodes map[int64]NodeAttrs `yaml:"nodes"`
	Edges []EdgeSpec          `yaml:"edges"`
}

// EdgeAttrs holds the weighted attributes of one edge, keyed by endpoint
// node ids.
type EdgeAttrs struct {
	LatencyNs  uint64
	JitterNs   uint64
	PacketLoss float64
}

// NetworkGraph is an undirected weighted graph of simulated network nodes.
// Once built it never mutates; RoutingInfo consumes it and the controller
// then releases it.
type NetworkGraph struct {
	g     *simple.WeightedUndirectedGraph
	nodes map[int64]NodeAttrs
	edges map[[2]int64]EdgeAttrs
}

// Load reads a YAML topology file and builds a NetworkGraph from it.
// useShortestPath selects whether connectivity is required: shortest-path
// routing mode needs a single connected component, direct mode does not.
func Load(path string, useShortestPath bool) (*NetworkGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topology %s: %w", path, err)
	}

	var gf graphFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&gf); err != nil {
		return nil, fmt.Errorf("parse topology %s: %w", path, err)
	}

	return build(gf, useShortestPath)
}

func build(gf graphFile, useShortestPath bool) (*NetworkGraph, error) {
	ng := &NetworkGraph{
		g:     simple.NewWeightedUndirectedGraph(0, 0),
		nodes: make(map[int64]NodeAttrs, len(gf.Nodes)),
		edges: make(map[[2]int64]EdgeAttrs, len(gf.Edges)),
	}

	for id, attrs := range gf.Nodes {
		ng.nodes[id] = attrs
		ng.g.AddNode(simple.Node(id))
	}

	for _, e := range gf.Edges {
		if e.LatencyMs <= 0 {
			return nil, fmt.Errorf("%w: edge %d-%d has non-positive latency %v", simerrors.ErrTopology, e.From, e.To, e.LatencyMs)
		}
		if e.PacketLoss < 0 || e.PacketLoss > 1 {
			return nil, fmt.Errorf("%w: edge %d-%d has out-of-range packet loss %v", simerrors.ErrTopology, e.From, e.To, e.PacketLoss)
		}
		if ng.g.Node(e.From) == nil {
			ng.g.AddNode(simple.Node(e.From))
			ng.ensureNodeDefault(e.From)
		}
		if ng.g.Node(e.To) == nil {
			ng.g.AddNode(simple.Node(e.To))
			ng.ensureNodeDefault(e.To)
		}

		latencyNs := uint64(e.LatencyMs * 1e6)
		jitterNs := uint64(e.JitterMs * 1e6)
		key := edgeKey(e.From, e.To)
		ng.edges[key] = EdgeAttrs{LatencyNs: latencyNs, JitterNs: jitterNs, PacketLoss: e.PacketLoss}

		ng.g.SetWeightedEdge(ng.g.NewWeightedEdge(simple.Node(e.From), simple.Node(e.To), float64(latencyNs)))
	}

	if useShortestPath && !isConnected(ng.g) {
		return nil, fmt.Errorf("%w: graph is not connected", simerrors.ErrTopology)
	}

	return ng, nil
}

func (ng *NetworkGraph) ensureNodeDefault(id int64) {
	if _, ok := ng.nodes[id]; !ok {
		ng.nodes[id] = NodeAttrs{}
	}
}

func edgeKey(a, b int64) [2]int64 {
	if a < b {
		return [2]int64{a, b}
	}
	return [2]int64{b, a}
}

func isConnected(g *simple.WeightedUndirectedGraph) bool {
	nodes := graph.NodesOf(g.Nodes())
	if len(nodes) == 0 {
		return true
	}

	visited := make(map[int64]bool, len(nodes))
	stack := []int64{nodes[0].ID()}
	visited[nodes[0].ID()] = true

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		to := g.From(cur)
		for to.Next() {
			nid := to.Node().ID()
			if !visited[nid] {
				visited[nid] = true
				stack = append(stack, nid)
			}
		}
	}

	return len(visited) == len(nodes)
}

// HasNode reports whether the given graph node id exists.
func (ng *NetworkGraph) HasNode(id int64) bool {
	_, ok := ng.nodes[id]
	return ok
}

// NodeBandwidthDownBits returns the node's default downstream bandwidth, if
// any was configured.
func (ng *NetworkGraph) NodeBandwidthDownBits(id int64) (uint64, bool) {
	attrs, ok := ng.nodes[id]
	if !ok || attrs.BandwidthDownBits == 0 {
		return 0, false
	}
	return attrs.BandwidthDownBits, true
}

// NodeBandwidthUpBits returns the node's default upstream bandwidth, if any
// was configured.
func (ng *NetworkGraph) NodeBandwidthUpBits(id int64) (uint64, bool) {
	attrs, ok := ng.nodes[id]
	if !ok || attrs.BandwidthUpBits == 0 {
		return 0, false
	}
	return attrs.BandwidthUpBits, true
}

// Nodes returns every node id in the graph, in no particular order.
func (ng *NetworkGraph) Nodes() []int64 {
	ids := make([]int64, 0, len(ng.nodes))
	for id := range ng.nodes {
		ids = append(ids, id)
	}
	return ids
}

// Neighbors returns the node ids directly connected to id, along with the
// edge attributes for each, in ascending node-id order (the deterministic
// tie-break order routing.RoutingInfo's Dijkstra pass relies on).
func (ng *NetworkGraph) Neighbors(id int64) []NeighborEdge {
	to := ng.g.From(id)
	out := make([]NeighborEdge, 0)
	for to.Next() {
		nid := to.Node().ID()
		attrs := ng.edges[edgeKey(id, nid)]
		out = append(out, NeighborEdge{Node: nid, Attrs: attrs})
	}
	sortNeighbors(out)
	return out
}

// NeighborEdge pairs a neighboring node id with the edge attributes that
// connect it to the node the query was made from.
type NeighborEdge struct {
	Node  int64
	Attrs EdgeAttrs
}

func sortNeighbors(edges []NeighborEdge) {
	for i := 1; i < len(edges); i++ {
		for j := i; j > 0 && edges[j].Node < edges[j-1].Node; j-- {
			edges[j], edges[j-1] = edges[j-1], edges[j]
		}
	}
}

// MinEdgeLatencyNs returns the smallest latency, in nanoseconds, among all
// edges in the graph. Used by routing's direct mode to build a synthetic
// uniform link. Returns (0, false) for an edgeless graph.
func (ng *NetworkGraph) MinEdgeLatencyNs() (uint64, bool) {
	if len(ng.edges) == 0 {
		return 0, false
	}
	min := uint64(0)
	first := true
	for _, attrs := range ng.edges {
		if first || attrs.LatencyNs < min {
			min = attrs.LatencyNs
			first = false
		}
	}
	return min, true
}

// GlobalLossSurvivalProduct returns the product of (1 - loss) over every
// edge in the graph, used by routing's direct mode reliability model.
func (ng *NetworkGraph) GlobalLossSurvivalProduct() float64 {
	product := 1.0
	for _, attrs := range ng.edges {
		product *= 1 - attrs.PacketLoss
	}
	return product
}
