// Package graph provides weighted graph search over any comparable node type:
// A*, bounded multi-source Dijkstra, and a frozen array form of a graph for
// repeated queries against the same terrain snapshot.
package graph

import "errors"

var (
	ErrNoPath      = errors.New("no path")
	ErrUnknownNode = errors.New("node not in graph")
)

// Graph is the capability set the search functions consume.
// MoveCost is only defined for adjacent nodes.
type Graph[N comparable] interface {
	Neighbors(n N) []N
	MoveCost(src, dst N) float64
	EstimateCost(src, dst N) float64
}

// Enumerable is a Graph that can list every node it contains.
type Enumerable[N comparable] interface {
	Graph[N]
	Nodes() []N
}

// Path is a search result: total cost and the nodes from source to destination inclusive.
type Path[N comparable] struct {
	Cost  float64
	Nodes []N
}

// Reverse returns the same path walked backwards. The cost is kept as is,
// which is only exact for graphs with symmetric edge costs.
func (p Path[N]) Reverse() Path[N] {
	nodes := make([]N, len(p.Nodes))
	for i, n := range p.Nodes {
		nodes[len(p.Nodes)-1-i] = n
	}
	return Path[N]{Cost: p.Cost, Nodes: nodes}
}

// Arrow records how a node was reached during a reachability search.
// Source nodes have HasPrev == false.
type Arrow[N comparable] struct {
	Cost    float64
	Prev    N
	HasPrev bool
}

// Reach maps every visited node to its cost and predecessor.
type Reach[N comparable] map[N]Arrow[N]

// PathTo rebuilds the path from the search source to n.
func (r Reach[N]) PathTo(n N) (Path[N], bool) {
	a, ok := r[n]
	if !ok {
		return Path[N]{}, false
	}
	nodes := []N{n}
	for cur := a; cur.HasPrev; {
		nodes = append(nodes, cur.Prev)
		cur = r[cur.Prev]
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	return Path[N]{Cost: a.Cost, Nodes: nodes}, true
}

// Set is an unordered node set. Callers that need a stable iteration order
// keep a parallel slice.
type Set[N comparable] map[N]struct{}

// NewSet builds a set from items.
func NewSet[N comparable](items ...N) Set[N] {
	s := make(Set[N], len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func (s Set[N]) Has(n N) bool {
	_, ok := s[n]
	return ok
}

func (s Set[N]) Add(n N) { s[n] = struct{}{} }

func (s Set[N]) Remove(n N) { delete(s, n) }
