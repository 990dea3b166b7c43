package graph

import (
	"cmp"
	"container/heap"
	"math"
	"slices"
)

// Edge2D is an outgoing edge of a frozen node.
type Edge2D struct {
	Target int32
	Cost   float64
}

// Node2D is a frozen node: its projected coordinate and outgoing edges.
type Node2D struct {
	X, Y  float64
	Edges []Edge2D
}

// Arrow2D is a reachability record in index space. Prev is -1 for sources.
type Arrow2D struct {
	Prev int
	Cost float64
}

// Graph2D is a flat adjacency-array graph over dense node indices.
// EstimateCost is the Euclidean distance between node coordinates scaled by
// EstimateCostCoef.
type Graph2D struct {
	Nodes            []Node2D
	EstimateCostCoef float64
}

func (g *Graph2D) EstimateCost(src, dst int) float64 {
	a, b := &g.Nodes[src], &g.Nodes[dst]
	return math.Hypot(a.X-b.X, a.Y-b.Y) * g.EstimateCostCoef
}

// EdgeCount returns the number of directed edges.
func (g *Graph2D) EdgeCount() int {
	n := 0
	for i := range g.Nodes {
		n += len(g.Nodes[i].Edges)
	}
	return n
}

func (g *Graph2D) valid(i int) bool { return i >= 0 && i < len(g.Nodes) }

type indexEntry struct {
	idx int32
	g   float64
	f   float64
	seq int
}

type indexHeap []indexEntry

func (h indexHeap) Len() int { return len(h) }
func (h indexHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].seq < h[j].seq
}
func (h indexHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)   { *h = append(*h, x.(indexEntry)) }
func (h *indexHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// AStar returns the cost and node indices of the cheapest path from src to dst.
func (g *Graph2D) AStar(src, dst int) (float64, []int, error) {
	if !g.valid(src) || !g.valid(dst) {
		return 0, nil, ErrUnknownNode
	}
	if src == dst {
		return 0, []int{src}, nil
	}

	n := len(g.Nodes)
	gScore := make([]float64, n)
	cameFrom := make([]int32, n)
	for i := range gScore {
		gScore[i] = math.Inf(1)
		cameFrom[i] = -1
	}
	gScore[src] = 0

	h := &indexHeap{}
	heap.Push(h, indexEntry{idx: int32(src), f: g.EstimateCost(src, dst)})
	seq := 0
	for h.Len() > 0 {
		cur := heap.Pop(h).(indexEntry)
		c := int(cur.idx)
		if cur.g > gScore[c] {
			continue
		}
		if c == dst {
			return cur.g, indexPath(cameFrom, dst), nil
		}
		for _, e := range g.Nodes[c].Edges {
			t := cur.g + e.Cost
			if t >= gScore[e.Target] {
				continue
			}
			gScore[e.Target] = t
			cameFrom[e.Target] = cur.idx
			seq++
			heap.Push(h, indexEntry{idx: e.Target, g: t, f: t + g.EstimateCost(int(e.Target), dst), seq: seq})
		}
	}
	return 0, nil, ErrNoPath
}

func indexPath(cameFrom []int32, dst int) []int {
	var out []int
	for i := int32(dst); i != -1; i = cameFrom[i] {
		out = append(out, int(i))
	}
	slices.Reverse(out)
	return out
}

// Dijkstra is the index-space form of Reachable: multi-source, bounded by
// budget, over-budget nodes recorded but not expanded.
func (g *Graph2D) Dijkstra(srcs []int, budget float64) map[int]Arrow2D {
	return g.dijkstra(srcs, budget, nil)
}

func (g *Graph2D) dijkstra(srcs []int, budget float64, stopAfter map[int]bool) map[int]Arrow2D {
	n := len(g.Nodes)
	out := make(map[int]Arrow2D)
	dist := make([]float64, n)
	prev := make([]int32, n)
	settled := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}

	h := &indexHeap{}
	seq := 0
	for _, s := range srcs {
		if !g.valid(s) || dist[s] == 0 {
			continue
		}
		dist[s] = 0
		heap.Push(h, indexEntry{idx: int32(s), seq: seq})
		seq++
	}

	remaining := len(stopAfter)
	for h.Len() > 0 {
		cur := heap.Pop(h).(indexEntry)
		c := int(cur.idx)
		if settled[c] || cur.g > dist[c] {
			continue
		}
		settled[c] = true
		out[c] = Arrow2D{Prev: int(prev[c]), Cost: cur.g}

		if stopAfter != nil && stopAfter[c] {
			remaining--
			if remaining == 0 {
				break
			}
		}
		if budget-cur.g <= 0 {
			continue
		}
		for _, e := range g.Nodes[c].Edges {
			if settled[e.Target] {
				continue
			}
			t := cur.g + e.Cost
			if t >= dist[e.Target] {
				continue
			}
			dist[e.Target] = t
			prev[e.Target] = cur.idx
			heap.Push(h, indexEntry{idx: e.Target, g: t, f: t, seq: seq})
			seq++
		}
	}
	return out
}

// PathFinder answers repeated path queries about one graph.
type PathFinder[N comparable] interface {
	AStar(src, dst N) (Path[N], error)
	ShortestToMany(src N, dsts []N) map[N]Path[N]
	Reachable(src N, budget float64) Reach[N]
}

// Frozen is a Graph2D plus the mapping between caller nodes and indices.
// It is immutable once built and safe for concurrent readers.
type Frozen[N comparable] struct {
	G      *Graph2D
	origin []N
	index  map[N]int
}

// Freeze flattens g into a Graph2D. Indices are assigned by sorting nodes on
// their (x, y) coordinate, earlier Nodes() entries first on ties. Edge costs
// are copied from g, so frozen path costs equal the live graph's. Neighbors
// outside g.Nodes() are dropped.
func Freeze[N comparable](g Enumerable[N], coord func(N) (x, y float64)) *Frozen[N] {
	type keyed struct {
		node N
		x, y float64
	}
	nodes := g.Nodes()
	seen := make(map[N]bool, len(nodes))
	ks := make([]keyed, 0, len(nodes))
	for _, n := range nodes {
		if seen[n] {
			continue
		}
		seen[n] = true
		x, y := coord(n)
		ks = append(ks, keyed{node: n, x: x, y: y})
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		if c := cmp.Compare(a.x, b.x); c != 0 {
			return c
		}
		return cmp.Compare(a.y, b.y)
	})

	f := &Frozen[N]{
		G:      &Graph2D{Nodes: make([]Node2D, len(ks)), EstimateCostCoef: 1},
		origin: make([]N, len(ks)),
		index:  make(map[N]int, len(ks)),
	}
	for i, k := range ks {
		f.origin[i] = k.node
		f.index[k.node] = i
		f.G.Nodes[i].X, f.G.Nodes[i].Y = k.x, k.y
	}
	for i, n := range f.origin {
		nbs := g.Neighbors(n)
		edges := make([]Edge2D, 0, len(nbs))
		for _, nb := range nbs {
			j, ok := f.index[nb]
			if !ok {
				continue
			}
			edges = append(edges, Edge2D{Target: int32(j), Cost: g.MoveCost(n, nb)})
		}
		f.G.Nodes[i].Edges = edges
	}
	return f
}

func (f *Frozen[N]) Len() int { return len(f.origin) }

func (f *Frozen[N]) Index(n N) (int, bool) {
	i, ok := f.index[n]
	return i, ok
}

func (f *Frozen[N]) Node(i int) N { return f.origin[i] }

func (f *Frozen[N]) nodes(idx []int) []N {
	out := make([]N, len(idx))
	for k, i := range idx {
		out[k] = f.origin[i]
	}
	return out
}

func (f *Frozen[N]) AStar(src, dst N) (Path[N], error) {
	s, ok := f.index[src]
	if !ok {
		return Path[N]{}, ErrUnknownNode
	}
	d, ok := f.index[dst]
	if !ok {
		return Path[N]{}, ErrUnknownNode
	}
	cost, idx, err := f.G.AStar(s, d)
	if err != nil {
		return Path[N]{}, err
	}
	return Path[N]{Cost: cost, Nodes: f.nodes(idx)}, nil
}

func (f *Frozen[N]) ShortestToMany(src N, dsts []N) map[N]Path[N] {
	out := make(map[N]Path[N], len(dsts))
	s, ok := f.index[src]
	if !ok || len(dsts) == 0 {
		return out
	}
	want := make(map[int]bool, len(dsts))
	for _, d := range dsts {
		if i, ok := f.index[d]; ok {
			want[i] = true
		}
	}
	if len(want) == 0 {
		return out
	}
	arrows := f.G.dijkstra([]int{s}, math.Inf(1), want)
	for _, d := range dsts {
		i, ok := f.index[d]
		if !ok {
			continue
		}
		a, ok := arrows[i]
		if !ok {
			continue
		}
		var idx []int
		for j := i; j != -1; j = arrows[j].Prev {
			idx = append(idx, j)
		}
		slices.Reverse(idx)
		out[d] = Path[N]{Cost: a.Cost, Nodes: f.nodes(idx)}
	}
	return out
}

func (f *Frozen[N]) Reachable(src N, budget float64) Reach[N] {
	return f.ReachableFrom([]N{src}, budget)
}

// ReachableFrom is the multi-source form of Reachable.
func (f *Frozen[N]) ReachableFrom(srcs []N, budget float64) Reach[N] {
	idx := make([]int, 0, len(srcs))
	for _, s := range srcs {
		if i, ok := f.index[s]; ok {
			idx = append(idx, i)
		}
	}
	arrows := f.G.Dijkstra(idx, budget)
	out := make(Reach[N], len(arrows))
	for i, a := range arrows {
		r := Arrow[N]{Cost: a.Cost}
		if a.Prev >= 0 {
			r.Prev, r.HasPrev = f.origin[a.Prev], true
		}
		out[f.origin[i]] = r
	}
	return out
}

// Unfrozen is a PathFinder that searches the live graph on every call.
type Unfrozen[N comparable] struct {
	Graph Graph[N]
}

func (u Unfrozen[N]) AStar(src, dst N) (Path[N], error) { return AStar(u.Graph, src, dst) }

func (u Unfrozen[N]) ShortestToMany(src N, dsts []N) map[N]Path[N] {
	return ShortestToMany(u.Graph, src, dsts)
}

func (u Unfrozen[N]) Reachable(src N, budget float64) Reach[N] {
	return Reachable(u.Graph, []N{src}, budget)
}
