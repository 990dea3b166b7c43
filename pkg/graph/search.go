package graph

import (
	"container/heap"
	"math"
)

// openEntry is a queued node. Entries are never updated in place; a better
// route pushes a new entry and the old one is skipped when popped.
type openEntry[N comparable] struct {
	node N
	g    float64 // cost from source when pushed
	f    float64 // priority
	seq  int     // insertion order, breaks f ties
}

// openHeap is a min-heap of openEntry by f, then seq.
type openHeap[N comparable] []openEntry[N]

func (h openHeap[N]) Len() int { return len(h) }
func (h openHeap[N]) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].seq < h[j].seq
}
func (h openHeap[N]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *openHeap[N]) Push(x any)   { *h = append(*h, x.(openEntry[N])) }
func (h *openHeap[N]) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// AStar finds the cheapest path from src to dst, ordering the open set by
// g + h. It returns ErrNoPath when the open set is exhausted first.
// The result is optimal when EstimateCost never overestimates.
func AStar[N comparable](g Graph[N], src, dst N) (Path[N], error) {
	if src == dst {
		return Path[N]{Nodes: []N{src}}, nil
	}

	gScore := map[N]float64{src: 0}
	cameFrom := make(map[N]N)
	h := &openHeap[N]{}
	seq := 0
	heap.Push(h, openEntry[N]{node: src, g: 0, f: g.EstimateCost(src, dst), seq: seq})

	for h.Len() > 0 {
		cur := heap.Pop(h).(openEntry[N])
		if cur.g > gScore[cur.node] {
			continue // stale
		}
		if cur.node == dst {
			return Path[N]{Cost: cur.g, Nodes: walkBack(cameFrom, src, dst)}, nil
		}
		for _, nb := range g.Neighbors(cur.node) {
			tentative := cur.g + g.MoveCost(cur.node, nb)
			if old, ok := gScore[nb]; ok && tentative >= old {
				continue
			}
			gScore[nb] = tentative
			cameFrom[nb] = cur.node
			seq++
			heap.Push(h, openEntry[N]{node: nb, g: tentative, f: tentative + g.EstimateCost(nb, dst), seq: seq})
		}
	}
	return Path[N]{}, ErrNoPath
}

func walkBack[N comparable](cameFrom map[N]N, src, dst N) []N {
	nodes := []N{dst}
	for n := dst; n != src; {
		n = cameFrom[n]
		nodes = append(nodes, n)
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	return nodes
}

// Reachable runs a multi-source Dijkstra bounded by budget. Every settled
// node is recorded with its cost and predecessor. A node whose cost reaches
// the budget is still recorded but is not expanded, so the result includes
// a ring of nodes just past the budget.
func Reachable[N comparable](g Graph[N], srcs []N, budget float64) Reach[N] {
	return dijkstra(g, srcs, budget, nil)
}

// ShortestToMany returns the cheapest path from src to every reachable node
// in dsts. Unreachable destinations are absent from the result.
func ShortestToMany[N comparable](g Graph[N], src N, dsts []N) map[N]Path[N] {
	if len(dsts) == 0 {
		return map[N]Path[N]{}
	}
	want := NewSet(dsts...)
	reach := dijkstra(g, []N{src}, math.Inf(1), want)
	out := make(map[N]Path[N], len(dsts))
	for _, d := range dsts {
		if p, ok := reach.PathTo(d); ok {
			out[d] = p
		}
	}
	return out
}

// dijkstra settles nodes in cost order. When stopAfter is non-nil the search
// ends once every node in it has been settled.
func dijkstra[N comparable](g Graph[N], srcs []N, budget float64, stopAfter Set[N]) Reach[N] {
	reach := make(Reach[N])
	dist := make(map[N]float64)
	prev := make(map[N]N)
	h := &openHeap[N]{}
	seq := 0

	for _, s := range srcs {
		if _, ok := dist[s]; ok {
			continue
		}
		dist[s] = 0
		heap.Push(h, openEntry[N]{node: s, seq: seq})
		seq++
	}

	remaining := len(stopAfter)
	for h.Len() > 0 {
		cur := heap.Pop(h).(openEntry[N])
		if _, done := reach[cur.node]; done || cur.g > dist[cur.node] {
			continue
		}
		a := Arrow[N]{Cost: cur.g}
		if p, ok := prev[cur.node]; ok {
			a.Prev, a.HasPrev = p, true
		}
		reach[cur.node] = a

		if stopAfter != nil && stopAfter.Has(cur.node) {
			remaining--
			if remaining == 0 {
				break
			}
		}
		if budget-cur.g <= 0 {
			continue
		}
		for _, nb := range g.Neighbors(cur.node) {
			if _, done := reach[nb]; done {
				continue
			}
			c := cur.g + g.MoveCost(cur.node, nb)
			if old, ok := dist[nb]; ok && c >= old {
				continue
			}
			dist[nb] = c
			prev[nb] = cur.node
			heap.Push(h, openEntry[N]{node: nb, g: c, f: c, seq: seq})
			seq++
		}
	}
	return reach
}
