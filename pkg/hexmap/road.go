package hexmap

// SimplifyRoad breaks the network of road class c into runs. A run starts
// and ends at a hex whose degree in that class is not 2 (an endpoint or a
// junction) and passes only through degree-2 hexes. Each run is reported
// once, from the end met first in row-major order. Closed loops made only
// of degree-2 hexes are not reported.
func (n *Network) SimplifyRoad(c EdgeCode) [][]*Hex {
	links := make(map[*Hex][]*Hex)
	for _, h := range n.nodes {
		for _, nb := range h.adjacent {
			if h.Edges[nb].ContainsRoad(c) {
				links[h] = append(links[h], nb)
			}
		}
	}

	type step struct{ from, to *Hex }
	used := make(map[step]bool)
	var runs [][]*Hex
	for _, station := range n.nodes {
		nbs := links[station]
		if len(nbs) == 0 || len(nbs) == 2 {
			continue
		}
		for _, first := range nbs {
			if used[step{station, first}] {
				continue
			}
			run := []*Hex{station, first}
			prev, cur := station, first
			for len(links[cur]) == 2 {
				next := links[cur][0]
				if next == prev {
					next = links[cur][1]
				}
				prev, cur = cur, next
				run = append(run, cur)
			}
			used[step{run[len(run)-1], run[len(run)-2]}] = true
			runs = append(runs, run)
		}
	}
	return runs
}
