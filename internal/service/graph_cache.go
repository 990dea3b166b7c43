package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexcommand/internal/metrics"
	"github.com/freeeve/hexcommand/internal/model"
	"github.com/freeeve/hexcommand/internal/planner"
	"github.com/freeeve/hexcommand/internal/repository"
	"github.com/freeeve/hexcommand/pkg/graph"
	"github.com/freeeve/hexcommand/pkg/hexmap"
	"github.com/freeeve/hexcommand/pkg/segment"
)

// DefaultGraphCacheSize is how many maps a GraphCache keeps.
const DefaultGraphCacheSize = 16

// MapEntry is one built map: the movement graph, its frozen copy and,
// once asked for, its segmentation. Unit positions must be resolved against
// Graph.Network, since frozen paths are keyed by hex identity.
type MapEntry struct {
	Fingerprint string
	Graph       *hexmap.MoveGraph
	Paths       *graph.Frozen[*hexmap.Hex]

	params   planner.Params
	mu       sync.Mutex
	segments *segment.Graph
}

// Segments divides the map on first call. A failed or canceled division is
// not remembered.
func (e *MapEntry) Segments(ctx context.Context) (*segment.Graph, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.segments != nil {
		return e.segments, nil
	}
	sg, err := planner.DivideMap(ctx, e.Graph, e.params)
	if err != nil {
		return nil, err
	}
	e.segments = sg
	return sg, nil
}

// GraphCache shares built maps between plan runs over the same terrain.
type GraphCache struct {
	cache  repository.PlanCache
	params planner.Params
	size   int

	mu      sync.Mutex
	entries map[string]*MapEntry
	order   []string
}

// NewGraphCache creates a GraphCache. cache may be nil.
func NewGraphCache(cache repository.PlanCache, params planner.Params, size int) *GraphCache {
	if size <= 0 {
		size = DefaultGraphCacheSize
	}
	return &GraphCache{
		cache:   cache,
		params:  params,
		size:    size,
		entries: make(map[string]*MapEntry),
	}
}

// Get returns the entry for sc's map, building it on a miss.
func (c *GraphCache) Get(ctx context.Context, sc *model.Scenario) (*MapEntry, error) {
	fp := sc.MapFingerprint()

	c.mu.Lock()
	if e, ok := c.entries[fp]; ok {
		c.mu.Unlock()
		metrics.GraphCache.WithLabelValues("hit").Inc()
		return e, nil
	}
	c.mu.Unlock()

	g, err := sc.BuildMap()
	if err != nil {
		return nil, err
	}
	e := &MapEntry{Fingerprint: fp, Graph: g, Paths: planner.FreezeHexes(g), params: c.params}
	metrics.GraphCache.WithLabelValues("build").Inc()

	c.mu.Lock()
	if prev, ok := c.entries[fp]; ok {
		// Another run built the same map first.
		c.mu.Unlock()
		return prev, nil
	}
	c.entries[fp] = e
	c.order = append(c.order, fp)
	if len(c.order) > c.size {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
	c.mu.Unlock()

	if c.cache != nil {
		summary := &model.GraphSummary{
			Fingerprint: fp,
			Nodes:       e.Paths.Len(),
			Edges:       e.Paths.G.EdgeCount(),
			BuiltAt:     time.Now().UTC(),
		}
		if err := c.cache.SetGraphSummary(ctx, summary); err != nil {
			log.Warn().Err(err).Str("fingerprint", fp).Msg("Failed to record graph summary")
		}
	}
	log.Debug().Str("fingerprint", fp).Int("nodes", e.Paths.Len()).Msg("Built movement graph")
	return e, nil
}

// Len returns the number of cached maps.
func (c *GraphCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
