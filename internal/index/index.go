// Package index keeps fingerprints in memory and finds the ones closest to a
// query, for near-duplicate detection across many images.
package index

import (
	"cmp"
	"errors"
	"slices"
	"sync"

	"github.com/coder/hnsw"
	"github.com/kozaktomas/imagehash/internal/fingerprint"
)

const (
	// maxNeighbors (M) is the maximum number of neighbors per graph node.
	maxNeighbors = 16

	// efSearch is the search candidate pool size.
	efSearch = 100
)

// ErrEmpty is returned when searching an index without entries.
var ErrEmpty = errors.New("index is empty")

// Neighbor is a search hit with its exact Hamming distance.
type Neighbor struct {
	Key      string `json:"key"`
	Distance int    `json:"distance"`
}

// Index is an approximate nearest-neighbour graph over grid fingerprints.
// Every bit becomes one dimension of a 0/1 vector, so the squared Euclidean
// distance of two vectors is the Hamming distance of their fingerprints.
// Hits are re-ranked by the exact Hamming distance.
type Index struct {
	graph   *hnsw.Graph[string]
	entries map[string]*fingerprint.Fingerprint
	shape   fingerprint.Shape
	mu      sync.RWMutex
}

// New creates a new empty index.
func New() *Index {
	return &Index{
		graph:   newGraph(),
		entries: make(map[string]*fingerprint.Fingerprint),
	}
}

func newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = maxNeighbors
	g.Ml = 1.0 / float64(maxNeighbors) // Standard HNSW formula
	g.EfSearch = efSearch
	g.Distance = hnsw.EuclideanDistance
	return g
}

// rebuild recreates the graph from the entries, in key order. The graph
// rejects a key it already holds, so replacing an entry goes through here.
func (ix *Index) rebuild() {
	keys := make([]string, 0, len(ix.entries))
	for k := range ix.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	nodes := make([]hnsw.Node[string], len(keys))
	for i, k := range keys {
		nodes[i] = hnsw.MakeNode(k, vector(ix.entries[k]))
	}
	ix.graph = newGraph()
	ix.graph.Add(nodes...)
}

// vector spreads the bits of fp over a float vector.
func vector(fp *fingerprint.Fingerprint) []float32 {
	v := make([]float32, 0, fp.Len())
	for _, row := range fp.Bools() {
		for _, b := range row {
			if b {
				v = append(v, 1)
			} else {
				v = append(v, 0)
			}
		}
	}
	return v
}

// Add inserts or replaces the fingerprint stored under key. All fingerprints
// of an index share the shape of the first one.
func (ix *Index) Add(key string, fp *fingerprint.Fingerprint) error {
	if fp == nil {
		return &fingerprint.ConfigurationError{Param: "fingerprint", Reason: "must not be nil"}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	_, exists := ix.entries[key]
	switch {
	case len(ix.entries) == 0, exists && len(ix.entries) == 1:
		ix.shape = fp.Shape()
	case fp.Shape() != ix.shape:
		return &fingerprint.ShapeMismatchError{A: ix.shape, B: fp.Shape()}
	}

	if exists {
		ix.entries[key] = fp
		ix.rebuild()
		return nil
	}
	ix.graph.Add(hnsw.MakeNode(key, vector(fp)))
	ix.entries[key] = fp
	return nil
}

// Get returns the fingerprint stored under key, or nil.
func (ix *Index) Get(key string) *fingerprint.Fingerprint {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.entries[key]
}

// Len returns the number of indexed fingerprints.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Keys returns the indexed keys in sorted order.
func (ix *Index) Keys() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	keys := make([]string, 0, len(ix.entries))
	for k := range ix.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Search returns up to k fingerprints closest to fp, nearest first and ties
// ordered by key.
func (ix *Index) Search(fp *fingerprint.Fingerprint, k int) ([]Neighbor, error) {
	if fp == nil {
		return nil, &fingerprint.ConfigurationError{Param: "fingerprint", Reason: "must not be nil"}
	}
	if k < 1 {
		return nil, &fingerprint.ConfigurationError{Param: "k", Reason: "must be positive"}
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.entries) == 0 {
		return nil, ErrEmpty
	}
	if fp.Shape() != ix.shape {
		return nil, &fingerprint.ShapeMismatchError{A: ix.shape, B: fp.Shape()}
	}

	nodes := ix.graph.Search(vector(fp), k)
	neighbors := make([]Neighbor, 0, len(nodes))
	for _, n := range nodes {
		stored, ok := ix.entries[n.Key]
		if !ok {
			continue
		}
		d, err := fp.Distance(stored)
		if err != nil {
			return nil, err
		}
		neighbors = append(neighbors, Neighbor{Key: n.Key, Distance: d})
	}

	slices.SortFunc(neighbors, func(a, b Neighbor) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return neighbors, nil
}

// Within returns the fingerprints at most maxDistance bits from fp among
// the k nearest candidates.
func (ix *Index) Within(fp *fingerprint.Fingerprint, maxDistance, k int) ([]Neighbor, error) {
	neighbors, err := ix.Search(fp, k)
	if err != nil {
		return nil, err
	}
	i := 0
	for i < len(neighbors) && neighbors[i].Distance <= maxDistance {
		i++
	}
	return neighbors[:i], nil
}
