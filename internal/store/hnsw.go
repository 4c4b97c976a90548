package store

import (
	"errors"
	"sync"

	"github.com/coder/hnsw"

	"github.com/kozaktomas/branch-greeter/internal/descriptor"
)

// HNSW index parameters for 128-dim facial descriptors.
const (
	// hnswMaxNeighbors (M) is the maximum number of neighbors per node.
	hnswMaxNeighbors = 16

	// HNSWSearchMultiplier is the factor to request more nodes than needed so
	// that enough distinct customers remain after deduplication.
	HNSWSearchMultiplier = 3
)

// indexKey identifies one reference descriptor node in the graph.
type indexKey struct {
	CustomerID string
	Source     descriptor.Source
}

// DescriptorIndex is an in-memory HNSW graph over enrolled reference
// descriptors. It accelerates similarity search when the enrolled population
// grows; results are always re-checked with exact Euclidean distance.
type DescriptorIndex struct {
	graph  *hnsw.Graph[int]
	nodes  map[int]indexKey
	nextID int
	mu     sync.RWMutex
}

// NewDescriptorIndex creates an empty index.
func NewDescriptorIndex() *DescriptorIndex {
	return &DescriptorIndex{nodes: make(map[int]indexKey)}
}

func newGraph() *hnsw.Graph[int] {
	g := hnsw.NewGraph[int]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors) // standard HNSW formula
	g.Distance = hnsw.EuclideanDistance
	return g
}

// Build replaces the index contents with the given candidates.
func (x *DescriptorIndex) Build(candidates []descriptor.Candidate) {
	x.mu.Lock()
	defer x.mu.Unlock()

	g := newGraph()
	x.nodes = make(map[int]indexKey)
	x.nextID = 0

	for _, c := range candidates {
		x.addLocked(g, c)
	}
	x.graph = g
}

// Add inserts a newly enrolled customer's descriptors.
func (x *DescriptorIndex) Add(c descriptor.Candidate) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.graph == nil {
		x.graph = newGraph()
	}
	x.addLocked(x.graph, c)
}

func (x *DescriptorIndex) addLocked(g *hnsw.Graph[int], c descriptor.Candidate) {
	insert := func(ref descriptor.Descriptor, src descriptor.Source) {
		if len(ref) == 0 {
			return
		}
		id := x.nextID
		x.nextID++
		g.Add(hnsw.MakeNode(id, ref))
		x.nodes[id] = indexKey{CustomerID: c.CustomerID, Source: src}
	}
	insert(c.Webcam, descriptor.SourceWebcam)
	insert(c.Uploaded, descriptor.SourceUploaded)
}

// Search returns up to k distinct customer IDs nearest to the probe, with the
// exact Euclidean distance of their closest descriptor.
func (x *DescriptorIndex) Search(probe descriptor.Descriptor, k int) ([]string, []float64, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.graph == nil {
		return nil, nil, errors.New("index not initialized")
	}

	neighbors := x.graph.Search(probe, k*HNSWSearchMultiplier)

	var ids []string
	var distances []float64
	seen := make(map[string]bool)
	for _, n := range neighbors {
		key, ok := x.nodes[n.Key]
		if !ok || seen[key.CustomerID] {
			continue
		}
		dist, err := descriptor.Distance(probe, n.Value)
		if err != nil {
			return nil, nil, err
		}
		seen[key.CustomerID] = true
		ids = append(ids, key.CustomerID)
		distances = append(distances, dist)
		if len(ids) >= k {
			break
		}
	}
	return ids, distances, nil
}

// Count returns the number of indexed descriptors.
func (x *DescriptorIndex) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.nodes)
}
