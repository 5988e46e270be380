package generate

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/vk/isobench/internal/graph"
)

// DefaultMaxAttempts bounds consecutive fruitless draws in SampleConnected.
const DefaultMaxAttempts = 100_000

// ErrSampleStalled is returned when the sample cannot grow, which happens
// when the requested size exceeds the component of the start node.
var ErrSampleStalled = errors.New("generate: connected sample stalled")

// SampleSize is max(1, round(fraction·n)).
func SampleSize(n int, fraction float64) int {
	return max(1, int(math.Round(fraction*float64(n))))
}

// SampleConnected grows a node set by random walk and returns the subgraph it
// induces. Each step picks a uniformly random sampled node and adds one of its
// unsampled neighbors, chosen uniformly. A step that finds no unsampled
// neighbor is retried; after maxAttempts consecutive such steps the sample
// fails with ErrSampleStalled.
func SampleConnected(g *graph.Graph, fraction float64, rng *rand.Rand, maxAttempts int) (*graph.Graph, error) {
	n := g.Order()
	if n == 0 {
		return nil, fmt.Errorf("sample: empty graph: %w", ErrInvalidParameter)
	}
	if fraction <= 0 || fraction > 1 || math.IsNaN(fraction) {
		return nil, fmt.Errorf("sample: fraction=%f not in (0,1]: %w", fraction, ErrInvalidParameter)
	}
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}

	target := SampleSize(n, fraction)
	nodes := g.Nodes()
	start := nodes[rng.IntN(n)]
	sampled := map[int64]struct{}{start: {}}
	order := []int64{start}

	misses := 0
	for len(order) < target {
		u := order[rng.IntN(len(order))]
		var candidates []int64
		for _, v := range g.Neighbors(u) {
			if _, ok := sampled[v]; !ok {
				candidates = append(candidates, v)
			}
		}
		if len(candidates) == 0 {
			misses++
			if misses >= maxAttempts {
				return nil, fmt.Errorf("sample: %d of %d nodes after %d fruitless draws: %w",
					len(order), target, misses, ErrSampleStalled)
			}
			continue
		}
		misses = 0
		v := candidates[rng.IntN(len(candidates))]
		sampled[v] = struct{}{}
		order = append(order, v)
	}
	return g.Induced(order), nil
}
