package testutil

import (
	"math"
	"math/rand"
	"slices"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/hupe1980/vamana/distance"
)

// SearchResult represents a search result.
type SearchResult struct {
	ID       uint32
	Distance float32
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Perm returns a pseudo-random permutation of [0,n).
func (r *RNG) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// UniformVectors generates random vectors with values in range [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float32()
		}
		vectors[i] = vec
	}

	return vectors
}

// UniformRangeVectors generates random vectors with values in range [-1, 1).
func (r *RNG) UniformRangeVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float32()*2 - 1
		}
		vectors[i] = vec
	}

	return vectors
}

// UnitVectors generates L2-normalized random vectors (on the hypersphere).
func (r *RNG) UnitVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]float32, num)
	buf := make([]float64, dimensions)
	for i := range num {
		for j := range buf {
			buf[j] = r.rand.NormFloat64()
		}
		norm := floats.Norm(buf, 2)
		if norm == 0 {
			norm = 1
		}
		floats.Scale(1/norm, buf)

		vec := make([]float32, dimensions)
		for j, v := range buf {
			vec[j] = float32(v)
		}
		vectors[i] = vec
	}

	return vectors
}

// ClusteredVectors generates vectors clustered around random unit centroids.
func (r *RNG) ClusteredVectors(num, dim, clusters int, spread float32) [][]float32 {
	centroids := r.UnitVectors(clusters, dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dim)
	vectors := make([][]float32, num)

	for i := range num {
		centroid := centroids[i%clusters]
		vec := data[i*dim : (i+1)*dim]
		for j := range dim {
			vec[j] = centroid[j] + float32(r.rand.NormFloat64())*spread
		}
		vectors[i] = vec
	}

	return vectors
}

// Int8Vectors generates vectors with values spread over the full int8 range.
func (r *RNG) Int8Vectors(num, dim int) [][]int8 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]int8, num)
	for i := range vectors {
		vec := make([]int8, dim)
		for j := range vec {
			vec[j] = int8(r.rand.Intn(256) - 128)
		}
		vectors[i] = vec
	}
	return vectors
}

// Uint8Vectors generates vectors with values spread over the full uint8 range.
func (r *RNG) Uint8Vectors(num, dim int) [][]uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]uint8, num)
	for i := range vectors {
		vec := make([]uint8, dim)
		for j := range vec {
			vec[j] = uint8(r.rand.Intn(256))
		}
		vectors[i] = vec
	}
	return vectors
}

// ToFloat64 widens a float32 vector for gonum.
func ToFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// BruteForceSearch returns the exact k nearest neighbors of query among
// data, computed in float64 with gonum. data[i] carries ID ids[i]; ties are
// broken by ascending ID.
func BruteForceSearch(data [][]float32, ids []uint32, query []float32, k int, metric distance.Metric) []SearchResult {
	q := ToFloat64(query)
	row := make([]float64, len(query))

	res := make([]SearchResult, len(data))
	for i, v := range data {
		for j, x := range v {
			row[j] = float64(x)
		}
		var d float64
		switch metric {
		case distance.MetricMIPS:
			d = -floats.Dot(q, row)
		default:
			d = floats.Distance(q, row, 2)
			d *= d
		}
		res[i] = SearchResult{ID: ids[i], Distance: float32(d)}
	}

	slices.SortFunc(res, func(a, b SearchResult) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return res[:min(k, len(res))]
}

// ComputeRecall computes recall@k by comparing approximate results against ground truth.
func ComputeRecall(groundTruth, approximate []SearchResult) float64 {
	if len(groundTruth) == 0 || len(approximate) == 0 {
		if len(groundTruth) == 0 && len(approximate) == 0 {
			return 1.0
		}
		return 0.0
	}

	k := min(len(approximate), len(groundTruth))

	truthSet := make(map[uint32]struct{}, k)
	for i := range k {
		truthSet[groundTruth[i].ID] = struct{}{}
	}

	hits := 0
	for _, r := range approximate {
		if _, ok := truthSet[r.ID]; ok {
			hits++
		}
	}

	return float64(hits) / float64(k)
}

// RecallAtK returns the mean recall over several queries where truth[i]
// and found[i] hold the IDs for query i.
func RecallAtK(truth, found [][]uint32, k int) float64 {
	if len(truth) == 0 {
		return math.NaN()
	}
	var sum float64
	for i := range truth {
		want := truth[i][:min(k, len(truth[i]))]
		hits := 0
		for _, id := range found[i][:min(k, len(found[i]))] {
			if slices.Contains(want, id) {
				hits++
			}
		}
		if len(want) > 0 {
			sum += float64(hits) / float64(len(want))
		}
	}
	return sum / float64(len(truth))
}

// SequentialIDs returns the IDs 1..n.
func SequentialIDs(n int) []uint32 {
	ids := make([]uint32, n)
	for i := range ids {
		ids[i] = uint32(i + 1)
	}
	return ids
}
