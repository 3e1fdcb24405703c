package iped

import (
	"fmt"
	"math/rand"
	"sort"

	"golang.org/x/exp/maps"
	"gonum.org/v1/gonum/stat/combin"
)

// DefaultPoolCap limits how many candidates are materialized per active
// count. Below the cap a count's combinations are enumerated exhaustively;
// above it a uniform sample of distinct combinations is drawn instead.
const DefaultPoolCap = 4096

// Candidate is one admissible task vector, tagged with its active count
// so the scheduler never recomputes popcounts in its inner loop.
type Candidate struct {
	Vector TaskVector
	Active int
}

// Pool is the deduplicated set of candidate task vectors for one study
// configuration. It is immutable after construction and safe to share
// across concurrent generation runs.
type Pool struct {
	n          int
	candidates []Candidate
	byActive   map[int]int
	space      int
	sampled    bool
}

// BuildPool materializes the candidate pool for n elements with active
// counts in [minActive, maxActive]. Counts whose combination space
// exceeds capPerCount are down-sampled through rng; rng is only consumed
// on that path, so fully enumerated pools are independent of it.
func BuildPool(n, minActive, maxActive, capPerCount int, rng *rand.Rand) (*Pool, error) {
	if minActive > maxActive {
		return nil, fmt.Errorf("min active %d exceeds max active %d: %w",
			minActive, maxActive, ErrInfeasibleDesign)
	}
	lo, hi := minActive, maxActive
	if lo < 1 {
		lo = 1
	}
	if hi > n {
		hi = n
	}
	if lo > hi {
		return nil, fmt.Errorf("active range [%d, %d] admits no candidates over %d elements: %w",
			minActive, maxActive, n, ErrInfeasibleDesign)
	}
	if capPerCount <= 0 {
		capPerCount = DefaultPoolCap
	}

	p := &Pool{n: n, byActive: make(map[int]int, hi-lo+1)}
	buf := make([]int, hi)
	for k := lo; k <= hi; k++ {
		// combin requires dst to have length exactly k.
		dst := buf[:k]
		total := combin.Binomial(n, k)
		p.space += total
		if total <= capPerCount {
			gen := combin.NewCombinationGenerator(n, k)
			for gen.Next() {
				gen.Combination(dst)
				p.add(vectorOf(dst), k)
			}
			continue
		}
		p.sampled = true
		for _, idx := range sampleDistinct(total, capPerCount, rng) {
			combin.IndexToCombination(dst, idx, n, k)
			p.add(vectorOf(dst), k)
		}
	}
	return p, nil
}

func (p *Pool) add(v TaskVector, active int) {
	p.candidates = append(p.candidates, Candidate{Vector: v, Active: active})
	p.byActive[active]++
}

// Len returns the number of candidates in the pool.
func (p *Pool) Len() int { return len(p.candidates) }

// Candidate returns the candidate at position i. Positions are stable:
// ascending active count, lexicographic combination order within a count.
func (p *Pool) Candidate(i int) Candidate { return p.candidates[i] }

// Space returns the size of the full combination space the pool was
// drawn from, before any per-count sampling.
func (p *Pool) Space() int { return p.space }

// Sampled reports whether any active count was down-sampled rather than
// exhaustively enumerated.
func (p *Pool) Sampled() bool { return p.sampled }

// ByActiveCount returns a copy of the candidate counts per active count.
func (p *Pool) ByActiveCount() map[int]int {
	return maps.Clone(p.byActive)
}

// poolNeedsSampling reports whether any admissible active count's
// combination space exceeds the cap, i.e. whether BuildPool would
// consume the rng.
func poolNeedsSampling(params Params, capPerCount int) bool {
	lo, hi := params.MinActive, params.MaxActive
	if lo < 1 {
		lo = 1
	}
	if hi > params.NumElements {
		hi = params.NumElements
	}
	for k := lo; k <= hi; k++ {
		if combin.Binomial(params.NumElements, k) > capPerCount {
			return true
		}
	}
	return false
}

// sampleDistinct draws m distinct integers from [0, total) using Floyd's
// algorithm, returned in ascending order so pool construction stays
// deterministic for a fixed rng state.
func sampleDistinct(total, m int, rng *rand.Rand) []int {
	chosen := make(map[int]struct{}, m)
	for j := total - m; j < total; j++ {
		t := rng.Intn(j + 1)
		if _, taken := chosen[t]; taken {
			chosen[j] = struct{}{}
		} else {
			chosen[t] = struct{}{}
		}
	}
	out := maps.Keys(chosen)
	sort.Ints(out)
	return out
}
