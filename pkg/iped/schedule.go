package iped

import (
	"math"
	"math/rand"
	"sync"
)

// scheduler assigns tasks slot by slot, greedily picking the candidate
// that leaves the smallest worst-case exposure deviation. The global
// tally is shared across respondents; score-and-commit runs under a
// single lock so concurrent respondent streams never act on stale
// counts.
type scheduler struct {
	pool *Pool

	mu     sync.Mutex
	global *ExposureTally
}

func newScheduler(pool *Pool, numElements int) *scheduler {
	return &scheduler{pool: pool, global: NewExposureTally(numElements)}
}

// tally returns the shared global tally. Callers must not mutate it
// while respondent scheduling is still in flight.
func (s *scheduler) tally() *ExposureTally {
	return s.global
}

// scheduleRespondent selects tasks vectors for one respondent. A
// candidate is not repeated for the respondent until every pool entry
// has been used once; the pool is reused from scratch as often as the
// task count demands. Ties on the global score fall through to the
// respondent-local score, then to a uniform pick from rng.
func (s *scheduler) scheduleRespondent(tasks int, rng *rand.Rand) []TaskVector {
	local := NewExposureTally(len(s.global.counts))
	used := make([]bool, s.pool.Len())
	remaining := len(used)

	out := make([]TaskVector, 0, tasks)
	for slot := 0; slot < tasks; slot++ {
		if remaining == 0 {
			for i := range used {
				used[i] = false
			}
			remaining = len(used)
		}

		s.mu.Lock()
		best := -1
		bestGlobal, bestLocal := math.MaxInt, math.MaxInt
		ties := 0
		for i := 0; i < s.pool.Len(); i++ {
			if used[i] {
				continue
			}
			v := s.pool.Candidate(i).Vector
			g := s.global.scaledMaxDevAfter(v)
			if g > bestGlobal {
				continue
			}
			l := local.scaledMaxDevAfter(v)
			switch {
			case g < bestGlobal || l < bestLocal:
				best, bestGlobal, bestLocal, ties = i, g, l, 1
			case l == bestLocal:
				ties++
				if rng.Intn(ties) == 0 {
					best = i
				}
			}
		}
		chosen := s.pool.Candidate(best).Vector
		s.global.Add(chosen)
		s.mu.Unlock()

		local.Add(chosen)
		used[best] = true
		remaining--
		out = append(out, chosen)
	}
	return out
}
