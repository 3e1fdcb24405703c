package iped

import "math"

// ExposureTally accumulates per-element exposure counts as tasks are
// selected. The scheduler keeps one global tally across the study and a
// local one per respondent, and scores every candidate against both.
type ExposureTally struct {
	counts []int
	total  int
}

// NewExposureTally returns an empty tally over n elements.
func NewExposureTally(n int) *ExposureTally {
	return &ExposureTally{counts: make([]int, n)}
}

// Add records one selected task.
func (t *ExposureTally) Add(v TaskVector) {
	for i := range t.counts {
		if v.Has(i) {
			t.counts[i]++
			t.total++
		}
	}
}

// Count returns the exposure count of element i.
func (t *ExposureTally) Count(i int) int { return t.counts[i] }

// Counts returns a copy of the per-element exposure counts.
func (t *ExposureTally) Counts() []int {
	out := make([]int, len(t.counts))
	copy(out, t.counts)
	return out
}

// Total returns the sum of all exposure counts.
func (t *ExposureTally) Total() int { return t.total }

// Mean returns the mean exposure count across elements.
func (t *ExposureTally) Mean() float64 {
	return float64(t.total) / float64(len(t.counts))
}

// MaxDeviation returns the largest absolute difference between any
// element's count and the mean.
func (t *ExposureTally) MaxDeviation() float64 {
	return float64(t.scaledMaxDev()) / float64(len(t.counts))
}

// scaledMaxDev returns max_i |n*count_i - total|, the maximum deviation
// scaled by the element count. Working scaled keeps every comparison the
// scheduler makes an exact integer comparison.
func (t *ExposureTally) scaledMaxDev() int {
	n := len(t.counts)
	worst := 0
	for _, c := range t.counts {
		d := n*c - t.total
		if d < 0 {
			d = -d
		}
		if d > worst {
			worst = d
		}
	}
	return worst
}

// scaledMaxDevAfter returns what scaledMaxDev would be if v were added,
// without mutating the tally.
func (t *ExposureTally) scaledMaxDevAfter(v TaskVector) int {
	n := len(t.counts)
	total := t.total + v.ActiveCount()
	worst := 0
	for i, c := range t.counts {
		if v.Has(i) {
			c++
		}
		d := n*c - total
		if d < 0 {
			d = -d
		}
		if d > worst {
			worst = d
		}
	}
	return worst
}

// Tolerance bounds how far any single element's exposure count may sit
// from the mean before a matrix is considered unbalanced. The allowed
// deviation is the larger of Slack and Pct of the mean, so that small
// studies whose integer counts cannot land within a percentage band are
// still accepted.
type Tolerance struct {
	Pct   float64 `json:"pct"`
	Slack float64 `json:"slack"`
}

// DefaultTolerance accepts deviations up to 10% of the mean exposure,
// with an absolute floor of one exposure.
var DefaultTolerance = Tolerance{Pct: 0.10, Slack: 1.0}

// Allowed returns the deviation permitted at the given mean exposure.
func (t Tolerance) Allowed(mean float64) float64 {
	return math.Max(t.Slack, t.Pct*mean)
}

// Check reports whether the tally's exposure counts sit within tolerance.
func (t Tolerance) Check(tally *ExposureTally) bool {
	return tally.MaxDeviation() <= t.Allowed(tally.Mean())
}
