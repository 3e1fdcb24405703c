package iped

import "gonum.org/v1/gonum/stat"

// ExposureReport summarizes study-wide element exposure, keyed by
// element identifier. CV is the coefficient of variation of the counts,
// a scale-free measure of how even the design came out.
type ExposureReport struct {
	Counts       map[string]int `json:"counts"`
	Mean         float64        `json:"mean"`
	Min          int            `json:"min"`
	Max          int            `json:"max"`
	MaxDeviation float64        `json:"max_deviation"`
	CV           float64        `json:"cv"`
}

// ExposureReport builds the exposure summary for the matrix.
func (m *StudyMatrix) ExposureReport() *ExposureReport {
	ids := m.ElementIDs()
	if len(ids) == 0 {
		return &ExposureReport{Counts: map[string]int{}}
	}

	tally := m.Exposure()
	counts := make(map[string]int, len(ids))
	xs := make([]float64, len(ids))
	lo, hi := tally.Count(0), tally.Count(0)
	for i, id := range ids {
		c := tally.Count(i)
		counts[id] = c
		xs[i] = float64(c)
		if c < lo {
			lo = c
		}
		if c > hi {
			hi = c
		}
	}

	mean := tally.Mean()
	cv := 0.0
	if mean > 0 {
		cv = stat.PopStdDev(xs, nil) / mean
	}
	return &ExposureReport{
		Counts:       counts,
		Mean:         mean,
		Min:          lo,
		Max:          hi,
		MaxDeviation: tally.MaxDeviation(),
		CV:           cv,
	}
}
