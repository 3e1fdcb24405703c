// Package commands contains the command and query handlers behind the
// taskgen API. Each handler binds one operation to the generator, the
// planner, and the datastore, and maps internal failures onto typed API
// errors.
package commands

import (
	"time"

	"github.com/mindsurve/taskgen/pkg/iped"
	"github.com/mindsurve/taskgen/pkg/storage"
)

// Study is the API representation of a stored study design.
type Study struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Params       iped.Params `json:"params"`
	Seed         int64       `json:"seed"`
	Attempts     int         `json:"attempts"`
	MaxDeviation float64     `json:"max_deviation"`
	CreatedAt    time.Time   `json:"created_at"`
}

func studyFromStorage(s *storage.Study) *Study {
	return &Study{
		ID:           s.ID,
		Name:         s.Name,
		Params:       s.Params,
		Seed:         s.Seed,
		Attempts:     s.Attempts,
		MaxDeviation: s.MaxDeviation,
		CreatedAt:    s.CreatedAt,
	}
}
