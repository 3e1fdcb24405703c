package commands

import (
	"context"

	"github.com/mindsurve/taskgen/pkg/logger"
	"github.com/mindsurve/taskgen/pkg/plan"
	serverErrors "github.com/mindsurve/taskgen/pkg/server/errors"
)

// Default active bounds applied when a plan request leaves them unset.
// Each task then shows between two and four elements at once, capped by
// the element count itself.
const (
	DefaultPlanMinActive = 2
	DefaultPlanMaxActive = 4
)

// PlanDesignRequest sizes a study for an element count. MinActive and
// MaxActive are optional; zero values take the defaults above.
type PlanDesignRequest struct {
	NumElements int `json:"num_elements"`
	MinActive   int `json:"min_active,omitempty"`
	MaxActive   int `json:"max_active,omitempty"`
}

// PlanDesignResponse echoes the effective bounds and returns the
// recommended task count alongside the full exposure plan.
type PlanDesignResponse struct {
	NumElements      int        `json:"num_elements"`
	MinActive        int        `json:"min_active"`
	MaxActive        int        `json:"max_active"`
	RecommendedTasks int        `json:"recommended_tasks"`
	Plan             *plan.Plan `json:"plan"`
}

// PlanDesignQuery computes an exposure plan. It is pure arithmetic and
// touches no datastore.
type PlanDesignQuery struct {
	logger logger.Logger
}

// PlanDesignQueryOption is a functional option for PlanDesignQuery.
type PlanDesignQueryOption func(*PlanDesignQuery)

// WithPlanDesignQueryLogger overrides the default noop logger.
func WithPlanDesignQueryLogger(l logger.Logger) PlanDesignQueryOption {
	return func(q *PlanDesignQuery) {
		q.logger = l
	}
}

// NewPlanDesignQuery returns a plan query.
func NewPlanDesignQuery(opts ...PlanDesignQueryOption) *PlanDesignQuery {
	query := &PlanDesignQuery{
		logger: logger.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(query)
	}
	return query
}

// Execute builds the exposure plan for the requested element count and
// active bounds.
func (q *PlanDesignQuery) Execute(ctx context.Context, req *PlanDesignRequest) (*PlanDesignResponse, error) {
	minActive := req.MinActive
	if minActive == 0 {
		minActive = DefaultPlanMinActive
	}
	maxActive := req.MaxActive
	if maxActive == 0 {
		maxActive = min(DefaultPlanMaxActive, req.NumElements)
	}

	p, err := plan.Build(req.NumElements, minActive, maxActive)
	if err != nil {
		return nil, serverErrors.HandleGenerationError(err)
	}

	return &PlanDesignResponse{
		NumElements:      req.NumElements,
		MinActive:        minActive,
		MaxActive:        maxActive,
		RecommendedTasks: plan.RecommendedTasks(req.NumElements),
		Plan:             p,
	}, nil
}
