package commands

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	serverErrors "github.com/mindsurve/taskgen/pkg/server/errors"
)

func TestPlanDesign(t *testing.T) {
	t.Run("applies_default_bounds", func(t *testing.T) {
		resp, err := NewPlanDesignQuery().Execute(context.Background(), &PlanDesignRequest{
			NumElements: 8,
		})
		require.NoError(t, err)
		require.Equal(t, DefaultPlanMinActive, resp.MinActive)
		require.Equal(t, DefaultPlanMaxActive, resp.MaxActive)
		require.Equal(t, 14, resp.RecommendedTasks)
		require.Equal(t, 9, resp.Plan.TasksPerRespondent)
		require.Equal(t, 3, resp.Plan.ExposuresPerElement)
		require.Equal(t, 154, resp.Plan.Capacity)
	})

	t.Run("caps_the_default_max_at_the_element_count", func(t *testing.T) {
		resp, err := NewPlanDesignQuery().Execute(context.Background(), &PlanDesignRequest{
			NumElements: 3,
		})
		require.Nil(t, resp)

		// With the cap the default bounds stay valid for three elements,
		// so the failure is the tiny pattern capacity, not the bounds.
		var apiErr *serverErrors.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, serverErrors.CodeInfeasibleDesign, apiErr.CodeString())
	})

	t.Run("honors_explicit_bounds", func(t *testing.T) {
		resp, err := NewPlanDesignQuery().Execute(context.Background(), &PlanDesignRequest{
			NumElements: 12,
			MinActive:   3,
			MaxActive:   5,
		})
		require.NoError(t, err)
		require.Equal(t, 3, resp.MinActive)
		require.Equal(t, 5, resp.MaxActive)
		require.Positive(t, resp.Plan.TasksPerRespondent)
	})

	t.Run("fails_if_bounds_invalid", func(t *testing.T) {
		resp, err := NewPlanDesignQuery().Execute(context.Background(), &PlanDesignRequest{
			NumElements: 8,
			MinActive:   5,
			MaxActive:   3,
		})
		require.Nil(t, resp)

		var apiErr *serverErrors.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusBadRequest, apiErr.HTTPStatusCode())
		require.Equal(t, serverErrors.CodeInvalidConfiguration, apiErr.CodeString())
	})

	t.Run("fails_if_capacity_is_exhausted", func(t *testing.T) {
		resp, err := NewPlanDesignQuery().Execute(context.Background(), &PlanDesignRequest{
			NumElements: 4,
			MinActive:   1,
			MaxActive:   1,
		})
		require.Nil(t, resp)

		var apiErr *serverErrors.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusUnprocessableEntity, apiErr.HTTPStatusCode())
		require.Equal(t, serverErrors.CodeInfeasibleDesign, apiErr.CodeString())
	})
}
