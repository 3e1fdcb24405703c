package iped

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validParams() Params {
	return Params{
		NumElements:        6,
		TasksPerRespondent: 12,
		NumRespondents:     10,
		MinActive:          2,
		MaxActive:          4,
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		valid  bool
	}{
		{name: "valid", mutate: func(p *Params) {}, valid: true},
		{name: "min_elements", mutate: func(p *Params) { p.NumElements = 4; p.MaxActive = 4 }, valid: true},
		{name: "max_elements", mutate: func(p *Params) { p.NumElements = 16 }, valid: true},
		{name: "too_few_elements", mutate: func(p *Params) { p.NumElements = 3 }},
		{name: "too_many_elements", mutate: func(p *Params) { p.NumElements = 17 }},
		{name: "zero_tasks", mutate: func(p *Params) { p.TasksPerRespondent = 0 }},
		{name: "too_many_tasks", mutate: func(p *Params) { p.TasksPerRespondent = 101 }},
		{name: "zero_respondents", mutate: func(p *Params) { p.NumRespondents = 0 }},
		{name: "too_many_respondents", mutate: func(p *Params) { p.NumRespondents = 10001 }},
		{name: "zero_min_active", mutate: func(p *Params) { p.MinActive = 0 }},
		{name: "max_active_above_elements", mutate: func(p *Params) { p.MaxActive = 7 }},
		{name: "min_above_max", mutate: func(p *Params) { p.MinActive = 5; p.MaxActive = 4 }},
		{name: "full_range", mutate: func(p *Params) { p.MinActive = 1; p.MaxActive = 6 }, valid: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := validParams()
			test.mutate(&p)
			err := p.Validate()
			if test.valid {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestParamsTotalTasks(t *testing.T) {
	p := validParams()
	require.Equal(t, 120, p.TotalTasks())
}

func TestDefaultSeed(t *testing.T) {
	p := validParams()
	require.Equal(t, DefaultSeed(p), DefaultSeed(p))

	q := p
	q.TasksPerRespondent++
	require.NotEqual(t, DefaultSeed(p), DefaultSeed(q))

	r := p
	r.MinActive = 1
	require.NotEqual(t, DefaultSeed(p), DefaultSeed(r))
}
