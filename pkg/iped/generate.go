package iped

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/Yiling-J/theine-go"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mindsurve/taskgen/internal/concurrency"
	"github.com/mindsurve/taskgen/pkg/logger"
)

const (
	// DefaultPoolCapGrowth is the factor applied to the pool cap when a
	// rejected matrix triggers the automatic regeneration attempt.
	DefaultPoolCapGrowth = 4

	// DefaultPoolCacheSize is the number of candidate pools kept cached
	// across Generate calls.
	DefaultPoolCacheSize = 128
)

// Generator produces study matrices. It is safe for concurrent use; all
// per-call state lives on the stack of Generate.
type Generator struct {
	logger    logger.Logger
	tolerance Tolerance
	poolCap   int
	capGrowth int
	workers   int
	cacheSize int

	poolCache *theine.Cache[string, *Pool]
	poolGroup singleflight.Group
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithLogger sets the logger used for generation progress and retries.
func WithLogger(l logger.Logger) GeneratorOption {
	return func(g *Generator) { g.logger = l }
}

// WithTolerance overrides the exposure balance tolerance.
func WithTolerance(t Tolerance) GeneratorOption {
	return func(g *Generator) { g.tolerance = t }
}

// WithPoolCap overrides the per-active-count candidate pool cap.
func WithPoolCap(capPerCount int) GeneratorOption {
	return func(g *Generator) { g.poolCap = capPerCount }
}

// WithPoolCapGrowth overrides the cap multiplier used by the automatic
// regeneration attempt.
func WithPoolCapGrowth(mult int) GeneratorOption {
	return func(g *Generator) { g.capGrowth = mult }
}

// WithWorkers enables parallel generation across respondents with up to
// n goroutines. Any worker count preserves validity and balance, but
// only the sequential default is reproducible byte for byte.
func WithWorkers(n int) GeneratorOption {
	return func(g *Generator) { g.workers = n }
}

// WithPoolCacheSize bounds the candidate pool cache. Zero disables
// caching entirely.
func WithPoolCacheSize(entries int) GeneratorOption {
	return func(g *Generator) { g.cacheSize = entries }
}

// NewGenerator constructs a Generator with the given options.
func NewGenerator(opts ...GeneratorOption) (*Generator, error) {
	g := &Generator{
		logger:    logger.NewNoopLogger(),
		tolerance: DefaultTolerance,
		poolCap:   DefaultPoolCap,
		capGrowth: DefaultPoolCapGrowth,
		cacheSize: DefaultPoolCacheSize,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.poolCap <= 0 {
		return nil, fmt.Errorf("pool cap must be positive, got %d: %w", g.poolCap, ErrInvalidConfiguration)
	}
	if g.capGrowth < 2 {
		return nil, fmt.Errorf("pool cap growth must be at least 2, got %d: %w", g.capGrowth, ErrInvalidConfiguration)
	}
	if g.cacheSize > 0 {
		cache, err := theine.NewBuilder[string, *Pool](int64(g.cacheSize)).Build()
		if err != nil {
			return nil, fmt.Errorf("build pool cache: %w", err)
		}
		g.poolCache = cache
	}
	return g, nil
}

// Close stops the pool cache's maintenance goroutines. The Generator
// must not be used after Close.
func (g *Generator) Close() {
	if g.poolCache != nil {
		g.poolCache.Close()
	}
}

// MustNewGenerator is NewGenerator, panicking on invalid options.
func MustNewGenerator(opts ...GeneratorOption) *Generator {
	g, err := NewGenerator(opts...)
	if err != nil {
		panic(err)
	}
	return g
}

// GenerateOption configures a single Generate call.
type GenerateOption func(*generateRequest)

type generateRequest struct {
	seed      int64
	seedSet   bool
	tolerance *Tolerance
}

// WithSeed fixes the seed for one call. Without it the seed is derived
// from the study parameters, so repeated calls for the same design
// return the same matrix.
func WithSeed(seed int64) GenerateOption {
	return func(r *generateRequest) {
		r.seed = seed
		r.seedSet = true
	}
}

// WithRequestTolerance overrides the generator's exposure tolerance for
// one call. The shared pattern pools are unaffected.
func WithRequestTolerance(t Tolerance) GenerateOption {
	return func(r *generateRequest) {
		r.tolerance = &t
	}
}

// GenerationStats reports how a matrix was produced.
type GenerationStats struct {
	Seed         int64         `json:"seed"`
	Attempts     int           `json:"attempts"`
	PoolSize     int           `json:"pool_size"`
	PoolCap      int           `json:"pool_cap"`
	PoolSampled  bool          `json:"pool_sampled"`
	MeanExposure float64       `json:"mean_exposure"`
	MaxDeviation float64       `json:"max_deviation"`
	Duration     time.Duration `json:"-"`
}

// Generate produces the full study matrix for params. The schedule is a
// pure function of (params, seed) in the sequential default. A matrix
// that fails validation is regenerated once with the pool cap multiplied
// by the configured growth factor; a second failure is returned to the
// caller. No partial matrix is ever returned.
func (g *Generator) Generate(ctx context.Context, params Params, opts ...GenerateOption) (*StudyMatrix, *GenerationStats, error) {
	start := time.Now()
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}

	var req generateRequest
	for _, opt := range opts {
		opt(&req)
	}
	seed := req.seed
	if !req.seedSet {
		seed = DefaultSeed(params)
	}
	tolerance := g.tolerance
	if req.tolerance != nil {
		tolerance = *req.tolerance
	}

	set, err := NewElementSet(params.NumElements)
	if err != nil {
		return nil, nil, err
	}

	capPerCount := g.poolCap
	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		pool, err := g.pool(params, capPerCount, seed)
		if err != nil {
			return nil, nil, err
		}

		matrix, tally, err := g.generateAttempt(ctx, params, set, pool, seed)
		if err != nil {
			return nil, nil, err
		}

		if verr := ValidateMatrix(matrix, params, tolerance); verr != nil {
			var v *ValidationError
			if errors.As(verr, &v) && v.Invariant == InvariantExposureBalance {
				lastErr = fmt.Errorf("%w (pool size %d): %w", verr, pool.Len(), ErrInfeasibleBalance)
			} else {
				lastErr = fmt.Errorf("%w: %w", verr, ErrInfeasibleDesign)
			}
			g.logger.WarnWithContext(ctx, "study matrix rejected",
				zap.Error(verr),
				zap.Int("attempt", attempt),
				zap.Int("pool_cap", capPerCount),
				zap.Int("pool_size", pool.Len()),
			)
			capPerCount *= g.capGrowth
			continue
		}

		stats := &GenerationStats{
			Seed:         seed,
			Attempts:     attempt,
			PoolSize:     pool.Len(),
			PoolCap:      capPerCount,
			PoolSampled:  pool.Sampled(),
			MeanExposure: tally.Mean(),
			MaxDeviation: tally.MaxDeviation(),
			Duration:     time.Since(start),
		}
		g.logger.DebugWithContext(ctx, "study matrix generated",
			zap.Int64("seed", seed),
			zap.Int("attempt", attempt),
			zap.Int("pool_size", pool.Len()),
			zap.Int("total_tasks", matrix.TotalTasks()),
			zap.Float64("max_deviation", stats.MaxDeviation),
			zap.Duration("duration", stats.Duration),
		)
		return matrix, stats, nil
	}
	return nil, nil, lastErr
}

// generateAttempt schedules every respondent against one frozen pool.
func (g *Generator) generateAttempt(ctx context.Context, params Params, set *ElementSet, pool *Pool, seed int64) (*StudyMatrix, *ExposureTally, error) {
	sched := newScheduler(pool, params.NumElements)
	respondents := make([]RespondentMatrix, params.NumRespondents)

	assign := func(r int) {
		rng := rand.New(rand.NewSource(respondentSeed(seed, r)))
		vectors := sched.scheduleRespondent(params.TasksPerRespondent, rng)
		tasks := make(RespondentMatrix, len(vectors))
		for i, v := range vectors {
			tasks[i] = TaskAssignment{
				TaskID:        strconv.Itoa(r) + "_" + strconv.Itoa(i),
				ElementsShown: NewElementsShown(set, v),
				TaskIndex:     i,
			}
		}
		respondents[r] = tasks
	}

	if g.workers > 1 {
		p := concurrency.NewPool(ctx, g.workers)
		for r := 0; r < params.NumRespondents; r++ {
			p.Go(func(ctx context.Context) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				assign(r)
				return nil
			})
		}
		if err := p.Wait(); err != nil {
			return nil, nil, err
		}
	} else {
		for r := 0; r < params.NumRespondents; r++ {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			assign(r)
		}
	}
	return NewStudyMatrix(respondents), sched.tally(), nil
}

// pool returns the candidate pool for the given configuration, reusing
// a cached pool when one exists. Concurrent requests for the same
// configuration build it once.
func (g *Generator) pool(params Params, capPerCount int, seed int64) (*Pool, error) {
	if g.poolCache == nil {
		return g.buildPool(params, capPerCount, seed)
	}
	key := poolKey(params, capPerCount, seed)
	if cached, ok := g.poolCache.Get(key); ok {
		return cached, nil
	}
	v, err, _ := g.poolGroup.Do(key, func() (any, error) {
		if cached, ok := g.poolCache.Get(key); ok {
			return cached, nil
		}
		p, err := g.buildPool(params, capPerCount, seed)
		if err != nil {
			return nil, err
		}
		g.poolCache.Set(key, p, 1)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Pool), nil
}

func (g *Generator) buildPool(params Params, capPerCount int, seed int64) (*Pool, error) {
	rng := rand.New(rand.NewSource(poolSeed(seed)))
	return BuildPool(params.NumElements, params.MinActive, params.MaxActive, capPerCount, rng)
}

// poolKey identifies a pool by the inputs that shape it. The seed only
// participates when some active count will be down-sampled, so fully
// enumerated pools are shared across seeds.
func poolKey(params Params, capPerCount int, seed int64) string {
	key := fmt.Sprintf("%d/%d/%d/%d", params.NumElements, params.MinActive, params.MaxActive, capPerCount)
	if poolNeedsSampling(params, capPerCount) {
		key += "/" + strconv.FormatInt(seed, 10)
	}
	return key
}
