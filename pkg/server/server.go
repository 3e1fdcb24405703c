// Package server contains the taskgen service core: the matrix
// generator, the design planner, and the study datastore behind one API
// surface.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mindsurve/taskgen/internal/build"
	"github.com/mindsurve/taskgen/pkg/encoder"
	"github.com/mindsurve/taskgen/pkg/iped"
	"github.com/mindsurve/taskgen/pkg/logger"
	"github.com/mindsurve/taskgen/pkg/server/commands"
	serverconfig "github.com/mindsurve/taskgen/pkg/server/config"
	"github.com/mindsurve/taskgen/pkg/storage"
	"github.com/mindsurve/taskgen/pkg/telemetry"
)

var tracer = otel.Tracer("taskgen/pkg/server")

var (
	generationsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "generations_total",
		Help:      "The total number of matrix generation runs, by outcome.",
	}, []string{"outcome"})

	generationDurationHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:                       build.ProjectName,
		Name:                            "generation_duration_ms",
		Help:                            "The duration (in ms) of matrix generation runs, by operation.",
		Buckets:                         []float64{1, 5, 25, 100, 500, 2500, 10000, 60000},
		NativeHistogramBucketFactor:     1.1,
		NativeHistogramMaxBucketNumber:  100,
		NativeHistogramMinResetDuration: time.Hour,
	}, []string{"operation"})

	exposureDeviationHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace:                       build.ProjectName,
		Name:                            "exposure_max_deviation",
		Help:                            "The worst per-element exposure deviation of accepted matrices.",
		Buckets:                         []float64{0.1, 0.25, 0.5, 1, 1.5, 2, 3, 5},
		NativeHistogramBucketFactor:     1.1,
		NativeHistogramMaxBucketNumber:  100,
		NativeHistogramMinResetDuration: time.Hour,
	})
)

// A Server exposes the taskgen operations. Construct one with
// NewServerWithOpts or MustNewServerWithOpts.
type Server struct {
	logger            logger.Logger
	datastore         storage.StudyDatastore
	generator         *iped.Generator
	tokenEncoder      encoder.Encoder
	generationTimeout time.Duration
	maxListPageSize   int32
}

// ServerOption configures a Server.
type ServerOption func(s *Server)

// WithDatastore passes the datastore the server persists studies in.
// This option is required.
func WithDatastore(ds storage.StudyDatastore) ServerOption {
	return func(s *Server) {
		s.datastore = ds
	}
}

// WithGenerator passes the matrix generator. Without it the server
// builds one with default tuning and the server's logger.
func WithGenerator(g *iped.Generator) ServerOption {
	return func(s *Server) {
		s.generator = g
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// WithTokenEncoder sets the codec for list continuation tokens.
func WithTokenEncoder(e encoder.Encoder) ServerOption {
	return func(s *Server) {
		s.tokenEncoder = e
	}
}

// WithGenerationTimeout bounds each generation run. A run that exceeds
// it is answered as infeasible at the current limits. Zero disables the
// deadline.
func WithGenerationTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		s.generationTimeout = d
	}
}

// WithMaxListPageSize caps the page size accepted when listing studies.
func WithMaxListPageSize(n int32) ServerOption {
	return func(s *Server) {
		s.maxListPageSize = n
	}
}

// MustNewServerWithOpts is NewServerWithOpts, panicking on error.
func MustNewServerWithOpts(opts ...ServerOption) *Server {
	s, err := NewServerWithOpts(opts...)
	if err != nil {
		panic(fmt.Errorf("failed to construct the taskgen server: %w", err))
	}
	return s
}

// NewServerWithOpts returns a Server configured by opts. A datastore is
// required; everything else has defaults.
func NewServerWithOpts(opts ...ServerOption) (*Server, error) {
	s := &Server{
		logger:            logger.NewNoopLogger(),
		tokenEncoder:      encoder.NewBase64Encoder(),
		generationTimeout: serverconfig.DefaultGenerationTimeout,
		maxListPageSize:   100,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.datastore == nil {
		return nil, fmt.Errorf("a datastore option must be provided")
	}
	if s.generationTimeout < 0 {
		return nil, fmt.Errorf("the generation timeout must not be negative")
	}
	if s.maxListPageSize < 1 {
		return nil, fmt.Errorf("the list page size cap must be positive")
	}

	if s.generator == nil {
		g, err := iped.NewGenerator(iped.WithLogger(s.logger))
		if err != nil {
			return nil, err
		}
		s.generator = g
	}

	return s, nil
}

// Close releases server-held resources, including the generator's pool
// cache. The datastore is owned by the caller and closed separately.
func (s *Server) Close() {
	s.generator.Close()
}

// IsReady reports whether the server can take traffic, which reduces to
// datastore readiness.
func (s *Server) IsReady(ctx context.Context) (bool, error) {
	status, err := s.datastore.IsReady(ctx)
	if err != nil {
		return false, err
	}
	if !status.IsReady {
		s.logger.WarnWithContext(ctx, "datastore is not ready")
	}
	return status.IsReady, nil
}

// GenerateTasks produces a task matrix for the requested parameters
// without persisting anything.
func (s *Server) GenerateTasks(ctx context.Context, req *commands.GenerateTasksRequest) (*commands.GenerateTasksResponse, error) {
	ctx, span := tracer.Start(ctx, "GenerateTasks", trace.WithAttributes(
		attribute.Int("num_elements", req.Params.NumElements),
		attribute.Int("num_respondents", req.Params.NumRespondents),
	))
	defer span.End()

	ctx, cancel := s.generationContext(ctx)
	defer cancel()

	start := time.Now()
	cmd := commands.NewGenerateTasksCommand(s.generator,
		commands.WithGenerateTasksCmdLogger(s.logger),
	)
	resp, err := cmd.Execute(ctx, req)
	s.observeGeneration(span, "generate_tasks", start, err)
	if err != nil {
		return nil, err
	}

	exposureDeviationHistogram.Observe(resp.Stats.MaxDeviation)
	return resp, nil
}

// CreateStudy generates a matrix and persists it under a new study ID.
func (s *Server) CreateStudy(ctx context.Context, req *commands.CreateStudyRequest) (*commands.CreateStudyResponse, error) {
	ctx, span := tracer.Start(ctx, "CreateStudy", trace.WithAttributes(
		attribute.Int("num_elements", req.Params.NumElements),
		attribute.Int("num_respondents", req.Params.NumRespondents),
	))
	defer span.End()

	ctx, cancel := s.generationContext(ctx)
	defer cancel()

	start := time.Now()
	cmd := commands.NewCreateStudyCommand(s.datastore, s.generator,
		commands.WithCreateStudyCmdLogger(s.logger),
	)
	resp, err := cmd.Execute(ctx, req)
	s.observeGeneration(span, "create_study", start, err)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("study_id", resp.Study.ID))
	exposureDeviationHistogram.Observe(resp.Stats.MaxDeviation)
	return resp, nil
}

// GetStudy returns a stored study record.
func (s *Server) GetStudy(ctx context.Context, req *commands.GetStudyRequest) (*commands.GetStudyResponse, error) {
	ctx, span := tracer.Start(ctx, "GetStudy", trace.WithAttributes(
		attribute.String("study_id", req.StudyID),
	))
	defer span.End()

	q := commands.NewGetStudyQuery(s.datastore,
		commands.WithGetStudyQueryLogger(s.logger),
	)
	resp, err := q.Execute(ctx, req)
	if err != nil {
		telemetry.TraceError(span, err)
		return nil, err
	}
	return resp, nil
}

// GetStudyMatrix returns the stored task matrix of a study.
func (s *Server) GetStudyMatrix(ctx context.Context, req *commands.GetStudyMatrixRequest) (*commands.GetStudyMatrixResponse, error) {
	ctx, span := tracer.Start(ctx, "GetStudyMatrix", trace.WithAttributes(
		attribute.String("study_id", req.StudyID),
	))
	defer span.End()

	q := commands.NewGetStudyMatrixQuery(s.datastore,
		commands.WithGetStudyMatrixQueryLogger(s.logger),
	)
	resp, err := q.Execute(ctx, req)
	if err != nil {
		telemetry.TraceError(span, err)
		return nil, err
	}
	return resp, nil
}

// ListStudies returns a page of stored studies in creation order.
func (s *Server) ListStudies(ctx context.Context, req *commands.ListStudiesRequest) (*commands.ListStudiesResponse, error) {
	ctx, span := tracer.Start(ctx, "ListStudies")
	defer span.End()

	if req.PageSize > s.maxListPageSize {
		req.PageSize = s.maxListPageSize
	}

	q := commands.NewListStudiesQuery(s.datastore,
		commands.WithListStudiesQueryLogger(s.logger),
		commands.WithListStudiesQueryEncoder(s.tokenEncoder),
	)
	resp, err := q.Execute(ctx, req)
	if err != nil {
		telemetry.TraceError(span, err)
		return nil, err
	}
	return resp, nil
}

// DeleteStudy removes a study and its matrix.
func (s *Server) DeleteStudy(ctx context.Context, req *commands.DeleteStudyRequest) (*commands.DeleteStudyResponse, error) {
	ctx, span := tracer.Start(ctx, "DeleteStudy", trace.WithAttributes(
		attribute.String("study_id", req.StudyID),
	))
	defer span.End()

	cmd := commands.NewDeleteStudyCommand(s.datastore,
		commands.WithDeleteStudyCmdLogger(s.logger),
	)
	resp, err := cmd.Execute(ctx, req)
	if err != nil {
		telemetry.TraceError(span, err)
		return nil, err
	}
	return resp, nil
}

// PlanDesign sizes a study for an element count and active bounds.
func (s *Server) PlanDesign(ctx context.Context, req *commands.PlanDesignRequest) (*commands.PlanDesignResponse, error) {
	ctx, span := tracer.Start(ctx, "PlanDesign", trace.WithAttributes(
		attribute.Int("num_elements", req.NumElements),
	))
	defer span.End()

	q := commands.NewPlanDesignQuery(
		commands.WithPlanDesignQueryLogger(s.logger),
	)
	resp, err := q.Execute(ctx, req)
	if err != nil {
		telemetry.TraceError(span, err)
		return nil, err
	}
	return resp, nil
}

// ValidateMatrix re-checks a posted matrix against study parameters.
func (s *Server) ValidateMatrix(ctx context.Context, req *commands.ValidateMatrixRequest) (*commands.ValidateMatrixResponse, error) {
	ctx, span := tracer.Start(ctx, "ValidateMatrix")
	defer span.End()

	cmd := commands.NewValidateMatrixCommand(
		commands.WithValidateMatrixCmdLogger(s.logger),
	)
	resp, err := cmd.Execute(ctx, req)
	if err != nil {
		telemetry.TraceError(span, err)
		return nil, err
	}
	return resp, nil
}

// generationContext derives the deadline applied to one generation run.
func (s *Server) generationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.generationTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.generationTimeout)
}

func (s *Server) observeGeneration(span trace.Span, operation string, start time.Time, err error) {
	generationDurationHistogram.WithLabelValues(operation).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		telemetry.TraceError(span, err)
		generationsCounter.WithLabelValues("rejected").Inc()
		return
	}
	generationsCounter.WithLabelValues("ok").Inc()
}
