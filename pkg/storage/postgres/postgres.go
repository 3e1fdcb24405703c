// Package postgres provides a PostgreSQL based datastore engine.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v4"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver.
	"github.com/oklog/ulid/v2"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mindsurve/taskgen/pkg/iped"
	"github.com/mindsurve/taskgen/pkg/logger"
	"github.com/mindsurve/taskgen/pkg/storage"
	"github.com/mindsurve/taskgen/pkg/storage/sqlcommon"
)

var tracer = otel.Tracer("taskgen/pkg/storage/postgres")

func startTrace(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "postgres."+name)
}

// Datastore provides a PostgreSQL based implementation of
// [storage.StudyDatastore].
type Datastore struct {
	stbl             sq.StatementBuilderType
	db               *sql.DB
	logger           logger.Logger
	dbStatsCollector prometheus.Collector
	schemaChecked    bool
}

var _ storage.StudyDatastore = (*Datastore)(nil)

func initDB(uri string, cfg *sqlcommon.Config) (*sql.DB, error) {
	if cfg.Username != "" || cfg.Password != "" {
		parsed, err := url.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("parse postgres connection uri: %w", err)
		}

		username := ""
		if cfg.Username != "" {
			username = cfg.Username
		} else if parsed.User != nil {
			username = parsed.User.Username()
		}

		switch {
		case cfg.Password != "":
			parsed.User = url.UserPassword(username, cfg.Password)
		case parsed.User != nil:
			if password, ok := parsed.User.Password(); ok {
				parsed.User = url.UserPassword(username, password)
			} else {
				parsed.User = url.User(username)
			}
		default:
			parsed.User = url.User(username)
		}

		uri = parsed.String()
	}

	db, err := sql.Open("pgx", uri)
	if err != nil {
		return nil, fmt.Errorf("initialize postgres connection: %w", err)
	}

	if cfg.MaxIdleConns != 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns) // default is 2, not retaining connections(0) would be detrimental for performance
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

func configureDB(db *sql.DB, cfg *sqlcommon.Config) (prometheus.Collector, error) {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 1 * time.Minute
	attempt := 1
	err := backoff.Retry(func() error {
		err := db.PingContext(context.Background())
		if err != nil {
			cfg.Logger.Info("waiting for database", zap.Int("attempt", attempt))
			attempt++
			return err
		}
		return nil
	}, policy)
	if err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	var collector prometheus.Collector
	if cfg.ExportMetrics {
		collector = collectors.NewDBStatsCollector(db, "taskgen")
		if err := prometheus.Register(collector); err != nil {
			return nil, fmt.Errorf("register db stats collector: %w", err)
		}
	}

	return collector, nil
}

// New creates a new [Datastore] storing data in the PostgreSQL database
// at the given URI.
func New(uri string, cfg *sqlcommon.Config) (*Datastore, error) {
	db, err := initDB(uri, cfg)
	if err != nil {
		return nil, err
	}

	return NewWithDB(db, cfg)
}

// NewWithDB creates a new [Datastore] on top of an existing connection
// pool.
func NewWithDB(db *sql.DB, cfg *sqlcommon.Config) (*Datastore, error) {
	collector, err := configureDB(db, cfg)
	if err != nil {
		return nil, err
	}

	// The readiness check reads the schema revision through goose.
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}

	return &Datastore{
		stbl:             sq.StatementBuilder.PlaceholderFormat(sq.Dollar).RunWith(db),
		db:               db,
		logger:           cfg.Logger,
		dbStatsCollector: collector,
	}, nil
}

// Close see [storage.StudyDatastore].Close.
func (s *Datastore) Close() {
	if s.dbStatsCollector != nil {
		prometheus.Unregister(s.dbStatsCollector)
	}
	s.db.Close()
}

// CreateStudy see [storage.StudiesBackend].CreateStudy.
func (s *Datastore) CreateStudy(ctx context.Context, study *storage.Study, matrix *iped.StudyMatrix) (*storage.Study, error) {
	ctx, span := startTrace(ctx, "CreateStudy")
	defer span.End()

	blob, err := storage.EncodeMatrix(matrix)
	if err != nil {
		return nil, err
	}

	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, HandleSQLError(err)
	}
	defer func() {
		_ = txn.Rollback()
	}()

	var createdAt time.Time
	err = s.stbl.
		Insert("studies").
		Columns(
			"id", "name",
			"num_elements", "tasks_per_respondent", "num_respondents", "min_active", "max_active",
			"seed", "attempts", "max_deviation", "created_at",
		).
		Values(
			study.ID, study.Name,
			study.Params.NumElements, study.Params.TasksPerRespondent, study.Params.NumRespondents,
			study.Params.MinActive, study.Params.MaxActive,
			study.Seed, study.Attempts, study.MaxDeviation, sq.Expr("NOW()"),
		).
		Suffix("RETURNING created_at").
		RunWith(txn).
		QueryRowContext(ctx).
		Scan(&createdAt)
	if err != nil {
		return nil, HandleSQLError(err)
	}

	_, err = s.stbl.
		Insert("study_matrices").
		Columns("study_id", "matrix", "created_at").
		Values(study.ID, blob, sq.Expr("NOW()")).
		RunWith(txn).
		ExecContext(ctx)
	if err != nil {
		return nil, HandleSQLError(err)
	}

	if err := txn.Commit(); err != nil {
		return nil, HandleSQLError(err)
	}

	created := *study
	created.CreatedAt = createdAt
	return &created, nil
}

// GetStudy see [storage.StudiesBackend].GetStudy.
func (s *Datastore) GetStudy(ctx context.Context, id string) (*storage.Study, error) {
	ctx, span := startTrace(ctx, "GetStudy")
	defer span.End()

	row := s.stbl.
		Select(studyColumns...).
		From("studies").
		Where(sq.Eq{"id": id, "deleted_at": nil}).
		QueryRowContext(ctx)

	study, err := scanStudy(row)
	if err != nil {
		return nil, HandleSQLError(err)
	}
	return study, nil
}

// GetStudyMatrix see [storage.StudiesBackend].GetStudyMatrix.
func (s *Datastore) GetStudyMatrix(ctx context.Context, id string) (*iped.StudyMatrix, error) {
	ctx, span := startTrace(ctx, "GetStudyMatrix")
	defer span.End()

	var blob []byte
	err := s.stbl.
		Select("m.matrix").
		From("study_matrices m").
		Join("studies s ON s.id = m.study_id").
		Where(sq.Eq{"m.study_id": id, "s.deleted_at": nil}).
		QueryRowContext(ctx).
		Scan(&blob)
	if err != nil {
		return nil, HandleSQLError(err)
	}

	return storage.DecodeMatrix(blob)
}

// ListStudies see [storage.StudiesBackend].ListStudies.
func (s *Datastore) ListStudies(ctx context.Context, options storage.PaginationOptions) ([]*storage.Study, string, error) {
	ctx, span := startTrace(ctx, "ListStudies")
	defer span.End()

	if options.From != "" {
		if _, err := ulid.Parse(options.From); err != nil {
			return nil, "", storage.ErrInvalidContinuationToken
		}
	}

	pageSize := storage.DefaultPageSize
	if options.PageSize > 0 {
		pageSize = options.PageSize
	}

	sb := s.stbl.
		Select(studyColumns...).
		From("studies").
		Where(sq.Eq{"deleted_at": nil}).
		OrderBy("id").
		Limit(uint64(pageSize + 1))
	if options.From != "" {
		sb = sb.Where(sq.GtOrEq{"id": options.From})
	}

	rows, err := sb.QueryContext(ctx)
	if err != nil {
		return nil, "", HandleSQLError(err)
	}
	defer rows.Close()

	studies := make([]*storage.Study, 0, pageSize+1)
	for rows.Next() {
		study, err := scanStudy(rows)
		if err != nil {
			return nil, "", HandleSQLError(err)
		}
		studies = append(studies, study)
	}
	if err := rows.Err(); err != nil {
		return nil, "", HandleSQLError(err)
	}

	if len(studies) > pageSize {
		return studies[:pageSize], studies[pageSize].ID, nil
	}
	return studies, "", nil
}

// DeleteStudy see [storage.StudiesBackend].DeleteStudy.
func (s *Datastore) DeleteStudy(ctx context.Context, id string) error {
	ctx, span := startTrace(ctx, "DeleteStudy")
	defer span.End()

	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return HandleSQLError(err)
	}
	defer func() {
		_ = txn.Rollback()
	}()

	res, err := s.stbl.
		Update("studies").
		Set("deleted_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "deleted_at": nil}).
		RunWith(txn).
		ExecContext(ctx)
	if err != nil {
		return HandleSQLError(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return HandleSQLError(err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	_, err = s.stbl.
		Delete("study_matrices").
		Where(sq.Eq{"study_id": id}).
		RunWith(txn).
		ExecContext(ctx)
	if err != nil {
		return HandleSQLError(err)
	}

	if err := txn.Commit(); err != nil {
		return HandleSQLError(err)
	}
	return nil
}

// IsReady see [storage.StudyDatastore].IsReady.
func (s *Datastore) IsReady(ctx context.Context) (storage.ReadinessStatus, error) {
	status, err := sqlcommon.IsReady(ctx, s.schemaChecked, s.db)
	if err != nil {
		return status, err
	}
	if status.IsReady {
		s.schemaChecked = true
	}
	return status, nil
}

var studyColumns = []string{
	"id", "name",
	"num_elements", "tasks_per_respondent", "num_respondents", "min_active", "max_active",
	"seed", "attempts", "max_deviation", "created_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudy(row rowScanner) (*storage.Study, error) {
	var study storage.Study
	err := row.Scan(
		&study.ID, &study.Name,
		&study.Params.NumElements, &study.Params.TasksPerRespondent, &study.Params.NumRespondents,
		&study.Params.MinActive, &study.Params.MaxActive,
		&study.Seed, &study.Attempts, &study.MaxDeviation, &study.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &study, nil
}

// HandleSQLError processes a SQL error and converts it into a storage
// error when the mapping is unambiguous.
func HandleSQLError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if strings.Contains(err.Error(), "duplicate key value") {
		return storage.ErrCollision
	}

	return fmt.Errorf("sql error: %w", err)
}
