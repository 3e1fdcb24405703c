// Package mysql provides a MySQL based datastore engine.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-sql-driver/mysql"
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

var tracer = otel.Tracer("taskgen/pkg/storage/mysql")

func startTrace(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "mysql."+name)
}

// Datastore provides a MySQL based implementation of
// [storage.StudyDatastore].
type Datastore struct {
	stbl             sq.StatementBuilderType
	db               *sql.DB
	logger           logger.Logger
	dbStatsCollector prometheus.Collector
	schemaChecked    bool
}

var _ storage.StudyDatastore = (*Datastore)(nil)

// New creates a new [Datastore] storing data in the MySQL database at
// the given URI.
func New(uri string, cfg *sqlcommon.Config) (*Datastore, error) {
	if cfg.Username != "" || cfg.Password != "" {
		dsnCfg, err := mysql.ParseDSN(uri)
		if err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}

		if cfg.Username != "" {
			dsnCfg.User = cfg.Username
		}
		if cfg.Password != "" {
			dsnCfg.Passwd = cfg.Password
		}

		uri = dsnCfg.FormatDSN()
	}

	db, err := sql.Open("mysql", uri)
	if err != nil {
		return nil, fmt.Errorf("open mysql connection: %w", err)
	}

	if cfg.MaxOpenConns != 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if cfg.MaxIdleConns != 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if cfg.ConnMaxIdleTime != 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if cfg.ConnMaxLifetime != 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 1 * time.Minute
	attempt := 1
	err = backoff.Retry(func() error {
		err = db.PingContext(context.Background())
		if err != nil {
			cfg.Logger.Info("waiting for mysql", zap.Int("attempt", attempt))
			attempt++
			return err
		}
		return nil
	}, policy)
	if err != nil {
		return nil, fmt.Errorf("mysql never became reachable: %w", err)
	}

	// The readiness check reads the schema revision through goose.
	if err := goose.SetDialect("mysql"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}

	var collector prometheus.Collector
	if cfg.ExportMetrics {
		collector = collectors.NewDBStatsCollector(db, "taskgen")
		if err := prometheus.Register(collector); err != nil {
			return nil, fmt.Errorf("register db stats collector: %w", err)
		}
	}

	return &Datastore{
		stbl:             sq.StatementBuilder.RunWith(db),
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

	// MySQL has no RETURNING clause, so the insert timestamp is produced
	// client side.
	now := time.Now().UTC().Truncate(time.Microsecond)

	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, HandleSQLError(err)
	}
	defer func() {
		_ = txn.Rollback()
	}()

	_, err = s.stbl.
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
			study.Seed, study.Attempts, study.MaxDeviation, now,
		).
		RunWith(txn).
		ExecContext(ctx)
	if err != nil {
		return nil, HandleSQLError(err)
	}

	_, err = s.stbl.
		Insert("study_matrices").
		Columns("study_id", "matrix", "created_at").
		Values(study.ID, blob, now).
		RunWith(txn).
		ExecContext(ctx)
	if err != nil {
		return nil, HandleSQLError(err)
	}

	if err := txn.Commit(); err != nil {
		return nil, HandleSQLError(err)
	}

	created := *study
	created.CreatedAt = now
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
		Set("deleted_at", time.Now().UTC().Truncate(time.Microsecond)).
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

	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return storage.ErrCollision
	}

	return fmt.Errorf("sql error: %w", err)
}
