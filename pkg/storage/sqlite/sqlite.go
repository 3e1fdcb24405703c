// Package sqlite provides a SQLite based datastore engine.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/oklog/ulid/v2"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mindsurve/taskgen/pkg/iped"
	"github.com/mindsurve/taskgen/pkg/logger"
	"github.com/mindsurve/taskgen/pkg/storage"
	"github.com/mindsurve/taskgen/pkg/storage/sqlcommon"
)

var tracer = otel.Tracer("taskgen/pkg/storage/sqlite")

func startTrace(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "sqlite."+name)
}

// Datastore provides a SQLite based implementation of [storage.StudyDatastore].
type Datastore struct {
	stbl             sq.StatementBuilderType
	db               *sql.DB
	logger           logger.Logger
	dbStatsCollector prometheus.Collector
	schemaChecked    bool
}

var _ storage.StudyDatastore = (*Datastore)(nil)

// PrepareDSN applies the connection defaults taskgen wants to a sqlite URI:
// WAL journaling, a short busy timeout and immediate write transactions.
// Settings the URI already carries are kept.
func PrepareDSN(uri string) (string, error) {
	query := url.Values{}
	var err error

	if i := strings.Index(uri, "?"); i != -1 {
		query, err = url.ParseQuery(uri[i+1:])
		if err != nil {
			return uri, fmt.Errorf("parse dsn: %w", err)
		}

		uri = uri[:i]
	}

	// Default the journal mode and busy timeout pragmas when the caller
	// did not pick their own.

	hasJournalMode := false
	hasBusyTimeout := false
	for _, val := range query["_pragma"] {
		if strings.HasPrefix(val, "journal_mode") {
			hasJournalMode = true
		} else if strings.HasPrefix(val, "busy_timeout") {
			hasBusyTimeout = true
		}
	}

	if !hasJournalMode {
		query.Add("_pragma", "journal_mode(WAL)")
	}
	if !hasBusyTimeout {
		query.Add("_pragma", "busy_timeout(100)")
	}

	// Writes acquire the lock up front under immediate transactions.
	if !query.Has("_txlock") {
		query.Set("_txlock", "immediate")
	}

	uri += "?" + query.Encode()

	return uri, nil
}

// New creates a new [Datastore] storing data in the SQLite database at
// the given URI.
func New(uri string, cfg *sqlcommon.Config) (*Datastore, error) {
	uri, err := PrepareDSN(uri)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", uri)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// The readiness check reads the schema revision through goose.
	if err := goose.SetDialect("sqlite"); err != nil {
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

	var createdAt time.Time

	err = busyRetry(func() error {
		txn, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() {
			_ = txn.Rollback()
		}()

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
				study.Seed, study.Attempts, study.MaxDeviation, sq.Expr("datetime('subsec')"),
			).
			Suffix("returning created_at").
			RunWith(txn).
			QueryRowContext(ctx).
			Scan(&createdAt)
		if err != nil {
			return err
		}

		_, err = s.stbl.
			Insert("study_matrices").
			Columns("study_id", "matrix", "created_at").
			Values(study.ID, blob, sq.Expr("datetime('subsec')")).
			RunWith(txn).
			ExecContext(ctx)
		if err != nil {
			return err
		}

		return txn.Commit()
	})
	if err != nil {
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

	err := busyRetry(func() error {
		txn, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() {
			_ = txn.Rollback()
		}()

		res, err := s.stbl.
			Update("studies").
			Set("deleted_at", sq.Expr("datetime('subsec')")).
			Where(sq.Eq{"id": id, "deleted_at": nil}).
			RunWith(txn).
			ExecContext(ctx)
		if err != nil {
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
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
			return err
		}

		return txn.Commit()
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
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

var busyErrors = map[int]struct{}{
	sqlite3.SQLITE_BUSY_RECOVERY:      {},
	sqlite3.SQLITE_BUSY_SNAPSHOT:      {},
	sqlite3.SQLITE_BUSY_TIMEOUT:       {},
	sqlite3.SQLITE_BUSY:               {},
	sqlite3.SQLITE_LOCKED_SHAREDCACHE: {},
	sqlite3.SQLITE_LOCKED:             {},
}

func isBusyError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	_, ok := busyErrors[sqliteErr.Code()]
	return ok
}

// busyRetry retries a write transaction if it fails due to concurrent
// access, which SQLite reports immediately rather than blocking on.
func busyRetry(fn func() error) error {
	const maxRetries = 10
	for retries := 0; ; retries++ {
		err := fn()
		if err == nil {
			return nil
		}

		if isBusyError(err) {
			if retries < maxRetries {
				continue
			}

			return fmt.Errorf("still busy after %d attempts: %w", maxRetries, err)
		}

		return err
	}
}

// HandleSQLError processes a SQL error and converts it into a storage
// error when the mapping is unambiguous.
func HandleSQLError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code()&0xFF == sqlite3.SQLITE_CONSTRAINT {
			return storage.ErrCollision
		}
	}

	return fmt.Errorf("sql error: %w", err)
}
