// Package memory provides an in-memory datastore. It is intended for
// development and testing and does not survive restarts.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"

	"github.com/mindsurve/taskgen/pkg/iped"
	"github.com/mindsurve/taskgen/pkg/storage"
)

var tracer = otel.Tracer("taskgen/pkg/storage/memory")

type studyEntry struct {
	study *storage.Study

	// matrix holds the encoded task matrix. Storing the blob rather than
	// the decoded matrix gives callers copy semantics on reads.
	matrix []byte
}

// Datastore is an ephemeral implementation of [storage.StudyDatastore].
// It is safe for concurrent use.
type Datastore struct {
	mu      sync.RWMutex
	studies map[string]*studyEntry
	index   storage.SortedSet
}

var _ storage.StudyDatastore = (*Datastore)(nil)

// New returns an empty memory datastore.
func New() *Datastore {
	return &Datastore{
		studies: make(map[string]*studyEntry),
		index:   storage.NewSortedSet(),
	}
}

// CreateStudy see [storage.StudiesBackend].CreateStudy.
func (s *Datastore) CreateStudy(ctx context.Context, study *storage.Study, matrix *iped.StudyMatrix) (*storage.Study, error) {
	_, span := tracer.Start(ctx, "memory.CreateStudy")
	defer span.End()

	blob, err := storage.EncodeMatrix(matrix)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.studies[study.ID]; ok {
		return nil, storage.ErrCollision
	}

	stored := *study
	stored.CreatedAt = time.Now().UTC()

	s.studies[study.ID] = &studyEntry{study: &stored, matrix: blob}
	s.index.Add(study.ID)

	out := stored
	return &out, nil
}

// GetStudy see [storage.StudiesBackend].GetStudy.
func (s *Datastore) GetStudy(ctx context.Context, id string) (*storage.Study, error) {
	_, span := tracer.Start(ctx, "memory.GetStudy")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.studies[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	out := *entry.study
	return &out, nil
}

// GetStudyMatrix see [storage.StudiesBackend].GetStudyMatrix.
func (s *Datastore) GetStudyMatrix(ctx context.Context, id string) (*iped.StudyMatrix, error) {
	_, span := tracer.Start(ctx, "memory.GetStudyMatrix")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.studies[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return storage.DecodeMatrix(entry.matrix)
}

// ListStudies see [storage.StudiesBackend].ListStudies.
func (s *Datastore) ListStudies(ctx context.Context, options storage.PaginationOptions) ([]*storage.Study, string, error) {
	_, span := tracer.Start(ctx, "memory.ListStudies")
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

	s.mu.RLock()
	defer s.mu.RUnlock()

	// The index walks IDs in creation order, oldest first. One extra row
	// decides whether a continuation token is needed.
	ids := s.index.ValuesFrom(options.From, pageSize+1)

	studies := make([]*storage.Study, 0, len(ids))
	for _, id := range ids {
		out := *s.studies[id].study
		studies = append(studies, &out)
	}

	if len(studies) > pageSize {
		return studies[:pageSize], studies[pageSize].ID, nil
	}
	return studies, "", nil
}

// DeleteStudy see [storage.StudiesBackend].DeleteStudy.
func (s *Datastore) DeleteStudy(ctx context.Context, id string) error {
	_, span := tracer.Start(ctx, "memory.DeleteStudy")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.studies[id]; !ok {
		return storage.ErrNotFound
	}

	delete(s.studies, id)
	s.index.Remove(id)
	return nil
}

// IsReady see [storage.StudyDatastore].IsReady.
func (s *Datastore) IsReady(context.Context) (storage.ReadinessStatus, error) {
	return storage.ReadinessStatus{IsReady: true}, nil
}

// Close is a no-op, there is nothing to release.
func (s *Datastore) Close() {}
