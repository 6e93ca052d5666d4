// Package admin implements the administrator operations: record management,
// spreadsheet imports, evaluation history and progress, on top of the
// document store and the external image and identity services.
package admin

import (
	"context"
	"time"

	"go.uber.org/zap"

	"evaladmin/internal/docstore"
	"evaladmin/internal/identity"
	"evaladmin/internal/importer"
	"evaladmin/internal/metrics"
	"evaladmin/internal/model"
	"evaladmin/internal/queue"
	"evaladmin/internal/store"
)

// ImageStore keeps one profile image per owner name.
type ImageStore interface {
	Upload(ctx context.Context, data []byte, ownerName, filename string) (string, error)
	DeleteByOwnerName(ctx context.Context, ownerName string) error
}

// Deps are the collaborators of a Service. Store is required; a nil Images,
// Identity or Queue disables the features that need them.
type Deps struct {
	Store    docstore.Backend
	Images   ImageStore
	Identity identity.Provider
	Queue    queue.Queue
	Cache    store.Cache
	Metrics  *metrics.Metrics
	Log      *zap.Logger

	Concurrency     int
	HistoryTTL      time.Duration
	MetadataTimeout time.Duration
}

type Service struct {
	professors  *docstore.Collection[model.Professor]
	students    *docstore.Collection[model.Student]
	questions   *docstore.Collection[model.EvaluationQuestion]
	departments *docstore.Collection[model.Department]
	history     *docstore.Collection[model.HistoryEntry]
	evaluations *docstore.Collection[model.Submission]

	images   ImageStore
	identity identity.Provider
	queue    queue.Queue
	cache    store.Cache
	metrics  *metrics.Metrics
	log      *zap.Logger

	concurrency     int
	historyTTL      time.Duration
	metadataTimeout time.Duration
}

func New(d Deps) *Service {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Cache == nil {
		d.Cache = store.NewMemoryCache()
	}
	if d.Concurrency <= 0 {
		d.Concurrency = importer.DefaultConcurrency
	}
	if d.HistoryTTL <= 0 {
		d.HistoryTTL = 30 * time.Second
	}
	if d.MetadataTimeout <= 0 {
		d.MetadataTimeout = 1500 * time.Millisecond
	}
	return &Service{
		professors:  docstore.NewCollection[model.Professor](d.Store, model.CollectionProfessors, "password"),
		students:    docstore.NewCollection[model.Student](d.Store, model.CollectionStudents),
		questions:   docstore.NewCollection[model.EvaluationQuestion](d.Store, model.CollectionQuestions),
		departments: docstore.NewCollection[model.Department](d.Store, model.CollectionDepartments),
		history:     docstore.NewCollection[model.HistoryEntry](d.Store, model.CollectionHistory),
		evaluations: docstore.NewCollection[model.Submission](d.Store, model.CollectionEvaluations),

		images:   d.Images,
		identity: d.Identity,
		queue:    d.Queue,
		cache:    d.Cache,
		metrics:  d.Metrics,
		log:      d.Log,

		concurrency:     d.Concurrency,
		historyTTL:      d.HistoryTTL,
		metadataTimeout: d.MetadataTimeout,
	}
}

// Watch drops the cached history tree whenever history or evaluation
// documents change. It returns once the listeners are registered; they stop
// with ctx.
func (s *Service) Watch(ctx context.Context) error {
	invalidate := func() {
		if err := s.cache.Delete(context.WithoutCancel(ctx), historyCacheKey); err != nil {
			s.log.Warn("history cache invalidation failed", zap.Error(err))
		}
	}
	if err := s.history.OnChange(ctx, invalidate); err != nil {
		return err
	}
	return s.evaluations.OnChange(ctx, invalidate)
}

// runOpts builds importer options with the service's concurrency.
func runOpts[T any](s *Service, skipped int, label func(T) string) importer.Options[T] {
	return importer.Options[T]{Concurrency: s.concurrency, Skipped: skipped, Label: label}
}
