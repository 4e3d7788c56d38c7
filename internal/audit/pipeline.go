// Package audit captures every mutation on the watched collections into an
// append-only log. The pipeline runs beside the request path, never on it: a
// slow or broken subscription affects nothing but its own collection's
// capture.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/campusrate/backend/internal/models"
	"github.com/campusrate/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
)

// Event is one observed mutation on a watched collection.
type Event struct {
	Collection        string
	OperationType     string
	DocumentKey       string
	FullDocument      bson.M
	UpdateDescription bson.M
}

// Subscription is a live, cancellable feed of events for one collection. The
// Events channel closes when the feed ends; Err reports why (nil on a clean
// stop).
type Subscription interface {
	Events() <-chan Event
	Err() error
	Close(ctx context.Context) error
}

// Source opens per-collection subscriptions.
type Source interface {
	Subscribe(ctx context.Context, collection string) (Subscription, error)
}

const insertTimeout = 5 * time.Second

// Pipeline drains one subscription per watched collection and appends an
// audit record for every event.
type Pipeline struct {
	source      Source
	repo        repositories.AuditRepository
	log         *slog.Logger
	collections []string

	now    func() time.Time
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a pipeline for the given watched set. The audit collection
// itself is always stripped from the set: capturing the pipeline's own writes
// would recurse without bound.
func New(source Source, repo repositories.AuditRepository, log *slog.Logger, collections []string) *Pipeline {
	watched := make([]string, 0, len(collections))
	for _, c := range collections {
		if c == repositories.AuditCollection {
			log.Warn("audit collection excluded from watched set", "collection", c)
			continue
		}
		watched = append(watched, c)
	}

	return &Pipeline{
		source:      source,
		repo:        repo,
		log:         log,
		collections: watched,
		now:         time.Now,
	}
}

// Collections returns the effective watched set.
func (p *Pipeline) Collections() []string {
	return p.collections
}

// Start launches one capture loop per watched collection.
func (p *Pipeline) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	for _, collection := range p.collections {
		p.wg.Add(1)
		go func(collection string) {
			defer p.wg.Done()
			p.run(ctx, collection)
		}(collection)
	}
	p.log.Info("change capture pipeline started", "collections", p.collections)
}

// Stop cancels all capture loops and waits for them to drain.
func (p *Pipeline) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.log.Info("change capture pipeline stopped")
}

// run owns one collection's subscription. A subscription failure stops this
// loop only; the other collections keep capturing.
func (p *Pipeline) run(ctx context.Context, collection string) {
	sub, err := p.source.Subscribe(ctx, collection)
	if err != nil {
		p.log.Error("audit subscription failed", "collection", collection, "error", err)
		return
	}

	for event := range sub.Events() {
		p.record(ctx, event)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if cerr := sub.Close(closeCtx); cerr != nil {
		p.log.Warn("audit subscription close failed", "collection", collection, "error", cerr)
	}

	if serr := sub.Err(); serr != nil && !errors.Is(serr, context.Canceled) {
		p.log.Error("audit subscription terminated", "collection", collection, "error", serr)
	}
}

// record synthesizes and appends one audit record. A duplicate dedup key is
// benign; any other insert failure is logged and the loop moves on.
func (p *Pipeline) record(ctx context.Context, event Event) {
	captured := p.now()

	record := &models.AuditRecord{
		CollectionName:    event.Collection,
		OperationType:     event.OperationType,
		DocumentKey:       event.DocumentKey,
		FullDocument:      event.FullDocument,
		UpdateDescription: event.UpdateDescription,
		Timestamp:         captured,
		UniqueID:          DedupKey(event.Collection, event.DocumentKey, captured),
	}

	switch event.OperationType {
	case models.OperationDelete:
		// The store cannot supply a deleted body.
		record.FullDocument = nil
		record.UpdateDescription = nil
	case models.OperationInsert:
		record.UpdateDescription = nil
	}

	// Cancellation stops the subscription, not the writes: events already
	// drained from the feed still land.
	insertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), insertTimeout)
	defer cancel()

	err := p.repo.InsertRecord(insertCtx, record)
	switch {
	case errors.Is(err, repositories.ErrDuplicateAudit):
		p.log.Debug("duplicate audit record dropped", "uniqueId", record.UniqueID)
	case err != nil:
		p.log.Error("audit record insert failed",
			"collection", event.Collection, "documentKey", event.DocumentKey, "error", err)
	}
}

// DedupKey derives the deterministic identity of one capture event.
func DedupKey(collection, documentKey string, captured time.Time) string {
	return fmt.Sprintf("%s:%s:%d", collection, documentKey, captured.UnixMilli())
}
