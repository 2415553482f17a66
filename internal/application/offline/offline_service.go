// Package offline serves collectors working without connectivity: a JSON
// snapshot of their portfolio, the sync marker telling whether that copy is
// stale, and an idempotent write-back of collections recorded offline.
package offline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	financeapp "github.com/cobranzas/backend/internal/application/finance"
	"github.com/cobranzas/backend/internal/domain/finance"
	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/domain/partner"
	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/cobranzas/backend/internal/domain/trade"
	"github.com/cobranzas/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxIdempotencyKeyLength = 100
	defaultIdempotencyTTL   = 24 * time.Hour
)

// ChangeFeed computes the high water mark of the data visible to a collector
type ChangeFeed interface {
	HighWaterMark(ctx context.Context, collectorID *uuid.UUID) (*time.Time, error)
}

// CollectionRecorder records collections and finds them by client reference
type CollectionRecorder interface {
	Record(ctx context.Context, actor identity.Actor, req financeapp.RecordCollectionRequest, clientReference string) (*financeapp.CollectionResponse, error)
	FindByClientReference(ctx context.Context, actor identity.Actor, ref string) (*financeapp.CollectionResponse, error)
}

// WriteBackMetrics counts write-back outcomes
type WriteBackMetrics interface {
	RecordWriteBack(ctx context.Context, outcome telemetry.WriteBackOutcome)
}

// OfflineService serves offline snapshots and write-backs
type OfflineService struct {
	customerRepo   partner.CustomerRepository
	saleRepo       trade.SaleRepository
	syncLogRepo    finance.SyncLogRepository
	changeFeed     ChangeFeed
	recorder       CollectionRecorder
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	metrics        WriteBackMetrics
	logger         *zap.Logger
	now            func() time.Time
}

// NewOfflineService creates a new OfflineService. idempotency may be nil, in
// which case duplicates are caught by the unique client reference alone.
func NewOfflineService(
	customerRepo partner.CustomerRepository,
	saleRepo trade.SaleRepository,
	syncLogRepo finance.SyncLogRepository,
	changeFeed ChangeFeed,
	recorder CollectionRecorder,
	idempotency shared.IdempotencyStore,
	idempotencyTTL time.Duration,
	logger *zap.Logger,
) *OfflineService {
	if idempotencyTTL <= 0 {
		idempotencyTTL = defaultIdempotencyTTL
	}
	return &OfflineService{
		customerRepo:   customerRepo,
		saleRepo:       saleRepo,
		syncLogRepo:    syncLogRepo,
		changeFeed:     changeFeed,
		recorder:       recorder,
		idempotency:    idempotency,
		idempotencyTTL: idempotencyTTL,
		logger:         logger,
		now:            time.Now,
	}
}

// SetMetrics sets the collector of write-back metrics
func (s *OfflineService) SetMetrics(metrics WriteBackMetrics) {
	s.metrics = metrics
}

// scope returns the collector whose portfolio the actor sees, nil for admins
func scope(actor identity.Actor) *uuid.UUID {
	if actor.IsAdmin() {
		return nil
	}
	id := actor.UserID
	return &id
}

// Snapshot returns the actor's customers and sales with a pending balance.
// With since, only entities changed after it are returned, including sales
// that were settled or written off so the client can drop them. The marker is
// read before the data so changes made while the snapshot is assembled are
// sent again on the next pull.
func (s *OfflineService) Snapshot(ctx context.Context, actor identity.Actor, since *time.Time) (*SnapshotResponse, error) {
	if !actor.Role.IsValid() {
		return nil, shared.NewPermissionError("Offline access requires a collector or administrator")
	}

	var response *SnapshotResponse
	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationOfflineSnapshot, nil), func(c context.Context) {
		response, err = s.buildSnapshot(c, actor, since)
	})
	if err != nil {
		return nil, err
	}

	log := finance.NewSyncLog(actor.UserID, response.SyncMarker)
	log.SyncedAt = response.GeneratedAt
	if err := s.syncLogRepo.Save(ctx, log); err != nil {
		return nil, fmt.Errorf("failed to record sync: %w", err)
	}

	s.logger.Info("Offline snapshot served",
		zap.String("user_id", actor.UserID.String()),
		zap.Bool("delta", since != nil),
		zap.Int("customers", len(response.Customers)),
		zap.Int("sales", len(response.Sales)),
	)
	return response, nil
}

func (s *OfflineService) buildSnapshot(ctx context.Context, actor identity.Actor, since *time.Time) (*SnapshotResponse, error) {
	visibleTo := scope(actor)
	generatedAt := s.now()

	marker, err := s.changeFeed.HighWaterMark(ctx, visibleTo)
	if err != nil {
		return nil, fmt.Errorf("failed to read sync marker: %w", err)
	}

	customers, _, err := s.customerRepo.FindAll(ctx, partner.CustomerFilter{
		Filter:       shared.Filter{OrderBy: "name", OrderDir: "asc"},
		VisibleTo:    visibleTo,
		UpdatedAfter: since,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}

	saleFilter := trade.SaleFilter{
		Filter:       shared.Filter{OrderBy: "sale_date", OrderDir: "asc"},
		VisibleTo:    visibleTo,
		UpdatedAfter: since,
	}
	if since == nil {
		collectible := false
		saleFilter.Uncollectible = &collectible
		saleFilter.PendingOnly = true
	}
	sales, _, err := s.saleRepo.FindAll(ctx, saleFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}

	response := &SnapshotResponse{
		SyncMarker:  marker,
		Since:       since,
		GeneratedAt: generatedAt,
		Customers:   make([]SnapshotCustomer, 0, len(customers)),
		Sales:       make([]SnapshotSale, 0, len(sales)),
	}
	for i := range customers {
		response.Customers = append(response.Customers, toSnapshotCustomer(&customers[i]))
	}
	for i := range sales {
		response.Sales = append(response.Sales, toSnapshotSale(&sales[i]))
	}
	return response, nil
}

// SyncMarker returns the current high water mark for the actor and the time of
// the actor's latest snapshot pull
func (s *OfflineService) SyncMarker(ctx context.Context, actor identity.Actor) (*SyncMarkerResponse, error) {
	marker, err := s.changeFeed.HighWaterMark(ctx, scope(actor))
	if err != nil {
		return nil, fmt.Errorf("failed to read sync marker: %w", err)
	}

	response := &SyncMarkerResponse{SyncMarker: marker}
	latest, err := s.syncLogRepo.FindLatestByUser(ctx, actor.UserID)
	switch {
	case err == nil:
		response.LastSyncedAt = &latest.SyncedAt
	case !shared.IsNotFound(err):
		return nil, fmt.Errorf("failed to read last sync: %w", err)
	}
	return response, nil
}

// WriteBack records a collection captured offline. The idempotency key is
// stored as the collection's client reference; replaying a key returns the
// original collection instead of applying the payments twice.
func (s *OfflineService) WriteBack(ctx context.Context, actor identity.Actor, idempotencyKey string, req financeapp.RecordCollectionRequest) (*WriteBackResponse, error) {
	key := strings.TrimSpace(idempotencyKey)
	if key == "" {
		return nil, shared.NewValidationError("Idempotency-Key header is required")
	}
	if len(key) > maxIdempotencyKeyLength {
		return nil, shared.NewValidationError(fmt.Sprintf("Idempotency key cannot exceed %d characters", maxIdempotencyKeyLength))
	}

	if existing, err := s.findApplied(ctx, actor, key); err != nil || existing != nil {
		return existing, err
	}

	storeKey := "offline:writeback:" + key
	marked := false
	if s.idempotency != nil {
		newly, err := s.idempotency.MarkProcessed(ctx, storeKey, s.idempotencyTTL)
		switch {
		case err != nil:
			s.logger.Warn("Idempotency store unavailable, relying on client reference",
				zap.String("idempotency_key", key), zap.Error(err))
		case !newly:
			// another request with this key is in flight or just finished
			if existing, err := s.findApplied(ctx, actor, key); err != nil || existing != nil {
				return existing, err
			}
			s.recordOutcome(ctx, telemetry.WriteBackFailed)
			return nil, shared.NewDomainError(shared.CodeConcurrentModification,
				"A request with this idempotency key is already being processed")
		default:
			marked = true
		}
	}

	var collection *financeapp.CollectionResponse
	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationOfflineWriteBack, nil), func(c context.Context) {
		collection, err = s.recorder.Record(c, actor, req, key)
	})
	if err != nil {
		if marked {
			if releaseErr := s.idempotency.Release(ctx, storeKey); releaseErr != nil {
				s.logger.Warn("Failed to release idempotency key",
					zap.String("idempotency_key", key), zap.Error(releaseErr))
			}
		}
		if errors.Is(err, shared.ErrAlreadyExists) {
			// lost a race on the unique client reference
			if existing, findErr := s.findApplied(ctx, actor, key); findErr == nil && existing != nil {
				return existing, nil
			}
		}
		s.recordOutcome(ctx, telemetry.WriteBackFailed)
		return nil, err
	}

	s.recordOutcome(ctx, telemetry.WriteBackApplied)
	return &WriteBackResponse{Collection: collection}, nil
}

// findApplied returns the duplicate response for key when a collection was
// already recorded under it. A key owned by another collector is a conflict.
func (s *OfflineService) findApplied(ctx context.Context, actor identity.Actor, key string) (*WriteBackResponse, error) {
	existing, err := s.recorder.FindByClientReference(ctx, actor, key)
	switch {
	case err == nil:
		s.recordOutcome(ctx, telemetry.WriteBackDuplicate)
		s.logger.Info("Duplicate offline write-back",
			zap.String("idempotency_key", key),
			zap.String("collection_id", existing.ID.String()),
		)
		return &WriteBackResponse{Collection: existing, Duplicate: true}, nil
	case shared.IsNotFound(err):
		return nil, nil
	case shared.IsPermissionError(err):
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Idempotency key already used by another collector")
	default:
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
}

func (s *OfflineService) recordOutcome(ctx context.Context, outcome telemetry.WriteBackOutcome) {
	if s.metrics != nil {
		s.metrics.RecordWriteBack(ctx, outcome)
	}
}
