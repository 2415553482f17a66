package finance

import (
	"time"

	"github.com/google/uuid"
)

// CollectionDelivery records the hand-over of a collection's cash to the office
type CollectionDelivery struct {
	ID           uuid.UUID
	CollectionID uuid.UUID
	DeliveredBy  uuid.UUID
	DeliveredAt  time.Time
}

// NewCollectionDelivery creates a delivery record
func NewCollectionDelivery(collectionID, deliveredBy uuid.UUID, at time.Time) *CollectionDelivery {
	return &CollectionDelivery{
		ID:           uuid.New(),
		CollectionID: collectionID,
		DeliveredBy:  deliveredBy,
		DeliveredAt:  at,
	}
}

// SyncLog records an offline snapshot pull by a collector
type SyncLog struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	SyncedAt time.Time
	Marker   *time.Time // High water mark handed to the client
}

// NewSyncLog creates a sync log entry stamped now
func NewSyncLog(userID uuid.UUID, marker *time.Time) *SyncLog {
	return &SyncLog{
		ID:       uuid.New(),
		UserID:   userID,
		SyncedAt: time.Now(),
		Marker:   marker,
	}
}
