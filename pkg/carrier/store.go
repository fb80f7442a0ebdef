package carrier

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShipmentStore persists shipment records. Adapters hold no in-process state
// between requests; every call re-reads the externally persisted record.
type ShipmentStore interface {
	// Create persists a new shipment.
	Create(ctx context.Context, shipment *Shipment) error

	// FindByTrackingNumber returns the shipment for a tracking number,
	// or ErrShipmentNotFound.
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (*Shipment, error)

	// FindByIdempotencyKey returns the shipment created under the given
	// idempotency key, or ErrShipmentNotFound.
	FindByIdempotencyKey(ctx context.Context, key string) (*Shipment, error)

	// ListByOrder returns all shipments fulfilling an order.
	ListByOrder(ctx context.Context, orderID string) ([]Shipment, error)

	// AdvanceStatus applies a monotonic status update. The update is applied
	// only when status ranks strictly later than the recorded one; otherwise
	// the stored shipment is returned unchanged with applied=false.
	AdvanceStatus(ctx context.Context, trackingNumber string, status ShipmentStatus) (*Shipment, bool, error)
}

// ============================================================================
// In-memory store
// ============================================================================

// MemoryShipmentStore is a mutex-guarded in-memory ShipmentStore used in
// tests and when no database DSN is configured.
type MemoryShipmentStore struct {
	mu        sync.Mutex
	shipments map[string]*Shipment // keyed by shipment ID
}

// NewMemoryShipmentStore creates an empty in-memory store.
func NewMemoryShipmentStore() *MemoryShipmentStore {
	return &MemoryShipmentStore{
		shipments: make(map[string]*Shipment),
	}
}

// Create persists a new shipment.
func (s *MemoryShipmentStore) Create(ctx context.Context, shipment *Shipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	stored := *shipment
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.shipments[stored.ID] = &stored
	*shipment = stored
	return nil
}

// FindByTrackingNumber returns the shipment for a tracking number.
func (s *MemoryShipmentStore) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, shipment := range s.shipments {
		if shipment.TrackingNumber == trackingNumber {
			copied := *shipment
			return &copied, nil
		}
	}
	return nil, ErrShipmentNotFound
}

// FindByIdempotencyKey returns the shipment created under an idempotency key.
func (s *MemoryShipmentStore) FindByIdempotencyKey(ctx context.Context, key string) (*Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, shipment := range s.shipments {
		if shipment.IdempotencyKey == key {
			copied := *shipment
			return &copied, nil
		}
	}
	return nil, ErrShipmentNotFound
}

// ListByOrder returns all shipments for an order.
func (s *MemoryShipmentStore) ListByOrder(ctx context.Context, orderID string) ([]Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []Shipment
	for _, shipment := range s.shipments {
		if shipment.OrderID == orderID {
			result = append(result, *shipment)
		}
	}
	return result, nil
}

// AdvanceStatus applies a monotonic status update under the store mutex.
func (s *MemoryShipmentStore) AdvanceStatus(ctx context.Context, trackingNumber string, status ShipmentStatus) (*Shipment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, shipment := range s.shipments {
		if shipment.TrackingNumber != trackingNumber {
			continue
		}
		if status.Rank() <= shipment.Status.Rank() {
			copied := *shipment
			return &copied, false, nil
		}
		shipment.Status = status
		shipment.UpdatedAt = time.Now()
		copied := *shipment
		return &copied, true, nil
	}
	return nil, false, ErrShipmentNotFound
}

var _ ShipmentStore = (*MemoryShipmentStore)(nil)

// ============================================================================
// GORM store
// ============================================================================

// GormShipmentStore is the database-backed ShipmentStore.
type GormShipmentStore struct {
	db *gorm.DB
}

// NewGormShipmentStore creates a store over the given database handle and
// migrates the shipments table.
func NewGormShipmentStore(db *gorm.DB) (*GormShipmentStore, error) {
	if err := db.AutoMigrate(&Shipment{}); err != nil {
		return nil, err
	}
	return &GormShipmentStore{db: db}, nil
}

// TableName maps Shipment to its table.
func (Shipment) TableName() string {
	return "shipments"
}

// Create persists a new shipment.
func (s *GormShipmentStore) Create(ctx context.Context, shipment *Shipment) error {
	return s.db.WithContext(ctx).Create(shipment).Error
}

// FindByTrackingNumber returns the shipment for a tracking number.
func (s *GormShipmentStore) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*Shipment, error) {
	var shipment Shipment
	err := s.db.WithContext(ctx).Where("tracking_number = ?", trackingNumber).First(&shipment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrShipmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

// FindByIdempotencyKey returns the shipment created under an idempotency key.
func (s *GormShipmentStore) FindByIdempotencyKey(ctx context.Context, key string) (*Shipment, error) {
	var shipment Shipment
	err := s.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&shipment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrShipmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

// ListByOrder returns all shipments for an order.
func (s *GormShipmentStore) ListByOrder(ctx context.Context, orderID string) ([]Shipment, error) {
	var shipments []Shipment
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Find(&shipments).Error
	if err != nil {
		return nil, err
	}
	return shipments, nil
}

// AdvanceStatus applies a monotonic status update under a row-level lock so
// concurrent webhook deliveries for the same shipment serialize.
func (s *GormShipmentStore) AdvanceStatus(ctx context.Context, trackingNumber string, status ShipmentStatus) (*Shipment, bool, error) {
	var shipment Shipment
	applied := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tracking_number = ?", trackingNumber).
			First(&shipment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrShipmentNotFound
		}
		if err != nil {
			return err
		}

		if status.Rank() <= shipment.Status.Rank() {
			return nil
		}

		shipment.Status = status
		shipment.UpdatedAt = time.Now()
		if err := tx.Model(&shipment).Updates(map[string]interface{}{
			"status":     shipment.Status,
			"updated_at": shipment.UpdatedAt,
		}).Error; err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &shipment, applied, nil
}

var _ ShipmentStore = (*GormShipmentStore)(nil)
