// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// IdentityRepository defines the secondary port for identity persistence.
// Every call is a single statement against durable storage; nothing is cached.
type IdentityRepository interface {
	// GetByID retrieves an identity. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id int64) (*IdentityRecord, error)

	// Register inserts the identity only if absent. An existing row is
	// returned untouched with created=false.
	Register(ctx context.Context, id int64, phone string, interfaceVersion string) (record *IdentityRecord, created bool, err error)

	// SetInterfaceVersion updates only the version marker.
	SetInterfaceVersion(ctx context.Context, id int64, version string) error

	// BulkSetInterfaceVersion sets the marker on every identity and returns
	// how many rows were touched.
	BulkSetInterfaceVersion(ctx context.Context, version string) (int64, error)

	// ListIDs returns every registered identity ID in ascending order.
	ListIDs(ctx context.Context) ([]int64, error)
}

// IdentityRecord represents an identity as stored in persistence.
type IdentityRecord struct {
	ID               int64
	Phone            string
	InterfaceVersion string // empty when the stored marker is NULL
	CreatedAt        time.Time
}

// MeasurementRepository defines the secondary port for the append-only
// measurement log.
type MeasurementRepository interface {
	// Append stores a reading stamped with the current server time and
	// returns its ID.
	Append(ctx context.Context, m NewMeasurement) (int64, error)

	// Recent returns at most limit readings, newest first.
	Recent(ctx context.Context, identityID int64, limit int) ([]*MeasurementRecord, error)

	// All returns every reading for the identity, oldest first.
	All(ctx context.Context, identityID int64) ([]*MeasurementRecord, error)

	// Count returns the number of readings for the identity.
	Count(ctx context.Context, identityID int64) (int, error)

	// Dump returns every reading of every identity ordered by ID.
	Dump(ctx context.Context) ([]*MeasurementRecord, error)
}

// NewMeasurement carries the fields of a reading about to be appended.
type NewMeasurement struct {
	IdentityID int64
	Systolic   int
	Diastolic  int
	Pulse      int
	Comment    *string // nil stores NULL
}

// MeasurementRecord represents a reading as stored in persistence.
type MeasurementRecord struct {
	ID         int64
	IdentityID int64
	Systolic   int
	Diastolic  int
	Pulse      int
	Comment    *string
	RecordedAt time.Time
}
