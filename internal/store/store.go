// Package store defines the battery data access contract and its PostgreSQL
// implementation.
package store

import (
	"context"
	"errors"

	"github.com/vpp-platform/battery-service/internal/model"
)

var (
	// ErrNotFound is returned when the requested battery does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned when an insert would duplicate a battery name.
	ErrConflict = errors.New("resource conflict")
)

// Sort fields accepted by ListBatteries.
const (
	SortByID       = "id"
	SortByName     = "name"
	SortByPostcode = "postcode"
	SortByCapacity = "capacity"
)

// ListOptions carries pagination and ordering for ListBatteries.
type ListOptions struct {
	Limit      int
	Offset     int
	SortField  string
	Descending bool
}

// IsValidSortField reports whether field can be passed as ListOptions.SortField.
func IsValidSortField(field string) bool {
	switch field {
	case SortByID, SortByName, SortByPostcode, SortByCapacity:
		return true
	}
	return false
}

// Store defines the data access methods for batteries. Expected conditions
// are reported with ErrNotFound and ErrConflict; any other error is an
// infrastructure failure.
type Store interface {
	// Ping checks database connectivity. Used by the readiness probe.
	Ping(ctx context.Context) error

	// ExistsByName reports whether a battery with this exact name exists.
	ExistsByName(ctx context.Context, name string) (bool, error)

	// CreateBattery inserts b and returns it with ID and CreatedAt populated.
	CreateBattery(ctx context.Context, b model.Battery) (model.Battery, error)

	// GetBattery returns one battery or ErrNotFound.
	GetBattery(ctx context.Context, id int64) (model.Battery, error)

	// ListBatteries returns one page and the total number of batteries.
	ListBatteries(ctx context.Context, opts ListOptions) ([]model.Battery, int, error)

	// FindBatteriesInRange compares postcodes numerically and applies each
	// capacity bound only when it is set.
	FindBatteriesInRange(ctx context.Context, filter model.RangeFilter) ([]model.Battery, error)
}
