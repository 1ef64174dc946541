// Package model contains internal domain models for the battery service.
package model

import (
	"math"
	"strconv"
	"time"
)

// MaxCapacity is the largest capacity a battery can be registered with.
const MaxCapacity int64 = math.MaxInt32

// Battery is a persisted battery record. Records are immutable once created.
type Battery struct {
	ID        int64
	Name      string
	Postcode  string
	Capacity  int64
	CreatedAt time.Time
}

// IDString returns the storage identifier in its wire form.
func (b Battery) IDString() string {
	return strconv.FormatInt(b.ID, 10)
}

// RangeFilter selects batteries by an inclusive numeric postcode range and an
// optional inclusive capacity range. A nil capacity bound leaves that side
// unconstrained.
type RangeFilter struct {
	StartPostcode int64
	EndPostcode   int64
	StartCapacity *int64
	EndCapacity   *int64
}

// HasCapacityBounds reports whether any capacity predicate applies.
func (f RangeFilter) HasCapacityBounds() bool {
	return f.StartCapacity != nil || f.EndCapacity != nil
}
