// Package rangequery validates postcode/capacity range requests, runs them
// against storage and aggregates the matches.
package rangequery

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/vpp-platform/battery-service/internal/model"
)

const (
	// Field names match the range query parameters.
	FieldStartPostcode = "startPostCode"
	FieldEndPostcode   = "endPostCode"
	FieldStartCapacity = "startCapacity"
	FieldEndCapacity   = "endCapacity"

	// unboundedCapacity fills a missing upper capacity bound.
	unboundedCapacity int64 = math.MaxInt64
)

// Finder is the storage read path the evaluator depends on.
type Finder interface {
	FindBatteriesInRange(ctx context.Context, filter model.RangeFilter) ([]model.Battery, error)
}

// Request carries the raw, unparsed query bounds. Capacity bounds may be blank.
type Request struct {
	StartPostcode string
	EndPostcode   string
	StartCapacity string
	EndCapacity   string
}

// Result holds the matched names in ascending order and their aggregates.
type Result struct {
	Names           []string
	TotalCapacity   int64
	AverageCapacity float64
}

// IsEmpty reports whether the query matched nothing.
func (r Result) IsEmpty() bool {
	return len(r.Names) == 0
}

// Evaluator is stateless and safe for concurrent use.
type Evaluator struct {
	finder Finder
}

// NewEvaluator returns an evaluator reading from finder.
func NewEvaluator(finder Finder) *Evaluator {
	return &Evaluator{finder: finder}
}

// Evaluate validates req, queries storage and aggregates the matches.
// Validation failures are *ValidationError values and never reach storage.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (Result, error) {
	filter, err := ParseFilter(req)
	if err != nil {
		return Result{}, err
	}

	batteries, err := e.finder.FindBatteriesInRange(ctx, filter)
	if err != nil {
		return Result{}, fmt.Errorf("%w: finding batteries in range: %w", ErrStorage, err)
	}
	if len(batteries) == 0 {
		return Result{}, nil
	}

	sorted := slices.Clone(batteries)
	slices.SortStableFunc(sorted, func(a, b model.Battery) int {
		return strings.Compare(a.Name, b.Name)
	})

	total, err := TotalCapacity(sorted)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	names := make([]string, len(sorted))
	for i, b := range sorted {
		names[i] = b.Name
	}

	return Result{
		Names:           names,
		TotalCapacity:   total,
		AverageCapacity: AverageCapacity(sorted),
	}, nil
}

// ParseFilter validates the raw request and applies capacity default-fill.
// Checks run in a fixed order: postcode format, postcode ordering, capacity
// format, capacity ordering.
func ParseFilter(req Request) (model.RangeFilter, error) {
	startPostcode, startErr := strconv.ParseInt(req.StartPostcode, 10, 64)
	endPostcode, endErr := strconv.ParseInt(req.EndPostcode, 10, 64)
	if startErr != nil || endErr != nil {
		field := FieldStartPostcode
		if startErr == nil {
			field = FieldEndPostcode
		}
		return model.RangeFilter{}, invalidFormat(field,
			"Start postcode and end postcode must be valid integers")
	}
	if startPostcode > endPostcode {
		return model.RangeFilter{}, invalidRange(FieldStartPostcode,
			"Start postcode must be less than or equal to end postcode")
	}

	filter := model.RangeFilter{
		StartPostcode: startPostcode,
		EndPostcode:   endPostcode,
	}

	if strings.TrimSpace(req.StartCapacity) != "" {
		v, err := ParseCapacityBound(req.StartCapacity, FieldStartCapacity)
		if err != nil {
			return model.RangeFilter{}, err
		}
		filter.StartCapacity = &v
	}
	if strings.TrimSpace(req.EndCapacity) != "" {
		v, err := ParseCapacityBound(req.EndCapacity, FieldEndCapacity)
		if err != nil {
			return model.RangeFilter{}, err
		}
		filter.EndCapacity = &v
	}

	switch {
	case filter.StartCapacity != nil && filter.EndCapacity == nil:
		upper := unboundedCapacity
		filter.EndCapacity = &upper
	case filter.StartCapacity == nil && filter.EndCapacity != nil:
		var lower int64
		filter.StartCapacity = &lower
	}

	if filter.StartCapacity != nil && *filter.StartCapacity > *filter.EndCapacity {
		return model.RangeFilter{}, invalidRange(FieldStartCapacity,
			"Start capacity must be less than or equal to end capacity")
	}

	return filter, nil
}

// ParseCapacityBound parses one capacity bound named by field
// (FieldStartCapacity or FieldEndCapacity). Zero is accepted.
func ParseCapacityBound(raw, field string) (int64, error) {
	label := capacityLabel(field)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, invalidFormat(field, label+" must be a valid integer")
	}
	if v < 0 {
		return 0, invalidRange(field, label+" must not be negative")
	}
	return v, nil
}

func capacityLabel(field string) string {
	if field == FieldEndCapacity {
		return "End capacity"
	}
	return "Start capacity"
}

// TotalCapacity sums capacity over batteries. It fails with
// ErrCapacityOverflow instead of wrapping around.
func TotalCapacity(batteries []model.Battery) (int64, error) {
	var total int64
	for _, b := range batteries {
		if b.Capacity > 0 && total > math.MaxInt64-b.Capacity {
			return 0, ErrCapacityOverflow
		}
		total += b.Capacity
	}
	return total, nil
}

// AverageCapacity is the arithmetic mean capacity, or 0 for no batteries.
func AverageCapacity(batteries []model.Battery) float64 {
	if len(batteries) == 0 {
		return 0
	}
	values := make([]float64, len(batteries))
	for i, b := range batteries {
		values[i] = float64(b.Capacity)
	}
	return stat.Mean(values, nil)
}
