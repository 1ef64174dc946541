package rangequery

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpp-platform/battery-service/internal/model"
)

type mockFinder struct {
	calls  int
	filter model.RangeFilter
	findFn func(ctx context.Context, filter model.RangeFilter) ([]model.Battery, error)
}

func (m *mockFinder) FindBatteriesInRange(ctx context.Context, filter model.RangeFilter) ([]model.Battery, error) {
	m.calls++
	m.filter = filter
	if m.findFn != nil {
		return m.findFn(ctx, filter)
	}
	return nil, nil
}

func returning(batteries ...model.Battery) func(context.Context, model.RangeFilter) ([]model.Battery, error) {
	return func(context.Context, model.RangeFilter) ([]model.Battery, error) {
		return batteries, nil
	}
}

var (
	cannington = model.Battery{ID: 1, Name: "Cannington", Postcode: "6107", Capacity: 13500}
	victoria   = model.Battery{ID: 2, Name: "Victoria", Postcode: "6108", Capacity: 15000}
)

func int64Ptr(v int64) *int64 { return &v }

func TestEvaluate_EndToEndExample(t *testing.T) {
	finder := &mockFinder{findFn: returning(cannington, victoria)}
	ev := NewEvaluator(finder)

	res, err := ev.Evaluate(context.Background(), Request{
		StartPostcode: "6000",
		EndPostcode:   "6500",
		StartCapacity: "12000",
		EndCapacity:   "20000",
	})
	require.NoError(t, err)

	assert.False(t, res.IsEmpty())
	assert.Equal(t, []string{"Cannington", "Victoria"}, res.Names)
	assert.Equal(t, int64(28500), res.TotalCapacity)
	assert.Equal(t, 14250.0, res.AverageCapacity)

	require.Equal(t, 1, finder.calls)
	assert.Equal(t, model.RangeFilter{
		StartPostcode: 6000,
		EndPostcode:   6500,
		StartCapacity: int64Ptr(12000),
		EndCapacity:   int64Ptr(20000),
	}, finder.filter)
}

func TestEvaluate_SortsNamesRegardlessOfStorageOrder(t *testing.T) {
	finder := &mockFinder{findFn: returning(victoria, cannington)}

	res, err := NewEvaluator(finder).Evaluate(context.Background(), Request{StartPostcode: "6000", EndPostcode: "6500"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Cannington", "Victoria"}, res.Names)
}

func TestEvaluate_SortIsCaseSensitiveByteOrder(t *testing.T) {
	finder := &mockFinder{findFn: returning(
		model.Battery{Name: "alpha", Capacity: 1},
		model.Battery{Name: "Zulu", Capacity: 1},
		model.Battery{Name: "Alpha", Capacity: 1},
	)}

	res, err := NewEvaluator(finder).Evaluate(context.Background(), Request{StartPostcode: "1", EndPostcode: "2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Zulu", "alpha"}, res.Names)
}

func TestEvaluate_DoesNotReorderStorageSlice(t *testing.T) {
	stored := []model.Battery{victoria, cannington}
	finder := &mockFinder{findFn: func(context.Context, model.RangeFilter) ([]model.Battery, error) {
		return stored, nil
	}}

	_, err := NewEvaluator(finder).Evaluate(context.Background(), Request{StartPostcode: "6000", EndPostcode: "6500"})
	require.NoError(t, err)
	assert.Equal(t, "Victoria", stored[0].Name)
}

func TestEvaluate_NoMatchesIsDistinguishedEmpty(t *testing.T) {
	finder := &mockFinder{findFn: returning()}

	res, err := NewEvaluator(finder).Evaluate(context.Background(), Request{StartPostcode: "6000", EndPostcode: "6500"})
	require.NoError(t, err)
	assert.True(t, res.IsEmpty())
	assert.Nil(t, res.Names)
	assert.Equal(t, 1, finder.calls)
}

func TestEvaluate_CapacityDefaultFill(t *testing.T) {
	tests := []struct {
		name      string
		startCap  string
		endCap    string
		wantStart *int64
		wantEnd   *int64
	}{
		{name: "neither bound stays unset", wantStart: nil, wantEnd: nil},
		{name: "blank bounds stay unset", startCap: "  ", endCap: "", wantStart: nil, wantEnd: nil},
		{name: "start only fills max end", startCap: "100", wantStart: int64Ptr(100), wantEnd: int64Ptr(math.MaxInt64)},
		{name: "end only fills zero start", endCap: "900", wantStart: int64Ptr(0), wantEnd: int64Ptr(900)},
		{name: "both kept", startCap: "0", endCap: "0", wantStart: int64Ptr(0), wantEnd: int64Ptr(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := &mockFinder{}
			_, err := NewEvaluator(finder).Evaluate(context.Background(), Request{
				StartPostcode: "6000",
				EndPostcode:   "6500",
				StartCapacity: tt.startCap,
				EndCapacity:   tt.endCap,
			})
			require.NoError(t, err)
			require.Equal(t, 1, finder.calls)
			assert.Equal(t, tt.wantStart, finder.filter.StartCapacity)
			assert.Equal(t, tt.wantEnd, finder.filter.EndCapacity)
		})
	}
}

func TestEvaluate_ValidationFailures(t *testing.T) {
	tests := []struct {
		name      string
		req       Request
		wantKind  error
		wantMsg   string
		wantField string
	}{
		{
			name:      "non numeric postcode",
			req:       Request{StartPostcode: "abc", EndPostcode: "6500"},
			wantKind:  ErrInvalidFormat,
			wantMsg:   "Start postcode and end postcode must be valid integers",
			wantField: "startPostCode",
		},
		{
			name:      "postcode format reported before malformed capacities",
			req:       Request{StartPostcode: "6000", EndPostcode: "xyz", StartCapacity: "nope", EndCapacity: "-1"},
			wantKind:  ErrInvalidFormat,
			wantMsg:   "Start postcode and end postcode must be valid integers",
			wantField: "endPostCode",
		},
		{
			name:      "missing postcode",
			req:       Request{EndPostcode: "6500"},
			wantKind:  ErrInvalidFormat,
			wantMsg:   "Start postcode and end postcode must be valid integers",
			wantField: "startPostCode",
		},
		{
			name:      "postcode ordering",
			req:       Request{StartPostcode: "12400", EndPostcode: "12300"},
			wantKind:  ErrInvalidRange,
			wantMsg:   "Start postcode must be less than or equal to end postcode",
			wantField: "startPostCode",
		},
		{
			name:      "postcode ordering before capacity format",
			req:       Request{StartPostcode: "12400", EndPostcode: "12300", StartCapacity: "bad"},
			wantKind:  ErrInvalidRange,
			wantMsg:   "Start postcode must be less than or equal to end postcode",
			wantField: "startPostCode",
		},
		{
			name:      "start capacity not integer",
			req:       Request{StartPostcode: "1", EndPostcode: "2", StartCapacity: "12.5"},
			wantKind:  ErrInvalidFormat,
			wantMsg:   "Start capacity must be a valid integer",
			wantField: "startCapacity",
		},
		{
			name:      "end capacity not integer",
			req:       Request{StartPostcode: "1", EndPostcode: "2", EndCapacity: "lots"},
			wantKind:  ErrInvalidFormat,
			wantMsg:   "End capacity must be a valid integer",
			wantField: "endCapacity",
		},
		{
			name:      "negative start capacity",
			req:       Request{StartPostcode: "1", EndPostcode: "2", StartCapacity: "-5"},
			wantKind:  ErrInvalidRange,
			wantMsg:   "Start capacity must not be negative",
			wantField: "startCapacity",
		},
		{
			name:      "negative end capacity",
			req:       Request{StartPostcode: "1", EndPostcode: "2", EndCapacity: "-5"},
			wantKind:  ErrInvalidRange,
			wantMsg:   "End capacity must not be negative",
			wantField: "endCapacity",
		},
		{
			name:      "capacity ordering",
			req:       Request{StartPostcode: "1", EndPostcode: "2", StartCapacity: "20000", EndCapacity: "12000"},
			wantKind:  ErrInvalidRange,
			wantMsg:   "Start capacity must be less than or equal to end capacity",
			wantField: "startCapacity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := &mockFinder{}
			res, err := NewEvaluator(finder).Evaluate(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, res.IsEmpty())
			assert.ErrorIs(t, err, tt.wantKind)
			assert.NotErrorIs(t, err, ErrStorage)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantMsg, verr.Message)
			assert.Equal(t, tt.wantField, verr.Field)
			assert.Zero(t, finder.calls, "storage must not be queried on validation failure")
		})
	}
}

func TestEvaluate_StorageFailure(t *testing.T) {
	boom := errors.New("connection refused")
	finder := &mockFinder{findFn: func(context.Context, model.RangeFilter) ([]model.Battery, error) {
		return nil, boom
	}}

	_, err := NewEvaluator(finder).Evaluate(context.Background(), Request{StartPostcode: "1", EndPostcode: "2"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, boom)

	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestParseCapacityBound(t *testing.T) {
	v, err := ParseCapacityBound("0", FieldStartCapacity)
	require.NoError(t, err)
	assert.Zero(t, v)

	v, err = ParseCapacityBound("13500", FieldEndCapacity)
	require.NoError(t, err)
	assert.Equal(t, int64(13500), v)

	_, err = ParseCapacityBound("", FieldEndCapacity)
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = ParseCapacityBound("99999999999999999999", FieldEndCapacity)
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.EqualError(t, err, "End capacity must be a valid integer")

	_, err = ParseCapacityBound("-1", FieldStartCapacity)
	assert.ErrorIs(t, err, ErrInvalidRange)
	assert.EqualError(t, err, "Start capacity must not be negative")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldStartCapacity, verr.Field)
}

func TestAggregates(t *testing.T) {
	total, err := TotalCapacity(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Equal(t, 0.0, AverageCapacity(nil))
	assert.Equal(t, 0.0, AverageCapacity([]model.Battery{}))
	assert.False(t, math.IsNaN(AverageCapacity(nil)))

	pair := []model.Battery{{Capacity: 13500}, {Capacity: 15000}}
	total, err = TotalCapacity(pair)
	require.NoError(t, err)
	assert.Equal(t, int64(28500), total)
	assert.Equal(t, 14250.0, AverageCapacity(pair))

	assert.Equal(t, 2.5, AverageCapacity([]model.Battery{{Capacity: 2}, {Capacity: 3}}))
}

func TestTotalCapacity_Overflow(t *testing.T) {
	total, err := TotalCapacity([]model.Battery{{Capacity: math.MaxInt64}, {Capacity: 1}})
	require.ErrorIs(t, err, ErrCapacityOverflow)
	assert.Zero(t, total)

	total, err = TotalCapacity([]model.Battery{{Capacity: math.MaxInt64 - 1}, {Capacity: 1}})
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), total)
}

func TestEvaluate_CapacityOverflowIsStorageFailure(t *testing.T) {
	finder := &mockFinder{findFn: returning(
		model.Battery{ID: 1, Name: "a", Postcode: "1", Capacity: math.MaxInt64},
		model.Battery{ID: 2, Name: "b", Postcode: "2", Capacity: 1},
	)}

	res, err := NewEvaluator(finder).Evaluate(context.Background(), Request{StartPostcode: "1", EndPostcode: "2"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, ErrCapacityOverflow)
	assert.True(t, res.IsEmpty())
	assert.Zero(t, res.TotalCapacity)
}
