// Integration tests for PostgresStore against a real PostgreSQL container
// with the embedded migrations applied.
//
// Run with: go test -tags integration -race ./internal/store/...

//go:build integration

package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/vpp-platform/battery-service/internal/model"
	"github.com/vpp-platform/battery-service/internal/store"
)

func newTestStore(t *testing.T) *store.PostgresStore {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("vpp"),
		tcpostgres.WithUsername("vpp"),
		tcpostgres.WithPassword("vpp"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := store.Open(ctx, store.PoolConfig{DSN: dsn, MaxOpenConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	result, err := store.RunMigrations(ctx, db)
	require.NoError(t, err)
	require.Equal(t, uint(1), result.Version)
	require.False(t, result.Dirty)

	again, err := store.RunMigrations(ctx, db)
	require.NoError(t, err, "re-running migrations must be a no-op")
	require.Equal(t, result.Version, again.Version)

	return store.NewPostgresStore(db)
}

func seed(t *testing.T, st *store.PostgresStore, batteries ...model.Battery) []model.Battery {
	t.Helper()
	out := make([]model.Battery, 0, len(batteries))
	for _, b := range batteries {
		created, err := st.CreateBattery(context.Background(), b)
		require.NoError(t, err)
		out = append(out, created)
	}
	return out
}

func int64Ptr(v int64) *int64 { return &v }

func TestPostgresStore_Ping(t *testing.T) {
	st := newTestStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, st.Ping(ctx))
}

func TestPostgresStore_CreateGetAndExists(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	created, err := st.CreateBattery(ctx, model.Battery{Name: "Cannington", Postcode: "6107", Capacity: 13500})
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := st.GetBattery(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	exists, err := st.ExistsByName(ctx, "Cannington")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = st.ExistsByName(ctx, "cannington")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = st.GetBattery(ctx, created.ID+1000)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPostgresStore_CreateDuplicateName(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, model.Battery{Name: "Victoria", Postcode: "6108", Capacity: 15000})

	_, err := st.CreateBattery(context.Background(), model.Battery{Name: "Victoria", Postcode: "6000", Capacity: 1})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestPostgresStore_CreateRejectsNonPositiveCapacity(t *testing.T) {
	st := newTestStore(t)

	_, err := st.CreateBattery(context.Background(), model.Battery{Name: "Zero", Postcode: "6000", Capacity: 0})
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrConflict)
}

func TestPostgresStore_CreateRejectsCapacityAboveMaximum(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.CreateBattery(ctx, model.Battery{Name: "Max", Postcode: "6000", Capacity: model.MaxCapacity})
	require.NoError(t, err)

	_, err = st.CreateBattery(ctx, model.Battery{Name: "Over", Postcode: "6000", Capacity: model.MaxCapacity + 1})
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrConflict)
}

func TestPostgresStore_FindBatteriesInRange(t *testing.T) {
	st := newTestStore(t)
	seed(t, st,
		model.Battery{Name: "Victoria", Postcode: "6108", Capacity: 15000},
		model.Battery{Name: "Cannington", Postcode: "6107", Capacity: 13500},
		model.Battery{Name: "Small", Postcode: "600", Capacity: 100},
		model.Battery{Name: "Leading", Postcode: "06050", Capacity: 50000},
	)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter model.RangeFilter
		want   []string
	}{
		{
			name:   "numeric postcode comparison without capacity bounds",
			filter: model.RangeFilter{StartPostcode: 6000, EndPostcode: 6500},
			want:   []string{"Victoria", "Cannington", "Leading"},
		},
		{
			name:   "lexicographically smaller postcode excluded",
			filter: model.RangeFilter{StartPostcode: 601, EndPostcode: 6107},
			want:   []string{"Cannington", "Leading"},
		},
		{
			name: "inclusive capacity bounds",
			filter: model.RangeFilter{
				StartPostcode: 0, EndPostcode: 9999,
				StartCapacity: int64Ptr(13500), EndCapacity: int64Ptr(15000),
			},
			want: []string{"Victoria", "Cannington"},
		},
		{
			name: "lower capacity bound only",
			filter: model.RangeFilter{
				StartPostcode: 0, EndPostcode: 9999,
				StartCapacity: int64Ptr(20000),
			},
			want: []string{"Leading"},
		},
		{
			name:   "no matches",
			filter: model.RangeFilter{StartPostcode: 7000, EndPostcode: 8000},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := st.FindBatteriesInRange(ctx, tt.filter)
			require.NoError(t, err)

			names := make([]string, 0, len(items))
			for _, b := range items {
				names = append(names, b.Name)
			}
			assert.ElementsMatch(t, tt.want, names)
		})
	}
}

func TestPostgresStore_ListBatteries(t *testing.T) {
	st := newTestStore(t)
	for i := 1; i <= 5; i++ {
		seed(t, st, model.Battery{
			Name:     fmt.Sprintf("battery-%d", i),
			Postcode: fmt.Sprintf("%d", 7000-i*100),
			Capacity: int64(i * 1000),
		})
	}
	ctx := context.Background()

	items, total, err := st.ListBatteries(ctx, store.ListOptions{Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, items, 2)
	assert.Equal(t, "battery-1", items[0].Name)

	items, _, err = st.ListBatteries(ctx, store.ListOptions{Limit: 10, SortField: store.SortByCapacity, Descending: true})
	require.NoError(t, err)
	require.Len(t, items, 5)
	assert.Equal(t, "battery-5", items[0].Name)

	items, _, err = st.ListBatteries(ctx, store.ListOptions{Limit: 10, SortField: store.SortByPostcode})
	require.NoError(t, err)
	assert.Equal(t, "6500", items[0].Postcode)

	_, _, err = st.ListBatteries(ctx, store.ListOptions{Limit: 10, SortField: "created_at; DROP TABLE"})
	assert.Error(t, err)
}
