package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/vpp-platform/battery-service/internal/model"
)

const (
	pqUniqueViolation = "23505"

	batteryTable = "vpp.batteries"
)

var batteryColumns = []string{"id", "name", "postcode", "capacity", "created_at"}

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// NewPostgresStore creates a PostgresStore using $n placeholders.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Ping verifies that the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ExistsByName reports whether a battery named name exists.
func (s *PostgresStore) ExistsByName(ctx context.Context, name string) (bool, error) {
	query := s.sb.
		Select("1").
		From(batteryTable).
		Where(sq.Eq{"name": name}).
		Prefix("SELECT EXISTS (").
		Suffix(")")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("building exists query: %w", err)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, sqlStr, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking battery name: %w", err)
	}
	return exists, nil
}

// CreateBattery inserts a battery. A duplicate name yields ErrConflict.
func (s *PostgresStore) CreateBattery(ctx context.Context, b model.Battery) (model.Battery, error) {
	query := s.sb.
		Insert(batteryTable).
		Columns("name", "postcode", "capacity").
		Values(b.Name, b.Postcode, b.Capacity).
		Suffix("RETURNING id, created_at")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return model.Battery{}, fmt.Errorf("building insert query: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, sqlStr, args...).Scan(&b.ID, &b.CreatedAt); err != nil {
		if isPQUniqueViolation(err) {
			return model.Battery{}, ErrConflict
		}
		return model.Battery{}, fmt.Errorf("inserting battery: %w", err)
	}
	b.CreatedAt = b.CreatedAt.UTC()
	return b, nil
}

// GetBattery retrieves a battery by ID.
func (s *PostgresStore) GetBattery(ctx context.Context, id int64) (model.Battery, error) {
	query := s.sb.
		Select(batteryColumns...).
		From(batteryTable).
		Where(sq.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return model.Battery{}, fmt.Errorf("building query: %w", err)
	}

	b, err := scanBattery(s.db.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Battery{}, ErrNotFound
		}
		return model.Battery{}, fmt.Errorf("querying battery: %w", err)
	}
	return b, nil
}

// ListBatteries returns one page of batteries and the total count.
func (s *PostgresStore) ListBatteries(ctx context.Context, opts ListOptions) ([]model.Battery, int, error) {
	countSQL, countArgs, err := s.sb.Select("COUNT(*)").From(batteryTable).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building count query: %w", err)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("executing count query: %w", err)
	}
	if total == 0 {
		return []model.Battery{}, 0, nil
	}

	orderBy, err := orderClause(opts)
	if err != nil {
		return nil, 0, err
	}

	dataQuery := s.sb.
		Select(batteryColumns...).
		From(batteryTable).
		OrderBy(orderBy...).
		Limit(uint64(opts.Limit)).
		Offset(uint64(opts.Offset))

	dataSQL, dataArgs, err := dataQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building data query: %w", err)
	}

	items, err := s.queryBatteries(ctx, dataSQL, dataArgs)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// FindBatteriesInRange selects batteries whose numeric postcode lies in the
// inclusive filter range. Nil capacity bounds add no predicate.
func (s *PostgresStore) FindBatteriesInRange(ctx context.Context, filter model.RangeFilter) ([]model.Battery, error) {
	sqlStr, args, err := s.rangeQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building range query: %w", err)
	}
	return s.queryBatteries(ctx, sqlStr, args)
}

func (s *PostgresStore) rangeQuery(filter model.RangeFilter) sq.SelectBuilder {
	query := s.sb.
		Select(batteryColumns...).
		From(batteryTable).
		Where(sq.Expr("CAST(postcode AS BIGINT) BETWEEN ? AND ?", filter.StartPostcode, filter.EndPostcode)).
		OrderBy("id ASC")

	if filter.StartCapacity != nil {
		query = query.Where(sq.GtOrEq{"capacity": *filter.StartCapacity})
	}
	if filter.EndCapacity != nil {
		query = query.Where(sq.LtOrEq{"capacity": *filter.EndCapacity})
	}
	return query
}

func (s *PostgresStore) queryBatteries(ctx context.Context, sqlStr string, args []any) ([]model.Battery, error) {
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	items := make([]model.Battery, 0)
	for rows.Next() {
		b, err := scanBattery(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBattery(row rowScanner) (model.Battery, error) {
	var b model.Battery
	if err := row.Scan(&b.ID, &b.Name, &b.Postcode, &b.Capacity, &b.CreatedAt); err != nil {
		return model.Battery{}, err
	}
	b.CreatedAt = b.CreatedAt.UTC()
	return b, nil
}

// orderClause maps a whitelisted sort field to ORDER BY terms. id is always
// the tie breaker so pages are stable.
func orderClause(opts ListOptions) ([]string, error) {
	field := opts.SortField
	if field == "" {
		field = SortByID
	}
	if !IsValidSortField(field) {
		return nil, fmt.Errorf("unsupported sort field %q", field)
	}

	dir := "ASC"
	if opts.Descending {
		dir = "DESC"
	}

	switch field {
	case SortByID:
		return []string{"id " + dir}, nil
	case SortByPostcode:
		return []string{"CAST(postcode AS BIGINT) " + dir, "id " + dir}, nil
	default:
		return []string{field + " " + dir, "id " + dir}, nil
	}
}

func isPQUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}
