package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lfariabr/wedstack-sub000/internal/core/domain"
	"github.com/lfariabr/wedstack-sub000/internal/core/port"
	"github.com/lfariabr/wedstack-sub000/internal/repository"
)

const guestsTable = "wedding.guests"

// guestColumns lists the selectable columns in scan order.
var guestColumns = []string{
	"phone",
	"name",
	"guest_group",
	"status",
	"plus_ones",
	"created_at",
	"updated_at",
}

// Querier captures the pgx surface the repository needs. Both *pgxpool.Pool
// and pgxmock pools satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GuestRepository implements port.GuestRepository using PostgreSQL.
type GuestRepository struct {
	db      Querier
	builder squirrel.StatementBuilderType
}

// NewGuestRepository wires a PostgreSQL-backed guest repository.
func NewGuestRepository(db Querier) *GuestRepository {
	return &GuestRepository{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Upsert writes the guest using phone as the match filter. The returned
// outcome distinguishes a fresh insert from a modification of an existing row
// via the xmax system column.
func (r *GuestRepository) Upsert(ctx context.Context, guest domain.Guest) (port.UpsertOutcome, error) {
	phone := strings.TrimSpace(guest.Phone)
	if phone == "" {
		return 0, errors.New("guest phone must not be empty")
	}
	if !guest.Status.IsValid() {
		return 0, fmt.Errorf("invalid guest status %q", guest.Status)
	}

	now := time.Now().UTC()
	createdAt := guest.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := guest.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	query := r.builder.Insert(guestsTable).
		Columns("phone", "name", "guest_group", "status", "plus_ones", "created_at", "updated_at").
		Values(phone, guest.Name, guest.Group, guest.Status, guest.PlusOnes, createdAt, updatedAt).
		Suffix(`ON CONFLICT (phone) DO UPDATE SET
			name = EXCLUDED.name,
			guest_group = EXCLUDED.guest_group,
			status = EXCLUDED.status,
			plus_ones = EXCLUDED.plus_ones,
			updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0) AS inserted`)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build upsert guest sql: %w", err)
	}

	var inserted bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&inserted); err != nil {
		return 0, fmt.Errorf("upsert guest: %w", err)
	}

	if inserted {
		return port.UpsertInserted, nil
	}
	return port.UpsertUpdated, nil
}

// GetByPhone retrieves a guest by its natural key.
func (r *GuestRepository) GetByPhone(ctx context.Context, phone string) (*domain.Guest, error) {
	stmt, args, err := r.builder.
		Select(guestColumns...).
		From(guestsTable).
		Where(squirrel.Eq{"phone": strings.TrimSpace(phone)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select guest sql: %w", err)
	}

	row := r.db.QueryRow(ctx, stmt, args...)

	guest, err := scanGuest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan guest: %w", err)
	}

	return guest, nil
}

// List returns guests matching the filter ordered by name.
func (r *GuestRepository) List(ctx context.Context, filter port.GuestFilter) ([]domain.Guest, error) {
	query := r.builder.
		Select(guestColumns...).
		From(guestsTable).
		OrderBy("name ASC")

	if filter.Group != "" {
		query = query.Where(squirrel.Eq{"guest_group": filter.Group})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list guests sql: %w", err)
	}

	rows, err := r.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	defer rows.Close()

	guests := make([]domain.Guest, 0)
	for rows.Next() {
		guest, err := scanGuest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan guest row: %w", err)
		}
		guests = append(guests, *guest)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate guests: %w", err)
	}

	return guests, nil
}

// UpdateRSVP transitions the guest's RSVP state and returns the updated record.
func (r *GuestRepository) UpdateRSVP(ctx context.Context, phone string, status domain.GuestStatus, plusOnes int) (*domain.Guest, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid guest status %q", status)
	}
	if plusOnes < 0 {
		plusOnes = 0
	}

	query := r.builder.Update(guestsTable).
		Set("status", status).
		Set("plus_ones", plusOnes).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"phone": strings.TrimSpace(phone)}).
		Suffix("RETURNING " + strings.Join(guestColumns, ", "))

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update rsvp sql: %w", err)
	}

	row := r.db.QueryRow(ctx, stmt, args...)

	guest, err := scanGuest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan updated guest: %w", err)
	}

	return guest, nil
}

// DeleteAll empties the guest table. Used only by the operator-facing import
// CLI when a full collection reset is requested.
func (r *GuestRepository) DeleteAll(ctx context.Context) (int64, error) {
	stmt, args, err := r.builder.Delete(guestsTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete guests sql: %w", err)
	}

	tag, err := r.db.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("delete guests: %w", err)
	}

	return tag.RowsAffected(), nil
}

func scanGuest(row pgx.Row) (*domain.Guest, error) {
	var guest domain.Guest
	if err := row.Scan(
		&guest.Phone,
		&guest.Name,
		&guest.Group,
		&guest.Status,
		&guest.PlusOnes,
		&guest.CreatedAt,
		&guest.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &guest, nil
}

var _ port.GuestRepository = (*GuestRepository)(nil)
