package accounting

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const segmentColumns = `id, code, label, description, created_at, updated_at`

func scanSegment(row pgx.Row) (Segment, error) {
	var s Segment
	err := row.Scan(&s.ID, &s.Code, &s.Label, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Segment{}, shared.ErrNotFound
		}
		return Segment{}, err
	}
	return s, nil
}

// ListSegments returns all analytic segments ordered by code.
func (r *Repository) ListSegments(ctx context.Context) ([]Segment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+segmentColumns+` FROM segments ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Segment
	for rows.Next() {
		var s Segment
		if err := rows.Scan(&s.ID, &s.Code, &s.Label, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetSegment fetches a segment by ID.
func (r *Repository) GetSegment(ctx context.Context, id int64) (Segment, error) {
	return scanSegment(r.pool.QueryRow(ctx, `SELECT `+segmentColumns+` FROM segments WHERE id = $1`, id))
}

// CreateSegment inserts a new segment.
func (r *Repository) CreateSegment(ctx context.Context, code, label, description string) (Segment, error) {
	s, err := scanSegment(r.pool.QueryRow(ctx,
		`INSERT INTO segments (code, label, description) VALUES ($1, $2, $3) RETURNING `+segmentColumns,
		code, label, description))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Segment{}, ErrDuplicateCode
		}
		return Segment{}, err
	}
	return s, nil
}

// UpdateSegment updates label and description of a segment.
func (r *Repository) UpdateSegment(ctx context.Context, id int64, label, description string) (Segment, error) {
	return scanSegment(r.pool.QueryRow(ctx,
		`UPDATE segments SET label = $2, description = $3, updated_at = now() WHERE id = $1 RETURNING `+segmentColumns,
		id, label, description))
}

// DeleteSegment removes a segment that no declaration references.
func (r *Repository) DeleteSegment(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM segments WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrSegmentInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const cityColumns = `id, name, region, created_at, updated_at`

// ListCities returns all cities ordered by name.
func (r *Repository) ListCities(ctx context.Context) ([]City, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+cityColumns+` FROM cities ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []City
	for rows.Next() {
		var c City
		if err := rows.Scan(&c.ID, &c.Name, &c.Region, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCity inserts a new city.
func (r *Repository) CreateCity(ctx context.Context, name, region string) (City, error) {
	var c City
	err := r.pool.QueryRow(ctx,
		`INSERT INTO cities (name, region) VALUES ($1, $2) RETURNING `+cityColumns, name, region).
		Scan(&c.ID, &c.Name, &c.Region, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return City{}, ErrDuplicateCode
		}
		return City{}, err
	}
	return c, nil
}

// UpdateCity updates name and region of a city.
func (r *Repository) UpdateCity(ctx context.Context, id int64, name, region string) (City, error) {
	var c City
	err := r.pool.QueryRow(ctx,
		`UPDATE cities SET name = $2, region = $3, updated_at = now() WHERE id = $1 RETURNING `+cityColumns,
		id, name, region).
		Scan(&c.ID, &c.Name, &c.Region, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return City{}, shared.ErrNotFound
		}
		return City{}, err
	}
	return c, nil
}

// DeleteCity removes a city that no declaration references.
func (r *Repository) DeleteCity(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cities WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrCityInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const declarationColumns = `id, period, city_id, segment_id, amount_cents, status, submitted_at, created_at, updated_at`

func scanDeclaration(row pgx.Row) (Declaration, error) {
	var d Declaration
	err := row.Scan(&d.ID, &d.Period, &d.CityID, &d.SegmentID, &d.AmountCents, &d.Status, &d.SubmittedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Declaration{}, shared.ErrNotFound
		}
		return Declaration{}, err
	}
	return d, nil
}

// ListDeclarations returns declarations for a period, newest first. An empty
// period lists everything.
func (r *Repository) ListDeclarations(ctx context.Context, period string) ([]Declaration, error) {
	query := `SELECT ` + declarationColumns + ` FROM declarations`
	args := []any{}
	if period != "" {
		query += ` WHERE period = $1`
		args = append(args, period)
	}
	query += ` ORDER BY period DESC, id DESC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Declaration
	for rows.Next() {
		var d Declaration
		if err := rows.Scan(&d.ID, &d.Period, &d.CityID, &d.SegmentID, &d.AmountCents, &d.Status, &d.SubmittedAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetDeclaration fetches a declaration by ID.
func (r *Repository) GetDeclaration(ctx context.Context, id int64) (Declaration, error) {
	return scanDeclaration(r.pool.QueryRow(ctx, `SELECT `+declarationColumns+` FROM declarations WHERE id = $1`, id))
}

// CreateDeclaration inserts a draft declaration.
func (r *Repository) CreateDeclaration(ctx context.Context, period string, cityID, segmentID, amountCents int64) (Declaration, error) {
	d, err := scanDeclaration(r.pool.QueryRow(ctx,
		`INSERT INTO declarations (period, city_id, segment_id, amount_cents, status)
		 VALUES ($1, $2, $3, $4, 'draft') RETURNING `+declarationColumns,
		period, cityID, segmentID, amountCents))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Declaration{}, ErrDuplicateDeclaration
		}
		return Declaration{}, err
	}
	return d, nil
}

// UpdateDeclaration updates the amount of a draft declaration.
func (r *Repository) UpdateDeclaration(ctx context.Context, id, amountCents int64) (Declaration, error) {
	return scanDeclaration(r.pool.QueryRow(ctx,
		`UPDATE declarations SET amount_cents = $2, updated_at = now()
		 WHERE id = $1 AND status = 'draft' RETURNING `+declarationColumns,
		id, amountCents))
}

// DeleteDeclaration removes a draft declaration.
func (r *Repository) DeleteDeclaration(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM declarations WHERE id = $1 AND status = 'draft'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SubmitDeclaration marks a draft as submitted. Returns the updated row, or
// shared.ErrNotFound when the declaration does not exist or is already
// submitted.
func (r *Repository) SubmitDeclaration(ctx context.Context, id int64) (Declaration, error) {
	return scanDeclaration(r.pool.QueryRow(ctx,
		`UPDATE declarations SET status = 'submitted', submitted_at = now(), updated_at = now()
		 WHERE id = $1 AND status = 'draft' RETURNING `+declarationColumns, id))
}
