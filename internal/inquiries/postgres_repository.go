package inquiries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wolfman30/vendor-inquiry/internal/inquiry"
)

// pgxQuerier is the subset of *pgxpool.Pool used here.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores inquiries in the relational database.
type PostgresRepository struct {
	db pgxQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(db pgxQuerier) *PostgresRepository {
	if db == nil {
		panic("inquiries: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, draft inquiry.Draft) (*Inquiry, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO inquiries (id, name, contact_number, location, category, requirement)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		draft.Name,
		draft.ContactNumber,
		draft.Location,
		draft.Category,
		draft.Requirement,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("inquiries: insert failed: %w", err)
	}

	return newInquiry(id.String(), draft, createdAt), nil
}

// GetByID fetches one inquiry.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Inquiry, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInquiryNotFound
	}
	query := `
		SELECT id, name, contact_number, location, category, requirement, created_at
		FROM inquiries
		WHERE id = $1
	`
	inq, err := scanInquiry(r.db.QueryRow(ctx, query, parsed))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInquiryNotFound
		}
		return nil, fmt.Errorf("inquiries: select failed: %w", err)
	}
	return inq, nil
}

// List returns inquiries newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Inquiry, error) {
	filter = filter.normalized()
	query := `
		SELECT id, name, contact_number, location, category, requirement, created_at
		FROM inquiries
		WHERE ($1 = '' OR category = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, filter.Category, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("inquiries: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Inquiry{}
	for rows.Next() {
		inq, err := scanInquiry(rows)
		if err != nil {
			return nil, fmt.Errorf("inquiries: scan failed: %w", err)
		}
		out = append(out, inq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inquiries: list failed: %w", err)
	}
	return out, nil
}

func scanInquiry(row pgx.Row) (*Inquiry, error) {
	var inq Inquiry
	if err := row.Scan(
		&inq.ID,
		&inq.Name,
		&inq.ContactNumber,
		&inq.Location,
		&inq.Category,
		&inq.Requirement,
		&inq.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &inq, nil
}
