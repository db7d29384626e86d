package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"catdist/domain/chart"
	"catdist/domain/core"
)

// chartRow is the scanned shape of one row. Nullable columns map to NaN
// or the zero value.
type chartRow struct {
	Value    sql.NullFloat64 `db:"value"`
	Category sql.NullString  `db:"category"`
	Trellis  sql.NullString  `db:"trellis"`
	Marked   sql.NullBool    `db:"marked"`
	Color    sql.NullString  `db:"color"`
}

// RowRepository reads and writes chart rows in one table
type RowRepository struct {
	db    *sqlx.DB
	table string
}

// NewRowRepository creates a row repository over table
func NewRowRepository(db *sqlx.DB, table string) *RowRepository {
	return &RowRepository{db: db, table: table}
}

// Connect opens a postgres connection for the repository
func Connect(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func (r *RowRepository) selectQuery() string {
	return fmt.Sprintf(`SELECT value, category, trellis, marked, color FROM %s ORDER BY id`, pq.QuoteIdentifier(r.table))
}

func (r *RowRepository) createQuery() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id BIGSERIAL PRIMARY KEY,
		value DOUBLE PRECISION,
		category TEXT NOT NULL DEFAULT '',
		trellis TEXT NOT NULL DEFAULT '',
		marked BOOLEAN NOT NULL DEFAULT FALSE,
		color TEXT NOT NULL DEFAULT ''
	)`, pq.QuoteIdentifier(r.table))
}

func (r *RowRepository) insertQuery() string {
	return fmt.Sprintf(`INSERT INTO %s (value, category, trellis, marked, color)
		VALUES (:value, :category, :trellis, :marked, :color)`, pq.QuoteIdentifier(r.table))
}

// EnsureTable creates the table when missing
func (r *RowRepository) EnsureTable(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, r.createQuery()); err != nil {
		return fmt.Errorf("failed to create table %s: %w", r.table, err)
	}
	return nil
}

// LoadRows implements ports.RowSource.
func (r *RowRepository) LoadRows(ctx context.Context) ([]chart.Row, error) {
	var scanned []chartRow
	if err := r.db.SelectContext(ctx, &scanned, r.selectQuery()); err != nil {
		return nil, fmt.Errorf("failed to load rows from %s: %w", r.table, err)
	}
	out := make([]chart.Row, len(scanned))
	for i, s := range scanned {
		out[i] = s.toRow(r.table, i)
	}
	return out, nil
}

// InsertRows appends rows in one transaction
func (r *RowRepository) InsertRows(ctx context.Context, rows []chart.Row) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := r.insertQuery()
	for _, row := range rows {
		if _, err := tx.NamedExecContext(ctx, query, fromRow(row)); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rows: %w", err)
	}
	return nil
}

func (s chartRow) toRow(table string, index int) chart.Row {
	y := math.NaN()
	if s.Value.Valid {
		y = s.Value.Float64
	}
	return chart.Row{
		ID:       core.StableRowID("postgres:"+table, index),
		Y:        y,
		Category: s.Category.String,
		Trellis:  s.Trellis.String,
		Marked:   s.Marked.Valid && s.Marked.Bool,
		Color:    s.Color.String,
	}
}

func fromRow(row chart.Row) chartRow {
	return chartRow{
		Value:    sql.NullFloat64{Float64: row.Y, Valid: !math.IsNaN(row.Y) && !math.IsInf(row.Y, 0)},
		Category: sql.NullString{String: row.Category, Valid: true},
		Trellis:  sql.NullString{String: row.Trellis, Valid: true},
		Marked:   sql.NullBool{Bool: row.Marked, Valid: true},
		Color:    sql.NullString{String: row.Color, Valid: true},
	}
}
