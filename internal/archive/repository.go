package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wonny/stockdash/internal/contracts"
)

// ErrUploadNotFound is returned when an archived upload does not exist
var ErrUploadNotFound = errors.New("upload not found")

// Upload describes one archived upload
type Upload struct {
	ID         uuid.UUID `json:"id"`
	FileName   string    `json:"file_name"`
	RowCount   int       `json:"row_count"`
	UploadedAt time.Time `json:"uploaded_at"`
}

const schema = `
	CREATE SCHEMA IF NOT EXISTS stockdash;

	CREATE TABLE IF NOT EXISTS stockdash.uploads (
		id          UUID PRIMARY KEY,
		file_name   TEXT NOT NULL,
		row_count   INTEGER NOT NULL,
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS stockdash.upload_rows (
		upload_id  UUID NOT NULL REFERENCES stockdash.uploads(id) ON DELETE CASCADE,
		row_no     INTEGER NOT NULL,
		trade_date TIMESTAMPTZ NOT NULL,
		volume     BIGINT NOT NULL,
		adj_close  NUMERIC NOT NULL,
		stock      TEXT NOT NULL,
		exchange   TEXT NOT NULL,
		PRIMARY KEY (upload_id, row_no)
	);

	CREATE INDEX IF NOT EXISTS idx_uploads_uploaded_at ON stockdash.uploads (uploaded_at);
`

// Repository stores uploaded datasets in PostgreSQL
// ⭐ SSOT: 업로드 아카이브 쿼리는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a repository on an existing pool
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the archive tables if they do not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create archive schema: %w", err)
	}
	return nil
}

// Save archives a decoded dataset under id. All columns are stored even if
// the caller later filters them away.
func (r *Repository) Save(ctx context.Context, id uuid.UUID, fileName string, d *contracts.Dataset) (Upload, error) {
	upload := Upload{ID: id, FileName: fileName, RowCount: d.Len()}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Upload{}, fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO stockdash.uploads (id, file_name, row_count)
		VALUES ($1, $2, $3)
		RETURNING uploaded_at`,
		id.String(), fileName, upload.RowCount,
	).Scan(&upload.UploadedAt)
	if err != nil {
		return Upload{}, fmt.Errorf("insert upload: %w", err)
	}

	if d.Len() > 0 {
		batch := &pgx.Batch{}
		query := `
			INSERT INTO stockdash.upload_rows
				(upload_id, row_no, trade_date, volume, adj_close, stock, exchange)
			VALUES ($1, $2, $3, $4, $5::text::numeric, $6, $7)`

		for i := 0; i < d.Len(); i++ {
			rec := d.Record(i)
			batch.Queue(query, id.String(), i, rec.Date.UTC(), rec.Volume,
				rec.AdjClose.String(), rec.Stock, rec.Exchange)
		}

		br := tx.SendBatch(ctx, batch)
		for i := 0; i < d.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return Upload{}, fmt.Errorf("insert row %d: %w", i+1, err)
			}
		}
		if err := br.Close(); err != nil {
			return Upload{}, fmt.Errorf("close batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Upload{}, fmt.Errorf("commit archive tx: %w", err)
	}

	upload.UploadedAt = upload.UploadedAt.UTC()
	return upload, nil
}

// List returns the most recent uploads first
func (r *Repository) List(ctx context.Context, limit int) ([]Upload, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, file_name, row_count, uploaded_at
		FROM stockdash.uploads
		ORDER BY uploaded_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	uploads := make([]Upload, 0)
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}

	return uploads, rows.Err()
}

// Load returns an archived upload and its dataset
func (r *Repository) Load(ctx context.Context, id uuid.UUID) (Upload, *contracts.Dataset, error) {
	u, err := scanUpload(r.pool.QueryRow(ctx, `
		SELECT id::text, file_name, row_count, uploaded_at
		FROM stockdash.uploads
		WHERE id = $1`, id.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return Upload{}, nil, fmt.Errorf("%w: %s", ErrUploadNotFound, id)
	}
	if err != nil {
		return Upload{}, nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT trade_date, volume, adj_close::text, stock, exchange
		FROM stockdash.upload_rows
		WHERE upload_id = $1
		ORDER BY row_no`, id.String())
	if err != nil {
		return Upload{}, nil, fmt.Errorf("load rows: %w", err)
	}
	defer rows.Close()

	records := make([]contracts.Record, 0, u.RowCount)
	for rows.Next() {
		var rec contracts.Record
		var adj string
		if err := rows.Scan(&rec.Date, &rec.Volume, &adj, &rec.Stock, &rec.Exchange); err != nil {
			return Upload{}, nil, fmt.Errorf("scan row: %w", err)
		}
		if rec.AdjClose, err = decimal.NewFromString(adj); err != nil {
			return Upload{}, nil, fmt.Errorf("parse adj close %q: %w", adj, err)
		}
		rec.Date = rec.Date.UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return Upload{}, nil, err
	}

	return u, contracts.NewDataset(records), nil
}

// PruneBefore deletes uploads older than cutoff and returns how many
func (r *Repository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM stockdash.uploads WHERE uploaded_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune uploads: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanUpload(row pgx.Row) (Upload, error) {
	var u Upload
	var id string
	if err := row.Scan(&id, &u.FileName, &u.RowCount, &u.UploadedAt); err != nil {
		return Upload{}, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return Upload{}, fmt.Errorf("parse upload id: %w", err)
	}
	u.ID = parsed
	u.UploadedAt = u.UploadedAt.UTC()
	return u, nil
}
