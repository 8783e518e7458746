// Package store applies normalized product batches to PostgreSQL. It owns
// the table schema, the transactional batch upsert, and the per-product
// reconciliation of the normalized image table.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/tikiload/pkg/tikiload"
)

// pgCodeInsufficientPrivilege is raised when the role lacks CREATE/USAGE
// on the schema during DDL.
const pgCodeInsufficientPrivilege = "42501"

const ddlProducts = `
CREATE TABLE IF NOT EXISTS tiki_products (
    id           BIGINT PRIMARY KEY,
    name         TEXT,
    url_key      TEXT,
    price        NUMERIC,
    description  TEXT,
    images       JSONB,
    source_file  TEXT,
    ingested_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_tiki_products_price ON tiki_products(price);
CREATE INDEX IF NOT EXISTS idx_tiki_products_url_key ON tiki_products(url_key);
`

const ddlImages = `
CREATE TABLE IF NOT EXISTS tiki_product_images (
    product_id   BIGINT NOT NULL REFERENCES tiki_products(id) ON DELETE CASCADE,
    position     INT NOT NULL,
    image_url    TEXT NOT NULL,
    PRIMARY KEY (product_id, position)
);

CREATE INDEX IF NOT EXISTS idx_tiki_product_images_url ON tiki_product_images(image_url);
`

const deleteImagesSQL = `DELETE FROM tiki_product_images WHERE product_id = ANY($1)`

// imageInsertChunk bounds the number of image rows per INSERT statement so
// parameter counts stay well under the protocol limit.
const imageInsertChunk = 5000

// productColumns are the columns written on every upsert, in placeholder order.
var productColumns = []string{
	"id", "name", "url_key", "price", "description", "images", "source_file", "ingested_at",
}

// Store implements the ingest.Store interface on top of a pgx pool.
//
// Thread-Safety: Safe for concurrent use (pgxpool.Pool is thread-safe),
// though the sequential pipeline never applies two batches at once.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store on top of an established connection pool.
// Panics if pool is nil.
func New(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("pool cannot be nil")
	}
	return &Store{pool: pool}
}

// EnsureSchema creates the product table, its indexes, and (when
// normalizeImages is set) the child image table, if absent. Safe to call
// on every run.
func (s *Store) EnsureSchema(ctx context.Context, normalizeImages bool) error {
	if _, err := s.pool.Exec(ctx, ddlProducts); err != nil {
		return wrapSchemaError(err)
	}
	if normalizeImages {
		if _, err := s.pool.Exec(ctx, ddlImages); err != nil {
			return wrapSchemaError(err)
		}
	}
	return nil
}

// wrapSchemaError turns an insufficient-privilege DDL failure into
// actionable GRANT guidance; anything else is wrapped as a schema failure.
func wrapSchemaError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgCodeInsufficientPrivilege {
		return fmt.Errorf(`permission denied: the connecting role lacks CREATE/USAGE privileges on the schema (often 'public')

Fix by connecting as a superuser (e.g., postgres) and running:
  GRANT USAGE, CREATE ON SCHEMA public TO <user>;
  GRANT CONNECT ON DATABASE <database> TO <user>;

Original error: %w: %w`, tikiload.ErrSchemaFailed, err)
	}
	return fmt.Errorf("%w: %w", tikiload.ErrSchemaFailed, err)
}

// UpsertBatch atomically applies one batch of product rows. All product
// upserts and, when normalizeImages is set, the full image reconciliation
// for the batch's products execute within a single transaction: either all
// rows commit or none do.
//
// Product rows conflict on id: an existing row has every mutable attribute
// overwritten by the new record's values. Image reconciliation deletes all
// existing image rows of the batch's products and reinserts the current
// lists, so after commit the child table exactly matches each product's
// latest ingested image list.
//
// Returns the number of image rows written. A failure returns a
// *tikiload.BatchError carrying the batch's product ids.
func (s *Store) UpsertBatch(ctx context.Context, batch []tikiload.Product, normalizeImages bool) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	batch = dedupeByID(batch)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, batchError(batch, fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback(ctx)

	if err := upsertProducts(ctx, tx, batch); err != nil {
		return 0, batchError(batch, err)
	}

	images := 0
	if normalizeImages {
		images, err = reconcileImages(ctx, tx, batch)
		if err != nil {
			return 0, batchError(batch, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, batchError(batch, fmt.Errorf("failed to commit batch: %w", err))
	}

	return images, nil
}

func upsertProducts(ctx context.Context, tx pgx.Tx, batch []tikiload.Product) error {
	args := make([]any, 0, len(batch)*len(productColumns))
	for _, p := range batch {
		imagesDoc, err := json.Marshal(p.Images)
		if err != nil {
			return fmt.Errorf("failed to encode images for product %d: %w", p.ID, err)
		}
		args = append(args,
			p.ID, p.Name, p.URLKey, p.Price, p.Description, imagesDoc, p.SourceFile, p.IngestedAt)
	}

	if _, err := tx.Exec(ctx, buildProductUpsert(len(batch)), args...); err != nil {
		return fmt.Errorf("product upsert failed: %w", err)
	}
	return nil
}

// reconcileImages makes the child table match each product's latest image
// list: delete everything owned by the batch's products, then reinsert.
// Deliberately not a diff; the post-condition is an exact match.
func reconcileImages(ctx context.Context, tx pgx.Tx, batch []tikiload.Product) (int, error) {
	ids := distinctProductIDs(batch)
	if _, err := tx.Exec(ctx, deleteImagesSQL, ids); err != nil {
		return 0, fmt.Errorf("image delete failed: %w", err)
	}

	rows := imageRows(batch)
	for start := 0; start < len(rows); start += imageInsertChunk {
		end := start + imageInsertChunk
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		args := make([]any, 0, len(chunk)*3)
		for _, img := range chunk {
			args = append(args, img.ProductID, img.Position, img.URL)
		}
		if _, err := tx.Exec(ctx, buildImageInsert(len(chunk)), args...); err != nil {
			return 0, fmt.Errorf("image insert failed: %w", err)
		}
	}

	return len(rows), nil
}

// imageRows materializes the child rows of a batch. Positions index the
// product's full image list; empty URLs produce no row but still consume
// a position, preserving source order for the rows that remain.
func imageRows(batch []tikiload.Product) []tikiload.ProductImage {
	var rows []tikiload.ProductImage
	for _, p := range batch {
		for pos, url := range p.Images {
			if url == "" {
				continue
			}
			rows = append(rows, tikiload.ProductImage{
				ProductID: p.ID,
				Position:  pos,
				URL:       url,
			})
		}
	}
	return rows
}

// dedupeByID collapses repeated product ids to a single row carrying the
// last occurrence's values. A multi-row INSERT ... ON CONFLICT DO UPDATE
// cannot affect the same row twice in one command (PostgreSQL rejects it
// with SQLSTATE 21000), so duplicates must be resolved before the
// statement is built. Rows keep the position of their first occurrence.
func dedupeByID(batch []tikiload.Product) []tikiload.Product {
	index := make(map[int64]int, len(batch))
	out := make([]tikiload.Product, 0, len(batch))
	for _, p := range batch {
		if i, ok := index[p.ID]; ok {
			out[i] = p
			continue
		}
		index[p.ID] = len(out)
		out = append(out, p)
	}
	return out
}

// distinctProductIDs returns the batch's unique product ids in ascending
// order for the reconciliation delete.
func distinctProductIDs(batch []tikiload.Product) []int64 {
	seen := make(map[int64]struct{}, len(batch))
	ids := make([]int64, 0, len(batch))
	for _, p := range batch {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		ids = append(ids, p.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// buildProductUpsert renders the multi-row product upsert for n rows.
func buildProductUpsert(n int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO tiki_products (")
	b.WriteString(strings.Join(productColumns, ", "))
	b.WriteString(")\nVALUES ")
	writeValuePlaceholders(&b, n, len(productColumns))
	b.WriteString(`
ON CONFLICT (id) DO UPDATE SET
    name        = EXCLUDED.name,
    url_key     = EXCLUDED.url_key,
    price       = EXCLUDED.price,
    description = EXCLUDED.description,
    images      = EXCLUDED.images,
    source_file = EXCLUDED.source_file,
    ingested_at = EXCLUDED.ingested_at`)
	return b.String()
}

// buildImageInsert renders the multi-row image insert for n rows. The
// batch is deduplicated by product id before rows are derived, so the
// conflict clause only guards against leftovers from concurrent writers.
func buildImageInsert(n int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO tiki_product_images (product_id, position, image_url)\nVALUES ")
	writeValuePlaceholders(&b, n, 3)
	b.WriteString(`
ON CONFLICT (product_id, position) DO UPDATE SET
    image_url = EXCLUDED.image_url`)
	return b.String()
}

// writeValuePlaceholders appends "($1, $2, …), ($k+1, …), …" for rows rows
// of cols columns each.
func writeValuePlaceholders(b *strings.Builder, rows, cols int) {
	param := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := 0; c < cols; c++ {
			if c > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "$%d", param)
			param++
		}
		b.WriteByte(')')
	}
}

func batchError(batch []tikiload.Product, err error) error {
	ids := make([]int64, len(batch))
	for i, p := range batch {
		ids[i] = p.ID
	}
	return &tikiload.BatchError{ProductIDs: ids, Err: err}
}
