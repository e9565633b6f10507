package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/viewport"
)

const viewportKey = "viewport"

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS elements (
		id         TEXT PRIMARY KEY,
		sort_key   TEXT NOT NULL,
		doc        JSONB NOT NULL,
		bitmap     BYTEA,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS elements_sort_key_idx ON elements (sort_key, id)`,
	`CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

const upsertElement = `
INSERT INTO elements (id, sort_key, doc, bitmap, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (id) DO UPDATE
SET doc = EXCLUDED.doc, bitmap = EXCLUDED.bitmap, updated_at = now()`

// Postgres stores elements and the viewport in PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the tables if they do not exist yet.
func (p *Postgres) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (p *Postgres) PutElement(ctx context.Context, el document.Element) error {
	rec, err := encodeElement(el)
	if err != nil {
		return err
	}
	if _, err := p.pool.Exec(ctx, upsertElement, rec.ID, rec.SortKey, rec.Doc, rec.Bitmap); err != nil {
		return fmt.Errorf("put element %s: %w", el.ID, err)
	}
	return nil
}

func (p *Postgres) DeleteElement(ctx context.Context, id string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM elements WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete element %s: %w", id, err)
	}
	return nil
}

func (p *Postgres) ClearElements(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM elements`); err != nil {
		return fmt.Errorf("clear elements: %w", err)
	}
	return nil
}

func (p *Postgres) ReplaceElements(ctx context.Context, els []document.Element) error {
	recs := make([]record, len(els))
	for i, el := range els {
		rec, err := encodeElement(el)
		if err != nil {
			return err
		}
		recs[i] = rec
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM elements`); err != nil {
		return fmt.Errorf("replace elements: %w", err)
	}
	batch := &pgx.Batch{}
	for _, rec := range recs {
		batch.Queue(upsertElement, rec.ID, rec.SortKey, rec.Doc, rec.Bitmap)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("replace elements: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

func (p *Postgres) Elements(ctx context.Context) ([]document.Element, error) {
	rows, err := p.pool.Query(ctx, `SELECT doc, bitmap FROM elements ORDER BY sort_key, id`)
	if err != nil {
		return nil, fmt.Errorf("list elements: %w", err)
	}
	defer rows.Close()

	var out []document.Element
	for rows.Next() {
		var doc, bitmap []byte
		if err := rows.Scan(&doc, &bitmap); err != nil {
			return nil, fmt.Errorf("scan element: %w", err)
		}
		el, err := decodeElement(doc, bitmap)
		if err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list elements: %w", err)
	}
	return out, nil
}

func (p *Postgres) Viewport(ctx context.Context) (viewport.State, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT value FROM kv WHERE key = $1`, viewportKey).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return viewport.State{}, ErrNotFound
		}
		return viewport.State{}, fmt.Errorf("get viewport: %w", err)
	}
	var s viewport.State
	if err := json.Unmarshal(raw, &s); err != nil {
		return viewport.State{}, fmt.Errorf("decode viewport: %w", err)
	}
	return s, nil
}

func (p *Postgres) PutViewport(ctx context.Context, s viewport.State) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode viewport: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		viewportKey, raw)
	if err != nil {
		return fmt.Errorf("put viewport: %w", err)
	}
	return nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}
