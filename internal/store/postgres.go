package store

import (
	"context"
	"errors"
	"time"

	"github.com/easyforty/funnel-go/internal/funnel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the pgx-backed implementation of funnel.Store.
//
// InTx runs serializable transactions and the link selects lock their rows
// with FOR UPDATE, so two concurrent submissions can never both be told the
// last slot of a link is free.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed funnel store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// InitSchema creates the funnel tables. Runs once at process startup,
// before any request is served.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS links (
			id BIGSERIAL PRIMARY KEY,
			url TEXT NOT NULL,
			cap INTEGER NOT NULL,
			used_count INTEGER NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS leads (
			id UUID PRIMARY KEY,
			phone TEXT UNIQUE NOT NULL,
			payout_handle TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'LINK_SENT',
			link_id BIGINT NOT NULL REFERENCES links(id),
			created_at TIMESTAMPTZ NOT NULL,
			last_updated TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS messages (
			id UUID PRIMARY KEY,
			lead_id UUID NOT NULL REFERENCES leads(id),
			direction TEXT NOT NULL,
			text TEXT NOT NULL,
			media_url TEXT,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS evidence (
			id UUID PRIMARY KEY,
			lead_id UUID NOT NULL REFERENCES leads(id),
			storage_key TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_links_active ON links(active);
		CREATE INDEX IF NOT EXISTS idx_leads_phone ON leads(phone);
	`)

	return err
}

func (p *PostgresStore) InTx(ctx context.Context, fn func(ctx context.Context, tx funnel.Tx) error) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}

	if err := fn(ctx, &postgresTx{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)

		return err
	}

	return tx.Commit(ctx)
}

const linkColumns = "id, url, cap, used_count, active, created_at"

func scanLink(row pgx.Row) (*funnel.Link, error) {
	var link funnel.Link

	err := row.Scan(&link.ID, &link.URL, &link.Capacity, &link.UsedCount, &link.Active, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, funnel.ErrNotFound
		}

		return nil, err
	}

	return &link, nil
}

const leadColumns = "id, phone, payout_handle, status, link_id, created_at, last_updated"

func scanLead(row pgx.Row) (*funnel.Lead, error) {
	var lead funnel.Lead

	err := row.Scan(
		&lead.ID, &lead.Phone, &lead.PayoutHandle, &lead.Status,
		&lead.LinkID, &lead.CreatedAt, &lead.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, funnel.ErrNotFound
		}

		return nil, err
	}

	return &lead, nil
}

func (p *PostgresStore) LeadByPhone(ctx context.Context, phone string) (*funnel.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE phone = $1`

	return scanLead(p.pool.QueryRow(ctx, query, phone))
}

func (p *PostgresStore) LinkByID(ctx context.Context, id int64) (*funnel.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE id = $1`

	return scanLink(p.pool.QueryRow(ctx, query, id))
}

func (p *PostgresStore) ActiveLink(ctx context.Context) (*funnel.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE active ORDER BY id LIMIT 1`

	return scanLink(p.pool.QueryRow(ctx, query))
}

func (p *PostgresStore) ListLinks(ctx context.Context) ([]*funnel.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links ORDER BY id`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*funnel.Link

	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}

		links = append(links, link)
	}

	return links, rows.Err()
}

func (p *PostgresStore) CountLeads(ctx context.Context) (int64, error) {
	var n int64

	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads`).Scan(&n)

	return n, err
}

func (p *PostgresStore) CountLeadsByStatus(ctx context.Context, status funnel.Status) (int64, error) {
	var n int64

	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads WHERE status = $1`, string(status)).Scan(&n)

	return n, err
}

func (p *PostgresStore) InsertMessage(ctx context.Context, msg *funnel.Message) error {
	query := `
		INSERT INTO messages (id, lead_id, direction, text, media_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := p.pool.Exec(ctx, query,
		msg.ID, msg.LeadID, string(msg.Direction), msg.Text,
		nullableString(msg.MediaURL), msg.CreatedAt,
	)

	return err
}

func (p *PostgresStore) InsertEvidence(ctx context.Context, ev *funnel.Evidence) error {
	query := `
		INSERT INTO evidence (id, lead_id, storage_key, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := p.pool.Exec(ctx, query, ev.ID, ev.LeadID, ev.StorageKey, ev.CreatedAt)

	return err
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

// postgresTx implements funnel.Tx over one pgx transaction.
type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) ActiveLinkWithCapacity(ctx context.Context) (*funnel.Link, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM links
		WHERE active AND used_count < cap
		ORDER BY id
		LIMIT 1
		FOR UPDATE
	`

	return scanLink(t.tx.QueryRow(ctx, query))
}

func (t *postgresTx) NextRotationCandidate(ctx context.Context) (*funnel.Link, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM links
		WHERE NOT active AND used_count < cap
		ORDER BY id
		LIMIT 1
		FOR UPDATE
	`

	return scanLink(t.tx.QueryRow(ctx, query))
}

func (t *postgresTx) LinkByID(ctx context.Context, id int64) (*funnel.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE id = $1 FOR UPDATE`

	return scanLink(t.tx.QueryRow(ctx, query, id))
}

func (t *postgresTx) InsertLink(ctx context.Context, url string, capacity int) (*funnel.Link, error) {
	query := `
		INSERT INTO links (url, cap, active)
		VALUES ($1, $2, FALSE)
		RETURNING ` + linkColumns

	return scanLink(t.tx.QueryRow(ctx, query, url, capacity))
}

func (t *postgresTx) HasActiveLink(ctx context.Context) (bool, error) {
	var exists bool

	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM links WHERE active)`).Scan(&exists)

	return exists, err
}

func (t *postgresTx) SetLinkActive(ctx context.Context, id int64, active bool) error {
	_, err := t.tx.Exec(ctx, `UPDATE links SET active = $1 WHERE id = $2`, active, id)

	return err
}

func (t *postgresTx) SetLinkUsage(ctx context.Context, id int64, used int) error {
	_, err := t.tx.Exec(ctx, `UPDATE links SET used_count = $1 WHERE id = $2`, used, id)

	return err
}

func (t *postgresTx) LeadByPhone(ctx context.Context, phone string) (*funnel.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE phone = $1 FOR UPDATE`

	return scanLead(t.tx.QueryRow(ctx, query, phone))
}

func (t *postgresTx) InsertLead(ctx context.Context, lead *funnel.Lead) error {
	query := `
		INSERT INTO leads (id, phone, payout_handle, status, link_id, created_at, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := t.tx.Exec(ctx, query,
		lead.ID, lead.Phone, lead.PayoutHandle, string(lead.Status),
		lead.LinkID, lead.CreatedAt, lead.LastUpdated,
	)

	return err
}

func (t *postgresTx) UpdateLeadPayout(ctx context.Context, id uuid.UUID, payout string, at time.Time) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE leads SET payout_handle = $1, last_updated = $2 WHERE id = $3`,
		payout, at, id,
	)

	return err
}

func (t *postgresTx) UpdateLeadStatus(ctx context.Context, id uuid.UUID, status funnel.Status, at time.Time) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE leads SET status = $1, last_updated = $2 WHERE id = $3`,
		string(status), at, id,
	)

	return err
}
