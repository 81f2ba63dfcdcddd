// Package repository implements dialer persistence on PostgreSQL via pgx.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentinel errors mapped to typed domain errors by the service layer.
var (
	ErrCampaignNotFound      = errors.New("campaign not found")
	ErrContactNotFound       = errors.New("contact not found")
	ErrQualificationNotFound = errors.New("qualification not found")
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository is the pgx-backed Store implementation.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a repository on top of a connection pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const contactColumns = `id, campaign_id, phone_number, first_name, last_name, postal_code, custom_fields, status, created_at, updated_at`
const campaignColumns = `id, name, dialing_mode, is_active, quota_rules, created_at, updated_at`

// LeaseNextContact claims one pending contact of the campaign. The claim uses
// FOR UPDATE SKIP LOCKED so concurrent callers never block on or receive a row
// already leased in an uncommitted transaction; the status flip to 'called'
// commits atomically with the claim.
func (r *Repository) LeaseNextContact(ctx context.Context, campaignID uuid.UUID) (*ContactLease, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	campaign, err := getCampaign(ctx, tx, campaignID, false)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		WITH next_contact AS (
			SELECT id
			FROM contacts
			WHERE campaign_id = $1 AND status = 'pending'
			ORDER BY created_at ASC, id ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE contacts c
		SET status = 'called', updated_at = now()
		FROM next_contact nc
		WHERE c.id = nc.id
		RETURNING c.`+contactColumnsAliased(), campaignID)

	contact, err := scanContact(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Nothing pending (or every pending row is claimed by a concurrent
		// caller): a normal empty result, not an error.
		return nil, tx.Commit(ctx)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &ContactLease{Contact: contact, Campaign: campaign}, nil
}

// Recycle resets contacts whose latest outcome is the given recyclable
// qualification back to pending, as one set-based all-or-nothing statement.
// Contacts currently in flight ('called') are never touched. Idempotent:
// a second invocation affects zero rows.
func (r *Repository) Recycle(ctx context.Context, campaignID, qualificationID uuid.UUID) (int64, error) {
	var recyclable bool
	err := r.pool.QueryRow(ctx,
		`SELECT is_recyclable FROM qualifications WHERE id = $1`,
		qualificationID,
	).Scan(&recyclable)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrQualificationNotFound
	}
	if err != nil {
		return 0, err
	}
	if !recyclable {
		return 0, nil
	}

	tag, err := r.pool.Exec(ctx, `
		WITH latest AS (
			SELECT DISTINCT ON (contact_id) contact_id, qualification_id
			FROM call_history
			WHERE campaign_id = $1
			ORDER BY contact_id, started_at DESC, id DESC
		)
		UPDATE contacts c
		SET status = 'pending',
		    custom_fields = c.custom_fields ||
		        jsonb_build_object($3::text, to_char(now() AT TIME ZONE 'utc', 'YYYY-MM-DD"T"HH24:MI:SS"Z"')),
		    updated_at = now()
		FROM latest l
		WHERE c.id = l.contact_id
		  AND c.campaign_id = $1
		  AND c.status = 'qualified'
		  AND l.qualification_id = $2`,
		campaignID, qualificationID, RecycledAtField)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// InsertContacts bulk-inserts pending contacts into a campaign.
func (r *Repository) InsertContacts(ctx context.Context, campaignID uuid.UUID, rows []NewContactParams) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := getCampaign(ctx, tx, campaignID, false); err != nil {
		return 0, err
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		fields, err := marshalCustomFields(row.CustomFields)
		if err != nil {
			return 0, err
		}
		batch.Queue(`
			INSERT INTO contacts (campaign_id, phone_number, first_name, last_name, postal_code, custom_fields)
			VALUES ($1, $2, $3, $4, $5, $6::jsonb)`,
			campaignID, row.PhoneNumber, row.FirstName, row.LastName, row.PostalCode, fields)
	}

	br := tx.SendBatch(ctx, batch)
	for range rows {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return 0, err
		}
	}
	if err := br.Close(); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	return len(rows), nil
}

// GetCampaign reads a campaign snapshot.
func (r *Repository) GetCampaign(ctx context.Context, id uuid.UUID) (Campaign, error) {
	return getCampaign(ctx, r.pool, id, false)
}

// WithinTx runs fn inside one transaction; fn errors roll everything back.
func (r *Repository) WithinTx(ctx context.Context, fn func(tx TxStore) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&txStore{q: tx}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// txStore implements TxStore over an open pgx transaction.
type txStore struct {
	q querier
}

func (t *txStore) GetQualification(ctx context.Context, id uuid.UUID) (Qualification, error) {
	var q Qualification
	err := t.q.QueryRow(ctx,
		`SELECT id, code, type, is_recyclable, group_name FROM qualifications WHERE id = $1`,
		id,
	).Scan(&q.ID, &q.Code, &q.Type, &q.IsRecyclable, &q.GroupName)
	if errors.Is(err, pgx.ErrNoRows) {
		return Qualification{}, ErrQualificationNotFound
	}
	if err != nil {
		return Qualification{}, err
	}
	return q, nil
}

func (t *txStore) GetCampaignForUpdate(ctx context.Context, id uuid.UUID) (Campaign, error) {
	return getCampaign(ctx, t.q, id, true)
}

func (t *txStore) GetContact(ctx context.Context, id uuid.UUID) (Contact, error) {
	row := t.q.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id)
	contact, err := scanContact(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contact{}, ErrContactNotFound
	}
	if err != nil {
		return Contact{}, err
	}
	return contact, nil
}

func (t *txStore) UpdateCampaignQuotaRules(ctx context.Context, campaignID uuid.UUID, rules []QuotaRule) error {
	data, err := json.Marshal(rules)
	if err != nil {
		return err
	}
	tag, err := t.q.Exec(ctx,
		`UPDATE campaigns SET quota_rules = $2::jsonb, updated_at = now() WHERE id = $1`,
		campaignID, string(data))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

func (t *txStore) SetContactStatus(ctx context.Context, contactID uuid.UUID, status ContactStatus) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE contacts SET status = $2, updated_at = now() WHERE id = $1`,
		contactID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrContactNotFound
	}
	return nil
}

func (t *txStore) InsertCallHistory(ctx context.Context, rec CallHistoryRecord) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO call_history (contact_id, agent_id, campaign_id, qualification_id, started_at, ended_at, duration_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ContactID, rec.AgentID, rec.CampaignID, rec.QualificationID,
		rec.StartedAt, rec.EndedAt, rec.DurationSeconds)
	return err
}

// =============================================================================
// Scan helpers
// =============================================================================

func getCampaign(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var c Campaign
	var rules []byte
	err := q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.DialingMode, &c.IsActive, &rules, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Campaign{}, ErrCampaignNotFound
	}
	if err != nil {
		return Campaign{}, err
	}

	if err := json.Unmarshal(rules, &c.QuotaRules); err != nil {
		return Campaign{}, fmt.Errorf("decode quota rules: %w", err)
	}
	if c.QuotaRules == nil {
		c.QuotaRules = []QuotaRule{}
	}

	return c, nil
}

func scanContact(row pgx.Row) (Contact, error) {
	var c Contact
	var fields []byte
	var status string
	err := row.Scan(
		&c.ID, &c.CampaignID, &c.PhoneNumber, &c.FirstName, &c.LastName,
		&c.PostalCode, &fields, &status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Contact{}, err
	}
	c.Status = ContactStatus(status)

	if err := json.Unmarshal(fields, &c.CustomFields); err != nil {
		return Contact{}, fmt.Errorf("decode custom fields: %w", err)
	}
	if c.CustomFields == nil {
		c.CustomFields = map[string]string{}
	}

	return c, nil
}

func contactColumnsAliased() string {
	return `id, c.campaign_id, c.phone_number, c.first_name, c.last_name, c.postal_code, c.custom_fields, c.status, c.created_at, c.updated_at`
}

func marshalCustomFields(fields map[string]string) (string, error) {
	if len(fields) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
