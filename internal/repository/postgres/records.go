// Package postgres implements the persistence layer for normalized
// campaign records against PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/sendtime-optimizer/internal/analyzer"
)

// RecordRepo stores and queries normalized campaign records.
type RecordRepo struct{ db *sql.DB }

// NewRecordRepo creates a Postgres-backed record repository.
func NewRecordRepo(db *sql.DB) *RecordRepo { return &RecordRepo{db: db} }

// EnsureSchema creates the campaign_records table when missing. Idempotent.
func (r *RecordRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS campaign_records (
			id                UUID PRIMARY KEY,
			business_unit     TEXT NOT NULL DEFAULT 'Unknown',
			organization_type TEXT NOT NULL DEFAULT 'Unknown',
			campaign_type     TEXT NOT NULL DEFAULT 'Unknown',
			send_timestamp    TIMESTAMPTZ NOT NULL,
			day_of_week       TEXT NOT NULL,
			hour_of_day       INTEGER NOT NULL CHECK (hour_of_day BETWEEN 0 AND 23),
			open_rate         DOUBLE PRECISION NOT NULL DEFAULT 0,
			click_rate        DOUBLE PRECISION NOT NULL DEFAULT 0,
			unsubscribe_rate  DOUBLE PRECISION NOT NULL DEFAULT 0,
			bounce_rate       DOUBLE PRECISION NOT NULL DEFAULT 0,
			source_file       TEXT,
			created_at        TIMESTAMPTZ DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("ensure campaign_records schema: %w", err)
	}
	return nil
}

// InsertRecords persists a batch inside one transaction. Returns the number
// of rows written; a failed row aborts the batch.
func (r *RecordRepo) InsertRecords(ctx context.Context, records []analyzer.EmailRecord, sourceFile string) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO campaign_records (
			id, business_unit, organization_type, campaign_type,
			send_timestamp, day_of_week, hour_of_day,
			open_rate, click_rate, unsubscribe_rate, bounce_rate, source_file
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			uuid.New(), rec.BusinessUnit, rec.OrganizationType, rec.CampaignType,
			rec.SendTimestamp, rec.DayOfWeek, rec.HourOfDay,
			rec.OpenRate, rec.ClickRate, rec.UnsubscribeRate, rec.BounceRate,
			sourceFile,
		); err != nil {
			return 0, fmt.Errorf("insert record: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// ListRecords returns all records matching the categorical filters. The
// "All" wildcard disables a filter; this is the only place filtering
// happens, so the analyzer stays filter-agnostic.
func (r *RecordRepo) ListRecords(ctx context.Context, f analyzer.Filters) ([]analyzer.EmailRecord, error) {
	q := `
		SELECT business_unit, organization_type, campaign_type,
		       send_timestamp, day_of_week, hour_of_day,
		       open_rate, click_rate, unsubscribe_rate, bounce_rate
		FROM campaign_records WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if f.BusinessUnit != "" && f.BusinessUnit != analyzer.FilterAll {
		q += fmt.Sprintf(" AND business_unit = $%d", idx)
		args = append(args, f.BusinessUnit)
		idx++
	}
	if f.OrganizationType != "" && f.OrganizationType != analyzer.FilterAll {
		q += fmt.Sprintf(" AND organization_type = $%d", idx)
		args = append(args, f.OrganizationType)
		idx++
	}
	if f.CampaignType != "" && f.CampaignType != analyzer.FilterAll {
		q += fmt.Sprintf(" AND campaign_type = $%d", idx)
		args = append(args, f.CampaignType)
		idx++
	}
	q += " ORDER BY send_timestamp ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []analyzer.EmailRecord
	for rows.Next() {
		var rec analyzer.EmailRecord
		if err := rows.Scan(
			&rec.BusinessUnit, &rec.OrganizationType, &rec.CampaignType,
			&rec.SendTimestamp, &rec.DayOfWeek, &rec.HourOfDay,
			&rec.OpenRate, &rec.ClickRate, &rec.UnsubscribeRate, &rec.BounceRate,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// FilterValues holds the distinct categorical values present in the store,
// used to populate filter dropdowns.
type FilterValues struct {
	BusinessUnits     []string `json:"business_units"`
	OrganizationTypes []string `json:"organization_types"`
	CampaignTypes     []string `json:"campaign_types"`
}

// DistinctFilterValues returns the distinct values of each categorical
// column, sorted.
func (r *RecordRepo) DistinctFilterValues(ctx context.Context) (*FilterValues, error) {
	fv := &FilterValues{}
	for _, col := range []struct {
		name string
		dst  *[]string
	}{
		{"business_unit", &fv.BusinessUnits},
		{"organization_type", &fv.OrganizationTypes},
		{"campaign_type", &fv.CampaignTypes},
	} {
		rows, err := r.db.QueryContext(ctx,
			fmt.Sprintf("SELECT DISTINCT %s FROM campaign_records ORDER BY %s", col.name, col.name))
		if err != nil {
			return nil, fmt.Errorf("distinct %s: %w", col.name, err)
		}
		for rows.Next() {
			var v string
			if err := rows.Scan(&v); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan %s: %w", col.name, err)
			}
			*col.dst = append(*col.dst, v)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return fv, nil
}

// Count returns the total number of stored records.
func (r *RecordRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaign_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}
