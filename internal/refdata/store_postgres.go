package refdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"changeflow/pkg/platform/sentinel"
)

// PostgresStore reads reference data from the ref_* tables. Rows are seeded
// at deploy time; the service never writes them.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ChangeType(ctx context.Context, idOrName string) (ChangeType, error) {
	const query = `
		SELECT id, name, self_approving FROM ref_change_types
		WHERE id = $1 OR lower(name) = lower($1)
	`
	var t ChangeType
	err := s.db.QueryRowContext(ctx, query, idOrName).Scan(&t.ID, &t.Name, &t.SelfApproving)
	if errors.Is(err, sql.ErrNoRows) {
		return ChangeType{}, sentinel.ErrNotFound
	}
	if err != nil {
		return ChangeType{}, fmt.Errorf("find change type: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) Priority(ctx context.Context, idOrName string) (Priority, error) {
	const query = `
		SELECT id, name, rank FROM ref_priorities
		WHERE id = $1 OR lower(name) = lower($1)
	`
	var p Priority
	err := s.db.QueryRowContext(ctx, query, idOrName).Scan(&p.ID, &p.Name, &p.Rank)
	if errors.Is(err, sql.ErrNoRows) {
		return Priority{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Priority{}, fmt.Errorf("find priority: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) RiskLevel(ctx context.Context, idOrName string) (RiskLevel, error) {
	const query = `
		SELECT id, name, rank FROM ref_risk_levels
		WHERE id = $1 OR lower(name) = lower($1)
	`
	var r RiskLevel
	err := s.db.QueryRowContext(ctx, query, idOrName).Scan(&r.ID, &r.Name, &r.Rank)
	if errors.Is(err, sql.ErrNoRows) {
		return RiskLevel{}, sentinel.ErrNotFound
	}
	if err != nil {
		return RiskLevel{}, fmt.Errorf("find risk level: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ImpactLevel(ctx context.Context, idOrName string) (ImpactLevel, error) {
	const query = `
		SELECT id, name, rank FROM ref_impact_levels
		WHERE id = $1 OR lower(name) = lower($1)
	`
	var i ImpactLevel
	err := s.db.QueryRowContext(ctx, query, idOrName).Scan(&i.ID, &i.Name, &i.Rank)
	if errors.Is(err, sql.ErrNoRows) {
		return ImpactLevel{}, sentinel.ErrNotFound
	}
	if err != nil {
		return ImpactLevel{}, fmt.Errorf("find impact level: %w", err)
	}
	return i, nil
}

func (s *PostgresStore) ListChangeTypes(ctx context.Context) ([]ChangeType, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, self_approving FROM ref_change_types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list change types: %w", err)
	}
	defer rows.Close()
	var types []ChangeType
	for rows.Next() {
		var t ChangeType
		if err := rows.Scan(&t.ID, &t.Name, &t.SelfApproving); err != nil {
			return nil, fmt.Errorf("scan change type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// Seed inserts the default reference set, skipping rows that already exist.
func (s *PostgresStore) Seed(ctx context.Context) error {
	types, priorities, risks, impacts := Defaults()
	for _, t := range types {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO ref_change_types (id, name, self_approving) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
			t.ID, t.Name, t.SelfApproving); err != nil {
			return fmt.Errorf("seed change type %q: %w", t.ID, err)
		}
	}
	for _, p := range priorities {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO ref_priorities (id, name, rank) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
			p.ID, p.Name, p.Rank); err != nil {
			return fmt.Errorf("seed priority %q: %w", p.ID, err)
		}
	}
	for _, r := range risks {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO ref_risk_levels (id, name, rank) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
			r.ID, r.Name, r.Rank); err != nil {
			return fmt.Errorf("seed risk level %q: %w", r.ID, err)
		}
	}
	for _, i := range impacts {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO ref_impact_levels (id, name, rank) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
			i.ID, i.Name, i.Rank); err != nil {
			return fmt.Errorf("seed impact level %q: %w", i.ID, err)
		}
	}
	return nil
}
