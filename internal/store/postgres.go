package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/jaimenoain/ceeq/internal/config"
	"github.com/jaimenoain/ceeq/internal/db"
	"github.com/jaimenoain/ceeq/internal/model"
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *config.PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// The migration is idempotent. Row-level security scopes the tenant
// tables to the workspace id bound on the transaction (see
// withWorkspace); the application role never reads another tenant's
// rows even if a query misses a predicate. Users carry no policy:
// login resolves an email before any workspace is known. The two
// SECURITY DEFINER functions are the only sanctioned cross-tenant
// surfaces: check_global_collision returns a boolean and a stage,
// shared_deal_feed returns deals whose owners opted into sharing.
const postgresMigration = `
CREATE TABLE IF NOT EXISTS workspaces (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	workspace_type    TEXT NOT NULL CHECK (workspace_type IN ('searcher', 'investor')),
	name              TEXT NOT NULL,
	subscription_plan TEXT NOT NULL DEFAULT 'free' CHECK (subscription_plan IN ('free', 'pro')),
	deleted_at        TIMESTAMPTZ,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	workspace_id  TEXT NOT NULL REFERENCES workspaces(id),
	role          TEXT NOT NULL DEFAULT 'analyst' CHECK (role IN ('admin', 'analyst')),
	email         TEXT NOT NULL UNIQUE,
	first_name    TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	linkedin_url  TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sourcing_targets (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	workspace_id TEXT NOT NULL REFERENCES workspaces(id),
	name         TEXT NOT NULL,
	domain       TEXT NOT NULL,
	industry     TEXT NOT NULL DEFAULT '',
	fit_score    DOUBLE PRECISION NOT NULL DEFAULT 0,
	status       TEXT NOT NULL DEFAULT 'untouched'
	             CHECK (status IN ('untouched', 'in_sequence', 'replied', 'archived', 'converted')),
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (workspace_id, domain)
);

CREATE TABLE IF NOT EXISTS companies (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	workspace_id   TEXT NOT NULL REFERENCES workspaces(id),
	name           TEXT NOT NULL,
	domain         TEXT NOT NULL,
	fingerprint    TEXT NOT NULL,
	industry       TEXT NOT NULL DEFAULT '',
	city           TEXT NOT NULL DEFAULT '',
	state          TEXT NOT NULL DEFAULT '',
	employee_count INTEGER,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (workspace_id, fingerprint)
);

CREATE TABLE IF NOT EXISTS deals (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	workspace_id TEXT NOT NULL REFERENCES workspaces(id),
	company_id   TEXT NOT NULL REFERENCES companies(id),
	stage        TEXT NOT NULL DEFAULT 'inbox'
	             CHECK (stage IN ('inbox', 'nda_signed', 'cim_review', 'loi_issued', 'due_diligence', 'closed_won')),
	status       TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'archived', 'lost')),
	visibility   TEXT NOT NULL DEFAULT 'private' CHECK (visibility IN ('private', 'shared')),
	loss_reason  TEXT NOT NULL DEFAULT '',
	asking_price BIGINT,
	revenue      BIGINT,
	ebitda       BIGINT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (workspace_id, company_id),
	CHECK (status <> 'lost' OR loss_reason <> '')
);

CREATE INDEX IF NOT EXISTS idx_users_workspace ON users(workspace_id);
CREATE INDEX IF NOT EXISTS idx_targets_workspace_status ON sourcing_targets(workspace_id, status);
CREATE INDEX IF NOT EXISTS idx_targets_workspace_score ON sourcing_targets(workspace_id, fit_score DESC);
CREATE INDEX IF NOT EXISTS idx_companies_fingerprint ON companies(fingerprint);
CREATE INDEX IF NOT EXISTS idx_deals_workspace_status ON deals(workspace_id, status);
CREATE INDEX IF NOT EXISTS idx_deals_visibility ON deals(visibility) WHERE visibility = 'shared';

ALTER TABLE sourcing_targets ENABLE ROW LEVEL SECURITY;
ALTER TABLE companies ENABLE ROW LEVEL SECURITY;
ALTER TABLE deals ENABLE ROW LEVEL SECURITY;

DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_policies WHERE policyname = 'targets_workspace_isolation') THEN
		CREATE POLICY targets_workspace_isolation ON sourcing_targets
			USING (workspace_id = current_setting('app.workspace_id', true));
	END IF;
	IF NOT EXISTS (SELECT 1 FROM pg_policies WHERE policyname = 'companies_workspace_isolation') THEN
		CREATE POLICY companies_workspace_isolation ON companies
			USING (workspace_id = current_setting('app.workspace_id', true));
	END IF;
	IF NOT EXISTS (SELECT 1 FROM pg_policies WHERE policyname = 'deals_workspace_isolation') THEN
		CREATE POLICY deals_workspace_isolation ON deals
			USING (workspace_id = current_setting('app.workspace_id', true));
	END IF;
END
$$;

CREATE OR REPLACE FUNCTION check_global_collision(fp TEXT)
RETURNS TABLE (collision BOOLEAN, stage TEXT)
LANGUAGE sql
SECURITY DEFINER
SET search_path = public
AS $fn$
	SELECT
		EXISTS (
			SELECT 1 FROM deals d
			JOIN companies c ON c.id = d.company_id
			WHERE c.fingerprint = fp AND d.status = 'active'
		),
		(
			SELECT d.stage FROM deals d
			JOIN companies c ON c.id = d.company_id
			WHERE c.fingerprint = fp AND d.status = 'active'
			ORDER BY array_position(
				ARRAY['inbox', 'nda_signed', 'cim_review', 'loi_issued', 'due_diligence', 'closed_won'],
				d.stage
			) DESC
			LIMIT 1
		);
$fn$;

CREATE OR REPLACE FUNCTION shared_deal_feed()
RETURNS TABLE (deal_id TEXT, company_name TEXT, searcher_name TEXT, stage TEXT, revenue BIGINT, ebitda BIGINT)
LANGUAGE sql
SECURITY DEFINER
SET search_path = public
AS $fn$
	SELECT d.id, c.name, w.name, d.stage, d.revenue, d.ebitda
	FROM deals d
	JOIN companies c ON c.id = d.company_id AND c.workspace_id = d.workspace_id
	JOIN workspaces w ON w.id = d.workspace_id
	WHERE d.visibility = 'shared' AND d.status = 'active'
	ORDER BY d.updated_at DESC;
$fn$;
`

// bindWorkspaceSQL sets the GUC the row-level security policies read.
// set_config with is_local = true scopes it to the transaction.
const bindWorkspaceSQL = `SELECT set_config('app.workspace_id', $1, true)`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// withWorkspace runs fn in a transaction with the caller's workspace id
// bound for the policies. Every workspace-scoped operation goes through
// here; queries still carry their own workspace_id predicates, RLS is
// the backstop.
func (s *PostgresStore) withWorkspace(ctx context.Context, workspaceID string, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, bindWorkspaceSQL, workspaceID); err != nil {
		return eris.Wrap(err, "postgres: bind workspace")
	}
	if err := fn(tx); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit")
}

// Workspaces and users

func (s *PostgresStore) CreateWorkspace(ctx context.Context, ws *model.Workspace) error {
	if ws.ID == "" {
		ws.ID = uuid.New().String()
	}
	if ws.Plan == "" {
		ws.Plan = model.PlanFree
	}
	ws.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO workspaces (id, workspace_type, name, subscription_plan, created_at) VALUES ($1, $2, $3, $4, $5)`,
		ws.ID, string(ws.Type), ws.Name, string(ws.Plan), ws.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert workspace")
}

func (s *PostgresStore) GetWorkspace(ctx context.Context, id string) (*model.Workspace, error) {
	var ws model.Workspace
	err := s.pool.QueryRow(ctx,
		`SELECT id, workspace_type, name, subscription_plan, deleted_at, created_at FROM workspaces WHERE id = $1 AND deleted_at IS NULL`,
		id,
	).Scan(&ws.ID, &ws.Type, &ws.Name, &ws.Plan, &ws.DeletedAt, &ws.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get workspace %s", id)
	}
	return &ws, nil
}

func (s *PostgresStore) DeleteWorkspace(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE workspaces SET deleted_at = now() WHERE id = $1`,
		id,
	)
	return eris.Wrapf(err, "postgres: delete workspace %s", id)
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Role == "" {
		u.Role = model.RoleAnalyst
	}
	u.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, workspace_id, role, email, first_name, last_name, linkedin_url, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.WorkspaceID, string(u.Role), u.Email, u.FirstName, u.LastName, u.LinkedInURL, u.PasswordHash, u.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert user")
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT id, workspace_id, role, email, first_name, last_name, linkedin_url, password_hash, created_at FROM users WHERE id = $1`,
		id,
	), id)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT id, workspace_id, role, email, first_name, last_name, linkedin_url, password_hash, created_at FROM users WHERE email = $1`,
		email,
	), email)
}

func (s *PostgresStore) scanUser(row pgx.Row, key string) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.WorkspaceID, &u.Role, &u.Email, &u.FirstName, &u.LastName, &u.LinkedInURL, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get user %s", key)
	}
	return &u, nil
}

// Sourcing targets

func (s *PostgresStore) GetTarget(ctx context.Context, workspaceID, targetID string) (*model.SourcingTarget, error) {
	var found *model.SourcingTarget
	err := s.withWorkspace(ctx, workspaceID, func(tx pgx.Tx) error {
		var tg model.SourcingTarget
		err := tx.QueryRow(ctx,
			`SELECT id, workspace_id, name, domain, industry, fit_score, status, created_at FROM sourcing_targets WHERE workspace_id = $1 AND id = $2`,
			workspaceID, targetID,
		).Scan(&tg.ID, &tg.WorkspaceID, &tg.Name, &tg.Domain, &tg.Industry, &tg.FitScore, &tg.Status, &tg.CreatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return eris.Wrapf(err, "postgres: get target %s", targetID)
		}
		found = &tg
		return nil
	})
	return found, err
}

func (s *PostgresStore) ListTargets(ctx context.Context, workspaceID string, filter TargetFilter) ([]model.SourcingTarget, int, error) {
	query := `SELECT id, workspace_id, name, domain, industry, fit_score, status, created_at, COUNT(*) OVER() AS total
	          FROM sourcing_targets WHERE workspace_id = $1`
	args := []any{workspaceID}
	argIdx := 2

	if filter.Search != "" {
		query += fmt.Sprintf(` AND (name ILIKE $%d OR domain ILIKE $%d)`, argIdx, argIdx)
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Industry != "" {
		query += fmt.Sprintf(` AND industry = $%d`, argIdx)
		args = append(args, filter.Industry)
		argIdx++
	}

	query += ` ORDER BY fit_score DESC, created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, argIdx, argIdx+1)
	args = append(args, limit, (page-1)*limit)

	var targets []model.SourcingTarget
	total := 0
	err := s.withWorkspace(ctx, workspaceID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return eris.Wrap(err, "postgres: list targets")
		}
		defer rows.Close()

		for rows.Next() {
			var tg model.SourcingTarget
			if err := rows.Scan(&tg.ID, &tg.WorkspaceID, &tg.Name, &tg.Domain, &tg.Industry, &tg.FitScore, &tg.Status, &tg.CreatedAt, &total); err != nil {
				return eris.Wrap(err, "postgres: scan target")
			}
			targets = append(targets, tg)
		}
		return eris.Wrap(rows.Err(), "postgres: list targets iterate")
	})
	return targets, total, err
}

// BulkInsertTargets writes targets in a single batched upsert, skipping
// rows that collide with the (workspace_id, domain) constraint. Returns
// the number actually inserted.
func (s *PostgresStore) BulkInsertTargets(ctx context.Context, workspaceID string, targets []model.SourcingTarget) (int64, error) {
	rows := make([][]any, 0, len(targets))
	for _, tg := range targets {
		id := tg.ID
		if id == "" {
			id = uuid.New().String()
		}
		status := tg.Status
		if status == "" {
			status = model.SourcingUntouched
		}
		rows = append(rows, []any{id, workspaceID, tg.Name, tg.Domain, tg.Industry, tg.FitScore, string(status)})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "sourcing_targets",
		Columns:      []string{"id", "workspace_id", "name", "domain", "industry", "fit_score", "status"},
		ConflictKeys: []string{"workspace_id", "domain"},
		IgnoreOnly:   true,
		Setup: func(ctx context.Context, tx pgx.Tx) error {
			_, err := tx.Exec(ctx, bindWorkspaceSQL, workspaceID)
			return err
		},
	}, rows)
	return n, eris.Wrap(err, "postgres: bulk insert targets")
}

func (s *PostgresStore) UpdateTargetStatuses(ctx context.Context, workspaceID string, targetIDs []string, status model.SourcingStatus) (int64, error) {
	var affected int64
	err := s.withWorkspace(ctx, workspaceID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE sourcing_targets SET status = $3 WHERE workspace_id = $1 AND id = ANY($2)`,
			workspaceID, targetIDs, string(status),
		)
		if err != nil {
			return eris.Wrap(err, "postgres: update target statuses")
		}
		affected = tag.RowsAffected()
		return nil
	})
	return affected, err
}

func (s *PostgresStore) MarkTargetConverted(ctx context.Context, workspaceID, targetID string) error {
	return s.withWorkspace(ctx, workspaceID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`UPDATE sourcing_targets SET status = 'converted' WHERE workspace_id = $1 AND id = $2 AND status <> 'converted'`,
			workspaceID, targetID,
		)
		return eris.Wrapf(err, "postgres: mark target converted %s", targetID)
	})
}

// Companies

func (s *PostgresStore) CreateCompany(ctx context.Context, c *model.Company) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().UTC()

	return s.withWorkspace(ctx, c.WorkspaceID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO companies (id, workspace_id, name, domain, fingerprint, industry, city, state, employee_count, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			c.ID, c.WorkspaceID, c.Name, c.Domain, c.Fingerprint, c.Industry, c.City, c.State, c.EmployeeCount, c.CreatedAt,
		)
		return eris.Wrap(err, "postgres: insert company")
	})
}

func (s *PostgresStore) GetCompany(ctx context.Context, workspaceID, id string) (*model.Company, error) {
	return s.getCompany(ctx, workspaceID,
		`SELECT id, workspace_id, name, domain, fingerprint, industry, city, state, employee_count, created_at
		 FROM companies WHERE workspace_id = $1 AND id = $2`,
		id)
}

func (s *PostgresStore) GetCompanyByFingerprint(ctx context.Context, workspaceID, fingerprint string) (*model.Company, error) {
	return s.getCompany(ctx, workspaceID,
		`SELECT id, workspace_id, name, domain, fingerprint, industry, city, state, employee_count, created_at
		 FROM companies WHERE workspace_id = $1 AND fingerprint = $2`,
		fingerprint)
}

func (s *PostgresStore) getCompany(ctx context.Context, workspaceID, query, key string) (*model.Company, error) {
	var found *model.Company
	err := s.withWorkspace(ctx, workspaceID, func(tx pgx.Tx) error {
		var c model.Company
		err := tx.QueryRow(ctx, query, workspaceID, key).
			Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.Domain, &c.Fingerprint, &c.Industry, &c.City, &c.State, &c.EmployeeCount, &c.CreatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return eris.Wrapf(err, "postgres: get company %s", key)
		}
		found = &c
		return nil
	})
	return found, err
}

func (s *PostgresStore) UpdateCompanyFirmographics(ctx context.Context, workspaceID, id string, upd FirmographicsUpdate) error {
	return s.withWorkspace(ctx, workspaceID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE companies SET
				industry = COALESCE($3, industry),
				city = COALESCE($4, city),
				state = COALESCE($5, state),
				employee_count = COALESCE($6, employee_count)
			 WHERE workspace_id = $1 AND id = $2`,
			workspaceID, id, upd.Industry, upd.City, upd.State, upd.EmployeeCount,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: update company firmographics %s", id)
		}
		if tag.RowsAffected() == 0 {
			return eris.Errorf("company not found: %s", id)
		}
		return nil
	})
}

// Deals

func (s *PostgresStore) CreateDeal(ctx context.Context, d *model.Deal) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Stage == "" {
		d.Stage = model.StageInbox
	}
	if d.Status == "" {
		d.Status = model.DealActive
	}
	if d.Visibility == "" {
		d.Visibility = model.VisibilityPrivate
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	return s.withWorkspace(ctx, d.WorkspaceID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO deals (id, workspace_id, company_id, stage, status, visibility, loss_reason, asking_price, revenue, ebitda, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			d.ID, d.WorkspaceID, d.CompanyID, string(d.Stage), string(d.Status), string(d.Visibility),
			d.LossReason, d.AskingPrice, d.Revenue, d.EBITDA, d.CreatedAt, d.UpdatedAt,
		)
		return eris.Wrap(err, "postgres: insert deal")
	})
}

func (s *PostgresStore) GetDeal(ctx context.Context, workspaceID, id string) (*model.Deal, error) {
	return s.getDeal(ctx, workspaceID,
		`SELECT id, workspace_id, company_id, stage, status, visibility, loss_reason, asking_price, revenue, ebitda, created_at, updated_at
		 FROM deals WHERE workspace_id = $1 AND id = $2`,
		id)
}

func (s *PostgresStore) GetDealByCompany(ctx context.Context, workspaceID, companyID string) (*model.Deal, error) {
	return s.getDeal(ctx, workspaceID,
		`SELECT id, workspace_id, company_id, stage, status, visibility, loss_reason, asking_price, revenue, ebitda, created_at, updated_at
		 FROM deals WHERE workspace_id = $1 AND company_id = $2`,
		companyID)
}

func (s *PostgresStore) getDeal(ctx context.Context, workspaceID, query, key string) (*model.Deal, error) {
	var found *model.Deal
	err := s.withWorkspace(ctx, workspaceID, func(tx pgx.Tx) error {
		var d model.Deal
		err := tx.QueryRow(ctx, query, workspaceID, key).
			Scan(&d.ID, &d.WorkspaceID, &d.CompanyID, &d.Stage, &d.Status, &d.Visibility,
				&d.LossReason, &d.AskingPrice, &d.Revenue, &d.EBITDA, &d.CreatedAt, &d.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return eris.Wrapf(err, "postgres: get deal %s", key)
		}
		found = &d
		return nil
	})
	return found, err
}

func (s *PostgresStore) UpdateDealStage(ctx context.Context, workspaceID, id string, stage model.DealStage) error {
	return s.withWorkspace(ctx, workspaceID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE deals SET stage = $3, updated_at = $4 WHERE workspace_id = $1 AND id = $2`,
			workspaceID, id, string(stage), time.Now().UTC(),
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: update deal stage %s", id)
		}
		if tag.RowsAffected() == 0 {
			return eris.Errorf("deal not found: %s", id)
		}
		return nil
	})
}

func (s *PostgresStore) CloseDeal(ctx context.Context, workspaceID, id string, status model.DealStatus, lossReason string) error {
	return s.withWorkspace(ctx, workspaceID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE deals SET status = $3, loss_reason = $4, updated_at = $5 WHERE workspace_id = $1 AND id = $2`,
			workspaceID, id, string(status), lossReason, time.Now().UTC(),
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: close deal %s", id)
		}
		if tag.RowsAffected() == 0 {
			return eris.Errorf("deal not found: %s", id)
		}
		return nil
	})
}

func (s *PostgresStore) UpdateDealFinancials(ctx context.Context, workspaceID, id string, upd FinancialsUpdate) error {
	return s.withWorkspace(ctx, workspaceID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE deals SET
				asking_price = COALESCE($3, asking_price),
				revenue = COALESCE($4, revenue),
				ebitda = COALESCE($5, ebitda),
				updated_at = $6
			 WHERE workspace_id = $1 AND id = $2`,
			workspaceID, id, upd.AskingPrice, upd.Revenue, upd.EBITDA, time.Now().UTC(),
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: update deal financials %s", id)
		}
		if tag.RowsAffected() == 0 {
			return eris.Errorf("deal not found: %s", id)
		}
		return nil
	})
}

func (s *PostgresStore) ListActiveDeals(ctx context.Context, workspaceID string) ([]model.KanbanDeal, error) {
	return s.queryKanbanDeals(ctx, workspaceID,
		`SELECT d.id, c.name, d.stage, d.visibility, c.industry, d.updated_at
		 FROM deals d JOIN companies c ON c.id = d.company_id AND c.workspace_id = d.workspace_id
		 WHERE d.workspace_id = $1 AND d.status = 'active'
		 ORDER BY d.updated_at DESC`,
		"list active deals", workspaceID)
}

func (s *PostgresStore) RecentDeals(ctx context.Context, workspaceID string, limit int) ([]model.KanbanDeal, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.queryKanbanDeals(ctx, workspaceID,
		`SELECT d.id, c.name, d.stage, d.visibility, c.industry, d.updated_at
		 FROM deals d JOIN companies c ON c.id = d.company_id AND c.workspace_id = d.workspace_id
		 WHERE d.workspace_id = $1 AND d.status = 'active'
		 ORDER BY d.updated_at DESC LIMIT $2`,
		"recent deals", workspaceID, limit)
}

func (s *PostgresStore) queryKanbanDeals(ctx context.Context, workspaceID, query, op string, args ...any) ([]model.KanbanDeal, error) {
	var deals []model.KanbanDeal
	err := s.withWorkspace(ctx, workspaceID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return eris.Wrapf(err, "postgres: %s", op)
		}
		defer rows.Close()

		deals, err = scanKanbanDeals(rows)
		return err
	})
	return deals, err
}

func scanKanbanDeals(rows pgx.Rows) ([]model.KanbanDeal, error) {
	now := time.Now().UTC()
	var deals []model.KanbanDeal
	for rows.Next() {
		var kd model.KanbanDeal
		var updatedAt time.Time
		if err := rows.Scan(&kd.ID, &kd.CompanyName, &kd.Stage, &kd.Visibility, &kd.Industry, &updatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan kanban deal")
		}
		kd.UpdatedAgo = model.RelativeTime(updatedAt, now)
		deals = append(deals, kd)
	}
	return deals, eris.Wrap(rows.Err(), "postgres: kanban deals iterate")
}

// ListSharedDeals returns shared-visibility deals across searcher
// workspaces for the investor feed, through the privilege-escalated
// feed function so the tenant policies stay strict equality. Sharing to
// this feed is the deal owner's explicit opt-in via the visibility tier.
func (s *PostgresStore) ListSharedDeals(ctx context.Context) ([]model.SharedDeal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT deal_id, company_name, searcher_name, stage, revenue, ebitda FROM shared_deal_feed()`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list shared deals")
	}
	defer rows.Close()

	var deals []model.SharedDeal
	for rows.Next() {
		var sd model.SharedDeal
		if err := rows.Scan(&sd.DealID, &sd.CompanyName, &sd.SearcherName, &sd.Stage, &sd.Revenue, &sd.EBITDA); err != nil {
			return nil, eris.Wrap(err, "postgres: scan shared deal")
		}
		sd.MarginPercent = model.Deal{Revenue: sd.Revenue, EBITDA: sd.EBITDA}.MarginPercent()
		deals = append(deals, sd)
	}
	return deals, eris.Wrap(rows.Err(), "postgres: shared deals iterate")
}

// CheckGlobalCollision runs the privilege-escalated collision function.
// Errors propagate so callers can fail closed.
func (s *PostgresStore) CheckGlobalCollision(ctx context.Context, fingerprint string) (*CollisionSignal, error) {
	var sig CollisionSignal
	var stage *string
	err := s.pool.QueryRow(ctx,
		`SELECT collision, stage FROM check_global_collision($1)`,
		fingerprint,
	).Scan(&sig.Collision, &stage)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: collision check")
	}
	if stage != nil {
		sig.Stage = model.DealStage(*stage)
	}
	return &sig, nil
}

// Dashboard

func (s *PostgresStore) CountTargets(ctx context.Context, workspaceID string) (int, error) {
	return s.countRows(ctx, workspaceID,
		`SELECT COUNT(*) FROM sourcing_targets WHERE workspace_id = $1`,
		"count targets", workspaceID)
}

func (s *PostgresStore) CountEngagedTargets(ctx context.Context, workspaceID string) (int, error) {
	return s.countRows(ctx, workspaceID,
		`SELECT COUNT(*) FROM sourcing_targets WHERE workspace_id = $1 AND status <> 'untouched'`,
		"count engaged targets", workspaceID)
}

func (s *PostgresStore) CountActiveDeals(ctx context.Context, workspaceID string) (int, error) {
	return s.countRows(ctx, workspaceID,
		`SELECT COUNT(*) FROM deals WHERE workspace_id = $1 AND status = 'active'`,
		"count active deals", workspaceID)
}

func (s *PostgresStore) CountDealsAtOrBeyond(ctx context.Context, workspaceID string, stage model.DealStage) (int, error) {
	stages := make([]string, 0, len(model.Stages))
	for _, st := range model.Stages {
		if st.AtLeast(stage) {
			stages = append(stages, string(st))
		}
	}
	return s.countRows(ctx, workspaceID,
		`SELECT COUNT(*) FROM deals WHERE workspace_id = $1 AND status = 'active' AND stage = ANY($2)`,
		"count deals at or beyond", workspaceID, stages)
}

func (s *PostgresStore) countRows(ctx context.Context, workspaceID, query, op string, args ...any) (int, error) {
	var count int
	err := s.withWorkspace(ctx, workspaceID, func(tx pgx.Tx) error {
		return eris.Wrapf(tx.QueryRow(ctx, query, args...).Scan(&count), "postgres: %s", op)
	})
	return count, err
}
