package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

// LedgerIntegrityJob re-derives the ledger invariants from the stored
// journal: every entry must have equal debit and credit totals, and every
// tenant's books must satisfy Assets = Liabilities + Equity. The write path
// enforces both, so any hit here is a programming error; the scan only
// detects and logs, it never repairs.
type LedgerIntegrityJob struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics *Metrics
}

// NewLedgerIntegrityJob constructs the job. Metrics may be nil.
func NewLedgerIntegrityJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *Metrics) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{pool: pool, logger: logger, metrics: metrics}
}

// Handle processes TaskLedgerIntegrity tasks.
func (j *LedgerIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload LedgerIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	return j.Run(ctx, payload.TenantID)
}

// Run executes the scan for one tenant, or every tenant when tenantID is 0.
func (j *LedgerIntegrityJob) Run(ctx context.Context, tenantID int64) error {
	tracker := j.metrics.Track("ledger_integrity")
	return tracker.End(j.run(ctx, tenantID))
}

func (j *LedgerIntegrityJob) run(ctx context.Context, tenantID int64) error {
	unbalanced, err := j.findUnbalancedEntries(ctx, tenantID)
	if err != nil {
		return err
	}
	for _, entry := range unbalanced {
		j.logger.Error("journal entry out of balance",
			slog.Int64("tenant_id", entry.TenantID),
			slog.Int64("journal_id", entry.JournalID),
			slog.String("debit", entry.Debit.String()),
			slog.String("credit", entry.Credit.String()))
		j.metrics.AddViolations("unbalanced_entry", entry.TenantID, 1)
	}

	tenants, err := j.tenantIDs(ctx, tenantID)
	if err != nil {
		return err
	}
	for _, id := range tenants {
		ok, err := j.checkIdentity(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			j.logger.Error("accounting identity violated", slog.Int64("tenant_id", id))
			j.metrics.AddViolations("identity", id, 1)
		}
	}
	j.logger.Info("ledger integrity scan finished",
		slog.Int("unbalanced_entries", len(unbalanced)),
		slog.Int("tenants_checked", len(tenants)))
	return nil
}

type unbalancedEntry struct {
	TenantID  int64
	JournalID int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

func (j *LedgerIntegrityJob) findUnbalancedEntries(ctx context.Context, tenantID int64) ([]unbalancedEntry, error) {
	rows, err := j.pool.Query(ctx, `SELECT e.tenant_id, e.id,
COALESCE(SUM(l.amount) FILTER (WHERE l.entry_type='DEBIT'), 0) AS debit,
COALESCE(SUM(l.amount) FILTER (WHERE l.entry_type='CREDIT'), 0) AS credit
FROM journal_entries e
JOIN journal_lines l ON l.je_id = e.id
WHERE ($1 = 0 OR e.tenant_id = $1)
GROUP BY e.tenant_id, e.id
HAVING COALESCE(SUM(l.amount) FILTER (WHERE l.entry_type='DEBIT'), 0)
    <> COALESCE(SUM(l.amount) FILTER (WHERE l.entry_type='CREDIT'), 0)`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []unbalancedEntry
	for rows.Next() {
		var e unbalancedEntry
		if err := rows.Scan(&e.TenantID, &e.JournalID, &e.Debit, &e.Credit); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (j *LedgerIntegrityJob) tenantIDs(ctx context.Context, tenantID int64) ([]int64, error) {
	if tenantID != 0 {
		return []int64{tenantID}, nil
	}
	rows, err := j.pool.Query(ctx, `SELECT DISTINCT tenant_id FROM accounts ORDER BY tenant_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (j *LedgerIntegrityJob) checkIdentity(ctx context.Context, tenantID int64) (bool, error) {
	rows, err := j.pool.Query(ctx, `SELECT a.id, a.code, a.name, a.type,
COALESCE(SUM(l.amount) FILTER (WHERE l.entry_type='DEBIT'), 0),
COALESCE(SUM(l.amount) FILTER (WHERE l.entry_type='CREDIT'), 0)
FROM accounts a
LEFT JOIN journal_lines l ON l.account_id = a.id
WHERE a.tenant_id=$1
GROUP BY a.id, a.code, a.name, a.type`, tenantID)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	var balances []ledger.AccountBalance
	for rows.Next() {
		var b ledger.AccountBalance
		if err := rows.Scan(&b.AccountID, &b.Code, &b.Name, &b.Type, &b.Debit, &b.Credit); err != nil {
			return false, err
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return false, err
	}
	return ledger.BuildBalanceSheet(balances).IsBalanced, nil
}
