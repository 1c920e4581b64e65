package repository

import (
	"context"
	"database/sql"

	"github.com/telmaron/clubbook/internal/booking"
	"github.com/telmaron/clubbook/internal/model"
)

// LedgerRepo owns the benefit ledger entries.  Every mutation locks the
// row first and recomputes both counters from the locked values, so the
// remaining + used = allocated invariant cannot be broken by
// interleaved writers.
type LedgerRepo struct {
	db *sql.DB
}

// NewLedgerRepo returns a LedgerRepo bound to the given database.
func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db} }

const ledgerColumns = `id, subscription_period_id, benefit_name, total_allocated, used_count, remaining_count`

func scanLedgerEntry(row *sql.Row) (*model.BenefitLedgerEntry, error) {
	var e model.BenefitLedgerEntry
	err := row.Scan(&e.ID, &e.SubscriptionPeriodID, &e.BenefitName, &e.TotalAllocated, &e.UsedCount, &e.RemainingCount)
	if err != nil {
		return nil, asStoreErr(err)
	}
	return &e, nil
}

// EntryForBenefitForUpdateTx locks and returns the period's entry whose
// benefit name matches case-insensitively.  The lock is held until the
// reservation transaction ends so the balance cannot move between the
// check and the debit.
func (r *LedgerRepo) EntryForBenefitForUpdateTx(ctx context.Context, tx *sql.Tx, periodID uint64, benefit string) (*model.BenefitLedgerEntry, error) {
	const q = `SELECT ` + ledgerColumns + `
	           FROM benefit_ledger_entries
	           WHERE subscription_period_id = ? AND LOWER(benefit_name) = LOWER(?)
	           FOR UPDATE`
	return scanLedgerEntry(tx.QueryRowContext(ctx, q, periodID, benefit))
}

// getForUpdateTx locks an entry by primary key.
func (r *LedgerRepo) getForUpdateTx(ctx context.Context, tx *sql.Tx, entryID uint64) (*model.BenefitLedgerEntry, error) {
	const q = `SELECT ` + ledgerColumns + ` FROM benefit_ledger_entries WHERE id = ? FOR UPDATE`
	return scanLedgerEntry(tx.QueryRowContext(ctx, q, entryID))
}

// DebitTx consumes amount credits.  It re-reads the row under its lock
// and refuses with booking.ErrInsufficient when the balance is short;
// the caller's earlier read is advisory only.
func (r *LedgerRepo) DebitTx(ctx context.Context, tx *sql.Tx, entryID uint64, amount uint32) (*model.BenefitLedgerEntry, error) {
	e, err := r.getForUpdateTx(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}
	if e.RemainingCount < amount {
		return nil, booking.ErrInsufficient
	}
	e.UsedCount += amount
	e.RemainingCount -= amount
	if err := r.writeCountsTx(ctx, tx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// CreditTx returns amount credits, clamped so neither counter leaves
// [0, total_allocated].  Used only by cancellation, which refunds at
// most what it debited, so the clamp is a safety net rather than a
// policy.
func (r *LedgerRepo) CreditTx(ctx context.Context, tx *sql.Tx, entryID uint64, amount uint32) (*model.BenefitLedgerEntry, error) {
	e, err := r.getForUpdateTx(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}
	if amount > e.UsedCount {
		amount = e.UsedCount
	}
	e.UsedCount -= amount
	e.RemainingCount = e.TotalAllocated - e.UsedCount
	if err := r.writeCountsTx(ctx, tx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *LedgerRepo) writeCountsTx(ctx context.Context, tx *sql.Tx, e *model.BenefitLedgerEntry) error {
	const q = `UPDATE benefit_ledger_entries SET used_count = ?, remaining_count = ? WHERE id = ?`
	// MySQL reports zero affected rows when the values are unchanged
	// (a fully clamped credit), so RowsAffected is not checked here.
	_, err := tx.ExecContext(ctx, q, e.UsedCount, e.RemainingCount, e.ID)
	return err
}
