package repository

import (
	"context"
	"database/sql"

	"github.com/telmaron/clubbook/internal/model"
)

// MemberRepo reads member and subscription-period rows.  Both tables
// are owned by the external member-management service; this engine
// never writes them, so the repository is read-only by construction.
type MemberRepo struct {
	db *sql.DB
}

// NewMemberRepo returns a MemberRepo bound to the given database.
func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

// GetByIDTx loads a member inside the reservation transaction.
func (r *MemberRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Member, error) {
	const q = `SELECT id, full_name, email, is_active, created_at
	           FROM members WHERE id = ?`
	var m model.Member
	err := tx.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.FullName, &m.Email, &m.IsActive, &m.CreatedAt)
	if err != nil {
		return nil, asStoreErr(err)
	}
	return &m, nil
}

// ActivePeriodTx resolves the member's authoritative ACTIVE
// subscription period.  When several ACTIVE rows exist the
// most-recently-ending one wins.
func (r *MemberRepo) ActivePeriodTx(ctx context.Context, tx *sql.Tx, memberID uint64) (*model.SubscriptionPeriod, error) {
	const q = `SELECT id, member_id, plan_name, status, starts_at, ends_at
	           FROM subscription_periods
	           WHERE member_id = ? AND status = ?
	           ORDER BY ends_at DESC
	           LIMIT 1`
	var p model.SubscriptionPeriod
	err := tx.QueryRowContext(ctx, q, memberID, model.SubscriptionPeriodActive).Scan(
		&p.ID, &p.MemberID, &p.PlanName, &p.Status, &p.StartsAt, &p.EndsAt,
	)
	if err != nil {
		return nil, asStoreErr(err)
	}
	return &p, nil
}
