package model

// BenefitLedgerEntry is the per-(subscription period, benefit) record of
// allocated and consumed usage credits.  Entries are created when a
// subscription period is activated (externally) and are mutated only by
// the reservation engine's debit and credit operations.
//
// The arithmetic invariant RemainingCount = TotalAllocated - UsedCount
// with RemainingCount >= 0 must hold at all times; both mutations happen
// inside the reservation transaction so the invariant can never be
// observed broken.
//
// Fields:
//  ID                   – primary key identifier.
//  SubscriptionPeriodID – owning subscription period.
//  BenefitName          – named entitlement (e.g. "Pool Access");
//                         matched case-insensitively.
//  TotalAllocated       – credits granted for the period, fixed at creation.
//  UsedCount            – credits consumed so far.
//  RemainingCount       – credits still available.
type BenefitLedgerEntry struct {
	ID                   uint64 // benefit_ledger_entries.id
	SubscriptionPeriodID uint64 // benefit_ledger_entries.subscription_period_id
	BenefitName          string // benefit_ledger_entries.benefit_name
	TotalAllocated       uint32 // benefit_ledger_entries.total_allocated
	UsedCount            uint32 // benefit_ledger_entries.used_count
	RemainingCount       uint32 // benefit_ledger_entries.remaining_count
}
