package model

import "time"

// Member represents a club member who may reserve facilities.  Member
// records are owned by the external member-management service; the
// reservation engine only ever reads them.
//
// Fields:
//  ID        – primary key identifier.
//  FullName  – display name used in staff-facing views.
//  Email     – contact address forwarded to the notification queue.
//  IsActive  – whether the membership record itself is active.
//  CreatedAt – creation timestamp.
type Member struct {
	ID        uint64    // members.id
	FullName  string    // members.full_name
	Email     string    // members.email
	IsActive  bool      // members.is_active
	CreatedAt time.Time // members.created_at
}

// SubscriptionPeriodActive is the status value of the one subscription
// period per member that may currently grant entitlements.  Other
// statuses (expired, frozen, pending) are opaque to this engine.
const SubscriptionPeriodActive = "ACTIVE"

// SubscriptionPeriod is a time-bounded plan grant for a member.  At most
// one period per member is ACTIVE at a time (enforced by the external
// subscription service); when several ACTIVE rows exist anyway, the
// engine treats the most-recently-ending one as authoritative.
//
// Fields:
//  ID        – primary key identifier.
//  MemberID  – member the period belongs to.
//  PlanName  – name of the purchased plan (informational).
//  Status    – period status; only ACTIVE matters here.
//  StartsAt  – first day of the period.
//  EndsAt    – last day of the period.
type SubscriptionPeriod struct {
	ID       uint64    // subscription_periods.id
	MemberID uint64    // subscription_periods.member_id
	PlanName string    // subscription_periods.plan_name
	Status   string    // subscription_periods.status
	StartsAt time.Time // subscription_periods.starts_at
	EndsAt   time.Time // subscription_periods.ends_at
}
