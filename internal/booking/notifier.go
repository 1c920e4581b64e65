package booking

import (
	"context"
	"time"
)

// Notification is the payload handed to the notifier after a
// reservation is created or cancelled.  It carries everything a
// downstream consumer needs without querying the primary database.
type Notification struct {
	ReservationID uint64
	MemberID      uint64
	MemberEmail   string
	FacilityName  string
	Date          time.Time
	StartTime     string
	EndTime       string
}

// Notifier delivers fire-and-forget notifications.  Implementations
// must not be relied on for correctness: the engine logs and discards
// any error after the owning transaction has already committed.
type Notifier interface {
	ReservationConfirmed(ctx context.Context, n Notification) error
	ReservationCancelled(ctx context.Context, n Notification) error
}
