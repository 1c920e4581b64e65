// Package queue defines the message payloads exchanged over the broker
// and the background consumer that records them.
package queue

const (
	// ConfirmedQueueName receives an event for every reservation that
	// commits successfully.
	ConfirmedQueueName = "reservation.confirmed"
	// CancelledQueueName receives an event for every cancellation.
	CancelledQueueName = "reservation.cancelled"
)

// ReservationEvent is published after a reservation is confirmed or
// cancelled.  It carries enough information for downstream consumers to
// log or notify without querying the primary database.
type ReservationEvent struct {
	EventID       string `json:"event_id"`
	Action        string `json:"action"` // "confirmed" or "cancelled"
	ReservationID uint64 `json:"reservation_id"`
	MemberID      uint64 `json:"member_id"`
	MemberEmail   string `json:"member_email"`
	FacilityName  string `json:"facility_name"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	OccurredAt    string `json:"occurred_at"`
}
