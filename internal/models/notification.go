package models

import "time"

// NotificationKind enumerates the events the core signals to the dispatcher.
type NotificationKind string

const (
	NotifySwapCreated          NotificationKind = "SWAP_CREATED"
	NotifySwapApprovedByTarget NotificationKind = "SWAP_APPROVED_BY_TARGET"
	NotifySwapWaitingUnitHead  NotificationKind = "SWAP_WAITING_UNIT_HEAD"
	NotifySwapApproved         NotificationKind = "SWAP_APPROVED"
	NotifySwapRejected         NotificationKind = "SWAP_REJECTED"
	NotifyScheduleAutoCreated  NotificationKind = "SCHEDULE_AUTO_CREATED"
)

// Notification stores one delivered alert for a user.
type Notification struct {
	ID          string           `db:"id" json:"id"`
	UserID      string           `db:"user_id" json:"user_id"`
	Kind        NotificationKind `db:"kind" json:"kind"`
	Title       string           `db:"title" json:"title"`
	Body        string           `db:"body" json:"body"`
	RelatedType string           `db:"related_type" json:"related_type,omitempty"`
	RelatedID   string           `db:"related_id" json:"related_id,omitempty"`
	Read        bool             `db:"read" json:"read"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// NotificationEvent is the in-process payload emitted after a state change,
// before persistence and dispatch.
type NotificationEvent struct {
	UserID      string           `json:"user_id"`
	Kind        NotificationKind `json:"kind"`
	Title       string           `json:"title"`
	Body        string           `json:"body"`
	RelatedType string           `json:"related_type,omitempty"`
	RelatedID   string           `json:"related_id,omitempty"`
}

// NotificationFilter constrains notification listings.
type NotificationFilter struct {
	UserID     string
	UnreadOnly bool
	Page       int
	PageSize   int
}
