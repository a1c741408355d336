package entity

import "time"

// CirculationEvent describes a committed circulation transition. It is
// published after the transaction that produced it commits.
type CirculationEvent struct {
	Type       NotificationType `json:"type"`
	RecordID   int64            `json:"recordId"`
	UserID     int64            `json:"userId"`
	BookID     int64            `json:"bookId"`
	CopyID     int64            `json:"copyId"`
	Fine       int64            `json:"fine"`
	OccurredAt time.Time        `json:"occurredAt"`
}
