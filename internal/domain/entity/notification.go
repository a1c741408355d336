package entity

import "time"

// NotificationType identifies what a member notification is about.
type NotificationType string

const (
	NotificationBorrowed        NotificationType = "BORROWED"
	NotificationReturned        NotificationType = "RETURNED"
	NotificationRenewed         NotificationType = "RENEWED"
	NotificationLost            NotificationType = "LOST"
	NotificationDamaged         NotificationType = "DAMAGED"
	NotificationDueSoon         NotificationType = "DUE_SOON"
	NotificationOverdue         NotificationType = "OVERDUE"
	NotificationAccountLocked   NotificationType = "ACCOUNT_LOCKED"
	NotificationAccountUnlocked NotificationType = "ACCOUNT_UNLOCKED"
)

// Notification is a message stored for one member.
type Notification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"userId"`
	RecordID  *int64           `json:"recordId,omitempty"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}
