package models

import "time"

const (
	NotificationInstant = "instant"

	NotificationSent   = "sent"
	NotificationFailed = "failed"
)

// Notification records a message sent to a customer, e.g. a purchase receipt.
type Notification struct {
	ID         string    `json:"id"         bson:"_id"        gorm:"primaryKey;size:36"`
	TenantID   string    `json:"tenantId"   bson:"tenantId"   gorm:"size:36;not null;index"`
	CustomerID string    `json:"customerId" bson:"customerId" gorm:"size:36;not null;index"`
	Kind       string    `json:"type"       bson:"type"       gorm:"column:kind;size:16;not null"`
	Message    string    `json:"message"    bson:"message"    gorm:"type:text;not null"`
	SentAt     time.Time `json:"sentAt"     bson:"sentAt"     gorm:"not null;index"`
	Status     string    `json:"status"     bson:"status"     gorm:"size:16;not null"`
}

func (Notification) TableName() string { return "notifications" }
