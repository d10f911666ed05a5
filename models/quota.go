package models

import "time"

// GuestQuota tracks the free-trial chat message count for one visitor against
// one business. The (SessionID, BusinessID) pair is the composite primary key;
// a missing row means the visitor has not consumed any messages yet.
//
// The count only ever grows. There is no TTL or reset lifecycle here; clearing
// is an external concern.
type GuestQuota struct {
	SessionID    string    `gorm:"primaryKey;column:session_id"` // Visitor's temporary session ID
	BusinessID   string    `gorm:"primaryKey;column:business_id"`
	MessagesSent int       `gorm:"column:messages_sent;default:0"`
	CreatedAt    time.Time // Automatically managed by GORM
	UpdatedAt    time.Time // Automatically managed by GORM
}

// TableName specifies the table name for the GuestQuota model.
func (GuestQuota) TableName() string {
	return "guest_quotas"
}
