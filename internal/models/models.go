package models

import (
	"time"
)

// Entry is a stored query configuration for one remote host. Credentials
// are kept in cleartext by design; the facade and the trace log are
// responsible for never echoing them.
type Entry struct {
	FQDN         string    `gorm:"primaryKey;type:varchar(255);not null" json:"fqdn"`
	UserMail     string    `gorm:"type:varchar(255)" json:"user_mail"`
	UserPassword string    `gorm:"type:text" json:"user_password"`
	StartDate    string    `gorm:"type:varchar(64)" json:"start_date"`
	EndDate      string    `gorm:"type:varchar(64)" json:"end_date"`
	Parameters   string    `gorm:"type:text" json:"parameters"`
	Comments     string    `gorm:"type:text" json:"comments"`
	CreatedAt    time.Time `json:"created_at"`
	LastUpdated  time.Time `gorm:"index" json:"last_updated"`
}

type AccessLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	RequestID string    `gorm:"type:varchar(36);index"`
	Timestamp time.Time `gorm:"index;not null"`
	Method    string    `gorm:"type:varchar(10);not null"`
	Path      string    `gorm:"type:text;not null"`
	Status    int       `gorm:"not null;index"`
	Duration  time.Duration
	ClientIP  string `gorm:"type:varchar(45);not null"`
	UserAgent string `gorm:"type:text"`
	BytesSent int    `gorm:"not null;default:0"`
}

// QueryTrace is one append-only row per proxied query. It records the
// target and the outcome, never the credentials used.
type QueryTrace struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	FQDN       string `gorm:"type:varchar(255);not null;index"`
	Parameters string `gorm:"type:text"`
	Outcome    string `gorm:"type:varchar(20);not null;index"`
	Status     int    `gorm:"not null;default:0"`
	Duration   time.Duration
	BytesRead  int       `gorm:"not null;default:0"`
	Archived   bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"index;not null"`
}

func (Entry) TableName() string {
	return "entries"
}

func (AccessLog) TableName() string {
	return "access_logs"
}

func (QueryTrace) TableName() string {
	return "query_traces"
}
