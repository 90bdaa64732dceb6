package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelError   LogLevel = "error"
	LogLevelSuccess LogLevel = "success"
)

// SyncLog is an append-only record of one sync run. Rows are never updated
// or deleted by the application; retention is left to the operator.
type SyncLog struct {
	ID           string    `json:"id" gorm:"type:uuid;primary_key"`
	LogTime      time.Time `json:"log_time" gorm:"index;not null"`
	Level        LogLevel  `json:"level" gorm:"not null"`
	Message      string    `json:"message" gorm:"not null"`
	SuccessCount int       `json:"success_count" gorm:"default:0"`
	FailCount    int       `json:"fail_count" gorm:"default:0"`
	ContextJSON  string    `json:"context_json"`
}

func (l *SyncLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}
