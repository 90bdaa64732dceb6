package synclog

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"stylesync/internal/models"
)

// DefaultLimit caps how many entries Recent returns for display.
const DefaultLimit = 50

// Log is the append-only record of sync runs.
type Log struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Log {
	return &Log{db: db}
}

// Append writes one immutable entry with a server-generated timestamp.
// Context is marshalled to JSON; a nil context stores an empty object.
func (l *Log) Append(level models.LogLevel, message string, successCount, failCount int, context map[string]interface{}) error {
	if context == nil {
		context = map[string]interface{}{}
	}
	encoded, err := json.Marshal(context)
	if err != nil {
		return err
	}

	entry := models.SyncLog{
		LogTime:      time.Now(),
		Level:        level,
		Message:      message,
		SuccessCount: successCount,
		FailCount:    failCount,
		ContextJSON:  string(encoded),
	}
	return l.db.Create(&entry).Error
}

// Recent returns entries newest first, capped at DefaultLimit.
func (l *Log) Recent(limit int) ([]models.SyncLog, error) {
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}

	var entries []models.SyncLog
	err := l.db.Order("log_time DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

// LastRun returns the most recent entry, or nil when no sync has run yet.
func (l *Log) LastRun() (*models.SyncLog, error) {
	entries, err := l.Recent(1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}
