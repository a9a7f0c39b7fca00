package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/socia-app/relay/internal/domain"
)

// messageRecord is the persisted shape of an appended system message.
type messageRecord struct {
	ID           uint   `gorm:"primarykey"`
	SenderID     string `gorm:"size:36;index"`
	ChatID       string `gorm:"size:36;index;not null"`
	Content      string `gorm:"size:500"`
	System       bool
	CallType     string `gorm:"size:10"`
	CallDuration int
	CreatedAt    time.Time
}

func (messageRecord) TableName() string {
	return "system_messages"
}

// SQLite appends system messages to a local gorm-managed database.
type SQLite struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) the database at dsn and migrates the
// schema. Use ":memory:" for tests.
func OpenSQLite(dsn string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if err := db.AutoMigrate(&messageRecord{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite store: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) AppendSystemMessage(ctx context.Context, msg domain.Message) error {
	rec := messageRecord{
		SenderID: string(msg.Sender.ID),
		ChatID:   string(msg.Chat.ID),
		Content:  msg.Content,
		System:   msg.IsSystemMessage,
	}
	if msg.CallInfo != nil {
		rec.CallType = string(msg.CallInfo.Type)
		rec.CallDuration = msg.CallInfo.Duration
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("append system message: %w", err)
	}
	return nil
}
