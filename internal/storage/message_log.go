package storage

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/easeaico/crystal-sanctuary/internal/types"
	"github.com/easeaico/crystal-sanctuary/internal/world"
)

// messageLogModel maps to the message_logs table.
type messageLogModel struct {
	ID         uint   `gorm:"primaryKey"`
	UserID     string `gorm:"size:64;index"`
	JourneyID  string `gorm:"size:36;index"`
	Type       string `gorm:"size:16"`
	Sender     string `gorm:"size:64"`
	Content    string `gorm:"type:text"`
	TokensUsed int
	Landmark   string `gorm:"size:64"`
	Responders string `gorm:"size:255"`
	Discussion bool
	Crisis     bool
	CreatedAt  time.Time
}

func (messageLogModel) TableName() string {
	return "message_logs"
}

// MessageLogRepo accesses the message log.
type MessageLogRepo struct {
	db *gorm.DB
}

// NewMessageLogRepo returns a MessageLogRepo.
func NewMessageLogRepo(db *gorm.DB) *MessageLogRepo {
	return &MessageLogRepo{db: db}
}

// Append writes entries in one batch.
func (r *MessageLogRepo) Append(ctx context.Context, entries []types.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	records := make([]messageLogModel, 0, len(entries))
	for _, e := range entries {
		records = append(records, messageLogToModel(e))
	}
	if err := r.db.WithContext(ctx).Create(&records).Error; err != nil {
		return fmt.Errorf("failed to insert message logs: %w", err)
	}
	return nil
}

// Recent returns the last limit entries of a journey, oldest first.
func (r *MessageLogRepo) Recent(ctx context.Context, journeyID string, limit int) ([]types.LogEntry, error) {
	var records []messageLogModel
	if err := r.db.WithContext(ctx).
		Where("journey_id = ?", journeyID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query message logs: %w", err)
	}

	results := make([]types.LogEntry, 0, len(records))
	for _, record := range records {
		results = append(results, messageLogFromModel(record))
	}
	slices.Reverse(results)
	return results, nil
}

func messageLogToModel(e types.LogEntry) messageLogModel {
	responders := make([]string, 0, len(e.Responders))
	for _, id := range e.Responders {
		responders = append(responders, string(id))
	}
	return messageLogModel{
		UserID:     e.UserID,
		JourneyID:  e.JourneyID,
		Type:       string(e.Type),
		Sender:     e.Sender,
		Content:    e.Content,
		TokensUsed: e.TokensUsed,
		Landmark:   string(e.Landmark),
		Responders: strings.Join(responders, ","),
		Discussion: e.Discussion,
		Crisis:     e.Crisis,
		CreatedAt:  e.Timestamp,
	}
}

func messageLogFromModel(m messageLogModel) types.LogEntry {
	var responders []world.CompanionID
	if m.Responders != "" {
		for _, id := range strings.Split(m.Responders, ",") {
			responders = append(responders, world.CompanionID(id))
		}
	}
	return types.LogEntry{
		Timestamp:  m.CreatedAt,
		UserID:     m.UserID,
		JourneyID:  m.JourneyID,
		Type:       types.LogType(m.Type),
		Sender:     m.Sender,
		Content:    m.Content,
		TokensUsed: m.TokensUsed,
		Landmark:   world.LandmarkID(m.Landmark),
		Responders: responders,
		Discussion: m.Discussion,
		Crisis:     m.Crisis,
	}
}
