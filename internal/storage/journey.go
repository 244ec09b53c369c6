package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/easeaico/crystal-sanctuary/internal/session"
	"github.com/easeaico/crystal-sanctuary/internal/types"
	"github.com/easeaico/crystal-sanctuary/internal/world"
)

// journeyModel maps to the journeys table. The session snapshot is kept as
// JSONB; landmark and counter are copied out for querying.
type journeyModel struct {
	ID         string `gorm:"primaryKey;size:36"`
	UserID     string `gorm:"size:64;index"`
	Landmark   string `gorm:"size:64"`
	Counter    int
	Snapshot   []byte `gorm:"type:jsonb;not null"`
	TokenCount int
	Active     bool `gorm:"index"`
	LastSaved  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (journeyModel) TableName() string {
	return "journeys"
}

// JourneyRepo accesses journey data.
type JourneyRepo struct {
	db *gorm.DB
}

// NewJourneyRepo returns a JourneyRepo.
func NewJourneyRepo(db *gorm.DB) *JourneyRepo {
	return &JourneyRepo{db: db}
}

// Save inserts the journey or overwrites the stored one with the same id.
func (r *JourneyRepo) Save(ctx context.Context, j types.Journey) error {
	record, err := journeyToModel(j)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"landmark", "counter", "snapshot", "token_count", "active", "last_saved", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to save journey: %w", err)
	}
	return nil
}

// Load returns the journey with id, or nil when there is none.
func (r *JourneyRepo) Load(ctx context.Context, id string) (*types.Journey, error) {
	var record journeyModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to query journey: %w", err)
	}
	if record.ID == "" {
		return nil, nil
	}
	return journeyFromModel(record)
}

// Latest returns the user's most recently saved active journey, or nil.
func (r *JourneyRepo) Latest(ctx context.Context, userID string) (*types.Journey, error) {
	var record journeyModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("active = ?", true).
		Order("last_saved DESC").
		Limit(1).
		Find(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to query latest journey: %w", err)
	}
	if record.ID == "" {
		return nil, nil
	}
	return journeyFromModel(record)
}

// Deactivate marks the journey as finished.
func (r *JourneyRepo) Deactivate(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).
		Model(&journeyModel{}).
		Where("id = ?", id).
		Update("active", false).Error; err != nil {
		return fmt.Errorf("failed to deactivate journey: %w", err)
	}
	return nil
}

func journeyToModel(j types.Journey) (journeyModel, error) {
	snapshot, err := json.Marshal(j.Snapshot)
	if err != nil {
		return journeyModel{}, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return journeyModel{
		ID:         j.ID,
		UserID:     j.UserID,
		Landmark:   string(j.Snapshot.Landmark),
		Counter:    j.Snapshot.Counter,
		Snapshot:   snapshot,
		TokenCount: j.TokenCount,
		Active:     j.Active,
		LastSaved:  j.LastSaved,
	}, nil
}

func journeyFromModel(m journeyModel) (*types.Journey, error) {
	var snap session.Snapshot
	if err := json.Unmarshal(m.Snapshot, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot of journey %s: %w", m.ID, err)
	}
	if snap.Landmark == "" {
		snap.Landmark = world.LandmarkID(m.Landmark)
	}
	return &types.Journey{
		ID:         m.ID,
		UserID:     m.UserID,
		Snapshot:   snap,
		TokenCount: m.TokenCount,
		Active:     m.Active,
		LastSaved:  m.LastSaved,
	}, nil
}
