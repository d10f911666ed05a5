package repository

import (
	"errors"
	"fmt"
	"log"

	"github.com/thuvamathi/ai-solutions-lab-sub000/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuotaRepository defines the interface for interacting with guest quota data.
type QuotaRepository interface {
	GetQuota(sessionID, businessID string) (*models.GuestQuota, error)
	IncrementQuota(sessionID, businessID string) (*models.GuestQuota, error)
}

type quotaRepository struct {
	db *gorm.DB
}

// NewQuotaRepository creates a new instance of QuotaRepository.
func NewQuotaRepository(db *gorm.DB) QuotaRepository {
	return &quotaRepository{db: db}
}

// GetQuota retrieves the current quota usage for a visitor against a business.
// A missing row is not an error: it returns a fresh GuestQuota with 0 messages
// sent, matching the "absent key means nothing consumed yet" contract.
func (r *quotaRepository) GetQuota(sessionID, businessID string) (*models.GuestQuota, error) {
	if sessionID == "" || businessID == "" {
		return nil, errors.New("session ID and business ID cannot be empty")
	}

	var quota models.GuestQuota
	err := r.db.First(&quota, "session_id = ? AND business_id = ?", sessionID, businessID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.GuestQuota{SessionID: sessionID, BusinessID: businessID, MessagesSent: 0}, nil
		}
		log.Printf("ERROR: [QuotaRepository] Failed to fetch quota for session %s, business %s: %v", sessionID, businessID, err)
		return nil, fmt.Errorf("failed to fetch quota for session %s: %w", sessionID, err)
	}
	return &quota, nil
}

// IncrementQuota increments the message count for a visitor against a business.
// If no row exists one is created with a count of 1. Uses GORM's OnConflict
// (UPSERT) against the composite primary key so two concurrent increments never
// lose an update.
func (r *quotaRepository) IncrementQuota(sessionID, businessID string) (*models.GuestQuota, error) {
	if sessionID == "" || businessID == "" {
		return nil, errors.New("session ID and business ID cannot be empty")
	}

	quotaToUpsert := models.GuestQuota{
		SessionID:    sessionID,
		BusinessID:   businessID,
		MessagesSent: 1, // Value for the INSERT branch of the UPSERT
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "business_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"messages_sent": gorm.Expr("messages_sent + 1")}),
	}).Create(&quotaToUpsert).Error
	if err != nil {
		log.Printf("ERROR: [QuotaRepository] Failed to increment quota for session %s, business %s: %v", sessionID, businessID, err)
		return nil, fmt.Errorf("failed to increment quota for session %s: %w", sessionID, err)
	}

	// The upsert does not populate the struct when the row already existed, so
	// re-fetch to return the actual current count.
	var currentQuota models.GuestQuota
	if fetchErr := r.db.First(&currentQuota, "session_id = ? AND business_id = ?", sessionID, businessID).Error; fetchErr != nil {
		log.Printf("ERROR: [QuotaRepository] Failed to fetch quota for session %s after increment: %v", sessionID, fetchErr)
		return nil, fmt.Errorf("failed to fetch quota for session %s after increment: %w", sessionID, fetchErr)
	}
	return &currentQuota, nil
}
