package services

import (
	"errors"
	"log"

	"github.com/thuvamathi/ai-solutions-lab-sub000/models"
	"github.com/thuvamathi/ai-solutions-lab-sub000/repository"
)

// DefaultFreeMessageLimit is the number of free-trial chat messages a visitor
// may send to a business before being asked to sign up.
const DefaultFreeMessageLimit = 3

// QuotaService gates how many chat turns a visitor may spend against a business.
// The limit is advisory, not a security boundary: the counter lives in whatever
// store the injected repository wraps, and a visitor who clears that state
// starts over. Callers check Remaining before forwarding a message to the AI
// and call Increment exactly once per accepted message.
type QuotaService interface {
	Remaining(sessionID, businessID string) (int, error)
	Increment(sessionID, businessID string) (*models.GuestQuota, error)
	Limit() int
}

type quotaService struct {
	quotaRepo repository.QuotaRepository
	limit     int
}

// NewQuotaService creates a quota service enforcing the given message limit.
// A non-positive limit falls back to DefaultFreeMessageLimit.
func NewQuotaService(quotaRepo repository.QuotaRepository, limit int) QuotaService {
	if limit <= 0 {
		limit = DefaultFreeMessageLimit
	}
	return &quotaService{quotaRepo: quotaRepo, limit: limit}
}

func (s *quotaService) Limit() int {
	return s.limit
}

// Remaining returns max(0, limit - consumed) for the visitor/business pair.
// A visitor with no recorded consumption gets the full limit. A repository
// read failure also yields the full limit: the quota is advisory and a
// transient lookup failure must never block a chat message.
func (s *quotaService) Remaining(sessionID, businessID string) (int, error) {
	if sessionID == "" || businessID == "" {
		return 0, errors.New("session ID and business ID cannot be empty")
	}

	quota, err := s.quotaRepo.GetQuota(sessionID, businessID)
	if err != nil {
		log.Printf("WARN: [QuotaService] Failed to read quota for session %s, business %s: %v. Treating as full quota.", sessionID, businessID, err)
		return s.limit, nil
	}

	remaining := s.limit - quota.MessagesSent
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Increment records one consumed message for the visitor/business pair and
// returns the updated counter. Not idempotent: every call increases the count
// by one, so callers must invoke it at most once per accepted message.
func (s *quotaService) Increment(sessionID, businessID string) (*models.GuestQuota, error) {
	if sessionID == "" || businessID == "" {
		return nil, errors.New("session ID and business ID cannot be empty")
	}
	return s.quotaRepo.IncrementQuota(sessionID, businessID)
}
