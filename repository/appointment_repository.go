package repository

import (
	"errors"
	"fmt"
	"log"

	"github.com/thuvamathi/ai-solutions-lab-sub000/models"

	"gorm.io/gorm"
)

// AppointmentFilter narrows List queries. Zero-value fields are ignored.
type AppointmentFilter struct {
	ConversationID string
	BusinessID     string
	Status         models.AppointmentStatus
}

// AppointmentRepository defines the interface for appointment persistence.
type AppointmentRepository interface {
	List(filter AppointmentFilter) ([]*models.Appointment, error)
	GetByID(id string) (*models.Appointment, error)
	Insert(appointment *models.Appointment) error
	Update(id string, fields map[string]interface{}) (*models.Appointment, error)
	DeleteByIDs(ids []string) (int64, error)
}

type appointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository creates a new instance of AppointmentRepository.
func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

// List returns appointments matching the filter, newest first.
func (r *appointmentRepository) List(filter AppointmentFilter) ([]*models.Appointment, error) {
	query := r.db.Model(&models.Appointment{})
	if filter.ConversationID != "" {
		query = query.Where("conversation_id = ?", filter.ConversationID)
	}
	if filter.BusinessID != "" {
		query = query.Where("business_id = ?", filter.BusinessID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var appointments []*models.Appointment
	if err := query.Order("created_at DESC").Find(&appointments).Error; err != nil {
		log.Printf("ERROR: [AppointmentRepository] Failed to list appointments (filter: %+v): %v", filter, err)
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// GetByID fetches a single appointment. Returns ErrNotFound when absent.
func (r *appointmentRepository) GetByID(id string) (*models.Appointment, error) {
	if id == "" {
		return nil, errors.New("appointment ID cannot be empty")
	}
	var appointment models.Appointment
	if err := r.db.First(&appointment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		log.Printf("ERROR: [AppointmentRepository] Failed to fetch appointment %s: %v", id, err)
		return nil, fmt.Errorf("failed to fetch appointment %s: %w", id, err)
	}
	return &appointment, nil
}

// Insert persists a new appointment. When another scheduled appointment already
// exists for the same (conversation_id, customer_email, appointment_date,
// appointment_time) tuple, it returns a ConflictError carrying the existing
// row's ID and writes nothing.
//
// SQLite has no partial unique index managed by our migrations, so the dedupe
// check and the insert run inside one transaction (check-then-conditional-insert).
func (r *appointmentRepository) Insert(appointment *models.Appointment) error {
	if appointment == nil || appointment.ID == "" {
		return errors.New("appointment with a non-empty ID is required")
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if appointment.ConversationID != "" {
			var existing models.Appointment
			lookupErr := tx.
				Where("conversation_id = ? AND customer_email = ? AND appointment_date = ? AND appointment_time = ? AND status = ?",
					appointment.ConversationID,
					appointment.CustomerEmail,
					appointment.AppointmentDate,
					appointment.AppointmentTime,
					models.AppointmentStatusScheduled,
				).
				Order("created_at ASC").
				First(&existing).Error
			if lookupErr == nil {
				return &ConflictError{ExistingID: existing.ID}
			}
			if !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed duplicate check for conversation %s: %w", appointment.ConversationID, lookupErr)
			}
		}
		return tx.Create(appointment).Error
	})
	if err != nil {
		if _, ok := IsConflict(err); ok {
			return err
		}
		log.Printf("ERROR: [AppointmentRepository] Failed to insert appointment %s: %v", appointment.ID, err)
		return fmt.Errorf("failed to insert appointment: %w", err)
	}
	return nil
}

// Update applies the given fields to an appointment and returns the updated
// record. Returns ErrNotFound when the ID does not exist.
func (r *appointmentRepository) Update(id string, fields map[string]interface{}) (*models.Appointment, error) {
	if id == "" {
		return nil, errors.New("appointment ID cannot be empty")
	}

	result := r.db.Model(&models.Appointment{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		log.Printf("ERROR: [AppointmentRepository] Failed to update appointment %s: %v", id, result.Error)
		return nil, fmt.Errorf("failed to update appointment %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(id)
}

// DeleteByIDs removes the given appointments in a single batch and returns the
// number of rows deleted. An empty ID list is a no-op.
func (r *appointmentRepository) DeleteByIDs(ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Where("id IN ?", ids).Delete(&models.Appointment{})
	if result.Error != nil {
		log.Printf("ERROR: [AppointmentRepository] Failed to delete %d appointments: %v", len(ids), result.Error)
		return 0, fmt.Errorf("failed to delete appointments: %w", result.Error)
	}
	return result.RowsAffected, nil
}
