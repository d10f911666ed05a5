package services

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thuvamathi/ai-solutions-lab-sub000/config"
	"github.com/thuvamathi/ai-solutions-lab-sub000/models"
	"github.com/thuvamathi/ai-solutions-lab-sub000/repository"
)

// ErrValidation marks booking input that cannot be accepted. Wrap it with the
// field-specific message so handlers can map it to a 400.
var ErrValidation = errors.New("invalid booking request")

// BookingOutcome tags how a create/reschedule call was resolved.
type BookingOutcome string

const (
	// BookingOutcomeCreated means a fresh appointment row was persisted.
	BookingOutcomeCreated BookingOutcome = "created"
	// BookingOutcomeReconciled means the submission collided with an existing
	// scheduled appointment for the same conversation/email/date/time and was
	// resolved onto that record instead of creating a duplicate.
	BookingOutcomeReconciled BookingOutcome = "reconciled"
	// BookingOutcomeRescheduled means an existing appointment was updated in place.
	BookingOutcomeRescheduled BookingOutcome = "rescheduled"
	// BookingOutcomeDegraded means persistence was unreachable and the caller
	// received a synthetic confirmation code. The booking is not authoritative
	// until reconciled.
	BookingOutcomeDegraded BookingOutcome = "degraded"
)

// BookingResult is the tagged result of CreateOrReschedule. Appointment is nil
// only for the degraded outcome.
type BookingResult struct {
	Outcome          BookingOutcome
	Appointment      *models.Appointment
	ConfirmationCode string
}

// CleanupResult reports a duplicate-cleanup run.
type CleanupResult struct {
	DuplicateGroupsFound int
	AppointmentsRemoved  int64
}

// BookingService coordinates appointment creation, rescheduling and duplicate
// resolution for chat conversations. FindActive followed by CreateOrReschedule
// is NOT atomic; a race between two submissions is caught only at insert time
// by the repository's duplicate-tuple check and reconciled onto the older row.
type BookingService interface {
	FindActive(conversationID string) (*models.Appointment, error)
	CreateOrReschedule(req *models.BookingRequest, existingID string) (*BookingResult, error)
	CleanupDuplicates() (*CleanupResult, error)
}

type bookingService struct {
	appointmentRepo repository.AppointmentRepository
}

// NewBookingService creates a new BookingService.
func NewBookingService(appointmentRepo repository.AppointmentRepository) BookingService {
	return &bookingService{appointmentRepo: appointmentRepo}
}

// FindActive returns the scheduled appointment linked to a conversation, or nil
// when there is none. An empty conversation ID means the caller has no booking
// context and is answered without a query. When more than one scheduled
// appointment exists for the conversation, the most recently created one wins.
//
// Lookup failures are treated as "no active appointment": a transient outage
// must never block a visitor from reaching the booking flow.
func (s *bookingService) FindActive(conversationID string) (*models.Appointment, error) {
	if conversationID == "" {
		return nil, nil
	}

	appointments, err := s.appointmentRepo.List(repository.AppointmentFilter{
		ConversationID: conversationID,
		Status:         models.AppointmentStatusScheduled,
	})
	if err != nil {
		log.Printf("WARN: [BookingService] Failed to look up active appointment for conversation %s: %v. Treating as none found.", conversationID, err)
		return nil, nil
	}
	if len(appointments) == 0 {
		return nil, nil
	}
	// List orders created_at DESC, so index 0 is the newest.
	return appointments[0], nil
}

// CreateOrReschedule books a new appointment or, when existingID is given,
// reschedules that appointment in place.
//
// On create, a duplicate submission for the same (conversation, email, date,
// time) tuple converges onto the pre-existing row (outcome "reconciled"). If
// persistence is unreachable the visitor still gets a synthetic confirmation
// (outcome "degraded") so the conversation can complete; the code is not
// authoritative until the booking is reconciled out of band.
func (s *bookingService) CreateOrReschedule(req *models.BookingRequest, existingID string) (*BookingResult, error) {
	if err := validateBookingRequest(req); err != nil {
		return nil, err
	}

	if existingID != "" {
		return s.reschedule(req, existingID)
	}
	return s.create(req)
}

func (s *bookingService) create(req *models.BookingRequest) (*BookingResult, error) {
	now := time.Now()
	appointment := &models.Appointment{
		ID:              uuid.NewString(),
		BusinessID:      req.BusinessID,
		ConversationID:  req.ConversationID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ServiceType:     req.ServiceType,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		Duration:        models.DurationForService(req.ServiceType),
		Status:          models.AppointmentStatusScheduled,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.appointmentRepo.Insert(appointment)
	if err == nil {
		return &BookingResult{
			Outcome:          BookingOutcomeCreated,
			Appointment:      appointment,
			ConfirmationCode: s.confirmationCode(appointment.ID),
		}, nil
	}

	if conflict, ok := repository.IsConflict(err); ok {
		log.Printf("WARN: [BookingService] Duplicate booking for conversation %s (%s on %s at %s); reconciling onto existing appointment %s.",
			req.ConversationID, req.CustomerEmail, req.AppointmentDate, req.AppointmentTime, conflict.ExistingID)
		existing, fetchErr := s.appointmentRepo.GetByID(conflict.ExistingID)
		if fetchErr != nil {
			log.Printf("ERROR: [BookingService] Failed to fetch conflicting appointment %s: %v. Falling back to degraded confirmation.", conflict.ExistingID, fetchErr)
			return s.degraded(), nil
		}
		return &BookingResult{
			Outcome:          BookingOutcomeReconciled,
			Appointment:      existing,
			ConfirmationCode: s.confirmationCode(existing.ID),
		}, nil
	}

	log.Printf("ERROR: [BookingService] Failed to persist appointment for conversation %s: %v. Issuing degraded confirmation.", req.ConversationID, err)
	return s.degraded(), nil
}

func (s *bookingService) reschedule(req *models.BookingRequest, existingID string) (*BookingResult, error) {
	existing, err := s.appointmentRepo.GetByID(existingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("appointment %s: %w", existingID, repository.ErrNotFound)
		}
		log.Printf("ERROR: [BookingService] Failed to load appointment %s for reschedule: %v. Issuing degraded confirmation.", existingID, err)
		return s.degraded(), nil
	}

	if existing.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: appointment %s is %s and cannot be rescheduled", ErrValidation, existingID, existing.Status)
	}

	fields := map[string]interface{}{
		"appointment_date": req.AppointmentDate,
		"appointment_time": req.AppointmentTime,
		"service_type":     req.ServiceType,
		"duration":         models.DurationForService(req.ServiceType),
		"updated_at":       time.Now(),
	}
	if req.Notes != "" {
		fields["notes"] = req.Notes
	}

	updated, err := s.appointmentRepo.Update(existingID, fields)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("appointment %s: %w", existingID, repository.ErrNotFound)
		}
		log.Printf("ERROR: [BookingService] Failed to reschedule appointment %s: %v. Issuing degraded confirmation.", existingID, err)
		return s.degraded(), nil
	}

	return &BookingResult{
		Outcome:          BookingOutcomeRescheduled,
		Appointment:      updated,
		ConfirmationCode: s.confirmationCode(updated.ID),
	}, nil
}

// CleanupDuplicates groups all scheduled appointments by their dedupe tuple,
// keeps the earliest-created member of every group with more than one row, and
// deletes the rest in a single batch. Unlike the interactive paths this is
// atomic-or-nothing: any persistence failure aborts the run with no deletions,
// because a partial delete could remove the authoritative record.
func (s *bookingService) CleanupDuplicates() (*CleanupResult, error) {
	appointments, err := s.appointmentRepo.List(repository.AppointmentFilter{
		Status: models.AppointmentStatusScheduled,
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup aborted, failed to list scheduled appointments: %w", err)
	}

	groups := make(map[string][]*models.Appointment)
	for _, a := range appointments {
		groups[a.DedupeKey()] = append(groups[a.DedupeKey()], a)
	}

	var idsToDelete []string
	duplicateGroups := 0
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		duplicateGroups++
		sort.Slice(group, func(i, j int) bool {
			return group[i].CreatedAt.Before(group[j].CreatedAt)
		})
		// group[0] is the oldest and stays authoritative.
		for _, dup := range group[1:] {
			idsToDelete = append(idsToDelete, dup.ID)
		}
	}

	removed, err := s.appointmentRepo.DeleteByIDs(idsToDelete)
	if err != nil {
		return nil, fmt.Errorf("cleanup aborted, failed to delete duplicates: %w", err)
	}

	log.Printf("INFO: [BookingService] Duplicate cleanup complete: %d groups found, %d appointments removed.", duplicateGroups, removed)
	return &CleanupResult{
		DuplicateGroupsFound: duplicateGroups,
		AppointmentsRemoved:  removed,
	}, nil
}

// confirmationCode derives the human-readable confirmation from an appointment
// ID: prefix plus the last 6 characters of the ID, upper-cased.
func (s *bookingService) confirmationCode(id string) string {
	tail := id
	if len(tail) > 6 {
		tail = tail[len(tail)-6:]
	}
	return s.prefix() + "-" + strings.ToUpper(tail)
}

// degraded fabricates a confirmation from the current timestamp for use when
// persistence is unreachable. The visitor-facing flow completes, at the cost of
// the code not being authoritative until reconciled.
func (s *bookingService) degraded() *BookingResult {
	code := fmt.Sprintf("%s-%06d", s.prefix(), time.Now().UnixMilli()%1_000_000)
	return &BookingResult{
		Outcome:          BookingOutcomeDegraded,
		ConfirmationCode: code,
	}
}

func (s *bookingService) prefix() string {
	if p := config.AppConfig.Booking.ConfirmationPrefix; p != "" {
		return p
	}
	return "APT"
}

func validateBookingRequest(req *models.BookingRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request body is required", ErrValidation)
	}
	if req.CustomerName == "" {
		return fmt.Errorf("%w: customer name is required", ErrValidation)
	}
	if req.CustomerEmail == "" {
		return fmt.Errorf("%w: customer email is required", ErrValidation)
	}
	if req.ServiceType == "" {
		return fmt.Errorf("%w: service type is required", ErrValidation)
	}
	if req.AppointmentTime == "" {
		return fmt.Errorf("%w: appointment time is required", ErrValidation)
	}
	if req.AppointmentDate == "" {
		return fmt.Errorf("%w: appointment date is required", ErrValidation)
	}

	date, err := time.ParseInLocation("2006-01-02", req.AppointmentDate, time.Local)
	if err != nil {
		return fmt.Errorf("%w: appointment date must be YYYY-MM-DD", ErrValidation)
	}
	if dateOnly(date).Before(dateOnly(time.Now())) {
		return fmt.Errorf("%w: appointment date is in the past", ErrValidation)
	}
	if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return fmt.Errorf("%w: appointments are not available on weekends", ErrValidation)
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
