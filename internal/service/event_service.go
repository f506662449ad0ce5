package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"tipa/internal/models"
	"tipa/internal/repository"
	"tipa/internal/validation"
)

type EventService struct {
	eventRepo repository.EventRepository
	now       func() time.Time
}

// EventInput is the admin payload for creating or replacing an event.
type EventInput struct {
	Title       string     `json:"title" validate:"required,max=300"`
	Description string     `json:"description" validate:"max=20000"`
	Location    string     `json:"location" validate:"max=300"`
	StartsAt    time.Time  `json:"starts_at" validate:"required"`
	EndsAt      *time.Time `json:"ends_at"`
	Capacity    int        `json:"capacity" validate:"min=0"`
}

// EventWindow selects upcoming or past events.
type EventWindow string

const (
	EventsUpcoming EventWindow = "upcoming"
	EventsPast     EventWindow = "past"
)

func NewEventService(eventRepo repository.EventRepository) *EventService {
	return &EventService{eventRepo: eventRepo, now: nowUTC}
}

func (in *EventInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return err
	}
	if in.EndsAt != nil && !in.EndsAt.After(in.StartsAt) {
		return models.NewValidationError("ends_at must be after starts_at")
	}
	return nil
}

func (s *EventService) CreateEvent(ctx context.Context, adminID uint, in EventInput) (*models.Event, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	event := &models.Event{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		StartsAt:    in.StartsAt.UTC(),
		EndsAt:      in.EndsAt,
		Capacity:    in.Capacity,
		CreatedBy:   adminID,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}
	return s.GetEvent(ctx, event.ID)
}

func (s *EventService) UpdateEvent(ctx context.Context, id uint, in EventInput) (*models.Event, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Capacity > 0 && in.Capacity < event.GoingCount {
		return nil, models.NewConflictError("Capacity is below the number of members already going", nil)
	}

	event.Title = in.Title
	event.Description = in.Description
	event.Location = in.Location
	event.StartsAt = in.StartsAt.UTC()
	event.EndsAt = in.EndsAt
	event.Capacity = in.Capacity
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}
	return s.GetEvent(ctx, id)
}

func (s *EventService) DeleteEvent(ctx context.Context, id uint) error {
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Event", id)
	}
	return nil
}

func (s *EventService) GetEvent(ctx context.Context, id uint) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Event", id)
	}
	return event, nil
}

func (s *EventService) ListEvents(ctx context.Context, window EventWindow, limit, offset int) ([]*models.Event, error) {
	switch window {
	case "", EventsUpcoming:
		return s.eventRepo.ListUpcoming(ctx, s.now(), limit, offset)
	case EventsPast:
		return s.eventRepo.ListPast(ctx, s.now(), limit, offset)
	default:
		return nil, models.NewValidationError("when must be upcoming or past")
	}
}

// RSVP records the member's answer and returns the event with fresh counts.
func (s *EventService) RSVP(ctx context.Context, eventID, memberID uint, response models.RSVPResponse) (*models.Event, error) {
	if !response.Valid() {
		return nil, models.NewValidationError("response must be one of going, maybe, not_going")
	}
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.StartsAt.Before(s.now()) {
		return nil, models.NewValidationError("Event has already started")
	}

	err = s.eventRepo.UpsertRSVP(ctx, &models.EventRSVP{EventID: eventID, MemberID: memberID, Response: response})
	switch {
	case errors.Is(err, repository.ErrEventFull):
		return nil, models.NewConflictError("Event is full", err)
	case err != nil:
		return nil, notFoundOr(err, "Event", eventID)
	}
	return s.GetEvent(ctx, eventID)
}

func (s *EventService) CancelRSVP(ctx context.Context, eventID, memberID uint) error {
	if err := s.eventRepo.DeleteRSVP(ctx, eventID, memberID); err != nil {
		return notFoundOr(err, "RSVP for event", eventID)
	}
	return nil
}

func (s *EventService) Attendees(ctx context.Context, eventID uint) ([]*models.EventRSVP, error) {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.eventRepo.ListRSVPs(ctx, eventID)
}
