package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tipa/internal/cache"
	"tipa/internal/models"
)

// ErrEventFull is returned when a "going" RSVP would exceed capacity.
var ErrEventFull = errors.New("event is at capacity")

// EventRepository defines event and RSVP persistence.
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uint) (*models.Event, error)
	ListUpcoming(ctx context.Context, now time.Time, limit, offset int) ([]*models.Event, error)
	ListPast(ctx context.Context, now time.Time, limit, offset int) ([]*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id uint) error
	// UpsertRSVP records the member's answer. A "going" answer is checked
	// against capacity inside the same transaction.
	UpsertRSVP(ctx context.Context, rsvp *models.EventRSVP) error
	GetRSVP(ctx context.Context, eventID, memberID uint) (*models.EventRSVP, error)
	DeleteRSVP(ctx context.Context, eventID, memberID uint) error
	ListRSVPs(ctx context.Context, eventID uint) ([]*models.EventRSVP, error)
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func applyEventDetails(db *gorm.DB) *gorm.DB {
	return db.Select("events.*, "+
		"(SELECT COUNT(*) FROM event_rsvps WHERE event_rsvps.event_id = events.id AND event_rsvps.response = ?) AS going_count, "+
		"(SELECT COUNT(*) FROM event_rsvps WHERE event_rsvps.event_id = events.id AND event_rsvps.response = ?) AS maybe_count",
		models.RSVPGoing, models.RSVPMaybe)
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) GetByID(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	err := cache.Aside(ctx, cache.EventKey(id), &event, cache.EventTTL, func() error {
		return applyEventDetails(r.db.WithContext(ctx).Model(&models.Event{})).
			Where("events.id = ?", id).
			First(&event).Error
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) ListUpcoming(ctx context.Context, now time.Time, limit, offset int) ([]*models.Event, error) {
	var events []*models.Event
	err := applyEventDetails(r.db.WithContext(ctx).Model(&models.Event{})).
		Where("events.starts_at >= ?", now).
		Order("events.starts_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	return events, err
}

func (r *eventRepository) ListPast(ctx context.Context, now time.Time, limit, offset int) ([]*models.Event, error) {
	var events []*models.Event
	err := applyEventDetails(r.db.WithContext(ctx).Model(&models.Event{})).
		Where("events.starts_at < ?", now).
		Order("events.starts_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	return events, err
}

func (r *eventRepository) Update(ctx context.Context, event *models.Event) error {
	err := r.db.WithContext(ctx).Model(event).
		Select("title", "description", "location", "starts_at", "ends_at", "capacity", "updated_at").
		Updates(event).Error
	if err != nil {
		return err
	}
	cache.InvalidateEvent(ctx, event.ID)
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.EventRSVP{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Event{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	cache.InvalidateEvent(ctx, id)
	return nil
}

func (r *eventRepository) UpsertRSVP(ctx context.Context, rsvp *models.EventRSVP) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the event row so concurrent "going" answers serialize on capacity.
		var event models.Event
		if err := lockForUpdate(tx).
			Select("id", "capacity").
			First(&event, rsvp.EventID).Error; err != nil {
			return err
		}

		if rsvp.Response == models.RSVPGoing && event.Capacity > 0 {
			var going int64
			if err := tx.Model(&models.EventRSVP{}).
				Where("event_id = ? AND response = ? AND member_id <> ?", rsvp.EventID, models.RSVPGoing, rsvp.MemberID).
				Count(&going).Error; err != nil {
				return err
			}
			if going >= int64(event.Capacity) {
				return ErrEventFull
			}
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}, {Name: "member_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"response", "updated_at"}),
		}).Create(rsvp).Error
	})
	if err != nil {
		return err
	}
	cache.InvalidateEvent(ctx, rsvp.EventID)
	return nil
}

func (r *eventRepository) GetRSVP(ctx context.Context, eventID, memberID uint) (*models.EventRSVP, error) {
	var rsvp models.EventRSVP
	if err := r.db.WithContext(ctx).
		Where("event_id = ? AND member_id = ?", eventID, memberID).
		First(&rsvp).Error; err != nil {
		return nil, err
	}
	return &rsvp, nil
}

func (r *eventRepository) DeleteRSVP(ctx context.Context, eventID, memberID uint) error {
	res := r.db.WithContext(ctx).
		Where("event_id = ? AND member_id = ?", eventID, memberID).
		Delete(&models.EventRSVP{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.InvalidateEvent(ctx, eventID)
	return nil
}

func (r *eventRepository) ListRSVPs(ctx context.Context, eventID uint) ([]*models.EventRSVP, error) {
	var rsvps []*models.EventRSVP
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("event_id = ?", eventID).
		Order("response ASC").
		Order("created_at ASC").
		Find(&rsvps).Error
	return rsvps, err
}
