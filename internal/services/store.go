package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"conference-agenda-sync/internal/models"
)

// Store is the persistence contract the sync core consumes. Lookups that
// find nothing return (nil, nil); errors are reserved for real failures.
type Store interface {
	GetCredential(ctx context.Context, userID uuid.UUID) (*models.Credential, error)
	SaveCredential(ctx context.Context, cred *models.Credential) error

	GetEventByProviderID(ctx context.Context, userID uuid.UUID, providerEventID string) (*models.Event, error)
	GetEventByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	CreateEvent(ctx context.Context, event *models.Event) error
	UpdateEvent(ctx context.Context, event *models.Event) error
	UpdateEventLocation(ctx context.Context, id uuid.UUID, location string) error

	InsertSubEvent(ctx context.Context, subEvent *models.SubEvent) error
	ListTimelineItems(ctx context.Context, userID uuid.UUID) ([]TimelineItem, error)
}

// GormStore implements Store over postgres via gorm.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AutoMigrate creates or updates the three tables the service owns.
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(&models.Event{}, &models.SubEvent{}, &models.Credential{})
}

func (s *GormStore) GetCredential(ctx context.Context, userID uuid.UUID) (*models.Credential, error) {
	var cred models.Credential
	err := s.db.WithContext(ctx).First(&cred, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	return &cred, nil
}

func (s *GormStore) SaveCredential(ctx context.Context, cred *models.Credential) error {
	if err := s.db.WithContext(ctx).Save(cred).Error; err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

func (s *GormStore) GetEventByProviderID(ctx context.Context, userID uuid.UUID, providerEventID string) (*models.Event, error) {
	var event models.Event
	err := s.db.WithContext(ctx).
		First(&event, "user_id = ? AND provider_event_id = ?", userID, providerEventID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up event by provider id: %w", err)
	}
	return &event, nil
}

func (s *GormStore) GetEventByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := s.db.WithContext(ctx).First(&event, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	return &event, nil
}

func (s *GormStore) CreateEvent(ctx context.Context, event *models.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (s *GormStore) UpdateEvent(ctx context.Context, event *models.Event) error {
	if err := s.db.WithContext(ctx).Save(event).Error; err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

func (s *GormStore) UpdateEventLocation(ctx context.Context, id uuid.UUID, location string) error {
	err := s.db.WithContext(ctx).Model(&models.Event{}).
		Where("id = ?", id).
		Update("location", location).Error
	if err != nil {
		return fmt.Errorf("failed to update event location: %w", err)
	}
	return nil
}

func (s *GormStore) InsertSubEvent(ctx context.Context, subEvent *models.SubEvent) error {
	if subEvent.ID == uuid.Nil {
		subEvent.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(subEvent).Error; err != nil {
		return fmt.Errorf("failed to insert sub-event: %w", err)
	}
	return nil
}

// ListTimelineItems loads every sub-event of the user's events together with
// the parent context the timeline assembler needs.
func (s *GormStore) ListTimelineItems(ctx context.Context, userID uuid.UUID) ([]TimelineItem, error) {
	var events []models.Event
	err := s.db.WithContext(ctx).
		Preload("SubEvents").
		Where("user_id = ?", userID).
		Order("start_date").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events for timeline: %w", err)
	}

	var items []TimelineItem
	for _, event := range events {
		date := event.StartDate
		for _, se := range event.SubEvents {
			items = append(items, TimelineItem{
				SubEvent:      se,
				EventTitle:    event.Title,
				EventLocation: event.Location,
				EventDate:     &date,
			})
		}
	}
	return items, nil
}
