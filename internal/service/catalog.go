package service

import (
	"context"
	"log/slog"

	"tessera/internal/errors"
	"tessera/internal/models"

	"github.com/google/uuid"
)

type eventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	List(ctx context.Context, page, pageSize int) ([]models.Event, error)
}

type classStore interface {
	CreateWithUnits(ctx context.Context, class *models.TicketClass) error
	ListByEventID(ctx context.Context, eventID uuid.UUID) ([]models.TicketClass, error)
	Availability(ctx context.Context, eventID uuid.UUID) ([]models.ClassAvailability, error)
}

// CatalogService is plain CRUD over events and ticket classes, plus the
// read-time availability aggregate the storefront polls.
type CatalogService struct {
	events   eventStore
	classes  classStore
	searcher EventSearcher
}

func NewCatalogService(events eventStore, classes classStore, searcher EventSearcher) *CatalogService {
	return &CatalogService{events: events, classes: classes, searcher: searcher}
}

func (s *CatalogService) CreateEvent(ctx context.Context, req *models.CreateEventRequest) (*models.Event, error) {
	event := &models.Event{
		Name:         req.Name,
		Description:  req.Description,
		StartsAt:     req.StartsAt,
		EndsAt:       req.EndsAt,
		SaleStartsAt: req.SaleStartsAt,
		Published:    true,
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}

	if s.searcher != nil {
		if err := s.searcher.IndexEvent(ctx, event); err != nil {
			slog.Warn("Failed to index event for search", "event_id", event.ID, "error", err)
		}
	}

	return event, nil
}

func (s *CatalogService) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, errors.ErrNotFound
	}
	return event, nil
}

// ListEvents serves full-text queries from Elasticsearch when it is
// configured and falls back to Postgres otherwise. Search failures also
// fall back rather than erroring: a degraded index should not take the
// storefront listing down.
func (s *CatalogService) ListEvents(ctx context.Context, query, date string, page, pageSize int) ([]models.Event, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	if s.searcher != nil && query != "" {
		events, err := s.searcher.SearchEvents(ctx, query, date, page, pageSize)
		if err == nil {
			return events, nil
		}
		slog.Warn("Event search failed, falling back to database", "error", err)
	}

	return s.events.List(ctx, page, pageSize)
}

func (s *CatalogService) CreateTicketClass(ctx context.Context, eventID uuid.UUID, req *models.CreateTicketClassRequest) (*models.TicketClass, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, errors.ErrNotFound
	}

	maxPerOrder := req.MaxPerOrder
	if maxPerOrder <= 0 {
		maxPerOrder = 4
	}

	class := &models.TicketClass{
		EventID:       eventID,
		Name:          req.Name,
		Price:         req.Price,
		TotalQuantity: req.TotalQuantity,
		MaxPerOrder:   maxPerOrder,
	}

	if err := s.classes.CreateWithUnits(ctx, class); err != nil {
		return nil, err
	}

	return class, nil
}

func (s *CatalogService) ListTicketClasses(ctx context.Context, eventID uuid.UUID) ([]models.TicketClass, error) {
	return s.classes.ListByEventID(ctx, eventID)
}

func (s *CatalogService) Availability(ctx context.Context, eventID uuid.UUID) ([]models.ClassAvailability, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, errors.ErrNotFound
	}

	return s.classes.Availability(ctx, eventID)
}
