package service

import (
	"context"

	"tessera/internal/external"
	"tessera/internal/models"
	"tessera/internal/repository"
	"tessera/internal/search"
	"tessera/internal/token"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Publisher is the slice of the NATS client the services need. Publishing
// is always best-effort: a broker outage must never fail a committed write.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// EventSearcher is the slice of the Elasticsearch client the catalog uses.
// It is nil when search is not configured and the catalog falls back to
// Postgres.
type EventSearcher interface {
	IndexEvent(ctx context.Context, event *models.Event) error
	SearchEvents(ctx context.Context, query, date string, page, pageSize int) ([]models.Event, error)
}

type classGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.TicketClass, error)
}

type orderReserver interface {
	Reserve(ctx context.Context, class *models.TicketClass, buyerID int64, quantity int, totalAmount, platformFee decimal.Decimal) (*models.Order, error)
}

type Services struct {
	Reservation *ReservationService
	Settlement  *SettlementService
	CheckIn     *CheckInService
	Catalog     *CatalogService
}

func NewServices(repos *repository.Repositories, tokens *token.Service, provider external.PaymentProvider, es *search.Client, nats Publisher) *Services {
	var searcher EventSearcher
	if es != nil {
		searcher = es
	}

	return &Services{
		Reservation: NewReservationService(repos.TicketClasses, repos.Orders, nats),
		Settlement:  NewSettlementService(repos.Orders, repos.TicketClasses, repos.TicketUnits, tokens, provider, nats),
		CheckIn:     NewCheckInService(repos.TicketUnits, repos.CheckIns, tokens, nats),
		Catalog:     NewCatalogService(repos.Events, repos.TicketClasses, searcher),
	}
}
