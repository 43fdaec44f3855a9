package repository

import (
	"tessera/internal/database"
)

type Repositories struct {
	Users         *UserRepository
	Events        *EventRepository
	TicketClasses *TicketClassRepository
	TicketUnits   *TicketUnitRepository
	Orders        *OrderRepository
	CheckIns      *CheckInRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(db),
		Events:        NewEventRepository(db),
		TicketClasses: NewTicketClassRepository(db),
		TicketUnits:   NewTicketUnitRepository(db),
		Orders:        NewOrderRepository(db),
		CheckIns:      NewCheckInRepository(db),
	}
}
