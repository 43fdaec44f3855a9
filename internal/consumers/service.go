package consumers

import (
	"context"
	"log/slog"

	"tessera/internal/cache"
	"tessera/internal/config"
	"tessera/internal/messaging"
	"tessera/internal/models"
)

const queueGroup = "workers"

// ConsumerService subscribes to the order and check-in subjects and keeps
// the derived read-side state fresh: it writes the audit trail to the log
// and drops stale availability snapshots from Valkey.
type ConsumerService struct {
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config, natsClient *messaging.NATSClient) (*ConsumerService, error) {
	valkeyClient, err := cache.NewValkeyClient(cfg.Valkey)
	if err != nil {
		slog.Warn("Valkey unavailable, consumers run without cache invalidation", "error", err)
		valkeyClient = nil
	}

	return &ConsumerService{
		nats:     natsClient,
		valkey:   valkeyClient,
		handlers: NewHandlers(valkeyClient),
	}, nil
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	subjects := map[string]func([]byte){
		models.EventOrderReserved:   cs.handlers.HandleOrderReserved,
		models.EventOrderPaid:       cs.handlers.HandleOrderPaid,
		models.EventOrderReleased:   cs.handlers.HandleOrderReleased,
		models.EventOrderExpired:    cs.handlers.HandleOrderExpired,
		models.EventCheckinRecorded: cs.handlers.HandleCheckinRecorded,
	}

	for subject, handle := range subjects {
		if _, err := cs.nats.SubscribeQueue(subject, queueGroup, asMsgHandler(handle)); err != nil {
			return err
		}
	}

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(_ context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.valkey != nil {
		if err := cs.valkey.Close(); err != nil {
			slog.Error("Error closing Valkey connection", "error", err)
		}
	}

	return nil
}
