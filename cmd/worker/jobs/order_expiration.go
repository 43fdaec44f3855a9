package jobs

import (
	"context"
	"log/slog"
	"time"

	"tessera/internal/messaging"
	"tessera/internal/metrics"
	"tessera/internal/models"
	"tessera/internal/repository"
)

const expiredBatchSize = 100

// OrderExpirationJob sweeps lapsed AWAITING_PAYMENT holds and returns
// their units to the pool. The release itself is the same guarded
// transition payment callbacks use, so a buyer who pays in the instant
// before the sweep keeps their order: whichever side flips the status
// first wins, the other becomes a no-op.
type OrderExpirationJob struct {
	orderRepo  *repository.OrderRepository
	natsClient *messaging.NATSClient
	interval   time.Duration
	ticker     *time.Ticker
	done       chan bool
}

func NewOrderExpirationJob(orderRepo *repository.OrderRepository, natsClient *messaging.NATSClient, interval time.Duration) *OrderExpirationJob {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &OrderExpirationJob{
		orderRepo:  orderRepo,
		natsClient: natsClient,
		interval:   interval,
		done:       make(chan bool),
	}
}

func (j *OrderExpirationJob) Start(ctx context.Context) {
	slog.Info("Starting order expiration job",
		"check_interval", j.interval.String(), "hold_duration", repository.HoldDuration.String())

	j.ticker = time.NewTicker(j.interval)

	go j.sweep(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				go j.sweep(ctx)
			case <-j.done:
				slog.Info("Order expiration job stopped")
				return
			}
		}
	}()
}

func (j *OrderExpirationJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

func (j *OrderExpirationJob) sweep(ctx context.Context) {
	expired, err := j.orderRepo.ListExpired(ctx, time.Now(), expiredBatchSize)
	if err != nil {
		slog.Error("Failed to list expired orders", "error", err)
		return
	}

	if len(expired) == 0 {
		slog.Debug("No expired orders found")
		return
	}

	slog.Info("Found expired orders to release", "count", len(expired))

	for _, order := range expired {
		released, err := j.orderRepo.Release(ctx, order.ID, models.OrderCancelled)
		if err != nil {
			slog.Error("Failed to release expired order",
				"order_id", order.ID, "expires_at", order.ExpiresAt, "error", err)
			continue
		}
		if !released {
			// Payment landed between the list and the release
			slog.Info("Skipping order settled during sweep", "order_id", order.ID)
			continue
		}

		metrics.ExpiredOrdersTotal.Inc()

		event := models.OrderExpiredEvent{
			OrderID:       order.ID,
			TicketClassID: order.TicketClassID,
			Reason:        "payment hold expired",
			Timestamp:     time.Now(),
		}
		if err := j.natsClient.Publish(models.EventOrderExpired, event); err != nil {
			slog.Error("Failed to publish order expired event", "order_id", order.ID, "error", err)
		}

		slog.Info("Expired order released",
			"order_id", order.ID, "held_since", order.CreatedAt, "expired_at", order.ExpiresAt)
	}
}
