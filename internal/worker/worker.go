package worker

import (
	"context"

	"meal-order-service/internal/broker"
	"meal-order-service/internal/models"
	"meal-order-service/internal/util"

	"go.uber.org/zap"
)

// StockAlertWorker consumes order events and warns when a placed order
// drives an item's remaining stock to or below the configured
// threshold. Purely observational: the placement path never depends on it.
type StockAlertWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	threshold    int
	logger       *zap.Logger
}

// NewStockAlertWorker creates a new stock alert worker
func NewStockAlertWorker(consumer *broker.Consumer, threshold int) *StockAlertWorker {
	w := &StockAlertWorker{
		consumer:  consumer,
		threshold: threshold,
		logger:    util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPlaced(w.handleOrderPlaced)
	w.eventHandler = eventHandler

	return w
}

func (w *StockAlertWorker) handleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	for _, item := range event.Items {
		if item.StockRemaining > w.threshold {
			continue
		}
		util.LowStockAlertsTotal.Inc()
		w.logger.Warn("Menu item stock is low",
			zap.Int64("menu_item_id", item.MenuItemID),
			zap.String("name", item.Name),
			zap.Int("stock_remaining", item.StockRemaining),
			zap.Int64("order_id", event.OrderID))
	}
	return nil
}

// Start starts the worker
func (w *StockAlertWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting stock alert worker", zap.Int("threshold", w.threshold))
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *StockAlertWorker) Stop() error {
	w.logger.Info("Stopping stock alert worker")
	return w.consumer.Close()
}
