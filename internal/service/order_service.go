package service

import (
	"context"
	"time"

	"meal-order-service/internal/errs"
	"meal-order-service/internal/models"
	"meal-order-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderLedger is the persistence contract for orders. The store's
// PlaceOrder carries the transactional stock-check-and-decrement.
type OrderLedger interface {
	PlaceOrder(ctx context.Context, userID int64, pickupTime time.Time, remarks string, lines []models.OrderLine) (*models.OrderWithItems, error)
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderWithItems(ctx context.Context, id int64) (*models.OrderWithItems, error)
	ListOrders(ctx context.Context, status string) ([]models.OrderWithItems, error)
	ListOrdersForUser(ctx context.Context, userID int64) ([]models.OrderWithItems, error)
	UpdateOrderStatus(ctx context.Context, id int64, from, to string) (*models.Order, error)
}

// UserDirectory resolves users for order placement
type UserDirectory interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// OrderEventPublisher publishes order lifecycle events
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// OrderService handles order placement and the status workflow
type OrderService struct {
	ledger    OrderLedger
	directory UserDirectory
	publisher OrderEventPublisher
	logger    *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(ledger OrderLedger, directory UserDirectory, publisher OrderEventPublisher) *OrderService {
	return &OrderService{
		ledger:    ledger,
		directory: directory,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// PlaceOrderRequest represents a submitted cart
type PlaceOrderRequest struct {
	UserID     int64              `json:"user_id" binding:"required"`
	PickupTime time.Time          `json:"pickup_time" binding:"required"`
	Remarks    string             `json:"remarks"`
	Items      []OrderLineRequest `json:"items" binding:"required,min=1,dive"`
}

// OrderLineRequest represents one cart line
type OrderLineRequest struct {
	MenuItemID int64 `json:"menu_item_id" binding:"required"`
	Quantity   int   `json:"quantity" binding:"required,min=1"`
}

// PlaceOrder turns a cart into a persisted pending order with frozen
// line prices and decremented stock. The pickup time is the caller's
// precondition; it is not re-validated here.
func (s *OrderService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*models.OrderWithItems, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.PlaceOrderLatency.Observe(time.Since(start).Seconds())
	}()

	if len(req.Items) == 0 {
		util.OrdersFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, errs.Validation("order must contain at least one item")
	}

	lines := make([]models.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			util.OrdersFailedTotal.WithLabelValues("invalid_items").Inc()
			return nil, errs.Validation("quantity must be positive for menu item %d", item.MenuItemID)
		}
		lines = append(lines, models.OrderLine{MenuItemID: item.MenuItemID, Quantity: item.Quantity})
	}

	user, err := s.directory.GetUserByID(ctx, req.UserID)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("user_not_found").Inc()
		return nil, err
	}

	order, err := s.ledger.PlaceOrder(ctx, req.UserID, req.PickupTime, req.Remarks, lines)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}
	order.User = user

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", user.ID),
		zap.String("total_amount", order.TotalAmount.String()))

	s.publishOrderPlaced(ctx, order)

	return order, nil
}

func failureReason(err error) string {
	switch errs.KindOf(err) {
	case errs.KindNotFound:
		return "items_not_found"
	case errs.KindInsufficientStock:
		return "insufficient_stock"
	case errs.KindValidation:
		return "invalid_items"
	default:
		return "db_error"
	}
}

func (s *OrderService) publishOrderPlaced(ctx context.Context, order *models.OrderWithItems) {
	items := make([]models.OrderLineData, 0, len(order.Items))
	for _, detail := range order.Items {
		data := models.OrderLineData{
			MenuItemID:   detail.MenuItemID,
			Quantity:     detail.Quantity,
			PriceAtOrder: detail.PriceAtOrder,
		}
		if detail.MenuItem != nil {
			data.Name = detail.MenuItem.Name
			data.StockRemaining = detail.MenuItem.StockQuantity
		}
		items = append(items, data)
	}

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Items:       items,
	}

	if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event",
			zap.Int64("order_id", order.ID), zap.Error(err))
	}
}

// SetStatus moves an order through the status workflow. Transitions
// outside the table are rejected; stock is never touched here.
func (s *OrderService) SetStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.SetStatus")
	defer span.End()

	if !models.ValidStatus(status) {
		return nil, errs.Validation("invalid order status %q", status)
	}

	order, err := s.ledger.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !models.CanTransition(order.Status, status) {
		return nil, errs.Validation("illegal status transition from %s to %s", order.Status, status)
	}

	updated, err := s.ledger.UpdateOrderStatus(ctx, orderID, order.Status, status)
	if err != nil {
		return nil, err
	}

	util.OrderStatusChangesTotal.WithLabelValues(status).Inc()
	s.logger.Info("Order status changed",
		zap.Int64("order_id", orderID),
		zap.String("from", order.Status),
		zap.String("to", status))

	event := &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderStatusChanged,
			Timestamp: time.Now(),
		},
		OrderID: orderID,
		From:    order.Status,
		To:      status,
	}
	if err := s.publisher.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event",
			zap.Int64("order_id", orderID), zap.Error(err))
	}

	return updated, nil
}

// GetOrder retrieves a hydrated order by ID
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.OrderWithItems, error) {
	return s.ledger.GetOrderWithItems(ctx, orderID)
}

// ListOrders retrieves all orders, optionally filtered by status
func (s *OrderService) ListOrders(ctx context.Context, status string) ([]models.OrderWithItems, error) {
	if status != "" && !models.ValidStatus(status) {
		return nil, errs.Validation("invalid order status %q", status)
	}
	return s.ledger.ListOrders(ctx, status)
}

// ListOrdersForUser retrieves a user's orders
func (s *OrderService) ListOrdersForUser(ctx context.Context, userID int64) ([]models.OrderWithItems, error) {
	if _, err := s.directory.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.ledger.ListOrdersForUser(ctx, userID)
}
