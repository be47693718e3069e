package service

import (
	"context"
	"sync"
	"time"

	"meal-order-service/internal/errs"
	"meal-order-service/internal/models"

	"github.com/shopspring/decimal"
)

// fakeLedger mirrors the store's placement semantics in memory. The
// mutex gives it the same serializability the database transaction
// gives the real store.
type fakeLedger struct {
	mu          sync.Mutex
	menu        map[int64]*models.MenuItem
	orders      map[int64]*models.Order
	orderIDs    []int64
	items       map[int64][]models.OrderItem
	nextOrderID int64
	nextItemID  int64
}

func newFakeLedger(menu ...*models.MenuItem) *fakeLedger {
	l := &fakeLedger{
		menu:   make(map[int64]*models.MenuItem),
		orders: make(map[int64]*models.Order),
		items:  make(map[int64][]models.OrderItem),
	}
	for _, item := range menu {
		l.menu[item.ID] = item
	}
	return l
}

func (l *fakeLedger) stockOf(menuItemID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.menu[menuItemID].StockQuantity
}

func (l *fakeLedger) setPrice(menuItemID int64, price decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.menu[menuItemID].Price = price
}

func (l *fakeLedger) PlaceOrder(ctx context.Context, userID int64, pickupTime time.Time, remarks string, lines []models.OrderLine) (*models.OrderWithItems, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	needed := make(map[int64]int)
	for _, line := range lines {
		if _, ok := l.menu[line.MenuItemID]; !ok {
			return nil, errs.NotFound("one or more menu items not found")
		}
		needed[line.MenuItemID] += line.Quantity
	}

	for id, qty := range needed {
		item := l.menu[id]
		if item.StockQuantity < qty {
			return nil, errs.InsufficientStock(item.Name, item.StockQuantity, qty)
		}
	}

	total := decimal.Zero
	for _, line := range lines {
		price := l.menu[line.MenuItemID].Price
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	l.nextOrderID++
	now := time.Now()
	order := models.Order{
		ID:          l.nextOrderID,
		UserID:      userID,
		OrderDate:   now,
		Status:      models.OrderStatusPending,
		PickupTime:  pickupTime,
		Remarks:     remarks,
		TotalAmount: total,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	l.orders[order.ID] = &order
	l.orderIDs = append(l.orderIDs, order.ID)

	details := make([]models.OrderItemDetail, 0, len(lines))
	for _, line := range lines {
		l.nextItemID++
		item := models.OrderItem{
			ID:           l.nextItemID,
			OrderID:      order.ID,
			MenuItemID:   line.MenuItemID,
			Quantity:     line.Quantity,
			PriceAtOrder: l.menu[line.MenuItemID].Price,
			CreatedAt:    now,
		}
		l.items[order.ID] = append(l.items[order.ID], item)
	}

	for id, qty := range needed {
		l.menu[id].StockQuantity -= qty
	}

	for _, item := range l.items[order.ID] {
		menuCopy := *l.menu[item.MenuItemID]
		details = append(details, models.OrderItemDetail{OrderItem: item, MenuItem: &menuCopy})
	}

	orderCopy := order
	return &models.OrderWithItems{Order: orderCopy, Items: details}, nil
}

func (l *fakeLedger) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	order, ok := l.orders[id]
	if !ok {
		return nil, errs.NotFound("order with id %d not found", id)
	}
	orderCopy := *order
	return &orderCopy, nil
}

func (l *fakeLedger) GetOrderWithItems(ctx context.Context, id int64) (*models.OrderWithItems, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	order, ok := l.orders[id]
	if !ok {
		return nil, errs.NotFound("order with id %d not found", id)
	}
	return l.hydrate(*order), nil
}

func (l *fakeLedger) hydrate(order models.Order) *models.OrderWithItems {
	details := make([]models.OrderItemDetail, 0, len(l.items[order.ID]))
	for _, item := range l.items[order.ID] {
		menuCopy := *l.menu[item.MenuItemID]
		details = append(details, models.OrderItemDetail{OrderItem: item, MenuItem: &menuCopy})
	}
	return &models.OrderWithItems{Order: order, Items: details}
}

func (l *fakeLedger) ListOrders(ctx context.Context, status string) ([]models.OrderWithItems, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := []models.OrderWithItems{}
	for _, id := range l.orderIDs {
		order := l.orders[id]
		if status != "" && order.Status != status {
			continue
		}
		result = append(result, *l.hydrate(*order))
	}
	return result, nil
}

func (l *fakeLedger) ListOrdersForUser(ctx context.Context, userID int64) ([]models.OrderWithItems, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := []models.OrderWithItems{}
	for _, id := range l.orderIDs {
		order := l.orders[id]
		if order.UserID != userID {
			continue
		}
		result = append(result, *l.hydrate(*order))
	}
	return result, nil
}

func (l *fakeLedger) UpdateOrderStatus(ctx context.Context, id int64, from, to string) (*models.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	order, ok := l.orders[id]
	if !ok {
		return nil, errs.NotFound("order with id %d not found", id)
	}
	if order.Status != from {
		return nil, errs.Validation("order %d status changed concurrently", id)
	}
	order.Status = to
	order.UpdatedAt = time.Now()
	orderCopy := *order
	return &orderCopy, nil
}

type fakeDirectory struct {
	users map[int64]*models.User
}

func newFakeDirectory(users ...*models.User) *fakeDirectory {
	d := &fakeDirectory{users: make(map[int64]*models.User)}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *fakeDirectory) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, ok := d.users[id]
	if !ok {
		return nil, errs.NotFound("user not found")
	}
	return user, nil
}

type fakePublisher struct {
	mu            sync.Mutex
	placed        []*models.OrderPlacedEvent
	statusChanged []*models.OrderStatusChangedEvent
}

func (p *fakePublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placed = append(p.placed, event)
	return nil
}

func (p *fakePublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statusChanged = append(p.statusChanged, event)
	return nil
}
