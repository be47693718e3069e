package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"meal-order-service/internal/errs"
	"meal-order-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// PlaceOrder is the single transactional boundary of the system: it
// locks the referenced menu rows, validates stock, inserts the order
// and its line items with frozen prices, and decrements stock. Any
// failure rolls the whole unit back.
func (s *Store) PlaceOrder(ctx context.Context, userID int64, pickupTime time.Time, remarks string, lines []models.OrderLine) (*models.OrderWithItems, error) {
	// Aggregate quantities per item so duplicate cart lines are checked
	// against stock as one demand.
	needed := make(map[int64]int)
	for _, line := range lines {
		needed[line.MenuItemID] += line.Quantity
	}
	ids := make([]int64, 0, len(needed))
	for id := range needed {
		ids = append(ids, id)
	}
	// Deterministic lock order prevents deadlock between concurrent orders.
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query, args, err := sqlx.In("SELECT * FROM menu_items WHERE id IN (?) ORDER BY id FOR UPDATE", ids)
	if err != nil {
		return nil, err
	}
	query = tx.Rebind(query)

	var items []models.MenuItem
	if err := tx.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to lock menu items: %w", err)
	}
	if len(items) != len(ids) {
		return nil, errs.NotFound("one or more menu items not found")
	}

	byID := make(map[int64]*models.MenuItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	for _, id := range ids {
		item := byID[id]
		if item.StockQuantity < needed[id] {
			return nil, errs.InsufficientStock(item.Name, item.StockQuantity, needed[id])
		}
	}

	total := orderTotal(lines, byID)

	order := models.Order{
		UserID:      userID,
		Status:      models.OrderStatusPending,
		PickupTime:  pickupTime,
		Remarks:     remarks,
		TotalAmount: total,
	}
	err = tx.GetContext(ctx, &order, `
		INSERT INTO orders (user_id, status, pickup_time, remarks, total_amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, order_date, created_at, updated_at`,
		order.UserID, order.Status, order.PickupTime, order.Remarks, order.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	details := make([]models.OrderItemDetail, 0, len(lines))
	for _, line := range lines {
		item := byID[line.MenuItemID]
		orderItem := models.OrderItem{
			OrderID:      order.ID,
			MenuItemID:   line.MenuItemID,
			Quantity:     line.Quantity,
			PriceAtOrder: item.Price,
		}
		err = tx.GetContext(ctx, &orderItem, `
			INSERT INTO order_items (order_id, menu_item_id, quantity, price_at_order)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at`,
			orderItem.OrderID, orderItem.MenuItemID, orderItem.Quantity, orderItem.PriceAtOrder)
		if err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
		details = append(details, models.OrderItemDetail{OrderItem: orderItem, MenuItem: item})
	}

	for _, id := range ids {
		item := byID[id]
		err = tx.GetContext(ctx, item, `
			UPDATE menu_items
			SET stock_quantity = stock_quantity - $1, updated_at = NOW()
			WHERE id = $2
			RETURNING *`,
			needed[id], id)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &models.OrderWithItems{Order: order, Items: details}, nil
}

// orderTotal sums current catalog price times quantity over all lines.
// This value becomes each line's frozen price_at_order basis.
func orderTotal(lines []models.OrderLine, items map[int64]*models.MenuItem) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		price := items[line.MenuItemID].Price
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("order with id %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderWithItems retrieves an order hydrated with user and items
func (s *Store) GetOrderWithItems(ctx context.Context, id int64) (*models.OrderWithItems, error) {
	order, err := s.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	hydrated, err := s.hydrateOrders(ctx, []models.Order{*order})
	if err != nil {
		return nil, err
	}
	return &hydrated[0], nil
}

// ListOrders retrieves all orders, optionally filtered by status,
// newest first
func (s *Store) ListOrders(ctx context.Context, status string) ([]models.OrderWithItems, error) {
	var orders []models.Order
	var err error
	if status == "" {
		err = s.db.SelectContext(ctx, &orders, "SELECT * FROM orders ORDER BY created_at DESC")
	} else {
		err = s.db.SelectContext(ctx, &orders,
			"SELECT * FROM orders WHERE status = $1 ORDER BY created_at DESC", status)
	}
	if err != nil {
		return nil, err
	}
	return s.hydrateOrders(ctx, orders)
}

// ListOrdersForUser retrieves a user's orders, newest first
func (s *Store) ListOrdersForUser(ctx context.Context, userID int64) ([]models.OrderWithItems, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	return s.hydrateOrders(ctx, orders)
}

// UpdateOrderStatus moves an order from one status to another. The
// expected current status guards against concurrent transitions; no
// rows updated with the order present means the status moved under us.
func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, from, to string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING *`,
		to, id, from)
	if err == sql.ErrNoRows {
		if _, getErr := s.GetOrderByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, errs.Validation("order %d status changed concurrently", id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// hydrateOrders attaches users and resolved line items to orders using
// batch lookups.
func (s *Store) hydrateOrders(ctx context.Context, orders []models.Order) ([]models.OrderWithItems, error) {
	result := make([]models.OrderWithItems, 0, len(orders))
	if len(orders) == 0 {
		return result, nil
	}

	orderIDs := make([]int64, len(orders))
	userIDs := make([]int64, len(orders))
	for i, o := range orders {
		orderIDs[i] = o.ID
		userIDs[i] = o.UserID
	}

	query, args, err := sqlx.In("SELECT * FROM order_items WHERE order_id IN (?) ORDER BY id", orderIDs)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var items []models.OrderItem
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}

	menuIDs := make([]int64, 0, len(items))
	seen := make(map[int64]bool)
	for _, it := range items {
		if !seen[it.MenuItemID] {
			seen[it.MenuItemID] = true
			menuIDs = append(menuIDs, it.MenuItemID)
		}
	}

	menuItems, err := s.GetMenuItemsByIDs(ctx, menuIDs)
	if err != nil {
		return nil, err
	}
	menuByID := make(map[int64]*models.MenuItem, len(menuItems))
	for i := range menuItems {
		menuByID[menuItems[i].ID] = &menuItems[i]
	}

	users, err := s.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	userByID := make(map[int64]*models.User, len(users))
	for i := range users {
		userByID[users[i].ID] = &users[i]
	}

	itemsByOrder := make(map[int64][]models.OrderItemDetail)
	for _, it := range items {
		itemsByOrder[it.OrderID] = append(itemsByOrder[it.OrderID], models.OrderItemDetail{
			OrderItem: it,
			MenuItem:  menuByID[it.MenuItemID],
		})
	}

	for _, o := range orders {
		result = append(result, models.OrderWithItems{
			Order: o,
			User:  userByID[o.UserID],
			Items: itemsByOrder[o.ID],
		})
	}
	return result, nil
}
