package store

import (
	"context"

	"meal-order-service/internal/models"
)

// DepartmentReport groups all orders by the ordering user's department.
// total_amount is the sum of order totals, so orders are joined to
// their item quantities through a lateral subquery to avoid fan-out.
func (s *Store) DepartmentReport(ctx context.Context) ([]models.DepartmentReport, error) {
	query := `
		SELECT d.name AS department,
		       COUNT(o.id) AS total_orders,
		       COALESCE(SUM(q.total_quantity), 0) AS total_quantity,
		       COALESCE(SUM(o.total_amount), 0) AS total_amount
		FROM orders o
		JOIN users u ON u.id = o.user_id
		JOIN departments d ON d.id = u.department_id
		JOIN LATERAL (
			SELECT SUM(quantity) AS total_quantity
			FROM order_items
			WHERE order_id = o.id
		) q ON true
		GROUP BY d.name
		ORDER BY d.name`

	var reports []models.DepartmentReport
	err := s.db.SelectContext(ctx, &reports, query)
	return reports, err
}

// MenuItemReport groups all order items by menu item, total_amount
// computed from frozen order-time prices, highest revenue first.
func (s *Store) MenuItemReport(ctx context.Context) ([]models.MenuItemReport, error) {
	query := `
		SELECT mi.id AS menu_item_id,
		       mi.name,
		       COUNT(DISTINCT oi.order_id) AS total_orders,
		       SUM(oi.quantity) AS total_quantity,
		       SUM(oi.quantity * oi.price_at_order) AS total_amount
		FROM order_items oi
		JOIN menu_items mi ON mi.id = oi.menu_item_id
		GROUP BY mi.id, mi.name
		ORDER BY total_amount DESC`

	var reports []models.MenuItemReport
	err := s.db.SelectContext(ctx, &reports, query)
	return reports, err
}
