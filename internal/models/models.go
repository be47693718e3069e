package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuItem represents an item on the menu
type MenuItem struct {
	ID            int64           `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	Description   string          `db:"description" json:"description,omitempty"`
	ImageURL      string          `db:"image_url" json:"image_url,omitempty"`
	Category      string          `db:"category" json:"category"`
	Price         decimal.Decimal `db:"price" json:"price"`
	StockQuantity int             `db:"stock_quantity" json:"stock_quantity"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// Department groups users for reporting
type Department struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// User represents a registered customer or admin
type User struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	ContactNumber string    `db:"contact_number" json:"contact_number"`
	DepartmentID  int64     `db:"department_id" json:"department_id"`
	Role          string    `db:"role" json:"role"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Order represents a placed order; immutable except status and updated_at
type Order struct {
	ID          int64           `db:"id" json:"id"`
	UserID      int64           `db:"user_id" json:"user_id"`
	OrderDate   time.Time       `db:"order_date" json:"order_date"`
	Status      string          `db:"status" json:"status"`
	PickupTime  time.Time       `db:"pickup_time" json:"pickup_time"`
	Remarks     string          `db:"remarks" json:"remarks,omitempty"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderItem is one line of a placed order, pinned to the catalog price
// at order time. Never mutated after creation.
type OrderItem struct {
	ID           int64           `db:"id" json:"id"`
	OrderID      int64           `db:"order_id" json:"order_id"`
	MenuItemID   int64           `db:"menu_item_id" json:"menu_item_id"`
	Quantity     int             `db:"quantity" json:"quantity"`
	PriceAtOrder decimal.Decimal `db:"price_at_order" json:"price_at_order"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// OrderLine is a single cart entry submitted for placement
type OrderLine struct {
	MenuItemID int64
	Quantity   int
}

// OrderItemDetail pairs an order line with its resolved menu item
type OrderItemDetail struct {
	OrderItem
	MenuItem *MenuItem `json:"menu_item,omitempty"`
}

// OrderWithItems is the hydrated shape the API and reports consume
type OrderWithItems struct {
	Order
	User  *User             `json:"user,omitempty"`
	Items []OrderItemDetail `json:"items"`
}

// User roles
const (
	RoleRegular = "regular"
	RoleAdmin   = "admin"
)

// ValidRole reports whether s is a known role
func ValidRole(s string) bool {
	return s == RoleRegular || s == RoleAdmin
}

// DepartmentReport aggregates orders by the ordering user's department
type DepartmentReport struct {
	Department    string          `db:"department" json:"department"`
	TotalOrders   int             `db:"total_orders" json:"total_orders"`
	TotalQuantity int             `db:"total_quantity" json:"total_quantity"`
	TotalAmount   decimal.Decimal `db:"total_amount" json:"total_amount"`
}

// MenuItemReport aggregates order items by menu item
type MenuItemReport struct {
	MenuItemID    int64           `db:"menu_item_id" json:"menu_item_id"`
	Name          string          `db:"name" json:"name"`
	TotalOrders   int             `db:"total_orders" json:"total_orders"`
	TotalQuantity int             `db:"total_quantity" json:"total_quantity"`
	TotalAmount   decimal.Decimal `db:"total_amount" json:"total_amount"`
}

// MenuItemUpdate is a partial patch; only non-nil fields are applied
type MenuItemUpdate struct {
	Name          *string          `json:"name,omitempty"`
	Description   *string          `json:"description,omitempty"`
	ImageURL      *string          `json:"image_url,omitempty"`
	Category      *string          `json:"category,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	StockQuantity *int             `json:"stock_quantity,omitempty"`
}

// DepartmentUpdate is a partial patch for a department
type DepartmentUpdate struct {
	Name *string `json:"name,omitempty"`
}

// UserUpdate is a partial patch for a user
type UserUpdate struct {
	Name          *string `json:"name,omitempty"`
	ContactNumber *string `json:"contact_number,omitempty"`
	DepartmentID  *int64  `json:"department_id,omitempty"`
	Role          *string `json:"role,omitempty"`
}
