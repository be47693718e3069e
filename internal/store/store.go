package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"meal-order-service/internal/errs"
	"meal-order-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

// GetMenuItems retrieves all menu items
func (s *Store) GetMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := s.db.SelectContext(ctx, &items, "SELECT * FROM menu_items ORDER BY id")
	return items, err
}

// GetMenuItemByID retrieves a menu item by ID
func (s *Store) GetMenuItemByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	var item models.MenuItem
	err := s.db.GetContext(ctx, &item, "SELECT * FROM menu_items WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("menu item with id %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetMenuItemsByIDs retrieves multiple menu items in one batch lookup
func (s *Store) GetMenuItemsByIDs(ctx context.Context, ids []int64) ([]models.MenuItem, error) {
	if len(ids) == 0 {
		return []models.MenuItem{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM menu_items WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var items []models.MenuItem
	err = s.db.SelectContext(ctx, &items, query, args...)
	return items, err
}

// CreateMenuItem creates a new menu item
func (s *Store) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	query := `
		INSERT INTO menu_items (name, description, image_url, category, price, stock_quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, item, query,
		item.Name, item.Description, item.ImageURL, item.Category, item.Price, item.StockQuantity)
}

// UpdateMenuItem applies a partial patch; only set fields change,
// updated_at is always refreshed.
func (s *Store) UpdateMenuItem(ctx context.Context, id int64, upd models.MenuItemUpdate) (*models.MenuItem, error) {
	set := []string{}
	args := []interface{}{}
	n := 1

	add := func(column string, value interface{}) {
		set = append(set, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
		n++
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.ImageURL != nil {
		add("image_url", *upd.ImageURL)
	}
	if upd.Category != nil {
		add("category", *upd.Category)
	}
	if upd.Price != nil {
		add("price", *upd.Price)
	}
	if upd.StockQuantity != nil {
		add("stock_quantity", *upd.StockQuantity)
	}
	set = append(set, "updated_at = NOW()")

	query := fmt.Sprintf("UPDATE menu_items SET %s WHERE id = $%d RETURNING *",
		strings.Join(set, ", "), n)
	args = append(args, id)

	var item models.MenuItem
	err := s.db.GetContext(ctx, &item, query, args...)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("menu item with id %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteMenuItem deletes a menu item by ID
func (s *Store) DeleteMenuItem(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM menu_items WHERE id = $1", id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return errs.Conflict("menu item with id %d is referenced by existing orders", id)
		}
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errs.NotFound("menu item with id %d not found", id)
	}
	return nil
}
