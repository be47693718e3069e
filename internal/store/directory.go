package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"meal-order-service/internal/errs"
	"meal-order-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateDepartment creates a new department
func (s *Store) CreateDepartment(ctx context.Context, dept *models.Department) error {
	query := `
		INSERT INTO departments (name)
		VALUES ($1)
		RETURNING id, created_at`

	err := s.db.GetContext(ctx, dept, query, dept.Name)
	if isUniqueViolation(err) {
		return errs.Conflict("department %q already exists", dept.Name)
	}
	return err
}

// GetDepartments retrieves all departments
func (s *Store) GetDepartments(ctx context.Context) ([]models.Department, error) {
	var depts []models.Department
	err := s.db.SelectContext(ctx, &depts, "SELECT * FROM departments ORDER BY id")
	return depts, err
}

// GetDepartmentByID retrieves a department by ID
func (s *Store) GetDepartmentByID(ctx context.Context, id int64) (*models.Department, error) {
	var dept models.Department
	err := s.db.GetContext(ctx, &dept, "SELECT * FROM departments WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("department with id %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

// UpdateDepartment applies a partial patch to a department
func (s *Store) UpdateDepartment(ctx context.Context, id int64, upd models.DepartmentUpdate) (*models.Department, error) {
	if upd.Name == nil {
		return s.GetDepartmentByID(ctx, id)
	}

	var dept models.Department
	err := s.db.GetContext(ctx, &dept,
		"UPDATE departments SET name = $1 WHERE id = $2 RETURNING *", *upd.Name, id)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("department with id %d not found", id)
	}
	if isUniqueViolation(err) {
		return nil, errs.Conflict("department %q already exists", *upd.Name)
	}
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

// DeleteDepartment deletes a department. Deletion is blocked while any
// user still references it.
func (s *Store) DeleteDepartment(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM departments WHERE id = $1", id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return errs.Conflict("department with id %d is still referenced by users", id)
		}
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errs.NotFound("department with id %d not found", id)
	}
	return nil
}

// CreateUser registers a new user
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, contact_number, department_id, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := s.db.GetContext(ctx, user, query,
		user.Name, user.ContactNumber, user.DepartmentID, user.Role)
	if isUniqueViolation(err) {
		return errs.Conflict("contact number %s is already registered", user.ContactNumber)
	}
	if isForeignKeyViolation(err) {
		return errs.NotFound("department with id %d not found", user.DepartmentID)
	}
	return err
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByContactNumber looks up a user by exact contact number.
// A miss is a signal, not an error: returns (nil, nil).
func (s *Store) GetUserByContactNumber(ctx context.Context, contactNumber string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE contact_number = $1", contactNumber)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUsers retrieves all users
func (s *Store) GetUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.SelectContext(ctx, &users, "SELECT * FROM users ORDER BY id")
	return users, err
}

// GetUsersByIDs retrieves multiple users in one batch lookup
func (s *Store) GetUsersByIDs(ctx context.Context, ids []int64) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM users WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var users []models.User
	err = s.db.SelectContext(ctx, &users, query, args...)
	return users, err
}

// UpdateUser applies a partial patch to a user
func (s *Store) UpdateUser(ctx context.Context, id int64, upd models.UserUpdate) (*models.User, error) {
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
	if upd.ContactNumber != nil {
		add("contact_number", *upd.ContactNumber)
	}
	if upd.DepartmentID != nil {
		add("department_id", *upd.DepartmentID)
	}
	if upd.Role != nil {
		add("role", *upd.Role)
	}
	if len(set) == 0 {
		return s.GetUserByID(ctx, id)
	}

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d RETURNING *",
		strings.Join(set, ", "), n)
	args = append(args, id)

	var user models.User
	err := s.db.GetContext(ctx, &user, query, args...)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("user not found")
	}
	if isUniqueViolation(err) {
		return nil, errs.Conflict("contact number is already registered")
	}
	if isForeignKeyViolation(err) {
		return nil, errs.NotFound("department not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
