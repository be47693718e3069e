package service

import (
	"context"

	"meal-order-service/internal/errs"
	"meal-order-service/internal/models"
	"meal-order-service/internal/util"

	"go.uber.org/zap"
)

// DirectoryStore is the persistence contract for departments and users
type DirectoryStore interface {
	CreateDepartment(ctx context.Context, dept *models.Department) error
	GetDepartments(ctx context.Context) ([]models.Department, error)
	GetDepartmentByID(ctx context.Context, id int64) (*models.Department, error)
	UpdateDepartment(ctx context.Context, id int64, upd models.DepartmentUpdate) (*models.Department, error)
	DeleteDepartment(ctx context.Context, id int64) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByContactNumber(ctx context.Context, contactNumber string) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id int64, upd models.UserUpdate) (*models.User, error)
}

// DirectoryService handles department and user CRUD
type DirectoryService struct {
	store  DirectoryStore
	logger *zap.Logger
}

// NewDirectoryService creates a new directory service
func NewDirectoryService(store DirectoryStore) *DirectoryService {
	return &DirectoryService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// CreateDepartment creates a department with a unique name
func (s *DirectoryService) CreateDepartment(ctx context.Context, name string) (*models.Department, error) {
	if name == "" {
		return nil, errs.Validation("department name is required")
	}

	dept := &models.Department{Name: name}
	if err := s.store.CreateDepartment(ctx, dept); err != nil {
		return nil, err
	}

	s.logger.Info("Department created", zap.Int64("department_id", dept.ID), zap.String("name", name))
	return dept, nil
}

// ListDepartments retrieves all departments
func (s *DirectoryService) ListDepartments(ctx context.Context) ([]models.Department, error) {
	return s.store.GetDepartments(ctx)
}

// UpdateDepartment applies a partial patch to a department
func (s *DirectoryService) UpdateDepartment(ctx context.Context, id int64, upd models.DepartmentUpdate) (*models.Department, error) {
	if upd.Name != nil && *upd.Name == "" {
		return nil, errs.Validation("department name is required")
	}
	return s.store.UpdateDepartment(ctx, id, upd)
}

// DeleteDepartment deletes a department; fails with Conflict while
// users still reference it
func (s *DirectoryService) DeleteDepartment(ctx context.Context, id int64) error {
	if err := s.store.DeleteDepartment(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Department deleted", zap.Int64("department_id", id))
	return nil
}

// RegisterUserRequest carries the fields for a new user
type RegisterUserRequest struct {
	Name          string `json:"name" binding:"required"`
	ContactNumber string `json:"contact_number" binding:"required"`
	DepartmentID  int64  `json:"department_id" binding:"required"`
	Role          string `json:"role"`
}

// RegisterUser registers a user with a unique contact number
func (s *DirectoryService) RegisterUser(ctx context.Context, req *RegisterUserRequest) (*models.User, error) {
	if req.Name == "" {
		return nil, errs.Validation("user name is required")
	}
	if req.ContactNumber == "" {
		return nil, errs.Validation("contact number is required")
	}
	role := req.Role
	if role == "" {
		role = models.RoleRegular
	}
	if !models.ValidRole(role) {
		return nil, errs.Validation("invalid role %q", role)
	}

	if _, err := s.store.GetDepartmentByID(ctx, req.DepartmentID); err != nil {
		return nil, err
	}

	user := &models.User{
		Name:          req.Name,
		ContactNumber: req.ContactNumber,
		DepartmentID:  req.DepartmentID,
		Role:          role,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID), zap.String("role", role))
	return user, nil
}

// Login looks up a user by exact contact number. A miss returns
// (nil, nil); it is a signal for the caller, not an error.
func (s *DirectoryService) Login(ctx context.Context, contactNumber string) (*models.User, error) {
	if contactNumber == "" {
		return nil, errs.Validation("contact number is required")
	}
	return s.store.GetUserByContactNumber(ctx, contactNumber)
}

// ListUsers retrieves all users
func (s *DirectoryService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.store.GetUsers(ctx)
}

// UpdateUser applies a partial patch to a user
func (s *DirectoryService) UpdateUser(ctx context.Context, id int64, upd models.UserUpdate) (*models.User, error) {
	if upd.Name != nil && *upd.Name == "" {
		return nil, errs.Validation("user name is required")
	}
	if upd.ContactNumber != nil && *upd.ContactNumber == "" {
		return nil, errs.Validation("contact number is required")
	}
	if upd.Role != nil && !models.ValidRole(*upd.Role) {
		return nil, errs.Validation("invalid role %q", *upd.Role)
	}
	if upd.DepartmentID != nil {
		if _, err := s.store.GetDepartmentByID(ctx, *upd.DepartmentID); err != nil {
			return nil, err
		}
	}
	return s.store.UpdateUser(ctx, id, upd)
}
