package service

import (
	"context"
	"testing"
	"time"

	"meal-order-service/internal/errs"
	"meal-order-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectoryStore struct {
	departments map[int64]*models.Department
	users       map[int64]*models.User
	nextDeptID  int64
	nextUserID  int64
}

func newFakeDirectoryStore() *fakeDirectoryStore {
	return &fakeDirectoryStore{
		departments: make(map[int64]*models.Department),
		users:       make(map[int64]*models.User),
	}
}

func (s *fakeDirectoryStore) CreateDepartment(ctx context.Context, dept *models.Department) error {
	for _, d := range s.departments {
		if d.Name == dept.Name {
			return errs.Conflict("department %q already exists", dept.Name)
		}
	}
	s.nextDeptID++
	dept.ID = s.nextDeptID
	dept.CreatedAt = time.Now()
	s.departments[dept.ID] = dept
	return nil
}

func (s *fakeDirectoryStore) GetDepartments(ctx context.Context) ([]models.Department, error) {
	result := []models.Department{}
	for _, d := range s.departments {
		result = append(result, *d)
	}
	return result, nil
}

func (s *fakeDirectoryStore) GetDepartmentByID(ctx context.Context, id int64) (*models.Department, error) {
	dept, ok := s.departments[id]
	if !ok {
		return nil, errs.NotFound("department with id %d not found", id)
	}
	return dept, nil
}

func (s *fakeDirectoryStore) UpdateDepartment(ctx context.Context, id int64, upd models.DepartmentUpdate) (*models.Department, error) {
	dept, ok := s.departments[id]
	if !ok {
		return nil, errs.NotFound("department with id %d not found", id)
	}
	if upd.Name != nil {
		dept.Name = *upd.Name
	}
	return dept, nil
}

func (s *fakeDirectoryStore) DeleteDepartment(ctx context.Context, id int64) error {
	if _, ok := s.departments[id]; !ok {
		return errs.NotFound("department with id %d not found", id)
	}
	for _, u := range s.users {
		if u.DepartmentID == id {
			return errs.Conflict("department with id %d is still referenced by users", id)
		}
	}
	delete(s.departments, id)
	return nil
}

func (s *fakeDirectoryStore) CreateUser(ctx context.Context, user *models.User) error {
	for _, u := range s.users {
		if u.ContactNumber == user.ContactNumber {
			return errs.Conflict("contact number %s is already registered", user.ContactNumber)
		}
	}
	s.nextUserID++
	user.ID = s.nextUserID
	user.CreatedAt = time.Now()
	s.users[user.ID] = user
	return nil
}

func (s *fakeDirectoryStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, errs.NotFound("user not found")
	}
	return user, nil
}

func (s *fakeDirectoryStore) GetUserByContactNumber(ctx context.Context, contactNumber string) (*models.User, error) {
	for _, u := range s.users {
		if u.ContactNumber == contactNumber {
			return u, nil
		}
	}
	return nil, nil
}

func (s *fakeDirectoryStore) GetUsers(ctx context.Context) ([]models.User, error) {
	result := []models.User{}
	for _, u := range s.users {
		result = append(result, *u)
	}
	return result, nil
}

func (s *fakeDirectoryStore) UpdateUser(ctx context.Context, id int64, upd models.UserUpdate) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, errs.NotFound("user not found")
	}
	if upd.Name != nil {
		user.Name = *upd.Name
	}
	if upd.ContactNumber != nil {
		user.ContactNumber = *upd.ContactNumber
	}
	if upd.DepartmentID != nil {
		user.DepartmentID = *upd.DepartmentID
	}
	if upd.Role != nil {
		user.Role = *upd.Role
	}
	return user, nil
}

func directoryTestSetup(t *testing.T) (*DirectoryService, *models.Department) {
	t.Helper()
	svc := NewDirectoryService(newFakeDirectoryStore())
	dept, err := svc.CreateDepartment(context.Background(), "IT")
	require.NoError(t, err)
	return svc, dept
}

func TestCreateDepartmentConflict(t *testing.T) {
	svc, _ := directoryTestSetup(t)

	_, err := svc.CreateDepartment(context.Background(), "IT")
	require.Error(t, err)
	assert.True(t, errs.IsConflict(err))
}

func TestRegisterUserDefaultsToRegularRole(t *testing.T) {
	svc, dept := directoryTestSetup(t)

	user, err := svc.RegisterUser(context.Background(), &RegisterUserRequest{
		Name:          "Alice",
		ContactNumber: "91234567",
		DepartmentID:  dept.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleRegular, user.Role)
}

func TestRegisterUserUnknownDepartment(t *testing.T) {
	svc, _ := directoryTestSetup(t)

	_, err := svc.RegisterUser(context.Background(), &RegisterUserRequest{
		Name:          "Alice",
		ContactNumber: "91234567",
		DepartmentID:  999,
	})
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestRegisterUserDuplicateContactNumber(t *testing.T) {
	svc, dept := directoryTestSetup(t)

	_, err := svc.RegisterUser(context.Background(), &RegisterUserRequest{
		Name: "Alice", ContactNumber: "91234567", DepartmentID: dept.ID,
	})
	require.NoError(t, err)

	_, err = svc.RegisterUser(context.Background(), &RegisterUserRequest{
		Name: "Bob", ContactNumber: "91234567", DepartmentID: dept.ID,
	})
	require.Error(t, err)
	assert.True(t, errs.IsConflict(err))
}

func TestLoginMissIsASignalNotAnError(t *testing.T) {
	svc, _ := directoryTestSetup(t)

	user, err := svc.Login(context.Background(), "00000000")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestLoginByExactContactNumber(t *testing.T) {
	svc, dept := directoryTestSetup(t)

	registered, err := svc.RegisterUser(context.Background(), &RegisterUserRequest{
		Name: "Alice", ContactNumber: "91234567", DepartmentID: dept.ID,
	})
	require.NoError(t, err)

	user, err := svc.Login(context.Background(), "91234567")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, registered.ID, user.ID)

	// Prefix match is not a match.
	user, err = svc.Login(context.Background(), "9123456")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestDeleteDepartmentBlockedWhileReferenced(t *testing.T) {
	svc, dept := directoryTestSetup(t)

	_, err := svc.RegisterUser(context.Background(), &RegisterUserRequest{
		Name: "Alice", ContactNumber: "91234567", DepartmentID: dept.ID,
	})
	require.NoError(t, err)

	err = svc.DeleteDepartment(context.Background(), dept.ID)
	require.Error(t, err)
	assert.True(t, errs.IsConflict(err))
}
