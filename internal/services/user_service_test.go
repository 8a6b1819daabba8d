package services

import (
	"context"
	"sync"
	"testing"

	"github.com/Mont3ll/lms-backend/internal/models"
	"github.com/Mont3ll/lms-backend/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ===== IN-MEMORY USER REPOSITORY =====

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) ExistsByID(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeUserRepo) HasRole(ctx context.Context, tx *gorm.DB, id string, role models.UserRole) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	return ok && user.Role == role, nil
}

func seedUser(t *testing.T, repo *fakeRepository, id string, role models.UserRole) {
	t.Helper()
	require.NoError(t, repo.user.Create(context.Background(), nil, &models.User{
		ID:    id,
		Email: id + "@example.com",
		Role:  role,
	}))
}

// ===== TESTS =====

func newTestUserService(repo *fakeRepository) UserService {
	return NewUserService(repo, validator.New(), testLogger())
}

func TestRegisterUser(t *testing.T) {
	repo := newFakeRepository()
	service := newTestUserService(repo)

	user, err := service.Register(context.Background(), &RegisterUserRequest{
		ID:       "student-1",
		Email:    "student-1@example.com",
		FullName: "Sam Student",
		Role:     models.RoleStudent,
	})
	require.NoError(t, err)

	assert.Equal(t, "student-1", user.ID)
	assert.Equal(t, models.RoleStudent, user.Role)

	stored, err := repo.user.GetByID(context.Background(), nil, "student-1")
	require.NoError(t, err)
	assert.Equal(t, "student-1@example.com", stored.Email)
}

func TestRegisterUser_DuplicateID(t *testing.T) {
	repo := newFakeRepository()
	service := newTestUserService(repo)
	seedUser(t, repo, "student-1", models.RoleStudent)

	_, err := service.Register(context.Background(), &RegisterUserRequest{
		ID:    "student-1",
		Email: "other@example.com",
		Role:  models.RoleStudent,
	})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegisterUser_DuplicateEmail(t *testing.T) {
	repo := newFakeRepository()
	service := newTestUserService(repo)
	seedUser(t, repo, "student-1", models.RoleStudent)

	_, err := service.Register(context.Background(), &RegisterUserRequest{
		ID:    "student-2",
		Email: "student-1@example.com",
		Role:  models.RoleStudent,
	})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegisterUser_InvalidRole(t *testing.T) {
	repo := newFakeRepository()
	service := newTestUserService(repo)

	_, err := service.Register(context.Background(), &RegisterUserRequest{
		ID:    "root-1",
		Email: "root-1@example.com",
		Role:  models.UserRole("root"),
	})
	assert.True(t, IsValidation(err))
}

func TestGetUserByID_NotFound(t *testing.T) {
	repo := newFakeRepository()
	service := newTestUserService(repo)

	_, err := service.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
