package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Mont3ll/lms-backend/internal/models"
	"github.com/Mont3ll/lms-backend/internal/repositories"
	"github.com/Mont3ll/lms-backend/internal/validator"
	"gorm.io/gorm"
)

type userService struct {
	repo      repositories.Repository
	validator *validator.Validator
	logger    *slog.Logger
}

func NewUserService(repo repositories.Repository, v *validator.Validator, logger *slog.Logger) UserService {
	return &userService{
		repo:      repo,
		validator: v,
		logger:    logger,
	}
}

func (s *userService) Register(ctx context.Context, req *RegisterUserRequest) (*UserResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exists, err := s.repo.User().ExistsByID(ctx, nil, req.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}
	if _, err := s.repo.User().GetByEmail(ctx, nil, req.Email); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check user email: %w", err)
	}

	user := &models.User{
		ID:       req.ID,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
	}
	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.ID, "role", user.Role)
	return toUserResponse(user), nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return toUserResponse(user), nil
}
