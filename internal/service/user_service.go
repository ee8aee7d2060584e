package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateUserDTO struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=6"`
	Name         string `json:"name" binding:"required"`
	Role         string `json:"role" binding:"required"`
	DepartmentID string `json:"department_id" binding:"required"`
}

type UpdateUserDTO struct {
	Name         *string `json:"name"`
	Role         *string `json:"role"`
	DepartmentID *string `json:"department_id"`
	IsActive     *bool   `json:"is_active"`
}

type LoginDTO struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordDTO struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

type UserResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	DepartmentID string `json:"department_id"`
	IsActive     bool   `json:"is_active"`
	CreatedAt    string `json:"created_at"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// --- Interface ---

type UserService interface {
	Login(ctx context.Context, req LoginDTO) (*LoginResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	CreateUser(ctx context.Context, req CreateUserDTO) (*UserResponse, error)
	ListUsers(ctx context.Context, departmentID, role, search string) ([]UserResponse, error)
	ListApprovers(ctx context.Context, departmentID string) ([]UserResponse, error)
	UpdateUser(ctx context.Context, id string, req UpdateUserDTO) (*UserResponse, error)
	DeleteUser(ctx context.Context, id string) error
	ChangePassword(ctx context.Context, actor model.Actor, id string, req ChangePasswordDTO) error
}

type userService struct {
	userRepo repository.UserRepository
	deptRepo repository.DepartmentRepository
}

// NewUserService returns a new instance of UserService
func NewUserService(userRepo repository.UserRepository, deptRepo repository.DepartmentRepository) UserService {
	return &userService{userRepo: userRepo, deptRepo: deptRepo}
}

// --- Implementation ---

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

func (s *userService) Login(ctx context.Context, req LoginDTO) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Authorization("invalid credentials")
		}
		return nil, errors.Wrap(err, "lookup user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperror.Authorization("invalid credentials")
	}
	if !user.IsActive {
		return nil, apperror.Authorization("account disabled")
	}

	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"dept": user.DepartmentID.String(),
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(middleware.GetJWTSecret())
	if err != nil {
		return nil, errors.Wrap(err, "sign token")
	}

	log.WithField("email", user.Email).Info("User logged in")
	return &LoginResponse{Token: signed, User: *toUserResponse(user)}, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserDTO) (*UserResponse, error) {
	if !model.ValidRole(req.Role) {
		return nil, apperror.Validation("role", "invalid role")
	}
	email := strings.ToLower(req.Email)
	if !emailRegex.MatchString(email) {
		return nil, apperror.Validation("email", "invalid email format")
	}

	deptID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		return nil, apperror.Validation("department_id", "invalid department id")
	}
	if _, err := s.deptRepo.FindByID(ctx, deptID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Validation("department_id", "department not found")
		}
		return nil, errors.Wrap(err, "lookup department")
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "check email uniqueness")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	user := model.User{
		Email:        email,
		Name:         req.Name,
		Password:     string(hashed),
		Role:         req.Role,
		DepartmentID: deptID,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, &user); err != nil {
		return nil, errors.Wrap(err, "create user")
	}

	return toUserResponse(&user), nil
}

func (s *userService) ListUsers(ctx context.Context, departmentID, role, search string) ([]UserResponse, error) {
	filter := repository.UserFilter{Role: role, Search: search}
	if departmentID != "" {
		deptID, err := uuid.Parse(departmentID)
		if err != nil {
			return nil, apperror.Validation("department_id", "invalid department id")
		}
		filter.DepartmentID = &deptID
	}

	users, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	return toUserResponses(users), nil
}

func (s *userService) ListApprovers(ctx context.Context, departmentID string) ([]UserResponse, error) {
	var deptFilter *uuid.UUID
	if departmentID != "" {
		deptID, err := uuid.Parse(departmentID)
		if err != nil {
			return nil, apperror.Validation("department_id", "invalid department id")
		}
		deptFilter = &deptID
	}

	users, err := s.userRepo.ListApprovers(ctx, deptFilter)
	if err != nil {
		return nil, errors.Wrap(err, "list approvers")
	}
	return toUserResponses(users), nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, req UpdateUserDTO) (*UserResponse, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		if !model.ValidRole(*req.Role) {
			return nil, apperror.Validation("role", "invalid role")
		}
		user.Role = *req.Role
	}
	if req.DepartmentID != nil {
		deptID, err := uuid.Parse(*req.DepartmentID)
		if err != nil {
			return nil, apperror.Validation("department_id", "invalid department id")
		}
		user.DepartmentID = deptID
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, "update user")
	}
	return toUserResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return errors.Wrap(err, "delete user")
	}
	return nil
}

// ChangePassword allows the user itself (with the current password) or an
// administrator (without it) to set a new password.
func (s *userService) ChangePassword(ctx context.Context, actor model.Actor, id string, req ChangePasswordDTO) error {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return err
	}
	if actor.ID != user.ID && !actor.IsAdmin() {
		return apperror.Authorization("not authorized to change this password")
	}
	if actor.ID == user.ID {
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
			return apperror.Validation("current_password", "current password is incorrect")
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	user.Password = string(hashed)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return errors.Wrap(err, "update password")
	}
	return nil
}

// --- Helpers ---

func (s *userService) findUser(ctx context.Context, id string) (*model.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("id", "invalid user id")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, errors.Wrap(err, "lookup user")
	}
	return user, nil
}

func toUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:           user.ID.String(),
		Email:        user.Email,
		Name:         user.Name,
		Role:         user.Role,
		DepartmentID: user.DepartmentID.String(),
		IsActive:     user.IsActive,
		CreatedAt:    user.CreatedAt.Format(timeFormat),
	}
}

func toUserResponses(users []model.User) []UserResponse {
	result := make([]UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *toUserResponse(&users[i]))
	}
	return result
}
