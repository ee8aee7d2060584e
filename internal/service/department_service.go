package service

import (
	"context"
	"strings"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateDepartmentDTO struct {
	Name        string `json:"name" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Description string `json:"description"`
}

type UpdateDepartmentDTO struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// --- Interface ---

type DepartmentService interface {
	Create(ctx context.Context, req CreateDepartmentDTO) (*model.Department, error)
	List(ctx context.Context, includeInactive bool) ([]model.Department, error)
	Update(ctx context.Context, id string, req UpdateDepartmentDTO) (*model.Department, error)
}

type departmentService struct {
	deptRepo repository.DepartmentRepository
}

func NewDepartmentService(deptRepo repository.DepartmentRepository) DepartmentService {
	return &departmentService{deptRepo: deptRepo}
}

// --- Implementation ---

func (s *departmentService) Create(ctx context.Context, req CreateDepartmentDTO) (*model.Department, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, apperror.Validation("code", "department code is required")
	}

	if _, err := s.deptRepo.FindByCode(ctx, code); err == nil {
		return nil, apperror.Conflict("department code already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "check department code")
	}

	dept := model.Department{
		Code:        code,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	if err := s.deptRepo.Create(ctx, &dept); err != nil {
		return nil, errors.Wrap(err, "create department")
	}
	return &dept, nil
}

func (s *departmentService) List(ctx context.Context, includeInactive bool) ([]model.Department, error) {
	depts, err := s.deptRepo.List(ctx, !includeInactive)
	if err != nil {
		return nil, errors.Wrap(err, "list departments")
	}
	return depts, nil
}

// Update changes display fields only; the code is immutable after creation
func (s *departmentService) Update(ctx context.Context, id string, req UpdateDepartmentDTO) (*model.Department, error) {
	deptID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("id", "invalid department id")
	}
	dept, err := s.deptRepo.FindByID(ctx, deptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("department not found")
		}
		return nil, errors.Wrap(err, "lookup department")
	}

	if req.Name != nil {
		dept.Name = *req.Name
	}
	if req.Description != nil {
		dept.Description = *req.Description
	}
	if req.IsActive != nil {
		dept.IsActive = *req.IsActive
	}

	if err := s.deptRepo.Update(ctx, dept); err != nil {
		return nil, errors.Wrap(err, "update department")
	}
	return dept, nil
}
