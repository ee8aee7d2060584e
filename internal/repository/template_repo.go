package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TemplateRepository interface {
	Create(ctx context.Context, tmpl *model.FormTemplate) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.FormTemplate, error)
	List(ctx context.Context, departmentID *uuid.UUID, activeOnly bool) ([]model.FormTemplate, error)
	Update(ctx context.Context, tmpl *model.FormTemplate) error
	CountActive(ctx context.Context) (int64, error)
}

type templateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(ctx context.Context, tmpl *model.FormTemplate) error {
	return GetDB(ctx, r.db).Create(tmpl).Error
}

func (r *templateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.FormTemplate, error) {
	var tmpl model.FormTemplate
	if err := GetDB(ctx, r.db).First(&tmpl, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (r *templateRepository) List(ctx context.Context, departmentID *uuid.UUID, activeOnly bool) ([]model.FormTemplate, error) {
	query := GetDB(ctx, r.db).Model(&model.FormTemplate{})
	if departmentID != nil {
		query = query.Where("department_id = ?", *departmentID)
	}
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var templates []model.FormTemplate
	if err := query.Order("created_at DESC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *templateRepository) Update(ctx context.Context, tmpl *model.FormTemplate) error {
	return GetDB(ctx, r.db).Save(tmpl).Error
}

func (r *templateRepository) CountActive(ctx context.Context) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.FormTemplate{}).Where("is_active = ?", true).Count(&total).Error
	return total, err
}
