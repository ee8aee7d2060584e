package service

import (
	"context"
	"encoding/json"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// --- DTOs ---

type TemplateFieldDTO struct {
	Label         string   `json:"label" binding:"required"`
	Type          string   `json:"type" binding:"required"`
	Required      bool     `json:"required"`
	Options       []string `json:"options"`
	TableTitle    string   `json:"table_title"`
	ColumnHeaders []string `json:"column_headers"`
	NumRows       int      `json:"num_rows"`
}

type ApproverSlotDTO struct {
	Step   int    `json:"step" binding:"required"`
	UserID string `json:"user_id" binding:"required"`
}

type CreateTemplateDTO struct {
	DepartmentID  string             `json:"department_id" binding:"required"`
	Name          string             `json:"name" binding:"required"`
	Description   string             `json:"description"`
	Fields        []TemplateFieldDTO `json:"fields"`
	ApproverChain []ApproverSlotDTO  `json:"approver_chain"`
}

type UpdateTemplateDTO struct {
	Name          *string             `json:"name"`
	Description   *string             `json:"description"`
	Fields        *[]TemplateFieldDTO `json:"fields"`
	ApproverChain *[]ApproverSlotDTO  `json:"approver_chain"`
	IsActive      *bool               `json:"is_active"`
}

type TemplateResponse struct {
	ID            string               `json:"id"`
	DepartmentID  string               `json:"department_id"`
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	Fields        []model.FieldDef     `json:"fields"`
	ApproverChain []model.ApproverSlot `json:"approver_chain"`
	IsActive      bool                 `json:"is_active"`
	CreatedAt     string               `json:"created_at"`
}

// --- Interface ---

// TemplateService owns form schema definitions per department: what a
// request built from a template must contain and who approves it.
type TemplateService interface {
	Create(ctx context.Context, actor model.Actor, req CreateTemplateDTO) (*TemplateResponse, error)
	Update(ctx context.Context, actor model.Actor, id string, req UpdateTemplateDTO) (*TemplateResponse, error)
	Get(ctx context.Context, id string) (*TemplateResponse, error)
	List(ctx context.Context, departmentID string, includeInactive bool) ([]TemplateResponse, error)
	Delete(ctx context.Context, actor model.Actor, id string) error
}

type templateService struct {
	templateRepo repository.TemplateRepository
	deptRepo     repository.DepartmentRepository
	userRepo     repository.UserRepository
	requestRepo  repository.RequestRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewTemplateService(
	templateRepo repository.TemplateRepository,
	deptRepo repository.DepartmentRepository,
	userRepo repository.UserRepository,
	requestRepo repository.RequestRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) TemplateService {
	return &templateService{
		templateRepo: templateRepo,
		deptRepo:     deptRepo,
		userRepo:     userRepo,
		requestRepo:  requestRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

// --- Implementation ---

func (s *templateService) Create(ctx context.Context, actor model.Actor, req CreateTemplateDTO) (*TemplateResponse, error) {
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

	fields, err := s.buildFields(req.Fields)
	if err != nil {
		return nil, err
	}
	chain, err := s.buildChain(ctx, req.ApproverChain)
	if err != nil {
		return nil, err
	}

	tmpl := model.FormTemplate{
		DepartmentID: deptID,
		Name:         req.Name,
		Description:  req.Description,
		IsActive:     true,
	}
	if err := tmpl.SetFields(fields); err != nil {
		return nil, err
	}
	if err := tmpl.SetChain(chain); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.templateRepo.Create(txCtx, &tmpl); err != nil {
			return errors.Wrap(err, "create template")
		}
		return s.writeAudit(txCtx, actor, model.ActionCreateTemplate, &tmpl, map[string]interface{}{
			"fields": len(fields),
			"steps":  len(chain),
		})
	})
	if err != nil {
		return nil, err
	}

	log.WithField("template_id", tmpl.ID).Info("Form template created")
	return toTemplateResponse(&tmpl)
}

func (s *templateService) Update(ctx context.Context, actor model.Actor, id string, req UpdateTemplateDTO) (*TemplateResponse, error) {
	tmpl, err := s.findTemplate(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		tmpl.Name = *req.Name
	}
	if req.Description != nil {
		tmpl.Description = *req.Description
	}
	if req.Fields != nil {
		fields, err := s.buildFields(*req.Fields)
		if err != nil {
			return nil, err
		}
		if err := tmpl.SetFields(fields); err != nil {
			return nil, err
		}
	}
	if req.ApproverChain != nil {
		chain, err := s.buildChain(ctx, *req.ApproverChain)
		if err != nil {
			return nil, err
		}
		if err := tmpl.SetChain(chain); err != nil {
			return nil, err
		}
	}
	if req.IsActive != nil {
		tmpl.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.templateRepo.Update(txCtx, tmpl); err != nil {
			return errors.Wrap(err, "update template")
		}
		return s.writeAudit(txCtx, actor, model.ActionUpdateTemplate, tmpl, nil)
	})
	if err != nil {
		return nil, err
	}

	return toTemplateResponse(tmpl)
}

func (s *templateService) Get(ctx context.Context, id string) (*TemplateResponse, error) {
	tmpl, err := s.findTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	return toTemplateResponse(tmpl)
}

func (s *templateService) List(ctx context.Context, departmentID string, includeInactive bool) ([]TemplateResponse, error) {
	var deptFilter *uuid.UUID
	if departmentID != "" {
		deptID, err := uuid.Parse(departmentID)
		if err != nil {
			return nil, apperror.Validation("department_id", "invalid department id")
		}
		deptFilter = &deptID
	}

	templates, err := s.templateRepo.List(ctx, deptFilter, !includeInactive)
	if err != nil {
		return nil, errors.Wrap(err, "list templates")
	}

	result := make([]TemplateResponse, 0, len(templates))
	for i := range templates {
		resp, err := toTemplateResponse(&templates[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *resp)
	}
	return result, nil
}

// Delete soft-deletes a template so requests created from it stay
// resolvable. A template still referenced by an in-progress request cannot
// be removed.
func (s *templateService) Delete(ctx context.Context, actor model.Actor, id string) error {
	tmpl, err := s.findTemplate(ctx, id)
	if err != nil {
		return err
	}

	inProgress, err := s.requestRepo.CountInProgressByTemplate(ctx, tmpl.ID)
	if err != nil {
		return errors.Wrap(err, "count in-progress requests")
	}
	if inProgress > 0 {
		return apperror.Conflict("template has %d in-progress requests", inProgress)
	}

	tmpl.IsActive = false
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.templateRepo.Update(txCtx, tmpl); err != nil {
			return errors.Wrap(err, "deactivate template")
		}
		return s.writeAudit(txCtx, actor, model.ActionDeleteTemplate, tmpl, nil)
	})
	if err != nil {
		return err
	}

	log.WithField("template_id", tmpl.ID).Info("Form template deactivated")
	return nil
}

// --- Helpers ---

func (s *templateService) findTemplate(ctx context.Context, id string) (*model.FormTemplate, error) {
	tmplID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("id", "invalid template id")
	}
	tmpl, err := s.templateRepo.FindByID(ctx, tmplID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("template not found")
		}
		return nil, errors.Wrap(err, "lookup template")
	}
	return tmpl, nil
}

// buildFields normalizes the submitted field list (slugged names, collision
// fallback) and validates the schema rules.
func (s *templateService) buildFields(dtos []TemplateFieldDTO) ([]model.FieldDef, error) {
	fields := make([]model.FieldDef, 0, len(dtos))
	for _, dto := range dtos {
		fields = append(fields, model.FieldDef{
			Label:         dto.Label,
			Type:          dto.Type,
			Required:      dto.Required,
			Options:       dto.Options,
			TableTitle:    dto.TableTitle,
			ColumnHeaders: dto.ColumnHeaders,
			NumRows:       dto.NumRows,
		})
	}
	fields = model.NormalizeFields(fields)
	if err := model.ValidateFields(fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// buildChain resolves approver users, re-numbers the slots densely and
// validates the chain bounds.
func (s *templateService) buildChain(ctx context.Context, dtos []ApproverSlotDTO) ([]model.ApproverSlot, error) {
	chain := make([]model.ApproverSlot, 0, len(dtos))
	for _, dto := range dtos {
		userID, err := uuid.Parse(dto.UserID)
		if err != nil {
			return nil, apperror.Validation("approver_chain", "step %d has an invalid user id", dto.Step)
		}
		user, err := s.userRepo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.Validation("approver_chain", "step %d approver not found", dto.Step)
			}
			return nil, errors.Wrap(err, "lookup approver")
		}
		if !model.CanApprove(user.Role) {
			return nil, apperror.Validation("approver_chain", "user %s cannot act as an approver", user.Name)
		}
		chain = append(chain, model.ApproverSlot{
			Step:     dto.Step,
			UserID:   user.ID,
			UserName: user.Name,
		})
	}
	chain = model.NormalizeChain(chain)
	if err := model.ValidateChain(chain); err != nil {
		return nil, err
	}
	return chain, nil
}

func (s *templateService) writeAudit(ctx context.Context, actor model.Actor, action string, tmpl *model.FormTemplate, extra map[string]interface{}) error {
	details, _ := json.Marshal(extra)
	entry := model.AuditLog{
		UserID:     &actor.ID,
		Action:     action,
		EntityID:   tmpl.ID.String(),
		EntityName: tmpl.Name,
		Details:    string(details),
	}
	if err := s.auditRepo.Create(ctx, &entry); err != nil {
		return errors.Wrap(err, "write audit log")
	}
	return nil
}

func toTemplateResponse(tmpl *model.FormTemplate) (*TemplateResponse, error) {
	fields, err := tmpl.FieldDefs()
	if err != nil {
		return nil, err
	}
	chain, err := tmpl.Chain()
	if err != nil {
		return nil, err
	}
	if chain == nil {
		chain = []model.ApproverSlot{}
	}
	return &TemplateResponse{
		ID:            tmpl.ID.String(),
		DepartmentID:  tmpl.DepartmentID.String(),
		Name:          tmpl.Name,
		Description:   tmpl.Description,
		Fields:        fields,
		ApproverChain: chain,
		IsActive:      tmpl.IsActive,
		CreatedAt:     tmpl.CreatedAt.Format(timeFormat),
	}, nil
}
