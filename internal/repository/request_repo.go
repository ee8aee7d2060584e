package repository

import (
	"context"
	"fmt"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequestFilter narrows request listings. MyApprovals selects requests with a
// pending approval owned by ActorID.
type RequestFilter struct {
	Status       string
	DepartmentID *uuid.UUID
	RequesterID  *uuid.UUID
	MyApprovals  bool
	ActorID      uuid.UUID
	Search       string
	Page         int
	Limit        int
}

// DashboardScope limits status counts to requests the user participates in.
// A nil scope counts globally.
type DashboardScope struct {
	UserID uuid.UUID
}

type RequestRepository interface {
	Create(ctx context.Context, req *model.Request) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Request, error)
	Update(ctx context.Context, req *model.Request) error
	List(ctx context.Context, filter RequestFilter) ([]model.Request, int64, error)
	NextRequestNumber(ctx context.Context) (string, error)
	CountInProgressByTemplate(ctx context.Context, templateID uuid.UUID) (int64, error)
	CountByStatus(ctx context.Context, status string, scope *DashboardScope) (int64, error)
	CountPendingApprovals(ctx context.Context, approverID uuid.UUID) (int64, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.Request) error {
	// Approvals are inserted with the request via the association
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	err := GetDB(ctx, r.db).
		Preload("Approvals", func(db *gorm.DB) *gorm.DB { return db.Order("approvals.step ASC") }).
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// FindByIDForUpdate locks the request row so concurrent actions on the same
// request serialize; the loser re-reads a terminal state and conflicts.
func (r *requestRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	err = GetDB(ctx, r.db).
		Where("request_id = ?", id).
		Order("step ASC").
		Find(&req.Approvals).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) Update(ctx context.Context, req *model.Request) error {
	db := GetDB(ctx, r.db)
	if err := db.Omit("Approvals").Save(req).Error; err != nil {
		return err
	}
	for i := range req.Approvals {
		if err := db.Save(&req.Approvals[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]model.Request, int64, error) {
	db := GetDB(ctx, r.db)

	build := func() *gorm.DB {
		query := db.Model(&model.Request{})
		if filter.Status != "" {
			query = query.Where("requests.status = ?", filter.Status)
		}
		if filter.DepartmentID != nil {
			query = query.Where("requests.department_id = ?", *filter.DepartmentID)
		}
		if filter.RequesterID != nil {
			query = query.Where("requests.requester_id = ?", *filter.RequesterID)
		}
		if filter.MyApprovals {
			query = query.
				Joins("JOIN approvals ON approvals.request_id = requests.id").
				Where("approvals.approver_id = ? AND approvals.status = ?", filter.ActorID, model.ApprovalStatusPending).
				Where("requests.status = ?", model.RequestStatusInProgress)
		}
		if filter.Search != "" {
			like := "%" + filter.Search + "%"
			query = query.Where("requests.title ILIKE ? OR requests.request_number ILIKE ?", like, like)
		}
		return query
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	offset := (filter.Page - 1) * filter.Limit

	var requests []model.Request
	err := build().
		Preload("Approvals", func(db *gorm.DB) *gorm.DB { return db.Order("approvals.step ASC") }).
		Order("requests.created_at DESC").
		Offset(offset).
		Limit(filter.Limit).
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// NextRequestNumber issues the next human-readable request number. An
// advisory lock guards the counter against concurrent submissions.
func (r *requestRepository) NextRequestNumber(ctx context.Context) (string, error) {
	db := GetDB(ctx, r.db)
	db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "request_number")

	var count int64
	if err := db.Model(&model.Request{}).Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("REQ-%05d", count+1), nil
}

func (r *requestRepository) CountInProgressByTemplate(ctx context.Context, templateID uuid.UUID) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Request{}).
		Where("form_template_id = ? AND status = ?", templateID, model.RequestStatusInProgress).
		Count(&total).Error
	return total, err
}

func (r *requestRepository) CountByStatus(ctx context.Context, status string, scope *DashboardScope) (int64, error) {
	query := GetDB(ctx, r.db).Model(&model.Request{})
	if status != "" {
		query = query.Where("requests.status = ?", status)
	}
	if scope != nil {
		query = query.Where(
			"requests.requester_id = ? OR EXISTS (SELECT 1 FROM approvals WHERE approvals.request_id = requests.id AND approvals.approver_id = ?)",
			scope.UserID, scope.UserID,
		)
	}

	var total int64
	err := query.Count(&total).Error
	return total, err
}

func (r *requestRepository) CountPendingApprovals(ctx context.Context, approverID uuid.UUID) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Request{}).
		Joins("JOIN approvals ON approvals.request_id = requests.id").
		Where("approvals.approver_id = ? AND approvals.status = ?", approverID, model.ApprovalStatusPending).
		Where("requests.status = ?", model.RequestStatusInProgress).
		Count(&total).Error
	return total, err
}
