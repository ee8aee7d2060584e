package service

import (
	"context"
	"encoding/json"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRequestDTO struct {
	FormTemplateID string                 `json:"form_template_id" binding:"required"`
	Title          string                 `json:"title" binding:"required"`
	FormData       map[string]interface{} `json:"form_data" binding:"required"`
	Notes          string                 `json:"notes"`
	Priority       string                 `json:"priority"`
}

type RequestActionDTO struct {
	Action   string `json:"action" binding:"required,oneof=approve reject"`
	Comments string `json:"comments"`
}

type RequestListFilter struct {
	Status       string
	DepartmentID string
	MyRequests   bool
	MyApprovals  bool
	Search       string
	Page         int
	Limit        int
}

type ApprovalResponse struct {
	Step         int     `json:"step"`
	ApproverID   string  `json:"approver_id"`
	ApproverName string  `json:"approver_name"`
	Status       string  `json:"status"`
	Comments     string  `json:"comments"`
	ActedAt      *string `json:"acted_at"`
}

type RequestResponse struct {
	ID                    string                 `json:"id"`
	RequestNumber         string                 `json:"request_number"`
	FormTemplateID        string                 `json:"form_template_id"`
	FormTemplateName      string                 `json:"form_template_name"`
	DepartmentID          string                 `json:"department_id"`
	RequesterID           string                 `json:"requester_id"`
	RequesterName         string                 `json:"requester_name"`
	RequesterDepartmentID string                 `json:"requester_department_id"`
	Title                 string                 `json:"title"`
	FormData              map[string]interface{} `json:"form_data"`
	Notes                 string                 `json:"notes"`
	Priority              string                 `json:"priority"`
	Status                string                 `json:"status"`
	CurrentApprovalStep   int                    `json:"current_approval_step"`
	TotalApprovalSteps    int                    `json:"total_approval_steps"`
	Approvals             []ApprovalResponse     `json:"approvals"`
	CreatedAt             string                 `json:"created_at"`
	UpdatedAt             string                 `json:"updated_at"`
}

// --- Interface ---

// RequestService is the sequential-approval state machine. Every mutation of
// a request and its approval chain goes through here, as one atomic unit of
// work per action.
type RequestService interface {
	CreateRequest(ctx context.Context, actor model.Actor, req CreateRequestDTO) (*RequestResponse, error)
	GetRequest(ctx context.Context, id string) (*RequestResponse, error)
	ListRequests(ctx context.Context, actor model.Actor, filter RequestListFilter) ([]RequestResponse, int64, error)
	ActOnRequest(ctx context.Context, actor model.Actor, id string, action RequestActionDTO) (*RequestResponse, error)
	CancelRequest(ctx context.Context, actor model.Actor, id string) (*RequestResponse, error)
}

type requestService struct {
	requestRepo  repository.RequestRepository
	templateRepo repository.TemplateRepository
	userRepo     repository.UserRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	notifier     NotificationService
	hub          *ws.Hub
}

func NewRequestService(
	requestRepo repository.RequestRepository,
	templateRepo repository.TemplateRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier NotificationService,
	hub *ws.Hub,
) RequestService {
	return &requestService{
		requestRepo:  requestRepo,
		templateRepo: templateRepo,
		userRepo:     userRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		notifier:     notifier,
		hub:          hub,
	}
}

// --- Implementation ---

func (s *requestService) CreateRequest(ctx context.Context, actor model.Actor, req CreateRequestDTO) (*RequestResponse, error) {
	templateID, err := uuid.Parse(req.FormTemplateID)
	if err != nil {
		return nil, apperror.Validation("form_template_id", "invalid template id")
	}
	tmpl, err := s.templateRepo.FindByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Validation("form_template_id", "form template not found")
		}
		return nil, errors.Wrap(err, "lookup template")
	}
	if !tmpl.IsActive {
		return nil, apperror.Validation("form_template_id", "form template is inactive")
	}

	fields, err := tmpl.FieldDefs()
	if err != nil {
		return nil, err
	}
	if err := ValidateSubmission(fields, req.Title, req.FormData); err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = model.PriorityNormal
	}
	if !model.ValidPriority(priority) {
		return nil, apperror.Validation("priority", "priority must be low, normal, high or urgent")
	}

	requester, err := s.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, errors.Wrap(err, "lookup requester")
	}

	chain, err := tmpl.Chain()
	if err != nil {
		return nil, err
	}
	approvals, status, currentStep := model.BuildApprovals(chain)

	formData, err := json.Marshal(req.FormData)
	if err != nil {
		return nil, apperror.Validation("form_data", "form data is not serializable")
	}

	request := model.Request{
		FormTemplateID:        tmpl.ID,
		FormTemplateName:      tmpl.Name,
		DepartmentID:          tmpl.DepartmentID,
		RequesterID:           requester.ID,
		RequesterName:         requester.Name,
		RequesterDepartmentID: requester.DepartmentID,
		Title:                 req.Title,
		FormData:              string(formData),
		Notes:                 req.Notes,
		Priority:              priority,
		Status:                status,
		CurrentApprovalStep:   currentStep,
		TotalApprovalSteps:    len(approvals),
		Approvals:             approvals,
	}

	var created []model.Notification
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		number, err := s.requestRepo.NextRequestNumber(txCtx)
		if err != nil {
			return errors.Wrap(err, "issue request number")
		}
		request.RequestNumber = number

		if err := s.requestRepo.Create(txCtx, &request); err != nil {
			return errors.Wrap(err, "create request")
		}
		created, err = s.notifier.NotifyCreated(txCtx, &request)
		if err != nil {
			return err
		}
		return s.writeAudit(txCtx, actor, model.ActionCreateRequest, &request, map[string]interface{}{
			"template_id": request.FormTemplateID.String(),
			"steps":       request.TotalApprovalSteps,
		})
	})
	if err != nil {
		return nil, err
	}

	s.hub.Publish(ws.EventRequestCreated, ws.EventPayload{RequestID: request.ID, UserID: request.RequesterID})
	s.notifier.DeliverAfterCommit(created)

	log.WithFields(log.Fields{
		"request_number": request.RequestNumber,
		"status":         request.Status,
	}).Info("Request created")
	return toRequestResponse(&request)
}

func (s *requestService) GetRequest(ctx context.Context, id string) (*RequestResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("id", "invalid request id")
	}
	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("request not found")
		}
		return nil, errors.Wrap(err, "lookup request")
	}
	return toRequestResponse(request)
}

func (s *requestService) ListRequests(ctx context.Context, actor model.Actor, filter RequestListFilter) ([]RequestResponse, int64, error) {
	repoFilter := repository.RequestFilter{
		Status:      filter.Status,
		MyApprovals: filter.MyApprovals,
		ActorID:     actor.ID,
		Search:      filter.Search,
		Page:        filter.Page,
		Limit:       filter.Limit,
	}
	if filter.DepartmentID != "" {
		deptID, err := uuid.Parse(filter.DepartmentID)
		if err != nil {
			return nil, 0, apperror.Validation("department_id", "invalid department id")
		}
		repoFilter.DepartmentID = &deptID
	}
	if filter.MyRequests {
		requesterID := actor.ID
		repoFilter.RequesterID = &requesterID
	}

	requests, total, err := s.requestRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list requests")
	}

	result := make([]RequestResponse, 0, len(requests))
	for i := range requests {
		resp, err := toRequestResponse(&requests[i])
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *resp)
	}
	return result, total, nil
}

// ActOnRequest applies an approve or reject decision by the current pending
// approver. The row lock serializes racing actors; the loser re-reads a
// state that no longer matches its precondition and conflicts.
func (s *requestService) ActOnRequest(ctx context.Context, actor model.Actor, id string, action RequestActionDTO) (*RequestResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("id", "invalid request id")
	}

	var (
		request *model.Request
		created []model.Notification
	)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err = s.requestRepo.FindByIDForUpdate(txCtx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("request not found")
			}
			return errors.Wrap(err, "lock request")
		}

		now := time.Now().UTC()
		var auditAction string
		switch action.Action {
		case "approve":
			next, err := request.Approve(actor.ID, action.Comments, now)
			if err != nil {
				return err
			}
			created, err = s.notifier.NotifyApproved(txCtx, request, next)
			if err != nil {
				return err
			}
			auditAction = model.ActionApproveRequest
		case "reject":
			decided, err := request.Reject(actor.ID, action.Comments, now)
			if err != nil {
				return err
			}
			created, err = s.notifier.NotifyRejected(txCtx, request, decided)
			if err != nil {
				return err
			}
			auditAction = model.ActionRejectRequest
		default:
			return apperror.Validation("action", "action must be 'approve' or 'reject'")
		}

		if err := s.requestRepo.Update(txCtx, request); err != nil {
			return errors.Wrap(err, "update request")
		}
		return s.writeAudit(txCtx, actor, auditAction, request, map[string]interface{}{
			"step":     request.CurrentApprovalStep,
			"comments": action.Comments,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishTransition(request)
	s.notifier.DeliverAfterCommit(created)

	log.WithFields(log.Fields{
		"request_number": request.RequestNumber,
		"action":         action.Action,
		"status":         request.Status,
	}).Info("Request acted upon")
	return toRequestResponse(request)
}

func (s *requestService) CancelRequest(ctx context.Context, actor model.Actor, id string) (*RequestResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("id", "invalid request id")
	}

	var request *model.Request
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err = s.requestRepo.FindByIDForUpdate(txCtx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("request not found")
			}
			return errors.Wrap(err, "lock request")
		}
		if err := request.Cancel(actor.ID); err != nil {
			return err
		}
		if err := s.requestRepo.Update(txCtx, request); err != nil {
			return errors.Wrap(err, "update request")
		}
		// Cancellation records no notification: the requester initiated it
		return s.writeAudit(txCtx, actor, model.ActionCancelRequest, request, nil)
	})
	if err != nil {
		return nil, err
	}

	s.hub.Publish(ws.EventRequestCancelled, ws.EventPayload{RequestID: request.ID, UserID: actor.ID})

	log.WithField("request_number", request.RequestNumber).Info("Request cancelled")
	return toRequestResponse(request)
}

// --- Helpers ---

// publishTransition maps the post-action state to its change event
func (s *requestService) publishTransition(request *model.Request) {
	payload := ws.EventPayload{RequestID: request.ID, UserID: request.RequesterID}
	switch request.Status {
	case model.RequestStatusApproved:
		s.hub.Publish(ws.EventRequestApproved, payload)
	case model.RequestStatusRejected:
		s.hub.Publish(ws.EventRequestRejected, payload)
	default:
		s.hub.Publish(ws.EventRequestStateChanged, payload)
	}
}

func (s *requestService) writeAudit(ctx context.Context, actor model.Actor, action string, request *model.Request, extra map[string]interface{}) error {
	details, _ := json.Marshal(extra)
	entry := model.AuditLog{
		UserID:     &actor.ID,
		Action:     action,
		EntityID:   request.ID.String(),
		EntityName: request.RequestNumber,
		Details:    string(details),
	}
	if err := s.auditRepo.Create(ctx, &entry); err != nil {
		return errors.Wrap(err, "write audit log")
	}
	return nil
}

func toRequestResponse(request *model.Request) (*RequestResponse, error) {
	var formData map[string]interface{}
	if request.FormData != "" {
		if err := json.Unmarshal([]byte(request.FormData), &formData); err != nil {
			return nil, errors.Wrapf(err, "request %s has malformed form data", request.ID)
		}
	}

	approvals := make([]ApprovalResponse, 0, len(request.Approvals))
	for _, a := range request.Approvals {
		resp := ApprovalResponse{
			Step:         a.Step,
			ApproverID:   a.ApproverID.String(),
			ApproverName: a.ApproverName,
			Status:       a.Status,
			Comments:     a.Comments,
		}
		if a.ActedAt != nil {
			acted := a.ActedAt.Format(timeFormat)
			resp.ActedAt = &acted
		}
		approvals = append(approvals, resp)
	}

	return &RequestResponse{
		ID:                    request.ID.String(),
		RequestNumber:         request.RequestNumber,
		FormTemplateID:        request.FormTemplateID.String(),
		FormTemplateName:      request.FormTemplateName,
		DepartmentID:          request.DepartmentID.String(),
		RequesterID:           request.RequesterID.String(),
		RequesterName:         request.RequesterName,
		RequesterDepartmentID: request.RequesterDepartmentID.String(),
		Title:                 request.Title,
		FormData:              formData,
		Notes:                 request.Notes,
		Priority:              request.Priority,
		Status:                request.Status,
		CurrentApprovalStep:   request.CurrentApprovalStep,
		TotalApprovalSteps:    request.TotalApprovalSteps,
		Approvals:             approvals,
		CreatedAt:             request.CreatedAt.Format(timeFormat),
		UpdatedAt:             request.UpdatedAt.Format(timeFormat),
	}, nil
}
