package service

import (
	"context"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/pkg/errors"
)

// DashboardStats aggregates request counts for the dashboard. Admins see
// global totals; everyone else sees only requests they participate in.
type DashboardStats struct {
	TotalRequests       int64 `json:"total_requests"`
	PendingRequests     int64 `json:"pending_requests"`
	ApprovedRequests    int64 `json:"approved_requests"`
	RejectedRequests    int64 `json:"rejected_requests"`
	CancelledRequests   int64 `json:"cancelled_requests"`
	MyPendingApprovals  int64 `json:"my_pending_approvals"`
	UnreadNotifications int64 `json:"unread_notifications"`
	TotalUsers          int64 `json:"total_users"`
	TotalTemplates      int64 `json:"total_templates"`
}

type DashboardService interface {
	GetStats(ctx context.Context, actor model.Actor) (*DashboardStats, error)
}

type dashboardService struct {
	requestRepo  repository.RequestRepository
	notifRepo    repository.NotificationRepository
	userRepo     repository.UserRepository
	templateRepo repository.TemplateRepository
}

func NewDashboardService(
	requestRepo repository.RequestRepository,
	notifRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	templateRepo repository.TemplateRepository,
) DashboardService {
	return &dashboardService{
		requestRepo:  requestRepo,
		notifRepo:    notifRepo,
		userRepo:     userRepo,
		templateRepo: templateRepo,
	}
}

func (s *dashboardService) GetStats(ctx context.Context, actor model.Actor) (*DashboardStats, error) {
	var scope *repository.DashboardScope
	if !actor.IsAdmin() {
		scope = &repository.DashboardScope{UserID: actor.ID}
	}

	stats := &DashboardStats{}
	counts := []struct {
		status string
		dest   *int64
	}{
		{"", &stats.TotalRequests},
		{model.RequestStatusInProgress, &stats.PendingRequests},
		{model.RequestStatusApproved, &stats.ApprovedRequests},
		{model.RequestStatusRejected, &stats.RejectedRequests},
		{model.RequestStatusCancelled, &stats.CancelledRequests},
	}
	for _, c := range counts {
		total, err := s.requestRepo.CountByStatus(ctx, c.status, scope)
		if err != nil {
			return nil, errors.Wrap(err, "count requests")
		}
		*c.dest = total
	}

	pendingApprovals, err := s.requestRepo.CountPendingApprovals(ctx, actor.ID)
	if err != nil {
		return nil, errors.Wrap(err, "count pending approvals")
	}
	stats.MyPendingApprovals = pendingApprovals

	unread, err := s.notifRepo.CountUnread(ctx, actor.ID)
	if err != nil {
		return nil, errors.Wrap(err, "count unread notifications")
	}
	stats.UnreadNotifications = unread

	if actor.IsAdmin() {
		if stats.TotalUsers, err = s.userRepo.Count(ctx); err != nil {
			return nil, errors.Wrap(err, "count users")
		}
		if stats.TotalTemplates, err = s.templateRepo.CountActive(ctx); err != nil {
			return nil, errors.Wrap(err, "count templates")
		}
	}

	return stats, nil
}
