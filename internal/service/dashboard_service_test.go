package service

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
)

func TestDashboardStatsScopedToNonAdmin(t *testing.T) {
	f := twoStepFixture(t)
	f.createRequest(t)
	ctx := context.Background()

	// A request from someone else must not show up in the requester's counts.
	if err := f.requests.Create(ctx, &model.Request{
		RequesterID: uuid.New(),
		Status:      model.RequestStatusInProgress,
	}); err != nil {
		t.Fatal(err)
	}

	svc := NewDashboardService(f.requests, f.notifs, newFakeUserRepo(f.requester, f.approver1, f.approver2), f.templates)

	stats, err := svc.GetStats(ctx, model.Actor{ID: f.requester.ID, Role: model.RoleRequestor})
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalRequests != 1 || stats.PendingRequests != 1 {
		t.Errorf("total=%d pending=%d, want 1/1", stats.TotalRequests, stats.PendingRequests)
	}
	if stats.TotalUsers != 0 || stats.TotalTemplates != 0 {
		t.Errorf("non-admin got admin-only counts: users=%d templates=%d", stats.TotalUsers, stats.TotalTemplates)
	}

	approverStats, err := svc.GetStats(ctx, model.Actor{ID: f.approver1.ID, Role: model.RoleApprover})
	if err != nil {
		t.Fatal(err)
	}
	if approverStats.MyPendingApprovals != 1 {
		t.Errorf("pending approvals = %d, want 1", approverStats.MyPendingApprovals)
	}
}

func TestDashboardStatsAdminSeesEverything(t *testing.T) {
	f := twoStepFixture(t)
	f.createRequest(t)
	ctx := context.Background()

	if err := f.requests.Create(ctx, &model.Request{
		RequesterID: uuid.New(),
		Status:      model.RequestStatusRejected,
	}); err != nil {
		t.Fatal(err)
	}

	svc := NewDashboardService(f.requests, f.notifs, newFakeUserRepo(f.requester, f.approver1, f.approver2), f.templates)

	stats, err := svc.GetStats(ctx, model.Actor{ID: uuid.New(), Role: model.RoleSuperAdmin})
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalRequests != 2 || stats.RejectedRequests != 1 {
		t.Errorf("total=%d rejected=%d, want 2/1", stats.TotalRequests, stats.RejectedRequests)
	}
	if stats.TotalUsers != 3 {
		t.Errorf("users = %d, want 3", stats.TotalUsers)
	}
	if stats.TotalTemplates != 1 {
		t.Errorf("templates = %d, want 1", stats.TotalTemplates)
	}
}
