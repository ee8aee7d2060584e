package service

import (
	"context"
	"fmt"
	"strings"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes. They implement just enough semantics for the
// service tests: keyed storage, not-found errors and simple counters.

type passTxManager struct{}

func (passTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- users ---

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
	for _, u := range users {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) List(_ context.Context, _ repository.UserFilter) ([]model.User, error) {
	out := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) ListApprovers(_ context.Context, _ *uuid.UUID) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if u.IsActive && model.CanApprove(u.Role) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

// --- departments ---

type fakeDeptRepo struct {
	depts map[uuid.UUID]*model.Department
}

func newFakeDeptRepo(depts ...*model.Department) *fakeDeptRepo {
	r := &fakeDeptRepo{depts: make(map[uuid.UUID]*model.Department)}
	for _, d := range depts {
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		r.depts[d.ID] = d
	}
	return r
}

func (r *fakeDeptRepo) Create(_ context.Context, dept *model.Department) error {
	if dept.ID == uuid.Nil {
		dept.ID = uuid.New()
	}
	r.depts[dept.ID] = dept
	return nil
}

func (r *fakeDeptRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Department, error) {
	dept, ok := r.depts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return dept, nil
}

func (r *fakeDeptRepo) FindByCode(_ context.Context, code string) (*model.Department, error) {
	for _, d := range r.depts {
		if d.Code == code {
			return d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeDeptRepo) List(_ context.Context, activeOnly bool) ([]model.Department, error) {
	var out []model.Department
	for _, d := range r.depts {
		if activeOnly && !d.IsActive {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (r *fakeDeptRepo) Update(_ context.Context, dept *model.Department) error {
	r.depts[dept.ID] = dept
	return nil
}

// --- templates ---

type fakeTemplateRepo struct {
	templates map[uuid.UUID]*model.FormTemplate
}

func newFakeTemplateRepo(templates ...*model.FormTemplate) *fakeTemplateRepo {
	r := &fakeTemplateRepo{templates: make(map[uuid.UUID]*model.FormTemplate)}
	for _, t := range templates {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		r.templates[t.ID] = t
	}
	return r
}

func (r *fakeTemplateRepo) Create(_ context.Context, tmpl *model.FormTemplate) error {
	if tmpl.ID == uuid.Nil {
		tmpl.ID = uuid.New()
	}
	r.templates[tmpl.ID] = tmpl
	return nil
}

func (r *fakeTemplateRepo) FindByID(_ context.Context, id uuid.UUID) (*model.FormTemplate, error) {
	tmpl, ok := r.templates[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *tmpl
	return &copied, nil
}

func (r *fakeTemplateRepo) List(_ context.Context, departmentID *uuid.UUID, activeOnly bool) ([]model.FormTemplate, error) {
	var out []model.FormTemplate
	for _, t := range r.templates {
		if departmentID != nil && t.DepartmentID != *departmentID {
			continue
		}
		if activeOnly && !t.IsActive {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTemplateRepo) Update(_ context.Context, tmpl *model.FormTemplate) error {
	r.templates[tmpl.ID] = tmpl
	return nil
}

func (r *fakeTemplateRepo) CountActive(_ context.Context) (int64, error) {
	var n int64
	for _, t := range r.templates {
		if t.IsActive {
			n++
		}
	}
	return n, nil
}

// --- requests ---

type fakeRequestRepo struct {
	requests   map[uuid.UUID]*model.Request
	nextNumber int
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[uuid.UUID]*model.Request)}
}

func (r *fakeRequestRepo) Create(_ context.Context, req *model.Request) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	for i := range req.Approvals {
		if req.Approvals[i].ID == uuid.Nil {
			req.Approvals[i].ID = uuid.New()
		}
		req.Approvals[i].RequestID = req.ID
	}
	r.requests[req.ID] = req
	return nil
}

func (r *fakeRequestRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Request, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *req
	copied.Approvals = append([]model.Approval(nil), req.Approvals...)
	return &copied, nil
}

func (r *fakeRequestRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeRequestRepo) Update(_ context.Context, req *model.Request) error {
	if _, ok := r.requests[req.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.requests[req.ID] = req
	return nil
}

func (r *fakeRequestRepo) List(_ context.Context, filter repository.RequestFilter) ([]model.Request, int64, error) {
	var out []model.Request
	for _, req := range r.requests {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.RequesterID != nil && req.RequesterID != *filter.RequesterID {
			continue
		}
		out = append(out, *req)
	}
	return out, int64(len(out)), nil
}

func (r *fakeRequestRepo) NextRequestNumber(_ context.Context) (string, error) {
	r.nextNumber++
	return fmt.Sprintf("REQ-%05d", r.nextNumber), nil
}

func (r *fakeRequestRepo) CountInProgressByTemplate(_ context.Context, templateID uuid.UUID) (int64, error) {
	var n int64
	for _, req := range r.requests {
		if req.FormTemplateID == templateID && req.Status == model.RequestStatusInProgress {
			n++
		}
	}
	return n, nil
}

func (r *fakeRequestRepo) CountByStatus(_ context.Context, status string, scope *repository.DashboardScope) (int64, error) {
	var n int64
	for _, req := range r.requests {
		if status != "" && req.Status != status {
			continue
		}
		if scope != nil && req.RequesterID != scope.UserID {
			continue
		}
		n++
	}
	return n, nil
}

func (r *fakeRequestRepo) CountPendingApprovals(_ context.Context, approverID uuid.UUID) (int64, error) {
	var n int64
	for _, req := range r.requests {
		if req.Status != model.RequestStatusInProgress {
			continue
		}
		for _, a := range req.Approvals {
			if a.ApproverID == approverID && a.Status == model.ApprovalStatusPending {
				n++
			}
		}
	}
	return n, nil
}

// --- notifications ---

type fakeNotificationRepo struct {
	notifs []*model.Notification
}

func (r *fakeNotificationRepo) Create(_ context.Context, notif *model.Notification) error {
	if notif.ID == uuid.Nil {
		notif.ID = uuid.New()
	}
	r.notifs = append(r.notifs, notif)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(_ context.Context, userID uuid.UUID, unreadOnly bool, _, _ int) ([]model.Notification, int64, error) {
	var out []model.Notification
	for _, n := range r.notifs {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, *n)
	}
	return out, int64(len(out)), nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, notif := range r.notifs {
		if notif.UserID == userID && !notif.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id, userID uuid.UUID) (int64, error) {
	for _, n := range r.notifs {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return 1, nil
		}
	}
	return 0, nil
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, userID uuid.UUID) error {
	for _, n := range r.notifs {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

// byUser returns the stored notifications for one user
func (r *fakeNotificationRepo) byUser(userID uuid.UUID) []*model.Notification {
	var out []*model.Notification
	for _, n := range r.notifs {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// --- audit ---

type fakeAuditRepo struct {
	entries []*model.AuditLog
}

func (r *fakeAuditRepo) Create(_ context.Context, entry *model.AuditLog) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, _, _ int) ([]model.AuditLog, int64, error) {
	out := make([]model.AuditLog, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}
