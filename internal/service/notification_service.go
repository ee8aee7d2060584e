package service

import (
	"context"
	"fmt"

	"backend/internal/mailer"
	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// --- DTOs ---

type NotificationListResponse struct {
	Items       []model.Notification `json:"items"`
	Total       int64                `json:"total"`
	UnreadCount int64                `json:"unread_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
}

// --- Interface ---

// NotificationService records per-user notifications as approval chains
// progress and serves the notification inbox. The NotifyX methods run inside
// the engine's transaction; DeliverAfterCommit handles the best-effort side
// channels (change events, email) once the transaction is durable.
type NotificationService interface {
	NotifyCreated(ctx context.Context, req *model.Request) ([]model.Notification, error)
	NotifyApproved(ctx context.Context, req *model.Request, next *model.Approval) ([]model.Notification, error)
	NotifyRejected(ctx context.Context, req *model.Request, decided *model.Approval) ([]model.Notification, error)
	DeliverAfterCommit(notifs []model.Notification)

	List(ctx context.Context, actor model.Actor, unreadOnly bool, page, limit int) (*NotificationListResponse, error)
	MarkRead(ctx context.Context, actor model.Actor, id string) error
	MarkAllRead(ctx context.Context, actor model.Actor) error
}

type notificationService struct {
	notifRepo repository.NotificationRepository
	userRepo  repository.UserRepository
	mail      mailer.Provider
	hub       *ws.Hub
}

func NewNotificationService(
	notifRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	mail mailer.Provider,
	hub *ws.Hub,
) NotificationService {
	return &notificationService{
		notifRepo: notifRepo,
		userRepo:  userRepo,
		mail:      mail,
		hub:       hub,
	}
}

// --- Dispatch ---

func (s *notificationService) NotifyCreated(ctx context.Context, req *model.Request) ([]model.Notification, error) {
	if req.Status == model.RequestStatusApproved {
		// Empty chain: the request was born approved, tell the requester
		return s.record(ctx, req.RequesterID, model.NotifTypeRequestApproved, req,
			fmt.Sprintf("Your request '%s' has been fully approved!", req.Title))
	}
	current := req.CurrentApproval()
	if current == nil {
		return nil, nil
	}
	return s.record(ctx, current.ApproverID, model.NotifTypeApprovalRequired, req,
		fmt.Sprintf("New request '%s' from %s requires your approval", req.Title, req.RequesterName))
}

func (s *notificationService) NotifyApproved(ctx context.Context, req *model.Request, next *model.Approval) ([]model.Notification, error) {
	if next != nil {
		return s.record(ctx, next.ApproverID, model.NotifTypeApprovalRequired, req,
			fmt.Sprintf("Request '%s' requires your approval (Step %d)", req.Title, next.Step))
	}
	return s.record(ctx, req.RequesterID, model.NotifTypeRequestApproved, req,
		fmt.Sprintf("Your request '%s' has been fully approved!", req.Title))
}

func (s *notificationService) NotifyRejected(ctx context.Context, req *model.Request, decided *model.Approval) ([]model.Notification, error) {
	message := fmt.Sprintf("Your request '%s' was rejected by %s", req.Title, decided.ApproverName)
	if decided.Comments != "" {
		message += ": " + decided.Comments
	}
	return s.record(ctx, req.RequesterID, model.NotifTypeRequestRejected, req, message)
}

// record inserts the notification row within the caller's transaction
func (s *notificationService) record(ctx context.Context, userID uuid.UUID, notifType string, req *model.Request, message string) ([]model.Notification, error) {
	notif := model.Notification{
		UserID:        userID,
		Type:          notifType,
		Message:       message,
		RequestID:     req.ID,
		RequestNumber: req.RequestNumber,
	}
	if err := s.notifRepo.Create(ctx, &notif); err != nil {
		return nil, errors.Wrap(err, "create notification")
	}
	return []model.Notification{notif}, nil
}

// DeliverAfterCommit publishes change events and mirrors each notification
// to email. Both channels are best-effort; a failure here never rolls back
// the transition that produced the notification.
func (s *notificationService) DeliverAfterCommit(notifs []model.Notification) {
	for _, notif := range notifs {
		s.hub.Publish(ws.EventNotificationCreated, ws.EventPayload{
			RequestID: notif.RequestID,
			UserID:    notif.UserID,
		})
	}

	go func() {
		for _, notif := range notifs {
			user, err := s.userRepo.FindByID(context.Background(), notif.UserID)
			if err != nil {
				log.WithError(err).WithField("user_id", notif.UserID).Warn("Skipping notification email, user lookup failed")
				continue
			}
			subject := fmt.Sprintf("%s: %s", subjectFor(notif.Type), notif.RequestNumber)
			if err := s.mail.SendEmail(user.Email, subject, notif.Message); err != nil {
				log.WithError(err).WithField("user_id", notif.UserID).Warn("Notification email failed")
			}
		}
	}()
}

func subjectFor(notifType string) string {
	switch notifType {
	case model.NotifTypeApprovalRequired:
		return "Approval Required"
	case model.NotifTypeRequestApproved:
		return "Request Approved"
	case model.NotifTypeRequestRejected:
		return "Request Rejected"
	default:
		return "Notification"
	}
}

// --- Inbox ---

func (s *notificationService) List(ctx context.Context, actor model.Actor, unreadOnly bool, page, limit int) (*NotificationListResponse, error) {
	items, total, err := s.notifRepo.ListByUser(ctx, actor.ID, unreadOnly, page, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list notifications")
	}
	unread, err := s.notifRepo.CountUnread(ctx, actor.ID)
	if err != nil {
		return nil, errors.Wrap(err, "count unread notifications")
	}
	return &NotificationListResponse{
		Items:       items,
		Total:       total,
		UnreadCount: unread,
		Page:        page,
		Limit:       limit,
	}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, actor model.Actor, id string) error {
	notifID, err := uuid.Parse(id)
	if err != nil {
		return apperror.Validation("id", "invalid notification id")
	}
	affected, err := s.notifRepo.MarkRead(ctx, notifID, actor.ID)
	if err != nil {
		return errors.Wrap(err, "mark notification read")
	}
	if affected == 0 {
		return apperror.NotFound("notification not found")
	}
	s.hub.Publish(ws.EventNotificationRead, ws.EventPayload{UserID: actor.ID})
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, actor model.Actor) error {
	if err := s.notifRepo.MarkAllRead(ctx, actor.ID); err != nil {
		return errors.Wrap(err, "mark all notifications read")
	}
	s.hub.Publish(ws.EventNotificationsCleared, ws.EventPayload{UserID: actor.ID})
	return nil
}
