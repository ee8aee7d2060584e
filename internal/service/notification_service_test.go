package service

import (
	"context"
	"testing"

	"backend/internal/mailer"
	"backend/internal/model"
	ws "backend/internal/websocket"
	"backend/pkg/apperror"

	"github.com/google/uuid"
)

func inboxFixture(t *testing.T) (NotificationService, *fakeNotificationRepo, model.Actor) {
	t.Helper()
	notifs := &fakeNotificationRepo{}
	users := newFakeUserRepo()
	svc := NewNotificationService(notifs, users, mailer.New("", "", "", "", "", false), ws.NewHub())
	return svc, notifs, model.Actor{ID: uuid.New(), Role: model.RoleRequestor}
}

func seedNotification(t *testing.T, notifs *fakeNotificationRepo, userID uuid.UUID, read bool) *model.Notification {
	t.Helper()
	n := &model.Notification{
		UserID:        userID,
		Type:          model.NotifTypeApprovalRequired,
		Message:       "Request 'x' requires your approval",
		RequestID:     uuid.New(),
		RequestNumber: "REQ-00042",
		IsRead:        read,
	}
	if err := notifs.Create(context.Background(), n); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestNotificationListCountsUnread(t *testing.T) {
	svc, notifs, actor := inboxFixture(t)
	seedNotification(t, notifs, actor.ID, false)
	seedNotification(t, notifs, actor.ID, true)
	seedNotification(t, notifs, uuid.New(), false) // someone else's

	list, err := svc.List(context.Background(), actor, false, 1, 20)
	if err != nil {
		t.Fatal(err)
	}
	if list.Total != 2 || list.UnreadCount != 1 {
		t.Fatalf("total=%d unread=%d, want 2/1", list.Total, list.UnreadCount)
	}

	unread, err := svc.List(context.Background(), actor, true, 1, 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(unread.Items) != 1 {
		t.Fatalf("unread items = %d, want 1", len(unread.Items))
	}
}

func TestMarkReadScopedToOwner(t *testing.T) {
	svc, notifs, actor := inboxFixture(t)
	mine := seedNotification(t, notifs, actor.ID, false)
	theirs := seedNotification(t, notifs, uuid.New(), false)

	if err := svc.MarkRead(context.Background(), actor, mine.ID.String()); err != nil {
		t.Fatal(err)
	}
	if !mine.IsRead {
		t.Error("notification not marked read")
	}

	// Another user's notification reads back as not found, not forbidden.
	err := svc.MarkRead(context.Background(), actor, theirs.ID.String())
	if !apperror.IsKind(err, apperror.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	svc, notifs, actor := inboxFixture(t)
	seedNotification(t, notifs, actor.ID, false)
	seedNotification(t, notifs, actor.ID, false)
	other := seedNotification(t, notifs, uuid.New(), false)

	if err := svc.MarkAllRead(context.Background(), actor); err != nil {
		t.Fatal(err)
	}
	for _, n := range notifs.byUser(actor.ID) {
		if !n.IsRead {
			t.Error("unread notification left after mark-all")
		}
	}
	if other.IsRead {
		t.Error("another user's notification was marked read")
	}
}
