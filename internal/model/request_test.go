package model

import (
	"testing"
	"time"

	"backend/pkg/apperror"

	"github.com/google/uuid"
)

func twoStepRequest(requester, first, second uuid.UUID) *Request {
	approvals, status, step := BuildApprovals([]ApproverSlot{
		{Step: 1, UserID: first, UserName: "First Approver"},
		{Step: 2, UserID: second, UserName: "Second Approver"},
	})
	return &Request{
		RequesterID:         requester,
		Status:              status,
		CurrentApprovalStep: step,
		TotalApprovalSteps:  len(approvals),
		Approvals:           approvals,
	}
}

// countPending verifies the exactly-one-pending invariant for in-progress
// requests.
func countPending(r *Request) int {
	n := 0
	for _, a := range r.Approvals {
		if a.Status == ApprovalStatusPending {
			n++
		}
	}
	return n
}

func TestBuildApprovalsEmptyChainAutoApproves(t *testing.T) {
	approvals, status, step := BuildApprovals(nil)
	if approvals != nil || status != RequestStatusApproved || step != 0 {
		t.Fatalf("got approvals=%v status=%s step=%d", approvals, status, step)
	}
}

func TestBuildApprovalsFirstPendingRestWaiting(t *testing.T) {
	approvals, status, step := BuildApprovals([]ApproverSlot{
		{Step: 1, UserID: uuid.New()},
		{Step: 2, UserID: uuid.New()},
		{Step: 3, UserID: uuid.New()},
	})
	if status != RequestStatusInProgress || step != 1 {
		t.Fatalf("status=%s step=%d, want in_progress step 1", status, step)
	}
	if approvals[0].Status != ApprovalStatusPending {
		t.Errorf("step 1 status = %s, want pending", approvals[0].Status)
	}
	for _, a := range approvals[1:] {
		if a.Status != ApprovalStatusWaiting {
			t.Errorf("step %d status = %s, want waiting", a.Step, a.Status)
		}
	}
}

func TestApproveAdvancesChain(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	r := twoStepRequest(uuid.New(), first, second)
	now := time.Now()

	next, err := r.Approve(first, "looks good", now)
	if err != nil {
		t.Fatal(err)
	}
	if next == nil || next.Step != 2 || next.ApproverID != second {
		t.Fatalf("next = %+v, want step 2 approval", next)
	}
	if r.Status != RequestStatusInProgress || r.CurrentApprovalStep != 2 {
		t.Errorf("status=%s step=%d after first approval", r.Status, r.CurrentApprovalStep)
	}
	if r.Approvals[0].Status != ApprovalStatusApproved || r.Approvals[0].Comments != "looks good" {
		t.Errorf("step 1 record = %+v", r.Approvals[0])
	}
	if r.Approvals[0].ActedAt == nil || !r.Approvals[0].ActedAt.Equal(now) {
		t.Errorf("step 1 acted_at = %v", r.Approvals[0].ActedAt)
	}
	if countPending(r) != 1 {
		t.Errorf("pending count = %d, want 1", countPending(r))
	}
}

func TestApproveLastStepIsTerminal(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	r := twoStepRequest(uuid.New(), first, second)

	if _, err := r.Approve(first, "", time.Now()); err != nil {
		t.Fatal(err)
	}
	next, err := r.Approve(second, "", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if next != nil {
		t.Errorf("terminal approval returned next = %+v", next)
	}
	if r.Status != RequestStatusApproved {
		t.Errorf("status = %s, want approved", r.Status)
	}
	if countPending(r) != 0 {
		t.Errorf("pending count = %d after terminal state", countPending(r))
	}
}

func TestRejectAtSecondStep(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	r := twoStepRequest(uuid.New(), first, second)
	if _, err := r.Approve(first, "", time.Now()); err != nil {
		t.Fatal(err)
	}

	decided, err := r.Reject(second, "insufficient budget", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if decided.Status != ApprovalStatusRejected || decided.Comments != "insufficient budget" {
		t.Fatalf("decided = %+v", decided)
	}
	if r.Status != RequestStatusRejected {
		t.Errorf("status = %s, want rejected", r.Status)
	}
	// The approved first step keeps its history.
	if r.Approvals[0].Status != ApprovalStatusApproved {
		t.Errorf("step 1 status = %s, want approved", r.Approvals[0].Status)
	}
}

func TestRejectCancelsLaterSteps(t *testing.T) {
	first := uuid.New()
	approvals, status, step := BuildApprovals([]ApproverSlot{
		{Step: 1, UserID: first},
		{Step: 2, UserID: uuid.New()},
		{Step: 3, UserID: uuid.New()},
	})
	r := &Request{Status: status, CurrentApprovalStep: step, Approvals: approvals}

	if _, err := r.Reject(first, "no", time.Now()); err != nil {
		t.Fatal(err)
	}
	for _, a := range r.Approvals[1:] {
		if a.Status != ApprovalStatusCancelled {
			t.Errorf("step %d status = %s, want cancelled", a.Step, a.Status)
		}
	}
}

func TestActOnTerminalRequestConflicts(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	r := twoStepRequest(uuid.New(), first, second)
	if _, err := r.Reject(first, "", time.Now()); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Approve(second, "", time.Now()); !apperror.IsKind(err, apperror.KindConflict) {
		t.Errorf("approve after reject: err = %v, want conflict", err)
	}
	if _, err := r.Reject(second, "", time.Now()); !apperror.IsKind(err, apperror.KindConflict) {
		t.Errorf("reject after reject: err = %v, want conflict", err)
	}
}

func TestNonCurrentApproverCannotAct(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	r := twoStepRequest(uuid.New(), first, second)

	// Step 2's approver tries to act before their turn.
	if _, err := r.Approve(second, "", time.Now()); !apperror.IsKind(err, apperror.KindAuthorization) {
		t.Errorf("out-of-turn approve: err = %v, want authorization", err)
	}
	// A stranger tries to act.
	if _, err := r.Reject(uuid.New(), "", time.Now()); !apperror.IsKind(err, apperror.KindAuthorization) {
		t.Errorf("stranger reject: err = %v, want authorization", err)
	}
}

func TestCancelByRequester(t *testing.T) {
	requester, first, second := uuid.New(), uuid.New(), uuid.New()
	r := twoStepRequest(requester, first, second)
	if _, err := r.Approve(first, "", time.Now()); err != nil {
		t.Fatal(err)
	}

	if err := r.Cancel(requester); err != nil {
		t.Fatal(err)
	}
	if r.Status != RequestStatusCancelled {
		t.Errorf("status = %s, want cancelled", r.Status)
	}
	if r.Approvals[0].Status != ApprovalStatusApproved {
		t.Errorf("approved step lost its history: %s", r.Approvals[0].Status)
	}
	if r.Approvals[1].Status != ApprovalStatusCancelled {
		t.Errorf("pending step status = %s, want cancelled", r.Approvals[1].Status)
	}
}

func TestCancelGuards(t *testing.T) {
	requester, first := uuid.New(), uuid.New()
	r := twoStepRequest(requester, first, uuid.New())

	if err := r.Cancel(uuid.New()); !apperror.IsKind(err, apperror.KindAuthorization) {
		t.Errorf("non-requester cancel: err = %v, want authorization", err)
	}

	if err := r.Cancel(requester); err != nil {
		t.Fatal(err)
	}
	if err := r.Cancel(requester); !apperror.IsKind(err, apperror.KindConflict) {
		t.Errorf("double cancel: err = %v, want conflict", err)
	}
}

func TestCurrentApproval(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	r := twoStepRequest(uuid.New(), first, second)
	if cur := r.CurrentApproval(); cur == nil || cur.ApproverID != first {
		t.Fatalf("current = %+v, want step 1", cur)
	}

	r.CurrentApprovalStep = 0
	if cur := r.CurrentApproval(); cur != nil {
		t.Fatalf("current on step 0 = %+v, want nil", cur)
	}
}
