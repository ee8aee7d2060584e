package model

import (
	"time"

	"backend/pkg/apperror"

	"github.com/google/uuid"
)

// Request status enum constants. in_progress is the only non-terminal state.
const (
	RequestStatusInProgress = "in_progress"
	RequestStatusApproved   = "approved"
	RequestStatusRejected   = "rejected"
	RequestStatusCancelled  = "cancelled"
)

// Approval status enum constants
const (
	ApprovalStatusWaiting   = "waiting"
	ApprovalStatusPending   = "pending"
	ApprovalStatusApproved  = "approved"
	ApprovalStatusRejected  = "rejected"
	ApprovalStatusCancelled = "cancelled"
)

// Request priority enum constants
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ValidPriority reports whether p is a known priority
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Request is one submission of form data tracked through its approval chain.
// FormData is the jsonb document keyed by field name. Requests are never
// deleted; terminal states are retained for audit.
type Request struct {
	ID                    uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestNumber         string     `gorm:"type:varchar(20);uniqueIndex;not null" json:"request_number"`
	FormTemplateID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"form_template_id"`
	FormTemplateName      string     `gorm:"type:varchar(255);not null" json:"form_template_name"`
	DepartmentID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"department_id"`
	RequesterID           uuid.UUID  `gorm:"type:uuid;not null;index" json:"requester_id"`
	RequesterName         string     `gorm:"type:varchar(255);not null" json:"requester_name"`
	RequesterDepartmentID uuid.UUID  `gorm:"type:uuid;not null" json:"requester_department_id"`
	Title                 string     `gorm:"type:varchar(255);not null" json:"title"`
	FormData              string     `gorm:"type:jsonb;not null" json:"form_data"`
	Notes                 string     `gorm:"type:text" json:"notes"`
	Priority              string     `gorm:"type:varchar(20);not null;default:'normal'" json:"priority"`
	Status                string     `gorm:"type:varchar(20);not null;index" json:"status"`
	CurrentApprovalStep   int        `gorm:"not null" json:"current_approval_step"`
	TotalApprovalSteps    int        `gorm:"not null" json:"total_approval_steps"`
	Approvals             []Approval `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"approvals"`
	CreatedAt             time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Approval is the per-step decision record attached to a Request, created
// atomically with it, one per approver chain slot.
type Approval struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"request_id"`
	Step         int        `gorm:"not null" json:"step"`
	ApproverID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"approver_id"`
	ApproverName string     `gorm:"type:varchar(255);not null" json:"approver_name"`
	Status       string     `gorm:"type:varchar(20);not null" json:"status"`
	Comments     string     `gorm:"type:text" json:"comments"`
	ActedAt      *time.Time `json:"acted_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// BuildApprovals constructs the approval set for a new request from the
// template chain: first slot pending, the rest waiting. With an empty chain
// the request is born approved and never enters the chain.
func BuildApprovals(chain []ApproverSlot) (approvals []Approval, status string, currentStep int) {
	if len(chain) == 0 {
		return nil, RequestStatusApproved, 0
	}
	approvals = make([]Approval, 0, len(chain))
	for _, slot := range chain {
		st := ApprovalStatusWaiting
		if slot.Step == 1 {
			st = ApprovalStatusPending
		}
		approvals = append(approvals, Approval{
			Step:         slot.Step,
			ApproverID:   slot.UserID,
			ApproverName: slot.UserName,
			Status:       st,
		})
	}
	return approvals, RequestStatusInProgress, 1
}

// CurrentApproval returns the approval record at the current step, or nil
func (r *Request) CurrentApproval() *Approval {
	for i := range r.Approvals {
		if r.Approvals[i].Step == r.CurrentApprovalStep {
			return &r.Approvals[i]
		}
	}
	return nil
}

// approvalAt returns the approval at the given step, or nil
func (r *Request) approvalAt(step int) *Approval {
	for i := range r.Approvals {
		if r.Approvals[i].Step == step {
			return &r.Approvals[i]
		}
	}
	return nil
}

// checkActionable verifies the shared approve/reject preconditions and
// returns the pending approval the actor owns.
func (r *Request) checkActionable(actorID uuid.UUID) (*Approval, error) {
	if r.Status != RequestStatusInProgress {
		return nil, apperror.Conflict("request is already %s", r.Status)
	}
	current := r.CurrentApproval()
	if current == nil || current.ApproverID != actorID {
		return nil, apperror.Authorization("you are not the current approver for this request")
	}
	if current.Status != ApprovalStatusPending {
		return nil, apperror.Conflict("this step has already been acted upon")
	}
	return current, nil
}

// Approve marks the current step approved and either advances the chain or,
// on the last step, moves the request to its approved terminal state. It
// returns the next pending approval if one became pending.
func (r *Request) Approve(actorID uuid.UUID, comments string, now time.Time) (next *Approval, err error) {
	current, err := r.checkActionable(actorID)
	if err != nil {
		return nil, err
	}
	current.Status = ApprovalStatusApproved
	current.Comments = comments
	current.ActedAt = &now

	next = r.approvalAt(r.CurrentApprovalStep + 1)
	if next == nil {
		r.Status = RequestStatusApproved
		return nil, nil
	}
	r.CurrentApprovalStep++
	next.Status = ApprovalStatusPending
	return next, nil
}

// Reject marks the current step rejected, cancels every later step and moves
// the request to its rejected terminal state. The chain does not continue.
func (r *Request) Reject(actorID uuid.UUID, comments string, now time.Time) (*Approval, error) {
	current, err := r.checkActionable(actorID)
	if err != nil {
		return nil, err
	}
	current.Status = ApprovalStatusRejected
	current.Comments = comments
	current.ActedAt = &now

	for i := range r.Approvals {
		if r.Approvals[i].Step > r.CurrentApprovalStep {
			r.Approvals[i].Status = ApprovalStatusCancelled
		}
	}
	r.Status = RequestStatusRejected
	return current, nil
}

// Cancel moves an in-progress request to its cancelled terminal state. Only
// the requester may cancel. Already-approved steps keep their history; every
// other step is cancelled.
func (r *Request) Cancel(actorID uuid.UUID) error {
	if actorID != r.RequesterID {
		return apperror.Authorization("only the requester may cancel this request")
	}
	if r.Status != RequestStatusInProgress {
		return apperror.Conflict("request is already %s", r.Status)
	}
	for i := range r.Approvals {
		if r.Approvals[i].Status != ApprovalStatusApproved {
			r.Approvals[i].Status = ApprovalStatusCancelled
		}
	}
	r.Status = RequestStatusCancelled
	return nil
}
