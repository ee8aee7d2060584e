package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MaxApproverSteps bounds the sequential approval chain length.
const MaxApproverSteps = 3

// ApproverSlot is one position in a template's sequential approval chain.
// Steps are 1-based and dense: slots are always numbered 1..k with no gaps.
type ApproverSlot struct {
	Step     int       `json:"step"`
	UserID   uuid.UUID `json:"user_id"`
	UserName string    `json:"user_name"`
}

// FormTemplate is a department's reusable form schema plus its approver chain.
// Fields and ApproverChain are stored as jsonb documents; use FieldDefs and
// Chain to decode them.
type FormTemplate struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DepartmentID  uuid.UUID `gorm:"type:uuid;not null;index" json:"department_id"`
	Name          string    `gorm:"type:varchar(255);not null" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	Fields        string    `gorm:"type:jsonb;not null" json:"-"`
	ApproverChain string    `gorm:"type:jsonb;not null;default:'[]'" json:"-"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// FieldDefs decodes the stored field list
func (t *FormTemplate) FieldDefs() ([]FieldDef, error) {
	var fields []FieldDef
	if err := json.Unmarshal([]byte(t.Fields), &fields); err != nil {
		return nil, errors.Wrapf(err, "template %s has malformed field list", t.ID)
	}
	return fields, nil
}

// Chain decodes the stored approver chain
func (t *FormTemplate) Chain() ([]ApproverSlot, error) {
	if t.ApproverChain == "" {
		return nil, nil
	}
	var chain []ApproverSlot
	if err := json.Unmarshal([]byte(t.ApproverChain), &chain); err != nil {
		return nil, errors.Wrapf(err, "template %s has malformed approver chain", t.ID)
	}
	return chain, nil
}

// SetFields encodes and stores the field list
func (t *FormTemplate) SetFields(fields []FieldDef) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return errors.Wrap(err, "encode field list")
	}
	t.Fields = string(raw)
	return nil
}

// SetChain encodes and stores the approver chain
func (t *FormTemplate) SetChain(chain []ApproverSlot) error {
	if chain == nil {
		chain = []ApproverSlot{}
	}
	raw, err := json.Marshal(chain)
	if err != nil {
		return errors.Wrap(err, "encode approver chain")
	}
	t.ApproverChain = string(raw)
	return nil
}
