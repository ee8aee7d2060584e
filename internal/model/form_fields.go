package model

import (
	"fmt"
	"strings"

	"backend/pkg/apperror"

	"github.com/google/uuid"
)

// Field type enum constants. The set is closed: validation and rendering
// switch exhaustively over it, so adding a type means touching every switch.
const (
	FieldTypeText     = "text"
	FieldTypeTextarea = "textarea"
	FieldTypeNumber   = "number"
	FieldTypeDate     = "date"
	FieldTypeSelect   = "select"
	FieldTypeTable    = "table"
	FieldTypeDropzone = "dropzone"
)

// Table row count bounds for table fields
const (
	MinTableRows = 1
	MaxTableRows = 50
)

// FieldDef describes one field of a form template. Name is a slug derived
// from Label and unique within the template. Options is set for select
// fields; TableTitle, ColumnHeaders and NumRows for table fields.
type FieldDef struct {
	Name          string   `json:"name"`
	Label         string   `json:"label"`
	Type          string   `json:"type"`
	Required      bool     `json:"required"`
	Options       []string `json:"options,omitempty"`
	TableTitle    string   `json:"table_title,omitempty"`
	ColumnHeaders []string `json:"column_headers,omitempty"`
	NumRows       int      `json:"num_rows,omitempty"`
}

// ValidFieldType reports whether t is a known field type
func ValidFieldType(t string) bool {
	switch t {
	case FieldTypeText, FieldTypeTextarea, FieldTypeNumber, FieldTypeDate,
		FieldTypeSelect, FieldTypeTable, FieldTypeDropzone:
		return true
	}
	return false
}

// SlugifyLabel derives a field name from its label: lower-cased, spaces to
// underscores, every other non-alphanumeric stripped.
func SlugifyLabel(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	return b.String()
}

// NormalizeFields assigns each field its slugged name and resolves collisions
// with the positional fallback field_<position> (1-based). The input slice is
// modified in place and returned.
func NormalizeFields(fields []FieldDef) []FieldDef {
	seen := make(map[string]bool, len(fields))
	for i := range fields {
		name := SlugifyLabel(fields[i].Label)
		if name == "" || seen[name] {
			name = fmt.Sprintf("field_%d", i+1)
		}
		fields[i].Name = name
		seen[name] = true
	}
	return fields
}

// ValidateFields checks a normalized field list against the schema rules:
// non-empty list, unique names, select fields need at least one option,
// table fields need headers and a row count within bounds.
func ValidateFields(fields []FieldDef) error {
	if len(fields) == 0 {
		return apperror.Validation("fields", "template must define at least one field")
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return apperror.Validation("fields", "field %q resolved to an empty name", f.Label)
		}
		if seen[f.Name] {
			return apperror.Validation(f.Name, "duplicate field name")
		}
		seen[f.Name] = true

		switch f.Type {
		case FieldTypeText, FieldTypeTextarea, FieldTypeNumber, FieldTypeDate, FieldTypeDropzone:
		case FieldTypeSelect:
			if len(f.Options) < 1 {
				return apperror.Validation(f.Name, "select field needs at least one option")
			}
		case FieldTypeTable:
			if len(f.ColumnHeaders) == 0 {
				return apperror.Validation(f.Name, "table field needs column headers")
			}
			if f.NumRows < MinTableRows || f.NumRows > MaxTableRows {
				return apperror.Validation(f.Name, "table rows must be between %d and %d", MinTableRows, MaxTableRows)
			}
		default:
			return apperror.Validation(f.Name, "unknown field type %q", f.Type)
		}
	}
	return nil
}

// NormalizeChain orders slots by step and re-numbers them densely from 1, so
// removing a middle step shifts later steps downward.
func NormalizeChain(chain []ApproverSlot) []ApproverSlot {
	sorted := make([]ApproverSlot, len(chain))
	copy(sorted, chain)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].Step < sorted[i].Step {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	for i := range sorted {
		sorted[i].Step = i + 1
	}
	return sorted
}

// ValidateChain checks the density invariant (steps 1..k, no gaps) and the
// configured maximum chain length. An empty chain is valid: such templates
// auto-approve their requests.
func ValidateChain(chain []ApproverSlot) error {
	if len(chain) > MaxApproverSteps {
		return apperror.Validation("approver_chain", "at most %d approval steps are supported", MaxApproverSteps)
	}
	for i, slot := range chain {
		if slot.Step != i+1 {
			return apperror.Validation("approver_chain", "steps must be numbered 1..%d without gaps", len(chain))
		}
		if slot.UserID == uuid.Nil {
			return apperror.Validation("approver_chain", "step %d has no approver assigned", slot.Step)
		}
	}
	return nil
}
