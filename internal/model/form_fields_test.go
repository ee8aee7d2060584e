package model

import (
	"testing"

	"backend/pkg/apperror"

	"github.com/google/uuid"
)

func TestSlugifyLabel(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{"Reason for Request", "reason_for_request"},
		{"  Budget (USD)  ", "budget_usd"},
		{"Qty.", "qty"},
		{"UPPER_case", "upper_case"},
		{"!!!", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := SlugifyLabel(c.label); got != c.want {
			t.Errorf("SlugifyLabel(%q) = %q, want %q", c.label, got, c.want)
		}
	}
}

func TestNormalizeFieldsCollisionFallback(t *testing.T) {
	fields := NormalizeFields([]FieldDef{
		{Label: "Amount", Type: FieldTypeNumber},
		{Label: "amount", Type: FieldTypeText},
		{Label: "???", Type: FieldTypeText},
	})

	if fields[0].Name != "amount" {
		t.Errorf("first field name = %q, want amount", fields[0].Name)
	}
	if fields[1].Name != "field_2" {
		t.Errorf("colliding field name = %q, want field_2", fields[1].Name)
	}
	if fields[2].Name != "field_3" {
		t.Errorf("empty-slug field name = %q, want field_3", fields[2].Name)
	}
}

func TestValidateFields(t *testing.T) {
	valid := NormalizeFields([]FieldDef{
		{Label: "Reason", Type: FieldTypeTextarea, Required: true},
		{Label: "Category", Type: FieldTypeSelect, Options: []string{"travel", "equipment"}},
		{Label: "Items", Type: FieldTypeTable, ColumnHeaders: []string{"Item", "Qty"}, NumRows: 5},
		{Label: "Attachment", Type: FieldTypeDropzone},
	})
	if err := ValidateFields(valid); err != nil {
		t.Fatalf("valid fields rejected: %v", err)
	}

	if err := ValidateFields(nil); err == nil {
		t.Error("empty field list accepted")
	}

	bad := []struct {
		name   string
		fields []FieldDef
	}{
		{"select without options", NormalizeFields([]FieldDef{{Label: "Pick", Type: FieldTypeSelect}})},
		{"table without headers", NormalizeFields([]FieldDef{{Label: "Rows", Type: FieldTypeTable, NumRows: 3}})},
		{"table rows over limit", NormalizeFields([]FieldDef{{Label: "Rows", Type: FieldTypeTable, ColumnHeaders: []string{"A"}, NumRows: MaxTableRows + 1}})},
		{"table rows zero", NormalizeFields([]FieldDef{{Label: "Rows", Type: FieldTypeTable, ColumnHeaders: []string{"A"}, NumRows: 0}})},
		{"unknown type", NormalizeFields([]FieldDef{{Label: "X", Type: "checkbox"}})},
		{"duplicate names", []FieldDef{{Name: "a", Label: "a", Type: FieldTypeText}, {Name: "a", Label: "a", Type: FieldTypeText}}},
	}
	for _, c := range bad {
		err := ValidateFields(c.fields)
		if err == nil {
			t.Errorf("%s: accepted", c.name)
			continue
		}
		if !apperror.IsKind(err, apperror.KindValidation) {
			t.Errorf("%s: kind = %v, want validation", c.name, err)
		}
	}
}

func TestNormalizeChainSortsAndRenumbers(t *testing.T) {
	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()
	chain := NormalizeChain([]ApproverSlot{
		{Step: 3, UserID: u3},
		{Step: 1, UserID: u1},
		{Step: 2, UserID: u2},
	})

	for i, want := range []uuid.UUID{u1, u2, u3} {
		if chain[i].Step != i+1 {
			t.Errorf("slot %d step = %d, want %d", i, chain[i].Step, i+1)
		}
		if chain[i].UserID != want {
			t.Errorf("slot %d user = %s, want %s", i, chain[i].UserID, want)
		}
	}
}

func TestNormalizeChainClosesGaps(t *testing.T) {
	// A middle step removed upstream: 1,3 must become 1,2.
	u1, u3 := uuid.New(), uuid.New()
	chain := NormalizeChain([]ApproverSlot{
		{Step: 1, UserID: u1},
		{Step: 3, UserID: u3},
	})
	if chain[1].Step != 2 || chain[1].UserID != u3 {
		t.Fatalf("gap not closed: %+v", chain)
	}
	if err := ValidateChain(chain); err != nil {
		t.Fatalf("renumbered chain rejected: %v", err)
	}
}

func TestValidateChain(t *testing.T) {
	if err := ValidateChain(nil); err != nil {
		t.Errorf("empty chain rejected: %v", err)
	}

	over := make([]ApproverSlot, MaxApproverSteps+1)
	for i := range over {
		over[i] = ApproverSlot{Step: i + 1, UserID: uuid.New()}
	}
	if err := ValidateChain(over); err == nil {
		t.Error("chain over the step limit accepted")
	}

	gapped := []ApproverSlot{
		{Step: 1, UserID: uuid.New()},
		{Step: 3, UserID: uuid.New()},
	}
	if err := ValidateChain(gapped); err == nil {
		t.Error("gapped chain accepted")
	}

	unassigned := []ApproverSlot{{Step: 1}}
	if err := ValidateChain(unassigned); err == nil {
		t.Error("chain with nil approver accepted")
	}
}
