package service

import (
	"fmt"
	"strings"

	"backend/internal/model"
	"backend/pkg/apperror"
)

// ValidateSubmission checks title and form data against a template's field
// list. It is side-effect free and total: every failing field is collected
// and reported in one error, carrying the first offending field's name.
func ValidateSubmission(fields []model.FieldDef, title string, formData map[string]interface{}) error {
	var (
		firstField string
		problems   []string
	)
	fail := func(name, msg string) {
		if firstField == "" {
			firstField = name
		}
		problems = append(problems, fmt.Sprintf("%s: %s", name, msg))
	}

	if strings.TrimSpace(title) == "" {
		fail("title", "title is required")
	}

	for _, f := range fields {
		if !f.Required {
			// Optional fields accept absence and blank values alike
			continue
		}
		value := formData[f.Name]

		switch f.Type {
		case model.FieldTypeText, model.FieldTypeTextarea, model.FieldTypeNumber,
			model.FieldTypeDate, model.FieldTypeSelect:
			if scalarBlank(value) {
				fail(f.Name, fmt.Sprintf("%s is required", f.Label))
			}
		case model.FieldTypeTable:
			if !tableHasContent(value) {
				fail(f.Name, fmt.Sprintf("%s needs at least one filled cell", f.Label))
			}
		case model.FieldTypeDropzone:
			if !fileAttached(value) {
				fail(f.Name, fmt.Sprintf("%s needs an attached file", f.Label))
			}
		}
	}

	if len(problems) > 0 {
		return apperror.Validation(firstField, "%s", strings.Join(problems, "; "))
	}
	return nil
}

// scalarBlank reports whether a scalar form value is absent or blank after
// trimming. Non-string values (numbers from JSON) count as present.
func scalarBlank(value interface{}) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// tableHasContent reports whether a table value {title, headers, rows} has at
// least one non-blank cell across all rows.
func tableHasContent(value interface{}) bool {
	table, ok := value.(map[string]interface{})
	if !ok {
		return false
	}
	rows, ok := table["rows"].([]interface{})
	if !ok {
		return false
	}
	for _, rawRow := range rows {
		row, ok := rawRow.([]interface{})
		if !ok {
			continue
		}
		for _, cell := range row {
			if cell == nil {
				continue
			}
			if strings.TrimSpace(fmt.Sprintf("%v", cell)) != "" {
				return true
			}
		}
	}
	return false
}

// fileAttached reports whether a dropzone value carries a file object with a
// filename and base64 content. The content itself stays opaque here; size
// and extension were validated before submission.
func fileAttached(value interface{}) bool {
	file, ok := value.(map[string]interface{})
	if !ok {
		return false
	}
	filename, _ := file["filename"].(string)
	content, _ := file["base64"].(string)
	return filename != "" && content != ""
}
