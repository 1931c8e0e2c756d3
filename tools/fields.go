package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/s0up4200/testrail-mcp/testrail"
)

// fieldSchema describes one settable case field.
type fieldSchema struct {
	SystemName  string   `json:"system_name"`
	Label       string   `json:"label"`
	Type        string   `json:"type"`
	IsRequired  bool     `json:"is_required"`
	TemplateIDs []int    `json:"template_ids,omitempty"`
	Options     []string `json:"options,omitempty"`
}

var fieldTypeNames = map[int]string{
	testrail.FieldTypeString:      "String",
	testrail.FieldTypeInteger:     "Integer",
	testrail.FieldTypeText:        "Text",
	testrail.FieldTypeURL:         "URL",
	testrail.FieldTypeCheckbox:    "Checkbox",
	testrail.FieldTypeDropdown:    "Dropdown",
	testrail.FieldTypeUser:        "User",
	testrail.FieldTypeDate:        "Date",
	testrail.FieldTypeMilestone:   "Milestone",
	testrail.FieldTypeSteps:       "Steps",
	testrail.FieldTypeStepResults: "Step Results",
	testrail.FieldTypeMultiSelect: "Multi-select",
	testrail.FieldTypeScenarios:   "Scenarios",
}

// systemFields are the built-in case fields, listed ahead of custom ones.
var systemFields = []fieldSchema{
	{SystemName: "title", Label: "Title", Type: "String", IsRequired: true},
	{SystemName: "section_id", Label: "Section", Type: "Integer", IsRequired: true},
	{SystemName: "template_id", Label: "Template", Type: "Integer"},
	{SystemName: "type_id", Label: "Type", Type: "Integer"},
	{SystemName: "priority_id", Label: "Priority", Type: "Integer"},
	{SystemName: "estimate", Label: "Estimate", Type: "String"},
	{SystemName: "milestone_id", Label: "Milestone", Type: "Integer"},
	{SystemName: "refs", Label: "References", Type: "String"},
}

func fieldTypeName(typeID int) string {
	if name, ok := fieldTypeNames[typeID]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (%d)", typeID)
}

func newFieldSchema(f testrail.CaseField) fieldSchema {
	s := fieldSchema{
		SystemName: f.SystemName,
		Label:      f.Label,
		Type:       fieldTypeName(f.TypeID),
		IsRequired: f.IsRequired(),
	}
	if !f.IncludeAll && len(f.TemplateIDs) > 0 {
		s.TemplateIDs = f.TemplateIDs
	}
	if f.TypeID == testrail.FieldTypeDropdown || f.TypeID == testrail.FieldTypeMultiSelect {
		s.Options = optionLabels(f)
	}
	return s
}

func (ts *Toolset) getCaseFieldsTool() Tool {
	return Tool{
		Definition: mcp.NewTool("get_case_fields",
			mcp.WithDescription("Get the field schema for test cases. Returns all available fields with their types, descriptions, and options (for dropdown fields). Use this to understand what fields can be set when creating or updating test cases."),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		Handler: func(ctx context.Context, _ map[string]any) (any, error) {
			caseFields, err := ts.api.GetCaseFields(ctx)
			if err != nil {
				return nil, err
			}

			fields := make([]fieldSchema, 0, len(systemFields)+len(caseFields))
			fields = append(fields, systemFields...)
			for _, f := range caseFields {
				if f.IsActive {
					fields = append(fields, newFieldSchema(f))
				}
			}
			return map[string]any{"fields": fields}, nil
		},
	}
}
