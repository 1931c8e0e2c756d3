package tools

import (
	"context"
	"fmt"
	"maps"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mark3labs/mcp-go/mcp"
)

type updateCaseArgs struct {
	CaseID string         `mapstructure:"case_id" json:"case_id"`
	Fields map[string]any `mapstructure:"fields" json:"fields"`
}

func (a updateCaseArgs) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.CaseID, validation.Required, isCaseRef),
		validation.Field(&a.Fields, validation.Required),
	)
}

func (ts *Toolset) updateCaseTool() Tool {
	return Tool{
		Definition: mcp.NewTool("update_case",
			mcp.WithDescription("Update a test case in TestRail. Supports partial updates - only specify the fields you want to change. Use get_case_fields to see available fields and their types."),
			mcp.WithString("case_id", mcp.Required(), mcp.Description("The ID of the test case to update (e.g. '123' or 'C123')")),
			mcp.WithObject("fields", mcp.Required(), mcp.Description("Object containing fields to update. Use get_case_fields to see available fields. Example: {\"title\": \"New title\", \"priority_id\": 2, \"custom_automation_priority\": 1}")),
		),
		Handler: func(ctx context.Context, raw map[string]any) (any, error) {
			var args updateCaseArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			caseID, err := parseCaseID(args.CaseID)
			if err != nil {
				return nil, err
			}

			updated, err := ts.api.UpdateCase(ctx, caseID, args.Fields)
			if err != nil {
				return nil, err
			}

			return map[string]any{
				"success": true,
				"case_id": updated.ID,
				"message": fmt.Sprintf("Test case C%d updated successfully", updated.ID),
			}, nil
		},
	}
}

type updateCasesArgs struct {
	CaseIDs []int          `mapstructure:"case_ids" json:"case_ids"`
	Fields  map[string]any `mapstructure:"fields" json:"fields"`
}

func (a updateCasesArgs) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.CaseIDs, validation.Required, validation.Each(validation.Min(1))),
		validation.Field(&a.Fields, validation.Required),
	)
}

func (ts *Toolset) updateCasesTool() Tool {
	return Tool{
		Definition: mcp.NewTool("update_cases",
			mcp.WithDescription("Bulk update multiple test cases with the same field values. More efficient than calling update_case multiple times"),
			mcp.WithArray("case_ids", mcp.Required(), mcp.Items(map[string]any{"type": "number"}), mcp.Description("Array of case IDs to update (e.g. [123, 456, 789])")),
			mcp.WithObject("fields", mcp.Required(), mcp.Description("Object containing fields to update for ALL specified cases. Use get_case_fields to see available fields. Example: {\"priority_id\": 2, \"type_id\": 1}")),
		),
		Handler: func(ctx context.Context, raw map[string]any) (any, error) {
			var args updateCasesArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}

			suiteID, err := ts.suiteOf(ctx, args.CaseIDs)
			if err != nil {
				return nil, err
			}

			updated, err := ts.api.UpdateCases(ctx, suiteID, args.CaseIDs, args.Fields)
			if err != nil {
				return nil, err
			}

			ids := make([]int, len(updated))
			for i, c := range updated {
				ids[i] = c.ID
			}

			return map[string]any{
				"success":       true,
				"updated_count": len(updated),
				"case_ids":      ids,
				"message":       fmt.Sprintf("Successfully updated %d test cases", len(updated)),
			}, nil
		},
	}
}

type createCaseArgs struct {
	SectionID int            `mapstructure:"section_id" json:"section_id"`
	Title     string         `mapstructure:"title" json:"title"`
	Fields    map[string]any `mapstructure:"fields" json:"fields"`
}

func (a createCaseArgs) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.SectionID, positiveID...),
		validation.Field(&a.Title, validation.Required),
	)
}

func (ts *Toolset) createCaseTool() Tool {
	return Tool{
		Definition: mcp.NewTool("create_case",
			mcp.WithDescription("Create a new test case in TestRail"),
			mcp.WithNumber("section_id", mcp.Required(), mcp.Description("The ID of the section where the case should be created. Use get_sections to find available sections")),
			mcp.WithString("title", mcp.Required(), mcp.Description("The title of the test case")),
			mcp.WithObject("fields", mcp.Description("Optional fields for the test case. First use get_templates to discover available templates, then get_case_fields to see available fields for your template. Example: {\"priority_id\": 2, \"template_id\": 1, \"custom_automation_priority\": 1}")),
		),
		Handler: func(ctx context.Context, raw map[string]any) (any, error) {
			var args createCaseArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}

			payload := map[string]any{"title": args.Title}
			maps.Copy(payload, args.Fields)

			created, err := ts.api.CreateCase(ctx, args.SectionID, payload)
			if err != nil {
				return nil, err
			}

			return map[string]any{
				"success": true,
				"case_id": created.ID,
				"message": fmt.Sprintf("Test case C%d created successfully", created.ID),
			}, nil
		},
	}
}

// suiteOf returns the suite of the first listed case. Bulk endpoints are
// scoped to one suite and every case is assumed to share it.
func (ts *Toolset) suiteOf(ctx context.Context, caseIDs []int) (int, error) {
	if len(caseIDs) == 0 {
		return 0, ErrNoCaseIDs
	}
	first, err := ts.api.GetCase(ctx, caseIDs[0])
	if err != nil {
		return 0, err
	}
	return first.SuiteID, nil
}
