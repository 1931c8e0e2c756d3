package tools

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/s0up4200/testrail-mcp/testrail"
)

type projectArgs struct {
	ProjectID int `mapstructure:"project_id" json:"project_id"`
}

func (a projectArgs) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.ProjectID, positiveID...),
	)
}

func (ts *Toolset) getProjectsTool() Tool {
	return Tool{
		Definition: mcp.NewTool("get_projects",
			mcp.WithDescription("Get all available projects in TestRail. Returns project IDs and names that can be used with get_sections, get_templates, get_cases, and add_run"),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		Handler: func(ctx context.Context, _ map[string]any) (any, error) {
			projects, err := ts.api.GetProjects(ctx)
			if err != nil {
				return nil, err
			}

			active := make([]testrail.Project, 0, len(projects))
			for _, p := range projects {
				if !p.IsCompleted {
					active = append(active, p)
				}
			}
			return map[string]any{"projects": active}, nil
		},
	}
}

func (ts *Toolset) getTemplatesTool() Tool {
	return Tool{
		Definition: mcp.NewTool("get_templates",
			mcp.WithDescription("Get available test case templates for a project. Template IDs determine which fields are available when creating or updating test cases"),
			mcp.WithNumber("project_id", mcp.Required(), mcp.Description("The ID of the project. Use get_projects to find available projects")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		Handler: func(ctx context.Context, raw map[string]any) (any, error) {
			var args projectArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}

			templates, err := ts.api.GetTemplates(ctx, args.ProjectID)
			if err != nil {
				return nil, err
			}
			return map[string]any{"templates": templates}, nil
		},
	}
}

func (ts *Toolset) getSectionsTool() Tool {
	return Tool{
		Definition: mcp.NewTool("get_sections",
			mcp.WithDescription("Get all sections for a project. Returns section IDs and names. Use this to find the section_id needed for create_case."),
			mcp.WithNumber("project_id", mcp.Required(), mcp.Description("The ID of the project")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		Handler: func(ctx context.Context, raw map[string]any) (any, error) {
			var args projectArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}

			sections, err := ts.api.GetSections(ctx, args.ProjectID)
			if err != nil {
				return nil, err
			}
			return map[string]any{"sections": sections}, nil
		},
	}
}

func (ts *Toolset) getStatusesTool() Tool {
	return Tool{
		Definition: mcp.NewTool("get_statuses",
			mcp.WithDescription("Get all available test statuses (e.g. Passed, Failed, Blocked). Returns status IDs and names that can be used with add_results and get_tests"),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		Handler: func(ctx context.Context, _ map[string]any) (any, error) {
			statuses, err := ts.api.GetStatuses(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"statuses": statuses}, nil
		},
	}
}
