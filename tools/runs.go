package tools

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/s0up4200/testrail-mcp/testrail"
)

type addRunArgs struct {
	ProjectID   int    `mapstructure:"project_id" json:"project_id"`
	Name        string `mapstructure:"name" json:"name"`
	Description string `mapstructure:"description" json:"description"`
	CaseIDs     []int  `mapstructure:"case_ids" json:"case_ids"`
}

func (a addRunArgs) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.ProjectID, positiveID...),
		validation.Field(&a.CaseIDs, validation.Required, validation.Each(validation.Min(1))),
	)
}

func (ts *Toolset) addRunTool() Tool {
	return Tool{
		Definition: mcp.NewTool("add_run",
			mcp.WithDescription("Create a new test run in TestRail"),
			mcp.WithNumber("project_id", mcp.Required(), mcp.Description("The ID of the project. Use get_projects to find available projects")),
			mcp.WithString("name", mcp.Description("The name of the test run")),
			mcp.WithString("description", mcp.Description("The description of the test run")),
			mcp.WithArray("case_ids", mcp.Required(), mcp.Items(map[string]any{"type": "number"}), mcp.Description("Array of case IDs to include in the run. After creating the run, use get_tests with the returned run_id to retrieve test IDs for result submission")),
		),
		Handler: func(ctx context.Context, raw map[string]any) (any, error) {
			var args addRunArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}

			suiteID, err := ts.suiteOf(ctx, args.CaseIDs)
			if err != nil {
				return nil, err
			}

			run, err := ts.api.AddRun(ctx, args.ProjectID, testrail.RunParams{
				SuiteID:     suiteID,
				Name:        args.Name,
				Description: args.Description,
				IncludeAll:  false,
				CaseIDs:     args.CaseIDs,
			})
			if err != nil {
				return nil, err
			}
			return run, nil
		},
	}
}

type getTestsArgs struct {
	RunID    int   `mapstructure:"run_id" json:"run_id"`
	StatusID []int `mapstructure:"status_id" json:"status_id"`
}

func (a getTestsArgs) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.RunID, positiveID...),
	)
}

func (ts *Toolset) getTestsTool() Tool {
	return Tool{
		Definition: mcp.NewTool("get_tests",
			mcp.WithDescription("Get tests for a test run, optionally filtered by status"),
			mcp.WithNumber("run_id", mcp.Required(), mcp.Description("The ID of the test run")),
			mcp.WithArray("status_id", mcp.Items(map[string]any{"type": "number"}), mcp.Description("Optional array of status IDs to filter by. Use get_statuses to retrieve available status IDs")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		Handler: func(ctx context.Context, raw map[string]any) (any, error) {
			var args getTestsArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}

			tests, err := ts.api.GetTests(ctx, args.RunID, args.StatusID)
			if err != nil {
				return nil, err
			}
			if tests == nil {
				tests = []testrail.Test{}
			}
			return map[string]any{"tests": tests}, nil
		},
	}
}

type resultArgs struct {
	TestID   int    `mapstructure:"test_id" json:"test_id"`
	StatusID int    `mapstructure:"status_id" json:"status_id"`
	Comment  string `mapstructure:"comment" json:"comment"`
	Defects  string `mapstructure:"defects" json:"defects"`
}

func (a resultArgs) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.TestID, positiveID...),
		validation.Field(&a.StatusID, positiveID...),
	)
}

type addResultsArgs struct {
	RunID   int          `mapstructure:"run_id" json:"run_id"`
	Results []resultArgs `mapstructure:"results" json:"results"`
}

func (a addResultsArgs) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.RunID, positiveID...),
		validation.Field(&a.Results, validation.Required),
	)
}

func (ts *Toolset) addResultsTool() Tool {
	return Tool{
		Definition: mcp.NewTool("add_results",
			mcp.WithDescription("Add one or more test results to a test run"),
			mcp.WithNumber("run_id", mcp.Required(), mcp.Description("The ID of the test run")),
			mcp.WithArray("results",
				mcp.Required(),
				mcp.Description("Array of results to add. Each result must have test_id and status_id"),
				mcp.Items(map[string]any{
					"type": "object",
					"properties": map[string]any{
						"test_id":   map[string]any{"type": "number", "description": "The ID of the test. Use get_tests with a run_id to retrieve available test IDs"},
						"status_id": map[string]any{"type": "number", "description": "The ID of the test status (e.g. Passed, Failed). Use get_statuses to retrieve available status IDs"},
						"comment":   map[string]any{"type": "string", "description": "Optional comment/description for the result"},
						"defects":   map[string]any{"type": "string", "description": "Optional comma-separated list of defect IDs"},
					},
					"required": []string{"test_id", "status_id"},
				}),
			),
		),
		Handler: func(ctx context.Context, raw map[string]any) (any, error) {
			var args addResultsArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}

			inputs := make([]testrail.ResultInput, len(args.Results))
			for i, r := range args.Results {
				inputs[i] = testrail.ResultInput{
					TestID:   r.TestID,
					StatusID: r.StatusID,
					Comment:  r.Comment,
					Defects:  r.Defects,
				}
			}

			results, err := ts.api.AddResults(ctx, args.RunID, inputs)
			if err != nil {
				return nil, err
			}

			return map[string]any{
				"success":     true,
				"added_count": len(results),
				"results":     results,
			}, nil
		},
	}
}
