package tools

import (
	"context"
	"maps"
	"reflect"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/testrail-mcp/testrail"
)

const unknownName = "Unknown"

type caseArgs struct {
	CaseID string `mapstructure:"case_id" json:"case_id"`
}

func (a caseArgs) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.CaseID, validation.Required, isCaseRef),
	)
}

func (ts *Toolset) getCaseTool() Tool {
	return Tool{
		Definition: mcp.NewTool("get_case",
			mcp.WithDescription("Get a test case from TestRail by ID"),
			mcp.WithString("case_id", mcp.Required(), mcp.Description("The ID of the test case (e.g. '123' or 'C123')")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		Handler: ts.getCase,
	}
}

func (ts *Toolset) getCase(ctx context.Context, raw map[string]any) (any, error) {
	var args caseArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	caseID, err := parseCaseID(args.CaseID)
	if err != nil {
		return nil, err
	}

	tc, err := ts.api.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	var (
		section    *testrail.Section
		caseTypes  []testrail.CaseType
		priorities []testrail.Priority
		caseFields []testrail.CaseField
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		section, err = ts.api.GetSection(gctx, tc.SectionID)
		return err
	})
	g.Go(func() (err error) {
		caseTypes, err = ts.api.GetCaseTypes(gctx)
		return err
	})
	g.Go(func() (err error) {
		priorities, err = ts.api.GetPriorities(gctx)
		return err
	})
	g.Go(func() (err error) {
		caseFields, err = ts.api.GetCaseFields(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	typeName := unknownName
	for _, t := range caseTypes {
		if t.ID == tc.TypeID {
			typeName = t.Name
			break
		}
	}
	priorityName := unknownName
	for _, p := range priorities {
		if p.ID == tc.PriorityID {
			priorityName = p.Name
			break
		}
	}

	labels := tc.Labels
	if labels == nil {
		labels = []testrail.Label{}
	}

	response := map[string]any{
		"id":         tc.ID,
		"title":      tc.Title,
		"section":    section.Name,
		"type":       typeName,
		"priority":   priorityName,
		"labels":     labels,
		"references": tc.Refs,
		"updated_on": tc.UpdatedOn,
	}
	maps.Copy(response, ProcessCustomFields(*tc, caseFields, ts.logger))

	generic, err := toGeneric(response)
	if err != nil {
		return nil, err
	}
	return StripStyles(generic), nil
}

type sectionArgs struct {
	ID        int      `mapstructure:"id" json:"id"`
	Recursive bool     `mapstructure:"recursive" json:"recursive"`
	Excludes  []string `mapstructure:"excludes" json:"excludes"`
}

func (a sectionArgs) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.ID, positiveID...),
	)
}

type getCasesArgs struct {
	ProjectID int               `mapstructure:"project_id" json:"project_id"`
	Section   *sectionArgs      `mapstructure:"section" json:"section"`
	Filter    map[string]string `mapstructure:"filter" json:"filter"`
	Where     map[string]any    `mapstructure:"where" json:"where"`
	Query     string            `mapstructure:"query" json:"query"`
	Preset    string            `mapstructure:"preset" json:"preset"`
	Fields    []string          `mapstructure:"fields" json:"fields"`
}

func (a getCasesArgs) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.ProjectID, positiveID...),
		validation.Field(&a.Section),
	)
}

// defaultCaseFields are always part of a get_cases projection.
var defaultCaseFields = []string{"id", "title", "suite_id"}

func (ts *Toolset) getCasesTool() Tool {
	return Tool{
		Definition: mcp.NewTool("get_cases",
			mcp.WithDescription("Get all test cases for a project. Filter by section, API params (priority, type), any field including custom fields via 'where', or an expression via 'query'/'preset'. Returns case IDs, titles, and any additional requested fields."),
			mcp.WithNumber("project_id", mcp.Required(), mcp.Description("The ID of the project. Use get_projects to find available projects")),
			mcp.WithObject("section",
				mcp.Description("Section filter configuration. Use get_sections to find available sections"),
				mcp.Properties(map[string]any{
					"id": map[string]any{
						"type":        "number",
						"description": "The ID of the section",
					},
					"recursive": map[string]any{
						"type":        "boolean",
						"description": "If true, fetches cases from the section and all its child sections",
						"default":     false,
					},
					"excludes": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "List of section names to exclude from the recursive search",
					},
				}),
			),
			mcp.WithObject("filter",
				mcp.Description("Optional API-side filters (more efficient for large datasets). Supported: priority_id, type_id, created_by, updated_by, milestone_id, refs, created_after, created_before, updated_after, updated_before. Use comma-separated values for IDs. Example: {\"priority_id\": \"1,2\", \"type_id\": \"3\"}"),
				mcp.AdditionalProperties(map[string]any{"type": "string"}),
			),
			mcp.WithObject("where",
				mcp.Description("Optional client-side filter for any field including custom fields (filters after fetching all cases). Supports exact value matching. Example: {\"custom_automation_status\": 1, \"priority_id\": 2}"),
			),
			mcp.WithString("query",
				mcp.Description("Optional filter expression evaluated per case, e.g. `priority_id >= 3 and hasLabel(\"smoke\")`. Every case field is a variable; helpers: includes, hasPrefix, hasSuffix (case-insensitive), lower, upper, hasLabel, hasRef, daysSince, daysAgo, parseDate"),
			),
			mcp.WithString("preset",
				mcp.Description("Optional name of a filter expression configured on the server"),
			),
			mcp.WithArray("fields",
				mcp.Description("Additional fields to include in response beyond id, title, and suite_id. Use get_case_fields to see available fields. Example: [\"priority_id\", \"type_id\", \"custom_automation_status\"]"),
				mcp.Items(map[string]any{"type": "string"}),
			),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		Handler: ts.getCases,
	}
}

func (ts *Toolset) getCases(ctx context.Context, raw map[string]any) (any, error) {
	var args getCasesArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	var (
		cases []testrail.Case
		err   error
	)
	switch {
	case args.Section != nil && args.Section.Recursive:
		cases, err = ts.api.GetCasesRecursively(ctx, args.ProjectID, args.Section.ID, args.Filter, args.Section.Excludes)
	case args.Section != nil:
		cases, err = ts.api.GetCases(ctx, args.ProjectID, testrail.CaseQuery{SectionID: args.Section.ID, Filter: args.Filter})
	default:
		cases, err = ts.api.GetCases(ctx, args.ProjectID, testrail.CaseQuery{Filter: args.Filter})
	}
	if err != nil {
		return nil, err
	}

	if args.Preset != "" {
		if cases, err = ts.filters.EvaluateFilter(ctx, args.Preset, cases); err != nil {
			return nil, err
		}
	}
	if args.Query != "" {
		if cases, err = ts.filters.EvaluateExpression(ctx, args.Query, cases); err != nil {
			return nil, err
		}
	}

	where, err := toGeneric(args.Where)
	if err != nil {
		return nil, err
	}
	whereMap, _ := where.(map[string]any)

	fields := append(append([]string{}, defaultCaseFields...), args.Fields...)
	out := make([]map[string]any, 0, len(cases))
	for _, tc := range cases {
		generic, err := toGeneric(tc)
		if err != nil {
			return nil, err
		}
		values, _ := generic.(map[string]any)

		if !matchesWhere(values, whereMap) {
			continue
		}
		out = append(out, project(values, fields))
	}

	ts.logger.Debug().
		Int("project_id", args.ProjectID).
		Int("fetched", len(cases)).
		Int("returned", len(out)).
		Msg("Listed cases")

	return map[string]any{"cases": out}, nil
}

// matchesWhere reports whether every where entry equals the case value of
// the same key. A key missing from the case never matches.
func matchesWhere(values, where map[string]any) bool {
	for key, want := range where {
		got, ok := values[key]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// project keeps the listed keys that exist in values.
func project(values map[string]any, keys []string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := values[k]; ok {
			out[k] = v
		}
	}
	return out
}
