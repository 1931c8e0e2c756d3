package tools

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/testrail-mcp/testrail"
)

// mockTestRailAPI implements testrail.API for testing
type mockTestRailAPI struct {
	mu sync.Mutex

	cases      map[int]*testrail.Case
	sections   map[int]*testrail.Section
	projects   []testrail.Project
	templates  []testrail.Template
	priorities []testrail.Priority
	caseTypes  []testrail.CaseType
	caseFields []testrail.CaseField
	statuses   []testrail.Status
	tests      []testrail.Test
	err        error

	// Track calls for verification
	getCasesQuery      testrail.CaseQuery
	recursiveExcludes  []string
	recursiveCalls     int
	updatedFields      map[string]any
	updatedSuiteID     int
	createdSectionID   int
	createdFields      map[string]any
	runParams          testrail.RunParams
	testsStatusIDs     []int
	addedResults       []testrail.ResultInput
	attachmentData     []byte
	attachmentFilename string
}

var _ testrail.API = (*mockTestRailAPI)(nil)

func (m *mockTestRailAPI) TestConnection(ctx context.Context) error {
	return m.err
}

func (m *mockTestRailAPI) GetCase(ctx context.Context, caseID int) (*testrail.Case, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if tc, ok := m.cases[caseID]; ok {
		return tc, nil
	}
	return nil, &testrail.APIError{StatusCode: 400, StatusText: "Bad Request", Body: `{"error":"Field :case_id is not a valid test case."}`}
}

func (m *mockTestRailAPI) allCases() []testrail.Case {
	out := make([]testrail.Case, 0, len(m.cases))
	for _, id := range slices.Sorted(maps.Keys(m.cases)) {
		out = append(out, *m.cases[id])
	}
	return out
}

func (m *mockTestRailAPI) GetCases(ctx context.Context, projectID int, query testrail.CaseQuery) ([]testrail.Case, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCasesQuery = query
	return m.allCases(), nil
}

func (m *mockTestRailAPI) GetCasesRecursively(ctx context.Context, projectID, sectionID int, filter map[string]string, excludes []string) ([]testrail.Case, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recursiveCalls++
	m.recursiveExcludes = excludes
	m.getCasesQuery = testrail.CaseQuery{SectionID: sectionID, Filter: filter}
	return m.allCases(), nil
}

func (m *mockTestRailAPI) CreateCase(ctx context.Context, sectionID int, fields map[string]any) (*testrail.Case, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.createdSectionID = sectionID
	m.createdFields = fields
	return &testrail.Case{ID: 900, SectionID: sectionID}, nil
}

func (m *mockTestRailAPI) UpdateCase(ctx context.Context, caseID int, fields map[string]any) (*testrail.Case, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.updatedFields = fields
	return &testrail.Case{ID: caseID}, nil
}

func (m *mockTestRailAPI) UpdateCases(ctx context.Context, suiteID int, caseIDs []int, fields map[string]any) ([]testrail.Case, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.updatedSuiteID = suiteID
	m.updatedFields = fields
	out := make([]testrail.Case, len(caseIDs))
	for i, id := range caseIDs {
		out[i] = testrail.Case{ID: id, SuiteID: suiteID}
	}
	return out, nil
}

func (m *mockTestRailAPI) GetSection(ctx context.Context, sectionID int) (*testrail.Section, error) {
	if s, ok := m.sections[sectionID]; ok {
		return s, nil
	}
	return &testrail.Section{ID: sectionID, Name: "Unnamed"}, nil
}

func (m *mockTestRailAPI) GetSections(ctx context.Context, projectID int) ([]testrail.Section, error) {
	out := make([]testrail.Section, 0, len(m.sections))
	for _, s := range m.sections {
		out = append(out, *s)
	}
	return out, m.err
}

func (m *mockTestRailAPI) GetProjects(ctx context.Context) ([]testrail.Project, error) {
	return m.projects, m.err
}

func (m *mockTestRailAPI) GetTemplates(ctx context.Context, projectID int) ([]testrail.Template, error) {
	return m.templates, m.err
}

func (m *mockTestRailAPI) GetPriorities(ctx context.Context) ([]testrail.Priority, error) {
	return m.priorities, m.err
}

func (m *mockTestRailAPI) GetCaseTypes(ctx context.Context) ([]testrail.CaseType, error) {
	return m.caseTypes, m.err
}

func (m *mockTestRailAPI) GetCaseFields(ctx context.Context) ([]testrail.CaseField, error) {
	return m.caseFields, m.err
}

func (m *mockTestRailAPI) GetStatuses(ctx context.Context) ([]testrail.Status, error) {
	return m.statuses, m.err
}

func (m *mockTestRailAPI) AddRun(ctx context.Context, projectID int, params testrail.RunParams) (*testrail.Run, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.runParams = params
	return &testrail.Run{ID: 55, ProjectID: projectID, SuiteID: params.SuiteID, Name: params.Name}, nil
}

func (m *mockTestRailAPI) GetTests(ctx context.Context, runID int, statusIDs []int) ([]testrail.Test, error) {
	m.testsStatusIDs = statusIDs
	return m.tests, m.err
}

func (m *mockTestRailAPI) AddResults(ctx context.Context, runID int, results []testrail.ResultInput) ([]testrail.Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.addedResults = results
	out := make([]testrail.Result, len(results))
	for i, r := range results {
		out[i] = testrail.Result{ID: i + 1, TestID: r.TestID, StatusID: r.StatusID}
	}
	return out, nil
}

func (m *mockTestRailAPI) AddAttachmentToRun(ctx context.Context, runID int, data []byte, filename string) (*testrail.Attachment, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.attachmentData = data
	m.attachmentFilename = filename
	return &testrail.Attachment{AttachmentID: 7}, nil
}

// callTool runs a tool and decodes its successful JSON text result.
func callTool(t *testing.T, ts *Toolset, name string, args map[string]any) map[string]any {
	t.Helper()

	result, err := ts.Call(context.Background(), name, args)
	require.NoError(t, err)
	require.Len(t, result.Content, 1)

	text := result.Content[0].(mcp.TextContent).Text
	require.False(t, result.IsError, text)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	return out
}

// callToolError runs a tool that is expected to fail and returns its text.
func callToolError(t *testing.T, ts *Toolset, name string, args map[string]any) string {
	t.Helper()

	result, err := ts.Call(context.Background(), name, args)
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Len(t, result.Content, 1)

	return result.Content[0].(mcp.TextContent).Text
}
