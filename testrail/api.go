package testrail

import (
	"context"
)

// API defines the interface for TestRail operations
type API interface {
	// TestConnection verifies the client can reach TestRail with its credentials
	TestConnection(ctx context.Context) error

	// Case operations
	GetCase(ctx context.Context, caseID int) (*Case, error)
	GetCases(ctx context.Context, projectID int, query CaseQuery) ([]Case, error)
	GetCasesRecursively(ctx context.Context, projectID, sectionID int, filter map[string]string, excludes []string) ([]Case, error)
	CreateCase(ctx context.Context, sectionID int, fields map[string]any) (*Case, error)
	UpdateCase(ctx context.Context, caseID int, fields map[string]any) (*Case, error)
	UpdateCases(ctx context.Context, suiteID int, caseIDs []int, fields map[string]any) ([]Case, error)

	// Section operations
	GetSection(ctx context.Context, sectionID int) (*Section, error)
	GetSections(ctx context.Context, projectID int) ([]Section, error)

	// Reference data, fetched at most once per client
	GetProjects(ctx context.Context) ([]Project, error)
	GetTemplates(ctx context.Context, projectID int) ([]Template, error)
	GetPriorities(ctx context.Context) ([]Priority, error)
	GetCaseTypes(ctx context.Context) ([]CaseType, error)
	GetCaseFields(ctx context.Context) ([]CaseField, error)
	GetStatuses(ctx context.Context) ([]Status, error)

	// Run operations
	AddRun(ctx context.Context, projectID int, params RunParams) (*Run, error)
	GetTests(ctx context.Context, runID int, statusIDs []int) ([]Test, error)
	AddResults(ctx context.Context, runID int, results []ResultInput) ([]Result, error)
	AddAttachmentToRun(ctx context.Context, runID int, data []byte, filename string) (*Attachment, error)
}
