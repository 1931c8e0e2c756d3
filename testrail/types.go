package testrail

import (
	"encoding/json"
	"fmt"
)

// Case represents a TestRail test case. Fields that are not part of the
// fixed core (custom_* fields and anything added by newer TestRail versions)
// are kept in Custom so they survive a decode/encode round trip.
type Case struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	SectionID        int     `json:"section_id"`
	TemplateID       int     `json:"template_id"`
	TypeID           int     `json:"type_id"`
	PriorityID       int     `json:"priority_id"`
	MilestoneID      *int    `json:"milestone_id"`
	Refs             *string `json:"refs"`
	CreatedBy        int     `json:"created_by"`
	CreatedOn        int64   `json:"created_on"`
	UpdatedBy        int     `json:"updated_by"`
	UpdatedOn        int64   `json:"updated_on"`
	Estimate         *string `json:"estimate"`
	EstimateForecast *string `json:"estimate_forecast"`
	SuiteID          int     `json:"suite_id"`
	DisplayOrder     int     `json:"display_order"`
	IsDeleted        int     `json:"is_deleted"`
	Labels           []Label `json:"labels"`

	// Custom holds every key not covered above, keyed by its wire name.
	Custom map[string]any `json:"-"`
}

// Label is a case label.
type Label struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// caseCoreKeys lists the wire names decoded into Case's fixed fields.
var caseCoreKeys = map[string]struct{}{
	"id": {}, "title": {}, "section_id": {}, "template_id": {}, "type_id": {},
	"priority_id": {}, "milestone_id": {}, "refs": {}, "created_by": {},
	"created_on": {}, "updated_by": {}, "updated_on": {}, "estimate": {},
	"estimate_forecast": {}, "suite_id": {}, "display_order": {},
	"is_deleted": {}, "labels": {},
}

// caseCore has Case's fields without its methods, so it can be used with
// encoding/json without recursing into Case.UnmarshalJSON.
type caseCore Case

// UnmarshalJSON decodes the fixed fields and collects the rest into Custom.
func (c *Case) UnmarshalJSON(data []byte) error {
	var core caseCore
	if err := json.Unmarshal(data, &core); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for key, value := range raw {
		if _, ok := caseCoreKeys[key]; ok {
			continue
		}
		var v any
		if err := json.Unmarshal(value, &v); err != nil {
			return fmt.Errorf("failed to decode case field %q: %w", key, err)
		}
		if core.Custom == nil {
			core.Custom = make(map[string]any)
		}
		core.Custom[key] = v
	}

	*c = Case(core)
	return nil
}

// MarshalJSON encodes the fixed fields and the Custom bag as one object.
// Custom keys never override a fixed field.
func (c Case) MarshalJSON() ([]byte, error) {
	out := c.Fields()
	return json.Marshal(out)
}

// Fields returns the case as a flat map of wire names to values, including
// custom fields.
func (c Case) Fields() map[string]any {
	out := make(map[string]any, len(caseCoreKeys)+len(c.Custom))
	for k, v := range c.Custom {
		out[k] = v
	}

	out["id"] = c.ID
	out["title"] = c.Title
	out["section_id"] = c.SectionID
	out["template_id"] = c.TemplateID
	out["type_id"] = c.TypeID
	out["priority_id"] = c.PriorityID
	out["milestone_id"] = derefOrNil(c.MilestoneID)
	out["refs"] = derefOrNil(c.Refs)
	out["created_by"] = c.CreatedBy
	out["created_on"] = c.CreatedOn
	out["updated_by"] = c.UpdatedBy
	out["updated_on"] = c.UpdatedOn
	out["estimate"] = derefOrNil(c.Estimate)
	out["estimate_forecast"] = derefOrNil(c.EstimateForecast)
	out["suite_id"] = c.SuiteID
	out["display_order"] = c.DisplayOrder
	out["is_deleted"] = c.IsDeleted
	labels := c.Labels
	if labels == nil {
		labels = []Label{}
	}
	out["labels"] = labels

	return out
}

// Field returns the value stored under a wire name, core or custom.
func (c Case) Field(name string) (any, bool) {
	v, ok := c.Fields()[name]
	return v, ok
}

func derefOrNil[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// Section is a node of a suite's section tree. ParentID is nil at the root.
type Section struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	ParentID     *int    `json:"parent_id"`
	Depth        int     `json:"depth"`
	DisplayOrder int     `json:"display_order"`
	SuiteID      int     `json:"suite_id"`
}

// Field type ids as reported by get_case_fields.
const (
	FieldTypeString      = 1
	FieldTypeInteger     = 2
	FieldTypeText        = 3
	FieldTypeURL         = 4
	FieldTypeCheckbox    = 5
	FieldTypeDropdown    = 6
	FieldTypeUser        = 7
	FieldTypeDate        = 8
	FieldTypeMilestone   = 9
	FieldTypeSteps       = 10
	FieldTypeStepResults = 11
	FieldTypeMultiSelect = 12
	FieldTypeScenarios   = 13
)

// CaseField describes the schema of a custom case field.
type CaseField struct {
	ID           int               `json:"id"`
	Name         string            `json:"name"`
	SystemName   string            `json:"system_name"`
	Label        string            `json:"label"`
	TypeID       int               `json:"type_id"`
	TemplateIDs  []int             `json:"template_ids"`
	IsActive     bool              `json:"is_active"`
	DisplayOrder int               `json:"display_order"`
	Description  *string           `json:"description"`
	IncludeAll   bool              `json:"include_all"`
	Configs      []CaseFieldConfig `json:"configs"`
}

// AppliesTo reports whether the field is used by the given template.
func (f CaseField) AppliesTo(templateID int) bool {
	if f.IncludeAll {
		return true
	}
	for _, id := range f.TemplateIDs {
		if id == templateID {
			return true
		}
	}
	return false
}

// IsRequired reports whether any config marks the field as required.
func (f CaseField) IsRequired() bool {
	for _, cfg := range f.Configs {
		if cfg.Options.IsRequired {
			return true
		}
	}
	return false
}

// CaseFieldConfig is one context/options block of a CaseField.
type CaseFieldConfig struct {
	Context CaseFieldContext `json:"context"`
	Options CaseFieldOptions `json:"options"`
}

// CaseFieldContext scopes a field config to projects.
type CaseFieldContext struct {
	IsGlobal   bool  `json:"is_global"`
	ProjectIDs []int `json:"project_ids"`
}

// CaseFieldOptions holds per-config options. Items carries dropdown and
// multi-select options as "id, label" lines.
type CaseFieldOptions struct {
	DefaultValue string `json:"default_value,omitempty"`
	Format       string `json:"format,omitempty"`
	IsRequired   bool   `json:"is_required,omitempty"`
	Rows         string `json:"rows,omitempty"`
	Items        string `json:"items,omitempty"`
}

// Project is a TestRail project.
type Project struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	Announcement     *string `json:"announcement"`
	ShowAnnouncement bool    `json:"show_announcement"`
	IsCompleted      bool    `json:"is_completed"`
	CompletedOn      *int64  `json:"completed_on"`
	SuiteMode        int     `json:"suite_mode"`
	URL              string  `json:"url"`
}

// Template is a case template of a project.
type Template struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

// Priority is a case priority.
type Priority struct {
	ID        int    `json:"id"`
	IsDefault bool   `json:"is_default"`
	Name      string `json:"name"`
	Priority  int    `json:"priority"`
	ShortName string `json:"short_name"`
}

// CaseType is a case type such as Automated or Functional.
type CaseType struct {
	ID        int    `json:"id"`
	IsDefault bool   `json:"is_default"`
	Name      string `json:"name"`
}

// Status is a test status such as Passed or Failed.
type Status struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Label      string `json:"label"`
	IsSystem   bool   `json:"is_system"`
	IsUntested bool   `json:"is_untested"`
	IsFinal    bool   `json:"is_final"`
}

// Run is a test run.
type Run struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Description   *string `json:"description"`
	SuiteID       int     `json:"suite_id"`
	ProjectID     int     `json:"project_id"`
	MilestoneID   *int    `json:"milestone_id"`
	IncludeAll    bool    `json:"include_all"`
	IsCompleted   bool    `json:"is_completed"`
	PassedCount   int     `json:"passed_count"`
	FailedCount   int     `json:"failed_count"`
	UntestedCount int     `json:"untested_count"`
	CreatedOn     int64   `json:"created_on"`
	URL           string  `json:"url"`
}

// RunParams is the body of add_run.
type RunParams struct {
	SuiteID     int    `json:"suite_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	MilestoneID int    `json:"milestone_id,omitempty"`
	IncludeAll  bool   `json:"include_all"`
	CaseIDs     []int  `json:"case_ids"`
}

// Test is a case's occurrence inside a run.
type Test struct {
	ID       int     `json:"id"`
	CaseID   int     `json:"case_id"`
	RunID    int     `json:"run_id"`
	StatusID int     `json:"status_id"`
	Title    string  `json:"title"`
	Refs     *string `json:"refs"`
}

// ResultInput is one entry of add_results.
type ResultInput struct {
	TestID   int    `json:"test_id"`
	StatusID int    `json:"status_id"`
	Comment  string `json:"comment,omitempty"`
	Defects  string `json:"defects,omitempty"`
}

// Result is an outcome recorded against a test.
type Result struct {
	ID        int     `json:"id"`
	TestID    int     `json:"test_id"`
	StatusID  int     `json:"status_id"`
	Comment   *string `json:"comment"`
	Defects   *string `json:"defects"`
	CreatedOn int64   `json:"created_on"`
}

// Attachment is the metadata returned after an upload.
type Attachment struct {
	AttachmentID int    `json:"attachment_id"`
	URL          string `json:"url,omitempty"`
}
