package testrail

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// GetProjects retrieves all projects. The first result is shared for the
// lifetime of the client.
func (c *Client) GetProjects(ctx context.Context) ([]Project, error) {
	return c.projects.Do(ctx, func(ctx context.Context) ([]Project, error) {
		c.logger.Debug().Msg("Fetching projects")
		return fetchAll[Project](ctx, c, apiPath("get_projects"), "projects")
	})
}

// GetTemplates retrieves the case templates of a project, cached per project.
func (c *Client) GetTemplates(ctx context.Context, projectID int) ([]Template, error) {
	return c.templates.Do(ctx, projectID, func(ctx context.Context) ([]Template, error) {
		c.logger.Debug().Int("project_id", projectID).Msg("Fetching templates")
		body, err := c.doRequest(ctx, http.MethodGet, apiPath("get_templates", projectID), nil, nil)
		if err != nil {
			return nil, err
		}
		return decodeList[Template](body, "templates")
	})
}

// GetPriorities retrieves all case priorities.
func (c *Client) GetPriorities(ctx context.Context) ([]Priority, error) {
	return c.priorities.Do(ctx, func(ctx context.Context) ([]Priority, error) {
		c.logger.Debug().Msg("Fetching priorities")
		var priorities []Priority
		if err := c.getJSON(ctx, apiPath("get_priorities"), &priorities); err != nil {
			return nil, err
		}
		return priorities, nil
	})
}

// GetCaseTypes retrieves all case types.
func (c *Client) GetCaseTypes(ctx context.Context) ([]CaseType, error) {
	return c.caseTypes.Do(ctx, func(ctx context.Context) ([]CaseType, error) {
		c.logger.Debug().Msg("Fetching case types")
		var types []CaseType
		if err := c.getJSON(ctx, apiPath("get_case_types"), &types); err != nil {
			return nil, err
		}
		return types, nil
	})
}

// GetCaseFields retrieves the custom case field schema.
func (c *Client) GetCaseFields(ctx context.Context) ([]CaseField, error) {
	return c.caseFields.Do(ctx, func(ctx context.Context) ([]CaseField, error) {
		c.logger.Debug().Msg("Fetching case fields")
		var fields []CaseField
		if err := c.getJSON(ctx, apiPath("get_case_fields"), &fields); err != nil {
			return nil, err
		}
		return fields, nil
	})
}

// GetStatuses retrieves all test statuses.
func (c *Client) GetStatuses(ctx context.Context) ([]Status, error) {
	return c.statuses.Do(ctx, func(ctx context.Context) ([]Status, error) {
		c.logger.Debug().Msg("Fetching statuses")
		var statuses []Status
		if err := c.getJSON(ctx, apiPath("get_statuses"), &statuses); err != nil {
			return nil, err
		}
		return statuses, nil
	})
}

// GetSection retrieves a single section.
func (c *Client) GetSection(ctx context.Context, sectionID int) (*Section, error) {
	var section Section
	if err := c.getJSON(ctx, apiPath("get_section", sectionID), &section); err != nil {
		return nil, err
	}
	return &section, nil
}

// GetSections retrieves every section of a project.
func (c *Client) GetSections(ctx context.Context, projectID int) ([]Section, error) {
	sections, err := fetchAll[Section](ctx, c, apiPath("get_sections", projectID), "sections")
	if err != nil {
		return nil, err
	}
	return sections, nil
}

// GetTests retrieves the tests of a run, optionally restricted to statuses.
func (c *Client) GetTests(ctx context.Context, runID int, statusIDs []int) ([]Test, error) {
	path := apiPath("get_tests", runID)
	if len(statusIDs) > 0 {
		path = withQuery(path, url.Values{"status_id": {joinInts(statusIDs)}})
	}
	return fetchAll[Test](ctx, c, path, "tests")
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
