package testrail

import (
	"context"
	"maps"
)

// CreateCase creates a case in a section. fields must include "title".
func (c *Client) CreateCase(ctx context.Context, sectionID int, fields map[string]any) (*Case, error) {
	var created Case
	if err := c.postJSON(ctx, apiPath("add_case", sectionID), fields, &created); err != nil {
		return nil, err
	}
	c.logger.Info().Int("case_id", created.ID).Int("section_id", sectionID).Msg("Created case")
	return &created, nil
}

// UpdateCase applies a partial update and returns the case as stored.
func (c *Client) UpdateCase(ctx context.Context, caseID int, fields map[string]any) (*Case, error) {
	var updated Case
	if err := c.postJSON(ctx, apiPath("update_case", caseID), fields, &updated); err != nil {
		return nil, err
	}
	c.logger.Info().Int("case_id", caseID).Msg("Updated case")
	return &updated, nil
}

// UpdateCases applies the same fields to several cases of one suite.
func (c *Client) UpdateCases(ctx context.Context, suiteID int, caseIDs []int, fields map[string]any) ([]Case, error) {
	payload := make(map[string]any, len(fields)+1)
	maps.Copy(payload, fields)
	payload["case_ids"] = caseIDs

	body, err := c.postRaw(ctx, apiPath("update_cases", suiteID), payload)
	if err != nil {
		return nil, err
	}
	updated, err := decodeList[Case](body, "updated_cases")
	if err != nil {
		return nil, err
	}

	c.logger.Info().Int("suite_id", suiteID).Int("count", len(updated)).Msg("Updated cases")
	return updated, nil
}

// AddRun creates a run in a project.
func (c *Client) AddRun(ctx context.Context, projectID int, params RunParams) (*Run, error) {
	var run Run
	if err := c.postJSON(ctx, apiPath("add_run", projectID), params, &run); err != nil {
		return nil, err
	}
	c.logger.Info().Int("run_id", run.ID).Int("project_id", projectID).Msg("Created run")
	return &run, nil
}

// AddResults records results for tests of a run.
func (c *Client) AddResults(ctx context.Context, runID int, results []ResultInput) ([]Result, error) {
	payload := map[string]any{"results": results}

	body, err := c.postRaw(ctx, apiPath("add_results", runID), payload)
	if err != nil {
		return nil, err
	}
	added, err := decodeList[Result](body, "results")
	if err != nil {
		return nil, err
	}

	c.logger.Info().Int("run_id", runID).Int("count", len(added)).Msg("Added results")
	return added, nil
}
