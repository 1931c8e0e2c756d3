package testrail

import (
	"context"
	"net/url"
	"strconv"
)

// CaseQuery narrows get_cases. Filter is forwarded as query parameters
// (priority_id, type_id, created_after, ...); SuiteID and SectionID win over
// Filter entries of the same name.
type CaseQuery struct {
	SuiteID   int
	SectionID int
	Filter    map[string]string
}

func (q CaseQuery) values() url.Values {
	params := url.Values{}
	for k, v := range q.Filter {
		params.Set(k, v)
	}
	if q.SuiteID > 0 {
		params.Set("suite_id", strconv.Itoa(q.SuiteID))
	}
	if q.SectionID > 0 {
		params.Set("section_id", strconv.Itoa(q.SectionID))
	}
	return params
}

// GetCase retrieves a single test case.
func (c *Client) GetCase(ctx context.Context, caseID int) (*Case, error) {
	var tc Case
	if err := c.getJSON(ctx, apiPath("get_case", caseID), &tc); err != nil {
		return nil, err
	}
	return &tc, nil
}

// GetCases retrieves every case of a project matching query, following
// pagination to the end.
func (c *Client) GetCases(ctx context.Context, projectID int, query CaseQuery) ([]Case, error) {
	path := withQuery(apiPath("get_cases", projectID), query.values())
	return fetchAll[Case](ctx, c, path, "cases")
}
