package testrail

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"
)

// sectionTree indexes a flat section list by parent id, keeping the server's
// order among siblings.
type sectionTree struct {
	children map[int][]Section
}

func newSectionTree(sections []Section) *sectionTree {
	t := &sectionTree{children: make(map[int][]Section)}
	for _, s := range sections {
		if s.ParentID != nil {
			t.children[*s.ParentID] = append(t.children[*s.ParentID], s)
		}
	}
	return t
}

// descendants returns rootID followed by every descendant id in depth-first
// pre-order. A child whose name is in excludes is skipped together with its
// whole subtree. The root itself is never excluded.
func (t *sectionTree) descendants(rootID int, excludes []string) []int {
	ids := []int{rootID}
	visited := map[int]bool{rootID: true}

	var walk func(parentID int)
	walk = func(parentID int) {
		for _, child := range t.children[parentID] {
			if slices.Contains(excludes, child.Name) {
				continue
			}
			// Malformed data could loop; each section is visited once.
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			ids = append(ids, child.ID)
			walk(child.ID)
		}
	}
	walk(rootID)

	return ids
}

// GetCasesRecursively retrieves the cases of a section and of all its
// descendant sections. filter is forwarded to every per-section fetch;
// sections named in excludes are pruned with their subtrees. Results are
// concatenated in depth-first pre-order of the tree regardless of which
// fetch finishes first.
func (c *Client) GetCasesRecursively(ctx context.Context, projectID, sectionID int, filter map[string]string, excludes []string) ([]Case, error) {
	sections, err := c.GetSections(ctx, projectID)
	if err != nil {
		return nil, err
	}

	ids := newSectionTree(sections).descendants(sectionID, excludes)

	c.logger.Debug().
		Int("project_id", projectID).
		Int("root_section_id", sectionID).
		Ints("section_ids", ids).
		Strs("excludes", excludes).
		Msg("Expanded section tree")

	g, gctx := errgroup.WithContext(ctx)
	if c.maxConcurrency > 0 {
		g.SetLimit(c.maxConcurrency)
	}

	results := make([][]Case, len(ids))
	for i, id := range ids {
		g.Go(func() error {
			cases, err := c.GetCases(gctx, projectID, CaseQuery{SectionID: id, Filter: filter})
			if err != nil {
				return err
			}
			results[i] = cases
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	merged := make([]Case, 0, total)
	for _, r := range results {
		merged = append(merged, r...)
	}

	return merged, nil
}
