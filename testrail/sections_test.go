package testrail

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

// sectionServer serves a fixed section list and one case per section whose
// title is "case-<section id>". delay lets earlier sections answer later.
func sectionServer(t *testing.T, sections []Section, delay func(sectionID int) time.Duration, opts ...Option) (*Client, *requestLog) {
	t.Helper()
	return newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch endpoint(r) {
		case "/api/v2/get_sections/1":
			writeJSON(w, map[string]any{"sections": sections, "_links": map[string]any{"next": nil}})
		case "/api/v2/get_cases/1":
			id, err := strconv.Atoi(r.URL.Query().Get("section_id"))
			if !assert.NoError(t, err) {
				return
			}
			if delay != nil {
				time.Sleep(delay(id))
			}
			writeJSON(w, map[string]any{
				"cases": []map[string]any{{"id": id * 100, "title": "case-" + strconv.Itoa(id), "section_id": id}},
			})
		default:
			t.Errorf("unexpected request %q", r.URL.RawQuery)
		}
	}, opts...)
}

func titles(cases []Case) []string {
	out := make([]string, len(cases))
	for i, c := range cases {
		out[i] = c.Title
	}
	return out
}

func TestGetCasesRecursively(t *testing.T) {
	sections := []Section{
		{ID: 1, Name: "Root"},
		{ID: 2, Name: "Child A", ParentID: intPtr(1)},
		{ID: 3, Name: "Grandchild", ParentID: intPtr(2)},
		{ID: 4, Name: "Child B", ParentID: intPtr(1)},
		{ID: 5, Name: "Unrelated"},
	}

	// Earlier sections answer last; output order must still follow the tree.
	slowFirst := func(id int) time.Duration { return time.Duration(5-id) * 20 * time.Millisecond }
	client, log := sectionServer(t, sections, slowFirst)

	cases, err := client.GetCasesRecursively(context.Background(), 1, 1, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"case-1", "case-2", "case-3", "case-4"}, titles(cases))
	assert.Equal(t, 1, log.count("/api/v2/get_sections/1"))
	assert.Equal(t, 4, log.count("/api/v2/get_cases/1"))
	for _, q := range log.all() {
		assert.NotContains(t, q, "section_id=5")
	}
}

func TestGetCasesRecursivelyExcludes(t *testing.T) {
	sections := []Section{
		{ID: 1, Name: "Root"},
		{ID: 2, Name: "Exclude Me", ParentID: intPtr(1)},
		{ID: 3, Name: "Child of Excluded", ParentID: intPtr(2)},
		{ID: 4, Name: "Keep", ParentID: intPtr(1)},
	}
	client, log := sectionServer(t, sections, nil)

	cases, err := client.GetCasesRecursively(context.Background(), 1, 1, nil, []string{"Exclude Me"})
	require.NoError(t, err)

	assert.Equal(t, []string{"case-1", "case-4"}, titles(cases))
	assert.Equal(t, 2, log.count("/api/v2/get_cases/1"))
}

func TestGetCasesRecursivelyForwardsFilter(t *testing.T) {
	sections := []Section{
		{ID: 1, Name: "Root"},
		{ID: 2, Name: "Child", ParentID: intPtr(1)},
	}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if endpoint(r) == "/api/v2/get_sections/1" {
			writeJSON(w, map[string]any{"sections": sections})
			return
		}
		assert.Equal(t, "2", r.URL.Query().Get("priority_id"))
		writeJSON(w, map[string]any{"cases": []any{}})
	})

	cases, err := client.GetCasesRecursively(context.Background(), 1, 1, map[string]string{"priority_id": "2"}, nil)
	require.NoError(t, err)
	assert.Empty(t, cases)
}

func TestGetCasesRecursivelyKeepsSectionScope(t *testing.T) {
	sections := []Section{
		{ID: 1, Name: "Root"},
		{ID: 2, Name: "Child A", ParentID: intPtr(1)},
		{ID: 3, Name: "Grandchild", ParentID: intPtr(2)},
		{ID: 4, Name: "Child B", ParentID: intPtr(1)},
	}
	client, log := sectionServer(t, sections, nil)

	filter := map[string]string{"section_id": "99", "suite_id": "7", "priority_id": "1"}
	cases, err := client.GetCasesRecursively(context.Background(), 1, 1, filter, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"case-1", "case-2", "case-3", "case-4"}, titles(cases))
	for _, q := range log.all() {
		assert.NotContains(t, q, "section_id=99")
	}
	assert.Equal(t, map[string]string{"section_id": "99", "suite_id": "7", "priority_id": "1"}, filter)
}

func TestGetCasesRecursivelyRespectsConcurrencyLimit(t *testing.T) {
	sections := []Section{{ID: 1, Name: "Root"}}
	for id := 2; id <= 12; id++ {
		sections = append(sections, Section{ID: id, Name: "S" + strconv.Itoa(id), ParentID: intPtr(1)})
	}

	var inFlight, peak atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if endpoint(r) == "/api/v2/get_sections/1" {
			writeJSON(w, map[string]any{"sections": sections})
			return
		}
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		writeJSON(w, map[string]any{"cases": []any{}})
	}, WithMaxConcurrency(2))

	_, err := client.GetCasesRecursively(context.Background(), 1, 1, nil, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestGetCasesRecursivelyFailsOnSectionError(t *testing.T) {
	sections := []Section{
		{ID: 1, Name: "Root"},
		{ID: 2, Name: "Broken", ParentID: intPtr(1)},
	}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if endpoint(r) == "/api/v2/get_sections/1" {
			writeJSON(w, map[string]any{"sections": sections})
			return
		}
		if r.URL.Query().Get("section_id") == "2" {
			w.WriteHeader(http.StatusBadRequest)
			writeJSON(w, map[string]any{"error": "Field :section_id is not a valid section."})
			return
		}
		writeJSON(w, map[string]any{"cases": []any{}})
	})

	cases, err := client.GetCasesRecursively(context.Background(), 1, 1, nil, nil)
	require.Error(t, err)
	assert.Nil(t, cases)
	assert.Contains(t, err.Error(), "TestRail API error: 400 Bad Request")
}

func TestSectionTreeDescendants(t *testing.T) {
	t.Run("root not in list", func(t *testing.T) {
		tree := newSectionTree(nil)
		assert.Equal(t, []int{7}, tree.descendants(7, nil))
	})

	t.Run("root name matching an exclude is kept", func(t *testing.T) {
		tree := newSectionTree([]Section{
			{ID: 1, Name: "Skip"},
			{ID: 2, Name: "Skip", ParentID: intPtr(1)},
		})
		assert.Equal(t, []int{1}, tree.descendants(1, []string{"Skip"}))
	})

	t.Run("cycle is visited once", func(t *testing.T) {
		tree := newSectionTree([]Section{
			{ID: 1, Name: "A", ParentID: intPtr(2)},
			{ID: 2, Name: "B", ParentID: intPtr(1)},
		})
		assert.Equal(t, []int{1, 2}, tree.descendants(1, nil))
	})

	t.Run("siblings keep server order", func(t *testing.T) {
		tree := newSectionTree([]Section{
			{ID: 9, Name: "Z", ParentID: intPtr(1)},
			{ID: 3, Name: "A", ParentID: intPtr(1)},
			{ID: 4, Name: "A1", ParentID: intPtr(3)},
		})
		assert.Equal(t, []int{1, 9, 3, 4}, tree.descendants(1, nil))
	})
}
