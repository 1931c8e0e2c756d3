package testrail

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requestLog records the routed query of every request a test server sees.
type requestLog struct {
	mu      sync.Mutex
	queries []string
}

func (l *requestLog) add(q string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queries = append(l.queries, q)
}

func (l *requestLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.queries...)
}

func (l *requestLog) count(prefix string) int {
	n := 0
	for _, q := range l.all() {
		if strings.HasPrefix(q, prefix) {
			n++
		}
	}
	return n
}

// endpoint returns the "/api/v2/<op>/<id>" part of a routed request.
func endpoint(r *http.Request) string {
	return strings.SplitN(r.URL.RawQuery, "&", 2)[0]
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *requestLog) {
	t.Helper()

	log := &requestLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.add(r.URL.RawQuery)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL+"/", "user@example.com", "secret", opts...)
	require.NoError(t, err)
	return client, log
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClient(t *testing.T) {
	t.Run("strips trailing slash", func(t *testing.T) {
		client, err := NewClient("https://example.testrail.io/", "u", "k")
		require.NoError(t, err)
		assert.Equal(t, "https://example.testrail.io", client.BaseURL())
		assert.Equal(t, DefaultMaxConcurrency, client.maxConcurrency)
	})

	t.Run("missing URL", func(t *testing.T) {
		_, err := NewClient("", "u", "k")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestClientOptions(t *testing.T) {
	t.Run("with timeout", func(t *testing.T) {
		client, err := NewClient("http://localhost", "u", "k", WithTimeout(5*time.Second))
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
	})

	t.Run("with custom http client", func(t *testing.T) {
		custom := &http.Client{Timeout: 10 * time.Second}
		client, err := NewClient("http://localhost", "u", "k", WithHTTPClient(custom))
		require.NoError(t, err)
		assert.Same(t, custom, client.httpClient)
	})

	t.Run("with max concurrency", func(t *testing.T) {
		client, err := NewClient("http://localhost", "u", "k", WithMaxConcurrency(0))
		require.NoError(t, err)
		assert.Equal(t, 0, client.maxConcurrency)
	})
}

func TestRequestShape(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/index.php", r.URL.Path)
		assert.Equal(t, "/api/v2/get_case/42", r.URL.RawQuery)
		assert.Equal(t, http.MethodGet, r.Method)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "user@example.com", user)
		assert.Equal(t, "secret", pass)

		writeJSON(w, map[string]any{"id": 42, "title": "Login works", "section_id": 3})
	})

	tc, err := client.GetCase(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 42, tc.ID)
	assert.Equal(t, "Login works", tc.Title)
}

func TestGetCasesQuery(t *testing.T) {
	client, log := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("suite_id"))
		assert.Equal(t, "9", q.Get("section_id"))
		assert.Equal(t, "1,2", q.Get("priority_id"))
		writeJSON(w, map[string]any{"cases": []any{}, "_links": map[string]any{"next": nil}})
	})

	cases, err := client.GetCases(context.Background(), 1, CaseQuery{
		SuiteID:   2,
		SectionID: 9,
		Filter:    map[string]string{"priority_id": "1,2"},
	})
	require.NoError(t, err)
	assert.Empty(t, cases)
	assert.NotNil(t, cases)

	queries := log.all()
	require.Len(t, queries, 1)
	assert.True(t, strings.HasPrefix(queries[0], "/api/v2/get_cases/1&"))
}

func TestErrors(t *testing.T) {
	t.Run("status error with JSON body", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error": "Case not found"}`)
		})

		_, err := client.GetCase(context.Background(), 999)
		require.Error(t, err)
		assert.Equal(t, `TestRail API error: 404 Not Found - {"error":"Case not found"}`, err.Error())

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.True(t, apiErr.IsNotFound())
	})

	t.Run("status error with text body", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, "upstream exploded")
		})

		_, err := client.GetCase(context.Background(), 1)
		require.Error(t, err)
		assert.Equal(t, "TestRail API error: 500 Internal Server Error - upstream exploded", err.Error())
	})

	t.Run("unauthorized", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"Authentication failed"}`)
		})

		err := client.TestConnection(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to TestRail")

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.True(t, apiErr.IsUnauthorized())
	})

	t.Run("malformed success body", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "<html>maintenance</html>")
		})

		_, err := client.GetCase(context.Background(), 1)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedResponse)
		assert.Equal(t, "TestRail API error: 200 OK - <html>maintenance</html>", err.Error())
	})

	t.Run("no response", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		baseURL := server.URL
		server.Close()

		client, err := NewClient(baseURL, "u", "k")
		require.NoError(t, err)

		_, err = client.GetCase(context.Background(), 1)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoResponse)
		assert.True(t, strings.HasPrefix(err.Error(), "TestRail API error: No response received. "))
	})
}

func TestAPIError(t *testing.T) {
	t.Run("IsUnauthorized", func(t *testing.T) {
		tests := []struct {
			code     int
			expected bool
		}{
			{401, true},
			{403, true},
			{404, false},
			{500, false},
		}

		for _, tt := range tests {
			err := &APIError{StatusCode: tt.code}
			assert.Equal(t, tt.expected, err.IsUnauthorized())
		}
	})

	t.Run("renderBody", func(t *testing.T) {
		assert.Equal(t, `{"a":1,"b":[1,2]}`, renderBody([]byte("{ \"a\": 1,\n \"b\": [1, 2] }")))
		assert.Equal(t, "plain text", renderBody([]byte("plain text")))
		assert.Equal(t, "", renderBody(nil))
	})
}
