// Package testrail provides a client for the TestRail v2 REST API.
//
// The client covers the subset of the API needed to browse and edit test
// cases, expand section trees, create runs and report results:
//
//   - Client: authenticated HTTP access with pagination and reference data caching
//   - Types: Case, Section, Project, Run, Test, Result and the field schema
//   - API: interface implemented by Client, for substitution in tests
//   - Errors: APIError with stable, human-readable messages
//
// # Usage
//
//	client, err := testrail.NewClient(
//		"https://example.testrail.io",
//		"user@example.com",
//		"api-key",
//		testrail.WithTimeout(30*time.Second),
//		testrail.WithLogger(logger),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	cases, err := client.GetCasesRecursively(ctx, 1, 10, nil, []string{"Archive"})
//
// # Pagination
//
// List endpoints return an envelope whose _links.next holds a path relative
// to the API root. The client follows it until it is absent or null and
// returns the concatenated items. A bare JSON array is accepted as a single
// final page.
//
// # Caching
//
// Projects, priorities, case types, case fields and statuses are fetched at
// most once per Client; templates once per project. Concurrent first callers
// share one request. A failed fetch is cached too and is returned to every
// later caller until a new Client is created.
//
// # Error Handling
//
// Every failure of an API call is an *APIError whose message starts with
// "TestRail API error":
//
//	TestRail API error: 404 Not Found - {"error":"Case not found"}
//	TestRail API error: No response received. dial tcp: connection refused
//
// The error wraps ErrNoResponse or ErrMalformedResponse where applicable:
//
//	if errors.Is(err, testrail.ErrNoResponse) {
//		// network failure
//	}
package testrail
