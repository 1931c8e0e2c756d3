// Package tools exposes the TestRail client as Model Context Protocol tools.
//
// Each tool decodes its JSON arguments, calls testrail.API and returns a JSON
// text result with null values removed. Failures are returned as a text
// result "Error: <message>" with IsError set, so the calling agent sees the
// TestRail message verbatim.
package tools
