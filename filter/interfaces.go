package filter

import (
	"context"

	"github.com/s0up4200/testrail-mcp/testrail"
)

// Filter defines the basic interface for case filters
type Filter interface {
	// Evaluate checks if a case matches the filter criteria
	Evaluate(tc testrail.Case) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Expression returns the original filter expression
	Expression() string

	// IsThreadSafe indicates if the filter can be evaluated concurrently
	IsThreadSafe() bool
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	Compile(expression string) (CompiledFilter, error)
}

// CachingCompiler provides caching for compiled filters
type CachingCompiler interface {
	Compiler

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}

// Evaluator applies a filter to a list of cases, keeping their order
type Evaluator interface {
	Evaluate(ctx context.Context, filter CompiledFilter, cases []testrail.Case) ([]testrail.Case, error)
}
