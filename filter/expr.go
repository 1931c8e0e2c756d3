package filter

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/testrail-mcp/testrail"
)

const secondsPerDay = 24 * 60 * 60

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	custom     map[string]any
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache[CompiledFilter](size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.helperFuncs, funcs)
		maps.Copy(c.custom, funcs)
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		helperFuncs: createHelperFunctions(),
		custom:      make(map[string]any),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// exprCompiler implements Compiler for expr-based filters
type exprCompiler struct {
	helperFuncs map[string]any
	custom      map[string]any
	cache       *lruCache[CompiledFilter]
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
			Position:   -1,
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// Case fields differ per instance (custom_*), so they are resolved at run time.
	program, err := expr.Compile(expression,
		expr.Env(c.helperFuncs),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Position:   -1,
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		custom:     c.custom,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// Evaluate reports whether the case matches. A runtime error, such as
// calling a string helper on a null field, counts as no match.
func (f *exprFilter) Evaluate(tc testrail.Case) bool {
	env := createRuntimeEnvironment(tc)
	maps.Copy(env, f.custom)

	result, err := expr.Run(f.program, env)
	if err != nil {
		return false
	}
	return result.(bool)
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// IsThreadSafe indicates that expr filters are thread-safe
func (f *exprFilter) IsThreadSafe() bool {
	return true
}

// createHelperFunctions creates the static helper functions used during compilation
func createHelperFunctions() map[string]any {
	funcs := make(map[string]any, 16)
	addHelperFunctions(funcs)
	// Placeholders so case helpers type-check; real closures are bound per case.
	funcs["hasLabel"] = func(string) bool { return false }
	funcs["hasRef"] = func(string) bool { return false }
	return funcs
}

// addHelperFunctions adds the case-independent helpers. TestRail reports
// times as unix seconds, so date helpers take and return int64.
func addHelperFunctions(env map[string]any) {
	env["daysSince"] = func(unix any) int {
		ts, ok := toUnix(unix)
		if !ok || ts == 0 {
			return 0
		}
		return int((time.Now().Unix() - ts) / secondsPerDay)
	}
	env["daysAgo"] = func(days int) int64 {
		return time.Now().AddDate(0, 0, -days).Unix()
	}
	env["monthsAgo"] = func(months int) int64 {
		return time.Now().AddDate(0, -months, 0).Unix()
	}
	env["parseDate"] = func(date string) int64 {
		t, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return 0
		}
		return t.Unix()
	}
	env["now"] = func() int64 {
		return time.Now().Unix()
	}

	// contains, startsWith and endsWith are expr operators (case-sensitive);
	// these are the case-insensitive call forms.
	env["includes"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["hasPrefix"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["hasSuffix"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
}

// toUnix accepts the integer and float forms a timestamp may take after JSON
// decoding.
func toUnix(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// createRuntimeEnvironment exposes every case field under its wire name
// alongside the helpers.
func createRuntimeEnvironment(tc testrail.Case) map[string]any {
	fields := tc.Fields()
	env := make(map[string]any, len(fields)+16)

	addHelperFunctions(env)
	maps.Copy(env, fields)

	env["hasLabel"] = createHasLabelFunc(tc.Labels)
	env["hasRef"] = createHasRefFunc(tc.Refs)

	return env
}

func createHasLabelFunc(labels []testrail.Label) func(string) bool {
	lower := make([]string, len(labels))
	for i, l := range labels {
		lower[i] = strings.ToLower(l.Title)
	}
	return func(label string) bool {
		return slices.Contains(lower, strings.ToLower(label))
	}
}

// createHasRefFunc matches one entry of the comma-separated refs field.
func createHasRefFunc(refs *string) func(string) bool {
	var parts []string
	if refs != nil {
		for _, r := range strings.Split(*refs, ",") {
			if r = strings.TrimSpace(r); r != "" {
				parts = append(parts, strings.ToUpper(r))
			}
		}
	}
	return func(ref string) bool {
		return slices.Contains(parts, strings.ToUpper(strings.TrimSpace(ref)))
	}
}
