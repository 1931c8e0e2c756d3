package filter

import (
	"context"
	"fmt"
	"testing"

	"github.com/s0up4200/testrail-mcp/testrail"
)

func generateTestCases(count int) []testrail.Case {
	cases := make([]testrail.Case, count)
	for i := range cases {
		cases[i] = testrail.Case{
			ID:         i + 1,
			Title:      fmt.Sprintf("Case %d checkout flow", i),
			PriorityID: i%4 + 1,
			TypeID:     i%7 + 1,
			Labels:     []testrail.Label{{Title: "smoke"}},
			Custom:     map[string]any{"custom_automation_type": float64(i % 3)},
		}
	}
	return cases
}

func BenchmarkCompileFilter(b *testing.B) {
	compiler := NewExprCompiler()
	for b.Loop() {
		_, _ = compiler.Compile(`priority_id >= 3 and includes(title, "checkout")`)
	}
}

func BenchmarkCompileFilterWithCache(b *testing.B) {
	compiler := NewExprCompiler(WithCache(10))
	for b.Loop() {
		_, _ = compiler.Compile(`priority_id >= 3 and includes(title, "checkout")`)
	}
}

func BenchmarkEvaluateConcurrent(b *testing.B) {
	cases := generateTestCases(5000)
	filter, err := NewExprCompiler().Compile(`custom_automation_type == 1 and hasLabel("smoke")`)
	if err != nil {
		b.Fatal(err)
	}
	evaluator := NewConcurrentEvaluator()
	ctx := context.Background()

	for b.Loop() {
		_, _ = evaluator.Evaluate(ctx, filter, cases)
	}
}
