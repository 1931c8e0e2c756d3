package cmd

import (
	"fmt"
	"strings"

	"github.com/s0up4200/testrail-mcp/testrail"
)

// formatProjects renders projects as a tree for console display
func formatProjects(projects []testrail.Project) string {
	if len(projects) == 0 {
		return "No projects found\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString("\nProject")
	if len(projects) != 1 {
		sb.WriteString("s")
	}
	fmt.Fprintf(&sb, " (%d):\n\n", len(projects))

	for i, p := range projects {
		isLast := i == len(projects)-1

		prefix := "├"
		indent := "│   "
		if isLast {
			prefix = "╰"
			indent = "    "
		}

		fmt.Fprintf(&sb, "%s── %s (ID: %d)", prefix, p.Name, p.ID)
		if p.IsCompleted {
			sb.WriteString(" [COMPLETED]")
		}
		sb.WriteString("\n")

		fmt.Fprintf(&sb, "%sSuite mode: %s\n", indent, suiteModeName(p.SuiteMode))
		if p.URL != "" {
			fmt.Fprintf(&sb, "%s%s\n", indent, p.URL)
		}
	}

	return sb.String()
}

func suiteModeName(mode int) string {
	switch mode {
	case 1:
		return "single suite"
	case 2:
		return "single suite + baselines"
	case 3:
		return "multiple suites"
	default:
		return fmt.Sprintf("unknown (%d)", mode)
	}
}
