package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/s0up4200/testrail-mcp/filter"
	"github.com/s0up4200/testrail-mcp/testrail"
)

// DefaultMaxUploadBytes is the largest attachment TestRail accepts.
const DefaultMaxUploadBytes int64 = 256 << 20

// HandlerFunc runs a tool with its raw arguments and returns a value that is
// serialized to JSON for the caller.
type HandlerFunc func(ctx context.Context, args map[string]any) (any, error)

// Tool pairs an MCP tool definition with its handler.
type Tool struct {
	Definition mcp.Tool
	Handler    HandlerFunc
}

// Toolset exposes TestRail operations as MCP tools.
type Toolset struct {
	api            testrail.API
	filters        *filter.Manager
	fs             afero.Fs
	maxUploadBytes int64
	logger         zerolog.Logger

	tools map[string]Tool
	order []string
}

// Option configures a Toolset.
type Option func(*Toolset)

// WithFilterManager sets the manager used for query and preset filtering.
func WithFilterManager(m *filter.Manager) Option {
	return func(ts *Toolset) {
		if m != nil {
			ts.filters = m
		}
	}
}

// WithFs sets the filesystem attachments are read from.
func WithFs(fs afero.Fs) Option {
	return func(ts *Toolset) {
		if fs != nil {
			ts.fs = fs
		}
	}
}

// WithMaxUploadBytes limits attachment size. Zero or less keeps the default.
func WithMaxUploadBytes(n int64) Option {
	return func(ts *Toolset) {
		if n > 0 {
			ts.maxUploadBytes = n
		}
	}
}

// WithLogger sets the logger for tool calls.
func WithLogger(logger zerolog.Logger) Option {
	return func(ts *Toolset) {
		ts.logger = logger
	}
}

// New builds the toolset over api.
func New(api testrail.API, opts ...Option) *Toolset {
	ts := &Toolset{
		api:            api,
		filters:        filter.NewManager(),
		fs:             afero.NewOsFs(),
		maxUploadBytes: DefaultMaxUploadBytes,
		logger:         zerolog.Nop(),
		tools:          make(map[string]Tool),
	}

	for _, opt := range opts {
		opt(ts)
	}

	for _, t := range []Tool{
		ts.getProjectsTool(),
		ts.getCaseTool(),
		ts.getCasesTool(),
		ts.getCaseFieldsTool(),
		ts.getTemplatesTool(),
		ts.getSectionsTool(),
		ts.updateCaseTool(),
		ts.updateCasesTool(),
		ts.createCaseTool(),
		ts.addRunTool(),
		ts.getStatusesTool(),
		ts.getTestsTool(),
		ts.addResultsTool(),
		ts.addAttachmentToRunTool(),
	} {
		ts.tools[t.Definition.Name] = t
		ts.order = append(ts.order, t.Definition.Name)
	}

	return ts
}

// Tools returns every tool in registration order.
func (ts *Toolset) Tools() []Tool {
	out := make([]Tool, len(ts.order))
	for i, name := range ts.order {
		out[i] = ts.tools[name]
	}
	return out
}

// Call runs a tool by name and renders its result as MCP content.
func (ts *Toolset) Call(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	t, ok := ts.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return ts.run(ctx, t, args), nil
}

// run executes a tool. Failures become an "Error: <message>" text result
// flagged IsError rather than a protocol error.
func (ts *Toolset) run(ctx context.Context, t Tool, args map[string]any) *mcp.CallToolResult {
	name := t.Definition.Name
	if args == nil {
		args = map[string]any{}
	}

	start := time.Now()
	out, err := t.Handler(ctx, args)
	if err != nil {
		ts.logger.Warn().Err(err).Str("tool", name).Dur("duration", time.Since(start)).Msg("Tool call failed")
		return mcp.NewToolResultError("Error: " + err.Error())
	}

	text, err := renderResult(out)
	if err != nil {
		ts.logger.Error().Err(err).Str("tool", name).Msg("Failed to encode tool result")
		return mcp.NewToolResultError("Error: " + err.Error())
	}

	ts.logger.Debug().Str("tool", name).Dur("duration", time.Since(start)).Int("bytes", len(text)).Msg("Tool call completed")
	return mcp.NewToolResultText(text)
}
