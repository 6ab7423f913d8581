package mcptools

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/harrison/capstudy/internal/history"
	"github.com/harrison/capstudy/internal/study"
)

// Deps are the engine components the tools share.
type Deps struct {
	Runner *study.Runner
	// Store is optional; without it no history tool is registered and
	// analyze_study never saves.
	Store          *history.Store
	AvailableSizes []int
	MaxAttempts    int
}

// NewServer creates the MCP server with every capability tool registered.
func NewServer(name, version string, deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	parseTool := NewParseTool(deps.Runner.Evaluator().Parser())
	s.AddTool(parseTool.Definition(), parseTool.Handle)

	evaluateTool := NewEvaluateTool(deps.Runner)
	s.AddTool(evaluateTool.Definition(), evaluateTool.Handle)

	analyzeTool := NewAnalyzeStudyTool(deps.Runner, deps.Store)
	s.AddTool(analyzeTool.Definition(), analyzeTool.Handle)

	extrapolateTool := NewExtrapolateTool(deps.AvailableSizes, deps.MaxAttempts)
	s.AddTool(extrapolateTool.Definition(), extrapolateTool.Handle)

	if deps.Store != nil {
		historyTool := NewHistoryTool(deps.Store)
		s.AddTool(historyTool.Definition(), historyTool.Handle)
	}

	return s
}

const instructions = `capstudy interprets drawing tolerance callouts and runs statistical process capability studies.
Use parse_tolerance to understand a callout, evaluate_feature for one measured feature,
analyze_study for measurement files, and extrapolate_sample to grow a small sample.
Capability indices at or above 1.33 are conventionally acceptable.`
