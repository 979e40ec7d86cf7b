package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/analyzer"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/compliance"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/llm"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/model"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "analyze_drawing").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Unknown tools and bad arguments return code -32602. Other tool execution
// errors return code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if errors.Is(err, errInvalidArguments) {
		return s.errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
	}
	if err != nil {
		s.logger.Warn("tool failed", zap.String("tool", params.Name), zap.Error(err))
		return s.errorResponse(req.ID, CodeToolFailed, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	case ToolAnalyzeDrawing:
		return s.handleAnalyzeDrawing(ctx, args)
	case ToolAnalyzeDrawings:
		return s.handleAnalyzeDrawings(ctx, args)
	case ToolDetectRegions:
		return s.handleDetectRegions(ctx, args)
	case ToolCheckCompliance:
		return s.handleCheckCompliance(args)
	case ToolCheckDesignRules:
		return s.handleCheckDesignRules(args)
	case ToolGetSummary:
		return s.handleGetSummary(args)
	case ToolTestConnection:
		return s.handleTestConnection(ctx)
	default:
		return nil, invalidArguments(fmt.Errorf("unknown tool: %s", name))
	}
}

// errInvalidArguments marks errors caused by the caller's arguments rather
// than by running the tool.
var errInvalidArguments = errors.New("invalid arguments")

func invalidArguments(err error) error {
	return fmt.Errorf("%w: %w", errInvalidArguments, err)
}

// decodeArgs unmarshals tool arguments into v.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(args, v); err != nil {
		return invalidArguments(err)
	}
	return nil
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Rule Arguments ===

type rulesArgs struct {
	RulesFile string          `json:"rules_file"`
	Rules     json.RawMessage `json:"rules"`
}

func (a rulesArgs) load() (compliance.RuleSet, error) {
	if len(a.Rules) > 0 && string(a.Rules) != "null" {
		rs, err := compliance.ParseRules(a.Rules)
		if err != nil {
			return compliance.RuleSet{}, invalidArguments(err)
		}
		return rs, nil
	}
	if a.RulesFile != "" {
		return compliance.LoadRules(a.RulesFile)
	}
	return compliance.RuleSet{}, nil
}

type analyzeFlags struct {
	rulesArgs
	UseReferences    bool `json:"use_references"`
	SaveIntermediate bool `json:"save_intermediate"`
	SaveResult       bool `json:"save_result"`
}

func (f analyzeFlags) options() (analyzer.AnalyzeOptions, error) {
	rules, err := f.load()
	if err != nil {
		return analyzer.AnalyzeOptions{}, err
	}
	return analyzer.AnalyzeOptions{
		UseReferences:    f.UseReferences,
		Rules:            rules,
		SaveIntermediate: f.SaveIntermediate,
		SaveResult:       f.SaveResult,
	}, nil
}

// === Analysis Handlers ===

type analyzeDrawingArgs struct {
	analyzeFlags
	Path string `json:"path"`
}

type analyzeDrawingResult struct {
	*model.DrawingAnalysisResult
	Summary string `json:"summary"`
}

func (s *Server) handleAnalyzeDrawing(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a analyzeDrawingArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, invalidArguments(errors.New("path is required"))
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}

	res, err := s.analyzer.AnalyzeDrawing(ctx, a.Path, opts)
	if err != nil {
		return nil, err
	}
	return analyzeDrawingResult{DrawingAnalysisResult: res, Summary: analyzer.Summary(res)}, nil
}

type analyzeDrawingsArgs struct {
	analyzeFlags
	Paths   []string `json:"paths"`
	Workers int      `json:"workers"`
}

type batchItem struct {
	Path   string                       `json:"path"`
	Result *model.DrawingAnalysisResult `json:"result,omitempty"`
	Error  string                       `json:"error,omitempty"`
}

func (s *Server) handleAnalyzeDrawings(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a analyzeDrawingsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, invalidArguments(errors.New("paths must not be empty"))
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}

	items := s.analyzer.AnalyzeBatch(ctx, a.Paths, opts, a.Workers)
	out := make([]batchItem, len(items))
	for i, item := range items {
		out[i] = batchItem{Path: item.Path, Result: item.Result}
		if item.Err != nil {
			out[i].Error = item.Err.Error()
		}
	}
	return map[string]interface{}{"items": out}, nil
}

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleDetectRegions(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, invalidArguments(errors.New("path is required"))
	}
	return s.analyzer.Processor().ProcessDrawing(ctx, a.Path)
}

// === Compliance Handlers ===

type checkComplianceArgs struct {
	rulesArgs
	Specification json.RawMessage `json:"specification"`
}

func decodeSpecification(raw json.RawMessage) (*model.PartSpecification, error) {
	if len(raw) == 0 {
		return nil, invalidArguments(errors.New("specification is required"))
	}
	spec, err := llm.DecodeSpecification(raw)
	if err != nil {
		return nil, invalidArguments(err)
	}
	return spec, nil
}

func (s *Server) handleCheckCompliance(args json.RawMessage) (interface{}, error) {
	var a checkComplianceArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	spec, err := decodeSpecification(a.Specification)
	if err != nil {
		return nil, err
	}
	rules, err := a.load()
	if err != nil {
		return nil, err
	}

	violations, err := s.analyzer.Checker().Check(spec, rules)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"violations": violations,
		"passed":     len(violations) == 0,
	}, nil
}

type checkDesignRulesArgs struct {
	Specification json.RawMessage    `json:"specification"`
	Rules         map[string]float64 `json:"rules"`
}

func (s *Server) handleCheckDesignRules(args json.RawMessage) (interface{}, error) {
	var a checkDesignRulesArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	spec, err := decodeSpecification(a.Specification)
	if err != nil {
		return nil, err
	}

	violations, err := compliance.CheckDesignRules(spec, a.Rules)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"violations": violations,
		"passed":     len(violations) == 0,
	}, nil
}

// === Summary and Connection Handlers ===

type getSummaryArgs struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

func (s *Server) handleGetSummary(args json.RawMessage) (interface{}, error) {
	var a getSummaryArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	res, ok := s.analyzer.Cached(a.Path)
	if !ok {
		return nil, fmt.Errorf("no cached analysis for %s", a.Path)
	}

	switch a.Format {
	case "", "markdown":
		return map[string]interface{}{"format": "markdown", "summary": analyzer.Summary(res)}, nil
	case "html":
		html, err := analyzer.SummaryHTML(res)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"format": "html", "summary": html}, nil
	default:
		return nil, invalidArguments(fmt.Errorf("unknown format: %s", a.Format))
	}
}

func (s *Server) handleTestConnection(ctx context.Context) (interface{}, error) {
	ext := s.analyzer.Extractor()
	result := map[string]interface{}{
		"provider": string(ext.Provider()),
		"model":    ext.Model(),
		"status":   "ok",
	}
	if err := s.analyzer.Ping(ctx); err != nil {
		result["status"] = "error"
		result["error"] = err.Error()
	}
	return result, nil
}
