package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ludo-technologies/cloneval/app"
	"github.com/ludo-technologies/cloneval/domain"
	"github.com/ludo-technologies/cloneval/internal/config"
	"github.com/mark3labs/mcp-go/mcp"
)

// HandlerSet holds the MCP tool handlers and their shared dependencies
type HandlerSet struct {
	deps *Dependencies
}

// NewHandlerSet creates a handler set bound to deps
func NewHandlerSet(deps *Dependencies) *HandlerSet {
	return &HandlerSet{deps: deps}
}

// evaluationSummary is the compact result of evaluate_detector
type evaluationSummary struct {
	RunID       string                   `json:"run_id"`
	DatasetRoot string                   `json:"dataset_root"`
	KValues     []int                    `json:"k_values"`
	Total       int                      `json:"total"`
	Failed      int                      `json:"failed"`
	Summary     []domain.CategorySummary `json:"summary"`
	FailedUnits []string                 `json:"failed_units,omitempty"`
	Warnings    []string                 `json:"warnings,omitempty"`
	ArchivedTo  string                   `json:"archived_to,omitempty"`
}

// HandleEvaluateDetector handles the evaluate_detector tool
func (h *HandlerSet) HandleEvaluateDetector(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	dataset, ok := args["dataset"].(string)
	if !ok || dataset == "" {
		return mcp.NewToolResultError("dataset parameter is required"), nil
	}

	mode := "summary"
	if v, ok := args["output_mode"].(string); ok && v != "" {
		if v != "summary" && v != "full" {
			return mcp.NewToolResultError(fmt.Sprintf("invalid output_mode: %s (expected summary or full)", v)), nil
		}
		mode = v
	}

	// Runs never append to the results file unless asked to
	explicit := map[string]bool{"results": true, "json": true, "no-progress": true}
	var out bytes.Buffer
	override := &domain.EvaluationRequest{
		DatasetRoot:  dataset,
		OutputFormat: domain.OutputFormatJSON,
		OutputWriter: &out,
	}

	if types, err := stringSliceArg(args, "clone_types"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	} else if len(types) > 0 {
		for _, t := range types {
			override.Categories = append(override.Categories, domain.CloneCategory(t))
		}
		explicit["types"] = true
	}
	if v, ok := args["seeds"].(string); ok && v != "" {
		seeds, err := config.ParseIntList(v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid seeds: %v", err)), nil
		}
		override.Seeds = seeds
		explicit["seeds"] = true
	}
	if ks, err := intSliceArg(args, "k_values"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	} else if len(ks) > 0 {
		override.KValues = ks
		explicit["k"] = true
	}
	if v, ok := args["results_file"].(string); ok {
		override.ResultsFile = v
	}
	applySourceArgs(args, &override.GroundTruth, explicit)
	override.Detector = override.GroundTruth

	req, cfg, err := h.deps.LoadEvaluationRequest(explicit, override)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load configuration: %v", err)), nil
	}

	useCase, err := h.deps.BuildEvaluateUseCase(ctx, cfg, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to prepare evaluation: %v", err)), nil
	}

	outcome, err := useCase.Execute(ctx, *req)
	if outcome == nil {
		return mcp.NewToolResultError(fmt.Sprintf("Evaluation failed: %v", err)), nil
	}
	warning := runWarning(err)

	if mode == "full" {
		result := mcp.NewToolResultText(out.String())
		if warning != "" {
			result.Content = append(result.Content, mcp.NewTextContent("Warning: "+warning))
		}
		return result, nil
	}

	summary := newEvaluationSummary(outcome, warning)
	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// runWarning returns the part of a run error the caller cannot see in the
// result. Failed units are already listed in failed_units.
func runWarning(err error) string {
	if err == nil || domain.HasErrorCode(err, domain.ErrCodeEvaluationError) {
		return ""
	}
	return err.Error()
}

func newEvaluationSummary(outcome *app.EvaluateOutcome, warning string) evaluationSummary {
	response := outcome.Response
	summary := evaluationSummary{
		RunID:       response.RunID,
		DatasetRoot: response.DatasetRoot,
		KValues:     response.KValues,
		Total:       response.Total,
		Failed:      response.Failed,
		Summary:     response.Summary,
		FailedUnits: response.FailedUnits(),
		Warnings:    append([]string(nil), response.Warnings...),
		ArchivedTo:  outcome.ArchivedTo,
	}
	if warning != "" {
		summary.Warnings = append(summary.Warnings, warning)
	}
	return summary
}

// HandleInspectClonePairs handles the inspect_clone_pairs tool
func (h *HandlerSet) HandleInspectClonePairs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return mcp.NewToolResultError("path parameter is required"), nil
	}

	explicit := map[string]bool{"json": true}
	var out bytes.Buffer
	override := &domain.InspectRequest{
		Paths:        []string{path},
		OutputFormat: domain.OutputFormatJSON,
		OutputWriter: &out,
	}
	if v, ok := args["format"].(string); ok && v != "" {
		override.Settings.Format = domain.SourceFormat(v)
		explicit["format"] = true
	}
	applySourceArgs(args, &override.Settings, explicit)

	req, err := h.deps.LoadInspectRequest(explicit, override)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load configuration: %v", err)), nil
	}

	if _, err := h.deps.BuildInspectUseCase().Execute(ctx, *req); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Inspection failed: %v", err)), nil
	}
	return mcp.NewToolResultText(out.String()), nil
}

// applySourceArgs copies the loader arguments shared by both tools
func applySourceArgs(args map[string]interface{}, settings *domain.SourceSettings, explicit map[string]bool) {
	if v, ok := args["normalizer"].(string); ok && v != "" {
		settings.Normalizer = v
		explicit["normalizer"] = true
	}
	if v, ok := args["existence_filter"].(bool); ok {
		settings.ExistenceFilter = v
		explicit["existence-filter"] = true
	}
	if v, ok := args["source_root"].(string); ok && v != "" {
		settings.SourceRoot = v
		explicit["source-root"] = true
	}
}

func stringSliceArg(args map[string]interface{}, name string) ([]string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s must be an array of strings", name)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be an array of strings", name)
		}
		out = append(out, s)
	}
	return out, nil
}

// intSliceArg accepts JSON numbers, which decode as float64
func intSliceArg(args map[string]interface{}, name string) ([]int, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s must be an array of integers", name)
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		switch n := item.(type) {
		case float64:
			if n != float64(int(n)) {
				return nil, fmt.Errorf("%s must be an array of integers", name)
			}
			out = append(out, int(n))
		case int:
			out = append(out, n)
		default:
			return nil, fmt.Errorf("%s must be an array of integers", name)
		}
	}
	return out, nil
}
