package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all cloneval MCP tools with the server
func RegisterTools(s *server.MCPServer, h *HandlerSet) {
	s.AddTool(mcp.NewTool("evaluate_detector",
		mcp.WithDescription("Evaluate clone detector output against ground-truth clone pairs: recall, precision@k, MRR and MAP per clone type and seed"),
		mcp.WithString("dataset",
			mcp.Required(),
			mcp.Description("Dataset directory holding ground truth, detector report and samples")),
		mcp.WithArray("clone_types",
			mcp.WithStringItems(),
			mcp.Description("Clone types to evaluate, e.g. [\"T1\", \"MT3\"]. Default: discovered from the ground truth")),
		mcp.WithString("seeds",
			mcp.Description("Seeds to evaluate, e.g. \"0,1\" or \"0-9\" (default: configuration)")),
		mcp.WithArray("k_values",
			mcp.Items(map[string]interface{}{"type": "integer"}),
			mcp.Description("Precision cut-offs (default: [5, 10])")),
		mcp.WithString("normalizer",
			mcp.Enum("first_dot", "last_dot"),
			mcp.Description("Fragment normalizer applied to both sources")),
		mcp.WithBoolean("existence_filter",
			mcp.Description("Drop pairs whose source files are missing under source_root")),
		mcp.WithString("source_root",
			mcp.Description("Directory holding the dataset's source files")),
		mcp.WithString("results_file",
			mcp.Description("CSV file to append one row per unit to (default: none)")),
		mcp.WithString("output_mode",
			mcp.Enum("summary", "full"),
			mcp.Description("summary returns means per clone type, full returns every unit (default: summary)")),
	), h.HandleEvaluateDetector)

	s.AddTool(mcp.NewTool("inspect_clone_pairs",
		mcp.WithDescription("Load clone-pair files (CSV ground truth or NiCad XML) and report records, skipped rows and unique fragments"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File, directory or glob of clone-pair sources")),
		mcp.WithString("format",
			mcp.Enum("auto", "delimited", "xml"),
			mcp.Description("Source format (default: auto)")),
		mcp.WithString("normalizer",
			mcp.Enum("first_dot", "last_dot"),
			mcp.Description("Fragment normalizer (default: first_dot)")),
		mcp.WithBoolean("existence_filter",
			mcp.Description("Drop pairs whose source files are missing under source_root")),
		mcp.WithString("source_root",
			mcp.Description("Directory holding the dataset's source files")),
	), h.HandleInspectClonePairs)
}
