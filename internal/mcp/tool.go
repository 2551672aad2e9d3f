package mcp

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samartsevigor/change-analyzer/internal/analyzer"
	"github.com/samartsevigor/change-analyzer/internal/report"
	logger "github.com/sirupsen/logrus"
)

// ToolName is the name under which the analysis is exposed.
const ToolName = "analyze_changes"

// Runner performs one analysis. *analyzer.Analyzer satisfies it.
type Runner interface {
	Run(ctx context.Context, base, head string) (*analyzer.Result, error)
}

// AddAnalyzeChangesTool registers the analyze_changes tool with s.
func AddAnalyzeChangesTool(s *server.MCPServer, runner Runner) {
	tool := mcp.NewTool(
		ToolName,
		mcp.WithDescription(`Report which Solidity contracts, libraries and interfaces changed between two git revisions, and which of their functions and modifiers need review.

Formatting and comment-only edits are ignored. New files list every declaration and member. The result is a JSON array of {"file", "status", "contracts": [{"name", "type", "methods"}]}.`),
		mcp.WithString("base",
			mcp.Required(),
			mcp.Description("Base revision (branch, tag or commit) to compare against")),
		mcp.WithString("head",
			mcp.Description("Head revision. Omit to compare against the working tree")),
		mcp.WithArray("paths",
			mcp.Description("Only return reports for these project-relative files"),
			mcp.WithStringItems()),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createAnalyzeChangesHandler(runner))
}

// createAnalyzeChangesHandler serializes runs: an Analyzer is reused
// sequentially so its catalog cache stays warm between calls.
func createAnalyzeChangesHandler(runner Runner) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var mu sync.Mutex

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, ok := request.GetRawArguments().(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		var args analyzeArgs
		if err := bindArgs(raw, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		args.Base = strings.TrimSpace(args.Base)
		args.Head = strings.TrimSpace(args.Head)
		if args.Base == "" {
			return mcp.NewToolResultError("base parameter is required"), nil
		}

		mu.Lock()
		result, err := runner.Run(ctx, args.Base, args.Head)
		mu.Unlock()
		if err != nil {
			logger.Warnf("[mcp] analysis %s..%s failed: %v", args.Base, args.Head, err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		reports := filterReports(result.Reports, normalizePaths(args.Paths))

		var buf bytes.Buffer
		if err := report.Encode(&buf, reports); err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(buf.String()), nil
	}
}

func filterReports(reports []report.FileReport, paths []string) []report.FileReport {
	if len(paths) == 0 {
		return reports
	}
	want := make(map[string]bool, len(paths))
	for _, p := range paths {
		want[p] = true
	}
	out := []report.FileReport{}
	for _, r := range reports {
		if want[r.File] {
			out = append(out, r)
		}
	}
	return out
}
