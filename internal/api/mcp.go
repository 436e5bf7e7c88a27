package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/quarterlog/internal/settings"
	"github.com/kalambet/quarterlog/internal/timecalc"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Service  *Service
	Settings *settings.Manager
	Version  string
}

// NewMCPServer creates an MCP server with the journal tools and resources
// registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"quarterlog",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("QuarterLog: a 15-minute work journal. Log what you did, read focus scores, insights and plan adherence."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("log_entry",
			mcp.WithDescription("Log what the user just worked on. Classified as WIN/LOSS/DRAW with a category unless given."),
			mcp.WithString("text", mcp.Description("What was done"), mcp.Required()),
			mcp.WithString("type", mcp.Description("Optional outcome override"), mcp.Enum("WIN", "LOSS", "DRAW")),
			mcp.WithString("category", mcp.Description("Optional category override (MAKER, MANAGER, R&D, FUEL, RECOVERY, BURN, OTHER)")),
		),
		mcpLogEntry(deps),
	)

	s.AddTool(
		mcp.NewTool("focus_score",
			mcp.WithDescription("Focus score (0-100) with its breakdown for a period."),
			mcp.WithString("period", mcp.Description("D, W, M, 3M, Y or ALL (default D)")),
			mcp.WithString("date", mcp.Description("Anchor date YYYY-MM-DD (default today)")),
		),
		mcpFocusScore(deps),
	)

	s.AddTool(
		mcp.NewTool("insights",
			mcp.WithDescription("Behavioural patterns detected across all logged entries."),
			mcp.WithNumber("max", mcp.Description("Maximum number of insights (default 5)")),
		),
		mcpInsights(deps),
	)

	s.AddTool(
		mcp.NewTool("adherence",
			mcp.WithDescription("How closely a day's logged work matched its plan, slot by slot."),
			mcp.WithString("date", mcp.Description("Date YYYY-MM-DD (default today)")),
		),
		mcpAdherence(deps),
	)

	s.AddTool(
		mcp.NewTool("streak",
			mcp.WithDescription("Number of consecutive days with at least one WIN."),
		),
		mcpStreak(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"quarterlog://today",
			"Today's Log",
			mcp.WithResourceDescription("Entries logged today as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceToday(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"quarterlog://schedule",
			"Schedule and Goals",
			mcp.WithResourceDescription("Working window, goal and strategic priority"),
			mcp.WithMIMEType("text/plain"),
		),
		mcpResourceSchedule(deps),
	)

	return s
}

func mcpLogEntry(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil || strings.TrimSpace(text) == "" {
			return mcpError("text is required"), nil
		}

		e, err := deps.Service.LogEntry(ctx, LogRequest{
			Text:     text,
			Outcome:  req.GetString("type", ""),
			Category: req.GetString("category", ""),
			Source:   "mcp",
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to log entry: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("[%s] %s (%s): %s",
			e.Timestamp.In(deps.Service.Location()).Format("15:04"), e.Outcome, e.Category.Label(), e.Feedback)), nil
	}
}

func mcpFocusScore(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		period, day, err := deps.Service.Window(req.GetString("period", ""), req.GetString("date", ""))
		if err != nil {
			return mcpError(err.Error()), nil
		}
		v, err := deps.Service.Score(ctx, period, day)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to compute score: %v", err)), nil
		}
		return mcpJSON(v)
	}
}

func mcpInsights(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("max", 0)
		if limit > 20 {
			limit = 20
		}
		v, err := deps.Service.Insights(ctx, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to generate insights: %v", err)), nil
		}
		if len(v.Insights) == 0 && v.TotalEntries < v.MinEntries {
			return mcpText(fmt.Sprintf("Not enough data yet: %d of %d entries logged.", v.TotalEntries, v.MinEntries)), nil
		}
		return mcpJSON(v.Insights)
	}
}

func mcpAdherence(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		day, err := deps.Service.Day(req.GetString("date", ""))
		if err != nil {
			return mcpError(err.Error()), nil
		}
		rep, err := deps.Service.Adherence(ctx, day)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to compute adherence: %v", err)), nil
		}
		return mcpJSON(rep)
	}
}

func mcpStreak(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		n, err := deps.Service.Streak(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to compute streak: %v", err)), nil
		}
		unit := "days"
		if n == 1 {
			unit = "day"
		}
		return mcpText(fmt.Sprintf("%d %s", n, unit)), nil
	}
}

func mcpResourceToday(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		today, err := deps.Service.Day("")
		if err != nil {
			return nil, err
		}
		entries, err := deps.Service.Entries(ctx, timecalc.PeriodDay, today)
		if err != nil {
			return nil, fmt.Errorf("failed to list today's entries: %w", err)
		}

		type entrySummary struct {
			Time     string `json:"time"`
			Type     string `json:"type"`
			Category string `json:"category"`
			Text     string `json:"text"`
		}
		out := make([]entrySummary, len(entries))
		for i, e := range entries {
			out[i] = entrySummary{
				Time:     e.Timestamp.In(deps.Service.Location()).Format("15:04"),
				Type:     string(e.Outcome),
				Category: string(e.Category),
				Text:     e.Text,
			}
		}

		b, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal entries: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceSchedule(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		summary, err := deps.Settings.Summary(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "text/plain",
				Text:     summary,
			},
		}, nil
	}
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
