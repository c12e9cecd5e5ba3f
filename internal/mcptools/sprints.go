package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nhle/sprint-board/internal/board"
)

// CloseSprintTool handles sprint_close.
type CloseSprintTool struct {
	board *board.Board
}

// NewCloseSprintTool creates a CloseSprintTool.
func NewCloseSprintTool(b *board.Board) *CloseSprintTool {
	return &CloseSprintTool{board: b}
}

// Definition returns the MCP tool definition for sprint_close.
func (t *CloseSprintTool) Definition() mcp.Tool {
	return mcp.NewTool("sprint_close",
		mcp.WithDescription("Archive the completed stories of a sprint, or all of them with mode=all."),
		mcp.WithString("sprint_id",
			mcp.Required(),
			mcp.Description("Sprint ID from board_show"),
		),
		mcp.WithString("mode",
			mcp.Description("completed (default) or all"),
			mcp.Enum(string(board.CloseCompleted), string(board.CloseAll)),
		),
	)
}

// Handle processes the sprint_close tool call.
func (t *CloseSprintTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("sprint_id")
	if err != nil {
		return mcp.NewToolResultError("'sprint_id' is required"), nil
	}
	mode, err := board.ParseCloseMode(req.GetString("mode", string(board.CloseCompleted)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	n, err := t.board.CloseSprint(ctx, id, mode)
	if err != nil {
		return toolError(board.OpCloseSprint, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Archived %d stories from sprint %s", n, id)), nil
}
