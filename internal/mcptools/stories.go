package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nhle/sprint-board/internal/board"
	"github.com/nhle/sprint-board/internal/model"
)

// ─── AddStoryTool ───────────────────────────────────────────────────────────

// AddStoryTool handles story_add.
type AddStoryTool struct {
	board *board.Board
}

// NewAddStoryTool creates an AddStoryTool.
func NewAddStoryTool(b *board.Board) *AddStoryTool {
	return &AddStoryTool{board: b}
}

// Definition returns the MCP tool definition for story_add.
func (t *AddStoryTool) Definition() mcp.Tool {
	return mcp.NewTool("story_add",
		mcp.WithDescription("Add a story to a sprint. Without sprint_id it goes to the backlog."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("One-line story title"),
		),
		mcp.WithString("description",
			mcp.Description("Story details and acceptance criteria"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma separated tags"),
		),
		mcp.WithString("sprint_id",
			mcp.Description("Target sprint ID from board_show"),
		),
	)
}

// Handle processes the story_add tool call.
func (t *AddStoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("'title' is required"), nil
	}

	sprintID := req.GetString("sprint_id", "")
	if sprintID == "" {
		if err := t.board.Load(ctx, false); err != nil {
			return toolError(board.OpLoad, err), nil
		}
		backlog, ok := t.board.View().Backlog()
		if !ok {
			return mcp.NewToolResultError("no backlog sprint; pass sprint_id"), nil
		}
		sprintID = backlog.ID
	}

	st, err := t.board.AddStory(ctx, sprintID, model.StoryInput{
		Title:       title,
		Description: req.GetString("description", ""),
		Tags:        model.ParseTags(req.GetString("tags", "")),
	})
	if err != nil {
		return toolError(board.OpAddStory, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Added %s %q (id %s)", st.Number, st.Title, st.ID)), nil
}

// ─── ToggleStoryTool ────────────────────────────────────────────────────────

// ToggleStoryTool handles story_toggle.
type ToggleStoryTool struct {
	board *board.Board
}

// NewToggleStoryTool creates a ToggleStoryTool.
func NewToggleStoryTool(b *board.Board) *ToggleStoryTool {
	return &ToggleStoryTool{board: b}
}

// Definition returns the MCP tool definition for story_toggle.
func (t *ToggleStoryTool) Definition() mcp.Tool {
	return mcp.NewTool("story_toggle",
		mcp.WithDescription("Flip a story between open and completed."),
		mcp.WithString("story_id",
			mcp.Required(),
			mcp.Description("Story ID from board_show"),
		),
	)
}

// Handle processes the story_toggle tool call.
func (t *ToggleStoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("story_id")
	if err != nil {
		return mcp.NewToolResultError("'story_id' is required"), nil
	}
	completed, err := t.board.ToggleStory(ctx, id)
	if err != nil {
		return toolError(board.OpToggleStory, err), nil
	}
	state := "open"
	if completed {
		state = "completed"
	}
	return mcp.NewToolResultText(fmt.Sprintf("Story %s is now %s", id, state)), nil
}

// ─── MoveStoryTool ──────────────────────────────────────────────────────────

// MoveStoryTool handles story_move.
type MoveStoryTool struct {
	board *board.Board
}

// NewMoveStoryTool creates a MoveStoryTool.
func NewMoveStoryTool(b *board.Board) *MoveStoryTool {
	return &MoveStoryTool{board: b}
}

// Definition returns the MCP tool definition for story_move.
func (t *MoveStoryTool) Definition() mcp.Tool {
	return mcp.NewTool("story_move",
		mcp.WithDescription("Move a story to another sprint, optionally to a position within it."),
		mcp.WithString("story_id",
			mcp.Required(),
			mcp.Description("Story ID from board_show"),
		),
		mcp.WithString("sprint_id",
			mcp.Required(),
			mcp.Description("Target sprint ID"),
		),
		mcp.WithNumber("position",
			mcp.Description("1-based position in the target sprint; omitted appends"),
		),
	)
}

// Handle processes the story_move tool call.
func (t *MoveStoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("story_id")
	if err != nil {
		return mcp.NewToolResultError("'story_id' is required"), nil
	}
	target, err := req.RequireString("sprint_id")
	if err != nil {
		return mcp.NewToolResultError("'sprint_id' is required"), nil
	}

	var pos *int
	if p, ok := intArg(req, "position"); ok {
		if p < 1 {
			return mcp.NewToolResultError("'position' must be 1 or more"), nil
		}
		pos = &p
	}

	if err := t.board.MoveStory(ctx, id, target, pos); err != nil {
		return toolError(board.OpMoveStory, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Moved story %s to sprint %s", id, target)), nil
}
