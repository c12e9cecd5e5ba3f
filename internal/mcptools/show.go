package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nhle/sprint-board/internal/board"
	"github.com/nhle/sprint-board/internal/layout"
)

// ShowTool handles board_show.
type ShowTool struct {
	board *board.Board
}

// NewShowTool creates a ShowTool.
func NewShowTool(b *board.Board) *ShowTool {
	return &ShowTool{board: b}
}

// Definition returns the MCP tool definition for board_show.
func (t *ShowTool) Definition() mcp.Tool {
	return mcp.NewTool("board_show",
		mcp.WithDescription("Show the board: sprints in display order with their stories."),
		mcp.WithBoolean("completed",
			mcp.Description("Include completed stories (default true)"),
		),
	)
}

// Handle processes the board_show tool call.
func (t *ShowTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.board.Load(ctx, false); err != nil {
		return toolError(board.OpLoad, err), nil
	}
	showCompleted := true
	if v, ok := req.GetArguments()["completed"].(bool); ok {
		showCompleted = v
	}
	return mcp.NewToolResultText(Render(t.board.View(), showCompleted)), nil
}

// Render formats a view as markdown.
func Render(v board.View, showCompleted bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Board (%d stories)\n", v.StoryCount())
	for _, sp := range v.Sprints {
		fmt.Fprintf(&sb, "\n## %s %s `%s` [%s] %d/%d done\n",
			sp.Icon, sp.Title, sp.ID, roleLabel(sp.Role), sp.CompletedCount(), len(sp.Stories))
		if len(sp.Stories) == 0 {
			sb.WriteString("- (empty)\n")
			continue
		}
		for _, st := range sp.Stories {
			if st.Completed && !showCompleted {
				continue
			}
			mark := " "
			if st.Completed {
				mark = "x"
			}
			fmt.Fprintf(&sb, "- [%s] %s %s `%s`", mark, st.Number, st.Title, st.ID)
			if len(st.Tags) > 0 {
				fmt.Fprintf(&sb, " #%s", strings.Join(st.Tags, " #"))
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func roleLabel(r layout.Role) string {
	switch r {
	case layout.RolePriority:
		return "priority"
	case layout.RoleBacklog:
		return "backlog"
	}
	return "sprint"
}
