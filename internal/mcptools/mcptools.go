// Package mcptools exposes a board as MCP tools so assistants can read and
// edit sprints over stdio.
//
// Each tool is a struct holding its dependencies with Definition returning
// the mcp.Tool schema and Handle processing a call. Failures are reported
// as tool errors, never as protocol errors.
package mcptools

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nhle/sprint-board/internal/board"
)

// NewServer builds an MCP server with every board tool registered.
func NewServer(b *board.Board, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"sprintboard",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	show := NewShowTool(b)
	s.AddTool(show.Definition(), show.Handle)

	add := NewAddStoryTool(b)
	s.AddTool(add.Definition(), add.Handle)

	toggle := NewToggleStoryTool(b)
	s.AddTool(toggle.Definition(), toggle.Handle)

	move := NewMoveStoryTool(b)
	s.AddTool(move.Definition(), move.Handle)

	closeSprint := NewCloseSprintTool(b)
	s.AddTool(closeSprint.Definition(), closeSprint.Handle)

	return s
}

const instructions = `sprintboard manages sprints of user stories.
Call board_show first: it lists every sprint with its ID and every story with
its ID and number. Stories live in exactly one sprint. The priority sprint and
the backlog always exist and cannot be removed.`

// intArg extracts an integer argument, returning ok=false when missing.
// JSON numbers arrive as float64.
func intArg(req mcp.CallToolRequest, key string) (int, bool) {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return 0, false
	}
	return int(v), true
}

func toolError(op string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s (%v)", board.Describe(op, err), err))
}
