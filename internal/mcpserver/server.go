// Package mcpserver exposes stored feedback to MCP clients as read-only
// tools, so an assistant can summarize open comments on an artwork.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/feedback"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// Reader is the read side of the feedback store.
type Reader interface {
	ListFeedback(ctx context.Context, artwork feedback.ArtworkRef) ([]feedback.Item, error)
	ListReplies(ctx context.Context, parentID string) ([]feedback.Item, error)
}

// Tools holds the tool handlers.
type Tools struct {
	reader Reader
	logger zerolog.Logger
}

// NewTools creates handlers reading from r.
func NewTools(r Reader, logger zerolog.Logger) *Tools {
	return &Tools{reader: r, logger: logger.With().Str("component", "mcp").Logger()}
}

// New builds an MCP server with the feedback tools registered.
func New(r Reader, version string, logger zerolog.Logger) *server.MCPServer {
	s := server.NewMCPServer("viu", version, server.WithToolCapabilities(false))
	t := NewTools(r, logger)

	s.AddTool(mcp.NewTool("list_feedback",
		mcp.WithDescription("List the comments left on one version of an artwork, oldest first."),
		mcp.WithString("artwork_id", mcp.Required(), mcp.Description("Artwork identifier")),
		mcp.WithNumber("version", mcp.Required(), mcp.Description("Artwork version number")),
		mcp.WithBoolean("open_only", mcp.Description("Only return comments that are not resolved")),
	), t.ListFeedback)

	s.AddTool(mcp.NewTool("list_replies",
		mcp.WithDescription("List the replies in a comment's thread, oldest first."),
		mcp.WithString("feedback_id", mcp.Required(), mcp.Description("Id of the top-level comment")),
	), t.ListReplies)

	return s
}

// ListFeedback handles the list_feedback tool.
func (t *Tools) ListFeedback(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	artworkID, err := req.RequireString("artwork_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	version, err := req.RequireInt("version")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	openOnly := req.GetBool("open_only", false)

	items, err := t.reader.ListFeedback(ctx, feedback.ArtworkRef{ArtworkID: artworkID, Version: version})
	if err != nil {
		t.logger.Warn().Err(err).Str("artwork", artworkID).Msg("list_feedback failed")
		return mcp.NewToolResultError(fmt.Sprintf("list feedback: %v", err)), nil
	}
	if openOnly {
		open := items[:0]
		for _, it := range items {
			if it.Status == feedback.StatusOpen {
				open = append(open, it)
			}
		}
		items = open
	}
	return jsonResult(items)
}

// ListReplies handles the list_replies tool.
func (t *Tools) ListReplies(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parentID, err := req.RequireString("feedback_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := t.reader.ListReplies(ctx, parentID)
	if err != nil {
		t.logger.Warn().Err(err).Str("parent_id", parentID).Msg("list_replies failed")
		return mcp.NewToolResultError(fmt.Sprintf("list replies: %v", err)), nil
	}
	return jsonResult(items)
}

func jsonResult(items []feedback.Item) (*mcp.CallToolResult, error) {
	if items == nil {
		items = []feedback.Item{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
