package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/feedback"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var artwork = feedback.ArtworkRef{ArtworkID: "poster", Version: 3}

func seed(t *testing.T) (*store.Store, feedback.Item) {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	author := feedback.Author{DisplayName: "Ana"}
	pos := feedback.NewPosition(0.2, 0.4)
	first, err := s.SubmitFeedback(ctx, feedback.Input{
		Artwork: artwork, Kind: feedback.KindText, Content: "logo too small", Position: &pos, Author: author,
	})
	require.NoError(t, err)
	second, err := s.SubmitFeedback(ctx, feedback.Input{
		Artwork: artwork, Kind: feedback.KindText, Content: "typo in footer", Author: author,
	})
	require.NoError(t, err)
	require.NoError(t, s.SetStatus(ctx, second.ID, feedback.StatusResolved))
	_, err = s.SubmitFeedback(ctx, feedback.Input{
		Artwork: artwork, Kind: feedback.KindText, Content: "will fix", ParentID: first.ID, Author: author,
	})
	require.NoError(t, err)
	return s, first
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func decode(t *testing.T, res *mcp.CallToolResult) []feedback.Item {
	t.Helper()
	require.NotNil(t, res)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	var items []feedback.Item
	require.NoError(t, json.Unmarshal([]byte(text.Text), &items))
	return items
}

func TestListFeedback(t *testing.T) {
	t.Parallel()
	s, _ := seed(t)
	tools := NewTools(s, zerolog.Nop())

	res, err := tools.ListFeedback(context.Background(), call(map[string]any{
		"artwork_id": "poster", "version": float64(3),
	}))
	require.NoError(t, err)
	items := decode(t, res)
	require.Len(t, items, 2)
	assert.Equal(t, "logo too small", items[0].Content)
	assert.Equal(t, feedback.StatusResolved, items[1].Status)

	res, err = tools.ListFeedback(context.Background(), call(map[string]any{
		"artwork_id": "poster", "version": float64(3), "open_only": true,
	}))
	require.NoError(t, err)
	items = decode(t, res)
	require.Len(t, items, 1)
	assert.Equal(t, feedback.StatusOpen, items[0].Status)
}

func TestListFeedbackOtherVersionIsEmpty(t *testing.T) {
	t.Parallel()
	s, _ := seed(t)
	tools := NewTools(s, zerolog.Nop())

	res, err := tools.ListFeedback(context.Background(), call(map[string]any{
		"artwork_id": "poster", "version": float64(4),
	}))
	require.NoError(t, err)
	assert.Empty(t, decode(t, res))
}

func TestListFeedbackMissingArguments(t *testing.T) {
	t.Parallel()
	tools := NewTools(failingReader{}, zerolog.Nop())

	res, err := tools.ListFeedback(context.Background(), call(map[string]any{"version": float64(1)}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = tools.ListReplies(context.Background(), call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestListReplies(t *testing.T) {
	t.Parallel()
	s, first := seed(t)
	tools := NewTools(s, zerolog.Nop())

	res, err := tools.ListReplies(context.Background(), call(map[string]any{"feedback_id": first.ID}))
	require.NoError(t, err)
	items := decode(t, res)
	require.Len(t, items, 1)
	assert.Equal(t, "will fix", items[0].Content)
	assert.Equal(t, first.ID, items[0].ParentID)
}

type failingReader struct{}

func (failingReader) ListFeedback(context.Context, feedback.ArtworkRef) ([]feedback.Item, error) {
	return nil, fmt.Errorf("database is locked")
}

func (failingReader) ListReplies(context.Context, string) ([]feedback.Item, error) {
	return nil, fmt.Errorf("database is locked")
}

func TestReaderErrorIsToolError(t *testing.T) {
	t.Parallel()
	tools := NewTools(failingReader{}, zerolog.Nop())

	res, err := tools.ListFeedback(context.Background(), call(map[string]any{
		"artwork_id": "poster", "version": float64(1),
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestNewRegistersTools(t *testing.T) {
	t.Parallel()
	s := New(failingReader{}, "test", zerolog.Nop())

	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"list_feedback"`)
	assert.Contains(t, string(data), `"list_replies"`)
}
