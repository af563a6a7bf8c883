package mcp

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/englishhub/englishhub/internal/model"
	"github.com/englishhub/englishhub/internal/store"
)

func (s *CatalogServer) registerTools(srv *server.MCPServer) {
	srv.AddTool(
		mcp.NewTool("englishhub_list_content",
			mcp.WithDescription(
				"List English-learning videos in the catalog, newest first. Each item "+
					"has a title, description, YouTube URL, embed URL, category "+
					"(listening, speaking, reading) and difficulty (beginner, "+
					"intermediate, advanced).",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("category",
				mcp.Description("Only list this category"),
				mcp.Enum(categoryNames()...),
			),
		),
		s.handleListContent,
	)

	srv.AddTool(
		mcp.NewTool("englishhub_get_content",
			mcp.WithDescription("Fetch one catalog item by id."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Content id as returned by englishhub_list_content"),
			),
		),
		s.handleGetContent,
	)
}

func categoryNames() []string {
	names := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		names[i] = string(c)
	}
	return names
}

// catalogItem is the tool-facing view of a content item.
type catalogItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	YouTubeURL  string `json:"youtube_url"`
	EmbedURL    string `json:"embed_url,omitempty"`
	Category    string `json:"category"`
	Difficulty  string `json:"difficulty"`
	CreatedAt   string `json:"created_at"`
}

func itemOf(c model.Content) catalogItem {
	return catalogItem{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		YouTubeURL:  c.YouTubeURL,
		EmbedURL:    c.EmbedURL(),
		Category:    string(c.Category),
		Difficulty:  string(c.Difficulty),
		CreatedAt:   c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *CatalogServer) handleListContent(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	var (
		items []model.Content
		err   error
	)
	if raw := strings.TrimSpace(optionalString(request, "category")); raw != "" {
		category, perr := model.ParseCategory(raw)
		if perr != nil {
			return toolError("Unknown category %q. Use one of: %s", raw, strings.Join(categoryNames(), ", "))
		}
		items, err = s.repo.ListByCategory(ctx, category)
	} else {
		items, err = s.repo.List(ctx)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "mcp list content failed", "error", err)
		return toolError("The catalog is unavailable right now")
	}

	out := make([]catalogItem, len(items))
	for i, c := range items {
		out[i] = itemOf(c)
	}
	return successJSON(map[string]any{"count": len(out), "items": out})
}

func (s *CatalogServer) handleGetContent(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	id, err := requireString(request, "id")
	if err != nil {
		return toolError("%v", err)
	}
	item, err := s.repo.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return toolError("No content with id %q", id)
		}
		s.logger.ErrorContext(ctx, "mcp get content failed", "error", err)
		return toolError("The catalog is unavailable right now")
	}
	return successJSON(itemOf(*item))
}
