package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/englishhub/englishhub/internal/model"
)

const categoriesURI = "englishhub://categories"

func (s *CatalogServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			categoriesURI,
			"Content Categories",
			mcp.WithResourceDescription(
				"Catalog categories with their item counts, plus the difficulty levels items are tagged with.",
			),
			mcp.WithMIMEType("application/json"),
		),
		s.handleCategoriesResource,
	)
}

func (s *CatalogServer) handleCategoriesResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	type categoryInfo struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}
	counts := make(map[model.Category]int, len(model.Categories))
	for _, c := range items {
		counts[c.Category]++
	}

	cats := make([]categoryInfo, len(model.Categories))
	for i, c := range model.Categories {
		cats[i] = categoryInfo{Name: string(c), Count: counts[c]}
	}
	difficulties := make([]string, len(model.Difficulties))
	for i, d := range model.Difficulties {
		difficulties[i] = string(d)
	}

	b, err := json.MarshalIndent(map[string]any{
		"categories":   cats,
		"difficulties": difficulties,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal categories: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      categoriesURI,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
