package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/dirsite/internal/card"
	"github.com/ziadkadry99/dirsite/internal/listing"
)

const defaultLimit = 20

// handleSearchListings runs the same name search as the site's search box.
func (s *Server) handleSearchListings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(request.GetString("query", ""))
	limit := request.GetInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	mappableOnly := request.GetBool("mappable_only", false)

	var (
		items []listing.Listing
		err   error
	)
	if query == "" {
		items, err = s.store.List(ctx)
	} else {
		items, err = s.store.Search(ctx, query)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if mappableOnly {
		kept := items[:0:0]
		for _, l := range items {
			if l.Mappable() {
				kept = append(kept, l)
			}
		}
		items = kept
	}

	if len(items) == 0 {
		if query == "" {
			return mcp.NewToolResultText("The directory has no listings."), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("No listings match %q.", query)), nil
	}

	total := len(items)
	if len(items) > limit {
		items = items[:limit]
	}
	return mcp.NewToolResultText(s.formatListings(items, total)), nil
}

// handleGetListing returns one listing in full.
func (s *Server) handleGetListing(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	l, err := s.store.Get(ctx, listing.ID(strings.TrimSpace(id)))
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("No listing with id %q.", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to load listing: %v", err)), nil
	}

	var sb strings.Builder
	s.writeListing(&sb, *l)
	if l.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(l.Description)
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// formatListings renders listings as text for AI agent consumption.
func (s *Server) formatListings(items []listing.Listing, total int) string {
	var sb strings.Builder
	if total > len(items) {
		sb.WriteString(fmt.Sprintf("Found %d listing(s), showing %d:\n", total, len(items)))
	} else {
		sb.WriteString(fmt.Sprintf("Found %d listing(s):\n", total))
	}

	for _, l := range items {
		sb.WriteString("\n")
		s.writeListing(&sb, l)
	}
	return sb.String()
}

func (s *Server) writeListing(sb *strings.Builder, l listing.Listing) {
	sb.WriteString(fmt.Sprintf("--- %s (id %s) ---\n", l.Name, l.ID))
	if l.Mappable() {
		sb.WriteString(fmt.Sprintf("Location: %s, %s\n", listing.FormatCoord(l.Latitude), listing.FormatCoord(l.Longitude)))
	}
	if l.WebsiteURL != "" {
		sb.WriteString(fmt.Sprintf("Website: %s\n", l.WebsiteURL))
	}
	if l.ImageURL != "" {
		sb.WriteString(fmt.Sprintf("Image: %s\n", l.ImageURL))
	}
	sb.WriteString(fmt.Sprintf("Details: %s%s\n", strings.TrimSuffix(s.siteURL, "/"), card.DetailPath(l.ID)))
}
